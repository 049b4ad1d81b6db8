package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Businesses (implements port.BusinessStore) ---

// businessRow maps the businesses table columns to our domain.
type businessRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Address     string `json:"address"`
	LogoURL     string `json:"logo_url"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (r businessRow) toDomain() domain.Business {
	return domain.Business{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Description: r.Description,
		Category:    r.Category,
		Address:     r.Address,
		LogoURL:     r.LogoURL,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

// parseTime handles the two timestamp shapes PostgREST returns.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02T15:04:05", s)
	return t
}

// CreateBusiness inserts a business row.
func (c *Client) CreateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBusiness")
	defer span.End()

	var created *domain.Business
	err := c.withResilience(ctx, func() error {
		body, err := c.doPost(ctx, "businesses", map[string]any{
			"id":          b.ID,
			"name":        b.Name,
			"email":       b.Email,
			"description": b.Description,
			"category":    b.Category,
			"address":     b.Address,
			"logo_url":    b.LogoURL,
		})
		if err != nil {
			return err
		}

		var rows []businessRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode business: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no business row")
		}
		v := rows[0].toDomain()
		created = &v
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/businesses", Err: err}
	}
	return created, nil
}

// GetBusiness fetches one business by ID.
func (c *Client) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBusiness")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	var business *domain.Business
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("businesses?id=eq.%s&limit=1", url.QueryEscape(businessID))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "business", ID: businessID}
		}

		var rows []businessRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode business: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "business", ID: businessID}
		}
		v := rows[0].toDomain()
		business = &v
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/businesses", Err: err}
	}
	return business, nil
}

// ListBusinesses returns a page of businesses ordered by creation time.
func (c *Client) ListBusinesses(ctx context.Context, page, pageSize int) ([]domain.Business, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBusinesses")
	defer span.End()

	var businesses []domain.Business
	err := c.withResilience(ctx, func() error {
		offset := (page - 1) * pageSize
		path := fmt.Sprintf("businesses?order=created_at.desc&limit=%d&offset=%d", pageSize, offset)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			businesses = []domain.Business{}
			return nil
		}

		var rows []businessRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode businesses: %w", err)
		}
		businesses = make([]domain.Business, 0, len(rows))
		for _, r := range rows {
			businesses = append(businesses, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/businesses", Err: err}
	}
	return businesses, nil
}

// UpdateBusiness patches mutable business fields and reads the row back.
func (c *Client) UpdateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBusiness")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", b.ID))

	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("businesses?id=eq.%s", url.QueryEscape(b.ID))
		return c.doPatch(ctx, path, map[string]any{
			"name":        b.Name,
			"email":       b.Email,
			"description": b.Description,
			"category":    b.Category,
			"address":     b.Address,
			"logo_url":    b.LogoURL,
			"updated_at":  time.Now().UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/businesses", Err: err}
	}
	return c.GetBusiness(ctx, b.ID)
}

// DeleteBusiness removes a business row.
func (c *Client) DeleteBusiness(ctx context.Context, businessID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBusiness")
	defer span.End()

	err := c.withResilience(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("businesses?id=eq.%s", url.QueryEscape(businessID)))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/businesses", Err: err}
	}
	return nil
}

// --- QR settings ---

type qrSettingsRow struct {
	BusinessID      string `json:"business_id"`
	ChatURL         string `json:"chat_url"`
	ForegroundColor string `json:"foreground_color"`
	BackgroundColor string `json:"background_color"`
	LogoEnabled     bool   `json:"logo_enabled"`
	UpdatedAt       string `json:"updated_at"`
}

// GetQRSettings fetches the QR configuration for a business.
func (c *Client) GetQRSettings(ctx context.Context, businessID string) (*domain.QRSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetQRSettings")
	defer span.End()

	var settings *domain.QRSettings
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("qr_settings?business_id=eq.%s&limit=1", url.QueryEscape(businessID))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "qr_settings", ID: businessID}
		}

		var rows []qrSettingsRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode qr settings: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "qr_settings", ID: businessID}
		}
		r := rows[0]
		settings = &domain.QRSettings{
			BusinessID:      r.BusinessID,
			ChatURL:         r.ChatURL,
			ForegroundColor: r.ForegroundColor,
			BackgroundColor: r.BackgroundColor,
			LogoEnabled:     r.LogoEnabled,
			UpdatedAt:       parseTime(r.UpdatedAt),
		}
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/qr_settings", Err: err}
	}
	return settings, nil
}

// UpsertQRSettings writes the QR configuration for a business.
func (c *Client) UpsertQRSettings(ctx context.Context, s *domain.QRSettings) (*domain.QRSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertQRSettings")
	defer span.End()

	err := c.withResilience(ctx, func() error {
		_, err := c.doPost(ctx, "qr_settings?on_conflict=business_id", map[string]any{
			"business_id":      s.BusinessID,
			"chat_url":         s.ChatURL,
			"foreground_color": s.ForegroundColor,
			"background_color": s.BackgroundColor,
			"logo_enabled":     s.LogoEnabled,
			"updated_at":       time.Now().UTC().Format(time.RFC3339),
		})
		return err
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/qr_settings", Err: err}
	}
	return c.GetQRSettings(ctx, s.BusinessID)
}
