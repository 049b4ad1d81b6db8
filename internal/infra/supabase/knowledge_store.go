package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// --- Knowledge base (implements port.KnowledgeStore) ---
//
// Four flat tables keyed by business_id: products, services, policies, faqs.
// The listing queries are the hot path (every chat turn reads the knowledge
// base), so the service layer caches them; here we just fetch.

type productRow struct {
	ID          string  `json:"id"`
	BusinessID  string  `json:"business_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	InStock     bool    `json:"in_stock"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		BusinessID:  r.BusinessID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		InStock:     r.InStock,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

type serviceRow struct {
	ID          string  `json:"id"`
	BusinessID  string  `json:"business_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Duration    string  `json:"duration"`
	Available   bool    `json:"available"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func (r serviceRow) toDomain() domain.ServiceItem {
	return domain.ServiceItem{
		ID:          r.ID,
		BusinessID:  r.BusinessID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Duration:    r.Duration,
		Available:   r.Available,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

type policyRow struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func (r policyRow) toDomain() domain.Policy {
	return domain.Policy{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Title:      r.Title,
		Content:    r.Content,
		Type:       r.Type,
		CreatedAt:  parseTime(r.CreatedAt),
		UpdatedAt:  parseTime(r.UpdatedAt),
	}
}

type faqRow struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func (r faqRow) toDomain() domain.FAQ {
	return domain.FAQ{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Question:   r.Question,
		Answer:     r.Answer,
		IsActive:   r.IsActive,
		CreatedAt:  parseTime(r.CreatedAt),
		UpdatedAt:  parseTime(r.UpdatedAt),
	}
}

// insertOne posts a row and decodes the single returned representation.
func insertOne[R any](ctx context.Context, c *Client, table string, data map[string]any) (*R, error) {
	var row *R
	err := c.withResilience(ctx, func() error {
		body, err := c.doPost(ctx, table, data)
		if err != nil {
			return err
		}
		var rows []R
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode %s: %w", table, err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no %s row", table)
		}
		row = &rows[0]
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
	}
	return row, nil
}

// listByBusiness fetches all rows of a table for one business.
func listByBusiness[R any](ctx context.Context, c *Client, table, businessID string) ([]R, error) {
	var rows []R
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("%s?business_id=eq.%s&order=created_at.asc", table, url.QueryEscape(businessID))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		rows = []R{}
		if body == nil || string(body) == "[]" {
			return nil
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
	}
	return rows, nil
}

// deleteByID removes one row of a table.
func (c *Client) deleteByID(ctx context.Context, table, id string) error {
	err := c.withResilience(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("%s?id=eq.%s", table, url.QueryEscape(id)))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
	}
	return nil
}

// updateByID patches one row of a table.
func (c *Client) updateByID(ctx context.Context, table, id string, data map[string]any) error {
	data["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	err := c.withResilience(ctx, func() error {
		return c.doPatch(ctx, fmt.Sprintf("%s?id=eq.%s", table, url.QueryEscape(id)), data)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
	}
	return nil
}

// --- Products ---

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", p.BusinessID))

	row, err := insertOne[productRow](ctx, c, "products", map[string]any{
		"id":          uuid.New().String(),
		"business_id": p.BusinessID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"currency":    p.Currency,
		"in_stock":    p.InStock,
	})
	if err != nil {
		return nil, err
	}
	v := row.toDomain()
	return &v, nil
}

func (c *Client) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()

	rows, err := listByBusiness[productRow](ctx, c, "products", businessID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProduct")
	defer span.End()

	err := c.updateByID(ctx, "products", p.ID, map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"currency":    p.Currency,
		"in_stock":    p.InStock,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProduct")
	defer span.End()
	return c.deleteByID(ctx, "products", productID)
}

// --- Services ---

func (c *Client) CreateService(ctx context.Context, s *domain.ServiceItem) (*domain.ServiceItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateService")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", s.BusinessID))

	row, err := insertOne[serviceRow](ctx, c, "services", map[string]any{
		"id":          uuid.New().String(),
		"business_id": s.BusinessID,
		"name":        s.Name,
		"description": s.Description,
		"price":       s.Price,
		"duration":    s.Duration,
		"available":   s.Available,
	})
	if err != nil {
		return nil, err
	}
	v := row.toDomain()
	return &v, nil
}

func (c *Client) ListServices(ctx context.Context, businessID string) ([]domain.ServiceItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListServices")
	defer span.End()

	rows, err := listByBusiness[serviceRow](ctx, c, "services", businessID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ServiceItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) UpdateService(ctx context.Context, s *domain.ServiceItem) (*domain.ServiceItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateService")
	defer span.End()

	err := c.updateByID(ctx, "services", s.ID, map[string]any{
		"name":        s.Name,
		"description": s.Description,
		"price":       s.Price,
		"duration":    s.Duration,
		"available":   s.Available,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) DeleteService(ctx context.Context, serviceID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteService")
	defer span.End()
	return c.deleteByID(ctx, "services", serviceID)
}

// --- Policies ---

func (c *Client) CreatePolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePolicy")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", p.BusinessID))

	row, err := insertOne[policyRow](ctx, c, "policies", map[string]any{
		"id":          uuid.New().String(),
		"business_id": p.BusinessID,
		"title":       p.Title,
		"content":     p.Content,
		"type":        p.Type,
	})
	if err != nil {
		return nil, err
	}
	v := row.toDomain()
	return &v, nil
}

func (c *Client) ListPolicies(ctx context.Context, businessID string) ([]domain.Policy, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPolicies")
	defer span.End()

	rows, err := listByBusiness[policyRow](ctx, c, "policies", businessID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Policy, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) UpdatePolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePolicy")
	defer span.End()

	err := c.updateByID(ctx, "policies", p.ID, map[string]any{
		"title":   p.Title,
		"content": p.Content,
		"type":    p.Type,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) DeletePolicy(ctx context.Context, policyID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePolicy")
	defer span.End()
	return c.deleteByID(ctx, "policies", policyID)
}

// --- FAQs ---

func (c *Client) CreateFAQ(ctx context.Context, f *domain.FAQ) (*domain.FAQ, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateFAQ")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", f.BusinessID))

	row, err := insertOne[faqRow](ctx, c, "faqs", map[string]any{
		"id":          uuid.New().String(),
		"business_id": f.BusinessID,
		"question":    f.Question,
		"answer":      f.Answer,
		"is_active":   f.IsActive,
	})
	if err != nil {
		return nil, err
	}
	v := row.toDomain()
	return &v, nil
}

func (c *Client) ListFAQs(ctx context.Context, businessID string) ([]domain.FAQ, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListFAQs")
	defer span.End()

	rows, err := listByBusiness[faqRow](ctx, c, "faqs", businessID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FAQ, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) UpdateFAQ(ctx context.Context, f *domain.FAQ) (*domain.FAQ, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateFAQ")
	defer span.End()

	err := c.updateByID(ctx, "faqs", f.ID, map[string]any{
		"question":  f.Question,
		"answer":    f.Answer,
		"is_active": f.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (c *Client) DeleteFAQ(ctx context.Context, faqID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteFAQ")
	defer span.End()
	return c.deleteByID(ctx, "faqs", faqID)
}
