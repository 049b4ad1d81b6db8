package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Escalation cases (implements port.EscalationStore) ---

type escalationRow struct {
	ID            string `json:"id"`
	CaseNumber    string `json:"case_number"`
	SessionID     string `json:"session_id"`
	BusinessID    string `json:"business_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Reason        string `json:"reason"`
	Score         int    `json:"score"`
	Tier          string `json:"tier"`
	Status        string `json:"status"`
	Resolution    string `json:"resolution"`
	ResolvedBy    string `json:"resolved_by"`
	CreatedAt     string `json:"created_at"`
	ResolvedAt    string `json:"resolved_at"`
}

func (r escalationRow) toDomain() domain.EscalationCase {
	e := domain.EscalationCase{
		ID:            r.ID,
		CaseNumber:    r.CaseNumber,
		SessionID:     r.SessionID,
		BusinessID:    r.BusinessID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Reason:        r.Reason,
		Score:         r.Score,
		Tier:          r.Tier,
		Status:        r.Status,
		Resolution:    r.Resolution,
		ResolvedBy:    r.ResolvedBy,
		CreatedAt:     parseTime(r.CreatedAt),
	}
	if r.ResolvedAt != "" {
		t := parseTime(r.ResolvedAt)
		e.ResolvedAt = &t
	}
	return e
}

// CreateEscalation opens a new human-handoff case.
func (c *Client) CreateEscalation(ctx context.Context, e *domain.EscalationCase) (*domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateEscalation")
	defer span.End()
	span.SetAttributes(
		attribute.String("business.id", e.BusinessID),
		attribute.String("escalation.case_number", e.CaseNumber),
	)

	var created *domain.EscalationCase
	err := c.withResilience(ctx, func() error {
		body, err := c.doPost(ctx, "escalations", map[string]any{
			"id":             e.ID,
			"case_number":    e.CaseNumber,
			"session_id":     e.SessionID,
			"business_id":    e.BusinessID,
			"customer_name":  e.CustomerName,
			"customer_email": e.CustomerEmail,
			"reason":         e.Reason,
			"score":          e.Score,
			"tier":           e.Tier,
			"status":         domain.EscalationStatusPending,
		})
		if err != nil {
			return err
		}

		var rows []escalationRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode escalation: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no escalation row")
		}
		v := rows[0].toDomain()
		created = &v
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/escalations", Err: err}
	}
	return created, nil
}

// GetEscalation fetches one case by ID.
func (c *Client) GetEscalation(ctx context.Context, caseID string) (*domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetEscalation")
	defer span.End()
	span.SetAttributes(attribute.String("escalation.id", caseID))

	return c.getEscalationBy(ctx, "id", caseID)
}

// GetEscalationByCaseNumber fetches one case by its public case number.
func (c *Client) GetEscalationByCaseNumber(ctx context.Context, caseNumber string) (*domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetEscalationByCaseNumber")
	defer span.End()
	span.SetAttributes(attribute.String("escalation.case_number", caseNumber))

	return c.getEscalationBy(ctx, "case_number", caseNumber)
}

func (c *Client) getEscalationBy(ctx context.Context, column, value string) (*domain.EscalationCase, error) {
	var caseOut *domain.EscalationCase
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("escalations?%s=eq.%s&limit=1", column, url.QueryEscape(value))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "escalation", ID: value}
		}

		var rows []escalationRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode escalation: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "escalation", ID: value}
		}
		v := rows[0].toDomain()
		caseOut = &v
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/escalations", Err: err}
	}
	return caseOut, nil
}

// ListEscalations returns a filtered page of cases, newest first.
func (c *Client) ListEscalations(ctx context.Context, filters domain.EscalationFilters, page, pageSize int) ([]domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEscalations")
	defer span.End()

	var cases []domain.EscalationCase
	err := c.withResilience(ctx, func() error {
		var parts []string
		if filters.BusinessID != "" {
			parts = append(parts, "business_id=eq."+url.QueryEscape(filters.BusinessID))
		}
		if filters.SessionID != "" {
			parts = append(parts, "session_id=eq."+url.QueryEscape(filters.SessionID))
		}
		if filters.Status != "" {
			parts = append(parts, "status=eq."+url.QueryEscape(filters.Status))
		}
		offset := (page - 1) * pageSize
		parts = append(parts, fmt.Sprintf("order=created_at.desc&limit=%d&offset=%d", pageSize, offset))

		body, err := c.doRequest(ctx, http.MethodGet, "escalations?"+strings.Join(parts, "&"))
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			cases = []domain.EscalationCase{}
			return nil
		}

		var rows []escalationRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode escalations: %w", err)
		}
		cases = make([]domain.EscalationCase, 0, len(rows))
		for _, r := range rows {
			cases = append(cases, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/escalations", Err: err}
	}
	return cases, nil
}

// UpdateEscalationStatus moves a case between workflow states.
func (c *Client) UpdateEscalationStatus(ctx context.Context, caseID, status string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateEscalationStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("escalation.id", caseID),
		attribute.String("escalation.status", status),
	)

	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("escalations?id=eq.%s", url.QueryEscape(caseID))
		return c.doPatch(ctx, path, map[string]any{"status": status})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/escalations", Err: err}
	}
	return nil
}

// ResolveEscalation closes a case with a resolution note.
func (c *Client) ResolveEscalation(ctx context.Context, caseID, resolution, resolvedBy string, resolvedAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.ResolveEscalation")
	defer span.End()
	span.SetAttributes(attribute.String("escalation.id", caseID))

	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("escalations?id=eq.%s", url.QueryEscape(caseID))
		return c.doPatch(ctx, path, map[string]any{
			"status":      domain.EscalationStatusResolved,
			"resolution":  resolution,
			"resolved_by": resolvedBy,
			"resolved_at": resolvedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/escalations", Err: err}
	}
	return nil
}
