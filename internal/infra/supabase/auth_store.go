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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// --- Support agents & refresh tokens (implements port.AuthStore) ---

type agentRow struct {
	ID           string `json:"id"`
	BusinessID   string `json:"business_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	CreatedAt    string `json:"created_at"`
}

func (r agentRow) toDomain() domain.SupportAgent {
	return domain.SupportAgent{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    parseTime(r.CreatedAt),
	}
}

type refreshTokenRow struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	TokenHash string `json:"token_hash"`
	ExpiresAt string `json:"expires_at"`
	Revoked   bool   `json:"revoked"`
	CreatedAt string `json:"created_at"`
}

func (r refreshTokenRow) toDomain() domain.AuthRefreshToken {
	return domain.AuthRefreshToken{
		ID:        r.ID,
		AgentID:   r.AgentID,
		TokenHash: r.TokenHash,
		ExpiresAt: parseTime(r.ExpiresAt),
		Revoked:   r.Revoked,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

// GetAgentByEmail fetches one agent by email.
func (c *Client) GetAgentByEmail(ctx context.Context, email string) (*domain.SupportAgent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAgentByEmail")
	defer span.End()

	return c.getAgentBy(ctx, "email", email)
}

// GetAgentByID fetches one agent by ID.
func (c *Client) GetAgentByID(ctx context.Context, agentID string) (*domain.SupportAgent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAgentByID")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", agentID))

	return c.getAgentBy(ctx, "id", agentID)
}

func (c *Client) getAgentBy(ctx context.Context, column, value string) (*domain.SupportAgent, error) {
	var agent *domain.SupportAgent
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("agents?%s=eq.%s&limit=1", column, url.QueryEscape(value))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "agent", ID: value}
		}

		var rows []agentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode agent: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "agent", ID: value}
		}
		v := rows[0].toDomain()
		agent = &v
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/agents", Err: err}
	}
	return agent, nil
}

// CreateAgent inserts a new support agent. The password hash must already
// be computed by the caller.
func (c *Client) CreateAgent(ctx context.Context, agent *domain.SupportAgent) (*domain.SupportAgent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAgent")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", agent.BusinessID))

	var created *domain.SupportAgent
	err := c.withResilience(ctx, func() error {
		body, err := c.doPost(ctx, "agents", map[string]any{
			"id":            agent.ID,
			"business_id":   agent.BusinessID,
			"name":          agent.Name,
			"email":         agent.Email,
			"password_hash": agent.PasswordHash,
			"role":          agent.Role,
		})
		if err != nil {
			return err
		}

		var rows []agentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode agent: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no agent row")
		}
		v := rows[0].toDomain()
		created = &v
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/agents", Err: err}
	}
	return created, nil
}

// StoreRefreshToken persists a hashed refresh token.
func (c *Client) StoreRefreshToken(ctx context.Context, agentID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", agentID))

	err := c.withResilience(ctx, func() error {
		_, err := c.doPost(ctx, "auth_refresh_tokens", map[string]any{
			"id":         uuid.New().String(),
			"agent_id":   agentID,
			"token_hash": tokenHash,
			"expires_at": expiresAt.UTC().Format(time.RFC3339),
			"revoked":    false,
		})
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	return nil
}

// GetRefreshToken looks a stored token up by its hash.
func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	var token *domain.AuthRefreshToken
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s&limit=1", url.QueryEscape(tokenHash))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "refresh_token", ID: ""}
		}

		var rows []refreshTokenRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode refresh token: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "refresh_token", ID: ""}
		}
		v := rows[0].toDomain()
		token = &v
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	return token, nil
}

// RevokeRefreshToken marks one token revoked.
func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s", url.QueryEscape(tokenHash))
		return c.doPatch(ctx, path, map[string]any{"revoked": true})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	return nil
}

// RevokeAllRefreshTokens revokes every token of one agent (logout-all).
func (c *Client) RevokeAllRefreshTokens(ctx context.Context, agentID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", agentID))

	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("auth_refresh_tokens?agent_id=eq.%s", url.QueryEscape(agentID))
		return c.doPatch(ctx, path, map[string]any{"revoked": true})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	return nil
}
