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

// --- Chat sessions & messages (implements port.ChatStore) ---

type sessionRow struct {
	ID                 string `json:"id"`
	BusinessID         string `json:"business_id"`
	CustomerName       string `json:"customer_name"`
	CustomerEmail      string `json:"customer_email"`
	Status             string `json:"status"`
	ConversationState  string `json:"conversation_state"`
	EscalationAttempts int    `json:"escalation_attempts"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func (r sessionRow) toDomain() domain.ChatSession {
	return domain.ChatSession{
		ID:                 r.ID,
		BusinessID:         r.BusinessID,
		CustomerName:       r.CustomerName,
		CustomerEmail:      r.CustomerEmail,
		Status:             r.Status,
		ConversationState:  r.ConversationState,
		EscalationAttempts: r.EscalationAttempts,
		CreatedAt:          parseTime(r.CreatedAt),
		UpdatedAt:          parseTime(r.UpdatedAt),
	}
}

type messageRow struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Intent    string `json:"intent"`
	CreatedAt string `json:"created_at"`
}

func (r messageRow) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		ID:        r.ID,
		SessionID: r.SessionID,
		Sender:    r.Sender,
		Content:   r.Content,
		Intent:    r.Intent,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

// CreateSession opens a new conversation for a business.
func (c *Client) CreateSession(ctx context.Context, businessID string, req *domain.CreateSessionRequest) (*domain.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSession")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	var session *domain.ChatSession
	err := c.withResilience(ctx, func() error {
		body, err := c.doPost(ctx, "chat_sessions", map[string]any{
			"id":                  uuid.New().String(),
			"business_id":         businessID,
			"customer_name":       req.CustomerName,
			"customer_email":      req.CustomerEmail,
			"status":              domain.SessionStatusActive,
			"conversation_state":  "initial_contact",
			"escalation_attempts": 0,
		})
		if err != nil {
			return err
		}

		var rows []sessionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no session row")
		}
		v := rows[0].toDomain()
		session = &v
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/chat_sessions", Err: err}
	}
	return session, nil
}

// GetSession fetches one session by ID.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSession")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	var session *domain.ChatSession
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("chat_sessions?id=eq.%s&limit=1", url.QueryEscape(sessionID))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "session", ID: sessionID}
		}

		var rows []sessionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "session", ID: sessionID}
		}
		v := rows[0].toDomain()
		session = &v
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/chat_sessions", Err: err}
	}
	return session, nil
}

// UpdateSessionState patches the status and conversation state of a session.
func (c *Client) UpdateSessionState(ctx context.Context, sessionID, status, conversationState string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateSessionState")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("session.state", conversationState),
	)

	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("chat_sessions?id=eq.%s", url.QueryEscape(sessionID))
		return c.doPatch(ctx, path, map[string]any{
			"status":             status,
			"conversation_state": conversationState,
			"updated_at":         time.Now().UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/chat_sessions", Err: err}
	}
	return nil
}

// IncrementEscalationAttempts bumps the per-session attempt counter through a
// stored procedure so concurrent turns cannot lose an increment.
func (c *Client) IncrementEscalationAttempts(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.IncrementEscalationAttempts")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	err := c.withResilience(ctx, func() error {
		return c.doRPC(ctx, "increment_escalation_attempts", map[string]any{
			"p_session_id": sessionID,
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/chat_sessions", Err: err}
	}
	return nil
}

// AppendMessage writes one turn of a session.
func (c *Client) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	ctx, span := tracer.Start(ctx, "Supabase.AppendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", msg.SessionID))

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	err := c.withResilience(ctx, func() error {
		_, err := c.doPost(ctx, "chat_messages", map[string]any{
			"id":         msg.ID,
			"session_id": msg.SessionID,
			"sender":     msg.Sender,
			"content":    msg.Content,
			"intent":     msg.Intent,
		})
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/chat_messages", Err: err}
	}
	return nil
}

// ListMessages returns the full turn log of a session, oldest first.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMessages")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	var messages []domain.ChatMessage
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("chat_messages?session_id=eq.%s&order=created_at.asc", url.QueryEscape(sessionID))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			messages = []domain.ChatMessage{}
			return nil
		}

		var rows []messageRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode messages: %w", err)
		}
		messages = make([]domain.ChatMessage, 0, len(rows))
		for _, r := range rows {
			messages = append(messages, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/chat_messages", Err: err}
	}
	return messages, nil
}
