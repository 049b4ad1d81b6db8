package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// MailboxClient talks to the escalation mailbox API. Each escalation case
// has a mail thread there; the chatbot appends the handoff summary and the
// dashboard reads the thread back.
type MailboxClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewMailboxClient creates a new MailboxClient.
func NewMailboxClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *MailboxClient {
	return &MailboxClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
	}
}

// AppendMessage posts one message to a thread.
func (c *MailboxClient) AppendMessage(ctx context.Context, threadID string, msg *domain.MailboxMessage) error {
	ctx, span := tracer.Start(ctx, "MailboxClient.AppendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("mailbox.thread_id", threadID))

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(msg)
			if err != nil {
				return err
			}

			reqURL := fmt.Sprintf("%s/threads/%s/messages", c.baseURL, url.PathEscape(threadID))
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("mailbox API returned status %d", resp.StatusCode)
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "mailbox", Err: err}
	}
	return nil
}

// ListThread reads the messages of a thread, oldest first.
func (c *MailboxClient) ListThread(ctx context.Context, threadID string) ([]domain.MailboxMessage, error) {
	ctx, span := tracer.Start(ctx, "MailboxClient.ListThread")
	defer span.End()
	span.SetAttributes(attribute.String("mailbox.thread_id", threadID))

	var messages []domain.MailboxMessage

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			reqURL := fmt.Sprintf("%s/threads/%s/messages", c.baseURL, url.PathEscape(threadID))
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return err
			}
			httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("mailbox API returned status %d", resp.StatusCode)
			}

			messages = messages[:0]
			return json.NewDecoder(resp.Body).Decode(&messages)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return messages, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "mailbox", Err: err}
	}
	return result.([]domain.MailboxMessage), nil
}
