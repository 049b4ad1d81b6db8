// Package client holds HTTP clients for the outbound collaborators of the
// platform: the transactional email provider and the escalation mailbox API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// EmailClient sends transactional email through an HTTP email provider.
type EmailClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	fromAddr   string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewEmailClient creates a new EmailClient.
func NewEmailClient(httpClient *http.Client, baseURL, apiKey, fromAddr string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *EmailClient {
	return &EmailClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		fromAddr:   fromAddr,
		cb:         cb,
		cfg:        cfg,
	}
}

// Send delivers one outbound email.
func (c *EmailClient) Send(ctx context.Context, email *domain.OutboundEmail) error {
	ctx, span := tracer.Start(ctx, "EmailClient.Send")
	defer span.End()
	span.SetAttributes(attribute.String("email.subject", email.Subject))

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(map[string]any{
				"from":    c.fromAddr,
				"to":      []string{email.To},
				"subject": email.Subject,
				"html":    email.HTML,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/emails", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
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
				return fmt.Errorf("email API returned status %d", resp.StatusCode)
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "email", Err: err}
	}
	return nil
}
