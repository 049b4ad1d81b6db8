package supabase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/infra/resilience"
	"github.com/katsura919/enquiro-backend-go/internal/infra/supabase"

	"go.uber.org/zap"
)

func newTestClient(baseURL string) *supabase.Client {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}
	cb := resilience.NewCircuitBreaker("supabase-test")
	return supabase.NewClient(&http.Client{Timeout: time.Second}, baseURL, "anon", "service", cb, cfg, zap.NewNop())
}

func TestGetSession_NotFoundDoesNotRetry(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	_, err := c.GetSession(context.Background(), "missing")

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("expected a single request for a missing row, got %d", n)
	}
}

func TestGetSession_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"sess-1","business_id":"biz-1","status":"active","conversation_state":"initial_contact","escalation_attempts":0,"created_at":"2026-08-29T10:00:00Z","updated_at":"2026-08-29T10:00:00Z"}]`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	session, err := c.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if session.ID != "sess-1" || session.BusinessID != "biz-1" {
		t.Errorf("unexpected session: %+v", session)
	}
	if n := requests.Load(); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}
