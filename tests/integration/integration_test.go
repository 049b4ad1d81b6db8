package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/engine"
	"github.com/katsura919/enquiro-backend-go/internal/handler"
	"github.com/katsura919/enquiro-backend-go/internal/infra/cache"
	"github.com/katsura919/enquiro-backend-go/internal/infra/client"
	"github.com/katsura919/enquiro-backend-go/internal/infra/llm"
	"github.com/katsura919/enquiro-backend-go/internal/infra/observability"
	"github.com/katsura919/enquiro-backend-go/internal/infra/resilience"
	"github.com/katsura919/enquiro-backend-go/internal/infra/supabase"
	"github.com/katsura919/enquiro-backend-go/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newSupabaseMock serves the PostgREST shapes one chat turn needs: a
// business, a session, an empty turn log, a knowledge base with one FAQ,
// and write endpoints that accept anything.
func newSupabaseMock(t *testing.T) *httptest.Server {
	t.Helper()

	now := time.Now().UTC().Format(time.RFC3339)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		path := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
		switch {
		case r.Method == http.MethodGet && path == "businesses":
			json.NewEncoder(w).Encode([]map[string]any{{
				"id": "biz-1", "name": "Acme Dental", "email": "owner@acme.test",
				"created_at": now, "updated_at": now,
			}})
		case r.Method == http.MethodGet && path == "chat_sessions":
			json.NewEncoder(w).Encode([]map[string]any{{
				"id": "sess-1", "business_id": "biz-1",
				"customer_name": "Pat", "customer_email": "pat@example.test",
				"status": "active", "conversation_state": "initial_contact",
				"escalation_attempts": 0,
				"created_at":          now, "updated_at": now,
			}})
		case r.Method == http.MethodGet && path == "chat_messages":
			w.Write([]byte("[]"))
		case r.Method == http.MethodGet && path == "faqs":
			json.NewEncoder(w).Encode([]map[string]any{{
				"id": "faq-1", "business_id": "biz-1",
				"question": "What are your opening hours",
				"answer":   "We are open monday to friday from nine to five",
				"is_active": true, "created_at": now, "updated_at": now,
			}})
		case r.Method == http.MethodGet:
			// products, services, policies: empty
			w.Write([]byte("[]"))
		case r.Method == http.MethodPost && path == "chat_messages":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("[]"))
		case r.Method == http.MethodPost && path == "escalations":
			var row map[string]any
			json.NewDecoder(r.Body).Decode(&row)
			row["created_at"] = now
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]map[string]any{row})
		case r.Method == http.MethodPost && strings.HasPrefix(path, "rpc/"):
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPatch:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Logf("unexpected supabase call: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("[]"))
		}
	}))
}

func newLLMMock() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "We are open monday to friday from nine to five."},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 25, "total_tokens": 145},
		})
	}))
}

func buildRouter(t *testing.T, supabaseURL, llmURL, notifyURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, supabaseURL, "anon", "service", cb, cfg, logger)
	generator := llm.NewGenerator(llm.Config{
		BaseURL:   llmURL,
		APIKey:    "test",
		ChatModel: "gpt-4o-mini",
	}, cb, cfg, logger)
	emailClient := client.NewEmailClient(httpClient, notifyURL, "key", "support@test", cb, cfg)
	mailboxClient := client.NewMailboxClient(httpClient, notifyURL, "key", cb, cfg)

	eng := engine.New(engine.Config{})
	knowledgeSvc := service.NewKnowledgeService(store, cache.New[*service.KnowledgeSnapshot](time.Minute), metrics, logger)
	chatSvc := service.NewChatService(store, store, store, knowledgeSvc, generator, emailClient, mailboxClient, eng, 60, metrics, logger)
	businessSvc := service.NewBusinessService(store, store, knowledgeSvc, logger)
	escalationSvc := service.NewEscalationService(store, store, emailClient, mailboxClient, logger)
	authSvc := service.NewAuthService(store, "test-secret", 15*time.Minute, time.Hour, logger)

	return handler.NewRouter(handler.Services{
		Chat:       chatSvc,
		Business:   businessSvc,
		Escalation: escalationSvc,
		Auth:       authSvc,
	}, metrics, logger)
}

func TestIntegration_ChatTurn_Answered(t *testing.T) {
	supabaseServer := newSupabaseMock(t)
	defer supabaseServer.Close()
	llmServer := newLLMMock()
	defer llmServer.Close()
	notifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer notifyServer.Close()

	router := buildRouter(t, supabaseServer.URL, llmServer.URL, notifyServer.URL)

	body, _ := json.Marshal(domain.ChatRequest{Query: "what are your opening hours"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/biz-1/sess-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply domain.ChatReply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	require.Equal(t, "information_request", reply.Intent)
	require.NotEmpty(t, reply.Answer)
	require.False(t, reply.Escalation.ShouldEscalateNow)
	require.Empty(t, reply.Escalation.CaseNumber)
}

func TestIntegration_ChatTurn_Escalated(t *testing.T) {
	supabaseServer := newSupabaseMock(t)
	defer supabaseServer.Close()
	llmServer := newLLMMock()
	defer llmServer.Close()

	var escalationEmailSent atomic.Bool
	notifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/emails") {
			escalationEmailSent.Store(true)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer notifyServer.Close()

	router := buildRouter(t, supabaseServer.URL, llmServer.URL, notifyServer.URL)

	body, _ := json.Marshal(domain.ChatRequest{Query: "i want to talk to a human"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/biz-1/sess-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply domain.ChatReply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	require.Equal(t, "escalation_request", reply.Intent)
	require.True(t, reply.Escalation.ShouldEscalateNow)
	require.GreaterOrEqual(t, reply.Escalation.Score, 100)
	require.NotEmpty(t, reply.Escalation.CaseNumber)
	require.Contains(t, reply.Answer, reply.Escalation.CaseNumber)
	require.Equal(t, "escalation_active", reply.ConversationState)
	require.True(t, escalationEmailSent.Load())
}

func TestIntegration_MetricsScrapeExposesAppFamilies(t *testing.T) {
	supabaseServer := newSupabaseMock(t)
	defer supabaseServer.Close()
	llmServer := newLLMMock()
	defer llmServer.Close()
	notifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer notifyServer.Close()

	router := buildRouter(t, supabaseServer.URL, llmServer.URL, notifyServer.URL)

	body, _ := json.Marshal(domain.ChatRequest{Query: "what are your opening hours"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/biz-1/sess-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	scrape := httptest.NewRecorder()
	router.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, scrape.Code)
	require.Contains(t, scrape.Body.String(), "enquiro_chat_turns_total")
	require.Contains(t, scrape.Body.String(), "enquiro_intents_total")
}

func TestIntegration_DashboardRequiresAuth(t *testing.T) {
	supabaseServer := newSupabaseMock(t)
	defer supabaseServer.Close()
	llmServer := newLLMMock()
	defer llmServer.Close()
	notifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer notifyServer.Close()

	router := buildRouter(t, supabaseServer.URL, llmServer.URL, notifyServer.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/escalations/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
