package handler

import (
	"net/http"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/infra/observability"
	"github.com/katsura919/enquiro-backend-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	Chat       *service.ChatService
	Business   *service.BusinessService
	Escalation *service.EscalationService
	Auth       *service.AuthService
}

// NewRouter creates the HTTP router with all routes and middleware.
// The chat widget endpoints are public (customers are anonymous); the
// dashboard endpoints require an agent access token.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Business, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Chat widget (public)
		// =============================================
		r.Route("/chat/{businessId}", func(r chi.Router) {
			r.Post("/sessions", createSessionHandler(svcs.Chat, logger))
			r.Post("/{sessionId}", chatTurnHandler(svcs.Chat, logger))
			r.Get("/{sessionId}", getSessionHandler(svcs.Chat, logger))
			r.Get("/{sessionId}/messages", listMessagesHandler(svcs.Chat, logger))
		})

		// Public case-number lookup for the widget.
		r.Get("/escalations/case/{caseNumber}", getEscalationByCaseNumberHandler(svcs.Escalation, logger))

		// =============================================
		// Agent authentication
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", loginHandler(svcs.Auth, logger))
			r.Post("/register", registerHandler(svcs.Auth, logger))
			r.Post("/refresh", refreshHandler(svcs.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/logout", logoutHandler(svcs.Auth, logger))
				r.Get("/me", meHandler(svcs.Auth, logger))
			})
		})

		// =============================================
		// Dashboard (authenticated)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			r.Route("/businesses", func(r chi.Router) {
				r.Post("/", createBusinessHandler(svcs.Business, logger))
				r.Get("/", listBusinessesHandler(svcs.Business, logger))

				r.Route("/{businessId}", func(r chi.Router) {
					r.Get("/", getBusinessHandler(svcs.Business, logger))
					r.Put("/", updateBusinessHandler(svcs.Business, logger))
					r.Delete("/", deleteBusinessHandler(svcs.Business, logger))

					r.Get("/qr-settings", getQRSettingsHandler(svcs.Business, logger))
					r.Put("/qr-settings", upsertQRSettingsHandler(svcs.Business, logger))

					r.Post("/products", createProductHandler(svcs.Business, logger))
					r.Get("/products", listProductsHandler(svcs.Business, logger))
					r.Put("/products/{productId}", updateProductHandler(svcs.Business, logger))
					r.Delete("/products/{productId}", deleteProductHandler(svcs.Business, logger))

					r.Post("/services", createServiceHandler(svcs.Business, logger))
					r.Get("/services", listServicesHandler(svcs.Business, logger))
					r.Put("/services/{serviceId}", updateServiceHandler(svcs.Business, logger))
					r.Delete("/services/{serviceId}", deleteServiceHandler(svcs.Business, logger))

					r.Post("/policies", createPolicyHandler(svcs.Business, logger))
					r.Get("/policies", listPoliciesHandler(svcs.Business, logger))
					r.Put("/policies/{policyId}", updatePolicyHandler(svcs.Business, logger))
					r.Delete("/policies/{policyId}", deletePolicyHandler(svcs.Business, logger))

					r.Post("/faqs", createFAQHandler(svcs.Business, logger))
					r.Get("/faqs", listFAQsHandler(svcs.Business, logger))
					r.Put("/faqs/{faqId}", updateFAQHandler(svcs.Business, logger))
					r.Delete("/faqs/{faqId}", deleteFAQHandler(svcs.Business, logger))
				})
			})

			r.Route("/escalations", func(r chi.Router) {
				r.Get("/", listEscalationsHandler(svcs.Escalation, logger))
				r.Get("/{caseId}", getEscalationHandler(svcs.Escalation, logger))
				r.Patch("/{caseId}/status", updateEscalationStatusHandler(svcs.Escalation, logger))
				r.Post("/{caseId}/resolve", resolveEscalationHandler(svcs.Escalation, logger))
				r.Get("/{caseId}/thread", escalationThreadHandler(svcs.Escalation, logger))
				r.Post("/{caseId}/reply", escalationReplyHandler(svcs.Escalation, logger))
			})

			r.Get("/metrics/engine", engineMetricsHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

// GET /healthz — probes the document store through a cheap read.
func healthzHandler(businessSvc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "enquiro-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := businessSvc.List(ctx, 1, 1)
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			logger.Warn("healthz: store probe failed", zap.Error(err))
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

// GET /readyz
func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// GET /v1/metrics/engine — decision engine snapshot for the dashboard.
func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
