package handler

import (
	"encoding/json"
	"net/http"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Escalation dashboard endpoints (authenticated)
// ============================================================

// GET /v1/escalations
func listEscalationsHandler(svc *service.EscalationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/escalations")
		defer span.End()

		page, pageSize := parsePagination(r)
		filters := domain.EscalationFilters{
			BusinessID: BusinessIDFromContext(ctx),
			SessionID:  r.URL.Query().Get("session_id"),
			Status:     r.URL.Query().Get("status"),
		}

		cases, err := svc.List(ctx, filters, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"escalations": cases,
			"page":        page,
			"pageSize":    pageSize,
		})
	}
}

// GET /v1/escalations/{caseId}
func getEscalationHandler(svc *service.EscalationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/escalations/{caseId}")
		defer span.End()

		esc, err := svc.Get(ctx, chi.URLParam(r, "caseId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, esc)
	}
}

// GET /v1/escalations/case/{caseNumber} — public lookup for customers
// quoting their case number in the chat widget.
func getEscalationByCaseNumberHandler(svc *service.EscalationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/escalations/case/{caseNumber}")
		defer span.End()

		caseNumber := chi.URLParam(r, "caseNumber")
		span.SetAttributes(attribute.String("escalation.case_number", caseNumber))

		esc, err := svc.GetByCaseNumber(ctx, caseNumber)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		// Public view: only workflow status, no customer details.
		writeJSON(w, http.StatusOK, map[string]any{
			"caseNumber": esc.CaseNumber,
			"status":     esc.Status,
			"createdAt":  esc.CreatedAt,
		})
	}
}

// PATCH /v1/escalations/{caseId}/status
func updateEscalationStatusHandler(svc *service.EscalationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/escalations/{caseId}/status")
		defer span.End()

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.UpdateStatus(ctx, chi.URLParam(r, "caseId"), req.Status); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}

// POST /v1/escalations/{caseId}/resolve
func resolveEscalationHandler(svc *service.EscalationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/escalations/{caseId}/resolve")
		defer span.End()

		var req struct {
			Resolution string `json:"resolution"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		esc, err := svc.Resolve(ctx, chi.URLParam(r, "caseId"), req.Resolution, AgentIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, esc)
	}
}

// GET /v1/escalations/{caseId}/thread
func escalationThreadHandler(svc *service.EscalationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/escalations/{caseId}/thread")
		defer span.End()

		messages, err := svc.Thread(ctx, chi.URLParam(r, "caseId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	}
}

// POST /v1/escalations/{caseId}/reply
func escalationReplyHandler(svc *service.EscalationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/escalations/{caseId}/reply")
		defer span.End()

		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.Reply(ctx, chi.URLParam(r, "caseId"), AgentIDFromContext(ctx), req.Body); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
