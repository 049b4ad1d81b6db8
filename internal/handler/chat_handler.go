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
// Chat widget endpoints (public)
// ============================================================

// POST /v1/chat/{businessId}/sessions
func createSessionHandler(svc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/{businessId}/sessions")
		defer span.End()

		businessID := chi.URLParam(r, "businessId")
		if businessID == "" {
			writeError(w, http.StatusBadRequest, "businessId is required")
			return
		}
		span.SetAttributes(attribute.String("business.id", businessID))

		var req domain.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		session, err := svc.StartSession(ctx, businessID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

// POST /v1/chat/{businessId}/{sessionId}
func chatTurnHandler(svc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/{businessId}/{sessionId}")
		defer span.End()

		businessID := chi.URLParam(r, "businessId")
		sessionID := chi.URLParam(r, "sessionId")
		if businessID == "" || sessionID == "" {
			writeError(w, http.StatusBadRequest, "businessId and sessionId are required")
			return
		}
		span.SetAttributes(
			attribute.String("business.id", businessID),
			attribute.String("session.id", sessionID),
		)

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		reply, err := svc.HandleTurn(ctx, businessID, sessionID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

// GET /v1/chat/{businessId}/{sessionId}
func getSessionHandler(svc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/{businessId}/{sessionId}")
		defer span.End()

		businessID := chi.URLParam(r, "businessId")
		sessionID := chi.URLParam(r, "sessionId")

		session, err := svc.GetSession(ctx, businessID, sessionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// GET /v1/chat/{businessId}/{sessionId}/messages
func listMessagesHandler(svc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/chat/{businessId}/{sessionId}/messages")
		defer span.End()

		businessID := chi.URLParam(r, "businessId")
		sessionID := chi.URLParam(r, "sessionId")

		messages, err := svc.ListMessages(ctx, businessID, sessionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	}
}
