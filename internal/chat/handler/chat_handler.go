// Package handler implements the POST /v1/chat route, the entry point
// of the chat assistant. The handler is thin: basic validation, then
// delegate to the ChatService, which does intent detection, strategy
// routing and the agent call.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/careledger/careledger-go/internal/chat/domain"
	"github.com/careledger/careledger-go/internal/chat/service"
	maindomain "github.com/careledger/careledger-go/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("chat/handler")

// UserIDResolver extracts the authenticated user ID from the request
// context. Injected so this package does not depend on the main
// handler package's middleware.
type UserIDResolver func(r *http.Request) string

// ChatHandler returns the http.HandlerFunc for POST /v1/chat.
//
// Request:  {"query": "was I overcharged by Aspen Dental?"}
// Response: {"answer": "...", "context": "dispute"}
func ChatHandler(chatSvc *service.ChatService, resolveUserID UserIDResolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		userID := resolveUserID(r)
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"query\": \"your message\"}")
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		resp, err := chatSvc.ProcessMessage(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError maps domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *maindomain.ErrExternalService:
		logger.Error("external service error", zap.String("service", e.Service), zap.Error(e.Err))
		writeError(w, http.StatusBadGateway, "external service unavailable: "+e.Service)
	case *maindomain.ErrNotFound:
		writeError(w, http.StatusNotFound, e.Error())
	case *maindomain.ErrValidation:
		writeError(w, http.StatusUnprocessableEntity, e.Error())
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
