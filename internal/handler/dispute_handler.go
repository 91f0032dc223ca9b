package handler

import (
	"encoding/json"
	"net/http"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Disputes
// ============================================================

func createDisputeHandler(svc *service.DisputeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/disputes")
		defer span.End()

		var req domain.CreateDisputeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		dispute, err := svc.Create(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, dispute)
	}
}

func listDisputesHandler(svc *service.DisputeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/disputes")
		defer span.End()

		disputes, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"disputes": disputes})
	}
}

func getDisputeHandler(svc *service.DisputeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/disputes/{disputeId}")
		defer span.End()

		dispute, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "disputeId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, dispute)
	}
}

func sendDisputeHandler(svc *service.DisputeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/disputes/{disputeId}/send")
		defer span.End()

		var req struct {
			RecipientEmail string `json:"recipient_email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Send(ctx, UserIDFromContext(ctx), chi.URLParam(r, "disputeId"), req.RecipientEmail)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func updateDisputeStatusHandler(svc *service.DisputeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/disputes/{disputeId}/status")
		defer span.End()

		var req struct {
			Status domain.DisputeStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		dispute, err := svc.UpdateStatus(ctx, UserIDFromContext(ctx), chi.URLParam(r, "disputeId"), req.Status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, dispute)
	}
}
