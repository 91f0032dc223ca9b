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
// Transactions & reconciliation
// ============================================================

func listTransactionsHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		userID := UserIDFromContext(ctx)
		limit, offset := parsePagination(r)
		status := domain.ReconStatus(r.URL.Query().Get("status"))

		txs, err := svc.ListTransactions(ctx, userID, status, limit, offset)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
	}
}

func listPendingHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/pending")
		defer span.End()

		userID := UserIDFromContext(ctx)
		limit, offset := parsePagination(r)

		txs, err := svc.ListPending(ctx, userID, limit, offset)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
	}
}

func createTransactionHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var req domain.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := svc.CreateTransaction(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, tx)
	}
}

func getSuggestionHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{txId}/suggestion")
		defer span.End()

		txID := chi.URLParam(r, "txId")

		suggestion, err := svc.GetSuggestion(ctx, UserIDFromContext(ctx), txID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, suggestion)
	}
}

func reviewTransactionHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{txId}/review")
		defer span.End()

		txID := chi.URLParam(r, "txId")

		var req domain.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.ApplyReview(ctx, UserIDFromContext(ctx), txID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Invoices
// ============================================================

func listInvoicesHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices")
		defer span.End()

		invoices, err := svc.ListOpenInvoices(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
	}
}

func createInvoiceHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/invoices")
		defer span.End()

		var req domain.CreateInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		inv, err := svc.CreateInvoice(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, inv)
	}
}

// ============================================================
// Vendor preferences
// ============================================================

func listPreferencesHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/preferences")
		defer span.End()

		prefs, err := svc.ListPreferences(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
	}
}

func deletePreferenceHandler(svc *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/preferences/{prefId}")
		defer span.End()

		prefID := chi.URLParam(r, "prefId")

		if err := svc.DeletePreference(ctx, UserIDFromContext(ctx), prefID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
