package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/observability"
	"github.com/careledger/careledger-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Analytics & payment recommendations
// ============================================================

func spendingSummaryHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/summary")
		defer span.End()

		months := 0
		if v := r.URL.Query().Get("months"); v != "" {
			months, _ = strconv.Atoi(v)
		}

		summary, err := svc.GetSpendingSummary(ctx, UserIDFromContext(ctx), months)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

func paymentRecommendHandler(svc *service.PaymentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments/recommend")
		defer span.End()

		var req domain.PaymentRecommendationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := svc.Recommend(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

func reconMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/recon")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetReconSnapshot())
	}
}
