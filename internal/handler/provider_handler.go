package handler

import (
	"net/http"

	"github.com/careledger/careledger-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Providers & NPI registry
// ============================================================

func listProvidersHandler(svc *service.ProviderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/providers")
		defer span.End()

		providers, err := svc.ListProviders(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
	}
}

func searchProvidersHandler(svc *service.ProviderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/providers/search")
		defer span.End()

		name := r.URL.Query().Get("name")
		state := r.URL.Query().Get("state")

		records, err := svc.SearchRegistry(ctx, name, state)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": records})
	}
}

func syncProvidersHandler(svc *service.ProviderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/providers/sync")
		defer span.End()

		report, err := svc.Sync(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}
