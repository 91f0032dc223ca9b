package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/observability"
	"github.com/careledger/careledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps bundles everything the router needs.
type Deps struct {
	Recon     *service.ReconService
	Auth      *service.AuthService
	Disputes  *service.DisputeService
	Providers *service.ProviderService
	Payments  *service.PaymentService
	Analytics *service.AnalyticsService

	// ChatHandler is built by the chat module; nil disables the route.
	ChatHandler http.HandlerFunc

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(d.Logger))
	r.Use(observability.TraceContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Recon, d.Logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Authentication (public)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(d.Auth, d.Logger))
			r.Post("/login", authLoginHandler(d.Auth, d.Logger))
			r.Post("/refresh", authRefreshHandler(d.Auth, d.Logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(d.Auth, d.Logger))
				r.Post("/logout", authLogoutHandler(d.Auth, d.Logger))
			})
		})

		// =============================================
		// Everything else requires a valid access token
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.Auth, d.Logger))

			// Transactions & reconciliation
			r.Get("/transactions", listTransactionsHandler(d.Recon, d.Logger))
			r.Get("/transactions/pending", listPendingHandler(d.Recon, d.Logger))
			r.Post("/transactions", createTransactionHandler(d.Recon, d.Logger))
			r.Get("/transactions/{txId}/suggestion", getSuggestionHandler(d.Recon, d.Logger))
			r.Post("/transactions/{txId}/review", reviewTransactionHandler(d.Recon, d.Logger))

			// Invoices
			r.Get("/invoices", listInvoicesHandler(d.Recon, d.Logger))
			r.Post("/invoices", createInvoiceHandler(d.Recon, d.Logger))

			// Vendor preferences
			r.Get("/preferences", listPreferencesHandler(d.Recon, d.Logger))
			r.Delete("/preferences/{prefId}", deletePreferenceHandler(d.Recon, d.Logger))

			// Disputes
			r.Post("/disputes", createDisputeHandler(d.Disputes, d.Logger))
			r.Get("/disputes", listDisputesHandler(d.Disputes, d.Logger))
			r.Get("/disputes/{disputeId}", getDisputeHandler(d.Disputes, d.Logger))
			r.Post("/disputes/{disputeId}/send", sendDisputeHandler(d.Disputes, d.Logger))
			r.Put("/disputes/{disputeId}/status", updateDisputeStatusHandler(d.Disputes, d.Logger))

			// Providers & NPI registry
			r.Get("/providers", listProvidersHandler(d.Providers, d.Logger))
			r.Get("/providers/search", searchProvidersHandler(d.Providers, d.Logger))
			r.Post("/providers/sync", syncProvidersHandler(d.Providers, d.Logger))

			// Analytics & payments
			r.Get("/analytics/summary", spendingSummaryHandler(d.Analytics, d.Logger))
			r.Post("/payments/recommend", paymentRecommendHandler(d.Payments, d.Logger))
			r.Get("/metrics/recon", reconMetricsHandler(d.Metrics, d.Logger))

			// Chat assistant
			if d.ChatHandler != nil {
				r.Post("/chat", d.ChatHandler)
			}
		})
	})

	return r
}

// healthzHandler probes the data backend with a cheap read.
func healthzHandler(recon *service.ReconService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"api": "healthy"}
		status := "healthy"

		if _, err := recon.ListPending(ctx, "health-check", 1, 0); err != nil {
			logger.Warn("healthz: supabase probe failed", zap.Error(err))
			checks["supabase"] = "degraded"
			status = "degraded"
		} else {
			checks["supabase"] = "healthy"
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, domain.HealthStatus{Status: status, Checks: checks})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ResolveUserID adapts the JWT middleware's context value for the chat
// module's handler.
func ResolveUserID(r *http.Request) string {
	return UserIDFromContext(r.Context())
}
