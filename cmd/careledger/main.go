package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chathandler "github.com/careledger/careledger-go/internal/chat/handler"
	chatinfra "github.com/careledger/careledger-go/internal/chat/infra"
	chatport "github.com/careledger/careledger-go/internal/chat/port"
	chatservice "github.com/careledger/careledger-go/internal/chat/service"
	"github.com/careledger/careledger-go/internal/config"
	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/handler"
	"github.com/careledger/careledger-go/internal/infra/cache"
	"github.com/careledger/careledger-go/internal/infra/client"
	"github.com/careledger/careledger-go/internal/infra/observability"
	"github.com/careledger/careledger-go/internal/infra/resilience"
	"github.com/careledger/careledger-go/internal/infra/supabase"
	"github.com/careledger/careledger-go/internal/port"
	"github.com/careledger/careledger-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("npi_sync_delay", cfg.NPISyncDelay),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "careledger-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	prefCache := cache.New[[]domain.VendorPreference](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	supabaseCB := resilience.NewCircuitBreaker("supabase")
	registryCB := resilience.NewCircuitBreaker("npi-registry")
	emailCB := resilience.NewCircuitBreaker("email")
	agentCB := resilience.NewCircuitBreaker("chat-agent")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseCB,
		resilienceCfg,
		logger,
	)
	npiClient := client.NewNPIClient(httpClient, cfg.NPIRegistryURL, registryCB, resilienceCfg)
	emailClient := client.NewEmailClient(httpClient, cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, emailCB, resilienceCfg)

	// --- Chat agent: sidecar when configured, Gemini otherwise ---
	var agentClient chatport.ChatAgentCaller
	var drafter port.LetterDrafter
	switch {
	case cfg.ChatAgentURL != "":
		logger.Info("chat agent: using sidecar", zap.String("url", cfg.ChatAgentURL))
		agentClient = chatinfra.NewChatAgentClient(httpClient, cfg.ChatAgentURL, agentCB, resilienceCfg, logger)
	case cfg.GeminiAPIKey != "":
		logger.Info("chat agent: using Gemini")
		gemini, err := chatinfra.NewGeminiAgent(context.Background(), cfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Fatal("failed to create gemini agent", zap.Error(err))
		}
		agentClient = gemini
		drafter = gemini
	default:
		logger.Warn("chat agent: not configured, chat route disabled")
	}

	// --- Services ---
	reconSvc := service.NewReconService(store, prefCache, metrics, logger)
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	disputeSvc := service.NewDisputeService(store, store, emailClient, drafter, metrics, logger)
	providerSvc := service.NewProviderService(store, npiClient, cfg.NPISyncDelay, metrics, logger)
	paymentSvc := service.NewPaymentService(logger)
	analyticsSvc := service.NewAnalyticsService(store, logger)

	var chatHTTP http.HandlerFunc
	if agentClient != nil {
		chatSvc := chatservice.NewChatService(agentClient, []chatservice.ChatStrategy{
			chatservice.NewDisputeStrategy(agentClient, disputeSvc, logger),
			chatservice.NewEligibilityStrategy(agentClient),
		}, logger)
		chatHTTP = chathandler.ChatHandler(chatSvc, handler.ResolveUserID, logger)
	}

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Recon:       reconSvc,
		Auth:        authSvc,
		Disputes:    disputeSvc,
		Providers:   providerSvc,
		Payments:    paymentSvc,
		Analytics:   analyticsSvc,
		ChatHandler: chatHTTP,
		Metrics:     metrics,
		Logger:      logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
