package service

import (
	"context"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/observability"
	"github.com/careledger/careledger-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var providerTracer = otel.Tracer("service/provider")

// ProviderService keeps the provider table in sync with the CMS NPI
// registry.
type ProviderService struct {
	store     port.ProviderStore
	registry  port.NPIRegistry
	syncDelay time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewProviderService creates the provider sync service. syncDelay is
// the pause between registry calls; the registry rate-limits
// aggressively, so records are fetched one at a time.
func NewProviderService(store port.ProviderStore, registry port.NPIRegistry, syncDelay time.Duration, metrics *observability.Metrics, logger *zap.Logger) *ProviderService {
	return &ProviderService{
		store:     store,
		registry:  registry,
		syncDelay: syncDelay,
		metrics:   metrics,
		logger:    logger,
	}
}

// ListProviders returns all known providers.
func (s *ProviderService) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	ctx, span := providerTracer.Start(ctx, "ProviderService.ListProviders")
	defer span.End()

	return s.store.ListProviders(ctx)
}

// SearchRegistry queries the NPI registry by organization name.
func (s *ProviderService) SearchRegistry(ctx context.Context, name, state string) ([]domain.NPIRecord, error) {
	ctx, span := providerTracer.Start(ctx, "ProviderService.SearchRegistry")
	defer span.End()

	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	return s.registry.SearchOrganization(ctx, name, state)
}

// Sync re-fetches registry data for every known provider, sequentially
// with a fixed delay between calls. A failed lookup is recorded and
// skipped; one stale provider must not abort the batch.
func (s *ProviderService) Sync(ctx context.Context) (*domain.ProviderSyncReport, error) {
	ctx, span := providerTracer.Start(ctx, "ProviderService.Sync")
	defer span.End()

	started := time.Now()

	providers, err := s.store.ListProviders(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ProviderSyncReport{StartedAt: started}

	for i, p := range providers {
		if i > 0 {
			select {
			case <-ctx.Done():
				report.Duration = time.Since(started).String()
				return report, ctx.Err()
			case <-time.After(s.syncDelay):
			}
		}

		report.Scanned++

		rec, err := s.registry.Lookup(ctx, p.NPI)
		if err != nil {
			s.logger.Warn("provider sync: lookup failed",
				zap.String("npi", p.NPI),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("npi_registry")
			report.Failed++
			continue
		}

		if err := s.store.UpsertProvider(ctx, rec); err != nil {
			s.logger.Warn("provider sync: upsert failed",
				zap.String("npi", p.NPI),
				zap.Error(err),
			)
			report.Failed++
			continue
		}
		report.Updated++
	}

	report.Duration = time.Since(started).String()

	s.logger.Info("provider sync completed",
		zap.Int("scanned", report.Scanned),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
		zap.String("duration", report.Duration),
	)

	return report, nil
}
