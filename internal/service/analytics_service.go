package service

import (
	"context"
	"sort"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var analyticsTracer = otel.Tracer("service/analytics")

const topVendorCount = 5

// AnalyticsService builds the spending-summary read side from raw
// transaction rows.
type AnalyticsService struct {
	store  port.AnalyticsStore
	logger *zap.Logger
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(store port.AnalyticsStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, logger: logger}
}

// GetSpendingSummary aggregates the user's transactions over the last
// `months` whole months (default 6, capped at 24).
func (s *AnalyticsService) GetSpendingSummary(ctx context.Context, userID string, months int) (*domain.SpendingSummary, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.GetSpendingSummary")
	defer span.End()

	if months <= 0 {
		months = 6
	}
	if months > 24 {
		months = 24
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	txs, err := s.store.ListTransactionsInRange(ctx, userID, from, now)
	if err != nil {
		return nil, err
	}

	summary := &domain.SpendingSummary{
		UserID:      userID,
		PeriodLabel: from.Format("Jan 2006") + " – " + now.Format("Jan 2006"),
	}

	vendorTotals := map[string]*domain.VendorSpend{}
	monthTotals := map[string]*domain.MonthlySpend{}

	for i := range txs {
		tx := &txs[i]
		amount := tx.Amount
		if amount < 0 {
			amount = -amount
		}

		summary.TotalSpent += amount
		if tx.IsMedical {
			summary.MedicalSpent += amount
		}
		if tx.HSAEligible {
			summary.HSAEligibleSpent += amount
		}
		switch tx.Status {
		case domain.ReconLinked:
			summary.LinkedCount++
		case domain.ReconUnlinked:
			summary.UnreviewedCount++
		}

		if tx.IsMedical {
			vendor := tx.VendorText()
			vs, ok := vendorTotals[vendor]
			if !ok {
				vs = &domain.VendorSpend{Vendor: vendor}
				vendorTotals[vendor] = vs
			}
			vs.Amount += amount
			vs.Count++
		}

		month := tx.Date.Format("2006-01")
		ms, ok := monthTotals[month]
		if !ok {
			ms = &domain.MonthlySpend{Month: month}
			monthTotals[month] = ms
		}
		ms.Total += amount
		if tx.IsMedical {
			ms.Medical += amount
		}
	}

	for _, vs := range vendorTotals {
		summary.TopVendors = append(summary.TopVendors, *vs)
	}
	sort.Slice(summary.TopVendors, func(i, j int) bool {
		return summary.TopVendors[i].Amount > summary.TopVendors[j].Amount
	})
	if len(summary.TopVendors) > topVendorCount {
		summary.TopVendors = summary.TopVendors[:topVendorCount]
	}

	for _, ms := range monthTotals {
		summary.MonthlyTrend = append(summary.MonthlyTrend, *ms)
	}
	sort.Slice(summary.MonthlyTrend, func(i, j int) bool {
		return summary.MonthlyTrend[i].Month < summary.MonthlyTrend[j].Month
	})

	s.logger.Debug("spending summary built",
		zap.String("user_id", userID),
		zap.Int("transactions", len(txs)),
	)

	return summary, nil
}
