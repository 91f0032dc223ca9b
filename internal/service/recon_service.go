package service

import (
	"context"
	"fmt"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/observability"
	"github.com/careledger/careledger-go/internal/port"
	"github.com/careledger/careledger-go/internal/recon"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// ReconService orchestrates the reconciliation engine: it loads a
// transaction with its candidate invoices and learned preferences,
// runs the suggestion engine, and applies human-confirmed reviews.
type ReconService struct {
	store     port.ExpenseStore
	prefCache port.Cache[[]domain.VendorPreference]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewReconService creates the reconciliation service with all
// dependencies injected.
func NewReconService(
	store port.ExpenseStore,
	prefCache port.Cache[[]domain.VendorPreference],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReconService {
	return &ReconService{
		store:     store,
		prefCache: prefCache,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetSuggestion builds a fresh suggestion for one transaction. Invoices
// and preferences are fetched concurrently; the engine itself is pure
// and runs in-process.
func (s *ReconService) GetSuggestion(ctx context.Context, userID, txID string) (*domain.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ReconService.GetSuggestion")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("suggestion", time.Since(start))
	}()

	tx, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	var (
		invoices []domain.Invoice
		prefs    []domain.VendorPreference
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		inv, err := s.store.ListOpenInvoices(gCtx, userID)
		if err != nil {
			s.logger.Error("failed to fetch invoices",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("supabase")
			return fmt.Errorf("invoices fetch: %w", err)
		}
		invoices = inv
		return nil
	})

	g.Go(func() error {
		p, err := s.loadPreferences(gCtx, userID)
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			return fmt.Errorf("preferences fetch: %w", err)
		}
		prefs = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	suggestion := recon.Suggest(tx, invoices, prefs)
	s.metrics.IncrSuggestion(string(suggestion.Type))

	s.logger.Debug("suggestion produced",
		zap.String("transaction_id", txID),
		zap.String("type", string(suggestion.Type)),
		zap.Float64("confidence", suggestion.Confidence),
	)

	return &suggestion, nil
}

// loadPreferences returns the user's vendor preferences, cached per user.
func (s *ReconService) loadPreferences(ctx context.Context, userID string) ([]domain.VendorPreference, error) {
	cacheKey := "prefs:" + userID
	if cached, ok := s.prefCache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("preferences")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("preferences")

	prefs, err := s.store.ListPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.prefCache.Set(cacheKey, prefs)
	return prefs, nil
}

// ApplyReview applies a human-confirmed review action to a transaction.
// The engine only ever proposes; this is the single mutation path.
func (s *ReconService) ApplyReview(ctx context.Context, userID, txID string, req *domain.ReviewRequest) (*domain.ReviewResponse, error) {
	ctx, span := tracer.Start(ctx, "ReconService.ApplyReview")
	defer span.End()
	span.SetAttributes(
		attribute.String("transaction.id", txID),
		attribute.String("review.action", string(req.Action)),
	)

	tx, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	switch req.Action {
	case domain.SuggestLinkToInvoice:
		if req.InvoiceID == "" {
			return nil, &domain.ErrValidation{Field: "invoice_id", Message: "required when action is link_to_invoice"}
		}
		// The invoice must exist and belong to the same user.
		if _, err := s.store.GetInvoice(ctx, userID, req.InvoiceID); err != nil {
			return nil, err
		}
		updates["status"] = string(domain.ReconLinked)
		updates["linked_invoice_id"] = req.InvoiceID
		updates["is_medical"] = true
		updates["hsa_eligible"] = true

	case domain.SuggestMarkMedical:
		updates["is_medical"] = true
		updates["hsa_eligible"] = true

	case domain.SuggestNotMedical:
		updates["is_medical"] = false
		updates["hsa_eligible"] = false

	case domain.SuggestSkip:
		updates["status"] = string(domain.ReconIgnored)

	default:
		return nil, &domain.ErrValidation{Field: "action", Message: fmt.Sprintf("unknown action %q", req.Action)}
	}

	if err := s.store.UpdateTransaction(ctx, userID, txID, updates); err != nil {
		return nil, err
	}

	if req.Action == domain.SuggestLinkToInvoice {
		if err := s.store.MarkInvoiceLinked(ctx, userID, req.InvoiceID); err != nil {
			// The transaction update already landed; surface the partial
			// failure instead of pretending the invoice flipped too.
			return nil, err
		}
	}

	learned := false
	if req.Remember && (req.Action == domain.SuggestMarkMedical || req.Action == domain.SuggestNotMedical) {
		pattern := tx.VendorText()
		if pattern != "" {
			_, err := s.store.UpsertPreference(ctx, &domain.VendorPreference{
				UserID:    userID,
				Pattern:   pattern,
				IsMedical: req.Action == domain.SuggestMarkMedical,
			})
			if err != nil {
				return nil, err
			}
			s.prefCache.Delete("prefs:" + userID)
			s.metrics.IncrPreferenceStored()
			learned = true
		}
	}

	s.metrics.IncrReviewApplied(string(req.Action))

	updated, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("review applied",
		zap.String("transaction_id", txID),
		zap.String("action", string(req.Action)),
		zap.Bool("learned", learned),
	)

	return &domain.ReviewResponse{Transaction: updated, Learned: learned}, nil
}

// ListPending returns the user's unreviewed transactions.
func (s *ReconService) ListPending(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ReconService.ListPending")
	defer span.End()

	return s.store.ListTransactions(ctx, userID, domain.ReconUnlinked, limit, offset)
}

// ListTransactions returns the user's transactions with an optional
// status filter.
func (s *ReconService) ListTransactions(ctx context.Context, userID string, status domain.ReconStatus, limit, offset int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ReconService.ListTransactions")
	defer span.End()

	return s.store.ListTransactions(ctx, userID, status, limit, offset)
}

// CreateTransaction validates and stores an incoming bank transaction,
// pre-filling the medical flags from the classifier.
func (s *ReconService) CreateTransaction(ctx context.Context, userID string, req *domain.CreateTransactionRequest) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ReconService.CreateTransaction")
	defer span.End()

	date, err := parseFlexibleDate(req.Date)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "must be RFC3339 or YYYY-MM-DD"}
	}
	if req.Amount == 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be non-zero"}
	}
	if req.Vendor == "" && req.Description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "vendor or description required"}
	}

	tx := &domain.Transaction{
		UserID:      userID,
		Date:        date,
		Vendor:      req.Vendor,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Status:      domain.ReconUnlinked,
	}

	if recon.IsMedicalVendor(tx.VendorText()) || recon.IsMedicalCategory(tx.Category) {
		tx.IsMedical = true
		tx.HSAEligible = true
	}

	return s.store.CreateTransaction(ctx, tx)
}

// CreateInvoice validates and stores a billed expense.
func (s *ReconService) CreateInvoice(ctx context.Context, userID string, req *domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "ReconService.CreateInvoice")
	defer span.End()

	if req.Vendor == "" {
		return nil, &domain.ErrValidation{Field: "vendor", Message: "required"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	date, err := parseFlexibleDate(req.Date)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "must be RFC3339 or YYYY-MM-DD"}
	}

	inv := &domain.Invoice{
		UserID: userID,
		Vendor: req.Vendor,
		Amount: req.Amount,
		Date:   date,
	}
	if req.InvoiceDate != "" {
		d, err := parseFlexibleDate(req.InvoiceDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "invoice_date", Message: "must be RFC3339 or YYYY-MM-DD"}
		}
		inv.InvoiceDate = &d
	}

	return s.store.CreateInvoice(ctx, inv)
}

// ListOpenInvoices returns the user's unlinked invoices.
func (s *ReconService) ListOpenInvoices(ctx context.Context, userID string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "ReconService.ListOpenInvoices")
	defer span.End()

	return s.store.ListOpenInvoices(ctx, userID)
}

// ListPreferences returns the user's learned vendor preferences.
func (s *ReconService) ListPreferences(ctx context.Context, userID string) ([]domain.VendorPreference, error) {
	ctx, span := tracer.Start(ctx, "ReconService.ListPreferences")
	defer span.End()

	return s.loadPreferences(ctx, userID)
}

// DeletePreference removes a learned preference and invalidates the
// user's preference cache.
func (s *ReconService) DeletePreference(ctx context.Context, userID, prefID string) error {
	ctx, span := tracer.Start(ctx, "ReconService.DeletePreference")
	defer span.End()

	if err := s.store.DeletePreference(ctx, userID, prefID); err != nil {
		return err
	}
	s.prefCache.Delete("prefs:" + userID)
	return nil
}

// parseFlexibleDate accepts the two encodings the API takes for dates.
func parseFlexibleDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
