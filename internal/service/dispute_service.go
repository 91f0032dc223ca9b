package service

import (
	"context"
	"fmt"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/careledger/careledger-go/internal/infra/observability"
	"github.com/careledger/careledger-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var disputeTracer = otel.Tracer("service/dispute")

// DisputeService manages billing disputes: drafting letters, tracking
// status and emailing the provider's billing office.
type DisputeService struct {
	disputes port.DisputeStore
	expenses port.ExpenseStore
	email    port.EmailSender
	drafter  port.LetterDrafter
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDisputeService creates the dispute service. drafter may be nil;
// the built-in template is used then.
func NewDisputeService(
	disputes port.DisputeStore,
	expenses port.ExpenseStore,
	email port.EmailSender,
	drafter port.LetterDrafter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DisputeService {
	return &DisputeService{
		disputes: disputes,
		expenses: expenses,
		email:    email,
		drafter:  drafter,
		metrics:  metrics,
		logger:   logger,
	}
}

// Create drafts a new dispute against an invoice. The letter is
// generated up front so the user can edit it before sending.
func (s *DisputeService) Create(ctx context.Context, userID string, req *domain.CreateDisputeRequest) (*domain.Dispute, error) {
	ctx, span := disputeTracer.Start(ctx, "DisputeService.Create")
	defer span.End()

	if req.InvoiceID == "" {
		return nil, &domain.ErrValidation{Field: "invoice_id", Message: "required"}
	}
	if req.Reason == "" {
		return nil, &domain.ErrValidation{Field: "reason", Message: "required"}
	}

	invoice, err := s.expenses.GetInvoice(ctx, userID, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	letter := s.draftLetter(ctx, invoice, req.Reason)

	dispute := &domain.Dispute{
		UserID:        userID,
		InvoiceID:     req.InvoiceID,
		TransactionID: req.TransactionID,
		Reason:        req.Reason,
		Letter:        letter,
		Status:        domain.DisputeDraft,
	}

	created, err := s.disputes.CreateDispute(ctx, dispute)
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispute drafted",
		zap.String("dispute_id", created.ID),
		zap.String("invoice_id", req.InvoiceID),
	)
	return created, nil
}

// draftLetter asks the LLM drafter when configured, falling back to the
// template on any failure. Letter drafting must never block a dispute.
func (s *DisputeService) draftLetter(ctx context.Context, invoice *domain.Invoice, reason string) string {
	if s.drafter != nil {
		letter, err := s.drafter.DraftDisputeLetter(ctx, invoice, reason)
		if err == nil && letter != "" {
			return letter
		}
		if err != nil {
			s.logger.Warn("letter drafter failed, using template", zap.Error(err))
			s.metrics.IncrExternalError("drafter")
		}
	}
	return templateLetter(invoice, reason)
}

func templateLetter(invoice *domain.Invoice, reason string) string {
	return fmt.Sprintf(
		"To the billing department of %s:\n\n"+
			"I am writing to dispute a charge of $%.2f dated %s.\n\n"+
			"Reason: %s\n\n"+
			"Please review this charge and respond within 30 days as required "+
			"under the Fair Credit Billing Act.\n\n"+
			"Sincerely,",
		invoice.Vendor, invoice.Amount, invoice.EffectiveDate().Format("January 2, 2006"), reason,
	)
}

// Get returns one dispute.
func (s *DisputeService) Get(ctx context.Context, userID, disputeID string) (*domain.Dispute, error) {
	ctx, span := disputeTracer.Start(ctx, "DisputeService.Get")
	defer span.End()

	return s.disputes.GetDispute(ctx, userID, disputeID)
}

// List returns the user's disputes.
func (s *DisputeService) List(ctx context.Context, userID string) ([]domain.Dispute, error) {
	ctx, span := disputeTracer.Start(ctx, "DisputeService.List")
	defer span.End()

	return s.disputes.ListDisputes(ctx, userID)
}

// Send emails the dispute letter and marks the dispute sent. Only
// drafts can be sent.
func (s *DisputeService) Send(ctx context.Context, userID, disputeID, recipient string) (*domain.SendDisputeResponse, error) {
	ctx, span := disputeTracer.Start(ctx, "DisputeService.Send")
	defer span.End()

	if recipient == "" {
		return nil, &domain.ErrValidation{Field: "recipient_email", Message: "required"}
	}

	dispute, err := s.disputes.GetDispute(ctx, userID, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status != domain.DisputeDraft {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("dispute is %s, only drafts can be sent", dispute.Status)}
	}

	subject := fmt.Sprintf("Billing dispute — invoice %s", dispute.InvoiceID)
	messageID, err := s.email.Send(ctx, recipient, subject, dispute.Letter)
	if err != nil {
		s.metrics.IncrExternalError("email")
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.disputes.UpdateDispute(ctx, userID, disputeID, map[string]any{
		"status":  string(domain.DisputeSent),
		"sent_at": now.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	dispute.Status = domain.DisputeSent
	dispute.SentAt = &now

	s.logger.Info("dispute sent",
		zap.String("dispute_id", disputeID),
		zap.String("message_id", messageID),
	)

	return &domain.SendDisputeResponse{Dispute: dispute, MessageID: messageID}, nil
}

// UpdateStatus moves a dispute to resolved or dropped.
func (s *DisputeService) UpdateStatus(ctx context.Context, userID, disputeID string, status domain.DisputeStatus) (*domain.Dispute, error) {
	ctx, span := disputeTracer.Start(ctx, "DisputeService.UpdateStatus")
	defer span.End()

	if status != domain.DisputeResolved && status != domain.DisputeDropped {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be resolved or dropped"}
	}

	if err := s.disputes.UpdateDispute(ctx, userID, disputeID, map[string]any{
		"status": string(status),
	}); err != nil {
		return nil, err
	}
	return s.disputes.GetDispute(ctx, userID, disputeID)
}
