package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// DisputeStore implementation — billing disputes via PostgREST
// ============================================================

type disputeRow struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	InvoiceID     string  `json:"invoice_id"`
	TransactionID string  `json:"transaction_id"`
	Reason        string  `json:"reason"`
	Letter        string  `json:"letter"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	SentAt        *string `json:"sent_at"`
}

func (r disputeRow) toDomain() domain.Dispute {
	d := domain.Dispute{
		ID:            r.ID,
		UserID:        r.UserID,
		InvoiceID:     r.InvoiceID,
		TransactionID: r.TransactionID,
		Reason:        r.Reason,
		Letter:        r.Letter,
		Status:        domain.DisputeStatus(r.Status),
		CreatedAt:     parseDate(r.CreatedAt),
	}
	if r.SentAt != nil && *r.SentAt != "" {
		t := parseDate(*r.SentAt)
		d.SentAt = &t
	}
	return d
}

// CreateDispute inserts a draft dispute and returns the stored row.
func (c *Client) CreateDispute(ctx context.Context, d *domain.Dispute) (*domain.Dispute, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDispute")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    d.UserID,
		"invoice_id": d.InvoiceID,
		"reason":     d.Reason,
		"letter":     d.Letter,
		"status":     string(domain.DisputeDraft),
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if d.TransactionID != "" {
		data["transaction_id"] = d.TransactionID
	}

	body, err := c.doPost(ctx, "disputes", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/disputes", Err: err}
	}

	var rows []disputeRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("decode created dispute: %w", err)
	}
	created := rows[0].toDomain()
	return &created, nil
}

// GetDispute fetches one dispute, scoped to the user.
func (c *Client) GetDispute(ctx context.Context, userID, disputeID string) (*domain.Dispute, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDispute")
	defer span.End()
	span.SetAttributes(attribute.String("dispute.id", disputeID))

	path := fmt.Sprintf("disputes?id=eq.%s&user_id=eq.%s&limit=1", disputeID, userID)
	body, err := c.getWithResilience(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/disputes", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "dispute", ID: disputeID}
	}

	var rows []disputeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode disputes: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "dispute", ID: disputeID}
	}

	d := rows[0].toDomain()
	return &d, nil
}

// ListDisputes returns the user's disputes, newest first.
func (c *Client) ListDisputes(ctx context.Context, userID string) ([]domain.Dispute, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDisputes")
	defer span.End()

	path := fmt.Sprintf("disputes?user_id=eq.%s&order=created_at.desc&limit=100", userID)
	body, err := c.getWithResilience(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/disputes", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Dispute{}, nil
	}

	var rows []disputeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode disputes: %w", err)
	}

	disputes := make([]domain.Dispute, 0, len(rows))
	for _, r := range rows {
		disputes = append(disputes, r.toDomain())
	}
	return disputes, nil
}

// UpdateDispute patches dispute fields (status, letter, sent_at).
func (c *Client) UpdateDispute(ctx context.Context, userID, disputeID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDispute")
	defer span.End()
	span.SetAttributes(attribute.String("dispute.id", disputeID))

	path := fmt.Sprintf("disputes?id=eq.%s&user_id=eq.%s", disputeID, userID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return &domain.ErrExternalService{Service: "supabase/disputes", Err: err}
	}
	return nil
}
