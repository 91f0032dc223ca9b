package domain

import "time"

// DisputeStatus tracks a billing dispute through its lifecycle.
type DisputeStatus string

const (
	DisputeDraft    DisputeStatus = "draft"
	DisputeSent     DisputeStatus = "sent"
	DisputeResolved DisputeStatus = "resolved"
	DisputeDropped  DisputeStatus = "dropped"
)

// Dispute is a billing-error dispute raised against an invoice (and
// optionally the bank transaction that paid it).
type Dispute struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	InvoiceID     string        `json:"invoice_id"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Reason        string        `json:"reason"`
	Letter        string        `json:"letter,omitempty"`
	Status        DisputeStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	SentAt        *time.Time    `json:"sent_at,omitempty"`
}

// CreateDisputeRequest is the body for POST /v1/disputes.
type CreateDisputeRequest struct {
	InvoiceID     string `json:"invoice_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason"`
	// RecipientEmail is where the dispute letter is sent (billing office).
	RecipientEmail string `json:"recipient_email,omitempty"`
}

// SendDisputeResponse is returned after the letter is emailed.
type SendDisputeResponse struct {
	Dispute   *Dispute `json:"dispute"`
	MessageID string   `json:"message_id,omitempty"`
}
