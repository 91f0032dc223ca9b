// Package domain defines the core entities of the CareLedger backend:
// bank transactions pending review, medical invoices, learned vendor
// preferences, reconciliation suggestions, disputes and providers.
package domain

import "time"

// ReconStatus is the reconciliation state of a transaction.
type ReconStatus string

const (
	ReconUnlinked ReconStatus = "unlinked"
	ReconLinked   ReconStatus = "linked_to_invoice"
	ReconIgnored  ReconStatus = "ignored"
)

// Transaction is a bank-ledger entry pending review. Rows are created by
// the bank-sync collaborator and mutated only through human-confirmed
// review actions; the engine never deletes them.
type Transaction struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Date            time.Time   `json:"date"`
	Vendor          string      `json:"vendor,omitempty"`
	Description     string      `json:"description,omitempty"`
	Amount          float64     `json:"amount"`
	IsMedical       bool        `json:"is_medical"`
	HSAEligible     bool        `json:"hsa_eligible"`
	Status          ReconStatus `json:"status"`
	LinkedInvoiceID string      `json:"linked_invoice_id,omitempty"`
	Category        []string    `json:"category,omitempty"`
}

// VendorText returns the text used for vendor matching: the vendor name
// when present, otherwise the bank description.
func (t *Transaction) VendorText() string {
	if t.Vendor != "" {
		return t.Vendor
	}
	return t.Description
}

// CreateTransactionRequest is the body for POST /v1/transactions,
// used by the bank-sync collaborator. Date and amount are validated at
// this boundary so malformed input fails fast instead of corrupting
// confidence scores downstream.
type CreateTransactionRequest struct {
	Date        string   `json:"date"`
	Vendor      string   `json:"vendor,omitempty"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Category    []string `json:"category,omitempty"`
}
