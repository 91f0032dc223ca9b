package domain

import "time"

// Invoice is a billed medical expense record owned by the billing
// subsystem. The reconciliation engine treats it as read-only input.
type Invoice struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Vendor string    `json:"vendor"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
	// InvoiceDate is the date printed on the bill, when known.
	// It takes precedence over Date for matching.
	InvoiceDate *time.Time `json:"invoice_date,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// EffectiveDate returns the invoice date when set, else the record date.
func (i *Invoice) EffectiveDate() time.Time {
	if i.InvoiceDate != nil && !i.InvoiceDate.IsZero() {
		return *i.InvoiceDate
	}
	return i.Date
}

// CreateInvoiceRequest is the body for POST /v1/invoices.
type CreateInvoiceRequest struct {
	Vendor      string  `json:"vendor"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	InvoiceDate string  `json:"invoice_date,omitempty"`
}
