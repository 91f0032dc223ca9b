package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ExpenseStore implementation — transactions, invoices and
// vendor preferences via PostgREST
// ============================================================

// transactionRow maps the transactions table. Dates come back as
// strings from PostgREST.
type transactionRow struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	Date            string   `json:"date"`
	Vendor          string   `json:"vendor"`
	Description     string   `json:"description"`
	Amount          float64  `json:"amount"`
	IsMedical       bool     `json:"is_medical"`
	HSAEligible     bool     `json:"hsa_eligible"`
	Status          string   `json:"status"`
	LinkedInvoiceID string   `json:"linked_invoice_id"`
	Category        []string `json:"category"`
}

func (r transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:              r.ID,
		UserID:          r.UserID,
		Date:            parseDate(r.Date),
		Vendor:          r.Vendor,
		Description:     r.Description,
		Amount:          r.Amount,
		IsMedical:       r.IsMedical,
		HSAEligible:     r.HSAEligible,
		Status:          domain.ReconStatus(r.Status),
		LinkedInvoiceID: r.LinkedInvoiceID,
		Category:        r.Category,
	}
}

// GetTransaction fetches one transaction, scoped to the user.
func (c *Client) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s&limit=1", txID, userID)
	body, err := c.getWithResilience(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}

	tx := rows[0].toDomain()
	return &tx, nil
}

// ListTransactions returns the user's transactions, newest first.
// status filters on reconciliation state when non-empty.
func (c *Client) ListTransactions(ctx context.Context, userID string, status domain.ReconStatus, limit, offset int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&order=date.desc&limit=%d&offset=%d", userID, limit, offset)
	if status != "" {
		path += "&status=eq." + url.QueryEscape(string(status))
	}

	body, err := c.getWithResilience(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Transaction{}, nil
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, r.toDomain())
	}
	return txs, nil
}

// CreateTransaction inserts a new unlinked transaction for the bank-sync
// collaborator and returns the stored row.
func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	data := map[string]any{
		"id":           uuid.New().String(),
		"user_id":      tx.UserID,
		"date":         tx.Date.Format(time.RFC3339),
		"vendor":       tx.Vendor,
		"description":  tx.Description,
		"amount":       tx.Amount,
		"is_medical":   tx.IsMedical,
		"hsa_eligible": tx.HSAEligible,
		"status":       string(domain.ReconUnlinked),
		"category":     tx.Category,
	}

	body, err := c.doPost(ctx, "transactions", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("decode created transaction: %w", err)
	}
	created := rows[0].toDomain()
	return &created, nil
}

// UpdateTransaction patches reconciliation fields on a transaction.
func (c *Client) UpdateTransaction(ctx context.Context, userID, txID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s", txID, userID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return nil
}

// --- Invoices ---

type invoiceRow struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Vendor      string  `json:"vendor"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	InvoiceDate *string `json:"invoice_date"`
	Status      string  `json:"status"`
}

func (r invoiceRow) toDomain() domain.Invoice {
	inv := domain.Invoice{
		ID:     r.ID,
		UserID: r.UserID,
		Vendor: r.Vendor,
		Amount: r.Amount,
		Date:   parseDate(r.Date),
		Status: r.Status,
	}
	if r.InvoiceDate != nil && *r.InvoiceDate != "" {
		d := parseDate(*r.InvoiceDate)
		inv.InvoiceDate = &d
	}
	return inv
}

// GetInvoice fetches one invoice, scoped to the user.
func (c *Client) GetInvoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	path := fmt.Sprintf("invoices?id=eq.%s&user_id=eq.%s&limit=1", invoiceID, userID)
	body, err := c.getWithResilience(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: invoiceID}
	}

	var rows []invoiceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: invoiceID}
	}

	inv := rows[0].toDomain()
	return &inv, nil
}

// ListOpenInvoices returns the user's unlinked invoices, newest first.
// These are the matching candidates for the suggestion engine.
func (c *Client) ListOpenInvoices(ctx context.Context, userID string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOpenInvoices")
	defer span.End()

	path := fmt.Sprintf("invoices?user_id=eq.%s&status=neq.linked&order=date.desc&limit=200", userID)
	body, err := c.getWithResilience(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Invoice{}, nil
	}

	var rows []invoiceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for _, r := range rows {
		invoices = append(invoices, r.toDomain())
	}
	return invoices, nil
}

// CreateInvoice inserts an invoice and returns the stored row.
func (c *Client) CreateInvoice(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInvoice")
	defer span.End()

	data := map[string]any{
		"id":      uuid.New().String(),
		"user_id": inv.UserID,
		"vendor":  inv.Vendor,
		"amount":  inv.Amount,
		"date":    inv.Date.Format(time.RFC3339),
		"status":  "open",
	}
	if inv.InvoiceDate != nil {
		data["invoice_date"] = inv.InvoiceDate.Format("2006-01-02")
	}

	body, err := c.doPost(ctx, "invoices", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}

	var rows []invoiceRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("decode created invoice: %w", err)
	}
	created := rows[0].toDomain()
	return &created, nil
}

// MarkInvoiceLinked flips an invoice to linked after a review action.
func (c *Client) MarkInvoiceLinked(ctx context.Context, userID, invoiceID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkInvoiceLinked")
	defer span.End()

	path := fmt.Sprintf("invoices?id=eq.%s&user_id=eq.%s", invoiceID, userID)
	if err := c.doPatch(ctx, path, map[string]any{"status": "linked"}); err != nil {
		return &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}
	return nil
}

// --- Vendor preferences ---

// ListPreferences returns the user's learned vendor preferences.
func (c *Client) ListPreferences(ctx context.Context, userID string) ([]domain.VendorPreference, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPreferences")
	defer span.End()

	path := fmt.Sprintf("vendor_preferences?user_id=eq.%s&order=created_at.asc", userID)
	body, err := c.getWithResilience(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/vendor_preferences", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.VendorPreference{}, nil
	}

	var prefs []domain.VendorPreference
	if err := json.Unmarshal(body, &prefs); err != nil {
		return nil, fmt.Errorf("decode vendor_preferences: %w", err)
	}
	return prefs, nil
}

// UpsertPreference stores a learned preference, merging on the
// user_id+pattern unique constraint so re-remembering a vendor just
// updates the choice.
func (c *Client) UpsertPreference(ctx context.Context, pref *domain.VendorPreference) (*domain.VendorPreference, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertPreference")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    pref.UserID,
		"pattern":    pref.Pattern,
		"is_medical": pref.IsMedical,
	}

	body, err := c.doUpsert(ctx, "vendor_preferences", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/vendor_preferences", Err: err}
	}

	var rows []domain.VendorPreference
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("decode upserted preference: %w", err)
	}
	return &rows[0], nil
}

// DeletePreference removes a learned preference.
func (c *Client) DeletePreference(ctx context.Context, userID, prefID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePreference")
	defer span.End()

	path := fmt.Sprintf("vendor_preferences?id=eq.%s&user_id=eq.%s", prefID, userID)
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/vendor_preferences", Err: err}
	}
	return nil
}
