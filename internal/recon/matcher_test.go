package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careledger/careledger-go/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStringSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 0},
		{"one empty", "Kaiser", "", 0},
		{"exact match", "Kaiser Permanente", "Kaiser Permanente", 1.0},
		{"case insensitive equality", "Kaiser Permanente", "kaiser permanente", 1.0},
		{"whitespace trimmed equality", "  CVS  ", "cvs", 1.0},
		{"containment shortcut", "CVS", "CVS Pharmacy #4521", 0.8},
		{"containment reversed", "CVS Pharmacy #4521", "CVS", 0.8},
		{"word overlap partial", "quest diagnostics inc", "quest labs", 1.0 / 3.0},
		{"no overlap", "starbucks", "labcorp", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, StringSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestAmountsMatch(t *testing.T) {
	tests := []struct {
		name   string
		a1, a2 float64
		want   bool
	}{
		{"exact", 100, 100, true},
		{"within 2pct of mean", 100, 101, true},
		{"outside tolerance", 100, 110, false},
		{"boundary uses mean not either amount", 99, 101, true},
		{"small amounts", 10.00, 10.15, true},
		{"small amounts outside", 10.00, 10.50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountsMatch(tt.a1, tt.a2, AmountTolerance))
		})
	}
}

func TestDatesMatch(t *testing.T) {
	tests := []struct {
		name   string
		d1, d2 string
		want   bool
	}{
		{"same day", "2024-01-01", "2024-01-01", true},
		{"six days apart", "2024-01-01", "2024-01-07", true},
		{"exactly seven days", "2024-01-01", "2024-01-08", true},
		{"eight days apart", "2024-01-01", "2024-01-09", false},
		{"order does not matter", "2024-01-07", "2024-01-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DatesMatch(date(tt.d1), date(tt.d2), DateRangeDays))
		})
	}
}

func TestFindMatchingInvoice_EmptyList(t *testing.T) {
	tx := &domain.Transaction{Vendor: "CVS", Amount: 42.00, Date: date("2024-01-01")}
	assert.Nil(t, FindMatchingInvoice(tx, nil))
	assert.Nil(t, FindMatchingInvoice(tx, []domain.Invoice{}))
}

func TestFindMatchingInvoice_BelowFloor(t *testing.T) {
	tx := &domain.Transaction{Vendor: "Starbucks", Amount: 6.50, Date: date("2024-01-01")}
	invoices := []domain.Invoice{
		{ID: "inv-1", Vendor: "Quest Diagnostics", Amount: 200.00, Date: date("2024-06-01")},
	}
	// No vendor similarity, no amount match, no date match: 0.0.
	assert.Nil(t, FindMatchingInvoice(tx, invoices))
}

func TestFindMatchingInvoice_SingleCandidate(t *testing.T) {
	tx := &domain.Transaction{
		Vendor: "Dr. Smith Family Practice",
		Amount: 150.00,
		Date:   date("2024-03-10"),
	}
	invoices := []domain.Invoice{
		{ID: "inv-1", Vendor: "Smith Family Practice", Amount: 150.00, Date: date("2024-03-08")},
	}

	match := FindMatchingInvoice(tx, invoices)
	require.NotNil(t, match)
	assert.Equal(t, "inv-1", match.Invoice.ID)
	// 0.4*0.8 (containment) + 0.4 (amounts) + 0.2 (2 days apart).
	assert.InDelta(t, 0.92, match.Confidence, 1e-9)
}

func TestFindMatchingInvoice_HigherConfidenceWins(t *testing.T) {
	tx := &domain.Transaction{
		Vendor: "Kaiser Permanente",
		Amount: 250.00,
		Date:   date("2024-05-01"),
	}
	invoices := []domain.Invoice{
		// Vendor containment + amount, but date is far off: 0.32 + 0.4 = 0.72.
		{ID: "inv-weak", Vendor: "Kaiser", Amount: 250.00, Date: date("2024-01-15")},
		// Exact vendor + amount + date: 1.0.
		{ID: "inv-strong", Vendor: "Kaiser Permanente", Amount: 250.00, Date: date("2024-05-03")},
	}

	match := FindMatchingInvoice(tx, invoices)
	require.NotNil(t, match)
	assert.Equal(t, "inv-strong", match.Invoice.ID)
	assert.InDelta(t, 1.0, match.Confidence, 1e-9)
}

func TestFindMatchingInvoice_TieKeepsFirstSeen(t *testing.T) {
	tx := &domain.Transaction{
		Vendor: "Labcorp",
		Amount: 80.00,
		Date:   date("2024-02-10"),
	}
	invoices := []domain.Invoice{
		{ID: "inv-a", Vendor: "Labcorp", Amount: 80.00, Date: date("2024-02-09")},
		{ID: "inv-b", Vendor: "Labcorp", Amount: 80.00, Date: date("2024-02-11")},
	}

	match := FindMatchingInvoice(tx, invoices)
	require.NotNil(t, match)
	assert.Equal(t, "inv-a", match.Invoice.ID)
}

func TestFindMatchingInvoice_UsesAbsoluteAmount(t *testing.T) {
	// Bank debits come in negative; matching compares magnitudes.
	tx := &domain.Transaction{
		Vendor: "Aspen Dental",
		Amount: -320.00,
		Date:   date("2024-04-02"),
	}
	invoices := []domain.Invoice{
		{ID: "inv-1", Vendor: "Aspen Dental", Amount: 320.00, Date: date("2024-04-01")},
	}

	match := FindMatchingInvoice(tx, invoices)
	require.NotNil(t, match)
	assert.InDelta(t, 1.0, match.Confidence, 1e-9)
}

func TestFindMatchingInvoice_PrefersInvoiceDate(t *testing.T) {
	invoiceDate := date("2024-03-09")
	tx := &domain.Transaction{
		Vendor: "Quest Diagnostics",
		Amount: 95.00,
		Date:   date("2024-03-10"),
	}
	invoices := []domain.Invoice{
		// Record date is months old but the printed invoice date is
		// one day away; the printed date must win.
		{ID: "inv-1", Vendor: "Quest Diagnostics", Amount: 95.00, Date: date("2023-11-01"), InvoiceDate: &invoiceDate},
	}

	match := FindMatchingInvoice(tx, invoices)
	require.NotNil(t, match)
	assert.InDelta(t, 1.0, match.Confidence, 1e-9)
}

func TestFindMatchingInvoice_FallsBackToDescription(t *testing.T) {
	tx := &domain.Transaction{
		Description: "POS DEBIT LENSCRAFTERS 0042",
		Amount:      210.00,
		Date:        date("2024-07-15"),
	}
	invoices := []domain.Invoice{
		{ID: "inv-1", Vendor: "Lenscrafters", Amount: 210.00, Date: date("2024-07-14")},
	}

	match := FindMatchingInvoice(tx, invoices)
	require.NotNil(t, match)
	assert.Equal(t, "inv-1", match.Invoice.ID)
}
