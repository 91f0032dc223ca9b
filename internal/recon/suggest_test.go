package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careledger/careledger-go/internal/domain"
)

func TestSuggest_PreferenceBeatsVendorHeuristic(t *testing.T) {
	// Critical rule-ordering regression test: the vendor text matches a
	// known medical pattern AND a learned "not medical" preference. The
	// explicit human correction must win.
	tx := &domain.Transaction{
		Vendor: "CVS PHARMACY #1234",
		Amount: 25.00,
		Date:   date("2024-01-05"),
	}
	prefs := []domain.VendorPreference{
		{Pattern: "CVS", IsMedical: false},
	}

	s := Suggest(tx, nil, prefs)
	assert.Equal(t, domain.SuggestNotMedical, s.Type)
	assert.InDelta(t, 0.95, s.Confidence, 1e-9)
	assert.Contains(t, s.Reason, "CVS")
}

func TestSuggest_PreferenceMarksMedical(t *testing.T) {
	tx := &domain.Transaction{Vendor: "Orange Theory Fitness", Date: date("2024-01-05")}
	prefs := []domain.VendorPreference{
		{Pattern: "orange theory", IsMedical: true},
	}

	s := Suggest(tx, nil, prefs)
	assert.Equal(t, domain.SuggestMarkMedical, s.Type)
	assert.InDelta(t, 0.95, s.Confidence, 1e-9)
}

func TestSuggest_FirstMatchingPreferenceWins(t *testing.T) {
	tx := &domain.Transaction{Vendor: "CVS Pharmacy", Date: date("2024-01-05")}
	prefs := []domain.VendorPreference{
		{Pattern: "cvs", IsMedical: true},
		{Pattern: "pharmacy", IsMedical: false},
	}

	s := Suggest(tx, nil, prefs)
	assert.Equal(t, domain.SuggestMarkMedical, s.Type)
}

func TestSuggest_PreferenceBeatsInvoiceMatch(t *testing.T) {
	tx := &domain.Transaction{
		Vendor: "Aspen Dental",
		Amount: 320.00,
		Date:   date("2024-04-02"),
	}
	invoices := []domain.Invoice{
		{ID: "inv-1", Vendor: "Aspen Dental", Amount: 320.00, Date: date("2024-04-01")},
	}
	prefs := []domain.VendorPreference{
		{Pattern: "aspen dental", IsMedical: true},
	}

	s := Suggest(tx, invoices, prefs)
	assert.Equal(t, domain.SuggestMarkMedical, s.Type)
	assert.InDelta(t, 0.95, s.Confidence, 1e-9)
	assert.Nil(t, s.Invoice)
}

func TestSuggest_InvoiceMatch(t *testing.T) {
	tx := &domain.Transaction{
		Vendor: "Dr. Smith Family Practice",
		Amount: 150.00,
		Date:   date("2024-03-10"),
	}
	invoices := []domain.Invoice{
		{ID: "inv-1", Vendor: "Smith Family Practice", Amount: 150.00, Date: date("2024-03-08")},
	}

	s := Suggest(tx, invoices, nil)
	require.Equal(t, domain.SuggestLinkToInvoice, s.Type)
	require.NotNil(t, s.Invoice)
	assert.Equal(t, "inv-1", s.Invoice.ID)
	// 0.4*0.8 (containment) + 0.4 (amount within 2%) + 0.2 (2 days apart).
	assert.InDelta(t, 0.92, s.Confidence, 1e-9)
	assert.Contains(t, s.Reason, "Smith Family Practice")
	assert.Contains(t, s.Reason, "150.00")
}

func TestSuggest_WeakInvoiceMatchFallsThrough(t *testing.T) {
	// A candidate that clears the matcher's 0.5 floor but NOT the
	// engine's stricter 0.6 link threshold; the vendor heuristic takes
	// over instead.
	tx := &domain.Transaction{
		Vendor: "Quest Diagnostics Inc",
		Amount: 30.00,
		Date:   date("2024-02-01"),
	}
	invoices := []domain.Invoice{
		// Word overlap 1/3 plus amount agreement, date far off:
		// 0.4*(1/3) + 0.4 = 0.533.
		{ID: "inv-1", Vendor: "Quest Labs", Amount: 30.00, Date: date("2024-06-03")},
	}

	s := Suggest(tx, invoices, nil)
	assert.Equal(t, domain.SuggestMarkMedical, s.Type)
	assert.InDelta(t, 0.8, s.Confidence, 1e-9)
	assert.Nil(t, s.Invoice)
}

func TestSuggest_AmountAndDateAloneClearLinkGate(t *testing.T) {
	// The vendor names share no words, so similarity contributes
	// nothing. Amount and date agreement alone score 0.4+0.2, which in
	// float64 lands a hair above the 0.6 gate, so the link still fires.
	tx := &domain.Transaction{
		Vendor: "ZZZ Holdings",
		Amount: -92.00,
		Date:   date("2024-05-03"),
	}
	invoices := []domain.Invoice{
		{ID: "inv-1", Vendor: "Lakeview Imaging", Amount: 92.00, Date: date("2024-05-04")},
	}

	s := Suggest(tx, invoices, nil)
	require.Equal(t, domain.SuggestLinkToInvoice, s.Type)
	require.NotNil(t, s.Invoice)
	assert.Greater(t, s.Confidence, 0.6)
	assert.InDelta(t, 0.6, s.Confidence, 1e-9)
}

func TestSuggest_KnownVendorHeuristic(t *testing.T) {
	tx := &domain.Transaction{Vendor: "Walgreens #552", Amount: 18.40, Date: date("2024-02-01")}

	s := Suggest(tx, nil, nil)
	assert.Equal(t, domain.SuggestMarkMedical, s.Type)
	assert.InDelta(t, 0.8, s.Confidence, 1e-9)
	assert.Equal(t, "vendor appears to be a healthcare provider", s.Reason)
}

func TestSuggest_NoSignalsSkips(t *testing.T) {
	tx := &domain.Transaction{Vendor: "Blue Bottle Coffee", Amount: 7.25, Date: date("2024-02-01")}

	s := Suggest(tx, nil, nil)
	assert.Equal(t, domain.SuggestSkip, s.Type)
	assert.Zero(t, s.Confidence)
	assert.Equal(t, "needs manual review", s.Reason)
}

func TestSuggest_DescriptionUsedWhenVendorEmpty(t *testing.T) {
	tx := &domain.Transaction{
		Description: "CHECKCARD TELADOC HEALTH",
		Amount:      49.00,
		Date:        date("2024-06-01"),
	}

	s := Suggest(tx, nil, nil)
	assert.Equal(t, domain.SuggestMarkMedical, s.Type)
}

func TestSuggest_IsTotalOnZeroValues(t *testing.T) {
	s := Suggest(&domain.Transaction{}, nil, nil)
	assert.Equal(t, domain.SuggestSkip, s.Type)
}
