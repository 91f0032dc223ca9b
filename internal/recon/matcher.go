package recon

import (
	"math"
	"strings"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
)

// Matcher defaults. The weights and the 0.5 eligibility floor are part
// of the engine's contract: downstream UI logic branches on the
// resulting confidence bands.
const (
	// AmountTolerance is the default relative tolerance for amount
	// comparison: within 2% of the mean of the two amounts.
	AmountTolerance = 0.02
	// DateRangeDays is the default window for date proximity.
	DateRangeDays = 7

	vendorWeight = 0.4
	amountWeight = 0.4
	dateWeight   = 0.2

	matchFloor = 0.5
)

// InvoiceMatch is the matcher's result: the winning candidate and its
// combined confidence in (matchFloor, 1.0].
type InvoiceMatch struct {
	Invoice    domain.Invoice
	Confidence float64
}

// StringSimilarity scores how alike two vendor strings are, in [0, 1].
// It is intentionally cheap: exact equality after trim+lowercase scores
// 1.0, substring containment in either direction scores 0.8, otherwise
// the score is the word-overlap ratio (a word matches when either word
// contains the other). It is not an edit-distance metric.
func StringSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)

	matches := 0
	for _, wa := range wordsA {
		for _, wb := range wordsB {
			if strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				matches++
				break
			}
		}
	}

	longest := len(wordsA)
	if len(wordsB) > longest {
		longest = len(wordsB)
	}
	return float64(matches) / float64(longest)
}

// AmountsMatch reports whether two amounts agree within the given
// relative tolerance. The tolerance applies to the mean of the two
// amounts, not to either amount alone, which keeps the check symmetric.
func AmountsMatch(amount1, amount2, tolerance float64) bool {
	mean := (amount1 + amount2) / 2
	return math.Abs(amount1-amount2) <= tolerance*mean
}

// DatesMatch reports whether two dates fall within daysRange calendar
// days of each other.
func DatesMatch(date1, date2 time.Time, daysRange int) bool {
	diff := date1.Sub(date2)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(daysRange)*24*time.Hour
}

// FindMatchingInvoice scores every candidate invoice against the
// transaction and returns the best match, or nil when no candidate
// clears the eligibility floor. The score weighs vendor similarity
// (0.4), amount agreement (0.4) and date proximity (0.2). Transaction
// amounts are compared by absolute value; the invoice date prefers the
// printed invoice_date over the record date.
//
// Ties are broken by input order: the first candidate with the highest
// confidence wins. Callers that need a stronger guarantee must sort the
// candidate list themselves.
func FindMatchingInvoice(tx *domain.Transaction, invoices []domain.Invoice) *InvoiceMatch {
	if tx == nil || len(invoices) == 0 {
		return nil
	}

	vendorText := tx.VendorText()
	txAmount := math.Abs(tx.Amount)

	var best *InvoiceMatch
	for _, inv := range invoices {
		confidence := vendorWeight * StringSimilarity(vendorText, inv.Vendor)
		if AmountsMatch(txAmount, inv.Amount, AmountTolerance) {
			confidence += amountWeight
		}
		if DatesMatch(tx.Date, inv.EffectiveDate(), DateRangeDays) {
			confidence += dateWeight
		}

		if confidence <= matchFloor {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &InvoiceMatch{Invoice: inv, Confidence: confidence}
		}
	}
	return best
}
