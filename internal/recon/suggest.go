package recon

import (
	"fmt"
	"strings"

	"github.com/careledger/careledger-go/internal/domain"
)

// Suggestion engine thresholds. The exact values and the rule order are
// load-bearing: the UI layer branches on these confidence bands.
const (
	// preferenceConfidence applies when a learned vendor preference
	// matches. An explicit human correction always outranks heuristics.
	preferenceConfidence = 0.95
	// linkThreshold gates the link_to_invoice rule. Linking is a
	// stronger action than a medical flag, so it demands a stricter bar
	// than the matcher's own eligibility floor.
	linkThreshold = 0.6
	// vendorConfidence applies to the static known-vendor heuristic.
	vendorConfidence = 0.8
)

// Suggest produces exactly one actionable suggestion for a transaction,
// evaluating a strict decision table top to bottom — the first
// applicable rule wins:
//
//  1. learned vendor preference (0.95)
//  2. invoice match with confidence > 0.6 (matcher's confidence)
//  3. known medical vendor heuristic (0.8)
//  4. skip for manual review (0.0)
//
// The ordering is deliberate: explicit human feedback > structured
// invoice evidence > static vendor-name heuristics > admit uncertainty.
// Suggest is a total function; it never errors for well-formed input.
// Preferences are consulted in input order; the first matching pattern
// is authoritative.
func Suggest(tx *domain.Transaction, invoices []domain.Invoice, prefs []domain.VendorPreference) domain.Suggestion {
	vendorText := tx.VendorText()
	lowerVendor := strings.ToLower(vendorText)

	// Rule 1: learned preference override.
	for _, pref := range prefs {
		pattern := strings.ToLower(strings.TrimSpace(pref.Pattern))
		if pattern == "" || !strings.Contains(lowerVendor, pattern) {
			continue
		}
		if pref.IsMedical {
			return domain.Suggestion{
				Type:       domain.SuggestMarkMedical,
				Confidence: preferenceConfidence,
				Reason:     fmt.Sprintf("you previously marked vendors matching %q as medical", pref.Pattern),
			}
		}
		return domain.Suggestion{
			Type:       domain.SuggestNotMedical,
			Confidence: preferenceConfidence,
			Reason:     fmt.Sprintf("you previously marked vendors matching %q as not medical", pref.Pattern),
		}
	}

	// Rule 2: invoice match above the link threshold.
	if match := FindMatchingInvoice(tx, invoices); match != nil && match.Confidence > linkThreshold {
		inv := match.Invoice
		return domain.Suggestion{
			Type:       domain.SuggestLinkToInvoice,
			Confidence: match.Confidence,
			Reason:     fmt.Sprintf("likely payment for invoice from %s ($%.2f)", inv.Vendor, inv.Amount),
			Invoice:    &inv,
		}
	}

	// Rule 3: static known-vendor heuristic.
	if IsMedicalVendor(vendorText) {
		return domain.Suggestion{
			Type:       domain.SuggestMarkMedical,
			Confidence: vendorConfidence,
			Reason:     "vendor appears to be a healthcare provider",
		}
	}

	// Rule 4: never guess past this point.
	return domain.Suggestion{
		Type:       domain.SuggestSkip,
		Confidence: 0.0,
		Reason:     "needs manual review",
	}
}
