// Package recon implements the expense-to-transaction reconciliation
// engine: a vendor/category classifier, a fuzzy invoice matcher and a
// suggestion engine that combines them with per-user learned
// preferences.
//
// Every function in this package is pure and synchronous: no I/O, no
// shared mutable state, no blocking. Callers may invoke it concurrently
// per transaction with no coordination.
package recon

import "strings"

// IsMedicalVendor reports whether free-text vendor or description text
// indicates a medical expense, using the static vendor keyword table.
// Empty input is a valid case and returns false.
func IsMedicalVendor(text string) bool {
	if text == "" {
		return false
	}
	upper := strings.ToUpper(text)
	for _, pattern := range tables.Vendors {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// IsMedicalCategory reports whether any of the category tags matches a
// known medical category name. Tags are checked case-insensitively for
// containment of a reference category ("Healthcare Services" matches
// "Healthcare"). Empty or nil input returns false.
func IsMedicalCategory(tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, category := range tables.Categories {
			if strings.Contains(lower, category) {
				return true
			}
		}
	}
	return false
}
