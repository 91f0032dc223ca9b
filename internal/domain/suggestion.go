package domain

// SuggestionType is the categorical action a suggestion proposes.
type SuggestionType string

const (
	SuggestLinkToInvoice SuggestionType = "link_to_invoice"
	SuggestMarkMedical   SuggestionType = "mark_medical"
	SuggestNotMedical    SuggestionType = "not_medical"
	SuggestSkip          SuggestionType = "skip"
)

// Suggestion is the engine's output for one transaction. It is built
// fresh on every call and never persisted; the UI uses it to pre-fill a
// review action that a human confirms or overrides.
type Suggestion struct {
	Type       SuggestionType `json:"type"`
	Confidence float64        `json:"confidence"`
	Reason     string         `json:"reason"`
	Invoice    *Invoice       `json:"invoice,omitempty"`
}

// VendorPreference is a per-user learned rule: a case-insensitive
// substring pattern and the user's past medical/not-medical choice.
// Preferences are created or updated when a human confirms or overrides
// a categorization with "remember this vendor".
type VendorPreference struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id"`
	Pattern   string `json:"pattern"`
	IsMedical bool   `json:"is_medical"`
}

// ReviewRequest is the body for POST /v1/transactions/{id}/review: the
// human-confirmed action to apply. Action uses the SuggestionType values.
type ReviewRequest struct {
	Action    SuggestionType `json:"action"`
	InvoiceID string         `json:"invoice_id,omitempty"`
	// Remember stores the decision as a vendor preference so the
	// suggestion engine learns from it.
	Remember bool `json:"remember,omitempty"`
}

// ReviewResponse echoes the applied state back to the caller.
type ReviewResponse struct {
	Transaction *Transaction `json:"transaction"`
	Learned     bool         `json:"learned"`
}
