package domain

// SpendingSummary is the dashboard read-side aggregate for one user.
type SpendingSummary struct {
	UserID           string         `json:"user_id"`
	PeriodLabel      string         `json:"period_label"`
	TotalSpent       float64        `json:"total_spent"`
	MedicalSpent     float64        `json:"medical_spent"`
	HSAEligibleSpent float64        `json:"hsa_eligible_spent"`
	LinkedCount      int            `json:"linked_count"`
	UnreviewedCount  int            `json:"unreviewed_count"`
	TopVendors       []VendorSpend  `json:"top_vendors"`
	MonthlyTrend     []MonthlySpend `json:"monthly_trend"`
}

// VendorSpend is the per-vendor medical spend aggregate.
type VendorSpend struct {
	Vendor string  `json:"vendor"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// MonthlySpend is one month of the spending trend.
type MonthlySpend struct {
	Month   string  `json:"month"`
	Total   float64 `json:"total"`
	Medical float64 `json:"medical"`
}

// ReconMetrics is the snapshot served at GET /v1/metrics/recon.
type ReconMetrics struct {
	SuggestionsTotal  int64   `json:"suggestions_total"`
	LinkSuggestions   int64   `json:"link_suggestions"`
	MedicalFlags      int64   `json:"medical_flags"`
	SkipRate          float64 `json:"skip_rate"`
	PrefCacheHitRate  float64 `json:"pref_cache_hit_rate"`
	ReviewsApplied    int64   `json:"reviews_applied"`
	PreferencesStored int64   `json:"preferences_stored"`
	Period            string  `json:"period"`
}
