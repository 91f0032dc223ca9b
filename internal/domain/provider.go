package domain

import "time"

// Provider is a healthcare provider row enriched from the NPI registry.
type Provider struct {
	ID         string     `json:"id"`
	NPI        string     `json:"npi"`
	Name       string     `json:"name"`
	Taxonomy   string     `json:"taxonomy,omitempty"`
	City       string     `json:"city,omitempty"`
	State      string     `json:"state,omitempty"`
	LastSynced *time.Time `json:"last_synced,omitempty"`
}

// NPIRecord is the subset of the CMS NPI registry response we keep.
type NPIRecord struct {
	NPI      string `json:"npi"`
	Name     string `json:"name"`
	Taxonomy string `json:"taxonomy"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// ProviderSyncReport summarizes one batch sync run against the registry.
type ProviderSyncReport struct {
	Scanned   int       `json:"scanned"`
	Updated   int       `json:"updated"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}
