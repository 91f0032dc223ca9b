package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/google/uuid"
)

// ============================================================
// ProviderStore implementation — healthcare providers via PostgREST
// ============================================================

type providerRow struct {
	ID         string  `json:"id"`
	NPI        string  `json:"npi"`
	Name       string  `json:"name"`
	Taxonomy   string  `json:"taxonomy"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	LastSynced *string `json:"last_synced"`
}

func (r providerRow) toDomain() domain.Provider {
	p := domain.Provider{
		ID:       r.ID,
		NPI:      r.NPI,
		Name:     r.Name,
		Taxonomy: r.Taxonomy,
		City:     r.City,
		State:    r.State,
	}
	if r.LastSynced != nil && *r.LastSynced != "" {
		t := parseDate(*r.LastSynced)
		p.LastSynced = &t
	}
	return p
}

// ListProviders returns all known providers, for the sync loop and the
// vendor-matching UI.
func (c *Client) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProviders")
	defer span.End()

	body, err := c.getWithResilience(ctx, "providers?order=name.asc&limit=500")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/providers", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Provider{}, nil
	}

	var rows []providerRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode providers: %w", err)
	}

	providers := make([]domain.Provider, 0, len(rows))
	for _, r := range rows {
		providers = append(providers, r.toDomain())
	}
	return providers, nil
}

// UpsertProvider stores registry data for a provider, merging on the
// npi unique constraint.
func (c *Client) UpsertProvider(ctx context.Context, rec *domain.NPIRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertProvider")
	defer span.End()

	data := map[string]any{
		"id":          uuid.New().String(),
		"npi":         rec.NPI,
		"name":        rec.Name,
		"taxonomy":    rec.Taxonomy,
		"city":        rec.City,
		"state":       rec.State,
		"last_synced": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := c.doUpsert(ctx, "providers", data); err != nil {
		return &domain.ErrExternalService{Service: "supabase/providers", Err: err}
	}
	return nil
}
