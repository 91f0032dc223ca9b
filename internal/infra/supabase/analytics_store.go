package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/careledger/careledger-go/internal/domain"
)

// ============================================================
// AnalyticsStore implementation — read-side range queries
// ============================================================

// ListTransactionsInRange returns the user's transactions with dates in
// [from, to], oldest first. Feeds the spending summary aggregation.
func (c *Client) ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactionsInRange")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&date=gte.%s&date=lte.%s&order=date.asc&limit=1000",
		userID, from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))

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
