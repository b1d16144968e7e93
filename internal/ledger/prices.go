package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/fintrack/internal/models"
)

// ErrNoPriceLookup is returned when price operations run without a lookup.
var ErrNoPriceLookup = errors.New("no price lookup configured")

// USDINR returns the current USD to INR rate.
func (l *Ledger) USDINR(ctx context.Context) (float64, error) {
	if l.prices == nil {
		return 0, ErrNoPriceLookup
	}
	return l.prices.USDINR(ctx)
}

// RefreshPrices looks up the current price of every non-manual holding and
// stores it. Only CurrentPrice changes. A failed lookup or write is counted
// and the batch moves on.
func (l *Ledger) RefreshPrices(ctx context.Context) (BatchStats, error) {
	const job = "refresh_prices"
	start := time.Now()

	var stats BatchStats
	if l.prices == nil {
		return stats, ErrNoPriceLookup
	}

	userIDs, err := l.store.ListActiveUserIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list users: %w", err)
	}

	var holdings []*models.Holding
	for _, userID := range userIDs {
		hs, err := l.store.ListHoldings(ctx, userID)
		if err != nil {
			slog.Error("Failed to list holdings", "user_id", userID, "error", err)
			stats.Failed++
			continue
		}
		holdings = append(holdings, hs...)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.refreshConcurrency)

	for _, h := range holdings {
		if h.IsManual {
			stats.Skipped++
			continue
		}
		g.Go(func() error {
			outcome := l.refreshHolding(gctx, h)
			mu.Lock()
			stats.record(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	l.recordBatch(job, stats, time.Since(start))
	slog.Info("Price refresh finished", "updated", stats.Updated, "skipped", stats.Skipped,
		"failed", stats.Failed, "duration_ms", time.Since(start).Milliseconds())
	return stats, ctx.Err()
}

func (l *Ledger) refreshHolding(ctx context.Context, h *models.Holding) Outcome {
	price, err := l.prices.Price(ctx, h.Symbol, h.Bucket, h.Currency)
	if err != nil {
		slog.Warn("Price unavailable", "user_id", h.UserID, "symbol", h.Symbol,
			"bucket", h.Bucket, "error", err)
		return OutcomeFailed
	}
	if err := l.store.UpdateHoldingPrice(ctx, h.ID, price, l.now().Unix()); err != nil {
		slog.Error("Failed to store price", "user_id", h.UserID, "symbol", h.Symbol, "error", err)
		return OutcomeFailed
	}
	return OutcomeUpdated
}
