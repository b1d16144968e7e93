// Package ledger applies financial mutations atomically and derives the
// monthly snapshots and holding positions built from them.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
	"github.com/mmynk/fintrack/internal/storage"
)

// PriceLookup returns current market data. Implementations report an
// unavailable quote as an error; callers treat it as non-fatal.
type PriceLookup interface {
	Price(ctx context.Context, symbol string, bucket models.InvestmentBucket, currency string) (float64, error)
	USDINR(ctx context.Context) (float64, error)
}

// Notifier is told about state changes after they commit.
type Notifier interface {
	MonthClosed(ctx context.Context, snap *models.MonthlySnapshot) error
	HoldingChanged(ctx context.Context, change HoldingChange) error
}

// HoldingChange describes a holding after a transaction touched it.
type HoldingChange struct {
	UserID  string
	Bucket  models.InvestmentBucket
	Symbol  string
	Qty     float64
	AvgCost float64
	Deleted bool
}

// Metrics records batch job outcomes.
type Metrics interface {
	JobItems(job, outcome string, n int)
	JobDuration(job string, d time.Duration)
}

// Ledger is the entry point for every mutation and derived read.
type Ledger struct {
	store   storage.Store
	clock   period.Clock
	prices  PriceLookup
	notify  Notifier
	metrics Metrics

	refreshConcurrency int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for "now" and "previous month".
func WithClock(c period.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithPrices sets the current-price lookup.
func WithPrices(p PriceLookup) Option {
	return func(l *Ledger) { l.prices = p }
}

// WithNotifier sets the post-commit event sink.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notify = n }
}

// WithMetrics sets the batch job recorder.
func WithMetrics(m Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithRefreshConcurrency bounds concurrent price lookups in RefreshPrices.
func WithRefreshConcurrency(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.refreshConcurrency = n
		}
	}
}

// New creates a Ledger over store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:              store,
		clock:              period.SystemClock,
		notify:             nopNotifier{},
		metrics:            nopMetrics{},
		refreshConcurrency: 4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// now returns the current time in UTC.
func (l *Ledger) now() time.Time {
	return l.clock().UTC()
}

// CurrentMonth is the calendar month containing now.
func (l *Ledger) CurrentMonth() period.Month {
	return period.Of(l.now())
}

func (l *Ledger) monthClosed(ctx context.Context, snap *models.MonthlySnapshot) {
	if err := l.notify.MonthClosed(ctx, snap); err != nil {
		slog.Warn("failed to publish month closed", "user_id", snap.UserID,
			"year", snap.Year, "month", snap.Month, "error", err)
	}
}

func (l *Ledger) holdingChanged(ctx context.Context, change HoldingChange) {
	if err := l.notify.HoldingChanged(ctx, change); err != nil {
		slog.Warn("failed to publish holding change", "user_id", change.UserID,
			"symbol", change.Symbol, "error", err)
	}
}

type nopNotifier struct{}

func (nopNotifier) MonthClosed(context.Context, *models.MonthlySnapshot) error { return nil }
func (nopNotifier) HoldingChanged(context.Context, HoldingChange) error { return nil }

type nopMetrics struct{}

func (nopMetrics) JobItems(string, string, int) {}
func (nopMetrics) JobDuration(string, time.Duration) {}
