// Package app assembles the ledger and its collaborators from a Config.
package app

import (
	"fmt"
	"log/slog"

	"github.com/mmynk/fintrack/internal/config"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/prices"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
)

// App holds the wired components shared by the server and worker.
type App struct {
	Store     *sqlite.SQLiteStore
	Ledger    *ledger.Ledger
	Metrics   *metrics.Registry
	publisher *events.Publisher
}

// New opens storage and connects the optional price and event backends.
// Event publishing failures at startup are logged and publishing is skipped.
func New(cfg *config.Config) (*App, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	a := &App{Store: store, Metrics: metrics.New()}
	opts := []ledger.Option{
		ledger.WithMetrics(a.Metrics),
		ledger.WithRefreshConcurrency(cfg.PriceRefreshConcurrency),
	}

	if cfg.PricesEnabled() {
		lookup := prices.NewLookup(
			prices.NewQuoteClient(cfg.QuoteAPIURL, nil),
			prices.NewECBClient(cfg.FXRatesURL, nil),
			cfg.PriceCacheSize,
			cfg.PriceCacheTTL,
		)
		opts = append(opts, ledger.WithPrices(lookup))
		slog.Info("Price lookup enabled", "quotes", cfg.QuoteAPIURL, "fx", cfg.FXRatesURL)
	} else {
		slog.Warn("QUOTE_API_URL not set, price lookups disabled")
	}

	if cfg.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Event publisher unavailable, continuing without events", "error", err)
		} else {
			a.publisher = pub
			opts = append(opts, ledger.WithNotifier(pub))
			slog.Info("Event publishing enabled", "exchange", cfg.AMQPExchange)
		}
	}

	a.Ledger = ledger.New(store, opts...)
	return a, nil
}

// Close releases the publisher and the database.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("Failed to close publisher", "error", err)
		}
	}
	if err := a.Store.Close(); err != nil {
		slog.Warn("Failed to close storage", "error", err)
	}
}
