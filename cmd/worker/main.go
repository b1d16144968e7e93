// Command worker runs the scheduled batch jobs: closing the previous month
// for every active user and refreshing holding prices.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/mmynk/fintrack/internal/app"
	"github.com/mmynk/fintrack/internal/config"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/pkg/logging"
)

func main() {
	once := flag.String("once", "", "run a single job and exit: close-month or refresh-prices")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := map[string]func(context.Context){
		"close-month":    func(ctx context.Context) { closeMonth(ctx, a.Ledger) },
		"refresh-prices": func(ctx context.Context) { refreshPrices(ctx, a.Ledger) },
	}

	if *once != "" {
		job, ok := jobs[*once]
		if !ok {
			slog.Error("Unknown job", "job", *once)
			os.Exit(2)
		}
		job(ctx)
		return
	}

	c := newScheduler()
	if _, err := c.AddFunc(cfg.CloseMonthSchedule, func() { jobs["close-month"](ctx) }); err != nil {
		slog.Error("Bad close-month schedule", "error", err)
		os.Exit(1)
	}
	if cfg.PricesEnabled() {
		if _, err := c.AddFunc(cfg.PriceRefreshSchedule, func() { jobs["refresh-prices"](ctx) }); err != nil {
			slog.Error("Bad price refresh schedule", "error", err)
			os.Exit(1)
		}
	}

	c.Start()
	slog.Info("Worker started",
		"close_month", cfg.CloseMonthSchedule,
		"refresh_prices", cfg.PriceRefreshSchedule,
		"prices_enabled", cfg.PricesEnabled(),
	)

	<-ctx.Done()
	slog.Info("Stopping worker, waiting for running jobs")
	<-c.Stop().Done()
}

// newScheduler runs schedules in UTC, the zone the ledger uses to decide
// which month is the previous one.
func newScheduler() *cron.Cron {
	return cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
}

// closeMonth and refreshPrices only report failures; the ledger logs the
// per-run summary.
func closeMonth(ctx context.Context, l *ledger.Ledger) {
	if month, _, err := l.ClosePreviousMonth(ctx); err != nil {
		slog.Error("Close-month job failed", "month", month.String(), "error", err)
	}
}

func refreshPrices(ctx context.Context, l *ledger.Ledger) {
	if _, err := l.RefreshPrices(ctx); err != nil {
		slog.Error("Price refresh failed", "error", err)
	}
}
