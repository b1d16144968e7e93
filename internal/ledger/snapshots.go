package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
	"github.com/mmynk/fintrack/internal/storage"
)

// Outcome is what a snapshot write did.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// BatchStats counts per-item outcomes of a batch job.
type BatchStats struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

func (s *BatchStats) record(o Outcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// loadInputs reads every source record the aggregation needs for month.
func loadInputs(ctx context.Context, r storage.Repo, userID string, month period.Month) (calculator.MonthInputs, error) {
	in := calculator.MonthInputs{Month: month}
	var err error

	if in.Salaries, err = r.ListSalaryRecords(ctx, userID); err != nil {
		return in, fmt.Errorf("failed to load salary: %w", err)
	}
	if in.Tax, err = r.FindTaxSetting(ctx, userID); err != nil {
		return in, fmt.Errorf("failed to load tax setting: %w", err)
	}
	if in.Loans, err = r.ListLoans(ctx, userID); err != nil {
		return in, fmt.Errorf("failed to load loans: %w", err)
	}
	if in.SIPs, err = r.ListSIPs(ctx, userID); err != nil {
		return in, fmt.Errorf("failed to load SIPs: %w", err)
	}
	if in.Expenses, err = r.ListExpenses(ctx, userID, month.Start(), month.LastDay()); err != nil {
		return in, fmt.Errorf("failed to load expenses: %w", err)
	}
	prev := month.Prev()
	if in.Previous, err = r.FindSnapshot(ctx, userID, prev.Year, int(prev.Month)); err != nil {
		return in, fmt.Errorf("failed to load previous snapshot: %w", err)
	}
	return in, nil
}

// Aggregate computes the financial position for month without storing it.
func (l *Ledger) Aggregate(ctx context.Context, userID string, month period.Month) (models.SnapshotFigures, error) {
	in, err := loadInputs(ctx, l.store, userID, month)
	if err != nil {
		return models.SnapshotFigures{}, err
	}
	return calculator.Aggregate(in), nil
}

// writeSnapshot recomputes the snapshot for month and upserts it. A closed
// snapshot is returned untouched with OutcomeSkipped.
func (l *Ledger) writeSnapshot(ctx context.Context, r storage.Repo, userID string, month period.Month, closing bool) (*models.MonthlySnapshot, Outcome, error) {
	existing, err := r.FindSnapshot(ctx, userID, month.Year, int(month.Month))
	if err != nil {
		return nil, OutcomeFailed, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if existing != nil && existing.IsClosed {
		return existing, OutcomeSkipped, nil
	}

	in, err := loadInputs(ctx, r, userID, month)
	if err != nil {
		return nil, OutcomeFailed, err
	}

	snap := &models.MonthlySnapshot{
		UserID:          userID,
		Year:            month.Year,
		Month:           int(month.Month),
		SnapshotFigures: calculator.Aggregate(in),
	}
	if closing {
		snap.IsClosed = true
		snap.ClosedAt = l.now().Unix()
	}
	if err := r.UpsertSnapshot(ctx, snap); err != nil {
		return nil, OutcomeFailed, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if existing != nil {
		return snap, OutcomeUpdated, nil
	}
	return snap, OutcomeCreated, nil
}

// CloseMonth freezes the snapshot for (userID, month). Closing an already
// closed month is a no-op reported as OutcomeSkipped.
func (l *Ledger) CloseMonth(ctx context.Context, userID string, month period.Month) (*models.MonthlySnapshot, Outcome, error) {
	var snap *models.MonthlySnapshot
	var outcome Outcome
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		var err error
		snap, outcome, err = l.writeSnapshot(ctx, r, userID, month, true)
		return err
	})
	if err != nil {
		return nil, OutcomeFailed, err
	}

	if outcome != OutcomeSkipped {
		slog.Info("Closed month", "user_id", userID, "year", month.Year, "month", int(month.Month),
			"surplus", snap.SurplusAmount, "outcome", outcome)
		l.monthClosed(ctx, snap)
	}
	return snap, outcome, nil
}

// RefreshSnapshot recomputes an open snapshot. A closed one is returned as is.
func (l *Ledger) RefreshSnapshot(ctx context.Context, userID string, month period.Month) (*models.MonthlySnapshot, error) {
	var snap *models.MonthlySnapshot
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		var err error
		snap, _, err = l.writeSnapshot(ctx, r, userID, month, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetSnapshot returns the stored snapshot for month, or nil.
func (l *Ledger) GetSnapshot(ctx context.Context, userID string, month period.Month) (*models.MonthlySnapshot, error) {
	return l.store.FindSnapshot(ctx, userID, month.Year, int(month.Month))
}

// ListSnapshots returns every stored snapshot, newest first.
func (l *Ledger) ListSnapshots(ctx context.Context, userID string) ([]*models.MonthlySnapshot, error) {
	return l.store.ListSnapshots(ctx, userID)
}

// CloseAll closes month for every active user. A failure for one user is
// logged and counted; the batch continues with the next.
func (l *Ledger) CloseAll(ctx context.Context, month period.Month) (BatchStats, error) {
	const job = "close_month"
	start := time.Now()

	var stats BatchStats
	userIDs, err := l.store.ListActiveUserIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list users: %w", err)
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		_, outcome, err := l.CloseMonth(ctx, userID, month)
		if err != nil {
			slog.Error("Failed to close month", "user_id", userID, "year", month.Year,
				"month", int(month.Month), "error", err)
			outcome = OutcomeFailed
		}
		stats.record(outcome)
	}

	l.recordBatch(job, stats, time.Since(start))
	slog.Info("Monthly closure finished", "year", month.Year, "month", int(month.Month),
		"created", stats.Created, "updated", stats.Updated, "skipped", stats.Skipped,
		"failed", stats.Failed, "duration_ms", time.Since(start).Milliseconds())
	return stats, nil
}

// ClosePreviousMonth closes the month before the current one for all users.
func (l *Ledger) ClosePreviousMonth(ctx context.Context) (period.Month, BatchStats, error) {
	month := l.CurrentMonth().Prev()
	stats, err := l.CloseAll(ctx, month)
	return month, stats, err
}

func (l *Ledger) recordBatch(job string, stats BatchStats, d time.Duration) {
	l.metrics.JobItems(job, string(OutcomeCreated), stats.Created)
	l.metrics.JobItems(job, string(OutcomeUpdated), stats.Updated)
	l.metrics.JobItems(job, string(OutcomeSkipped), stats.Skipped)
	l.metrics.JobItems(job, string(OutcomeFailed), stats.Failed)
	l.metrics.JobDuration(job, d)
}
