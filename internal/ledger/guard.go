package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/period"
	"github.com/mmynk/fintrack/internal/storage"
)

// checkOpen fails with ClosedPeriodError when the month containing date has
// a closed snapshot.
func checkOpen(ctx context.Context, r storage.Repo, userID string, date time.Time, action string) error {
	m := period.Of(date)
	snap, err := r.FindSnapshot(ctx, userID, m.Year, int(m.Month))
	if err != nil {
		return fmt.Errorf("failed to check period: %w", err)
	}
	if snap != nil && snap.IsClosed {
		return &apperr.ClosedPeriodError{Action: action, Year: m.Year, Month: int(m.Month)}
	}
	return nil
}

// checkMove requires both the old and the new month to be open.
func checkMove(ctx context.Context, r storage.Repo, userID string, from, to time.Time, action string) error {
	if err := checkOpen(ctx, r, userID, from, action); err != nil {
		return err
	}
	if period.Of(from) == period.Of(to) {
		return nil
	}
	return checkOpen(ctx, r, userID, to, action)
}
