package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
	"github.com/mmynk/fintrack/internal/storage"
)

// bucketHeadroom computes live headroom for bucket in month. A bucket with
// no allocation row is NotFound.
func bucketHeadroom(ctx context.Context, r storage.Repo, userID string, bucket models.InvestmentBucket, month period.Month) (calculator.Headroom, error) {
	if !bucket.Valid() {
		return calculator.Headroom{}, apperr.Invalid("bucket", "unknown bucket %q", bucket)
	}

	alloc, err := r.FindAllocation(ctx, userID, bucket)
	if err != nil {
		return calculator.Headroom{}, err
	}
	if alloc == nil {
		return calculator.Headroom{}, apperr.NotFound("allocation", string(bucket))
	}

	in := calculator.HeadroomInputs{Month: month, Allocation: *alloc}
	if in.Salaries, err = r.ListSalaryRecords(ctx, userID); err != nil {
		return calculator.Headroom{}, fmt.Errorf("failed to load salary: %w", err)
	}
	if in.Tax, err = r.FindTaxSetting(ctx, userID); err != nil {
		return calculator.Headroom{}, fmt.Errorf("failed to load tax setting: %w", err)
	}
	if in.Loans, err = r.ListLoans(ctx, userID); err != nil {
		return calculator.Headroom{}, fmt.Errorf("failed to load loans: %w", err)
	}
	if in.SIPs, err = r.ListSIPs(ctx, userID); err != nil {
		return calculator.Headroom{}, fmt.Errorf("failed to load SIPs: %w", err)
	}
	if in.Purchased, err = r.SumOneTimePurchases(ctx, userID, bucket, month.Start(), month.LastDay()); err != nil {
		return calculator.Headroom{}, fmt.Errorf("failed to sum purchases: %w", err)
	}

	return calculator.BucketHeadroom(in), nil
}

// GetAvailability reports how much more can go into bucket this month.
func (l *Ledger) GetAvailability(ctx context.Context, userID string, bucket models.InvestmentBucket) (calculator.Headroom, error) {
	return bucketHeadroom(ctx, l.store, userID, bucket, l.CurrentMonth())
}

// ListAllocations returns the user's allocation set.
func (l *Ledger) ListAllocations(ctx context.Context, userID string) ([]models.InvestmentAllocation, error) {
	return l.store.ListAllocations(ctx, userID)
}

// ReplaceAllocations swaps the user's whole allocation set. Buckets must be
// unique and percentages may not exceed 100 in total.
func (l *Ledger) ReplaceAllocations(ctx context.Context, userID string, allocs []models.InvestmentAllocation) ([]models.InvestmentAllocation, error) {
	seen := make(map[models.InvestmentBucket]bool, len(allocs))
	for i := range allocs {
		a := &allocs[i]
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if seen[a.Bucket] {
			return nil, apperr.Invalid("bucket", "%s allocated more than once", a.Bucket)
		}
		seen[a.Bucket] = true
		a.UserID = userID
		a.ID = ""
	}
	if total := calculator.PercentTotal(allocs); total > 100+1e-9 {
		return nil, apperr.Invalid("percent", "allocations total %.2f%%, more than 100%%", total)
	}

	err := l.store.InTx(ctx, func(r storage.Repo) error {
		if err := r.DeleteAllocations(ctx, userID); err != nil {
			return err
		}
		for i := range allocs {
			if err := r.CreateAllocation(ctx, &allocs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Replaced allocations", "user_id", userID, "count", len(allocs))
	return allocs, nil
}
