package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
)

func scanAllocation(row scanner) (*models.InvestmentAllocation, error) {
	a := &models.InvestmentAllocation{}
	var pct, amount sql.NullFloat64
	if err := row.Scan(&a.ID, &a.UserID, &a.Bucket, &a.Type, &pct, &amount); err != nil {
		return nil, err
	}
	a.Percent = floatPtr(pct)
	a.CustomAmount = floatPtr(amount)
	return a, nil
}

// ListAllocations returns a user's allocations by bucket.
func (r *repo) ListAllocations(ctx context.Context, userID string) ([]models.InvestmentAllocation, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, user_id, bucket, type, percent, custom_amount FROM investment_allocations WHERE user_id = ? ORDER BY bucket",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	var allocs []models.InvestmentAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocs = append(allocs, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocations: %w", err)
	}
	return allocs, nil
}

// FindAllocation returns the user's allocation for bucket, or nil.
func (r *repo) FindAllocation(ctx context.Context, userID string, bucket models.InvestmentBucket) (*models.InvestmentAllocation, error) {
	a, err := scanAllocation(r.q.QueryRowContext(ctx,
		"SELECT id, user_id, bucket, type, percent, custom_amount FROM investment_allocations WHERE user_id = ? AND bucket = ?",
		userID, string(bucket),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return a, nil
}

// DeleteAllocations removes every allocation the user has.
func (r *repo) DeleteAllocations(ctx context.Context, userID string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM investment_allocations WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete allocations: %w", err)
	}
	return nil
}

// CreateAllocation inserts one allocation row.
func (r *repo) CreateAllocation(ctx context.Context, a *models.InvestmentAllocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO investment_allocations (id, user_id, bucket, type, percent, custom_amount) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.UserID, string(a.Bucket), string(a.Type), nullFloat(a.Percent), nullFloat(a.CustomAmount),
	)
	if err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

// CreateOneTimePurchase records a purchase against a bucket's allocation.
func (r *repo) CreateOneTimePurchase(ctx context.Context, p *models.OneTimePurchase) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO one_time_purchases (id, user_id, bucket, symbol, amount, date, transaction_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, string(p.Bucket), p.Symbol, p.Amount, formatDate(p.Date),
		nullString(p.TransactionID), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert one-time purchase: %w", err)
	}
	return nil
}

// SumOneTimePurchases totals purchases in bucket dated within [from, to].
func (r *repo) SumOneTimePurchases(ctx context.Context, userID string, bucket models.InvestmentBucket, from, to time.Time) (float64, error) {
	var total float64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM one_time_purchases
		 WHERE user_id = ? AND bucket = ? AND date >= ? AND date <= ?`,
		userID, string(bucket), formatDate(from), formatDate(to),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum one-time purchases: %w", err)
	}
	return total, nil
}

// DeleteOneTimePurchaseByTransaction drops the purchase a transaction recorded.
func (r *repo) DeleteOneTimePurchaseByTransaction(ctx context.Context, transactionID string) error {
	if _, err := r.q.ExecContext(ctx,
		"DELETE FROM one_time_purchases WHERE transaction_id = ?", transactionID); err != nil {
		return fmt.Errorf("failed to delete one-time purchase: %w", err)
	}
	return nil
}

// UpdateOneTimePurchaseByTransaction keeps a purchase in step with an edited transaction.
func (r *repo) UpdateOneTimePurchaseByTransaction(ctx context.Context, transactionID string, amount float64, date time.Time) error {
	if _, err := r.q.ExecContext(ctx,
		"UPDATE one_time_purchases SET amount = ?, date = ? WHERE transaction_id = ?",
		amount, formatDate(date), transactionID); err != nil {
		return fmt.Errorf("failed to update one-time purchase: %w", err)
	}
	return nil
}
