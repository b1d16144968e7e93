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

const snapshotColumns = `id, user_id, year, month,
	net_salary, tax_amount, after_tax, total_loans, total_sips, total_expenses,
	expected_expenses, unexpected_expenses, needs_expenses, avoid_expenses,
	available_amount, spent_amount, surplus_amount, previous_surplus,
	is_closed, closed_at, created_at, updated_at`

func scanSnapshot(row scanner) (*models.MonthlySnapshot, error) {
	s := &models.MonthlySnapshot{}
	var closed int
	err := row.Scan(&s.ID, &s.UserID, &s.Year, &s.Month,
		&s.NetSalary, &s.TaxAmount, &s.AfterTax, &s.TotalLoans, &s.TotalSIPs, &s.TotalExpenses,
		&s.ExpectedExpenses, &s.UnexpectedExpenses, &s.NeedsExpenses, &s.AvoidExpenses,
		&s.AvailableAmount, &s.SpentAmount, &s.SurplusAmount, &s.PreviousSurplus,
		&closed, &s.ClosedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.IsClosed = closed == 1
	return s, nil
}

// FindSnapshot returns the snapshot for (userID, year, month), or nil.
func (r *repo) FindSnapshot(ctx context.Context, userID string, year, month int) (*models.MonthlySnapshot, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM monthly_snapshots WHERE user_id = ? AND year = ? AND month = ?",
		userID, year, month,
	)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return s, nil
}

// UpsertSnapshot creates or updates the snapshot keyed by (user, year, month).
func (r *repo) UpsertSnapshot(ctx context.Context, s *models.MonthlySnapshot) error {
	now := time.Now().Unix()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO monthly_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, year, month) DO UPDATE SET
			net_salary = excluded.net_salary,
			tax_amount = excluded.tax_amount,
			after_tax = excluded.after_tax,
			total_loans = excluded.total_loans,
			total_sips = excluded.total_sips,
			total_expenses = excluded.total_expenses,
			expected_expenses = excluded.expected_expenses,
			unexpected_expenses = excluded.unexpected_expenses,
			needs_expenses = excluded.needs_expenses,
			avoid_expenses = excluded.avoid_expenses,
			available_amount = excluded.available_amount,
			spent_amount = excluded.spent_amount,
			surplus_amount = excluded.surplus_amount,
			previous_surplus = excluded.previous_surplus,
			is_closed = excluded.is_closed,
			closed_at = excluded.closed_at,
			updated_at = excluded.updated_at`,
		s.ID, s.UserID, s.Year, s.Month,
		s.NetSalary, s.TaxAmount, s.AfterTax, s.TotalLoans, s.TotalSIPs, s.TotalExpenses,
		s.ExpectedExpenses, s.UnexpectedExpenses, s.NeedsExpenses, s.AvoidExpenses,
		s.AvailableAmount, s.SpentAmount, s.SurplusAmount, s.PreviousSurplus,
		boolInt(s.IsClosed), s.ClosedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	// Reflect the stored identity when the row already existed.
	err = r.q.QueryRowContext(ctx,
		"SELECT id, created_at FROM monthly_snapshots WHERE user_id = ? AND year = ? AND month = ?",
		s.UserID, s.Year, s.Month,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read back snapshot: %w", err)
	}

	return nil
}

// ListSnapshots returns a user's snapshots, newest first.
func (r *repo) ListSnapshots(ctx context.Context, userID string) ([]*models.MonthlySnapshot, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+snapshotColumns+" FROM monthly_snapshots WHERE user_id = ? ORDER BY year DESC, month DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*models.MonthlySnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snaps, nil
}
