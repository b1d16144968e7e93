package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
)

// CreateIncome persists a new income record.
func (r *repo) CreateIncome(ctx context.Context, income *models.Income) error {
	if income.ID == "" {
		income.ID = uuid.New().String()
	}
	if income.CreatedAt == 0 {
		income.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO incomes (id, user_id, date, amount, source, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		income.ID, income.UserID, formatDate(income.Date), income.Amount,
		income.Source, nullString(income.Description), income.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert income: %w", err)
	}
	return nil
}

func scanIncome(row scanner) (*models.Income, error) {
	income := &models.Income{}
	var date string
	var desc sql.NullString
	if err := row.Scan(&income.ID, &income.UserID, &date, &income.Amount,
		&income.Source, &desc, &income.CreatedAt); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	income.Date = d
	income.Description = desc.String
	return income, nil
}

// GetIncome retrieves an income record owned by userID.
func (r *repo) GetIncome(ctx context.Context, userID, id string) (*models.Income, error) {
	income, err := scanIncome(r.q.QueryRowContext(ctx,
		`SELECT id, user_id, date, amount, source, description, created_at
		 FROM incomes WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("income", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get income: %w", err)
	}
	return income, nil
}

// UpdateIncome overwrites an income record.
func (r *repo) UpdateIncome(ctx context.Context, income *models.Income) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE incomes SET date = ?, amount = ?, source = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		formatDate(income.Date), income.Amount, income.Source, nullString(income.Description),
		income.ID, income.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update income: %w", err)
	}
	return checkAffected(res, apperr.NotFound("income", income.ID))
}

// DeleteIncome removes an income record.
func (r *repo) DeleteIncome(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM incomes WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}
	return checkAffected(res, apperr.NotFound("income", id))
}

// ListIncomes returns income dated within [from, to], oldest first.
func (r *repo) ListIncomes(ctx context.Context, userID string, from, to time.Time) ([]*models.Income, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, date, amount, source, description, created_at
		 FROM incomes WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date, created_at`,
		userID, formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []*models.Income
	for rows.Next() {
		income, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		incomes = append(incomes, income)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incomes: %w", err)
	}
	return incomes, nil
}
