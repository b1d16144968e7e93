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

const expenseColumns = `id, user_id, date, amount, description, type, category,
	needs_portion, avoid_portion, member_id, member_direction, created_at`

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var date string
	var desc, memberID, direction sql.NullString
	var needs, avoid sql.NullFloat64
	if err := row.Scan(&e.ID, &e.UserID, &date, &e.Amount, &desc, &e.Type, &e.Category,
		&needs, &avoid, &memberID, &direction, &e.CreatedAt); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	e.Date = d
	e.Description = desc.String
	e.NeedsPortion = floatPtr(needs)
	e.AvoidPortion = floatPtr(avoid)
	e.MemberID = memberID.String
	e.MemberDirection = models.MemberDirection(direction.String)
	return e, nil
}

// CreateExpense persists a new expense.
func (r *repo) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, formatDate(e.Date), e.Amount, nullString(e.Description),
		string(e.Type), string(e.Category), nullFloat(e.NeedsPortion), nullFloat(e.AvoidPortion),
		nullString(e.MemberID), nullString(string(e.MemberDirection)), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense owned by userID.
func (r *repo) GetExpense(ctx context.Context, userID, id string) (*models.Expense, error) {
	e, err := scanExpense(r.q.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("expense", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense overwrites an expense.
func (r *repo) UpdateExpense(ctx context.Context, e *models.Expense) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE expenses SET date = ?, amount = ?, description = ?, type = ?, category = ?,
			needs_portion = ?, avoid_portion = ?, member_id = ?, member_direction = ?
		 WHERE id = ? AND user_id = ?`,
		formatDate(e.Date), e.Amount, nullString(e.Description), string(e.Type), string(e.Category),
		nullFloat(e.NeedsPortion), nullFloat(e.AvoidPortion),
		nullString(e.MemberID), nullString(string(e.MemberDirection)),
		e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return checkAffected(res, apperr.NotFound("expense", e.ID))
}

// DeleteExpense removes an expense.
func (r *repo) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(res, apperr.NotFound("expense", id))
}

// ListExpenses returns expenses dated within [from, to], oldest first.
func (r *repo) ListExpenses(ctx context.Context, userID string, from, to time.Time) ([]models.Expense, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date, created_at",
		userID, formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
