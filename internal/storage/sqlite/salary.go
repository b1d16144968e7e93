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

func scanSalary(row scanner) (*models.SalaryRecord, error) {
	rec := &models.SalaryRecord{}
	var from string
	var to sql.NullString
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Amount, &from, &to, &rec.CreatedAt); err != nil {
		return nil, err
	}
	f, err := parseDate(from)
	if err != nil {
		return nil, err
	}
	rec.EffectiveFrom = f
	if rec.EffectiveTo, err = scanNullDate(to); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListSalaryRecords returns a user's salary history, newest first.
func (r *repo) ListSalaryRecords(ctx context.Context, userID string) ([]models.SalaryRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, amount, effective_from, effective_to, created_at
		 FROM salary_records WHERE user_id = ? ORDER BY effective_from DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary records: %w", err)
	}
	defer rows.Close()

	var records []models.SalaryRecord
	for rows.Next() {
		rec, err := scanSalary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary records: %w", err)
	}
	return records, nil
}

// FindCurrentSalary returns the record with no EffectiveTo, or nil.
func (r *repo) FindCurrentSalary(ctx context.Context, userID string) (*models.SalaryRecord, error) {
	rec, err := scanSalary(r.q.QueryRowContext(ctx,
		`SELECT id, user_id, amount, effective_from, effective_to, created_at
		 FROM salary_records WHERE user_id = ? AND effective_to IS NULL
		 ORDER BY effective_from DESC LIMIT 1`,
		userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current salary: %w", err)
	}
	return rec, nil
}

// CreateSalaryRecord inserts a salary record.
func (r *repo) CreateSalaryRecord(ctx context.Context, rec *models.SalaryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO salary_records (id, user_id, amount, effective_from, effective_to, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Amount, formatDate(rec.EffectiveFrom), nullDate(rec.EffectiveTo), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert salary record: %w", err)
	}
	return nil
}

// SetSalaryEffectiveTo closes a salary record.
func (r *repo) SetSalaryEffectiveTo(ctx context.Context, userID, id string, to time.Time) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE salary_records SET effective_to = ? WHERE id = ? AND user_id = ?",
		formatDate(to), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to close salary record: %w", err)
	}
	return checkAffected(res, apperr.NotFound("salary record", id))
}

// FindTaxSetting returns the user's tax setting, or nil.
func (r *repo) FindTaxSetting(ctx context.Context, userID string) (*models.TaxSetting, error) {
	t := &models.TaxSetting{}
	var pct, fixed sql.NullFloat64
	err := r.q.QueryRowContext(ctx,
		"SELECT user_id, mode, percentage, fixed_amount, updated_at FROM tax_settings WHERE user_id = ?",
		userID,
	).Scan(&t.UserID, &t.Mode, &pct, &fixed, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax setting: %w", err)
	}
	t.Percentage = floatPtr(pct)
	t.FixedAmount = floatPtr(fixed)
	return t, nil
}

// SaveTaxSetting replaces the user's tax setting.
func (r *repo) SaveTaxSetting(ctx context.Context, t *models.TaxSetting) error {
	t.UpdatedAt = time.Now().Unix()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tax_settings (user_id, mode, percentage, fixed_amount, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			mode = excluded.mode,
			percentage = excluded.percentage,
			fixed_amount = excluded.fixed_amount,
			updated_at = excluded.updated_at`,
		t.UserID, string(t.Mode), nullFloat(t.Percentage), nullFloat(t.FixedAmount), t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save tax setting: %w", err)
	}
	return nil
}
