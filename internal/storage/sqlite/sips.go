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

const sipColumns = "id, user_id, bucket, symbol, name, amount, frequency, custom_day, start_date, end_date, is_active, created_at"

func scanSIP(row scanner) (*models.SIP, error) {
	s := &models.SIP{}
	var name sql.NullString
	var customDay sql.NullInt64
	var start string
	var end sql.NullString
	var active int
	if err := row.Scan(&s.ID, &s.UserID, &s.Bucket, &s.Symbol, &name, &s.Amount, &s.Frequency,
		&customDay, &start, &end, &active, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Name = name.String
	if customDay.Valid {
		d := int(customDay.Int64)
		s.CustomDay = &d
	}
	var err error
	if s.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if s.EndDate, err = scanNullDate(end); err != nil {
		return nil, err
	}
	s.IsActive = active == 1
	return s, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// CreateSIP persists a new SIP.
func (r *repo) CreateSIP(ctx context.Context, s *models.SIP) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO sips ("+sipColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.ID, s.UserID, string(s.Bucket), s.Symbol, nullString(s.Name), s.Amount, string(s.Frequency),
		nullInt(s.CustomDay), formatDate(s.StartDate), nullDate(s.EndDate), boolInt(s.IsActive), s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert SIP: %w", err)
	}
	return nil
}

// GetSIP retrieves a SIP owned by userID.
func (r *repo) GetSIP(ctx context.Context, userID, id string) (*models.SIP, error) {
	s, err := scanSIP(r.q.QueryRowContext(ctx,
		"SELECT "+sipColumns+" FROM sips WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("SIP", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get SIP: %w", err)
	}
	return s, nil
}

// UpdateSIP overwrites a SIP.
func (r *repo) UpdateSIP(ctx context.Context, s *models.SIP) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sips SET bucket = ?, symbol = ?, name = ?, amount = ?, frequency = ?, custom_day = ?,
			start_date = ?, end_date = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`,
		string(s.Bucket), s.Symbol, nullString(s.Name), s.Amount, string(s.Frequency), nullInt(s.CustomDay),
		formatDate(s.StartDate), nullDate(s.EndDate), boolInt(s.IsActive), s.ID, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update SIP: %w", err)
	}
	return checkAffected(res, apperr.NotFound("SIP", s.ID))
}

// ListSIPs returns all of a user's SIPs, active or not.
func (r *repo) ListSIPs(ctx context.Context, userID string) ([]models.SIP, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+sipColumns+" FROM sips WHERE user_id = ? ORDER BY start_date, created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list SIPs: %w", err)
	}
	defer rows.Close()

	var sips []models.SIP
	for rows.Next() {
		s, err := scanSIP(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan SIP: %w", err)
		}
		sips = append(sips, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate SIPs: %w", err)
	}
	return sips, nil
}
