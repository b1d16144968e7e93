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

// CreateUser inserts a new user into the database.
func (r *repo) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO users (id, name, email, active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		boolInt(user.Active),
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by their ID.
func (r *repo) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, email, active, created_at
		FROM users
		WHERE id = ?
	`

	user := &models.User{}
	var active int
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&active,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Active = active == 1

	return user, nil
}

// ListActiveUserIDs returns the IDs batch jobs iterate over.
func (r *repo) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id FROM users WHERE active = 1 ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return ids, nil
}
