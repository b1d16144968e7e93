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

const holdingColumns = `id, user_id, bucket, symbol, name, qty, avg_cost, current_price, currency,
	usd_inr_rate, is_manual, price_updated_at, created_at, updated_at`

func scanHolding(row scanner) (*models.Holding, error) {
	h := &models.Holding{}
	var name sql.NullString
	var price, rate sql.NullFloat64
	var manual int
	if err := row.Scan(&h.ID, &h.UserID, &h.Bucket, &h.Symbol, &name, &h.Qty, &h.AvgCost, &price,
		&h.Currency, &rate, &manual, &h.PriceUpdatedAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.Name = name.String
	h.CurrentPrice = floatPtr(price)
	h.USDINRRate = floatPtr(rate)
	h.IsManual = manual == 1
	return h, nil
}

// FindHolding returns the holding for (user, bucket, symbol), or nil.
// The symbol column collates NOCASE.
func (r *repo) FindHolding(ctx context.Context, userID string, bucket models.InvestmentBucket, symbol string) (*models.Holding, error) {
	h, err := scanHolding(r.q.QueryRowContext(ctx,
		"SELECT "+holdingColumns+" FROM holdings WHERE user_id = ? AND bucket = ? AND symbol = ?",
		userID, string(bucket), models.NormalizeSymbol(symbol),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find holding: %w", err)
	}
	return h, nil
}

// GetHolding retrieves a holding owned by userID.
func (r *repo) GetHolding(ctx context.Context, userID, id string) (*models.Holding, error) {
	h, err := scanHolding(r.q.QueryRowContext(ctx,
		"SELECT "+holdingColumns+" FROM holdings WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("holding", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// CreateHolding persists a new holding.
func (r *repo) CreateHolding(ctx context.Context, h *models.Holding) error {
	now := time.Now().Unix()
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt == 0 {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	h.Symbol = models.NormalizeSymbol(h.Symbol)

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO holdings ("+holdingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		h.ID, h.UserID, string(h.Bucket), h.Symbol, nullString(h.Name), h.Qty, h.AvgCost,
		nullFloat(h.CurrentPrice), h.Currency, nullFloat(h.USDINRRate), boolInt(h.IsManual),
		h.PriceUpdatedAt, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// UpdateHolding writes the cost basis and descriptive fields of a holding.
func (r *repo) UpdateHolding(ctx context.Context, h *models.Holding) error {
	h.UpdatedAt = time.Now().Unix()
	res, err := r.q.ExecContext(ctx,
		`UPDATE holdings SET name = ?, qty = ?, avg_cost = ?, currency = ?, usd_inr_rate = ?,
			is_manual = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		nullString(h.Name), h.Qty, h.AvgCost, h.Currency, nullFloat(h.USDINRRate),
		boolInt(h.IsManual), h.UpdatedAt, h.ID, h.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return checkAffected(res, apperr.NotFound("holding", h.ID))
}

// DeleteHolding removes a holding.
func (r *repo) DeleteHolding(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM holdings WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return checkAffected(res, apperr.NotFound("holding", id))
}

// ListHoldings returns a user's holdings grouped by bucket.
func (r *repo) ListHoldings(ctx context.Context, userID string) ([]*models.Holding, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+holdingColumns+" FROM holdings WHERE user_id = ? ORDER BY bucket, symbol", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}

// UpdateHoldingPrice records a looked-up market price.
func (r *repo) UpdateHoldingPrice(ctx context.Context, id string, price float64, at int64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE holdings SET current_price = ?, price_updated_at = ? WHERE id = ?", price, at, id)
	if err != nil {
		return fmt.Errorf("failed to update holding price: %w", err)
	}
	return checkAffected(res, apperr.NotFound("holding", id))
}
