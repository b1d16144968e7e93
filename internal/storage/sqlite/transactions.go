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

const transactionColumns = `id, user_id, holding_id, bucket, symbol, qty, price, amount, currency,
	amount_inr, usd_inr_rate, type, purchase_date, sip_id, created_at`

func scanTransaction(row scanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var holdingID, sipID sql.NullString
	var amountINR, rate sql.NullFloat64
	var date string
	if err := row.Scan(&t.ID, &t.UserID, &holdingID, &t.Bucket, &t.Symbol, &t.Qty, &t.Price, &t.Amount,
		&t.Currency, &amountINR, &rate, &t.Type, &date, &sipID, &t.CreatedAt); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	t.PurchaseDate = d
	t.HoldingID = holdingID.String
	t.SIPID = sipID.String
	t.AmountINR = floatPtr(amountINR)
	t.USDINRRate = floatPtr(rate)
	return t, nil
}

// CreateTransaction appends a ledger entry.
func (r *repo) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, nullString(t.HoldingID), string(t.Bucket), t.Symbol, t.Qty, t.Price, t.Amount,
		t.Currency, nullFloat(t.AmountINR), nullFloat(t.USDINRRate), string(t.Type),
		formatDate(t.PurchaseDate), nullString(t.SIPID), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction owned by userID.
func (r *repo) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction overwrites the editable fields of a transaction.
func (r *repo) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE transactions SET holding_id = ?, qty = ?, price = ?, amount = ?, currency = ?,
			amount_inr = ?, usd_inr_rate = ?, type = ?, purchase_date = ?
		 WHERE id = ? AND user_id = ?`,
		nullString(t.HoldingID), t.Qty, t.Price, t.Amount, t.Currency,
		nullFloat(t.AmountINR), nullFloat(t.USDINRRate), string(t.Type), formatDate(t.PurchaseDate),
		t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return checkAffected(res, apperr.NotFound("transaction", t.ID))
}

// DeleteTransaction removes a transaction.
func (r *repo) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return checkAffected(res, apperr.NotFound("transaction", id))
}

// ListTransactions returns a user's transactions, newest purchase first.
func (r *repo) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? ORDER BY purchase_date DESC, created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return collectTransactions(rows)
}

// GetTransactionsByIDs retrieves multiple transactions by their IDs.
// Returns a map of transaction ID to Transaction.
// Transactions that don't exist or belong to another user are omitted.
func (r *repo) GetTransactionsByIDs(ctx context.Context, userID string, ids []string) (map[string]*models.Transaction, error) {
	result := make(map[string]*models.Transaction)
	if len(ids) == 0 {
		return result, nil
	}

	// Build the IN clause with placeholders
	query := "SELECT " + transactionColumns + " FROM transactions WHERE user_id = ? AND id IN (?" +
		repeatPlaceholder(len(ids)-1) + ")"

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by IDs: %w", err)
	}
	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		result[t.ID] = t
	}
	return result, nil
}

func collectTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}
