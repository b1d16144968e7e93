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

const (
	linkTransaction  = "TRANSACTION"
	linkSIPExecution = "SIP_EXECUTION"
)

const fundColumns = "id, user_id, member_id, lender_name, borrowed_amount, borrow_date, invested_amount, surplus_amount, created_at"

func scanFund(row scanner) (*models.BorrowedFund, error) {
	b := &models.BorrowedFund{}
	var memberID sql.NullString
	var date string
	if err := row.Scan(&b.ID, &b.UserID, &memberID, &b.LenderName, &b.BorrowedAmount, &date,
		&b.InvestedAmount, &b.SurplusAmount, &b.CreatedAt); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	b.BorrowDate = d
	b.MemberID = memberID.String
	return b, nil
}

// CreateBorrowedFund persists a borrowed fund and its transaction links.
func (r *repo) CreateBorrowedFund(ctx context.Context, b *models.BorrowedFund) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO borrowed_funds ("+fundColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.UserID, nullString(b.MemberID), b.LenderName, b.BorrowedAmount, formatDate(b.BorrowDate),
		b.InvestedAmount, b.SurplusAmount, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert borrowed fund: %w", err)
	}
	return r.writeLinks(ctx, b)
}

// writeLinks replaces a fund's link rows with its current ID lists.
func (r *repo) writeLinks(ctx context.Context, b *models.BorrowedFund) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM borrowed_fund_links WHERE fund_id = ?", b.ID); err != nil {
		return fmt.Errorf("failed to clear borrowed fund links: %w", err)
	}

	insert := func(kind string, ids []string) error {
		for _, id := range ids {
			_, err := r.q.ExecContext(ctx,
				"INSERT OR IGNORE INTO borrowed_fund_links (fund_id, transaction_id, kind) VALUES (?, ?, ?)",
				b.ID, id, kind,
			)
			if err != nil {
				return fmt.Errorf("failed to insert borrowed fund link: %w", err)
			}
		}
		return nil
	}
	if err := insert(linkTransaction, b.TransactionIDs); err != nil {
		return err
	}
	return insert(linkSIPExecution, b.SIPExecutionIDs)
}

// loadLinks fills the ID lists of the given funds.
func (r *repo) loadLinks(ctx context.Context, funds ...*models.BorrowedFund) error {
	if len(funds) == 0 {
		return nil
	}

	byID := make(map[string]*models.BorrowedFund, len(funds))
	args := make([]any, 0, len(funds))
	for _, f := range funds {
		byID[f.ID] = f
		args = append(args, f.ID)
	}

	rows, err := r.q.QueryContext(ctx,
		"SELECT fund_id, transaction_id, kind FROM borrowed_fund_links WHERE fund_id IN (?"+
			repeatPlaceholder(len(funds)-1)+") ORDER BY fund_id, rowid",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to load borrowed fund links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fundID, txID, kind string
		if err := rows.Scan(&fundID, &txID, &kind); err != nil {
			return fmt.Errorf("failed to scan borrowed fund link: %w", err)
		}
		f := byID[fundID]
		if kind == linkSIPExecution {
			f.SIPExecutionIDs = append(f.SIPExecutionIDs, txID)
		} else {
			f.TransactionIDs = append(f.TransactionIDs, txID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate borrowed fund links: %w", err)
	}
	return nil
}

// GetBorrowedFund retrieves a borrowed fund owned by userID, with its links.
func (r *repo) GetBorrowedFund(ctx context.Context, userID, id string) (*models.BorrowedFund, error) {
	b, err := scanFund(r.q.QueryRowContext(ctx,
		"SELECT "+fundColumns+" FROM borrowed_funds WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("borrowed fund", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get borrowed fund: %w", err)
	}
	if err := r.loadLinks(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBorrowedFund overwrites a borrowed fund and replaces its links.
func (r *repo) UpdateBorrowedFund(ctx context.Context, b *models.BorrowedFund) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE borrowed_funds SET member_id = ?, lender_name = ?, borrowed_amount = ?, borrow_date = ?,
			invested_amount = ?, surplus_amount = ?
		 WHERE id = ? AND user_id = ?`,
		nullString(b.MemberID), b.LenderName, b.BorrowedAmount, formatDate(b.BorrowDate),
		b.InvestedAmount, b.SurplusAmount, b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update borrowed fund: %w", err)
	}
	if err := checkAffected(res, apperr.NotFound("borrowed fund", b.ID)); err != nil {
		return err
	}
	return r.writeLinks(ctx, b)
}

// DeleteBorrowedFund removes a borrowed fund; links cascade.
func (r *repo) DeleteBorrowedFund(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM borrowed_funds WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete borrowed fund: %w", err)
	}
	return checkAffected(res, apperr.NotFound("borrowed fund", id))
}

// ListBorrowedFunds returns a user's borrowed funds, newest first.
func (r *repo) ListBorrowedFunds(ctx context.Context, userID string) ([]*models.BorrowedFund, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+fundColumns+" FROM borrowed_funds WHERE user_id = ? ORDER BY borrow_date DESC, created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowed funds: %w", err)
	}
	funds, err := collectFunds(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadLinks(ctx, funds...); err != nil {
		return nil, err
	}
	return funds, nil
}

// ListBorrowedFundsByTransaction returns the funds that link a transaction.
func (r *repo) ListBorrowedFundsByTransaction(ctx context.Context, transactionID string) ([]*models.BorrowedFund, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+fundColumns+` FROM borrowed_funds
		 WHERE id IN (SELECT fund_id FROM borrowed_fund_links WHERE transaction_id = ?)
		 ORDER BY created_at`,
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowed funds by transaction: %w", err)
	}
	funds, err := collectFunds(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadLinks(ctx, funds...); err != nil {
		return nil, err
	}
	return funds, nil
}

func collectFunds(rows *sql.Rows) ([]*models.BorrowedFund, error) {
	defer rows.Close()

	var funds []*models.BorrowedFund
	for rows.Next() {
		b, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrowed fund: %w", err)
		}
		funds = append(funds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate borrowed funds: %w", err)
	}
	return funds, nil
}
