package ledger

import (
	"context"
	"slices"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// recomputeFund derives InvestedAmount and SurplusAmount from the fund's
// linked transactions. Links to missing transactions count as zero.
func recomputeFund(ctx context.Context, r storage.Repo, fund *models.BorrowedFund) error {
	txs, err := r.GetTransactionsByIDs(ctx, fund.UserID, fund.LinkedIDs())
	if err != nil {
		return err
	}
	var invested float64
	for _, t := range txs {
		invested += t.InvestedINR()
	}
	fund.InvestedAmount = invested
	fund.SurplusAmount = fund.BorrowedAmount - invested
	return nil
}

// refreshLinkedFunds recomputes every fund that links transactionID,
// dropping the link first when unlink is set. A fund borrowed in a closed
// month fails the whole change.
func refreshLinkedFunds(ctx context.Context, r storage.Repo, userID, transactionID string, unlink bool) error {
	funds, err := r.ListBorrowedFundsByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	for _, fund := range funds {
		if fund.UserID != userID {
			continue
		}
		if err := checkOpen(ctx, r, userID, fund.BorrowDate, "update borrowed fund"); err != nil {
			return err
		}
		if unlink {
			fund.TransactionIDs = slices.DeleteFunc(fund.TransactionIDs, func(id string) bool { return id == transactionID })
			fund.SIPExecutionIDs = slices.DeleteFunc(fund.SIPExecutionIDs, func(id string) bool { return id == transactionID })
		}
		if err := recomputeFund(ctx, r, fund); err != nil {
			return err
		}
		if err := r.UpdateBorrowedFund(ctx, fund); err != nil {
			return err
		}
	}
	return nil
}

// CreateBorrowedFund records borrowed money and the transactions it paid for.
func (l *Ledger) CreateBorrowedFund(ctx context.Context, fund *models.BorrowedFund) error {
	if err := fund.Validate(); err != nil {
		return err
	}
	return l.store.InTx(ctx, func(r storage.Repo) error {
		if err := checkOpen(ctx, r, fund.UserID, fund.BorrowDate, "add borrowed fund"); err != nil {
			return err
		}
		if fund.MemberID != "" {
			if _, err := r.GetMember(ctx, fund.UserID, fund.MemberID); err != nil {
				return err
			}
		}
		if err := recomputeFund(ctx, r, fund); err != nil {
			return err
		}
		return r.CreateBorrowedFund(ctx, fund)
	})
}

// UpdateBorrowedFund replaces a fund's amount, date and links. Both the old
// and new borrow month must be open.
func (l *Ledger) UpdateBorrowedFund(ctx context.Context, fund *models.BorrowedFund) error {
	if err := fund.Validate(); err != nil {
		return err
	}
	return l.store.InTx(ctx, func(r storage.Repo) error {
		old, err := r.GetBorrowedFund(ctx, fund.UserID, fund.ID)
		if err != nil {
			return err
		}
		if err := checkMove(ctx, r, fund.UserID, old.BorrowDate, fund.BorrowDate, "update borrowed fund"); err != nil {
			return err
		}
		if fund.MemberID != "" {
			if _, err := r.GetMember(ctx, fund.UserID, fund.MemberID); err != nil {
				return err
			}
		}
		fund.CreatedAt = old.CreatedAt
		if err := recomputeFund(ctx, r, fund); err != nil {
			return err
		}
		return r.UpdateBorrowedFund(ctx, fund)
	})
}

// DeleteBorrowedFund removes a fund from an open month.
func (l *Ledger) DeleteBorrowedFund(ctx context.Context, userID, id string) error {
	return l.store.InTx(ctx, func(r storage.Repo) error {
		old, err := r.GetBorrowedFund(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := checkOpen(ctx, r, userID, old.BorrowDate, "delete borrowed fund"); err != nil {
			return err
		}
		return r.DeleteBorrowedFund(ctx, userID, id)
	})
}

// ListBorrowedFunds returns the user's borrowed funds.
func (l *Ledger) ListBorrowedFunds(ctx context.Context, userID string) ([]*models.BorrowedFund, error) {
	return l.store.ListBorrowedFunds(ctx, userID)
}
