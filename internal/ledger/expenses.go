package ledger

import (
	"context"
	"log/slog"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
	"github.com/mmynk/fintrack/internal/storage"
)

// applyMemberEffect writes the member ledger entry for e and moves the
// member's balance.
func applyMemberEffect(ctx context.Context, r storage.Repo, e *models.Expense) error {
	if e.MemberID == "" {
		return nil
	}
	if _, err := r.GetMember(ctx, e.UserID, e.MemberID); err != nil {
		return err
	}
	mt := &models.MemberTransaction{
		UserID:    e.UserID,
		MemberID:  e.MemberID,
		ExpenseID: e.ID,
		Direction: e.MemberDirection,
		Amount:    e.Amount,
		Date:      e.Date,
	}
	if err := r.CreateMemberTransaction(ctx, mt); err != nil {
		return err
	}
	return r.AdjustMemberBalance(ctx, e.UserID, e.MemberID, calculator.MemberDelta(mt.Direction, mt.Amount))
}

// reverseMemberEffect undoes the member ledger entry an expense wrote, if any.
func reverseMemberEffect(ctx context.Context, r storage.Repo, userID, expenseID string) error {
	mt, err := r.FindMemberTransactionByExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if mt == nil {
		return nil
	}
	if err := r.AdjustMemberBalance(ctx, userID, mt.MemberID, -calculator.MemberDelta(mt.Direction, mt.Amount)); err != nil {
		return err
	}
	return r.DeleteMemberTransaction(ctx, mt.ID)
}

// AddExpense records an expense and its member ledger effect.
func (l *Ledger) AddExpense(ctx context.Context, e *models.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		if err := checkOpen(ctx, r, e.UserID, e.Date, "add expense"); err != nil {
			return err
		}
		if err := r.CreateExpense(ctx, e); err != nil {
			return err
		}
		return applyMemberEffect(ctx, r, e)
	})
	if err != nil {
		return err
	}
	slog.Debug("Expense added", "user_id", e.UserID, "expense_id", e.ID, "amount", e.Amount)
	return nil
}

// UpdateExpense replaces an expense. The previous member effect is reversed
// before the new one is applied.
func (l *Ledger) UpdateExpense(ctx context.Context, e *models.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return l.store.InTx(ctx, func(r storage.Repo) error {
		old, err := r.GetExpense(ctx, e.UserID, e.ID)
		if err != nil {
			return err
		}
		if err := checkMove(ctx, r, e.UserID, old.Date, e.Date, "update expense"); err != nil {
			return err
		}
		if err := reverseMemberEffect(ctx, r, e.UserID, e.ID); err != nil {
			return err
		}
		e.CreatedAt = old.CreatedAt
		if err := r.UpdateExpense(ctx, e); err != nil {
			return err
		}
		return applyMemberEffect(ctx, r, e)
	})
}

// DeleteExpense removes an expense and reverses its member effect.
func (l *Ledger) DeleteExpense(ctx context.Context, userID, id string) error {
	return l.store.InTx(ctx, func(r storage.Repo) error {
		old, err := r.GetExpense(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := checkOpen(ctx, r, userID, old.Date, "delete expense"); err != nil {
			return err
		}
		if err := reverseMemberEffect(ctx, r, userID, id); err != nil {
			return err
		}
		return r.DeleteExpense(ctx, userID, id)
	})
}

// ListExpenses returns expenses dated in month.
func (l *Ledger) ListExpenses(ctx context.Context, userID string, month period.Month) ([]models.Expense, error) {
	return l.store.ListExpenses(ctx, userID, month.Start(), month.LastDay())
}

// AddMember registers a person the user shares expenses with.
func (l *Ledger) AddMember(ctx context.Context, m *models.Member) error {
	if m.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	m.Balance = 0
	return l.store.CreateMember(ctx, m)
}

// ListMembers returns the user's members with their running balances.
func (l *Ledger) ListMembers(ctx context.Context, userID string) ([]*models.Member, error) {
	return l.store.ListMembers(ctx, userID)
}

// MemberStatement returns a member's ledger entries and the balance they
// add up to.
func (l *Ledger) MemberStatement(ctx context.Context, userID, memberID string) ([]models.MemberTransaction, calculator.MemberBalance, error) {
	if _, err := l.store.GetMember(ctx, userID, memberID); err != nil {
		return nil, calculator.MemberBalance{}, err
	}
	entries, err := l.store.ListMemberTransactions(ctx, userID, memberID)
	if err != nil {
		return nil, calculator.MemberBalance{}, err
	}

	balance := calculator.MemberBalance{MemberID: memberID}
	if sums := calculator.CalculateMemberBalances(entries); len(sums) > 0 {
		balance = sums[0]
	}
	return entries, balance, nil
}
