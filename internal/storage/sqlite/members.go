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

// CreateMember persists a new member.
func (r *repo) CreateMember(ctx context.Context, m *models.Member) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO members (id, user_id, name, balance, created_at) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.UserID, m.Name, m.Balance, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMember retrieves a member owned by userID.
func (r *repo) GetMember(ctx context.Context, userID, id string) (*models.Member, error) {
	m := &models.Member{}
	err := r.q.QueryRowContext(ctx,
		"SELECT id, user_id, name, balance, created_at FROM members WHERE id = ? AND user_id = ?",
		id, userID,
	).Scan(&m.ID, &m.UserID, &m.Name, &m.Balance, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("member", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// ListMembers returns a user's members by name.
func (r *repo) ListMembers(ctx context.Context, userID string) ([]*models.Member, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, user_id, name, balance, created_at FROM members WHERE user_id = ? ORDER BY name",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m := &models.Member{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Balance, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// AdjustMemberBalance adds delta to a member's running balance.
func (r *repo) AdjustMemberBalance(ctx context.Context, userID, id string, delta float64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE members SET balance = balance + ? WHERE id = ? AND user_id = ?", delta, id, userID)
	if err != nil {
		return fmt.Errorf("failed to adjust member balance: %w", err)
	}
	return checkAffected(res, apperr.NotFound("member", id))
}

const memberTxColumns = "id, user_id, member_id, expense_id, direction, amount, date, created_at"

func scanMemberTransaction(row scanner) (*models.MemberTransaction, error) {
	mt := &models.MemberTransaction{}
	var date string
	if err := row.Scan(&mt.ID, &mt.UserID, &mt.MemberID, &mt.ExpenseID, &mt.Direction,
		&mt.Amount, &date, &mt.CreatedAt); err != nil {
		return nil, err
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	mt.Date = d
	return mt, nil
}

// CreateMemberTransaction records the ledger entry for a shared expense.
func (r *repo) CreateMemberTransaction(ctx context.Context, mt *models.MemberTransaction) error {
	if mt.ID == "" {
		mt.ID = uuid.New().String()
	}
	if mt.CreatedAt == 0 {
		mt.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO member_transactions ("+memberTxColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		mt.ID, mt.UserID, mt.MemberID, mt.ExpenseID, string(mt.Direction), mt.Amount,
		formatDate(mt.Date), mt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member transaction: %w", err)
	}
	return nil
}

// FindMemberTransactionByExpense returns the entry an expense produced, or nil.
func (r *repo) FindMemberTransactionByExpense(ctx context.Context, expenseID string) (*models.MemberTransaction, error) {
	mt, err := scanMemberTransaction(r.q.QueryRowContext(ctx,
		"SELECT "+memberTxColumns+" FROM member_transactions WHERE expense_id = ?", expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member transaction: %w", err)
	}
	return mt, nil
}

// DeleteMemberTransaction removes a ledger entry by ID.
func (r *repo) DeleteMemberTransaction(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM member_transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete member transaction: %w", err)
	}
	return checkAffected(res, apperr.NotFound("member transaction", id))
}

// ListMemberTransactions returns a member's ledger entries, newest first.
func (r *repo) ListMemberTransactions(ctx context.Context, userID, memberID string) ([]models.MemberTransaction, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+memberTxColumns+" FROM member_transactions WHERE user_id = ? AND member_id = ? ORDER BY date DESC, created_at DESC",
		userID, memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list member transactions: %w", err)
	}
	defer rows.Close()

	var entries []models.MemberTransaction
	for rows.Next() {
		mt, err := scanMemberTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member transaction: %w", err)
		}
		entries = append(entries, *mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member transactions: %w", err)
	}
	return entries, nil
}
