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

const loanColumns = "id, user_id, name, principal_amount, emi_amount, tenure, start_date, current_outstanding, created_at"

func scanLoan(row scanner) (*models.Loan, error) {
	l := &models.Loan{}
	var start string
	if err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.PrincipalAmount, &l.EMIAmount,
		&l.Tenure, &start, &l.CurrentOutstanding, &l.CreatedAt); err != nil {
		return nil, err
	}
	d, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	l.StartDate = d
	return l, nil
}

// CreateLoan persists a new loan. EMI rows are created separately.
func (r *repo) CreateLoan(ctx context.Context, l *models.Loan) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = time.Now().Unix()
	}

	_, err := r.q.ExecContext(ctx,
		"INSERT INTO loans ("+loanColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		l.ID, l.UserID, l.Name, l.PrincipalAmount, l.EMIAmount, l.Tenure,
		formatDate(l.StartDate), l.CurrentOutstanding, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan owned by userID.
func (r *repo) GetLoan(ctx context.Context, userID, id string) (*models.Loan, error) {
	l, err := scanLoan(r.q.QueryRowContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("loan", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return l, nil
}

// ListLoans returns a user's loans ordered by start date.
func (r *repo) ListLoans(ctx context.Context, userID string) ([]models.Loan, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE user_id = ? ORDER BY start_date, created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}
	return loans, nil
}

// DeleteLoan removes a loan and, by cascade, its EMI schedule.
func (r *repo) DeleteLoan(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM loans WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	return checkAffected(res, apperr.NotFound("loan", id))
}

// UpdateLoanOutstanding sets the remaining balance of a loan.
func (r *repo) UpdateLoanOutstanding(ctx context.Context, userID, id string, outstanding float64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE loans SET current_outstanding = ? WHERE id = ? AND user_id = ?", outstanding, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update loan outstanding: %w", err)
	}
	return checkAffected(res, apperr.NotFound("loan", id))
}

// CreateLoanEMI inserts one scheduled installment.
func (r *repo) CreateLoanEMI(ctx context.Context, emi *models.LoanEMI) error {
	if emi.ID == "" {
		emi.ID = uuid.New().String()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO loan_emis (id, loan_id, installment, due_date, amount, paid, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		emi.ID, emi.LoanID, emi.Installment, formatDate(emi.DueDate), emi.Amount, boolInt(emi.Paid), emi.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan EMI: %w", err)
	}
	return nil
}

// ListLoanEMIs returns a loan's schedule in installment order.
func (r *repo) ListLoanEMIs(ctx context.Context, loanID string) ([]*models.LoanEMI, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, loan_id, installment, due_date, amount, paid, paid_at
		 FROM loan_emis WHERE loan_id = ? ORDER BY installment`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan EMIs: %w", err)
	}
	defer rows.Close()

	var emis []*models.LoanEMI
	for rows.Next() {
		emi := &models.LoanEMI{}
		var due string
		var paid int
		if err := rows.Scan(&emi.ID, &emi.LoanID, &emi.Installment, &due, &emi.Amount, &paid, &emi.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan EMI: %w", err)
		}
		if emi.DueDate, err = parseDate(due); err != nil {
			return nil, err
		}
		emi.Paid = paid == 1
		emis = append(emis, emi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan EMIs: %w", err)
	}
	return emis, nil
}

// MarkEMIPaid flags an unpaid installment as paid.
func (r *repo) MarkEMIPaid(ctx context.Context, loanID string, installment int, paidAt int64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE loan_emis SET paid = 1, paid_at = ? WHERE loan_id = ? AND installment = ? AND paid = 0",
		paidAt, loanID, installment,
	)
	if err != nil {
		return fmt.Errorf("failed to mark EMI paid: %w", err)
	}
	return checkAffected(res, apperr.NotFound("unpaid installment", fmt.Sprintf("%s#%d", loanID, installment)))
}
