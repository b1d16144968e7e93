package models

import (
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
)

// Loan is a repayment obligation with a fixed monthly installment.
type Loan struct {
	// ID is the unique identifier for the loan (UUID format).
	ID string

	UserID string

	// Name is a label such as "Home loan".
	Name string

	PrincipalAmount float64

	// EMIAmount is the installment paid every month while the loan is active.
	EMIAmount float64

	// Tenure is the number of monthly installments.
	Tenure int

	// StartDate is the due date of the first installment.
	StartDate time.Time

	// CurrentOutstanding is reduced as installments are paid, never below zero.
	CurrentOutstanding float64

	CreatedAt int64
}

func (l *Loan) Validate() error {
	if l.PrincipalAmount <= 0 {
		return apperr.Invalid("principal_amount", "must be positive")
	}
	if l.EMIAmount <= 0 {
		return apperr.Invalid("emi_amount", "must be positive")
	}
	if l.Tenure <= 0 {
		return apperr.Invalid("tenure", "must be at least one month")
	}
	if l.StartDate.IsZero() {
		return apperr.Invalid("start_date", "is required")
	}
	return nil
}

// LoanEMI is one scheduled installment of a Loan.
type LoanEMI struct {
	ID          string
	LoanID      string
	Installment int // 1-based
	DueDate     time.Time
	Amount      float64
	Paid        bool
	PaidAt      int64
}
