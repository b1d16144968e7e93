package models

import (
	"math"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
)

// PortionTolerance is how far needs+avoid portions may drift from the amount.
const PortionTolerance = 0.01

// Expense is money spent on a given day.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	UserID string

	Date        time.Time
	Amount      float64
	Description string

	Type     ExpenseType
	Category ExpenseCategory

	// NeedsPortion and AvoidPortion split a PARTIAL_NEEDS expense.
	// Both are required for that category and must sum to Amount.
	NeedsPortion *float64
	AvoidPortion *float64

	// MemberID links the expense to the shared-expense ledger. Empty when unshared.
	MemberID string

	// MemberDirection is required when MemberID is set.
	MemberDirection MemberDirection

	CreatedAt int64
}

func (e *Expense) Validate() error {
	if e.Amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	if e.Date.IsZero() {
		return apperr.Invalid("date", "is required")
	}
	if !e.Type.Valid() {
		return apperr.Invalid("type", "unknown expense type %q", e.Type)
	}
	if !e.Category.Valid() {
		return apperr.Invalid("category", "unknown category %q", e.Category)
	}
	if e.Category == CategoryPartialNeeds {
		if e.NeedsPortion == nil || e.AvoidPortion == nil {
			return apperr.Invalid("category", "PARTIAL_NEEDS requires needs and avoid portions")
		}
		if *e.NeedsPortion < 0 || *e.AvoidPortion < 0 {
			return apperr.Invalid("category", "portions must not be negative")
		}
		if math.Abs(*e.NeedsPortion+*e.AvoidPortion-e.Amount) >= PortionTolerance {
			return apperr.Invalid("category", "needs portion %.2f + avoid portion %.2f must equal amount %.2f",
				*e.NeedsPortion, *e.AvoidPortion, e.Amount)
		}
	}
	if e.MemberID != "" && !e.MemberDirection.Valid() {
		return apperr.Invalid("member_direction", "unknown direction %q", e.MemberDirection)
	}
	return nil
}

// Member is a person the user shares expenses with.
type Member struct {
	ID     string
	UserID string
	Name   string

	// Balance is positive when the member owes the user.
	Balance float64

	CreatedAt int64
}

// MemberTransaction is the side-effect entry an Expense writes to the
// shared-expense ledger. Reversing it undoes its Balance effect.
type MemberTransaction struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	UserID string

	// MemberID is the member whose balance moved.
	MemberID string

	// ExpenseID is the expense that produced this entry.
	ExpenseID string

	Direction MemberDirection

	// Amount is the full expense amount.
	Amount float64

	Date time.Time

	// CreatedAt is the Unix timestamp when the entry was recorded.
	CreatedAt int64
}
