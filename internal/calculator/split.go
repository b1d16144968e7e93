package calculator

import "github.com/mmynk/fintrack/internal/models"

// ExpenseTotals accumulates a month's expenses by type and by category.
type ExpenseTotals struct {
	Total      float64
	Expected   float64
	Unexpected float64
	Needs      float64
	Avoid      float64
}

// SplitExpense returns the needs and avoid shares of an expense.
// NEEDS and AVOID go wholly to one side; PARTIAL_NEEDS uses its portions.
func SplitExpense(e models.Expense) (needs, avoid float64) {
	switch e.Category {
	case models.CategoryNeeds:
		return e.Amount, 0
	case models.CategoryAvoid:
		return 0, e.Amount
	case models.CategoryPartialNeeds:
		if e.NeedsPortion != nil {
			needs = *e.NeedsPortion
		}
		if e.AvoidPortion != nil {
			avoid = *e.AvoidPortion
		}
		return needs, avoid
	}
	return 0, 0
}

// Add folds one expense into the totals.
func (t *ExpenseTotals) Add(e models.Expense) {
	t.Total += e.Amount

	switch e.Type {
	case models.ExpenseExpected:
		t.Expected += e.Amount
	case models.ExpenseUnexpected:
		t.Unexpected += e.Amount
	}

	needs, avoid := SplitExpense(e)
	t.Needs += needs
	t.Avoid += avoid
}

// SumExpenses totals a list of expenses.
func SumExpenses(expenses []models.Expense) ExpenseTotals {
	var t ExpenseTotals
	for _, e := range expenses {
		t.Add(e)
	}
	return t
}
