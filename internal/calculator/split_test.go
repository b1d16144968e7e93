package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/mmynk/fintrack/internal/models"
)

func fp(f float64) *float64 { return &f }

func TestSplitExpense(t *testing.T) {
	tests := []struct {
		name      string
		expense   models.Expense
		wantNeeds float64
		wantAvoid float64
	}{
		{
			name:      "needs goes wholly to needs",
			expense:   models.Expense{Amount: 1200, Category: models.CategoryNeeds},
			wantNeeds: 1200,
		},
		{
			name:      "avoid goes wholly to avoid",
			expense:   models.Expense{Amount: 800, Category: models.CategoryAvoid},
			wantAvoid: 800,
		},
		{
			name: "partial needs uses its portions",
			expense: models.Expense{Amount: 2000, Category: models.CategoryPartialNeeds,
				NeedsPortion: fp(1500), AvoidPortion: fp(500)},
			wantNeeds: 1500,
			wantAvoid: 500,
		},
		{
			name:    "unknown category counts nowhere",
			expense: models.Expense{Amount: 50, Category: "OTHER"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needs, avoid := SplitExpense(tt.expense)
			if math.Abs(needs-tt.wantNeeds) > 0.01 {
				t.Errorf("needs = %v, want %v", needs, tt.wantNeeds)
			}
			if math.Abs(avoid-tt.wantAvoid) > 0.01 {
				t.Errorf("avoid = %v, want %v", avoid, tt.wantAvoid)
			}
		})
	}
}

func TestSumExpenses(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	totals := SumExpenses([]models.Expense{
		{Date: day, Amount: 3000, Type: models.ExpenseExpected, Category: models.CategoryNeeds},
		{Date: day, Amount: 1000, Type: models.ExpenseUnexpected, Category: models.CategoryAvoid},
		{Date: day, Amount: 2000, Type: models.ExpenseExpected, Category: models.CategoryPartialNeeds,
			NeedsPortion: fp(1500), AvoidPortion: fp(500)},
	})

	want := ExpenseTotals{Total: 6000, Expected: 5000, Unexpected: 1000, Needs: 4500, Avoid: 1500}
	if totals != want {
		t.Errorf("SumExpenses = %+v, want %+v", totals, want)
	}
	if math.Abs(totals.Needs+totals.Avoid-totals.Total) > 0.01 {
		t.Errorf("needs+avoid = %v, want total %v", totals.Needs+totals.Avoid, totals.Total)
	}
}
