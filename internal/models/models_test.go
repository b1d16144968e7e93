package models

import (
	"errors"
	"testing"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
)

func ptr(f float64) *float64 { return &f }

func TestExpenseValidate(t *testing.T) {
	day := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		expense Expense
		wantErr bool
	}{
		{
			name:    "needs expense",
			expense: Expense{Date: day, Amount: 500, Type: ExpenseExpected, Category: CategoryNeeds},
		},
		{
			name: "partial needs summing to amount",
			expense: Expense{Date: day, Amount: 1000, Type: ExpenseExpected, Category: CategoryPartialNeeds,
				NeedsPortion: ptr(600), AvoidPortion: ptr(400)},
		},
		{
			name: "partial needs within tolerance",
			expense: Expense{Date: day, Amount: 1000, Type: ExpenseExpected, Category: CategoryPartialNeeds,
				NeedsPortion: ptr(600.004), AvoidPortion: ptr(400)},
		},
		{
			name: "partial needs off by a rupee",
			expense: Expense{Date: day, Amount: 1000, Type: ExpenseExpected, Category: CategoryPartialNeeds,
				NeedsPortion: ptr(600), AvoidPortion: ptr(401)},
			wantErr: true,
		},
		{
			name:    "partial needs missing portions",
			expense: Expense{Date: day, Amount: 1000, Type: ExpenseUnexpected, Category: CategoryPartialNeeds},
			wantErr: true,
		},
		{
			name:    "unknown category",
			expense: Expense{Date: day, Amount: 10, Type: ExpenseExpected, Category: "LUXURY"},
			wantErr: true,
		},
		{
			name:    "member without direction",
			expense: Expense{Date: day, Amount: 10, Type: ExpenseExpected, Category: CategoryNeeds, MemberID: "m1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expense.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve *apperr.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestTaxSettingValidate(t *testing.T) {
	tests := []struct {
		name    string
		setting TaxSetting
		wantErr bool
	}{
		{"percentage", TaxSetting{Mode: TaxPercentage, Percentage: ptr(10)}, false},
		{"percentage missing", TaxSetting{Mode: TaxPercentage, FixedAmount: ptr(10)}, true},
		{"fixed", TaxSetting{Mode: TaxFixed, FixedAmount: ptr(2000)}, false},
		{"hybrid needs both", TaxSetting{Mode: TaxHybrid, Percentage: ptr(5)}, true},
		{"hybrid", TaxSetting{Mode: TaxHybrid, Percentage: ptr(5), FixedAmount: ptr(200)}, false},
		{"percentage over 100", TaxSetting{Mode: TaxPercentage, Percentage: ptr(120)}, true},
		{"unknown mode", TaxSetting{Mode: "FLAT"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.setting.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Errorf("NormalizeSymbol = %q", got)
	}
}

func TestBorrowedFundLinkedIDs(t *testing.T) {
	b := BorrowedFund{
		TransactionIDs:  []string{"t1", "t2", ""},
		SIPExecutionIDs: []string{"t2", "t3"},
	}
	got := b.LinkedIDs()
	want := []string{"t1", "t2", "t3"}
	if len(got) != len(want) {
		t.Fatalf("LinkedIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LinkedIDs[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
