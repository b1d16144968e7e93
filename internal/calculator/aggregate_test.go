package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEMIActivationWindow(t *testing.T) {
	loan := models.Loan{EMIAmount: 10000, Tenure: 12, StartDate: date(2025, time.January, 1)}

	tests := []struct {
		month period.Month
		want  bool
	}{
		{period.New(2024, time.December), false},
		{period.New(2025, time.January), true},
		{period.New(2025, time.June), true},
		{period.New(2025, time.December), true},
		{period.New(2026, time.January), false},
		{period.New(2026, time.February), false},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, EMIActive(loan, tt.month))
		})
	}
}

func TestSIPContribution(t *testing.T) {
	march := period.New(2025, time.March)
	end := date(2025, time.February, 28)

	tests := []struct {
		name string
		sip  models.SIP
		want float64
	}{
		{"monthly", models.SIP{Amount: 5000, Frequency: models.FrequencyMonthly, StartDate: date(2024, 1, 5), IsActive: true}, 5000},
		{"yearly in start month", models.SIP{Amount: 12000, Frequency: models.FrequencyYearly, StartDate: date(2024, 3, 10), IsActive: true}, 1000},
		{"yearly outside start month", models.SIP{Amount: 12000, Frequency: models.FrequencyYearly, StartDate: date(2024, 6, 10), IsActive: true}, 0},
		{"custom contributes full amount", models.SIP{Amount: 2000, Frequency: models.FrequencyCustom, StartDate: date(2024, 1, 1), IsActive: true}, 2000},
		{"inactive", models.SIP{Amount: 3000, Frequency: models.FrequencyMonthly, StartDate: date(2024, 1, 1)}, 0},
		{"ended before month", models.SIP{Amount: 3000, Frequency: models.FrequencyMonthly, StartDate: date(2024, 1, 1), EndDate: &end, IsActive: true}, 0},
		{"starts on last day", models.SIP{Amount: 700, Frequency: models.FrequencyMonthly, StartDate: date(2025, 3, 31), IsActive: true}, 700},
		{"starts next month", models.SIP{Amount: 700, Frequency: models.FrequencyMonthly, StartDate: date(2025, 4, 1), IsActive: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SIPContribution(tt.sip, march), 0.001)
		})
	}
}

func TestTaxAmount(t *testing.T) {
	assert.Zero(t, TaxAmount(nil, 50000))
	assert.InDelta(t, 5000, TaxAmount(&models.TaxSetting{Mode: models.TaxPercentage, Percentage: fp(10)}, 50000), 0.001)
	assert.InDelta(t, 2500, TaxAmount(&models.TaxSetting{Mode: models.TaxFixed, FixedAmount: fp(2500), Percentage: fp(10)}, 50000), 0.001)
	assert.InDelta(t, 6000, TaxAmount(&models.TaxSetting{Mode: models.TaxHybrid, Percentage: fp(10), FixedAmount: fp(1000)}, 50000), 0.001)
}

func TestCurrentSalary(t *testing.T) {
	superseded := date(2025, time.April, 1)
	records := []models.SalaryRecord{
		{ID: "old", Amount: 50000, EffectiveFrom: date(2024, 1, 1), EffectiveTo: &superseded},
		{ID: "new", Amount: 60000, EffectiveFrom: date(2025, 4, 1)},
	}

	rec := CurrentSalary(records, period.New(2025, time.March).End())
	require.NotNil(t, rec)
	assert.Equal(t, "old", rec.ID)

	rec = CurrentSalary(records, period.New(2025, time.April).End())
	require.NotNil(t, rec)
	assert.Equal(t, "new", rec.ID)

	assert.Nil(t, CurrentSalary(records, period.New(2023, time.December).End()))
}

func TestAggregate(t *testing.T) {
	march := period.New(2025, time.March)
	superseded := date(2025, time.April, 1)

	in := MonthInputs{
		Month: march,
		Salaries: []models.SalaryRecord{
			{Amount: 50000, EffectiveFrom: date(2024, 1, 1), EffectiveTo: &superseded},
			{Amount: 60000, EffectiveFrom: date(2025, 4, 1)},
		},
		Tax: &models.TaxSetting{Mode: models.TaxHybrid, Percentage: fp(10), FixedAmount: fp(1000)},
		Loans: []models.Loan{
			{EMIAmount: 10000, Tenure: 12, StartDate: date(2025, 1, 1)},
			{EMIAmount: 4000, Tenure: 12, StartDate: date(2024, 1, 1)},
		},
		SIPs: []models.SIP{
			{Amount: 5000, Frequency: models.FrequencyMonthly, StartDate: date(2024, 1, 5), IsActive: true},
			{Amount: 12000, Frequency: models.FrequencyYearly, StartDate: date(2024, 3, 10), IsActive: true},
			{Amount: 2000, Frequency: models.FrequencyCustom, StartDate: date(2024, 1, 1), IsActive: true},
		},
		Expenses: []models.Expense{
			{Date: date(2025, 3, 2), Amount: 3000, Type: models.ExpenseExpected, Category: models.CategoryNeeds},
			{Date: date(2025, 3, 9), Amount: 1000, Type: models.ExpenseUnexpected, Category: models.CategoryAvoid},
			{Date: date(2025, 3, 31), Amount: 2000, Type: models.ExpenseExpected, Category: models.CategoryPartialNeeds,
				NeedsPortion: fp(1500), AvoidPortion: fp(500)},
			{Date: date(2025, 4, 1), Amount: 9999, Type: models.ExpenseExpected, Category: models.CategoryNeeds},
		},
		Previous: &models.MonthlySnapshot{SnapshotFigures: models.SnapshotFigures{SurplusAmount: 7777}},
	}

	f := Aggregate(in)

	assert.InDelta(t, 50000, f.NetSalary, 0.001)
	assert.InDelta(t, 6000, f.TaxAmount, 0.001)
	assert.InDelta(t, 44000, f.AfterTax, 0.001)
	assert.InDelta(t, 10000, f.TotalLoans, 0.001)
	assert.InDelta(t, 8000, f.TotalSIPs, 0.001)
	assert.InDelta(t, 6000, f.TotalExpenses, 0.001)
	assert.InDelta(t, 5000, f.ExpectedExpenses, 0.001)
	assert.InDelta(t, 1000, f.UnexpectedExpenses, 0.001)
	assert.InDelta(t, 4500, f.NeedsExpenses, 0.001)
	assert.InDelta(t, 1500, f.AvoidExpenses, 0.001)
	assert.InDelta(t, 26000, f.AvailableAmount, 0.001)
	assert.InDelta(t, 6000, f.SpentAmount, 0.001)
	assert.InDelta(t, 20000, f.SurplusAmount, 0.001)
	assert.InDelta(t, 7777, f.PreviousSurplus, 0.001)
}

func TestAggregateEmptyInputs(t *testing.T) {
	f := Aggregate(MonthInputs{Month: period.New(2025, time.March)})
	assert.Equal(t, models.SnapshotFigures{}, f)
}
