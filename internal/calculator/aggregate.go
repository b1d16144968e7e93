package calculator

import (
	"time"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
)

// MonthInputs are the source records the aggregation reads for one month.
// Missing inputs count as zero.
type MonthInputs struct {
	Month    period.Month
	Salaries []models.SalaryRecord
	Tax      *models.TaxSetting
	Loans    []models.Loan
	SIPs     []models.SIP
	Expenses []models.Expense

	// Previous is the prior month's snapshot, if any.
	Previous *models.MonthlySnapshot
}

// Aggregate computes a month's financial position.
//
//	afterTax  = netSalary - tax
//	available = afterTax - loans - sips
//	surplus   = available - expenses
//
// The previous month's surplus is reported but not carried into surplus.
func Aggregate(in MonthInputs) models.SnapshotFigures {
	var f models.SnapshotFigures

	if salary := CurrentSalary(in.Salaries, in.Month.End()); salary != nil {
		f.NetSalary = salary.Amount
	}
	f.TaxAmount = TaxAmount(in.Tax, f.NetSalary)
	f.AfterTax = f.NetSalary - f.TaxAmount

	f.TotalLoans = LoanEMITotal(in.Loans, in.Month)

	for _, sip := range in.SIPs {
		f.TotalSIPs += SIPContribution(sip, in.Month)
	}

	inMonth := make([]models.Expense, 0, len(in.Expenses))
	for _, e := range in.Expenses {
		if in.Month.Contains(e.Date) {
			inMonth = append(inMonth, e)
		}
	}
	totals := SumExpenses(inMonth)
	f.TotalExpenses = totals.Total
	f.ExpectedExpenses = totals.Expected
	f.UnexpectedExpenses = totals.Unexpected
	f.NeedsExpenses = totals.Needs
	f.AvoidExpenses = totals.Avoid

	f.AvailableAmount = f.AfterTax - f.TotalLoans - f.TotalSIPs
	f.SpentAmount = f.TotalExpenses
	f.SurplusAmount = f.AvailableAmount - f.SpentAmount

	if in.Previous != nil {
		f.PreviousSurplus = in.Previous.SurplusAmount
	}

	return f
}

// CurrentSalary returns the record with the latest EffectiveFrom not after
// asOf, or nil.
func CurrentSalary(records []models.SalaryRecord, asOf time.Time) *models.SalaryRecord {
	var best *models.SalaryRecord
	for i := range records {
		r := &records[i]
		if r.EffectiveFrom.After(asOf) {
			continue
		}
		if best == nil || r.EffectiveFrom.After(best.EffectiveFrom) {
			best = r
		}
	}
	return best
}

// TaxAmount applies a tax setting to salary. A nil setting means no tax.
func TaxAmount(setting *models.TaxSetting, salary float64) float64 {
	if setting == nil {
		return 0
	}

	var pct, fixed float64
	if setting.Percentage != nil {
		pct = salary * *setting.Percentage / 100
	}
	if setting.FixedAmount != nil {
		fixed = *setting.FixedAmount
	}

	switch setting.Mode {
	case models.TaxPercentage:
		return pct
	case models.TaxFixed:
		return fixed
	case models.TaxHybrid:
		return pct + fixed
	}
	return 0
}

// EMIActive reports whether a loan's installment falls due in month:
// 0 <= months since start < tenure.
func EMIActive(loan models.Loan, month period.Month) bool {
	since := period.Between(period.Of(loan.StartDate), month)
	return since >= 0 && since < loan.Tenure
}

// LoanEMITotal sums the installments due in month.
func LoanEMITotal(loans []models.Loan, month period.Month) float64 {
	var total float64
	for _, l := range loans {
		if EMIActive(l, month) {
			total += l.EMIAmount
		}
	}
	return total
}

// SIPActive reports whether a SIP runs at any point in month.
func SIPActive(sip models.SIP, month period.Month) bool {
	if !sip.IsActive {
		return false
	}
	if sip.StartDate.After(month.End()) {
		return false
	}
	if sip.EndDate != nil && sip.EndDate.Before(month.Start()) {
		return false
	}
	return true
}

// SIPContribution is what a SIP adds to a month's total.
// MONTHLY contributes its amount; YEARLY contributes amount/12 only in the
// month-of-year it started in; CUSTOM contributes its full amount.
func SIPContribution(sip models.SIP, month period.Month) float64 {
	if !SIPActive(sip, month) {
		return 0
	}
	switch sip.Frequency {
	case models.FrequencyMonthly:
		return sip.Amount
	case models.FrequencyYearly:
		if sip.StartDate.Month() == month.Month {
			return sip.Amount / 12
		}
		return 0
	case models.FrequencyCustom:
		return sip.Amount
	}
	return 0
}

// SIPMonthlyEquivalent is a SIP's commitment spread evenly per month.
func SIPMonthlyEquivalent(sip models.SIP) float64 {
	if sip.Frequency == models.FrequencyYearly {
		return sip.Amount / 12
	}
	return sip.Amount
}
