package calculator

import (
	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
)

// headroomTolerance lets a purchase use the last paisa of headroom despite
// float rounding.
const headroomTolerance = 0.005

// Headroom is how much of a bucket's allocation is left this month.
type Headroom struct {
	Bucket models.InvestmentBucket

	// AvailableForInvestment = afterTax - EMIs due this month.
	AvailableForInvestment float64
	// Allocation is the bucket's share of AvailableForInvestment.
	Allocation float64
	// SIPCommitment is the monthly equivalent of active SIPs in the bucket.
	SIPCommitment float64
	// AvailableForOneTime = Allocation - SIPCommitment.
	AvailableForOneTime float64
	// Purchased is this month's one-time purchases in the bucket.
	Purchased float64
	// Remaining = AvailableForOneTime - Purchased.
	Remaining float64
}

// Used is what SIPs and purchases have already taken from the allocation.
func (h Headroom) Used() float64 {
	return h.SIPCommitment + h.Purchased
}

// HeadroomInputs are the live figures the bucket headroom is derived from.
type HeadroomInputs struct {
	Month      period.Month
	Salaries   []models.SalaryRecord
	Tax        *models.TaxSetting
	Loans      []models.Loan
	Allocation models.InvestmentAllocation
	// SIPs may include other buckets; only matching active ones count.
	SIPs      []models.SIP
	Purchased float64
}

// AllocationAmount resolves an allocation against the investable amount.
func AllocationAmount(a models.InvestmentAllocation, available float64) float64 {
	switch a.Type {
	case models.AllocationPercentage:
		if a.Percent == nil {
			return 0
		}
		return available * *a.Percent / 100
	case models.AllocationAmount:
		if a.CustomAmount == nil {
			return 0
		}
		return *a.CustomAmount
	}
	return 0
}

// BucketHeadroom computes a bucket's remaining allocation for the month.
func BucketHeadroom(in HeadroomInputs) Headroom {
	var salary float64
	if rec := CurrentSalary(in.Salaries, in.Month.End()); rec != nil {
		salary = rec.Amount
	}
	afterTax := salary - TaxAmount(in.Tax, salary)

	h := Headroom{Bucket: in.Allocation.Bucket}
	h.AvailableForInvestment = afterTax - LoanEMITotal(in.Loans, in.Month)
	h.Allocation = AllocationAmount(in.Allocation, h.AvailableForInvestment)

	for _, sip := range in.SIPs {
		if sip.Bucket != in.Allocation.Bucket || !SIPActive(sip, in.Month) {
			continue
		}
		h.SIPCommitment += SIPMonthlyEquivalent(sip)
	}

	h.AvailableForOneTime = h.Allocation - h.SIPCommitment
	h.Purchased = in.Purchased
	h.Remaining = h.AvailableForOneTime - h.Purchased
	return h
}

// CheckPurchase rejects a purchase that would exceed the remaining headroom.
func (h Headroom) CheckPurchase(amount float64) error {
	if amount > h.Remaining+headroomTolerance {
		available := h.Remaining
		if available < 0 {
			available = 0
		}
		return &apperr.AllocationExceededError{
			Bucket:     string(h.Bucket),
			Allocation: h.Allocation,
			Used:       h.Used(),
			Available:  available,
			Requested:  amount,
		}
	}
	return nil
}

// PercentTotal sums PERCENTAGE allocations.
func PercentTotal(allocs []models.InvestmentAllocation) float64 {
	var total float64
	for _, a := range allocs {
		if a.Type == models.AllocationPercentage && a.Percent != nil {
			total += *a.Percent
		}
	}
	return total
}
