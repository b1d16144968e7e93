package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
)

func TestBucketHeadroomScenario(t *testing.T) {
	month := period.New(2025, time.March)

	h := BucketHeadroom(HeadroomInputs{
		Month:    month,
		Salaries: []models.SalaryRecord{{Amount: 100000, EffectiveFrom: date(2024, 1, 1)}},
		Allocation: models.InvestmentAllocation{
			Bucket: models.BucketMutualFund, Type: models.AllocationAmount, CustomAmount: fp(10000),
		},
		SIPs: []models.SIP{
			{Bucket: models.BucketMutualFund, Amount: 4000, Frequency: models.FrequencyMonthly, StartDate: date(2024, 1, 1), IsActive: true},
			{Bucket: models.BucketUSStock, Amount: 9000, Frequency: models.FrequencyMonthly, StartDate: date(2024, 1, 1), IsActive: true},
		},
		Purchased: 3000,
	})

	assert.InDelta(t, 10000, h.Allocation, 0.001)
	assert.InDelta(t, 4000, h.SIPCommitment, 0.001)
	assert.InDelta(t, 6000, h.AvailableForOneTime, 0.001)
	assert.InDelta(t, 3000, h.Remaining, 0.001)

	err := h.CheckPurchase(3500)
	require.Error(t, err)
	var ae *apperr.AllocationExceededError
	require.True(t, errors.As(err, &ae))
	assert.InDelta(t, 10000, ae.Allocation, 0.001)
	assert.InDelta(t, 7000, ae.Used, 0.001)
	assert.InDelta(t, 3000, ae.Available, 0.001)
	assert.InDelta(t, 3500, ae.Requested, 0.001)

	assert.NoError(t, h.CheckPurchase(2500))
	assert.NoError(t, h.CheckPurchase(3000))
}

func TestBucketHeadroomPercentage(t *testing.T) {
	month := period.New(2025, time.March)

	h := BucketHeadroom(HeadroomInputs{
		Month:    month,
		Salaries: []models.SalaryRecord{{Amount: 100000, EffectiveFrom: date(2024, 1, 1)}},
		Tax:      &models.TaxSetting{Mode: models.TaxPercentage, Percentage: fp(20)},
		Loans:    []models.Loan{{EMIAmount: 30000, Tenure: 24, StartDate: date(2025, 1, 1)}},
		Allocation: models.InvestmentAllocation{
			Bucket: models.BucketIndianStock, Type: models.AllocationPercentage, Percent: fp(20),
		},
		SIPs: []models.SIP{
			// Yearly SIPs count at a twelfth regardless of month.
			{Bucket: models.BucketIndianStock, Amount: 48000, Frequency: models.FrequencyYearly, StartDate: date(2024, 7, 1), IsActive: true},
		},
	})

	assert.InDelta(t, 50000, h.AvailableForInvestment, 0.001)
	assert.InDelta(t, 10000, h.Allocation, 0.001)
	assert.InDelta(t, 4000, h.SIPCommitment, 0.001)
	assert.InDelta(t, 6000, h.Remaining, 0.001)
}

func TestCheckPurchaseOverdrawnBucket(t *testing.T) {
	h := Headroom{Bucket: models.BucketCrypto, Allocation: 1000, SIPCommitment: 1500, AvailableForOneTime: -500, Remaining: -500}

	var ae *apperr.AllocationExceededError
	require.True(t, errors.As(h.CheckPurchase(1), &ae))
	assert.Zero(t, ae.Available)
}

func TestPercentTotal(t *testing.T) {
	allocs := []models.InvestmentAllocation{
		{Type: models.AllocationPercentage, Percent: fp(40)},
		{Type: models.AllocationPercentage, Percent: fp(35.5)},
		{Type: models.AllocationAmount, CustomAmount: fp(5000)},
	}
	assert.InDelta(t, 75.5, PercentTotal(allocs), 1e-9)
}
