package models

import (
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
)

// InvestmentAllocation reserves part of the monthly investable amount for a bucket.
type InvestmentAllocation struct {
	ID     string
	UserID string
	Bucket InvestmentBucket
	Type   AllocationType

	// Percent of the investable amount, for PERCENTAGE.
	Percent *float64
	// CustomAmount for AMOUNT.
	CustomAmount *float64
}

func (a *InvestmentAllocation) Validate() error {
	if !a.Bucket.Valid() {
		return apperr.Invalid("bucket", "unknown bucket %q", a.Bucket)
	}
	switch a.Type {
	case AllocationPercentage:
		if a.Percent == nil || *a.Percent < 0 || *a.Percent > 100 {
			return apperr.Invalid("percent", "must be between 0 and 100 for %s", a.Bucket)
		}
	case AllocationAmount:
		if a.CustomAmount == nil || *a.CustomAmount < 0 {
			return apperr.Invalid("custom_amount", "must be set and not negative for %s", a.Bucket)
		}
	default:
		return apperr.Invalid("type", "unknown allocation type %q", a.Type)
	}
	return nil
}

// BorrowedFund is money borrowed to invest. InvestedAmount and SurplusAmount
// are derived from the linked transactions.
type BorrowedFund struct {
	ID     string
	UserID string

	// MemberID optionally names the lender in the members ledger.
	MemberID   string
	LenderName string

	BorrowedAmount float64
	BorrowDate     time.Time

	TransactionIDs  []string
	SIPExecutionIDs []string

	// InvestedAmount is the INR (or native) amount of the linked transactions.
	InvestedAmount float64
	// SurplusAmount = BorrowedAmount - InvestedAmount.
	SurplusAmount float64

	CreatedAt int64
}

func (b *BorrowedFund) Validate() error {
	if b.LenderName == "" {
		return apperr.Invalid("lender_name", "is required")
	}
	if b.BorrowedAmount <= 0 {
		return apperr.Invalid("borrowed_amount", "must be positive")
	}
	if b.BorrowDate.IsZero() {
		return apperr.Invalid("borrow_date", "is required")
	}
	return nil
}

// LinkedIDs returns every linked transaction ID once.
func (b *BorrowedFund) LinkedIDs() []string {
	seen := make(map[string]bool, len(b.TransactionIDs)+len(b.SIPExecutionIDs))
	var ids []string
	for _, list := range [][]string{b.TransactionIDs, b.SIPExecutionIDs} {
		for _, id := range list {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
