package models

import (
	"math"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
)

// SalaryRecord is one entry in a user's salary history.
// At most one record per user has a nil EffectiveTo; that record is current.
type SalaryRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	UserID string

	// Amount is the monthly salary the aggregator treats as net salary.
	Amount float64

	// EffectiveFrom is the first day this amount applies.
	EffectiveFrom time.Time

	// EffectiveTo is set to the successor's EffectiveFrom when superseded.
	EffectiveTo *time.Time

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64
}

func (s *SalaryRecord) Validate() error {
	if s.Amount <= 0 || math.IsInf(s.Amount, 0) || math.IsNaN(s.Amount) {
		return apperr.Invalid("amount", "must be positive")
	}
	if s.EffectiveFrom.IsZero() {
		return apperr.Invalid("effective_from", "is required")
	}
	return nil
}

// TaxSetting configures how tax is taken from salary. One per user.
type TaxSetting struct {
	UserID string

	Mode TaxMode

	// Percentage applies for PERCENTAGE and HYBRID (0-100).
	Percentage *float64

	// FixedAmount applies for FIXED and HYBRID.
	FixedAmount *float64

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64
}

func (t *TaxSetting) Validate() error {
	if !t.Mode.Valid() {
		return apperr.Invalid("mode", "unknown tax mode %q", t.Mode)
	}
	needPct := t.Mode == TaxPercentage || t.Mode == TaxHybrid
	needFixed := t.Mode == TaxFixed || t.Mode == TaxHybrid
	if needPct {
		if t.Percentage == nil {
			return apperr.Invalid("percentage", "is required for %s", t.Mode)
		}
		if *t.Percentage < 0 || *t.Percentage > 100 {
			return apperr.Invalid("percentage", "must be between 0 and 100")
		}
	}
	if needFixed {
		if t.FixedAmount == nil {
			return apperr.Invalid("fixed_amount", "is required for %s", t.Mode)
		}
		if *t.FixedAmount < 0 {
			return apperr.Invalid("fixed_amount", "must not be negative")
		}
	}
	return nil
}

// Income is side income recorded against a day. It is informational and does
// not enter the monthly salary arithmetic.
type Income struct {
	ID          string
	UserID      string
	Date        time.Time
	Amount      float64
	Source      string
	Description string
	CreatedAt   int64
}

func (i *Income) Validate() error {
	if i.Amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	if i.Date.IsZero() {
		return apperr.Invalid("date", "is required")
	}
	if i.Source == "" {
		return apperr.Invalid("source", "is required")
	}
	return nil
}
