package models

import (
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
)

// SIP is a systematic investment plan: a fixed amount invested on a cadence.
type SIP struct {
	ID     string
	UserID string

	Bucket InvestmentBucket
	Symbol string
	Name   string

	Amount    float64
	Frequency SIPFrequency

	// CustomDay is the day of month a CUSTOM SIP runs on. Informational.
	CustomDay *int

	StartDate time.Time
	EndDate   *time.Time

	IsActive  bool
	CreatedAt int64
}

func (s *SIP) Validate() error {
	if !s.Bucket.Valid() {
		return apperr.Invalid("bucket", "unknown bucket %q", s.Bucket)
	}
	if NormalizeSymbol(s.Symbol) == "" {
		return apperr.Invalid("symbol", "is required")
	}
	if s.Amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	if !s.Frequency.Valid() {
		return apperr.Invalid("frequency", "unknown frequency %q", s.Frequency)
	}
	if s.CustomDay != nil && (*s.CustomDay < 1 || *s.CustomDay > 31) {
		return apperr.Invalid("custom_day", "must be between 1 and 31")
	}
	if s.StartDate.IsZero() {
		return apperr.Invalid("start_date", "is required")
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return apperr.Invalid("end_date", "must not be before start_date")
	}
	return nil
}
