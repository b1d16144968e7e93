package models

import (
	"time"

	"github.com/mmynk/fintrack/internal/period"
)

// SnapshotFigures is the computed financial position for one month.
type SnapshotFigures struct {
	NetSalary float64
	TaxAmount float64
	AfterTax  float64

	TotalLoans    float64
	TotalSIPs     float64
	TotalExpenses float64

	ExpectedExpenses   float64
	UnexpectedExpenses float64
	NeedsExpenses      float64
	AvoidExpenses      float64

	// AvailableAmount = AfterTax - TotalLoans - TotalSIPs.
	AvailableAmount float64
	// SpentAmount = TotalExpenses.
	SpentAmount float64
	// SurplusAmount = AvailableAmount - SpentAmount.
	SurplusAmount float64

	// PreviousSurplus is the prior month's SurplusAmount. It is carried for
	// display and never added into SurplusAmount.
	PreviousSurplus float64
}

// MonthlySnapshot is the stored position for (user, year, month).
// Once IsClosed is set the figures never change and records dated in the
// month can no longer be mutated.
type MonthlySnapshot struct {
	ID     string
	UserID string
	Year   int
	Month  int

	SnapshotFigures

	IsClosed bool
	ClosedAt int64 // Unix seconds, 0 while open

	CreatedAt int64
	UpdatedAt int64
}

// Period returns the calendar month the snapshot covers.
func (s *MonthlySnapshot) Period() period.Month {
	return period.New(s.Year, time.Month(s.Month))
}
