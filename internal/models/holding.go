package models

import (
	"math"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
)

// Holding is a running position in one instrument.
// Unique per (UserID, Bucket, Symbol); Symbol is always normalized.
type Holding struct {
	// ID is the unique identifier for the holding (UUID format).
	ID string

	UserID string
	Bucket InvestmentBucket

	// Symbol is upper-cased and trimmed.
	Symbol string
	Name   string

	// Qty is never negative. A holding whose Qty reaches zero is deleted.
	Qty float64

	// AvgCost is the quantity-weighted average price per unit, in Currency.
	AvgCost float64

	// CurrentPrice is the last looked-up market price. Nil until looked up.
	CurrentPrice *float64

	Currency string

	// USDINRRate is the investment-weighted FX rate of the contributing
	// transactions. Nil for INR holdings.
	USDINRRate *float64

	// IsManual holdings are excluded from price refresh.
	IsManual bool

	PriceUpdatedAt int64
	CreatedAt      int64
	UpdatedAt      int64
}

// CurrentValue returns Qty at the current price, falling back to AvgCost.
func (h *Holding) CurrentValue() float64 {
	if h.CurrentPrice != nil {
		return h.Qty * *h.CurrentPrice
	}
	return h.Qty * h.AvgCost
}

// Transaction is an append-only ledger entry. The parent Holding's Qty,
// AvgCost and USDINRRate are derived from the set of its transactions.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	UserID string

	// HoldingID is cleared when the holding is deleted.
	HoldingID string

	Bucket InvestmentBucket
	Symbol string

	Qty   float64
	Price float64

	// Amount = Qty * Price in Currency.
	Amount   float64
	Currency string

	// AmountINR is Amount converted with USDINRRate for foreign currencies.
	AmountINR  *float64
	USDINRRate *float64

	Type         TransactionType
	PurchaseDate time.Time

	// SIPID links SIP_EXECUTION transactions to their SIP.
	SIPID string

	CreatedAt int64
}

func (t *Transaction) Validate() error {
	if !t.Bucket.Valid() {
		return apperr.Invalid("bucket", "unknown bucket %q", t.Bucket)
	}
	if NormalizeSymbol(t.Symbol) == "" {
		return apperr.Invalid("symbol", "is required")
	}
	if t.Qty <= 0 || math.IsNaN(t.Qty) || math.IsInf(t.Qty, 0) {
		return apperr.Invalid("qty", "must be positive")
	}
	if t.Price < 0 || math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		return apperr.Invalid("price", "must not be negative")
	}
	if !t.Type.Valid() {
		return apperr.Invalid("type", "unknown transaction type %q", t.Type)
	}
	if t.PurchaseDate.IsZero() {
		return apperr.Invalid("purchase_date", "is required")
	}
	if t.USDINRRate != nil && *t.USDINRRate <= 0 {
		return apperr.Invalid("usd_inr_rate", "must be positive")
	}
	return nil
}

// InvestedINR is the amount this transaction contributed, in INR when known.
func (t *Transaction) InvestedINR() float64 {
	if t.AmountINR != nil {
		return *t.AmountINR
	}
	return t.Amount
}

// OneTimePurchase is a purchase counted against its bucket's allocation for
// the month it was made in.
type OneTimePurchase struct {
	ID            string
	UserID        string
	Bucket        InvestmentBucket
	Symbol        string
	Amount        float64 // INR
	Date          time.Time
	TransactionID string
	CreatedAt     int64
}
