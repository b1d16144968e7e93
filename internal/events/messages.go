package events

import (
	"encoding/json"
	"time"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/models"
)

// Routing keys published on the events exchange.
const (
	KeyMonthClosed    = "month.closed"
	KeyHoldingChanged = "holding.changed"
)

// MonthClosedMessage announces a frozen monthly snapshot.
type MonthClosedMessage struct {
	UserID          string    `json:"user_id"`
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	AfterTax        float64   `json:"after_tax"`
	AvailableAmount float64   `json:"available_amount"`
	SpentAmount     float64   `json:"spent_amount"`
	SurplusAmount   float64   `json:"surplus_amount"`
	ClosedAt        int64     `json:"closed_at"`
	Timestamp       time.Time `json:"timestamp"`
}

func newMonthClosed(s *models.MonthlySnapshot, now time.Time) *MonthClosedMessage {
	return &MonthClosedMessage{
		UserID:          s.UserID,
		Year:            s.Year,
		Month:           s.Month,
		AfterTax:        s.AfterTax,
		AvailableAmount: s.AvailableAmount,
		SpentAmount:     s.SpentAmount,
		SurplusAmount:   s.SurplusAmount,
		ClosedAt:        s.ClosedAt,
		Timestamp:       now,
	}
}

// HoldingChangedMessage carries a holding's position after a transaction.
type HoldingChangedMessage struct {
	UserID    string    `json:"user_id"`
	Bucket    string    `json:"bucket"`
	Symbol    string    `json:"symbol"`
	Qty       float64   `json:"qty"`
	AvgCost   float64   `json:"avg_cost"`
	Deleted   bool      `json:"deleted"`
	Timestamp time.Time `json:"timestamp"`
}

func newHoldingChanged(c ledger.HoldingChange, now time.Time) *HoldingChangedMessage {
	return &HoldingChangedMessage{
		UserID:    c.UserID,
		Bucket:    string(c.Bucket),
		Symbol:    c.Symbol,
		Qty:       c.Qty,
		AvgCost:   c.AvgCost,
		Deleted:   c.Deleted,
		Timestamp: now,
	}
}

// DecodeMonthClosed parses a month.closed body.
func DecodeMonthClosed(data []byte) (*MonthClosedMessage, error) {
	var msg MonthClosedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeHoldingChanged parses a holding.changed body.
func DecodeHoldingChanged(data []byte) (*HoldingChangedMessage, error) {
	var msg HoldingChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
