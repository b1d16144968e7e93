package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/apperr"
)

// qtyEpsilon absorbs float noise when a reversal brings quantity to zero.
var qtyEpsilon = decimal.New(1, -9)

// Position is the cost basis of a holding.
type Position struct {
	Qty     float64
	AvgCost float64
	// FXRate is the investment-weighted USD/INR rate, nil when unknown.
	FXRate *float64
}

// Leg is one transaction's contribution to a position.
type Leg struct {
	Qty    float64
	Price  float64
	FXRate *float64
}

// AddLeg applies a contribution to pos. A nil pos starts a new position.
//
//	qty'  = Q + q
//	avg'  = (Q*A + q*p) / qty'
//	rate' = (Q*A*R + q*p*r) / (Q*A + q*p)
//
// When only one side carries a rate, that rate is kept.
func AddLeg(pos *Position, leg Leg) Position {
	if pos == nil || pos.Qty == 0 {
		return Position{Qty: leg.Qty, AvgCost: leg.Price, FXRate: copyRate(leg.FXRate)}
	}

	oldQty := decimal.NewFromFloat(pos.Qty)
	oldAvg := decimal.NewFromFloat(pos.AvgCost)
	q := decimal.NewFromFloat(leg.Qty)
	p := decimal.NewFromFloat(leg.Price)

	oldInv := oldQty.Mul(oldAvg)
	legInv := q.Mul(p)
	newQty := oldQty.Add(q)
	totalInv := oldInv.Add(legInv)

	next := Position{
		Qty:     newQty.InexactFloat64(),
		AvgCost: totalInv.Div(newQty).InexactFloat64(),
	}

	switch {
	case leg.FXRate == nil:
		next.FXRate = copyRate(pos.FXRate)
	case pos.FXRate == nil || totalInv.IsZero():
		next.FXRate = copyRate(leg.FXRate)
	default:
		r0 := decimal.NewFromFloat(*pos.FXRate)
		r1 := decimal.NewFromFloat(*leg.FXRate)
		rate := oldInv.Mul(r0).Add(legInv.Mul(r1)).Div(totalInv).InexactFloat64()
		next.FXRate = &rate
	}

	return next
}

// RemoveLeg reverses a contribution. It reports empty when the remaining
// quantity is zero, and fails with NegativeQuantityError when it would go
// below zero.
//
//	qty'  = Q - q
//	avg'  = (Q*A - q*p) / qty'
//	rate' = (Q*A*R - q*p*r) / (Q*A - q*p)
func RemoveLeg(pos Position, leg Leg) (next Position, empty bool, err error) {
	oldQty := decimal.NewFromFloat(pos.Qty)
	oldAvg := decimal.NewFromFloat(pos.AvgCost)
	q := decimal.NewFromFloat(leg.Qty)
	p := decimal.NewFromFloat(leg.Price)

	newQty := oldQty.Sub(q)
	if newQty.LessThan(qtyEpsilon.Neg()) {
		return Position{}, false, &apperr.NegativeQuantityError{Held: pos.Qty, Reversing: leg.Qty}
	}
	if newQty.Abs().LessThanOrEqual(qtyEpsilon) {
		return Position{}, true, nil
	}

	oldInv := oldQty.Mul(oldAvg)
	legInv := q.Mul(p)
	remainingInv := oldInv.Sub(legInv)

	avg := remainingInv.Div(newQty)
	if avg.IsNegative() {
		// Leg price above the running average; the remainder has no cost left.
		avg = decimal.Zero
	}

	next = Position{
		Qty:     newQty.InexactFloat64(),
		AvgCost: avg.InexactFloat64(),
	}

	switch {
	case pos.FXRate == nil:
		next.FXRate = nil
	case leg.FXRate == nil || !remainingInv.IsPositive():
		next.FXRate = copyRate(pos.FXRate)
	default:
		r0 := decimal.NewFromFloat(*pos.FXRate)
		r1 := decimal.NewFromFloat(*leg.FXRate)
		rate := oldInv.Mul(r0).Sub(legInv.Mul(r1)).Div(remainingInv)
		if rate.IsPositive() {
			f := rate.InexactFloat64()
			next.FXRate = &f
		} else {
			next.FXRate = copyRate(pos.FXRate)
		}
	}

	return next, false, nil
}

// ReplaceLeg edits a contribution: the old leg is removed first and the new
// leg applied to that intermediate position. A single combined delta gives a
// different average when quantity and price both change.
func ReplaceLeg(pos Position, old, updated Leg) (Position, error) {
	mid, empty, err := RemoveLeg(pos, old)
	if err != nil {
		return Position{}, err
	}
	if empty {
		return AddLeg(nil, updated), nil
	}
	return AddLeg(&mid, updated), nil
}

func copyRate(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}
