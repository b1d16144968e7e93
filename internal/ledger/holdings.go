package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
	"github.com/mmynk/fintrack/internal/storage"
)

// TransactionEdit holds the fields of a transaction that may change.
type TransactionEdit struct {
	Qty          float64
	Price        float64
	USDINRRate   *float64
	PurchaseDate time.Time
}

// SIPExecution is one executed installment of a SIP.
type SIPExecution struct {
	Qty        float64
	Price      float64
	USDINRRate *float64
	Date       time.Time
}

func legOf(t *models.Transaction) calculator.Leg {
	leg := calculator.Leg{Qty: t.Qty, Price: t.Price}
	if models.IsForeign(t.Currency) {
		leg.FXRate = t.USDINRRate
	}
	return leg
}

func positionOf(h *models.Holding) calculator.Position {
	return calculator.Position{Qty: h.Qty, AvgCost: h.AvgCost, FXRate: h.USDINRRate}
}

func applyPosition(h *models.Holding, pos calculator.Position) {
	h.Qty = pos.Qty
	h.AvgCost = pos.AvgCost
	h.USDINRRate = pos.FXRate
}

// withSymbol fills in the symbol on a NegativeQuantityError.
func withSymbol(err error, symbol string) error {
	var nq *apperr.NegativeQuantityError
	if errors.As(err, &nq) {
		nq.Symbol = symbol
	}
	return err
}

// fillAmounts derives Amount and AmountINR from qty, price and rate.
func fillAmounts(t *models.Transaction) {
	t.Amount = t.Qty * t.Price
	t.AmountINR = nil
	if models.IsForeign(t.Currency) && t.USDINRRate != nil {
		inr := t.Amount * *t.USDINRRate
		t.AmountINR = &inr
	}
}

// prepareTransaction normalizes t and looks up a missing FX rate. It runs
// before the database transaction so no network call holds the store.
func (l *Ledger) prepareTransaction(ctx context.Context, t *models.Transaction) error {
	t.Symbol = models.NormalizeSymbol(t.Symbol)
	if t.Currency == "" {
		t.Currency = t.Bucket.DefaultCurrency()
	}
	if t.Type == "" {
		t.Type = models.TxManualEntry
	}
	if err := t.Validate(); err != nil {
		return err
	}

	if models.IsForeign(t.Currency) && t.USDINRRate == nil && l.prices != nil {
		rate, err := l.prices.USDINR(ctx)
		if err != nil {
			slog.Warn("FX rate unavailable, recording without INR amount",
				"symbol", t.Symbol, "error", err)
		} else {
			t.USDINRRate = &rate
		}
	}
	fillAmounts(t)
	return nil
}

// holdingFor returns the holding a transaction contributes to, or nil.
func holdingFor(ctx context.Context, r storage.Repo, t *models.Transaction) (*models.Holding, error) {
	if t.HoldingID != "" {
		h, err := r.GetHolding(ctx, t.UserID, t.HoldingID)
		if err == nil {
			return h, nil
		}
		if !apperr.IsNotFound(err) {
			return nil, err
		}
	}
	return r.FindHolding(ctx, t.UserID, t.Bucket, t.Symbol)
}

// addContribution applies t to its holding, creating the holding if needed.
func addContribution(ctx context.Context, r storage.Repo, t *models.Transaction) (*models.Holding, error) {
	h, err := r.FindHolding(ctx, t.UserID, t.Bucket, t.Symbol)
	if err != nil {
		return nil, err
	}

	if h == nil {
		pos := calculator.AddLeg(nil, legOf(t))
		h = &models.Holding{
			UserID:   t.UserID,
			Bucket:   t.Bucket,
			Symbol:   t.Symbol,
			Currency: t.Currency,
		}
		applyPosition(h, pos)
		if err := r.CreateHolding(ctx, h); err != nil {
			return nil, err
		}
	} else {
		cur := positionOf(h)
		applyPosition(h, calculator.AddLeg(&cur, legOf(t)))
		if err := r.UpdateHolding(ctx, h); err != nil {
			return nil, err
		}
	}

	t.HoldingID = h.ID
	return h, nil
}

func changeOf(h *models.Holding, deleted bool) HoldingChange {
	return HoldingChange{
		UserID:  h.UserID,
		Bucket:  h.Bucket,
		Symbol:  h.Symbol,
		Qty:     h.Qty,
		AvgCost: h.AvgCost,
		Deleted: deleted,
	}
}

// AddTransaction records a transaction and folds it into its holding.
func (l *Ledger) AddTransaction(ctx context.Context, t *models.Transaction) (*models.Holding, error) {
	if err := l.prepareTransaction(ctx, t); err != nil {
		return nil, err
	}

	var h *models.Holding
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		var err error
		if h, err = addContribution(ctx, r, t); err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}
		if err := r.CreateTransaction(ctx, t); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Recorded transaction", "user_id", t.UserID, "bucket", t.Bucket, "symbol", t.Symbol,
		"type", t.Type, "qty", t.Qty, "price", t.Price)
	l.holdingChanged(ctx, changeOf(h, false))
	return h, nil
}

// EditTransaction changes the quantity, price, rate or date of a
// transaction. The holding is recomputed by removing the old contribution
// and applying the new one to the result.
func (l *Ledger) EditTransaction(ctx context.Context, userID, id string, edit TransactionEdit) (*models.Transaction, error) {
	var updated *models.Transaction
	var h *models.Holding

	err := l.store.InTx(ctx, func(r storage.Repo) error {
		old, err := r.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		next := *old
		next.Qty = edit.Qty
		next.Price = edit.Price
		next.PurchaseDate = edit.PurchaseDate
		if edit.USDINRRate != nil {
			next.USDINRRate = edit.USDINRRate
		}
		if old.Type == models.TxManualEntry {
			next.Type = models.TxManualEdit
		}
		if err := next.Validate(); err != nil {
			return err
		}
		fillAmounts(&next)

		h, err = holdingFor(ctx, r, old)
		if err != nil {
			return err
		}
		if h == nil {
			return apperr.NotFound("holding", old.Symbol)
		}

		pos, err := calculator.ReplaceLeg(positionOf(h), legOf(old), legOf(&next))
		if err != nil {
			return withSymbol(err, h.Symbol)
		}
		applyPosition(h, pos)
		if err := r.UpdateHolding(ctx, h); err != nil {
			return err
		}

		next.HoldingID = h.ID
		if err := r.UpdateTransaction(ctx, &next); err != nil {
			return err
		}
		if next.Type == models.TxOneTimePurchase {
			if err := r.UpdateOneTimePurchaseByTransaction(ctx, next.ID, next.InvestedINR(), next.PurchaseDate); err != nil {
				return err
			}
		}
		if err := refreshLinkedFunds(ctx, r, userID, next.ID, false); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Edited transaction", "user_id", userID, "transaction_id", id, "symbol", updated.Symbol,
		"qty", updated.Qty, "price", updated.Price)
	l.holdingChanged(ctx, changeOf(h, false))
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its contribution. The
// holding is deleted when its quantity reaches zero.
func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id string) error {
	var h *models.Holding
	var emptied bool

	err := l.store.InTx(ctx, func(r storage.Repo) error {
		t, err := r.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		h, err = holdingFor(ctx, r, t)
		if err != nil {
			return err
		}
		if h != nil {
			pos, empty, err := calculator.RemoveLeg(positionOf(h), legOf(t))
			if err != nil {
				return withSymbol(err, h.Symbol)
			}
			emptied = empty
			if !empty {
				applyPosition(h, pos)
				if err := r.UpdateHolding(ctx, h); err != nil {
					return err
				}
			}
		}

		if err := r.DeleteTransaction(ctx, userID, id); err != nil {
			return err
		}
		if emptied {
			h.Qty = 0
			if err := r.DeleteHolding(ctx, userID, h.ID); err != nil {
				return err
			}
		}
		if t.Type == models.TxOneTimePurchase {
			if err := r.DeleteOneTimePurchaseByTransaction(ctx, id); err != nil {
				return err
			}
		}
		return refreshLinkedFunds(ctx, r, userID, id, true)
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted transaction", "user_id", userID, "transaction_id", id, "holding_deleted", emptied)
	if h != nil {
		l.holdingChanged(ctx, changeOf(h, emptied))
	}
	return nil
}

// RecordSIPExecution appends a SIP_EXECUTION transaction for the SIP's
// bucket and symbol.
func (l *Ledger) RecordSIPExecution(ctx context.Context, userID, sipID string, exec SIPExecution) (*models.Transaction, error) {
	sip, err := l.store.GetSIP(ctx, userID, sipID)
	if err != nil {
		return nil, err
	}

	t := &models.Transaction{
		UserID:       userID,
		Bucket:       sip.Bucket,
		Symbol:       sip.Symbol,
		Qty:          exec.Qty,
		Price:        exec.Price,
		USDINRRate:   exec.USDINRRate,
		Type:         models.TxSIPExecution,
		PurchaseDate: exec.Date,
		SIPID:        sip.ID,
	}
	if _, err := l.AddTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// RecordOneTimePurchase checks the bucket's headroom for the purchase month,
// then records the purchase and its transaction together.
func (l *Ledger) RecordOneTimePurchase(ctx context.Context, t *models.Transaction) (*models.Holding, error) {
	t.Type = models.TxOneTimePurchase
	if err := l.prepareTransaction(ctx, t); err != nil {
		return nil, err
	}

	var h *models.Holding
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		headroom, err := bucketHeadroom(ctx, r, t.UserID, t.Bucket, period.Of(t.PurchaseDate))
		if err != nil {
			return err
		}
		if err := headroom.CheckPurchase(t.InvestedINR()); err != nil {
			return err
		}

		if h, err = addContribution(ctx, r, t); err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}
		if err := r.CreateTransaction(ctx, t); err != nil {
			return err
		}
		return r.CreateOneTimePurchase(ctx, &models.OneTimePurchase{
			UserID:        t.UserID,
			Bucket:        t.Bucket,
			Symbol:        t.Symbol,
			Amount:        t.InvestedINR(),
			Date:          t.PurchaseDate,
			TransactionID: t.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Recorded one-time purchase", "user_id", t.UserID, "bucket", t.Bucket,
		"symbol", t.Symbol, "amount_inr", t.InvestedINR())
	l.holdingChanged(ctx, changeOf(h, false))
	return h, nil
}

// SetManualPrice pins a holding's price and excludes it from price refresh.
func (l *Ledger) SetManualPrice(ctx context.Context, userID, holdingID string, price float64) (*models.Holding, error) {
	if price < 0 {
		return nil, apperr.Invalid("price", "must not be negative")
	}

	var h *models.Holding
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		var err error
		if h, err = r.GetHolding(ctx, userID, holdingID); err != nil {
			return err
		}
		h.IsManual = true
		if err := r.UpdateHolding(ctx, h); err != nil {
			return err
		}
		h.CurrentPrice = &price
		h.PriceUpdatedAt = l.now().Unix()
		return r.UpdateHoldingPrice(ctx, h.ID, price, h.PriceUpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ListHoldings returns the user's holdings.
func (l *Ledger) ListHoldings(ctx context.Context, userID string) ([]*models.Holding, error) {
	return l.store.ListHoldings(ctx, userID)
}

// ListTransactions returns the user's transactions, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return l.store.ListTransactions(ctx, userID)
}
