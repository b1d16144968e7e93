package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
)

type fakePrices struct {
	quotes map[string]float64
	rate   float64
}

func (f fakePrices) Price(_ context.Context, symbol string, _ models.InvestmentBucket, _ string) (float64, error) {
	p, ok := f.quotes[symbol]
	if !ok {
		return 0, &apperr.LookupError{Source: "fake", Key: symbol, Err: errors.New("no quote")}
	}
	return p, nil
}

func (f fakePrices) USDINR(context.Context) (float64, error) {
	if f.rate == 0 {
		return 0, &apperr.LookupError{Source: "fake", Key: "USDINR", Err: errors.New("no rate")}
	}
	return f.rate, nil
}

func manualTx(userID string, bucket models.InvestmentBucket, symbol string, qty, price float64) *models.Transaction {
	return &models.Transaction{
		UserID:       userID,
		Bucket:       bucket,
		Symbol:       symbol,
		Qty:          qty,
		Price:        price,
		PurchaseDate: date(2025, 4, 1),
	}
}

func TestDeleteTransaction_Recomputes(t *testing.T) {
	l, store := setupLedger(t)
	ctx := context.Background()
	userID := createUser(t, store, "holder@example.com")

	first := manualTx(userID, models.BucketMutualFund, "ppfas", 4, 90)
	_, err := l.AddTransaction(ctx, first)
	require.NoError(t, err)
	second := manualTx(userID, models.BucketMutualFund, "PPFAS", 6, 320.0/3)
	h, err := l.AddTransaction(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, "PPFAS", h.Symbol)
	assert.InDelta(t, 10, h.Qty, 1e-9)
	assert.InDelta(t, 100, h.AvgCost, 1e-6)
	assert.Equal(t, models.TxManualEntry, first.Type)

	require.NoError(t, l.DeleteTransaction(ctx, userID, first.ID))

	h, err = store.GetHolding(ctx, userID, h.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6, h.Qty, 1e-9)
	assert.InDelta(t, 106.67, h.AvgCost, 0.005)

	t.Run("removing the last contribution deletes the holding", func(t *testing.T) {
		require.NoError(t, l.DeleteTransaction(ctx, userID, second.ID))

		found, err := store.FindHolding(ctx, userID, models.BucketMutualFund, "PPFAS")
		require.NoError(t, err)
		assert.Nil(t, found)

		_, err = store.GetTransaction(ctx, userID, second.ID)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestAddRemoveRoundTrip(t *testing.T) {
	l, store := setupLedger(t)
	ctx := context.Background()
	userID := createUser(t, store, "round@example.com")

	_, err := l.AddTransaction(ctx, manualTx(userID, models.BucketIndianStock, "INFY", 7, 1450.25))
	require.NoError(t, err)
	before, err := store.FindHolding(ctx, userID, models.BucketIndianStock, "INFY")
	require.NoError(t, err)

	extra := manualTx(userID, models.BucketIndianStock, "infy", 3, 1612.8)
	_, err = l.AddTransaction(ctx, extra)
	require.NoError(t, err)
	require.NoError(t, l.DeleteTransaction(ctx, userID, extra.ID))

	after, err := store.FindHolding(ctx, userID, models.BucketIndianStock, "INFY")
	require.NoError(t, err)
	assert.InDelta(t, before.Qty, after.Qty, 1e-9)
	assert.InDelta(t, before.AvgCost, after.AvgCost, 1e-9)
}

func TestEditTransaction(t *testing.T) {
	notifier := &recordingNotifier{}
	l, store := setupLedger(t, WithNotifier(notifier))
	ctx := context.Background()
	userID := createUser(t, store, "edit@example.com")

	old := manualTx(userID, models.BucketIndianStock, "TCS", 4, 90)
	_, err := l.AddTransaction(ctx, old)
	require.NoError(t, err)
	_, err = l.AddTransaction(ctx, manualTx(userID, models.BucketIndianStock, "TCS", 6, 110))
	require.NoError(t, err)

	updated, err := l.EditTransaction(ctx, userID, old.ID, TransactionEdit{
		Qty: 5, Price: 80, PurchaseDate: date(2025, 4, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TxManualEdit, updated.Type)
	assert.InDelta(t, 400, updated.Amount, 1e-9)

	h, err := store.FindHolding(ctx, userID, models.BucketIndianStock, "TCS")
	require.NoError(t, err)
	assert.InDelta(t, 11, h.Qty, 1e-9)
	assert.InDelta(t, 1060.0/11, h.AvgCost, 1e-9)

	require.Len(t, notifier.holdings, 3)
	assert.InDelta(t, 11, notifier.holdings[2].Qty, 1e-9)

	t.Run("invalid edit changes nothing", func(t *testing.T) {
		_, err := l.EditTransaction(ctx, userID, old.ID, TransactionEdit{Qty: 0, Price: 80, PurchaseDate: date(2025, 4, 2)})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)

		got, err := store.GetTransaction(ctx, userID, old.ID)
		require.NoError(t, err)
		assert.InDelta(t, 5, got.Qty, 1e-9)
	})
}

func TestDeleteTransaction_NegativeQuantity(t *testing.T) {
	l, store := setupLedger(t)
	ctx := context.Background()
	userID := createUser(t, store, "neg@example.com")

	tx := manualTx(userID, models.BucketCrypto, "btc", 4, 100)
	h, err := l.AddTransaction(ctx, tx)
	require.NoError(t, err)

	h.Qty = 2
	require.NoError(t, store.UpdateHolding(ctx, h))

	err = l.DeleteTransaction(ctx, userID, tx.ID)
	var nq *apperr.NegativeQuantityError
	require.ErrorAs(t, err, &nq)
	assert.Equal(t, "BTC", nq.Symbol)
	assert.InDelta(t, 2, nq.Held, 1e-9)
	assert.InDelta(t, 4, nq.Reversing, 1e-9)

	_, err = store.GetTransaction(ctx, userID, tx.ID)
	assert.NoError(t, err, "transaction must survive the failed reversal")
	got, err := store.GetHolding(ctx, userID, h.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2, got.Qty, 1e-9)
}

func TestForeignTransactions(t *testing.T) {
	l, store := setupLedger(t, WithPrices(fakePrices{rate: 83}))
	ctx := context.Background()
	userID := createUser(t, store, "fx@example.com")

	first := manualTx(userID, models.BucketUSStock, "AAPL", 10, 100)
	first.USDINRRate = fp(80)
	_, err := l.AddTransaction(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyUSD, first.Currency)
	require.NotNil(t, first.AmountINR)
	assert.InDelta(t, 80000, *first.AmountINR, 1e-6)

	second := manualTx(userID, models.BucketUSStock, "AAPL", 10, 100)
	second.USDINRRate = fp(84)
	h, err := l.AddTransaction(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, h.USDINRRate)
	assert.InDelta(t, 82, *h.USDINRRate, 1e-9)

	t.Run("missing rate is looked up", func(t *testing.T) {
		third := manualTx(userID, models.BucketUSStock, "MSFT", 1, 400)
		_, err := l.AddTransaction(ctx, third)
		require.NoError(t, err)
		require.NotNil(t, third.USDINRRate)
		assert.InDelta(t, 83, *third.USDINRRate, 1e-9)
		assert.InDelta(t, 33200, *third.AmountINR, 1e-6)
	})

	t.Run("deleting a leg unwinds the rate", func(t *testing.T) {
		require.NoError(t, l.DeleteTransaction(ctx, userID, second.ID))
		h, err := store.GetHolding(ctx, userID, h.ID)
		require.NoError(t, err)
		require.NotNil(t, h.USDINRRate)
		assert.InDelta(t, 80, *h.USDINRRate, 1e-9)
	})
}

// seedHeadroom allocates 10,000 to IND_STOCK with a 4,000 monthly SIP.
func seedHeadroom(t *testing.T, l *Ledger, userID string) {
	t.Helper()
	ctx := context.Background()

	_, err := l.SetSalary(ctx, userID, 20000, date(2025, 1, 1))
	require.NoError(t, err)
	_, err = l.ReplaceAllocations(ctx, userID, []models.InvestmentAllocation{
		{Bucket: models.BucketIndianStock, Type: models.AllocationAmount, CustomAmount: fp(10000)},
	})
	require.NoError(t, err)
	require.NoError(t, l.CreateSIP(ctx, &models.SIP{
		UserID: userID, Bucket: models.BucketIndianStock, Symbol: "NIFTYBEES", Amount: 4000,
		Frequency: models.FrequencyMonthly, StartDate: date(2025, 1, 1),
	}))
}

func purchase(userID string, amount float64) *models.Transaction {
	return &models.Transaction{
		UserID:       userID,
		Bucket:       models.BucketIndianStock,
		Symbol:       "HDFCBANK",
		Qty:          amount / 100,
		Price:        100,
		PurchaseDate: date(2025, 4, 10),
	}
}

func TestRecordOneTimePurchase_Headroom(t *testing.T) {
	l, store := setupLedger(t)
	ctx := context.Background()
	userID := createUser(t, store, "buyer@example.com")
	seedHeadroom(t, l, userID)

	_, err := l.RecordOneTimePurchase(ctx, purchase(userID, 3000))
	require.NoError(t, err)

	headroom, err := l.GetAvailability(ctx, userID, models.BucketIndianStock)
	require.NoError(t, err)
	assert.InDelta(t, 10000, headroom.Allocation, 1e-6)
	assert.InDelta(t, 4000, headroom.SIPCommitment, 1e-6)
	assert.InDelta(t, 3000, headroom.Remaining, 1e-6)

	_, err = l.RecordOneTimePurchase(ctx, purchase(userID, 3500))
	var exceeded *apperr.AllocationExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.InDelta(t, 10000, exceeded.Allocation, 1e-6)
	assert.InDelta(t, 7000, exceeded.Used, 1e-6)
	assert.InDelta(t, 3000, exceeded.Available, 1e-6)
	assert.InDelta(t, 3500, exceeded.Requested, 1e-6)

	h, err := store.FindHolding(ctx, userID, models.BucketIndianStock, "HDFCBANK")
	require.NoError(t, err)
	assert.InDelta(t, 30, h.Qty, 1e-9, "rejected purchase must not touch the holding")

	ok := purchase(userID, 2500)
	_, err = l.RecordOneTimePurchase(ctx, ok)
	require.NoError(t, err)
	assert.Equal(t, models.TxOneTimePurchase, ok.Type)

	headroom, err = l.GetAvailability(ctx, userID, models.BucketIndianStock)
	require.NoError(t, err)
	assert.InDelta(t, 500, headroom.Remaining, 1e-6)

	t.Run("deleting a purchase frees its headroom", func(t *testing.T) {
		require.NoError(t, l.DeleteTransaction(ctx, userID, ok.ID))
		headroom, err := l.GetAvailability(ctx, userID, models.BucketIndianStock)
		require.NoError(t, err)
		assert.InDelta(t, 3000, headroom.Remaining, 1e-6)
	})
}

func TestBorrowedFunds(t *testing.T) {
	l, store := setupLedger(t)
	ctx := context.Background()
	userID := createUser(t, store, "borrow@example.com")

	a := manualTx(userID, models.BucketMutualFund, "LIQUID", 10, 100)
	b := manualTx(userID, models.BucketMutualFund, "LIQUID", 5, 100)
	for _, tx := range []*models.Transaction{a, b} {
		_, err := l.AddTransaction(ctx, tx)
		require.NoError(t, err)
	}

	fund := &models.BorrowedFund{
		UserID: userID, LenderName: "Dad", BorrowedAmount: 2000, BorrowDate: date(2025, 4, 1),
		TransactionIDs: []string{a.ID, b.ID},
	}
	require.NoError(t, l.CreateBorrowedFund(ctx, fund))
	assert.InDelta(t, 1500, fund.InvestedAmount, 1e-9)
	assert.InDelta(t, 500, fund.SurplusAmount, 1e-9)

	t.Run("deleting a linked transaction unlinks and recomputes", func(t *testing.T) {
		require.NoError(t, l.DeleteTransaction(ctx, userID, b.ID))
		got, err := store.GetBorrowedFund(ctx, userID, fund.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, got.TransactionIDs)
		assert.InDelta(t, 1000, got.InvestedAmount, 1e-9)
		assert.InDelta(t, 1000, got.SurplusAmount, 1e-9)
	})

	t.Run("editing a linked transaction recomputes", func(t *testing.T) {
		_, err := l.EditTransaction(ctx, userID, a.ID, TransactionEdit{Qty: 12, Price: 100, PurchaseDate: date(2025, 4, 1)})
		require.NoError(t, err)
		got, err := store.GetBorrowedFund(ctx, userID, fund.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1200, got.InvestedAmount, 1e-9)
	})

	t.Run("closed borrow month is guarded", func(t *testing.T) {
		_, _, err := l.CloseMonth(ctx, userID, period.New(2025, time.April))
		require.NoError(t, err)
		err = l.DeleteBorrowedFund(ctx, userID, fund.ID)
		var closed *apperr.ClosedPeriodError
		assert.ErrorAs(t, err, &closed)
	})

	t.Run("linked transactions of a closed fund are frozen", func(t *testing.T) {
		_, err := l.EditTransaction(ctx, userID, a.ID, TransactionEdit{Qty: 15, Price: 100, PurchaseDate: date(2025, 4, 1)})
		var closed *apperr.ClosedPeriodError
		require.ErrorAs(t, err, &closed)

		err = l.DeleteTransaction(ctx, userID, a.ID)
		require.ErrorAs(t, err, &closed)

		got, err := store.GetBorrowedFund(ctx, userID, fund.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, got.TransactionIDs)
		assert.InDelta(t, 1200, got.InvestedAmount, 1e-9)

		tx, err := store.GetTransaction(ctx, userID, a.ID)
		require.NoError(t, err)
		assert.InDelta(t, 12, tx.Qty, 1e-9)
	})
}

func TestRecordSIPExecution(t *testing.T) {
	l, store := setupLedger(t)
	ctx := context.Background()
	userID := createUser(t, store, "sip@example.com")

	sip := &models.SIP{
		UserID: userID, Bucket: models.BucketMutualFund, Symbol: "parag", Amount: 5000,
		Frequency: models.FrequencyMonthly, StartDate: date(2025, 1, 5),
	}
	require.NoError(t, l.CreateSIP(ctx, sip))

	tx, err := l.RecordSIPExecution(ctx, userID, sip.ID, SIPExecution{Qty: 62.5, Price: 80, Date: date(2025, 4, 5)})
	require.NoError(t, err)
	assert.Equal(t, models.TxSIPExecution, tx.Type)
	assert.Equal(t, sip.ID, tx.SIPID)
	assert.Equal(t, "PARAG", tx.Symbol)

	h, err := store.FindHolding(ctx, userID, models.BucketMutualFund, "PARAG")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.InDelta(t, 62.5, h.Qty, 1e-9)

	_, err = l.RecordSIPExecution(ctx, userID, "missing", SIPExecution{Qty: 1, Price: 1, Date: date(2025, 4, 5)})
	assert.True(t, apperr.IsNotFound(err))
}

func TestRefreshPrices(t *testing.T) {
	prices := fakePrices{quotes: map[string]float64{"AAPL": 210.5}}
	l, store := setupLedger(t, WithPrices(prices), WithRefreshConcurrency(2))
	ctx := context.Background()
	userID := createUser(t, store, "prices@example.com")

	aapl := manualTx(userID, models.BucketUSStock, "AAPL", 2, 150)
	aapl.USDINRRate = fp(83)
	_, err := l.AddTransaction(ctx, aapl)
	require.NoError(t, err)
	_, err = l.AddTransaction(ctx, manualTx(userID, models.BucketIndianStock, "TCS", 1, 3500))
	require.NoError(t, err)
	gold, err := l.AddTransaction(ctx, manualTx(userID, models.BucketEmergencyFund, "GOLD", 1, 6000))
	require.NoError(t, err)
	_, err = l.SetManualPrice(ctx, userID, gold.ID, 6500)
	require.NoError(t, err)

	stats, err := l.RefreshPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, BatchStats{Updated: 1, Skipped: 1, Failed: 1}, stats)

	h, err := store.FindHolding(ctx, userID, models.BucketUSStock, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, h.CurrentPrice)
	assert.InDelta(t, 210.5, *h.CurrentPrice, 1e-9)
	assert.InDelta(t, 150, h.AvgCost, 1e-9, "refresh never touches cost basis")
	assert.InDelta(t, 2, h.Qty, 1e-9)
	assert.Equal(t, testNow.Unix(), h.PriceUpdatedAt)

	h, err = store.FindHolding(ctx, userID, models.BucketIndianStock, "TCS")
	require.NoError(t, err)
	assert.Nil(t, h.CurrentPrice)

	h, err = store.GetHolding(ctx, userID, gold.ID)
	require.NoError(t, err)
	assert.True(t, h.IsManual)
	assert.InDelta(t, 6500, *h.CurrentPrice, 1e-9)
}

func TestRefreshPrices_NoLookup(t *testing.T) {
	l, _ := setupLedger(t)
	_, err := l.RefreshPrices(context.Background())
	assert.ErrorIs(t, err, ErrNoPriceLookup)
}
