package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/pkg/api"
)

// PortfolioService manages holdings, their transactions and allocations.
type PortfolioService struct {
	ledger *ledger.Ledger
}

// NewPortfolioService creates a PortfolioService over l.
func NewPortfolioService(l *ledger.Ledger) *PortfolioService {
	return &PortfolioService{ledger: l}
}

// Handler mounts every PortfolioService procedure.
func (s *PortfolioService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	p := func(m string) string { return api.Procedure(api.PortfolioServiceName, m) }
	return api.NewServiceHandler(api.PortfolioServiceName,
		api.Unary(p("AddTransaction"), s.AddTransaction, opts...),
		api.Unary(p("EditTransaction"), s.EditTransaction, opts...),
		api.Unary(p("DeleteTransaction"), s.DeleteTransaction, opts...),
		api.Unary(p("RecordSIPExecution"), s.RecordSIPExecution, opts...),
		api.Unary(p("RecordOneTimePurchase"), s.RecordOneTimePurchase, opts...),
		api.Unary(p("SetManualPrice"), s.SetManualPrice, opts...),
		api.Unary(p("ListHoldings"), s.ListHoldings, opts...),
		api.Unary(p("ListTransactions"), s.ListTransactions, opts...),
		api.Unary(p("GetAvailability"), s.GetAvailability, opts...),
		api.Unary(p("ListAllocations"), s.ListAllocations, opts...),
		api.Unary(p("ReplaceAllocations"), s.ReplaceAllocations, opts...),
		api.Unary(p("GetUSDINR"), s.GetUSDINR, opts...),
	)
}

// AddTransaction records a manual transaction.
func (s *PortfolioService) AddTransaction(ctx context.Context, req *connect.Request[api.TransactionRequest]) (*connect.Response[api.HoldingResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := fromTransaction(userID, req.Msg.Transaction)
	if err != nil {
		return nil, fail("AddTransaction", userID, err)
	}
	h, err := s.ledger.AddTransaction(ctx, t)
	if err != nil {
		return nil, fail("AddTransaction", userID, err)
	}
	return connect.NewResponse(&api.HoldingResponse{Holding: toHolding(h)}), nil
}

// EditTransaction changes a transaction and recomputes its holding.
func (s *PortfolioService) EditTransaction(ctx context.Context, req *connect.Request[api.EditTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("purchase_date", req.Msg.PurchaseDate)
	if err != nil {
		return nil, fail("EditTransaction", userID, err)
	}
	t, err := s.ledger.EditTransaction(ctx, userID, req.Msg.ID, ledger.TransactionEdit{
		Qty:          req.Msg.Qty,
		Price:        req.Msg.Price,
		USDINRRate:   req.Msg.USDINRRate,
		PurchaseDate: date,
	})
	if err != nil {
		return nil, fail("EditTransaction", userID, err)
	}
	return connect.NewResponse(&api.TransactionResponse{Transaction: toTransaction(t)}), nil
}

// DeleteTransaction reverses a transaction.
func (s *PortfolioService) DeleteTransaction(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteTransaction(ctx, userID, req.Msg.ID); err != nil {
		return nil, fail("DeleteTransaction", userID, err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

// RecordSIPExecution records one SIP installment's units.
func (s *PortfolioService) RecordSIPExecution(ctx context.Context, req *connect.Request[api.SIPExecutionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Msg.Date)
	if err != nil {
		return nil, fail("RecordSIPExecution", userID, err)
	}
	t, err := s.ledger.RecordSIPExecution(ctx, userID, req.Msg.SIPID, ledger.SIPExecution{
		Qty:        req.Msg.Qty,
		Price:      req.Msg.Price,
		USDINRRate: req.Msg.USDINRRate,
		Date:       date,
	})
	if err != nil {
		return nil, fail("RecordSIPExecution", userID, err)
	}
	return connect.NewResponse(&api.TransactionResponse{Transaction: toTransaction(t)}), nil
}

// RecordOneTimePurchase records a purchase counted against its bucket.
func (s *PortfolioService) RecordOneTimePurchase(ctx context.Context, req *connect.Request[api.TransactionRequest]) (*connect.Response[api.HoldingResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := fromTransaction(userID, req.Msg.Transaction)
	if err != nil {
		return nil, fail("RecordOneTimePurchase", userID, err)
	}
	h, err := s.ledger.RecordOneTimePurchase(ctx, t)
	if err != nil {
		return nil, fail("RecordOneTimePurchase", userID, err)
	}
	return connect.NewResponse(&api.HoldingResponse{Holding: toHolding(h)}), nil
}

// SetManualPrice pins a holding's price.
func (s *PortfolioService) SetManualPrice(ctx context.Context, req *connect.Request[api.SetManualPriceRequest]) (*connect.Response[api.HoldingResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.ledger.SetManualPrice(ctx, userID, req.Msg.HoldingID, req.Msg.Price)
	if err != nil {
		return nil, fail("SetManualPrice", userID, err)
	}
	return connect.NewResponse(&api.HoldingResponse{Holding: toHolding(h)}), nil
}

// ListHoldings returns holdings and their total current value.
func (s *PortfolioService) ListHoldings(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListHoldingsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	holdings, err := s.ledger.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fail("ListHoldings", userID, err)
	}
	resp := &api.ListHoldingsResponse{Holdings: make([]api.Holding, len(holdings))}
	for i, h := range holdings {
		resp.Holdings[i] = *toHolding(h)
		resp.TotalValue += valueINR(h)
	}
	return connect.NewResponse(resp), nil
}

// valueINR converts a foreign holding's value with its weighted rate.
func valueINR(h *models.Holding) float64 {
	v := h.CurrentValue()
	if models.IsForeign(h.Currency) && h.USDINRRate != nil {
		v *= *h.USDINRRate
	}
	return v
}

// ListTransactions returns every transaction.
func (s *PortfolioService) ListTransactions(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListTransactionsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fail("ListTransactions", userID, err)
	}
	out := make([]api.Transaction, len(txs))
	for i, t := range txs {
		out[i] = toTransaction(t)
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}

// GetAvailability reports this month's headroom for a bucket.
func (s *PortfolioService) GetAvailability(ctx context.Context, req *connect.Request[api.AvailabilityRequest]) (*connect.Response[api.AvailabilityResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.ledger.GetAvailability(ctx, userID, models.InvestmentBucket(req.Msg.Bucket))
	if err != nil {
		return nil, fail("GetAvailability", userID, err)
	}
	return connect.NewResponse(&api.AvailabilityResponse{Headroom: toHeadroom(h)}), nil
}

// ListAllocations returns the allocation set.
func (s *PortfolioService) ListAllocations(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.AllocationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	allocs, err := s.ledger.ListAllocations(ctx, userID)
	if err != nil {
		return nil, fail("ListAllocations", userID, err)
	}
	return connect.NewResponse(&api.AllocationsResponse{Allocations: toAllocations(allocs)}), nil
}

// ReplaceAllocations swaps the whole allocation set.
func (s *PortfolioService) ReplaceAllocations(ctx context.Context, req *connect.Request[api.AllocationsRequest]) (*connect.Response[api.AllocationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	in := make([]models.InvestmentAllocation, len(req.Msg.Allocations))
	for i, a := range req.Msg.Allocations {
		in[i] = fromAllocation(userID, a)
	}
	allocs, err := s.ledger.ReplaceAllocations(ctx, userID, in)
	if err != nil {
		return nil, fail("ReplaceAllocations", userID, err)
	}
	return connect.NewResponse(&api.AllocationsResponse{Allocations: toAllocations(allocs)}), nil
}

// GetUSDINR returns the current exchange rate.
func (s *PortfolioService) GetUSDINR(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.FXRateResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	rate, err := s.ledger.USDINR(ctx)
	if err != nil {
		return nil, fail("GetUSDINR", userID, err)
	}
	return connect.NewResponse(&api.FXRateResponse{USDINR: rate}), nil
}
