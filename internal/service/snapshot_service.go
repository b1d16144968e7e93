package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/pkg/api"
)

// SnapshotService reads, refreshes and closes monthly snapshots.
type SnapshotService struct {
	ledger *ledger.Ledger
}

// NewSnapshotService creates a SnapshotService over l.
func NewSnapshotService(l *ledger.Ledger) *SnapshotService {
	return &SnapshotService{ledger: l}
}

// Handler mounts every SnapshotService procedure.
func (s *SnapshotService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	p := func(m string) string { return api.Procedure(api.SnapshotServiceName, m) }
	return api.NewServiceHandler(api.SnapshotServiceName,
		api.Unary(p("GetSnapshot"), s.GetSnapshot, opts...),
		api.Unary(p("ListSnapshots"), s.ListSnapshots, opts...),
		api.Unary(p("RefreshSnapshot"), s.RefreshSnapshot, opts...),
		api.Unary(p("CloseMonth"), s.CloseMonth, opts...),
		api.Unary(p("PreviewMonth"), s.PreviewMonth, opts...),
	)
}

// GetSnapshot returns the stored snapshot for a month.
func (s *SnapshotService) GetSnapshot(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.SnapshotResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	month, err := monthOr(req.Msg.Month, s.ledger.CurrentMonth())
	if err != nil {
		return nil, fail("GetSnapshot", userID, err)
	}
	snap, err := s.ledger.GetSnapshot(ctx, userID, month)
	if err != nil {
		return nil, fail("GetSnapshot", userID, err)
	}
	if snap == nil {
		return nil, fail("GetSnapshot", userID, apperr.NotFound("snapshot", month.String()))
	}
	return connect.NewResponse(&api.SnapshotResponse{Snapshot: toSnapshot(snap)}), nil
}

// ListSnapshots returns every stored snapshot, newest first.
func (s *SnapshotService) ListSnapshots(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListSnapshotsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	snaps, err := s.ledger.ListSnapshots(ctx, userID)
	if err != nil {
		return nil, fail("ListSnapshots", userID, err)
	}
	out := make([]api.Snapshot, len(snaps))
	for i, snap := range snaps {
		out[i] = toSnapshot(snap)
	}
	return connect.NewResponse(&api.ListSnapshotsResponse{Snapshots: out}), nil
}

// RefreshSnapshot recomputes an open snapshot. Closed snapshots come back unchanged.
func (s *SnapshotService) RefreshSnapshot(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.SnapshotResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	month, err := monthOr(req.Msg.Month, s.ledger.CurrentMonth())
	if err != nil {
		return nil, fail("RefreshSnapshot", userID, err)
	}
	snap, err := s.ledger.RefreshSnapshot(ctx, userID, month)
	if err != nil {
		return nil, fail("RefreshSnapshot", userID, err)
	}
	return connect.NewResponse(&api.SnapshotResponse{Snapshot: toSnapshot(snap)}), nil
}

// CloseMonth freezes a month for the caller. Defaults to the previous month.
func (s *SnapshotService) CloseMonth(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.CloseMonthResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	month, err := monthOr(req.Msg.Month, s.ledger.CurrentMonth().Prev())
	if err != nil {
		return nil, fail("CloseMonth", userID, err)
	}
	snap, outcome, err := s.ledger.CloseMonth(ctx, userID, month)
	if err != nil {
		return nil, fail("CloseMonth", userID, err)
	}
	return connect.NewResponse(&api.CloseMonthResponse{
		Snapshot: toSnapshot(snap),
		Outcome:  string(outcome),
	}), nil
}

// PreviewMonth computes a month's figures without storing them.
func (s *SnapshotService) PreviewMonth(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.PreviewResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	month, err := monthOr(req.Msg.Month, s.ledger.CurrentMonth())
	if err != nil {
		return nil, fail("PreviewMonth", userID, err)
	}
	figures, err := s.ledger.Aggregate(ctx, userID, month)
	if err != nil {
		return nil, fail("PreviewMonth", userID, err)
	}
	return connect.NewResponse(&api.PreviewResponse{Month: month.String(), Figures: toFigures(figures)}), nil
}
