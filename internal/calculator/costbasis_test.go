package calculator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/apperr"
)

func TestAddLegWeightedAverage(t *testing.T) {
	legs := []Leg{
		{Qty: 4, Price: 90},
		{Qty: 2.5, Price: 120.4},
		{Qty: 10, Price: 101.15},
		{Qty: 0.75, Price: 88},
	}

	var pos *Position
	var sumQty, sumCost float64
	for _, leg := range legs {
		next := AddLeg(pos, leg)
		pos = &next
		sumQty += leg.Qty
		sumCost += leg.Qty * leg.Price
	}

	assert.InDelta(t, sumQty, pos.Qty, 1e-9)
	assert.InDelta(t, sumCost/sumQty, pos.AvgCost, 1e-9)
	assert.Nil(t, pos.FXRate)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	start := Position{Qty: 12, AvgCost: 143.25}
	leg := Leg{Qty: 3.5, Price: 151.8}

	added := AddLeg(&start, leg)
	restored, empty, err := RemoveLeg(added, leg)
	require.NoError(t, err)
	require.False(t, empty)

	assert.InDelta(t, start.Qty, restored.Qty, 1e-9)
	assert.InDelta(t, start.AvgCost, restored.AvgCost, 1e-9)

	fresh := AddLeg(nil, leg)
	_, empty, err = RemoveLeg(fresh, leg)
	require.NoError(t, err)
	assert.True(t, empty, "removing the only contribution should empty the position")
}

func TestRemoveLegRecomputesFromRemainder(t *testing.T) {
	// 4 @ 90 then 6 @ 106.67 blends to ~100; removing the first leg must
	// leave the second leg's price, not the blend.
	first := Leg{Qty: 4, Price: 90}
	second := Leg{Qty: 6, Price: 106.67}

	pos := AddLeg(nil, first)
	pos = AddLeg(&pos, second)
	assert.InDelta(t, 10, pos.Qty, 1e-9)
	assert.InDelta(t, 100, pos.AvgCost, 0.01)

	after, empty, err := RemoveLeg(pos, first)
	require.NoError(t, err)
	require.False(t, empty)
	assert.InDelta(t, 6, after.Qty, 1e-9)
	assert.InDelta(t, 106.67, after.AvgCost, 0.005)
}

func TestRemoveLegNegativeQuantity(t *testing.T) {
	_, _, err := RemoveLeg(Position{Qty: 2, AvgCost: 50}, Leg{Qty: 3, Price: 50})
	require.Error(t, err)

	var nq *apperr.NegativeQuantityError
	require.True(t, errors.As(err, &nq))
	assert.Equal(t, 2.0, nq.Held)
	assert.Equal(t, 3.0, nq.Reversing)
}

func TestFXRateWeighting(t *testing.T) {
	pos := AddLeg(nil, Leg{Qty: 10, Price: 100, FXRate: fp(80)})
	pos = AddLeg(&pos, Leg{Qty: 10, Price: 200, FXRate: fp(83)})

	// (1000*80 + 2000*83) / 3000
	require.NotNil(t, pos.FXRate)
	assert.InDelta(t, 82, *pos.FXRate, 1e-9)
	assert.InDelta(t, 150, pos.AvgCost, 1e-9)

	after, _, err := RemoveLeg(pos, Leg{Qty: 10, Price: 200, FXRate: fp(83)})
	require.NoError(t, err)
	require.NotNil(t, after.FXRate)
	assert.InDelta(t, 80, *after.FXRate, 1e-9)
	assert.InDelta(t, 100, after.AvgCost, 1e-9)
}

func TestFXRateOneSided(t *testing.T) {
	pos := AddLeg(nil, Leg{Qty: 5, Price: 10})
	pos = AddLeg(&pos, Leg{Qty: 5, Price: 10, FXRate: fp(83.5)})
	require.NotNil(t, pos.FXRate)
	assert.InDelta(t, 83.5, *pos.FXRate, 1e-9)

	pos = AddLeg(&pos, Leg{Qty: 5, Price: 10})
	require.NotNil(t, pos.FXRate)
	assert.InDelta(t, 83.5, *pos.FXRate, 1e-9)
}

func TestReplaceLegIsRemoveThenAdd(t *testing.T) {
	a := Leg{Qty: 4, Price: 90}
	b := Leg{Qty: 6, Price: 106.67}
	pos := AddLeg(nil, a)
	pos = AddLeg(&pos, b)

	edited := Leg{Qty: 8, Price: 95}
	got, err := ReplaceLeg(pos, a, edited)
	require.NoError(t, err)

	// Equivalent to building from b and the edited leg directly.
	want := AddLeg(nil, b)
	want = AddLeg(&want, edited)
	assert.InDelta(t, want.Qty, got.Qty, 1e-9)
	assert.InDelta(t, want.AvgCost, got.AvgCost, 1e-6)
}

func TestReplaceOnlyLeg(t *testing.T) {
	only := Leg{Qty: 3, Price: 40}
	pos := AddLeg(nil, only)

	got, err := ReplaceLeg(pos, only, Leg{Qty: 5, Price: 42})
	require.NoError(t, err)
	assert.InDelta(t, 5, got.Qty, 1e-9)
	assert.InDelta(t, 42, got.AvgCost, 1e-9)
}

func TestReplaceLegTooLarge(t *testing.T) {
	pos := Position{Qty: 2, AvgCost: 10}
	_, err := ReplaceLeg(pos, Leg{Qty: 5, Price: 10}, Leg{Qty: 1, Price: 10})
	var nq *apperr.NegativeQuantityError
	assert.True(t, errors.As(err, &nq))
}
