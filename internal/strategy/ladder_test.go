package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func TestLadderCompression_CrossedRungsFire(t *testing.T) {
	lc := NewLadderCompression(testParams(), testLogger())

	// 0.75 crossed the first two rungs (0.65 and 0.72). Base tranche is
	// cap/4 = $25, decaying 25% per rung.
	state := domain.MarketState{MarketID: "mkt-1", LastPriceYes: 0.75, LastPriceNo: 0.25}
	orders := lc.Generate(state, testMarket())
	require.Len(t, orders, 2)

	assert.Equal(t, domain.SideYes, orders[0].Side)
	assert.InDelta(t, 25.0, orders[0].SizeUSDC, 1e-9)
	assert.Equal(t, "rung 0 @ 0.65", orders[0].StrategyDetail)
	assert.InDelta(t, 18.75, orders[1].SizeUSDC, 1e-9)
	assert.Equal(t, "rung 1 @ 0.72", orders[1].StrategyDetail)

	// Both priced at the live YES price, not the rung level.
	assert.InDelta(t, 0.75, orders[0].Price, 1e-9)
	assert.InDelta(t, 0.75, orders[1].Price, 1e-9)
}

func TestLadderCompression_FilledRungsDoNotRefire(t *testing.T) {
	lc := NewLadderCompression(testParams(), testLogger())

	state := domain.MarketState{
		MarketID:     "mkt-1",
		LastPriceYes: 0.75,
		LastPriceNo:  0.25,
		LadderFilled: []int{0},
	}
	orders := lc.Generate(state, testMarket())
	require.Len(t, orders, 1)
	assert.Equal(t, "rung 1 @ 0.72", orders[0].StrategyDetail)
}

func TestLadderCompression_CeilingBlocksEverything(t *testing.T) {
	lc := NewLadderCompression(testParams(), testLogger())

	state := domain.MarketState{MarketID: "mkt-1", LastPriceYes: 0.96, LastPriceNo: 0.04}
	assert.Empty(t, lc.Generate(state, testMarket()))
}

func TestLadderCompression_ExposureCapSkipsRungs(t *testing.T) {
	lc := NewLadderCompression(testParams(), testLogger())

	// $90 already deployed against a $100 cap: neither the $25 nor the
	// $18.75 tranche fits.
	state := domain.MarketState{
		MarketID:     "mkt-1",
		LastPriceYes: 0.75,
		LastPriceNo:  0.25,
		ExposureYes:  90,
	}
	assert.Empty(t, lc.Generate(state, testMarket()))

	// With $60 deployed only the first tranche fits: 60+25=85, then
	// 85+18.75 would breach the cap.
	state.ExposureYes = 60
	orders := lc.Generate(state, testMarket())
	require.Len(t, orders, 1)
	assert.Equal(t, "rung 0 @ 0.65", orders[0].StrategyDetail)
}

func TestLadderCompression_PriceBelowFirstRung(t *testing.T) {
	lc := NewLadderCompression(testParams(), testLogger())

	state := domain.MarketState{MarketID: "mkt-1", LastPriceYes: 0.60, LastPriceNo: 0.40}
	assert.Empty(t, lc.Generate(state, testMarket()))
}

func TestLadderCompression_ConfidenceTracksPrice(t *testing.T) {
	lc := NewLadderCompression(testParams(), testLogger())

	state := domain.MarketState{MarketID: "mkt-1", LastPriceYes: 0.66, LastPriceNo: 0.34}
	orders := lc.Generate(state, testMarket())
	require.Len(t, orders, 1)
	assert.InDelta(t, 0.76, orders[0].Confidence, 1e-9)

	state.LastPriceYes = 0.90
	state.LastPriceNo = 0.10
	orders = lc.Generate(state, testMarket())
	require.NotEmpty(t, orders)
	assert.InDelta(t, 0.9, orders[0].Confidence, 1e-9)
}

func TestLadderRungsAccessorCopies(t *testing.T) {
	lc := NewLadderCompression(testParams(), testLogger())
	rungs := lc.Rungs()
	require.Len(t, rungs, 4)
	rungs[0] = 0.01
	assert.InDelta(t, 0.65, lc.Rungs()[0], 1e-9)
}
