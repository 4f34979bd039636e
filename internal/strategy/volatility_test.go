package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func testParams() Params {
	return Params{
		Bankroll:                     1000,
		MaxMarketExposurePct:         0.10,
		VolatilityAbsorptionPriceMin: 0.45,
		VolatilityAbsorptionPriceMax: 0.55,
		TailExposurePct:              0.05,
		TailPriceThreshold:           0.10,
		TakeProfitPct:                0.20,
	}
}

func testMarket() domain.Market {
	return domain.Market{
		ID:         "mkt-1",
		YesTokenID: "tok-yes",
		NoTokenID:  "tok-no",
	}
}

func TestVolatilityAbsorption_InsideZoneBuysCheaperSide(t *testing.T) {
	va := NewVolatilityAbsorption(testParams(), testLogger())

	// YES cheaper at 0.48: one YES order sized at a quarter of the cap.
	state := domain.MarketState{MarketID: "mkt-1", LastPriceYes: 0.48, LastPriceNo: 0.52}
	orders := va.Generate(state, testMarket())
	require.Len(t, orders, 1)
	assert.Equal(t, domain.SideYes, orders[0].Side)
	assert.Equal(t, "tok-yes", orders[0].TokenID)
	assert.InDelta(t, 25.0, orders[0].SizeUSDC, 1e-9)
	assert.InDelta(t, 25.0/0.48, orders[0].Shares, 1e-9)
	assert.InDelta(t, 0.72, orders[0].Confidence, 1e-9)

	// YES above the midpoint: NO is cheaper.
	state = domain.MarketState{MarketID: "mkt-1", LastPriceYes: 0.53, LastPriceNo: 0.47}
	orders = va.Generate(state, testMarket())
	require.Len(t, orders, 1)
	assert.Equal(t, domain.SideNo, orders[0].Side)
	assert.InDelta(t, 0.47, orders[0].Price, 1e-9)
}

func TestVolatilityAbsorption_ImbalanceTilt(t *testing.T) {
	va := NewVolatilityAbsorption(testParams(), testLogger())

	// Outside the zone, heavily YES-weighted, NO still cheap: buy NO at half
	// the base size.
	state := domain.MarketState{
		MarketID:     "mkt-1",
		LastPriceYes: 0.62,
		LastPriceNo:  0.38,
		ExposureYes:  100,
		ExposureNo:   10,
	}
	orders := va.Generate(state, testMarket())
	require.Len(t, orders, 1)
	assert.Equal(t, domain.SideNo, orders[0].Side)
	assert.InDelta(t, 12.5, orders[0].SizeUSDC, 1e-9)

	// Same imbalance but the underweight side already priced past 0.40: no
	// tilt.
	state.LastPriceYes = 0.58
	state.LastPriceNo = 0.42
	assert.Empty(t, va.Generate(state, testMarket()))

	// Imbalance exactly at the 2x threshold does not tilt.
	state = domain.MarketState{
		MarketID:     "mkt-1",
		LastPriceYes: 0.62,
		LastPriceNo:  0.38,
		ExposureYes:  50,
		ExposureNo:   0,
	}
	assert.Empty(t, va.Generate(state, testMarket()))
}

func TestVolatilityAbsorption_ContrarianEntry(t *testing.T) {
	va := NewVolatilityAbsorption(testParams(), testLogger())

	// NO collapsed to 0.30 with no NO exposure: contrarian bid at 0.75x base.
	state := domain.MarketState{
		MarketID:     "mkt-1",
		LastPriceYes: 0.70,
		LastPriceNo:  0.30,
		ExposureYes:  40,
	}
	orders := va.Generate(state, testMarket())
	require.Len(t, orders, 1)
	assert.Equal(t, domain.SideNo, orders[0].Side)
	assert.InDelta(t, 18.75, orders[0].SizeUSDC, 1e-9)
	assert.Equal(t, "contrarian", orders[0].StrategyDetail)

	// Existing exposure on the cheap side blocks the contrarian entry.
	state.ExposureNo = 5
	assert.Empty(t, va.Generate(state, testMarket()))
}

func TestVolatilityAbsorption_DegeneratePricesProposeNothing(t *testing.T) {
	va := NewVolatilityAbsorption(testParams(), testLogger())

	for _, state := range []domain.MarketState{
		{MarketID: "mkt-1", LastPriceYes: 0, LastPriceNo: 1},
		{MarketID: "mkt-1", LastPriceYes: 1, LastPriceNo: 0},
		{MarketID: "mkt-1"},
	} {
		assert.Empty(t, va.Generate(state, testMarket()))
	}
}

func TestAbsorptionConfidence(t *testing.T) {
	assert.InDelta(t, 0.72, absorptionConfidence(0.48), 1e-9)
	// Capped at 0.9 for very cheap entries.
	assert.InDelta(t, 0.9, absorptionConfidence(0.10), 1e-9)
}
