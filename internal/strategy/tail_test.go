package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func TestTailInsurance_Trigger(t *testing.T) {
	ti := NewTailInsurance(testParams(), testLogger())

	base := domain.MarketState{
		MarketID:     "mkt-1",
		Regime:       domain.RegimeLateCompressed,
		LastPriceYes: 0.92,
		LastPriceNo:  0.08,
		ExposureYes:  100,
	}
	assert.True(t, ti.ShouldTrigger(base))

	// Each condition blocks independently.
	s := base
	s.Regime = domain.RegimeMidConsensus
	assert.False(t, ti.ShouldTrigger(s))

	s = base
	s.LastPriceNo = 0.10 // threshold is exclusive
	assert.False(t, ti.ShouldTrigger(s))

	s = base
	s.ExposureYes = 9.99 // below 1% of bankroll
	assert.False(t, ti.ShouldTrigger(s))

	s = base
	s.TailActive = true
	assert.False(t, ti.ShouldTrigger(s))
}

func TestTailInsurance_GenerateHedge(t *testing.T) {
	ti := NewTailInsurance(testParams(), testLogger())

	state := domain.MarketState{
		MarketID:     "mkt-1",
		Regime:       domain.RegimeLateCompressed,
		LastPriceYes: 0.92,
		LastPriceNo:  0.08,
		ExposureYes:  100,
	}
	orders := ti.Generate(state, testMarket())
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, domain.SideNo, o.Side)
	assert.Equal(t, "tok-no", o.TokenID)
	assert.InDelta(t, 5.0, o.SizeUSDC, 1e-9) // 5% of YES exposure
	assert.InDelta(t, 62.5, o.Shares, 1e-9)
	assert.InDelta(t, 0.95, o.Confidence, 1e-9)
	assert.False(t, o.IsExit)
}

func TestTailInsurance_DustHedgeSkipped(t *testing.T) {
	ti := NewTailInsurance(testParams(), testLogger())

	// 5% of $15 exposure is $0.75, below the dust floor.
	state := domain.MarketState{
		MarketID:     "mkt-1",
		Regime:       domain.RegimeLateCompressed,
		LastPriceYes: 0.92,
		LastPriceNo:  0.08,
		ExposureYes:  15,
	}
	assert.True(t, ti.ShouldTrigger(state))
	assert.Empty(t, ti.Generate(state, testMarket()))
}

func TestTailInsurance_FiresAtMostOnce(t *testing.T) {
	ti := NewTailInsurance(testParams(), testLogger())

	state := domain.MarketState{
		MarketID:     "mkt-1",
		Regime:       domain.RegimeLateCompressed,
		LastPriceYes: 0.92,
		LastPriceNo:  0.08,
		ExposureYes:  100,
	}
	require.Len(t, ti.Generate(state, testMarket()), 1)

	state = state.MarkTailActive()
	assert.Empty(t, ti.Generate(state, testMarket()))
}

func TestTailConvexity(t *testing.T) {
	assert.InDelta(t, 100.0, TailConvexity(0.01), 1e-9)
	assert.InDelta(t, 20.0, TailConvexity(0.05), 1e-9)
	assert.Zero(t, TailConvexity(0))
}

func TestTailExpectedValue(t *testing.T) {
	// 10% upset probability against a 0.05 tail: positive expectancy.
	assert.InDelta(t, 0.05, TailExpectedValue(0.10, 0.05), 1e-9)
	// 2% upset probability against the same price: negative.
	assert.Less(t, TailExpectedValue(0.02, 0.05), 0.0)
}
