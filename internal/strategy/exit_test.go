package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func exitParams() Params {
	p := testParams()
	p.MinHoldTime = time.Minute
	p.StopLossPct = -0.12
	p.TrailTriggerPct = 0.12
	p.TrailPct = 0.04
	p.HardCapPrice = 0.95
	return p
}

func heldPosition(openedAgo time.Duration, now time.Time) domain.Position {
	return domain.Position{
		MarketID:     "mkt-1",
		SharesYes:    100,
		AvgEntryYes:  0.50,
		CostBasisYes: 50,
		OpenedAt:     now.Add(-openedAgo),
	}
}

func TestShouldTakeProfit_ThresholdCrossed(t *testing.T) {
	ee := NewExitEvaluator(exitParams(), testLogger())
	now := time.Now()
	pos := heldPosition(time.Hour, now)

	// 100 shares at 0.61 against a $50 basis: +22%.
	d := ee.ShouldTakeProfit(pos, 0.61, 0.39, now)
	assert.True(t, d.ShouldExit)
	assert.Equal(t, domain.SideYes, d.Side)
	assert.InDelta(t, 0.22, d.ProfitPct, 1e-9)

	// +18% stays in.
	d = ee.ShouldTakeProfit(pos, 0.59, 0.41, now)
	assert.False(t, d.ShouldExit)
}

func TestShouldTakeProfit_MinHoldTimeGate(t *testing.T) {
	ee := NewExitEvaluator(exitParams(), testLogger())
	now := time.Now()

	// Deep in profit but only 10s old.
	pos := heldPosition(10*time.Second, now)
	d := ee.ShouldTakeProfit(pos, 0.70, 0.30, now)
	assert.False(t, d.ShouldExit)

	// Same position past the hold window.
	pos = heldPosition(2*time.Minute, now)
	d = ee.ShouldTakeProfit(pos, 0.70, 0.30, now)
	assert.True(t, d.ShouldExit)
}

func TestShouldTakeProfit_ChecksYesLegFirst(t *testing.T) {
	ee := NewExitEvaluator(exitParams(), testLogger())
	now := time.Now()

	pos := domain.Position{
		MarketID:     "mkt-1",
		SharesYes:    100,
		CostBasisYes: 50,
		SharesNo:     100,
		CostBasisNo:  30,
		OpenedAt:     now.Add(-time.Hour),
	}

	// Both legs above threshold: YES wins.
	d := ee.ShouldTakeProfit(pos, 0.61, 0.39, now)
	require.True(t, d.ShouldExit)
	assert.Equal(t, domain.SideYes, d.Side)

	// Only the NO leg qualifies.
	d = ee.ShouldTakeProfit(pos, 0.55, 0.45, now)
	require.True(t, d.ShouldExit)
	assert.Equal(t, domain.SideNo, d.Side)
	assert.InDelta(t, 0.5, d.ProfitPct, 1e-9)
}

func TestShouldTakeProfit_ZeroBasisNeverExits(t *testing.T) {
	ee := NewExitEvaluator(exitParams(), testLogger())
	now := time.Now()

	pos := domain.Position{
		MarketID:  "mkt-1",
		SharesYes: 100,
		OpenedAt:  now.Add(-time.Hour),
	}
	d := ee.ShouldTakeProfit(pos, 0.99, 0.01, now)
	assert.False(t, d.ShouldExit)
}

func TestEvaluate_StopLoss(t *testing.T) {
	ee := NewExitEvaluator(exitParams(), testLogger())
	now := time.Now()
	pos := heldPosition(time.Hour, now)

	// 100 shares at 0.42 against a $50 basis: -16%.
	d := ee.Evaluate(pos, 0.42, 0.58, now)
	require.True(t, d.ShouldExit)
	assert.Equal(t, domain.SideYes, d.Side)
	assert.InDelta(t, -0.16, d.ProfitPct, 1e-9)
	assert.Contains(t, d.Reason, "stop loss")

	// -10% stays in.
	d = ee.Evaluate(pos, 0.45, 0.55, now)
	assert.False(t, d.ShouldExit)
}

func TestEvaluate_HardCap(t *testing.T) {
	ee := NewExitEvaluator(exitParams(), testLogger())
	now := time.Now()

	// Basis high enough that the take-profit threshold is not reached when
	// the price pins at 0.96.
	pos := domain.Position{
		MarketID:     "mkt-1",
		SharesYes:    100,
		CostBasisYes: 95,
		OpenedAt:     now.Add(-time.Hour),
	}
	d := ee.Evaluate(pos, 0.96, 0.04, now)
	require.True(t, d.ShouldExit)
	assert.Contains(t, d.Reason, "hard cap")
}

func TestEvaluate_TrailingTakeProfit(t *testing.T) {
	p := exitParams()
	p.TakeProfitPct = 0.50 // keep plain take-profit out of the way
	ee := NewExitEvaluator(p, testLogger())
	now := time.Now()
	pos := heldPosition(time.Hour, now)

	// +16% arms the trail at a 0.58 peak.
	d := ee.Evaluate(pos, 0.58, 0.42, now)
	assert.False(t, d.ShouldExit)

	// New high moves the peak.
	d = ee.Evaluate(pos, 0.62, 0.38, now)
	assert.False(t, d.ShouldExit)

	// 0.60 is within 4% of the 0.62 peak: still holding.
	d = ee.Evaluate(pos, 0.60, 0.40, now)
	assert.False(t, d.ShouldExit)

	// 0.59 retraces past the trail.
	d = ee.Evaluate(pos, 0.59, 0.41, now)
	require.True(t, d.ShouldExit)
	assert.Equal(t, domain.SideYes, d.Side)
	assert.Contains(t, d.Reason, "trailing")
}

func TestEvaluate_ClearMarketResetsTrail(t *testing.T) {
	p := exitParams()
	p.TakeProfitPct = 0.50
	ee := NewExitEvaluator(p, testLogger())
	now := time.Now()
	pos := heldPosition(time.Hour, now)

	ee.Evaluate(pos, 0.62, 0.38, now) // arm at 0.62
	ee.ClearMarket("mkt-1")

	// After the reset, 0.58 re-arms instead of triggering against the old
	// peak.
	d := ee.Evaluate(pos, 0.58, 0.42, now)
	assert.False(t, d.ShouldExit)
}

func TestGenerateExitOrder(t *testing.T) {
	ee := NewExitEvaluator(exitParams(), testLogger())

	pos := domain.Position{
		MarketID:     "mkt-1",
		SharesYes:    120,
		CostBasisYes: 60,
		SharesNo:     40,
		CostBasisNo:  12,
	}
	o, ok := ee.GenerateExitOrder(pos, testMarket(), 0.62, 0.38)
	require.True(t, ok)

	// YES leg sold first, in full, marked as an exit.
	assert.Equal(t, domain.SideYes, o.Side)
	assert.Equal(t, "tok-yes", o.TokenID)
	assert.InDelta(t, 120.0, o.Shares, 1e-9)
	assert.InDelta(t, 74.4, o.SizeUSDC, 1e-9)
	assert.True(t, o.IsExit)
	assert.Equal(t, domain.StrategyProfitTaking, o.Strategy)

	// Only a NO leg left.
	pos.SharesYes = 0
	o, ok = ee.GenerateExitOrder(pos, testMarket(), 0.62, 0.38)
	require.True(t, ok)
	assert.Equal(t, domain.SideNo, o.Side)
	assert.InDelta(t, 40.0, o.Shares, 1e-9)

	// Flat position yields nothing.
	_, ok = ee.GenerateExitOrder(domain.Position{MarketID: "mkt-1"}, testMarket(), 0.62, 0.38)
	assert.False(t, ok)
}
