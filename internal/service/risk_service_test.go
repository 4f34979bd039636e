package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func riskParams() RiskParams {
	return RiskParams{
		Bankroll:             1000,
		MaxMarketExposurePct: 0.10,
		MinConfidence:        0.5,
		MinOrderUSDC:         1,
		MaxOrderUSDC:         250,
	}
}

func proposed(sizeUSDC, price, confidence float64) domain.ProposedOrder {
	o := domain.NewProposedOrder("mkt-1", "tok-yes", domain.SideYes, price, sizeUSDC, domain.StrategyLadderCompression)
	o.Confidence = confidence
	return o
}

func TestApprove_PassThrough(t *testing.T) {
	rs := NewRiskService(riskParams(), testLogger())

	out, err := rs.Approve(context.Background(), proposed(25, 0.70, 0.8), domain.MarketState{MarketID: "mkt-1"})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, out.SizeUSDC, 1e-9)
	assert.InDelta(t, 25.0/0.70, out.Shares, 1e-9)
}

func TestApprove_RejectsDegeneratePrices(t *testing.T) {
	rs := NewRiskService(riskParams(), testLogger())
	state := domain.MarketState{MarketID: "mkt-1"}

	_, err := rs.Approve(context.Background(), proposed(25, 0, 0.8), state)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = rs.Approve(context.Background(), proposed(25, 1.0, 0.8), state)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = rs.Approve(context.Background(), proposed(0, 0.70, 0.8), state)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestApprove_RejectsLowConfidence(t *testing.T) {
	rs := NewRiskService(riskParams(), testLogger())

	_, err := rs.Approve(context.Background(), proposed(25, 0.70, 0.3), domain.MarketState{MarketID: "mkt-1"})
	assert.Error(t, err)
}

func TestApprove_ResizesToHeadroom(t *testing.T) {
	rs := NewRiskService(riskParams(), testLogger())

	// $80 of $100 cap already deployed: a $40 order shrinks to $20.
	state := domain.MarketState{MarketID: "mkt-1", ExposureYes: 80}
	out, err := rs.Approve(context.Background(), proposed(40, 0.70, 0.8), state)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, out.SizeUSDC, 1e-9)
	assert.InDelta(t, 20.0/0.70, out.Shares, 1e-9)
}

func TestApprove_RejectsAtCap(t *testing.T) {
	rs := NewRiskService(riskParams(), testLogger())

	state := domain.MarketState{MarketID: "mkt-1", ExposureYes: 100}
	_, err := rs.Approve(context.Background(), proposed(10, 0.70, 0.8), state)
	assert.Error(t, err)

	// Headroom below the minimum order also rejects.
	state.ExposureYes = 99.5
	_, err = rs.Approve(context.Background(), proposed(10, 0.70, 0.8), state)
	assert.Error(t, err)
}

func TestApprove_CapsOrderSize(t *testing.T) {
	p := riskParams()
	p.MaxMarketExposurePct = 1 // keep the exposure cap out of the way
	rs := NewRiskService(p, testLogger())

	out, err := rs.Approve(context.Background(), proposed(400, 0.70, 0.8), domain.MarketState{MarketID: "mkt-1"})
	require.NoError(t, err)
	assert.InDelta(t, 250.0, out.SizeUSDC, 1e-9)
}

func TestApprove_ExitsBypassExposureChecks(t *testing.T) {
	rs := NewRiskService(riskParams(), testLogger())

	o := proposed(60, 0.70, 0) // zero confidence, over cap
	o.IsExit = true
	state := domain.MarketState{MarketID: "mkt-1", ExposureYes: 100}

	out, err := rs.Approve(context.Background(), o, state)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, out.SizeUSDC, 1e-9)
}

func TestApprove_SidesCapIndependently(t *testing.T) {
	rs := NewRiskService(riskParams(), testLogger())

	// YES at cap does not block a NO entry.
	state := domain.MarketState{MarketID: "mkt-1", ExposureYes: 100}
	o := domain.NewProposedOrder("mkt-1", "tok-no", domain.SideNo, 0.30, 25, domain.StrategyVolatilityAbsorption)
	o.Confidence = 0.8

	out, err := rs.Approve(context.Background(), o, state)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, out.SizeUSDC, 1e-9)
}
