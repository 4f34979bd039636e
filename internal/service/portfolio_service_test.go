package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
	"github.com/alanyoungcy/copytradebot/internal/store/memory"
)

func TestSnapshot_EmptyBook(t *testing.T) {
	ps := NewPortfolioService(memory.NewPositionStore(), memory.NewMarketStateStore(), 1000, testLogger())

	snap, err := ps.Snapshot(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, snap.CashBalance, 1e-9)
	assert.InDelta(t, 1000.0, snap.TotalValue, 1e-9)
	assert.Empty(t, snap.Positions)
}

func TestSnapshot_MarksToTrackedPrices(t *testing.T) {
	ctx := context.Background()
	positions := memory.NewPositionStore()
	states := memory.NewMarketStateStore()
	now := time.Now()

	// 100 YES shares bought for $50, now trading at 0.60.
	_, err := positions.Upsert(ctx, "mkt-1", func(p domain.Position) domain.Position {
		return p.ApplyEntry(domain.SideYes, 100, 50, now)
	})
	require.NoError(t, err)
	require.NoError(t, states.Put(ctx, domain.MarketState{
		MarketID:     "mkt-1",
		LastPriceYes: 0.60,
		LastPriceNo:  0.40,
	}))

	ps := NewPortfolioService(positions, states, 1000, testLogger())
	snap, err := ps.Snapshot(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 950.0, snap.CashBalance, 1e-9)
	assert.InDelta(t, 10.0, snap.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 1010.0, snap.TotalValue, 1e-9) // 950 cash + 60 marked
	assert.Zero(t, snap.RealizedPnL)
	require.Contains(t, snap.Positions, "mkt-1")
	assert.InDelta(t, 10.0, snap.Positions["mkt-1"].UnrealizedPnL, 1e-9)
}

func TestSnapshot_RealizedFlowsBackToCash(t *testing.T) {
	ctx := context.Background()
	positions := memory.NewPositionStore()
	states := memory.NewMarketStateStore()
	now := time.Now()

	// Round trip: buy $50, sell everything for $61.
	_, err := positions.Upsert(ctx, "mkt-1", func(p domain.Position) domain.Position {
		p = p.ApplyEntry(domain.SideYes, 100, 50, now)
		p, _ = p.ApplyExit(domain.SideYes, 100, 61, now)
		return p
	})
	require.NoError(t, err)

	ps := NewPortfolioService(positions, states, 1000, testLogger())
	snap, err := ps.Snapshot(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 1011.0, snap.CashBalance, 1e-9)
	assert.InDelta(t, 1011.0, snap.TotalValue, 1e-9)
	assert.InDelta(t, 11.0, snap.RealizedPnL, 1e-9)
	assert.Zero(t, snap.UnrealizedPnL)
}

func TestSnapshot_MissingStateFallsBackToCost(t *testing.T) {
	ctx := context.Background()
	positions := memory.NewPositionStore()
	now := time.Now()

	_, err := positions.Upsert(ctx, "mkt-1", func(p domain.Position) domain.Position {
		return p.ApplyEntry(domain.SideYes, 100, 50, now)
	})
	require.NoError(t, err)

	ps := NewPortfolioService(positions, memory.NewMarketStateStore(), 1000, testLogger())
	snap, err := ps.Snapshot(ctx)
	require.NoError(t, err)

	// Marked at average entry: no phantom profit or loss.
	assert.Zero(t, snap.UnrealizedPnL)
	assert.InDelta(t, 1000.0, snap.TotalValue, 1e-9)
}
