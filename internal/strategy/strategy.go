// Package strategy contains the regime-to-strategy selector and the order
// generators. Generators are pure functions of (MarketState, market, params):
// they never call the risk check, never mutate state, and never touch the
// network. Everything they return is advisory until the risk gate promotes it
// to an Order.
package strategy

import (
	"time"

	"github.com/alanyoungcy/copytradebot/internal/config"
	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// Params holds the tunables shared by the generators and the exit evaluator.
type Params struct {
	Bankroll                     float64
	MaxMarketExposurePct         float64
	VolatilityAbsorptionPriceMin float64
	VolatilityAbsorptionPriceMax float64
	TailExposurePct              float64
	TailPriceThreshold           float64
	TakeProfitPct                float64
	MinHoldTime                  time.Duration
	StopLossPct                  float64
	TrailTriggerPct              float64
	TrailPct                     float64
	HardCapPrice                 float64
}

// ParamsFromConfig converts the TOML strategy section into Params.
func ParamsFromConfig(c config.StrategyConfig) Params {
	return Params{
		Bankroll:                     c.Bankroll,
		MaxMarketExposurePct:         c.MaxMarketExposurePct,
		VolatilityAbsorptionPriceMin: c.VolatilityAbsorptionPriceMin,
		VolatilityAbsorptionPriceMax: c.VolatilityAbsorptionPriceMax,
		TailExposurePct:              c.TailExposurePct,
		TailPriceThreshold:           c.TailPriceThreshold,
		TakeProfitPct:                c.TakeProfitPct,
		MinHoldTime:                  time.Duration(c.MinHoldTimeMs) * time.Millisecond,
		StopLossPct:                  c.StopLossPct,
		TrailTriggerPct:              c.TrailTriggerPct,
		TrailPct:                     c.TrailPct,
		HardCapPrice:                 c.HardCapPrice,
	}
}

// MaxMarketExposure returns the USDC exposure cap for a single market.
func (p Params) MaxMarketExposure() float64 {
	return p.Bankroll * p.MaxMarketExposurePct
}

// Generator produces zero or more proposed orders for a market in its
// current state.
type Generator interface {
	Type() domain.StrategyType
	Generate(state domain.MarketState, market domain.Market) []domain.ProposedOrder
}
