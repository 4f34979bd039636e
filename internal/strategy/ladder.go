package strategy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// ladderRungs are the YES price levels at which the ladder scales in.
var ladderRungs = []float64{0.65, 0.72, 0.80, 0.88}

const (
	// ladderCeiling: no rung fires once the price is effectively decided.
	ladderCeiling = 0.95
	// ladderSizeDecay shrinks each higher rung: the later the entry, the
	// smaller the edge left.
	ladderSizeDecay = 0.75
)

// LadderCompression scales into the favorite as its price compresses toward
// certainty: each rung crossed buys a shrinking YES tranche. A rung fires at
// most once per market; fills are recorded on the market state's ladder
// index by the caller.
type LadderCompression struct {
	params Params
	logger *slog.Logger
}

// NewLadderCompression creates the generator.
func NewLadderCompression(params Params, logger *slog.Logger) *LadderCompression {
	return &LadderCompression{
		params: params,
		logger: logger.With(slog.String("strategy", "ladder_compression")),
	}
}

// Type returns the strategy identifier.
func (lc *LadderCompression) Type() domain.StrategyType {
	return domain.StrategyLadderCompression
}

// Rungs returns the ladder price levels. Exposed so callers can map an
// order's rung detail back to an index when recording fills.
func (lc *LadderCompression) Rungs() []float64 {
	out := make([]float64, len(ladderRungs))
	copy(out, ladderRungs)
	return out
}

// Generate returns one order per unfilled rung the current YES price has
// crossed, subject to the per-market exposure cap and the price ceiling.
func (lc *LadderCompression) Generate(state domain.MarketState, market domain.Market) []domain.ProposedOrder {
	priceYes := state.LastPriceYes
	if priceYes <= 0 || priceYes >= ladderCeiling {
		return nil
	}

	cap := lc.params.MaxMarketExposure()
	base := cap / float64(len(ladderRungs))
	projected := state.ExposureYes

	var orders []domain.ProposedOrder
	for i, rung := range ladderRungs {
		if priceYes < rung || state.LadderRungFilled(i) {
			continue
		}

		size := base * math.Pow(ladderSizeDecay, float64(i))
		if projected+size > cap {
			lc.logger.Debug("ladder rung skipped, exposure cap reached",
				slog.String("market", state.MarketID),
				slog.Int("rung", i),
				slog.Float64("exposure", projected),
			)
			continue
		}
		projected += size

		o := domain.NewProposedOrder(state.MarketID, market.YesTokenID, domain.SideYes, priceYes, size, domain.StrategyLadderCompression)
		o.StrategyDetail = fmt.Sprintf("rung %d @ %.2f", i, rung)
		o.Confidence = math.Min(priceYes+0.1, 0.9)
		orders = append(orders, o)
	}

	if len(orders) > 0 {
		lc.logger.Debug("ladder compression proposals",
			slog.String("market", state.MarketID),
			slog.Int("orders", len(orders)),
			slog.Float64("price_yes", priceYes),
		)
	}
	return orders
}
