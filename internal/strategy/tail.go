package strategy

import (
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// tailDustUSDC: hedges below this cost are not worth placing.
const tailDustUSDC = 1.0

// tailConfidence is fixed: the hedge is insurance, not a directional view.
const tailConfidence = 0.95

// TailInsurance buys a small NO hedge in late-compressed markets where the
// unlikely outcome has become very cheap relative to accumulated YES
// exposure. The hedge is placed at most once per market: callers raise
// MarkTailActive on the market state after a successful fill, and the
// trigger refuses to fire while the flag is set.
type TailInsurance struct {
	params Params
	logger *slog.Logger
}

// NewTailInsurance creates the generator.
func NewTailInsurance(params Params, logger *slog.Logger) *TailInsurance {
	return &TailInsurance{
		params: params,
		logger: logger.With(slog.String("strategy", "tail_insurance")),
	}
}

// Type returns the strategy identifier.
func (ti *TailInsurance) Type() domain.StrategyType {
	return domain.StrategyTailInsurance
}

// ShouldTrigger reports whether the tail hedge conditions hold: regime is
// late-compressed, the NO side is below the price threshold, YES exposure is
// at least 1% of bankroll, and no hedge is active yet.
func (ti *TailInsurance) ShouldTrigger(state domain.MarketState) bool {
	return state.Regime == domain.RegimeLateCompressed &&
		state.LastPriceNo < ti.params.TailPriceThreshold &&
		state.ExposureYes >= ti.params.Bankroll*0.01 &&
		!state.TailActive
}

// Generate returns the single NO hedge order, or nothing when the trigger
// conditions fail or the hedge cost would be dust.
func (ti *TailInsurance) Generate(state domain.MarketState, market domain.Market) []domain.ProposedOrder {
	if !ti.ShouldTrigger(state) {
		return nil
	}

	tailCost := state.ExposureYes * ti.params.TailExposurePct
	if tailCost < tailDustUSDC {
		return nil
	}
	priceNo := state.LastPriceNo
	if priceNo <= 0 {
		return nil
	}

	o := domain.NewProposedOrder(state.MarketID, market.NoTokenID, domain.SideNo, priceNo, tailCost, domain.StrategyTailInsurance)
	o.StrategyDetail = fmt.Sprintf("hedge %.1fx convexity", TailConvexity(priceNo))
	o.Confidence = tailConfidence

	ti.logger.Info("tail insurance proposed",
		slog.String("market", state.MarketID),
		slog.Float64("price_no", priceNo),
		slog.Float64("cost", tailCost),
		slog.Float64("shares", o.Shares),
	)
	return []domain.ProposedOrder{o}
}

// TailConvexity returns the payout multiple of a binary contract bought at
// the given price: a 0.01 tail pays 100x at settlement.
func TailConvexity(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return 1 / price
}

// TailExpectedValue returns the expected value per share of buying the tail
// at the given price when the upset resolves with probability pUpset.
func TailExpectedValue(pUpset, price float64) float64 {
	return pUpset*(1-price) - (1-pUpset)*price
}
