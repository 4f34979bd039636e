package strategy

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// ExitDecision is the outcome of evaluating an open position against live
// prices.
type ExitDecision struct {
	ShouldExit bool
	Side       domain.Side
	ProfitPct  float64
	Reason     string
}

// ExitEvaluator decides when an open position should be closed. Profit-taking
// is evaluated first, then the hard price cap, the stop loss, and the
// trailing take-profit. The evaluator is the only stateful piece of the
// strategy package: it remembers post-arm price peaks for the trailing stop.
type ExitEvaluator struct {
	params Params
	logger *slog.Logger

	mu    sync.Mutex
	peaks map[string]float64 // marketID|side -> peak price since armed
}

// NewExitEvaluator creates an ExitEvaluator.
func NewExitEvaluator(params Params, logger *slog.Logger) *ExitEvaluator {
	return &ExitEvaluator{
		params: params,
		logger: logger.With(slog.String("strategy", "exit")),
		peaks:  make(map[string]float64),
	}
}

// legProfitPct returns the return on cost basis for one leg of the position.
// A zero basis yields 0 rather than dividing by zero.
func legProfitPct(shares, price, costBasis float64) float64 {
	if costBasis <= 0 {
		return 0
	}
	return (shares*price - costBasis) / costBasis
}

// ShouldTakeProfit checks both legs for the configured take-profit threshold.
// Legs are evaluated YES before NO; the first leg at or past the threshold
// wins. Positions younger than the minimum hold time never exit.
func (ee *ExitEvaluator) ShouldTakeProfit(pos domain.Position, priceYes, priceNo float64, now time.Time) ExitDecision {
	if ee.params.MinHoldTime > 0 && now.Sub(pos.OpenedAt) < ee.params.MinHoldTime {
		return ExitDecision{}
	}

	if pos.SharesYes > 0 {
		pct := legProfitPct(pos.SharesYes, priceYes, pos.CostBasisYes)
		if pct >= ee.params.TakeProfitPct {
			return ExitDecision{
				ShouldExit: true,
				Side:       domain.SideYes,
				ProfitPct:  pct,
				Reason:     fmt.Sprintf("take profit: YES +%.1f%%", pct*100),
			}
		}
	}
	if pos.SharesNo > 0 {
		pct := legProfitPct(pos.SharesNo, priceNo, pos.CostBasisNo)
		if pct >= ee.params.TakeProfitPct {
			return ExitDecision{
				ShouldExit: true,
				Side:       domain.SideNo,
				ProfitPct:  pct,
				Reason:     fmt.Sprintf("take profit: NO +%.1f%%", pct*100),
			}
		}
	}
	return ExitDecision{}
}

// Evaluate runs the full exit chain: take-profit, hard cap, stop loss,
// trailing take-profit. The first rule that fires wins.
func (ee *ExitEvaluator) Evaluate(pos domain.Position, priceYes, priceNo float64, now time.Time) ExitDecision {
	if d := ee.ShouldTakeProfit(pos, priceYes, priceNo, now); d.ShouldExit {
		return d
	}

	for _, leg := range []struct {
		side  domain.Side
		price float64
	}{
		{domain.SideYes, priceYes},
		{domain.SideNo, priceNo},
	} {
		shares := pos.Shares(leg.side)
		if shares <= 0 {
			continue
		}
		pct := legProfitPct(shares, leg.price, pos.CostBasis(leg.side))

		// Hard cap: nothing left to earn above this price.
		if ee.params.HardCapPrice > 0 && leg.price >= ee.params.HardCapPrice {
			return ExitDecision{
				ShouldExit: true,
				Side:       leg.side,
				ProfitPct:  pct,
				Reason:     fmt.Sprintf("hard cap: %s at %.2f", leg.side, leg.price),
			}
		}

		// Stop loss.
		if ee.params.StopLossPct < 0 && pct <= ee.params.StopLossPct {
			return ExitDecision{
				ShouldExit: true,
				Side:       leg.side,
				ProfitPct:  pct,
				Reason:     fmt.Sprintf("stop loss: %s %.1f%%", leg.side, pct*100),
			}
		}

		// Trailing take-profit: arm once the trigger profit is reached, then
		// exit when the price retraces trail_pct from its post-arm peak.
		if ee.params.TrailTriggerPct > 0 && ee.params.TrailPct > 0 {
			key := pos.MarketID + "|" + string(leg.side)
			ee.mu.Lock()
			peak, armed := ee.peaks[key]
			if !armed && pct >= ee.params.TrailTriggerPct {
				ee.peaks[key] = leg.price
				armed, peak = true, leg.price
			} else if armed && leg.price > peak {
				ee.peaks[key] = leg.price
				peak = leg.price
			}
			ee.mu.Unlock()

			if armed && leg.price <= peak*(1-ee.params.TrailPct) {
				return ExitDecision{
					ShouldExit: true,
					Side:       leg.side,
					ProfitPct:  pct,
					Reason:     fmt.Sprintf("trailing take profit: %s peaked %.2f now %.2f", leg.side, peak, leg.price),
				}
			}
		}
	}
	return ExitDecision{}
}

// ClearMarket drops trailing state for a market after its position closes.
func (ee *ExitEvaluator) ClearMarket(marketID string) {
	ee.mu.Lock()
	defer ee.mu.Unlock()
	delete(ee.peaks, marketID+"|"+string(domain.SideYes))
	delete(ee.peaks, marketID+"|"+string(domain.SideNo))
}

// GenerateExitOrder builds the order that closes the position's held side in
// full at the current price. When both sides hold shares, YES is sold first.
// Returns false when the position is flat.
func (ee *ExitEvaluator) GenerateExitOrder(pos domain.Position, market domain.Market, priceYes, priceNo float64) (domain.ProposedOrder, bool) {
	side := domain.SideYes
	price := priceYes
	shares := pos.SharesYes
	if shares <= 0 {
		side = domain.SideNo
		price = priceNo
		shares = pos.SharesNo
	}
	if shares <= 0 || price <= 0 {
		return domain.ProposedOrder{}, false
	}

	o := domain.ProposedOrder{
		MarketID:       pos.MarketID,
		TokenID:        market.TokenID(side),
		Side:           side,
		Price:          price,
		SizeUSDC:       shares * price,
		Shares:         shares,
		Strategy:       domain.StrategyProfitTaking,
		StrategyDetail: "close full position",
		Confidence:     0.9,
		IsExit:         true,
	}
	return o, true
}
