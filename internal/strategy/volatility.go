package strategy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

const (
	// imbalanceTiltPrice: only tilt toward the underweighted side while it is
	// still cheap.
	imbalanceTiltPrice = 0.40
	// contrarianPrice: a side below this with zero exposure gets a
	// contrarian bid.
	contrarianPrice = 0.35
)

// VolatilityAbsorption places small balanced bids around the 0.5 midpoint in
// choppy markets, tilting toward whichever side the book is underweight and
// taking contrarian entries on deeply discounted sides it holds nothing of.
type VolatilityAbsorption struct {
	params Params
	logger *slog.Logger
}

// NewVolatilityAbsorption creates the generator.
func NewVolatilityAbsorption(params Params, logger *slog.Logger) *VolatilityAbsorption {
	return &VolatilityAbsorption{
		params: params,
		logger: logger.With(slog.String("strategy", "volatility_absorption")),
	}
}

// Type returns the strategy identifier.
func (va *VolatilityAbsorption) Type() domain.StrategyType {
	return domain.StrategyVolatilityAbsorption
}

// Generate evaluates the market and returns zero or more proposed orders.
// Base unit size is a quarter of the per-market exposure cap.
func (va *VolatilityAbsorption) Generate(state domain.MarketState, market domain.Market) []domain.ProposedOrder {
	priceYes := state.LastPriceYes
	priceNo := state.LastPriceNo
	if priceYes <= 0 || priceYes >= 1 || priceNo <= 0 || priceNo >= 1 {
		return nil
	}

	baseSize := va.params.MaxMarketExposure() / 4
	var orders []domain.ProposedOrder

	if priceYes >= va.params.VolatilityAbsorptionPriceMin && priceYes <= va.params.VolatilityAbsorptionPriceMax {
		// Inside the absorption zone: buy whichever side is cheaper.
		side := domain.SideYes
		price := priceYes
		if priceYes > 0.5 {
			side = domain.SideNo
			price = priceNo
		}
		orders = append(orders, va.order(state, market, side, price, baseSize, "absorption zone"))
	} else {
		// Outside the zone: correct a large exposure imbalance while the
		// underweighted side is still cheap.
		imbalance := state.ExposureYes - state.ExposureNo
		if math.Abs(imbalance) > 2*baseSize {
			side := domain.SideYes
			if imbalance > 0 {
				side = domain.SideNo
			}
			price := state.Price(side)
			if price > 0 && price < imbalanceTiltPrice {
				orders = append(orders, va.order(state, market, side, price, 0.5*baseSize,
					fmt.Sprintf("imbalance tilt %.2f", imbalance)))
			}
		}
	}

	// Contrarian entries fire independently of the zone logic: a side whose
	// price collapsed below 0.35 while we hold nothing on it. Both sides may
	// qualify in the same evaluation.
	for _, side := range []domain.Side{domain.SideYes, domain.SideNo} {
		price := state.Price(side)
		if price < contrarianPrice && state.Exposure(side) == 0 {
			orders = append(orders, va.order(state, market, side, price, 0.75*baseSize, "contrarian"))
		}
	}

	if len(orders) > 0 {
		va.logger.Debug("volatility absorption proposals",
			slog.String("market", state.MarketID),
			slog.Int("orders", len(orders)),
			slog.Float64("price_yes", priceYes),
		)
	}
	return orders
}

func (va *VolatilityAbsorption) order(state domain.MarketState, market domain.Market, side domain.Side, price, sizeUSDC float64, detail string) domain.ProposedOrder {
	o := domain.NewProposedOrder(state.MarketID, market.TokenID(side), side, price, sizeUSDC, domain.StrategyVolatilityAbsorption)
	o.StrategyDetail = detail
	o.Confidence = absorptionConfidence(price)
	return o
}

// absorptionConfidence decreases as the entry price rises: cheap contracts
// carry more edge per dollar. Capped at 0.9.
func absorptionConfidence(price float64) float64 {
	return math.Min(1-price+0.2, 0.9)
}
