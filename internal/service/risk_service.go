// Package service holds the application services that sit between the
// strategy generators and the executor: the risk gate, the portfolio view,
// and the tracked-trader copy rules.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/copytradebot/internal/config"
	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// RiskParams holds the tunable limits for the pre-trade risk gate.
type RiskParams struct {
	Bankroll             float64
	MaxMarketExposurePct float64
	MinConfidence        float64
	MinOrderUSDC         float64
	MaxOrderUSDC         float64
}

// RiskParamsFromConfig assembles RiskParams from the config sections that
// carry them.
func RiskParamsFromConfig(s config.StrategyConfig, c config.CopyConfig) RiskParams {
	return RiskParams{
		Bankroll:             s.Bankroll,
		MaxMarketExposurePct: s.MaxMarketExposurePct,
		MinConfidence:        s.MinConfidence,
		MinOrderUSDC:         c.MinOrderUSDC,
		MaxOrderUSDC:         c.MaxOrderUSDC,
	}
}

// RiskService is the pre-trade gate every proposed order passes through
// before promotion. It rejects, passes through, or passes through with the
// size adjusted down to fit the remaining exposure headroom.
type RiskService struct {
	params RiskParams
	logger *slog.Logger
}

// NewRiskService creates a RiskService.
func NewRiskService(params RiskParams, logger *slog.Logger) *RiskService {
	return &RiskService{
		params: params,
		logger: logger.With(slog.String("component", "risk_service")),
	}
}

// Approve validates the order against the market's current exposure. It
// returns the order (possibly with SizeUSDC and Shares scaled down) or an
// error describing the first failed check. Exit orders only undergo sanity
// checks: closing a position never increases risk.
func (s *RiskService) Approve(ctx context.Context, order domain.ProposedOrder, state domain.MarketState) (domain.ProposedOrder, error) {
	if order.Price <= 0 || order.Price >= 1 {
		return order, fmt.Errorf("risk_service: price %.4f outside (0,1): %w", order.Price, domain.ErrInvalidOrder)
	}
	if order.SizeUSDC <= 0 {
		return order, fmt.Errorf("risk_service: non-positive size: %w", domain.ErrInvalidOrder)
	}
	if order.IsExit {
		return order, nil
	}

	if order.Confidence < s.params.MinConfidence {
		return order, fmt.Errorf("risk_service: confidence %.2f below minimum %.2f",
			order.Confidence, s.params.MinConfidence)
	}

	if s.params.MaxOrderUSDC > 0 && order.SizeUSDC > s.params.MaxOrderUSDC {
		order = resize(order, s.params.MaxOrderUSDC)
	}

	cap := s.params.Bankroll * s.params.MaxMarketExposurePct
	headroom := cap - state.Exposure(order.Side)
	if headroom <= 0 {
		s.logger.WarnContext(ctx, "order rejected, exposure cap reached",
			slog.String("market", order.MarketID),
			slog.String("side", string(order.Side)),
			slog.Float64("exposure", state.Exposure(order.Side)),
			slog.Float64("cap", cap),
		)
		return order, fmt.Errorf("risk_service: market %s %s exposure %.2f at cap %.2f",
			order.MarketID, order.Side, state.Exposure(order.Side), cap)
	}
	if order.SizeUSDC > headroom {
		s.logger.InfoContext(ctx, "order resized to exposure headroom",
			slog.String("market", order.MarketID),
			slog.Float64("requested", order.SizeUSDC),
			slog.Float64("headroom", headroom),
		)
		order = resize(order, headroom)
	}

	if s.params.MinOrderUSDC > 0 && order.SizeUSDC < s.params.MinOrderUSDC {
		return order, fmt.Errorf("risk_service: size %.2f below minimum order %.2f",
			order.SizeUSDC, s.params.MinOrderUSDC)
	}
	return order, nil
}

func resize(order domain.ProposedOrder, sizeUSDC float64) domain.ProposedOrder {
	order.SizeUSDC = sizeUSDC
	if order.Price > 0 {
		order.Shares = sizeUSDC / order.Price
	}
	return order
}
