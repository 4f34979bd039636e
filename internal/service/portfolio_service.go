package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// PortfolioService derives the aggregate portfolio view from the position
// books and the latest tracked prices. The view is computed on demand and
// never persisted.
type PortfolioService struct {
	positions domain.PositionStore
	states    domain.MarketStateStore
	bankroll  float64
	logger    *slog.Logger
}

// NewPortfolioService creates a PortfolioService. bankroll is the starting
// cash the paper book was seeded with.
func NewPortfolioService(
	positions domain.PositionStore,
	states domain.MarketStateStore,
	bankroll float64,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		positions: positions,
		states:    states,
		bankroll:  bankroll,
		logger:    logger.With(slog.String("component", "portfolio_service")),
	}
}

// Snapshot returns the current portfolio state. Cash is the bankroll minus
// open cost basis plus realized profits; positions are marked to the last
// tracked prices, falling back to cost when a market has no state yet.
func (s *PortfolioService) Snapshot(ctx context.Context) (domain.PortfolioState, error) {
	positions, err := s.positions.List(ctx)
	if err != nil {
		return domain.PortfolioState{}, fmt.Errorf("portfolio_service: list positions: %w", err)
	}

	out := domain.PortfolioState{
		CashBalance: s.bankroll,
		Positions:   make(map[string]domain.Position, len(positions)),
	}

	for _, pos := range positions {
		priceYes := pos.AvgEntryYes
		priceNo := pos.AvgEntryNo
		if state, err := s.states.Get(ctx, pos.MarketID); err == nil {
			priceYes, priceNo = state.LastPriceYes, state.LastPriceNo
		}
		marked := pos.MarkToMarket(priceYes, priceNo)

		out.Positions[pos.MarketID] = marked
		out.CashBalance -= marked.CostBasisYes + marked.CostBasisNo
		out.CashBalance += marked.RealizedPnL
		out.UnrealizedPnL += marked.UnrealizedPnL
		out.RealizedPnL += marked.RealizedPnL
		out.TotalValue += marked.SharesYes*priceYes + marked.SharesNo*priceNo
	}
	out.TotalValue += out.CashBalance
	return out, nil
}
