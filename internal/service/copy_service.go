package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/copytradebot/internal/config"
	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// CopyService turns eligible tracked-trader fills into proposed orders of
// our own. Eligibility is deliberately narrow: only buys, only inside the
// configured price band, only above the whale-size floor, and only in live
// games when live_only is set. A copied entry may later earn one smaller
// add-on tranche when the price dips below the entry by the configured
// trigger.
type CopyService struct {
	cfg     config.CopyConfig
	wallets map[common.Address]bool
	logger  *slog.Logger
}

// NewCopyService creates a CopyService. Tracked wallet addresses are
// validated and normalized up front; an invalid address is a configuration
// error.
func NewCopyService(cfg config.CopyConfig, logger *slog.Logger) (*CopyService, error) {
	wallets := make(map[common.Address]bool, len(cfg.Wallets))
	for _, w := range cfg.Wallets {
		if !common.IsHexAddress(w) {
			return nil, fmt.Errorf("copy_service: invalid wallet address %q", w)
		}
		wallets[common.HexToAddress(w)] = true
	}
	return &CopyService{
		cfg:     cfg,
		wallets: wallets,
		logger:  logger.With(slog.String("component", "copy_service")),
	}, nil
}

// Tracks reports whether the wallet is on the copy list.
func (s *CopyService) Tracks(wallet string) bool {
	if !common.IsHexAddress(wallet) {
		return false
	}
	return s.wallets[common.HexToAddress(wallet)]
}

// Evaluate checks a tracked trader's fill against the copy rules and, when
// it qualifies, returns our scaled-down proposed order. The bool reports
// whether an order was produced.
func (s *CopyService) Evaluate(trade domain.WhaleTrade, market domain.Market, now time.Time) (domain.ProposedOrder, bool) {
	if !s.cfg.Enabled || !s.Tracks(trade.Wallet) {
		return domain.ProposedOrder{}, false
	}
	if trade.Side != domain.WhaleBuy {
		return domain.ProposedOrder{}, false
	}
	if trade.Price < s.cfg.MinPrice || trade.Price > s.cfg.MaxPrice {
		s.logger.Debug("whale fill outside price band",
			slog.String("market", trade.MarketID),
			slog.Float64("price", trade.Price),
		)
		return domain.ProposedOrder{}, false
	}
	if trade.Notional() < s.cfg.MinWhaleSize {
		return domain.ProposedOrder{}, false
	}
	if s.cfg.LiveOnly && !market.IsLive(now) {
		s.logger.Debug("whale fill skipped, game not live",
			slog.String("market", trade.MarketID),
			slog.String("slug", trade.Slug),
		)
		return domain.ProposedOrder{}, false
	}

	sizeUSDC := trade.Notional() * s.cfg.Multiplier
	if s.cfg.MaxOrderUSDC > 0 && sizeUSDC > s.cfg.MaxOrderUSDC {
		sizeUSDC = s.cfg.MaxOrderUSDC
	}
	if sizeUSDC < s.cfg.MinOrderUSDC {
		return domain.ProposedOrder{}, false
	}

	side := copySide(trade)
	o := domain.NewProposedOrder(trade.MarketID, trade.TokenID, side, trade.Price, sizeUSDC, domain.StrategyCopyTrade)
	o.StrategyDetail = fmt.Sprintf("copy %s", shortWallet(trade.Wallet))
	o.Confidence = 0.8

	s.logger.Info("copying whale fill",
		slog.String("market", trade.MarketID),
		slog.String("wallet", shortWallet(trade.Wallet)),
		slog.String("side", string(side)),
		slog.Float64("whale_usdc", trade.Notional()),
		slog.Float64("our_usdc", sizeUSDC),
	)
	return o, true
}

// EvaluateAdd checks whether a market with an open copy entry has dipped far
// enough below the entry price to earn its one add-on tranche. The add is
// sized as a fraction of the first tranche and fires at most once; the
// caller records the fill with MarkCopyAddFilled.
func (s *CopyService) EvaluateAdd(state domain.MarketState, market domain.Market) (domain.ProposedOrder, bool) {
	if !s.cfg.Enabled || !s.cfg.DCAEnabled {
		return domain.ProposedOrder{}, false
	}
	if state.CopyEntryPrice <= 0 || state.CopyAddFilled {
		return domain.ProposedOrder{}, false
	}

	price := state.Price(state.CopySide)
	if price <= 0 {
		return domain.ProposedOrder{}, false
	}
	drop := (price - state.CopyEntryPrice) / state.CopyEntryPrice
	if drop > s.cfg.DCATriggerPct {
		return domain.ProposedOrder{}, false
	}

	sizeUSDC := state.CopyEntryUSDC * s.cfg.DCASizeRatio
	if sizeUSDC < s.cfg.MinOrderUSDC {
		return domain.ProposedOrder{}, false
	}

	o := domain.NewProposedOrder(
		state.MarketID, market.TokenID(state.CopySide), state.CopySide,
		price, sizeUSDC, domain.StrategyCopyTrade)
	o.StrategyDetail = fmt.Sprintf("dca add %.1f%%", drop*100)
	o.Confidence = 0.7

	s.logger.Info("copy add on dip",
		slog.String("market", state.MarketID),
		slog.String("side", string(state.CopySide)),
		slog.Float64("entry", state.CopyEntryPrice),
		slog.Float64("price", price),
		slog.Float64("usdc", sizeUSDC),
	)
	return o, true
}

// copySide maps the whale's outcome to our order side. The outcome label
// wins; the outcome index is the fallback for markets with nonstandard
// labels.
func copySide(trade domain.WhaleTrade) domain.Side {
	switch strings.ToUpper(trade.Outcome) {
	case "YES":
		return domain.SideYes
	case "NO":
		return domain.SideNo
	}
	if trade.OutcomeIndex == 0 {
		return domain.SideYes
	}
	return domain.SideNo
}

func shortWallet(w string) string {
	if len(w) <= 10 {
		return w
	}
	return w[:6] + ".." + w[len(w)-4:]
}
