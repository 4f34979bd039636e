package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// maxSeenTrades bounds the dedup set; beyond it the oldest entries are
// dropped wholesale.
const maxSeenTrades = 10000

// TradeSource fetches a wallet's recent fills. The data API client
// implements it.
type TradeSource interface {
	GetTrades(ctx context.Context, wallet string, limit int) ([]domain.WhaleTrade, error)
}

// WhaleHandler receives each previously unseen fill by a tracked trader.
type WhaleHandler func(ctx context.Context, trade domain.WhaleTrade)

// WhalePoller polls the data API for the tracked wallets' fills and hands
// every new one to the handler exactly once per process lifetime. Fills
// predating the poller's start are skipped so a restart does not replay
// stale history.
type WhalePoller struct {
	source   TradeSource
	wallets  []string
	interval time.Duration
	limit    int
	onTrade  WhaleHandler
	logger   *slog.Logger

	startedAt time.Time
	seen      map[string]bool
}

// NewWhalePoller creates a poller over the tracked wallets.
func NewWhalePoller(source TradeSource, wallets []string, interval time.Duration, onTrade WhaleHandler, logger *slog.Logger) *WhalePoller {
	return &WhalePoller{
		source:   source,
		wallets:  wallets,
		interval: interval,
		limit:    50,
		onTrade:  onTrade,
		logger:   logger.With(slog.String("component", "whale_poller")),
		seen:     make(map[string]bool),
	}
}

// Run polls until ctx is cancelled. The poller is single-goroutine; the seen
// set needs no lock.
func (p *WhalePoller) Run(ctx context.Context) error {
	p.startedAt = time.Now().UTC()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, wallet := range p.wallets {
				p.pollWallet(ctx, wallet)
			}
		}
	}
}

func (p *WhalePoller) pollWallet(ctx context.Context, wallet string) {
	trades, err := p.source.GetTrades(ctx, wallet, p.limit)
	if err != nil {
		p.logger.Warn("whale poll failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, trade := range trades {
		if p.seen[trade.ID] {
			continue
		}
		if trade.Timestamp.Before(p.startedAt) {
			p.remember(trade.ID)
			continue
		}
		p.remember(trade.ID)
		p.onTrade(ctx, trade)
	}
}

func (p *WhalePoller) remember(id string) {
	if len(p.seen) >= maxSeenTrades {
		p.seen = make(map[string]bool, maxSeenTrades)
	}
	p.seen[id] = true
}
