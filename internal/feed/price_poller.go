package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MidpointSource fetches midpoint prices for a batch of tokens. The CLOB
// client implements it.
type MidpointSource interface {
	GetMidpoints(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}

// PricePoller polls midpoint prices for the watched tokens on a fixed
// interval. It backs up the WebSocket feed: when the socket drops, polling
// keeps the regime classifier and the exit evaluator supplied with prices.
type PricePoller struct {
	source   MidpointSource
	interval time.Duration
	onPrice  PriceHandler
	logger   *slog.Logger

	mu     sync.RWMutex
	tokens map[string]bool
}

// NewPricePoller creates a poller. Tokens are added with Watch as markets
// enter tracking.
func NewPricePoller(source MidpointSource, interval time.Duration, onPrice PriceHandler, logger *slog.Logger) *PricePoller {
	return &PricePoller{
		source:   source,
		interval: interval,
		onPrice:  onPrice,
		logger:   logger.With(slog.String("component", "price_poller")),
		tokens:   make(map[string]bool),
	}
}

// Watch adds token IDs to the poll set.
func (p *PricePoller) Watch(tokenIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range tokenIDs {
		if id != "" {
			p.tokens[id] = true
		}
	}
}

// Unwatch removes token IDs from the poll set.
func (p *PricePoller) Unwatch(tokenIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range tokenIDs {
		delete(p.tokens, id)
	}
}

// Run polls until ctx is cancelled.
func (p *PricePoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *PricePoller) poll(ctx context.Context) {
	p.mu.RLock()
	tokenIDs := make([]string, 0, len(p.tokens))
	for id := range p.tokens {
		tokenIDs = append(tokenIDs, id)
	}
	p.mu.RUnlock()

	if len(tokenIDs) == 0 {
		return
	}

	prices, err := p.source.GetMidpoints(ctx, tokenIDs)
	if err != nil {
		p.logger.Warn("midpoint poll failed",
			slog.Int("tokens", len(tokenIDs)),
			slog.String("error", err.Error()),
		)
		return
	}

	now := time.Now().UTC()
	for tokenID, price := range prices {
		if price <= 0 || price >= 1 {
			continue
		}
		p.onPrice(ctx, tokenID, price, now)
	}
}
