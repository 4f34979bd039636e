// Package feed brings market data into the bot: a WebSocket feed for live
// price events, a midpoint poller as its fallback, and a poller for tracked
// traders' fills.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/platform/polymarket"
)

// PriceHandler receives every price observation, from either the WebSocket
// feed or the midpoint poller.
type PriceHandler func(ctx context.Context, tokenID string, price float64, ts time.Time)

// WSFeed connects to the CLOB WebSocket, subscribes to price events for the
// given asset IDs, and invokes the handler on each. It reconnects with a
// fixed delay on disconnect.
type WSFeed struct {
	wsURL     string
	assetIDs  []string
	onPrice   PriceHandler
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewWSFeed creates a feed for the given asset IDs.
func NewWSFeed(wsURL string, assetIDs []string, onPrice PriceHandler, logger *slog.Logger) *WSFeed {
	return &WSFeed{
		wsURL:    wsURL,
		assetIDs: assetIDs,
		onPrice:  onPrice,
		logger:   logger.With(slog.String("component", "ws_feed")),
		done:     make(chan struct{}),
	}
}

// Run connects and dispatches until ctx is cancelled or Close is called.
func (f *WSFeed) Run(ctx context.Context) error {
	if len(f.assetIDs) == 0 {
		f.logger.Info("no asset ids to subscribe, ws feed idle")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("ws feed disconnected, reconnecting", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *WSFeed) runConnection(ctx context.Context) error {
	client := polymarket.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnPrice(func(update polymarket.PriceUpdate) {
		if f.onPrice != nil {
			f.onPrice(ctx, update.AssetID, update.Price, update.Time)
		}
	})

	if err := client.Connect(ctx); err != nil {
		return err
	}
	if err := client.Subscribe([]string{"price_change", "last_trade_price"}, f.assetIDs); err != nil {
		return err
	}
	f.logger.Info("ws feed subscribed", slog.Int("assets", len(f.assetIDs)))

	return client.Wait(ctx)
}

// Close stops the feed.
func (f *WSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
