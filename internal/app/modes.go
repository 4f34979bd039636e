package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/copytradebot/internal/domain"
	"github.com/alanyoungcy/copytradebot/internal/engine"
	"github.com/alanyoungcy/copytradebot/internal/executor"
	"github.com/alanyoungcy/copytradebot/internal/feed"
	"github.com/alanyoungcy/copytradebot/internal/notify"
	"github.com/alanyoungcy/copytradebot/internal/regime"
	"github.com/alanyoungcy/copytradebot/internal/server"
	"github.com/alanyoungcy/copytradebot/internal/server/handler"
	"github.com/alanyoungcy/copytradebot/internal/server/ws"
	"github.com/alanyoungcy/copytradebot/internal/service"
	"github.com/alanyoungcy/copytradebot/internal/strategy"
)

const (
	seedMarketLimit     = 100
	portfolioLogPeriod  = 5 * time.Minute
	archiveSweepPeriod  = time.Hour
	whalePollMultiplier = 3
)

// PaperMode runs the full loop: feeds, strategies, simulated execution, and
// persistent accounting.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode")
	return a.run(ctx, deps, false)
}

// TrackMode runs the same loop with a dry-run engine: every proposal is
// evaluated and logged but never executed.
func (a *App) TrackMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting track mode")
	return a.run(ctx, deps, true)
}

func (a *App) run(ctx context.Context, deps *Dependencies, dryRun bool) error {
	g, ctx := errgroup.WithContext(ctx)

	// Strategies.
	params := strategy.ParamsFromConfig(a.cfg.Strategy)
	policy, err := strategy.PolicyFromName(a.cfg.Strategy.SelectorPolicy)
	if err != nil {
		return err
	}
	selector := strategy.NewSelector(policy, a.logger)
	generators := []strategy.Generator{
		strategy.NewLadderCompression(params, a.logger),
		strategy.NewVolatilityAbsorption(params, a.logger),
	}
	tail := strategy.NewTailInsurance(params, a.logger)
	exits := strategy.NewExitEvaluator(params, a.logger)
	classifier := regime.NewClassifier(regime.Thresholds{}, a.logger)

	// Services.
	var copySvc *service.CopyService
	if a.cfg.Copy.Enabled {
		copySvc, err = service.NewCopyService(a.cfg.Copy, a.logger)
		if err != nil {
			return err
		}
	}
	risk := service.NewRiskService(
		service.RiskParamsFromConfig(a.cfg.Strategy, a.cfg.Copy), a.logger)
	portfolio := service.NewPortfolioService(
		deps.Positions, deps.States, a.cfg.Strategy.Bankroll, a.logger)

	// Dependencies holds the bus as its concrete type; leave the interface
	// nil rather than wrapping a nil pointer.
	var bus domain.EventBus
	if deps.EventBus != nil {
		bus = deps.EventBus
	}

	latency := executor.JitterDelay(
		time.Duration(a.cfg.Strategy.LatencyMinMs)*time.Millisecond,
		time.Duration(a.cfg.Strategy.LatencyMaxMs)*time.Millisecond,
	)
	paper := executor.NewPaper(
		deps.Positions, deps.Trades, bus,
		a.cfg.Strategy.SlippageBps, a.logger,
		executor.WithDelay(latency))

	// Price poller doubles as the engine's watch registry for markets
	// discovered from whale fills at runtime.
	pollInterval := time.Duration(a.cfg.Feed.PollIntervalSec) * time.Second
	var eng *engine.Engine
	onPrice := func(ctx context.Context, tokenID string, price float64, ts time.Time) {
		if deps.PriceCache != nil {
			if err := deps.PriceCache.SetPrice(ctx, tokenID, price, ts); err != nil {
				a.logger.Debug("price cache set failed", slog.String("error", err.Error()))
			}
		}
		eng.OnPrice(ctx, tokenID, price, ts)
	}
	poller := feed.NewPricePoller(deps.Clob, pollInterval, onPrice, a.logger)

	eng = engine.New(engine.Config{
		States:     deps.States,
		Markets:    deps.Markets,
		Positions:  deps.Positions,
		Classifier: classifier,
		Selector:   selector,
		Generators: generators,
		Tail:       tail,
		Exits:      exits,
		Copy:       copySvc,
		Risk:       risk,
		Executor:   paper,
		Resolver:   deps.Gamma,
		Watcher:    poller,
		Events:     bus,
		Logger:     a.logger,
		DryRun:     dryRun,
	})

	// Seed the watch list with currently active markets so prices flow
	// before the first whale fill.
	tokenIDs := a.seedMarkets(ctx, deps)
	poller.Watch(tokenIDs...)

	g.Go(func() error {
		return poller.Run(ctx)
	})

	if a.cfg.Feed.WsHost != "" && len(tokenIDs) > 0 {
		wsFeed := feed.NewWSFeed(a.cfg.Feed.WsHost, tokenIDs, onPrice, a.logger)
		g.Go(func() error {
			defer wsFeed.Close()
			return wsFeed.Run(ctx)
		})
	}

	if copySvc != nil {
		whalePoller := feed.NewWhalePoller(
			deps.Data, a.cfg.Copy.Wallets,
			pollInterval*whalePollMultiplier,
			eng.OnWhaleTrade, a.logger)
		g.Go(func() error {
			return whalePoller.Run(ctx)
		})
	}

	if deps.EventBus != nil {
		alerts := notify.NewAlerts(deps.EventBus, deps.Notifier, a.logger)
		g.Go(func() error {
			return alerts.Run(ctx)
		})
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.archiveLoop(ctx, deps.Archiver)
		})
	}

	g.Go(func() error {
		return a.portfolioLoop(ctx, portfolio)
	})

	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, portfolio)
	}

	return g.Wait()
}

// startServer adds the dashboard API goroutines to the group: the HTTP
// listener, a shutdown watcher, and the WebSocket hub when events flow.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, portfolio *service.PortfolioService) {
	var hub *ws.Hub
	if deps.EventBus != nil {
		hub = ws.NewHub(deps.EventBus, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	var priceHandler *handler.PriceHandler
	if deps.PriceCache != nil {
		priceHandler = handler.NewPriceHandler(deps.PriceCache, a.logger)
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		},
		server.Handlers{
			Status:    handler.NewStatusHandler(a.cfg.Mode, a.cfg.Strategy.SelectorPolicy, time.Now().UTC()),
			Positions: handler.NewPositionHandler(deps.Positions, portfolio, a.logger),
			Trades:    handler.NewTradeHandler(deps.Trades, a.logger),
			States:    handler.NewStateHandler(deps.States, a.logger),
			Prices:    priceHandler,
		},
		hub,
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// seedMarkets loads the currently active markets, records them in the market
// store, and returns their outcome token IDs.
func (a *App) seedMarkets(ctx context.Context, deps *Dependencies) []string {
	markets, err := deps.Gamma.GetActiveMarkets(ctx, seedMarketLimit, 0)
	if err != nil {
		a.logger.WarnContext(ctx, "active market seed failed",
			slog.String("error", err.Error()))
		return nil
	}

	var tokenIDs []string
	for _, m := range markets {
		if m.YesTokenID == "" || m.NoTokenID == "" {
			continue
		}
		if err := deps.Markets.Upsert(ctx, m); err != nil {
			a.logger.Warn("market upsert failed",
				slog.String("market", m.ID),
				slog.String("error", err.Error()))
			continue
		}
		tokenIDs = append(tokenIDs, m.YesTokenID, m.NoTokenID)
	}

	a.logger.InfoContext(ctx, "seeded active markets",
		slog.Int("markets", len(markets)),
		slog.Int("tokens", len(tokenIDs)))
	return tokenIDs
}

// archiveLoop periodically exports fills older than the configured retention
// window to object storage.
func (a *App) archiveLoop(ctx context.Context, archiver domain.Archiver) error {
	retention := time.Duration(a.cfg.S3.ArchiveAfterH) * time.Hour
	if retention <= 0 {
		retention = 72 * time.Hour
	}

	ticker := time.NewTicker(archiveSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, err := archiver.ArchiveTrades(ctx, time.Now().Add(-retention))
			if err != nil {
				a.logger.Warn("trade archive sweep failed",
					slog.String("error", err.Error()))
			} else if count > 0 {
				a.logger.Info("trade archive sweep",
					slog.Int64("archived", count))
			}
		}
	}
}

// portfolioLoop logs a portfolio snapshot on a fixed cadence.
func (a *App) portfolioLoop(ctx context.Context, portfolio *service.PortfolioService) error {
	ticker := time.NewTicker(portfolioLogPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap, err := portfolio.Snapshot(ctx)
			if err != nil {
				a.logger.Warn("portfolio snapshot failed",
					slog.String("error", err.Error()))
				continue
			}
			a.logger.Info("portfolio",
				slog.Float64("cash", snap.CashBalance),
				slog.Float64("total_value", snap.TotalValue),
				slog.Float64("unrealized_pnl", snap.UnrealizedPnL),
				slog.Float64("realized_pnl", snap.RealizedPnL),
				slog.Int("positions", len(snap.Positions)),
			)
		}
	}
}
