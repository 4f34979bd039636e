// Package engine runs the evaluation loop: price observations update the
// per-market state, the classifier assigns a regime, the selector picks a
// strategy, and surviving proposals flow through the risk gate into the
// executor. Whale fills enter through the same pipeline as copy proposals.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
	"github.com/alanyoungcy/copytradebot/internal/executor"
	"github.com/alanyoungcy/copytradebot/internal/regime"
	"github.com/alanyoungcy/copytradebot/internal/service"
	"github.com/alanyoungcy/copytradebot/internal/strategy"
)

// maxPriceHistory bounds the per-market window the classifier sees.
const maxPriceHistory = 120

// MarketResolver fetches market metadata for a condition ID the engine has
// not seen before. The Gamma client implements it.
type MarketResolver interface {
	GetMarketByCondition(ctx context.Context, conditionID string) (domain.Market, error)
}

// Watcher is notified when the engine starts tracking a market's tokens.
// The price poller and the WebSocket feed implement it.
type Watcher interface {
	Watch(tokenIDs ...string)
}

// Engine owns the per-market evaluation loop. All entry points serialize on
// one mutex: the loop is cheap and correctness is easier to see than with
// per-market locking at this layer.
type Engine struct {
	states     domain.MarketStateStore
	markets    domain.MarketStore
	positions  domain.PositionStore
	classifier *regime.Classifier
	selector   *strategy.Selector
	generators map[domain.StrategyType]strategy.Generator
	tail       *strategy.TailInsurance
	exits      *strategy.ExitEvaluator
	copySvc    *service.CopyService
	risk       *service.RiskService
	exec       executor.Executor
	resolver   MarketResolver
	watcher    Watcher
	bus        domain.EventBus
	logger     *slog.Logger

	dryRun bool
	clock  func() time.Time

	mu sync.Mutex
}

// Config bundles the engine's collaborators.
type Config struct {
	States     domain.MarketStateStore
	Markets    domain.MarketStore
	Positions  domain.PositionStore
	Classifier *regime.Classifier
	Selector   *strategy.Selector
	Generators []strategy.Generator
	Tail       *strategy.TailInsurance
	Exits      *strategy.ExitEvaluator
	Copy       *service.CopyService
	Risk       *service.RiskService
	Executor   executor.Executor
	Resolver   MarketResolver
	Watcher    Watcher
	Events     domain.EventBus
	Logger     *slog.Logger

	// DryRun evaluates and logs every proposal without executing. Track
	// mode runs with it set.
	DryRun bool
}

// New creates an Engine.
func New(cfg Config) *Engine {
	gens := make(map[domain.StrategyType]strategy.Generator, len(cfg.Generators))
	for _, g := range cfg.Generators {
		gens[g.Type()] = g
	}
	return &Engine{
		states:     cfg.States,
		markets:    cfg.Markets,
		positions:  cfg.Positions,
		classifier: cfg.Classifier,
		selector:   cfg.Selector,
		generators: gens,
		tail:       cfg.Tail,
		exits:      cfg.Exits,
		copySvc:    cfg.Copy,
		risk:       cfg.Risk,
		exec:       cfg.Executor,
		resolver:   cfg.Resolver,
		watcher:    cfg.Watcher,
		bus:        cfg.Events,
		logger:     cfg.Logger.With(slog.String("component", "engine")),
		dryRun:     cfg.DryRun,
		clock:      time.Now,
	}
}

// SetClock overrides the timestamp source. Tests use it.
func (e *Engine) SetClock(clock func() time.Time) {
	e.clock = clock
}

// OnPrice ingests one price observation for a token and runs the evaluation
// loop on its market. Tokens without a known market are dropped.
func (e *Engine) OnPrice(ctx context.Context, tokenID string, price float64, ts time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	market, err := e.markets.GetByTokenID(ctx, tokenID)
	if err != nil {
		return
	}

	priceYes := price
	if tokenID == market.NoTokenID {
		priceYes = 1 - price
	}
	priceNo := 1 - priceYes

	state, err := e.states.Get(ctx, market.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.logger.Error("state load failed", slog.String("market", market.ID), slog.String("error", err.Error()))
			return
		}
		state = domain.MarketState{MarketID: market.ID}
	}

	state = state.WithPrice(priceYes, priceNo, ts, maxPriceHistory)
	state = state.WithRegime(e.classifier.Classify(state, market, e.clock()))

	state = e.evaluate(ctx, market, state)

	if err := e.states.Put(ctx, state); err != nil {
		e.logger.Error("state save failed", slog.String("market", market.ID), slog.String("error", err.Error()))
	}
}

// OnWhaleTrade ingests one tracked trader's fill: resolve its market, start
// tracking it, and run the copy rules.
func (e *Engine) OnWhaleTrade(ctx context.Context, trade domain.WhaleTrade) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.copySvc == nil {
		return
	}

	market, err := e.ensureMarket(ctx, trade.MarketID)
	if err != nil {
		e.logger.Warn("whale fill dropped, market unresolved",
			slog.String("market", trade.MarketID),
			slog.String("error", err.Error()),
		)
		return
	}

	order, ok := e.copySvc.Evaluate(trade, market, e.clock())
	if !ok {
		return
	}

	state := e.loadState(ctx, market.ID)
	var filled bool
	state, filled = e.submit(ctx, order, state)
	if filled {
		state = state.MarkCopyEntry(order.Side, order.Price, order.SizeUSDC)
		e.publishEvent(ctx, "copy_entry", map[string]any{
			"market_id": market.ID,
			"side":      order.Side,
			"price":     order.Price,
			"size_usdc": order.SizeUSDC,
			"detail":    order.StrategyDetail,
		})
	}
	if err := e.states.Put(ctx, state); err != nil {
		e.logger.Error("state save failed", slog.String("market", market.ID), slog.String("error", err.Error()))
	}
}

// evaluate runs exits, the regime-selected generator, and the tail hedge
// against the state, executing whatever survives the risk gate. It returns
// the updated state.
func (e *Engine) evaluate(ctx context.Context, market domain.Market, state domain.MarketState) domain.MarketState {
	state = e.evaluateExits(ctx, market, state)

	strat := e.selector.Select(state.Regime)
	if gen, ok := e.generators[strat]; ok {
		for _, order := range gen.Generate(state, market) {
			state, _ = e.submit(ctx, order, state)
		}
	}

	if e.copySvc != nil {
		if order, ok := e.copySvc.EvaluateAdd(state, market); ok {
			var filled bool
			state, filled = e.submit(ctx, order, state)
			if filled {
				state = state.MarkCopyAddFilled()
				e.publishEvent(ctx, "copy_add", map[string]any{
					"market_id": market.ID,
					"side":      order.Side,
					"price":     order.Price,
					"size_usdc": order.SizeUSDC,
					"detail":    order.StrategyDetail,
				})
			}
		}
	}

	if e.tail != nil {
		for _, order := range e.tail.Generate(state, market) {
			var filled bool
			state, filled = e.submit(ctx, order, state)
			if filled {
				state = state.MarkTailActive()
				e.publishEvent(ctx, "tail_hedge", map[string]any{
					"market_id": market.ID,
					"side":      order.Side,
					"price":     order.Price,
					"size_usdc": order.SizeUSDC,
				})
			}
		}
	}
	return state
}

func (e *Engine) evaluateExits(ctx context.Context, market domain.Market, state domain.MarketState) domain.MarketState {
	if e.exits == nil {
		return state
	}
	pos, err := e.positions.Get(ctx, market.ID)
	if err != nil || pos.IsFlat() {
		return state
	}

	decision := e.exits.Evaluate(pos, state.LastPriceYes, state.LastPriceNo, e.clock())
	if !decision.ShouldExit {
		return state
	}
	e.logger.Info("exit triggered",
		slog.String("market", market.ID),
		slog.String("reason", decision.Reason),
		slog.Float64("profit_pct", decision.ProfitPct),
	)
	e.publishEvent(ctx, "exit_triggered", map[string]any{
		"market_id":  market.ID,
		"reason":     decision.Reason,
		"profit_pct": decision.ProfitPct,
	})

	order, ok := e.exits.GenerateExitOrder(pos, market, state.LastPriceYes, state.LastPriceNo)
	if !ok {
		return state
	}
	state, _ = e.submit(ctx, order, state)

	if pos, err := e.positions.Get(ctx, market.ID); err == nil && pos.IsFlat() {
		e.exits.ClearMarket(market.ID)
	}
	return state
}

// submit pushes one proposal through the risk gate and the executor, then
// reconciles the state's exposure and ladder bookkeeping with the outcome.
// The bool reports whether the order filled (or would have, in dry-run).
func (e *Engine) submit(ctx context.Context, order domain.ProposedOrder, state domain.MarketState) (domain.MarketState, bool) {
	approved, err := e.risk.Approve(ctx, order, state)
	if err != nil {
		e.logger.Debug("proposal rejected",
			slog.String("market", order.MarketID),
			slog.String("strategy", string(order.Strategy)),
			slog.String("error", err.Error()),
		)
		return state, false
	}

	if e.dryRun {
		e.logger.Info("dry run, order not executed",
			slog.String("market", approved.MarketID),
			slog.String("strategy", string(approved.Strategy)),
			slog.String("side", string(approved.Side)),
			slog.Float64("price", approved.Price),
			slog.Float64("size_usdc", approved.SizeUSDC),
			slog.Bool("exit", approved.IsExit),
		)
		e.publishEvent(ctx, "dry_run_proposal", map[string]any{
			"market_id": approved.MarketID,
			"strategy":  approved.Strategy,
			"side":      approved.Side,
			"price":     approved.Price,
			"size_usdc": approved.SizeUSDC,
			"is_exit":   approved.IsExit,
		})
		return e.recordFill(state, approved), true
	}

	result := e.exec.Execute(ctx, executor.Promote(approved, e.clock()))
	if !result.Success {
		return state, false
	}
	state = e.syncExposure(ctx, state)
	return e.recordFill(state, approved), true
}

// recordFill marks strategy bookkeeping that must survive across
// evaluations: ladder rungs fire once.
func (e *Engine) recordFill(state domain.MarketState, order domain.ProposedOrder) domain.MarketState {
	if order.Strategy == domain.StrategyLadderCompression {
		var rung int
		if _, err := fmt.Sscanf(order.StrategyDetail, "rung %d", &rung); err == nil {
			state = state.MarkLadderFilled(rung)
		}
	}
	return state
}

// syncExposure realigns the state's exposure with the position book after a
// fill. Exposure is the open cost basis per side.
func (e *Engine) syncExposure(ctx context.Context, state domain.MarketState) domain.MarketState {
	pos, err := e.positions.Get(ctx, state.MarketID)
	if err != nil {
		return state
	}
	state.ExposureYes = pos.CostBasisYes
	state.ExposureNo = pos.CostBasisNo
	return state
}

// publishEvent announces a strategy decision on the event bus. Publishing is
// observability only; failures are logged and dropped.
func (e *Engine) publishEvent(ctx context.Context, event string, fields map[string]any) {
	if e.bus == nil {
		return
	}
	fields["event"] = event
	fields["ts"] = e.clock()
	payload, err := json.Marshal(fields)
	if err != nil {
		return
	}
	if err := e.bus.Publish(ctx, domain.TopicStrategyEvent, payload); err != nil {
		e.logger.Warn("strategy event publish failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) loadState(ctx context.Context, marketID string) domain.MarketState {
	state, err := e.states.Get(ctx, marketID)
	if err != nil {
		return domain.MarketState{MarketID: marketID}
	}
	return state
}

// ensureMarket returns the market, resolving and registering it on first
// sight so the price feeds start covering it.
func (e *Engine) ensureMarket(ctx context.Context, marketID string) (domain.Market, error) {
	market, err := e.markets.GetByID(ctx, marketID)
	if err == nil {
		return market, nil
	}
	if !errors.Is(err, domain.ErrNotFound) || e.resolver == nil {
		return domain.Market{}, err
	}

	market, err = e.resolver.GetMarketByCondition(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	if err := e.markets.Upsert(ctx, market); err != nil {
		return domain.Market{}, err
	}
	if e.watcher != nil {
		e.watcher.Watch(market.YesTokenID, market.NoTokenID)
	}
	e.logger.Info("tracking new market",
		slog.String("market", market.ID),
		slog.String("slug", market.Slug),
	)
	return market, nil
}
