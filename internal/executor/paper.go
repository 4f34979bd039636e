package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

const (
	// fullFillProb is the chance a simulated order fills completely; the
	// remainder fill uniformly in [0.8, 1.0).
	fullFillProb = 0.90
	// minPartialRatio is the floor of a partial fill.
	minPartialRatio = 0.80
)

// DelayFunc simulates exchange latency before a fill. It should honor ctx
// cancellation.
type DelayFunc func(ctx context.Context) error

// FixedDelay returns a DelayFunc that sleeps for d, or returns early when the
// context is cancelled.
func FixedDelay(d time.Duration) DelayFunc {
	return func(ctx context.Context) error {
		return sleepCtx(ctx, d)
	}
}

// JitterDelay returns a DelayFunc that sleeps a uniformly random duration in
// [min, max] per call. A max at or below min collapses to FixedDelay(min).
func JitterDelay(min, max time.Duration) DelayFunc {
	if max <= min {
		return FixedDelay(min)
	}
	span := int64(max - min)
	return func(ctx context.Context) error {
		return sleepCtx(ctx, min+time.Duration(rand.Int63n(span+1)))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

/// Paper simulates order execution against the position books: it applies
// slippage and a randomized fill ratio, updates the per-market position,
// appends to the fill log, and announces the result on the event bus.
// Mutations for the same market are serialized so concurrent fills cannot
// interleave their read-modify-write cycles.
type Paper struct {
	positions domain.PositionStore
	trades    domain.TradeStore
	bus       domain.EventBus
	logger    *slog.Logger

	slippageBps float64
	delay       DelayFunc
	clock       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	marketMu sync.Mutex
	markets  map[string]*sync.Mutex
}

// PaperOption customizes a Paper executor.
type PaperOption func(*Paper)

// WithDelay overrides the simulated latency. Tests pass a no-op.
func WithDelay(d DelayFunc) PaperOption {
	return func(p *Paper) { p.delay = d }
}

// WithRand overrides the fill-ratio source with a seeded generator for
// deterministic runs.
func WithRand(r *rand.Rand) PaperOption {
	return func(p *Paper) { p.rng = r }
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) PaperOption {
	return func(p *Paper) { p.clock = clock }
}

// NewPaper creates the paper executor. The event bus may be nil; publishes
// are then skipped.
func NewPaper(
	positions domain.PositionStore,
	trades domain.TradeStore,
	bus domain.EventBus,
	slippageBps float64,
	logger *slog.Logger,
	opts ...PaperOption,
) *Paper {
	p := &Paper{
		positions:   positions,
		trades:      trades,
		bus:         bus,
		logger:      logger.With(slog.String("component", "paper_executor")),
		slippageBps: slippageBps,
		delay:       FixedDelay(150 * time.Millisecond),
		clock:       time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		markets:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute simulates filling the order. Entries pay slippage above the quoted
// price, exits receive slippage below it. The returned result is terminal;
// failures come back as REJECTED results, never as panics or errors.
func (p *Paper) Execute(ctx context.Context, order domain.Order) domain.ExecutionResult {
	if order.Price <= 0 || order.Price >= 1 || order.Shares <= 0 {
		return p.reject(order, fmt.Sprintf("invalid order: price=%.4f shares=%.4f", order.Price, order.Shares))
	}

	if err := p.delay(ctx); err != nil {
		return p.reject(order, fmt.Sprintf("cancelled before fill: %v", err))
	}

	fillPrice := p.fillPrice(order)
	ratio := p.fillRatio()
	filledShares := order.Shares * ratio
	filledUSDC := filledShares * fillPrice

	mu := p.marketLock(order.MarketID)
	mu.Lock()
	defer mu.Unlock()

	var realized float64
	pos, err := p.positions.Upsert(ctx, order.MarketID, func(cur domain.Position) domain.Position {
		realized = 0
		if order.IsExit {
			next, r := cur.ApplyExit(order.Side, filledShares, filledUSDC, p.clock())
			realized = r
			return next
		}
		return cur.ApplyEntry(order.Side, filledShares, filledUSDC, p.clock())
	})
	if err != nil {
		return p.reject(order, fmt.Sprintf("position upsert: %v", err))
	}

	now := p.clock()
	status := domain.ExecStatusFilled
	if ratio < 1 {
		status = domain.ExecStatusPartial
	}
	result := domain.ExecutionResult{
		Success:      true,
		Order:        order,
		Status:       status,
		FilledShares: filledShares,
		FilledPrice:  fillPrice,
		FilledUSDC:   filledUSDC,
		Slippage:     (fillPrice - order.Price) / order.Price,
		Timestamp:    now,
	}

	rec := domain.TradeRecord{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		MarketID:  order.MarketID,
		TokenID:   order.TokenID,
		Side:      order.Side,
		Strategy:  order.Strategy,
		Price:     fillPrice,
		Shares:    filledShares,
		USDC:      filledUSDC,
		Slippage:  result.Slippage,
		IsExit:    order.IsExit,
		Status:    status,
		CreatedAt: now,
	}
	if err := p.trades.Append(ctx, rec); err != nil {
		// The position already moved; log loudly but do not fail the fill.
		p.logger.Error("fill log append failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	p.publish(ctx, result, pos, realized)

	p.logger.Info("paper fill",
		slog.String("market", order.MarketID),
		slog.String("side", string(order.Side)),
		slog.String("strategy", string(order.Strategy)),
		slog.String("status", string(status)),
		slog.Float64("shares", filledShares),
		slog.Float64("price", fillPrice),
		slog.Bool("exit", order.IsExit),
		slog.Float64("realized", realized),
	)
	return result
}

// fillPrice applies slippage in the direction that hurts: entries pay up,
// exits receive less.
func (p *Paper) fillPrice(order domain.Order) float64 {
	mult := 1 + p.slippageBps/10000
	if order.IsExit {
		mult = 1 - p.slippageBps/10000
	}
	price := order.Price * mult
	if price >= 1 {
		price = 0.9999
	}
	if price <= 0 {
		price = 0.0001
	}
	return price
}

func (p *Paper) fillRatio() float64 {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	if p.rng.Float64() < fullFillProb {
		return 1.0
	}
	return minPartialRatio + (1-minPartialRatio)*p.rng.Float64()
}

func (p *Paper) marketLock(marketID string) *sync.Mutex {
	p.marketMu.Lock()
	defer p.marketMu.Unlock()
	mu, ok := p.markets[marketID]
	if !ok {
		mu = &sync.Mutex{}
		p.markets[marketID] = mu
	}
	return mu
}

func (p *Paper) reject(order domain.Order, reason string) domain.ExecutionResult {
	p.logger.Warn("order rejected",
		slog.String("order_id", order.ID),
		slog.String("market", order.MarketID),
		slog.String("reason", reason),
	)
	return domain.ExecutionResult{
		Success:     false,
		Order:       order,
		Status:      domain.ExecStatusRejected,
		FilledPrice: order.Price,
		Error:       reason,
		Timestamp:   p.clock(),
	}
}

// publish announces the execution and the updated position. Failures are
// logged and swallowed: the bus is observability, not bookkeeping.
func (p *Paper) publish(ctx context.Context, result domain.ExecutionResult, pos domain.Position, realized float64) {
	if p.bus == nil {
		return
	}

	if payload, err := json.Marshal(executionEvent(result)); err == nil {
		if err := p.bus.Publish(ctx, domain.TopicExecutionResult, payload); err != nil {
			p.logger.Warn("execution event publish failed", slog.String("error", err.Error()))
		}
	}
	if payload, err := json.Marshal(positionEvent(pos, realized)); err == nil {
		if err := p.bus.Publish(ctx, domain.TopicPositionUpdate, payload); err != nil {
			p.logger.Warn("position event publish failed", slog.String("error", err.Error()))
		}
	}
}

func executionEvent(r domain.ExecutionResult) map[string]any {
	return map[string]any{
		"order_id":      r.Order.ID,
		"market_id":     r.Order.MarketID,
		"side":          r.Order.Side,
		"strategy":      r.Order.Strategy,
		"status":        r.Status,
		"filled_shares": r.FilledShares,
		"filled_price":  r.FilledPrice,
		"filled_usdc":   r.FilledUSDC,
		"slippage":      r.Slippage,
		"is_exit":       r.Order.IsExit,
		"ts":            r.Timestamp,
	}
}

func positionEvent(pos domain.Position, realized float64) map[string]any {
	return map[string]any{
		"market_id":      pos.MarketID,
		"shares_yes":     pos.SharesYes,
		"shares_no":      pos.SharesNo,
		"cost_basis_yes": pos.CostBasisYes,
		"cost_basis_no":  pos.CostBasisNo,
		"realized_pnl":   pos.RealizedPnL,
		"realized_delta": realized,
		"updated_at":     pos.UpdatedAt,
	}
}
