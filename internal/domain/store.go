package domain

import (
	"context"
	"time"
)

// PositionMutation transforms a position during an upsert. It must be pure:
// the store may call it more than once when retrying a create race.
type PositionMutation func(Position) Position

// PositionStore persists per-market positions. Upsert creates the position
// when absent and applies the mutation atomically with respect to concurrent
// fills on the same market; a create race must be retried transparently as an
// update rather than surfaced to the caller.
type PositionStore interface {
	Get(ctx context.Context, marketID string) (Position, error)
	Upsert(ctx context.Context, marketID string, mutate PositionMutation) (Position, error)
	List(ctx context.Context) ([]Position, error)
}

// TradeStore persists the append-only fill log.
type TradeStore interface {
	Append(ctx context.Context, rec TradeRecord) error
	ListBefore(ctx context.Context, before time.Time) ([]TradeRecord, error)
	ListByMarket(ctx context.Context, marketID string, limit int) ([]TradeRecord, error)
}

// MarketStateStore holds the per-market tracking records. Paper mode uses an
// in-memory implementation; the interface exists so reconciliation tooling
// can swap in a persistent one.
type MarketStateStore interface {
	Get(ctx context.Context, marketID string) (MarketState, error)
	Put(ctx context.Context, state MarketState) error
	List(ctx context.Context) ([]MarketState, error)
}

// MarketStore persists market metadata.
type MarketStore interface {
	Upsert(ctx context.Context, market Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	GetByTokenID(ctx context.Context, tokenID string) (Market, error)
}
