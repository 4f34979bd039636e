package domain

import (
	"context"
	"time"
)

// Event topics published by the core. Consumers (dashboard, logs) subscribe;
// the core never blocks on subscriber behavior and offers at-most-once
// delivery.
const (
	TopicExecutionResult = "execution:result"
	TopicPositionUpdate  = "position:update"
	TopicStrategyEvent   = "strategy:event"
)

// EventBus is the publish-only sink the core uses to announce state changes.
// Publish is fire-and-forget: implementations may drop on error and callers
// must not treat a publish failure as an execution failure.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// PriceCache provides fast access to the latest prices per token.
type PriceCache interface {
	SetPrice(ctx context.Context, tokenID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, tokenID string) (float64, time.Time, error)
	GetPrices(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}
