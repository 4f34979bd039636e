package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// Subscriber is the event-bus read side the alert loop consumes.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
}

// Alerts bridges execution events to operator notifications. It subscribes
// to the fill stream and forwards a formatted alert per event, tagged with
// an event type ("fill", "exit", "reject") the notifier can filter on.
type Alerts struct {
	sub      Subscriber
	notifier *Notifier
	logger   *slog.Logger
}

// NewAlerts creates the alert loop.
func NewAlerts(sub Subscriber, notifier *Notifier, logger *slog.Logger) *Alerts {
	return &Alerts{
		sub:      sub,
		notifier: notifier,
		logger:   logger.With("component", "alerts"),
	}
}

// executionAlert mirrors the fields of the published execution event that
// the alert text needs.
type executionAlert struct {
	MarketID     string  `json:"market_id"`
	Side         string  `json:"side"`
	Strategy     string  `json:"strategy"`
	Status       string  `json:"status"`
	FilledShares float64 `json:"filled_shares"`
	FilledPrice  float64 `json:"filled_price"`
	FilledUSDC   float64 `json:"filled_usdc"`
	IsExit       bool    `json:"is_exit"`
}

// Run consumes execution events until the context is cancelled.
func (a *Alerts) Run(ctx context.Context) error {
	events, err := a.sub.Subscribe(ctx, domain.TopicExecutionResult)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", domain.TopicExecutionResult, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-events:
			if !ok {
				return nil
			}
			a.handle(ctx, payload)
		}
	}
}

func (a *Alerts) handle(ctx context.Context, payload []byte) {
	var ev executionAlert
	if err := json.Unmarshal(payload, &ev); err != nil {
		a.logger.Warn("undecodable execution event", "error", err)
		return
	}

	event, title := classify(ev)
	message := fmt.Sprintf("%s %s %.2f shares @ %.4f ($%.2f) via %s",
		ev.MarketID, ev.Side, ev.FilledShares, ev.FilledPrice, ev.FilledUSDC,
		strings.ToLower(ev.Strategy))

	if err := a.notifier.Notify(ctx, event, title, message); err != nil {
		a.logger.Warn("alert delivery failed", "event", event, "error", err)
	}
}

func classify(ev executionAlert) (event, title string) {
	switch {
	case ev.Status == string(domain.ExecStatusRejected):
		return "reject", "Order rejected"
	case ev.IsExit:
		return "exit", "Position exit"
	default:
		return "fill", "Order filled"
	}
}
