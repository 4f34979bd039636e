// Package executor turns risk-approved orders into fills. The only
// implementation is the paper executor, which simulates exchange behavior
// and keeps the position books; a live executor would satisfy the same
// interface.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// Executor executes one order and reports the outcome. Execute never returns
// an error: any failure is a result with Success=false and a REJECTED status,
// so callers can treat every invocation uniformly.
type Executor interface {
	Execute(ctx context.Context, order domain.Order) domain.ExecutionResult
}

// Promote stamps a risk-approved proposal with an identity and a timestamp,
// making it executable.
func Promote(p domain.ProposedOrder, now time.Time) domain.Order {
	return domain.Order{
		ProposedOrder: p,
		ID:            uuid.New().String(),
		Timestamp:     now,
	}
}
