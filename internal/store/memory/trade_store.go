package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// TradeStore keeps the fill log in an append-only slice.
type TradeStore struct {
	mu      sync.RWMutex
	records []domain.TradeRecord
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{}
}

// Append adds a fill to the log.
func (s *TradeStore) Append(_ context.Context, rec domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// ListBefore returns fills recorded strictly before the cutoff, oldest first.
func (s *TradeStore) ListBefore(_ context.Context, before time.Time) ([]domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TradeRecord
	for _, rec := range s.records {
		if rec.CreatedAt.Before(before) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListByMarket returns the market's fills, newest first, capped at limit.
// A non-positive limit returns everything.
func (s *TradeStore) ListByMarket(_ context.Context, marketID string, limit int) ([]domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TradeRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].MarketID != marketID {
			continue
		}
		out = append(out, s.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
