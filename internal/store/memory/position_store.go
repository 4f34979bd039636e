// Package memory provides map-backed store implementations. Paper mode runs
// on these by default; the Postgres stores take over when persistence is
// configured.
package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// PositionStore keeps positions in a mutex-guarded map.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[string]domain.Position
}

// NewPositionStore creates an empty PositionStore.
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[string]domain.Position)}
}

// Get returns the position for the market, or domain.ErrNotFound.
func (s *PositionStore) Get(_ context.Context, marketID string) (domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[marketID]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return pos, nil
}

// Upsert applies the mutation to the stored position, creating an empty one
// first when the market has never traded. The map lock makes the
// read-modify-write atomic, so no create race exists here.
func (s *PositionStore) Upsert(_ context.Context, marketID string, mutate domain.PositionMutation) (domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.positions[marketID]
	if !ok {
		cur = domain.Position{MarketID: marketID}
	}
	next := mutate(cur)
	next.MarketID = marketID
	s.positions[marketID] = next
	return next, nil
}

// List returns all positions in unspecified order.
func (s *PositionStore) List(_ context.Context) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	return out, nil
}
