package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// MarketStateStore keeps per-market tracking records in memory.
type MarketStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.MarketState
}

// NewMarketStateStore creates an empty MarketStateStore.
func NewMarketStateStore() *MarketStateStore {
	return &MarketStateStore{states: make(map[string]domain.MarketState)}
}

// Get returns the state for the market, or domain.ErrNotFound.
func (s *MarketStateStore) Get(_ context.Context, marketID string) (domain.MarketState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[marketID]
	if !ok {
		return domain.MarketState{}, domain.ErrNotFound
	}
	return state, nil
}

// Put replaces the state for its market.
func (s *MarketStateStore) Put(_ context.Context, state domain.MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.MarketID] = state
	return nil
}

// List returns all tracked states in unspecified order.
func (s *MarketStateStore) List(_ context.Context) ([]domain.MarketState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.MarketState, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, state)
	}
	return out, nil
}

// MarketStore keeps market metadata in memory, indexed by id and token.
type MarketStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.Market
	byToken map[string]string
}

// NewMarketStore creates an empty MarketStore.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		byID:    make(map[string]domain.Market),
		byToken: make(map[string]string),
	}
}

// Upsert stores the market and refreshes its token index entries.
func (s *MarketStore) Upsert(_ context.Context, market domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[market.ID] = market
	if market.YesTokenID != "" {
		s.byToken[market.YesTokenID] = market.ID
	}
	if market.NoTokenID != "" {
		s.byToken[market.NoTokenID] = market.ID
	}
	return nil
}

// GetByID returns the market, or domain.ErrNotFound.
func (s *MarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

// GetByTokenID resolves a YES or NO token to its market.
func (s *MarketStore) GetByTokenID(_ context.Context, tokenID string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[tokenID]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return s.byID[id], nil
}
