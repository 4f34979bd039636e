package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func TestPositionStoreGetMissing(t *testing.T) {
	store := NewPositionStore()

	_, err := store.Get(context.Background(), "mkt-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPositionStoreUpsertCreatesAndMutates(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()
	now := time.Now()

	pos, err := store.Upsert(ctx, "mkt-1", func(p domain.Position) domain.Position {
		return p.ApplyEntry(domain.SideYes, 10, 5, now)
	})
	require.NoError(t, err)
	assert.Equal(t, "mkt-1", pos.MarketID)
	assert.Equal(t, 10.0, pos.SharesYes)
	assert.Equal(t, 5.0, pos.CostBasisYes)

	pos, err = store.Upsert(ctx, "mkt-1", func(p domain.Position) domain.Position {
		return p.ApplyEntry(domain.SideYes, 10, 5, now)
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, pos.SharesYes)

	got, err := store.Get(ctx, "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, pos, got)
}

func TestPositionStoreConcurrentUpserts(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()
	now := time.Now()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Upsert(ctx, "mkt-1", func(p domain.Position) domain.Position {
				return p.ApplyEntry(domain.SideNo, 1, 0.5, now)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pos, err := store.Get(ctx, "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, float64(workers), pos.SharesNo)
	assert.InDelta(t, 0.5*workers, pos.CostBasisNo, 1e-9)
}
