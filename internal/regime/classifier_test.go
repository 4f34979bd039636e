package regime

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func history(prices ...float64) []domain.PricePoint {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{Price: p, Time: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func flatHistory(price float64, n int) []domain.PricePoint {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = price
	}
	return history(prices...)
}

func stateWith(priceYes float64, hist []domain.PricePoint) domain.MarketState {
	return domain.MarketState{
		MarketID:     "mkt-1",
		LastPriceYes: priceYes,
		LastPriceNo:  1 - priceYes,
		PriceHistory: hist,
	}
}

func TestClassify_InsufficientHistoryIsEarly(t *testing.T) {
	c := NewClassifier(Thresholds{}, testLogger())
	now := time.Now()

	state := stateWith(0.92, history(0.90, 0.91, 0.92))
	assert.Equal(t, domain.RegimeEarlyUncertain, c.Classify(state, domain.Market{}, now))
}

func TestClassify_VolatileWindowWinsOverPriceLevel(t *testing.T) {
	c := NewClassifier(Thresholds{}, testLogger())
	now := time.Now()

	state := stateWith(0.88, history(0.70, 0.85, 0.65, 0.90, 0.62, 0.88, 0.66, 0.88))
	assert.Equal(t, domain.RegimeHighVolatility, c.Classify(state, domain.Market{}, now))
}

func TestClassify_CompressedFavorite(t *testing.T) {
	c := NewClassifier(Thresholds{}, testLogger())
	now := time.Now()

	state := stateWith(0.90, flatHistory(0.90, 10))
	assert.Equal(t, domain.RegimeLateCompressed, c.Classify(state, domain.Market{}, now))

	// Mirror case: a compressed underdog counts the same.
	state = stateWith(0.08, flatHistory(0.08, 10))
	assert.Equal(t, domain.RegimeLateCompressed, c.Classify(state, domain.Market{}, now))
}

func TestClassify_ImminentResolutionPromotesConsensusToLate(t *testing.T) {
	c := NewClassifier(Thresholds{}, testLogger())
	now := time.Now()

	state := stateWith(0.72, flatHistory(0.72, 10))

	soon := domain.Market{EndDate: now.Add(10 * time.Minute)}
	assert.Equal(t, domain.RegimeLateCompressed, c.Classify(state, soon, now))

	later := domain.Market{EndDate: now.Add(6 * time.Hour)}
	assert.Equal(t, domain.RegimeMidConsensus, c.Classify(state, later, now))
}

func TestClassify_ClearFavoriteIsConsensus(t *testing.T) {
	c := NewClassifier(Thresholds{}, testLogger())
	now := time.Now()

	state := stateWith(0.70, flatHistory(0.70, 10))
	assert.Equal(t, domain.RegimeMidConsensus, c.Classify(state, domain.Market{}, now))
}

func TestClassify_MidpointStaysEarly(t *testing.T) {
	c := NewClassifier(Thresholds{}, testLogger())
	now := time.Now()

	state := stateWith(0.52, flatHistory(0.52, 10))
	assert.Equal(t, domain.RegimeEarlyUncertain, c.Classify(state, domain.Market{}, now))
}

func TestVolatility(t *testing.T) {
	assert.Zero(t, Volatility(nil))
	assert.Zero(t, Volatility(history(0.5)))
	assert.Zero(t, Volatility(flatHistory(0.5, 10)))

	// Alternating 0.4/0.6 has a stddev of exactly 0.1.
	assert.InDelta(t, 0.1, Volatility(history(0.4, 0.6, 0.4, 0.6)), 1e-9)
}

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 0.5, Mean(history(0.4, 0.6)), 1e-9)
}
