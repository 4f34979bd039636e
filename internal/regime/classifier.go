// Package regime classifies a market's price behavior into the regimes the
// strategy selector keys on. Classification is a pure function of the price
// history, the current price level, and the time remaining to resolution.
package regime

import (
	"log/slog"
	"math"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// Thresholds tune the classifier. Zero values are replaced by defaults.
type Thresholds struct {
	// MinSamples is the number of observations required before the
	// classifier trusts its statistics.
	MinSamples int
	// HighVolStdDev: a window standard deviation at or above this marks the
	// market HIGH_VOLATILITY regardless of price level.
	HighVolStdDev float64
	// CompressedLevel: a YES price at or beyond this (or its mirror below
	// 1-level) marks the market LATE_COMPRESSED.
	CompressedLevel float64
	// ConsensusLevel: a YES price this far from the midpoint, with calm
	// volatility, marks MID_CONSENSUS.
	ConsensusLevel float64
	// LateWindow: markets resolving within this duration are treated as
	// late even at a less extreme price.
	LateWindow time.Duration
}

// DefaultThresholds returns the tuning the bot ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSamples:      8,
		HighVolStdDev:   0.035,
		CompressedLevel: 0.85,
		ConsensusLevel:  0.65,
		LateWindow:      30 * time.Minute,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MinSamples <= 0 {
		t.MinSamples = d.MinSamples
	}
	if t.HighVolStdDev <= 0 {
		t.HighVolStdDev = d.HighVolStdDev
	}
	if t.CompressedLevel <= 0 {
		t.CompressedLevel = d.CompressedLevel
	}
	if t.ConsensusLevel <= 0 {
		t.ConsensusLevel = d.ConsensusLevel
	}
	if t.LateWindow <= 0 {
		t.LateWindow = d.LateWindow
	}
	return t
}

// Classifier assigns a MarketRegime from observed prices.
type Classifier struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// NewClassifier creates a Classifier. Zero-valued threshold fields fall back
// to the defaults.
func NewClassifier(thresholds Thresholds, logger *slog.Logger) *Classifier {
	return &Classifier{
		thresholds: thresholds.withDefaults(),
		logger:     logger.With(slog.String("component", "regime_classifier")),
	}
}

// Classify returns the regime for the market in its current state.
//
// Order of precedence: too little history is EARLY_UNCERTAIN; a volatile
// window is HIGH_VOLATILITY; an extreme price or imminent resolution is
// LATE_COMPRESSED; a clear but not extreme favorite is MID_CONSENSUS;
// anything else near the midpoint stays EARLY_UNCERTAIN.
func (c *Classifier) Classify(state domain.MarketState, market domain.Market, now time.Time) domain.MarketRegime {
	if len(state.PriceHistory) < c.thresholds.MinSamples {
		return domain.RegimeEarlyUncertain
	}

	vol := Volatility(state.PriceHistory)
	if vol >= c.thresholds.HighVolStdDev {
		c.logger.Debug("high volatility window",
			slog.String("market", state.MarketID),
			slog.Float64("stddev", vol),
		)
		return domain.RegimeHighVolatility
	}

	priceYes := state.LastPriceYes
	extremity := math.Max(priceYes, 1-priceYes)

	if extremity >= c.thresholds.CompressedLevel {
		return domain.RegimeLateCompressed
	}
	if !market.EndDate.IsZero() && market.EndDate.Sub(now) <= c.thresholds.LateWindow && extremity >= c.thresholds.ConsensusLevel {
		return domain.RegimeLateCompressed
	}
	if extremity >= c.thresholds.ConsensusLevel {
		return domain.RegimeMidConsensus
	}
	return domain.RegimeEarlyUncertain
}

// Mean returns the arithmetic mean of the window, or 0 when empty.
func Mean(points []domain.PricePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Price
	}
	return sum / float64(len(points))
}

// Volatility returns the population standard deviation of the window, or 0
// when fewer than two points exist.
func Volatility(points []domain.PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	mean := Mean(points)
	var variance float64
	for _, p := range points {
		d := p.Price - mean
		variance += d * d
	}
	variance /= float64(len(points))
	return math.Sqrt(variance)
}
