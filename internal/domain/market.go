package domain

import "time"

// Market holds the metadata the bot needs about one prediction market.
type Market struct {
	ID            string
	Question      string
	Slug          string
	YesTokenID    string
	NoTokenID     string
	GameStartTime *time.Time
	EndDate       time.Time
}

// TokenID returns the token identifier for the given side.
func (m Market) TokenID(side Side) string {
	if side == SideYes {
		return m.YesTokenID
	}
	return m.NoTokenID
}

// IsLive reports whether the underlying event has started. Markets without a
// game start time are never considered live.
func (m Market) IsLive(now time.Time) bool {
	return m.GameStartTime != nil && !m.GameStartTime.After(now)
}

// PricePoint records a single price observation at a point in time.
type PricePoint struct {
	Price float64
	Time  time.Time
}

// MarketState is the per-market mutable record the strategies read: current
// regime, last prices, exposure per side, ladder fill levels, and the tail
// hedge flag. Transforms return a new value rather than mutating in place;
// the tracker owns the authoritative copy.
//
// Invariants: ExposureYes, ExposureNo >= 0; TailActive transitions
// false -> true only (reset is an external reconciliation concern).
type MarketState struct {
	MarketID     string
	Regime       MarketRegime
	LastPriceYes float64
	LastPriceNo  float64
	PriceHistory []PricePoint
	LadderFilled []int
	ExposureYes  float64
	ExposureNo   float64
	TailActive   bool
	LastUpdated  time.Time

	// Copy-entry bookkeeping for the add-on-dip tranche: the first copied
	// fill pins the reference price and size, and the add fires at most
	// once per market.
	CopySide       Side
	CopyEntryPrice float64
	CopyEntryUSDC  float64
	CopyAddFilled  bool
}

// WithPrice returns a copy with updated last prices, the observation appended
// to the YES price history, and the history trimmed to maxHistory points.
func (ms MarketState) WithPrice(priceYes, priceNo float64, ts time.Time, maxHistory int) MarketState {
	next := ms
	next.LastPriceYes = priceYes
	next.LastPriceNo = priceNo
	next.LastUpdated = ts

	hist := make([]PricePoint, len(ms.PriceHistory), len(ms.PriceHistory)+1)
	copy(hist, ms.PriceHistory)
	hist = append(hist, PricePoint{Price: priceYes, Time: ts})
	if maxHistory > 0 && len(hist) > maxHistory {
		hist = hist[len(hist)-maxHistory:]
	}
	next.PriceHistory = hist
	return next
}

// WithRegime returns a copy with the regime replaced.
func (ms MarketState) WithRegime(r MarketRegime) MarketState {
	next := ms
	next.Regime = r
	return next
}

// MarkTailActive returns a copy with the tail hedge flag raised. The flag is
// one-way: once raised it stays raised.
func (ms MarketState) MarkTailActive() MarketState {
	next := ms
	next.TailActive = true
	return next
}

// MarkCopyEntry returns a copy with the first copied fill recorded as the
// add-on-dip reference. Later copy fills do not move the reference.
func (ms MarketState) MarkCopyEntry(side Side, price, usdc float64) MarketState {
	if ms.CopyEntryPrice > 0 {
		return ms
	}
	next := ms
	next.CopySide = side
	next.CopyEntryPrice = price
	next.CopyEntryUSDC = usdc
	return next
}

// MarkCopyAddFilled returns a copy with the add-on-dip tranche recorded as
// spent.
func (ms MarketState) MarkCopyAddFilled() MarketState {
	next := ms
	next.CopyAddFilled = true
	return next
}

// MarkLadderFilled returns a copy with the given rung index recorded as
// filled. Recording the same rung twice is a no-op.
func (ms MarketState) MarkLadderFilled(rung int) MarketState {
	if ms.LadderRungFilled(rung) {
		return ms
	}
	next := ms
	filled := make([]int, len(ms.LadderFilled), len(ms.LadderFilled)+1)
	copy(filled, ms.LadderFilled)
	next.LadderFilled = append(filled, rung)
	return next
}

// LadderRungFilled reports whether the given rung index has already fired.
func (ms MarketState) LadderRungFilled(rung int) bool {
	for _, f := range ms.LadderFilled {
		if f == rung {
			return true
		}
	}
	return false
}

// AddExposure returns a copy with usdc added to the given side's exposure.
// Negative results are clamped to zero to preserve the invariant.
func (ms MarketState) AddExposure(side Side, usdc float64) MarketState {
	next := ms
	switch side {
	case SideYes:
		next.ExposureYes = max(0, ms.ExposureYes+usdc)
	case SideNo:
		next.ExposureNo = max(0, ms.ExposureNo+usdc)
	}
	return next
}

// Exposure returns the USDC exposure on the given side.
func (ms MarketState) Exposure(side Side) float64 {
	if side == SideYes {
		return ms.ExposureYes
	}
	return ms.ExposureNo
}

// Price returns the last observed price for the given side.
func (ms MarketState) Price(side Side) float64 {
	if side == SideYes {
		return ms.LastPriceYes
	}
	return ms.LastPriceNo
}
