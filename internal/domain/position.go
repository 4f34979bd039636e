package domain

import "time"

// Position is the per-market holding record, owned exclusively by the
// executor's accounting. One Position exists per market; each side carries
// its own share count, cost basis, and average entry.
//
// Invariants: SharesYes, SharesNo, CostBasisYes, CostBasisNo >= 0.
// AvgEntry for a side is meaningful only while that side's shares are
// positive. RealizedPnL accumulates only on exits.
type Position struct {
	MarketID      string
	SharesYes     float64
	SharesNo      float64
	AvgEntryYes   float64
	AvgEntryNo    float64
	CostBasisYes  float64
	CostBasisNo   float64
	UnrealizedPnL float64
	RealizedPnL   float64
	OpenedAt      time.Time
	UpdatedAt     time.Time
}

// Shares returns the share count held on the given side.
func (p Position) Shares(side Side) float64 {
	if side == SideYes {
		return p.SharesYes
	}
	return p.SharesNo
}

// CostBasis returns the cumulative USDC spent on the given side's current
// holding.
func (p Position) CostBasis(side Side) float64 {
	if side == SideYes {
		return p.CostBasisYes
	}
	return p.CostBasisNo
}

// AvgEntry returns the average entry price on the given side. Zero when the
// side holds no shares.
func (p Position) AvgEntry(side Side) float64 {
	if side == SideYes {
		return p.AvgEntryYes
	}
	return p.AvgEntryNo
}

// IsFlat reports whether the position holds no shares on either side.
func (p Position) IsFlat() bool {
	return p.SharesYes == 0 && p.SharesNo == 0
}

// ApplyEntry returns the position after buying filledShares on side for
// filledUSDC: shares and cost basis accumulate, average entry is recomputed.
func (p Position) ApplyEntry(side Side, filledShares, filledUSDC float64, at time.Time) Position {
	next := p
	switch side {
	case SideYes:
		next.SharesYes += filledShares
		next.CostBasisYes += filledUSDC
		if next.SharesYes > 0 {
			next.AvgEntryYes = next.CostBasisYes / next.SharesYes
		}
	case SideNo:
		next.SharesNo += filledShares
		next.CostBasisNo += filledUSDC
		if next.SharesNo > 0 {
			next.AvgEntryNo = next.CostBasisNo / next.SharesNo
		}
	}
	if next.OpenedAt.IsZero() {
		next.OpenedAt = at
	}
	next.UpdatedAt = at
	return next
}

// ApplyExit returns the position after selling up to filledShares on side for
// proceedsUSDC, together with the realized profit of the sale. The sold share
// count is capped at the held amount so the position never goes negative; the
// removed cost basis is proportional to the fraction sold. When the side
// holds no shares the whole holding is treated as sold (pctSold = 1), which
// realizes the full proceeds as profit against a zero basis.
func (p Position) ApplyExit(side Side, filledShares, proceedsUSDC float64, at time.Time) (Position, float64) {
	next := p

	existingShares := p.Shares(side)
	existingBasis := p.CostBasis(side)

	sharesToRemove := min(filledShares, existingShares)
	pctSold := 1.0
	if existingShares > 0 {
		pctSold = sharesToRemove / existingShares
	}
	basisRemoved := existingBasis * pctSold
	realized := proceedsUSDC - basisRemoved

	switch side {
	case SideYes:
		next.SharesYes = existingShares - sharesToRemove
		next.CostBasisYes = existingBasis - basisRemoved
		if next.SharesYes <= 0 {
			next.SharesYes = 0
			next.CostBasisYes = 0
			next.AvgEntryYes = 0
		}
	case SideNo:
		next.SharesNo = existingShares - sharesToRemove
		next.CostBasisNo = existingBasis - basisRemoved
		if next.SharesNo <= 0 {
			next.SharesNo = 0
			next.CostBasisNo = 0
			next.AvgEntryNo = 0
		}
	}

	next.RealizedPnL += realized
	next.UpdatedAt = at
	return next, realized
}

// MarkToMarket returns the position with UnrealizedPnL recomputed against the
// given prices.
func (p Position) MarkToMarket(priceYes, priceNo float64) Position {
	next := p
	next.UnrealizedPnL = (p.SharesYes*priceYes - p.CostBasisYes) +
		(p.SharesNo*priceNo - p.CostBasisNo)
	return next
}

// PortfolioState is a derived aggregate view over the cash balance and all
// positions. It is recomputed on demand, never stored.
type PortfolioState struct {
	CashBalance   float64
	Positions     map[string]Position
	TotalValue    float64
	UnrealizedPnL float64
	RealizedPnL   float64
}
