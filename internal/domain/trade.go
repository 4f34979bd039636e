package domain

import "time"

// TradeRecord is the persisted log entry for one simulated or real fill.
type TradeRecord struct {
	ID        string
	OrderID   string
	MarketID  string
	TokenID   string
	Side      Side
	Strategy  StrategyType
	Price     float64
	Shares    float64
	USDC      float64
	Slippage  float64
	IsExit    bool
	Status    ExecutionStatus
	CreatedAt time.Time
}

// WhaleSide is the trade direction reported by the data API for a tracked
// trader's fill.
type WhaleSide string

const (
	WhaleBuy  WhaleSide = "BUY"
	WhaleSell WhaleSide = "SELL"
)

// WhaleTrade is one fill by a tracked trader, as observed on-chain.
type WhaleTrade struct {
	ID           string
	Wallet       string
	MarketID     string
	TokenID      string
	Side         WhaleSide
	Outcome      string
	OutcomeIndex int
	Price        float64
	Size         float64 // shares
	Title        string
	Slug         string
	Timestamp    time.Time
}

// Notional returns the USDC value of the whale's fill.
func (t WhaleTrade) Notional() float64 {
	return t.Size * t.Price
}
