package domain

import "time"

// Side is the contract side of a binary prediction market.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Opposite returns the other side of the market.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// StrategyType identifies which strategy produced an order.
type StrategyType string

const (
	StrategyLadderCompression    StrategyType = "LADDER_COMPRESSION"
	StrategyVolatilityAbsorption StrategyType = "VOLATILITY_ABSORPTION"
	StrategyTailInsurance        StrategyType = "TAIL_INSURANCE"
	StrategyProfitTaking         StrategyType = "PROFIT_TAKING"
	StrategyCopyTrade            StrategyType = "COPY_TRADE"
	StrategyNone                 StrategyType = "NONE"
)

// ProposedOrder is an advisory order produced by a strategy generator. It is
// ephemeral: the risk check either discards it or promotes it to an Order.
// At creation Shares == SizeUSDC / Price (rounding aside) and Price is
// strictly inside (0, 1) since contracts settle at 0 or 1.
type ProposedOrder struct {
	MarketID       string
	TokenID        string
	Side           Side
	Price          float64
	SizeUSDC       float64
	Shares         float64
	Strategy       StrategyType
	StrategyDetail string
	Confidence     float64 // [0, 1]
	IsExit         bool
}

// NewProposedOrder builds a ProposedOrder with Shares derived from the USDC
// size and price. A non-positive price yields zero shares rather than a panic.
func NewProposedOrder(marketID, tokenID string, side Side, price, sizeUSDC float64, strategy StrategyType) ProposedOrder {
	var shares float64
	if price > 0 {
		shares = sizeUSDC / price
	}
	return ProposedOrder{
		MarketID: marketID,
		TokenID:  tokenID,
		Side:     side,
		Price:    price,
		SizeUSDC: sizeUSDC,
		Shares:   shares,
		Strategy: strategy,
	}
}

// Order is a risk-approved ProposedOrder ready for execution.
type Order struct {
	ProposedOrder
	ID        string
	Timestamp time.Time
}

// ExecutionStatus tracks the terminal state of an execution attempt.
type ExecutionStatus string

const (
	ExecStatusPending   ExecutionStatus = "PENDING"
	ExecStatusFilled    ExecutionStatus = "FILLED"
	ExecStatusPartial   ExecutionStatus = "PARTIAL"
	ExecStatusRejected  ExecutionStatus = "REJECTED"
	ExecStatusCancelled ExecutionStatus = "CANCELLED"
)

// ExecutionResult reports the outcome of executing one order. It is terminal:
// once returned by an executor it is never mutated.
type ExecutionResult struct {
	Success      bool
	Order        Order
	Status       ExecutionStatus
	FilledShares float64
	FilledPrice  float64
	FilledUSDC   float64
	Slippage     float64 // (filledPrice - order.Price) / order.Price
	Error        string
	Timestamp    time.Time
}
