package domain

// MarketRegime classifies a market's price/time behavior. The regime drives
// which strategy the selector picks for the market.
type MarketRegime string

const (
	// RegimeEarlyUncertain: far from resolution, price near 0.5, no consensus.
	RegimeEarlyUncertain MarketRegime = "EARLY_UNCERTAIN"
	// RegimeMidConsensus: a directional favorite has emerged.
	RegimeMidConsensus MarketRegime = "MID_CONSENSUS"
	// RegimeLateCompressed: close to resolution, price compressed toward 0 or 1.
	RegimeLateCompressed MarketRegime = "LATE_COMPRESSED"
	// RegimeHighVolatility: large recent price swings regardless of level.
	RegimeHighVolatility MarketRegime = "HIGH_VOLATILITY"
	// RegimeUnknown is the boundary value for unclassified or unparseable
	// regimes. It never maps to a tradeable strategy.
	RegimeUnknown MarketRegime = "UNKNOWN"
)

// ParseRegime maps a raw string to a MarketRegime. Unrecognized input yields
// RegimeUnknown and ok=false; callers decide whether to warn.
func ParseRegime(s string) (MarketRegime, bool) {
	switch MarketRegime(s) {
	case RegimeEarlyUncertain, RegimeMidConsensus, RegimeLateCompressed, RegimeHighVolatility:
		return MarketRegime(s), true
	default:
		return RegimeUnknown, false
	}
}

// Known reports whether the regime is one of the four classified regimes.
func (r MarketRegime) Known() bool {
	switch r {
	case RegimeEarlyUncertain, RegimeMidConsensus, RegimeLateCompressed, RegimeHighVolatility:
		return true
	}
	return false
}
