package strategy

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// Policy is a total regime-to-strategy mapping. Regimes absent from the map
// resolve to StrategyNone.
type Policy map[domain.MarketRegime]domain.StrategyType

// PermissivePolicy trades every regime: compressed/consensus markets ladder
// in, volatile/uncertain markets absorb swings.
func PermissivePolicy() Policy {
	return Policy{
		domain.RegimeLateCompressed: domain.StrategyLadderCompression,
		domain.RegimeMidConsensus:   domain.StrategyLadderCompression,
		domain.RegimeHighVolatility: domain.StrategyVolatilityAbsorption,
		domain.RegimeEarlyUncertain: domain.StrategyVolatilityAbsorption,
	}
}

// ConsensusOnlyPolicy refuses to trade until directional consensus has
// emerged: volatile and early markets map to no strategy at all.
func ConsensusOnlyPolicy() Policy {
	return Policy{
		domain.RegimeLateCompressed: domain.StrategyLadderCompression,
		domain.RegimeMidConsensus:   domain.StrategyLadderCompression,
		domain.RegimeHighVolatility: domain.StrategyNone,
		domain.RegimeEarlyUncertain: domain.StrategyNone,
	}
}

// PolicyFromName resolves a configured policy name.
func PolicyFromName(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "permissive":
		return PermissivePolicy(), nil
	case "consensus_only", "":
		return ConsensusOnlyPolicy(), nil
	default:
		return nil, fmt.Errorf("strategy: unknown selector policy %q", name)
	}
}

// Selector maps a market's regime to the strategy that should evaluate it.
type Selector struct {
	policy Policy
	logger *slog.Logger
}

// NewSelector creates a Selector with the given policy.
func NewSelector(policy Policy, logger *slog.Logger) *Selector {
	return &Selector{
		policy: policy,
		logger: logger.With(slog.String("component", "strategy_selector")),
	}
}

// Select returns the strategy for the given regime. It is total: unknown or
// unmapped regimes yield StrategyNone with a warning, never an error.
func (s *Selector) Select(regime domain.MarketRegime) domain.StrategyType {
	if !regime.Known() {
		s.logger.Warn("unknown market regime, selecting no strategy",
			slog.String("regime", string(regime)),
		)
		return domain.StrategyNone
	}
	st, ok := s.policy[regime]
	if !ok {
		return domain.StrategyNone
	}
	return st
}

// ShouldConsiderTailInsurance reports whether the tail hedge is even worth
// evaluating for a market: only late-compressed regimes with a cheap
// opposite side and meaningful same-side exposure qualify.
func (s *Selector) ShouldConsiderTailInsurance(
	regime domain.MarketRegime,
	tailPriceNo float64,
	totalExposureYes float64,
	priceThreshold float64,
	minExposure float64,
) bool {
	return regime == domain.RegimeLateCompressed &&
		tailPriceNo < priceThreshold &&
		totalExposureYes >= minExposure
}
