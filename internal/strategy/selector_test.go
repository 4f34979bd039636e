package strategy

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSelect_PermissivePolicy(t *testing.T) {
	s := NewSelector(PermissivePolicy(), testLogger())

	assert.Equal(t, domain.StrategyLadderCompression, s.Select(domain.RegimeLateCompressed))
	assert.Equal(t, domain.StrategyLadderCompression, s.Select(domain.RegimeMidConsensus))
	assert.Equal(t, domain.StrategyVolatilityAbsorption, s.Select(domain.RegimeHighVolatility))
	assert.Equal(t, domain.StrategyVolatilityAbsorption, s.Select(domain.RegimeEarlyUncertain))
}

func TestSelect_ConsensusOnlyPolicy(t *testing.T) {
	s := NewSelector(ConsensusOnlyPolicy(), testLogger())

	assert.Equal(t, domain.StrategyLadderCompression, s.Select(domain.RegimeLateCompressed))
	assert.Equal(t, domain.StrategyLadderCompression, s.Select(domain.RegimeMidConsensus))
	assert.Equal(t, domain.StrategyNone, s.Select(domain.RegimeHighVolatility))
	assert.Equal(t, domain.StrategyNone, s.Select(domain.RegimeEarlyUncertain))
}

func TestSelect_UnknownRegimeMapsToNone(t *testing.T) {
	s := NewSelector(PermissivePolicy(), testLogger())

	assert.Equal(t, domain.StrategyNone, s.Select(domain.RegimeUnknown))
	assert.Equal(t, domain.StrategyNone, s.Select(domain.MarketRegime("SIDEWAYS")))
}

func TestPolicyFromName(t *testing.T) {
	p, err := PolicyFromName("permissive")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyVolatilityAbsorption, p[domain.RegimeHighVolatility])

	p, err = PolicyFromName("consensus_only")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyNone, p[domain.RegimeHighVolatility])

	// Empty defaults to the stricter policy.
	p, err = PolicyFromName("")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyNone, p[domain.RegimeEarlyUncertain])

	_, err = PolicyFromName("yolo")
	assert.Error(t, err)
}

func TestShouldConsiderTailInsurance(t *testing.T) {
	s := NewSelector(ConsensusOnlyPolicy(), testLogger())

	// All conditions met.
	assert.True(t, s.ShouldConsiderTailInsurance(domain.RegimeLateCompressed, 0.08, 100, 0.10, 10))

	// Wrong regime.
	assert.False(t, s.ShouldConsiderTailInsurance(domain.RegimeHighVolatility, 0.08, 100, 0.10, 10))
	assert.False(t, s.ShouldConsiderTailInsurance(domain.RegimeMidConsensus, 0.08, 100, 0.10, 10))

	// Tail not cheap enough (boundary is exclusive).
	assert.False(t, s.ShouldConsiderTailInsurance(domain.RegimeLateCompressed, 0.10, 100, 0.10, 10))

	// Not enough exposure to protect (boundary is inclusive).
	assert.False(t, s.ShouldConsiderTailInsurance(domain.RegimeLateCompressed, 0.08, 9.99, 0.10, 10))
	assert.True(t, s.ShouldConsiderTailInsurance(domain.RegimeLateCompressed, 0.08, 10, 0.10, 10))
}
