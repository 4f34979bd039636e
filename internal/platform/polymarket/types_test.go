package polymarket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

func TestAPIMarket_ToDomainMarket(t *testing.T) {
	m := APIMarket{
		ID:            "12345",
		ConditionID:   "0xabc",
		Question:      "Will the Chiefs win?",
		Slug:          "chiefs-win",
		ClobTokenIDs:  `["tok-yes","tok-no"]`,
		GameStartTime: "2026-02-01T23:30:00Z",
		EndDate:       "2026-02-02T08:00:00Z",
	}

	out := m.ToDomainMarket()
	assert.Equal(t, "0xabc", out.ID)
	assert.Equal(t, "tok-yes", out.YesTokenID)
	assert.Equal(t, "tok-no", out.NoTokenID)
	require.NotNil(t, out.GameStartTime)
	assert.Equal(t, 2026, out.GameStartTime.Year())
	assert.False(t, out.EndDate.IsZero())
}

func TestAPIMarket_ToDomainMarket_MalformedOptionalFields(t *testing.T) {
	m := APIMarket{
		ID:            "12345",
		ClobTokenIDs:  "not json",
		GameStartTime: "",
		EndDate:       "yesterday",
	}

	out := m.ToDomainMarket()
	// Numeric ID is the fallback when no condition ID is present.
	assert.Equal(t, "12345", out.ID)
	assert.Empty(t, out.YesTokenID)
	assert.Nil(t, out.GameStartTime)
	assert.True(t, out.EndDate.IsZero())
}

func TestAPITrade_ToDomainTrade(t *testing.T) {
	tr := APITrade{
		ProxyWallet:     "0x1f0a",
		Side:            "BUY",
		Asset:           "tok-yes",
		ConditionID:     "0xabc",
		Size:            1000,
		Price:           0.72,
		Timestamp:       1770000000,
		Outcome:         "Yes",
		OutcomeIndex:    0,
		TransactionHash: "0xdead",
	}

	out := tr.ToDomainTrade()
	assert.Equal(t, "0xdead:tok-yes", out.ID)
	assert.Equal(t, domain.WhaleBuy, out.Side)
	assert.InDelta(t, 720.0, out.Notional(), 1e-9)
	assert.Equal(t, time.Unix(1770000000, 0).UTC(), out.Timestamp)
}

func TestWSMessage_ToPriceUpdate(t *testing.T) {
	msg := WSMessage{
		EventType: "price_change",
		AssetID:   "tok-yes",
		Price:     "0.72",
		Timestamp: "1770000000000",
	}
	update, ok := msg.ToPriceUpdate()
	require.True(t, ok)
	assert.Equal(t, "tok-yes", update.AssetID)
	assert.InDelta(t, 0.72, update.Price, 1e-9)
	assert.Equal(t, time.UnixMilli(1770000000000).UTC(), update.Time)

	_, ok = WSMessage{Price: "garbage"}.ToPriceUpdate()
	assert.False(t, ok)
	_, ok = WSMessage{Price: "0"}.ToPriceUpdate()
	assert.False(t, ok)
}
