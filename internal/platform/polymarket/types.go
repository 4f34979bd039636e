// Package polymarket holds the read-only REST and WebSocket clients for the
// public Polymarket APIs: Gamma (market metadata), CLOB (prices), and the
// data API (on-chain fills).
package polymarket

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// APIMarket is the Gamma API's market representation. Token IDs arrive as a
// JSON-encoded string array inside the clobTokenIds field.
type APIMarket struct {
	ID            string `json:"id"`
	ConditionID   string `json:"conditionId"`
	Question      string `json:"question"`
	Slug          string `json:"slug"`
	ClobTokenIDs  string `json:"clobTokenIds"`
	GameStartTime string `json:"gameStartTime"`
	EndDate       string `json:"endDate"`
	Active        bool   `json:"active"`
	Closed        bool   `json:"closed"`
}

// ToDomainMarket converts the API record, decoding the token ID array and
// the timestamps. Unparseable optional fields are dropped, not fatal.
func (m APIMarket) ToDomainMarket() domain.Market {
	out := domain.Market{
		ID:       m.ConditionID,
		Question: m.Question,
		Slug:     m.Slug,
	}
	if out.ID == "" {
		out.ID = m.ID
	}

	var tokenIDs []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs); err == nil {
		if len(tokenIDs) > 0 {
			out.YesTokenID = tokenIDs[0]
		}
		if len(tokenIDs) > 1 {
			out.NoTokenID = tokenIDs[1]
		}
	}
	if t, err := time.Parse(time.RFC3339, m.GameStartTime); err == nil {
		out.GameStartTime = &t
	}
	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		out.EndDate = t
	}
	return out
}

// APITrade is the data API's fill record for a user's trade history.
type APITrade struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Side            string  `json:"side"`
	Asset           string  `json:"asset"`
	ConditionID     string  `json:"conditionId"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Timestamp       int64   `json:"timestamp"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	Outcome         string  `json:"outcome"`
	OutcomeIndex    int     `json:"outcomeIndex"`
	TransactionHash string  `json:"transactionHash"`
}

// ToDomainTrade converts the API record. The transaction hash plus asset
// identifies a fill across polls.
func (t APITrade) ToDomainTrade() domain.WhaleTrade {
	return domain.WhaleTrade{
		ID:           t.TransactionHash + ":" + t.Asset,
		Wallet:       t.ProxyWallet,
		MarketID:     t.ConditionID,
		TokenID:      t.Asset,
		Side:         domain.WhaleSide(t.Side),
		Outcome:      t.Outcome,
		OutcomeIndex: t.OutcomeIndex,
		Price:        t.Price,
		Size:         t.Size,
		Title:        t.Title,
		Slug:         t.Slug,
		Timestamp:    time.Unix(t.Timestamp, 0).UTC(),
	}
}

// APIMidpoint is the CLOB /midpoint response. The price is a decimal string.
type APIMidpoint struct {
	Mid string `json:"mid"`
}

// Value parses the midpoint price.
func (m APIMidpoint) Value() (float64, error) {
	return strconv.ParseFloat(m.Mid, 64)
}

// WSCommand is the subscribe/unsubscribe frame for the CLOB WebSocket.
type WSCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel"`
	Assets  []string `json:"assets_ids"`
}

// WSMessage is the envelope for incoming CLOB WebSocket frames.
type WSMessage struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Timestamp string `json:"timestamp"`
}

// PriceUpdate is the decoded price event handed to feed subscribers.
type PriceUpdate struct {
	AssetID string
	Price   float64
	Time    time.Time
}

// ToPriceUpdate decodes the message's price fields. The bool reports whether
// the frame carried a usable price.
func (m WSMessage) ToPriceUpdate() (PriceUpdate, bool) {
	price, err := strconv.ParseFloat(m.Price, 64)
	if err != nil || price <= 0 {
		return PriceUpdate{}, false
	}
	ts := time.Now().UTC()
	if ms, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil && ms > 0 {
		ts = time.UnixMilli(ms).UTC()
	}
	return PriceUpdate{AssetID: m.AssetID, Price: price, Time: ts}, true
}
