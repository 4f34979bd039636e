package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// DataClient is the REST client for the Polymarket data API, which exposes
// on-chain activity per wallet. The tracker polls it for whale fills.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataClient creates a data API client.
//
// baseURL is the data API root, e.g. "https://data-api.polymarket.com".
func NewDataClient(baseURL string) *DataClient {
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetTrades returns the wallet's most recent fills, newest first.
func (d *DataClient) GetTrades(ctx context.Context, wallet string, limit int) ([]domain.WhaleTrade, error) {
	params := url.Values{}
	params.Set("user", wallet)
	params.Set("limit", strconv.Itoa(limit))

	body, err := d.doGet(ctx, "/trades?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get trades for %s: %w", wallet, err)
	}

	var apiTrades []APITrade
	if err := json.Unmarshal(body, &apiTrades); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode trades: %w", err)
	}

	trades := make([]domain.WhaleTrade, 0, len(apiTrades))
	for i := range apiTrades {
		trades = append(trades, apiTrades[i].ToDomainTrade())
	}
	return trades, nil
}

func (d *DataClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

// truncate keeps error messages readable when the API returns an HTML page.
func truncate(body []byte) string {
	const n = 200
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
