package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ClobClient is the read-only REST client for the Polymarket CLOB API. The
// bot only needs prices from it; order placement stays simulated.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a CLOB client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetMidpoint returns the midpoint price for a token.
func (c *ClobClient) GetMidpoint(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, "/midpoint?"+params.Encode())
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get midpoint: %w", err)
	}

	var mid APIMidpoint
	if err := json.Unmarshal(body, &mid); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode midpoint: %w", err)
	}
	price, err := mid.Value()
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: parse midpoint %q: %w", mid.Mid, err)
	}
	return price, nil
}

// GetMidpoints returns midpoint prices for several tokens in one request.
func (c *ClobClient) GetMidpoints(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	payload := make([]map[string]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		payload = append(payload, map[string]string{"token_id": id})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: marshal midpoints request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/midpoints", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: build midpoints request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get midpoints: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: read midpoints response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polymarket/clob: midpoints status %d: %s", resp.StatusCode, truncate(body))
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode midpoints: %w", err)
	}
	out := make(map[string]float64, len(raw))
	for tokenID, s := range raw {
		if price, err := strconv.ParseFloat(s, 64); err == nil {
			out[tokenID] = price
		}
	}
	return out, nil
}

func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
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
