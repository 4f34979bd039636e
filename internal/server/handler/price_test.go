package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceCache struct {
	prices map[string]float64
	asked  []string
}

func (f *fakePriceCache) SetPrice(_ context.Context, tokenID string, price float64, _ time.Time) error {
	f.prices[tokenID] = price
	return nil
}

func (f *fakePriceCache) GetPrice(_ context.Context, tokenID string) (float64, time.Time, error) {
	return f.prices[tokenID], time.Time{}, nil
}

func (f *fakePriceCache) GetPrices(_ context.Context, tokenIDs []string) (map[string]float64, error) {
	f.asked = tokenIDs
	out := make(map[string]float64)
	for _, id := range tokenIDs {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestGetPrices_ReturnsCachedTokens(t *testing.T) {
	cache := &fakePriceCache{prices: map[string]float64{"tok-yes": 0.62, "tok-no": 0.38}}
	h := NewPriceHandler(cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest("GET", "/api/prices?tokens=tok-yes,tok-no,tok-cold", nil)
	rec := httptest.NewRecorder()
	h.GetPrices(rec, req)

	require.Equal(t, 200, rec.Code)
	var body struct {
		Prices map[string]float64 `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]float64{"tok-yes": 0.62, "tok-no": 0.38}, body.Prices)
	// Uncached tokens are asked for but omitted from the response.
	assert.Equal(t, []string{"tok-yes", "tok-no", "tok-cold"}, cache.asked)
}

func TestGetPrices_RequiresTokens(t *testing.T) {
	cache := &fakePriceCache{prices: map[string]float64{}}
	h := NewPriceHandler(cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, target := range []string{"/api/prices", "/api/prices?tokens=", "/api/prices?tokens=,%20,"} {
		rec := httptest.NewRecorder()
		h.GetPrices(rec, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, 400, rec.Code, target)
	}
}
