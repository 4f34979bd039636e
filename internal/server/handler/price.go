package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// maxPriceTokens caps one lookup so a long token list cannot fan out into an
// unbounded cache pipeline.
const maxPriceTokens = 100

// PriceHandler serves the latest cached prices per outcome token.
type PriceHandler struct {
	cache  domain.PriceCache
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(cache domain.PriceCache, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{cache: cache, logger: logger}
}

// GetPrices returns the cached price for each requested token. Tokens with
// no cached price are omitted.
// GET /api/prices?tokens=tok1,tok2
func (h *PriceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tokens")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "tokens query parameter is required")
		return
	}

	var tokenIDs []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokenIDs = append(tokenIDs, t)
		}
	}
	if len(tokenIDs) == 0 {
		writeError(w, http.StatusBadRequest, "tokens query parameter is required")
		return
	}
	if len(tokenIDs) > maxPriceTokens {
		tokenIDs = tokenIDs[:maxPriceTokens]
	}

	prices, err := h.cache.GetPrices(r.Context(), tokenIDs)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: price lookup failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load prices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": prices})
}
