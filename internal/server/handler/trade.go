package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// TradeHandler serves the fill-log endpoints.
type TradeHandler struct {
	trades domain.TradeStore
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(trades domain.TradeStore, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{trades: trades, logger: logger}
}

// ListTrades returns a market's fills, newest first.
// GET /api/trades?market=<id>&limit=50
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Query().Get("market")
	if marketID == "" {
		writeError(w, http.StatusBadRequest, "market query parameter required")
		return
	}

	records, err := h.trades.ListByMarket(r.Context(), marketID, queryLimit(r, 50))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list trades failed",
			slog.String("market", marketID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	if records == nil {
		records = []domain.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": records})
}
