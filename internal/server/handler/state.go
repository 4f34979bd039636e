package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// StateHandler serves the per-market tracking records: regime, last prices,
// exposure, ladder fills, and the tail hedge flag.
type StateHandler struct {
	states domain.MarketStateStore
	logger *slog.Logger
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(states domain.MarketStateStore, logger *slog.Logger) *StateHandler {
	return &StateHandler{states: states, logger: logger}
}

// stateView trims the price history out of the listing payload.
type stateView struct {
	MarketID     string              `json:"market_id"`
	Regime       domain.MarketRegime `json:"regime"`
	LastPriceYes float64             `json:"last_price_yes"`
	LastPriceNo  float64             `json:"last_price_no"`
	ExposureYes  float64             `json:"exposure_yes"`
	ExposureNo   float64             `json:"exposure_no"`
	LadderFilled []int               `json:"ladder_filled"`
	TailActive   bool                `json:"tail_active"`
}

// ListStates returns the tracking record of every known market.
// GET /api/markets/state
func (h *StateHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.states.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list market states failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list market states")
		return
	}

	views := make([]stateView, 0, len(states))
	for _, s := range states {
		views = append(views, stateView{
			MarketID:     s.MarketID,
			Regime:       s.Regime,
			LastPriceYes: s.LastPriceYes,
			LastPriceNo:  s.LastPriceNo,
			ExposureYes:  s.ExposureYes,
			ExposureNo:   s.ExposureNo,
			LadderFilled: s.LadderFilled,
			TailActive:   s.TailActive,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"states": views})
}
