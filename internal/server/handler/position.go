package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// PortfolioService defines the aggregate view the position handler exposes.
type PortfolioService interface {
	Snapshot(ctx context.Context) (domain.PortfolioState, error)
}

// PositionHandler serves position and portfolio endpoints.
type PositionHandler struct {
	positions domain.PositionStore
	portfolio PortfolioService
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(positions domain.PositionStore, portfolio PortfolioService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{
		positions: positions,
		portfolio: portfolio,
		logger:    logger,
	}
}

// ListPositions returns every position in the book.
// GET /api/positions
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positions.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list positions failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}

	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

// GetPosition returns one market's position.
// GET /api/positions/{market_id}
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	marketID := r.PathValue("market_id")

	pos, err := h.positions.Get(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no position for market")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get position failed",
			slog.String("market", marketID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get position")
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// GetPortfolio returns the aggregate portfolio snapshot.
// GET /api/portfolio
func (h *PositionHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	snap, err := h.portfolio.Snapshot(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: portfolio snapshot failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to build portfolio snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
