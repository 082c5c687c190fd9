// backend/src/handlers/portfolio_handler.go
package handlers

import (
	"net/http"

	"github.com/username/darfolio/backend/src/logger"
	"github.com/username/darfolio/backend/src/services"
	"github.com/username/darfolio/backend/src/utils"
)

type PortfolioHandler struct {
	darfService services.DarfService
}

func NewPortfolioHandler(darfService services.DarfService) *PortfolioHandler {
	return &PortfolioHandler{darfService: darfService}
}

// HandleGetPortfolioSummary returns open positions valued at average
// cost, total invested, and realized profit to date.
func (h *PortfolioHandler) HandleGetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	summary, err := h.darfService.GetPortfolioSummary()
	if err != nil {
		ctxLogger.Error("Error computing portfolio summary", "error", err)
		utils.SendJSONError(w, "Failed to compute portfolio summary", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, summary, http.StatusOK)
}

// HandleGetPositions returns every tracked position, including those that
// were sold down to zero.
func (h *PortfolioHandler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	snapshot, err := h.darfService.Snapshot()
	if err != nil {
		ctxLogger.Error("Error recomputing positions", "error", err)
		utils.SendJSONError(w, "Failed to recompute positions", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]any{
		"positions": snapshot.Recompute.Positions,
		"skipped":   snapshot.Recompute.Skipped,
	}, http.StatusOK)
}
