// backend/src/handlers/darf_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/darfolio/backend/src/logger"
	"github.com/username/darfolio/backend/src/processors"
	"github.com/username/darfolio/backend/src/services"
	"github.com/username/darfolio/backend/src/taxrules"
	"github.com/username/darfolio/backend/src/utils"
)

type DarfHandler struct {
	darfService services.DarfService
}

func NewDarfHandler(darfService services.DarfService) *DarfHandler {
	return &DarfHandler{darfService: darfService}
}

// HandleCalculateDARF returns the tax computations and total payable for
// one (year, month). The underlying engine recomputes from the complete
// operation history, so the response is always consistent with the data.
func (h *DarfHandler) HandleCalculateDARF(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		utils.SendJSONError(w, "Invalid year", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		utils.SendJSONError(w, "Invalid month", http.StatusBadRequest)
		return
	}

	report, err := h.darfService.GetDARFReport(year, month)
	if err != nil {
		switch {
		case errors.Is(err, processors.ErrInsufficientPosition):
			// Data integrity: a sell in the history exceeds its position.
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, taxrules.ErrMissingRate), errors.Is(err, taxrules.ErrNoTable):
			ctxLogger.Error("Tax rule configuration incomplete", "error", err)
			utils.SendJSONError(w, "Tax rule configuration incomplete", http.StatusInternalServerError)
		default:
			ctxLogger.Error("Error computing DARF report", "year", year, "month", month, "error", err)
			utils.SendJSONError(w, "Failed to compute DARF report", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, report, http.StatusOK)
}
