// backend/src/handlers/operation_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/darfolio/backend/src/logger"
	"github.com/username/darfolio/backend/src/models"
	"github.com/username/darfolio/backend/src/services"
	"github.com/username/darfolio/backend/src/utils"
)

type OperationHandler struct {
	darfService services.DarfService
}

func NewOperationHandler(darfService services.DarfService) *OperationHandler {
	return &OperationHandler{darfService: darfService}
}

func (h *OperationHandler) HandleCreateOperation(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var op models.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.darfService.CreateOperation(op)
	if err != nil {
		if errors.Is(err, models.ErrInvalidOperation) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctxLogger.Error("Error creating operation", "error", err)
		utils.SendJSONError(w, "Failed to create operation", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"id": created.ID, "message": "Operation created successfully"}, http.StatusCreated)
}

func (h *OperationHandler) HandleListOperations(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	filter := services.OperationFilter{
		AssetCode: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("asset_code"))),
	}
	if assetTypeStr := r.URL.Query().Get("asset_type"); assetTypeStr != "" {
		assetType := models.AssetType(assetTypeStr)
		if !assetType.Valid() {
			utils.SendJSONError(w, fmt.Sprintf("unknown asset type %q", assetTypeStr), http.StatusBadRequest)
			return
		}
		filter.AssetType = assetType
	}

	operations, err := h.darfService.ListOperations(filter)
	if err != nil {
		ctxLogger.Error("Error listing operations", "error", err)
		utils.SendJSONError(w, "Failed to list operations", http.StatusInternalServerError)
		return
	}
	if operations == nil {
		operations = []models.Operation{}
	}
	utils.SendJSON(w, operations, http.StatusOK)
}

func (h *OperationHandler) HandleDeleteOperation(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		utils.SendJSONError(w, "operation id required", http.StatusBadRequest)
		return
	}

	if err := h.darfService.DeleteOperation(id); err != nil {
		if errors.Is(err, services.ErrOperationNotFound) {
			utils.SendJSONError(w, "Operation not found", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Error deleting operation", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to delete operation", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{"message": "Operation deleted successfully"}, http.StatusOK)
}

// HandleGetAssetTypes lists the enum values the API accepts, for form dropdowns.
func (h *OperationHandler) HandleGetAssetTypes(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]any{
		"asset_types":      models.AssetTypes,
		"trade_categories": models.TradeCategories,
		"operation_types":  models.OperationTypes,
	}, http.StatusOK)
}
