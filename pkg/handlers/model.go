package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/services"
)

// ModelListResponse for GET /api/models
type ModelListResponse struct {
	Models []models.Model `json:"models"`
	Total  int            `json:"total"`
}

// ModelHandler handles model configuration HTTP requests.
type ModelHandler struct {
	modelService services.ModelService
	logger       *zap.Logger
}

// NewModelHandler creates a new model handler.
func NewModelHandler(modelService services.ModelService, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{
		modelService: modelService,
		logger:       logger,
	}
}

// RegisterRoutes registers the model handler's routes on the given mux.
func (h *ModelHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/models", h.List)
	mux.HandleFunc("POST /api/models", h.Create)
	mux.HandleFunc("GET /api/models/{id}", h.Get)
	mux.HandleFunc("PUT /api/models/{id}", h.Update)
	mux.HandleFunc("DELETE /api/models/{id}", h.Delete)
	mux.HandleFunc("POST /api/models/{id}/test", h.Test)

	mux.HandleFunc("GET /api/model-policy", h.Policy)
	mux.HandleFunc("PUT /api/model-policy", h.UpdatePolicy)
}

// List handles GET /api/models
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.modelService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list models", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_models_failed")
		return
	}

	response := ModelListResponse{
		Models: list,
		Total:  len(list),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/models/{id}
func (h *ModelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	model, err := h.modelService.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_model_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: model}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/models
func (h *ModelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Model
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	created, err := h.modelService.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create model",
			zap.String("name", req.Name),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_model_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/models/{id}
func (h *ModelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.Model
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	updated, err := h.modelService.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("Failed to update model",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_model_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/models/{id}
func (h *ModelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.modelService.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete model",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_model_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Test handles POST /api/models/{id}/test
func (h *ModelHandler) Test(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := h.modelService.Test(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "test_model_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Policy handles GET /api/model-policy
func (h *ModelHandler) Policy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.modelService.Policy(r.Context())
	if err != nil {
		h.logger.Error("Failed to load model policy", zap.Error(err))
		WriteServiceError(w, h.logger, err, "get_model_policy_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: policy}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdatePolicy handles PUT /api/model-policy
func (h *ModelHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var req models.ModelPolicy
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	policy, err := h.modelService.UpdatePolicy(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to update model policy", zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_model_policy_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: policy}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
