package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/prompts"
	"github.com/psylab-io/psy-engine/pkg/services"
)

// PromptTemplateListResponse for GET /api/prompt-templates
type PromptTemplateListResponse struct {
	Templates []models.PromptTemplate `json:"templates"`
	Total     int                     `json:"total"`
}

// CreatePromptTemplateRequest for POST /api/prompt-templates
type CreatePromptTemplateRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

// CompileResponse for POST /api/prompt-templates/{id}/compile
type CompileResponse struct {
	Content string `json:"content"`
}

// ScanResponse for POST /api/prompt-templates/{id}/variables/scan
type ScanResponse struct {
	Scanned   []prompts.ScannedVariable `json:"scanned"`
	Variables []models.PromptVariable   `json:"variables"`
}

// PromptCategoryRequest for POST/PUT on /api/prompt-categories
type PromptCategoryRequest struct {
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name"`
}

// PromptHandler handles prompt template HTTP requests.
type PromptHandler struct {
	promptService services.PromptService
	logger        *zap.Logger
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(promptService services.PromptService, logger *zap.Logger) *PromptHandler {
	return &PromptHandler{
		promptService: promptService,
		logger:        logger,
	}
}

// RegisterRoutes registers the prompt handler's routes on the given mux.
func (h *PromptHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/prompt-templates", h.List)
	mux.HandleFunc("POST /api/prompt-templates", h.Create)
	mux.HandleFunc("GET /api/prompt-templates/{id}", h.Get)
	mux.HandleFunc("PUT /api/prompt-templates/{id}", h.Update)
	mux.HandleFunc("DELETE /api/prompt-templates/{id}", h.Delete)
	mux.HandleFunc("POST /api/prompt-templates/{id}/compile", h.Compile)
	mux.HandleFunc("POST /api/prompt-templates/{id}/variables/scan", h.ScanVariables)
	mux.HandleFunc("POST /api/prompt-templates/{id}/test", h.Test)

	mux.HandleFunc("GET /api/prompt-categories", h.Categories)
	mux.HandleFunc("POST /api/prompt-categories", h.AddCategory)
	mux.HandleFunc("PUT /api/prompt-categories/{id}", h.RenameCategory)
	mux.HandleFunc("DELETE /api/prompt-categories/{id}", h.DeleteCategory)
}

// List handles GET /api/prompt-templates
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.promptService.Templates(r.Context())
	if err != nil {
		h.logger.Error("Failed to list prompt templates", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_prompt_templates_failed")
		return
	}

	response := PromptTemplateListResponse{
		Templates: templates,
		Total:     len(templates),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/prompt-templates/{id}
func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	template, err := h.promptService.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_prompt_template_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/prompt-templates
func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePromptTemplateRequest
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	template, err := h.promptService.Create(r.Context(), req.Name, req.CategoryID)
	if err != nil {
		h.logger.Error("Failed to create prompt template",
			zap.String("name", req.Name),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_prompt_template_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/prompt-templates/{id}
func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req services.TemplateUpdate
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	template, err := h.promptService.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("Failed to update prompt template",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_prompt_template_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: template}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/prompt-templates/{id}
func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.promptService.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete prompt template",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_prompt_template_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Compile handles POST /api/prompt-templates/{id}/compile
func (h *PromptHandler) Compile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	content, err := h.promptService.Compile(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "compile_prompt_template_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: CompileResponse{Content: content}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ScanVariables handles POST /api/prompt-templates/{id}/variables/scan
func (h *PromptHandler) ScanVariables(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	scanned, variables, err := h.promptService.ScanVariables(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to scan template variables",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "scan_variables_failed")
		return
	}

	response := ScanResponse{
		Scanned:   scanned,
		Variables: variables,
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Test handles POST /api/prompt-templates/{id}/test
func (h *PromptHandler) Test(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := h.promptService.Test(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "test_prompt_template_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Categories handles GET /api/prompt-categories
func (h *PromptHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.promptService.Categories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list prompt categories", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_prompt_categories_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: categories}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddCategory handles POST /api/prompt-categories
func (h *PromptHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req PromptCategoryRequest
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	category, err := h.promptService.AddCategory(r.Context(), req.ParentID, req.Name)
	if err != nil {
		h.logger.Error("Failed to add prompt category",
			zap.String("parent_id", req.ParentID),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "add_prompt_category_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: category}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RenameCategory handles PUT /api/prompt-categories/{id}
func (h *PromptHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req PromptCategoryRequest
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	if err := h.promptService.RenameCategory(r.Context(), id, req.Name); err != nil {
		h.logger.Error("Failed to rename prompt category",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "rename_prompt_category_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteCategory handles DELETE /api/prompt-categories/{id}
func (h *PromptHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.promptService.DeleteCategory(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete prompt category",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_prompt_category_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
