package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/services"
)

// OntologyListResponse for GET /api/ontologies
type OntologyListResponse struct {
	Ontologies []models.Ontology `json:"ontologies"`
	Total      int               `json:"total"`
}

// PublishRequest for POST /api/ontologies/publish
type PublishRequest struct {
	Comment string `json:"comment"`
}

// OntologyHandler handles ontology registry HTTP requests.
type OntologyHandler struct {
	ontologyService services.OntologyService
	logger          *zap.Logger
}

// NewOntologyHandler creates a new ontology handler.
func NewOntologyHandler(ontologyService services.OntologyService, logger *zap.Logger) *OntologyHandler {
	return &OntologyHandler{
		ontologyService: ontologyService,
		logger:          logger,
	}
}

// RegisterRoutes registers the ontology handler's routes on the given mux.
func (h *OntologyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ontologies", h.List)
	mux.HandleFunc("POST /api/ontologies", h.Create)
	mux.HandleFunc("GET /api/ontologies/graph", h.Graph)
	mux.HandleFunc("POST /api/ontologies/publish", h.Publish)
	mux.HandleFunc("GET /api/ontologies/versions", h.Versions)
	mux.HandleFunc("GET /api/ontologies/{id}", h.Get)
	mux.HandleFunc("PUT /api/ontologies/{id}", h.Update)
	mux.HandleFunc("DELETE /api/ontologies/{id}", h.Delete)
	mux.HandleFunc("GET /api/ontology-categories", h.Categories)
}

// List handles GET /api/ontologies?category=&query=
func (h *OntologyHandler) List(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("category")
	query := r.URL.Query().Get("query")

	ontologies, err := h.ontologyService.List(r.Context(), categoryID, query)
	if err != nil {
		h.logger.Error("Failed to list ontologies", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_ontologies_failed")
		return
	}

	response := OntologyListResponse{
		Ontologies: ontologies,
		Total:      len(ontologies),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/ontologies/{id}
func (h *OntologyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ontology, err := h.ontologyService.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err, "get_ontology_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: ontology}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/ontologies
func (h *OntologyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Ontology
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	created, err := h.ontologyService.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create ontology",
			zap.String("name", req.Name),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_ontology_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/ontologies/{id}
func (h *OntologyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.Ontology
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	updated, err := h.ontologyService.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("Failed to update ontology",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_ontology_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/ontologies/{id}
func (h *OntologyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.ontologyService.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete ontology",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_ontology_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Categories handles GET /api/ontology-categories
func (h *OntologyHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.ontologyService.Categories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list ontology categories", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_ontology_categories_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: categories}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Graph handles GET /api/ontologies/graph
func (h *OntologyHandler) Graph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.ontologyService.Graph(r.Context())
	if err != nil {
		h.logger.Error("Failed to build ontology graph", zap.Error(err))
		WriteServiceError(w, h.logger, err, "ontology_graph_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: graph}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Publish handles POST /api/ontologies/publish
func (h *OntologyHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	version, err := h.ontologyService.Publish(r.Context(), req.Comment)
	if err != nil {
		h.logger.Error("Failed to publish ontology version", zap.Error(err))
		WriteServiceError(w, h.logger, err, "publish_ontology_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: version}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Versions handles GET /api/ontologies/versions
func (h *OntologyHandler) Versions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.ontologyService.Versions(r.Context())
	if err != nil {
		h.logger.Error("Failed to list ontology versions", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_ontology_versions_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: versions}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
