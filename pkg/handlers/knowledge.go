package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/services"
)

// AllowedRelationsResponse for GET /api/knowledge/relations/allowed.
// Relations come from ontology declarations; FallbackLabel is the universal
// label that is always selectable.
type AllowedRelationsResponse struct {
	Relations     []models.OntologyRelation `json:"relations"`
	FallbackLabel string                    `json:"fallbackLabel"`
}

// KnowledgeHandler handles knowledge graph HTTP requests.
type KnowledgeHandler struct {
	knowledgeService services.KnowledgeService
	logger           *zap.Logger
}

// NewKnowledgeHandler creates a new knowledge handler.
func NewKnowledgeHandler(knowledgeService services.KnowledgeService, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledgeService: knowledgeService,
		logger:           logger,
	}
}

// RegisterRoutes registers the knowledge handler's routes on the given mux.
func (h *KnowledgeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/knowledge/graph", h.Graph)

	mux.HandleFunc("POST /api/knowledge/nodes", h.CreateNode)
	mux.HandleFunc("PUT /api/knowledge/nodes/{id}", h.UpdateNode)
	mux.HandleFunc("DELETE /api/knowledge/nodes/{id}", h.DeleteNode)

	mux.HandleFunc("GET /api/knowledge/relations/allowed", h.AllowedRelations)

	mux.HandleFunc("POST /api/knowledge/edges", h.CreateEdge)
	mux.HandleFunc("GET /api/knowledge/edges/resolve", h.ResolveEdge)
	mux.HandleFunc("PUT /api/knowledge/edges/{id}", h.UpdateEdge)
	// Documents seeded before edges carried ids address the edge by its
	// (source, target, label) triple instead.
	mux.HandleFunc("PUT /api/knowledge/edges", h.UpdateEdge)
	mux.HandleFunc("DELETE /api/knowledge/edges/{id}", h.DeleteEdge)
	mux.HandleFunc("DELETE /api/knowledge/edges", h.DeleteEdge)

	mux.HandleFunc("GET /api/graph-layout", h.Layout)
	mux.HandleFunc("PUT /api/graph-layout", h.SaveLayout)
}

// Graph handles GET /api/knowledge/graph
func (h *KnowledgeHandler) Graph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.knowledgeService.Graph(r.Context())
	if err != nil {
		h.logger.Error("Failed to load knowledge graph", zap.Error(err))
		WriteServiceError(w, h.logger, err, "knowledge_graph_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: graph}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateNode handles POST /api/knowledge/nodes
func (h *KnowledgeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req services.NodeInput
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	node, err := h.knowledgeService.CreateNode(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create node",
			zap.String("ontology_id", req.OntologyID),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_node_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: node}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateNode handles PUT /api/knowledge/nodes/{id}
func (h *KnowledgeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req services.NodeInput
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	node, err := h.knowledgeService.UpdateNode(r.Context(), id, req)
	if err != nil {
		h.logger.Error("Failed to update node",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_node_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: node}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteNode handles DELETE /api/knowledge/nodes/{id}
func (h *KnowledgeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.knowledgeService.DeleteNode(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete node",
			zap.String("id", id),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_node_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AllowedRelations handles GET /api/knowledge/relations/allowed?source=&target=
func (h *KnowledgeHandler) AllowedRelations(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("source")
	targetID := r.URL.Query().Get("target")

	if sourceID == "" || targetID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "source and target are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	relations, err := h.knowledgeService.AllowedRelations(r.Context(), sourceID, targetID)
	if err != nil {
		h.logger.Error("Failed to compute allowed relations",
			zap.String("source", sourceID),
			zap.String("target", targetID),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "allowed_relations_failed")
		return
	}

	response := AllowedRelationsResponse{
		Relations:     relations,
		FallbackLabel: models.RelatedToLabel,
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateEdge handles POST /api/knowledge/edges
func (h *KnowledgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req services.EdgeInput
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}

	edge, err := h.knowledgeService.CreateEdge(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create edge",
			zap.String("source", req.Source),
			zap.String("target", req.Target),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_edge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: edge}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UpdateEdge handles PUT /api/knowledge/edges and /api/knowledge/edges/{id}
func (h *KnowledgeHandler) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	var req services.EdgeInput
	if !DecodeJSON(w, r, h.logger, &req) {
		return
	}
	if id := r.PathValue("id"); id != "" {
		req.ID = id
	}

	edge, err := h.knowledgeService.UpdateEdge(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to update edge",
			zap.String("id", req.ID),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_edge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: edge}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteEdge handles DELETE /api/knowledge/edges and /api/knowledge/edges/{id}.
// Without a path id the edge is addressed by source, target and label query
// parameters.
func (h *KnowledgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	req := services.EdgeInput{
		ID:     r.PathValue("id"),
		Source: r.URL.Query().Get("source"),
		Target: r.URL.Query().Get("target"),
		Label:  r.URL.Query().Get("label"),
	}

	if req.ID == "" && (req.Source == "" || req.Target == "" || req.Label == "") {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "edge id or source/target/label required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.knowledgeService.DeleteEdge(r.Context(), req); err != nil {
		h.logger.Error("Failed to delete edge",
			zap.String("id", req.ID),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_edge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ResolveEdge handles GET /api/knowledge/edges/resolve?id=&source=&target=&label=
func (h *KnowledgeHandler) ResolveEdge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	detail, err := h.knowledgeService.ResolveEdge(r.Context(),
		q.Get("id"), q.Get("source"), q.Get("target"), q.Get("label"))
	if err != nil {
		WriteServiceError(w, h.logger, err, "resolve_edge_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: detail}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Layout handles GET /api/graph-layout
func (h *KnowledgeHandler) Layout(w http.ResponseWriter, r *http.Request) {
	layout, err := h.knowledgeService.Layout(r.Context())
	if err != nil {
		h.logger.Error("Failed to load graph layout", zap.Error(err))
		WriteServiceError(w, h.logger, err, "graph_layout_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: layout}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SaveLayout handles PUT /api/graph-layout. The layout document is opaque to
// the server; it only has to be valid JSON.
func (h *KnowledgeHandler) SaveLayout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.knowledgeService.SaveLayout(r.Context(), body); err != nil {
		h.logger.Error("Failed to save graph layout", zap.Error(err))
		WriteServiceError(w, h.logger, err, "save_graph_layout_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
