package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/apperrors"
	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/services"
)

func newKnowledgeMux(svc *stubKnowledgeService) *http.ServeMux {
	mux := http.NewServeMux()
	NewKnowledgeHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestKnowledgeGraph(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{
		graph: &models.KnowledgeGraph{
			Nodes: []models.KnowledgeNode{{ID: "n1", Label: "张三"}},
			Edges: []models.KnowledgeEdge{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge/graph", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var graph models.KnowledgeGraph
	decodeEnvelope(t, rec, &graph)
	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "张三", graph.Nodes[0].Label)
}

func TestCreateNode(t *testing.T) {
	svc := &stubKnowledgeService{
		node: &models.KnowledgeNode{ID: "node_1", Label: "张三", OntologyType: "ont_person"},
	}
	mux := newKnowledgeMux(svc)

	body := `{"ontologyId":"ont_person","label":"张三","properties":{"age":32}}`
	req := httptest.NewRequest(http.MethodPost, "/api/knowledge/nodes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var node models.KnowledgeNode
	decodeEnvelope(t, rec, &node)
	assert.Equal(t, "node_1", node.ID)

	assert.Equal(t, "ont_person", svc.lastNodeInput.OntologyID)
	assert.Equal(t, float64(32), svc.lastNodeInput.Properties["age"])
}

func TestUpdateNode_NotFound(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{
		err: fmt.Errorf("node node_missing: %w", apperrors.ErrNotFound),
	})

	req := httptest.NewRequest(http.MethodPut, "/api/knowledge/nodes/node_missing",
		strings.NewReader(`{"label":"李四"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec)["error"])
}

func TestAllowedRelations(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{
		relations: []models.OntologyRelation{
			{ID: "rel_1", Name: "EXPERIENCES", TargetID: "ont_anxiety"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge/relations/allowed?source=n1&target=n2", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AllowedRelationsResponse
	decodeEnvelope(t, rec, &resp)
	require.Len(t, resp.Relations, 1)
	assert.Equal(t, "EXPERIENCES", resp.Relations[0].Name)
	assert.Equal(t, models.RelatedToLabel, resp.FallbackLabel)
}

func TestAllowedRelations_MissingParams(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge/relations/allowed?source=n1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec)["error"])
}

func TestAllowedRelations_MissingEndpoint(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{
		err: fmt.Errorf("node n9: %w", apperrors.ErrReferentialGap),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge/relations/allowed?source=n1&target=n9", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "data_missing", decodeError(t, rec)["error"])
}

func TestCreateEdge(t *testing.T) {
	svc := &stubKnowledgeService{
		edge: &models.KnowledgeEdge{ID: "edge_1", Source: "n1", Target: "n2", Label: "EXPERIENCES"},
	}
	mux := newKnowledgeMux(svc)

	body := `{"source":"n1","target":"n2","label":"EXPERIENCES"}`
	req := httptest.NewRequest(http.MethodPost, "/api/knowledge/edges", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var edge models.KnowledgeEdge
	decodeEnvelope(t, rec, &edge)
	assert.Equal(t, "edge_1", edge.ID)
}

func TestUpdateEdge_PathIDOverridesBody(t *testing.T) {
	svc := &stubKnowledgeService{
		edge: &models.KnowledgeEdge{ID: "edge_1", Source: "n1", Target: "n2", Label: "TREATED_BY"},
	}
	mux := newKnowledgeMux(svc)

	body := `{"id":"edge_stale","source":"n1","target":"n2","label":"TREATED_BY"}`
	req := httptest.NewRequest(http.MethodPut, "/api/knowledge/edges/edge_1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edge_1", svc.lastEdgeInput.ID)
}

func TestUpdateEdge_LegacyTriple(t *testing.T) {
	svc := &stubKnowledgeService{
		edge: &models.KnowledgeEdge{ID: "edge_new", Source: "n1", Target: "n2", Label: "SUFFERS"},
	}
	mux := newKnowledgeMux(svc)

	body := `{"source":"n1","target":"n2","oldLabel":"EXPERIENCES","label":"SUFFERS"}`
	req := httptest.NewRequest(http.MethodPut, "/api/knowledge/edges", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.lastEdgeInput.ID)
	assert.Equal(t, "EXPERIENCES", svc.lastEdgeInput.OldLabel)
}

func TestDeleteEdge_ByID(t *testing.T) {
	svc := &stubKnowledgeService{}
	mux := newKnowledgeMux(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/knowledge/edges/edge_1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edge_1", svc.lastEdgeInput.ID)
}

func TestDeleteEdge_ByTriple(t *testing.T) {
	svc := &stubKnowledgeService{}
	mux := newKnowledgeMux(svc)

	req := httptest.NewRequest(http.MethodDelete,
		"/api/knowledge/edges?source=n1&target=n2&label=EXPERIENCES", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.EdgeInput{Source: "n1", Target: "n2", Label: "EXPERIENCES"}, svc.lastEdgeInput)
}

func TestDeleteEdge_IncompleteKey(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/knowledge/edges?source=n1&target=n2", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec)["error"])
}

func TestResolveEdge(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{
		detail: &services.EdgeDetail{
			Edge:   models.KnowledgeEdge{ID: "edge_1", Source: "n1", Target: "n2", Label: "EXPERIENCES"},
			Source: models.KnowledgeNode{ID: "n1", Label: "张三"},
			Target: models.KnowledgeNode{ID: "n2", Label: "中度焦虑"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge/edges/resolve?id=edge_1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var detail services.EdgeDetail
	decodeEnvelope(t, rec, &detail)
	assert.Equal(t, "张三", detail.Source.Label)
	assert.Equal(t, "中度焦虑", detail.Target.Label)
}

func TestLayoutRoundTrip(t *testing.T) {
	svc := &stubKnowledgeService{layout: json.RawMessage(`{"nodes":{}}`)}
	mux := newKnowledgeMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/graph-layout", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	layout := `{"nodes":{"n1":{"x":12,"y":40}}}`
	req = httptest.NewRequest(http.MethodPut, "/api/graph-layout", strings.NewReader(layout))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, layout, string(svc.lastLayout))
}

func TestSaveLayout_RejectsInvalidJSON(t *testing.T) {
	mux := newKnowledgeMux(&stubKnowledgeService{})

	req := httptest.NewRequest(http.MethodPut, "/api/graph-layout", strings.NewReader(`{"nodes":`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec)["error"])
}
