package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/apperrors"
	"github.com/psylab-io/psy-engine/pkg/llm"
	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/prompts"
	"github.com/psylab-io/psy-engine/pkg/services"
)

type fakeOntologyService struct {
	ontologies []models.Ontology
	err        error
}

var _ services.OntologyService = (*fakeOntologyService)(nil)

func (f *fakeOntologyService) List(context.Context, string, string) ([]models.Ontology, error) {
	return f.ontologies, f.err
}

func (f *fakeOntologyService) Get(_ context.Context, id string) (*models.Ontology, error) {
	for i := range f.ontologies {
		if f.ontologies[i].ID == id {
			return &f.ontologies[i], nil
		}
	}
	return nil, fmt.Errorf("ontology %s: %w", id, apperrors.ErrNotFound)
}

func (f *fakeOntologyService) Create(context.Context, models.Ontology) (*models.Ontology, error) {
	return nil, f.err
}

func (f *fakeOntologyService) Update(context.Context, string, models.Ontology) (*models.Ontology, error) {
	return nil, f.err
}

func (f *fakeOntologyService) Delete(context.Context, string) error { return f.err }

func (f *fakeOntologyService) Categories(context.Context) ([]models.OntologyCategory, error) {
	return nil, f.err
}

func (f *fakeOntologyService) Graph(context.Context) (*services.GraphData, error) {
	return nil, f.err
}

func (f *fakeOntologyService) Publish(context.Context, string) (*models.OntologyVersion, error) {
	return nil, f.err
}

func (f *fakeOntologyService) Versions(context.Context) ([]models.OntologyVersion, error) {
	return nil, f.err
}

type fakeKnowledgeService struct {
	graph *models.KnowledgeGraph
	err   error
}

var _ services.KnowledgeService = (*fakeKnowledgeService)(nil)

func (f *fakeKnowledgeService) Graph(context.Context) (*models.KnowledgeGraph, error) {
	return f.graph, f.err
}

func (f *fakeKnowledgeService) CreateNode(context.Context, services.NodeInput) (*models.KnowledgeNode, error) {
	return nil, f.err
}

func (f *fakeKnowledgeService) UpdateNode(context.Context, string, services.NodeInput) (*models.KnowledgeNode, error) {
	return nil, f.err
}

func (f *fakeKnowledgeService) DeleteNode(context.Context, string) error { return f.err }

func (f *fakeKnowledgeService) AllowedRelations(context.Context, string, string) ([]models.OntologyRelation, error) {
	return nil, f.err
}

func (f *fakeKnowledgeService) CreateEdge(context.Context, services.EdgeInput) (*models.KnowledgeEdge, error) {
	return nil, f.err
}

func (f *fakeKnowledgeService) UpdateEdge(context.Context, services.EdgeInput) (*models.KnowledgeEdge, error) {
	return nil, f.err
}

func (f *fakeKnowledgeService) DeleteEdge(context.Context, services.EdgeInput) error { return f.err }

func (f *fakeKnowledgeService) ResolveEdge(context.Context, string, string, string, string) (*services.EdgeDetail, error) {
	return nil, f.err
}

func (f *fakeKnowledgeService) Layout(context.Context) (json.RawMessage, error) {
	return nil, f.err
}

func (f *fakeKnowledgeService) SaveLayout(context.Context, json.RawMessage) error { return f.err }

type fakePromptService struct {
	compiled map[string]string
	err      error
}

var _ services.PromptService = (*fakePromptService)(nil)

func (f *fakePromptService) Templates(context.Context) ([]models.PromptTemplate, error) {
	return nil, f.err
}

func (f *fakePromptService) Get(context.Context, string) (*models.PromptTemplate, error) {
	return nil, f.err
}

func (f *fakePromptService) Create(context.Context, string, string) (*models.PromptTemplate, error) {
	return nil, f.err
}

func (f *fakePromptService) Update(context.Context, string, services.TemplateUpdate) (*models.PromptTemplate, error) {
	return nil, f.err
}

func (f *fakePromptService) Delete(context.Context, string) error { return f.err }

func (f *fakePromptService) Categories(context.Context) ([]models.PromptCategory, error) {
	return nil, f.err
}

func (f *fakePromptService) AddCategory(context.Context, string, string) (*models.PromptCategory, error) {
	return nil, f.err
}

func (f *fakePromptService) RenameCategory(context.Context, string, string) error { return f.err }

func (f *fakePromptService) DeleteCategory(context.Context, string) error { return f.err }

func (f *fakePromptService) Compile(_ context.Context, id string) (string, error) {
	if content, ok := f.compiled[id]; ok {
		return content, nil
	}
	return "", fmt.Errorf("template %s: %w", id, apperrors.ErrNotFound)
}

func (f *fakePromptService) ScanVariables(context.Context, string) ([]prompts.ScannedVariable, []models.PromptVariable, error) {
	return nil, nil, f.err
}

func (f *fakePromptService) Test(context.Context, string) (*llm.TestResult, error) {
	return nil, f.err
}

func newToolServer(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer("psy-engine-test", "0.0.1", server.WithToolCapabilities(true))
	Register(s, deps)
	return s
}

// callTool drives one tools/call request through the server's JSON-RPC
// entry point and returns the first text content plus the isError flag.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      name,
			"arguments": args,
		},
	}
	raw, err := json.Marshal(request)
	require.NoError(t, err)

	response := s.HandleMessage(context.Background(), raw)
	require.NotNil(t, response)

	encoded, err := json.Marshal(response)
	require.NoError(t, err)

	var parsed struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(encoded, &parsed))
	require.Nil(t, parsed.Error, "unexpected JSON-RPC error")
	require.NotEmpty(t, parsed.Result.Content)
	return parsed.Result.Content[0].Text, parsed.Result.IsError
}

func testDeps() *Deps {
	return &Deps{
		OntologyService: &fakeOntologyService{
			ontologies: []models.Ontology{
				{ID: "ont_person", Name: "Person", Label: "人物", Type: models.OntologyTypeEntity, CategoryID: "cat_person"},
				{ID: "ont_anxiety", Name: "Anxiety", Label: "焦虑", Type: models.OntologyTypeEntity, CategoryID: "cat_status"},
			},
		},
		KnowledgeService: &fakeKnowledgeService{
			graph: &models.KnowledgeGraph{
				Nodes: []models.KnowledgeNode{{ID: "n1", Label: "张三", OntologyType: "ont_person"}},
				Edges: []models.KnowledgeEdge{},
			},
		},
		PromptService: &fakePromptService{
			compiled: map[string]string{
				"tpl_1": "# Role: 你是一名心理学知识工程师",
			},
		},
		Logger: zap.NewNop(),
	}
}

func TestListOntologiesTool(t *testing.T) {
	s := newToolServer(testDeps())

	text, isErr := callTool(t, s, "list_ontologies", map[string]any{})
	require.False(t, isErr)

	var result struct {
		Ontologies []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Label string `json:"label"`
		} `json:"ontologies"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "Person", result.Ontologies[0].Name)
}

func TestGetOntologyTool(t *testing.T) {
	s := newToolServer(testDeps())

	text, isErr := callTool(t, s, "get_ontology", map[string]any{"id": "ont_person"})
	require.False(t, isErr)

	var ontology models.Ontology
	require.NoError(t, json.Unmarshal([]byte(text), &ontology))
	assert.Equal(t, "人物", ontology.Label)
}

func TestGetOntologyTool_NotFound(t *testing.T) {
	s := newToolServer(testDeps())

	text, isErr := callTool(t, s, "get_ontology", map[string]any{"id": "ont_missing"})
	assert.True(t, isErr)

	var result struct {
		Error bool   `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.True(t, result.Error)
	assert.Equal(t, "ontology_not_found", result.Code)
}

func TestKnowledgeGraphTool(t *testing.T) {
	s := newToolServer(testDeps())

	text, isErr := callTool(t, s, "get_knowledge_graph", map[string]any{})
	require.False(t, isErr)

	var graph models.KnowledgeGraph
	require.NoError(t, json.Unmarshal([]byte(text), &graph))
	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "张三", graph.Nodes[0].Label)
}

func TestCompilePromptTool(t *testing.T) {
	s := newToolServer(testDeps())

	text, isErr := callTool(t, s, "compile_prompt", map[string]any{"id": "tpl_1"})
	require.False(t, isErr)

	var result struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, "tpl_1", result.ID)
	assert.Equal(t, "# Role: 你是一名心理学知识工程师", result.Content)
}

func TestCompilePromptTool_NotFound(t *testing.T) {
	s := newToolServer(testDeps())

	text, isErr := callTool(t, s, "compile_prompt", map[string]any{"id": "tpl_missing"})
	assert.True(t, isErr)

	var result struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, "template_not_found", result.Code)
}
