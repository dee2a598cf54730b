package handlers

import (
	"context"
	"encoding/json"

	"github.com/psylab-io/psy-engine/pkg/llm"
	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/prompts"
	"github.com/psylab-io/psy-engine/pkg/services"
)

// Stub services returning canned values. A non-nil err field wins over the
// canned value for every method, which is enough to drive the error-mapping
// paths without per-method wiring.

type stubOntologyService struct {
	ontologies []models.Ontology
	ontology   *models.Ontology
	categories []models.OntologyCategory
	graph      *services.GraphData
	version    *models.OntologyVersion
	versions   []models.OntologyVersion
	err        error

	lastCategoryID string
	lastQuery      string
	lastComment    string
}

var _ services.OntologyService = (*stubOntologyService)(nil)

func (s *stubOntologyService) List(_ context.Context, categoryID, query string) ([]models.Ontology, error) {
	s.lastCategoryID = categoryID
	s.lastQuery = query
	return s.ontologies, s.err
}

func (s *stubOntologyService) Get(context.Context, string) (*models.Ontology, error) {
	return s.ontology, s.err
}

func (s *stubOntologyService) Create(_ context.Context, ont models.Ontology) (*models.Ontology, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ont, nil
}

func (s *stubOntologyService) Update(_ context.Context, _ string, ont models.Ontology) (*models.Ontology, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ont, nil
}

func (s *stubOntologyService) Delete(context.Context, string) error {
	return s.err
}

func (s *stubOntologyService) Categories(context.Context) ([]models.OntologyCategory, error) {
	return s.categories, s.err
}

func (s *stubOntologyService) Graph(context.Context) (*services.GraphData, error) {
	return s.graph, s.err
}

func (s *stubOntologyService) Publish(_ context.Context, comment string) (*models.OntologyVersion, error) {
	s.lastComment = comment
	return s.version, s.err
}

func (s *stubOntologyService) Versions(context.Context) ([]models.OntologyVersion, error) {
	return s.versions, s.err
}

type stubKnowledgeService struct {
	graph     *models.KnowledgeGraph
	node      *models.KnowledgeNode
	relations []models.OntologyRelation
	edge      *models.KnowledgeEdge
	detail    *services.EdgeDetail
	layout    json.RawMessage
	err       error

	lastNodeInput services.NodeInput
	lastEdgeInput services.EdgeInput
	lastLayout    json.RawMessage
}

var _ services.KnowledgeService = (*stubKnowledgeService)(nil)

func (s *stubKnowledgeService) Graph(context.Context) (*models.KnowledgeGraph, error) {
	return s.graph, s.err
}

func (s *stubKnowledgeService) CreateNode(_ context.Context, in services.NodeInput) (*models.KnowledgeNode, error) {
	s.lastNodeInput = in
	return s.node, s.err
}

func (s *stubKnowledgeService) UpdateNode(_ context.Context, _ string, in services.NodeInput) (*models.KnowledgeNode, error) {
	s.lastNodeInput = in
	return s.node, s.err
}

func (s *stubKnowledgeService) DeleteNode(context.Context, string) error {
	return s.err
}

func (s *stubKnowledgeService) AllowedRelations(context.Context, string, string) ([]models.OntologyRelation, error) {
	return s.relations, s.err
}

func (s *stubKnowledgeService) CreateEdge(_ context.Context, in services.EdgeInput) (*models.KnowledgeEdge, error) {
	s.lastEdgeInput = in
	return s.edge, s.err
}

func (s *stubKnowledgeService) UpdateEdge(_ context.Context, in services.EdgeInput) (*models.KnowledgeEdge, error) {
	s.lastEdgeInput = in
	return s.edge, s.err
}

func (s *stubKnowledgeService) DeleteEdge(_ context.Context, in services.EdgeInput) error {
	s.lastEdgeInput = in
	return s.err
}

func (s *stubKnowledgeService) ResolveEdge(context.Context, string, string, string, string) (*services.EdgeDetail, error) {
	return s.detail, s.err
}

func (s *stubKnowledgeService) Layout(context.Context) (json.RawMessage, error) {
	return s.layout, s.err
}

func (s *stubKnowledgeService) SaveLayout(_ context.Context, layout json.RawMessage) error {
	s.lastLayout = layout
	return s.err
}

type stubPromptService struct {
	templates  []models.PromptTemplate
	template   *models.PromptTemplate
	categories []models.PromptCategory
	category   *models.PromptCategory
	compiled   string
	scanned    []prompts.ScannedVariable
	variables  []models.PromptVariable
	testResult *llm.TestResult
	err        error

	lastName       string
	lastCategoryID string
	lastUpdate     services.TemplateUpdate
}

var _ services.PromptService = (*stubPromptService)(nil)

func (s *stubPromptService) Templates(context.Context) ([]models.PromptTemplate, error) {
	return s.templates, s.err
}

func (s *stubPromptService) Get(context.Context, string) (*models.PromptTemplate, error) {
	return s.template, s.err
}

func (s *stubPromptService) Create(_ context.Context, name, categoryID string) (*models.PromptTemplate, error) {
	s.lastName = name
	s.lastCategoryID = categoryID
	return s.template, s.err
}

func (s *stubPromptService) Update(_ context.Context, _ string, update services.TemplateUpdate) (*models.PromptTemplate, error) {
	s.lastUpdate = update
	return s.template, s.err
}

func (s *stubPromptService) Delete(context.Context, string) error {
	return s.err
}

func (s *stubPromptService) Categories(context.Context) ([]models.PromptCategory, error) {
	return s.categories, s.err
}

func (s *stubPromptService) AddCategory(_ context.Context, parentID, name string) (*models.PromptCategory, error) {
	s.lastCategoryID = parentID
	s.lastName = name
	return s.category, s.err
}

func (s *stubPromptService) RenameCategory(_ context.Context, id, name string) error {
	s.lastCategoryID = id
	s.lastName = name
	return s.err
}

func (s *stubPromptService) DeleteCategory(context.Context, string) error {
	return s.err
}

func (s *stubPromptService) Compile(context.Context, string) (string, error) {
	return s.compiled, s.err
}

func (s *stubPromptService) ScanVariables(context.Context, string) ([]prompts.ScannedVariable, []models.PromptVariable, error) {
	return s.scanned, s.variables, s.err
}

func (s *stubPromptService) Test(context.Context, string) (*llm.TestResult, error) {
	return s.testResult, s.err
}

type stubModelService struct {
	models     []models.Model
	model      *models.Model
	policy     *models.ModelPolicy
	testResult *llm.TestResult
	err        error

	lastModel  models.Model
	lastPolicy models.ModelPolicy
}

var _ services.ModelService = (*stubModelService)(nil)

func (s *stubModelService) List(context.Context) ([]models.Model, error) {
	return s.models, s.err
}

func (s *stubModelService) Get(context.Context, string) (*models.Model, error) {
	return s.model, s.err
}

func (s *stubModelService) Create(_ context.Context, m models.Model) (*models.Model, error) {
	s.lastModel = m
	return s.model, s.err
}

func (s *stubModelService) Update(_ context.Context, _ string, m models.Model) (*models.Model, error) {
	s.lastModel = m
	return s.model, s.err
}

func (s *stubModelService) Delete(context.Context, string) error {
	return s.err
}

func (s *stubModelService) Policy(context.Context) (*models.ModelPolicy, error) {
	return s.policy, s.err
}

func (s *stubModelService) UpdatePolicy(_ context.Context, policy models.ModelPolicy) (*models.ModelPolicy, error) {
	s.lastPolicy = policy
	if s.err != nil {
		return nil, s.err
	}
	return &policy, nil
}

func (s *stubModelService) Test(context.Context, string) (*llm.TestResult, error) {
	return s.testResult, s.err
}
