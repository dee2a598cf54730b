package services

import (
	"context"
	"encoding/json"

	"github.com/psylab-io/psy-engine/pkg/models"
)

// mockOntologyRepo implements repositories.OntologyRepository for testing.
type mockOntologyRepo struct {
	ontologies []models.Ontology
	categories []models.OntologyCategory
	versions   []models.OntologyVersion

	ontologiesErr error
	mutateErr     error
}

func (m *mockOntologyRepo) Ontologies(_ context.Context) ([]models.Ontology, error) {
	if m.ontologiesErr != nil {
		return nil, m.ontologiesErr
	}
	out := make([]models.Ontology, len(m.ontologies))
	copy(out, m.ontologies)
	return out, nil
}

func (m *mockOntologyRepo) MutateOntologies(_ context.Context, fn func([]models.Ontology) ([]models.Ontology, error)) ([]models.Ontology, error) {
	if m.mutateErr != nil {
		return nil, m.mutateErr
	}
	working := make([]models.Ontology, len(m.ontologies))
	copy(working, m.ontologies)
	updated, err := fn(working)
	if err != nil {
		return nil, err
	}
	m.ontologies = updated
	return updated, nil
}

func (m *mockOntologyRepo) Categories(_ context.Context) ([]models.OntologyCategory, error) {
	return m.categories, nil
}

func (m *mockOntologyRepo) Versions(_ context.Context) ([]models.OntologyVersion, error) {
	return m.versions, nil
}

func (m *mockOntologyRepo) AppendVersion(_ context.Context, version models.OntologyVersion) error {
	m.versions = append(m.versions, version)
	return nil
}

// mockKnowledgeRepo implements repositories.KnowledgeRepository for testing.
type mockKnowledgeRepo struct {
	graph  models.KnowledgeGraph
	layout json.RawMessage
}

func (m *mockKnowledgeRepo) Graph(_ context.Context) (*models.KnowledgeGraph, error) {
	g := m.graph
	return &g, nil
}

func (m *mockKnowledgeRepo) MutateGraph(_ context.Context, fn func(*models.KnowledgeGraph) error) (*models.KnowledgeGraph, error) {
	working := m.graph
	working.Nodes = append([]models.KnowledgeNode(nil), m.graph.Nodes...)
	working.Edges = append([]models.KnowledgeEdge(nil), m.graph.Edges...)
	if err := fn(&working); err != nil {
		return nil, err
	}
	m.graph = working
	return &working, nil
}

func (m *mockKnowledgeRepo) Layout(_ context.Context) (json.RawMessage, error) {
	if m.layout == nil {
		return json.RawMessage("{}"), nil
	}
	return m.layout, nil
}

func (m *mockKnowledgeRepo) SaveLayout(_ context.Context, layout json.RawMessage) error {
	m.layout = layout
	return nil
}

// mockPromptRepo implements repositories.PromptRepository for testing.
type mockPromptRepo struct {
	templates  []models.PromptTemplate
	categories []models.PromptCategory
}

func (m *mockPromptRepo) Templates(_ context.Context) ([]models.PromptTemplate, error) {
	out := make([]models.PromptTemplate, len(m.templates))
	copy(out, m.templates)
	return out, nil
}

func (m *mockPromptRepo) MutateTemplates(_ context.Context, fn func([]models.PromptTemplate) ([]models.PromptTemplate, error)) ([]models.PromptTemplate, error) {
	working := make([]models.PromptTemplate, len(m.templates))
	copy(working, m.templates)
	updated, err := fn(working)
	if err != nil {
		return nil, err
	}
	m.templates = updated
	return updated, nil
}

func (m *mockPromptRepo) Categories(_ context.Context) ([]models.PromptCategory, error) {
	return m.categories, nil
}

func (m *mockPromptRepo) MutateCategories(_ context.Context, fn func([]models.PromptCategory) ([]models.PromptCategory, error)) ([]models.PromptCategory, error) {
	updated, err := fn(m.categories)
	if err != nil {
		return nil, err
	}
	m.categories = updated
	return updated, nil
}

// mockModelRepo implements repositories.ModelRepository for testing.
type mockModelRepo struct {
	models []models.Model
	policy models.ModelPolicy
}

func (m *mockModelRepo) Models(_ context.Context) ([]models.Model, error) {
	out := make([]models.Model, len(m.models))
	copy(out, m.models)
	return out, nil
}

func (m *mockModelRepo) MutateModels(_ context.Context, fn func([]models.Model) ([]models.Model, error)) ([]models.Model, error) {
	working := make([]models.Model, len(m.models))
	copy(working, m.models)
	updated, err := fn(working)
	if err != nil {
		return nil, err
	}
	m.models = updated
	return updated, nil
}

func (m *mockModelRepo) Policy(_ context.Context) (*models.ModelPolicy, error) {
	p := m.policy
	return &p, nil
}

func (m *mockModelRepo) SavePolicy(_ context.Context, policy *models.ModelPolicy) error {
	m.policy = *policy
	return nil
}
