package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/apperrors"
	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/repositories"
)

// NodeInput carries the authoring form for a knowledge node. OntologyID
// selects the type on create and is ignored on update (the type is immutable
// once the node exists).
type NodeInput struct {
	OntologyID  string         `json:"ontologyId"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// EdgeInput carries the authoring form for a knowledge edge. On update, ID
// identifies the edge when present; otherwise the (Source, Target, OldLabel)
// triple does, for documents seeded before edges carried ids.
type EdgeInput struct {
	ID         string            `json:"id,omitempty"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	OldLabel   string            `json:"oldLabel,omitempty"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// EdgeDetail is an edge with both endpoints resolved for the detail panel.
type EdgeDetail struct {
	Edge   models.KnowledgeEdge `json:"edge"`
	Source models.KnowledgeNode `json:"source"`
	Target models.KnowledgeNode `json:"target"`
}

// KnowledgeService manages the instance layer and keeps it consistent with
// the ontology registry.
type KnowledgeService interface {
	Graph(ctx context.Context) (*models.KnowledgeGraph, error)

	CreateNode(ctx context.Context, in NodeInput) (*models.KnowledgeNode, error)
	UpdateNode(ctx context.Context, id string, in NodeInput) (*models.KnowledgeNode, error)
	// DeleteNode removes the node and every edge touching it in one atomic
	// document replacement.
	DeleteNode(ctx context.Context, id string) error

	// AllowedRelations computes the declared relations valid from source to
	// target, in declaration order. The universal fallback is not included;
	// callers add it as a synthetic choice.
	AllowedRelations(ctx context.Context, sourceID, targetID string) ([]models.OntologyRelation, error)

	CreateEdge(ctx context.Context, in EdgeInput) (*models.KnowledgeEdge, error)
	UpdateEdge(ctx context.Context, in EdgeInput) (*models.KnowledgeEdge, error)
	DeleteEdge(ctx context.Context, in EdgeInput) error
	ResolveEdge(ctx context.Context, id, source, target, label string) (*EdgeDetail, error)

	Layout(ctx context.Context) (json.RawMessage, error)
	SaveLayout(ctx context.Context, layout json.RawMessage) error
}

type knowledgeService struct {
	repo         repositories.KnowledgeRepository
	ontologyRepo repositories.OntologyRepository
	logger       *zap.Logger
}

// NewKnowledgeService creates a new KnowledgeService.
func NewKnowledgeService(
	repo repositories.KnowledgeRepository,
	ontologyRepo repositories.OntologyRepository,
	logger *zap.Logger,
) KnowledgeService {
	return &knowledgeService{
		repo:         repo,
		ontologyRepo: ontologyRepo,
		logger:       logger.Named("knowledge-service"),
	}
}

var _ KnowledgeService = (*knowledgeService)(nil)

func (s *knowledgeService) Graph(ctx context.Context) (*models.KnowledgeGraph, error) {
	return s.repo.Graph(ctx)
}

func (s *knowledgeService) CreateNode(ctx context.Context, in NodeInput) (*models.KnowledgeNode, error) {
	ontologies, err := s.ontologyRepo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}
	ontology := findOntologyByID(ontologies, in.OntologyID)

	ve := apperrors.NewValidationError()
	if ontology == nil {
		ve.Add("ontology", "an ontology type must be selected")
	}
	if strings.TrimSpace(in.Label) == "" {
		ve.Add("label", "label is required")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	properties, err := validateProperties(ontology, in.Properties)
	if err != nil {
		return nil, err
	}

	node := models.KnowledgeNode{
		ID:           "node_" + uuid.NewString(),
		Label:        strings.TrimSpace(in.Label),
		Type:         ontology.Type,
		OntologyType: ontology.Name,
		Description:  in.Description,
		Properties:   properties,
	}

	_, err = s.repo.MutateGraph(ctx, func(g *models.KnowledgeGraph) error {
		g.Nodes = append(g.Nodes, node)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Knowledge node created",
		zap.String("id", node.ID),
		zap.String("ontology_type", node.OntologyType))
	return &node, nil
}

func (s *knowledgeService) UpdateNode(ctx context.Context, id string, in NodeInput) (*models.KnowledgeNode, error) {
	ontologies, err := s.ontologyRepo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Label) == "" {
		ve := apperrors.NewValidationError()
		ve.Add("label", "label is required")
		return nil, ve
	}

	var updated models.KnowledgeNode
	_, err = s.repo.MutateGraph(ctx, func(g *models.KnowledgeGraph) error {
		node := g.FindNode(id)
		if node == nil {
			return fmt.Errorf("knowledge node %s: %w", id, apperrors.ErrNotFound)
		}

		// The ontology type is locked once the node exists; only label,
		// description and property values may change. The node's ontology
		// may have been deleted since creation; properties then pass
		// through unvalidated rather than blocking the edit.
		ontology := findOntologyByName(ontologies, node.OntologyType)
		properties := in.Properties
		if ontology != nil {
			validated, err := validateProperties(ontology, in.Properties)
			if err != nil {
				return err
			}
			properties = validated
		}

		node.Label = strings.TrimSpace(in.Label)
		node.Description = in.Description
		node.Properties = properties
		updated = *node
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Knowledge node updated", zap.String("id", id))
	return &updated, nil
}

func (s *knowledgeService) DeleteNode(ctx context.Context, id string) error {
	removedEdges := 0
	_, err := s.repo.MutateGraph(ctx, func(g *models.KnowledgeGraph) error {
		nodes := make([]models.KnowledgeNode, 0, len(g.Nodes))
		found := false
		for _, n := range g.Nodes {
			if n.ID == id {
				found = true
				continue
			}
			nodes = append(nodes, n)
		}
		if !found {
			return fmt.Errorf("knowledge node %s: %w", id, apperrors.ErrNotFound)
		}

		edges := make([]models.KnowledgeEdge, 0, len(g.Edges))
		for _, e := range g.Edges {
			if e.Source == id || e.Target == id {
				removedEdges++
				continue
			}
			edges = append(edges, e)
		}

		g.Nodes = nodes
		g.Edges = edges
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Knowledge node deleted",
		zap.String("id", id),
		zap.Int("cascaded_edges", removedEdges))
	return nil
}

func (s *knowledgeService) AllowedRelations(ctx context.Context, sourceID, targetID string) ([]models.OntologyRelation, error) {
	graph, err := s.repo.Graph(ctx)
	if err != nil {
		return nil, err
	}
	source := graph.FindNode(sourceID)
	target := graph.FindNode(targetID)
	if source == nil || target == nil {
		return nil, fmt.Errorf("relation endpoints: %w", apperrors.ErrReferentialGap)
	}

	ontologies, err := s.ontologyRepo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}
	return AllowedRelations(*source, *target, ontologies), nil
}

func (s *knowledgeService) CreateEdge(ctx context.Context, in EdgeInput) (*models.KnowledgeEdge, error) {
	ontologies, err := s.ontologyRepo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}

	var created models.KnowledgeEdge
	_, err = s.repo.MutateGraph(ctx, func(g *models.KnowledgeGraph) error {
		source := g.FindNode(in.Source)
		target := g.FindNode(in.Target)
		if source == nil || target == nil {
			return fmt.Errorf("edge endpoints: %w", apperrors.ErrReferentialGap)
		}
		if err := validateEdgeLabel(in.Label, *source, *target, ontologies); err != nil {
			return err
		}

		created = models.KnowledgeEdge{
			ID:         "edge_" + uuid.NewString(),
			Source:     in.Source,
			Target:     in.Target,
			Label:      in.Label,
			Properties: in.Properties,
		}
		g.Edges = append(g.Edges, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Knowledge edge created",
		zap.String("id", created.ID),
		zap.String("label", created.Label))
	return &created, nil
}

func (s *knowledgeService) UpdateEdge(ctx context.Context, in EdgeInput) (*models.KnowledgeEdge, error) {
	ontologies, err := s.ontologyRepo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}

	oldLabel := in.OldLabel
	if oldLabel == "" {
		oldLabel = in.Label
	}

	var updated models.KnowledgeEdge
	_, err = s.repo.MutateGraph(ctx, func(g *models.KnowledgeGraph) error {
		idx := -1
		for i := range g.Edges {
			if g.Edges[i].Matches(in.ID, in.Source, in.Target, oldLabel) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("knowledge edge: %w", apperrors.ErrNotFound)
		}
		edge := g.Edges[idx]

		// Edits keep the existing endpoints; re-targeting an edge is not
		// supported, only its label and properties change.
		source := g.FindNode(edge.Source)
		target := g.FindNode(edge.Target)
		if source == nil || target == nil {
			return fmt.Errorf("edge endpoints: %w", apperrors.ErrReferentialGap)
		}
		if err := validateEdgeLabel(in.Label, *source, *target, ontologies); err != nil {
			return err
		}

		edge.Label = in.Label
		edge.Properties = in.Properties
		if edge.ID == "" {
			// Legacy edge matched by triple: give it a durable id now so
			// future updates stop depending on the ambiguous triple.
			edge.ID = "edge_" + uuid.NewString()
		}
		g.Edges[idx] = edge
		updated = edge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Knowledge edge updated", zap.String("id", updated.ID))
	return &updated, nil
}

func (s *knowledgeService) DeleteEdge(ctx context.Context, in EdgeInput) error {
	_, err := s.repo.MutateGraph(ctx, func(g *models.KnowledgeGraph) error {
		idx := -1
		for i := range g.Edges {
			if g.Edges[i].Matches(in.ID, in.Source, in.Target, in.Label) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("knowledge edge: %w", apperrors.ErrNotFound)
		}
		g.Edges = append(g.Edges[:idx], g.Edges[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Knowledge edge deleted", zap.String("id", in.ID))
	return nil
}

// ResolveEdge loads an edge with both endpoint nodes for the detail panel.
// A missing endpoint is the one place a referential gap becomes user-visible,
// as a blocking "data missing" error instead of silent filtering.
func (s *knowledgeService) ResolveEdge(ctx context.Context, id, source, target, label string) (*EdgeDetail, error) {
	graph, err := s.repo.Graph(ctx)
	if err != nil {
		return nil, err
	}

	var edge *models.KnowledgeEdge
	for i := range graph.Edges {
		if graph.Edges[i].Matches(id, source, target, label) {
			edge = &graph.Edges[i]
			break
		}
	}
	if edge == nil {
		return nil, fmt.Errorf("knowledge edge: %w", apperrors.ErrNotFound)
	}

	sourceNode := graph.FindNode(edge.Source)
	targetNode := graph.FindNode(edge.Target)
	if sourceNode == nil || targetNode == nil {
		return nil, fmt.Errorf("edge %s endpoints: %w", edge.Label, apperrors.ErrReferentialGap)
	}

	return &EdgeDetail{Edge: *edge, Source: *sourceNode, Target: *targetNode}, nil
}

func (s *knowledgeService) Layout(ctx context.Context) (json.RawMessage, error) {
	return s.repo.Layout(ctx)
}

func (s *knowledgeService) SaveLayout(ctx context.Context, layout json.RawMessage) error {
	return s.repo.SaveLayout(ctx, layout)
}

func validateEdgeLabel(label string, source, target models.KnowledgeNode, ontologies []models.Ontology) error {
	ve := apperrors.NewValidationError()
	if label == "" {
		ve.Add("label", "a relation type must be selected")
		return ve
	}
	if !RelationAllowed(label, source, target, ontologies) {
		ve.Add("label", fmt.Sprintf("relation %q is not declared from %s to %s",
			label, source.OntologyType, target.OntologyType))
		return ve
	}
	return nil
}

// validateProperties checks submitted values against the ontology's declared
// properties and returns the effective property map: declared defaults fill
// absent optional values, required properties must be present and non-empty.
// Errors are field-scoped by property name.
func validateProperties(ontology *models.Ontology, values map[string]any) (map[string]any, error) {
	ve := apperrors.NewValidationError()
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}

	for _, prop := range ontology.Properties {
		value, present := out[prop.Name]
		if !present || isEmptyValue(value) {
			if prop.DefaultValue != "" {
				out[prop.Name] = prop.DefaultValue
				continue
			}
			if prop.Required {
				ve.Add(prop.Name, fmt.Sprintf("%s is required", prop.Label))
			}
			continue
		}
		if err := checkPropertyValue(prop, value); err != nil {
			ve.Add(prop.Name, err.Error())
		}
	}

	return out, ve.ErrOrNil()
}

// checkPropertyValue dispatches on the declared property type. The switch is
// exhaustive over models.PropertyType; a new type tag must be handled here.
func checkPropertyValue(prop models.OntologyProperty, value any) error {
	switch prop.Type {
	case models.PropertyTypeString, models.PropertyTypeEnum:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s must be text", prop.Label)
		}
	case models.PropertyTypeInteger:
		if !isIntegerValue(value) {
			return fmt.Errorf("%s must be an integer", prop.Label)
		}
	case models.PropertyTypeFloat:
		if !isNumericValue(value) {
			return fmt.Errorf("%s must be a number", prop.Label)
		}
	case models.PropertyTypeBoolean:
		switch v := value.(type) {
		case bool:
		case string:
			if v != "true" && v != "false" {
				return fmt.Errorf("%s must be true or false", prop.Label)
			}
		default:
			return fmt.Errorf("%s must be true or false", prop.Label)
		}
	case models.PropertyTypeDate:
		if !isParsableTime(value, "2006-01-02") {
			return fmt.Errorf("%s must be a date (YYYY-MM-DD)", prop.Label)
		}
	case models.PropertyTypeDatetime:
		if !isParsableTime(value, time.RFC3339) {
			return fmt.Errorf("%s must be an RFC 3339 timestamp", prop.Label)
		}
	case models.PropertyTypeArray:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("%s must be a list", prop.Label)
		}
	case models.PropertyTypeMap:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("%s must be a map", prop.Label)
		}
	default:
		return fmt.Errorf("unknown property type %q", prop.Type)
	}
	return nil
}

func isEmptyValue(v any) bool {
	s, ok := v.(string)
	return v == nil || (ok && strings.TrimSpace(s) == "")
}

func isIntegerValue(v any) bool {
	switch n := v.(type) {
	case float64:
		return n == float64(int64(n))
	case int, int64:
		return true
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return err == nil
	}
	return false
}

func isNumericValue(v any) bool {
	switch n := v.(type) {
	case float64, int, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return err == nil
	}
	return false
}

func isParsableTime(v any, layout string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := time.Parse(layout, s)
	return err == nil
}
