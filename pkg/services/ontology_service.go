package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/apperrors"
	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/repositories"
)

// OntologyService manages the ontology registry: definitions, the category
// tree, the derived visual graph and published version snapshots.
type OntologyService interface {
	// List returns ontologies filtered by category subtree and text query.
	// categoryID "all" or "" means no category filter.
	List(ctx context.Context, categoryID, query string) ([]models.Ontology, error)

	Get(ctx context.Context, id string) (*models.Ontology, error)
	Create(ctx context.Context, ont models.Ontology) (*models.Ontology, error)
	Update(ctx context.Context, id string, ont models.Ontology) (*models.Ontology, error)
	Delete(ctx context.Context, id string) error

	Categories(ctx context.Context) ([]models.OntologyCategory, error)

	// Graph recomputes the visual graph projection from the full registry.
	Graph(ctx context.Context) (*GraphData, error)

	// Publish appends an immutable snapshot of the current registry to the
	// version history.
	Publish(ctx context.Context, comment string) (*models.OntologyVersion, error)
	Versions(ctx context.Context) ([]models.OntologyVersion, error)
}

type ontologyService struct {
	repo   repositories.OntologyRepository
	logger *zap.Logger
}

// NewOntologyService creates a new OntologyService.
func NewOntologyService(repo repositories.OntologyRepository, logger *zap.Logger) OntologyService {
	return &ontologyService{
		repo:   repo,
		logger: logger.Named("ontology-service"),
	}
}

var _ OntologyService = (*ontologyService)(nil)

func (s *ontologyService) List(ctx context.Context, categoryID, query string) ([]models.Ontology, error) {
	ontologies, err := s.repo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}
	if (categoryID == "" || categoryID == models.CategoryAll) && strings.TrimSpace(query) == "" {
		return ontologies, nil
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return FilterOntologies(ontologies, categories, categoryID, query), nil
}

func (s *ontologyService) Get(ctx context.Context, id string) (*models.Ontology, error) {
	ontologies, err := s.repo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ontologies {
		if ontologies[i].ID == id {
			return &ontologies[i], nil
		}
	}
	return nil, fmt.Errorf("ontology %s: %w", id, apperrors.ErrNotFound)
}

func (s *ontologyService) Create(ctx context.Context, ont models.Ontology) (*models.Ontology, error) {
	ont.Name = NormalizeMachineName(ont.Name)

	var created models.Ontology
	_, err := s.repo.MutateOntologies(ctx, func(current []models.Ontology) ([]models.Ontology, error) {
		if err := s.validate(ctx, &ont, current, ""); err != nil {
			return nil, err
		}

		now := time.Now().UTC().Format(time.RFC3339)
		ont.ID = "ont_" + uuid.NewString()
		ont.CreatedAt = now
		ont.UpdatedAt = now
		assignMemberIDs(&ont)

		created = ont
		return append(current, ont), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ontology created",
		zap.String("id", created.ID),
		zap.String("name", created.Name))
	return &created, nil
}

func (s *ontologyService) Update(ctx context.Context, id string, ont models.Ontology) (*models.Ontology, error) {
	ont.Name = NormalizeMachineName(ont.Name)

	var updated models.Ontology
	_, err := s.repo.MutateOntologies(ctx, func(current []models.Ontology) ([]models.Ontology, error) {
		idx := -1
		for i := range current {
			if current[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("ontology %s: %w", id, apperrors.ErrNotFound)
		}
		if err := s.validate(ctx, &ont, current, id); err != nil {
			return nil, err
		}

		// Identity and creation time survive the edit.
		ont.ID = current[idx].ID
		ont.CreatedAt = current[idx].CreatedAt
		ont.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		assignMemberIDs(&ont)

		current[idx] = ont
		updated = ont
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ontology updated", zap.String("id", updated.ID))
	return &updated, nil
}

// Delete removes the ontology definition only. Relations on other ontologies
// that point at it are left dangling on purpose; every consumer of the
// registry tolerates and filters such references.
func (s *ontologyService) Delete(ctx context.Context, id string) error {
	_, err := s.repo.MutateOntologies(ctx, func(current []models.Ontology) ([]models.Ontology, error) {
		kept := make([]models.Ontology, 0, len(current))
		found := false
		for _, o := range current {
			if o.ID == id {
				found = true
				continue
			}
			kept = append(kept, o)
		}
		if !found {
			return nil, fmt.Errorf("ontology %s: %w", id, apperrors.ErrNotFound)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Ontology deleted", zap.String("id", id))
	return nil
}

func (s *ontologyService) Categories(ctx context.Context) ([]models.OntologyCategory, error) {
	return s.repo.Categories(ctx)
}

func (s *ontologyService) Graph(ctx context.Context) (*GraphData, error) {
	ontologies, err := s.repo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}
	graph := TransformToGraphData(ontologies)
	return &graph, nil
}

func (s *ontologyService) Publish(ctx context.Context, comment string) (*models.OntologyVersion, error) {
	ontologies, err := s.repo.Ontologies(ctx)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.Versions(ctx)
	if err != nil {
		return nil, err
	}

	version := models.OntologyVersion{
		ID:          "ver_" + uuid.NewString(),
		Version:     len(versions) + 1,
		Comment:     comment,
		Ontologies:  ontologies,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.AppendVersion(ctx, version); err != nil {
		return nil, err
	}

	s.logger.Info("Ontology registry published",
		zap.Int("version", version.Version),
		zap.Int("ontologies", len(version.Ontologies)))
	return &version, nil
}

func (s *ontologyService) Versions(ctx context.Context) ([]models.OntologyVersion, error) {
	return s.repo.Versions(ctx)
}

// validate checks an incoming definition against the registry invariants.
// selfID is the id being updated, empty on create.
func (s *ontologyService) validate(ctx context.Context, ont *models.Ontology, current []models.Ontology, selfID string) error {
	ve := apperrors.NewValidationError()

	if ont.Name == "" {
		ve.Add("name", "machine name is required")
	}
	if strings.TrimSpace(ont.Label) == "" {
		ve.Add("label", "display label is required")
	}
	if !validOntologyType(ont.Type) {
		ve.Add("type", fmt.Sprintf("unknown ontology type %q", ont.Type))
	}

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return err
	}
	if ont.CategoryID == "" || !CategoryExists(categories, ont.CategoryID) {
		ve.Add("categoryId", fmt.Sprintf("unknown category %q", ont.CategoryID))
	}

	seen := make(map[string]bool, len(ont.Properties))
	for _, p := range ont.Properties {
		if p.Name == "" {
			ve.Add("properties", "property name is required")
			continue
		}
		if seen[p.Name] {
			ve.Add("properties", fmt.Sprintf("duplicate property name %q", p.Name))
		}
		seen[p.Name] = true
	}

	for _, rel := range ont.Relations {
		if rel.Name == "" {
			ve.Add("relations", "relation name is required")
		}
		// A dangling targetId is tolerated everywhere downstream, but a
		// wholly absent one on authoring is a form error.
		if rel.TargetID == "" {
			ve.Add("relations", fmt.Sprintf("relation %q has no target", rel.Name))
		}
	}

	if ve.HasErrors() {
		return ve
	}

	for _, existing := range current {
		if existing.Name == ont.Name && existing.ID != selfID {
			return fmt.Errorf("ontology name %q already in use: %w", ont.Name, apperrors.ErrConflict)
		}
	}
	return nil
}

// NormalizeMachineName trims and singularizes a machine identifier so that
// "Persons" and "Person" cannot coexist as distinct ontologies.
func NormalizeMachineName(name string) string {
	return inflection.Singular(strings.TrimSpace(name))
}

func validOntologyType(t models.OntologyType) bool {
	for _, valid := range models.ValidOntologyTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// assignMemberIDs gives fresh ids to properties and relations added without
// one; ids provided by the caller are kept stable.
func assignMemberIDs(ont *models.Ontology) {
	for i := range ont.Properties {
		if ont.Properties[i].ID == "" {
			ont.Properties[i].ID = "prop_" + uuid.NewString()
		}
	}
	for i := range ont.Relations {
		if ont.Relations[i].ID == "" {
			ont.Relations[i].ID = "rel_" + uuid.NewString()
		}
	}
}
