// Package repositories provides typed access to the console's persisted
// documents. Each repository caches its documents in memory after the first
// read and serializes mutations under a mutex: the in-memory state is the
// source of truth for the running session, and store writes that fail are
// logged and otherwise ignored rather than propagated (the session keeps
// working off memory).
package repositories

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/store"
)

// OntologyRepository provides access to the ontology registry, its category
// tree and published version snapshots.
type OntologyRepository interface {
	Ontologies(ctx context.Context) ([]models.Ontology, error)
	MutateOntologies(ctx context.Context, fn func([]models.Ontology) ([]models.Ontology, error)) ([]models.Ontology, error)
	Categories(ctx context.Context) ([]models.OntologyCategory, error)
	Versions(ctx context.Context) ([]models.OntologyVersion, error)
	AppendVersion(ctx context.Context, version models.OntologyVersion) error
}

type ontologyRepository struct {
	st     *store.Store
	logger *zap.Logger

	mu               sync.Mutex
	ontologies       []models.Ontology
	ontologiesLoaded bool
	categories       []models.OntologyCategory
	categoriesLoaded bool
	versions         []models.OntologyVersion
	versionsLoaded   bool
}

// NewOntologyRepository creates a new OntologyRepository backed by st.
func NewOntologyRepository(st *store.Store, logger *zap.Logger) OntologyRepository {
	return &ontologyRepository{st: st, logger: logger.Named("ontology-repo")}
}

var _ OntologyRepository = (*ontologyRepository)(nil)

func (r *ontologyRepository) loadOntologiesLocked(ctx context.Context) error {
	if r.ontologiesLoaded {
		return nil
	}
	var onts []models.Ontology
	if _, err := r.st.GetInto(ctx, store.KeyOntologies, &onts); err != nil {
		return fmt.Errorf("failed to load ontologies: %w", err)
	}
	r.ontologies = onts
	r.ontologiesLoaded = true
	return nil
}

func (r *ontologyRepository) Ontologies(ctx context.Context) ([]models.Ontology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadOntologiesLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Ontology, len(r.ontologies))
	copy(out, r.ontologies)
	return out, nil
}

// MutateOntologies applies fn to the current registry under the repository
// lock. When fn succeeds the returned list replaces the cache and is written
// through to the store; a failed store write is logged, not returned.
func (r *ontologyRepository) MutateOntologies(ctx context.Context, fn func([]models.Ontology) ([]models.Ontology, error)) ([]models.Ontology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadOntologiesLocked(ctx); err != nil {
		return nil, err
	}

	working := make([]models.Ontology, len(r.ontologies))
	copy(working, r.ontologies)

	updated, err := fn(working)
	if err != nil {
		return nil, err
	}

	r.ontologies = updated
	if err := r.st.Set(ctx, store.KeyOntologies, updated); err != nil {
		r.logger.Warn("Persisting ontologies failed; session continues on memory",
			zap.Error(err))
	}

	out := make([]models.Ontology, len(updated))
	copy(out, updated)
	return out, nil
}

func (r *ontologyRepository) Categories(ctx context.Context) ([]models.OntologyCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.categoriesLoaded {
		var cats []models.OntologyCategory
		if _, err := r.st.GetInto(ctx, store.KeyOntologyCategories, &cats); err != nil {
			return nil, fmt.Errorf("failed to load ontology categories: %w", err)
		}
		r.categories = cats
		r.categoriesLoaded = true
	}
	return r.categories, nil
}

func (r *ontologyRepository) Versions(ctx context.Context) ([]models.OntologyVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadVersionsLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]models.OntologyVersion, len(r.versions))
	copy(out, r.versions)
	return out, nil
}

func (r *ontologyRepository) AppendVersion(ctx context.Context, version models.OntologyVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadVersionsLocked(ctx); err != nil {
		return err
	}
	r.versions = append(r.versions, version)
	if err := r.st.Set(ctx, store.KeyOntologyVersions, r.versions); err != nil {
		r.logger.Warn("Persisting ontology versions failed; session continues on memory",
			zap.Error(err))
	}
	return nil
}

func (r *ontologyRepository) loadVersionsLocked(ctx context.Context) error {
	if r.versionsLoaded {
		return nil
	}
	versions := []models.OntologyVersion{}
	if _, err := r.st.GetInto(ctx, store.KeyOntologyVersions, &versions); err != nil {
		return fmt.Errorf("failed to load ontology versions: %w", err)
	}
	r.versions = versions
	r.versionsLoaded = true
	return nil
}
