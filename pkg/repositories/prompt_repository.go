package repositories

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/store"
)

// PromptRepository provides access to prompt templates and their category
// tree.
type PromptRepository interface {
	Templates(ctx context.Context) ([]models.PromptTemplate, error)
	MutateTemplates(ctx context.Context, fn func([]models.PromptTemplate) ([]models.PromptTemplate, error)) ([]models.PromptTemplate, error)
	Categories(ctx context.Context) ([]models.PromptCategory, error)
	MutateCategories(ctx context.Context, fn func([]models.PromptCategory) ([]models.PromptCategory, error)) ([]models.PromptCategory, error)
}

type promptRepository struct {
	st     *store.Store
	logger *zap.Logger

	mu               sync.Mutex
	templates        []models.PromptTemplate
	templatesLoaded  bool
	categories       []models.PromptCategory
	categoriesLoaded bool
}

// NewPromptRepository creates a new PromptRepository backed by st.
func NewPromptRepository(st *store.Store, logger *zap.Logger) PromptRepository {
	return &promptRepository{st: st, logger: logger.Named("prompt-repo")}
}

var _ PromptRepository = (*promptRepository)(nil)

func (r *promptRepository) loadTemplatesLocked(ctx context.Context) error {
	if r.templatesLoaded {
		return nil
	}
	var templates []models.PromptTemplate
	if _, err := r.st.GetInto(ctx, store.KeyPromptTemplates, &templates); err != nil {
		return fmt.Errorf("failed to load prompt templates: %w", err)
	}
	r.templates = templates
	r.templatesLoaded = true
	return nil
}

func (r *promptRepository) loadCategoriesLocked(ctx context.Context) error {
	if r.categoriesLoaded {
		return nil
	}
	var categories []models.PromptCategory
	if _, err := r.st.GetInto(ctx, store.KeyPromptCategories, &categories); err != nil {
		return fmt.Errorf("failed to load prompt categories: %w", err)
	}
	r.categories = categories
	r.categoriesLoaded = true
	return nil
}

func (r *promptRepository) Templates(ctx context.Context) ([]models.PromptTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadTemplatesLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]models.PromptTemplate, len(r.templates))
	copy(out, r.templates)
	return out, nil
}

func (r *promptRepository) MutateTemplates(ctx context.Context, fn func([]models.PromptTemplate) ([]models.PromptTemplate, error)) ([]models.PromptTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadTemplatesLocked(ctx); err != nil {
		return nil, err
	}

	working := make([]models.PromptTemplate, len(r.templates))
	copy(working, r.templates)

	updated, err := fn(working)
	if err != nil {
		return nil, err
	}

	r.templates = updated
	if err := r.st.Set(ctx, store.KeyPromptTemplates, updated); err != nil {
		r.logger.Warn("Persisting prompt templates failed; session continues on memory",
			zap.Error(err))
	}

	out := make([]models.PromptTemplate, len(updated))
	copy(out, updated)
	return out, nil
}

func (r *promptRepository) Categories(ctx context.Context) ([]models.PromptCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadCategoriesLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]models.PromptCategory, len(r.categories))
	copy(out, r.categories)
	return out, nil
}

func (r *promptRepository) MutateCategories(ctx context.Context, fn func([]models.PromptCategory) ([]models.PromptCategory, error)) ([]models.PromptCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadCategoriesLocked(ctx); err != nil {
		return nil, err
	}

	working := make([]models.PromptCategory, len(r.categories))
	copy(working, r.categories)

	updated, err := fn(working)
	if err != nil {
		return nil, err
	}

	r.categories = updated
	if err := r.st.Set(ctx, store.KeyPromptCategories, updated); err != nil {
		r.logger.Warn("Persisting prompt categories failed; session continues on memory",
			zap.Error(err))
	}

	out := make([]models.PromptCategory, len(updated))
	copy(out, updated)
	return out, nil
}
