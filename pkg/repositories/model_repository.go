package repositories

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/store"
)

// ModelRepository provides access to model configuration records and the
// scheduling policy.
type ModelRepository interface {
	Models(ctx context.Context) ([]models.Model, error)
	MutateModels(ctx context.Context, fn func([]models.Model) ([]models.Model, error)) ([]models.Model, error)
	Policy(ctx context.Context) (*models.ModelPolicy, error)
	SavePolicy(ctx context.Context, policy *models.ModelPolicy) error
}

type modelRepository struct {
	st     *store.Store
	logger *zap.Logger

	mu           sync.Mutex
	models       []models.Model
	modelsLoaded bool
	policy       *models.ModelPolicy
}

// NewModelRepository creates a new ModelRepository backed by st.
func NewModelRepository(st *store.Store, logger *zap.Logger) ModelRepository {
	return &modelRepository{st: st, logger: logger.Named("model-repo")}
}

var _ ModelRepository = (*modelRepository)(nil)

func (r *modelRepository) loadModelsLocked(ctx context.Context) error {
	if r.modelsLoaded {
		return nil
	}
	var list []models.Model
	if _, err := r.st.GetInto(ctx, store.KeyModels, &list); err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}
	r.models = list
	r.modelsLoaded = true
	return nil
}

func (r *modelRepository) Models(ctx context.Context) ([]models.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadModelsLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Model, len(r.models))
	copy(out, r.models)
	return out, nil
}

func (r *modelRepository) MutateModels(ctx context.Context, fn func([]models.Model) ([]models.Model, error)) ([]models.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadModelsLocked(ctx); err != nil {
		return nil, err
	}

	working := make([]models.Model, len(r.models))
	copy(working, r.models)

	updated, err := fn(working)
	if err != nil {
		return nil, err
	}

	r.models = updated
	if err := r.st.Set(ctx, store.KeyModels, updated); err != nil {
		r.logger.Warn("Persisting models failed; session continues on memory",
			zap.Error(err))
	}

	out := make([]models.Model, len(updated))
	copy(out, updated)
	return out, nil
}

func (r *modelRepository) Policy(ctx context.Context) (*models.ModelPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policy == nil {
		policy := &models.ModelPolicy{}
		if _, err := r.st.GetInto(ctx, store.KeyModelPolicy, policy); err != nil {
			return nil, fmt.Errorf("failed to load model policy: %w", err)
		}
		r.policy = policy
	}
	out := *r.policy
	return &out, nil
}

func (r *modelRepository) SavePolicy(ctx context.Context, policy *models.ModelPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := *policy
	r.policy = &saved
	if err := r.st.Set(ctx, store.KeyModelPolicy, policy); err != nil {
		r.logger.Warn("Persisting model policy failed; session continues on memory",
			zap.Error(err))
	}
	return nil
}
