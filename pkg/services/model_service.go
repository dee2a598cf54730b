package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/apperrors"
	"github.com/psylab-io/psy-engine/pkg/llm"
	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/repositories"
)

// ModelService manages model configuration records and the scheduling
// policy. Models are pure config: no core logic operates on them beyond CRUD,
// list filtering and the simulated connection test.
type ModelService interface {
	List(ctx context.Context) ([]models.Model, error)
	Get(ctx context.Context, id string) (*models.Model, error)
	Create(ctx context.Context, m models.Model) (*models.Model, error)
	Update(ctx context.Context, id string, m models.Model) (*models.Model, error)
	Delete(ctx context.Context, id string) error

	Policy(ctx context.Context) (*models.ModelPolicy, error)
	UpdatePolicy(ctx context.Context, policy models.ModelPolicy) (*models.ModelPolicy, error)

	// Test runs the simulated connection test against one model. Duplicate
	// invocations for the same model while one is pending fail with
	// ErrTestInProgress.
	Test(ctx context.Context, id string) (*llm.TestResult, error)
}

type modelService struct {
	repo   repositories.ModelRepository
	tester *llm.Tester
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewModelService creates a new ModelService.
func NewModelService(repo repositories.ModelRepository, tester *llm.Tester, logger *zap.Logger) ModelService {
	return &modelService{
		repo:     repo,
		tester:   tester,
		logger:   logger.Named("model-service"),
		inFlight: make(map[string]bool),
	}
}

var _ ModelService = (*modelService)(nil)

func (s *modelService) List(ctx context.Context) ([]models.Model, error) {
	return s.repo.Models(ctx)
}

func (s *modelService) Get(ctx context.Context, id string) (*models.Model, error) {
	list, err := s.repo.Models(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("model %s: %w", id, apperrors.ErrNotFound)
}

func (s *modelService) Create(ctx context.Context, m models.Model) (*models.Model, error) {
	if err := validateModel(&m); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	m.ID = uuid.NewString()
	if m.Status == "" {
		m.Status = models.ModelStatusNormal
	}
	if m.Type == "" {
		m.Type = models.ModelTypeLLM
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.repo.MutateModels(ctx, func(current []models.Model) ([]models.Model, error) {
		return append(current, m), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Model created",
		zap.String("id", m.ID),
		zap.String("provider", m.Provider))
	return &m, nil
}

func (s *modelService) Update(ctx context.Context, id string, m models.Model) (*models.Model, error) {
	if err := validateModel(&m); err != nil {
		return nil, err
	}

	var updated models.Model
	_, err := s.repo.MutateModels(ctx, func(current []models.Model) ([]models.Model, error) {
		for i := range current {
			if current[i].ID != id {
				continue
			}
			m.ID = current[i].ID
			m.CreatedAt = current[i].CreatedAt
			m.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			if m.Status == "" {
				m.Status = current[i].Status
			}
			if m.Type == "" {
				m.Type = current[i].Type
			}
			current[i] = m
			updated = m
			return current, nil
		}
		return nil, fmt.Errorf("model %s: %w", id, apperrors.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *modelService) Delete(ctx context.Context, id string) error {
	_, err := s.repo.MutateModels(ctx, func(current []models.Model) ([]models.Model, error) {
		for i := range current {
			if current[i].ID == id {
				return append(current[:i], current[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("model %s: %w", id, apperrors.ErrNotFound)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Model deleted", zap.String("id", id))
	return nil
}

func (s *modelService) Policy(ctx context.Context) (*models.ModelPolicy, error) {
	return s.repo.Policy(ctx)
}

func (s *modelService) UpdatePolicy(ctx context.Context, policy models.ModelPolicy) (*models.ModelPolicy, error) {
	switch policy.DefaultStrategy {
	case "quality", "balance", "speed", "cost":
	default:
		ve := apperrors.NewValidationError()
		ve.Add("defaultStrategy", fmt.Sprintf("unknown strategy %q", policy.DefaultStrategy))
		return nil, ve
	}
	if err := s.repo.SavePolicy(ctx, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (s *modelService) Test(ctx context.Context, id string) (*llm.TestResult, error) {
	model, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.inFlight[id] {
		s.mu.Unlock()
		return nil, fmt.Errorf("model %s: %w", id, apperrors.ErrTestInProgress)
	}
	s.inFlight[id] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}()

	return s.tester.Test(ctx, model)
}

func validateModel(m *models.Model) error {
	ve := apperrors.NewValidationError()

	if strings.TrimSpace(m.Name) == "" {
		ve.Add("name", "model name is required")
	}
	if strings.TrimSpace(m.Provider) == "" {
		ve.Add("provider", "provider is required")
	}
	if strings.TrimSpace(m.Version) == "" {
		ve.Add("version", "version is required")
	}
	if m.Type != "" && m.Type != models.ModelTypeLLM && m.Type != models.ModelTypeVLM {
		ve.Add("type", fmt.Sprintf("unknown model type %q", m.Type))
	}
	if m.Status != "" && m.Status != models.ModelStatusNormal &&
		m.Status != models.ModelStatusError && m.Status != models.ModelStatusMaintenance {
		ve.Add("status", fmt.Sprintf("unknown status %q", m.Status))
	}
	if m.APIEndpoint != "" {
		if u, err := url.Parse(m.APIEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			ve.Add("apiEndpoint", "API endpoint must be a valid URL")
		}
	}
	if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 2) {
		ve.Add("temperature", "temperature must be between 0 and 2")
	}
	if m.TopP != nil && (*m.TopP < 0 || *m.TopP > 1) {
		ve.Add("topP", "topP must be between 0 and 1")
	}
	if m.Timeout != nil && *m.Timeout <= 0 {
		ve.Add("timeout", "timeout must be positive")
	}
	if m.MaxTokens != nil && *m.MaxTokens <= 0 {
		ve.Add("maxTokens", "maxTokens must be positive")
	}

	return ve.ErrOrNil()
}
