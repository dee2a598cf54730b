package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/apperrors"
	"github.com/psylab-io/psy-engine/pkg/llm"
	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/prompts"
	"github.com/psylab-io/psy-engine/pkg/repositories"
)

// TemplateUpdate carries the editable fields of a prompt template. Nil
// pointers leave the corresponding field untouched.
type TemplateUpdate struct {
	Name        *string                 `json:"name,omitempty"`
	Description *string                 `json:"description,omitempty"`
	CategoryID  *string                 `json:"categoryId,omitempty"`
	Tags        *[]string               `json:"tags,omitempty"`
	Structure   *models.PromptStructure `json:"structure,omitempty"`
}

// PromptService manages prompt templates, their category tree, and the
// compile / scan / test operations of the structured editor.
type PromptService interface {
	Templates(ctx context.Context) ([]models.PromptTemplate, error)
	Get(ctx context.Context, id string) (*models.PromptTemplate, error)
	Create(ctx context.Context, name, categoryID string) (*models.PromptTemplate, error)
	Update(ctx context.Context, id string, update TemplateUpdate) (*models.PromptTemplate, error)
	Delete(ctx context.Context, id string) error

	Categories(ctx context.Context) ([]models.PromptCategory, error)
	AddCategory(ctx context.Context, parentID, name string) (*models.PromptCategory, error)
	RenameCategory(ctx context.Context, id, name string) error
	DeleteCategory(ctx context.Context, id string) error

	// Compile renders the template's structure to Markdown.
	Compile(ctx context.Context, id string) (string, error)

	// ScanVariables re-scans the template's structure, reconciles the result
	// into its variable list (preserving descriptions and defaults for
	// surviving names) and persists the merge.
	ScanVariables(ctx context.Context, id string) ([]prompts.ScannedVariable, []models.PromptVariable, error)

	// Test runs the simulated test call. A second invocation for the same
	// template while one is pending fails with ErrTestInProgress.
	Test(ctx context.Context, id string) (*llm.TestResult, error)
}

type promptService struct {
	repo   repositories.PromptRepository
	tester *llm.Tester
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewPromptService creates a new PromptService.
func NewPromptService(repo repositories.PromptRepository, tester *llm.Tester, logger *zap.Logger) PromptService {
	return &promptService{
		repo:     repo,
		tester:   tester,
		logger:   logger.Named("prompt-service"),
		inFlight: make(map[string]bool),
	}
}

var _ PromptService = (*promptService)(nil)

func (s *promptService) Templates(ctx context.Context) ([]models.PromptTemplate, error) {
	return s.repo.Templates(ctx)
}

func (s *promptService) Get(ctx context.Context, id string) (*models.PromptTemplate, error) {
	templates, err := s.repo.Templates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, fmt.Errorf("prompt template %s: %w", id, apperrors.ErrNotFound)
}

func (s *promptService) Create(ctx context.Context, name, categoryID string) (*models.PromptTemplate, error) {
	if strings.TrimSpace(name) == "" {
		ve := apperrors.NewValidationError()
		ve.Add("name", "template name is required")
		return nil, ve
	}

	structure := models.EmptyPromptStructure()
	now := time.Now().UTC().Format(time.RFC3339)
	template := models.PromptTemplate{
		ID:         "tpl_" + uuid.NewString(),
		Name:       strings.TrimSpace(name),
		CategoryID: categoryID,
		Structure:  &structure,
		Tags:       []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.repo.MutateTemplates(ctx, func(current []models.PromptTemplate) ([]models.PromptTemplate, error) {
		return append(current, template), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Prompt template created", zap.String("id", template.ID))
	return &template, nil
}

func (s *promptService) Update(ctx context.Context, id string, update TemplateUpdate) (*models.PromptTemplate, error) {
	var updated models.PromptTemplate
	_, err := s.repo.MutateTemplates(ctx, func(current []models.PromptTemplate) ([]models.PromptTemplate, error) {
		idx := templateIndex(current, id)
		if idx < 0 {
			return nil, fmt.Errorf("prompt template %s: %w", id, apperrors.ErrNotFound)
		}
		t := current[idx]

		if update.Name != nil {
			if strings.TrimSpace(*update.Name) == "" {
				ve := apperrors.NewValidationError()
				ve.Add("name", "template name is required")
				return nil, ve
			}
			t.Name = strings.TrimSpace(*update.Name)
		}
		if update.Description != nil {
			t.Description = *update.Description
		}
		if update.CategoryID != nil {
			t.CategoryID = *update.CategoryID
		}
		if update.Tags != nil {
			t.Tags = *update.Tags
		}
		if update.Structure != nil {
			structure := *update.Structure
			t.Structure = &structure
		}
		t.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		current[idx] = t
		updated = t
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *promptService) Delete(ctx context.Context, id string) error {
	_, err := s.repo.MutateTemplates(ctx, func(current []models.PromptTemplate) ([]models.PromptTemplate, error) {
		idx := templateIndex(current, id)
		if idx < 0 {
			return nil, fmt.Errorf("prompt template %s: %w", id, apperrors.ErrNotFound)
		}
		return append(current[:idx], current[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Prompt template deleted", zap.String("id", id))
	return nil
}

func (s *promptService) Categories(ctx context.Context) ([]models.PromptCategory, error) {
	return s.repo.Categories(ctx)
}

func (s *promptService) AddCategory(ctx context.Context, parentID, name string) (*models.PromptCategory, error) {
	if strings.TrimSpace(name) == "" {
		ve := apperrors.NewValidationError()
		ve.Add("name", "category name is required")
		return nil, ve
	}

	category := models.PromptCategory{
		ID:   "cat_" + uuid.NewString(),
		Name: strings.TrimSpace(name),
	}

	_, err := s.repo.MutateCategories(ctx, func(current []models.PromptCategory) ([]models.PromptCategory, error) {
		if parentID == "" {
			return append(current, category), nil
		}
		if !attachPromptCategory(current, parentID, category) {
			return nil, fmt.Errorf("prompt category %s: %w", parentID, apperrors.ErrNotFound)
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *promptService) RenameCategory(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		ve := apperrors.NewValidationError()
		ve.Add("name", "category name is required")
		return ve
	}
	_, err := s.repo.MutateCategories(ctx, func(current []models.PromptCategory) ([]models.PromptCategory, error) {
		if !renamePromptCategory(current, id, strings.TrimSpace(name)) {
			return nil, fmt.Errorf("prompt category %s: %w", id, apperrors.ErrNotFound)
		}
		return current, nil
	})
	return err
}

// DeleteCategory removes the category subtree. Templates keep their
// categoryId; a now-dangling categoryId just means the template shows up
// uncategorized, which every listing tolerates.
func (s *promptService) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.repo.MutateCategories(ctx, func(current []models.PromptCategory) ([]models.PromptCategory, error) {
		pruned, removed := removePromptCategory(current, id)
		if !removed {
			return nil, fmt.Errorf("prompt category %s: %w", id, apperrors.ErrNotFound)
		}
		return pruned, nil
	})
	return err
}

func (s *promptService) Compile(ctx context.Context, id string) (string, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if template.Structure == nil {
		// Legacy flat-text template: its content already is the prompt.
		return template.Content, nil
	}
	return prompts.Compile(*template.Structure), nil
}

func (s *promptService) ScanVariables(ctx context.Context, id string) ([]prompts.ScannedVariable, []models.PromptVariable, error) {
	var scanned []prompts.ScannedVariable
	var merged []models.PromptVariable

	_, err := s.repo.MutateTemplates(ctx, func(current []models.PromptTemplate) ([]models.PromptTemplate, error) {
		idx := templateIndex(current, id)
		if idx < 0 {
			return nil, fmt.Errorf("prompt template %s: %w", id, apperrors.ErrNotFound)
		}
		t := current[idx]
		if t.Structure == nil {
			structure := models.EmptyPromptStructure()
			t.Structure = &structure
		}

		scanned = prompts.Scan(*t.Structure)
		merged = prompts.Reconcile(t.Structure.Variables, scanned)
		t.Structure.Variables = merged
		t.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		current[idx] = t
		return current, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return scanned, merged, nil
}

func (s *promptService) Test(ctx context.Context, id string) (*llm.TestResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.inFlight[id] {
		s.mu.Unlock()
		return nil, fmt.Errorf("prompt template %s: %w", id, apperrors.ErrTestInProgress)
	}
	s.inFlight[id] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}()

	return s.tester.Simulate(ctx)
}

func templateIndex(templates []models.PromptTemplate, id string) int {
	for i := range templates {
		if templates[i].ID == id {
			return i
		}
	}
	return -1
}

func attachPromptCategory(cats []models.PromptCategory, parentID string, child models.PromptCategory) bool {
	for i := range cats {
		if cats[i].ID == parentID {
			cats[i].Children = append(cats[i].Children, child)
			return true
		}
		if attachPromptCategory(cats[i].Children, parentID, child) {
			return true
		}
	}
	return false
}

func renamePromptCategory(cats []models.PromptCategory, id, name string) bool {
	for i := range cats {
		if cats[i].ID == id {
			cats[i].Name = name
			return true
		}
		if renamePromptCategory(cats[i].Children, id, name) {
			return true
		}
	}
	return false
}

func removePromptCategory(cats []models.PromptCategory, id string) ([]models.PromptCategory, bool) {
	for i := range cats {
		if cats[i].ID == id {
			return append(cats[:i], cats[i+1:]...), true
		}
		if pruned, removed := removePromptCategory(cats[i].Children, id); removed {
			cats[i].Children = pruned
			return cats, true
		}
	}
	return cats, false
}
