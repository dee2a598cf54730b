package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
	"github.com/psylab-io/psy-engine/pkg/store"
)

// KnowledgeRepository provides access to the knowledge graph document and
// the opaque graph layout blob.
type KnowledgeRepository interface {
	Graph(ctx context.Context) (*models.KnowledgeGraph, error)
	MutateGraph(ctx context.Context, fn func(*models.KnowledgeGraph) error) (*models.KnowledgeGraph, error)
	Layout(ctx context.Context) (json.RawMessage, error)
	SaveLayout(ctx context.Context, layout json.RawMessage) error
}

type knowledgeRepository struct {
	st     *store.Store
	logger *zap.Logger

	mu     sync.Mutex
	graph  *models.KnowledgeGraph
	loaded bool
}

// NewKnowledgeRepository creates a new KnowledgeRepository backed by st.
func NewKnowledgeRepository(st *store.Store, logger *zap.Logger) KnowledgeRepository {
	return &knowledgeRepository{st: st, logger: logger.Named("knowledge-repo")}
}

var _ KnowledgeRepository = (*knowledgeRepository)(nil)

func (r *knowledgeRepository) loadLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	graph := &models.KnowledgeGraph{Nodes: []models.KnowledgeNode{}, Edges: []models.KnowledgeEdge{}}
	if _, err := r.st.GetInto(ctx, store.KeyKnowledgeGraph, graph); err != nil {
		return fmt.Errorf("failed to load knowledge graph: %w", err)
	}
	r.graph = graph
	r.loaded = true
	return nil
}

func (r *knowledgeRepository) Graph(ctx context.Context) (*models.KnowledgeGraph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	return copyGraph(r.graph), nil
}

// MutateGraph applies fn to the graph under the repository lock. The cascade
// invariants (node delete removes touching edges) live in the service
// closures passed here; the repository guarantees the whole closure commits
// as one atomic replacement of the document.
func (r *knowledgeRepository) MutateGraph(ctx context.Context, fn func(*models.KnowledgeGraph) error) (*models.KnowledgeGraph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}

	working := copyGraph(r.graph)
	if err := fn(working); err != nil {
		return nil, err
	}

	r.graph = working
	if err := r.st.Set(ctx, store.KeyKnowledgeGraph, working); err != nil {
		r.logger.Warn("Persisting knowledge graph failed; session continues on memory",
			zap.Error(err))
	}
	return copyGraph(working), nil
}

func (r *knowledgeRepository) Layout(ctx context.Context) (json.RawMessage, error) {
	raw, found, err := r.st.Get(ctx, store.KeyGraphLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph layout: %w", err)
	}
	if !found {
		return json.RawMessage("{}"), nil
	}
	return raw, nil
}

func (r *knowledgeRepository) SaveLayout(ctx context.Context, layout json.RawMessage) error {
	if err := r.st.Set(ctx, store.KeyGraphLayout, layout); err != nil {
		r.logger.Warn("Persisting graph layout failed", zap.Error(err))
	}
	return nil
}

func copyGraph(g *models.KnowledgeGraph) *models.KnowledgeGraph {
	out := &models.KnowledgeGraph{
		Nodes: make([]models.KnowledgeNode, len(g.Nodes)),
		Edges: make([]models.KnowledgeEdge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}
