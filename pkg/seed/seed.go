// Package seed bootstraps the console store with bundled sample data on
// first run. A key is only ever populated when it is entirely absent; once
// present, even empty or modified, it is never overwritten.
package seed

import (
	"context"
	"embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/psylab-io/psy-engine/pkg/store"
)

//go:embed defaults.yaml
var defaultsFS embed.FS

// Document pairs a store key with its bundled default value.
type Document struct {
	Key   string
	Value any
}

// documentOrder fixes the seeding (and logging) order of the store keys.
var documentOrder = []string{
	store.KeyModels,
	store.KeyModelPolicy,
	store.KeyPromptTemplates,
	store.KeyPromptCategories,
	store.KeyOntologies,
	store.KeyOntologyCategories,
	store.KeyOntologyVersions,
	store.KeyKnowledgeGraph,
	store.KeyGraphLayout,
}

// Documents parses the embedded defaults file into the ordered list of
// per-key default documents.
func Documents() ([]Document, error) {
	raw, err := defaultsFS.ReadFile("defaults.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded defaults: %w", err)
	}

	byKey := make(map[string]any)
	if err := yaml.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}

	docs := make([]Document, 0, len(documentOrder))
	for _, key := range documentOrder {
		value, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("embedded defaults missing key %s", key)
		}
		docs = append(docs, Document{Key: key, Value: value})
	}
	return docs, nil
}

// Apply seeds every absent store key with its bundled default.
// Safe to run on every startup.
func Apply(ctx context.Context, st *store.Store, logger *zap.Logger) error {
	docs, err := Documents()
	if err != nil {
		return err
	}

	initialized := 0
	for _, doc := range docs {
		written, err := st.SetIfAbsent(ctx, doc.Key, doc.Value)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", doc.Key, err)
		}
		if written {
			initialized++
		}
	}

	if initialized > 0 {
		logger.Info("Seeded store keys with bundled defaults",
			zap.Int("initialized", initialized))
	}
	return nil
}
