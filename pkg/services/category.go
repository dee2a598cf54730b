package services

import (
	"strings"

	"github.com/psylab-io/psy-engine/pkg/models"
)

// CategoryIDsInSubtree collects the ids of rootID and every category beneath
// it. The pseudo-root models.CategoryAll (or an empty id) collects the whole
// tree. An unknown rootID yields an empty list, which filters everything out.
func CategoryIDsInSubtree(categories []models.OntologyCategory, rootID string) []string {
	var ids []string

	if rootID == "" || rootID == models.CategoryAll {
		var collectAll func(cats []models.OntologyCategory)
		collectAll = func(cats []models.OntologyCategory) {
			for _, cat := range cats {
				ids = append(ids, cat.ID)
				collectAll(cat.Children)
			}
		}
		collectAll(categories)
		return ids
	}

	var findAndCollect func(cats []models.OntologyCategory) bool
	findAndCollect = func(cats []models.OntologyCategory) bool {
		for _, cat := range cats {
			if cat.ID == rootID {
				ids = append(ids, cat.ID)
				var collect func(sub []models.OntologyCategory)
				collect = func(sub []models.OntologyCategory) {
					for _, c := range sub {
						ids = append(ids, c.ID)
						collect(c.Children)
					}
				}
				collect(cat.Children)
				return true
			}
			if findAndCollect(cat.Children) {
				return true
			}
		}
		return false
	}
	findAndCollect(categories)
	return ids
}

// FilterOntologies narrows the registry to a category subtree and an optional
// text query over name, label and description. The query matches name
// case-insensitively and label/description verbatim, mirroring how the
// console searches mixed-script data.
func FilterOntologies(ontologies []models.Ontology, categories []models.OntologyCategory, categoryID, query string) []models.Ontology {
	subtree := CategoryIDsInSubtree(categories, categoryID)
	inSubtree := make(map[string]bool, len(subtree))
	for _, id := range subtree {
		inSubtree[id] = true
	}

	result := make([]models.Ontology, 0, len(ontologies))
	for _, ont := range ontologies {
		if !inSubtree[ont.CategoryID] {
			continue
		}
		if q := strings.TrimSpace(query); q != "" {
			lower := strings.ToLower(q)
			if !strings.Contains(strings.ToLower(ont.Name), lower) &&
				!strings.Contains(ont.Label, q) &&
				!strings.Contains(ont.Description, q) {
				continue
			}
		}
		result = append(result, ont)
	}
	return result
}

// CategoryExists reports whether id names a category anywhere in the tree,
// the pseudo-root included.
func CategoryExists(categories []models.OntologyCategory, id string) bool {
	if id == models.CategoryAll {
		return true
	}
	for _, cat := range categories {
		if cat.ID == id || CategoryExists(cat.Children, id) {
			return true
		}
	}
	return false
}
