package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psylab-io/psy-engine/pkg/models"
)

func categoryTree() []models.OntologyCategory {
	return []models.OntologyCategory{
		{
			ID: models.CategoryAll, Name: "全部",
			Children: []models.OntologyCategory{
				{ID: "cat_entity", Name: "实体", Children: []models.OntologyCategory{
					{ID: "cat_person", Name: "人物"},
					{ID: "cat_org", Name: "机构"},
				}},
				{ID: "cat_state", Name: "状态"},
			},
		},
	}
}

func TestCategoryIDsInSubtree_PseudoRootCollectsEverything(t *testing.T) {
	ids := CategoryIDsInSubtree(categoryTree(), models.CategoryAll)
	assert.ElementsMatch(t, []string{models.CategoryAll, "cat_entity", "cat_person", "cat_org", "cat_state"}, ids)

	// Empty id behaves like the pseudo-root.
	assert.ElementsMatch(t, ids, CategoryIDsInSubtree(categoryTree(), ""))
}

func TestCategoryIDsInSubtree_InnerNode(t *testing.T) {
	ids := CategoryIDsInSubtree(categoryTree(), "cat_entity")
	assert.Equal(t, []string{"cat_entity", "cat_person", "cat_org"}, ids)
}

func TestCategoryIDsInSubtree_LeafAndUnknown(t *testing.T) {
	assert.Equal(t, []string{"cat_person"}, CategoryIDsInSubtree(categoryTree(), "cat_person"))
	assert.Empty(t, CategoryIDsInSubtree(categoryTree(), "cat_missing"))
}

func TestFilterOntologies_SubtreeAndQuery(t *testing.T) {
	ontologies := []models.Ontology{
		{ID: "1", Name: "Person", Label: "人物", CategoryID: "cat_person"},
		{ID: "2", Name: "Organization", Label: "机构", CategoryID: "cat_org"},
		{ID: "3", Name: "Anxiety", Label: "焦虑状态", CategoryID: "cat_state", Description: "持续紧张"},
	}

	entity := FilterOntologies(ontologies, categoryTree(), "cat_entity", "")
	require.Len(t, entity, 2)

	// Name matching is case-insensitive; label matching is verbatim.
	byName := FilterOntologies(ontologies, categoryTree(), "", "person")
	require.Len(t, byName, 1)
	assert.Equal(t, "Person", byName[0].Name)

	byDescription := FilterOntologies(ontologies, categoryTree(), "", "紧张")
	require.Len(t, byDescription, 1)
	assert.Equal(t, "Anxiety", byDescription[0].Name)

	both := FilterOntologies(ontologies, categoryTree(), "cat_entity", "焦虑")
	assert.Empty(t, both, "query and category filters compose")
}

func TestFilterOntologies_UnknownCategoryFiltersEverything(t *testing.T) {
	ontologies := []models.Ontology{
		{ID: "1", Name: "Person", Label: "人物", CategoryID: "cat_person"},
	}
	assert.Empty(t, FilterOntologies(ontologies, categoryTree(), "cat_missing", ""))
}

func TestCategoryExists(t *testing.T) {
	tree := categoryTree()
	assert.True(t, CategoryExists(tree, models.CategoryAll))
	assert.True(t, CategoryExists(tree, "cat_person"))
	assert.False(t, CategoryExists(tree, "cat_missing"))
	assert.True(t, CategoryExists(nil, models.CategoryAll), "the pseudo-root exists even in an empty tree")
}
