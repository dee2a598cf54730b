package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psylab-io/psy-engine/pkg/models"
)

func relationFixture() ([]models.Ontology, models.KnowledgeNode, models.KnowledgeNode) {
	ontologies := []models.Ontology{
		{
			ID: "ont_person", Name: "Person",
			Relations: []models.OntologyRelation{
				{ID: "r1", Name: "EXPERIENCES", TargetID: "ont_anxiety"},
				{ID: "r2", Name: "TREATED_BY", TargetID: "ont_therapist"},
				{ID: "r3", Name: "SUFFERS", TargetID: "ont_anxiety"},
			},
		},
		{ID: "ont_anxiety", Name: "Anxiety"},
	}
	person := models.KnowledgeNode{ID: "n1", OntologyType: "Person"}
	anxiety := models.KnowledgeNode{ID: "n2", OntologyType: "Anxiety"}
	return ontologies, person, anxiety
}

func TestAllowedRelations_FiltersByTargetAndKeepsOrder(t *testing.T) {
	ontologies, person, anxiety := relationFixture()

	allowed := AllowedRelations(person, anxiety, ontologies)
	require.Len(t, allowed, 2)
	assert.Equal(t, "EXPERIENCES", allowed[0].Name)
	assert.Equal(t, "SUFFERS", allowed[1].Name)
}

func TestAllowedRelations_DirectionalAsymmetry(t *testing.T) {
	ontologies, person, anxiety := relationFixture()

	assert.NotEmpty(t, AllowedRelations(person, anxiety, ontologies))
	assert.Empty(t, AllowedRelations(anxiety, person, ontologies))
}

func TestAllowedRelations_UnknownSourceOntology(t *testing.T) {
	ontologies, _, anxiety := relationFixture()
	orphan := models.KnowledgeNode{ID: "n3", OntologyType: "Ghost"}

	assert.Empty(t, AllowedRelations(orphan, anxiety, ontologies))
}

func TestAllowedRelations_DanglingTargetDropped(t *testing.T) {
	ontologies, person, anxiety := relationFixture()

	// TREATED_BY targets ont_therapist which does not exist: it never shows
	// up, even towards a node of an unrelated type.
	for _, rel := range AllowedRelations(person, anxiety, ontologies) {
		assert.NotEqual(t, "TREATED_BY", rel.Name)
	}
}

func TestRelationAllowed_FallbackAlwaysPasses(t *testing.T) {
	ontologies, person, anxiety := relationFixture()

	assert.True(t, RelationAllowed(models.RelatedToLabel, anxiety, person, ontologies))
	assert.True(t, RelationAllowed("EXPERIENCES", person, anxiety, ontologies))
	assert.False(t, RelationAllowed("EXPERIENCES", anxiety, person, ontologies))
	assert.False(t, RelationAllowed("MADE_UP", person, anxiety, ontologies))
}
