package services

import (
	"github.com/psylab-io/psy-engine/pkg/models"
)

// AllowedRelations computes the ontology-declared relations valid from source
// to target. The source node's ontology is looked up by name; its relations
// are filtered to those whose target id resolves to an ontology whose name
// matches the target node's ontology type. Declaration order is preserved.
//
// The computation is directional: relations are declared on the source
// ontology only, so AllowedRelations(a, b) and AllowedRelations(b, a) are
// independent results. An empty result is valid and means "fallback only";
// callers surface models.RelatedToLabel as an extra synthetic choice
// regardless of what this returns.
func AllowedRelations(source, target models.KnowledgeNode, ontologies []models.Ontology) []models.OntologyRelation {
	sourceOntology := findOntologyByName(ontologies, source.OntologyType)
	if sourceOntology == nil || len(sourceOntology.Relations) == 0 {
		return []models.OntologyRelation{}
	}

	allowed := make([]models.OntologyRelation, 0, len(sourceOntology.Relations))
	for _, rel := range sourceOntology.Relations {
		targetOntology := findOntologyByID(ontologies, rel.TargetID)
		if targetOntology != nil && targetOntology.Name == target.OntologyType {
			allowed = append(allowed, rel)
		}
	}
	return allowed
}

// RelationAllowed reports whether label is valid for an edge from source to
// target: either an ontology-declared relation or the universal fallback.
func RelationAllowed(label string, source, target models.KnowledgeNode, ontologies []models.Ontology) bool {
	if label == models.RelatedToLabel {
		return true
	}
	for _, rel := range AllowedRelations(source, target, ontologies) {
		if rel.Name == label {
			return true
		}
	}
	return false
}

func findOntologyByName(ontologies []models.Ontology, name string) *models.Ontology {
	for i := range ontologies {
		if ontologies[i].Name == name {
			return &ontologies[i]
		}
	}
	return nil
}

func findOntologyByID(ontologies []models.Ontology, id string) *models.Ontology {
	for i := range ontologies {
		if ontologies[i].ID == id {
			return &ontologies[i]
		}
	}
	return nil
}
