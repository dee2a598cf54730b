package services

import (
	"github.com/psylab-io/psy-engine/pkg/models"
)

// GraphNode is one ontology projected into the visual graph.
type GraphNode struct {
	ID          string              `json:"id"`
	Label       string              `json:"label"`
	Type        models.OntologyType `json:"type"`
	Description string              `json:"description,omitempty"`
}

// GraphEdge is one declared relation projected into the visual graph.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// GraphData is the derived visual graph over the ontology registry.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// TransformToGraphData derives the visual graph from the ontology list.
// Nodes are a direct projection, one per ontology. Edges are emitted for
// every declared relation whose target id resolves to an ontology in the
// list; dangling relations are silently dropped. Output order follows input
// traversal order (ontologies, then each one's relations) and parallel edges
// between the same pair are preserved, never collapsed.
//
// The function is pure; callers re-run it after every registry change rather
// than patching previous output.
func TransformToGraphData(ontologies []models.Ontology) GraphData {
	nodes := make([]GraphNode, 0, len(ontologies))
	for _, o := range ontologies {
		nodes = append(nodes, GraphNode{
			ID:          o.ID,
			Label:       o.Label,
			Type:        o.Type,
			Description: o.Description,
		})
	}

	ids := make(map[string]bool, len(ontologies))
	for _, o := range ontologies {
		ids[o.ID] = true
	}

	edges := make([]GraphEdge, 0)
	for _, source := range ontologies {
		for _, rel := range source.Relations {
			if !ids[rel.TargetID] {
				continue
			}
			edges = append(edges, GraphEdge{
				Source: source.ID,
				Target: rel.TargetID,
				Label:  rel.Name,
			})
		}
	}

	return GraphData{Nodes: nodes, Edges: edges}
}
