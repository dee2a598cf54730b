package models

// RelatedToLabel is the universal fallback relation offered between any two
// knowledge nodes regardless of what their ontologies declare.
const RelatedToLabel = "RELATED_TO"

// KnowledgeNode is an instance of some ontology type in the knowledge graph.
// OntologyType carries the source Ontology.Name (not its id); Type is copied
// from the ontology's type tag at creation time.
type KnowledgeNode struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	Type         OntologyType   `json:"type"`
	OntologyType string         `json:"ontologyType,omitempty"`
	Description  string         `json:"description,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// KnowledgeEdge is an instance of a relation between two knowledge nodes.
// ID is assigned at creation; documents seeded by older console builds may
// carry edges without ids, which are then identified by the
// (source, target, label) triple on read.
type KnowledgeEdge struct {
	ID         string            `json:"id,omitempty"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Matches reports whether the edge is identified by the given key: by id when
// both sides have one, by (source, target, label) triple otherwise.
func (e *KnowledgeEdge) Matches(id, source, target, label string) bool {
	if e.ID != "" && id != "" {
		return e.ID == id
	}
	return e.Source == source && e.Target == target && e.Label == label
}

// KnowledgeGraph is the full persisted instance layer: nodes plus edges.
type KnowledgeGraph struct {
	Nodes []KnowledgeNode `json:"nodes"`
	Edges []KnowledgeEdge `json:"edges"`
}

// FindNode returns the node with the given id, or nil.
func (g *KnowledgeGraph) FindNode(id string) *KnowledgeNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}
