package models

// JSON tags across this package use camelCase rather than snake_case: the
// persisted documents and the console UI both predate this service and store
// their state in that shape, so the wire format is load-bearing.

// OntologyType classifies an ontology definition.
type OntologyType string

const (
	OntologyTypeEntity       OntologyType = "Entity"
	OntologyTypeEvent        OntologyType = "Event"
	OntologyTypeState        OntologyType = "State"
	OntologyTypeAttribute    OntologyType = "Attribute"
	OntologyTypeObservable   OntologyType = "Observable"
	OntologyTypeRule         OntologyType = "Rule"
	OntologyTypeModelConcept OntologyType = "ModelConcept"
)

// ValidOntologyTypes lists every accepted ontology type tag.
var ValidOntologyTypes = []OntologyType{
	OntologyTypeEntity,
	OntologyTypeEvent,
	OntologyTypeState,
	OntologyTypeAttribute,
	OntologyTypeObservable,
	OntologyTypeRule,
	OntologyTypeModelConcept,
}

// PropertyType classifies a declared ontology property.
// Adding a value here must be matched by the property validation dispatch in
// the knowledge service.
type PropertyType string

const (
	PropertyTypeString   PropertyType = "string"
	PropertyTypeInteger  PropertyType = "integer"
	PropertyTypeFloat    PropertyType = "float"
	PropertyTypeBoolean  PropertyType = "boolean"
	PropertyTypeDate     PropertyType = "date"
	PropertyTypeDatetime PropertyType = "datetime"
	PropertyTypeEnum     PropertyType = "enum"
	PropertyTypeArray    PropertyType = "array"
	PropertyTypeMap      PropertyType = "map"
)

// RelationCardinality is the declared cardinality of an ontology relation.
type RelationCardinality string

const (
	CardinalityOneToOne   RelationCardinality = "1:1"
	CardinalityOneToMany  RelationCardinality = "1:N"
	CardinalityManyToOne  RelationCardinality = "N:1"
	CardinalityManyToMany RelationCardinality = "N:M"
)

// OntologyProperty is a typed property declared on an ontology.
// Name must be unique within one ontology's property list.
type OntologyProperty struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Label        string       `json:"label"`
	Type         PropertyType `json:"type"`
	Required     bool         `json:"required"`
	DefaultValue string       `json:"defaultValue,omitempty"`
	Description  string       `json:"description,omitempty"`
}

// OntologyRelation is a named, directed, cardinality-typed link declared on
// an ontology, pointing at a target ontology by id. TargetID may dangle after
// the target ontology is deleted; consumers filter such relations out rather
// than fail.
type OntologyRelation struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	TargetID    string              `json:"targetId"`
	Type        RelationCardinality `json:"type"`
	Description string              `json:"description,omitempty"`
}

// Ontology is a type definition in the schema layer: a typed node with
// declared properties and outgoing relations to other ontologies.
type Ontology struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`  // unique machine identifier
	Label       string             `json:"label"` // display name
	Type        OntologyType       `json:"type"`
	CategoryID  string             `json:"categoryId"`
	Description string             `json:"description,omitempty"`
	CreatedAt   string             `json:"createdAt"`
	UpdatedAt   string             `json:"updatedAt"`
	Properties  []OntologyProperty `json:"properties,omitempty"`
	Relations   []OntologyRelation `json:"relations,omitempty"`
}

// FindProperty returns the declared property with the given name, or nil.
func (o *Ontology) FindProperty(name string) *OntologyProperty {
	for i := range o.Properties {
		if o.Properties[i].Name == name {
			return &o.Properties[i]
		}
	}
	return nil
}

// CategoryAll is the pseudo-root category id meaning "no filter".
const CategoryAll = "all"

// OntologyCategory is a node in the recursive category tree used for
// filtering. The pseudo-root id "all" denotes "no filter".
type OntologyCategory struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Type        OntologyType       `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Children    []OntologyCategory `json:"children,omitempty"`
}

// OntologyVersion is an immutable snapshot of the registry taken when a user
// publishes the current ontology set.
type OntologyVersion struct {
	ID          string     `json:"id"`
	Version     int        `json:"version"`
	Comment     string     `json:"comment,omitempty"`
	Ontologies  []Ontology `json:"ontologies"`
	PublishedAt string     `json:"publishedAt"`
}
