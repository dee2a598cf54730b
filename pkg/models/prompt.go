package models

// PromptType tags the intended use of a prompt template.
type PromptType string

const (
	PromptTypeKnowledgeExtraction PromptType = "knowledge_extraction"
	PromptTypeOntologyModeling    PromptType = "ontology_modeling"
	PromptTypeQueryAnalysis       PromptType = "query_analysis"
	PromptTypeCustom              PromptType = "custom"
)

// WorkflowStep is one step of a prompt workflow. ID doubles as the
// user-editable display label; step position is the array index, never the
// id, so renaming a step cannot move it.
type WorkflowStep struct {
	ID      string `json:"id"`
	Logic   string `json:"logic"`
	Example string `json:"example,omitempty"`
}

// PromptRole is the role-definition tab of a prompt structure.
type PromptRole struct {
	Identity     string   `json:"identity"`
	Expertise    []string `json:"expertise"`
	Capabilities []string `json:"capabilities"`
	Example      string   `json:"example"`
}

// PromptLogic is the analysis-logic tab of a prompt structure.
type PromptLogic struct {
	Principles  string   `json:"principles"`
	Method      string   `json:"method"`
	Constraints []string `json:"constraints"`
	Example     string   `json:"example"`
}

// PromptQuality is the quality-control tab of a prompt structure.
type PromptQuality struct {
	Checkpoints []string `json:"checkpoints"`
	Avoidance   []string `json:"avoidance"`
}

// PromptVariable is a {{name}} placeholder tracked with an optional
// description and default for later substitution.
type PromptVariable struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// PromptStructure is the structured authoring document compiled into a final
// LLM prompt.
type PromptStructure struct {
	Type      PromptType       `json:"type"`
	Role      PromptRole       `json:"role"`
	Logic     PromptLogic      `json:"logic"`
	Workflow  []WorkflowStep   `json:"workflow"`
	Quality   PromptQuality    `json:"quality"`
	Variables []PromptVariable `json:"variables"`
}

// EmptyPromptStructure returns the blank structure a freshly created template
// starts from.
func EmptyPromptStructure() PromptStructure {
	return PromptStructure{
		Type: PromptTypeKnowledgeExtraction,
		Role: PromptRole{
			Expertise:    []string{},
			Capabilities: []string{},
		},
		Logic: PromptLogic{
			Constraints: []string{},
		},
		Workflow: []WorkflowStep{},
		Quality: PromptQuality{
			Checkpoints: []string{},
			Avoidance:   []string{},
		},
		Variables: []PromptVariable{},
	}
}

// PromptTemplate is a named, categorized prompt structure.
// Content carries the legacy flat-text format of older console builds and is
// preserved verbatim on round trips.
type PromptTemplate struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	CategoryID  string           `json:"categoryId"`
	Content     string           `json:"content,omitempty"`
	Structure   *PromptStructure `json:"structure,omitempty"`
	Tags        []string         `json:"tags"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

// PromptCategory is a node in the prompt category tree. Two-level nesting in
// practice, though nothing caps the depth.
type PromptCategory struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Children []PromptCategory `json:"children,omitempty"`
}
