package models

// ModelStatus is the operational state shown for a configured model.
type ModelStatus string

const (
	ModelStatusNormal      ModelStatus = "normal"
	ModelStatusError       ModelStatus = "error"
	ModelStatusMaintenance ModelStatus = "maintenance"
)

// ModelType distinguishes text-only from vision-capable models.
type ModelType string

const (
	ModelTypeLLM ModelType = "LLM"
	ModelTypeVLM ModelType = "VLM"
)

// Model is a pure configuration record for an external model endpoint.
// APIKey is a secret; it must never reach logs unredacted (see pkg/logging).
type Model struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Provider    string      `json:"provider"`
	Version     string      `json:"version"`
	Type        ModelType   `json:"type"`
	Status      ModelStatus `json:"status"`
	SuccessRate float64     `json:"successRate"`
	AvgLatency  float64     `json:"avgLatency"`

	APIEndpoint    string `json:"apiEndpoint,omitempty"`
	APIKey         string `json:"apiKey,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`

	Timeout     *int     `json:"timeout,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`

	RPMLimit          *int     `json:"rpmLimit,omitempty"`
	DailyRequestLimit *int     `json:"dailyRequestLimit,omitempty"`
	CostBudget        *float64 `json:"costBudget,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// TaskMapping routes one task type to a primary model with ordered fallbacks.
type TaskMapping struct {
	TaskType       string   `json:"taskType"`
	PrimaryModel   string   `json:"primaryModel"`
	FallbackModels []string `json:"fallbackModels"`
}

// LoadBalancing holds the load-balancing toggle and trip threshold.
type LoadBalancing struct {
	Enabled   bool `json:"enabled"`
	Threshold int  `json:"threshold"`
}

// ModelPolicy is the scheduling policy for dispatching tasks across models.
type ModelPolicy struct {
	DefaultStrategy string        `json:"defaultStrategy"` // quality | balance | speed | cost
	TaskMappings    []TaskMapping `json:"taskMappings"`
	LoadBalancing   LoadBalancing `json:"loadBalancing"`
}
