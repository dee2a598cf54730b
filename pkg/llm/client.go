// Package llm builds provider clients from console model records. Actual
// model invocation is out of scope for the console: the tester below only
// validates configuration and simulates the call itself.
package llm

import (
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/models"
)

// Provider identifies which SDK serves a model record.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// DetectProvider maps a model's free-form provider string onto an SDK.
// Anything that is not recognizably Anthropic goes through the
// OpenAI-compatible client, which also covers local and proxy endpoints.
func DetectProvider(provider string) Provider {
	p := strings.ToLower(provider)
	if strings.Contains(p, "anthropic") || strings.Contains(p, "claude") {
		return ProviderAnthropic
	}
	return ProviderOpenAI
}

// Client wraps one configured provider SDK client.
type Client struct {
	provider  Provider
	openai    *openai.Client
	anthropic *anthropic.Client
	endpoint  string
	logger    *zap.Logger
}

// NewClient constructs a provider client from a model record without
// performing any network traffic.
func NewClient(m *models.Model, logger *zap.Logger) (*Client, error) {
	if m.APIEndpoint == "" {
		return nil, fmt.Errorf("model %s has no API endpoint configured", m.Name)
	}

	c := &Client{
		provider: DetectProvider(m.Provider),
		endpoint: strings.TrimSuffix(m.APIEndpoint, "/"),
		logger:   logger.Named("llm"),
	}

	switch c.provider {
	case ProviderAnthropic:
		c.anthropic = anthropic.NewClient(m.APIKey, anthropic.WithBaseURL(c.endpoint))
	default:
		cfg := openai.DefaultConfig(m.APIKey)
		cfg.BaseURL = c.endpoint
		if m.OrganizationID != "" {
			cfg.OrgID = m.OrganizationID
		}
		c.openai = openai.NewClientWithConfig(cfg)
	}
	return c, nil
}

// Provider returns which SDK backs this client.
func (c *Client) Provider() Provider {
	return c.provider
}

// Endpoint returns the normalized base URL the client was built with.
func (c *Client) Endpoint() string {
	return c.endpoint
}
