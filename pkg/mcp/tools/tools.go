// Package tools provides MCP tool implementations for psy-engine. All tools
// are read-only views over the modeling data so an agent can ground its
// extraction work without mutating the registry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/services"
)

// Deps carries the services the tools read from.
type Deps struct {
	OntologyService  services.OntologyService
	KnowledgeService services.KnowledgeService
	PromptService    services.PromptService
	Logger           *zap.Logger
}

// Register adds every tool to the server.
func Register(s *server.MCPServer, deps *Deps) {
	registerListOntologiesTool(s, deps)
	registerGetOntologyTool(s, deps)
	registerKnowledgeGraphTool(s, deps)
	registerCompilePromptTool(s, deps)
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable errors the calling agent should see and can fix
// (invalid parameters, resource not found); system failures still return Go
// errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := struct {
		Error   bool   `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// registerListOntologiesTool adds the list_ontologies tool for discovering
// declared entity and relation types.
func registerListOntologiesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_ontologies",
		mcp.WithDescription(
			"List the declared ontologies (entity and event types). "+
				"Returns machine names, display labels, and category ids. "+
				"Use get_ontology for the full property and relation declarations of one type.",
		),
		mcp.WithString(
			"category",
			mcp.Description("Optional category id to filter by subtree; omit or pass 'all' for everything"),
		),
		mcp.WithString(
			"query",
			mcp.Description("Optional text filter matched against name, label, and description"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		category := req.GetString("category", "")
		query := req.GetString("query", "")

		ontologies, err := deps.OntologyService.List(ctx, category, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list ontologies: %w", err)
		}

		type entry struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			Label      string `json:"label"`
			Type       string `json:"type"`
			CategoryID string `json:"categoryId"`
		}
		result := struct {
			Ontologies []entry `json:"ontologies"`
			Count      int     `json:"count"`
		}{
			Ontologies: make([]entry, 0, len(ontologies)),
			Count:      len(ontologies),
		}
		for _, o := range ontologies {
			result.Ontologies = append(result.Ontologies, entry{
				ID:         o.ID,
				Name:       o.Name,
				Label:      o.Label,
				Type:       string(o.Type),
				CategoryID: o.CategoryID,
			})
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerGetOntologyTool adds the get_ontology tool returning one full
// declaration including properties and relations.
func registerGetOntologyTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_ontology",
		mcp.WithDescription(
			"Get the full declaration of one ontology: properties with types, "+
				"required flags and defaults, plus outgoing relation declarations. "+
				"Use list_ontologies first to discover ids.",
		),
		mcp.WithString(
			"id",
			mcp.Required(),
			mcp.Description("Ontology id to look up"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return nil, err
		}

		ontology, err := deps.OntologyService.Get(ctx, id)
		if err != nil {
			return NewErrorResult("ontology_not_found", fmt.Sprintf("no ontology with id %q", id)), nil
		}

		jsonResult, err := json.Marshal(ontology)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerKnowledgeGraphTool adds the get_knowledge_graph tool returning the
// full instance layer.
func registerKnowledgeGraphTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_knowledge_graph",
		mcp.WithDescription(
			"Get the full knowledge graph: instance nodes with their typed "+
				"properties and the edges between them. Nodes reference ontologies "+
				"by name in their type field.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		graph, err := deps.KnowledgeService.Graph(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge graph: %w", err)
		}

		jsonResult, err := json.Marshal(graph)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerCompilePromptTool adds the compile_prompt tool rendering one
// structured template to Markdown.
func registerCompilePromptTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"compile_prompt",
		mcp.WithDescription(
			"Compile a structured prompt template to its Markdown system prompt. "+
				"Variable placeholders like {{case_text}} are left in place for the "+
				"caller to substitute.",
		),
		mcp.WithString(
			"id",
			mcp.Required(),
			mcp.Description("Prompt template id to compile"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return nil, err
		}

		content, err := deps.PromptService.Compile(ctx, id)
		if err != nil {
			return NewErrorResult("template_not_found", fmt.Sprintf("no prompt template with id %q", id)), nil
		}

		result := struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		}{
			ID:      id,
			Content: content,
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
