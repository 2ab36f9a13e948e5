// Package mcp exposes knowledge-base search as a Model Context Protocol
// tool over stdio, for use from MCP-capable clients.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/incidentkb/rag-agent/appconfig"
	"github.com/incidentkb/rag-agent/kb"
	"github.com/incidentkb/rag-agent/model"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"question to search the incident knowledge base for"`
}

type SearchOutput struct {
	Message string                   `json:"message"`
	Results []model.StructuredResult `json:"results"`
	Count   int                      `json:"count"`
}

// clientsFactory constructs the backend clients for one tool call.
type clientsFactory func(ctx context.Context) (*kb.Clients, error)

// Serve runs the stdio MCP server until the context is cancelled or the
// client disconnects.
func Serve(ctx context.Context, cfg *appconfig.AppConfig) error {
	server := sdk.NewServer(&sdk.Implementation{
		Name:    "incident-kb-agent",
		Version: "1.0.0",
	}, nil)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "search_incidents",
		Description: "Search the incident knowledge base and return structured results (title, coordinates, relevance score per passage).",
	}, searchHandler(cfg, func(ctx context.Context) (*kb.Clients, error) {
		return kb.NewClients(ctx, cfg.Region)
	}))

	return server.Run(ctx, &sdk.StdioTransport{})
}

func searchHandler(cfg *appconfig.AppConfig, newClients clientsFactory) func(context.Context, *sdk.CallToolRequest, SearchInput) (*sdk.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *sdk.CallToolRequest, in SearchInput) (*sdk.CallToolResult, SearchOutput, error) {
		query := strings.TrimSpace(in.Query)
		if query == "" {
			return nil, SearchOutput{}, fmt.Errorf("query must not be empty")
		}

		clients, err := newClients(ctx)
		if err != nil {
			return nil, SearchOutput{}, err
		}

		envelope := kb.NewRetrievalAdapter(clients.AgentRuntime, cfg.KnowledgeBaseID).
			Retrieve(ctx, query)
		if envelope.Error != "" {
			return nil, SearchOutput{}, fmt.Errorf("%s: %s", envelope.Error, envelope.Message)
		}

		return nil, SearchOutput{
			Message: envelope.Message,
			Results: envelope.StructuredResults,
			Count:   len(envelope.StructuredResults),
		}, nil
	}
}
