package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"todosmoke/internal/smoke"
	"todosmoke/internal/todo"
)

// handleRun handles the todo_smoke_run MCP tool
func (s *SmokeMCPServer) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseURL, err := request.RequireString("base_url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	config := s.defaults
	config.BaseURL = baseURL
	// Verbose output would have nowhere to go
	config.Verbose = false

	if prefix, ok := args["prefix"].(string); ok && prefix != "" {
		config.Prefix = prefix
	}

	if matchBy, ok := args["match_by"].(string); ok && matchBy != "" {
		parsed, err := smoke.ParseMatchBy(matchBy)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		config.MatchBy = parsed
	}

	if encoding, ok := args["encoding"].(string); ok && encoding != "" {
		parsed, err := todo.ParseEncoding(encoding)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		config.Encoding = parsed
	}

	if cleanup, ok := args["cleanup"].(bool); ok {
		config.Cleanup = cleanup
	}

	result, err := s.runner.Run(ctx, config)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Smoke run failed: %v", err)), nil
	}

	s.setLastResult(result)
	return formatResult(result)
}

// handleLastResult handles the todo_smoke_last_result MCP tool
func (s *SmokeMCPServer) handleLastResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.LastResult()
	if result == nil {
		return mcp.NewToolResultText("No smoke runs yet. Use todo_smoke_run first."), nil
	}
	return formatResult(result)
}

func formatResult(result *smoke.SuiteResult) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format smoke result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
