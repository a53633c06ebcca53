package agent

import (
	"context"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"todosmoke/internal/smoke"
	"todosmoke/pkg/logging"
)

// SmokeMCPServer serves the smoke test as MCP tools
type SmokeMCPServer struct {
	server   *server.MCPServer
	runner   smoke.Runner
	defaults smoke.Configuration

	mu         sync.RWMutex
	lastResult *smoke.SuiteResult
}

// NewSmokeMCPServer creates the MCP server and registers its tools. Arguments
// of todo_smoke_run override defaults.
func NewSmokeMCPServer(runner smoke.Runner, defaults smoke.Configuration, version string) *SmokeMCPServer {
	s := &SmokeMCPServer{
		server: server.NewMCPServer(
			"todosmoke",
			version,
			server.WithToolCapabilities(false),
		),
		runner:   runner,
		defaults: defaults,
	}

	s.server.AddTool(mcp.NewTool("todo_smoke_run",
		mcp.WithDescription("Run the todo smoke scenario (create, update, verify, delete, verify) against a todo service"),
		mcp.WithString("base_url",
			mcp.Required(),
			mcp.Description("Base URL of the todo service, e.g. http://todolist.apps.example.com"),
		),
		mcp.WithString("prefix",
			mcp.Description("Prefix of generated item descriptions"),
		),
		mcp.WithString("match_by",
			mcp.Description("How items are found in lists: 'description' or 'id'"),
			mcp.Enum(string(smoke.MatchByDescription), string(smoke.MatchByID)),
		),
		mcp.WithString("encoding",
			mcp.Description("Request body encoding: 'form' or 'json'"),
			mcp.Enum("form", "json"),
		),
		mcp.WithBoolean("cleanup",
			mcp.Description("Delete the item the scenario otherwise leaves behind"),
		),
	), s.handleRun)

	s.server.AddTool(mcp.NewTool("todo_smoke_last_result",
		mcp.WithDescription("Get the result of the most recent todo smoke run"),
	), s.handleLastResult)

	return s
}

// Start serves MCP over stdin/stdout until ctx is cancelled or stdin closes.
func (s *SmokeMCPServer) Start(ctx context.Context) error {
	logging.Info("agent", "Serving todo smoke MCP tools on stdio")
	return server.NewStdioServer(s.server).Listen(ctx, os.Stdin, os.Stdout)
}

// LastResult returns the result of the most recent run, if any.
func (s *SmokeMCPServer) LastResult() *smoke.SuiteResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

func (s *SmokeMCPServer) setLastResult(result *smoke.SuiteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = result
}
