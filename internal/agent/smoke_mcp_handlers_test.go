package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todosmoke/internal/smoke"
	"todosmoke/internal/todo"
	"todosmoke/internal/todoserver"
	"todosmoke/pkg/logging"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logging.InitForCLI(logging.LevelError, io.Discard)
	os.Exit(m.Run())
}

type fakeRunner struct {
	got    []smoke.Configuration
	result *smoke.SuiteResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, config smoke.Configuration) (*smoke.SuiteResult, error) {
	f.got = append(f.got, config)
	return f.result, f.err
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleRun_AppliesArguments(t *testing.T) {
	runner := &fakeRunner{result: &smoke.SuiteResult{RunID: "run-1", Result: smoke.ResultPassed}}
	defaults := smoke.DefaultConfiguration()
	defaults.Verbose = true
	s := NewSmokeMCPServer(runner, defaults, "1.0.0")

	result, err := s.handleRun(context.Background(), callTool("todo_smoke_run", map[string]interface{}{
		"base_url": "http://todo.local",
		"prefix":   "agent",
		"match_by": "id",
		"encoding": "json",
		"cleanup":  true,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"run_id": "run-1"`)

	require.Len(t, runner.got, 1)
	got := runner.got[0]
	assert.Equal(t, "http://todo.local", got.BaseURL)
	assert.Equal(t, "agent", got.Prefix)
	assert.Equal(t, smoke.MatchByID, got.MatchBy)
	assert.Equal(t, todo.EncodingJSON, got.Encoding)
	assert.True(t, got.Cleanup)
	assert.False(t, got.Verbose)

	assert.Equal(t, "run-1", s.LastResult().RunID)
}

func TestHandleRun_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "missing base_url", args: map[string]interface{}{}, want: "base_url"},
		{name: "bad match_by", args: map[string]interface{}{"base_url": "http://x", "match_by": "title"}, want: "invalid match key"},
		{name: "bad encoding", args: map[string]interface{}{"base_url": "http://x", "encoding": "xml"}, want: "invalid encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			s := NewSmokeMCPServer(runner, smoke.DefaultConfiguration(), "1.0.0")

			result, err := s.handleRun(context.Background(), callTool("todo_smoke_run", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
			assert.Empty(t, runner.got)
		})
	}
}

func TestHandleRun_RunnerError(t *testing.T) {
	s := NewSmokeMCPServer(&fakeRunner{err: errors.New("base URL is required")}, smoke.DefaultConfiguration(), "1.0.0")

	result, err := s.handleRun(context.Background(), callTool("todo_smoke_run", map[string]interface{}{"base_url": " "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Smoke run failed")
	assert.Nil(t, s.LastResult())
}

func TestHandleLastResult(t *testing.T) {
	server := httptest.NewServer(todoserver.NewServer(todoserver.NewMemStore()).Handler())
	t.Cleanup(server.Close)

	runner := smoke.NewRunner(smoke.NewQuietReporter(io.Discard), nil)
	s := NewSmokeMCPServer(runner, smoke.DefaultConfiguration(), "1.0.0")

	result, err := s.handleLastResult(context.Background(), callTool("todo_smoke_last_result", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No smoke runs yet")

	_, err = s.handleRun(context.Background(), callTool("todo_smoke_run", map[string]interface{}{"base_url": server.URL}))
	require.NoError(t, err)

	result, err = s.handleLastResult(context.Background(), callTool("todo_smoke_last_result", nil))
	require.NoError(t, err)

	var suite smoke.SuiteResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &suite))
	assert.Equal(t, smoke.ResultPassed, suite.Result)
	assert.Equal(t, server.URL, suite.BaseURL)
	assert.Len(t, suite.Phases, 5)
}
