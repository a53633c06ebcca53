// Package agent exposes the todo smoke test as MCP (Model Context Protocol)
// tools over stdio, so an AI assistant can run the scenario and inspect the
// last result.
//
// Tools:
//
//   - todo_smoke_run: runs the scenario against base_url and returns the
//     suite result as JSON
//   - todo_smoke_last_result: returns the result of the previous run
//
// Example usage:
//
//	runner := smoke.NewRunner(smoke.NewQuietReporter(io.Discard), nil)
//	server := agent.NewSmokeMCPServer(runner, smoke.DefaultConfiguration(), version)
//	if err := server.Start(ctx); err != nil {
//	    return err
//	}
//
// Stdout carries the protocol, so nothing else may write to it while the
// server runs.
package agent
