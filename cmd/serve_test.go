package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todosmoke/internal/config"
)

func TestServeCommand_InvalidPort(t *testing.T) {
	mockTestDeps(t, config.GetDefaultConfig(), nil)

	cmd := newServeCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--port", "70000"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between 1 and 65535")
}

func TestServeCommand_InvalidLogLevel(t *testing.T) {
	mockTestDeps(t, config.GetDefaultConfig(), nil)

	cmd := newServeCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--log-level", "chatty"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")
}

func TestServeCommand_Help(t *testing.T) {
	cmd := newServeCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "GET    /todo-completed")
	assert.Contains(t, buf.String(), "--port")
}
