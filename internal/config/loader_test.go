package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a config file from raw YAML
func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// mockPaths points both config layers into tempDir and restores them afterwards.
func mockPaths(t *testing.T, tempDir string) {
	t.Helper()
	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
	})

	getUserConfigPath = func() (string, error) {
		return filepath.Join(tempDir, "home", userConfigDir, configFileName), nil
	}
	getProjectConfigPath = func() (string, error) {
		return filepath.Join(tempDir, "project", projectConfigDir, configFileName), nil
	}
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	mockPaths(t, t.TempDir())

	loadedConfig, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loadedConfig)
	assert.Equal(t, "todosmoke", loadedConfig.Run.Prefix)
	assert.Zero(t, loadedConfig.Run.RequestTimeout)
}

func TestLoadConfig_UserOverride(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	writeConfigFile(t, filepath.Join(tempDir, "home", userConfigDir), `
target:
  route: todo/todolist
  kubeContext: staging
run:
  matchBy: id
  requestTimeout: 10s
  cleanup: true
`)

	loadedConfig, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "todo/todolist", loadedConfig.Target.Route)
	assert.Equal(t, "staging", loadedConfig.Target.KubeContext)
	assert.Equal(t, "id", loadedConfig.Run.MatchBy)
	assert.Equal(t, 10*time.Second, loadedConfig.Run.RequestTimeout)
	assert.True(t, loadedConfig.Run.Cleanup)
	// Untouched defaults survive
	assert.Equal(t, "form", loadedConfig.Run.Encoding)
	assert.Equal(t, 8080, loadedConfig.Server.Port)
}

func TestLoadConfig_ProjectOverridesUser(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	writeConfigFile(t, filepath.Join(tempDir, "home", userConfigDir), `
target:
  route: todo/todolist
  kubeContext: staging
run:
  prefix: mine
`)
	writeConfigFile(t, filepath.Join(tempDir, "project", projectConfigDir), `
target:
  baseURL: http://localhost:9000
server:
  port: 9000
`)

	loadedConfig, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", loadedConfig.Target.BaseURL)
	assert.Empty(t, loadedConfig.Target.Route, "project target replaces the user route")
	assert.Equal(t, "staging", loadedConfig.Target.KubeContext)
	assert.Equal(t, "mine", loadedConfig.Run.Prefix)
	assert.Equal(t, 9000, loadedConfig.Server.Port)
	assert.Equal(t, "localhost", loadedConfig.Server.Host)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	writeConfigFile(t, filepath.Join(tempDir, "project", projectConfigDir), "run: [unterminated")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading project config")
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	writeConfigFile(t, filepath.Join(tempDir, "home", userConfigDir), "")

	loadedConfig, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loadedConfig)
}

func TestUserConfigPath(t *testing.T) {
	originalOsUserHomeDir := osUserHomeDir
	defer func() { osUserHomeDir = originalOsUserHomeDir }()

	osUserHomeDir = func() (string, error) { return "/home/tester", nil }

	path, err := getUserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "todosmoke", "config.yaml"), path)
}
