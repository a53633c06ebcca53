package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"todosmoke/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/todosmoke"
	projectConfigDir = ".todosmoke"
	configFileName   = "config.yaml"
)

// LoadConfig loads the todosmoke configuration by layering default, user, and project settings.
func LoadConfig() (TodosmokeConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional
		logging.Warn("config", "Could not determine user config path: %v", err)
	} else if config, err = overlayFile(config, userConfigPath); err != nil {
		return TodosmokeConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("config", "Could not determine project config path: %v", err)
	} else if config, err = overlayFile(config, projectConfigPath); err != nil {
		return TodosmokeConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	return config, nil
}

// overlayFile merges the file at path into base. A missing file leaves base unchanged.
func overlayFile(base TodosmokeConfig, path string) (TodosmokeConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return base, err
	}
	logging.Debug("config", "Loaded configuration from %s", path)
	return mergeConfigs(base, overlay), nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a TodosmokeConfig from a YAML file.
func loadConfigFromFile(filePath string) (TodosmokeConfig, error) {
	var config TodosmokeConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return TodosmokeConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return TodosmokeConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Non-zero overlay
// fields win; cleanup can only be switched on by an overlay.
func mergeConfigs(base, overlay TodosmokeConfig) TodosmokeConfig {
	merged := base

	// Target: a file naming one kind of target replaces the others.
	if overlay.Target.BaseURL != "" || overlay.Target.Route != "" || overlay.Target.Ingress != "" {
		merged.Target.BaseURL = overlay.Target.BaseURL
		merged.Target.Route = overlay.Target.Route
		merged.Target.Ingress = overlay.Target.Ingress
	}
	if overlay.Target.KubeContext != "" {
		merged.Target.KubeContext = overlay.Target.KubeContext
	}

	if overlay.Run.Prefix != "" {
		merged.Run.Prefix = overlay.Run.Prefix
	}
	if overlay.Run.MatchBy != "" {
		merged.Run.MatchBy = overlay.Run.MatchBy
	}
	if overlay.Run.Encoding != "" {
		merged.Run.Encoding = overlay.Run.Encoding
	}
	if overlay.Run.Output != "" {
		merged.Run.Output = overlay.Run.Output
	}
	if overlay.Run.Timeout != 0 {
		merged.Run.Timeout = overlay.Run.Timeout
	}
	if overlay.Run.RequestTimeout != 0 {
		merged.Run.RequestTimeout = overlay.Run.RequestTimeout
	}
	if overlay.Run.ReportPath != "" {
		merged.Run.ReportPath = overlay.Run.ReportPath
	}
	if overlay.Run.Cleanup {
		merged.Run.Cleanup = true
	}

	if overlay.Server.Host != "" {
		merged.Server.Host = overlay.Server.Host
	}
	if overlay.Server.Port != 0 {
		merged.Server.Port = overlay.Server.Port
	}

	return merged
}
