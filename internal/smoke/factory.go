package smoke

import (
	"fmt"
	"io"

	"todosmoke/internal/todo"
)

// DefaultPrefix starts generated descriptions when none is configured.
const DefaultPrefix = "todosmoke"

// Output formats accepted by NewReporter.
const (
	OutputText  = "text"
	OutputQuiet = "quiet"
	OutputJSON  = "json"
)

// DefaultConfiguration returns a default run configuration
func DefaultConfiguration() Configuration {
	return Configuration{
		Prefix:   DefaultPrefix,
		MatchBy:  MatchByDescription,
		Encoding: todo.EncodingForm,
	}
}

// applyDefaults fills unset fields from DefaultConfiguration.
func applyDefaults(config Configuration) Configuration {
	defaults := DefaultConfiguration()
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}
	if config.MatchBy == "" {
		config.MatchBy = defaults.MatchBy
	}
	if config.Encoding == "" {
		config.Encoding = defaults.Encoding
	}
	return config
}

// ValidateConfiguration validates a run configuration
func ValidateConfiguration(config Configuration) error {
	if _, err := todo.NormalizeBaseURL(config.BaseURL); err != nil {
		return err
	}
	if config.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if _, err := ParseMatchBy(string(config.MatchBy)); err != nil {
		return err
	}
	if _, err := todo.ParseEncoding(string(config.Encoding)); err != nil {
		return err
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if config.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}

// NewReporter creates the reporter for an output format, writing to w
func NewReporter(output string, w io.Writer, verbose, debug bool) (Reporter, error) {
	switch output {
	case "", OutputText:
		return NewConsoleReporter(w, verbose, debug), nil
	case OutputQuiet:
		return NewQuietReporter(w), nil
	case OutputJSON:
		return NewJSONReporter(w), nil
	default:
		return nil, fmt.Errorf("invalid output format '%s', must be 'text', 'quiet' or 'json'", output)
	}
}
