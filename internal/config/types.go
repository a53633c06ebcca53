package config

import (
	"time"
)

// TodosmokeConfig is the top-level configuration structure for todosmoke.
type TodosmokeConfig struct {
	Target TargetConfig `yaml:"target"`
	Run    RunConfig    `yaml:"run"`
	Server ServerConfig `yaml:"server"`
}

// TargetConfig locates the todo service under test.
type TargetConfig struct {
	BaseURL     string `yaml:"baseURL,omitempty"`     // e.g. "http://todolist.apps.example.com"
	Route       string `yaml:"route,omitempty"`       // OpenShift Route as "namespace/name"
	Ingress     string `yaml:"ingress,omitempty"`     // Ingress as "namespace/name"
	KubeContext string `yaml:"kubeContext,omitempty"` // kubeconfig context used for Route/Ingress lookups
}

// RunConfig holds the defaults of a smoke run.
type RunConfig struct {
	Prefix         string        `yaml:"prefix,omitempty"`         // Start of every generated description
	MatchBy        string        `yaml:"matchBy,omitempty"`        // "description" or "id"
	Encoding       string        `yaml:"encoding,omitempty"`       // "form" or "json"
	Output         string        `yaml:"output,omitempty"`         // "text", "quiet" or "json"
	Timeout        time.Duration `yaml:"timeout,omitempty"`        // Whole run, 0 means none
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"` // Every HTTP request, 0 means none
	ReportPath     string        `yaml:"reportPath,omitempty"`     // Directory for detailed JSON reports
	Cleanup        bool          `yaml:"cleanup,omitempty"`        // Delete the item the scenario leaves behind
}

// ServerConfig configures the reference todo service started by `todosmoke serve`.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"` // Host to bind to (default: localhost)
	Port int    `yaml:"port,omitempty"` // Port to listen on (default: 8080)
}
