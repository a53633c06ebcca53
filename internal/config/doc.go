// Package config provides configuration management for todosmoke.
//
// Configuration is loaded from multiple sources and merged in a specific
// order, with later sources overriding earlier ones. Command-line flags
// override the result.
//
// # Configuration Layers
//
//  1. Default Configuration (embedded in binary)
//
//  2. User Configuration (~/.config/todosmoke/config.yaml)
//     - Personal defaults, e.g. a favourite kube context
//
//  3. Project Configuration (./.todosmoke/config.yaml)
//     - Shared via version control next to the deployment manifests
//
// # Configuration Structure
//
//	target:
//	  baseURL: "http://todolist.apps.example.com"  # or one of:
//	  route: "todo/todolist"                       # OpenShift Route namespace/name
//	  ingress: "todo/todolist"                     # Ingress namespace/name
//	  kubeContext: "staging"
//
//	run:
//	  prefix: "todosmoke"
//	  matchBy: "description"     # or "id"
//	  encoding: "form"           # or "json"
//	  output: "text"             # "quiet" or "json"
//	  timeout: "2m"
//	  requestTimeout: "10s"
//	  reportPath: "./reports"
//	  cleanup: true
//
//	server:
//	  host: "0.0.0.0"
//	  port: 8080
//
// A layer naming any of baseURL, route or ingress replaces the target of
// the layers below it.
package config
