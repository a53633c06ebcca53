package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"todosmoke/internal/agent"
	"todosmoke/internal/config"
	"todosmoke/internal/kube"
	"todosmoke/internal/smoke"
	"todosmoke/internal/todo"
	"todosmoke/pkg/logging"
)

type testOptions struct {
	baseURL        string
	route          string
	ingress        string
	kubeContext    string
	prefix         string
	matchBy        string
	encoding       string
	output         string
	reportPath     string
	timeout        time.Duration
	requestTimeout time.Duration
	cleanup        bool
	verbose        bool
	debug          bool
	logLevel       string
	copySummary    bool
	failExitCode   bool
	mcpServer      bool
}

// urlResolver turns a Route or Ingress reference into a base URL
type urlResolver interface {
	RouteURL(ctx context.Context, ref kube.ObjectRef) (string, error)
	IngressURL(ctx context.Context, ref kube.ObjectRef) (string, error)
}

// Mockable for testing
var (
	loadConfig  = config.LoadConfig
	newResolver = func(kubeContext string) (urlResolver, error) {
		resolver, err := kube.NewResolver(kubeContext)
		if err != nil {
			return nil, err
		}
		return resolver, nil
	}
	writeClipboard = clipboard.WriteAll
)

// errSmokeFailed is returned with --fail-exit-code when the run did not pass
var errSmokeFailed = errors.New("todo service did not pass the smoke test")

func newTestCmd() *cobra.Command {
	opts := &testOptions{}

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the create / update / delete smoke test against a todo service",
		Long: `The test command drives a deployed todo service through a fixed scenario
over its REST API:

1. create: create two items with unique descriptions and a third that
   repeats the first description
2. update: mark item1 and item2 completed
3. verify-membership: item1 must appear in /todo-completed and item3 in
   /todo-incomplete
4. delete: delete item1 and item3
5. verify-removal: neither item1 nor item3 may appear in /todo-completed
   or /todo-incomplete
6. cleanup (--cleanup only): delete item2

The service is located by --base-url, by an OpenShift Route (--route) or by
a Kubernetes Ingress (--ingress), in that order, falling back to the config
file target.

The exit code is 0 whatever the outcome unless --fail-exit-code is set.

In MCP Server mode (--mcp-server) the command serves the smoke run as MCP
tools over stdio instead of running once.`,
		Example: `  todosmoke test --base-url http://todolist.apps.example.com
  todosmoke test --route todo/todolist --kube-context staging
  todosmoke test --base_url http://localhost:8080 --encoding json --match-by id
  todosmoke test --base-url http://localhost:8080 --output json --report ./reports
  todosmoke test --mcp-server`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, opts)
		},
	}

	// Target
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL of the todo service")
	cmd.Flags().StringVar(&opts.route, "route", "", "OpenShift Route exposing the service, as namespace/name")
	cmd.Flags().StringVar(&opts.ingress, "ingress", "", "Kubernetes Ingress exposing the service, as namespace/name")
	cmd.Flags().StringVar(&opts.kubeContext, "kube-context", "", "Kubeconfig context used to read the Route or Ingress")

	// Scenario
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Start of every generated item description (default \"todosmoke\")")
	cmd.Flags().StringVar(&opts.matchBy, "match-by", "", "How items are found in the lists: description or id (default \"description\")")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "Request body encoding: form or json (default \"form\")")
	cmd.Flags().BoolVar(&opts.cleanup, "cleanup", false, "Delete the item the scenario leaves behind")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Overall run timeout, 0 means none")
	cmd.Flags().DurationVar(&opts.requestTimeout, "request-timeout", 0, "Per request timeout, 0 means none")

	// Output and debugging
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Show every request of every phase")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging and HTTP tracing")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level on stderr: debug, info, warn or error (default from --debug/--verbose, else warn)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output format: text, quiet or json (default \"text\")")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Directory to save a detailed JSON report in")
	cmd.Flags().BoolVar(&opts.copySummary, "copy-summary", false, "Copy the one-line summary to the clipboard")
	cmd.Flags().BoolVar(&opts.failExitCode, "fail-exit-code", false, "Exit 1 when the run is FAILED or ERROR")

	// MCP Server mode
	cmd.Flags().BoolVar(&opts.mcpServer, "mcp-server", false, "Run as MCP server (stdio transport)")

	_ = cmd.RegisterFlagCompletionFunc("match-by", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(smoke.MatchByDescription), string(smoke.MatchByID)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("encoding", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(todo.EncodingForm), string(todo.EncodingJSON)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("log-level", completeLogLevel)
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{smoke.OutputText, smoke.OutputQuiet, smoke.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.MarkFlagsMutuallyExclusive("base-url", "route", "ingress")
	cmd.MarkFlagsMutuallyExclusive("mcp-server", "base-url")
	cmd.MarkFlagsMutuallyExclusive("mcp-server", "route")
	cmd.MarkFlagsMutuallyExclusive("mcp-server", "ingress")
	cmd.MarkFlagsMutuallyExclusive("mcp-server", "report")
	cmd.MarkFlagsMutuallyExclusive("mcp-server", "copy-summary")

	return cmd
}

func runTest(cmd *cobra.Command, opts *testOptions) error {
	level := logging.LevelWarn
	if opts.debug {
		level = logging.LevelDebug
	} else if opts.verbose {
		level = logging.LevelInfo
	}
	level, err := resolveLogLevel(opts.logLevel, level)
	if err != nil {
		return err
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyTestFlags(cmd, opts, &cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runConfig, err := buildRunConfiguration(cfg.Run, opts)
	if err != nil {
		return err
	}

	// Run in MCP Server mode if requested
	if opts.mcpServer {
		// stdout carries the protocol, so the runner reports nowhere
		runner := smoke.NewRunner(smoke.NewQuietReporter(io.Discard), nil)
		server := agent.NewSmokeMCPServer(runner, runConfig, rootCmd.Version)

		logging.Info("test", "Starting todosmoke MCP server (stdio transport)")
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("smoke MCP server error: %w", err)
		}
		return nil
	}

	runConfig.BaseURL, err = resolveTarget(ctx, cfg.Target)
	if err != nil {
		return err
	}

	reporter, err := smoke.NewReporter(cfg.Run.Output, cmd.OutOrStdout(), opts.verbose, opts.debug)
	if err != nil {
		return err
	}

	result, err := smoke.NewRunner(reporter, nil).Run(ctx, runConfig)
	if err != nil {
		return fmt.Errorf("smoke run failed: %w", err)
	}

	if cfg.Run.ReportPath != "" {
		path, err := smoke.SaveReport(cfg.Run.ReportPath, *result)
		if err != nil {
			logging.Error("test", err, "Failed to save report")
		} else if cfg.Run.Output == "" || cfg.Run.Output == smoke.OutputText {
			fmt.Fprintf(cmd.OutOrStdout(), "📄 Report saved to %s\n", path)
		} else {
			logging.Info("test", "Report saved to %s", path)
		}
	}

	if opts.copySummary {
		if err := writeClipboard(result.Summary()); err != nil {
			logging.Warn("test", "Could not copy summary to clipboard: %v", err)
		}
	}

	if opts.failExitCode && result.Result != smoke.ResultPassed {
		return fmt.Errorf("%w: %s", errSmokeFailed, result.Result)
	}
	return nil
}

// resolveLogLevel parses an explicit --log-level, or returns fallback when none was given.
func resolveLogLevel(name string, fallback logging.LogLevel) (logging.LogLevel, error) {
	if name == "" {
		return fallback, nil
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return fallback, fmt.Errorf("invalid --log-level: %w", err)
	}
	return level, nil
}

func completeLogLevel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
}

// applyTestFlags overrides the loaded configuration with every flag the user set.
func applyTestFlags(cmd *cobra.Command, opts *testOptions, cfg *config.TodosmokeConfig) {
	flags := cmd.Flags()

	// A target given on the command line replaces the configured one
	if flags.Changed("base-url") || flags.Changed("route") || flags.Changed("ingress") {
		cfg.Target.BaseURL = opts.baseURL
		cfg.Target.Route = opts.route
		cfg.Target.Ingress = opts.ingress
	}
	if flags.Changed("kube-context") {
		cfg.Target.KubeContext = opts.kubeContext
	}

	if flags.Changed("prefix") {
		cfg.Run.Prefix = opts.prefix
	}
	if flags.Changed("match-by") {
		cfg.Run.MatchBy = opts.matchBy
	}
	if flags.Changed("encoding") {
		cfg.Run.Encoding = opts.encoding
	}
	if flags.Changed("output") {
		cfg.Run.Output = opts.output
	}
	if flags.Changed("report") {
		cfg.Run.ReportPath = opts.reportPath
	}
	if flags.Changed("timeout") {
		cfg.Run.Timeout = opts.timeout
	}
	if flags.Changed("request-timeout") {
		cfg.Run.RequestTimeout = opts.requestTimeout
	}
	if flags.Changed("cleanup") {
		cfg.Run.Cleanup = opts.cleanup
	}
}

func buildRunConfiguration(run config.RunConfig, opts *testOptions) (smoke.Configuration, error) {
	matchBy, err := smoke.ParseMatchBy(run.MatchBy)
	if err != nil {
		return smoke.Configuration{}, err
	}

	encoding, err := todo.ParseEncoding(run.Encoding)
	if err != nil {
		return smoke.Configuration{}, err
	}

	return smoke.Configuration{
		Prefix:         run.Prefix,
		MatchBy:        matchBy,
		Encoding:       encoding,
		Cleanup:        run.Cleanup,
		Timeout:        run.Timeout,
		RequestTimeout: run.RequestTimeout,
		Verbose:        opts.verbose,
		Debug:          opts.debug,
		ReportPath:     run.ReportPath,
	}, nil
}

// resolveTarget picks the base URL: an explicit URL first, then a Route, then an Ingress.
func resolveTarget(ctx context.Context, target config.TargetConfig) (string, error) {
	switch {
	case target.BaseURL != "":
		return target.BaseURL, nil

	case target.Route != "":
		ref, err := kube.ParseObjectRef(target.Route)
		if err != nil {
			return "", fmt.Errorf("invalid route: %w", err)
		}
		resolver, err := newResolver(target.KubeContext)
		if err != nil {
			return "", err
		}
		return resolver.RouteURL(ctx, ref)

	case target.Ingress != "":
		ref, err := kube.ParseObjectRef(target.Ingress)
		if err != nil {
			return "", fmt.Errorf("invalid ingress: %w", err)
		}
		resolver, err := newResolver(target.KubeContext)
		if err != nil {
			return "", err
		}
		return resolver.IngressURL(ctx, ref)

	default:
		return "", errors.New("no todo service target: set --base-url, --route or --ingress, or target in the config file")
	}
}
