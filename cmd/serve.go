package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"todosmoke/internal/todoserver"
	"todosmoke/pkg/logging"
)

type serveOptions struct {
	host     string
	port     int
	debug    bool
	logLevel string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory reference todo service",
		Long: `Runs an in-memory todo service exposing the same REST API the smoke
test drives:

  POST   /todo              create an item (form or JSON body)
  POST   /todo/{id}         set the completed flag
  DELETE /todo/{id}         delete an item
  GET    /todo-completed    list completed items
  GET    /todo-incomplete   list incomplete items

Items are lost when the process exits.`,
		Example: `  todosmoke serve --port 8080
  todosmoke test --base-url http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Host to bind to (default from config, localhost)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Port to listen on (default from config, 8080)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Log every request")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level on stderr: debug, info, warn or error (default info, debug with --debug)")
	_ = cmd.RegisterFlagCompletionFunc("log-level", completeLogLevel)

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	level := logging.LevelInfo
	if opts.debug {
		level = logging.LevelDebug
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	level, err := resolveLogLevel(opts.logLevel, level)
	if err != nil {
		return err
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	host, port := cfg.Server.Host, cfg.Server.Port
	if cmd.Flags().Changed("host") {
		host = opts.host
	}
	if cmd.Flags().Changed("port") {
		port = opts.port
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := todoserver.NewServer(todoserver.NewMemStore())
	return server.ListenAndServe(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
}

// commandContext returns cmd's context, or Background when cmd was not
// started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
