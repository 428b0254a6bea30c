package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/blockduel/internal/config"
	"github.com/roach88/blockduel/internal/server"
	"github.com/roach88/blockduel/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Listen     string
	Database   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the match server",
		Long: `Run the blockduel HTTP and WebSocket server.

Settings come from the optional YAML config file; --listen and --db
override the file. The participant database is created if it does not
exist. The server stops on SIGINT or SIGTERM.

Example:
  blockduel serve
  blockduel serve --config ./blockduel.yaml --listen :9000 -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	return cmd
}

// loadServeConfig reads the config file and applies flag overrides.
func loadServeConfig(opts *ServeOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	cfg, err := loadServeConfig(opts)
	if err != nil {
		_ = out.Error(CodeConfig, "invalid configuration", err.Error())
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logLevel := cfg.SlogLevel()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		_ = out.Error(CodeStore, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	srv, err := server.New(st, cfg, server.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create server", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	if err := st.Ping(ctx); err != nil {
		return WrapExitError(ExitCommandError, "database not reachable", err)
	}
	slog.Info("database ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	out.VerboseLog("board %dx%d, session capacity %d, penalty pacing %d",
		cfg.Board.Width, cfg.Board.Height, cfg.Cache.Capacity, cfg.Penalties.PacingSteps)
	if opts.Format == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", cfg.Listen)
	}

	if err := srv.ListenAndServe(ctx, cfg.Listen); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
