package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/dropbox-batch-go/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

// cfg holds the effective configuration loaded by PersistentPreRunE.
// Commands apply their own flag overrides on top and re-validate.
var cfg *config.Config

// rpcClientTimeout bounds metadata calls (start/finish/check). Append
// calls use a client without a timeout because a chunk transfer on a slow
// link can legitimately take minutes.
const rpcClientTimeout = 30 * time.Second

func rpcHTTPClient() *http.Client {
	return &http.Client{Timeout: rpcClientTimeout}
}

func transferHTTPClient() *http.Client {
	return &http.Client{}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dropbox-batch",
		Short:   "Parallel chunked batch uploader for Dropbox",
		Long:    "Uploads folders of files to Dropbox using concurrent upload sessions:\nfiles in parallel, each file's chunks in parallel, one batch commit.",
		Version: version,
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// loadConfig resolves the effective configuration from defaults, config
// file, and environment, and stores the result for use by subcommands.
func loadConfig() error {
	env := config.ReadEnvOverrides()

	if flagConfigPath != "" {
		env.ConfigPath = flagConfigPath
	}

	resolved, err := config.Resolve(env)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg = resolved

	return nil
}

// buildLogger creates an slog.Logger from the resolved config and CLI
// flags. Config-file log level is the baseline; --verbose and --quiet
// override it because CLI flags always win. With no explicit log_format,
// text is used on a terminal and JSON otherwise.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if cfg != nil {
		switch cfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	format := ""
	if cfg != nil {
		format = cfg.Logging.LogFormat
	}

	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "text"
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
