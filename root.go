package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/driveloom/mirror/internal/config"
)

// version is the CLI's reported version string.
const version = "0.1.0"

// Global persistent flags, bound in newRootCmd's PersistentFlags.
var (
	flagConfigPath string
	flagLogLevel   string
	flagJSON       bool
)

// CLIContext bundles the resolved configuration and logger every
// subcommand needs, built once in PersistentPreRunE and threaded through
// the command's context.
type CLIContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	JSON   bool
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) (*CLIContext, bool) {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)

	return cc, ok
}

// mustCLIContext retrieves the CLIContext a PersistentPreRunE is expected
// to have already installed. Panics if missing — a programmer error, not
// a user-facing condition.
func mustCLIContext(cmd *cobra.Command) *CLIContext {
	cc, ok := cliContextFrom(cmd.Context())
	if !ok {
		panic("mirror: command run without a CLIContext installed")
	}

	return cc
}

// newRootCmd builds the onedrive-mirror command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "onedrive-mirror",
		Short:         "Incrementally mirror a remote document store to the local filesystem",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cc, err := buildCLIContext()
			if err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to optional TOML tuning-knob file")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override the configured log level (DEBUG, INFO, WARN, ERROR)")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "force JSON output for status/drives, regardless of TTY detection")

	root.AddCommand(newSyncCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newDrivesCmd())

	return root
}

// buildCLIContext loads configuration and builds the logger every
// subcommand's PersistentPreRunE shares.
func buildCLIContext() (*CLIContext, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, err
	}

	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	return &CLIContext{
		Cfg:    cfg,
		Logger: buildLogger(cfg),
		JSON:   flagJSON,
	}, nil
}

// buildLogger constructs a slog.Logger at cfg.LogLevel, writing to stderr
// so stdout stays clean for status/drives JSON output. EnableLogging=false
// silences every level, error included.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	if !cfg.EnableLogging {
		level = slog.LevelError + 1
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints err to stderr and exits 1. Called only from main —
// subcommand RunE functions should return errors, never call this directly.
func exitOnError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
