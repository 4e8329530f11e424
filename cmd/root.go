package main

import (
	"fmt"

	"health_dashboard/internal/config"
	"health_dashboard/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configDir string
	logLevel  string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "health_dashboard",
	Short: "Steps and heart rate dashboard backed by a health data provider",
	Long: `health_dashboard runs a health session (initialize, grant permissions,
refresh) against a health data provider and exposes today's steps and the
latest heart rate.

COMMANDS:

  serve      HTTP API, WebSocket snapshot stream and swagger docs (default)
  snapshot   One-shot initialize, permissions and refresh, printed as cards
  mcp        MCP stdio server exposing the session as tools

CONFIGURATION:

  Settings are read from <config-dir>/config.yml and may be overridden with
  HEALTH_* environment variables, e.g. HEALTH_PROVIDER_KIND=native.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		loaded, err := config.Load(configDir)
		if err != nil {
			return fmt.Errorf("error reading config: %w", err)
		}
		cfg = loaded

		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		var opts []logger.Option
		if cmd.Name() == mcpCmd.Name() {
			// stdout carries the protocol stream
			opts = append(opts, logger.ToStderr())
		}
		log = logger.Get(level, opts...)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "directory containing config.yml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
