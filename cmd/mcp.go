package main

import (
	"context"
	"os/signal"
	"syscall"

	"health_dashboard/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server over stdin/stdout.
Logs go to stderr.

AVAILABLE TOOLS:

  initialize           Connect to the health data provider
  request_permissions  Request read access for data types
  refresh              Re-read today's steps and latest heart rate
  get_state            Current session snapshot

MCP CLIENT CONFIGURATION:

  {
    "mcpServers": {
      "health": { "command": "health_dashboard", "args": ["mcp"] }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return mcp.NewServer(a.services.Session, log.Named("mcp")).Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
