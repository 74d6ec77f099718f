package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	rockmcp "github.com/rocknews/rocktag/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server on stdin/stdout.
Logs go to stderr so that stdout carries only protocol traffic.

Tools exposed:
  tag_text          tag a headline or description
  lookup_entity     look up an artist or member name
  dictionary_stats  gazetteer sizes
  run_feedback      feedback set of a recorded run
  mask_text         replace a run's confirmed names with a placeholder

If the run store cannot be opened the server still starts; run tools
return per-call errors.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				return fmt.Errorf("mcp: %w", err)
			}

			st, storeErr := newStore(cmd.Context(), logger)
			if storeErr != nil {
				logger.Error("mcp: failed to open run store; run tools will fail", "error", storeErr)
			} else {
				defer func() { _ = st.Close() }()
			}

			srv := rockmcp.NewServer(engine, st, cfg.Normalize.MaskPlaceholder, logger)
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: rocktag MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
