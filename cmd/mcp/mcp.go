// Package mcp implements the MCP stdio server command.
package mcp

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/common"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	mcpserver "github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/mcp"
)

// Command returns the mcp command.
func Command() *cobra.Command {
	var toolTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the fetch_news tool over MCP stdio",
		Long: `Reads newline-delimited JSON-RPC 2.0 requests from stdin and writes
responses to stdout. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewDeps(cmd, common.LogToStderr())
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			agg := common.NewAggregator(deps.Config, deps.Logger, deps.Metrics)
			server := mcpserver.NewServer(agg, deps.Version, toolTimeout, deps.Logger)

			deps.Logger.Info("MCP server starting",
				logger.String("server", mcpserver.ServerName),
				logger.String("version", deps.Version),
			)
			return server.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().DurationVar(&toolTimeout, "tool-timeout", 0, "deadline for one fetch_news call (0 = none)")
	return cmd
}
