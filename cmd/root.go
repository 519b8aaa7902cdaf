// Package cmd implements the command-line interface for the news fetcher.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/common"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/fetch"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/mcp"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/serve"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/watch"
)

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	common.Version = version

	rootCmd := &cobra.Command{
		Use:   "news-fetcher",
		Short: "Collect recent Sina news for a company or industry",
		Long: `news-fetcher searches Sina News for a company and/or industry keyword,
fetches the article bodies and returns a deduplicated, date-sorted list.
It runs as a one-shot command, an MCP stdio tool server, an HTTP API or a
scheduled collector.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String(
		common.FlagConfig,
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().Bool(common.FlagDebug, false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "news-fetcher version %s\n", version)
		},
	})

	rootCmd.AddCommand(
		fetch.Command(),
		mcp.Command(),
		serve.Command(),
		watch.Command(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}
