// Package fetch implements the one-shot fetch command.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/common"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/output"
)

type options struct {
	company    string
	industry   string
	days       int
	maxResults int
	format     string
	timeout    time.Duration
}

// Command returns the fetch command.
func Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch news once and print it",
		Example: `  news-fetcher fetch --company 贵州茅台 --days 3
  news-fetcher fetch --industry 白酒 --max-results 20 --format table`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := aggregator.FetchNewsArgs{Company: opts.company, Industry: opts.industry}
			if cmd.Flags().Changed("days") {
				args.Days = &opts.days
			}
			if cmd.Flags().Changed("max-results") {
				args.MaxResults = &opts.maxResults
			}
			return run(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.company, "company", "", "company name to search for")
	cmd.Flags().StringVar(&opts.industry, "industry", "", "industry keyword to search for")
	cmd.Flags().IntVar(&opts.days, "days", aggregator.DefaultDays, "look-back window in calendar days (0 = today)")
	cmd.Flags().IntVar(&opts.maxResults, "max-results", aggregator.DefaultMaxResults, "maximum number of items")
	cmd.Flags().StringVarP(&opts.format, "format", "o", output.FormatJSON,
		"output format ("+strings.Join(output.Formats(), ", ")+")")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "overall deadline for the crawl (0 = none)")

	return cmd
}

func run(cmd *cobra.Command, args aggregator.FetchNewsArgs, opts options) error {
	// stdout carries the result
	deps, err := common.NewDeps(cmd, common.LogToStderr())
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	agg := common.NewAggregator(deps.Config, deps.Logger, deps.Metrics)
	res, err := agg.Run(ctx, args.Request())
	if err != nil {
		return fmt.Errorf("fetch news: %w", err)
	}

	deps.Logger.Info("Fetch complete",
		logger.CrawlID(res.CrawlID),
		logger.Strings("terms", res.Terms),
		logger.Int("items", len(res.Items)),
		logger.Duration("duration", res.Duration),
	)

	return output.Write(cmd.OutOrStdout(), opts.format, domain.LabeledItems(res.Items))
}
