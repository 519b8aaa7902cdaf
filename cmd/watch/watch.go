// Package watch implements the scheduled collection command.
package watch

import (
	"github.com/spf13/cobra"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/common"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/watch"
)

// Command returns the watch command.
func Command() *cobra.Command {
	var (
		company  string
		industry string
		schedule string
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Collect news on a cron schedule into YAML snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			sc := deps.Config.Schedule
			if company != "" {
				sc.Company = company
			}
			if industry != "" {
				sc.Industry = industry
			}
			if schedule != "" {
				sc.Cron = schedule
			}
			if dir != "" {
				sc.OutputDir = dir
			}

			req := aggregator.Request{
				Company:    sc.Company,
				Industry:   sc.Industry,
				Days:       sc.Days,
				MaxResults: sc.MaxResults,
			}
			agg := common.NewAggregator(deps.Config, deps.Logger, deps.Metrics)
			w, err := watch.New(agg, req, sc.OutputDir, deps.Logger)
			if err != nil {
				return err
			}
			return w.Start(cmd.Context(), sc.Cron)
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company name (overrides schedule.company)")
	cmd.Flags().StringVar(&industry, "industry", "", "industry keyword (overrides schedule.industry)")
	cmd.Flags().StringVar(&schedule, "cron", "", "cron expression (overrides schedule.cron)")
	cmd.Flags().StringVar(&dir, "output-dir", "", "snapshot directory (overrides schedule.output_dir)")
	return cmd
}
