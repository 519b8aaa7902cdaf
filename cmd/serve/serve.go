// Package serve implements the HTTP API command.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/common"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/api"
)

// Command returns the serve command.
func Command() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the news API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			sc := deps.Config.Server
			if address != "" {
				sc.Address = address
			}

			agg := common.NewAggregator(deps.Config, deps.Logger, deps.Metrics)
			server := api.NewServer(api.Config{
				Address:        sc.Address,
				ReadTimeout:    sc.ReadTimeout,
				WriteTimeout:   sc.WriteTimeout,
				IdleTimeout:    sc.IdleTimeout,
				RequestTimeout: sc.RequestTimeout,
				Debug:          deps.Config.App.Debug,
			}, api.NewHandler(agg, deps.Version, deps.Logger), deps.Metrics, deps.Logger)

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	return cmd
}
