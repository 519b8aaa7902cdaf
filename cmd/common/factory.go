package common

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/config"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/extractor"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/httpclient"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/metrics"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/redirect"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/retry"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/search"
)

// Persistent flag names shared by every command.
const (
	FlagConfig = "config"
	FlagDebug  = "debug"
)

// Version is set by the root command.
var Version = "dev"

// DepsOption adjusts configuration before the logger is built.
type DepsOption func(*config.Config)

// LogToStderr keeps stdout free for protocol traffic.
func LogToStderr() DepsOption {
	return func(c *config.Config) {
		c.Logger.OutputPaths = []string{"stderr"}
	}
}

// NewDeps loads configuration for cmd and creates the logger and metrics.
func NewDeps(cmd *cobra.Command, opts ...DepsOption) (Deps, error) {
	var cfgFile string
	if f := cmd.Flag(FlagConfig); f != nil {
		cfgFile = f.Value.String()
	}

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return Deps{}, fmt.Errorf("load config: %w", err)
	}
	if f := cmd.Flag(FlagDebug); f != nil && f.Changed {
		if bindErr := v.BindPFlag("app.debug", f); bindErr != nil {
			return Deps{}, fmt.Errorf("bind debug flag: %w", bindErr)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return Deps{}, fmt.Errorf("load config: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return Deps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := Deps{
		Config:  cfg,
		Logger:  log.With(cfg.App.LogFields()...),
		Metrics: metrics.New(),
		Version: Version,
	}
	if validateErr := deps.Validate(); validateErr != nil {
		return Deps{}, fmt.Errorf("validate deps: %w", validateErr)
	}
	return deps, nil
}

// NewAggregator wires the crawl pipeline from configuration.
func NewAggregator(cfg *config.Config, log logger.Logger, rec *metrics.Recorder) *aggregator.Aggregator {
	pacer := httpclient.NewPacer(cfg.Pacing.MinDelay, cfg.Pacing.MaxDelay)

	resolver := redirect.New(redirect.Config{
		Host:    cfg.Content.RedirectHost,
		Timeout: cfg.Content.RedirectTimeout,
		Referer: cfg.Search.Referer,
	}, log, rec)

	ext := extractor.New(extractor.Config{
		Timeout:      cfg.Content.Timeout,
		MaxBodyBytes: cfg.Content.MaxBodyBytes,
		Readability:  cfg.Content.Readability,
		UserAgents:   cfg.Content.UserAgents,
	}, pacer, resolver, log, rec)

	fetcher := search.NewFetcher(SearchConfig(cfg), pacer, ext, resolver, log, rec)

	return aggregator.New(aggregator.Config{
		PerTermMaxResults: cfg.Aggregator.PerTermMaxResults,
		SoftCapFactor:     cfg.Aggregator.SoftCapFactor,
	}, fetcher, pacer, log, rec)
}

// SearchConfig maps the search section onto the fetcher configuration.
func SearchConfig(cfg *config.Config) search.Config {
	r := retry.DefaultConfig()
	r.MaxAttempts = cfg.Search.Retry.MaxAttempts
	r.InitialDelay = cfg.Search.Retry.InitialDelay
	r.MaxDelay = cfg.Search.Retry.MaxDelay
	r.Multiplier = cfg.Search.Retry.Multiplier

	return search.Config{
		Endpoint:   cfg.Search.Endpoint,
		Referer:    cfg.Search.Referer,
		Channel:    cfg.Search.Channel,
		Column:     cfg.Search.Column,
		BaseURL:    cfg.Search.BaseURL,
		MaxPages:   cfg.Search.MaxPages,
		PageSize:   cfg.Search.PageSize,
		Timeout:    cfg.Search.Timeout,
		Workers:    cfg.Search.Workers,
		Retry:      r,
		UserAgents: cfg.Content.UserAgents,
	}
}
