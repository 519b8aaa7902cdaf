// Package config loads the news fetcher configuration from defaults, an
// optional YAML file, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

// Config represents the application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"        yaml:"app"`
	Logger     logger.Config    `mapstructure:"logger"     yaml:"logger"`
	Search     SearchConfig     `mapstructure:"search"     yaml:"search"`
	Content    ContentConfig    `mapstructure:"content"    yaml:"content"`
	Pacing     PacingConfig     `mapstructure:"pacing"     yaml:"pacing"`
	Aggregator AggregatorConfig `mapstructure:"aggregator" yaml:"aggregator"`
	Server     ServerConfig     `mapstructure:"server"     yaml:"server"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"   yaml:"schedule"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"        yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	Debug       bool   `mapstructure:"debug"       yaml:"debug"`
}

// LogFields are attached to every log entry of the process.
func (a AppConfig) LogFields() []logger.Field {
	fields := []logger.Field{logger.String("service", a.Name)}
	if a.Environment != "" {
		fields = append(fields, logger.String("environment", a.Environment))
	}
	return fields
}

// RetryConfig governs search request retries.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"  yaml:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"     yaml:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"    yaml:"multiplier"`
}

// SearchConfig configures the search endpoint client.
type SearchConfig struct {
	Endpoint string        `mapstructure:"endpoint"  yaml:"endpoint"`
	Referer  string        `mapstructure:"referer"   yaml:"referer"`
	Channel  string        `mapstructure:"channel"   yaml:"channel"`
	Column   string        `mapstructure:"column"    yaml:"column"`
	BaseURL  string        `mapstructure:"base_url"  yaml:"base_url"`
	MaxPages int           `mapstructure:"max_pages" yaml:"max_pages"`
	PageSize int           `mapstructure:"page_size" yaml:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"   yaml:"timeout"`
	Workers  int           `mapstructure:"workers"   yaml:"workers"`
	Retry    RetryConfig   `mapstructure:"retry"     yaml:"retry"`
}

// ContentConfig configures article fetching.
type ContentConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"          yaml:"timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"   yaml:"max_body_bytes"`
	Readability     bool          `mapstructure:"readability"      yaml:"readability"`
	RedirectHost    string        `mapstructure:"redirect_host"    yaml:"redirect_host"`
	RedirectTimeout time.Duration `mapstructure:"redirect_timeout" yaml:"redirect_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"      yaml:"user_agents"`
}

// PacingConfig bounds the randomized delay between remote requests.
type PacingConfig struct {
	MinDelay time.Duration `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// AggregatorConfig tunes cross-term merging.
type AggregatorConfig struct {
	PerTermMaxResults int `mapstructure:"per_term_max_results" yaml:"per_term_max_results"`
	SoftCapFactor     int `mapstructure:"soft_cap_factor"      yaml:"soft_cap_factor"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address        string        `mapstructure:"address"         yaml:"address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"    yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"   yaml:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"    yaml:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// ScheduleConfig configures the watch command.
type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"        yaml:"cron"`
	OutputDir  string `mapstructure:"output_dir"  yaml:"output_dir"`
	Company    string `mapstructure:"company"     yaml:"company"`
	Industry   string `mapstructure:"industry"    yaml:"industry"`
	Days       int    `mapstructure:"days"        yaml:"days"`
	MaxResults int    `mapstructure:"max_results" yaml:"max_results"`
}

// Default values.
const (
	defaultAppName = "sina-news-fetcher"

	defaultSearchEndpoint = "https://search.sina.com.cn/"
	defaultSearchReferer  = "https://news.sina.com.cn/"
	defaultSearchChannel  = "news"
	defaultSearchColumn   = "1_7"
	defaultSearchBaseURL  = "https://news.sina.com.cn"
	defaultSearchMaxPages = 5
	defaultSearchPageSize = 20
	defaultSearchTimeout  = 20 * time.Second
	defaultSearchWorkers  = 4
	maxSearchWorkers      = 8

	defaultRetryMaxAttempts  = 4
	defaultRetryInitialDelay = 2 * time.Second
	defaultRetryMaxDelay     = 30 * time.Second
	defaultRetryMultiplier   = 2.0

	defaultContentTimeout         = 15 * time.Second
	defaultContentMaxBodyBytes    = 5 << 20
	defaultContentRedirectHost    = "link.sina.com.cn"
	defaultContentRedirectTimeout = 10 * time.Second

	defaultPacingMinDelay = 2 * time.Second
	defaultPacingMaxDelay = 5 * time.Second

	defaultPerTermMaxResults = 50
	defaultSoftCapFactor     = 2

	defaultServerAddress        = ":8080"
	defaultServerReadTimeout    = 30 * time.Second
	defaultServerWriteTimeout   = 10 * time.Minute
	defaultServerIdleTimeout    = 60 * time.Second
	defaultServerRequestTimeout = 5 * time.Minute

	defaultScheduleCron       = "0 */2 * * *"
	defaultScheduleOutputDir  = "./snapshots"
	defaultScheduleDays       = 1
	defaultScheduleMaxResults = 100
)

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Search.Endpoint == "":
		return fmt.Errorf("%w: search.endpoint is required", ErrConfigInvalid)
	case c.Search.PageSize < 1 || c.Search.PageSize > defaultSearchPageSize:
		return fmt.Errorf("%w: search.page_size must be within 1..%d", ErrConfigInvalid, defaultSearchPageSize)
	case c.Search.MaxPages < 1:
		return fmt.Errorf("%w: search.max_pages must be positive", ErrConfigInvalid)
	case c.Search.Workers < 1 || c.Search.Workers > maxSearchWorkers:
		return fmt.Errorf("%w: search.workers must be within 1..%d", ErrConfigInvalid, maxSearchWorkers)
	case c.Search.Retry.MaxAttempts < 1:
		return fmt.Errorf("%w: search.retry.max_attempts must be positive", ErrConfigInvalid)
	case c.Pacing.MinDelay < 0 || c.Pacing.MaxDelay < c.Pacing.MinDelay:
		return fmt.Errorf("%w: pacing delays must satisfy 0 <= min_delay <= max_delay", ErrConfigInvalid)
	case c.Aggregator.PerTermMaxResults < 1:
		return fmt.Errorf("%w: aggregator.per_term_max_results must be positive", ErrConfigInvalid)
	case c.Aggregator.SoftCapFactor < 1:
		return fmt.Errorf("%w: aggregator.soft_cap_factor must be positive", ErrConfigInvalid)
	}
	return nil
}

// WithDefaults fills zero values. Pacing is left alone so a zero delay can be
// configured deliberately.
func (c *Config) WithDefaults() *Config {
	if c.App.Name == "" {
		c.App.Name = defaultAppName
	}
	c.Logger.SetDefaults()

	s := &c.Search
	if s.Endpoint == "" {
		s.Endpoint = defaultSearchEndpoint
	}
	if s.Referer == "" {
		s.Referer = defaultSearchReferer
	}
	if s.Channel == "" {
		s.Channel = defaultSearchChannel
	}
	if s.Column == "" {
		s.Column = defaultSearchColumn
	}
	if s.BaseURL == "" {
		s.BaseURL = defaultSearchBaseURL
	}
	if s.MaxPages == 0 {
		s.MaxPages = defaultSearchMaxPages
	}
	if s.PageSize == 0 {
		s.PageSize = defaultSearchPageSize
	}
	if s.Timeout == 0 {
		s.Timeout = defaultSearchTimeout
	}
	if s.Workers == 0 {
		s.Workers = defaultSearchWorkers
	}
	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if s.Retry.InitialDelay == 0 {
		s.Retry.InitialDelay = defaultRetryInitialDelay
	}
	if s.Retry.MaxDelay == 0 {
		s.Retry.MaxDelay = defaultRetryMaxDelay
	}
	if s.Retry.Multiplier == 0 {
		s.Retry.Multiplier = defaultRetryMultiplier
	}

	ct := &c.Content
	if ct.Timeout == 0 {
		ct.Timeout = defaultContentTimeout
	}
	if ct.MaxBodyBytes == 0 {
		ct.MaxBodyBytes = defaultContentMaxBodyBytes
	}
	if ct.RedirectHost == "" {
		ct.RedirectHost = defaultContentRedirectHost
	}
	if ct.RedirectTimeout == 0 {
		ct.RedirectTimeout = defaultContentRedirectTimeout
	}

	if c.Aggregator.PerTermMaxResults == 0 {
		c.Aggregator.PerTermMaxResults = defaultPerTermMaxResults
	}
	if c.Aggregator.SoftCapFactor == 0 {
		c.Aggregator.SoftCapFactor = defaultSoftCapFactor
	}

	sv := &c.Server
	if sv.Address == "" {
		sv.Address = defaultServerAddress
	}
	if sv.ReadTimeout == 0 {
		sv.ReadTimeout = defaultServerReadTimeout
	}
	if sv.WriteTimeout == 0 {
		sv.WriteTimeout = defaultServerWriteTimeout
	}
	if sv.IdleTimeout == 0 {
		sv.IdleTimeout = defaultServerIdleTimeout
	}
	if sv.RequestTimeout == 0 {
		sv.RequestTimeout = defaultServerRequestTimeout
	}

	sc := &c.Schedule
	if sc.Cron == "" {
		sc.Cron = defaultScheduleCron
	}
	if sc.OutputDir == "" {
		sc.OutputDir = defaultScheduleOutputDir
	}
	if sc.Days == 0 {
		sc.Days = defaultScheduleDays
	}
	if sc.MaxResults == 0 {
		sc.MaxResults = defaultScheduleMaxResults
	}
	return c
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{
		Content: ContentConfig{Readability: true},
		Pacing:  PacingConfig{MinDelay: defaultPacingMinDelay, MaxDelay: defaultPacingMaxDelay},
	}
	return cfg.WithDefaults()
}

// SetDefaults registers every default with v so that AutomaticEnv can see the keys.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.encoding", d.Logger.Format)
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.output_paths", d.Logger.OutputPaths)

	v.SetDefault("search.endpoint", d.Search.Endpoint)
	v.SetDefault("search.referer", d.Search.Referer)
	v.SetDefault("search.channel", d.Search.Channel)
	v.SetDefault("search.column", d.Search.Column)
	v.SetDefault("search.base_url", d.Search.BaseURL)
	v.SetDefault("search.max_pages", d.Search.MaxPages)
	v.SetDefault("search.page_size", d.Search.PageSize)
	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("search.workers", d.Search.Workers)
	v.SetDefault("search.retry.max_attempts", d.Search.Retry.MaxAttempts)
	v.SetDefault("search.retry.initial_delay", d.Search.Retry.InitialDelay)
	v.SetDefault("search.retry.max_delay", d.Search.Retry.MaxDelay)
	v.SetDefault("search.retry.multiplier", d.Search.Retry.Multiplier)

	v.SetDefault("content.timeout", d.Content.Timeout)
	v.SetDefault("content.max_body_bytes", d.Content.MaxBodyBytes)
	v.SetDefault("content.readability", d.Content.Readability)
	v.SetDefault("content.redirect_host", d.Content.RedirectHost)
	v.SetDefault("content.redirect_timeout", d.Content.RedirectTimeout)
	v.SetDefault("content.user_agents", []string{})

	v.SetDefault("pacing.min_delay", d.Pacing.MinDelay)
	v.SetDefault("pacing.max_delay", d.Pacing.MaxDelay)

	v.SetDefault("aggregator.per_term_max_results", d.Aggregator.PerTermMaxResults)
	v.SetDefault("aggregator.soft_cap_factor", d.Aggregator.SoftCapFactor)

	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("schedule.cron", d.Schedule.Cron)
	v.SetDefault("schedule.output_dir", d.Schedule.OutputDir)
	v.SetDefault("schedule.company", "")
	v.SetDefault("schedule.industry", "")
	v.SetDefault("schedule.days", d.Schedule.Days)
	v.SetDefault("schedule.max_results", d.Schedule.MaxResults)
}

// envBindings maps config keys to their explicit environment names, on top of
// the SECTION_KEY names AutomaticEnv already resolves.
var envBindings = map[string][]string{
	"app.environment":                 {"APP_ENV"},
	"app.debug":                       {"APP_DEBUG"},
	"logger.level":                    {"LOG_LEVEL"},
	"logger.encoding":                 {"LOG_FORMAT"},
	"search.endpoint":                 {"NEWS_SEARCH_ENDPOINT"},
	"search.workers":                  {"NEWS_SEARCH_WORKERS"},
	"content.readability":             {"NEWS_CONTENT_READABILITY"},
	"pacing.min_delay":                {"NEWS_PACING_MIN_DELAY"},
	"pacing.max_delay":                {"NEWS_PACING_MAX_DELAY"},
	"aggregator.per_term_max_results": {"NEWS_PER_TERM_MAX_RESULTS"},
	"server.address":                  {"NEWS_SERVER_ADDRESS", "SERVER_ADDRESS"},
	"schedule.cron":                   {"NEWS_SCHEDULE_CRON"},
}

// NewViper builds a viper instance: .env first, then defaults, the optional
// config file and environment variables. cfgFile may be empty.
func NewViper(cfgFile string) (*viper.Viper, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", ErrConfigLoadFailed, err)
		}
	}

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	return v, nil
}

// Load decodes, defaults and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoadFailed, err)
	}

	cfg.WithDefaults()
	if cfg.App.Debug {
		cfg.Logger.Level = string(logger.DebugLevel)
		cfg.Logger.Development = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
