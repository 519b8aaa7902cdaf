package search

import (
	"net/http"
	"time"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/retry"
)

// Default configuration values.
const (
	DefaultEndpoint = "https://search.sina.com.cn/"
	DefaultReferer  = "https://news.sina.com.cn/"
	DefaultChannel  = "news"
	DefaultColumn   = "1_7"
	DefaultMaxPages = 5
	DefaultTimeout  = 20 * time.Second
	DefaultWorkers  = 4
	MaxWorkers      = 8
)

// Config configures a Fetcher.
type Config struct {
	// Endpoint is the search page URL.
	Endpoint string
	// Referer is sent with search requests.
	Referer string
	// Channel and Column scope results to the news channel.
	Channel string
	Column  string
	// BaseURL completes root-relative result links.
	BaseURL string
	// MaxPages caps pagination per term.
	MaxPages int
	// PageSize is the largest number of results requested per page.
	PageSize int
	// Timeout bounds one search request.
	Timeout time.Duration
	// Workers bounds concurrent article fetches within a page.
	Workers int
	// Retry governs connection-level retries of search requests.
	Retry retry.Config
	// UserAgents overrides the default User-Agent pool.
	UserAgents []string
	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
}

// DefaultConfig returns the configuration used against the live endpoint.
func DefaultConfig() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Referer:  DefaultReferer,
		Channel:  DefaultChannel,
		Column:   DefaultColumn,
		BaseURL:  DefaultBaseURL,
		MaxPages: DefaultMaxPages,
		PageSize: domain.MaxPageSize,
		Timeout:  DefaultTimeout,
		Workers:  DefaultWorkers,
		Retry:    retry.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Referer == "" {
		c.Referer = d.Referer
	}
	if c.Channel == "" {
		c.Channel = d.Channel
	}
	if c.Column == "" {
		c.Column = d.Column
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.MaxPages <= 0 {
		c.MaxPages = d.MaxPages
	}
	if c.PageSize <= 0 || c.PageSize > domain.MaxPageSize {
		c.PageSize = domain.MaxPageSize
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry = d.Retry
	}
	return c
}
