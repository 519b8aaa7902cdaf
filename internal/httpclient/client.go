// Package httpclient provides the explicitly constructed HTTP clients used to
// talk to the search endpoint and to article sites.
package httpclient

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 15 * time.Second

	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 100

	// DefaultMaxIdleConnsPerHost is the default maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10

	// DefaultIdleConnTimeout is the default idle connection timeout
	DefaultIdleConnTimeout = 90 * time.Second

	// DefaultTLSHandshakeTimeout is the default TLS handshake timeout
	DefaultTLSHandshakeTimeout = 10 * time.Second

	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguageHeader = "zh-CN,zh;q=0.9,en;q=0.8"
)

// DefaultUserAgents is the desktop browser pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Config configures a Client.
type Config struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration
	// UserAgents is the pool a random User-Agent is drawn from per request.
	UserAgents []string
	// Referer, when set, is sent with every request.
	Referer string
	// NoRedirects makes the client return 3xx responses instead of following them.
	NoRedirects bool
	// Transport overrides the default transport. Tests point this at httptest servers.
	Transport http.RoundTripper
}

// Client wraps an http.Client with a User-Agent pool and browser-like headers.
type Client struct {
	http       *http.Client
	userAgents []string
	referer    string
	intN       func(int) int
}

// New creates a Client. Zero values in cfg fall back to package defaults.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	agents := cfg.UserAgents
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
			TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		}
	}

	hc := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
	if cfg.NoRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Client{
		http:       hc,
		userAgents: agents,
		referer:    cfg.Referer,
		intN:       rand.IntN,
	}
}

// HTTPClient exposes the underlying client for transports layered on top (resty).
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// UserAgent returns a random entry from the pool.
func (c *Client) UserAgent() string {
	return c.userAgents[c.intN(len(c.userAgents))]
}

// Headers returns the browser-like header set for one request.
func (c *Client) Headers() map[string]string {
	h := map[string]string{
		"User-Agent":      c.UserAgent(),
		"Accept":          acceptHeader,
		"Accept-Language": acceptLanguageHeader,
	}
	if c.referer != "" {
		h["Referer"] = c.referer
	}
	return h
}

// Get issues a GET with browser headers. The caller closes the body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req) //nolint:gosec // URL comes from search results
	if err != nil {
		return nil, err
	}
	return resp, nil
}
