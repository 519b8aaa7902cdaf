// Package redirect resolves the search engine's indirect link URLs to the
// article URL they point at.
package redirect

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/httpclient"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/metrics"
)

const (
	// DefaultHost is the indirect link host used by the search engine.
	DefaultHost = "link.sina.com.cn"
	// DefaultTimeout bounds a single resolution request.
	DefaultTimeout = 10 * time.Second
)

// Config configures a Resolver.
type Config struct {
	Host      string
	Timeout   time.Duration
	Referer   string
	Transport http.RoundTripper
}

// Resolver performs single-hop resolution of redirect links.
type Resolver struct {
	host    string
	client  *httpclient.Client
	log     logger.Logger
	metrics *metrics.Recorder
}

// New creates a Resolver. rec may be nil.
func New(cfg Config, log logger.Logger, rec *metrics.Recorder) *Resolver {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Resolver{
		host: strings.ToLower(host),
		client: httpclient.New(httpclient.Config{
			Timeout:     timeout,
			Referer:     cfg.Referer,
			NoRedirects: true,
			Transport:   cfg.Transport,
		}),
		log:     log,
		metrics: rec,
	}
}

// IsRedirectHost reports whether rawURL is served by the redirect host.
func (r *Resolver) IsRedirectHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), r.host)
}

// Resolve issues one request with redirects disabled and returns the Location
// target as an absolute URL; relative locations resolve against the link. It returns ("", false) when the response is not a redirect, carries
// no Location, or the request fails.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, bool) {
	resp, err := r.client.Get(ctx, rawURL)
	if err != nil {
		r.log.Warn("Redirect resolution failed", logger.URL(rawURL), logger.Error(err))
		r.metrics.RedirectResolved(false)
		return "", false
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if !isRedirectStatus(resp.StatusCode) || location == "" {
		r.log.Debug("Redirect link did not redirect",
			logger.URL(rawURL),
			logger.Int("status", resp.StatusCode),
		)
		r.metrics.RedirectResolved(false)
		return "", false
	}

	if strings.HasPrefix(location, "//") {
		location = "https:" + location
	}
	target, err := url.Parse(location)
	if err != nil {
		r.log.Warn("Redirect location is not a URL", logger.URL(rawURL), logger.String("location", location))
		r.metrics.RedirectResolved(false)
		return "", false
	}
	location = resp.Request.URL.ResolveReference(target).String()

	r.log.Debug("Redirect link resolved", logger.URL(rawURL), logger.String("location", location))
	r.metrics.RedirectResolved(true)
	return location, true
}

func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}
