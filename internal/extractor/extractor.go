// Package extractor fetches article pages and pulls their main text out of
// arbitrary third-party layouts.
package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/httpclient"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/metrics"
)

const (
	// DefaultTimeout bounds one article fetch.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodyBytes caps how much of a page is read.
	DefaultMaxBodyBytes int64 = 5 << 20

	// DiagnosticIncomplete is returned when no strategy yields text.
	DiagnosticIncomplete = "内容提取成功（但可能不完整）"
	// DiagnosticFailurePrefix starts every fetch failure diagnostic.
	DiagnosticFailurePrefix = "内容获取失败: "

	strippedElements = "script, style, iframe, nav, footer, aside, header, button, a"
)

// Resolver resolves indirect redirect links.
type Resolver interface {
	IsRedirectHost(rawURL string) bool
	Resolve(ctx context.Context, rawURL string) (string, bool)
}

// Config configures an Extractor.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	// Readability enables the go-readability strategy between the selector
	// list and the whole-body fallback.
	Readability bool
	UserAgents  []string
	Transport   http.RoundTripper
}

// Extractor turns article URLs into text. Failures come back as diagnostic
// strings, never as errors.
type Extractor struct {
	client     *httpclient.Client
	pacer      *httpclient.Pacer
	resolver   Resolver
	strategies []Strategy
	maxBody    int64
	log        logger.Logger
	metrics    *metrics.Recorder
}

// New creates an Extractor. resolver and rec may be nil.
func New(cfg Config, pacer *httpclient.Pacer, resolver Resolver, log logger.Logger, rec *metrics.Recorder) *Extractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	if pacer == nil {
		pacer = httpclient.NewPacer(httpclient.DefaultMinDelay, httpclient.DefaultMaxDelay)
	}

	return &Extractor{
		client: httpclient.New(httpclient.Config{
			Timeout:    timeout,
			UserAgents: cfg.UserAgents,
			Transport:  cfg.Transport,
		}),
		pacer:      pacer,
		resolver:   resolver,
		strategies: DefaultStrategies(cfg.Readability),
		maxBody:    maxBody,
		log:        log,
		metrics:    rec,
	}
}

// DefaultStrategies returns the selector list, optionally readability, then body.
func DefaultStrategies(withReadability bool) []Strategy {
	strategies := make([]Strategy, 0, len(DefaultSelectors)+2)
	for _, sel := range DefaultSelectors {
		strategies = append(strategies, Selector(sel))
	}
	if withReadability {
		strategies = append(strategies, Readability())
	}
	return append(strategies, Body())
}

// Extract fetches rawURL and returns its article text or a diagnostic.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (content string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Content extraction panicked", logger.URL(rawURL), logger.Any("panic", r))
			e.metrics.ArticleFetched(metrics.OutcomeError)
			content = DiagnosticFailurePrefix + fmt.Sprint(r)
		}
	}()

	if e.resolver != nil && e.resolver.IsRedirectHost(rawURL) {
		if resolved, ok := e.resolver.Resolve(ctx, rawURL); ok {
			rawURL = resolved
		}
	}

	if err := e.pacer.Wait(ctx); err != nil {
		e.metrics.ArticleFetched(metrics.OutcomeCancelled)
		return DiagnosticFailurePrefix + err.Error()
	}

	resp, err := e.client.Get(ctx, rawURL)
	if err != nil {
		e.log.Warn("Article fetch failed", logger.URL(rawURL), logger.Error(err))
		e.metrics.ArticleFetched(metrics.OutcomeError)
		return DiagnosticFailurePrefix + err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		e.log.Warn("Article fetch returned non-success status",
			logger.URL(rawURL),
			logger.Int("status", resp.StatusCode),
		)
		e.metrics.ArticleFetched(metrics.OutcomeHTTPError)
		return fmt.Sprintf("%sHTTP %d", DiagnosticFailurePrefix, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		e.log.Warn("Article body read failed", logger.URL(rawURL), logger.Error(err))
		e.metrics.ArticleFetched(metrics.OutcomeError)
		return DiagnosticFailurePrefix + err.Error()
	}

	// Pages are read as UTF-8 whatever they declare; invalid bytes become U+FFFD.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ToValidUTF8(string(body), "\uFFFD")))
	if err != nil {
		e.metrics.ArticleFetched(metrics.OutcomeError)
		return DiagnosticFailurePrefix + err.Error()
	}
	doc.Url = resp.Request.URL

	doc.Find(strippedElements).Remove()

	text, strategy, ok := Apply(doc, e.strategies)
	if !ok {
		e.log.Debug("No extraction strategy matched", logger.URL(rawURL))
		e.metrics.ArticleFetched(metrics.OutcomeIncomplete)
		return DiagnosticIncomplete
	}

	e.log.Debug("Article extracted",
		logger.URL(rawURL),
		logger.String("strategy", strategy),
		logger.Int("length", len([]rune(text))),
	)
	e.metrics.ArticleFetched(metrics.OutcomeOK)
	return text
}
