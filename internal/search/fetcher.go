// Package search drives paginated queries against the news search endpoint and
// turns result pages into news items.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/httpclient"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/metrics"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/retry"
)

// ContentExtractor returns article text, or a diagnostic, for a URL.
type ContentExtractor interface {
	Extract(ctx context.Context, rawURL string) string
}

// LinkResolver resolves indirect redirect links.
type LinkResolver interface {
	IsRedirectHost(rawURL string) bool
	Resolve(ctx context.Context, rawURL string) (string, bool)
}

// StatusError reports a non-success response from the search endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search endpoint returned status %d", e.StatusCode)
}

// Fetcher runs the page loop for a single search term.
type Fetcher struct {
	cfg       Config
	client    *resty.Client
	headers   *httpclient.Client
	pacer     *httpclient.Pacer
	extractor ContentExtractor
	resolver  LinkResolver
	log       logger.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithClock sets the time source used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a Fetcher. resolver and rec may be nil.
func NewFetcher(
	cfg Config,
	pacer *httpclient.Pacer,
	extractor ContentExtractor,
	resolver LinkResolver,
	log logger.Logger,
	rec *metrics.Recorder,
	opts ...Option,
) *Fetcher {
	cfg = cfg.withDefaults()
	if pacer == nil {
		pacer = httpclient.NewPacer(httpclient.DefaultMinDelay, httpclient.DefaultMaxDelay)
	}

	hc := httpclient.New(httpclient.Config{
		Timeout:    cfg.Timeout,
		UserAgents: cfg.UserAgents,
		Referer:    cfg.Referer,
		Transport:  cfg.Transport,
	})

	f := &Fetcher{
		cfg:       cfg,
		client:    resty.NewWithClient(hc.HTTPClient()),
		headers:   hc,
		pacer:     pacer,
		extractor: extractor,
		resolver:  resolver,
		log:       log,
		metrics:   rec,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxPages returns min(configured max pages, ceil(maxResults/page size)).
func (f *Fetcher) MaxPages(maxResults int) int {
	pages := (maxResults + f.cfg.PageSize - 1) / f.cfg.PageSize
	return min(f.cfg.MaxPages, pages)
}

// Fetch collects up to maxResults items for term inside window. Failures end
// pagination early and whatever was collected is returned.
func (f *Fetcher) Fetch(ctx context.Context, term string, window domain.DateWindow, maxResults int) []domain.NewsItem {
	log := logger.FromContextOr(ctx, f.log).With(logger.Term(term))
	if maxResults <= 0 {
		return nil
	}

	maxPages := f.MaxPages(maxResults)
	var items []domain.NewsItem

	for page := 1; page <= maxPages && len(items) < maxResults; {
		query := domain.SearchQuery{
			Term:     term,
			Channel:  f.cfg.Channel,
			Start:    window.Start,
			End:      window.End,
			Page:     page,
			PageSize: min(f.cfg.PageSize, maxResults-len(items)),
		}

		doc, err := f.fetchPage(ctx, query, log)
		if err != nil {
			log.Error("Search request failed, keeping partial results",
				logger.Page(page),
				logger.Int("collected", len(items)),
				logger.Error(err),
			)
			break
		}

		parsed := ParseResults(doc, ParseOptions{BaseURL: f.cfg.BaseURL, Now: f.now()}, log)
		f.metrics.PageParsed(parsed.Containers)
		log.Info("Parsed search results page",
			logger.Page(page),
			logger.Int("containers", parsed.Containers),
			logger.Int("candidates", len(parsed.Items)),
		)
		if parsed.Containers == 0 {
			log.Info("No more results", logger.Page(page))
			break
		}

		appended := f.enrich(ctx, term, parsed.Items, log)
		items = append(items, appended...)
		if len(appended) == 0 {
			log.Info("Page yielded no valid items, stopping", logger.Page(page))
			break
		}

		page++
		if page <= maxPages && len(items) < maxResults {
			if err := f.pacer.Wait(ctx); err != nil {
				log.Warn("Pagination interrupted", logger.Error(err))
				break
			}
		}
	}

	filtered := FilterByWindow(items, window)
	if dropped := len(items) - len(filtered); dropped > 0 {
		log.Info("Dropped items outside date window", logger.Int("dropped", dropped))
	}
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	return filtered
}

func (f *Fetcher) fetchPage(ctx context.Context, q domain.SearchQuery, log logger.Logger) (*goquery.Document, error) {
	cfg := f.cfg.Retry
	cfg.IsRetryable = retry.IsConnectionError
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		f.metrics.SearchRetry()
		log.Warn("Search request failed, retrying",
			logger.Page(q.Page),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", delay),
			logger.Error(err),
		)
	}

	var body []byte
	err := retry.Retry(ctx, cfg, func() error {
		log.Debug("Requesting search page", logger.Page(q.Page), logger.Int("num", q.PageSize))

		resp, err := f.client.R().
			SetContext(ctx).
			SetHeaders(f.headers.Headers()).
			SetQueryParams(f.queryParams(q)).
			Get(f.cfg.Endpoint)
		if err != nil {
			f.metrics.SearchRequest(requestOutcome(err))
			return err
		}
		if !resp.IsSuccess() {
			f.metrics.SearchRequest(metrics.OutcomeHTTPError)
			return &StatusError{StatusCode: resp.StatusCode()}
		}

		f.metrics.SearchRequest(metrics.OutcomeOK)
		body = resp.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ToValidUTF8(string(body), "\uFFFD")))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) queryParams(q domain.SearchQuery) map[string]string {
	return map[string]string{
		"q":     q.Term,
		"c":     q.Channel,
		"range": "all",
		"time":  "custom",
		"stime": q.Start.Format(domain.DateLayout),
		"etime": q.End.Format(domain.DateLayout),
		"num":   strconv.Itoa(q.PageSize),
		"sort":  "time",
		"col":   f.cfg.Column,
		"page":  strconv.Itoa(q.Page),
	}
}

func requestOutcome(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCancelled
	case retry.IsConnectionError(err):
		return metrics.OutcomeConnectionError
	default:
		return metrics.OutcomeError
	}
}

// enrich resolves links and fetches content for one page of candidates on a
// bounded pool. Output keeps candidate order.
func (f *Fetcher) enrich(ctx context.Context, term string, candidates []domain.NewsItem, log logger.Logger) []domain.NewsItem {
	if len(candidates) == 0 {
		return nil
	}

	results := make([]domain.NewsItem, len(candidates))
	kept := make([]bool, len(candidates))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range min(f.cfg.Workers, len(candidates)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], kept[i] = f.enrichOne(ctx, term, candidates[i], log)
			}
		}()
	}

	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := make([]domain.NewsItem, 0, len(candidates))
	for i, ok := range kept {
		if ok {
			out = append(out, results[i])
		}
	}
	return out
}

func (f *Fetcher) enrichOne(ctx context.Context, term string, item domain.NewsItem, log logger.Logger) (_ domain.NewsItem, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Failed to enrich search result", logger.URL(item.URL), logger.Any("panic", r))
			ok = false
		}
	}()

	if f.resolver != nil && f.resolver.IsRedirectHost(item.URL) {
		if resolved, found := f.resolver.Resolve(ctx, item.URL); found {
			item.URL = resolved
		}
	}

	if f.extractor != nil {
		item.Content = f.extractor.Extract(ctx, item.URL)
	}
	item.SearchTerm = term

	log.Debug("Collected news item",
		logger.String("title", item.Title),
		logger.URL(item.URL),
		logger.String("date", item.DateString()),
		logger.Int("content_length", len([]rune(item.Content))),
	)
	return item, item.Valid()
}
