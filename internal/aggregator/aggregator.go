// Package aggregator runs the per-term fetcher for every requested search term
// and merges the results into one ranked, bounded list.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/httpclient"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/metrics"
)

// ErrInvalidArgument is the only error a crawl surfaces to its caller.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	// DefaultPerTermMaxResults caps how many items one term may contribute.
	DefaultPerTermMaxResults = 50
	// DefaultSoftCapFactor stops the term loop once factor × maxResults items are held.
	DefaultSoftCapFactor = 2
)

// TermFetcher collects news for a single term.
type TermFetcher interface {
	Fetch(ctx context.Context, term string, window domain.DateWindow, maxResults int) []domain.NewsItem
}

// Request is one top-level crawl.
type Request struct {
	Company    string
	Industry   string
	Days       int
	MaxResults int
}

// Terms returns the non-empty search terms, company first.
func (r Request) Terms() []string {
	var terms []string
	for _, t := range []string{r.Company, r.Industry} {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Validate checks the request bounds.
func (r Request) Validate() error {
	if len(r.Terms()) == 0 {
		return fmt.Errorf("%w: company or industry is required", ErrInvalidArgument)
	}
	if r.Days < 0 {
		return fmt.Errorf("%w: days must be >= 0, got %d", ErrInvalidArgument, r.Days)
	}
	if r.MaxResults <= 0 {
		return fmt.Errorf("%w: max_results must be > 0, got %d", ErrInvalidArgument, r.MaxResults)
	}
	return nil
}

// Result is the outcome of one crawl.
type Result struct {
	CrawlID   string
	Terms     []string
	StartedAt time.Time
	Duration  time.Duration
	Items     []domain.NewsItem
}

// Config tunes aggregation.
type Config struct {
	PerTermMaxResults int
	SoftCapFactor     int
}

// Aggregator owns no state between runs; every Run builds its own.
type Aggregator struct {
	cfg     Config
	fetcher TermFetcher
	pacer   *httpclient.Pacer
	log     logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
	newID   func() string
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source used for the date window.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an Aggregator. rec may be nil.
func New(cfg Config, fetcher TermFetcher, pacer *httpclient.Pacer, log logger.Logger, rec *metrics.Recorder, opts ...Option) *Aggregator {
	if cfg.PerTermMaxResults <= 0 {
		cfg.PerTermMaxResults = DefaultPerTermMaxResults
	}
	if cfg.SoftCapFactor <= 0 {
		cfg.SoftCapFactor = DefaultSoftCapFactor
	}
	if pacer == nil {
		pacer = httpclient.NewPacer(httpclient.DefaultMinDelay, httpclient.DefaultMaxDelay)
	}

	a := &Aggregator{
		cfg:     cfg,
		fetcher: fetcher,
		pacer:   pacer,
		log:     log,
		metrics: rec,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run crawls every term serially and returns the merged items. Cancellation
// returns what was gathered so far; only an invalid request is an error.
func (a *Aggregator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		CrawlID:   a.newID(),
		Terms:     req.Terms(),
		StartedAt: a.now(),
	}
	log := a.log.With(logger.CrawlID(res.CrawlID))
	ctx = logger.WithContext(ctx, log)

	window := domain.WindowForDays(res.StartedAt, req.Days)
	softCap := a.cfg.SoftCapFactor * req.MaxResults

	log.Info("Crawl started",
		logger.Strings("terms", res.Terms),
		logger.Int("days", req.Days),
		logger.Int("max_results", req.MaxResults),
	)

	var collected []domain.NewsItem
	for _, term := range res.Terms {
		if err := a.pacer.Wait(ctx); err != nil {
			log.Warn("Crawl interrupted before term", logger.Term(term), logger.Error(err))
			break
		}

		items := a.fetcher.Fetch(ctx, term, window, a.cfg.PerTermMaxResults)
		collected = append(collected, items...)
		log.Info("Term finished", logger.Term(term), logger.Int("items", len(items)))

		if ctx.Err() != nil {
			log.Warn("Crawl cancelled, returning partial results", logger.Error(ctx.Err()))
			break
		}
		if len(collected) >= softCap {
			log.Info("Soft cap reached", logger.Int("collected", len(collected)), logger.Int("soft_cap", softCap))
			break
		}
	}

	res.Items = Merge(collected, req.MaxResults)
	res.Duration = a.now().Sub(res.StartedAt)
	a.metrics.CrawlFinished(res.Duration, len(res.Items))

	log.Info("Crawl finished",
		logger.Int("collected", len(collected)),
		logger.Int("returned", len(res.Items)),
		logger.Duration("duration", res.Duration),
	)
	return res, nil
}

// Merge deduplicates, orders newest first and truncates to maxResults.
func Merge(items []domain.NewsItem, maxResults int) []domain.NewsItem {
	out := Dedup(items)
	SortByDate(out)
	if maxResults >= 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// Dedup keeps the first item for each (title, url) pair.
func Dedup(items []domain.NewsItem) []domain.NewsItem {
	seen := make(map[domain.ItemKey]struct{}, len(items))
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Key()]; ok {
			continue
		}
		seen[item.Key()] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SortByDate orders items newest first; undated items sink to the end.
// Ties keep their input order.
func SortByDate(items []domain.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
