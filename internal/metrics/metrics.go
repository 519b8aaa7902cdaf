// Package metrics records crawl metrics in Prometheus form.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricsNamespace is the namespace for all news fetcher metrics.
	MetricsNamespace = "news_fetcher"

	// Outcome labels.
	OutcomeOK              = "ok"
	OutcomeHTTPError       = "http_error"
	OutcomeConnectionError = "connection_error"
	OutcomeCancelled       = "cancelled"
	OutcomeError           = "error"
	OutcomeIncomplete      = "incomplete"
)

// Recorder holds the crawl metrics. All methods are safe on a nil *Recorder,
// so components can be built without metrics.
type Recorder struct {
	registry *prometheus.Registry

	searchRequests  *prometheus.CounterVec
	searchRetries   prometheus.Counter
	pagesParsed     prometheus.Counter
	candidatesFound prometheus.Counter
	articles        *prometheus.CounterVec
	redirects       *prometheus.CounterVec
	itemsReturned   prometheus.Counter
	crawlDuration   prometheus.Histogram
}

// New creates a Recorder on its own registry, with Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		searchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search endpoint requests by outcome",
		}, []string{"outcome"}),
		searchRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "search",
			Name:      "retries_total",
			Help:      "Search requests retried after a connection failure",
		}),
		pagesParsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "search",
			Name:      "pages_parsed_total",
			Help:      "Result pages parsed",
		}),
		candidatesFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "search",
			Name:      "candidates_total",
			Help:      "Result candidates found on parsed pages",
		}),
		articles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "content",
			Name:      "articles_total",
			Help:      "Article fetches by outcome",
		}, []string{"outcome"}),
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "content",
			Name:      "redirects_total",
			Help:      "Redirect link resolutions by result",
		}, []string{"resolved"}),
		itemsReturned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "items_returned_total",
			Help:      "News items returned to callers",
		}),
		crawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "crawl_duration_seconds",
			Help:      "Duration of a full multi-term crawl",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) SearchRequest(outcome string) {
	if r == nil {
		return
	}
	r.searchRequests.WithLabelValues(outcome).Inc()
}

func (r *Recorder) SearchRetry() {
	if r == nil {
		return
	}
	r.searchRetries.Inc()
}

// PageParsed records one parsed result page and its candidate count.
func (r *Recorder) PageParsed(candidates int) {
	if r == nil {
		return
	}
	r.pagesParsed.Inc()
	r.candidatesFound.Add(float64(candidates))
}

func (r *Recorder) ArticleFetched(outcome string) {
	if r == nil {
		return
	}
	r.articles.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RedirectResolved(ok bool) {
	if r == nil {
		return
	}
	label := "false"
	if ok {
		label = "true"
	}
	r.redirects.WithLabelValues(label).Inc()
}

// CrawlFinished records a completed crawl and the number of items it returned.
func (r *Recorder) CrawlFinished(d time.Duration, items int) {
	if r == nil {
		return
	}
	r.crawlDuration.Observe(d.Seconds())
	r.itemsReturned.Add(float64(items))
}
