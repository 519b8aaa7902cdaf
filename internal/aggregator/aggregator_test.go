package aggregator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/httpclient"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

var aggNow = time.Date(2025, 11, 20, 12, 0, 0, 0, time.Local)

func dated(title, url string, day, hour int) domain.NewsItem {
	t := time.Date(2025, 11, day, hour, 0, 0, 0, time.Local)
	return domain.NewsItem{Title: title, URL: url, PublishedAt: &t, Source: "s", Content: "c"}
}

type fetchCall struct {
	term       string
	window     domain.DateWindow
	maxResults int
}

type fakeFetcher struct {
	mu      sync.Mutex
	byTerm  map[string][]domain.NewsItem
	calls   []fetchCall
	onFetch func(term string)
}

func (f *fakeFetcher) Fetch(_ context.Context, term string, window domain.DateWindow, maxResults int) []domain.NewsItem {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{term, window, maxResults})
	f.mu.Unlock()
	if f.onFetch != nil {
		f.onFetch(term)
	}
	items := f.byTerm[term]
	for i := range items {
		items[i].SearchTerm = term
	}
	return items
}

func newAggregator(f aggregator.TermFetcher, cfg aggregator.Config) *aggregator.Aggregator {
	return aggregator.New(cfg, f, httpclient.NoDelay(), logger.NewNop(), nil,
		aggregator.WithClock(func() time.Time { return aggNow }))
}

func TestRun_InvalidArguments(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	a := newAggregator(f, aggregator.Config{})

	tests := []aggregator.Request{
		{Company: "", Industry: "", Days: 1, MaxResults: 5},
		{Company: "  ", Industry: "\t", Days: 1, MaxResults: 5},
		{Company: "ACME", Days: -1, MaxResults: 5},
		{Company: "ACME", Days: 1, MaxResults: 0},
	}
	for _, req := range tests {
		res, err := a.Run(context.Background(), req)
		assert.True(t, errors.Is(err, aggregator.ErrInvalidArgument), "request %+v: err = %v", req, err)
		assert.Nil(t, res)
	}
	assert.Empty(t, f.calls, "no fetch may happen for invalid requests")
}

func TestRun_TermsAndWindow(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	a := newAggregator(f, aggregator.Config{})

	res, err := a.Run(context.Background(), aggregator.Request{Company: "ACME", Industry: "新能源", Days: 3, MaxResults: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"ACME", "新能源"}, res.Terms)
	assert.NotEmpty(t, res.CrawlID)
	require.Len(t, f.calls, 2)
	assert.Equal(t, "ACME", f.calls[0].term)
	assert.Equal(t, "新能源", f.calls[1].term)
	assert.Equal(t, aggregator.DefaultPerTermMaxResults, f.calls[0].maxResults)
	assert.Equal(t, aggNow.AddDate(0, 0, -3), f.calls[0].window.Start)
	assert.Equal(t, aggNow, f.calls[0].window.End)
}

func TestRun_DedupFirstSeenAcrossTerms(t *testing.T) {
	t.Parallel()

	first := dated("same", "https://a.com/1", 20, 9)
	first.Content = "from company"
	second := dated("same", "https://a.com/1", 19, 9)
	second.Content = "from industry"

	f := &fakeFetcher{byTerm: map[string][]domain.NewsItem{
		"ACME": {first},
		"新能源":  {second, dated("other", "https://a.com/2", 18, 9)},
	}}
	a := newAggregator(f, aggregator.Config{})

	res, err := a.Run(context.Background(), aggregator.Request{Company: "ACME", Industry: "新能源", Days: 7, MaxResults: 10})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "from company", res.Items[0].Content)
	assert.Equal(t, "ACME", res.Items[0].SearchTerm)
	assert.Equal(t, "other", res.Items[1].Title)
}

func TestRun_SoftCapSkipsRemainingTerms(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{byTerm: map[string][]domain.NewsItem{
		"ACME": {
			dated("a", "u1", 20, 1), dated("b", "u2", 20, 2),
			dated("c", "u3", 20, 3), dated("d", "u4", 20, 4),
		},
		"新能源": {dated("e", "u5", 20, 5)},
	}}
	a := newAggregator(f, aggregator.Config{})

	res, err := a.Run(context.Background(), aggregator.Request{Company: "ACME", Industry: "新能源", Days: 1, MaxResults: 2})
	require.NoError(t, err)

	assert.Len(t, f.calls, 1, "4 items reach the 2x soft cap after the first term")
	require.Len(t, res.Items, 2)
	assert.Equal(t, "d", res.Items[0].Title)
	assert.Equal(t, "c", res.Items[1].Title)
}

func TestRun_CustomSoftCapFactor(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{byTerm: map[string][]domain.NewsItem{
		"ACME": {dated("a", "u1", 20, 1), dated("b", "u2", 20, 2)},
		"新能源":  {dated("c", "u3", 20, 3)},
	}}
	a := newAggregator(f, aggregator.Config{SoftCapFactor: 3, PerTermMaxResults: 7})

	res, err := a.Run(context.Background(), aggregator.Request{Company: "ACME", Industry: "新能源", Days: 1, MaxResults: 1})
	require.NoError(t, err)

	assert.Len(t, f.calls, 2)
	assert.Equal(t, 7, f.calls[0].maxResults)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "c", res.Items[0].Title)
}

func TestRun_CancellationReturnsPartial(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeFetcher{
		byTerm:  map[string][]domain.NewsItem{"ACME": {dated("a", "u1", 20, 1)}},
		onFetch: func(string) { cancel() },
	}
	a := newAggregator(f, aggregator.Config{})

	res, err := a.Run(ctx, aggregator.Request{Company: "ACME", Industry: "新能源", Days: 1, MaxResults: 5})
	require.NoError(t, err)

	assert.Len(t, f.calls, 1)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "a", res.Items[0].Title)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{}
	res, err := newAggregator(f, aggregator.Config{}).Run(ctx, aggregator.Request{Company: "ACME", Days: 1, MaxResults: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Empty(t, f.calls)
}

func TestDedup(t *testing.T) {
	t.Parallel()

	a := domain.NewsItem{Title: "t", URL: "u", Source: "first"}
	b := domain.NewsItem{Title: "t", URL: "u", Source: "second", Content: "different"}
	c := domain.NewsItem{Title: "t", URL: "other"}

	got := aggregator.Dedup([]domain.NewsItem{a, b, c})
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Source)
	assert.Equal(t, "other", got[1].URL)
}

func TestSortByDate_UndatedLast(t *testing.T) {
	t.Parallel()

	undated := domain.NewsItem{Title: "U", URL: "u"}
	d1 := dated("D1", "1", 20, 10)
	d2 := dated("D2", "2", 19, 10)
	d3 := dated("D3", "3", 18, 10)

	items := []domain.NewsItem{d3, undated, d1, d2}
	aggregator.SortByDate(items)

	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"D1", "D2", "D3", "U"}, titles)
}

func TestSortByDate_StableForTies(t *testing.T) {
	t.Parallel()

	items := []domain.NewsItem{
		{Title: "u1", URL: "1"},
		dated("x", "x", 20, 10),
		{Title: "u2", URL: "2"},
		dated("y", "y", 20, 10),
	}
	aggregator.SortByDate(items)

	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"x", "y", "u1", "u2"}, titles)
}

func TestMerge_Truncates(t *testing.T) {
	t.Parallel()

	items := []domain.NewsItem{dated("a", "1", 18, 1), dated("b", "2", 20, 1), dated("c", "3", 19, 1)}
	got := aggregator.Merge(items, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Title)
	assert.Equal(t, "c", got[1].Title)
}
