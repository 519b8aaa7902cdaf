package aggregator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/extractor"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/httpclient"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/redirect"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/search"
)

func TestDecodeArgs(t *testing.T) {
	t.Parallel()

	args, err := aggregator.DecodeArgs(map[string]any{
		"company":     "ACME",
		"days":        float64(3),
		"max_results": "7",
	})
	require.NoError(t, err)

	req := args.Request()
	assert.Equal(t, "ACME", req.Company)
	assert.Equal(t, 3, req.Days)
	assert.Equal(t, 7, req.MaxResults)
}

func TestDecodeArgs_Defaults(t *testing.T) {
	t.Parallel()

	args, err := aggregator.DecodeArgs(map[string]any{"industry": "银行"})
	require.NoError(t, err)

	req := args.Request()
	assert.Equal(t, aggregator.DefaultDays, req.Days)
	assert.Equal(t, aggregator.DefaultMaxResults, req.MaxResults)
}

func TestDecodeArgs_BadType(t *testing.T) {
	t.Parallel()

	_, err := aggregator.DecodeArgs(map[string]any{"company": "ACME", "days": "three"})
	assert.True(t, errors.Is(err, aggregator.ErrInvalidArgument), "err = %v", err)
}

func TestFetchNews_InvalidArgumentNoPartialResult(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	a := newAggregator(f, aggregator.Config{})

	days, maxResults := 1, 5
	got, err := a.FetchNews(context.Background(), aggregator.FetchNewsArgs{Days: &days, MaxResults: &maxResults})

	assert.True(t, errors.Is(err, aggregator.ErrInvalidArgument))
	assert.Nil(t, got)
	assert.Empty(t, f.calls)
}

// fixtureSite serves two result pages of three blocks each (one without a
// link) plus the article pages they point at.
func fixtureSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var base string

	block := func(n int, label string) string {
		return fmt.Sprintf(`<div class="box-result"><h2><a href="%s/article/%d" target="_blank">ACME 新闻 %d</a></h2>
<span class="fgray_time">%s</span></div>`, base, n, n, label)
	}

	mux.HandleFunc("/s", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		var body string
		switch r.URL.Query().Get("page") {
		case "1":
			body = block(1, "新浪财经 2025-11-19 08:00") +
				`<div class="box-result"><h2><a target="_blank">没有链接</a></h2><span class="fgray_time">新浪财经 1小时前</span></div>` +
				block(2, "证券时报 2小时前")
		case "2":
			body = block(3, "中国证券网 2025-11-20 09:30:15") +
				block(4, "大众证券报 2025-11-19 23:59") +
				block(5, "第一财经 30分钟前")
		}
		_, _ = w.Write([]byte("<html><body>" + body + "</body></html>"))
	})
	mux.HandleFunc("/article/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `<html><body><nav>导航</nav><div id="artibody"><p>正文 %s</p></div></body></html>`, r.URL.Path)
	})

	srv := httptest.NewServer(mux)
	base = srv.URL
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchNews_EndToEnd(t *testing.T) {
	t.Parallel()

	srv := fixtureSite(t)
	log := logger.NewNop()
	pacer := httpclient.NoDelay()
	clock := func() time.Time { return aggNow }

	resolver := redirect.New(redirect.Config{}, log, nil)
	ex := extractor.New(extractor.Config{}, pacer, resolver, log, nil)
	fetcher := search.NewFetcher(search.Config{Endpoint: srv.URL + "/s"}, pacer, ex, resolver, log, nil, search.WithClock(clock))
	agg := aggregator.New(aggregator.Config{}, fetcher, pacer, log, nil, aggregator.WithClock(clock))

	days, maxResults := 1, 5
	got, err := agg.FetchNews(context.Background(), aggregator.FetchNewsArgs{
		Company:    "ACME",
		Industry:   "",
		Days:       &days,
		MaxResults: &maxResults,
	})
	require.NoError(t, err)
	require.Len(t, got, 5)

	var titles []string
	for _, item := range got {
		titles = append(titles, item.Title)
		assert.NotEmpty(t, item.Source)
		assert.NotEmpty(t, item.URL)
		assert.NotNil(t, item.PublishedAt)
		assert.True(t, strings.HasPrefix(item.Content, "正文 /article/"), item.Content)
		assert.Equal(t, "ACME", item.SearchTerm)
		assert.NotContains(t, item.Content, "导航")
	}
	// 11:30, 10:00, 09:30:15 on the 20th, then 23:59 and 08:00 on the 19th
	assert.Equal(t, []string{"ACME 新闻 5", "ACME 新闻 2", "ACME 新闻 3", "ACME 新闻 4", "ACME 新闻 1"}, titles)

	data, err := json.Marshal(got)
	require.NoError(t, err)

	var decoded map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 5)
	first := decoded["item-1"]
	for _, field := range []string{"source", "title", "url", "date", "content", "search_term"} {
		assert.NotEmpty(t, first[field], "item-1.%s", field)
	}
	assert.Equal(t, "第一财经", first["source"])
	assert.Equal(t, "2025-11-20 11:30:00", first["date"])
	assert.True(t, strings.Index(string(data), `"item-1"`) < strings.Index(string(data), `"item-5"`))
}
