package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/api"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeFetcher struct {
	args     aggregator.FetchNewsArgs
	deadline bool
	err      error
}

func (f *fakeFetcher) FetchNews(ctx context.Context, args aggregator.FetchNewsArgs) (domain.LabeledItems, error) {
	f.args = args
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	if err := args.Request().Validate(); err != nil {
		return nil, err
	}
	return domain.LabeledItems{
		{Source: "新浪财经", Title: "t1", URL: "https://a.com/1", Content: "c1", SearchTerm: args.Company},
	}, nil
}

func newRouter(t *testing.T, f api.NewsFetcher, timeout time.Duration) *gin.Engine {
	t.Helper()

	log := logger.NewNop()
	router := gin.New()
	router.Use(api.RecoveryMiddleware(log), api.RequestIDMiddleware(log))
	api.SetupRoutes(router, api.NewHandler(f, "test", log), metrics.New(), timeout)
	return router
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := get(newRouter(t, &fakeFetcher{}, 0), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	w := get(newRouter(t, &fakeFetcher{}, 0), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestFetchNews_OK(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	w := get(newRouter(t, f, time.Minute), "/api/v1/news?company=ACME&days=3&max_results=10")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "t1", body["item-1"]["title"])
	assert.Equal(t, "ACME", body["item-1"]["search_term"])

	require.NotNil(t, f.args.Days)
	require.NotNil(t, f.args.MaxResults)
	assert.Equal(t, 3, *f.args.Days)
	assert.Equal(t, 10, *f.args.MaxResults)
	assert.True(t, f.deadline, "request timeout should bound the crawl")
}

func TestFetchNews_DefaultsWhenOmitted(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	w := get(newRouter(t, f, 0), "/api/v1/news?industry=banking")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.args.Days)
	assert.Nil(t, f.args.MaxResults)
	assert.False(t, f.deadline)
}

func TestFetchNews_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
	}{
		{name: "no terms", target: "/api/v1/news"},
		{name: "non-numeric days", target: "/api/v1/news?company=ACME&days=x"},
		{name: "negative days", target: "/api/v1/news?company=ACME&days=-1"},
		{name: "zero max_results", target: "/api/v1/news?company=ACME&max_results=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := get(newRouter(t, &fakeFetcher{}, 0), tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), `"error"`))
		})
	}
}

func TestFetchNews_Failures(t *testing.T) {
	t.Parallel()

	w := get(newRouter(t, &fakeFetcher{err: context.DeadlineExceeded}, 0), "/api/v1/news?company=ACME")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	w = get(newRouter(t, &fakeFetcher{err: context.Canceled}, 0), "/api/v1/news?company=ACME")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDPreserved(t *testing.T) {
	t.Parallel()

	router := newRouter(t, &fakeFetcher{}, 0)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-ID", "upstream-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-1", w.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(api.RecoveryMiddleware(logger.NewNop()))
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := get(router, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
