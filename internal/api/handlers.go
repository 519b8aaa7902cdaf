package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

// NewsFetcher runs one crawl for the news endpoint.
type NewsFetcher interface {
	FetchNews(ctx context.Context, args aggregator.FetchNewsArgs) (domain.LabeledItems, error)
}

// Handler serves the news API.
type Handler struct {
	fetcher NewsFetcher
	version string
	log     logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(fetcher NewsFetcher, version string, log logger.Logger) *Handler {
	return &Handler{fetcher: fetcher, version: version, log: log}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": ServiceName,
		"version": h.version,
	})
}

// FetchNews handles GET /api/v1/news.
func (h *Handler) FetchNews(c *gin.Context) {
	args := aggregator.FetchNewsArgs{
		Company:  c.Query("company"),
		Industry: c.Query("industry"),
	}

	var err error
	if args.Days, err = optionalInt(c, "days"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if args.MaxResults, err = optionalInt(c, "max_results"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.fetcher.FetchNews(c.Request.Context(), args)
	if err != nil {
		switch {
		case errors.Is(err, aggregator.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, context.DeadlineExceeded):
			_ = c.Error(err)
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "crawl timed out"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "crawl failed"})
		}
		return
	}

	logger.FromContextOr(c.Request.Context(), h.log).Debug("News served",
		logger.Int("items", len(items)),
	)
	c.JSON(http.StatusOK, items)
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil //nolint:nilnil // absent parameter falls back to tool defaults
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New(key + " must be an integer")
	}
	return &n, nil
}
