package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/dateparse"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/textutil"
)

// DefaultBaseURL completes root-relative result links.
const DefaultBaseURL = "https://news.sina.com.cn"

var (
	// ContainerSelectors are the result container classes, tried until one matches.
	ContainerSelectors = []string{".box-result", ".result", ".search-result-item", ".news-item"}

	titleSelectors = []string{"h2 a", `a[target="_blank"]`, "a"}
	// labelSelectors locate the "<source> <time>" label; .source alone carries
	// no time and is not consulted.
	labelSelectors = []string{".time", ".fgray_time"}
)

// ParseOptions controls candidate construction.
type ParseOptions struct {
	// BaseURL prefixes links starting with "/".
	BaseURL string
	// Now anchors relative time phrases.
	Now time.Time
}

// ParsedPage is the outcome of parsing one results page.
type ParsedPage struct {
	// Containers is the number of result blocks found, valid or not.
	Containers int
	// Items are the candidates that carried both a title and a URL.
	Items []domain.NewsItem
}

// ParseResults extracts news candidates from a results page. Blocks without a
// title or URL are dropped; a block that fails to parse is logged and skipped.
func ParseResults(doc *goquery.Document, opts ParseOptions, log logger.Logger) ParsedPage {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var blocks *goquery.Selection
	for _, sel := range ContainerSelectors {
		blocks = doc.Find(sel)
		if blocks.Length() > 0 {
			break
		}
	}

	page := ParsedPage{Containers: blocks.Length()}
	blocks.Each(func(i int, block *goquery.Selection) {
		item, err := parseBlock(block, opts)
		if err != nil {
			log.Warn("Failed to parse search result", logger.Int("index", i), logger.Error(err))
			return
		}
		if !item.Valid() {
			log.Debug("Search result missing title or URL", logger.Int("index", i))
			return
		}
		page.Items = append(page.Items, item)
	})

	return page
}

func parseBlock(block *goquery.Selection, opts ParseOptions) (item domain.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse result block: %v", r)
		}
	}()

	anchor := firstMatch(block, titleSelectors)
	if anchor == nil {
		return domain.NewsItem{}, nil
	}

	href, _ := anchor.Attr("href")
	item.Title = textutil.Clean(anchor.Text())
	item.URL = CompleteURL(strings.TrimSpace(href), opts.BaseURL)

	item.Source = domain.DefaultSource
	if label := firstMatch(block, labelSelectors); label != nil {
		text := textutil.Clean(label.Text())
		if text != "" {
			item.Source = dateparse.ExtractSource(text)
			item.PublishedAt = dateparse.ParseTime(text, opts.Now)
		}
	}

	return item, nil
}

func firstMatch(block *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if m := block.Find(sel).First(); m.Length() > 0 {
			return m
		}
	}
	return nil
}

// CompleteURL makes scheme-relative and root-relative links absolute.
func CompleteURL(href, baseURL string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(baseURL, "/") + href
	default:
		return href
	}
}
