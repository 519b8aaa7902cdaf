package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/textutil"
)

// DefaultSelectors lists the article containers of common Chinese news layouts,
// most specific first.
var DefaultSelectors = []string{
	"article",
	".article-content",
	".content",
	".main-content",
	".article-main",
	".text",
	"#artibody",
	"div.article",
	"div#article",
	"div.content-wrapper",
	".article-body",
	".article-detail",
	".article-txt",
}

// Strategy extracts text from a parsed page. It reports false when it found nothing.
type Strategy struct {
	Name string
	Func func(*goquery.Document) (string, bool)
}

// Selector matches the first element for sel and returns its normalized text.
func Selector(sel string) Strategy {
	return Strategy{
		Name: sel,
		Func: func(doc *goquery.Document) (string, bool) {
			return selectionText(doc.Find(sel).First())
		},
	}
}

// Body returns the normalized text of the whole body.
func Body() Strategy {
	return Strategy{
		Name: "body",
		Func: func(doc *goquery.Document) (string, bool) {
			return selectionText(doc.Find("body").First())
		},
	}
}

// Readability runs go-readability over the document and returns its text content.
func Readability() Strategy {
	return Strategy{
		Name: "readability",
		Func: func(doc *goquery.Document) (string, bool) {
			markup, err := doc.Html()
			if err != nil || strings.TrimSpace(markup) == "" {
				return "", false
			}

			pageURL := doc.Url
			if pageURL == nil {
				pageURL = &url.URL{}
			}

			article, err := readability.FromReader(strings.NewReader(markup), pageURL)
			if err != nil {
				return "", false
			}

			text := textutil.Clean(article.TextContent)
			return text, text != ""
		},
	}
}

// Apply evaluates strategies in order and returns the first hit along with the
// strategy name. A strategy that panics counts as a miss.
func Apply(doc *goquery.Document, strategies []Strategy) (text, name string, ok bool) {
	for _, s := range strategies {
		if text, ok := s.run(doc); ok {
			return text, s.Name, true
		}
	}
	return "", "", false
}

func (s Strategy) run(doc *goquery.Document) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()
	return s.Func(doc)
}

// selectionText joins the selection's text nodes with spaces so adjacent block
// elements do not run together, then normalizes the result.
func selectionText(sel *goquery.Selection) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}

	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}

	text := textutil.Clean(strings.Join(parts, " "))
	return text, text != ""
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
