// Package textutil normalizes text pulled out of third-party markup.
package textutil

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

var specialSpaces = strings.NewReplacer(
	"\u3000", " ", // ideographic space
	"\u00a0", " ", // no-break space
)

// Clean strips markup tags, maps special spaces to ordinary ones and collapses
// all whitespace runs into a single space. The result is trimmed and single-line.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = tagPattern.ReplaceAllString(text, "")
	text = specialSpaces.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
