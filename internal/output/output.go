// Package output renders crawl results for the command line.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
)

// Supported formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

const (
	// DefaultTableWidth caps the rendered table width.
	DefaultTableWidth = 160
	// DefaultPreviewLength is how many runes of content the table shows.
	DefaultPreviewLength = 80
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatTable}
}

// Write renders items to w in the given format.
func Write(w io.Writer, format string, items domain.LabeledItems) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return writeJSON(w, items)
	case FormatYAML, "yml":
		return writeYAML(w, items)
	case FormatTable:
		writeTable(w, items)
		return nil
	default:
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

func writeJSON(w io.Writer, items domain.LabeledItems) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, items domain.LabeledItems) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeTable(w io.Writer, items domain.LabeledItems) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Options.SeparateRows = true

	const (
		labelColumn   = 1
		dateColumn    = 3
		titleColumn   = 4
		contentColumn = 5
		titleRatio    = 4
		contentRatio  = 3
	)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: labelColumn, Align: text.AlignRight},
		{Number: dateColumn, WidthMin: len("2006-01-02 15:04:05")},
		{Number: titleColumn, WidthMax: DefaultTableWidth / titleRatio},
		{Number: contentColumn, WidthMax: DefaultTableWidth / contentRatio},
	})
	t.AppendHeader(table.Row{"#", "Source", "Date", "Title", "Content Preview"})

	for i, item := range items {
		t.AppendRow(table.Row{
			domain.Label(i),
			item.Source,
			item.DateString(),
			item.Title,
			Preview(item.Content, DefaultPreviewLength),
		})
	}

	t.AppendFooter(table.Row{"Total", len(items)})
	t.Render()
}

// Preview flattens whitespace and truncates s to n runes.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
