package output_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/output"
)

func sampleItems() domain.LabeledItems {
	ts := time.Date(2025, 11, 20, 9, 30, 0, 0, time.Local)
	return domain.LabeledItems{
		{Source: "新浪财经", Title: "A & B", URL: "https://a.com/1", PublishedAt: &ts, Content: "第一段\n\n第二段", SearchTerm: "ACME"},
		{Source: "第一财经", Title: "second", URL: "https://a.com/2", Content: "c2", SearchTerm: "banking"},
	}
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, output.FormatJSON, sampleItems()))

	out := buf.String()
	assert.Less(t, strings.Index(out, `"item-1"`), strings.Index(out, `"item-2"`))
	assert.Contains(t, out, `"title": "A & B"`)
	assert.Contains(t, out, `"date": "2025-11-20 09:30:00"`)
}

func TestWrite_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, "YAML", sampleItems()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "item-1:"), out)
	assert.Contains(t, out, "item-2:")
	assert.Contains(t, out, "search_term: banking")
}

func TestWrite_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, output.FormatTable, sampleItems()))

	out := buf.String()
	assert.Contains(t, out, "item-1")
	assert.Contains(t, out, "第一财经")
	assert.Contains(t, out, "2025-11-20 09:30:00")
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := output.Write(&bytes.Buffer{}, "xml", sampleItems())
	require.Error(t, err)
	assert.True(t, errors.Is(err, output.ErrUnknownFormat))
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", output.Preview("  a\n b\t\tc ", 10))
	assert.Equal(t, "新浪财...", output.Preview("新浪财经新闻", 3))
	assert.Equal(t, "short", output.Preview("short", 0))
}
