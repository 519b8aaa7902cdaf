// Package domain holds the records that flow through the news pipeline.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Canonical layouts used across the pipeline.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// DefaultSource is the publisher label used when none can be recovered.
const DefaultSource = "新浪新闻"

// NewsItem is the unit returned to callers of fetch_news.
type NewsItem struct {
	Source      string
	Title       string
	URL         string
	PublishedAt *time.Time
	Content     string
	SearchTerm  string
}

// ItemKey identifies a news item for deduplication.
type ItemKey struct {
	Title string
	URL   string
}

// Key returns the dedup identity of the item.
func (n NewsItem) Key() ItemKey {
	return ItemKey{Title: n.Title, URL: n.URL}
}

// Valid reports whether the item carries the required title and URL.
func (n NewsItem) Valid() bool {
	return n.Title != "" && n.URL != ""
}

// DateString returns the canonical timestamp, or "" when the date is unknown.
func (n NewsItem) DateString() string {
	if n.PublishedAt == nil {
		return ""
	}
	return n.PublishedAt.Format(TimestampLayout)
}

// newsItemJSON is the wire shape consumed by the agent.
type newsItemJSON struct {
	Source     string `json:"source"     yaml:"source"`
	Title      string `json:"title"      yaml:"title"`
	URL        string `json:"url"        yaml:"url"`
	Date       string `json:"date"       yaml:"date"`
	Content    string `json:"content"    yaml:"content"`
	SearchTerm string `json:"search_term" yaml:"search_term"`
}

func (n NewsItem) wire() newsItemJSON {
	return newsItemJSON{
		Source:     n.Source,
		Title:      n.Title,
		URL:        n.URL,
		Date:       n.DateString(),
		Content:    n.Content,
		SearchTerm: n.SearchTerm,
	}
}

// MarshalJSON renders the item with its date in canonical form.
func (n NewsItem) MarshalJSON() ([]byte, error) {
	return marshalUnescaped(n.wire())
}

// marshalUnescaped is json.Marshal without HTML escaping; article text keeps
// its & < > as written.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalYAML renders the item with its date in canonical form.
func (n NewsItem) MarshalYAML() (any, error) {
	return n.wire(), nil
}

// UnmarshalJSON reads the wire shape back; dates are interpreted in local time.
func (n *NewsItem) UnmarshalJSON(data []byte) error {
	var w newsItemJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*n = NewsItem{
		Source:     w.Source,
		Title:      w.Title,
		URL:        w.URL,
		Content:    w.Content,
		SearchTerm: w.SearchTerm,
	}
	if w.Date == "" {
		return nil
	}

	t, err := time.ParseInLocation(TimestampLayout, w.Date, time.Local)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", w.Date, err)
	}
	n.PublishedAt = &t
	return nil
}

// SearchQuery describes one page request against the search endpoint.
type SearchQuery struct {
	Term     string
	Channel  string
	Start    time.Time
	End      time.Time
	Page     int
	PageSize int
}

// MaxPageSize is the largest page the search endpoint serves.
const MaxPageSize = 20

// DateWindow is an inclusive range of calendar days.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// WindowForDays returns the window [now-days, now].
func WindowForDays(now time.Time, days int) DateWindow {
	return DateWindow{
		Start: now.AddDate(0, 0, -days),
		End:   now,
	}
}

// Contains compares calendar dates only; time of day is ignored.
func (w DateWindow) Contains(t time.Time) bool {
	d := truncateToDay(t)
	return !d.Before(truncateToDay(w.Start)) && !d.After(truncateToDay(w.End))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
