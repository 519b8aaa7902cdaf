package search_test

import (
	"testing"
	"time"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/search"
)

func at(y int, m time.Month, d, hh, mm int) *time.Time {
	t := time.Date(y, m, d, hh, mm, 0, 0, time.Local)
	return &t
}

func TestFilterByWindow(t *testing.T) {
	t.Parallel()

	window := domain.DateWindow{
		Start: time.Date(2025, 11, 18, 15, 0, 0, 0, time.Local),
		End:   time.Date(2025, 11, 20, 9, 0, 0, 0, time.Local),
	}

	items := []domain.NewsItem{
		{Title: "start boundary early", URL: "u1", PublishedAt: at(2025, 11, 18, 0, 1)},
		{Title: "end boundary late", URL: "u2", PublishedAt: at(2025, 11, 20, 23, 59)},
		{Title: "day before", URL: "u3", PublishedAt: at(2025, 11, 17, 23, 59)},
		{Title: "day after", URL: "u4", PublishedAt: at(2025, 11, 21, 0, 0)},
		{Title: "undated", URL: "u5"},
		{Title: "inside", URL: "u6", PublishedAt: at(2025, 11, 19, 12, 0)},
	}

	got := search.FilterByWindow(items, window)

	var titles []string
	for _, it := range got {
		titles = append(titles, it.Title)
	}
	want := []string{"start boundary early", "end boundary late", "undated", "inside"}
	if len(titles) != len(want) {
		t.Fatalf("FilterByWindow titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}
