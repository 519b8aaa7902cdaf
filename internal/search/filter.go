package search

import "github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"

// FilterByWindow keeps items dated inside w, comparing calendar days only.
// Undated items are always kept.
func FilterByWindow(items []domain.NewsItem, w domain.DateWindow) []domain.NewsItem {
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if item.PublishedAt == nil || w.Contains(*item.PublishedAt) {
			out = append(out, item)
		}
	}
	return out
}
