package redirect_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/redirect"
)

func TestResolver_IsRedirectHost(t *testing.T) {
	t.Parallel()

	r := redirect.New(redirect.Config{}, logger.NewNop(), nil)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://link.sina.com.cn/?url=abc", true},
		{"http://LINK.sina.com.cn/x", true},
		{"https://finance.sina.com.cn/a.shtml", false},
		{"https://evil.com/link.sina.com.cn", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		if got := r.IsRedirectHost(tt.url); got != tt.want {
			t.Errorf("IsRedirectHost(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/found":
			w.Header().Set("Location", "https://finance.sina.com.cn/article.shtml")
			w.WriteHeader(http.StatusFound)
		case "/scheme-relative":
			w.Header().Set("Location", "//finance.sina.com.cn/other.shtml")
			w.WriteHeader(http.StatusMovedPermanently)
		case "/no-location":
			w.WriteHeader(http.StatusFound)
		case "/root-relative":
			w.Header().Set("Location", "/doc/2025-11-20/abc.shtml")
			w.WriteHeader(http.StatusFound)
		case "/dir/path-relative":
			w.Header().Set("Location", "abc.shtml?from=link")
			w.WriteHeader(http.StatusFound)
		case "/bad-location":
			w.Header().Set("Location", "http://[::1")
			w.WriteHeader(http.StatusFound)
		case "/chained":
			w.Header().Set("Location", "/found")
			w.WriteHeader(http.StatusFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	r := redirect.New(redirect.Config{}, logger.NewNop(), nil)

	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{"found", "/found", "https://finance.sina.com.cn/article.shtml", true},
		{"scheme relative completed", "/scheme-relative", "https://finance.sina.com.cn/other.shtml", true},
		{"missing location", "/no-location", "", false},
		{"root relative made absolute", "/root-relative", srv.URL + "/doc/2025-11-20/abc.shtml", true},
		{"path relative made absolute", "/dir/path-relative", srv.URL + "/dir/abc.shtml?from=link", true},
		{"unparseable location", "/bad-location", "", false},
		{"single hop only", "/chained", srv.URL + "/found", true},
		{"not a redirect", "/plain", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(context.Background(), srv.URL+tt.path)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%s) = (%q, %v), want (%q, %v)", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolver_ResolveNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	r := redirect.New(redirect.Config{}, logger.NewNop(), nil)
	got, ok := r.Resolve(context.Background(), addr+"/x")
	if ok || got != "" {
		t.Errorf("Resolve on closed server = (%q, %v), want (\"\", false)", got, ok)
	}
}
