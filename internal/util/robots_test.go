package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func robotsServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	body := "User-agent: Mozilla\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: *\nDisallow:\n"
	server, hits := robotsServer(t, body, http.StatusOK)

	checker := NewRobotsChecker(nil, "Mozilla/5.0 (Macintosh)")
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/news/story")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected /news/story to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", delay)
	}

	if checker.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("Expected /private/page to be disallowed")
	}

	if hits.Load() != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", hits.Load())
	}

	checker.Clear()
	_ = checker.IsAllowed(ctx, server.URL+"/news/story")
	if hits.Load() != 2 {
		t.Errorf("Expected refetch after Clear, got %d fetches", hits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server, _ := robotsServer(t, "", http.StatusNotFound)

	checker := NewRobotsChecker(nil, "Mozilla/5.0")
	if !checker.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("Expected missing robots.txt to allow everything")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	checker := NewRobotsChecker(&http.Client{Timeout: 200 * time.Millisecond}, "Mozilla/5.0")
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/article")
	if err != nil {
		t.Fatalf("Expected no error for unreachable robots.txt, got %v", err)
	}
	if !allowed {
		t.Error("Expected unreachable robots.txt to allow")
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker(nil, "Mozilla/5.0")
	if _, _, err := checker.CanFetch(context.Background(), "not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)": "Mozilla",
		"realcheck/1.0":                                   "realcheck",
		"":                                                "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}
