package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/cache"
	"github.com/ppiankov/realcheck/internal/extract"
	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/retry"
	"github.com/ppiankov/realcheck/internal/util"
)

const fetchAttempts = 3

// fetchSleepFunc waits between fetch attempts and stops when ctx ends; tests replace it
var fetchSleepFunc = sleepCtx

// FetchReason says why an article could not be fetched
type FetchReason string

const (
	ReasonBlocked    FetchReason = "blocked"
	ReasonTimeout    FetchReason = "timeout"
	ReasonNetwork    FetchReason = "network error"
	ReasonDisallowed FetchReason = "disallowed by robots.txt"
	ReasonInvalidURL FetchReason = "invalid url"
)

// FetchError is returned when the article cannot be retrieved. Nothing
// downstream of the fetch runs when it occurs.
type FetchError struct {
	URL    string
	Reason FetchReason
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Message is the user-facing explanation returned by the API and CLI
func (e *FetchError) Message() string {
	switch e.Reason {
	case ReasonBlocked:
		return "Site blocked the request. Paste text manually or try later."
	case ReasonTimeout:
		return "Site did not respond in time. Paste text manually or try later."
	case ReasonDisallowed:
		return "Fetching this page is disallowed by robots.txt. Paste text manually."
	case ReasonInvalidURL:
		return "Invalid URL. Provide an absolute http(s) URL."
	default:
		return fmt.Sprintf("Error fetching article: %v", e.Err)
	}
}

// Fetcher retrieves article HTML and turns it into a Document
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	extractor *extract.ContentExtractor
	robots    *util.RobotsChecker
	cache     cache.Cache
	cacheTTL  time.Duration
}

// NewFetcher creates a Fetcher. Redirect chains longer than 3 are cut off.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecure bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}
	return &Fetcher{
		httpClient: util.NewHTTPClient(util.ClientOptions{
			Timeout:      timeout,
			InsecureTLS:  insecure,
			HTTPProxy:    httpProxy,
			HTTPSProxy:   httpsProxy,
			NoProxy:      noProxy,
			MaxRedirects: 3,
		}),
		userAgent: userAgent,
		maxBytes:  maxBytes,
		extractor: extract.NewContentExtractor(model.DefaultConfig().Analysis.MaxTextLength),
	}
}

// WithExtractor sets the content extractor used by Fetch
func (f *Fetcher) WithExtractor(e *extract.ContentExtractor) *Fetcher {
	f.extractor = e
	return f
}

// WithRobots makes Fetch consult robots.txt before each request
func (f *Fetcher) WithRobots(r *util.RobotsChecker) *Fetcher {
	f.robots = r
	return f
}

// WithCache keeps extracted documents in c for ttl
func (f *Fetcher) WithCache(c cache.Cache, ttl time.Duration) *Fetcher {
	f.cache = c
	f.cacheTTL = ttl
	return f
}

// FetchResult contains the fetched HTML and response metadata
type FetchResult struct {
	HTML        string
	StatusCode  int
	ContentType string
	FinalURL    string
}

// Fetch validates the URL, honours robots.txt when enabled, downloads the
// page and extracts its article text. Failures are *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (model.Document, error) {
	if err := validateURL(rawURL); err != nil {
		return model.Document{}, &FetchError{URL: rawURL, Reason: ReasonInvalidURL, Err: err}
	}

	key := cache.CacheKey("document", rawURL)
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			var doc model.Document
			if err := json.Unmarshal(data, &doc); err == nil {
				metrics.CacheHits.WithLabelValues("document").Inc()
				return doc, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("document").Inc()
	}

	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return model.Document{}, &FetchError{URL: rawURL, Reason: ReasonInvalidURL, Err: err}
		}
		if !allowed {
			return model.Document{}, &FetchError{URL: rawURL, Reason: ReasonDisallowed}
		}
		if crawlDelay > 0 {
			if err := sleepCtx(ctx, crawlDelay); err != nil {
				return model.Document{}, &FetchError{URL: rawURL, Reason: ReasonTimeout, Err: err}
			}
		}
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return model.Document{}, &FetchError{URL: rawURL, Reason: classifyFetchError(ctx, err), Err: err}
	}

	doc := model.Document{
		URL:       rawURL,
		Text:      f.extractor.Extract(result.HTML),
		FetchedAt: time.Now().UTC(),
	}
	if f.cache != nil {
		if data, err := json.Marshal(doc); err == nil {
			if err := f.cache.Set(key, data, f.cacheTTL); err != nil {
				logger.Warn("Failed to cache document", zap.String("url", rawURL), zap.Error(err))
			}
		}
	}
	return doc, nil
}

// FetchWithRetry fetches rawURL, retrying 429, 5xx and transport failures
// with exponential backoff.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = fetchAttempts
	cfg.Retryable = isRetryableFetchError
	cfg.Sleep = fetchSleepFunc
	cfg.Logger = logger.Log.With(zap.String("url", rawURL))
	cfg.Operation = "fetch article"

	return retry.DoWithResult(ctx, cfg, func() (*FetchResult, error) {
		return f.fetchOnce(ctx, rawURL)
	})
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retry.NewStatusError(resp, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:        string(body),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// transportError marks a request that failed before any response arrived
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "fetch: " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// isRetryableFetchError reports whether err is a 429, a 5xx, or a transport failure
func isRetryableFetchError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *retry.StatusError
	if errors.As(err, &se) {
		return retry.IsRetryableStatus(se.StatusCode)
	}

	var te *transportError
	return errors.As(err, &te)
}

func classifyFetchError(ctx context.Context, err error) FetchReason {
	var se *retry.StatusError
	if errors.As(err, &se) {
		return ReasonBlocked
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetwork
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
