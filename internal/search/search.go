package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/realcheck/internal/cache"
	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/retry"
	"github.com/ppiankov/realcheck/internal/util"
)

// ErrNoProvider is returned when web search is switched off
var ErrNoProvider = errors.New("no search provider configured")

// Result is one organic web search hit
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search and returns at most limit results
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// RateLimiter paces requests per host
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Options are shared by the HTTP-backed providers
type Options struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client
	Limiter    RateLimiter
	Retry      retry.Config
}

func (o Options) withDefaults(baseURL, operation string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimSuffix(o.BaseURL, "/")
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	o.Retry.Operation = operation
	if o.Retry.Logger == nil {
		o.Retry.Logger = logger.Log
	}
	return o
}

// get performs a paced, retried GET and returns the body of a 200 response
func (o Options) get(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.DoWithResult(ctx, o.Retry, func() ([]byte, error) {
		if o.Limiter != nil {
			if err := o.Limiter.Wait(ctx, rawURL); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if o.UserAgent != "" {
			req.Header.Set("User-Agent", o.UserAgent)
		}

		resp, err := o.HTTPClient.Do(req)
		if err != nil {
			// url.Error repeats the request URL, which may carry an API key
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				err = urlErr.Err
			}
			return nil, fmt.Errorf("search: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, retry.NewStatusError(resp, body)
		}
		return body, nil
	})
}

// Disabled fails every search with ErrNoProvider
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Search(context.Context, string, int) ([]Result, error) {
	return nil, ErrNoProvider
}

// New builds the configured provider, wrapped with metrics and, when c is
// non-nil, a result cache.
func New(cfg *model.Config, c cache.Cache, limiter RateLimiter) (Searcher, error) {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Search.MaxAttempts

	opts := Options{
		BaseURL:   cfg.Search.BaseURL,
		APIKey:    cfg.Search.APIKey,
		UserAgent: cfg.HTTP.UserAgent,
		HTTPClient: util.NewHTTPClient(util.ClientOptions{
			Timeout:     cfg.Search.Timeout,
			InsecureTLS: cfg.HTTP.InsecureTLS,
			HTTPProxy:   cfg.HTTP.HTTPProxy,
			HTTPSProxy:  cfg.HTTP.HTTPSProxy,
			NoProxy:     cfg.HTTP.NoProxy,
		}),
		Limiter: limiter,
		Retry:   retryCfg,
	}

	var s Searcher
	switch strings.ToLower(cfg.Search.Provider) {
	case "", "none":
		return Disabled{}, nil
	case "duckduckgo", "ddg":
		s = NewDuckDuckGo(opts)
	case "serpapi":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("serpapi requires search.api_key or SERPAPI_API_KEY")
		}
		s = NewSerpAPI(opts)
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: duckduckgo, serpapi, none)", cfg.Search.Provider)
	}

	s = &instrumented{next: s}
	if c != nil {
		s = NewCached(s, c, cfg.Cache.TTL)
	}
	return s, nil
}

type instrumented struct {
	next Searcher
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	results, err := i.next.Search(ctx, query, limit)
	metrics.SearchRequests.WithLabelValues(i.next.Name(), metrics.Status(err)).Inc()
	return results, err
}

func truncate(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
