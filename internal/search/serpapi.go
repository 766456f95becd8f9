package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const defaultSerpAPIBaseURL = "https://serpapi.com"

// SerpAPI queries Google results through serpapi.com
type SerpAPI struct {
	opts Options
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// NewSerpAPI creates a SerpAPI client
func NewSerpAPI(opts Options) *SerpAPI {
	return &SerpAPI{opts: opts.withDefaults(defaultSerpAPIBaseURL, "serpapi search")}
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("api_key", s.opts.APIKey)
	params.Add("engine", "google")
	if limit > 0 {
		params.Add("num", strconv.Itoa(limit))
	}

	body, err := s.opts.get(ctx, fmt.Sprintf("%s/search?%s", s.opts.BaseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var resp serpAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" && len(resp.OrganicResults) == 0 {
		// "Google hasn't returned any results" is an empty result set, not a failure
		if resp.Error == "Google hasn't returned any results for this query." {
			return []Result{}, nil
		}
		return nil, fmt.Errorf("serpapi: %s", resp.Error)
	}

	results := make([]Result, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		if r.Link == "" {
			continue
		}
		results = append(results, Result{URL: r.Link, Title: r.Title, Snippet: r.Snippet})
	}

	return truncate(results, limit), nil
}
