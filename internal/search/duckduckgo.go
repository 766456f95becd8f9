package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultDDGBaseURL = "https://html.duckduckgo.com"

// DuckDuckGo scrapes the keyless HTML endpoint
type DuckDuckGo struct {
	opts Options
}

// NewDuckDuckGo creates a DuckDuckGo HTML search client
func NewDuckDuckGo(opts Options) *DuckDuckGo {
	return &DuckDuckGo{opts: opts.withDefaults(defaultDDGBaseURL, "duckduckgo search")}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search returns organic results, skipping sponsored ones
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)

	body, err := d.opts.get(ctx, fmt.Sprintf("%s/html/?%s", d.opts.BaseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveDDGLink(href)
		if target == "" {
			return true
		}

		results = append(results, Result{
			URL:     target,
			Title:   strings.TrimSpace(link.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return limit <= 0 || len(results) < limit
	})

	return truncate(results, limit), nil
}

// resolveDDGLink unwraps DuckDuckGo's /l/?uddg= redirect links
func resolveDDGLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
