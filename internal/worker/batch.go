package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/realcheck/internal/model"
)

// Analyzer runs the full pipeline for one article URL
type Analyzer interface {
	Analyze(ctx context.Context, url string) (*model.Report, error)
}

// AnalyzeJob analyzes one URL, waiting on the limiter first when one is set
type AnalyzeJob struct {
	Index    int
	URL      string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			return &AnalyzeResult{Index: j.Index, URL: j.URL, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	report, err := j.Analyzer.Analyze(ctx, j.URL)
	if err != nil {
		return &AnalyzeResult{Index: j.Index, URL: j.URL, Error: err}
	}
	return &AnalyzeResult{Index: j.Index, URL: j.URL, Report: report}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Index  int
	URL    string
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple URLs concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A non-positive
// requestsPerSecond disables per-host rate limiting.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs analyzes URLs concurrently and returns results in input order.
// URLs never started because ctx ended are reported with ctx's error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalyzeResult {
	if len(urls) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, url := range urls {
		pool.Submit(&AnalyzeJob{
			Index:    i,
			URL:      url,
			Analyzer: b.analyzer,
			Limiter:  b.limiter,
		})
	}

	results := pool.Wait()

	byIndex := make([]*AnalyzeResult, len(urls))
	for _, result := range results {
		r := result.(*AnalyzeResult)
		byIndex[r.Index] = r
	}
	for i, r := range byIndex {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not processed")
			}
			byIndex[i] = &AnalyzeResult{Index: i, URL: urls[i], Error: err}
		}
	}

	return byIndex
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
