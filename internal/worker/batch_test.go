package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ppiankov/realcheck/internal/model"
)

// MockAnalyzer implements Analyzer interface
type MockAnalyzer struct {
	ShouldError bool
	FailURL     string
}

func (m *MockAnalyzer) Analyze(ctx context.Context, url string) (*model.Report, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError || url == m.FailURL {
		return nil, errors.New("analysis error")
	}
	return &model.Report{
		URL:     url,
		Overall: model.OverallAppearsLegit,
	}, nil
}

func TestBatchProcessor_ProcessURLs(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, 0)

	urls := []string{"http://example.com", "http://google.com", "http://bing.com"}
	ctx := context.Background()

	results := processor.ProcessURLs(ctx, urls)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Report == nil {
				t.Error("expected report for successful analysis")
			}
		} else {
			t.Errorf("unexpected error for %s: %v", res.URL, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchProcessor_ProcessURLs_Error(t *testing.T) {
	analyzer := &MockAnalyzer{ShouldError: true}
	processor := NewBatchProcessor(analyzer, 2, 0, 0)

	urls := []string{"http://example.com"}
	ctx := context.Background()

	results := processor.ProcessURLs(ctx, urls)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessURLs_Empty(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, 0)

	results := processor.ProcessURLs(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	content := `http://example.com
# comment
https://google.com
   
http://bing.com   `

	tmpfile, err := os.CreateTemp("", "urls")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{"http://example.com", "https://google.com", "http://bing.com"}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d", len(expected), len(urls))
	}

	for i, url := range urls {
		if url != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, url)
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	_, err := ReadURLsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestAnalyzeResult_GetError(t *testing.T) {
	r1 := &AnalyzeResult{URL: "http://example.com", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &AnalyzeResult{URL: "http://example.com", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	content := "http://example.com\nhttps://google.com\n# comment\n\nhttp://bing.com\n"

	tmpfile, err := os.CreateTemp("", "batch_urls")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, 0)

	results, err := processor.ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, 0)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "empty_urls")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 0, 0)

	results, err := processor.ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}

func TestReadURLsFromFile_Deduplication(t *testing.T) {
	content := `http://example.com
http://example.com`

	tmpfile, err := os.CreateTemp("", "urls_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	if len(urls) != 1 {
		t.Errorf("expected 1 URL after deduplication, got %d", len(urls))
	}
}

func TestBatchProcessor_ProcessURLs_PreservesOrder(t *testing.T) {
	analyzer := &MockAnalyzer{FailURL: "http://b.example"}
	processor := NewBatchProcessor(analyzer, 3, 0, 0)

	urls := []string{"http://a.example", "http://b.example", "http://c.example", "http://d.example"}
	results := processor.ProcessURLs(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("result %d: expected %s, got %s", i, urls[i], res.URL)
		}
	}
	if results[1].Error == nil {
		t.Error("expected failure for b.example")
	}
	if results[0].Report == nil || results[0].Report.URL != "http://a.example" {
		t.Error("expected report for a.example")
	}
}

func TestBatchProcessor_WithLimiter(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2, 100, 2)
	if processor.limiter == nil {
		t.Fatal("expected limiter when rate is positive")
	}

	results := processor.ProcessURLs(context.Background(), []string{"http://a.example/1", "http://a.example/2"})
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error: %v", res.Error)
		}
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockAnalyzer{}, 1, 0, 0)
	results := processor.ProcessURLs(ctx, []string{"http://a.example", "http://b.example"})

	if len(results) != 2 {
		t.Fatalf("expected a result per URL, got %d", len(results))
	}
	for _, res := range results {
		if res == nil {
			t.Fatal("expected non-nil result")
		}
	}
}
