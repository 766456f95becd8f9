package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/realcheck/internal/classifier"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/search"
)

const (
	bridgeClaim = "The city council said on Monday that the old river bridge would reopen to traffic in May."
	plantClaim  = "Officials confirmed that the new water treatment plant passed every safety inspection last week."
	fluClaim    = "According to the regional health office, flu cases rose sharply during the first week of January."
)

var articleText = strings.Join([]string{bridgeClaim, plantClaim, "Short line.", fluClaim}, " ")

type fakeFetcher struct {
	doc   model.Document
	err   error
	calls int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (model.Document, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return model.Document{}, f.err
	}
	doc := f.doc
	doc.URL = url
	return doc, nil
}

type fixedClassifier struct {
	result classifier.Classification
}

func (c fixedClassifier) Name() string { return "fixed" }

func (c fixedClassifier) Classify(ctx context.Context, text string) (classifier.Classification, error) {
	return c.result, nil
}

// claimSearcher finds two debunking results for claims mentioning "bridge"
// and two supporting results for everything else.
type claimSearcher struct {
	calls int32
}

func (s *claimSearcher) Name() string { return "claims" }

func (s *claimSearcher) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	atomic.AddInt32(&s.calls, 1)
	challenge := strings.Contains(query, "debunked")
	if strings.Contains(query, "bridge") == challenge {
		return []search.Result{{URL: "https://apnews.com/a"}, {URL: "https://blog.example/b"}}, nil
	}
	return nil, nil
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func TestPipeline_Analyze(t *testing.T) {
	fetcher := &fakeFetcher{doc: model.Document{Text: articleText, FetchedAt: time.Now()}}
	p := New(testConfig(), Components{
		Fetcher:    fetcher,
		Classifier: fixedClassifier{classifier.Classification{Label: classifier.LabelAI, Confidence: 0.9}},
		Searcher:   &claimSearcher{},
	})

	report, err := p.Analyze(context.Background(), "https://news.example/story")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.ID == "" || report.Timestamp.IsZero() {
		t.Errorf("Expected id and timestamp, got %q %v", report.ID, report.Timestamp)
	}
	if report.URL != "https://news.example/story" {
		t.Errorf("Unexpected URL %s", report.URL)
	}
	if report.Authorship.Verdict != model.AuthorshipLikelyAI {
		t.Errorf("Expected Likely AI, got %+v", report.Authorship)
	}

	if len(report.Claims) != 3 {
		t.Fatalf("Expected 3 claims, got %d", len(report.Claims))
	}
	for i, want := range []string{bridgeClaim, plantClaim, fluClaim} {
		if report.Claims[i].Claim != want {
			t.Errorf("Claim %d out of order: %q", i, report.Claims[i].Claim)
		}
	}
	if report.Claims[0].Verdict != model.VerdictLikelyFalse {
		t.Errorf("Expected bridge claim Likely False, got %s", report.Claims[0].Verdict)
	}
	if report.Claims[1].Verdict != model.VerdictLikelyTrue {
		t.Errorf("Expected plant claim Likely True, got %s", report.Claims[1].Verdict)
	}

	if report.FalseFlags != 1 || report.Overall != model.OverallAIMisinfoLikely {
		t.Errorf("Expected AI Misinfo Likely with 1 flag, got %s with %d", report.Overall, report.FalseFlags)
	}
	if report.Note != model.ReportNote {
		t.Errorf("Unexpected note %q", report.Note)
	}
	if report.Config.MaxTextLength != 6000 || report.Config.SearchResults != 3 {
		t.Errorf("Unexpected config snapshot %+v", report.Config)
	}
	if !strings.HasPrefix(articleText, report.Snippet) || len([]rune(report.Snippet)) != 200 {
		t.Errorf("Expected 200 char snippet, got %d", len([]rune(report.Snippet)))
	}
}

func TestPipeline_FetchFailureShortCircuits(t *testing.T) {
	fetchErr := &FetchError{URL: "https://blocked.example", Reason: ReasonBlocked, Err: errors.New("unexpected status: 403 403 Forbidden")}
	searcher := &claimSearcher{}
	p := New(testConfig(), Components{
		Fetcher:  &fakeFetcher{err: fetchErr},
		Searcher: searcher,
	})

	report, err := p.Analyze(context.Background(), "https://blocked.example")
	if report != nil {
		t.Error("Expected no report on fetch failure")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Reason != ReasonBlocked {
		t.Fatalf("Expected blocked FetchError, got %v", err)
	}
	if atomic.LoadInt32(&searcher.calls) != 0 {
		t.Error("Nothing downstream of the fetch should run")
	}
}

func TestPipeline_AnalyzeTextSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("must not fetch")}
	p := New(testConfig(), Components{Fetcher: fetcher, Searcher: &claimSearcher{}})

	report, err := p.AnalyzeText(context.Background(), "https://paywalled.example", "  "+articleText+"\n\n", "pasted by reader")
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}
	if atomic.LoadInt32(&fetcher.calls) != 0 {
		t.Error("Manual text must bypass the fetcher")
	}
	if report.Description != "pasted by reader" {
		t.Errorf("Expected description echo, got %q", report.Description)
	}
	if len(report.Claims) != 3 {
		t.Errorf("Expected 3 claims, got %d", len(report.Claims))
	}
	// The disabled classifier scores every chunk neutral
	if report.Authorship.Verdict != model.AuthorshipLikelyHuman || report.Authorship.Fallbacks == 0 {
		t.Errorf("Expected neutral fallback assessment, got %+v", report.Authorship)
	}
	if report.Overall != model.OverallAppearsLegit {
		t.Errorf("Expected Appears Legit, got %s", report.Overall)
	}
}

func TestPipeline_DeadlineSkipsClaimChecks(t *testing.T) {
	searcher := &claimSearcher{}
	p := New(testConfig(), Components{
		Fetcher:  &fakeFetcher{doc: model.Document{Text: articleText}},
		Searcher: searcher,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.AnalyzeText(ctx, "https://news.example", articleText, "")
	if err != nil {
		t.Fatalf("Expected partial report, got %v", err)
	}
	if len(report.Claims) != 0 || report.ClaimsSkipped != 3 {
		t.Errorf("Expected 0 checked and 3 skipped, got %d and %d", len(report.Claims), report.ClaimsSkipped)
	}
	if report.Claims == nil {
		t.Error("Expected an empty, non-nil claims slice")
	}
	if report.Overall != model.OverallAppearsLegit {
		t.Errorf("Expected Appears Legit over zero checks, got %s", report.Overall)
	}
}

func TestPipeline_RepeatableExceptTimestamp(t *testing.T) {
	p := New(testConfig(), Components{
		Fetcher:    &fakeFetcher{doc: model.Document{Text: articleText}},
		Classifier: fixedClassifier{classifier.Classification{Label: classifier.LabelHuman, Confidence: 0.7}},
		Searcher:   &claimSearcher{},
	})

	var reports []*model.Report
	for i := 0; i < 2; i++ {
		r, err := p.Analyze(context.Background(), "https://news.example/story")
		if err != nil {
			t.Fatal(err)
		}
		r.ID = ""
		r.Timestamp = time.Time{}
		reports = append(reports, r)
	}

	if !reflect.DeepEqual(reports[0], reports[1]) {
		t.Errorf("Expected identical reports, got\n%+v\n%+v", reports[0], reports[1])
	}
}

func TestPipeline_SearchFailureYieldsCheckErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Search.Provider = "none"
	searcher, err := search.New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	p := New(cfg, Components{Fetcher: &fakeFetcher{doc: model.Document{Text: articleText}}, Searcher: searcher})
	report, err := p.Analyze(context.Background(), "https://news.example")
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range report.Claims {
		if c.Verdict != model.VerdictCheckError || c.Error == "" {
			t.Errorf("Claim %d: expected Check error, got %s", i, c.Verdict)
		}
	}
	if report.FalseFlags != 0 {
		t.Errorf("Check errors must not flag, got %d", report.FalseFlags)
	}
}

func TestFetchError_Messages(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")
	fe := &FetchError{URL: "https://x.example", Reason: ReasonNetwork, Err: inner}

	if !errors.Is(fe, inner) {
		t.Error("Expected FetchError to unwrap to the cause")
	}
	if !strings.Contains(fe.Error(), "network error") {
		t.Errorf("Expected reason in error, got %q", fe.Error())
	}
	if !strings.Contains(fe.Message(), "connection refused") {
		t.Errorf("Expected cause in message, got %q", fe.Message())
	}
}
