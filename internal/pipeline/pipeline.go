package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/authorship"
	"github.com/ppiankov/realcheck/internal/cache"
	"github.com/ppiankov/realcheck/internal/classifier"
	"github.com/ppiankov/realcheck/internal/extract"
	"github.com/ppiankov/realcheck/internal/factcheck"
	"github.com/ppiankov/realcheck/internal/llm"
	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/score"
	"github.com/ppiankov/realcheck/internal/search"
	"github.com/ppiankov/realcheck/internal/util"
	"github.com/ppiankov/realcheck/internal/worker"
)

const snippetLength = 200

// DocumentFetcher turns an article URL into a Document
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (model.Document, error)
}

// Components are the collaborators a Pipeline runs with
type Components struct {
	Fetcher    DocumentFetcher
	Classifier classifier.Classifier
	Searcher   search.Searcher
	Summarizer *llm.Summarizer // Optional
}

// Request describes one analysis. ManualText, when set, replaces the fetch.
type Request struct {
	URL         string
	ManualText  string
	Description string
}

// Pipeline orchestrates fetch, authorship scoring, claim extraction,
// evidence checks and aggregation for one article at a time.
type Pipeline struct {
	fetcher    DocumentFetcher
	content    *extract.ContentExtractor
	scorer     *authorship.Scorer
	claims     *extract.ClaimExtractor
	checker    *factcheck.Checker
	summarizer *llm.Summarizer
	config     *model.Config
	now        func() time.Time
}

// New creates a pipeline from explicit components
func New(cfg *model.Config, c Components) *Pipeline {
	if c.Classifier == nil {
		c.Classifier = classifier.Disabled{}
	}
	if c.Searcher == nil {
		c.Searcher = search.Disabled{}
	}
	return &Pipeline{
		fetcher:    c.Fetcher,
		content:    extract.NewContentExtractor(cfg.Analysis.MaxTextLength),
		scorer:     authorship.NewScorer(c.Classifier, cfg.Analysis.ChunkSize, cfg.Analysis.MinAITextLength),
		claims:     extract.NewClaimExtractor(cfg.Analysis),
		checker:    factcheck.NewChecker(c.Searcher, cfg.Search.ResultLimit),
		summarizer: c.Summarizer,
		config:     cfg,
		now:        time.Now,
	}
}

// NewPipeline wires every collaborator from configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	resultCache, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	cls, err := classifier.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	// An untyped nil keeps the searcher from calling a nil *Limiter
	var limiter search.RateLimiter
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}
	searcher, err := search.New(cfg, resultCache, limiter)
	if err != nil {
		return nil, fmt.Errorf("create search provider: %w", err)
	}

	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy).
		WithExtractor(extract.NewContentExtractor(cfg.Analysis.MaxTextLength))
	if cfg.HTTP.RespectRobots {
		client := util.NewHTTPClient(util.ClientOptions{
			Timeout:     10 * time.Second,
			InsecureTLS: cfg.HTTP.InsecureTLS,
			HTTPProxy:   cfg.HTTP.HTTPProxy,
			HTTPSProxy:  cfg.HTTP.HTTPSProxy,
			NoProxy:     cfg.HTTP.NoProxy,
		})
		fetcher.WithRobots(util.NewRobotsChecker(client, cfg.HTTP.UserAgent))
	}
	if resultCache != nil {
		fetcher.WithCache(resultCache, cfg.Cache.TTL)
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg))
		if err != nil {
			logger.Warn("LLM summary disabled", zap.Error(err))
		} else {
			summarizer = s
		}
	}

	return New(cfg, Components{
		Fetcher:    fetcher,
		Classifier: cls,
		Searcher:   searcher,
		Summarizer: summarizer,
	}), nil
}

// Analyze fetches and analyzes one article URL
func (p *Pipeline) Analyze(ctx context.Context, url string) (*model.Report, error) {
	return p.Run(ctx, Request{URL: url})
}

// AnalyzeText analyzes caller-supplied text instead of fetching url
func (p *Pipeline) AnalyzeText(ctx context.Context, url, text, description string) (*model.Report, error) {
	return p.Run(ctx, Request{URL: url, ManualText: text, Description: description})
}

// Run executes one analysis. A fetch failure returns *FetchError and no report.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.Report, error) {
	start := time.Now()

	doc, err := p.document(ctx, req)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			metrics.AnalysesTotal.WithLabelValues("fetch_error").Inc()
			logger.Warn("Fetch failed",
				zap.String("url", req.URL),
				zap.String("reason", string(fe.Reason)),
				zap.Error(fe.Err))
		} else {
			metrics.AnalysesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	report := p.analyzeDocument(ctx, doc)
	report.Description = req.Description

	if p.summarizer != nil && p.summarizer.IsEnabled() && ctx.Err() == nil {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			logger.Warn("LLM summary failed", zap.String("url", req.URL), zap.Error(err))
		} else if summary != nil {
			report.LLM = summary
		}
	}

	metrics.AnalysesTotal.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	metrics.OverallVerdicts.WithLabelValues(string(report.Overall)).Inc()
	metrics.AIScore.Observe(report.Authorship.Probability)

	logger.Info("Analysis complete",
		zap.String("url", report.URL),
		zap.String("overall", string(report.Overall)),
		zap.Float64("ai_score", report.Authorship.Probability),
		zap.Int("claims", len(report.Claims)),
		zap.Int("claims_skipped", report.ClaimsSkipped),
		zap.Duration("duration", time.Since(start)))

	return report, nil
}

func (p *Pipeline) document(ctx context.Context, req Request) (model.Document, error) {
	if req.ManualText != "" {
		return model.Document{
			URL:       req.URL,
			Text:      p.content.Clean(req.ManualText),
			FetchedAt: p.now().UTC(),
		}, nil
	}
	if p.fetcher == nil {
		return model.Document{}, errors.New("no fetcher configured")
	}
	return p.fetcher.Fetch(ctx, req.URL)
}

// analyzeDocument scores authorship while extracting claims, checks the
// claims, and assembles the report. It never fails.
func (p *Pipeline) analyzeDocument(ctx context.Context, doc model.Document) *model.Report {
	var (
		assessment model.AuthorshipAssessment
		wg         sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		assessment = p.scorer.Score(ctx, doc)
	}()

	claims := p.claims.Extract(doc.Text)
	wg.Wait()

	logger.Debug("Document analyzed",
		zap.String("url", doc.URL),
		zap.Int("chars", len([]rune(doc.Text))),
		zap.Int("claims", len(claims)),
		zap.Float64("ai_score", assessment.Probability))

	checks, skipped := p.checker.CheckAll(ctx, claims, p.config.Concurrency.ClaimWorkers)
	if skipped > 0 {
		logger.Warn("Claim checks skipped at deadline",
			zap.String("url", doc.URL),
			zap.Int("skipped", skipped))
	}

	overall, falseFlags := score.Aggregate(assessment, checks)

	return &model.Report{
		ID:            uuid.NewString(),
		URL:           doc.URL,
		Timestamp:     p.now().UTC(),
		Snippet:       doc.Snippet(snippetLength),
		Authorship:    assessment,
		Claims:        checks,
		ClaimsSkipped: skipped,
		FalseFlags:    falseFlags,
		Overall:       overall,
		Config:        p.config.Snapshot(),
		Note:          model.ReportNote,
	}
}
