package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/model"
)

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]>"']+`)

// Summarizer produces the optional LLM summary attached to a report.
// It never changes verdicts; failures surface as warnings.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer. A disabled provider yields a summarizer
// whose GenerateSummary always returns nil.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary summarizes report. It returns (nil, nil) when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:       s.provider.Name(),
		Model:          s.config.Model,
		StrictEvidence: s.config.StrictEvidence,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available (check API key or connectivity)", s.provider.Name()))
		return summary, nil
	}
	summary.Enabled = true

	evidenceURLs := report.AllLinks()
	resp, err := s.provider.Complete(ctx, CompletionRequest{
		System:    summarySystemPrompt,
		Prompt:    BuildPrompt(report, evidenceURLs),
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		logger.Warn("LLM summary failed", zap.String("provider", s.provider.Name()), zap.Error(err))
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}
	if resp.Model != "" {
		summary.Model = resp.Model
	}

	cited := extractURLs(resp.Text)
	if s.config.StrictEvidence {
		if leaked := disallowedURLs(cited, evidenceURLs); len(leaked) > 0 {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("Summary rejected: CITATION LEAK, LLM cited disallowed URLs: %s", strings.Join(leaked, ", ")))
			return summary, nil
		}
	}

	summary.SummaryMD = resp.Text
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if len(cited) > 0 {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Verified %d citations against report evidence", len(cited)))
	}

	return summary, nil
}

// RenderSeparateMarkdown renders the summary as its own markdown document
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** Verdicts in the main report were determined independently of this summary.\n\n")
	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Evidence Mode:** %t\n\n", summary.StrictEvidence)

	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

// extractURLs returns the distinct http(s) URLs in text, trailing punctuation trimmed
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, url := range urlPattern.FindAllString(text, -1) {
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}
	return unique
}

func disallowedURLs(cited, allowed []string) []string {
	ok := make(map[string]bool, len(allowed))
	for _, u := range allowed {
		ok[u] = true
	}
	var leaked []string
	for _, u := range cited {
		if !ok[u] {
			leaked = append(leaked, u)
		}
	}
	return leaked
}
