package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/realcheck/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system+user exchange and returns the model's reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	System    string
	Prompt    string
	Model     string // Overrides Config.Model when set
	MaxTokens int    // Overrides Config.MaxTokens when set
}

// CompletionResponse is the provider's reply
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence rejects summaries citing URLs outside the report
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Model:          "",
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      1000,
	}
}

const summarySystemPrompt = "You are a careful assistant that summarizes RealCheck misinformation reports with strict adherence to evidence constraints."

// BuildPrompt constructs the summarization prompt. The model may only cite evidenceURLs.
func BuildPrompt(report model.Report, evidenceURLs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are summarizing a RealCheck report. RealCheck estimates whether an article was machine-written and cross-checks its claims against web search results. Its verdicts are heuristics, not findings of fact.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. If evidence is insufficient or missing, state that explicitly.
4. Describe what the search results suggest. Never declare the article itself true or false.

Report Summary:
- URL: %s
- AI Score: %.2f (%s)
- Claims Checked: %d
- Claims Skipped: %d
- False Flags: %d
- Overall: %s

Claim Verdicts:
`, joinURLs(evidenceURLs), report.URL, report.Authorship.Probability, report.Authorship.Verdict,
		len(report.Claims), report.ClaimsSkipped, report.FalseFlags, report.Overall)

	if len(report.Claims) == 0 {
		b.WriteString("- (no claims extracted)\n")
	}
	for _, check := range report.Claims {
		fmt.Fprintf(&b, "- %q: %s (support %d, challenge %d)\n",
			check.Claim, check.Verdict, check.SupportCount, check.ChallengeCount)
	}

	b.WriteString("\nProvide a 3-4 sentence summary of the evidence picture, not a ruling on truth.")

	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No evidence URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

func resolveModel(reqModel, configModel, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	if configModel != "" {
		return configModel
	}
	return fallback
}

func resolveMaxTokens(reqMax, configMax int) int {
	if reqMax > 0 {
		return reqMax
	}
	if configMax > 0 {
		return configMax
	}
	return 1000
}
