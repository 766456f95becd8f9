package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/realcheck/internal/llm"
	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/retry"
)

const llmSystemPrompt = `You judge whether a passage was written by a language model or by a person.
Reply with a single JSON object and nothing else: {"label": "AI" or "Human", "confidence": number between 0 and 1}.`

// LLMClassifier asks a chat model to label text
type LLMClassifier struct {
	provider llm.Provider
	retry    retry.Config
}

// NewLLMClassifier wraps an LLM provider as an authorship classifier.
// Transient provider failures are retried within retryCfg's budget.
func NewLLMClassifier(provider llm.Provider, retryCfg retry.Config) *LLMClassifier {
	retryCfg.Retryable = llm.IsTransient
	retryCfg.Operation = "llm classify"
	if retryCfg.Logger == nil {
		retryCfg.Logger = logger.Log
	}
	return &LLMClassifier{provider: provider, retry: retryCfg}
}

func (c *LLMClassifier) Name() string { return "llm:" + c.provider.Name() }

// Classify sends text to the model and parses its JSON verdict
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	resp, err := retry.DoWithResult(ctx, c.retry, func() (*llm.CompletionResponse, error) {
		return c.provider.Complete(ctx, llm.CompletionRequest{
			System:    llmSystemPrompt,
			Prompt:    "Passage:\n\n" + text,
			MaxTokens: 50,
		})
	})
	if err != nil {
		return Classification{}, fmt.Errorf("llm classify: %w", err)
	}
	return parseLLMVerdict(resp.Text)
}

func parseLLMVerdict(reply string) (Classification, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Classification{}, fmt.Errorf("no JSON object in classifier reply: %q", reply)
	}

	var raw struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return Classification{}, fmt.Errorf("parse classifier reply: %w", err)
	}

	var label Label
	switch strings.ToLower(strings.TrimSpace(raw.Label)) {
	case "ai":
		label = LabelAI
	case "human":
		label = LabelHuman
	default:
		return Classification{}, fmt.Errorf("unrecognized classifier label: %q", raw.Label)
	}

	if raw.Confidence < 0 || raw.Confidence > 1 {
		return Classification{}, fmt.Errorf("classifier confidence out of range: %v", raw.Confidence)
	}

	return Classification{Label: label, Confidence: raw.Confidence}, nil
}
