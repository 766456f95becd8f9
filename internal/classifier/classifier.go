package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/realcheck/internal/llm"
	"github.com/ppiankov/realcheck/internal/metrics"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/retry"
	"github.com/ppiankov/realcheck/internal/util"
)

// ErrDisabled is returned by the no-op classifier
var ErrDisabled = errors.New("authorship classifier disabled")

// Label is the binary authorship label
type Label string

const (
	LabelAI    Label = "AI"
	LabelHuman Label = "Human"
)

// Classification is one chunk's label with the classifier's confidence in it
type Classification struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier labels a text chunk as machine- or human-written
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (Classification, error)
}

// Disabled always fails with ErrDisabled, so every chunk takes the neutral fallback
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Classify(context.Context, string) (Classification, error) {
	return Classification{}, ErrDisabled
}

// New builds the configured classifier wrapped with request metrics
func New(cfg *model.Config) (Classifier, error) {
	var c Classifier

	switch strings.ToLower(cfg.Classifier.Provider) {
	case "", "none":
		return Disabled{}, nil

	case "huggingface", "hf":
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.Classifier.MaxAttempts
		c = NewHuggingFace(HuggingFaceOptions{
			BaseURL: cfg.Classifier.BaseURL,
			Model:   cfg.Classifier.Model,
			APIKey:  cfg.Classifier.APIKey,
			HTTPClient: util.NewHTTPClient(util.ClientOptions{
				Timeout:     cfg.Classifier.Timeout,
				InsecureTLS: cfg.HTTP.InsecureTLS,
				HTTPProxy:   cfg.HTTP.HTTPProxy,
				HTTPSProxy:  cfg.HTTP.HTTPSProxy,
				NoProxy:     cfg.HTTP.NoProxy,
			}),
			Retry: retryCfg,
		})

	case "llm":
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
		if err != nil {
			return nil, fmt.Errorf("create LLM classifier: %w", err)
		}
		if provider == nil {
			return nil, fmt.Errorf("classifier provider llm requires llm.provider to be set")
		}
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.Classifier.MaxAttempts
		c = NewLLMClassifier(provider, retryCfg)

	default:
		return nil, fmt.Errorf("unknown classifier provider: %s (supported: huggingface, llm, none)", cfg.Classifier.Provider)
	}

	return &instrumented{next: c}, nil
}

type instrumented struct {
	next Classifier
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Classify(ctx context.Context, text string) (Classification, error) {
	result, err := i.next.Classify(ctx, text)
	metrics.ClassifierRequests.WithLabelValues(i.next.Name(), metrics.Status(err)).Inc()
	return result, err
}
