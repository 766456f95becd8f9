package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/retry"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

// HuggingFaceOptions configures the hosted inference client
type HuggingFaceOptions struct {
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
	Retry      retry.Config
}

// HuggingFace calls a text-classification model on the Inference API
type HuggingFace struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	retry   retry.Config
}

type hfRequest struct {
	Inputs  string    `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NewHuggingFace creates a Hugging Face inference classifier
func NewHuggingFace(opts HuggingFaceOptions) *HuggingFace {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	retryCfg := opts.Retry
	retryCfg.Operation = "huggingface classify"
	if retryCfg.Logger == nil {
		retryCfg.Logger = logger.Log
	}

	return &HuggingFace{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   opts.Model,
		apiKey:  opts.APIKey,
		client:  client,
		retry:   retryCfg,
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

// Classify returns the top-scoring label for text
func (h *HuggingFace) Classify(ctx context.Context, text string) (Classification, error) {
	scores, err := retry.DoWithResult(ctx, h.retry, func() ([]hfLabelScore, error) {
		return h.infer(ctx, text)
	})
	if err != nil {
		return Classification{}, err
	}
	if len(scores) == 0 {
		return Classification{}, fmt.Errorf("empty classification result")
	}

	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}

	label, err := mapHFLabel(top.Label)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Label: label, Confidence: top.Score}, nil
}

func (h *HuggingFace) infer(ctx context.Context, text string) ([]hfLabelScore, error) {
	body, err := json.Marshal(hfRequest{Inputs: text, Options: hfOptions{WaitForModel: true}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retry.NewStatusError(resp, respBody)
	}

	return decodeHFScores(respBody)
}

// decodeHFScores accepts both [[{label,score}]] and [{label,score}]
func decodeHFScores(body []byte) ([]hfLabelScore, error) {
	var nested [][]hfLabelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []hfLabelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return flat, nil
}

// mapHFLabel maps detector labels onto AI/Human. LABEL_1 and "Fake" mean generated.
func mapHFLabel(raw string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "label_1", "fake", "ai", "machine", "generated", "chatgpt":
		return LabelAI, nil
	case "label_0", "real", "human":
		return LabelHuman, nil
	default:
		return "", fmt.Errorf("unrecognized classifier label: %q", raw)
	}
}
