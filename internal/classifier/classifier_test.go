package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/realcheck/internal/llm"
	"github.com/ppiankov/realcheck/internal/model"
	"github.com/ppiankov/realcheck/internal/retry"
)

func fastRetry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	return cfg
}

func TestHuggingFace_Classify(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLabel Label
		wantConf  float64
	}{
		{"nested fake", `[[{"label":"Fake","score":0.91},{"label":"Real","score":0.09}]]`, LabelAI, 0.91},
		{"nested real", `[[{"label":"Real","score":0.8},{"label":"Fake","score":0.2}]]`, LabelHuman, 0.8},
		{"flat label_1", `[{"label":"LABEL_0","score":0.3},{"label":"LABEL_1","score":0.7}]`, LabelAI, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/models/openai-community/roberta-base-openai-detector" {
					t.Errorf("Unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer hf-test" {
					t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
				}
				var req hfRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Inputs != "some text" {
					t.Errorf("Unexpected request body: %+v (%v)", req, err)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			hf := NewHuggingFace(HuggingFaceOptions{
				BaseURL: server.URL,
				Model:   "openai-community/roberta-base-openai-detector",
				APIKey:  "hf-test",
				Retry:   fastRetry(),
			})

			got, err := hf.Classify(context.Background(), "some text")
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if got.Label != tt.wantLabel || got.Confidence != tt.wantConf {
				t.Errorf("Expected %s/%v, got %s/%v", tt.wantLabel, tt.wantConf, got.Label, got.Confidence)
			}
		})
	}
}

func TestHuggingFace_RetriesTransientStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is loading"}`))
			return
		}
		_, _ = w.Write([]byte(`[[{"label":"Real","score":0.6}]]`))
	}))
	defer server.Close()

	hf := NewHuggingFace(HuggingFaceOptions{BaseURL: server.URL, Model: "m", Retry: fastRetry()})

	got, err := hf.Classify(context.Background(), "text")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if got.Label != LabelHuman {
		t.Errorf("Expected Human, got %s", got.Label)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("Expected 3 calls, got %d", n)
	}
}

func TestHuggingFace_DoesNotRetryClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	hf := NewHuggingFace(HuggingFaceOptions{BaseURL: server.URL, Model: "m", Retry: fastRetry()})

	_, err := hf.Classify(context.Background(), "text")
	var statusErr *retry.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 StatusError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected 1 call, got %d", n)
	}
}

func TestHuggingFace_UnknownLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[{"label":"POSITIVE","score":0.99}]]`))
	}))
	defer server.Close()

	hf := NewHuggingFace(HuggingFaceOptions{BaseURL: server.URL, Model: "m", Retry: fastRetry()})

	if _, err := hf.Classify(context.Background(), "text"); err == nil {
		t.Error("Expected error for unknown label")
	}
}

type fakeProvider struct {
	reply string
	err   error
	// failures are returned, in order, before reply or err
	failures []error
	calls    int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	n := int(atomic.AddInt32(&f.calls, 1))
	if n <= len(f.failures) {
		return nil, f.failures[n-1]
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.reply}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func TestLLMClassifier_Classify(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    Classification
		wantErr bool
	}{
		{"plain json", `{"label": "AI", "confidence": 0.8}`, Classification{LabelAI, 0.8}, false},
		{"wrapped in prose", "Sure.\n```json\n{\"label\":\"human\",\"confidence\":0.65}\n```", Classification{LabelHuman, 0.65}, false},
		{"no json", "It looks human to me", Classification{}, true},
		{"bad label", `{"label": "maybe", "confidence": 0.5}`, Classification{}, true},
		{"bad confidence", `{"label": "AI", "confidence": 7}`, Classification{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLLMClassifier(&fakeProvider{reply: tt.reply}, fastRetry())
			got, err := c.Classify(context.Background(), "text")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestLLMClassifier_ProviderError(t *testing.T) {
	c := NewLLMClassifier(&fakeProvider{err: errors.New("boom")}, fastRetry())
	if _, err := c.Classify(context.Background(), "text"); err == nil {
		t.Error("Expected provider error to propagate")
	}
	if c.Name() != "llm:fake" {
		t.Errorf("Unexpected name %q", c.Name())
	}
}

func TestLLMClassifier_RetriesTransientFailure(t *testing.T) {
	provider := &fakeProvider{
		reply:    `{"label": "AI", "confidence": 0.9}`,
		failures: []error{&retry.StatusError{StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable"}},
	}
	c := NewLLMClassifier(provider, fastRetry())

	got, err := c.Classify(context.Background(), "text")
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if got != (Classification{LabelAI, 0.9}) {
		t.Errorf("Unexpected classification %+v", got)
	}
	if calls := atomic.LoadInt32(&provider.calls); calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestLLMClassifier_RetryBudget(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int32
	}{
		{"rate limited", &retry.StatusError{StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests"}, 3},
		{"bad request", &retry.StatusError{StatusCode: http.StatusBadRequest, Status: "400 Bad Request"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{err: tt.err}
			c := NewLLMClassifier(provider, fastRetry())

			if _, err := c.Classify(context.Background(), "text"); err == nil {
				t.Fatal("Expected error")
			}
			if calls := atomic.LoadInt32(&provider.calls); calls != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, calls)
			}
		})
	}
}

func TestNew(t *testing.T) {
	cfg := model.DefaultConfig()

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Expected default classifier, got %v", err)
	}
	if c.Name() != "huggingface" {
		t.Errorf("Expected huggingface, got %s", c.Name())
	}

	cfg.Classifier.Provider = "none"
	c, err = New(cfg)
	if err != nil {
		t.Fatalf("Expected disabled classifier, got %v", err)
	}
	if _, err := c.Classify(context.Background(), "x"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}

	cfg.Classifier.Provider = "llm"
	if _, err := New(cfg); err == nil {
		t.Error("Expected error when llm classifier has no LLM provider")
	}

	cfg.Classifier.Provider = "crystal-ball"
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
