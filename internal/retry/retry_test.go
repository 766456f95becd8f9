package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func instantSleep(t *testing.T) {
	t.Helper()
	orig := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	t.Cleanup(func() { sleepFunc = orig })
}

func TestDo_SucceedsAfterTransientErrors(t *testing.T) {
	instantSleep(t)

	attempts := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		attempts++
		if attempts < 3 {
			return &StatusError{StatusCode: 503, Status: "503 Service Unavailable"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	instantSleep(t)

	attempts := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		attempts++
		return &StatusError{StatusCode: 404, Status: "404 Not Found"}
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for permanent error, got %d", attempts)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	instantSleep(t)

	attempts := 0
	cfg := DefaultConfig()
	cfg.MaxAttempts = 4
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return fmt.Errorf("dial: connection refused")
	})
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", attempts)
	}
}

func TestDo_NilRetryableRetriesEverything(t *testing.T) {
	instantSleep(t)

	attempts := 0
	cfg := DefaultConfig()
	cfg.Retryable = nil
	_ = Do(context.Background(), cfg, func() error {
		attempts++
		return errors.New("anything")
	})
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Do(ctx, DefaultConfig(), func() error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("Operation should not run with a cancelled context")
	}
}

func TestDoWithResult(t *testing.T) {
	instantSleep(t)

	attempts := 0
	got, err := DoWithResult(context.Background(), DefaultConfig(), func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", &StatusError{StatusCode: 429, Status: "429 Too Many Requests"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != "ok" {
		t.Errorf("Expected ok, got %q", got)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &StatusError{StatusCode: 429}, true},
		{"500", &StatusError{StatusCode: 500}, true},
		{"503 wrapped", fmt.Errorf("search: %w", &StatusError{StatusCode: 503}), true},
		{"403", &StatusError{StatusCode: 403}, false},
		{"404", &StatusError{StatusCode: 404}, false},
		{"refused", errors.New("dial tcp: connection refused"), true},
		{"reset", errors.New("read: connection reset by peer"), true},
		{"timeout text", errors.New("Client.Timeout exceeded while awaiting headers"), true},
		{"cancelled", context.Canceled, false},
		{"parse", errors.New("invalid character"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewStatusError_TruncatesBody(t *testing.T) {
	body := make([]byte, 500)
	for i := range body {
		body[i] = 'x'
	}
	err := NewStatusError(&http.Response{StatusCode: 502, Status: "502 Bad Gateway"}, body)
	if len(err.Body) != 200 {
		t.Errorf("Expected body excerpt of 200 bytes, got %d", len(err.Body))
	}
	if err.StatusCode != 502 {
		t.Errorf("Expected status 502, got %d", err.StatusCode)
	}
}

func TestDo_UsesConfiguredSleep(t *testing.T) {
	var delays []time.Duration
	cfg := Config{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		Multiplier:   2,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return errors.New("boom")
	})
	if err == nil || calls != 3 {
		t.Fatalf("Expected 3 failing calls, got %d (%v)", calls, err)
	}
	if len(delays) != 2 || delays[0] != 10*time.Millisecond || delays[1] != 20*time.Millisecond {
		t.Errorf("Unexpected backoff delays %v", delays)
	}
}
