package sentry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInitialize_Disabled(t *testing.T) {
	t.Parallel()

	// Should return nil when neither DSN nor token is set
	err := Initialize(Config{})
	if err != nil {
		t.Errorf("Expected nil error for empty config, got %v", err)
	}
}

func TestInitialize_MissingHost(t *testing.T) {
	t.Parallel()

	err := Initialize(Config{Token: "test-token", Host: ""})
	if !errors.Is(err, ErrMissingHost) {
		t.Errorf("Expected ErrMissingHost, got %v", err)
	}
}

func TestConfig_DSN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"explicit dsn wins", Config{DSN: "https://k@o1.ingest.sentry.io/42", Token: "t", Host: "h"}, "https://k@o1.ingest.sentry.io/42", false},
		{"token and host", Config{Token: "abc", Host: "errors.betterstack.com"}, "https://abc@errors.betterstack.com/1", false},
		{"token without host", Config{Token: "abc"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.cfg.dsn()
			if (err != nil) != tt.wantErr {
				t.Fatalf("dsn() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("dsn() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInitialize_ValidConfig(t *testing.T) {
	// Cannot use t.Parallel() as Sentry uses global state

	err := Initialize(Config{
		Token:       "test-token",
		Host:        "errors.betterstack.com",
		Environment: "test",
		SampleRate:  1.0,
	})
	if err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}

	if !IsEnabled() {
		t.Error("Expected IsEnabled() to return true after initialization")
	}

	Flush(time.Second)
}

func TestCaptureExceptionWithTags_NilError(t *testing.T) {
	t.Parallel()

	// Should not panic or send anything
	CaptureExceptionWithTags(context.Background(), nil, map[string]string{"component": "test"})
}

func TestFlush(t *testing.T) {
	t.Parallel()

	// Flush should complete quickly when there are no events
	result := Flush(100 * time.Millisecond)
	if !result {
		t.Error("Expected Flush to return true when no events pending")
	}
}
