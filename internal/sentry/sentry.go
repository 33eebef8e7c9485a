// Package sentry initializes the Sentry SDK for error tracking.
//
// Events can go to any Sentry-compatible backend. A full DSN takes
// precedence; otherwise a Better Stack style token and ingesting host are
// combined into one.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN is a complete Sentry DSN. When set, Token and Host are ignored.
	DSN string

	// Token is the Better Stack Errors application token.
	Token string

	// Host is the Better Stack Errors ingesting host (e.g., "errors.betterstack.com").
	Host string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// ErrMissingHost is returned when a token is configured without a host.
var ErrMissingHost = errors.New("sentry host is required when token is provided")

// Enabled reports whether cfg carries enough to build a DSN.
func (c Config) Enabled() bool {
	return c.DSN != "" || c.Token != ""
}

// dsn resolves the DSN to use. The project ID (/1) is required by the SDK
// but ignored by Better Stack.
func (c Config) dsn() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	if c.Host == "" {
		return "", ErrMissingHost
	}
	return fmt.Sprintf("https://%s@%s/1", c.Token, c.Host), nil
}

// Initialize sets up the Sentry SDK.
// If neither DSN nor Token is set, Sentry is disabled and nil is returned.
func Initialize(cfg Config) error {
	if !cfg.Enabled() {
		return nil
	}

	dsn, err := cfg.dsn()
	if err != nil {
		return err
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException captures an error and sends it to Sentry.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext captures an error using the hub bound to ctx,
// falling back to the current hub.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hubFrom(ctx).CaptureException(err)
}

// CaptureExceptionWithTags captures an error with tags attached to the
// event only.
func CaptureExceptionWithTags(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := hubFrom(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetLevel(sentry.LevelError)
		hub.CaptureException(err)
	})
}

// CaptureMessage captures a message and sends it to Sentry.
func CaptureMessage(message string) {
	sentry.CaptureMessage(message)
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			return hub
		}
	}
	return sentry.CurrentHub()
}
