// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retry primitives shared by both fetch modes:
// backoff schedules, a cancellable sleeper, client identities and error kinds.
package httputil

import (
	"context"
	"time"
)

// RetryBaseDelay is the unit of the exponential schedule. Tests override
// this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// Backoff returns the wait that follows a failed attempt. attempt is 0-based.
type Backoff func(attempt int) time.Duration

// maxExponent caps the doubling of Exponential.
const maxExponent = 16

// Exponential waits 2^attempt × RetryBaseDelay: 1s, 2s, 4s, ... with the
// default base. The exponent stops growing at maxExponent.
func Exponential(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxExponent {
		attempt = maxExponent
	}
	return time.Duration(1<<attempt) * RetryBaseDelay
}

// Constant waits d after every failed attempt.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc. It returns ctx.Err() if the context is
// cancelled during the wait.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
