// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/sheet2pdf/internal/httputil"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// DefaultMaxRetries is the number of request cycles per target when none is configured.
const DefaultMaxRetries = 3

// Materializer writes the resource behind rawURL to w. attempt is 0-based
// and lets implementations vary their client identity between retries.
type Materializer interface {
	Materialize(ctx context.Context, rawURL string, attempt int, w io.Writer) error
}

// Fetcher turns one target into a file on disk.
type Fetcher interface {
	Fetch(ctx context.Context, target types.FetchTarget) types.FetchOutcome
}

// Executor is the retrying Fetcher. It skips targets that already exist
// with non-zero size, writes each attempt to a temporary file in the output
// directory and renames it into place only once it is known to be non-empty.
type Executor struct {
	Materializer Materializer

	// MaxRetries is the number of attempts per target (default 3).
	MaxRetries int

	// Backoff is the wait after a failed attempt (default httputil.Exponential).
	Backoff httputil.Backoff

	// Sleep waits between attempts (default httputil.Sleep).
	Sleep httputil.SleepFunc

	Metrics *Metrics
	Log     *zap.Logger

	// Out receives per-attempt progress lines. Nil discards them.
	Out io.Writer
}

// Fetch processes target and reports the outcome. It never returns an
// error: every failure is folded into a FetchFailed outcome.
func (e *Executor) Fetch(ctx context.Context, target types.FetchTarget) types.FetchOutcome {
	log := e.logger().With(zap.String("url", target.URL), zap.String("file", target.Filename))

	if err := os.MkdirAll(target.OutputDir, 0o755); err != nil {
		return types.FetchOutcome{
			Status: types.FetchFailed,
			Err:    fmt.Errorf("creating directory %s: %w", target.OutputDir, err),
		}
	}

	if info, err := os.Stat(target.OutputPath); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		log.Debug("target exists, skipping", zap.Int64("bytes", info.Size()))
		return types.FetchOutcome{Status: types.FetchSkipped, Bytes: info.Size()}
	}

	maxRetries := e.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoff := e.Backoff
	if backoff == nil {
		backoff = httputil.Exponential
	}
	sleep := e.Sleep
	if sleep == nil {
		sleep = httputil.Sleep
	}
	w := e.Out
	if w == nil {
		w = io.Discard
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxRetries; attempt++ {
		attempts++
		n, err := e.attempt(ctx, target, attempt)
		if err == nil {
			log.Info("fetched", zap.Int("attempt", attempt+1), zap.Int64("bytes", n))
			return types.FetchOutcome{Status: types.FetchSuccess, Attempts: attempts, Bytes: n}
		}

		lastErr = err
		kind := httputil.KindOf(err)
		e.Metrics.IncError(kind)
		log.Warn("attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
			zap.Stringer("kind", kind),
			zap.Error(err),
		)
		fmt.Fprintf(w, "    attempt %d/%d failed: %v\n", attempt+1, maxRetries, err)

		if ctx.Err() != nil || attempt == maxRetries-1 {
			break
		}

		wait := backoff(attempt)
		e.Metrics.IncRetries()
		fmt.Fprintf(w, "    retrying in %v\n", wait)
		if err := sleep(ctx, wait); err != nil {
			lastErr = fmt.Errorf("%w (retry abandoned: %v)", lastErr, err)
			break
		}
	}

	return types.FetchOutcome{Status: types.FetchFailed, Attempts: attempts, Err: lastErr}
}

// attempt runs one request cycle into a temp file and renames it onto the
// target path. It returns the final size.
func (e *Executor) attempt(ctx context.Context, target types.FetchTarget, attempt int) (int64, error) {
	tmpFile, err := os.CreateTemp(target.OutputDir, ".sheet2pdf-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	start := time.Now()
	fetchErr := e.Materializer.Materialize(ctx, target.URL, attempt, tmpFile)
	closeErr := tmpFile.Close()
	e.Metrics.ObserveAttempt(time.Since(start))

	if fetchErr != nil {
		os.Remove(tmpPath)
		return 0, httputil.Classify(fetchErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("checking temp file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(tmpPath)
		return 0, httputil.EmptyResponse()
	}

	if err := os.Rename(tmpPath, target.OutputPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return info.Size(), nil
}

func (e *Executor) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}
