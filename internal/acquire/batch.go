// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire turns spreadsheet rows into PDF files on disk: it builds
// fetch targets from each row's links, retrieves them with retry and backoff,
// skips files that already exist, and collects failures into a ledger.
package acquire

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/sheet2pdf/internal/httputil"
	"github.com/pdiddy/sheet2pdf/internal/ledger"
	"github.com/pdiddy/sheet2pdf/internal/links"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// DefaultDelay is the pause after every fetch in download mode.
const DefaultDelay = 1 * time.Second

// LinkSource lists the links to fetch for a row.
type LinkSource func(types.Row) []types.ExtractedLink

// RemarkLinks extracts every URL in the row's remark text.
func RemarkLinks(row types.Row) []types.ExtractedLink {
	return links.ExtractRow(row)
}

// URLColumnLinks treats the row's URL cell as a single link.
func URLColumnLinks(row types.Row) []types.ExtractedLink {
	return links.FromURLs(row, links.Cell(row.Remark))
}

// Recorder receives the lifecycle of a run. The run history implements it.
type Recorder interface {
	BeginRun(ctx context.Context, runID string, mode types.FetchMode, outputDir string) error
	RecordItem(ctx context.Context, runID string, target types.FetchTarget, outcome types.FetchOutcome) error
	FinishRun(ctx context.Context, runID string, downloaded, skipped, failed int) error
}

// RunResult holds the outcome of one batch run. It is owned by the Run call
// that produced it, so several batches can run in one process.
type RunResult struct {
	RunID     string
	OutputDir string

	Downloaded int
	Skipped    int
	Failed     int

	// NoLinkRows counts rows that yielded no link. They are not failures.
	NoLinkRows int

	Failures []types.FailureRecord
	Ledger   ledger.Paths
}

// Success returns downloaded plus skipped: both count as success.
func (r *RunResult) Success() int {
	return r.Downloaded + r.Skipped
}

// Total returns the number of targets processed.
func (r *RunResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any target failed.
func (r *RunResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *RunResult) record(target types.FetchTarget, outcome types.FetchOutcome) {
	switch outcome.Status {
	case types.FetchSuccess:
		r.Downloaded++
	case types.FetchSkipped:
		r.Skipped++
	default:
		r.Failed++
		r.Failures = append(r.Failures, types.NewFailureRecord(target, outcome))
	}
}

// Runner drives a batch: rows in order, links in order, one fetch at a time.
type Runner struct {
	Fetcher Fetcher
	Mode    types.FetchMode

	// Links picks the URLs of a row (default RemarkLinks).
	Links LinkSource

	// Ext is the extension of output files (default "pdf").
	Ext string

	// Delay is the pause after every fetch, whatever its outcome.
	Delay time.Duration

	// Sleep implements Delay (default httputil.Sleep).
	Sleep httputil.SleepFunc

	// LedgerDir and LedgerPrefix place the failure ledger. Empty dir means
	// the working directory.
	LedgerDir    string
	LedgerPrefix string

	// MetadataDir, when set, receives a YAML sidecar per downloaded file.
	MetadataDir string

	Recorder Recorder
	Metrics  *Metrics
	Log      *zap.Logger

	// Out receives progress lines for the operator.
	Out io.Writer

	// Now is the clock used for ledger names and sidecars (default time.Now).
	Now func() time.Time
}

// Run processes rows into outputDir. Per-target failures never stop the
// batch; they end up in the result and the ledger. The returned error is
// non-nil only when the context is cancelled or the ledger cannot be written.
func (r *Runner) Run(ctx context.Context, rows []types.Row, outputDir string) (*RunResult, error) {
	result := r.newResult(outputDir)
	w := r.out()
	log := r.logger().With(zap.String("run_id", result.RunID))
	source := r.Links
	if source == nil {
		source = RemarkLinks
	}
	ext := r.Ext
	if ext == "" {
		ext = "pdf"
	}

	log.Info("batch started", zap.Int("rows", len(rows)), zap.String("output_dir", outputDir))

	r.begin(ctx, result)

	var runErr error
loop:
	for _, row := range rows {
		extracted := source(row)
		if len(extracted) == 0 {
			fmt.Fprintf(w, "row %d: [%s] no links found, skipping\n", row.Number, row.Index)
			log.Debug("no links", zap.Int("row", row.Number), zap.String("index", row.Index))
			result.NoLinkRows++
			continue
		}

		fmt.Fprintf(w, "\nrow %d: [%s] %s\n", row.Number, row.Index, row.Title)
		fmt.Fprintf(w, "  found %d link(s)\n", len(extracted))

		targets := BuildTargets(extracted, outputDir, ext)
		for i, target := range targets {
			if err := ctx.Err(); err != nil {
				runErr = err
				break loop
			}
			fmt.Fprintf(w, "  [%d/%d] %s: %s\n", i+1, len(targets), r.verb(), target.URL)
			r.process(ctx, result, target)
			if err := r.pause(ctx); err != nil {
				runErr = err
				break loop
			}
		}
	}

	return r.finish(ctx, result, runErr)
}

// RunTargets processes prepared targets, as when re-driving a ledger.
func (r *Runner) RunTargets(ctx context.Context, targets []types.FetchTarget, outputDir string) (*RunResult, error) {
	result := r.newResult(outputDir)
	w := r.out()
	r.begin(ctx, result)

	var runErr error
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		fmt.Fprintf(w, "[%d/%d] row %d: [%s] %s: %s\n", i+1, len(targets), target.Row.Number, target.Row.Index, r.verb(), target.URL)
		r.process(ctx, result, target)
		if err := r.pause(ctx); err != nil {
			runErr = err
			break
		}
	}

	return r.finish(ctx, result, runErr)
}

// process fetches one target and folds the outcome into result.
func (r *Runner) process(ctx context.Context, result *RunResult, target types.FetchTarget) {
	w := r.out()
	log := r.logger().With(zap.String("run_id", result.RunID), zap.Int("row", target.Row.Number))

	outcome := r.Fetcher.Fetch(ctx, target)
	result.record(target, outcome)
	r.Metrics.ObserveOutcome(outcome)

	switch outcome.Status {
	case types.FetchSuccess:
		fmt.Fprintf(w, "  done: %s (%d bytes)\n", target.Filename, outcome.Bytes)
		if r.MetadataDir != "" {
			meta := FileMetadata{
				RunID:     result.RunID,
				Mode:      r.mode(),
				Row:       target.Row.Number,
				Index:     target.Row.Index,
				Title:     target.Row.Title,
				SourceURL: target.URL,
				Filename:  target.Filename,
				Bytes:     outcome.Bytes,
				Attempts:  outcome.Attempts,
				FetchedAt: r.now().UTC(),
			}
			if err := writeMetadata(r.MetadataDir, meta, target.OutputPath); err != nil {
				fmt.Fprintf(w, "  warning: metadata not written: %v\n", err)
				log.Warn("metadata not written", zap.Error(err))
			}
		}
	case types.FetchSkipped:
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", target.Filename)
	default:
		fmt.Fprintf(w, "  failed:  %s (%s)\n", target.Filename, outcome.Reason())
		log.Error("target failed",
			zap.String("url", target.URL),
			zap.String("file", target.Filename),
			zap.Int("attempts", outcome.Attempts),
			zap.Error(outcome.Err),
		)
	}

	if r.Recorder != nil {
		if err := r.Recorder.RecordItem(ctx, result.RunID, target, outcome); err != nil {
			log.Warn("history not recorded", zap.Error(err))
		}
	}
}

// finish writes the ledger and prints the summary.
func (r *Runner) finish(ctx context.Context, result *RunResult, runErr error) (*RunResult, error) {
	w := r.out()
	log := r.logger().With(zap.String("run_id", result.RunID))

	if r.Recorder != nil {
		// The run is over even if ctx was cancelled; record it anyway.
		err := r.Recorder.FinishRun(context.WithoutCancel(ctx), result.RunID, result.Downloaded, result.Skipped, result.Failed)
		if err != nil {
			log.Warn("history not recorded", zap.Error(err))
		}
	}

	if runErr != nil {
		fmt.Fprintf(w, "\nbatch interrupted: %v\n", runErr)
	}

	paths, err := ledger.Write(r.LedgerDir, r.ledgerPrefix(), r.now(), result.Failures)
	result.Ledger = paths
	if err != nil {
		log.Error("ledger not written", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("writing failure ledger: %w", err)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(w, "Batch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	fmt.Fprintf(w, "Succeeded: %d (%d already present)\n", result.Success(), result.Skipped)
	fmt.Fprintf(w, "Failed:    %d\n", result.Failed)
	fmt.Fprintf(w, "Output:    %s\n", result.OutputDir)
	if !paths.Empty() {
		fmt.Fprintf(w, "Failure ledger:\n  %s\n  %s\n", paths.JSON, paths.Text)
	}

	log.Info("batch finished",
		zap.Int("downloaded", result.Downloaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("no_link_rows", result.NoLinkRows),
	)
	return result, runErr
}

func (r *Runner) newResult(outputDir string) *RunResult {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &RunResult{RunID: id.String(), OutputDir: outputDir}
}

func (r *Runner) begin(ctx context.Context, result *RunResult) {
	if r.Recorder == nil {
		return
	}
	if err := r.Recorder.BeginRun(ctx, result.RunID, r.mode(), result.OutputDir); err != nil {
		r.logger().Warn("history not recorded", zap.String("run_id", result.RunID), zap.Error(err))
	}
}

// pause applies the inter-request delay.
func (r *Runner) pause(ctx context.Context) error {
	if r.Delay <= 0 {
		return ctx.Err()
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = httputil.Sleep
	}
	return sleep(ctx, r.Delay)
}

func (r *Runner) verb() string {
	if r.mode() == types.ModeRender {
		return "rendering"
	}
	return "downloading"
}

func (r *Runner) mode() types.FetchMode {
	if r.Mode == "" {
		return types.ModeDownload
	}
	return r.Mode
}

func (r *Runner) ledgerPrefix() string {
	if r.LedgerPrefix != "" {
		return r.LedgerPrefix
	}
	if r.mode() == types.ModeRender {
		return "failed_renders"
	}
	return ledger.DefaultPrefix
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
