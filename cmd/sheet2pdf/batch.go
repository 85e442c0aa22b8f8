// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/sheet2pdf/internal/acquire"
	"github.com/pdiddy/sheet2pdf/internal/history"
	"github.com/pdiddy/sheet2pdf/internal/httputil"
	"github.com/pdiddy/sheet2pdf/internal/secrets"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

const defaultTimeout = 30 * time.Second

// addBatchFlags registers the flags every batch command shares.
func addBatchFlags(cmd *cobra.Command, outputDir string, maxRetries int, delay time.Duration) {
	f := cmd.Flags()
	f.String("output-dir", outputDir, "directory for the PDF files")
	f.Int("max-retries", maxRetries, "attempts per target")
	f.Duration("timeout", defaultTimeout, "timeout of one request attempt")
	f.Duration("delay", delay, "pause after every target")
	f.String("ledger-dir", ".", "directory for failure ledgers")
	f.String("metadata-dir", "", "write a YAML sidecar per fetched file to this directory")
	f.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	f.String("history-db", "", "record the run in this SQLite database")
	f.Int64("seed", 0, "seed for the retry identity picker (0: time-based)")
}

// fetchConfig reads the shared batch settings of section from viper.
func fetchConfig(section string, mode types.FetchMode) (types.FetchConfig, error) {
	key := func(flag string) string { return configKey(section, flag) }

	proxy := viper.GetString("proxy")
	if proxy == "" {
		proxy = creds.ProxyURL
	}

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout: viper.GetDuration(key("timeout")),
			Proxy:   proxy,
			Cookie:  creds.Cookie,
		},
		Mode:        mode,
		OutputDir:   viper.GetString(key("output-dir")),
		MaxRetries:  viper.GetInt(key("max-retries")),
		Delay:       viper.GetDuration(key("delay")),
		LedgerDir:   viper.GetString(key("ledger-dir")),
		MetadataDir: viper.GetString(key("metadata-dir")),
		Seed:        viper.GetInt64(key("seed")),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid %s settings: %w", section, err)
	}
	return cfg, nil
}

// newHTTPClient applies the per-attempt timeout and the optional proxy.
func newHTTPClient(cfg types.HTTPConfig) (*http.Client, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Proxy == "" {
		return client, nil
	}
	u, err := secrets.ParseProxy(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(u)
	client.Transport = transport
	return client, nil
}

// batch holds what one command run needs beyond the fetcher.
type batch struct {
	section     string
	metrics     *acquire.Metrics
	history     *history.Store
	metricsFile string
}

func openBatch(section string) (*batch, error) {
	b := &batch{
		section:     section,
		metrics:     acquire.NewMetrics(),
		metricsFile: viper.GetString(configKey(section, "metrics-file")),
	}
	if path := viper.GetString(configKey(section, "history-db")); path != "" {
		store, err := history.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		b.history = store
	}
	return b, nil
}

// runner assembles the executor and runner for cfg around m. A nil backoff
// means exponential.
func (b *batch) runner(cmd *cobra.Command, cfg types.FetchConfig, m acquire.Materializer, backoff httputil.Backoff) *acquire.Runner {
	out := cmd.OutOrStdout()
	log := logger.With(zap.String("mode", string(cfg.Mode)))

	ex := &acquire.Executor{
		Materializer: m,
		MaxRetries:   cfg.MaxRetries,
		Backoff:      backoff,
		Metrics:      b.metrics,
		Log:          log,
		Out:          out,
	}
	r := &acquire.Runner{
		Fetcher:     ex,
		Mode:        cfg.Mode,
		Delay:       cfg.Delay,
		LedgerDir:   cfg.LedgerDir,
		MetadataDir: cfg.MetadataDir,
		Metrics:     b.metrics,
		Log:         log,
		Out:         out,
	}
	if b.history != nil {
		r.Recorder = b.history
	}
	return r
}

// close writes the metrics file and releases the history database.
func (b *batch) close() {
	if err := b.metrics.WriteFile(b.metricsFile); err != nil {
		logger.Warn("metrics not written", zap.String("path", b.metricsFile), zap.Error(err))
	}
	if b.history != nil {
		if err := b.history.Close(); err != nil {
			logger.Warn("closing history", zap.Error(err))
		}
	}
}
