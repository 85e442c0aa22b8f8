// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/sheet2pdf/internal/acquire"
	"github.com/pdiddy/sheet2pdf/internal/render"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "download.output_dir", configKey("download", "output-dir"))
	assert.Equal(t, "log_file", configKey("", "log-file"))
}

func TestLedgerMode(t *testing.T) {
	assert.Equal(t, types.ModeRender, ledgerMode("ledgers/failed_renders_20260101_000000.json"))
	assert.Equal(t, types.ModeDownload, ledgerMode("failed_downloads_20260101_000000.json"))
	assert.Equal(t, types.ModeDownload, ledgerMode("custom.json"))
}

func TestApplyModeDefaults(t *testing.T) {
	setup := func(args ...string) (*viper.Viper, *pflag.FlagSet) {
		fs := pflag.NewFlagSet("retry", pflag.ContinueOnError)
		fs.Int("max-retries", acquire.DefaultMaxRetries, "")
		fs.Duration("delay", acquire.DefaultDelay, "")
		require.NoError(t, fs.Parse(args))
		v := viper.New()
		require.NoError(t, v.BindPFlag("retry.max_retries", fs.Lookup("max-retries")))
		require.NoError(t, v.BindPFlag("retry.delay", fs.Lookup("delay")))
		return v, fs
	}

	v, fs := setup()
	applyModeDefaults(v, fs, "retry", types.ModeRender)
	assert.Equal(t, render.DefaultMaxRetries, v.GetInt("retry.max_retries"))
	assert.Equal(t, render.DefaultDelay, v.GetDuration("retry.delay"))

	// Flags given on the command line win.
	v, fs = setup("--max-retries", "5")
	applyModeDefaults(v, fs, "retry", types.ModeRender)
	assert.Equal(t, 5, v.GetInt("retry.max_retries"))
	assert.Equal(t, render.DefaultDelay, v.GetDuration("retry.delay"))

	v, fs = setup()
	applyModeDefaults(v, fs, "retry", types.ModeDownload)
	assert.Equal(t, acquire.DefaultMaxRetries, v.GetInt("retry.max_retries"))
	assert.Equal(t, acquire.DefaultDelay, v.GetDuration("retry.delay"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "SHEET2PDF_RETRY_MAX_RETRIES", envKey("retry.max_retries"))
}

func TestNewHTTPClient(t *testing.T) {
	c, err := newHTTPClient(types.HTTPConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Nil(t, c.Transport)

	c, err = newHTTPClient(types.HTTPConfig{Timeout: time.Second, Proxy: "http://127.0.0.1:7890"})
	require.NoError(t, err)
	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	req := httptest.NewRequest(http.MethodGet, "https://example.org/a.pdf", nil)
	u, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7890", u.Host)

	_, err = newHTTPClient(types.HTTPConfig{Timeout: time.Second, Proxy: "ftp://x"})
	assert.Error(t, err)
}

func TestDownloadCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	book := filepath.Join(dir, "records.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"序号", "作者", "标题", "备注"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1, "a", "Found", srv.URL + "/a.pdf"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{2, "b", "Gone", srv.URL + "/missing.pdf"}))
	require.NoError(t, f.SaveAs(book))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "out")
	ledgers := filepath.Join(dir, "ledgers")
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{
		"download", book,
		"--output-dir", out,
		"--ledger-dir", ledgers,
		"--delay", "0s",
		"--max-retries", "1",
		"--secrets-dir", filepath.Join(dir, "no-secrets"),
		"--history-db", filepath.Join(dir, "history.db"),
	})

	// Per-item failures do not fail the command.
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	assert.FileExists(t, filepath.Join(out, "1-Found.pdf"))
	assert.NoFileExists(t, filepath.Join(out, "2-Gone.pdf"))
	assert.Contains(t, stdout.String(), "Batch summary: 1 downloaded, 0 skipped, 1 failed (total: 2)")

	matches, err := filepath.Glob(filepath.Join(ledgers, "failed_downloads_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.FileExists(t, filepath.Join(dir, "history.db"))
}
