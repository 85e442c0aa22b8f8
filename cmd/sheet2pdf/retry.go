// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/sheet2pdf/internal/acquire"
	"github.com/pdiddy/sheet2pdf/internal/httputil"
	"github.com/pdiddy/sheet2pdf/internal/ledger"
	"github.com/pdiddy/sheet2pdf/internal/render"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

var retryCmd = &cobra.Command{
	Use:   "retry <ledger.json>",
	Short: "Re-drive the targets of a failure ledger",
	Long: `Retry loads a JSON failure ledger and fetches its targets again under the
recorded filenames. Ledgers named failed_renders_* are rendered; all others
are downloaded. What still fails goes to a new ledger.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func init() {
	addBatchFlags(retryCmd, "", acquire.DefaultMaxRetries, acquire.DefaultDelay)
	bindFlags(retryCmd.Flags(), "retry")

	rootCmd.AddCommand(retryCmd)
}

// ledgerMode infers the mode that produced a ledger from its filename.
func ledgerMode(path string) types.FetchMode {
	if strings.HasPrefix(filepath.Base(path), "failed_renders") {
		return types.ModeRender
	}
	return types.ModeDownload
}

// applyModeDefaults switches the attempt count and delay of section to the
// render policy for a render ledger. Values set by flag, config file or
// environment are kept.
func applyModeDefaults(v *viper.Viper, fs *pflag.FlagSet, section string, mode types.FetchMode) {
	if mode != types.ModeRender {
		return
	}
	defaults := []struct {
		flag  string
		value any
	}{
		{"max-retries", render.DefaultMaxRetries},
		{"delay", render.DefaultDelay},
	}
	for _, d := range defaults {
		key := configKey(section, d.flag)
		if fs.Changed(d.flag) || v.InConfig(key) {
			continue
		}
		if _, ok := os.LookupEnv(envKey(key)); ok {
			continue
		}
		v.Set(key, d.value)
	}
}

// envKey is the environment variable viper reads for key.
func envKey(key string) string {
	return "SHEET2PDF_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func runRetry(cmd *cobra.Command, args []string) error {
	records, err := ledger.Read(args[0])
	if err != nil {
		return err
	}

	mode := ledgerMode(args[0])
	applyModeDefaults(viper.GetViper(), cmd.Flags(), "retry", mode)
	if viper.GetString("retry.output_dir") == "" {
		dir := "downloads"
		if mode == types.ModeRender {
			dir = "html_pdfs"
		}
		viper.Set("retry.output_dir", dir)
	}

	cfg, err := fetchConfig("retry", mode)
	if err != nil {
		return err
	}
	targets := ledger.Targets(records, cfg.OutputDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d target(s) from %s\n", len(targets), args[0])

	var (
		m       acquire.Materializer
		backoff httputil.Backoff
	)
	if mode == types.ModeRender {
		rcfg := renderConfig()
		r, err := newRenderer(cmd, cfg, rcfg)
		if err != nil {
			return err
		}
		m, backoff = r, httputil.Constant(rcfg.RetryWait)
	} else {
		client, err := newHTTPClient(cfg.HTTPConfig)
		if err != nil {
			return err
		}
		dl := acquire.NewHTTPDownloader(client, cfg.Seed)
		dl.Cookie = cfg.Cookie
		m = dl
	}

	b, err := openBatch("retry")
	if err != nil {
		return err
	}
	defer b.close()

	_, err = b.runner(cmd, cfg, m, backoff).RunTargets(cmd.Context(), targets, cfg.OutputDir)
	return err
}
