// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sheet2pdf/internal/acquire"
	"github.com/pdiddy/sheet2pdf/internal/sheet"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download <sheet.xlsx>",
	Short: "Download the file links found in each row's remarks",
	Long: `Download reads the spreadsheet (index in column 1, title in column 3,
remarks in the last column), extracts every http(s) URL from the remarks and
saves each one as {index}-{title}.pdf, or {index}-{title}-{n}.pdf when a row
has several links. Files that already exist are skipped.

Each target is tried up to --max-retries times with exponential backoff
(1s, 2s, 4s...). Targets that still fail are listed in
failed_downloads_YYYYMMDD_HHMMSS.json/.txt in --ledger-dir.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	addBatchFlags(downloadCmd, "downloads", acquire.DefaultMaxRetries, acquire.DefaultDelay)
	downloadCmd.Flags().String("sheet", "", "worksheet name (default: first sheet)")
	downloadCmd.Flags().Bool("cell-links", false, "also use hyperlinks attached to the remarks cells")
	bindFlags(downloadCmd.Flags(), "download")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := fetchConfig("download", types.ModeDownload)
	if err != nil {
		return err
	}

	rows, err := sheet.Load(args[0], types.SheetConfig{
		Path:         args[0],
		Sheet:        viper.GetString("download.sheet"),
		IncludeLinks: viper.GetBool("download.cell_links"),
	})
	if err != nil {
		return fmt.Errorf("loading rows: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d row(s) from %s\n", len(rows), args[0])

	client, err := newHTTPClient(cfg.HTTPConfig)
	if err != nil {
		return err
	}
	dl := acquire.NewHTTPDownloader(client, cfg.Seed)
	dl.Cookie = cfg.Cookie

	b, err := openBatch("download")
	if err != nil {
		return err
	}
	defer b.close()

	runner := b.runner(cmd, cfg, dl, nil)
	_, err = runner.Run(cmd.Context(), rows, cfg.OutputDir)
	return err
}
