// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sheet2pdf/internal/acquire"
	"github.com/pdiddy/sheet2pdf/internal/container"
	"github.com/pdiddy/sheet2pdf/internal/httputil"
	"github.com/pdiddy/sheet2pdf/internal/render"
	"github.com/pdiddy/sheet2pdf/internal/sheet"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

const defaultURLColumn = "来源网址"

var renderCmd = &cobra.Command{
	Use:   "render <sheet.xlsx>",
	Short: "Print the page in each row's URL column to PDF",
	Long: `Render reads the URL column (selected by header name) of every row and
prints that page to {index}-{title}.pdf through a headless-browser container
image run with docker or podman. Known publishers (MDPI, Global Biodefense,
imec, PLOS) are reduced to their article body first; other pages lose their
navigation, sidebars, footers and ads.

Rows whose URL cell does not start with http are skipped. Pages that fail
twice are listed in failed_renders_YYYYMMDD_HHMMSS.json/.txt.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	addBatchFlags(renderCmd, "html_pdfs", render.DefaultMaxRetries, render.DefaultDelay)
	f := renderCmd.Flags()
	f.String("sheet", "", "worksheet name (default: first sheet)")
	f.String("url-column", defaultURLColumn, "header of the column holding the page URL")
	f.String("image", render.DefaultImage, "container image that prints HTML on stdin to PDF on stdout")
	f.Duration("retry-wait", render.DefaultRetryWait, "wait between render attempts")
	bindFlags(f, "render")

	rootCmd.AddCommand(renderCmd)
}

func renderConfig() types.RenderConfig {
	return types.RenderConfig{
		Image:     viper.GetString("render.image"),
		RetryWait: viper.GetDuration("render.retry_wait"),
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := fetchConfig("render", types.ModeRender)
	if err != nil {
		return err
	}
	rcfg := renderConfig()

	rows, err := sheet.Load(args[0], types.SheetConfig{
		Path:      args[0],
		Sheet:     viper.GetString("render.sheet"),
		URLColumn: viper.GetString("render.url_column"),
	})
	if err != nil {
		return fmt.Errorf("loading rows: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d row(s) from %s\n", len(rows), args[0])

	renderer, err := newRenderer(cmd, cfg, rcfg)
	if err != nil {
		return err
	}

	b, err := openBatch("render")
	if err != nil {
		return err
	}
	defer b.close()

	runner := b.runner(cmd, cfg, renderer, httputil.Constant(rcfg.RetryWait))
	runner.Links = acquire.URLColumnLinks

	_, err = runner.Run(cmd.Context(), rows, cfg.OutputDir)
	return err
}

func newRenderer(cmd *cobra.Command, cfg types.FetchConfig, rcfg types.RenderConfig) (*render.ContainerRenderer, error) {
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	client, err := newHTTPClient(cfg.HTTPConfig)
	if err != nil {
		return nil, err
	}
	r, err := render.NewContainerRenderer(cmd.Context(), rt, rcfg.Image, client, cfg.Seed)
	if err != nil {
		return nil, err
	}
	r.Cookie = cfg.Cookie
	r.Log = logger
	fmt.Fprintf(cmd.OutOrStdout(), "Rendering with %s image %s\n", rt.Name(), r.Image)
	return r, nil
}
