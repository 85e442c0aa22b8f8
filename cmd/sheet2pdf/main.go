// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sheet2pdf CLI. It reads a
// spreadsheet of bibliographic records and archives each record's links as
// local PDF files, either by downloading them or by printing web pages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/sheet2pdf/internal/logging"
	"github.com/pdiddy/sheet2pdf/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built in PersistentPreRunE; closeLog flushes it.
	logger   = zap.NewNop()
	closeLog = func() {}

	// creds holds the credentials loaded from the secrets directory.
	creds secrets.Credentials
)

// rootCmd is the base command for the sheet2pdf CLI.
var rootCmd = &cobra.Command{
	Use:   "sheet2pdf",
	Short: "Archive the links of a spreadsheet as PDF files",
	Long: `sheet2pdf walks a spreadsheet of bibliographic records and saves every
linked document as a PDF named after the record's index and title.

download fetches file links found in the remarks column; render prints the
page in a URL column through a headless-browser container. Targets that keep
failing are written to a timestamped failure ledger that retry can re-drive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, closeLog = logging.Setup(logging.Options{
			File:    viper.GetString("log_file"),
			Verbose: viper.GetBool("verbose"),
		})

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		if creds, err = secrets.FromMap(s); err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./sheet2pdf.yaml or ~/.config/sheet2pdf/sheet2pdf.yaml)")
	pf.String("log-file", "", "also write JSON logs to this file, rotated")
	pf.BoolP("verbose", "v", false, "log at debug level")
	pf.String("proxy", "", "proxy URL for all requests (overrides the proxy-url secret)")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of secret files")
	bindFlags(pf, "")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sheet2pdf")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sheet2pdf"))
		}
	}

	viper.SetEnvPrefix("SHEET2PDF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags binds every flag in fs to the viper key section.flag_name, so
// "--output-dir" on download reads download.output_dir from the config
// file and SHEET2PDF_DOWNLOAD_OUTPUT_DIR from the environment.
func bindFlags(fs *pflag.FlagSet, section string) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if err := viper.BindPFlag(configKey(section, f.Name), f); err != nil {
			panic(err)
		}
	})
}

func configKey(section, flag string) string {
	key := strings.ReplaceAll(flag, "-", "_")
	if section == "" {
		return key
	}
	return section + "." + key
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}
