package types

import (
	"fmt"
	"time"
)

// FetchMode selects how a target is materialized.
type FetchMode string

const (
	// ModeDownload fetches linked files directly over HTTP.
	ModeDownload FetchMode = "download"
	// ModeRender renders the linked page to PDF through a headless browser.
	ModeRender FetchMode = "render"
)

// HTTPConfig holds shared HTTP settings used by both fetch modes.
type HTTPConfig struct {
	// Timeout bounds each request attempt (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Proxy is an optional proxy URL (http://, socks5://).
	Proxy string `json:"proxy,omitempty" yaml:"proxy,omitempty"`

	// Cookie is sent verbatim as the Cookie header when set.
	Cookie string `json:"-" yaml:"-"`
}

// SheetConfig describes where rows come from.
type SheetConfig struct {
	// Path is the spreadsheet file (.xlsx).
	Path string `json:"path" yaml:"path"`

	// Sheet names the worksheet. Empty means the first sheet.
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty"`

	// URLColumn selects the remarks/URL column by header name. Empty means the last column.
	URLColumn string `json:"url_column,omitempty" yaml:"url_column,omitempty"`

	// IncludeLinks appends cell hyperlinks of the remarks cell to its text.
	IncludeLinks bool `json:"include_links" yaml:"include_links"`
}

// FetchConfig holds settings for one batch run.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	Mode FetchMode `json:"mode" yaml:"mode"`

	// OutputDir receives the PDF files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MaxRetries is the number of request cycles per target (default 3 for downloads).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Delay is the pause after every fetch, whatever its outcome.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// LedgerDir receives failure ledger files (default: working directory).
	LedgerDir string `json:"ledger_dir" yaml:"ledger_dir"`

	// MetadataDir, when set, receives one YAML sidecar per fetched file.
	MetadataDir string `json:"metadata_dir,omitempty" yaml:"metadata_dir,omitempty"`

	// Seed seeds the retry identity picker. Zero means time-based.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// MaxRetriesLimit bounds the attempts per target.
const MaxRetriesLimit = 20

// Validate checks the settings a run cannot start without.
func (c FetchConfig) Validate() error {
	if c.Mode != ModeDownload && c.Mode != ModeRender {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDownload, ModeRender, c.Mode)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if c.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("max retries cannot exceed %d, got %d", MaxRetriesLimit, c.MaxRetries)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// RenderConfig holds settings for the render mode.
type RenderConfig struct {
	// Image is the container image that turns HTML on stdin into PDF on stdout.
	Image string `json:"image" yaml:"image"`

	// RetryWait is the constant wait between render attempts (default 5s).
	RetryWait time.Duration `json:"retry_wait" yaml:"retry_wait"`
}
