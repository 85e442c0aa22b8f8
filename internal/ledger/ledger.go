// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger writes and reads the failure ledger: the pair of files that
// list every target which exhausted its retries, for manual or scripted
// re-submission.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// DefaultPrefix names ledger files when the caller gives no prefix.
const DefaultPrefix = "failed_downloads"

// timestampLayout is YYYYMMDD_HHMMSS.
const timestampLayout = "20060102_150405"

const rule = "--------------------------------------------------"

// Paths are the files written for one ledger.
type Paths struct {
	JSON string
	Text string
}

// Empty reports whether nothing was written.
func (p Paths) Empty() bool {
	return p.JSON == "" && p.Text == ""
}

// Write stores records as {prefix}_{timestamp}.json and .txt in dir. With no
// records it writes nothing and returns empty Paths.
func Write(dir, prefix string, now time.Time, records []types.FailureRecord) (Paths, error) {
	if len(records) == 0 {
		return Paths{}, nil
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating ledger directory %s: %w", dir, err)
	}

	base := filepath.Join(dir, prefix+"_"+now.Format(timestampLayout))
	paths := Paths{JSON: base + ".json", Text: base + ".txt"}

	data, err := encodeJSON(records)
	if err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(paths.JSON, data, 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing %s: %w", paths.JSON, err)
	}
	if err := os.WriteFile(paths.Text, []byte(FormatText(records)), 0o644); err != nil {
		return Paths{JSON: paths.JSON}, fmt.Errorf("writing %s: %w", paths.Text, err)
	}
	return paths, nil
}

// encodeJSON renders records as an indented array. HTML escaping is off so
// URLs with query strings stay readable.
func encodeJSON(records []types.FailureRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding ledger: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatText renders one block per record followed by a rule line.
func FormatText(records []types.FailureRecord) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "行号: %d\n", r.RowNumber)
		fmt.Fprintf(&b, "序号: %s\n", r.Index)
		fmt.Fprintf(&b, "标题: %s\n", r.Title)
		fmt.Fprintf(&b, "链接: %s\n", r.URL)
		fmt.Fprintf(&b, "文件名: %s\n", r.Filename)
		fmt.Fprintf(&b, "错误: %s\n", r.Error)
		b.WriteString(rule + "\n")
	}
	return b.String()
}

// Read loads the records of a JSON ledger.
func Read(path string) ([]types.FailureRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	var records []types.FailureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing ledger %s: %w", path, err)
	}
	return records, nil
}

// Targets rebuilds fetch targets from ledger records, keeping the recorded
// filenames so a re-drive lands on the same paths.
func Targets(records []types.FailureRecord, outputDir string) []types.FetchTarget {
	targets := make([]types.FetchTarget, 0, len(records))
	for _, r := range records {
		targets = append(targets, types.FetchTarget{
			URL:        r.URL,
			Filename:   r.Filename,
			OutputDir:  outputDir,
			OutputPath: filepath.Join(outputDir, r.Filename),
			Row:        types.Row{Number: r.RowNumber, Index: r.Index, Title: r.Title},
		})
	}
	return targets
}
