// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sheet2pdf/pkg/types"
)

var fixedNow = time.Date(2026, 3, 14, 9, 5, 7, 0, time.Local)

func sampleRecords() []types.FailureRecord {
	return []types.FailureRecord{
		{RowNumber: 3, Index: "12", Title: "标题/一", URL: "https://x.org/a.pdf?x=1&y=2", Filename: "12-标题_一.pdf", Error: "HTTP 500: unexpected status"},
		{RowNumber: 8, Index: "20", Title: "Second", URL: "https://y.org/b.pdf", Filename: "20-Second-2.pdf", Error: "timeout: context deadline exceeded"},
	}
}

func TestWrite_NoRecordsWritesNothing(t *testing.T) {
	dir := t.TempDir()

	paths, err := Write(dir, "", fixedNow, nil)
	require.NoError(t, err)
	assert.True(t, paths.Empty())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWrite_TimestampedPair(t *testing.T) {
	dir := t.TempDir()

	paths, err := Write(dir, "", fixedNow, sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "failed_downloads_20260314_090507.json"), paths.JSON)
	assert.Equal(t, filepath.Join(dir, "failed_downloads_20260314_090507.txt"), paths.Text)
	assert.FileExists(t, paths.JSON)
	assert.FileExists(t, paths.Text)
}

func TestWrite_JSONUsesLedgerFieldNames(t *testing.T) {
	dir := t.TempDir()
	paths, err := Write(dir, "failed_renders", fixedNow, sampleRecords())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(paths.JSON), "failed_renders_"))

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	for _, key := range []string{"行号", "序号", "标题", "链接", "文件名", "错误"} {
		assert.Contains(t, raw[0], key)
	}
	assert.Equal(t, float64(3), raw[0]["行号"])

	// Query strings are not HTML-escaped.
	assert.Contains(t, string(data), "?x=1&y=2")
	// Non-ASCII text is written as-is.
	assert.Contains(t, string(data), "标题/一")
}

func TestFormatText(t *testing.T) {
	text := FormatText(sampleRecords())

	blocks := strings.Split(strings.TrimSuffix(text, rule+"\n"), rule+"\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "行号: 3\n序号: 12\n标题: 标题/一\n链接: https://x.org/a.pdf?x=1&y=2\n文件名: 12-标题_一.pdf\n错误: HTTP 500: unexpected status\n", blocks[0])
	assert.Contains(t, blocks[1], "文件名: 20-Second-2.pdf")
}

func TestReadAndTargets(t *testing.T) {
	dir := t.TempDir()
	paths, err := Write(dir, "", fixedNow, sampleRecords())
	require.NoError(t, err)

	records, err := Read(paths.JSON)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)

	out := filepath.Join(dir, "out")
	targets := Targets(records, out)
	require.Len(t, targets, 2)
	assert.Equal(t, "https://y.org/b.pdf", targets[1].URL)
	assert.Equal(t, filepath.Join(out, "20-Second-2.pdf"), targets[1].OutputPath)
	assert.Equal(t, 8, targets[1].Row.Number)
	assert.Equal(t, "20", targets[1].Row.Index)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Read(bad)
	assert.ErrorContains(t, err, "parsing ledger")
}
