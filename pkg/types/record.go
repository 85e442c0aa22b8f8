// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
)

// Row is one record of the input spreadsheet.
type Row struct {
	// Number is the 1-based data row position (header excluded), as shown to the operator.
	Number int `json:"row" yaml:"row"`

	// Index is the stringified first column.
	Index string `json:"index" yaml:"index"`

	// Title is the third column. It may contain characters that are unsafe in filenames.
	Title string `json:"title" yaml:"title"`

	// Remark is the free-text column holding zero or more URLs. Absent cells are "".
	Remark string `json:"remark,omitempty" yaml:"remark,omitempty"`
}

// ExtractedLink is one URL found in a row. Position is 1-based in extraction
// order; Total is the number of URLs the row yielded.
type ExtractedLink struct {
	Row      Row
	URL      string
	Position int
	Total    int
}

// FetchTarget is one concrete (URL, destination file) pair to retrieve.
type FetchTarget struct {
	URL        string
	Filename   string
	OutputDir  string
	OutputPath string

	// Row and Position identify where the target came from, for reporting.
	Row      Row
	Position int
}

// NewFetchTarget joins outputDir and filename into a target for url.
func NewFetchTarget(link ExtractedLink, filename, outputDir string) FetchTarget {
	return FetchTarget{
		URL:        link.URL,
		Filename:   filename,
		OutputDir:  outputDir,
		OutputPath: filepath.Join(outputDir, filename),
		Row:        link.Row,
		Position:   link.Position,
	}
}

// FetchStatus is the tag of a FetchOutcome.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchSkipped FetchStatus = "skipped"
	FetchFailed  FetchStatus = "failed"
)

// FetchOutcome is the result of processing one FetchTarget.
type FetchOutcome struct {
	Status FetchStatus

	// Attempts is the number of request cycles made. Zero for skips.
	Attempts int

	// Bytes is the size of the file at the target path after the fetch.
	Bytes int64

	// Err is the last error seen. Set only when Status is FetchFailed.
	Err error
}

// OK reports whether the outcome counts towards the success total.
func (o FetchOutcome) OK() bool {
	return o.Status == FetchSuccess || o.Status == FetchSkipped
}

// Reason returns the failure message, or "" when the outcome is not a failure.
func (o FetchOutcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// FailureRecord is one entry of the failure ledger. It is never modified after creation.
type FailureRecord struct {
	RowNumber int    `json:"行号" yaml:"row"`
	Index     string `json:"序号" yaml:"index"`
	Title     string `json:"标题" yaml:"title"`
	URL       string `json:"链接" yaml:"url"`
	Filename  string `json:"文件名" yaml:"filename"`
	Error     string `json:"错误" yaml:"error"`
}

// NewFailureRecord captures a failed outcome for target.
func NewFailureRecord(target FetchTarget, outcome FetchOutcome) FailureRecord {
	return FailureRecord{
		RowNumber: target.Row.Number,
		Index:     target.Row.Index,
		Title:     target.Row.Title,
		URL:       target.URL,
		Filename:  target.Filename,
		Error:     outcome.Reason(),
	}
}

// String renders the record on one line for logs.
func (r FailureRecord) String() string {
	return fmt.Sprintf("row %d [%s] %s -> %s: %s", r.RowNumber, r.Index, r.URL, r.Filename, r.Error)
}
