// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// FileMetadata is the YAML sidecar for one fetched file. Sidecars live in
// their own directory so the output directory holds only the fetched files.
type FileMetadata struct {
	RunID     string          `yaml:"run_id"`
	Mode      types.FetchMode `yaml:"mode"`
	Row       int             `yaml:"row"`
	Index     string          `yaml:"index"`
	Title     string          `yaml:"title"`
	SourceURL string          `yaml:"source_url"`
	Filename  string          `yaml:"filename"`
	Bytes     int64           `yaml:"bytes"`
	SHA256    string          `yaml:"sha256"`
	Attempts  int             `yaml:"attempts"`
	FetchedAt time.Time       `yaml:"fetched_at"`
}

// writeMetadata writes dir/{stem}.yaml for a freshly fetched target.
func writeMetadata(dir string, meta FileMetadata, pdfPath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory %s: %w", dir, err)
	}
	sum, err := fileSHA256(pdfPath)
	if err != nil {
		return err
	}
	meta.SHA256 = sum

	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	stem := strings.TrimSuffix(meta.Filename, filepath.Ext(meta.Filename))
	return os.WriteFile(filepath.Join(dir, stem+".yaml"), data, 0o644)
}

// readMetadata reads a sidecar written by writeMetadata.
func readMetadata(path string) (*FileMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta FileMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
