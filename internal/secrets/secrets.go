// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Recognized keys: proxy-url, cookie.
package secrets

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Key files read by the fetchers.
const (
	KeyProxyURL = "proxy-url"
	KeyCookie   = "cookie"
)

// DefaultDir is where Load looks when no directory is configured.
const DefaultDir = ".secrets"

// Credentials are the secrets the fetchers use.
type Credentials struct {
	// ProxyURL routes every request through an HTTP or SOCKS5 proxy.
	ProxyURL string

	// Cookie is sent verbatim with every request.
	Cookie string
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// FromMap picks the recognized keys out of m and validates them.
func FromMap(m map[string]string) (Credentials, error) {
	c := Credentials{
		ProxyURL: m[KeyProxyURL],
		Cookie:   m[KeyCookie],
	}
	if c.ProxyURL != "" {
		if _, err := ParseProxy(c.ProxyURL); err != nil {
			return Credentials{}, err
		}
	}
	return c, nil
}

// ParseProxy accepts http, https, socks5 and socks5h proxy URLs.
func ParseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("invalid proxy URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: missing host", raw)
	}
	return u, nil
}
