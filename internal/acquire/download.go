// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/sheet2pdf/internal/httputil"
)

// chunkSize is the buffer used to stream response bodies to disk.
const chunkSize = 8192

// HTTPDownloader is the Materializer for direct file links.
type HTTPDownloader struct {
	Client     *http.Client
	Identities *httputil.IdentityPool

	// Cookie is sent as the Cookie header when set.
	Cookie string
}

// NewHTTPDownloader builds a downloader with the default identity pool.
func NewHTTPDownloader(client *http.Client, seed int64) *HTTPDownloader {
	return &HTTPDownloader{
		Client:     client,
		Identities: httputil.DefaultIdentityPool(seed),
	}
}

// Materialize GETs rawURL and streams a successful body into w. The first
// attempt presents the primary identity; retries draw from the pool.
func (d *HTTPDownloader) Materialize(ctx context.Context, rawURL string, attempt int, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.Identities.Pick(attempt))
	req.Header.Set("Accept", httputil.AcceptPDF)
	req.Header.Set("Accept-Language", httputil.AcceptLanguage)
	req.Header.Set("Referer", rawURL)
	if d.Cookie != "" {
		req.Header.Set("Cookie", d.Cookie)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return httputil.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, chunkSize))
		return httputil.StatusError(resp.StatusCode, rawURL)
	}

	// writerOnly hides ReadFrom so the copy really goes through buf.
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(writerOnly{w}, resp.Body, buf); err != nil {
		return httputil.Classify(fmt.Errorf("reading body: %w", err))
	}
	return nil
}

type writerOnly struct {
	io.Writer
}
