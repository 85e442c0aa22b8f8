// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render prints web pages to PDF. A page is fetched over HTTP,
// decoded to UTF-8, reduced to its article body by a per-site profile, and
// piped through a headless-browser container image that writes PDF bytes to
// stdout.
package render

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/pdiddy/sheet2pdf/internal/container"
	"github.com/pdiddy/sheet2pdf/internal/httputil"
)

// DefaultImage is the HTML-to-PDF container image.
const DefaultImage = "sheet2pdf/html2pdf:latest"

// Render retry policy: fewer attempts than downloads, constant wait.
const (
	DefaultMaxRetries = 2
	DefaultRetryWait  = 5 * time.Second
	DefaultDelay      = 2 * time.Second
)

// DefaultArgs are passed to the browser in the image. Page size and margins
// come from printCSS.
var DefaultArgs = []string{"--no-pdf-header-footer"}

// printCSS sets A4 portrait with 0.4in margins, keeps backgrounds and
// keeps pages from splitting images and tables.
const printCSS = `@page { size: A4 portrait; margin: 0.4in; } html { -webkit-print-color-adjust: exact; print-color-adjust: exact; } img, pre, table { page-break-inside: avoid; max-width: 100%; }`

// ContainerRenderer prints web pages to PDF through a container runtime. It
// is the acquire.Materializer of render mode.
type ContainerRenderer struct {
	Runtime    container.Runtime
	Image      string
	Args       []string
	Client     *http.Client
	Identities *httputil.IdentityPool
	Cookie     string
	Log        *zap.Logger
}

// NewContainerRenderer checks that image is present in rt and returns a
// renderer that fetches pages with client.
func NewContainerRenderer(ctx context.Context, rt container.Runtime, image string, client *http.Client, seed int64) (*ContainerRenderer, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("render image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerRenderer{
		Runtime:    rt,
		Image:      image,
		Args:       DefaultArgs,
		Client:     client,
		Identities: httputil.DefaultIdentityPool(seed),
	}, nil
}

// Render prints rawURL once with the primary identity, without retries.
func (r *ContainerRenderer) Render(ctx context.Context, rawURL string, w io.Writer) error {
	return r.Materialize(ctx, rawURL, 0, w)
}

// Materialize lets the retrying executor drive the renderer; attempt picks
// the client identity as it does for downloads.
func (r *ContainerRenderer) Materialize(ctx context.Context, rawURL string, attempt int, w io.Writer) error {
	doc, err := r.fetch(ctx, rawURL, attempt)
	if err != nil {
		return err
	}

	page, err := Prepare(doc, rawURL)
	if err != nil {
		return err
	}
	if r.Log != nil {
		r.Log.Debug("page prepared", zap.String("url", rawURL), zap.Int("html_bytes", len(page)))
	}

	if err := r.Runtime.Run(ctx, r.Image, r.Args, strings.NewReader(page), w); err != nil {
		return fmt.Errorf("printing %s: %w", rawURL, err)
	}
	return nil
}

// fetch downloads and parses the page, decoding its declared or sniffed charset.
func (r *ContainerRenderer) fetch(ctx context.Context, rawURL string, attempt int) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.Identities.Pick(attempt))
	req.Header.Set("Accept", httputil.AcceptHTML)
	req.Header.Set("Accept-Language", httputil.AcceptLanguage)
	req.Header.Set("Referer", rawURL)
	if r.Cookie != "" {
		req.Header.Set("Cookie", r.Cookie)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, httputil.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httputil.StatusError(resp.StatusCode, rawURL)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, httputil.Classify(fmt.Errorf("parsing %s: %w", rawURL, err))
	}
	return doc, nil
}

// Prepare cleans doc for printing: it applies the site profile, points
// relative links at rawURL and adds the print stylesheet. It returns the
// resulting HTML.
func Prepare(doc *goquery.Document, rawURL string) (string, error) {
	profile := ProfileFor(rawURL)
	profile.Clean(doc)

	// The HTML parser always creates a head element.
	head := doc.Find("head").First()
	if head.Find("base").Length() == 0 {
		head.PrependHtml(fmt.Sprintf(`<base href="%s">`, html.EscapeString(rawURL)))
	}
	// The page is re-serialized as UTF-8 whatever it declared.
	doc.Find(`meta[charset], meta[http-equiv]`).Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("charset"); ok || strings.EqualFold(s.AttrOr("http-equiv", ""), "content-type") {
			s.Remove()
		}
	})
	head.PrependHtml(`<meta charset="utf-8">`)

	css := printCSS
	if s := profile.Style(); s != "" {
		css = s + " " + css
	}
	head.AppendHtml("<style>" + css + "</style>")

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing page: %w", err)
	}
	return out, nil
}
