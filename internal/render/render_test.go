// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sheet2pdf/internal/httputil"
)

// fakeRuntime captures the HTML piped to the container and answers with
// a fixed PDF body.
type fakeRuntime struct {
	images  map[string]bool
	gotHTML string
	gotArgs []string
	out     string
	err     error
}

func (f *fakeRuntime) Name() string    { return "fake" }
func (f *fakeRuntime) Available() bool { return true }

func (f *fakeRuntime) ImageExists(_ context.Context, image string) error {
	if f.images[image] {
		return nil
	}
	return errors.New("no such image")
}

func (f *fakeRuntime) Run(_ context.Context, _ string, args []string, stdin io.Reader, stdout io.Writer) error {
	data, _ := io.ReadAll(stdin)
	f.gotHTML = string(data)
	f.gotArgs = args
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(stdout, f.out)
	return err
}

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.mdpi.com/2076-0817/12/3/1", "mdpi"},
		{"https://globalbiodefense.com/2024/01/x/", "globalbiodefense"},
		{"https://www.imec-int.com/en/articles/x", "imec"},
		{"https://www.imec.be/nl/x", "imec"},
		{"https://journals.plos.org/plosone/article?id=1", "plos"},
		{"https://example.org/post", "other"},
		{"::not a url", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileFor(tt.url).Name)
		})
	}
}

func TestProfile_CleanKeepsArticle(t *testing.T) {
	doc := parse(t, `<html><head><title>t</title></head><body>
		<header>site</header>
		<div id="middle-column"><div class="middle-column__help">help</div><h1>Article</h1><p>Body</p></div>
		<footer>foot</footer></body></html>`)

	require.True(t, profileMDPI.Clean(doc))

	body := doc.Find("body")
	assert.Equal(t, 1, body.Children().Length())
	assert.Equal(t, "Article", body.Find("#middle-column h1").Text())
	assert.Equal(t, 0, doc.Find(".middle-column__help").Length())
	assert.NotContains(t, body.Text(), "site")
	assert.NotContains(t, body.Text(), "foot")
}

func TestProfile_CleanMissingContainerLeavesPage(t *testing.T) {
	doc := parse(t, `<html><body><header>site</header><p>text</p></body></html>`)
	assert.False(t, profilePLOS.Clean(doc))
	assert.Contains(t, doc.Find("body").Text(), "site")
}

func TestProfile_CleanGeneric(t *testing.T) {
	doc := parse(t, `<html><body>
		<header>masthead</header><nav>menu</nav>
		<article><h1>Story</h1><footer>byline</footer><div class="ad">buy</div></article>
		<aside>related</aside><div class="banner">promo</div><footer>copyright</footer>
		</body></html>`)

	assert.False(t, profileOther.Clean(doc))

	text := doc.Find("body").Text()
	assert.Contains(t, text, "Story")
	assert.Contains(t, text, "byline")
	for _, gone := range []string{"masthead", "menu", "buy", "related", "promo", "copyright"} {
		assert.NotContains(t, text, gone)
	}
}

func TestProfile_Style(t *testing.T) {
	assert.Contains(t, profileMDPI.Style(), "#middle-column { max-width: 900px;")
	assert.Contains(t, profileIMEC.Style(), ".layout-content { max-width: 1200px;")
	assert.Empty(t, profileOther.Style())
}

func TestPrepare(t *testing.T) {
	doc := parse(t, `<html><head></head><body><div id="main-content"><img src="fig1.png"></div></body></html>`)

	page, err := Prepare(doc, "https://journals.plos.org/plosone/article?id=1&type=x")
	require.NoError(t, err)

	out := parse(t, page)
	href, ok := out.Find("head base").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "https://journals.plos.org/plosone/article?id=1&type=x", href)
	assert.Equal(t, 1, out.Find("meta[charset]").Length())
	assert.Contains(t, out.Find("style").Text(), "@page { size: A4")
	assert.Contains(t, out.Find("style").Text(), "#main-content { max-width: 900px;")
	assert.Equal(t, 1, out.Find("main#main-content img").Length())
}

func TestContainerRenderer(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><body><nav>menu</nav><p>生物安全</p></body></html>`)
	}))
	defer srv.Close()

	rt := &fakeRuntime{images: map[string]bool{DefaultImage: true}, out: "%PDF-1.4"}
	r, err := NewContainerRenderer(context.Background(), rt, "", srv.Client(), 3)
	require.NoError(t, err)

	var pdf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), srv.URL+"/page", &pdf))

	assert.Equal(t, "%PDF-1.4", pdf.String())
	assert.Equal(t, httputil.PrimaryUserAgent, gotUA)
	assert.Equal(t, httputil.AcceptHTML, gotAccept)
	assert.Equal(t, DefaultArgs, rt.gotArgs)
	assert.Contains(t, rt.gotHTML, "生物安全")
	assert.Contains(t, rt.gotHTML, `<base href="`+srv.URL+`/page"`)
	assert.NotContains(t, rt.gotHTML, "menu")
}

func TestContainerRenderer_DecodesLegacyCharset(t *testing.T) {
	// "中文" in GBK.
	gbk := []byte{0xd6, 0xd0, 0xce, 0xc4}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Write([]byte(`<html><head><meta charset="gbk"></head><body><p>`))
		w.Write(gbk)
		w.Write([]byte("</p></body></html>"))
	}))
	defer srv.Close()

	rt := &fakeRuntime{images: map[string]bool{DefaultImage: true}, out: "%PDF"}
	r, err := NewContainerRenderer(context.Background(), rt, DefaultImage, srv.Client(), 1)
	require.NoError(t, err)

	require.NoError(t, r.Render(context.Background(), srv.URL, io.Discard))
	assert.Contains(t, rt.gotHTML, "中文")
	assert.Contains(t, rt.gotHTML, `<meta charset="utf-8"/>`)
	assert.NotContains(t, rt.gotHTML, "gbk")
}

func TestContainerRenderer_Errors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		_, err := NewContainerRenderer(context.Background(), &fakeRuntime{}, "custom:1", http.DefaultClient, 1)
		assert.ErrorContains(t, err, "render image not available")
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		rt := &fakeRuntime{images: map[string]bool{DefaultImage: true}}
		r, err := NewContainerRenderer(context.Background(), rt, "", srv.Client(), 1)
		require.NoError(t, err)

		err = r.Render(context.Background(), srv.URL, io.Discard)
		assert.Equal(t, httputil.KindHTTPStatus, httputil.KindOf(err))
		assert.Empty(t, rt.gotHTML)
	})

	t.Run("container failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<p>x</p>")
		}))
		defer srv.Close()

		rt := &fakeRuntime{images: map[string]bool{DefaultImage: true}, err: errors.New("exit 1")}
		r, err := NewContainerRenderer(context.Background(), rt, "", srv.Client(), 1)
		require.NoError(t, err)

		err = r.Render(context.Background(), srv.URL, io.Discard)
		assert.ErrorContains(t, err, "printing")
	})
}
