// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package links finds URL-like substrings in free-text spreadsheet cells.
// Matching is lexical only; nothing here touches the network.
package links

import (
	"regexp"
	"strings"

	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// urlPattern matches http(s) URLs up to whitespace, a CJK ideograph, or
// closing punctuation that is usually glued to a URL in mixed-language prose.
var urlPattern = regexp.MustCompile(`https?://[^\s\v\p{Z}\x{4e00}-\x{9fa5}，。！；）】」》)\]}]+`)

// Extract returns the URLs in text in order of appearance. Duplicates are
// kept since each occurrence may be a separate attachment. Empty text yields
// an empty result.
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	return urlPattern.FindAllString(text, -1)
}

// ExtractRow extracts the URLs of a row's remark and numbers them 1..N.
func ExtractRow(row types.Row) []types.ExtractedLink {
	return FromURLs(row, Extract(row.Remark))
}

// FromURLs wraps already-known URLs of row as numbered links.
func FromURLs(row types.Row, urls []string) []types.ExtractedLink {
	if len(urls) == 0 {
		return nil
	}
	out := make([]types.ExtractedLink, len(urls))
	for i, u := range urls {
		out[i] = types.ExtractedLink{
			Row:      row,
			URL:      u,
			Position: i + 1,
			Total:    len(urls),
		}
	}
	return out
}

// Cell treats a whole cell as a single URL, the way the URL column of a
// render sheet is read. Cells that do not start with "http" yield nothing.
func Cell(text string) []string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "http") {
		return nil
	}
	return []string{text}
}
