// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Profile describes how to reduce a publisher's page to its article body.
type Profile struct {
	Name string

	// Keep selects the article container. Empty means keep the whole body.
	Keep string

	// Drop lists selectors removed from the kept content.
	Drop []string

	// Wrapper is the element the kept content is re-parented into.
	Wrapper string

	// MaxWidth caps the wrapper width in pixels.
	MaxWidth int
}

var (
	profileMDPI = Profile{
		Name:     "mdpi",
		Keep:     "#middle-column",
		Drop:     []string{".middle-column__help"},
		Wrapper:  `<div id="middle-column" class="content__column"></div>`,
		MaxWidth: 900,
	}
	profileGlobalBiodefense = Profile{
		Name:     "globalbiodefense",
		Keep:     ".col-8.main-content.s-post-contain",
		Wrapper:  `<div class="main-content"></div>`,
		MaxWidth: 900,
	}
	profileIMEC = Profile{
		Name:     "imec",
		Keep:     ".layout_layout-content___o3j2",
		Wrapper:  `<div class="layout-content"></div>`,
		MaxWidth: 1200,
	}
	profilePLOS = Profile{
		Name:     "plos",
		Keep:     "#main-content",
		Wrapper:  `<main id="main-content"></main>`,
		MaxWidth: 900,
	}
	profileOther = Profile{Name: "other"}
)

// Page furniture removed by the generic profile. chromeSelectors survive
// inside an article or main element; alwaysRemove never does.
var (
	chromeSelectors = []string{"nav", "aside", "footer", ".navigation", ".sidebar", ".footer"}
	alwaysRemove    = []string{"header", ".header", ".advertisement", ".ad", ".banner"}
)

// ProfileFor picks the profile for rawURL by host.
func ProfileFor(rawURL string) Profile {
	u, err := url.Parse(rawURL)
	if err != nil {
		return profileOther
	}
	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "mdpi.com"):
		return profileMDPI
	case strings.Contains(host, "globalbiodefense.com"):
		return profileGlobalBiodefense
	case strings.Contains(host, "imec"):
		return profileIMEC
	case strings.Contains(host, "plos.org"):
		return profilePLOS
	default:
		return profileOther
	}
}

// Clean applies p to doc. A site profile whose container is missing leaves
// the page untouched, so a layout change degrades to a full-page print.
// It reports whether the profile's container was found.
func (p Profile) Clean(doc *goquery.Document) bool {
	if p.Keep == "" {
		removeChrome(doc)
		return false
	}

	content := doc.Find(p.Keep).First()
	if content.Length() == 0 {
		return false
	}
	for _, sel := range p.Drop {
		content.Find(sel).Remove()
	}
	inner, err := content.Html()
	if err != nil {
		return false
	}

	body := doc.Find("body")
	body.Empty()
	body.AppendHtml(p.Wrapper)
	body.Children().First().SetHtml(inner)
	return true
}

// Style is the CSS that frames the kept content.
func (p Profile) Style() string {
	if p.MaxWidth == 0 {
		return ""
	}
	sel := wrapperSelector(p.Wrapper)
	return fmt.Sprintf("body { padding: 20px; font-family: Arial, sans-serif; } %s { max-width: %dpx; margin: 0 auto; }", sel, p.MaxWidth)
}

func removeChrome(doc *goquery.Document) {
	for _, sel := range alwaysRemove {
		doc.Find(sel).Remove()
	}
	for _, sel := range chromeSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if s.Closest("article, main").Length() == 0 {
				s.Remove()
			}
		})
	}
}

// wrapperSelector turns `<div id="x" class="a b">` into "#x", or ".a" when
// there is no id.
func wrapperSelector(wrapper string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapper))
	if err != nil {
		return "body"
	}
	el := doc.Find("body").Children().First()
	if id, ok := el.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if class, ok := el.Attr("class"); ok && class != "" {
		return "." + strings.Fields(class)[0]
	}
	return goquery.NodeName(el)
}
