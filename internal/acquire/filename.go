// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"strings"

	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// MaxFilenameLength bounds sanitized names, counted in characters.
const MaxFilenameLength = 200

var unsafeChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// Sanitize replaces characters that are invalid in Windows filenames with
// "_" and cuts the result to MaxFilenameLength characters. The cut may land
// mid-word and may drop the extension of very long names.
//
// Leading or trailing spaces and reserved device names (CON, NUL, ...) are
// left as they are; callers on Windows must handle those.
func Sanitize(name string) string {
	name = unsafeChars.Replace(name)
	if r := []rune(name); len(r) > MaxFilenameLength {
		name = string(r[:MaxFilenameLength])
	}
	return name
}

// TargetName names the file for link: "{index}-{title}.{ext}" when its row
// has one link, "{index}-{title}-{position}.{ext}" when it has several.
func TargetName(link types.ExtractedLink, ext string) string {
	var name string
	if link.Total > 1 {
		name = fmt.Sprintf("%s-%s-%d.%s", link.Row.Index, link.Row.Title, link.Position, ext)
	} else {
		name = fmt.Sprintf("%s-%s.%s", link.Row.Index, link.Row.Title, ext)
	}
	return Sanitize(name)
}

// BuildTargets turns the links of one row into fetch targets under outputDir.
func BuildTargets(extracted []types.ExtractedLink, outputDir, ext string) []types.FetchTarget {
	targets := make([]types.FetchTarget, 0, len(extracted))
	for _, link := range extracted {
		targets = append(targets, types.NewFetchTarget(link, TargetName(link, ext), outputDir))
	}
	return targets
}
