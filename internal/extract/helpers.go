package extract

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Adjacent table cells must not fuse into one token when tags are dropped.
var strictPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HTMLToText strips all markup, including script and style bodies, and
// unescapes entities so dates written as 05.01.2025 survive intact.
func HTMLToText(doc string) string {
	stripped := strictPolicy.Sanitize(doc)
	return normalizeSpace(html.UnescapeString(stripped))
}
