package validations

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var spacesRegex = regexp.MustCompile(`[\t\n]+`)

var sanitization = bluemonday.StrictPolicy()

// CleanUpText strips markup and collapses whitespace in user-supplied text
// before it is stored. Bookmark titles pass through here.
func CleanUpText(text string) string {
	return strings.TrimSpace(html.UnescapeString(
		sanitization.Sanitize(
			spacesRegex.ReplaceAllLiteralString(text, " "),
		)))
}
