// Package htmlsanitize strips markup from user-supplied text.
package htmlsanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Strip removes every tag from s and returns the remaining text unescaped.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}

// HasMarkup reports whether s contains anything the strict policy would
// remove, such as tags or comments.
func HasMarkup(s string) bool {
	return Strip(s) != s
}
