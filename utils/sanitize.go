package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps user-generated formatting but strips scripts and unsafe attributes.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeText strips all markup and returns plain, unescaped text, for
// single-line fields such as titles. Escaped tags are stripped as well.
func SanitizeText(input string) string {
	text := input
	for i := 0; i < 4; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(text))
		if next == text {
			break
		}
		text = next
	}
	return text
}
