package util

import (
	"strings"
	"unicode"
)

// Slugify converts text into a lowercase, dash-separated identifier safe
// for use in file and directory names. Runs of non-alphanumeric runes
// collapse into a single dash; leading and trailing dashes are removed.
func Slugify(text string, maxLen int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	slug := b.String()
	if maxLen > 0 && len(slug) > maxLen {
		slug = slug[:maxLen]
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		slug = "debate"
	}
	return slug
}
