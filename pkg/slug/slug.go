package slug

import (
	"strings"
	"unicode"
)

// Derive normalizes an organization display name into its URL-safe slug:
// lowercase, [a-z0-9-] only, whitespace runs collapsed to single hyphens,
// no leading, trailing, or duplicate hyphens.
func Derive(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		default:
			// punctuation and symbols are dropped
		}
	}

	return strings.TrimRight(b.String(), "-")
}
