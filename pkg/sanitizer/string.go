package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// KeySegment replaces each whitespace rune with "_". Runs are not collapsed:
// "Deluxe  Room" becomes "Deluxe__Room".
func KeySegment(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}

// UserIDFromEmail derives the path-safe user id. Distinct emails that differ
// only by "." versus "_" map to the same id.
func UserIDFromEmail(email string) string {
	return strings.ReplaceAll(email, ".", "_")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeLabel(label string) string {
	return strings.ToLower(TrimAndNormalize(label))
}
