package utils

import (
	"strings"
	"unicode"
)

// SlugifyValue turns a display value into a snake_case identifier:
// lowercased, alphanumeric runs joined by underscores ("Larry Harvey" -> "larry_harvey").
func SlugifyValue(value string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// Humanize turns a snake_case identifier back into a display label
// ("larry_harvey" -> "Larry Harvey").
func Humanize(identifier string) string {
	parts := strings.Split(strings.TrimSpace(identifier), "_")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, TitleCase(p))
	}
	return strings.Join(out, " ")
}

// TitleCase uppercases the first letter of each space-separated word.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
