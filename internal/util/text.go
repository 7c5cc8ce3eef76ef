package util

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reSeparators = regexp.MustCompile(`[、,，;；\s]+`)
)

// FoldWidth maps full-width forms (Ａ, ，, ；) to their narrow equivalents.
func FoldWidth(input string) string {
	return width.Fold.String(input)
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func StripSeparators(input string) string {
	return reSeparators.ReplaceAllString(input, "")
}

func RuneLen(input string) int {
	return utf8.RuneCountInString(input)
}

func TrimmedLen(input string) int {
	return RuneLen(strings.TrimSpace(input))
}

func KeepRunes(input string, keep func(rune) bool) string {
	out := strings.Builder{}
	for _, r := range input {
		if keep(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
