package pipeline

import (
	"regexp"
	"strings"

	"tiku/internal"
	"tiku/internal/util"
)

type answerPattern struct {
	bucket  string
	pattern *regexp.Regexp
}

// Evaluated in order; every "A" pattern precedes every "B" pattern.
var booleanPatterns = []answerPattern{
	{"A", regexp.MustCompile(`(?i)^T$`)},
	{"A", regexp.MustCompile(`(?i)^TRUE$`)},
	{"A", regexp.MustCompile(`(?i)^A$`)},
	{"A", regexp.MustCompile(`^正确$`)},
	{"A", regexp.MustCompile(`^对$`)},
	{"A", regexp.MustCompile(`^是$`)},
	{"A", regexp.MustCompile(`(?i)^RIGHT$`)},
	{"A", regexp.MustCompile(`(?i)^CORRECT$`)},
	{"A", regexp.MustCompile(`(?i)^YES$`)},
	{"A", regexp.MustCompile(`[√✓✔]`)},
	{"B", regexp.MustCompile(`(?i)^F$`)},
	{"B", regexp.MustCompile(`(?i)^FALSE$`)},
	{"B", regexp.MustCompile(`(?i)^B$`)},
	{"B", regexp.MustCompile(`^错误$`)},
	{"B", regexp.MustCompile(`^错$`)},
	{"B", regexp.MustCompile(`^否$`)},
	{"B", regexp.MustCompile(`(?i)^WRONG$`)},
	{"B", regexp.MustCompile(`(?i)^INCORRECT$`)},
	{"B", regexp.MustCompile(`(?i)^NO$`)},
	{"B", regexp.MustCompile(`[×✗✘]`)},
}

var booleanTypeMarkers = []string{"判断", "是非", "对错", "true/false", "true-false", "truefalse", "judg", "boolean"}

// NormalizeType trims the label and collapses every true/false category into BooleanType.
func NormalizeType(label string) string {
	label = strings.TrimSpace(label)
	lower := strings.ToLower(label)
	for _, marker := range booleanTypeMarkers {
		if strings.Contains(lower, marker) {
			return internal.BooleanType
		}
	}
	return label
}

func IsBooleanType(label string) bool {
	return NormalizeType(label) == internal.BooleanType
}

// CleanAnswer reduces a raw answer cell to option letters. It never fails;
// an empty result means the answer could not be resolved.
func CleanAnswer(raw string, questionType string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	ans := strings.ToUpper(strings.TrimSpace(util.FoldWidth(raw)))
	ans = util.StripSeparators(ans)

	if IsBooleanType(questionType) {
		return matchBoolean(ans)
	}
	return util.KeepRunes(ans, isOptionLetter)
}

func matchBoolean(token string) string {
	for _, p := range booleanPatterns {
		if p.pattern.MatchString(token) {
			return p.bucket
		}
	}
	return ""
}

func isOptionLetter(r rune) bool {
	return r >= 'A' && r <= 'F'
}
