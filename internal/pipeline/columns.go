package pipeline

import (
	"strings"

	"tiku/internal"
	"tiku/internal/util"
)

var columnAliases = buildColumnAliases(map[string][]string{
	internal.ColumnContent: {"题目内容", "题目", "问题", "题干", "content", "question", "problem", "question stem", "stem"},
	internal.ColumnAnswer:  {"答案", "正确选项", "正确答", "正确答案", "正确选择", "answer", "correct option", "correct answer", "correct choice"},
	internal.ColumnType:    {"题型", "题目类型", "type", "question type"},
	"A":                    {"A", "选项A", "option a"},
	"B":                    {"B", "选项B", "option b"},
	"C":                    {"C", "选项C", "option c"},
	"D":                    {"D", "选项D", "option d"},
	"E":                    {"E", "选项E", "option e"},
	"F":                    {"F", "选项F", "option f"},
})

var requiredColumns = []string{internal.ColumnContent, internal.ColumnAnswer, internal.ColumnType}

func buildColumnAliases(canonical map[string][]string) map[string]string {
	out := map[string]string{}
	for name, aliases := range canonical {
		for _, alias := range aliases {
			out[aliasKey(alias)] = name
		}
	}
	return out
}

func aliasKey(name string) string {
	return strings.ToLower(util.NormalizeSpaces(util.FoldWidth(name)))
}

// NormalizeHeader rewrites known aliases to canonical column names.
// Unknown names pass through unchanged and are ignored downstream.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if canonical, ok := columnAliases[aliasKey(name)]; ok {
			out[i] = canonical
			continue
		}
		out[i] = name
	}
	return out
}

func missingColumns(header []string) []string {
	present := map[string]struct{}{}
	for _, name := range header {
		present[name] = struct{}{}
	}
	missing := []string{}
	for _, name := range requiredColumns {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
