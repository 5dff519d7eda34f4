package rules

import (
	"strings"

	"github.com/samber/lo"
)

// SplitLines splits raw multi-line input, trims every line and drops blank
// ones. Order and duplicates are preserved.
func SplitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return lo.Compact(lo.Map(lines, func(line string, _ int) string {
		return strings.TrimSpace(line)
	}))
}

// NormalizeValues is the persisted form of a value list: trimmed, no blank
// entries, duplicates removed keeping the first occurrence.
func NormalizeValues(values []string) []string {
	trimmed := lo.Compact(lo.Map(values, func(v string, _ int) string {
		return strings.TrimSpace(v)
	}))
	return lo.Uniq(trimmed)
}

// ParseValues turns editor text into the values stored on a Rule.
func ParseValues(text string) []string {
	return NormalizeValues(SplitLines(text))
}

// JoinValues renders stored values as editor text, one per line.
func JoinValues(values []string) string {
	return strings.Join(values, "\n")
}
