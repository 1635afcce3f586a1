// Package strings holds list helpers for user-entered text.
package strings

import (
	"strings"
)

// SplitList splits s on sep and returns the non-blank entries, trimmed,
// with duplicates removed. Order of first appearance is preserved.
//
//	SplitList(" Go, Rust,,Go ", ",")
//	// []string{"Go", "Rust"}
func SplitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(s, sep))
}

// DedupeAndTrim trims every element and drops blanks and repeats.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
