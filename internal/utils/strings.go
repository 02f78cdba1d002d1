package utils

import "strings"

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// NormalizeTags rewrites a free-form tag list into the stored form:
// trimmed, de-duplicated (first occurrence wins) and joined with ",".
func NormalizeTags(s string) string {
	seen := make(map[string]bool)
	var tags []string
	for _, tag := range ParseCSV(s) {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return strings.Join(tags, ",")
}

// NormalizeSymbol trims an instrument code and upper-cases it.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
