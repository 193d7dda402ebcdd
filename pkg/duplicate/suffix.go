package duplicate

import "strings"

// CommonSuffixPatterns returns the ordered list of suffixes that mark a
// file as a copy. Order matters: matching is first-match-wins by
// substring search, and the machine-specific suffixes are deliberately
// listed before the generic copy markers.
func CommonSuffixPatterns() []string {
	return []string{
		// Machine-specific suffixes, prioritized.
		"-surfacepro6",
		"-DESKTOP-AKQD6B9",
		"-laptop",
		// Common copy indicators.
		" copy",
		" (copy)",
		" (1)",
		" (2)",
		" 1",
		" 2",
		"_1",
		"_2",
		"-1",
		"-2",
		" - Copy",
		"_copy",
		" - copy",
		"- copy",
	}
}

// MatchSuffixPattern returns the first pattern from the list that occurs
// anywhere in the base name, or "" when none match. The search is a plain
// substring scan in list order, not a longest-match: " 1" will claim
// "note 10" before any later pattern gets a look. The list is hand-tuned
// around that behavior, so callers should not re-sort it.
func MatchSuffixPattern(baseName string, patterns []string) string {
	for _, pattern := range patterns {
		if strings.Contains(baseName, pattern) {
			return pattern
		}
	}
	return ""
}

// StripSuffixPattern removes the first matching pattern from the base
// name and returns (pattern, strippedBase). A non-matching name comes
// back unchanged with an empty pattern.
func StripSuffixPattern(baseName string, patterns []string) (pattern, stripped string) {
	pattern = MatchSuffixPattern(baseName, patterns)
	if pattern == "" {
		return "", baseName
	}
	idx := strings.Index(baseName, pattern)
	return pattern, baseName[:idx] + baseName[idx+len(pattern):]
}
