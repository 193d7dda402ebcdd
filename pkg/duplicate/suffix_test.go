package duplicate

import "testing"

func TestMatchSuffixPattern(t *testing.T) {
	patterns := CommonSuffixPatterns()

	tests := []struct {
		name     string
		baseName string
		want     string
	}{
		{"no pattern", "meeting-notes", ""},
		{"numbered copy", "report (1)", " (1)"},
		{"machine suffix", "journal-surfacepro6", "-surfacepro6"},
		{"plain copy", "draft copy", " copy"},
		// " copy" precedes " - Copy" in the list but differs in case,
		// so the capitalized variant falls through to its own entry.
		{"capitalized copy", "draft - Copy", " - Copy"},
		// First match wins by list order even when a later pattern is a
		// longer or more specific fit.
		{"copy before parenthesized", "draft copy (1)", " copy"},
		{"substring not suffix", "note-surfacepro6-old", "-surfacepro6"},
		{"underscore numeral", "photo_1", "_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchSuffixPattern(tt.baseName, patterns); got != tt.want {
				t.Errorf("MatchSuffixPattern(%q) = %q, want %q", tt.baseName, got, tt.want)
			}
		})
	}
}

func TestStripSuffixPattern(t *testing.T) {
	patterns := CommonSuffixPatterns()

	tests := []struct {
		baseName     string
		wantPattern  string
		wantStripped string
	}{
		{"note (1)", " (1)", "note"},
		{"note-surfacepro6", "-surfacepro6", "note"},
		{"note", "", "note"},
		// Mid-name matches strip from the middle, keeping the tail.
		{"note-surfacepro6-extra", "-surfacepro6", "note-extra"},
	}

	for _, tt := range tests {
		t.Run(tt.baseName, func(t *testing.T) {
			pattern, stripped := StripSuffixPattern(tt.baseName, patterns)
			if pattern != tt.wantPattern || stripped != tt.wantStripped {
				t.Errorf("StripSuffixPattern(%q) = (%q, %q), want (%q, %q)",
					tt.baseName, pattern, stripped, tt.wantPattern, tt.wantStripped)
			}
		})
	}
}
