// Package frontmatter reads and rewrites the YAML-like metadata block at
// the top of markdown notes.
//
// The parser is deliberately tolerant rather than strict YAML: notes
// vaults in the wild mix inline arrays, space-separated scalars and block
// lists for tags, and a strict parser would reject files that the rest of
// the toolchain happily syncs. Tag extraction therefore works line by
// line and accumulates every encoding it finds.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var fencePattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n(.*)`)

// Parse splits content into the front-matter block (without fences) and
// the body. Content without a complete fence pair, including a trailing
// fence with no newline after it, is treated as having no front matter.
func Parse(content string) (block, body string) {
	matches := fencePattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		return "", content
	}
	return matches[1], matches[2]
}

// Meta is the structured view of a front-matter block, used where an
// exact parse is wanted (index display, vault settings). Tag handling
// must go through ExtractTags instead, which tolerates the encodings
// this struct cannot represent.
type Meta struct {
	ID       string   `yaml:"id,omitempty"`
	Title    string   `yaml:"title,omitempty"`
	Aliases  []string `yaml:"aliases,flow,omitempty"`
	Tags     []string `yaml:"tags,flow,omitempty"`
	Created  string   `yaml:"created,omitempty"`
	Modified string   `yaml:"modified,omitempty"`
}

// ParseMeta attempts a structured parse of a front-matter block. Malformed
// blocks yield an empty Meta rather than an error.
func ParseMeta(block string) *Meta {
	var m Meta
	if err := yaml.Unmarshal([]byte(block), &m); err != nil {
		return &Meta{Aliases: []string{}, Tags: []string{}}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Aliases == nil {
		m.Aliases = []string{}
	}
	return &m
}

// ExtractTags pulls tags out of a front-matter block. Three encodings are
// recognized, and all of them contribute when a file mixes them:
//
//	tags: [a, b]
//	tags: a b
//	tags:
//	  - a
//	  - b
//
// Both "tags:" and "tag:" keys are honored. Malformed structures degrade
// to no tags; this function never fails.
func ExtractTags(block string) []string {
	var tags []string
	inBlockList := false

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "tags:") || strings.HasPrefix(line, "tag:"):
			_, value, _ := strings.Cut(line, ":")
			value = strings.TrimSpace(value)

			switch {
			case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
				inBlockList = false
				for _, item := range strings.Split(value[1:len(value)-1], ",") {
					if tag := cleanTag(item); tag != "" {
						tags = append(tags, tag)
					}
				}
			case value == "":
				// Items follow as "- tag" lines.
				inBlockList = true
			default:
				inBlockList = false
				for _, item := range strings.Fields(value) {
					if tag := cleanTag(item); tag != "" {
						tags = append(tags, tag)
					}
				}
			}

		case inBlockList && strings.HasPrefix(line, "-"):
			if tag := cleanTag(strings.TrimPrefix(line, "-")); tag != "" {
				tags = append(tags, tag)
			}

		case inBlockList && line != "":
			inBlockList = false
		}
	}

	return MergeTags(tags)
}

// MergeTags combines tag lists into a union with duplicates removed.
// Order is first-seen: the existing list's tags keep their positions and
// new tags are appended.
func MergeTags(sources ...[]string) []string {
	seen := make(map[string]bool)
	result := []string{}

	for _, tags := range sources {
		for _, tag := range tags {
			if tag != "" && !seen[tag] {
				seen[tag] = true
				result = append(result, tag)
			}
		}
	}

	return result
}

// RewriteTags replaces the tags field in a front-matter block with
// newTags, preserving every other field and the original key order. A
// block with no tags field gets one appended. The replacement always uses
// the inline-array encoding.
func RewriteTags(block string, newTags []string) string {
	lines := strings.Split(block, "\n")
	updated := make([]string, 0, len(lines)+1)
	replaced := false
	inBlockList := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "tags:") || strings.HasPrefix(trimmed, "tag:") {
			if !replaced {
				updated = append(updated, "tags: "+FormatTagArray(newTags))
				replaced = true
			}
			_, value, _ := strings.Cut(trimmed, ":")
			inBlockList = strings.TrimSpace(value) == ""
			continue
		}

		if inBlockList {
			if strings.HasPrefix(trimmed, "-") {
				continue
			}
			inBlockList = false
		}

		updated = append(updated, line)
	}

	if !replaced && len(newTags) > 0 {
		updated = append(updated, "tags: "+FormatTagArray(newTags))
	}

	return strings.Join(updated, "\n")
}

// Compose joins a front-matter block and a body back into a document.
func Compose(block, body string) string {
	if block == "" {
		return body
	}
	if !strings.HasPrefix(body, "\n") {
		body = "\n" + body
	}
	return "---\n" + block + "\n---" + body
}

// FormatTagArray renders tags as a YAML flow array, quoting entries that
// need it.
func FormatTagArray(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}

	quoted := make([]string, len(tags))
	for i, tag := range tags {
		if needsQuoting(tag) {
			quoted[i] = fmt.Sprintf("%q", tag)
		} else {
			quoted[i] = tag
		}
	}

	return "[" + strings.Join(quoted, ", ") + "]"
}

// FormatTimestamp formats a time.Time into the standard front-matter
// timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ParseTimestamp parses a front-matter timestamp string.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}

func cleanTag(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, ",:[]{}\"'")
}
