package frontmatter

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantBlock string
		wantBody  string
	}{
		{
			name:      "valid front matter",
			content:   "---\ntitle: Test\ntags: [a, b]\n---\n\n# Body\n",
			wantBlock: "title: Test\ntags: [a, b]",
			wantBody:  "\n# Body\n",
		},
		{
			name:      "no front matter",
			content:   "# Just a title\n\nSome content.",
			wantBlock: "",
			wantBody:  "# Just a title\n\nSome content.",
		},
		{
			name:      "closing fence without trailing newline",
			content:   "---\ntitle: Test\n---",
			wantBlock: "",
			wantBody:  "---\ntitle: Test\n---",
		},
		{
			name:      "unterminated fence",
			content:   "---\ntitle: Test\n\nbody",
			wantBlock: "",
			wantBody:  "---\ntitle: Test\n\nbody",
		},
		{
			name:      "empty content",
			content:   "",
			wantBlock: "",
			wantBody:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, body := Parse(tt.content)
			if block != tt.wantBlock {
				t.Errorf("Parse() block = %q, want %q", block, tt.wantBlock)
			}
			if body != tt.wantBody {
				t.Errorf("Parse() body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  []string
	}{
		{
			name:  "inline array",
			block: "title: Note\ntags: [work, planning]",
			want:  []string{"work", "planning"},
		},
		{
			name:  "inline array with quotes",
			block: `tags: ["work", 'home office']`,
			want:  []string{"work", "home office"},
		},
		{
			name:  "space separated scalar",
			block: "tags: work planning todo",
			want:  []string{"work", "planning", "todo"},
		},
		{
			name:  "block list",
			block: "tags:\n  - work\n  - planning",
			want:  []string{"work", "planning"},
		},
		{
			name:  "block list ends at next key",
			block: "tags:\n  - work\ncreated: 2024-01-01\naliases:\n  - not-a-tag",
			want:  []string{"work"},
		},
		{
			name:  "singular tag key",
			block: "tag: work",
			want:  []string{"work"},
		},
		{
			name:  "mixed encodings merge",
			block: "tags: [a, b]\ntags:\n  - b\n  - c",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "no tags",
			block: "title: Note\ncreated: 2024-01-01",
			want:  []string{},
		},
		{
			name:  "malformed block degrades to empty",
			block: "tags: [unclosed\n:::",
			want:  []string{"[unclosed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTags(tt.block)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name    string
		sources [][]string
		want    []string
	}{
		{
			name:    "union preserves existing order",
			sources: [][]string{{"a", "b"}, {"b", "c"}},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "self merge dedupes",
			sources: [][]string{{"a", "a", "b"}, {"a", "a", "b"}},
			want:    []string{"a", "b"},
		},
		{
			name:    "empty strings dropped",
			sources: [][]string{{"", "a"}, {""}},
			want:    []string{"a"},
		},
		{
			name:    "no sources",
			sources: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.sources...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeTags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeTagsUnionLaw(t *testing.T) {
	a := []string{"x", "y"}
	b := []string{"y", "z", "w"}
	merged := MergeTags(a, b)

	for _, tag := range append(a, b...) {
		found := false
		for _, m := range merged {
			if m == tag {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("merged set missing %q", tag)
		}
	}

	seen := map[string]bool{}
	for _, m := range merged {
		if seen[m] {
			t.Errorf("merged set contains duplicate %q", m)
		}
		seen[m] = true
	}
}

func TestRewriteTags(t *testing.T) {
	tests := []struct {
		name    string
		block   string
		newTags []string
		want    string
	}{
		{
			name:    "replaces inline array in place",
			block:   "title: Note\ntags: [old]\ncreated: 2024-01-01",
			newTags: []string{"new", "tags"},
			want:    "title: Note\ntags: [new, tags]\ncreated: 2024-01-01",
		},
		{
			name:    "replaces block list",
			block:   "title: Note\ntags:\n  - old\n  - stale\ncreated: 2024-01-01",
			newTags: []string{"fresh"},
			want:    "title: Note\ntags: [fresh]\ncreated: 2024-01-01",
		},
		{
			name:    "appends when absent",
			block:   "title: Note",
			newTags: []string{"a"},
			want:    "title: Note\ntags: [a]",
		},
		{
			name:    "no tags field and no new tags",
			block:   "title: Note",
			newTags: nil,
			want:    "title: Note",
		},
		{
			name:    "quotes tags that need it",
			block:   "tags: [x]",
			newTags: []string{"a:b"},
			want:    `tags: ["a:b"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteTags(tt.block, tt.newTags)
			if got != tt.want {
				t.Errorf("RewriteTags() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComposeRoundTrip(t *testing.T) {
	content := "---\ntitle: Note\ntags: [a]\n---\n\nbody text\n"
	block, body := Parse(content)
	if got := Compose(block, body); got != content {
		t.Errorf("Compose() = %q, want %q", got, content)
	}

	// No front matter passes through untouched.
	if got := Compose("", "plain body"); got != "plain body" {
		t.Errorf("Compose() = %q", got)
	}
}

func TestParseMetaMalformed(t *testing.T) {
	m := ParseMeta("title: [unclosed\n  bad yaml")
	if m == nil || len(m.Tags) != 0 {
		t.Errorf("ParseMeta() on malformed input = %+v, want empty meta", m)
	}
}

func TestExtractTagsFromDocument(t *testing.T) {
	content := strings.Join([]string{
		"---",
		"title: Weekly review",
		"tags:",
		"  - review",
		"  - weekly",
		"---",
		"",
		"# Notes",
	}, "\n") + "\n"

	block, _ := Parse(content)
	got := ExtractTags(block)
	want := []string{"review", "weekly"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTags() = %v, want %v", got, want)
	}
}
