package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func paths(notes []*Note) []string {
	var out []string
	for _, n := range notes {
		out = append(out, n.Path)
	}
	return out
}

func TestIndexAndSearch(t *testing.T) {
	dir := t.TempDir()
	meeting := writeNote(t, dir, "meeting.md", "---\ntags: [work]\n---\n\nQuarterly planning meeting with the platform team.\n")
	recipe := writeNote(t, dir, "recipe.md", "---\ntags: [cooking]\n---\n\nSourdough starter feeding schedule.\n")

	idx := newTestIndex(t)
	require.NoError(t, idx.IndexNote(meeting))
	require.NoError(t, idx.IndexNote(recipe))

	results, err := idx.Search("planning", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, meeting, results[0].Path)
	assert.Equal(t, "meeting", results[0].Title)
	assert.Equal(t, []string{"work"}, results[0].Tags)
	assert.Positive(t, results[0].WordCount)
}

func TestSearchTitleFromFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "20240101.md", "---\ntitle: Release checklist\n---\n\nCut the branch, tag, publish.\n")

	idx := newTestIndex(t)
	require.NoError(t, idx.IndexNote(path))

	results, err := idx.Search("checklist", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Release checklist", results[0].Title)
}

func TestSearchTagFilter(t *testing.T) {
	dir := t.TempDir()
	work := writeNote(t, dir, "standup.md", "---\ntags: [work, daily]\n---\n\nStandup notes about deployment.\n")
	home := writeNote(t, dir, "garden.md", "---\ntags: [home]\n---\n\nNotes about garden deployment of new beds.\n")

	idx := newTestIndex(t)
	require.NoError(t, idx.IndexNote(work))
	require.NoError(t, idx.IndexNote(home))

	results, err := idx.Search("deployment", &Options{Tag: "work"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, work, results[0].Path)
}

func TestSearchLimit(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, idx.IndexNote(writeNote(t, dir, name, "shared phrase in every note\n")))
	}

	results, err := idx.Search("shared", &Options{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestReindexReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "note.md", "original wording here\n")

	idx := newTestIndex(t)
	require.NoError(t, idx.IndexNote(path))

	require.NoError(t, os.WriteFile(path, []byte("rewritten wording here\n"), 0o644))
	require.NoError(t, idx.IndexNote(path))

	results, err := idx.Search("original", nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search("rewritten", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].Path)
}

func TestRemoveNote(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "gone.md", "ephemeral content\n")

	idx := newTestIndex(t)
	require.NoError(t, idx.IndexNote(path))
	require.NoError(t, idx.RemoveNote(path))

	results, err := idx.Search("ephemeral", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNotesByTag(t *testing.T) {
	dir := t.TempDir()
	older := writeNote(t, dir, "older.md", "---\ntags: [project]\n---\n\nFirst entry.\n")
	newer := writeNote(t, dir, "newer.md", "---\ntags: [project, active]\n---\n\nSecond entry.\n")
	writeNote(t, dir, "other.md", "---\ntags: [misc]\n---\n\nUnrelated.\n")

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	idx := newTestIndex(t)
	for _, p := range []string{older, newer, filepath.Join(dir, "other.md")} {
		require.NoError(t, idx.IndexNote(p))
	}

	results, err := idx.NotesByTag("project")
	require.NoError(t, err)
	assert.Equal(t, []string{newer, older}, paths(results))
}

func TestAllTags(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexNote(writeNote(t, dir, "a.md", "---\ntags: [go, notes]\n---\n\nx\n")))
	require.NoError(t, idx.IndexNote(writeNote(t, dir, "b.md", "---\ntags: [go]\n---\n\ny\n")))
	require.NoError(t, idx.IndexNote(writeNote(t, dir, "c.md", "untagged\n")))

	tags, err := idx.AllTags()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"go": 2, "notes": 1}, tags)
}

func TestIndexVault(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "top.md", "alpha content\n")
	writeNote(t, dir, filepath.Join("sub", "deep.md"), "beta content\n")
	writeNote(t, dir, "ignored.txt", "not a note\n")

	idx := newTestIndex(t)
	indexed, err := idx.IndexVault(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)

	results, err := idx.Search("beta", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "sub", "deep.md"), results[0].Path)
}

func TestIndexNoteMissingFile(t *testing.T) {
	idx := newTestIndex(t)
	err := idx.IndexNote(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}
