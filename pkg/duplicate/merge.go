package duplicate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eepy-explorer/eepy/pkg/frontmatter"
)

// MergeContents combines a duplicate note into an original. Front matter
// tags are always unioned into the original's block. The duplicate's body
// is appended under a "## Content from" heading only when tagsOnly is
// false; byte-identical duplicates should merge with tagsOnly true so
// their body is not duplicated inside the surviving file.
func MergeContents(original, duplicate, duplicateName string, tagsOnly bool) string {
	origBlock, origBody := frontmatter.Parse(original)
	dupBlock, dupBody := frontmatter.Parse(duplicate)

	block := origBlock
	if dupBlock != "" {
		merged := frontmatter.MergeTags(
			frontmatter.ExtractTags(origBlock),
			frontmatter.ExtractTags(dupBlock),
		)
		if origBlock != "" {
			block = frontmatter.RewriteTags(origBlock, merged)
		} else {
			block = "tags: " + frontmatter.FormatTagArray(merged)
		}
	}

	body := strings.TrimRight(origBody, "\n")
	if !tagsOnly {
		body = body + "\n\n## Content from " + duplicateName + "\n\n" + strings.TrimSpace(dupBody)
	}
	return frontmatter.Compose(block, strings.TrimLeft(body, "\n")) + "\n"
}

// MergeInto merges the duplicate file into the original on disk and
// removes the duplicate. When the two files are byte-identical only the
// tags are merged. The merged content is returned for display.
func (e *Engine) MergeInto(originalPath, duplicatePath string, tagsOnly bool) (string, error) {
	original, err := os.ReadFile(originalPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", originalPath, err)
	}
	duplicate, err := os.ReadFile(duplicatePath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", duplicatePath, err)
	}

	if !tagsOnly {
		identical, err := e.VerifyIdentical(originalPath, duplicatePath)
		if err == nil && identical {
			tagsOnly = true
		}
	}

	merged := MergeContents(string(original), string(duplicate), filepath.Base(duplicatePath), tagsOnly)
	if err := os.WriteFile(originalPath, []byte(merged), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", originalPath, err)
	}
	if err := os.Remove(duplicatePath); err != nil {
		return merged, fmt.Errorf("remove %s: %w", duplicatePath, err)
	}
	return merged, nil
}
