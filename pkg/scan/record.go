package scan

import "time"

// FileRecord is one scanned file. Records are created during a directory
// walk and are value types scoped to that scan; Tags and ContentHash are
// filled in lazily when a later pass needs them.
type FileRecord struct {
	Path         string    `json:"path"`
	RelativePath string    `json:"rel_path"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"mod_time"`
	Tags         []string  `json:"tags,omitempty"`
	ContentHash  string    `json:"content_hash,omitempty"`
}

// ModifiedEqual reports whether two records were modified at the same
// time within the given tolerance. Filesystems round mtimes differently,
// so sync comparison uses a one second tolerance.
func (r FileRecord) ModifiedEqual(other FileRecord, tolerance time.Duration) bool {
	d := r.ModifiedTime.Sub(other.ModifiedTime)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// Index maps relative paths to their records for one scan root. The
// relative path is the join key when two roots are compared.
type Index map[string]FileRecord
