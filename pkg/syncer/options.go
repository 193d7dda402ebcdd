package syncer

import "time"

// Mode selects how one-sided files are treated during a diff.
type Mode string

const (
	// ModeTwoWay propagates files missing on either side to the other.
	ModeTwoWay Mode = "two-way"
	// ModeMirror makes the target match the source; target-only files are
	// orphans.
	ModeMirror Mode = "mirror"
	// ModeOneWay copies from source to target only.
	ModeOneWay Mode = "one-way"
)

// ConflictPolicy decides the winner when a file differs on both sides.
type ConflictPolicy string

const (
	// PolicyNewer lets the side with the greater modified time win. Ties
	// go to the target.
	PolicyNewer ConflictPolicy = "newer"
	// PolicyPreferSource always copies source over target.
	PolicyPreferSource ConflictPolicy = "source"
	// PolicyPreferTarget always copies target over source.
	PolicyPreferTarget ConflictPolicy = "target"
	// PolicyLargerWins lets the bigger file win. Ties go to the target.
	PolicyLargerWins ConflictPolicy = "larger"
	// PolicyKeepBoth preserves both versions under .source/.target
	// disambiguated names.
	PolicyKeepBoth ConflictPolicy = "keep-both"
	// PolicySkip records the conflict and mutates nothing.
	PolicySkip ConflictPolicy = "skip"
)

// ModTimeTolerance is how far apart two modified times may be while still
// counting as equal. Filesystems round timestamps differently, and a full
// second absorbs FAT-style two-second granularity halved either way.
const ModTimeTolerance = time.Second

// DiffOptions configures plan computation.
type DiffOptions struct {
	Mode   Mode
	Policy ConflictPolicy
	// DeleteOrphaned turns target-only files into deletions instead of
	// leaving them alone. Only meaningful for mirror and one-way modes.
	DeleteOrphaned bool
}

// ApplyOptions configures plan execution.
type ApplyOptions struct {
	// DryRun logs every entry with its reason and touches nothing.
	DryRun bool
	// CreateBackups copies a file about to be overwritten or deleted into
	// its .eepy/backups directory first.
	CreateBackups bool
	// SyncTags merges the overwritten side's front-matter tags back into
	// the copied note, so a tag present only on the destination survives
	// the copy.
	SyncTags bool
	// Progress receives (completed, total, message) as entries execute.
	Progress func(completed, total int, message string)
}

// Stats summarizes one apply run.
type Stats struct {
	FilesAnalyzed     int
	CopiedToTarget    int
	CopiedToSource    int
	Deleted           int
	Skipped           int
	ConflictsResolved int
	BytesTransferred  int64
	Errors            []EntryError
	Elapsed           time.Duration
	Cancelled         bool
}

// EntryError records a single failed plan entry.
type EntryError struct {
	RelativePath string
	Action       Action
	Err          error
}
