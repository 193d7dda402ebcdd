package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eepy-explorer/eepy/pkg/scan"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func buildPair(t *testing.T) (engine *Engine, source, target string) {
	t.Helper()
	source = t.TempDir()
	target = t.TempDir()
	return NewEngine(source, target, nil), source, target
}

func indexes(t *testing.T, engine *Engine, opts scan.Options) (scan.Index, scan.Index) {
	t.Helper()
	opts.Recursive = true
	src, tgt, err := engine.BuildIndexes(context.Background(), opts)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	return src, tgt
}

func entriesByAction(plan []PlanEntry, action Action) []PlanEntry {
	var out []PlanEntry
	for _, e := range plan {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func TestDiffOneSidedTwoWay(t *testing.T) {
	engine, source, target := buildPair(t)
	writeFile(t, source, "only-source.md", "s\n")
	writeFile(t, target, "only-target.md", "t\n")

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Mode: ModeTwoWay})

	if got := entriesByAction(plan, ActionCopyToTarget); len(got) != 1 || got[0].RelativePath != "only-source.md" {
		t.Errorf("expected one copy-to-target for only-source.md, got %+v", got)
	}
	if got := entriesByAction(plan, ActionCopyToSource); len(got) != 1 || got[0].RelativePath != "only-target.md" {
		t.Errorf("expected one copy-to-source for only-target.md, got %+v", got)
	}
}

func TestDiffMirrorOrphans(t *testing.T) {
	engine, _, target := buildPair(t)
	writeFile(t, target, "orphan.md", "t\n")

	src, tgt := indexes(t, engine, scan.Options{})

	plan := engine.Diff(src, tgt, DiffOptions{Mode: ModeMirror, DeleteOrphaned: true})
	if got := entriesByAction(plan, ActionDelete); len(got) != 1 || got[0].RelativePath != "orphan.md" {
		t.Errorf("expected orphan delete, got %+v", got)
	}

	plan = engine.Diff(src, tgt, DiffOptions{Mode: ModeMirror})
	if len(plan) != 0 {
		t.Errorf("orphan without deleteOrphaned should produce no entry, got %+v", plan)
	}

	plan = engine.Diff(src, tgt, DiffOptions{Mode: ModeOneWay})
	if got := entriesByAction(plan, ActionCopyToSource); len(got) != 0 {
		t.Errorf("one-way sync must never copy back to source, got %+v", got)
	}
}

func TestDiffNewerWins(t *testing.T) {
	// Source has the newer, larger note; policy Newer copies it over.
	engine, source, target := buildPair(t)
	srcPath := writeFile(t, source, "note.md", strings.Repeat("new content\n", 10))
	tgtPath := writeFile(t, target, "note.md", strings.Repeat("old\n", 20))
	setMtime(t, srcPath, time.Now())
	setMtime(t, tgtPath, time.Now().Add(-time.Hour))

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyNewer})

	if len(plan) != 1 || plan[0].Action != ActionCopyToTarget || plan[0].RelativePath != "note.md" {
		t.Fatalf("expected single copy-to-target for note.md, got %+v", plan)
	}
	if plan[0].Source == nil || plan[0].Target == nil {
		t.Error("conflict entry should carry both records")
	}
}

func TestDiffEquivalenceTolerance(t *testing.T) {
	engine, source, target := buildPair(t)
	srcPath := writeFile(t, source, "same.md", "content\n")
	tgtPath := writeFile(t, target, "same.md", "content\n")
	// Same size, mtimes within the one second tolerance.
	base := time.Now().Add(-time.Minute)
	setMtime(t, srcPath, base)
	setMtime(t, tgtPath, base.Add(500*time.Millisecond))

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyNewer})

	if len(plan) != 1 || plan[0].Action != ActionSkip {
		t.Errorf("files within tolerance should skip, got %+v", plan)
	}
}

func TestDiffContentHashOverridesMtime(t *testing.T) {
	// Identical content with far-apart mtimes still skips when hashes
	// are available.
	engine, source, target := buildPair(t)
	srcPath := writeFile(t, source, "same.md", "identical content\n")
	tgtPath := writeFile(t, target, "same.md", "identical content\n")
	setMtime(t, srcPath, time.Now())
	setMtime(t, tgtPath, time.Now().Add(-24*time.Hour))

	src, tgt := indexes(t, engine, scan.Options{AnalyzeContent: true})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyNewer})

	if len(plan) != 1 || plan[0].Action != ActionSkip {
		t.Errorf("hash-equal files should skip regardless of mtime, got %+v", plan)
	}
}

func TestDiffPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy ConflictPolicy
		want   Action
	}{
		{"prefer source", PolicyPreferSource, ActionCopyToTarget},
		{"prefer target", PolicyPreferTarget, ActionCopyToSource},
		{"larger wins", PolicyLargerWins, ActionCopyToTarget},
		{"skip", PolicySkip, ActionSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, source, target := buildPair(t)
			srcPath := writeFile(t, source, "x.md", strings.Repeat("source side\n", 5))
			tgtPath := writeFile(t, target, "x.md", "target\n")
			// Target newer, so a Newer policy would pick the other side.
			setMtime(t, srcPath, time.Now().Add(-time.Hour))
			setMtime(t, tgtPath, time.Now())

			src, tgt := indexes(t, engine, scan.Options{})
			plan := engine.Diff(src, tgt, DiffOptions{Policy: tt.policy})
			if len(plan) != 1 || plan[0].Action != tt.want {
				t.Errorf("policy %s: expected %s, got %+v", tt.policy, tt.want, plan)
			}
		})
	}
}

func TestDiffKeepBoth(t *testing.T) {
	engine, source, target := buildPair(t)
	writeFile(t, source, "x.md", "source version\n")
	writeFile(t, target, "x.md", "target version!\n")

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyKeepBoth})

	renames := entriesByAction(plan, ActionRenameWithSuffix)
	if len(renames) != 2 {
		t.Fatalf("expected 2 rename entries, got %+v", plan)
	}
	var names []string
	for _, r := range renames {
		names = append(names, r.NewRelativePath)
	}
	if names[0] != "x.source.md" && names[1] != "x.source.md" {
		t.Errorf("missing x.source.md in %v", names)
	}
	if names[0] != "x.target.md" && names[1] != "x.target.md" {
		t.Errorf("missing x.target.md in %v", names)
	}
}

func TestDiffKeepBothCollisionDropped(t *testing.T) {
	engine, source, target := buildPair(t)
	writeFile(t, source, "x.md", "source version\n")
	writeFile(t, target, "x.md", "target version!\n")
	// The disambiguated name already exists on the opposite side, so the
	// conflict is silently dropped.
	writeFile(t, target, "x.source.md", "stale\n")

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyKeepBoth})

	if got := entriesByAction(plan, ActionRenameWithSuffix); len(got) != 0 {
		t.Errorf("collision should drop the conflict entirely, got %+v", got)
	}
}

func TestApplyCopiesAndCounts(t *testing.T) {
	engine, source, target := buildPair(t)
	srcPath := writeFile(t, source, "notes/new.md", "hello\n")
	mtime := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	setMtime(t, srcPath, mtime)

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{})
	stats := engine.Apply(context.Background(), plan, ApplyOptions{})

	if stats.CopiedToTarget != 1 {
		t.Errorf("expected 1 copy to target, got %d", stats.CopiedToTarget)
	}
	if stats.BytesTransferred != 6 {
		t.Errorf("expected 6 bytes transferred, got %d", stats.BytesTransferred)
	}
	copied := filepath.Join(target, "notes/new.md")
	info, err := os.Stat(copied)
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if !info.ModTime().Truncate(time.Second).Equal(mtime) {
		t.Errorf("mtime not preserved: got %v want %v", info.ModTime(), mtime)
	}
}

func TestApplyDryRunPure(t *testing.T) {
	engine, source, target := buildPair(t)
	writeFile(t, source, "a.md", "a\n")
	writeFile(t, target, "b.md", "b\n")

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{})
	before := snapshotTree(t, source, target)

	stats := engine.Apply(context.Background(), plan, ApplyOptions{DryRun: true})

	if after := snapshotTree(t, source, target); before != after {
		t.Errorf("dry run mutated the filesystem:\nbefore %s\nafter  %s", before, after)
	}
	if stats.CopiedToTarget != 0 || stats.CopiedToSource != 0 {
		t.Errorf("dry run should count no copies, got %+v", stats)
	}
}

func snapshotTree(t *testing.T, roots ...string) string {
	t.Helper()
	var b strings.Builder
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				b.WriteString(path)
				b.WriteString("|")
				b.WriteString(info.ModTime().String())
				b.WriteString("|")
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				b.Write(content)
				b.WriteString("\n")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk %s: %v", root, err)
		}
	}
	return b.String()
}

func TestApplyIdempotent(t *testing.T) {
	engine, source, target := buildPair(t)
	writeFile(t, source, "a.md", "alpha\n")
	writeFile(t, target, "b.md", "beta\n")

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Mode: ModeTwoWay})
	engine.Apply(context.Background(), plan, ApplyOptions{})

	// A second diff over rescanned trees should be all skips.
	src, tgt = indexes(t, engine, scan.Options{})
	second := engine.Diff(src, tgt, DiffOptions{Mode: ModeTwoWay})
	for _, entry := range second {
		if entry.Action != ActionSkip {
			t.Errorf("second run should be a no-op, got %+v", entry)
		}
	}
	if len(second) != 2 {
		t.Errorf("expected 2 skip entries after convergence, got %d", len(second))
	}
}

func TestApplyTagSyncConverges(t *testing.T) {
	engine, source, target := buildPair(t)
	srcPath := writeFile(t, source, "note.md", "---\ntags: [alpha]\n---\nbody\n")
	tgtPath := writeFile(t, target, "note.md", "---\ntags: [beta]\n---\nbody\n")
	base := time.Now().Add(-time.Hour)
	setMtime(t, tgtPath, base)
	setMtime(t, srcPath, base.Add(time.Minute))

	opts := ApplyOptions{SyncTags: true}
	run := func() []PlanEntry {
		src, tgt := indexes(t, engine, scan.Options{})
		plan := engine.Diff(src, tgt, DiffOptions{Mode: ModeTwoWay, Policy: PolicyNewer})
		engine.Apply(context.Background(), plan, opts)
		return plan
	}

	run()
	tags := scan.ExtractFileTags(tgtPath)
	if len(tags) != 2 {
		t.Fatalf("target tags not merged, got %v", tags)
	}

	// Tag sets stabilize within a bounded number of runs, after which
	// every entry is a skip.
	run()
	third := run()
	for _, entry := range third {
		if entry.Action != ActionSkip {
			t.Errorf("tag sync never converged, got %+v", entry)
		}
	}
	if tags := scan.ExtractFileTags(srcPath); len(tags) != 2 {
		t.Errorf("source tags not merged back, got %v", tags)
	}
}

func TestMergeTagsIntoFileNoOpKeepsMtime(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "note.md", "---\ntags: [alpha, beta]\n---\nbody\n")
	stamp := time.Now().Add(-time.Hour)
	setMtime(t, path, stamp)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := mergeTagsIntoFile(path, []string{"alpha"}); err != nil {
		t.Fatalf("mergeTagsIntoFile: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(after) != string(before) {
		t.Error("note rewritten although it already carried every tag")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.ModTime().Equal(stamp) {
		t.Errorf("mtime changed from %v to %v", stamp, info.ModTime())
	}
}

func TestMergeTagsIntoFilePreservesMtimeOnRealMerge(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "note.md", "---\ntags: [alpha]\n---\nbody\n")
	stamp := time.Now().Add(-time.Hour).Truncate(time.Second)
	setMtime(t, path, stamp)

	if err := mergeTagsIntoFile(path, []string{"beta"}); err != nil {
		t.Fatalf("mergeTagsIntoFile: %v", err)
	}

	if tags := scan.ExtractFileTags(path); len(tags) != 2 {
		t.Fatalf("tags not merged, got %v", tags)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.ModTime().Equal(stamp) {
		t.Errorf("mtime changed from %v to %v", stamp, info.ModTime())
	}
}

func TestApplyCreatesBackups(t *testing.T) {
	engine, source, target := buildPair(t)
	srcPath := writeFile(t, source, "note.md", "new version\n")
	writeFile(t, target, "note.md", "old version..\n")
	setMtime(t, srcPath, time.Now().Add(time.Hour))

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyNewer})
	engine.Apply(context.Background(), plan, ApplyOptions{CreateBackups: true})

	backupDir := filepath.Join(target, BackupDirName)
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("backup dir missing: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".bak") {
		t.Fatalf("expected one .bak backup, got %v", entries)
	}
	content, err := os.ReadFile(filepath.Join(backupDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(content) != "old version..\n" {
		t.Errorf("backup does not hold pre-overwrite content: %q", content)
	}
}

func TestApplySyncTagsAdditive(t *testing.T) {
	engine, source, target := buildPair(t)
	srcPath := writeFile(t, source, "note.md", "---\ntags: [shared, fresh]\n---\nNew body.\n")
	writeFile(t, target, "note.md", "---\ntags: [shared, local-only]\n---\nOld body.\n")
	setMtime(t, srcPath, time.Now().Add(time.Hour))

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyNewer})
	stats := engine.Apply(context.Background(), plan, ApplyOptions{SyncTags: true})
	if len(stats.Errors) != 0 {
		t.Fatalf("apply errors: %+v", stats.Errors)
	}

	content, err := os.ReadFile(filepath.Join(target, "note.md"))
	if err != nil {
		t.Fatalf("read synced note: %v", err)
	}
	for _, tag := range []string{"shared", "fresh", "local-only"} {
		if !strings.Contains(string(content), tag) {
			t.Errorf("tag %q lost during sync:\n%s", tag, content)
		}
	}
	if !strings.Contains(string(content), "New body.") {
		t.Error("content copy did not happen")
	}
}

func TestApplyKeepBothProducesBothFiles(t *testing.T) {
	engine, source, target := buildPair(t)
	writeFile(t, source, "x.md", "source version\n")
	writeFile(t, target, "x.md", "target version!\n")

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{Policy: PolicyKeepBoth})
	stats := engine.Apply(context.Background(), plan, ApplyOptions{})

	if stats.ConflictsResolved != 2 {
		t.Errorf("expected 2 resolved conflict entries, got %d", stats.ConflictsResolved)
	}
	if content, err := os.ReadFile(filepath.Join(target, "x.source.md")); err != nil || string(content) != "source version\n" {
		t.Errorf("x.source.md wrong in target: %q, %v", content, err)
	}
	if content, err := os.ReadFile(filepath.Join(source, "x.target.md")); err != nil || string(content) != "target version!\n" {
		t.Errorf("x.target.md wrong in source: %q, %v", content, err)
	}
	// The plain-named files stay in place.
	if _, err := os.Stat(filepath.Join(source, "x.md")); err != nil {
		t.Error("source x.md should remain")
	}
	if _, err := os.Stat(filepath.Join(target, "x.md")); err != nil {
		t.Error("target x.md should remain")
	}
}

func TestApplyBestEffortErrors(t *testing.T) {
	engine, source, target := buildPair(t)
	writeFile(t, source, "good.md", "fine\n")

	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{})

	// Sabotage: remove the source file after scanning so the copy fails,
	// then add a second entry that still succeeds.
	if err := os.Remove(filepath.Join(source, "good.md")); err != nil {
		t.Fatal(err)
	}
	okPath := writeFile(t, source, "ok.md", "ok\n")
	rec := scan.FileRecord{Path: okPath, RelativePath: "ok.md", Size: 3}
	plan = append(plan, PlanEntry{Action: ActionCopyToTarget, RelativePath: "ok.md", Source: &rec, Reason: "only in source"})

	stats := engine.Apply(context.Background(), plan, ApplyOptions{})

	if len(stats.Errors) != 1 || stats.Errors[0].RelativePath != "good.md" {
		t.Errorf("expected one error for good.md, got %+v", stats.Errors)
	}
	if stats.CopiedToTarget != 1 {
		t.Errorf("later entries should still apply, got %d copies", stats.CopiedToTarget)
	}
	if _, err := os.Stat(filepath.Join(target, "ok.md")); err != nil {
		t.Error("ok.md should have been copied despite the earlier failure")
	}
}

func TestApplyCancellation(t *testing.T) {
	engine, source, _ := buildPair(t)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		writeFile(t, source, name, "x\n")
	}
	src, tgt := indexes(t, engine, scan.Options{})
	plan := engine.Diff(src, tgt, DiffOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := engine.Apply(ctx, plan, ApplyOptions{})
	if !stats.Cancelled {
		t.Error("stats should record cancellation")
	}
	if stats.CopiedToTarget != 0 {
		t.Errorf("pre-cancelled apply should copy nothing, got %d", stats.CopiedToTarget)
	}
}
