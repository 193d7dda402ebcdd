package syncer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eepy-explorer/eepy/pkg/scan"
)

// Action is the kind of mutation a plan entry proposes.
type Action string

const (
	ActionCopyToTarget     Action = "copy-to-target"
	ActionCopyToSource     Action = "copy-to-source"
	ActionDelete           Action = "delete"
	ActionRenameWithSuffix Action = "rename-with-suffix"
	ActionSkip             Action = "skip"
)

// PlanEntry is one proposed action between the two trees. Source and
// Target are nil when the corresponding side has no file at the relative
// path; both are set for conflict-resolved entries.
type PlanEntry struct {
	Action       Action
	RelativePath string
	// NewRelativePath is the disambiguated name for rename entries.
	NewRelativePath string
	Source          *scan.FileRecord
	Target          *scan.FileRecord
	Reason          string
}

func (e PlanEntry) String() string {
	if e.Action == ActionRenameWithSuffix {
		return fmt.Sprintf("%s %s -> %s (%s)", e.Action, e.RelativePath, e.NewRelativePath, e.Reason)
	}
	return fmt.Sprintf("%s %s (%s)", e.Action, e.RelativePath, e.Reason)
}

// Diff compares two indexes and produces a sync plan. It touches no
// files; rename collision checks consult the indexes, not the disk. The
// plan is ordered by relative path so repeated runs are comparable.
func (e *Engine) Diff(source, target scan.Index, opts DiffOptions) []PlanEntry {
	if opts.Mode == "" {
		opts.Mode = ModeTwoWay
	}
	if opts.Policy == "" {
		opts.Policy = PolicyNewer
	}

	var plan []PlanEntry

	for _, rel := range sortedKeys(source) {
		if _, ok := target[rel]; ok {
			continue
		}
		rec := source[rel]
		plan = append(plan, PlanEntry{
			Action:       ActionCopyToTarget,
			RelativePath: rel,
			Source:       &rec,
			Reason:       "only in source",
		})
	}

	for _, rel := range sortedKeys(target) {
		if _, ok := source[rel]; ok {
			continue
		}
		rec := target[rel]
		switch {
		case opts.Mode == ModeTwoWay:
			plan = append(plan, PlanEntry{
				Action:       ActionCopyToSource,
				RelativePath: rel,
				Target:       &rec,
				Reason:       "only in target",
			})
		case opts.DeleteOrphaned:
			plan = append(plan, PlanEntry{
				Action:       ActionDelete,
				RelativePath: rel,
				Target:       &rec,
				Reason:       "orphaned in target",
			})
		}
	}

	for _, rel := range sortedKeys(source) {
		srcRec, ok1 := source[rel]
		tgtRec, ok2 := target[rel]
		if !ok1 || !ok2 {
			continue
		}
		plan = append(plan, e.resolveConflict(rel, srcRec, tgtRec, source, target, opts)...)
	}

	sort.SliceStable(plan, func(i, j int) bool { return plan[i].RelativePath < plan[j].RelativePath })
	return plan
}

// recordsEquivalent reports whether two sides hold the same content.
// Content hashes are authoritative when both are present; otherwise size
// plus a modified-time tolerance stands in. A record that could not be
// hashed is treated as different, forcing a policy decision instead of a
// silent skip.
func recordsEquivalent(a, b scan.FileRecord) bool {
	if a.ContentHash != "" && b.ContentHash != "" {
		return a.ContentHash == b.ContentHash
	}
	return a.Size == b.Size && a.ModifiedEqual(b, ModTimeTolerance)
}

func (e *Engine) resolveConflict(rel string, src, tgt scan.FileRecord, sourceIdx, targetIdx scan.Index, opts DiffOptions) []PlanEntry {
	if recordsEquivalent(src, tgt) {
		return []PlanEntry{{
			Action:       ActionSkip,
			RelativePath: rel,
			Source:       &src,
			Target:       &tgt,
			Reason:       "identical content",
		}}
	}

	toTarget := func(reason string) []PlanEntry {
		return []PlanEntry{{Action: ActionCopyToTarget, RelativePath: rel, Source: &src, Target: &tgt, Reason: reason}}
	}
	toSource := func(reason string) []PlanEntry {
		return []PlanEntry{{Action: ActionCopyToSource, RelativePath: rel, Source: &src, Target: &tgt, Reason: reason}}
	}

	switch opts.Policy {
	case PolicyNewer:
		if src.ModifiedTime.After(tgt.ModifiedTime) {
			return toTarget("source is newer")
		}
		return toSource("target is newer")
	case PolicyPreferSource:
		return toTarget("source preferred")
	case PolicyPreferTarget:
		return toSource("target preferred")
	case PolicyLargerWins:
		if src.Size > tgt.Size {
			return toTarget("source is larger")
		}
		return toSource("target is larger")
	case PolicyKeepBoth:
		ext := filepath.Ext(rel)
		base := strings.TrimSuffix(rel, ext)
		sourceName := base + ".source" + ext
		targetName := base + ".target" + ext
		// If either disambiguated name already exists on the opposite
		// side, the whole conflict is dropped rather than overwritten.
		if _, exists := targetIdx[sourceName]; exists {
			return nil
		}
		if _, exists := sourceIdx[targetName]; exists {
			return nil
		}
		return []PlanEntry{
			{
				Action:          ActionRenameWithSuffix,
				RelativePath:    rel,
				NewRelativePath: sourceName,
				Source:          &src,
				Reason:          "keeping both versions",
			},
			{
				Action:          ActionRenameWithSuffix,
				RelativePath:    rel,
				NewRelativePath: targetName,
				Target:          &tgt,
				Reason:          "keeping both versions",
			},
		}
	case PolicySkip:
		return []PlanEntry{{
			Action:       ActionSkip,
			RelativePath: rel,
			Source:       &src,
			Target:       &tgt,
			Reason:       "conflict, skipped by policy",
		}}
	}
	return nil
}

func sortedKeys(index scan.Index) []string {
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
