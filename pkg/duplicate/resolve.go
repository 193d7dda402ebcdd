package duplicate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eepy-explorer/eepy/pkg/hasher"
)

// ActionKind is a filesystem action applied to a duplicate.
type ActionKind string

const (
	ActionDelete ActionKind = "delete"
	ActionRename ActionKind = "rename"
	ActionMove   ActionKind = "move"
)

// Action is one requested mutation. NewPath is required for rename and
// move, ignored for delete.
type Action struct {
	Kind    ActionKind
	Path    string
	NewPath string
	Reason  string
	// Err is filled in when the action lands in the failed list.
	Err error
}

// ResolveResult splits a batch into the actions that applied cleanly and
// the ones that failed, each failure carrying its own error.
type ResolveResult struct {
	Succeeded []Action
	Failed    []Action
}

// Resolve applies a batch of actions best-effort: a single failure is
// recorded and the remaining actions still run. Cancellation stops the
// batch between actions; actions already applied are not rolled back.
func (e *Engine) Resolve(ctx context.Context, actions []Action) ResolveResult {
	var result ResolveResult
	for _, action := range actions {
		if ctx.Err() != nil {
			break
		}
		if err := e.applyAction(action); err != nil {
			action.Err = err
			result.Failed = append(result.Failed, action)
			e.log.WithError(err).WithFields(logrus.Fields{
				"kind": action.Kind,
				"path": action.Path,
			}).Warn("duplicate action failed")
			continue
		}
		result.Succeeded = append(result.Succeeded, action)
	}
	return result
}

func (e *Engine) applyAction(action Action) error {
	switch action.Kind {
	case ActionDelete:
		if err := os.Remove(action.Path); err != nil {
			return fmt.Errorf("delete %s: %w", action.Path, err)
		}
	case ActionRename, ActionMove:
		if action.NewPath == "" {
			return fmt.Errorf("%s %s: no destination", action.Kind, action.Path)
		}
		if action.Kind == ActionMove {
			if err := os.MkdirAll(filepath.Dir(action.NewPath), 0755); err != nil {
				return fmt.Errorf("move %s: %w", action.Path, err)
			}
		}
		if err := os.Rename(action.Path, action.NewPath); err != nil {
			return fmt.Errorf("%s %s: %w", action.Kind, action.Path, err)
		}
	default:
		return fmt.Errorf("unknown action kind: %s", action.Kind)
	}
	return nil
}

// SuggestionConfidence grades a proposed resolution.
type SuggestionConfidence string

const (
	SuggestionHigh   SuggestionConfidence = "high"
	SuggestionMedium SuggestionConfidence = "medium"
)

// Suggestion is a proposed resolution for one group member.
type Suggestion struct {
	Action     ActionKind
	Path       string
	Reason     string
	Confidence SuggestionConfidence
}

// SuggestResolutions proposes deleting every non-original member of each
// real duplicate group. A member carrying a recognized copy suffix is a
// high-confidence suggestion; anything else is medium and should be
// reviewed. Informational buckets produce no suggestions.
func (e *Engine) SuggestResolutions(groups []Group) []Suggestion {
	var suggestions []Suggestion
	for i := range groups {
		group := &groups[i]
		if group.Informational {
			continue
		}
		original := group.Original()
		if original == nil {
			continue
		}
		for _, member := range group.Members {
			if member.Path == original.Path {
				continue
			}
			s := Suggestion{
				Action:     ActionDelete,
				Path:       member.Path,
				Reason:     "duplicate of " + original.Path,
				Confidence: SuggestionMedium,
			}
			if member.SuffixPattern != "" {
				s.Confidence = SuggestionHigh
			}
			suggestions = append(suggestions, s)
		}
	}
	return suggestions
}

// VerifyIdentical is the authoritative byte-for-byte comparison. It is
// mandatory before auto-deleting any member matched by a heuristic mode;
// only the content-hash full-hash path may skip it.
func (e *Engine) VerifyIdentical(pathA, pathB string) (bool, error) {
	return hasher.VerifyIdentical(pathA, pathB)
}

// AutoResolve deletes the non-original members of each group, verifying
// heuristic matches byte-for-byte against the original first. Members
// that fail verification are returned as unverified for manual review
// instead of being deleted.
func (e *Engine) AutoResolve(ctx context.Context, groups []Group) (ResolveResult, []Member) {
	var actions []Action
	var unverified []Member
	for i := range groups {
		group := &groups[i]
		if group.Informational {
			continue
		}
		original := group.Original()
		if original == nil {
			continue
		}
		for _, member := range group.Members {
			if member.Path == original.Path {
				continue
			}
			if member.Confidence != ConfidenceCertain {
				same, err := e.VerifyIdentical(original.Path, member.Path)
				if err != nil || !same {
					unverified = append(unverified, member)
					continue
				}
			}
			actions = append(actions, Action{
				Kind:   ActionDelete,
				Path:   member.Path,
				Reason: "duplicate of " + original.Path,
			})
		}
	}
	return e.Resolve(ctx, actions), unverified
}

// Comparison is the detailed result of comparing two specific files.
type Comparison struct {
	PathA, PathB         string
	NameA, NameB         string
	SizeA, SizeB         int64
	ModifiedA, ModifiedB time.Time
	SizeMatch            bool
	QuickHashMatch       bool
	FullHashMatch        bool
	Identical            bool
}

// Compare runs the staged comparison between two files, stopping at the
// first stage that proves them different.
func (e *Engine) Compare(pathA, pathB string) (*Comparison, error) {
	infoA, err := os.Stat(pathA)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", pathA, err)
	}
	infoB, err := os.Stat(pathB)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", pathB, err)
	}

	result := &Comparison{
		PathA: pathA, PathB: pathB,
		NameA: filepath.Base(pathA), NameB: filepath.Base(pathB),
		SizeA: infoA.Size(), SizeB: infoB.Size(),
		ModifiedA: infoA.ModTime(), ModifiedB: infoB.ModTime(),
		SizeMatch: infoA.Size() == infoB.Size(),
	}
	if !result.SizeMatch {
		return result, nil
	}

	quickA, err := e.hasher.QuickHash(pathA)
	if err != nil {
		return nil, err
	}
	quickB, err := e.hasher.QuickHash(pathB)
	if err != nil {
		return nil, err
	}
	result.QuickHashMatch = quickA == quickB
	if !result.QuickHashMatch {
		return result, nil
	}

	fullA, err := e.hasher.FullHash(pathA)
	if err != nil {
		return nil, err
	}
	fullB, err := e.hasher.FullHash(pathB)
	if err != nil {
		return nil, err
	}
	result.FullHashMatch = fullA == fullB
	result.Identical = result.FullHashMatch
	return result, nil
}
