// Package duplicate finds groups of files that represent the same logical
// content, by exact content hashing or by filename/tag heuristics, and
// resolves them through delete, rename, or merge actions.
package duplicate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"github.com/eepy-explorer/eepy/pkg/frontmatter"
	"github.com/eepy-explorer/eepy/pkg/hasher"
	"github.com/eepy-explorer/eepy/pkg/scan"
	"github.com/eepy-explorer/eepy/pkg/task"
)

// Mode selects the grouping strategy for a duplicate scan.
type Mode string

const (
	// ModeContentHash groups files whose full content digests collide.
	ModeContentHash Mode = "content"
	// ModeFilenameSuffix groups files whose basenames differ only by a
	// known copy suffix.
	ModeFilenameSuffix Mode = "suffix"
	// ModeTitle groups files sharing a filename minus extension,
	// regardless of location.
	ModeTitle Mode = "title"
	// ModeSimilarTags groups markdown notes whose tag sets overlap by at
	// least 80% of the smaller set.
	ModeSimilarTags Mode = "tags"
)

// Confidence records how certain the engine is that a group member really
// duplicates the others.
type Confidence string

const (
	// ConfidenceCertain means the member matched on a full content hash.
	ConfidenceCertain Confidence = "certain"
	// ConfidenceHeuristic means the member matched on a naming or tag
	// heuristic and has not been byte-verified.
	ConfidenceHeuristic Confidence = "heuristic"
)

// Member is one file inside a duplicate group.
type Member struct {
	scan.FileRecord
	IsOriginal    bool
	Confidence    Confidence
	SuffixPattern string
}

// Group is a set of files believed to be the same logical content.
type Group struct {
	// Key is a stable identifier: a hash prefix, suffix label, title, or
	// tag-set string depending on the scan mode.
	Key     string
	Members []Member
	// Informational marks buckets that are reported but are not
	// duplicates, such as the unique empty-files bucket. Nothing in an
	// informational group is ever proposed for deletion.
	Informational bool
}

// Original returns the member marked original, falling back to the
// deterministic default: oldest modified time, ties broken by shortest
// relative path.
func (g *Group) Original() *Member {
	for i := range g.Members {
		if g.Members[i].IsOriginal {
			return &g.Members[i]
		}
	}
	if len(g.Members) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(g.Members); i++ {
		if olderOrShorter(g.Members[i], g.Members[best]) {
			best = i
		}
	}
	return &g.Members[best]
}

func olderOrShorter(a, b Member) bool {
	if !a.ModifiedTime.Equal(b.ModifiedTime) {
		return a.ModifiedTime.Before(b.ModifiedTime)
	}
	return len(a.RelativePath) < len(b.RelativePath)
}

// DefaultMinSize is the smallest file considered by content-hash scans.
// Tiny files collide too easily to be worth hashing.
const DefaultMinSize = 1024

const progressInterval = 25

// ScanOptions configures a duplicate scan.
type ScanOptions struct {
	Mode       Mode
	Recursive  bool
	Extensions []string
	// MinSize applies only to content-hash mode. Zero means
	// DefaultMinSize; zero-byte files are always handled separately.
	MinSize int64
	// Progress receives (processed, total) at a bounded cadence.
	Progress func(processed, total int)
}

// Engine runs duplicate scans and applies resolutions.
type Engine struct {
	hasher   *hasher.Hasher
	scanner  *scan.Scanner
	patterns []string
	titleKey cases.Caser
	log      *logrus.Logger
}

// NewEngine creates an engine with the default hash algorithm and suffix
// pattern list.
func NewEngine(log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	h := hasher.MustNew()
	return &Engine{
		hasher:   h,
		scanner:  scan.NewScanner(h, log),
		patterns: CommonSuffixPatterns(),
		titleKey: cases.Fold(),
		log:      log,
	}
}

// Scan walks the given roots and groups candidate duplicates according to
// the selected mode. Cancellation is checked at file boundaries; on
// cancellation partial results are discarded and ctx.Err is returned.
func (e *Engine) Scan(ctx context.Context, roots []string, opts ScanOptions) ([]Group, error) {
	records, err := e.collect(ctx, roots, opts)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"mode":  opts.Mode,
		"files": len(records),
	}).Debug("grouping scanned files")

	switch opts.Mode {
	case ModeContentHash, "":
		return e.groupByContent(ctx, records, opts)
	case ModeFilenameSuffix:
		return e.groupBySuffix(ctx, records)
	case ModeTitle:
		return e.groupByTitle(ctx, records)
	case ModeSimilarTags:
		return e.groupBySimilarTags(ctx, records)
	default:
		return nil, fmt.Errorf("unknown scan mode: %s", opts.Mode)
	}
}

// collect walks every root into a flat record list. Tags are loaded only
// for the tag-similarity mode, which is the only consumer.
func (e *Engine) collect(ctx context.Context, roots []string, opts ScanOptions) ([]scan.FileRecord, error) {
	var records []scan.FileRecord
	for _, root := range roots {
		index, err := e.scanner.BuildIndex(ctx, root, scan.Options{
			Recursive:      opts.Recursive,
			Extensions:     opts.Extensions,
			AnalyzeContent: opts.Mode == ModeSimilarTags,
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range index {
			records = append(records, rec)
		}
	}
	// Map iteration order is random; sort for reproducible grouping.
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// groupByContent is the three-pass exact scan: size buckets, then quick
// hashes of the first chunk, then full hashes. Files that differ in size
// or early bytes are never fully read.
func (e *Engine) groupByContent(ctx context.Context, records []scan.FileRecord, opts ScanOptions) ([]Group, error) {
	minSize := opts.MinSize
	if minSize <= 0 {
		minSize = DefaultMinSize
	}

	var zeroByte, fmOnly []scan.FileRecord
	sizeBuckets := make(map[int64][]scan.FileRecord)
	total := 0
	for _, rec := range records {
		if rec.Size == 0 {
			zeroByte = append(zeroByte, rec)
			continue
		}
		if isFrontMatterOnly(rec) {
			fmOnly = append(fmOnly, rec)
			continue
		}
		if rec.Size < minSize {
			continue
		}
		sizeBuckets[rec.Size] = append(sizeBuckets[rec.Size], rec)
		total++
	}

	emit := func(processed int) {
		if opts.Progress != nil && (processed%progressInterval == 0 || processed == total) {
			opts.Progress(processed, total)
		}
	}
	emit(0)

	processed := 0
	quickBuckets := make(map[string][]scan.FileRecord)
	for _, bucket := range sizeBuckets {
		if len(bucket) < 2 {
			processed += len(bucket)
			continue
		}
		for _, rec := range bucket {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			digest, err := e.hasher.QuickHash(rec.Path)
			if err != nil {
				// Unhashable means "cannot compare": exclude from
				// grouping rather than assuming anything.
				e.log.WithError(err).WithField("path", rec.Path).Warn("skipping unhashable file")
			} else {
				key := fmt.Sprintf("%d:%s", rec.Size, digest)
				quickBuckets[key] = append(quickBuckets[key], rec)
			}
			processed++
			emit(processed)
		}
	}

	var groups []Group
	for _, bucket := range quickBuckets {
		if len(bucket) < 2 {
			processed += len(bucket)
			continue
		}
		paths := make([]string, len(bucket))
		for i, rec := range bucket {
			paths[i] = rec.Path
		}
		digests, err := task.HashFiles(ctx, e.hasher, paths, 0, nil)
		if err != nil {
			return nil, err
		}

		fullBuckets := make(map[string][]scan.FileRecord)
		for _, rec := range bucket {
			result := digests[rec.Path]
			if result.Err != nil {
				e.log.WithError(result.Err).WithField("path", rec.Path).Warn("skipping unhashable file")
			} else {
				rec.ContentHash = result.Digest
				fullBuckets[result.Digest] = append(fullBuckets[result.Digest], rec)
			}
			processed++
			emit(processed)
		}
		for digest, members := range fullBuckets {
			if len(members) > 1 {
				groups = append(groups, e.buildGroup(digest[:16], members, ConfidenceCertain))
			}
		}
	}
	emit(total)

	groups = append(groups, e.groupZeroByte(zeroByte)...)
	groups = append(groups, e.groupFrontMatterOnly(fmOnly)...)
	sortGroups(groups)
	return groups, nil
}

// isFrontMatterOnly reports whether a markdown file consists of a front
// matter block and nothing else. Such files carry metadata but no prose,
// so content hashing would group them misleadingly.
func isFrontMatterOnly(rec scan.FileRecord) bool {
	if !strings.EqualFold(filepath.Ext(rec.Path), ".md") || rec.Size > hasher.ChunkSize {
		return false
	}
	content, err := os.ReadFile(rec.Path)
	if err != nil {
		return false
	}
	block, body := frontmatter.Parse(string(content))
	return block != "" && strings.TrimSpace(body) == ""
}

// groupFrontMatterOnly mirrors the zero-byte handling for notes that are
// all metadata: identical tag sets form a group with the newest member as
// original, unique tag sets are reported once as informational.
func (e *Engine) groupFrontMatterOnly(records []scan.FileRecord) []Group {
	byTags := make(map[string][]scan.FileRecord)
	for _, rec := range records {
		sorted := append([]string(nil), scan.ExtractFileTags(rec.Path)...)
		sort.Strings(sorted)
		byTags[strings.Join(sorted, "_")] = append(byTags[strings.Join(sorted, "_")], rec)
	}

	var groups []Group
	var unique []scan.FileRecord
	for key, members := range byTags {
		if len(members) < 2 {
			unique = append(unique, members...)
			continue
		}
		group := Group{Key: "frontmatter:" + key}
		for _, rec := range members {
			group.Members = append(group.Members, Member{FileRecord: rec, Confidence: ConfidenceHeuristic})
		}
		sortMembers(group.Members)
		group.Members[len(group.Members)-1].IsOriginal = true
		groups = append(groups, group)
	}

	if len(unique) > 0 {
		bucket := Group{Key: "frontmatter:unique", Informational: true}
		sort.Slice(unique, func(i, j int) bool { return unique[i].Path < unique[j].Path })
		for _, rec := range unique {
			bucket.Members = append(bucket.Members, Member{FileRecord: rec, IsOriginal: true, Confidence: ConfidenceHeuristic})
		}
		groups = append(groups, bucket)
	}
	return groups
}

// groupZeroByte handles empty files, which are byte-identical by
// definition but rarely duplicates in intent. Shared basenames form real
// groups with the newest member as original; unique basenames are
// reported once as an informational bucket.
func (e *Engine) groupZeroByte(records []scan.FileRecord) []Group {
	byName := make(map[string][]scan.FileRecord)
	for _, rec := range records {
		name := filepath.Base(rec.Path)
		byName[name] = append(byName[name], rec)
	}

	var groups []Group
	var unique []scan.FileRecord
	for name, members := range byName {
		if len(members) < 2 {
			unique = append(unique, members...)
			continue
		}
		group := Group{Key: "empty:" + name}
		for _, rec := range members {
			group.Members = append(group.Members, Member{FileRecord: rec, Confidence: ConfidenceHeuristic})
		}
		sortMembers(group.Members)
		// For empty files the newest copy is the one being worked on.
		group.Members[len(group.Members)-1].IsOriginal = true
		groups = append(groups, group)
	}

	if len(unique) > 0 {
		bucket := Group{Key: "empty:unique", Informational: true}
		sort.Slice(unique, func(i, j int) bool { return unique[i].Path < unique[j].Path })
		for _, rec := range unique {
			bucket.Members = append(bucket.Members, Member{FileRecord: rec, IsOriginal: true, Confidence: ConfidenceHeuristic})
		}
		groups = append(groups, bucket)
	}
	return groups
}

// groupBySuffix strips known copy suffixes from each basename and groups
// files sharing the stripped base. The pattern list is ordered and the
// first substring match wins, so list order matters.
func (e *Engine) groupBySuffix(ctx context.Context, records []scan.FileRecord) ([]Group, error) {
	type annotated struct {
		rec     scan.FileRecord
		pattern string
	}
	byBase := make(map[string][]annotated)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(rec.Path)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		pattern, stripped := StripSuffixPattern(base, e.patterns)
		byBase[stripped] = append(byBase[stripped], annotated{rec: rec, pattern: pattern})
	}

	var groups []Group
	for base, members := range byBase {
		if len(members) < 2 {
			continue
		}
		group := Group{Key: "suffix:" + base}
		allSuffixed := true
		for _, m := range members {
			member := Member{
				FileRecord:    m.rec,
				IsOriginal:    m.pattern == "",
				Confidence:    ConfidenceHeuristic,
				SuffixPattern: m.pattern,
			}
			if m.pattern == "" {
				allSuffixed = false
			}
			group.Members = append(group.Members, member)
		}
		sortMembers(group.Members)
		if allSuffixed {
			// Every member still carries a suffix, so the oldest one is
			// promoted to original and its annotation cleared.
			group.Members[0].IsOriginal = true
			group.Members[0].SuffixPattern = ""
		}
		groups = append(groups, group)
	}
	sortGroups(groups)
	return groups, nil
}

// groupByTitle groups strictly by filename minus extension, independent
// of location. Keys are case-folded so "Note.md" and "note.md" land in
// the same group.
func (e *Engine) groupByTitle(ctx context.Context, records []scan.FileRecord) ([]Group, error) {
	byTitle := make(map[string][]scan.FileRecord)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Base(rec.Path)
		title := strings.TrimSuffix(name, filepath.Ext(name))
		key := e.titleKey.String(title)
		byTitle[key] = append(byTitle[key], rec)
	}

	var groups []Group
	for title, members := range byTitle {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, e.buildGroup("title:"+title, members, ConfidenceHeuristic))
	}
	sortGroups(groups)
	return groups, nil
}

// similarityThreshold is the fraction of the smaller tag set that must be
// shared for two notes to be considered similar.
const similarityThreshold = 0.8

// groupBySimilarTags groups notes whose tag sets overlap by at least 80%
// of the smaller set, with the pairwise relation transitively closed: if
// A~B and B~C then all three form one group.
func (e *Engine) groupBySimilarTags(ctx context.Context, records []scan.FileRecord) ([]Group, error) {
	var tagged []scan.FileRecord
	for _, rec := range records {
		if len(rec.Tags) > 0 {
			tagged = append(tagged, rec)
		}
	}

	parent := make([]int, len(tagged))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	sets := make([]map[string]bool, len(tagged))
	for i, rec := range tagged {
		sets[i] = make(map[string]bool, len(rec.Tags))
		for _, tag := range rec.Tags {
			sets[i][tag] = true
		}
	}

	for i := 0; i < len(tagged); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(tagged); j++ {
			if tagSetsSimilar(sets[i], sets[j]) {
				union(i, j)
			}
		}
	}

	components := make(map[int][]scan.FileRecord)
	for i, rec := range tagged {
		root := find(i)
		components[root] = append(components[root], rec)
	}

	var groups []Group
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		key := "tags:" + strings.Join(sharedTags(members), "_")
		groups = append(groups, e.buildGroup(key, members, ConfidenceHeuristic))
	}
	sortGroups(groups)
	return groups, nil
}

func tagSetsSimilar(a, b map[string]bool) bool {
	shared := 0
	for tag := range a {
		if b[tag] {
			shared++
		}
	}
	if shared == 0 {
		return false
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared) >= similarityThreshold*float64(smaller)
}

func sharedTags(members []scan.FileRecord) []string {
	counts := make(map[string]int)
	for _, rec := range members {
		for _, tag := range rec.Tags {
			counts[tag]++
		}
	}
	var shared []string
	for tag, n := range counts {
		if n == len(members) {
			shared = append(shared, tag)
		}
	}
	sort.Strings(shared)
	if len(shared) == 0 {
		// No universally shared tag; fall back to the full sorted union
		// so the key stays stable.
		for tag := range counts {
			shared = append(shared, tag)
		}
		sort.Strings(shared)
	}
	return shared
}

// buildGroup wraps records as members, annotates recognized copy
// suffixes, orders members oldest-first, and marks the original. A
// clean-named member always beats a suffixed one regardless of age; the
// oldest member wins only when no clean name exists.
func (e *Engine) buildGroup(key string, records []scan.FileRecord, confidence Confidence) Group {
	group := Group{Key: key}
	for _, rec := range records {
		name := filepath.Base(rec.Path)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		group.Members = append(group.Members, Member{
			FileRecord:    rec,
			Confidence:    confidence,
			SuffixPattern: MatchSuffixPattern(base, e.patterns),
		})
	}
	sortMembers(group.Members)
	original := -1
	for i := range group.Members {
		if group.Members[i].SuffixPattern == "" {
			original = i
			break
		}
	}
	if original < 0 {
		original = 0
		group.Members[0].SuffixPattern = ""
	}
	group.Members[original].IsOriginal = true
	return group
}

func sortMembers(members []Member) {
	sort.Slice(members, func(i, j int) bool { return olderOrShorter(members[i], members[j]) })
}

func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
}
