// Package merge implements dry-run conflict detection (via go-git tree
// diffing, no subprocess) and the confirmed merge (via the git CLI).
package merge

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/hydraai/hydra/internal/gitexec"
	"github.com/hydraai/hydra/internal/hydraerr"
)

// Report is the outcome of either a dry run or a confirmed merge.
type Report struct {
	CanMerge     bool
	FilesChanged []string
	Conflicts    []string
	Reason       string
}

// DryRun resolves the merge base of source/target, diffs each side against
// it with go-git's tree diff, and flags a conflict whenever both sides
// touch the same path with overlapping hunks. It never runs a git
// subprocess and never mutates the working tree.
func DryRun(repoRoot, source, target string) (*Report, error) {
	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "opening repository for dry-run", err)
	}

	sourceCommit, err := resolveCommit(repo, source)
	if err != nil {
		return nil, err
	}
	targetCommit, err := resolveCommit(repo, target)
	if err != nil {
		return nil, err
	}

	base, err := mergeBase(repo, sourceCommit, targetCommit)
	if err != nil {
		return nil, err
	}

	sourceChanges, err := diffAgainstBase(base, sourceCommit)
	if err != nil {
		return nil, err
	}
	targetChanges, err := diffAgainstBase(base, targetCommit)
	if err != nil {
		return nil, err
	}

	filesChangedSet := map[string]bool{}
	for path := range sourceChanges {
		filesChangedSet[path] = true
	}

	var conflicts []string
	for path, sourceBlob := range sourceChanges {
		targetBlob, touched := targetChanges[path]
		if !touched {
			continue
		}
		if hunksOverlap(sourceBlob.before, sourceBlob.after, targetBlob.before, targetBlob.after) {
			conflicts = append(conflicts, path)
		}
	}
	sort.Strings(conflicts)

	filesChanged := make([]string, 0, len(filesChangedSet))
	for p := range filesChangedSet {
		filesChanged = append(filesChanged, p)
	}
	sort.Strings(filesChanged)

	report := &Report{
		CanMerge:     len(conflicts) == 0,
		FilesChanged: filesChanged,
		Conflicts:    conflicts,
	}
	if !report.CanMerge {
		report.Reason = "conflict"
	}
	return report, nil
}

// Merge performs the confirmed merge: checkout target, merge --no-ff
// source. On conflict the merge is aborted and the report reflects
// can_merge=false without touching the working tree beyond the abort.
func Merge(ctx context.Context, repoRoot, source, target string) (*Report, error) {
	if _, err := gitexec.Run(ctx, repoRoot, gitexec.DefaultTimeout, "checkout", target); err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "checkout "+target, err)
	}

	_, err := gitexec.Run(ctx, repoRoot, gitexec.DefaultTimeout, "merge", "--no-ff", source,
		"-m", fmt.Sprintf("merge %s into %s", source, target))
	if err == nil {
		return &Report{CanMerge: true}, nil
	}

	// Read the unmerged paths before the abort clears them from the index.
	conflicts := conflictedPaths(ctx, repoRoot)

	if _, abortErr := gitexec.Run(ctx, repoRoot, gitexec.DefaultTimeout, "merge", "--abort"); abortErr != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "merge --abort after conflict", abortErr)
	}

	return &Report{CanMerge: false, Conflicts: conflicts, Reason: "conflict"}, nil
}

func conflictedPaths(ctx context.Context, repoRoot string) []string {
	res, err := gitexec.Run(ctx, repoRoot, gitexec.DefaultTimeout, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil
	}
	var paths []string
	for _, line := range splitLines(res.Stdout) {
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func resolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(revision(ref))
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "resolving "+ref, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "loading commit for "+ref, err)
	}
	return commit, nil
}

func mergeBase(repo *git.Repository, a, b *object.Commit) (*object.Commit, error) {
	bases, err := a.MergeBase(b)
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "computing merge base", err)
	}
	if len(bases) == 0 {
		return nil, hydraerr.New(hydraerr.KindGit, "no common ancestor between source and target")
	}
	return bases[0], nil
}

type blobChange struct {
	before string
	after  string
}

// diffAgainstBase returns, for every path that differs between base and
// commit, the before/after file content (empty string for add/delete).
func diffAgainstBase(base, commit *object.Commit) (map[string]blobChange, error) {
	baseTree, err := base.Tree()
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "reading base tree", err)
	}
	commitTree, err := commit.Tree()
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "reading commit tree", err)
	}

	changes, err := object.DiffTree(baseTree, commitTree)
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindGit, "diffing trees", err)
	}

	result := make(map[string]blobChange, len(changes))
	for _, change := range changes {
		before, _ := fileContent(baseTree, change.From.Name)
		after, _ := fileContent(commitTree, change.To.Name)
		path := change.To.Name
		if path == "" {
			path = change.From.Name
		}
		result[path] = blobChange{before: before, after: after}
	}
	return result, nil
}

func fileContent(tree *object.Tree, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	f, err := tree.File(path)
	if err != nil {
		return "", err
	}
	return f.Contents()
}

// hunksOverlap reports whether source's and target's edits against the same
// base blob touch overlapping byte ranges, using go-diff's character-level
// diff to locate each side's changed spans.
func hunksOverlap(sourceBefore, sourceAfter, targetBefore, targetAfter string) bool {
	if sourceBefore != targetBefore {
		// Diverged base content (shouldn't normally happen for a shared
		// merge-base blob) — treat conservatively as overlapping.
		return true
	}

	dmp := diffmatchpatch.New()
	sourceDiffs := dmp.DiffMain(sourceBefore, sourceAfter, false)
	targetDiffs := dmp.DiffMain(targetBefore, targetAfter, false)

	sourceRanges := changedByteRanges(sourceDiffs)
	targetRanges := changedByteRanges(targetDiffs)

	for _, sr := range sourceRanges {
		for _, tr := range targetRanges {
			if sr.start < tr.end && tr.start < sr.end {
				return true
			}
			// A zero-width (insertion) range touches any range that
			// contains or borders its offset.
			if (sr.start == sr.end || tr.start == tr.end) && sr.start <= tr.end && tr.start <= sr.end {
				return true
			}
		}
	}
	return false
}

type byteRange struct{ start, end int }

// changedByteRanges walks a diffmatchpatch diff, returning the byte offsets
// (in the "before" text) that the diff deletes or replaces.
func changedByteRanges(diffs []diffmatchpatch.Diff) []byteRange {
	var ranges []byteRange
	pos := 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			ranges = append(ranges, byteRange{start: pos, end: pos + len(d.Text)})
			pos += len(d.Text)
		case diffmatchpatch.DiffInsert:
			// insertions don't advance "before" position; record a
			// zero-width range at the insertion point so two insertions
			// at the same offset still count as touching the same spot.
			ranges = append(ranges, byteRange{start: pos, end: pos})
		}
	}
	return ranges
}

func revision(ref string) plumbing.Revision {
	return plumbing.Revision(ref)
}
