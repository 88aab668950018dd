package blame

import (
	"context"
	"fmt"
	"sort"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
)

// Hunk is a run of consecutive lines attributed to the same commit. Line
// numbers are 1-based. Uncommitted lines have a zero FinalCommitID and no
// signatures.
type Hunk struct {
	LinesInHunk int

	FinalCommitID  objects.ObjectID
	FinalStartLine int
	FinalSignature *commit.Signature

	OrigCommitID  objects.ObjectID
	OrigStartLine int
	OrigSignature *commit.Signature
	OrigPath      string

	// Boundary is set when the lines reached a root commit or the
	// oldest commit of the walk.
	Boundary bool
}

// Contains reports whether the final line number line is in h.
func (h *Hunk) Contains(line int) bool {
	return line >= h.FinalStartLine && line < h.FinalStartLine+h.LinesInHunk
}

// IsCommitted is false for lines that only exist in a buffer.
func (h *Hunk) IsCommitted() bool { return !h.FinalCommitID.IsZero() }

func (h *Hunk) String() string {
	id := h.FinalCommitID.Short()
	if h.Boundary {
		id = "^" + id
	}
	return fmt.Sprintf("%s %d-%d %s:%d", id, h.FinalStartLine, h.FinalStartLine+h.LinesInHunk-1, h.OrigPath, h.OrigStartLine)
}

// Result is a computed blame. It is not modified after Blame returns;
// RebaseOntoBuffer produces a new Result.
type Result struct {
	path    string
	algo    objects.HashAlgorithm
	content []byte
	minLine int
	attrs   []attribution
	whole   bool
	hunks   []*Hunk
}

// Path is the blamed path.
func (r *Result) Path() string { return r.path }

// Content returns the blamed version of the file.
func (r *Result) Content() []byte { return r.content }

// HunkCount returns the number of hunks.
func (r *Result) HunkCount() int { return len(r.hunks) }

// Hunks returns the hunks in line order.
func (r *Result) Hunks() []*Hunk { return append([]*Hunk(nil), r.hunks...) }

// LineCount returns the number of blamed lines.
func (r *Result) LineCount() int { return len(r.attrs) }

// HunkByIndex returns the i-th hunk (0-based).
func (r *Result) HunkByIndex(i int) (*Hunk, error) {
	if i < 0 || i >= len(r.hunks) {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "hunk_by_index", "index %d out of range [0,%d)", i, len(r.hunks))
	}
	return r.hunks[i], nil
}

// HunkByLine returns the hunk containing the 1-based line. A line outside
// the blamed range is NOT_FOUND.
func (r *Result) HunkByLine(line int) (*Hunk, error) {
	i := sort.Search(len(r.hunks), func(i int) bool {
		h := r.hunks[i]
		return h.FinalStartLine+h.LinesInHunk > line
	})
	if i == len(r.hunks) || !r.hunks[i].Contains(line) {
		return nil, errs.Newf(pkgName, errs.CodeNotFound, "hunk_by_line", "line %d is not blamed", line)
	}
	return r.hunks[i], nil
}

// RebaseOntoBuffer attributes buf, an edited version of the blamed file,
// without walking history again. Lines kept from the blamed version keep
// their attribution; new and changed lines are uncommitted. When only part
// of the file was blamed, the result covers the lines of buf between the
// first and last kept line of that part.
func (r *Result) RebaseOntoBuffer(ctx context.Context, buf []byte) (*Result, error) {
	if err := errs.CheckContext(ctx, pkgName, "rebase_onto_buffer"); err != nil {
		return nil, err
	}
	mapping := diff.MatchLines(r.content, buf, false)

	covered := func(i int) bool { return i >= r.minLine-1 && i < r.minLine-1+len(r.attrs) }
	lo, hi := 0, len(mapping)
	if !r.whole {
		lo, hi = -1, -1
		for j, i := range mapping {
			if i >= 0 && covered(i) {
				if lo < 0 {
					lo = j
				}
				hi = j + 1
			}
		}
		if lo < 0 {
			lo, hi = 0, 0
		}
	}

	attrs := make([]attribution, 0, hi-lo)
	for j := lo; j < hi; j++ {
		if i := mapping[j]; i >= 0 && covered(i) {
			attrs = append(attrs, r.attrs[i-(r.minLine-1)])
			continue
		}
		attrs = append(attrs, attribution{path: r.path, orig: j})
	}

	out := &Result{
		path:    r.path,
		algo:    r.algo,
		content: buf,
		minLine: lo + 1,
		attrs:   attrs,
		whole:   r.whole,
	}
	out.hunks = group(attrs, out.minLine, r.algo)
	return out, nil
}

// group joins consecutive lines with the same origin into hunks. attrs[0]
// is line firstLine of the final file.
func group(attrs []attribution, firstLine int, algo objects.HashAlgorithm) []*Hunk {
	var hunks []*Hunk
	var prev attribution
	for i, a := range attrs {
		if i > 0 && sameCommit(a.commit, prev.commit) && a.path == prev.path &&
			a.boundary == prev.boundary && a.orig == prev.orig+1 {
			hunks[len(hunks)-1].LinesInHunk++
			prev = a
			continue
		}
		h := &Hunk{
			LinesInHunk:    1,
			FinalStartLine: firstLine + i,
			OrigStartLine:  a.orig + 1,
			OrigPath:       a.path,
			Boundary:       a.boundary,
			FinalCommitID:  objects.ZeroID(algo),
			OrigCommitID:   objects.ZeroID(algo),
		}
		if a.commit != nil {
			h.FinalCommitID, h.OrigCommitID = a.commit.ID(), a.commit.ID()
			h.FinalSignature, h.OrigSignature = a.commit.Author(), a.commit.Author()
		}
		hunks = append(hunks, h)
		prev = a
	}
	return hunks
}

func sameCommit(a, b *commit.Commit) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID() == b.ID()
}
