// Package blame attributes each line of a file to the commit that last
// changed it.
//
// Blame walks history newest first, keeping a queue of suspects ordered by
// committer time. A suspect passes the lines it shares with a parent's
// version of the file on to that parent and keeps the rest. With copy
// tracking enabled, the lines a commit would keep are also searched for in
// other files of its parent.
package blame

import (
	"context"
	"log/slog"
	"slices"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/blob"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
)

const pkgName = "blame"

// attribution is the verdict for one line. A nil commit means the line is
// not committed.
type attribution struct {
	commit   *commit.Commit
	path     string
	orig     int
	boundary bool
}

type blamer struct {
	ctx      context.Context
	repo     Repository
	opts     Options
	log      *slog.Logger
	queue    *suspectQueue
	queued   map[suspectKey]*suspect
	final    []attribution
	examined int
}

// Blame computes the line attribution of path as of opts.NewestCommit.
// A path missing from that commit is NOT_FOUND; a line range outside the
// file is INVALID_ARGUMENT.
func Blame(ctx context.Context, repo Repository, path string, opts *Options) (*Result, error) {
	o := opts.withDefaults()
	b := &blamer{
		ctx:    ctx,
		repo:   repo,
		opts:   o,
		log:    logger.Component(o.Logger, pkgName),
		queue:  newSuspectQueue(),
		queued: make(map[suspectKey]*suspect),
	}

	newest := o.NewestCommit
	if !newest.IsValid() {
		id, err := repo.HeadID(ctx)
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "blame")
		}
		newest = id
	}
	c, err := commit.Lookup(ctx, repo, newest)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "blame")
	}
	t, err := tree.Lookup(ctx, repo, c.TreeID())
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "blame")
	}
	start, err := b.load(c, t, path)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, errs.Newf(pkgName, errs.CodeNotFound, "blame", "%s does not exist in %s", path, c.ID().Short()).
			WithContext("path", path)
	}

	minLine, maxLine, err := lineRange(o.MinLine, o.MaxLine, len(start.lines))
	if err != nil {
		return nil, err
	}
	b.final = make([]attribution, len(start.lines))
	for i := minLine - 1; i < maxLine; i++ {
		start.pending = append(start.pending, lineRef{final: i, orig: i})
	}
	if len(start.pending) > 0 {
		b.enqueue(start)
	}

	for {
		s, ok := b.queue.pop()
		if !ok {
			break
		}
		delete(b.queued, s.key())
		if err := b.process(s); err != nil {
			return nil, err
		}
	}

	r := &Result{
		path:    path,
		algo:    repo.HashAlgorithm(),
		content: start.content,
		minLine: minLine,
		attrs:   b.final[minLine-1 : maxLine],
		whole:   minLine == 1 && maxLine == len(start.lines),
	}
	r.hunks = group(r.attrs, minLine, r.algo)
	b.log.Debug("blame done", "path", path, "commits", b.examined, "hunks", len(r.hunks))
	return r, nil
}

// lineRange applies the defaults and checks the bounds. An empty file has
// the empty range 1..0.
func lineRange(minLine, maxLine, n int) (int, int, error) {
	if minLine == 0 {
		minLine = 1
	}
	if maxLine == 0 {
		maxLine = n
	}
	if n == 0 && minLine == 1 && maxLine == 0 {
		return 1, 0, nil
	}
	if minLine < 1 || maxLine > n || minLine > maxLine {
		return 0, 0, errs.Newf(pkgName, errs.CodeInvalidArgument, "blame",
			"line range %d,%d outside 1,%d", minLine, maxLine, n)
	}
	return minLine, maxLine, nil
}

// load reads path from t. It returns nil when t has no file at path.
func (b *blamer) load(c *commit.Commit, t *tree.Tree, path string) (*suspect, error) {
	e, err := t.GetByPath(b.ctx, b.repo, path)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "load")
	}
	if !e.IsBlob() {
		return nil, nil
	}
	return b.loadBlob(c, path, e.ID)
}

func (b *blamer) loadBlob(c *commit.Commit, path string, id objects.ObjectID) (*suspect, error) {
	if s, ok := b.queued[suspectKey{c.ID(), path}]; ok {
		return s, nil
	}
	bl, err := blob.Lookup(b.ctx, b.repo, id)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "load")
	}
	return &suspect{
		commit:  c,
		path:    path,
		blobID:  id,
		content: bl.Content(),
		lines:   diff.SplitLines(bl.Content()),
	}, nil
}

func (b *blamer) enqueue(s *suspect) {
	if _, ok := b.queued[s.key()]; ok {
		return
	}
	b.queued[s.key()] = s
	b.queue.push(s)
}

// parentInfo is one parent of the suspect being processed.
type parentInfo struct {
	commit  *commit.Commit
	tree    *tree.Tree
	changes *diff.Diff
}

func (b *blamer) process(s *suspect) error {
	if err := errs.CheckContext(b.ctx, pkgName, "blame"); err != nil {
		return err
	}
	b.examined++
	if b.opts.Progress != nil {
		if err := b.opts.Progress(b.examined, s.commit); err != nil {
			return errs.New(pkgName, errs.CodeCancelled, "blame", "stopped by progress callback", err)
		}
	}

	if s.commit.ID() == b.opts.OldestCommit || s.commit.IsRoot() {
		b.attribute(s, s.pending, true)
		return nil
	}

	current, err := tree.Lookup(b.ctx, b.repo, s.commit.TreeID())
	if err != nil {
		return errs.Wrap(err, pkgName, "blame")
	}
	parentIDs := s.commit.Parents()
	if b.opts.Flags.Has(FirstParent) {
		parentIDs = parentIDs[:1]
	}

	slices.SortFunc(s.pending, func(a, c lineRef) int { return a.orig - c.orig })
	remaining := s.pending
	var parents []*parentInfo
	created := true
	for _, pid := range parentIDs {
		pc, err := commit.Lookup(b.ctx, b.repo, pid)
		if err != nil {
			return errs.Wrap(err, pkgName, "blame")
		}
		pt, err := tree.Lookup(b.ctx, b.repo, pc.TreeID())
		if err != nil {
			return errs.Wrap(err, pkgName, "blame")
		}
		p := &parentInfo{commit: pc, tree: pt}
		parents = append(parents, p)
		if len(remaining) == 0 {
			continue
		}

		ps, err := b.parentVersion(p, current, s.path)
		if err != nil {
			return err
		}
		if ps == nil {
			continue
		}
		created = false
		remaining = b.pass(s, ps, remaining)
	}

	if len(remaining) > 0 && b.opts.Flags&trackCopies != 0 && len(parents) > 0 {
		remaining, err = b.findCopies(s, parents[0], current, created, remaining)
		if err != nil {
			return err
		}
	}
	b.attribute(s, remaining, false)
	return nil
}

// parentVersion finds the file in the parent, following a rename when the
// path does not exist there.
func (b *blamer) parentVersion(p *parentInfo, current *tree.Tree, path string) (*suspect, error) {
	ps, err := b.load(p.commit, p.tree, path)
	if ps != nil || err != nil {
		return ps, err
	}

	changes, err := b.changes(p, current)
	if err != nil {
		return nil, err
	}
	similar, err := diff.FindSimilar(b.ctx, changes, &diff.FindOptions{
		Renames:     true,
		RenameLimit: b.opts.RenameLimit,
		Logger:      b.opts.Logger,
	})
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "follow_rename")
	}
	for _, d := range similar.Deltas() {
		if d.Status == diff.Renamed && d.NewFile.Path == path {
			b.log.Debug("following rename", "commit", p.commit.ID().Short(), "from", d.OldFile.Path, "to", path)
			return b.loadBlob(p.commit, d.OldFile.Path, d.OldFile.ID)
		}
	}
	return nil, nil
}

func (b *blamer) changes(p *parentInfo, current *tree.Tree) (*diff.Diff, error) {
	if p.changes != nil {
		return p.changes, nil
	}
	d, err := diff.Compute(b.ctx, b.repo, diff.TreeSource(p.tree), diff.TreeSource(current), &diff.Options{Logger: b.opts.Logger})
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "changes")
	}
	p.changes = d
	return d, nil
}

// pass moves the lines parent shares with s to parent and returns the
// lines s keeps.
func (b *blamer) pass(s, parent *suspect, refs []lineRef) []lineRef {
	var kept, moved []lineRef
	if parent.blobID == s.blobID {
		moved = refs
	} else {
		mapping := diff.MatchLines(parent.content, s.content, b.opts.Flags.Has(IgnoreWhitespace))
		for _, ref := range refs {
			if o := mapping[ref.orig]; o >= 0 {
				moved = append(moved, lineRef{final: ref.final, orig: o})
			} else {
				kept = append(kept, ref)
			}
		}
	}
	if len(moved) > 0 {
		parent.pending = append(parent.pending, moved...)
		b.enqueue(parent)
	}
	return kept
}

func (b *blamer) attribute(s *suspect, refs []lineRef, boundary bool) {
	for _, ref := range refs {
		b.final[ref.final] = attribution{commit: s.commit, path: s.path, orig: ref.orig, boundary: boundary}
	}
}
