package tree

import (
	"context"
	"errors"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// WalkMode selects the traversal order. PreOrder and PostOrder may be
// combined with BreadthFirst.
type WalkMode uint8

const (
	PreOrder WalkMode = 0
	PostOrder WalkMode = 1 << iota
	BreadthFirst
)

var (
	// SkipTree returned by a pre-order visitor skips the subtree of the
	// current entry.
	SkipTree = errors.New("skip this subtree")
	// StopWalk ends the walk; Walk then returns a CANCELLED error.
	StopWalk = errors.New("stop walk")
)

// WalkFunc is called once per entry. dir is the path of the containing
// tree: "" for the root, otherwise slash terminated ("src/util/").
type WalkFunc func(dir string, entry Entry) error

type pending struct {
	dir  string
	tree *Tree
}

// Walk visits every entry below t. Subtrees are read from r as needed.
//
// Depth first pre-order visits a tree entry before its children, post-order
// after them. Breadth first visits a whole level before the next one; with
// PostOrder the levels are visited deepest first.
func (t *Tree) Walk(ctx context.Context, r objects.Reader, mode WalkMode, fn WalkFunc) error {
	var err error
	if mode&BreadthFirst != 0 {
		err = t.walkBreadthFirst(ctx, r, mode&PostOrder != 0, fn)
	} else {
		err = t.walkDepthFirst(ctx, r, "", mode&PostOrder != 0, fn)
	}

	if errors.Is(err, StopWalk) {
		return errs.New(pkgName, errs.CodeCancelled, "walk", "walk stopped by visitor", err)
	}
	return err
}

func (t *Tree) walkDepthFirst(ctx context.Context, r objects.Reader, dir string, post bool, fn WalkFunc) error {
	for _, e := range t.entries {
		if err := errs.CheckContext(ctx, pkgName, "walk"); err != nil {
			return err
		}

		if !post {
			err := fn(dir, e)
			if errors.Is(err, SkipTree) {
				continue
			}
			if err != nil {
				return err
			}
		}

		if e.IsTree() {
			sub, err := Lookup(ctx, r, e.ID)
			if err != nil {
				return errs.Wrap(err, pkgName, "walk")
			}
			if err := sub.walkDepthFirst(ctx, r, dir+e.Name+"/", post, fn); err != nil {
				return err
			}
		}

		if post {
			if err := fn(dir, e); err != nil && !errors.Is(err, SkipTree) {
				return err
			}
		}
	}
	return nil
}

func (t *Tree) walkBreadthFirst(ctx context.Context, r objects.Reader, post bool, fn WalkFunc) error {
	level := []pending{{dir: "", tree: t}}
	var levels [][]pending

	for len(level) > 0 {
		levels = append(levels, level)
		var next []pending

		for _, p := range level {
			for _, e := range p.tree.entries {
				if err := errs.CheckContext(ctx, pkgName, "walk"); err != nil {
					return err
				}
				if !post {
					err := fn(p.dir, e)
					if errors.Is(err, SkipTree) {
						continue
					}
					if err != nil {
						return err
					}
				}
				if e.IsTree() {
					sub, err := Lookup(ctx, r, e.ID)
					if err != nil {
						return errs.Wrap(err, pkgName, "walk")
					}
					next = append(next, pending{dir: p.dir + e.Name + "/", tree: sub})
				}
			}
		}
		level = next
	}

	if !post {
		return nil
	}
	for i := len(levels) - 1; i >= 0; i-- {
		for _, p := range levels[i] {
			for _, e := range p.tree.entries {
				if err := fn(p.dir, e); err != nil && !errors.Is(err, SkipTree) {
					return err
				}
			}
		}
	}
	return nil
}
