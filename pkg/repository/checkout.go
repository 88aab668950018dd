package repository

import (
	"context"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/index"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

// Checkout updates the working tree to rev, then the index and HEAD. A
// branch name attaches HEAD to that branch; any other revision detaches
// it. The HEAD tree is the baseline unless opts sets one. Nil opts means
// StrategySafe; with StrategyNone nothing but the report is produced.
func (r *Repository) Checkout(ctx context.Context, rev string, opts *worktree.CheckoutOptions) (*worktree.Result, error) {
	if r.IsBare() {
		return nil, errs.New(pkgName, errs.CodeUnsupported, "checkout", "bare repository has no working tree", nil)
	}
	target, err := r.ResolveCommit(ctx, rev)
	if err != nil {
		return nil, err
	}
	targetTree, err := tree.Lookup(ctx, r.objects, target.TreeID())
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "checkout")
	}

	o := worktree.CheckoutOptions{Strategy: worktree.StrategySafe}
	if opts != nil {
		o = *opts
	}
	if o.Baseline == nil {
		if o.Baseline, err = r.headTree(ctx); err != nil {
			return nil, err
		}
	}
	if o.Logger == nil {
		o.Logger = r.logger
	}

	res, err := worktree.Checkout(ctx, r.objects, r.worktree, targetTree, &o)
	if err != nil || o.Strategy == worktree.StrategyNone || o.TargetDirectory != "" {
		return res, err
	}

	if err := r.resetIndex(ctx, targetTree); err != nil {
		return res, err
	}
	if branch := r.branchFor(rev); branch != "" {
		err = r.refs.SetHead(branch)
	} else {
		err = r.refs.DetachHead(ctx, target.ID())
	}
	if err != nil {
		return res, errs.Wrap(err, pkgName, "checkout")
	}
	return res, nil
}

// branchFor returns the short branch name rev refers to, or "".
func (r *Repository) branchFor(rev string) string {
	name := rev
	if !refs.IsBranch(name) {
		name = refs.HeadsPrefix + rev
	}
	if ok, err := r.refs.Exists(name); err != nil || !ok {
		return ""
	}
	return refs.ShortName(name)
}

// resetIndex replaces the index with the entries of t.
func (r *Repository) resetIndex(ctx context.Context, t *tree.Tree) error {
	idx := index.New(r.objects.HashAlgorithm())
	err := t.Walk(ctx, r.objects, tree.PreOrder, func(dir string, e tree.Entry) error {
		if e.IsTree() || !e.Mode.IsBlob() {
			return nil
		}
		entry := index.NewEntry(dir+e.Name, e.ID)
		entry.Mode = e.Mode
		if info, err := r.worktree.Lstat(entry.Path); err == nil {
			entry = index.NewEntryFromFileInfo(entry.Path, info, e.ID)
		}
		idx.Add(entry)
		return nil
	})
	if err != nil {
		return errs.Wrap(err, pkgName, "checkout")
	}
	if err := r.index.Replace(idx); err != nil {
		return errs.Wrap(err, pkgName, "checkout")
	}
	return nil
}
