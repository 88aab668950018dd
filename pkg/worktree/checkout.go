package worktree

import (
	"context"

	"github.com/go-git/go-billy/v5"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
)

// Result reports what Checkout did, or with StrategyNone what it would do.
type Result struct {
	// Operations in the order they are applied: deletions first.
	Operations []Operation
	// Conflicts block a safe checkout.
	Conflicts []Conflict
	// Dirty lists locally modified paths left as they are.
	Dirty []string
	// Applied is the number of operations written to the working tree.
	Applied int
}

// Checkout makes the working tree in fs match target.
//
// Paths are compared three ways: the baseline tree (what the working tree
// was checked out from), the target tree and the working tree itself. A
// path is written when the target differs from the working tree and either
// the working tree still matches the baseline or the strategy is
// StrategyForce. Paths in the baseline but not in the target are removed,
// together with directories they leave empty. Untracked files outside both
// trees are never touched.
//
// Notify sees conflicts, then dirty files, then updates, each in path
// order, before anything is written. With StrategySafe any conflict makes
// Checkout return CONFLICT without writing. Writes are applied as one
// transaction and rolled back on failure or cancellation.
func Checkout(ctx context.Context, r objects.Reader, fs billy.Filesystem, target *tree.Tree, opts *CheckoutOptions) (*Result, error) {
	o := opts.withDefaults()
	log := logger.Component(o.Logger, pkgName)
	if target == nil {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "checkout", "no target tree", nil)
	}

	if o.TargetDirectory != "" {
		if err := fs.MkdirAll(o.TargetDirectory, o.DirMode); err != nil {
			return nil, storage("checkout", o.TargetDirectory, err)
		}
		chrooted, err := fs.Chroot(o.TargetDirectory)
		if err != nil {
			return nil, storage("checkout", o.TargetDirectory, err)
		}
		fs = chrooted
	}

	base, err := flatten(ctx, r, o.Baseline)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "checkout")
	}
	want, err := flatten(ctx, r, target)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "checkout")
	}

	if o.Strategy != StrategyNone {
		lock, err := acquireLock(fs)
		if err != nil {
			return nil, err
		}
		defer lock.release()
	}

	pl, err := analyze(ctx, fs, r.HashAlgorithm(), base, want, &o)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "checkout")
	}

	res := &Result{Operations: pl.ops, Conflicts: pl.conflicts}
	for _, d := range pl.dirty {
		res.Dirty = append(res.Dirty, d.path)
	}
	if err := notifyAll(pl, &o); err != nil {
		return res, err
	}
	log.Debug("checkout planned",
		"strategy", o.Strategy.String(), "operations", len(pl.ops),
		"conflicts", len(pl.conflicts), "dirty", len(pl.dirty))

	if len(pl.conflicts) > 0 && o.Strategy == StrategySafe {
		first := pl.conflicts[0]
		return res, errs.Newf(pkgName, errs.CodeConflict, "checkout",
			"%d conflicting paths, first %s", len(pl.conflicts), first).
			WithContext("path", first.Path)
	}
	if o.Strategy == StrategyNone || len(pl.ops) == 0 {
		return res, nil
	}

	tx := &transaction{ops: &fileOps{fs: fs, r: r, opts: &o}, progress: o.Progress}
	res.Applied, err = tx.execute(ctx, pl.ops)
	if err != nil {
		return res, err
	}
	log.Debug("checkout applied", "operations", res.Applied)
	return res, nil
}

// notifyAll passes the planned events selected by NotifyFlags to Notify.
func notifyAll(pl *plan, o *CheckoutOptions) error {
	if o.Notify == nil {
		return nil
	}
	call := func(why NotifyFlags, p string, b, t, w *Version) error {
		if o.NotifyFlags&why == 0 {
			return nil
		}
		if err := o.Notify(why, p, b, t, w); err != nil {
			return errs.New(pkgName, errs.CodeCancelled, "checkout", "notify callback aborted", err).
				WithContext("path", p)
		}
		return nil
	}
	for _, c := range pl.conflicts {
		if err := call(NotifyConflict, c.Path, c.Baseline, c.Target, c.Workdir); err != nil {
			return err
		}
	}
	for _, d := range pl.dirty {
		if err := call(NotifyDirty, d.path, d.baseline, d.baseline, d.workdir); err != nil {
			return err
		}
	}
	for _, op := range pl.ops {
		if err := call(NotifyUpdated, op.Path, op.baseline, op.Target, op.workdir); err != nil {
			return err
		}
	}
	return nil
}
