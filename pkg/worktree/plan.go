package worktree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/index"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
)

// Action is what a checkout does to one path.
type Action int

const (
	// ActionCreate writes a path that is absent from the working tree.
	ActionCreate Action = iota
	// ActionModify overwrites an existing path.
	ActionModify
	// ActionDelete removes a path.
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionModify:
		return "modify"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation is one planned change to the working tree. Target is nil for
// deletions.
type Operation struct {
	Path   string
	Action Action
	Target *Version

	baseline, workdir *Version
}

// Conflict is a path whose local state blocks a safe checkout.
type Conflict struct {
	Path     string
	Baseline *Version
	Target   *Version
	Workdir  *Version
	Reason   string
}

func (c Conflict) String() string {
	return c.Path + ": " + c.Reason
}

// dirtyFile is a locally modified path the checkout does not touch.
type dirtyFile struct {
	path              string
	baseline, workdir *Version
}

// plan is the outcome of comparing baseline, target and working tree.
type plan struct {
	ops       []Operation
	conflicts []Conflict
	dirty     []dirtyFile
}

// flatten lists the checkout-relevant entries of t by path. Submodules
// have no content to write and are left out.
func flatten(ctx context.Context, r objects.Reader, t *tree.Tree) (map[string]*Version, error) {
	files := make(map[string]*Version)
	if t == nil {
		return files, nil
	}
	err := t.Walk(ctx, r, tree.PreOrder, func(dir string, e tree.Entry) error {
		if e.IsBlob() {
			files[dir+e.Name] = &Version{ID: e.ID, Mode: e.Mode}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// workdirVersion hashes the path as it currently is. A directory in place
// of a file reports FileModeTree with a zero id.
func workdirVersion(fs billy.Filesystem, algo objects.HashAlgorithm, p string) (*Version, error) {
	info, err := fs.Lstat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "stat")
	}
	if info.IsDir() {
		return &Version{ID: objects.ZeroID(algo), Mode: objects.FileModeTree}, nil
	}
	content, err := index.ReadContent(fs, p, info)
	if err != nil {
		return nil, err
	}
	return &Version{
		ID:   objects.ComputeID(algo, objects.BlobType, content),
		Mode: objects.FromOSFileMode(info.Mode()),
	}, nil
}

// analyze decides, path by path, what the checkout must do. Deletions come
// before writes so a file can be replaced by a directory of the same name.
func analyze(ctx context.Context, fs billy.Filesystem, algo objects.HashAlgorithm, base, target map[string]*Version, o *CheckoutOptions) (*plan, error) {
	paths := make([]string, 0, len(base)+len(target))
	for p := range base {
		paths = append(paths, p)
	}
	for p := range target {
		if _, ok := base[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	pl := &plan{}
	var writes []Operation
	for _, p := range paths {
		if err := errs.CheckContext(ctx, pkgName, "checkout"); err != nil {
			return nil, err
		}
		b, t := base[p], target[p]
		w, err := workdirVersion(fs, algo, p)
		if err != nil {
			return nil, err
		}
		localChange := !w.equal(b)

		if w.equal(t) {
			continue
		}
		if b.equal(t) && o.Strategy != StrategyForce {
			if localChange {
				pl.dirty = append(pl.dirty, dirtyFile{path: p, baseline: b, workdir: w})
			}
			continue
		}
		if t == nil && w != nil && w.Mode == objects.FileModeTree {
			continue
		}
		if localChange && w != nil && o.Strategy != StrategyForce {
			pl.conflicts = append(pl.conflicts, Conflict{
				Path: p, Baseline: b, Target: t, Workdir: w,
				Reason: conflictReason(b, t, w, o),
			})
			continue
		}

		op := Operation{Path: p, Target: t, baseline: b, workdir: w}
		switch {
		case t == nil:
			op.Action = ActionDelete
			pl.ops = append(pl.ops, op)
		case w == nil:
			op.Action = ActionCreate
			writes = append(writes, op)
		default:
			op.Action = ActionModify
			writes = append(writes, op)
		}
	}
	pl.ops = append(pl.ops, writes...)
	return pl, nil
}

// conflictReason describes a conflict; w is never nil because a locally
// removed file loses nothing when it is rewritten.
func conflictReason(b, t, w *Version, o *CheckoutOptions) string {
	switch {
	case w.Mode == objects.FileModeTree:
		return fmt.Sprintf("directory in %s, file in %s", o.OurLabel, o.TheirLabel)
	case b == nil:
		return fmt.Sprintf("untracked in %s, would be overwritten by %s", o.OurLabel, o.TheirLabel)
	case t == nil:
		return fmt.Sprintf("modified in %s since %s, deleted in %s", o.OurLabel, o.AncestorLabel, o.TheirLabel)
	default:
		return fmt.Sprintf("modified in %s since %s, changed in %s", o.OurLabel, o.AncestorLabel, o.TheirLabel)
	}
}
