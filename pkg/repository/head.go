package repository

import (
	"context"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
	"github.com/utkarsh5026/gitcore/pkg/refs"
)

// Head reports the checked out branch and the commit HEAD resolves to.
func (r *Repository) Head(ctx context.Context) (*refs.Head, error) {
	return r.refs.Head(ctx)
}

// HeadID resolves HEAD to a commit id. An unborn branch is NOT_FOUND.
func (r *Repository) HeadID(ctx context.Context) (objects.ObjectID, error) {
	h, err := r.refs.Head(ctx)
	if err != nil {
		return objects.ObjectID{}, err
	}
	if h.Unborn {
		return objects.ObjectID{}, errs.New(pkgName, errs.CodeNotFound, "head", "branch has no commits yet", nil).
			WithContext("branch", h.Branch)
	}
	return h.Target, nil
}

// HeadCommit is the commit HEAD points at.
func (r *Repository) HeadCommit(ctx context.Context) (*commit.Commit, error) {
	id, err := r.HeadID(ctx)
	if err != nil {
		return nil, err
	}
	return commit.Lookup(ctx, r.objects, id)
}

// headTree is the tree of HEAD, nil on an unborn branch.
func (r *Repository) headTree(ctx context.Context) (*tree.Tree, error) {
	c, err := r.HeadCommit(ctx)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tree.Lookup(ctx, r.objects, c.TreeID())
}
