package repository

import (
	"context"
	"os"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/config"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

// CommitRequest describes a commit to create.
type CommitRequest struct {
	Message string
	// Author defaults to Signature(); Committer defaults to Author.
	Author    *commit.Signature
	Committer *commit.Signature
	// Tree defaults to the tree of the index.
	Tree objects.ObjectID
	// Parents defaults to HEAD, or none on an unborn branch.
	Parents []objects.ObjectID
	// UpdateRef is moved to the new commit; HEAD when empty. Set it to "-"
	// to leave every reference alone.
	UpdateRef string
	// AllowEmpty permits a commit whose tree equals its only parent's.
	AllowEmpty bool
}

// NoRefUpdate as CommitRequest.UpdateRef writes the commit without moving
// any reference.
const NoRefUpdate = "-"

// CreateCommit writes a commit and moves UpdateRef to it. The reference
// update is compare-and-swap against the first parent, so a concurrent
// commit on the same branch fails with CONFLICT.
func (r *Repository) CreateCommit(ctx context.Context, req CommitRequest) (*commit.Commit, error) {
	if req.Message == "" {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "commit", "empty commit message", nil)
	}

	treeID := req.Tree
	if !treeID.IsValid() {
		if r.index == nil {
			return nil, errs.New(pkgName, errs.CodeInvalidArgument, "commit", "bare repository needs an explicit tree", nil)
		}
		var err error
		if treeID, err = worktree.TreeFromIndex(ctx, r.objects, r.index.Index()); err != nil {
			return nil, errs.Wrap(err, pkgName, "commit")
		}
	}

	parents := req.Parents
	expectedOld := objects.ObjectID{}
	if parents == nil {
		head, err := r.HeadID(ctx)
		switch {
		case errs.IsNotFound(err):
			expectedOld = objects.ZeroID(r.objects.HashAlgorithm())
		case err != nil:
			return nil, err
		default:
			parents = []objects.ObjectID{head}
			expectedOld = head
		}
	}

	if !req.AllowEmpty && len(parents) == 1 {
		parent, err := commit.Lookup(ctx, r.objects, parents[0])
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "commit")
		}
		if parent.TreeID().Equal(treeID) {
			return nil, errs.New(pkgName, errs.CodeInvalidArgument, "commit", "nothing to commit", nil)
		}
	}

	author := req.Author
	if author == nil {
		var err error
		if author, err = r.Signature(); err != nil {
			return nil, err
		}
	}
	committer := req.Committer
	if committer == nil {
		committer = author
	}

	c, err := commit.NewBuilder().
		Tree(treeID).
		Parents(parents...).
		Author(author).
		Committer(committer).
		Message(req.Message).
		Write(ctx, r.objects)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "commit")
	}

	name := req.UpdateRef
	if name == NoRefUpdate {
		return c, nil
	}
	if name == "" {
		name = refs.HEAD
	}
	if _, err := r.refs.Update(ctx, name, c.ID(), expectedOld); err != nil {
		return nil, errs.Wrap(err, pkgName, "commit")
	}
	r.logger.Debug("created commit", "id", c.ID().Short(), "ref", name, "parents", len(parents))
	return c, nil
}

// Signature builds an identity stamped now from GIT_AUTHOR_NAME and
// GIT_AUTHOR_EMAIL, falling back to user.name and user.email. A missing
// identity is NOT_FOUND.
func (r *Repository) Signature() (*commit.Signature, error) {
	tc := config.NewTypedConfig(r.config)
	name, email := os.Getenv("GIT_AUTHOR_NAME"), os.Getenv("GIT_AUTHOR_EMAIL")
	if name == "" {
		name = tc.UserName()
	}
	if email == "" {
		email = tc.UserEmail()
	}
	if name == "" || email == "" {
		return nil, errs.New(pkgName, errs.CodeNotFound, "signature", "user.name and user.email must be set", nil)
	}
	sig, err := commit.Now(name, email)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "signature")
	}
	return sig, nil
}
