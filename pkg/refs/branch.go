package refs

import (
	"context"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// DefaultBranch is used when init.defaultbranch is not configured.
const DefaultBranch = "master"

// Head describes where HEAD points.
type Head struct {
	// Branch is the short branch name, empty when detached.
	Branch string
	// Detached is true when HEAD holds an id directly.
	Detached bool
	// Unborn is true when HEAD names a branch with no commits yet.
	Unborn bool
	// Target is the commit HEAD resolves to, zero when unborn.
	Target objects.ObjectID
}

// Head reads HEAD and reports the current branch.
func (s *Store) Head(ctx context.Context) (*Head, error) {
	ref, err := s.Read(HEAD)
	if err != nil {
		return nil, err
	}

	if !ref.IsSymbolic() {
		return &Head{Detached: true, Target: ref.Target}, nil
	}

	h := &Head{Branch: strings.TrimPrefix(ref.SymbolicTarget, HeadsPrefix)}
	resolved, err := s.Resolve(ctx, HEAD)
	switch {
	case errs.IsNotFound(err):
		h.Unborn = true
	case err != nil:
		return nil, err
	default:
		h.Target = resolved.Target
	}
	return h, nil
}

// CurrentBranch returns the short name of the checked out branch, or ""
// when HEAD is detached.
func (s *Store) CurrentBranch() (string, error) {
	ref, err := s.Read(HEAD)
	if err != nil {
		return "", err
	}
	if !ref.IsSymbolic() {
		return "", nil
	}
	return strings.TrimPrefix(ref.SymbolicTarget, HeadsPrefix), nil
}

// SetHead makes HEAD a symbolic reference to the branch called branch.
func (s *Store) SetHead(branch string) error {
	full, err := BranchName(branch)
	if err != nil {
		return err
	}
	_, err = s.CreateSymbolic(HEAD, full, true)
	return err
}

// DetachHead points HEAD directly at id.
func (s *Store) DetachHead(ctx context.Context, id objects.ObjectID) error {
	_, err := s.CreateDirect(ctx, HEAD, id, true)
	return err
}

// Branches lists refs/heads/* sorted by name.
func (s *Store) Branches() ([]*Reference, error) {
	return s.Glob(HeadsPrefix + "*")
}

// CreateBranch creates refs/heads/<name> at id.
func (s *Store) CreateBranch(ctx context.Context, name string, id objects.ObjectID, force bool) (*Reference, error) {
	full, err := BranchName(name)
	if err != nil {
		return nil, err
	}
	if force {
		if current, _ := s.CurrentBranch(); current == name {
			return nil, errs.Newf(pkgName, errs.CodeConflict, "create_branch", "cannot force update the checked out branch %q", name)
		}
	}
	return s.CreateDirect(ctx, full, id, force)
}

// DeleteBranch removes refs/heads/<name>. The checked out branch cannot be
// deleted (CONFLICT).
func (s *Store) DeleteBranch(name string) error {
	full, err := BranchName(name)
	if err != nil {
		return err
	}
	if current, err := s.CurrentBranch(); err == nil && current == name {
		return errs.Newf(pkgName, errs.CodeConflict, "delete_branch", "cannot delete the checked out branch %q", name)
	}
	return s.Delete(full)
}

// RenameBranch moves a branch and, when it is checked out, HEAD with it.
func (s *Store) RenameBranch(ctx context.Context, oldName, newName string, force bool) error {
	oldFull, err := BranchName(oldName)
	if err != nil {
		return err
	}
	newFull, err := BranchName(newName)
	if err != nil {
		return err
	}
	if oldFull == newFull {
		return errs.New(pkgName, errs.CodeInvalidArgument, "rename_branch", "old and new names are the same", nil)
	}

	ref, err := s.Read(oldFull)
	if err != nil {
		return err
	}
	if _, err := s.CreateDirect(ctx, newFull, ref.Target, force); err != nil {
		return err
	}

	current, _ := s.CurrentBranch()
	if current == oldName {
		if err := s.SetHead(newName); err != nil {
			return err
		}
	}
	return s.Delete(oldFull)
}
