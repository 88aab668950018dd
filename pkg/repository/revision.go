package repository

import (
	"context"
	"strconv"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/objects/tag"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/store"
)

// ResolveRevision turns a revision string into an object id. Accepted
// forms are a full or abbreviated (four or more digits) hex id, "@" or a
// reference name tried the way Git tries short names, followed by any
// number of ~<n>, ^<n>, ^{} , ^{commit} and ^{tree} suffixes.
//
// Malformed revisions are INVALID_ARGUMENT; names that match nothing and
// parents that do not exist are NOT_FOUND.
func (r *Repository) ResolveRevision(ctx context.Context, rev string) (objects.ObjectID, error) {
	base, suffix := splitRevision(rev)
	if base == "" {
		return objects.ObjectID{}, badRevision(rev, "empty revision")
	}
	id, err := r.resolveName(ctx, base)
	if err != nil {
		return objects.ObjectID{}, err
	}

	for suffix != "" {
		if err := errs.CheckContext(ctx, pkgName, "resolve"); err != nil {
			return objects.ObjectID{}, err
		}
		op := suffix[0]
		suffix = suffix[1:]

		if op == '^' && strings.HasPrefix(suffix, "{") {
			end := strings.IndexByte(suffix, '}')
			if end < 0 {
				return objects.ObjectID{}, badRevision(rev, "unterminated ^{")
			}
			kind := suffix[1:end]
			suffix = suffix[end+1:]
			if id, err = r.peel(ctx, id, kind, rev); err != nil {
				return objects.ObjectID{}, err
			}
			continue
		}

		n, rest, err := leadingNumber(suffix, rev)
		if err != nil {
			return objects.ObjectID{}, err
		}
		suffix = rest
		switch op {
		case '~':
			for range n {
				if id, err = r.parent(ctx, id, 1, rev); err != nil {
					return objects.ObjectID{}, err
				}
			}
		case '^':
			if n == 0 {
				id, err = r.peel(ctx, id, "commit", rev)
			} else {
				id, err = r.parent(ctx, id, n, rev)
			}
			if err != nil {
				return objects.ObjectID{}, err
			}
		default:
			return objects.ObjectID{}, badRevision(rev, "unexpected "+string(op))
		}
	}
	return id, nil
}

// ResolveCommit resolves rev and peels it to a commit.
func (r *Repository) ResolveCommit(ctx context.Context, rev string) (*commit.Commit, error) {
	id, err := r.ResolveRevision(ctx, rev)
	if err != nil {
		return nil, err
	}
	if id, err = r.peel(ctx, id, "commit", rev); err != nil {
		return nil, err
	}
	return commit.Lookup(ctx, r.objects, id)
}

// ResolveTree resolves rev and peels it to a tree.
func (r *Repository) ResolveTree(ctx context.Context, rev string) (*tree.Tree, error) {
	id, err := r.ResolveRevision(ctx, rev)
	if err != nil {
		return nil, err
	}
	if id, err = r.peel(ctx, id, "tree", rev); err != nil {
		return nil, err
	}
	return tree.Lookup(ctx, r.objects, id)
}

// splitRevision separates the name from its navigation suffixes.
func splitRevision(rev string) (string, string) {
	i := strings.IndexAny(rev, "~^")
	if i < 0 {
		return rev, ""
	}
	return rev[:i], rev[i:]
}

func leadingNumber(s, rev string) (int, string, error) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 1, s, nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, "", badRevision(rev, "number out of range")
	}
	return n, s[end:], nil
}

func (r *Repository) resolveName(ctx context.Context, name string) (objects.ObjectID, error) {
	if name == "@" {
		name = refs.HEAD
	}
	algo := r.objects.HashAlgorithm()
	if len(name) == algo.HexSize() && objects.IsHex(name) {
		id, err := objects.ParseObjectID(strings.ToLower(name))
		if err != nil {
			return objects.ObjectID{}, badRevision(name, err.Error())
		}
		ok, err := r.objects.HasObject(ctx, id)
		if err != nil {
			return objects.ObjectID{}, errs.Wrap(err, pkgName, "resolve")
		}
		if !ok {
			return objects.ObjectID{}, unknownRevision(name)
		}
		return id, nil
	}

	for _, candidate := range refs.DWIMCandidates(name) {
		if !refs.IsValidName(candidate) {
			continue
		}
		id, err := r.refs.ResolveID(ctx, candidate)
		if err == nil {
			return id, nil
		}
		if !errs.IsNotFound(err) {
			return objects.ObjectID{}, errs.Wrap(err, pkgName, "resolve")
		}
	}

	if len(name) >= 4 && objects.IsHex(name) {
		id, err := store.ResolvePrefix(ctx, r.objects, name)
		if errs.IsNotFound(err) {
			return objects.ObjectID{}, unknownRevision(name)
		}
		if err != nil {
			return objects.ObjectID{}, errs.Wrap(err, pkgName, "resolve")
		}
		return id, nil
	}
	return objects.ObjectID{}, unknownRevision(name)
}

// peel follows tags from id. kind "commit" and "tree" require the object
// to end up as that type; a commit peels further to its tree.
func (r *Repository) peel(ctx context.Context, id objects.ObjectID, kind, rev string) (objects.ObjectID, error) {
	raw, err := tag.Peel(ctx, r.objects, id)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "peel")
	}
	switch kind {
	case "":
		return raw.ID, nil
	case "commit":
		if raw.Type != objects.CommitType {
			return objects.ObjectID{}, badRevision(rev, raw.ID.Short()+" is a "+raw.Type.String()+", not a commit")
		}
		return raw.ID, nil
	case "tree":
		switch raw.Type {
		case objects.TreeType:
			return raw.ID, nil
		case objects.CommitType:
			c, err := commit.FromRaw(raw)
			if err != nil {
				return objects.ObjectID{}, err
			}
			return c.TreeID(), nil
		}
		return objects.ObjectID{}, badRevision(rev, raw.ID.Short()+" is a "+raw.Type.String()+", not a tree")
	default:
		return objects.ObjectID{}, badRevision(rev, "unknown peel target "+kind)
	}
}

func (r *Repository) parent(ctx context.Context, id objects.ObjectID, n int, rev string) (objects.ObjectID, error) {
	id, err := r.peel(ctx, id, "commit", rev)
	if err != nil {
		return objects.ObjectID{}, err
	}
	c, err := commit.Lookup(ctx, r.objects, id)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "resolve")
	}
	p, ok := c.ParentID(n - 1)
	if !ok {
		return objects.ObjectID{}, errs.Newf(pkgName, errs.CodeNotFound, "resolve",
			"%s has no parent %d", id.Short(), n).WithContext("revision", rev)
	}
	return p, nil
}

func badRevision(rev, msg string) error {
	return errs.New(pkgName, errs.CodeInvalidArgument, "resolve", msg, nil).WithContext("revision", rev)
}

func unknownRevision(rev string) error {
	return errs.New(pkgName, errs.CodeNotFound, "resolve", "unknown revision", nil).WithContext("revision", rev)
}
