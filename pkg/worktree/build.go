package worktree

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/index"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
)

// concurrencyThreshold is the number of subdirectories from which a
// directory builds its children in parallel.
const concurrencyThreshold = 3

// File is a blob at a slash separated path relative to the tree root.
type File struct {
	Path string
	ID   objects.ObjectID
	Mode objects.FileMode
}

// BuildTree writes the nested trees for files and returns the root tree id.
// No files give the empty tree. w must accept concurrent writes; every
// store in this module does.
func BuildTree(ctx context.Context, w objects.Writer, files []File) (objects.ObjectID, error) {
	root := newDirectoryNode("")
	for _, f := range files {
		if f.Path == "" {
			return objects.ObjectID{}, errs.New(pkgName, errs.CodeInvalidArgument, "build_tree", "empty path", nil)
		}
		root.addEntry(f.Path, f.ID, f.Mode)
	}
	id, err := buildTree(ctx, w, root)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "build_tree")
	}
	return id, nil
}

// TreeFromIndex writes the tree recorded by the stage 0 entries of idx.
// An index holding unmerged entries is CONFLICT.
func TreeFromIndex(ctx context.Context, w objects.Writer, idx *index.Index) (objects.ObjectID, error) {
	if idx.Conflicted() {
		return objects.ObjectID{}, errs.New(pkgName, errs.CodeConflict, "write_tree", "index has unmerged entries", nil)
	}
	entries := idx.Entries()
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		files = append(files, File{Path: e.Path, ID: e.ID, Mode: e.Mode})
	}
	return BuildTree(ctx, w, files)
}

// buildTree writes the subtrees of node first, then node itself.
func buildTree(ctx context.Context, w objects.Writer, node *directoryNode) (objects.ObjectID, error) {
	if err := errs.CheckContext(ctx, pkgName, "build_tree"); err != nil {
		return objects.ObjectID{}, err
	}

	b := tree.NewBuilder(w, nil)
	for name, f := range node.files {
		if _, err := b.Insert(name, f.id, f.mode); err != nil {
			return objects.ObjectID{}, err
		}
	}

	subtrees, err := buildSubdirectories(ctx, w, node)
	if err != nil {
		return objects.ObjectID{}, err
	}
	for name, id := range subtrees {
		if _, err := b.Insert(name, id, objects.FileModeTree); err != nil {
			return objects.ObjectID{}, err
		}
	}
	return b.Write(ctx)
}

// buildSubdirectories builds every child of node, in parallel once there
// are at least concurrencyThreshold of them.
func buildSubdirectories(ctx context.Context, w objects.Writer, node *directoryNode) (map[string]objects.ObjectID, error) {
	names := make([]string, 0, len(node.subdirs))
	for name := range node.subdirs {
		names = append(names, name)
	}
	sort.Strings(names)
	ids := make([]objects.ObjectID, len(names))

	if len(names) < concurrencyThreshold {
		for i, name := range names {
			id, err := buildTree(ctx, w, node.subdirs[name])
			if err != nil {
				return nil, err
			}
			ids[i] = id
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i, name := range names {
			g.Go(func() error {
				id, err := buildTree(gctx, w, node.subdirs[name])
				if err != nil {
					return err
				}
				ids[i] = id
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]objects.ObjectID, len(names))
	for i, name := range names {
		out[name] = ids[i]
	}
	return out, nil
}
