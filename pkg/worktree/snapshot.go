// Package worktree connects stored trees with a checked out directory:
// Snapshot records a directory as trees and blobs, Checkout makes a
// directory match a tree.
package worktree

import (
	"context"
	"os"
	"path"
	"runtime"
	"sort"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/index"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/pathspec"
)

const pkgName = "worktree"

// GitDir is the repository directory inside a working tree. It is never
// listed, snapshotted or touched by a checkout.
const GitDir = ".git"

// Entry is a file found in a working tree.
type Entry struct {
	Path string
	Info os.FileInfo
}

// ListFiles returns the files below the root of fs in path order. GitDir
// and paths selected by ignore are skipped; ignore may be nil.
func ListFiles(ctx context.Context, fs billy.Filesystem, ignore *pathspec.Matcher) ([]Entry, error) {
	var out []Entry
	if err := listDir(ctx, fs, "", ignore, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func listDir(ctx context.Context, fs billy.Filesystem, dir string, ignore *pathspec.Matcher, out *[]Entry) error {
	if err := errs.CheckContext(ctx, pkgName, "list"); err != nil {
		return err
	}
	name := dir
	if name == "" {
		name = "."
	}
	infos, err := fs.ReadDir(name)
	if err != nil {
		return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "read_dir")
	}
	for _, info := range infos {
		p := path.Join(dir, info.Name())
		if p == GitDir || ignore.Match(p, info.IsDir()) {
			continue
		}
		if info.IsDir() {
			if err := listDir(ctx, fs, p, ignore, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, Entry{Path: p, Info: info})
	}
	return nil
}

// Snapshot stores every file of the working tree as a blob and returns the
// id of the root tree describing it. Files are hashed concurrently, at most
// GOMAXPROCS at a time.
func Snapshot(ctx context.Context, fs billy.Filesystem, w objects.Writer, ignore *pathspec.Matcher) (objects.ObjectID, error) {
	entries, err := ListFiles(ctx, fs, ignore)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "snapshot")
	}

	files := make([]File, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range entries {
		g.Go(func() error {
			if err := errs.CheckContext(gctx, pkgName, "snapshot"); err != nil {
				return err
			}
			content, err := index.ReadContent(fs, e.Path, e.Info)
			if err != nil {
				return err
			}
			id, err := w.WriteObject(gctx, objects.BlobType, content)
			if err != nil {
				return err
			}
			files[i] = File{Path: e.Path, ID: id, Mode: objects.FromOSFileMode(e.Info.Mode())}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "snapshot")
	}

	root := newDirectoryNode("")
	for _, f := range files {
		root.addEntry(f.Path, f.ID, f.Mode)
	}
	id, err := buildTree(ctx, w, root)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "snapshot")
	}
	logger.Component(nil, pkgName).Debug("snapshot written", "tree", id.Short(), "files", root.count())
	return id, nil
}
