package worktree

import (
	"context"
	"errors"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/blob"
)

// fileOps applies operations to a working tree.
type fileOps struct {
	fs   billy.Filesystem
	r    objects.Reader
	opts *CheckoutOptions
}

func (f *fileOps) apply(ctx context.Context, op Operation) error {
	switch op.Action {
	case ActionCreate, ActionModify:
		return f.write(ctx, op.Path, op.Target)
	case ActionDelete:
		return f.remove(op.Path)
	default:
		return errs.Newf(pkgName, errs.CodeInternal, "apply", "unknown action %d", op.Action)
	}
}

// write replaces whatever is at p with the blob of v.
func (f *fileOps) write(ctx context.Context, p string, v *Version) error {
	b, err := blob.Lookup(ctx, f.r, v.ID)
	if err != nil {
		return err
	}
	content := b.Content()
	if v.Mode.IsFile() && !f.opts.DisableFilters {
		for _, filter := range f.opts.Filters {
			if content, err = filter(p, content); err != nil {
				return errs.New(pkgName, errs.GetCode(err), "filter", "", err).WithContext("path", p)
			}
		}
	}

	if info, err := f.fs.Lstat(p); err == nil && (info.IsDir() || v.Mode.IsSymlink()) {
		if err := util.RemoveAll(f.fs, p); err != nil {
			return storage("write", p, err)
		}
	}
	if err := f.fs.MkdirAll(path.Dir(p), f.opts.DirMode); err != nil {
		return storage("write", p, err)
	}

	if v.Mode.IsSymlink() {
		if err := f.fs.Symlink(string(content), p); err != nil {
			return storage("write", p, err)
		}
		return nil
	}
	if err := fileops.AtomicWrite(f.fs, p, content, f.opts.fileMode(v.Mode)); err != nil {
		return storage("write", p, err)
	}
	return nil
}

// remove deletes p and then every directory it leaves empty.
func (f *fileOps) remove(p string) error {
	if err := f.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storage("remove", p, err)
	}
	f.cleanEmptyParents(path.Dir(p))
	return nil
}

// cleanEmptyParents removes dir and its ancestors while they are empty,
// stopping at the root.
func (f *fileOps) cleanEmptyParents(dir string) {
	for dir != "." && dir != "/" && dir != "" {
		infos, err := f.fs.ReadDir(dir)
		if err != nil || len(infos) > 0 {
			return
		}
		if err := f.fs.Remove(dir); err != nil {
			return
		}
		dir = path.Dir(dir)
	}
}

// backup is the state of a path before an operation touched it.
type backup struct {
	path    string
	existed bool
	dir     bool
	symlink bool
	content []byte
	mode    os.FileMode
}

func (f *fileOps) createBackup(p string) (*backup, error) {
	info, err := f.fs.Lstat(p)
	if errors.Is(err, os.ErrNotExist) {
		return &backup{path: p}, nil
	}
	if err != nil {
		return nil, storage("backup", p, err)
	}

	b := &backup{path: p, existed: true, mode: info.Mode().Perm()}
	switch {
	case info.IsDir():
		b.dir = true
	case info.Mode()&os.ModeSymlink != 0:
		target, err := f.fs.Readlink(p)
		if err != nil {
			return nil, storage("backup", p, err)
		}
		b.symlink = true
		b.content = []byte(target)
	default:
		file, err := f.fs.Open(p)
		if err != nil {
			return nil, storage("backup", p, err)
		}
		defer file.Close()
		if b.content, err = io.ReadAll(file); err != nil {
			return nil, storage("backup", p, err)
		}
	}
	return b, nil
}

// restore puts a path back the way createBackup found it. Directories
// replaced by a forced checkout are not recreated.
func (f *fileOps) restore(b *backup) error {
	if b.dir {
		return nil
	}
	if _, err := f.fs.Lstat(b.path); err == nil {
		if err := util.RemoveAll(f.fs, b.path); err != nil {
			return storage("restore", b.path, err)
		}
	}
	if !b.existed {
		f.cleanEmptyParents(path.Dir(b.path))
		return nil
	}
	if err := f.fs.MkdirAll(path.Dir(b.path), f.opts.DirMode); err != nil {
		return storage("restore", b.path, err)
	}
	if b.symlink {
		if err := f.fs.Symlink(string(b.content), b.path); err != nil {
			return storage("restore", b.path, err)
		}
		return nil
	}
	if err := fileops.AtomicWrite(f.fs, b.path, b.content, b.mode); err != nil {
		return storage("restore", b.path, err)
	}
	return nil
}

func storage(op, p string, err error) error {
	return errs.New(pkgName, errs.CodeStorage, op, "", err).WithContext("path", p)
}
