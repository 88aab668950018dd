package worktree

import (
	"context"
	"errors"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
)

// indexLock is held for the duration of a checkout so two processes never
// rewrite the same working tree at once.
var indexLock = path.Join(GitDir, "index.lock")

type lockFile struct {
	fs   billy.Filesystem
	path string
	file billy.File
}

// acquireLock creates the index lock exclusively. A working tree without a
// repository directory (a TargetDirectory export) is not locked and gets a
// nil lock. An existing lock is CONFLICT.
func acquireLock(fs billy.Filesystem) (*lockFile, error) {
	ok, err := fileops.Exists(fs, GitDir)
	if err != nil {
		return nil, storage("lock", GitDir, err)
	}
	if !ok {
		return nil, nil
	}
	f, err := fs.OpenFile(indexLock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, errs.New(pkgName, errs.CodeConflict, "lock", "another process holds the index lock", err).
			WithContext("path", indexLock)
	}
	if err != nil {
		return nil, storage("lock", indexLock, err)
	}
	return &lockFile{fs: fs, path: indexLock, file: f}, nil
}

func (l *lockFile) release() {
	if l == nil {
		return
	}
	_ = l.file.Close()
	_ = l.fs.Remove(l.path)
}

// transaction applies operations all or nothing: every touched path is
// backed up first and restored in reverse order when an operation fails
// or the context is cancelled.
type transaction struct {
	ops      *fileOps
	progress ProgressFunc
	backups  []*backup
}

func (t *transaction) execute(ctx context.Context, ops []Operation) (int, error) {
	for _, op := range ops {
		b, err := t.ops.createBackup(op.Path)
		if err != nil {
			return 0, err
		}
		t.backups = append(t.backups, b)
	}

	for i, op := range ops {
		err := errs.CheckContext(ctx, pkgName, "checkout")
		if err == nil {
			err = t.ops.apply(ctx, op)
		}
		if err != nil {
			if rerr := t.rollback(i + 1); rerr != nil {
				return i, errs.New(pkgName, errs.GetCode(err), "checkout",
					"rollback failed, working tree may be inconsistent", errors.Join(err, rerr)).
					WithContext("path", op.Path)
			}
			return i, errs.Wrap(err, pkgName, "checkout")
		}
		if t.progress != nil {
			t.progress(op.Path, i+1, len(ops))
		}
	}
	return len(ops), nil
}

// rollback restores the first n backups, newest first.
func (t *transaction) rollback(n int) error {
	var errList []error
	for i := n - 1; i >= 0; i-- {
		if err := t.ops.restore(t.backups[i]); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
