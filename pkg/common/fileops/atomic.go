package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// AtomicWrite writes data to name through a temporary file in the same
// directory followed by a rename, so readers never observe a partial file.
// The temporary file is removed on any failure.
func AtomicWrite(fs billy.Filesystem, name string, data []byte, mode os.FileMode) error {
	dir := path.Dir(name)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmpName := tempName(dir, path.Base(name))
	tmp, err := fs.OpenFile(tmpName, os.O_RDWR|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = fs.Remove(tmpName)
		}
	}()

	if err := writeTempFile(tmp, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := renameTempFile(fs, tmpName, name, mode); err != nil {
		return err
	}
	committed = true
	return nil
}

var tempCounter atomic.Uint64

// tempName returns a unique sibling name for base inside dir. The file is
// created with the final mode because most billy filesystems cannot chmod.
func tempName(dir, base string) string {
	n := tempCounter.Add(1)
	return path.Join(dir, ".tmp-"+base+"-"+strconv.FormatInt(time.Now().UnixNano(), 36)+"-"+strconv.FormatUint(n, 36))
}

// writeTempFile writes data and closes the file, reporting the first error.
func writeTempFile(f billy.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// renameTempFile reapplies mode where the filesystem supports chmod (umask
// may have narrowed it) and moves the temporary file over the target.
func renameTempFile(fs billy.Filesystem, tmpName, target string, mode os.FileMode) error {
	if ch, ok := fs.(billy.Change); ok {
		if err := ch.Chmod(tmpName, mode); err != nil {
			return fmt.Errorf("chmod: %w", err)
		}
	}
	if err := fs.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Exists reports whether name exists.
func Exists(fs billy.Basic, name string) (bool, error) {
	_, err := fs.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ReadIfExists returns the file content, or nil and false when it is missing.
func ReadIfExists(fs billy.Basic, name string) ([]byte, bool, error) {
	f, err := fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// EnsureDir creates name and any missing parents.
func EnsureDir(fs billy.Dir, name string) error {
	return fs.MkdirAll(name, 0o755)
}

// WriteFile writes data without the temp file dance, for content whose
// readers tolerate a partial write (descriptions, templates).
func WriteFile(fs billy.Basic, name string, data []byte, mode os.FileMode) error {
	return util.WriteFile(fs, name, data, mode)
}
