package index

import (
	"context"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// Manager keeps an index file in sync with a working tree. Paths given to
// it are slash separated and relative to the worktree root.
type Manager struct {
	fs        billy.Filesystem
	indexPath string
	objects   objects.Writer
	index     *Index
	mu        sync.RWMutex
}

// NewManager returns a manager for the index stored at indexPath inside
// fs. Blobs are written to w.
func NewManager(fs billy.Filesystem, indexPath string, w objects.Writer) *Manager {
	return &Manager{
		fs:        fs,
		indexPath: indexPath,
		objects:   w,
		index:     New(w.HashAlgorithm()),
	}
}

// Load reads the index file, replacing the in-memory copy.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := Read(m.fs, m.indexPath, m.objects.HashAlgorithm())
	if err != nil {
		return err
	}
	m.index = idx
	return nil
}

// AddResult reports what Add did per path.
type AddResult struct {
	Added    []string
	Modified []string
	Failed   []Failure
}

// Failure is a path that could not be processed.
type Failure struct {
	Path   string
	Reason string
}

// Add hashes each file into the object store and stages it, then saves
// the index. Per-path problems are collected in the result; storage
// failures abort.
func (m *Manager) Add(ctx context.Context, paths []string) (*AddResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &AddResult{}
	for _, p := range paths {
		if err := errs.CheckContext(ctx, pkgName, "add"); err != nil {
			return result, err
		}
		p = cleanPath(p)
		existed := m.index.Has(p)
		err := m.addFile(ctx, p)
		switch {
		case errs.IsStorage(err):
			return result, err
		case err != nil:
			result.Failed = append(result.Failed, Failure{Path: p, Reason: err.Error()})
		case existed:
			result.Modified = append(result.Modified, p)
		default:
			result.Added = append(result.Added, p)
		}
	}
	return result, m.index.Write(m.fs, m.indexPath)
}

func (m *Manager) addFile(ctx context.Context, p string) error {
	info, err := m.fs.Lstat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.New(pkgName, errs.CodeNotFound, "add", "no such file "+p, err)
		}
		return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "add")
	}
	if info.IsDir() {
		return errs.New(pkgName, errs.CodeInvalidArgument, "add", p+" is a directory", nil)
	}

	content, err := ReadContent(m.fs, p, info)
	if err != nil {
		return err
	}
	id, err := m.objects.WriteObject(ctx, objects.BlobType, content)
	if err != nil {
		return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "add")
	}
	m.index.Add(NewEntryFromFileInfo(p, info, id))
	return nil
}

// ReadContent returns what Git hashes for a worktree path: the file data,
// or the link target for symlinks.
func ReadContent(fs billy.Filesystem, p string, info os.FileInfo) ([]byte, error) {
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := fs.Readlink(p)
		if err != nil {
			return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "read_content")
		}
		return []byte(target), nil
	}
	f, err := fs.Open(p)
	if err != nil {
		return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "read_content")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "read_content")
	}
	return data, nil
}

// RemoveResult reports what Remove did per path.
type RemoveResult struct {
	Removed []string
	Failed  []Failure
}

// Remove unstages paths and, with deleteFromDisk, removes them from the
// working tree.
func (m *Manager) Remove(paths []string, deleteFromDisk bool) (*RemoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &RemoveResult{}
	for _, p := range paths {
		p = cleanPath(p)
		if !m.index.Remove(p) {
			result.Failed = append(result.Failed, Failure{Path: p, Reason: "not in index"})
			continue
		}
		result.Removed = append(result.Removed, p)
		if deleteFromDisk {
			if err := m.fs.Remove(p); err != nil && !os.IsNotExist(err) {
				result.Failed = append(result.Failed, Failure{Path: p, Reason: err.Error()})
			}
		}
	}
	return result, m.index.Write(m.fs, m.indexPath)
}

// Changes lists tracked paths whose worktree copy differs from the index.
type Changes struct {
	Modified []string
	Deleted  []string
}

// Status compares the index against the working tree. Files whose stat
// data changed, and racily clean files, are rehashed before being reported
// as modified.
func (m *Manager) Status(ctx context.Context) (*Changes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var written Timestamp
	if info, err := m.fs.Lstat(m.indexPath); err == nil {
		written = NewTimestamp(info.ModTime())
	}

	changes := &Changes{}
	for _, e := range m.index.entries {
		if err := errs.CheckContext(ctx, pkgName, "status"); err != nil {
			return nil, err
		}
		info, err := m.fs.Lstat(e.Path)
		if os.IsNotExist(err) {
			changes.Deleted = append(changes.Deleted, e.Path)
			continue
		}
		if err != nil {
			return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "status")
		}
		if !e.IsModified(info) && !e.IsRacy(written) {
			continue
		}
		content, err := ReadContent(m.fs, e.Path, info)
		if err != nil {
			return nil, err
		}
		id := objects.ComputeID(m.index.algo, objects.BlobType, content)
		if id != e.ID || e.Mode != objects.FromOSFileMode(info.Mode()) {
			changes.Modified = append(changes.Modified, e.Path)
		}
	}
	return changes, nil
}

// Replace swaps in idx and saves it.
func (m *Manager) Replace(idx *Index) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.index = idx
	return m.index.Write(m.fs, m.indexPath)
}

// Clear empties the index and saves it.
func (m *Manager) Clear() error {
	return m.Replace(New(m.objects.HashAlgorithm()))
}

// Index returns a copy of the current index.
func (m *Manager) Index() *Index {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Index{Version: m.index.Version, algo: m.index.algo, entries: m.index.Entries()}
}

func cleanPath(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}
