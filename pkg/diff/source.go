package diff

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/index"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/blob"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
	"github.com/utkarsh5026/gitcore/pkg/pathspec"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

// Loader returns the content of one side of a delta.
type Loader func(ctx context.Context) ([]byte, error)

// SourceFile is a file listed by a Source.
type SourceFile struct {
	File
	Load Loader
}

// Source lists the files of one side of a diff. Every listed file must
// carry its blob id; sources without stored objects hash their content.
type Source interface {
	Files(ctx context.Context, r objects.Reader) ([]SourceFile, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, r objects.Reader) ([]SourceFile, error)

func (f SourceFunc) Files(ctx context.Context, r objects.Reader) ([]SourceFile, error) {
	return f(ctx, r)
}

// EmptySource has no files.
func EmptySource() Source {
	return SourceFunc(func(context.Context, objects.Reader) ([]SourceFile, error) { return nil, nil })
}

// TreeSource lists every blob, symlink and submodule below t. A nil tree
// is empty.
func TreeSource(t *tree.Tree) Source {
	return SourceFunc(func(ctx context.Context, r objects.Reader) ([]SourceFile, error) {
		if t == nil {
			return nil, nil
		}
		var files []SourceFile
		err := t.Walk(ctx, r, tree.PreOrder, func(dir string, e tree.Entry) error {
			if e.IsTree() {
				return nil
			}
			files = append(files, SourceFile{
				File: File{Path: dir + e.Name, ID: e.ID, Mode: e.Mode, Size: -1},
				Load: objectLoader(r, e.ID, e.Mode),
			})
			return nil
		})
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "tree_source")
		}
		return files, nil
	})
}

// IndexSource lists the stage 0 entries of idx. Conflicted paths are
// skipped.
func IndexSource(idx *index.Index) Source {
	return SourceFunc(func(ctx context.Context, r objects.Reader) ([]SourceFile, error) {
		var files []SourceFile
		for _, e := range idx.Entries() {
			if e.Stage != 0 {
				continue
			}
			files = append(files, SourceFile{
				File: File{Path: e.Path, ID: e.ID, Mode: e.Mode, Size: int64(e.SizeInBytes)},
				Load: objectLoader(r, e.ID, e.Mode),
			})
		}
		return files, nil
	})
}

// WorkdirSource lists the files of a working tree, hashing each one.
// .git and paths selected by ignore are skipped; ignore may be nil.
func WorkdirSource(fs billy.Filesystem, ignore *pathspec.Matcher) Source {
	return SourceFunc(func(ctx context.Context, r objects.Reader) ([]SourceFile, error) {
		entries, err := worktree.ListFiles(ctx, fs, ignore)
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "workdir_source")
		}
		files := make([]SourceFile, 0, len(entries))
		for _, e := range entries {
			if err := errs.CheckContext(ctx, pkgName, "workdir_source"); err != nil {
				return nil, err
			}
			content, err := index.ReadContent(fs, e.Path, e.Info)
			if err != nil {
				return nil, errs.Wrap(err, pkgName, "workdir_source")
			}
			files = append(files, SourceFile{
				File: File{
					Path: e.Path,
					ID:   objects.ComputeID(r.HashAlgorithm(), objects.BlobType, content),
					Mode: objects.FromOSFileMode(e.Info.Mode()),
					Size: int64(len(content)),
				},
				Load: func(context.Context) ([]byte, error) { return content, nil },
			})
		}
		return files, nil
	})
}

// BufferSource is a single file with in-memory content.
func BufferSource(p string, buf []byte) Source {
	return SourceFunc(func(ctx context.Context, r objects.Reader) ([]SourceFile, error) {
		return []SourceFile{{
			File: File{
				Path: p,
				ID:   objects.ComputeID(r.HashAlgorithm(), objects.BlobType, buf),
				Mode: objects.FileModeRegular,
				Size: int64(len(buf)),
			},
			Load: func(context.Context) ([]byte, error) { return buf, nil },
		}}, nil
	})
}

// BlobSource is a single file backed by b.
func BlobSource(p string, b *blob.Blob) Source {
	return SourceFunc(func(context.Context, objects.Reader) ([]SourceFile, error) {
		return []SourceFile{{
			File: File{Path: p, ID: b.ID(), Mode: objects.FileModeRegular, Size: b.Size()},
			Load: func(context.Context) ([]byte, error) { return b.Content(), nil },
		}}, nil
	})
}

// objectLoader reads blob content from r. Submodules have no blob; they
// diff as a one-line description of the commit they point at.
func objectLoader(r objects.Reader, id objects.ObjectID, mode objects.FileMode) Loader {
	if mode.IsSubmodule() {
		return func(context.Context) ([]byte, error) {
			return fmt.Appendf(nil, "Subproject commit %s\n", id), nil
		}
	}
	return func(ctx context.Context) ([]byte, error) {
		b, err := blob.Lookup(ctx, r, id)
		if err != nil {
			return nil, err
		}
		return b.Content(), nil
	}
}
