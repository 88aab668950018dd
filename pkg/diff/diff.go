// Package diff compares two snapshots of a set of files (trees, the index,
// a working directory or in-memory buffers) and produces per-file deltas
// with lazily computed hunks and lines.
//
//	d, err := diff.Compute(ctx, store, diff.TreeSource(old), diff.WorkdirSource(fs, ignore), nil)
//	d, err = diff.FindSimilar(ctx, d, nil)
//	err = d.WritePatch(ctx, os.Stdout)
package diff

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

const pkgName = "diff"

// Status is the kind of change a delta describes.
type Status uint8

const (
	Unmodified Status = iota
	Added
	Deleted
	Modified
	Renamed
	Copied
	TypeChange
)

var statusLetters = [...]byte{'U', 'A', 'D', 'M', 'R', 'C', 'T'}

// Letter is the one-letter code used by --name-status.
func (s Status) Letter() byte {
	if int(s) < len(statusLetters) {
		return statusLetters[s]
	}
	return 'X'
}

func (s Status) String() string {
	switch s {
	case Unmodified:
		return "unmodified"
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Modified:
		return "modified"
	case Renamed:
		return "renamed"
	case Copied:
		return "copied"
	case TypeChange:
		return "typechange"
	}
	return fmt.Sprintf("Status(%d)", s)
}

// File is one side of a delta. A side that does not exist has Mode 0 and
// a zero ID.
type File struct {
	Path string
	ID   objects.ObjectID
	Mode objects.FileMode
	Size int64
}

// Exists reports whether this side is present.
func (f File) Exists() bool { return f.Mode != objects.FileModeEmpty }

// Delta is a file level change. Deltas are never modified once a Diff is
// built and may be shared between goroutines.
type Delta struct {
	Status  Status
	OldFile File
	NewFile File
	// Similarity is the score (0-100) of a rename or copy.
	Similarity int

	oldLoad Loader
	newLoad Loader
}

// Path is the new path, or the old one for deletions.
func (d *Delta) Path() string {
	if d.NewFile.Exists() {
		return d.NewFile.Path
	}
	return d.OldFile.Path
}

func (d *Delta) String() string {
	if d.Status == Renamed || d.Status == Copied {
		return fmt.Sprintf("%c%03d %s -> %s", d.Status.Letter(), d.Similarity, d.OldFile.Path, d.NewFile.Path)
	}
	return fmt.Sprintf("%c %s", d.Status.Letter(), d.Path())
}

func (d *Delta) oldContent(ctx context.Context) ([]byte, error) {
	if d.oldLoad == nil || !d.OldFile.Exists() {
		return nil, nil
	}
	return d.oldLoad(ctx)
}

func (d *Delta) newContent(ctx context.Context) ([]byte, error) {
	if d.newLoad == nil || !d.NewFile.Exists() {
		return nil, nil
	}
	return d.newLoad(ctx)
}

// Diff is an ordered list of deltas together with the options used to
// produce them. A Diff is used by one goroutine at a time.
type Diff struct {
	deltas []*Delta
	opts   Options
	algo   objects.HashAlgorithm
	logger *slog.Logger
}

// Compute compares from with to. Files present on both sides are compared
// by id and mode; content is only read when hunks are requested. Deltas
// are ordered by path.
func Compute(ctx context.Context, r objects.Reader, from, to Source, opts *Options) (*Diff, error) {
	o := opts.withDefaults()
	filter, err := o.filter()
	if err != nil {
		return nil, err
	}

	oldFiles, err := from.Files(ctx, r)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "compute")
	}
	newFiles, err := to.Files(ctx, r)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "compute")
	}

	oldByPath := indexByPath(oldFiles, filter)
	newByPath := indexByPath(newFiles, filter)
	paths := make([]string, 0, len(oldByPath)+len(newByPath))
	for p := range oldByPath {
		paths = append(paths, p)
	}
	for p := range newByPath {
		if _, ok := oldByPath[p]; !ok {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)

	d := &Diff{opts: o, algo: r.HashAlgorithm(), logger: logger.Component(o.Logger, pkgName)}
	for _, p := range paths {
		if err := errs.CheckContext(ctx, pkgName, "compute"); err != nil {
			return nil, err
		}
		of, inOld := oldByPath[p]
		nf, inNew := newByPath[p]

		delta := &Delta{}
		switch {
		case !inNew:
			delta.Status = Deleted
		case !inOld:
			delta.Status = Added
		case kind(of.Mode) != kind(nf.Mode):
			delta.Status = TypeChange
		case of.ID == nf.ID && of.Mode == nf.Mode:
			if !o.IncludeUnmodified {
				continue
			}
			delta.Status = Unmodified
		default:
			delta.Status = Modified
		}
		if inOld {
			delta.OldFile, delta.oldLoad = of.File, of.Load
		}
		if inNew {
			delta.NewFile, delta.newLoad = nf.File, nf.Load
		}
		d.deltas = append(d.deltas, delta)
	}

	d.logger.Debug("diff computed", "old", len(oldFiles), "new", len(newFiles), "deltas", len(d.deltas))
	return d, nil
}

func indexByPath(files []SourceFile, keep func(string) bool) map[string]SourceFile {
	m := make(map[string]SourceFile, len(files))
	for _, f := range files {
		if keep(f.Path) {
			m[f.Path] = f
		}
	}
	return m
}

// kind groups modes whose content is comparable: regular and executable
// files are the same kind.
func kind(m objects.FileMode) objects.FileMode {
	if m == objects.FileModeExecutable {
		return objects.FileModeRegular
	}
	return m
}

// Deltas returns the deltas in order. The slice is a copy.
func (d *Diff) Deltas() []*Delta { return slices.Clone(d.deltas) }

func (d *Diff) NumDeltas() int { return len(d.deltas) }

// Delta returns the i-th delta.
func (d *Diff) Delta(i int) (*Delta, error) {
	if i < 0 || i >= len(d.deltas) {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "delta", "index %d out of range [0,%d)", i, len(d.deltas))
	}
	return d.deltas[i], nil
}

// Options returns a copy of the options the diff was computed with.
func (d *Diff) Options() Options { return d.opts }

// NumDeltasOfType counts deltas with status s.
func (d *Diff) NumDeltasOfType(s Status) int {
	n := 0
	for _, delta := range d.deltas {
		if delta.Status == s {
			n++
		}
	}
	return n
}

func (d *Diff) String() string {
	var b strings.Builder
	for _, delta := range d.deltas {
		b.WriteString(delta.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// sortDeltas restores path order after deltas were replaced.
func sortDeltas(deltas []*Delta) {
	slices.SortStableFunc(deltas, func(a, b *Delta) int {
		return strings.Compare(a.Path(), b.Path())
	})
}
