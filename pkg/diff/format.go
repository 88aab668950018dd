package diff

import (
	"bufio"
	"context"
	"fmt"
	"io"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// Stats summarizes a diff the way --stat does.
type Stats struct {
	FilesChanged int
	Insertions   int
	Deletions    int
	Files        []FileStat
}

// FileStat is the per-file line count; binary files count no lines.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
	Binary    bool
}

// Stats computes line counts for every changed delta.
func (d *Diff) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	for _, delta := range d.deltas {
		if delta.Status == Unmodified {
			continue
		}
		p, err := d.patch(ctx, delta)
		if err != nil {
			return nil, err
		}
		add, del := p.LineStats()
		st.FilesChanged++
		st.Insertions += add
		st.Deletions += del
		st.Files = append(st.Files, FileStat{Path: delta.Path(), Additions: add, Deletions: del, Binary: p.Binary})
	}
	return st, nil
}

func (s *Stats) String() string {
	plural := func(n int, word string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	}
	return fmt.Sprintf("%s changed, %s(+), %s(-)",
		plural(s.FilesChanged, "file"), plural(s.Insertions, "insertion"), plural(s.Deletions, "deletion"))
}

// WritePatch writes the whole diff in unified format.
func (d *Diff) WritePatch(ctx context.Context, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, delta := range d.deltas {
		if delta.Status == Unmodified {
			continue
		}
		p, err := d.patch(ctx, delta)
		if err != nil {
			return err
		}
		if err := p.Format(bw); err != nil {
			return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "write_patch")
		}
	}
	if err := bw.Flush(); err != nil {
		return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "write_patch")
	}
	return nil
}

// Format writes p as a git style patch.
func (p *Patch) Format(w io.Writer) error {
	ew := &errWriter{w: w}
	d := p.Delta
	oldPath, newPath := d.OldFile.Path, d.NewFile.Path
	if !d.OldFile.Exists() {
		oldPath = newPath
	}
	if !d.NewFile.Exists() {
		newPath = oldPath
	}

	ew.printf("diff --git a/%s b/%s\n", oldPath, newPath)
	switch {
	case d.Status == Added:
		ew.printf("new file mode %s\n", modeString(d.NewFile.Mode))
	case d.Status == Deleted:
		ew.printf("deleted file mode %s\n", modeString(d.OldFile.Mode))
	case d.OldFile.Mode != d.NewFile.Mode:
		ew.printf("old mode %s\nnew mode %s\n", modeString(d.OldFile.Mode), modeString(d.NewFile.Mode))
	}
	switch d.Status {
	case Renamed:
		ew.printf("similarity index %d%%\nrename from %s\nrename to %s\n", d.Similarity, oldPath, newPath)
	case Copied:
		ew.printf("similarity index %d%%\ncopy from %s\ncopy to %s\n", d.Similarity, oldPath, newPath)
	}

	if d.OldFile.ID != d.NewFile.ID {
		ew.printf("index %s..%s", shortID(d.OldFile.ID), shortID(d.NewFile.ID))
		if d.OldFile.Mode == d.NewFile.Mode {
			ew.printf(" %s", modeString(d.NewFile.Mode))
		}
		ew.printf("\n")
	}

	from, to := "a/"+oldPath, "b/"+newPath
	if !d.OldFile.Exists() {
		from = "/dev/null"
	}
	if !d.NewFile.Exists() {
		to = "/dev/null"
	}
	if p.Binary {
		ew.printf("Binary files %s and %s differ\n", from, to)
		return ew.err
	}
	if len(p.Hunks) == 0 {
		return ew.err
	}

	ew.printf("--- %s\n+++ %s\n", from, to)
	for _, h := range p.Hunks {
		ew.printf("%s\n", h.Header)
		for _, l := range h.Lines {
			if l.isEOFNL() {
				// the content starts with the newline the previous line lacked
				ew.write(l.Content)
				continue
			}
			ew.write([]byte{byte(l.Origin)})
			ew.write(l.Content)
		}
	}
	return ew.err
}

func modeString(m objects.FileMode) string { return fmt.Sprintf("%06o", uint32(m)) }

func shortID(id objects.ObjectID) string {
	if !id.IsValid() {
		return "0000000"
	}
	return id.Short()
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
}
