package diff

import (
	"context"
	"errors"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// ErrStop returned from a Foreach callback ends the iteration; Foreach
// then reports CANCELLED.
var ErrStop = errors.New("stop iteration")

type (
	// FileFunc is called once per delta with the fraction of deltas
	// already visited.
	FileFunc   func(delta *Delta, progress float64) error
	BinaryFunc func(delta *Delta) error
	HunkFunc   func(delta *Delta, hunk *Hunk) error
	LineFunc   func(delta *Delta, hunk *Hunk, line *Line) error
)

// Foreach visits every delta in order and, when the hunk or line callbacks
// are set, its hunks and lines. Any callback may be nil. Content is only
// loaded when binary, hunk or line callbacks are present.
func (d *Diff) Foreach(ctx context.Context, file FileFunc, binary BinaryFunc, hunk HunkFunc, line LineFunc) error {
	err := d.foreach(ctx, file, binary, hunk, line)
	if errors.Is(err, ErrStop) {
		return errs.New(pkgName, errs.CodeCancelled, "foreach", "iteration stopped by callback", err)
	}
	return err
}

func (d *Diff) foreach(ctx context.Context, file FileFunc, binary BinaryFunc, hunk HunkFunc, line LineFunc) error {
	needPatch := binary != nil || hunk != nil || line != nil
	for i, delta := range d.deltas {
		if err := errs.CheckContext(ctx, pkgName, "foreach"); err != nil {
			return err
		}
		if file != nil {
			if err := file(delta, float64(i)/float64(len(d.deltas))); err != nil {
				return callbackErr(err)
			}
		}
		if !needPatch {
			continue
		}

		p, err := d.patch(ctx, delta)
		if err != nil {
			return err
		}
		if p.Binary {
			if binary != nil {
				if err := binary(delta); err != nil {
					return callbackErr(err)
				}
			}
			continue
		}
		for _, h := range p.Hunks {
			if hunk != nil {
				if err := hunk(delta, h); err != nil {
					return callbackErr(err)
				}
			}
			if line == nil {
				continue
			}
			for j := range h.Lines {
				if err := line(delta, h, &h.Lines[j]); err != nil {
					return callbackErr(err)
				}
			}
		}
	}
	return nil
}

func callbackErr(err error) error {
	if errors.Is(err, ErrStop) {
		return err
	}
	return errs.Wrap(err, pkgName, "foreach")
}
