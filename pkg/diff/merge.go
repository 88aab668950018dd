package diff

import (
	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// Merge adds the deltas of from to onto. A path present in both is kept
// once when the deltas are identical; if they differ nothing is merged and
// a CONFLICT error names the path. from is not modified.
func Merge(onto, from *Diff) error {
	if onto.algo != from.algo {
		return errs.New(pkgName, errs.CodeInvalidArgument, "merge", "diffs use different hash algorithms", nil)
	}

	byPath := make(map[string]*Delta, len(onto.deltas))
	for _, d := range onto.deltas {
		byPath[d.Path()] = d
	}

	var added []*Delta
	for _, d := range from.deltas {
		existing, ok := byPath[d.Path()]
		if !ok {
			byPath[d.Path()] = d
			added = append(added, d)
			continue
		}
		if !sameDelta(existing, d) {
			return errs.Newf(pkgName, errs.CodeConflict, "merge",
				"%s is %s in one diff and %s in the other", d.Path(), existing.Status, d.Status).
				WithContext("path", d.Path())
		}
	}

	onto.deltas = append(onto.deltas, added...)
	sortDeltas(onto.deltas)
	onto.logger.Debug("diffs merged", "added", len(added), "deltas", len(onto.deltas))
	return nil
}

func sameDelta(a, b *Delta) bool {
	return a.Status == b.Status &&
		a.OldFile == b.OldFile &&
		a.NewFile == b.NewFile &&
		a.Similarity == b.Similarity
}
