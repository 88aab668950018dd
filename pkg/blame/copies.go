package blame

import (
	"bytes"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
)

type copySource struct {
	path string
	id   objects.ObjectID
}

// findCopies searches the first parent for blocks of the lines s would
// keep. Matched lines move to the file they were found in.
func (b *blamer) findCopies(s *suspect, p *parentInfo, current *tree.Tree, created bool, refs []lineRef) ([]lineRef, error) {
	sources, err := b.copySources(s, p, current, created)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if len(refs) == 0 {
			break
		}
		if err := errs.CheckContext(b.ctx, pkgName, "find_copies"); err != nil {
			return nil, err
		}
		from, err := b.loadBlob(p.commit, src.path, src.id)
		if err != nil {
			return nil, err
		}
		refs = b.matchBlocks(s, from, refs)
	}
	return refs, nil
}

// copySources lists the parent files to search, most specific first.
func (b *blamer) copySources(s *suspect, p *parentInfo, current *tree.Tree, created bool) ([]copySource, error) {
	var out []copySource
	seen := make(map[string]bool)
	add := func(path string, id objects.ObjectID) {
		if !seen[path] {
			seen[path] = true
			out = append(out, copySource{path: path, id: id})
		}
	}

	flags := b.opts.Flags
	if flags.Has(TrackCopiesSameFile) {
		e, err := p.tree.GetByPath(b.ctx, b.repo, s.path)
		switch {
		case errs.IsNotFound(err):
		case err != nil:
			return nil, errs.Wrap(err, pkgName, "find_copies")
		case e.Mode.IsFile():
			add(s.path, e.ID)
		}
	}

	if flags.Has(TrackCopiesSameCommitMoves) {
		changes, err := b.changes(p, current)
		if err != nil {
			return nil, err
		}
		for _, d := range changes.Deltas() {
			if (d.Status == diff.Modified || d.Status == diff.Deleted) && d.OldFile.Mode.IsFile() && d.OldFile.Path != s.path {
				add(d.OldFile.Path, d.OldFile.ID)
			}
		}
	}

	if flags.Has(TrackCopiesAnyCommitCopies) || (created && flags.Has(TrackCopiesSameCommitCopies)) {
		err := p.tree.Walk(b.ctx, b.repo, tree.PreOrder, func(dir string, e tree.Entry) error {
			if e.Mode.IsFile() {
				add(dir+e.Name, e.ID)
			}
			return nil
		})
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "find_copies")
		}
	}
	return out, nil
}

// matchBlocks moves runs of lines found verbatim in from and returns the
// lines it could not place. A run must carry at least MinMatchCharacters
// non-blank characters.
func (b *blamer) matchBlocks(s, from *suspect, refs []lineRef) []lineRef {
	ignoreWS := b.opts.Flags.Has(IgnoreWhitespace)
	fromKeys := make([]string, len(from.lines))
	for i, l := range from.lines {
		fromKeys[i] = lineKey(l, ignoreWS)
	}
	key := func(r lineRef) string { return lineKey(s.lines[r.orig], ignoreWS) }

	var kept, moved []lineRef
	for i := 0; i < len(refs); {
		end := i + 1
		for end < len(refs) && refs[end].orig == refs[end-1].orig+1 {
			end++
		}
		for i < end {
			bestStart, bestLen := -1, 0
			for j := range fromKeys {
				k := 0
				for i+k < end && j+k < len(fromKeys) && fromKeys[j+k] == key(refs[i+k]) {
					k++
				}
				if k > bestLen {
					bestStart, bestLen = j, k
				}
			}
			if bestLen == 0 || weight(s.lines, refs[i:i+bestLen]) < b.opts.MinMatchCharacters {
				kept = append(kept, refs[i])
				i++
				continue
			}
			for k := range bestLen {
				moved = append(moved, lineRef{final: refs[i+k].final, orig: bestStart + k})
			}
			i += bestLen
		}
	}

	if len(moved) > 0 {
		b.log.Debug("lines copied", "commit", s.commit.ID().Short(), "from", from.path, "lines", len(moved))
		from.pending = append(from.pending, moved...)
		b.enqueue(from)
	}
	return kept
}

func lineKey(line []byte, ignoreWhitespace bool) string {
	line = bytes.TrimRight(line, "\n")
	if !ignoreWhitespace {
		return string(line)
	}
	return string(bytes.Join(bytes.Fields(line), []byte{' '}))
}

func weight(lines [][]byte, refs []lineRef) int {
	n := 0
	for _, r := range refs {
		n += len(bytes.TrimSpace(lines[r.orig]))
	}
	return n
}
