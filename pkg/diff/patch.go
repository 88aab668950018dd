package diff

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// Origin tags a line of a hunk.
type Origin byte

const (
	Context  Origin = ' '
	Addition Origin = '+'
	Deletion Origin = '-'
	// ContextEOFNL and friends follow a line that has no trailing newline
	// and render as "\ No newline at end of file".
	ContextEOFNL  Origin = '='
	AdditionEOFNL Origin = '>'
	DeletionEOFNL Origin = '<'
)

// Line is one line of a hunk. Line numbers are 1-based; a side the line
// does not exist on has -1.
type Line struct {
	Origin    Origin
	OldLineno int
	NewLineno int
	// Content includes the trailing newline when there is one.
	Content []byte
}

// Text returns the content as a string.
func (l *Line) Text() string { return string(l.Content) }

func (l *Line) isEOFNL() bool {
	return l.Origin == ContextEOFNL || l.Origin == AdditionEOFNL || l.Origin == DeletionEOFNL
}

// Hunk is a contiguous block of changes with its context.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Header   string
	Lines    []Line
}

// Patch is the textual difference of one delta.
type Patch struct {
	Delta  *Delta
	Binary bool
	Hunks  []*Hunk
}

// LineStats counts added and deleted lines.
func (p *Patch) LineStats() (additions, deletions int) {
	for _, h := range p.Hunks {
		for _, l := range h.Lines {
			switch l.Origin {
			case Addition:
				additions++
			case Deletion:
				deletions++
			}
		}
	}
	return additions, deletions
}

// Patch computes the hunks of the i-th delta. Nothing is cached; each call
// reloads content.
func (d *Diff) Patch(ctx context.Context, i int) (*Patch, error) {
	delta, err := d.Delta(i)
	if err != nil {
		return nil, err
	}
	return d.patch(ctx, delta)
}

func (d *Diff) patch(ctx context.Context, delta *Delta) (*Patch, error) {
	p := &Patch{Delta: delta}
	if delta.Status == Unmodified || (delta.OldFile.ID == delta.NewFile.ID && delta.Status != TypeChange) {
		return p, nil
	}

	oldData, err := delta.oldContent(ctx)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "patch")
	}
	newData, err := delta.newContent(ctx)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "patch")
	}
	if d.opts.isBinary(oldData) || d.opts.isBinary(newData) {
		p.Binary = true
		return p, nil
	}

	p.Hunks = makeHunks(diffLines(oldData, newData, d.opts.IgnoreWhitespace), d.opts.ContextLines, d.opts.InterhunkLines)
	return p, nil
}

// SplitLines splits data after each newline. The last line may lack one.
func SplitLines(data []byte) [][]byte {
	var lines [][]byte
	for len(data) > 0 {
		n := bytes.IndexByte(data, '\n') + 1
		if n == 0 {
			n = len(data)
		}
		lines = append(lines, data[:n:n])
		data = data[n:]
	}
	return lines
}

// lineKey is what two lines are compared by.
func lineKey(line []byte, ignoreWhitespace bool) string {
	if !ignoreWhitespace {
		return string(line)
	}
	return string(bytes.Join(bytes.Fields(line), []byte{' '}))
}

// indexRune maps a line number to a rune that survives the round trip
// through string, skipping the surrogate range.
func indexRune(i int) rune {
	r := rune(i)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

// diffLines returns every line of both inputs in edit order with line
// numbers, using a line-level Myers diff.
func diffLines(oldData, newData []byte, ignoreWhitespace bool) []Line {
	oldLines, newLines := SplitLines(oldData), SplitLines(newData)
	keys := make(map[string]rune)
	encode := func(lines [][]byte) []rune {
		out := make([]rune, len(lines))
		for i, l := range lines {
			k := lineKey(l, ignoreWhitespace)
			r, ok := keys[k]
			if !ok {
				r = indexRune(len(keys))
				keys[k] = r
			}
			out[i] = r
		}
		return out
	}
	a, b := encode(oldLines), encode(newLines)

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	ops := dmp.DiffMainRunes(a, b, false)

	out := make([]Line, 0, max(len(oldLines), len(newLines)))
	oi, ni := 0, 0
	for _, op := range ops {
		n := utf8.RuneCountInString(op.Text)
		for range n {
			switch op.Type {
			case diffmatchpatch.DiffEqual:
				out = append(out, Line{Origin: Context, OldLineno: oi + 1, NewLineno: ni + 1, Content: newLines[ni]})
				oi++
				ni++
			case diffmatchpatch.DiffDelete:
				out = append(out, Line{Origin: Deletion, OldLineno: oi + 1, NewLineno: -1, Content: oldLines[oi]})
				oi++
			case diffmatchpatch.DiffInsert:
				out = append(out, Line{Origin: Addition, OldLineno: -1, NewLineno: ni + 1, Content: newLines[ni]})
				ni++
			}
		}
	}
	return out
}

// MatchLines maps every line of newData to the 0-based line of oldData it
// is kept from, or -1 when the edit script adds it.
func MatchLines(oldData, newData []byte, ignoreWhitespace bool) []int {
	lines := diffLines(oldData, newData, ignoreWhitespace)
	out := make([]int, 0, len(lines))
	for _, l := range lines {
		switch l.Origin {
		case Context:
			out = append(out, l.OldLineno-1)
		case Addition:
			out = append(out, -1)
		}
	}
	return out
}

// makeHunks groups changed lines with up to context unchanged lines on each
// side. Changes closer than 2*context+interhunk share a hunk.
func makeHunks(lines []Line, context, interhunk int) []*Hunk {
	var changes []int
	for i, l := range lines {
		if l.Origin != Context {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	var hunks []*Hunk
	start := 0
	for i := 1; i <= len(changes); i++ {
		if i < len(changes) && changes[i]-changes[i-1]-1 <= 2*context+interhunk {
			continue
		}
		from := max(changes[start]-context, 0)
		to := min(changes[i-1]+context+1, len(lines))
		hunks = append(hunks, newHunk(lines, from, to))
		start = i
	}
	return hunks
}

func newHunk(all []Line, from, to int) *Hunk {
	h := &Hunk{}
	oldBefore, newBefore := 0, 0
	for _, l := range all[:from] {
		if l.OldLineno > 0 {
			oldBefore = l.OldLineno
		}
		if l.NewLineno > 0 {
			newBefore = l.NewLineno
		}
	}

	for _, l := range all[from:to] {
		if l.OldLineno > 0 {
			h.OldLines++
		}
		if l.NewLineno > 0 {
			h.NewLines++
		}
		h.Lines = append(h.Lines, l)
		if len(l.Content) > 0 && l.Content[len(l.Content)-1] != '\n' {
			marker := Line{Origin: ContextEOFNL, OldLineno: -1, NewLineno: -1, Content: []byte("\n\\ No newline at end of file\n")}
			switch l.Origin {
			case Addition:
				marker.Origin = AdditionEOFNL
			case Deletion:
				marker.Origin = DeletionEOFNL
			}
			h.Lines = append(h.Lines, marker)
		}
	}

	h.OldStart, h.NewStart = oldBefore, newBefore
	if h.OldLines > 0 {
		h.OldStart++
	}
	if h.NewLines > 0 {
		h.NewStart++
	}
	h.Header = fmt.Sprintf("@@ -%s +%s @@", hunkRange(h.OldStart, h.OldLines), hunkRange(h.NewStart, h.NewLines))
	return h
}

func hunkRange(start, n int) string {
	if n == 1 {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d,%d", start, n)
}
