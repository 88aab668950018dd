package diff

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
)

const (
	DefaultRenameThreshold = 50
	DefaultCopyThreshold   = 50
	DefaultRenameLimit     = 400
)

// FindOptions controls FindSimilar. A nil *FindOptions means
// DefaultFindOptions().
type FindOptions struct {
	Renames bool
	// Copies also looks for copies of modified files; it implies Renames.
	Copies bool
	// CopiesFromUnmodified also considers unmodified files as copy
	// sources. The diff must have been computed with IncludeUnmodified.
	CopiesFromUnmodified bool

	// Thresholds are similarity scores (0-100); 0 selects the default.
	RenameThreshold int
	CopyThreshold   int
	// RenameFromRewriteThreshold makes a modified file whose old and new
	// content are less similar than this a rename target. 0 disables it.
	// When such a file is paired, its old content is kept as a separate
	// Deleted delta.
	RenameFromRewriteThreshold int

	// RenameLimit caps sources*targets at RenameLimit^2 for inexact
	// detection; above it only exact renames are found. 0 is unlimited.
	RenameLimit int

	// Metric scores content similarity; nil selects DefaultMetric().
	Metric SimilarityMetric
	Logger *slog.Logger
}

// DefaultFindOptions detects renames with the default thresholds.
func DefaultFindOptions() *FindOptions {
	return &FindOptions{
		Renames:         true,
		RenameThreshold: DefaultRenameThreshold,
		CopyThreshold:   DefaultCopyThreshold,
		RenameLimit:     DefaultRenameLimit,
	}
}

func (o *FindOptions) withDefaults() FindOptions {
	if o == nil {
		o = DefaultFindOptions()
	}
	c := *o
	if c.Copies || c.CopiesFromUnmodified {
		c.Copies, c.Renames = true, true
	}
	if c.RenameThreshold <= 0 {
		c.RenameThreshold = DefaultRenameThreshold
	}
	if c.CopyThreshold <= 0 {
		c.CopyThreshold = DefaultCopyThreshold
	}
	if c.Metric == nil {
		c.Metric = DefaultMetric()
	}
	return c
}

// ConfigReader is the part of a configuration FindOptionsFromConfig needs.
type ConfigReader interface {
	GetString(key string) (string, error)
	GetBool(key string) (bool, error)
	GetInt64(key string) (int64, error)
}

// FindOptionsFromConfig reads diff.renames ("copies" enables copy
// detection) and diff.renamelimit. Missing keys keep the defaults.
func FindOptionsFromConfig(cfg ConfigReader) (*FindOptions, error) {
	o := DefaultFindOptions()

	v, err := cfg.GetString("diff.renames")
	switch {
	case errs.IsNotFound(err):
	case err != nil:
		return nil, errs.Wrap(err, pkgName, "find_options")
	case strings.EqualFold(v, "copies") || strings.EqualFold(v, "copy"):
		o.Copies = true
	default:
		on, err := cfg.GetBool("diff.renames")
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "find_options")
		}
		o.Renames = on
	}

	limit, err := cfg.GetInt64("diff.renamelimit")
	switch {
	case errs.IsNotFound(err):
	case err != nil:
		return nil, errs.Wrap(err, pkgName, "find_options")
	default:
		o.RenameLimit = int(limit)
	}
	return o, nil
}

// candidate is one side that may take part in a rename or copy.
type candidate struct {
	delta   *Delta
	index   int
	deleted bool // a rename source; otherwise only copies are possible
	sig     Signature
	loaded  bool
	binary  bool
}

type match struct {
	target, source int
	score          int
}

// FindSimilar returns a new Diff in which added files are paired with
// deleted (and, with copies, existing) files they are similar to. The
// input diff is not modified. For fixed input and options the result is
// deterministic.
func FindSimilar(ctx context.Context, d *Diff, opts *FindOptions) (*Diff, error) {
	o := opts.withDefaults()
	log := d.logger
	if o.Logger != nil {
		log = logger.Component(o.Logger, pkgName)
	}
	out := &Diff{opts: d.opts, algo: d.algo, logger: d.logger}
	if !o.Renames {
		out.deltas = slices.Clone(d.deltas)
		return out, nil
	}

	f := &finder{ctx: ctx, d: d, o: o, log: log}
	defer f.free()
	for i, delta := range d.deltas {
		if !blobKind(delta) {
			continue
		}
		switch delta.Status {
		case Deleted:
			f.sources = append(f.sources, &candidate{delta: delta, index: i, deleted: true})
		case Modified:
			if o.Copies {
				f.sources = append(f.sources, &candidate{delta: delta, index: i})
			}
			if o.RenameFromRewriteThreshold > 0 {
				rewritten, err := f.isRewrite(delta)
				if err != nil {
					return nil, err
				}
				if rewritten {
					f.targets = append(f.targets, &candidate{delta: delta, index: i})
				}
			}
		case Unmodified:
			if o.CopiesFromUnmodified {
				f.sources = append(f.sources, &candidate{delta: delta, index: i})
			}
		case Added:
			f.targets = append(f.targets, &candidate{delta: delta, index: i})
		}
	}

	assigned, err := f.assign()
	if err != nil {
		return nil, err
	}

	consumed := make(map[int]bool)
	replaced := make(map[int]*Delta)
	broken := make(map[int]*Delta)
	for _, m := range assigned {
		src, tgt := f.sources[m.source], f.targets[m.target]
		status := Copied
		if src.deleted && !consumed[src.index] {
			status = Renamed
			consumed[src.index] = true
		}
		replaced[tgt.index] = &Delta{
			Status:     status,
			OldFile:    src.delta.OldFile,
			NewFile:    tgt.delta.NewFile,
			Similarity: m.score,
			oldLoad:    src.delta.oldLoad,
			newLoad:    tgt.delta.newLoad,
		}
		if tgt.delta.Status == Modified {
			broken[tgt.index] = &Delta{Status: Deleted, OldFile: tgt.delta.OldFile, oldLoad: tgt.delta.oldLoad}
		}
	}
	for i, delta := range d.deltas {
		switch {
		case consumed[i]:
		case broken[i] != nil:
			out.deltas = append(out.deltas, replaced[i], broken[i])
		case replaced[i] != nil:
			out.deltas = append(out.deltas, replaced[i])
		default:
			out.deltas = append(out.deltas, delta)
		}
	}
	sortDeltas(out.deltas)

	log.Debug("similarity detection done", "sources", len(f.sources), "targets", len(f.targets), "matched", len(assigned))
	return out, nil
}

// blobKind reports whether both existing sides hold file content.
func blobKind(d *Delta) bool {
	for _, f := range []File{d.OldFile, d.NewFile} {
		if f.Exists() && !f.Mode.IsBlob() {
			return false
		}
	}
	return true
}

type finder struct {
	ctx     context.Context
	d       *Diff
	o       FindOptions
	log     *slog.Logger
	sources []*candidate
	targets []*candidate
}

// assign pairs targets with sources: exact id matches first, then the
// best scoring pairs above the thresholds.
func (f *finder) assign() ([]match, error) {
	var matches []match
	done := make(map[int]bool)
	renamed := make(map[int]bool)

	for ti, t := range f.targets {
		best := -1
		for si, s := range f.sources {
			if s.delta.OldFile.ID != t.delta.NewFile.ID || kind(s.delta.OldFile.Mode) != kind(t.delta.NewFile.Mode) {
				continue
			}
			if s.deleted && !renamed[si] {
				best = si
				break
			}
			if best < 0 && (!s.deleted || f.o.Copies) {
				best = si
			}
		}
		if best < 0 {
			continue
		}
		if f.sources[best].deleted && !renamed[best] {
			renamed[best] = true
		} else if !f.o.Copies {
			continue
		}
		matches = append(matches, match{target: ti, source: best, score: 100})
		done[ti] = true
	}

	if f.o.RenameLimit > 0 && len(f.sources)*len(f.targets) > f.o.RenameLimit*f.o.RenameLimit {
		f.log.Debug("rename limit exceeded, only exact renames detected",
			"sources", len(f.sources), "targets", len(f.targets), "limit", f.o.RenameLimit)
		return matches, nil
	}

	var pairs []match
	for ti, t := range f.targets {
		if done[ti] {
			continue
		}
		for si, s := range f.sources {
			if err := errs.CheckContext(f.ctx, pkgName, "find_similar"); err != nil {
				return nil, err
			}
			score, err := f.score(s, t)
			if err != nil {
				return nil, err
			}
			threshold := f.o.CopyThreshold
			if s.deleted {
				threshold = f.o.RenameThreshold
			}
			if score >= threshold {
				pairs = append(pairs, match{target: ti, source: si, score: score})
			}
		}
	}

	slices.SortStableFunc(pairs, func(a, b match) int {
		if a.score != b.score {
			return b.score - a.score
		}
		if c := strings.Compare(f.targets[a.target].delta.NewFile.Path, f.targets[b.target].delta.NewFile.Path); c != 0 {
			return c
		}
		return strings.Compare(f.sources[a.source].delta.OldFile.Path, f.sources[b.source].delta.OldFile.Path)
	})
	for _, p := range pairs {
		if done[p.target] {
			continue
		}
		s := f.sources[p.source]
		switch {
		case s.deleted && !renamed[p.source]:
			renamed[p.source] = true
		case f.o.Copies && p.score >= f.o.CopyThreshold:
		default:
			continue
		}
		matches = append(matches, p)
		done[p.target] = true
	}
	return matches, nil
}

func (f *finder) score(s, t *candidate) (int, error) {
	if kind(s.delta.OldFile.Mode) != kind(t.delta.NewFile.Mode) {
		return 0, nil
	}
	if err := f.signature(s, s.delta.oldContent); err != nil {
		return 0, err
	}
	if err := f.signature(t, t.delta.newContent); err != nil {
		return 0, err
	}
	if s.binary || t.binary {
		return 0, nil
	}
	score, err := f.o.Metric.Similarity(s.sig, t.sig)
	if err != nil {
		return 0, errs.Wrap(err, pkgName, "similarity")
	}
	return score, nil
}

func (f *finder) signature(c *candidate, load func(context.Context) ([]byte, error)) error {
	if c.loaded {
		return nil
	}
	data, err := load(f.ctx)
	if err != nil {
		return errs.Wrap(err, pkgName, "find_similar")
	}
	c.loaded = true
	if f.d.opts.isBinary(data) {
		c.binary = true
		return nil
	}
	path := c.delta.NewFile.Path
	if c.deleted || !c.delta.NewFile.Exists() {
		path = c.delta.OldFile.Path
	}
	sig, err := f.o.Metric.BufferSignature(path, data)
	if err != nil {
		return errs.Wrap(err, pkgName, "signature")
	}
	c.sig = sig
	return nil
}

func (f *finder) isRewrite(d *Delta) (bool, error) {
	old := &candidate{delta: d, deleted: true}
	cur := &candidate{delta: d}
	defer f.release(old, cur)
	score, err := f.score(old, cur)
	if err != nil {
		return false, err
	}
	return score < f.o.RenameFromRewriteThreshold, nil
}

func (f *finder) release(cs ...*candidate) {
	for _, c := range cs {
		if c.sig != nil {
			f.o.Metric.Free(c.sig)
			c.sig = nil
		}
	}
}

func (f *finder) free() {
	f.release(f.sources...)
	f.release(f.targets...)
}

// Signature is an opaque summary produced by a SimilarityMetric.
type Signature any

// SimilarityMetric scores how alike two pieces of content are.
type SimilarityMetric interface {
	// FileSignature summarizes the file at path.
	FileSignature(path string) (Signature, error)
	// BufferSignature summarizes buf, which was read from path.
	BufferSignature(path string, buf []byte) (Signature, error)
	// Similarity returns a score from 0 (unrelated) to 100 (identical).
	Similarity(a, b Signature) (int, error)
	// Free releases a signature.
	Free(sig Signature)
}

// HashMetric hashes each line (surrounding whitespace trimmed, blank lines
// skipped) and compares the resulting multisets:
//
//	score = 200 * common / (|a| + |b|)
type HashMetric struct {
	fs billy.Basic
}

type lineSignature struct {
	counts map[uint64]int
	total  int
}

// NewHashMetric returns a HashMetric that reads FileSignature paths from
// fs.
func NewHashMetric(fs billy.Basic) *HashMetric { return &HashMetric{fs: fs} }

// DefaultMetric is a HashMetric over the host filesystem.
func DefaultMetric() SimilarityMetric { return NewHashMetric(osfs.Default) }

func (m *HashMetric) FileSignature(path string) (Signature, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "file_signature")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "file_signature")
	}
	return m.BufferSignature(path, data)
}

func (m *HashMetric) BufferSignature(_ string, buf []byte) (Signature, error) {
	sig := &lineSignature{counts: make(map[uint64]int)}
	for _, line := range bytes.Split(buf, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		sig.counts[xxhash.Sum64(line)]++
		sig.total++
	}
	return sig, nil
}

func (m *HashMetric) Similarity(a, b Signature) (int, error) {
	sa, ok1 := a.(*lineSignature)
	sb, ok2 := b.(*lineSignature)
	if !ok1 || !ok2 {
		return 0, errs.New(pkgName, errs.CodeInvalidArgument, "similarity", "foreign signature", nil)
	}
	if sa.total+sb.total == 0 {
		return 100, nil
	}
	common := 0
	for h, n := range sa.counts {
		common += min(n, sb.counts[h])
	}
	return 200 * common / (sa.total + sb.total), nil
}

func (m *HashMetric) Free(Signature) {}
