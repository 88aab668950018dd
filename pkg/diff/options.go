package diff

import (
	"log/slog"

	"github.com/gabriel-vasile/mimetype"

	"github.com/utkarsh5026/gitcore/pkg/objects/blob"
	"github.com/utkarsh5026/gitcore/pkg/pathspec"
)

// DefaultContextLines is the number of unchanged lines around a change.
const DefaultContextLines = 3

// Options controls Compute and the hunks it produces. A nil *Options
// means DefaultOptions().
type Options struct {
	// ContextLines around each change; 0 is valid (like -U0).
	ContextLines int
	// InterhunkLines merges hunks separated by at most this many unchanged
	// lines beyond the shared context.
	InterhunkLines int

	// DetectBinaryBySniffing classifies content by MIME type in addition
	// to the NUL byte check.
	DetectBinaryBySniffing bool
	// ForceText treats every file as text.
	ForceText bool

	// Include and Exclude are gitignore-style patterns. A path is kept
	// when it matches Include (or Include is empty) and does not match
	// Exclude.
	Include []string
	Exclude []string

	IncludeUnmodified bool
	IgnoreWhitespace  bool

	Logger *slog.Logger
}

// DefaultOptions returns the options Compute uses when given nil.
func DefaultOptions() *Options {
	return &Options{ContextLines: DefaultContextLines}
}

func (o *Options) withDefaults() Options {
	if o == nil {
		return *DefaultOptions()
	}
	c := *o
	c.ContextLines = max(c.ContextLines, 0)
	c.InterhunkLines = max(c.InterhunkLines, 0)
	return c
}

func (o Options) filter() (func(string) bool, error) {
	include, err := pathspec.New(o.Include...)
	if err != nil {
		return nil, err
	}
	exclude, err := pathspec.New(o.Exclude...)
	if err != nil {
		return nil, err
	}
	return func(p string) bool {
		if include.Len() > 0 && !include.Match(p, false) {
			return false
		}
		return !exclude.Match(p, false)
	}, nil
}

// isBinary decides how content is diffed.
func (o Options) isBinary(data []byte) bool {
	if o.ForceText {
		return false
	}
	if blob.IsBinary(data) {
		return true
	}
	if !o.DetectBinaryBySniffing || len(data) == 0 {
		return false
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return false
		}
	}
	return true
}
