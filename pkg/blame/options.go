package blame

import (
	"context"
	"log/slog"

	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/refs"
)

// Flags select optional behaviour. They can be combined.
type Flags uint32

const (
	// TrackCopiesSameFile finds lines moved within the file.
	TrackCopiesSameFile Flags = 1 << iota
	// TrackCopiesSameCommitMoves finds lines moved from other files
	// changed by the same commit.
	TrackCopiesSameCommitMoves
	// TrackCopiesSameCommitCopies finds lines copied from any file of the
	// parent when the blamed file is created.
	TrackCopiesSameCommitCopies
	// TrackCopiesAnyCommitCopies finds lines copied from any file of the
	// parent at every commit.
	TrackCopiesAnyCommitCopies
	// FirstParent follows only the first parent of merges.
	FirstParent
	// IgnoreWhitespace treats lines differing only in whitespace as equal.
	IgnoreWhitespace
)

const trackCopies = TrackCopiesSameFile | TrackCopiesSameCommitMoves |
	TrackCopiesSameCommitCopies | TrackCopiesAnyCommitCopies

// Has reports whether every bit of flag is set.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// DefaultMinMatchCharacters is the shortest run of characters that counts
// as a moved or copied block.
const DefaultMinMatchCharacters = 20

// ProgressFunc is called before each commit is examined. A non-nil error
// stops the blame with CANCELLED.
type ProgressFunc func(examined int, c *commit.Commit) error

// Options controls Blame. A nil *Options blames the whole file at HEAD.
type Options struct {
	// NewestCommit is where the blame starts; zero means HEAD.
	NewestCommit objects.ObjectID
	// OldestCommit stops the walk: lines reaching it are attributed to it
	// as boundary lines. Zero walks to the root.
	OldestCommit objects.ObjectID

	// MinLine and MaxLine (1-based, inclusive) restrict the blamed range.
	// Zero means the first and last line.
	MinLine int
	MaxLine int

	MinMatchCharacters int
	Flags              Flags
	Progress           ProgressFunc
	Logger             *slog.Logger

	// RenameLimit bounds rename following per commit, like diff.renamelimit.
	// Zero selects diff.DefaultRenameLimit.
	RenameLimit int
}

func (o *Options) withDefaults() Options {
	var c Options
	if o != nil {
		c = *o
	}
	if c.MinMatchCharacters <= 0 {
		c.MinMatchCharacters = DefaultMinMatchCharacters
	}
	if c.RenameLimit <= 0 {
		c.RenameLimit = diff.DefaultRenameLimit
	}
	return c
}

// Repository is what Blame reads history from.
type Repository interface {
	objects.Reader
	// HeadID resolves HEAD to a commit id.
	HeadID(ctx context.Context) (objects.ObjectID, error)
}

type stores struct {
	objects.Reader
	refs *refs.Store
}

func (s stores) HeadID(ctx context.Context) (objects.ObjectID, error) {
	return s.refs.ResolveID(ctx, refs.HEAD)
}

// FromStores combines an object reader with a reference store.
func FromStores(r objects.Reader, rs *refs.Store) Repository {
	return stores{Reader: r, refs: rs}
}
