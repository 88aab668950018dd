package worktree

import (
	"log/slog"
	"os"

	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
)

// Strategy decides what Checkout does with files that differ from the
// baseline.
type Strategy int

const (
	// StrategyNone plans the checkout and reports it through Notify and
	// the result without touching the working tree.
	StrategyNone Strategy = iota
	// StrategySafe applies the checkout only when no file modified
	// relative to the baseline would be overwritten or removed.
	StrategySafe
	// StrategyForce makes every path known to the baseline or the target
	// match the target, discarding local modifications.
	StrategyForce
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategySafe:
		return "safe"
	case StrategyForce:
		return "force"
	default:
		return "unknown"
	}
}

// NotifyFlags selects which events are passed to Notify.
type NotifyFlags uint

const (
	// NotifyConflict: a local modification blocks the checkout.
	NotifyConflict NotifyFlags = 1 << iota
	// NotifyDirty: a locally modified file the checkout leaves alone.
	NotifyDirty
	// NotifyUpdated: a file the checkout writes or removes.
	NotifyUpdated

	NotifyNone NotifyFlags = 0
	NotifyAll             = NotifyConflict | NotifyDirty | NotifyUpdated
)

// Version is one side of a path: its blob and mode. A nil *Version means
// the path is absent on that side.
type Version struct {
	ID   objects.ObjectID
	Mode objects.FileMode
}

func (v *Version) equal(o *Version) bool {
	if v == nil || o == nil {
		return v == nil && o == nil
	}
	return v.ID == o.ID && v.Mode == o.Mode
}

// NotifyFunc receives one event per path. Returning an error aborts the
// checkout before anything is written; the error surfaces as CANCELLED.
type NotifyFunc func(why NotifyFlags, path string, baseline, target, workdir *Version) error

// ProgressFunc is called after each written or removed path.
type ProgressFunc func(path string, completed, total int)

// Filter rewrites blob content on its way into the working tree.
type Filter func(path string, content []byte) ([]byte, error)

// CheckoutOptions configures Checkout. The zero value is a dry run
// against an empty baseline.
type CheckoutOptions struct {
	Strategy Strategy

	// Filters run in order on every regular file unless DisableFilters.
	Filters        []Filter
	DisableFilters bool

	// DirMode is used for created directories, 0755 when zero.
	DirMode os.FileMode
	// FileMode overrides the blob mode of regular and executable files.
	FileMode os.FileMode

	NotifyFlags NotifyFlags
	Notify      NotifyFunc
	Progress    ProgressFunc

	// Baseline is the tree the working tree is expected to match, usually
	// the tree of HEAD. Nil is the empty tree.
	Baseline *tree.Tree

	// TargetDirectory, when set, is checked out into instead of the root
	// of the filesystem.
	TargetDirectory string

	// Labels naming the three sides in conflict descriptions.
	AncestorLabel string
	OurLabel      string
	TheirLabel    string

	Logger *slog.Logger
}

func (o *CheckoutOptions) withDefaults() CheckoutOptions {
	var out CheckoutOptions
	if o != nil {
		out = *o
	}
	if out.DirMode == 0 {
		out.DirMode = 0o755
	}
	if out.AncestorLabel == "" {
		out.AncestorLabel = "baseline"
	}
	if out.OurLabel == "" {
		out.OurLabel = "working tree"
	}
	if out.TheirLabel == "" {
		out.TheirLabel = "target"
	}
	return out
}

// fileMode returns the permission bits a blob of mode m is written with.
func (o *CheckoutOptions) fileMode(m objects.FileMode) os.FileMode {
	if o.FileMode != 0 {
		return o.FileMode
	}
	return m.ToOSFileMode()
}
