package tree

import (
	"context"
	"slices"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// Builder stages entries for a new tree on top of an optional base tree.
// A Builder is not safe for concurrent use; one goroutine should own it
// until Write returns.
type Builder struct {
	w       objects.Writer
	entries map[string]Entry
}

// NewBuilder returns a builder seeded with the entries of base (nil for an
// empty tree).
func NewBuilder(w objects.Writer, base *Tree) *Builder {
	b := &Builder{w: w, entries: make(map[string]Entry)}
	if base != nil {
		for _, e := range base.entries {
			b.entries[e.Name] = e
		}
	}
	return b
}

// Insert adds or replaces the entry called name. Names containing a path
// separator, invalid modes and ids from another hash algorithm are
// INVALID_ARGUMENT.
func (b *Builder) Insert(name string, id objects.ObjectID, mode objects.FileMode) (Entry, error) {
	e := Entry{Name: name, Mode: mode, ID: id}
	if err := e.validate(b.w.HashAlgorithm()); err != nil {
		return Entry{}, err
	}
	b.entries[name] = e
	return e, nil
}

// Remove deletes the entry called name. Removing an entry that is not
// staged is NOT_FOUND.
func (b *Builder) Remove(name string) error {
	if _, ok := b.entries[name]; !ok {
		return errs.Newf(pkgName, errs.CodeNotFound, "remove", "no entry named %q", name)
	}
	delete(b.entries, name)
	return nil
}

// Get returns the staged entry called name.
func (b *Builder) Get(name string) (Entry, bool) {
	e, ok := b.entries[name]
	return e, ok
}

// Len returns the number of staged entries.
func (b *Builder) Len() int { return len(b.entries) }

// Clear removes every staged entry.
func (b *Builder) Clear() {
	clear(b.entries)
}

// Filter removes every entry for which drop returns true.
func (b *Builder) Filter(drop func(Entry) bool) {
	for name, e := range b.entries {
		if drop(e) {
			delete(b.entries, name)
		}
	}
}

// Entries returns the staged entries in canonical order.
func (b *Builder) Entries() []Entry {
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, Compare)
	return out
}

// Write encodes the staged entries in canonical order, stores the tree and
// returns its id. The builder keeps its entries and may be written again.
func (b *Builder) Write(ctx context.Context) (objects.ObjectID, error) {
	id, err := b.w.WriteObject(ctx, objects.TreeType, encodeEntries(b.Entries()))
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "write")
	}
	return id, nil
}
