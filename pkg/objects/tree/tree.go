package tree

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

const pkgName = "tree"

// Tree is an immutable directory snapshot read from an object store.
//
// Payload layout (no header):
//
//	100644 README.md\0<id>040000 src\0<id>100755 build.sh\0<id>
//
// Entries are kept in Git order (see Compare), which is also the order the
// canonical encoding, and therefore the id, depends on.
type Tree struct {
	id      objects.ObjectID
	entries []Entry
	byName  map[string]int
}

// Parse decodes a tree payload. Malformed payloads are CORRUPTED.
func Parse(id objects.ObjectID, data []byte) (*Tree, error) {
	algo := id.Algorithm()
	if !id.IsValid() {
		algo = objects.SHA1
	}
	idSize := algo.Size()

	t := &Tree{id: id, byName: make(map[string]int)}
	for pos := 0; pos < len(data); {
		sp := bytes.IndexByte(data[pos:], ' ')
		if sp < 0 {
			return nil, corrupt(id, "missing space after mode")
		}
		mode, err := objects.ParseFileMode(string(data[pos : pos+sp]))
		if err != nil {
			return nil, errs.New(pkgName, errs.CodeCorrupted, "parse", "bad entry mode", err).WithContext("id", id.String())
		}
		pos += sp + 1

		nul := bytes.IndexByte(data[pos:], 0)
		if nul < 0 {
			return nil, corrupt(id, "missing NUL after name")
		}
		name := string(data[pos : pos+nul])
		pos += nul + 1

		if pos+idSize > len(data) {
			return nil, corrupt(id, "truncated object id")
		}
		target, err := objects.FromBytes(algo, data[pos:pos+idSize])
		if err != nil {
			return nil, corrupt(id, "bad object id")
		}
		pos += idSize

		if name == "" {
			return nil, corrupt(id, "empty entry name")
		}
		if _, dup := t.byName[name]; dup {
			return nil, corrupt(id, "duplicate entry "+name)
		}
		t.byName[name] = len(t.entries)
		t.entries = append(t.entries, Entry{Name: name, Mode: mode, ID: target})
	}
	return t, nil
}

func corrupt(id objects.ObjectID, msg string) error {
	return errs.New(pkgName, errs.CodeCorrupted, "parse", msg, nil).WithContext("id", id.String())
}

// FromRaw views a stored object as a tree.
func FromRaw(raw *objects.RawObject) (*Tree, error) {
	if raw.Type != objects.TreeType {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "from_raw",
			"object %s is a %s, not a tree", raw.ID.Short(), raw.Type)
	}
	return Parse(raw.ID, raw.Data)
}

// Lookup reads and parses a tree.
func Lookup(ctx context.Context, r objects.Reader, id objects.ObjectID) (*Tree, error) {
	raw, err := r.ReadObject(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromRaw(raw)
}

// Empty returns the tree with no entries.
func Empty(algo objects.HashAlgorithm) *Tree {
	return &Tree{id: objects.EmptyTreeID(algo), byName: map[string]int{}}
}

// ID returns the tree id.
func (t *Tree) ID() objects.ObjectID { return t.id }

// Size returns the number of entries.
func (t *Tree) Size() int { return len(t.entries) }

// Get returns the entry at index, or false when out of range.
func (t *Tree) Get(index int) (Entry, bool) {
	if index < 0 || index >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[index], true
}

// Entries returns a copy of the entries in Git order.
func (t *Tree) Entries() []Entry {
	return slices.Clone(t.entries)
}

// GetByName returns the direct child called name.
func (t *Tree) GetByName(name string) (Entry, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// GetByPath resolves a slash separated path relative to this tree, reading
// intermediate trees from r. A missing segment, or a segment that is not a
// tree where one is needed, is NOT_FOUND.
func (t *Tree) GetByPath(ctx context.Context, r objects.Reader, path string) (Entry, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return Entry{}, errs.New(pkgName, errs.CodeInvalidArgument, "get_by_path", "empty path", nil)
	}

	current := t
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		entry, ok := current.GetByName(seg)
		if !ok {
			return Entry{}, errs.Newf(pkgName, errs.CodeNotFound, "get_by_path", "path %q does not exist", path).
				WithContext("missing", strings.Join(segments[:i+1], "/"))
		}
		if i == len(segments)-1 {
			return entry, nil
		}
		if !entry.IsTree() {
			return Entry{}, errs.Newf(pkgName, errs.CodeNotFound, "get_by_path", "path %q does not exist", path).
				WithContext("not_a_tree", strings.Join(segments[:i+1], "/"))
		}

		next, err := Lookup(ctx, r, entry.ID)
		if err != nil {
			return Entry{}, errs.Wrap(err, pkgName, "get_by_path")
		}
		current = next
	}
	return Entry{}, errs.New(pkgName, errs.CodeInternal, "get_by_path", "unreachable", nil)
}

// Serialize returns the canonical payload.
func (t *Tree) Serialize() []byte {
	return encodeEntries(t.entries)
}

func encodeEntries(entries []Entry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Mode.String())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.ID.Bytes())
	}
	return buf.Bytes()
}

func (t *Tree) String() string {
	return fmt.Sprintf("Tree{id: %s, entries: %d}", t.id.Short(), len(t.entries))
}
