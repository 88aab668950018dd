// Package index reads and writes the Git index (the staging area) in
// format version 2.
//
//	header   "DIRC", version, entry count (4 bytes each)
//	entries  sorted by path, then stage
//	checksum hash of everything above
//
// Extensions are skipped on read and never written.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/go-git/go-billy/v5"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

const pkgName = "index"

// Index is an in-memory index. Entries are kept sorted.
type Index struct {
	Version uint32
	algo    objects.HashAlgorithm
	entries []*Entry
}

// New returns an empty index for ids of the given algorithm.
func New(algo objects.HashAlgorithm) *Index {
	return &Index{Version: Version, algo: algo}
}

// Read loads the index at path. A missing file is an empty index.
func Read(fs billy.Filesystem, path string, algo objects.HashAlgorithm) (*Index, error) {
	data, ok, err := fileops.ReadIfExists(fs, path)
	if err != nil {
		return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "read")
	}
	if !ok {
		return New(algo), nil
	}
	idx, err := Decode(data, algo)
	if err != nil {
		return nil, errs.New(pkgName, errs.GetCode(err), "read", path, err)
	}
	return idx, nil
}

// Write stores the index at path atomically.
func (idx *Index) Write(fs billy.Filesystem, path string) error {
	if err := fileops.AtomicWrite(fs, path, idx.Encode(), 0o644); err != nil {
		return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "write")
	}
	return nil
}

// HashAlgorithm returns the algorithm of the entry ids.
func (idx *Index) HashAlgorithm() objects.HashAlgorithm { return idx.algo }

// Add inserts e, replacing any entry with the same path and stage.
func (idx *Index) Add(e *Entry) {
	i, found := slices.BinarySearchFunc(idx.entries, e, (*Entry).Compare)
	if found {
		idx.entries[i] = e
		return
	}
	idx.entries = slices.Insert(idx.entries, i, e)
}

// Remove drops every stage of path and reports whether anything was removed.
func (idx *Index) Remove(path string) bool {
	n := len(idx.entries)
	idx.entries = slices.DeleteFunc(idx.entries, func(e *Entry) bool { return e.Path == path })
	return len(idx.entries) != n
}

// Get returns the stage 0 entry for path.
func (idx *Index) Get(path string) (*Entry, bool) {
	i, found := slices.BinarySearchFunc(idx.entries, &Entry{Path: path}, (*Entry).Compare)
	if !found {
		return nil, false
	}
	return idx.entries[i], true
}

func (idx *Index) Has(path string) bool {
	_, ok := idx.Get(path)
	return ok
}

// Entries returns the entries in index order. The slice is a copy; the
// entries are shared.
func (idx *Index) Entries() []*Entry { return slices.Clone(idx.entries) }

func (idx *Index) Count() int { return len(idx.entries) }

func (idx *Index) Clear() { idx.entries = nil }

// Paths lists the distinct paths in order.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.entries))
	for _, e := range idx.entries {
		if n := len(paths); n > 0 && paths[n-1] == e.Path {
			continue
		}
		paths = append(paths, e.Path)
	}
	return paths
}

// Conflicted reports whether any entry has a non-zero stage.
func (idx *Index) Conflicted() bool {
	return slices.ContainsFunc(idx.entries, func(e *Entry) bool { return e.Stage != 0 })
}

// Encode serializes the index with its trailing checksum.
func (idx *Index) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString(Signature)
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], Version)
	buf.Write(word[:])
	binary.BigEndian.PutUint32(word[:], uint32(len(idx.entries)))
	buf.Write(word[:])

	for _, e := range idx.entries {
		e.encode(&buf)
	}

	h := objects.NewHasher(idx.algo)
	h.Write(buf.Bytes())
	return h.Sum(buf.Bytes())
}

// Decode parses an encoded index, verifying the checksum.
func Decode(data []byte, algo objects.HashAlgorithm) (*Index, error) {
	sumSize := algo.Size()
	if len(data) < headerSize+sumSize {
		return nil, corrupted("index file too small")
	}

	content, sum := data[:len(data)-sumSize], data[len(data)-sumSize:]
	h := objects.NewHasher(algo)
	h.Write(content)
	if !bytes.Equal(h.Sum(nil), sum) {
		return nil, corrupted("checksum mismatch")
	}

	if string(content[:4]) != Signature {
		return nil, corrupted(fmt.Sprintf("bad signature %q", content[:4]))
	}
	version := binary.BigEndian.Uint32(content[4:8])
	if version != Version {
		return nil, errs.Newf(pkgName, errs.CodeUnsupported, "decode", "index version %d", version)
	}
	count := binary.BigEndian.Uint32(content[8:12])

	idx := New(algo)
	idx.entries = make([]*Entry, 0, count)
	rest := content[headerSize:]
	for i := uint32(0); i < count; i++ {
		e, n, err := decodeEntry(rest, algo)
		if err != nil {
			return nil, errs.New(pkgName, errs.GetCode(err), "decode", fmt.Sprintf("entry %d", i), err)
		}
		if k := len(idx.entries); k > 0 && idx.entries[k-1].Compare(e) >= 0 {
			return nil, corrupted(fmt.Sprintf("entry %q out of order", e.Path))
		}
		idx.entries = append(idx.entries, e)
		rest = rest[n:]
	}
	// whatever remains is extension data
	return idx, nil
}

func corrupted(msg string) error {
	return errs.New(pkgName, errs.CodeCorrupted, "decode", msg, nil)
}

func (idx *Index) String() string {
	return fmt.Sprintf("Index{version: %d, entries: %d}", idx.Version, len(idx.entries))
}
