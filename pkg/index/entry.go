package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// Entry is one staged file.
//
// Binary layout (version 2):
//
//	ctime sec, ctime nsec, mtime sec, mtime nsec   4 bytes each
//	dev, ino, mode, uid, gid, size                 4 bytes each
//	object id                                      20 or 32 bytes
//	flags                                          2 bytes
//	path, NUL, padding to a multiple of 8
type Entry struct {
	CreationTime     Timestamp
	ModificationTime Timestamp

	DeviceID    uint32
	Inode       uint32
	Mode        objects.FileMode
	UserID      uint32
	GroupID     uint32
	SizeInBytes uint32

	ID objects.ObjectID

	AssumeValid bool
	Stage       uint8 // 0 normal, 1-3 merge conflict sides

	// Path is slash separated and relative to the worktree root.
	Path string
}

// NewEntry returns a regular file entry for path pointing at id.
func NewEntry(path string, id objects.ObjectID) *Entry {
	return &Entry{Path: path, ID: id, Mode: objects.FileModeRegular}
}

// NewEntryFromFileInfo fills the stat data of a new entry from info.
func NewEntryFromFileInfo(path string, info os.FileInfo, id objects.ObjectID) *Entry {
	e := NewEntry(path, id)
	e.Mode = objects.FromOSFileMode(info.Mode())
	e.SizeInBytes = uint32(info.Size())
	e.ModificationTime = NewTimestamp(info.ModTime())
	// billy does not expose ctime
	e.CreationTime = e.ModificationTime
	e.DeviceID, e.Inode, e.UserID, e.GroupID = systemMetadata(info)
	return e
}

// IsModified reports whether info differs from the cached stat data in a
// way that means the content must be rehashed.
func (e *Entry) IsModified(info os.FileInfo) bool {
	if e.AssumeValid {
		return false
	}
	if e.SizeInBytes != uint32(info.Size()) {
		return true
	}
	if e.Mode != objects.FromOSFileMode(info.Mode()) {
		return true
	}
	return !e.ModificationTime.Equal(NewTimestamp(info.ModTime()))
}

// IsRacy reports whether the entry was stat'ed no earlier than the index
// file was written, at indexTime. Such a file may have changed again within
// the timestamp granularity without its stat data changing, so its content
// has to be rehashed.
func (e *Entry) IsRacy(indexTime Timestamp) bool {
	if indexTime.IsZero() || e.ModificationTime.IsZero() {
		return false
	}
	return !e.ModificationTime.Before(indexTime)
}

// Compare orders entries by path, then by stage.
func (e *Entry) Compare(other *Entry) int {
	if c := strings.Compare(e.Path, other.Path); c != 0 {
		return c
	}
	return int(e.Stage) - int(other.Stage)
}

func (e *Entry) encode(buf *bytes.Buffer) {
	fields := [...]uint32{
		e.CreationTime.Seconds,
		e.CreationTime.Nanoseconds,
		e.ModificationTime.Seconds,
		e.ModificationTime.Nanoseconds,
		e.DeviceID,
		e.Inode,
		uint32(e.Mode),
		e.UserID,
		e.GroupID,
		e.SizeInBytes,
	}
	var word [4]byte
	for _, f := range fields {
		binary.BigEndian.PutUint32(word[:], f)
		buf.Write(word[:])
	}
	buf.Write(e.ID.Bytes())

	var flags [2]byte
	binary.BigEndian.PutUint16(flags[:], uint16(NewEntryFlags(e.AssumeValid, e.Stage, len(e.Path))))
	buf.Write(flags[:])

	buf.WriteString(e.Path)
	size := fixedSize(e.ID.Algorithm().Size()) + len(e.Path)
	padded := (size + alignmentBoundary) / alignmentBoundary * alignmentBoundary
	buf.Write(make([]byte, padded-size))
}

// decodeEntry parses one entry from data and returns the bytes consumed.
func decodeEntry(data []byte, algo objects.HashAlgorithm) (*Entry, int, error) {
	idSize := algo.Size()
	fixed := fixedSize(idSize)
	if len(data) < fixed {
		return nil, 0, errs.New(pkgName, errs.CodeCorrupted, "decode_entry", "truncated entry", nil)
	}

	word := func(i int) uint32 { return binary.BigEndian.Uint32(data[i*4:]) }
	e := &Entry{
		CreationTime:     Timestamp{Seconds: word(0), Nanoseconds: word(1)},
		ModificationTime: Timestamp{Seconds: word(2), Nanoseconds: word(3)},
		DeviceID:         word(4),
		Inode:            word(5),
		Mode:             objects.FileMode(word(6)),
		UserID:           word(7),
		GroupID:          word(8),
		SizeInBytes:      word(9),
	}

	id, err := objects.FromBytes(algo, data[statSize:statSize+idSize])
	if err != nil {
		return nil, 0, errs.WrapWithCode(err, pkgName, errs.CodeCorrupted, "decode_entry")
	}
	e.ID = id

	flags := EntryFlags(binary.BigEndian.Uint16(data[statSize+idSize:]))
	if flags.Extended() {
		return nil, 0, errs.New(pkgName, errs.CodeUnsupported, "decode_entry", "extended flags require index version 3", nil)
	}
	e.AssumeValid = flags.AssumeValid()
	e.Stage = flags.Stage()

	nul := bytes.IndexByte(data[fixed:], 0)
	if nul < 0 {
		return nil, 0, errs.New(pkgName, errs.CodeCorrupted, "decode_entry", "unterminated path", nil)
	}
	e.Path = string(data[fixed : fixed+nul])

	size := fixed + nul
	padded := (size + alignmentBoundary) / alignmentBoundary * alignmentBoundary
	if padded > len(data) {
		return nil, 0, errs.New(pkgName, errs.CodeCorrupted, "decode_entry", "truncated padding", nil)
	}
	return e, padded, nil
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s %d\t%s", e.Mode, e.ID, e.Stage, e.Path)
}
