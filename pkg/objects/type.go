package objects

import (
	"bytes"
	"strconv"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// ObjectType represents the type of Git object
type ObjectType string

const (
	BlobType   ObjectType = "blob"
	TreeType   ObjectType = "tree"
	CommitType ObjectType = "commit"
	TagType    ObjectType = "tag"
)

// String implements the Stringer interface
func (o ObjectType) String() string {
	return string(o)
}

// Valid reports whether o is one of the four object types.
func (o ObjectType) Valid() bool {
	switch o {
	case BlobType, TreeType, CommitType, TagType:
		return true
	}
	return false
}

// ParseObjectType converts a string to ObjectType
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(s)
	if !t.Valid() {
		return "", errs.Newf(pkgName, errs.CodeInvalidArgument, "parse_type", "unknown object type %q", s)
	}
	return t, nil
}

// RawObject is a stored object: its id, kind and payload without header.
// Data is owned by the store and must be treated as read-only.
type RawObject struct {
	ID   ObjectID
	Type ObjectType
	Data []byte
}

// Size returns the payload size.
func (o *RawObject) Size() int64 {
	return int64(len(o.Data))
}

// Encode returns `<type> <size>\0<payload>`.
func Encode(kind ObjectType, payload []byte) []byte {
	header := EncodeHeader(kind, len(payload))
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	return append(out, payload...)
}

// DecodeEnvelope splits an encoded object into kind and payload and checks
// the declared size. Malformed input is CORRUPTED.
func DecodeEnvelope(data []byte) (ObjectType, []byte, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return "", nil, errs.New(pkgName, errs.CodeCorrupted, "decode", "missing header terminator", nil)
	}

	header := data[:nul]
	sp := bytes.IndexByte(header, ' ')
	if sp < 0 {
		return "", nil, errs.New(pkgName, errs.CodeCorrupted, "decode", "missing space in header", nil)
	}

	kind := ObjectType(header[:sp])
	if !kind.Valid() {
		return "", nil, errs.Newf(pkgName, errs.CodeCorrupted, "decode", "unknown object type %q", header[:sp])
	}

	size, err := strconv.ParseInt(string(header[sp+1:]), 10, 64)
	if err != nil || size < 0 {
		return "", nil, errs.Newf(pkgName, errs.CodeCorrupted, "decode", "invalid size %q", header[sp+1:])
	}

	payload := data[nul+1:]
	if int64(len(payload)) != size {
		return "", nil, errs.Newf(pkgName, errs.CodeCorrupted, "decode",
			"size mismatch: header says %d, payload has %d", size, len(payload))
	}
	return kind, payload, nil
}
