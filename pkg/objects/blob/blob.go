package blob

import (
	"bytes"
	"context"
	"fmt"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

const pkgName = "blob"

// binarySniffLen is how much of a blob is inspected for NUL bytes.
const binarySniffLen = 8000

// Blob is a file's content. The data slice is shared with the store and
// must not be modified.
type Blob struct {
	id   objects.ObjectID
	data []byte
}

// New wraps data in a blob whose id is computed with algo.
func New(algo objects.HashAlgorithm, data []byte) *Blob {
	return &Blob{
		id:   objects.ComputeID(algo, objects.BlobType, data),
		data: data,
	}
}

// FromRaw views a stored object as a blob.
func FromRaw(raw *objects.RawObject) (*Blob, error) {
	if raw.Type != objects.BlobType {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "from_raw",
			"object %s is a %s, not a blob", raw.ID.Short(), raw.Type)
	}
	return &Blob{id: raw.ID, data: raw.Data}, nil
}

// Lookup reads a blob from r.
func Lookup(ctx context.Context, r objects.Reader, id objects.ObjectID) (*Blob, error) {
	raw, err := r.ReadObject(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromRaw(raw)
}

// Create stores data as a blob.
func Create(ctx context.Context, w objects.Writer, data []byte) (objects.ObjectID, error) {
	return w.WriteObject(ctx, objects.BlobType, data)
}

// ID returns the blob id.
func (b *Blob) ID() objects.ObjectID { return b.id }

// Content returns the raw bytes.
func (b *Blob) Content() []byte { return b.data }

// Size returns the content length.
func (b *Blob) Size() int64 { return int64(len(b.data)) }

// IsBinary reports whether the first 8000 bytes contain a NUL.
func (b *Blob) IsBinary() bool {
	return IsBinary(b.data)
}

// IsBinary applies Git's heuristic to arbitrary content.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func (b *Blob) String() string {
	return fmt.Sprintf("Blob{size: %d, id: %s}", len(b.data), b.id.Short())
}
