package objects

import "context"

// Reader gives read access to stored objects.
type Reader interface {
	// ReadObject returns the object or a NOT_FOUND / CORRUPTED error.
	ReadObject(ctx context.Context, id ObjectID) (*RawObject, error)
	// HasObject reports whether id is stored.
	HasObject(ctx context.Context, id ObjectID) (bool, error)
	// HashAlgorithm is the algorithm ids of this store use.
	HashAlgorithm() HashAlgorithm
}

// Writer stores objects.
type Writer interface {
	// WriteObject stores payload under its canonical id and returns it.
	// Writing an object that already exists is a no-op.
	WriteObject(ctx context.Context, kind ObjectType, payload []byte) (ObjectID, error)
	HashAlgorithm() HashAlgorithm
}

// ReadWriter is both.
type ReadWriter interface {
	Reader
	Writer
}
