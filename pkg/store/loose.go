package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/klauspost/compress/zlib"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// LooseStore keeps every object in its own zlib-deflated file, laid out the
// way Git lays out loose objects:
//
//	objects/
//	├─ ab/
//	│  └─ cdef1234...   (remaining hex characters of the id)
//	└─ ...
//
// Objects are written to a temporary file first and renamed into place, so
// a failed write never leaves a truncated object behind.
type LooseStore struct {
	fs     billy.Filesystem
	algo   objects.HashAlgorithm
	level  int
	logger *slog.Logger
}

// LooseOption configures a LooseStore.
type LooseOption func(*LooseStore)

// WithCompressionLevel sets the zlib level (default zlib.DefaultCompression).
func WithCompressionLevel(level int) LooseOption {
	return func(s *LooseStore) { s.level = level }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) LooseOption {
	return func(s *LooseStore) { s.logger = l }
}

// NewLooseStore returns a store rooted at fs, which should be the objects
// directory itself (e.g. a chroot of .git/objects).
func NewLooseStore(fs billy.Filesystem, algo objects.HashAlgorithm, opts ...LooseOption) *LooseStore {
	s := &LooseStore{
		fs:    fs,
		algo:  algo,
		level: zlib.DefaultCompression,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.Component(s.logger, "store")
	return s
}

// Initialize creates the info and pack directories Git expects.
func (s *LooseStore) Initialize() error {
	for _, dir := range []string{"info", "pack"} {
		if err := fileops.EnsureDir(s.fs, dir); err != nil {
			return storageErr("initialize", err)
		}
	}
	return nil
}

// HashAlgorithm returns the id algorithm of this store.
func (s *LooseStore) HashAlgorithm() objects.HashAlgorithm { return s.algo }

func (s *LooseStore) objectPath(id objects.ObjectID) string {
	hex := id.String()
	return path.Join(hex[:2], hex[2:])
}

// WriteObject stores payload and returns its id. Existing objects are not
// rewritten.
func (s *LooseStore) WriteObject(ctx context.Context, kind objects.ObjectType, payload []byte) (objects.ObjectID, error) {
	if err := errs.CheckContext(ctx, pkgName, "write_object"); err != nil {
		return objects.ObjectID{}, err
	}
	if !kind.Valid() {
		return objects.ObjectID{}, errs.Newf(pkgName, errs.CodeInvalidArgument, "write_object", "invalid object type %q", kind)
	}

	id := objects.ComputeID(s.algo, kind, payload)
	name := s.objectPath(id)

	exists, err := fileops.Exists(s.fs, name)
	if err != nil {
		return objects.ObjectID{}, storageErr("write_object", err)
	}
	if exists {
		return id, nil
	}

	compressed, err := s.compress(objects.Encode(kind, payload))
	if err != nil {
		return objects.ObjectID{}, errs.New(pkgName, errs.CodeInternal, "write_object", "compress", err)
	}

	if err := fileops.AtomicWrite(s.fs, name, compressed, 0o444); err != nil {
		return objects.ObjectID{}, storageErr("write_object", err)
	}

	s.logger.Debug("object written", "id", id.Short(), "type", kind, "size", len(payload))
	return id, nil
}

// ReadObject reads, inflates and verifies an object.
func (s *LooseStore) ReadObject(ctx context.Context, id objects.ObjectID) (*objects.RawObject, error) {
	if err := errs.CheckContext(ctx, pkgName, "read_object"); err != nil {
		return nil, err
	}
	if id.Algorithm() != s.algo {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "read_object",
			"id %q does not use %s", id.String(), s.algo)
	}

	f, err := s.fs.Open(s.objectPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound("read_object", id)
	}
	if err != nil {
		return nil, storageErr("read_object", err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, corrupted("read_object", id, "invalid zlib stream", err)
	}
	defer zr.Close()

	encoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, corrupted("read_object", id, "inflate failed", err)
	}
	return verify("read_object", id, encoded)
}

// HasObject reports whether the object file exists.
func (s *LooseStore) HasObject(ctx context.Context, id objects.ObjectID) (bool, error) {
	if id.Algorithm() != s.algo {
		return false, nil
	}
	ok, err := fileops.Exists(s.fs, s.objectPath(id))
	if err != nil {
		return false, storageErr("has_object", err)
	}
	return ok, nil
}

// ForEach enumerates every loose object id.
func (s *LooseStore) ForEach(ctx context.Context, fn func(objects.ObjectID) error) error {
	dirs, err := s.fs.ReadDir("")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return storageErr("for_each", err)
	}

	for _, dir := range dirs {
		if !dir.IsDir() || len(dir.Name()) != 2 || !objects.IsHex(dir.Name()) {
			continue
		}
		files, err := s.fs.ReadDir(dir.Name())
		if err != nil {
			return storageErr("for_each", err)
		}
		for _, f := range files {
			id, err := objects.ParseObjectID(dir.Name() + f.Name())
			if err != nil {
				continue
			}
			if err := errs.CheckContext(ctx, pkgName, "for_each"); err != nil {
				return err
			}
			if err := fn(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *LooseStore) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, s.level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
