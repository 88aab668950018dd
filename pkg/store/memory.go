package store

import (
	"context"
	"sync"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// MemoryStore keeps encoded objects in a map. Reads verify the stored bytes
// exactly like LooseStore, which makes it useful for corruption tests.
type MemoryStore struct {
	mu      sync.RWMutex
	algo    objects.HashAlgorithm
	objects map[objects.ObjectID][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(algo objects.HashAlgorithm) *MemoryStore {
	return &MemoryStore{
		algo:    algo,
		objects: make(map[objects.ObjectID][]byte),
	}
}

// HashAlgorithm returns the algorithm ids are computed with.
func (s *MemoryStore) HashAlgorithm() objects.HashAlgorithm { return s.algo }

// WriteObject stores payload under its computed id. Writing an object that
// is already present is a no-op returning the same id.
func (s *MemoryStore) WriteObject(ctx context.Context, kind objects.ObjectType, payload []byte) (objects.ObjectID, error) {
	if err := errs.CheckContext(ctx, pkgName, "write_object"); err != nil {
		return objects.ObjectID{}, err
	}
	if !kind.Valid() {
		return objects.ObjectID{}, errs.Newf(pkgName, errs.CodeInvalidArgument, "write_object", "invalid object type %q", kind)
	}

	id := objects.ComputeID(s.algo, kind, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		s.objects[id] = objects.Encode(kind, payload)
	}
	return id, nil
}

// ReadObject returns the object stored under id, NOT_FOUND when absent and
// CORRUPTED when the stored bytes do not hash to id.
func (s *MemoryStore) ReadObject(ctx context.Context, id objects.ObjectID) (*objects.RawObject, error) {
	if err := errs.CheckContext(ctx, pkgName, "read_object"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	encoded, ok := s.objects[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound("read_object", id)
	}
	return verify("read_object", id, encoded)
}

// HasObject reports whether id is stored, without verifying it.
func (s *MemoryStore) HasObject(_ context.Context, id objects.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[id]
	return ok, nil
}

// ForEach calls fn for every stored id in no particular order. An error
// from fn stops the iteration and is returned unchanged.
func (s *MemoryStore) ForEach(ctx context.Context, fn func(objects.ObjectID) error) error {
	s.mu.RLock()
	ids := make([]objects.ObjectID, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := errs.CheckContext(ctx, pkgName, "for_each"); err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// SetRaw stores arbitrary encoded bytes under id without verification.
// Tests use it to plant corrupted objects.
func (s *MemoryStore) SetRaw(id objects.ObjectID, encoded []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = encoded
}
