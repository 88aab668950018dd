package store

import (
	"context"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

const pkgName = "store"

// minPrefixLength is the shortest abbreviated id ResolvePrefix accepts.
const minPrefixLength = 4

var (
	// ErrNotFound matches any missing-object error.
	ErrNotFound = errs.New(pkgName, errs.CodeNotFound, "", "object not found", nil)
	// ErrCorrupted matches any object that failed verification.
	ErrCorrupted = errs.New(pkgName, errs.CodeCorrupted, "", "object corrupted", nil)
	// ErrAmbiguous is returned when an abbreviated id matches several objects.
	ErrAmbiguous = errs.New(pkgName, errs.CodeInvalidArgument, "", "ambiguous object id prefix", nil)
)

// ObjectStore is a content-addressed object database.
//
// Implementations allow any number of concurrent readers. Writes are
// idempotent, so concurrent writers of the same object are harmless, but
// callers should still funnel writes through one goroutine.
type ObjectStore interface {
	objects.Reader
	objects.Writer

	// ForEach calls fn for every stored id, in no particular order.
	ForEach(ctx context.Context, fn func(objects.ObjectID) error) error
}

func notFound(op string, id objects.ObjectID) error {
	return errs.New(pkgName, errs.CodeNotFound, op, "object not found", nil).WithContext("id", id.String())
}

func corrupted(op string, id objects.ObjectID, msg string, cause error) *errs.Error {
	return errs.New(pkgName, errs.CodeCorrupted, op, msg, cause).WithContext("id", id.String())
}

func storageErr(op string, cause error) error {
	return errs.New(pkgName, errs.CodeStorage, op, "", cause)
}

// verify decodes an encoded object and checks that it hashes to id.
func verify(op string, id objects.ObjectID, encoded []byte) (*objects.RawObject, error) {
	kind, payload, err := objects.DecodeEnvelope(encoded)
	if err != nil {
		return nil, corrupted(op, id, "malformed object", err)
	}
	if got := objects.ComputeID(id.Algorithm(), kind, payload); got != id {
		return nil, corrupted(op, id, "hash mismatch", nil).WithContext("actual", got.String())
	}
	return &objects.RawObject{ID: id, Type: kind, Data: payload}, nil
}

// ResolvePrefix expands an abbreviated hex id into the unique stored id it
// names. Fewer than four characters or a non-hex prefix is INVALID_ARGUMENT,
// no match is NOT_FOUND and several matches is ErrAmbiguous.
func ResolvePrefix(ctx context.Context, s ObjectStore, prefix string) (objects.ObjectID, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < minPrefixLength || !objects.IsHex(prefix) {
		return objects.ObjectID{}, errs.Newf(pkgName, errs.CodeInvalidArgument, "resolve_prefix",
			"invalid abbreviated id %q", prefix)
	}
	if len(prefix) == s.HashAlgorithm().HexSize() {
		id, err := objects.ParseObjectID(prefix)
		if err != nil {
			return objects.ObjectID{}, err
		}
		ok, err := s.HasObject(ctx, id)
		if err != nil {
			return objects.ObjectID{}, err
		}
		if !ok {
			return objects.ObjectID{}, notFound("resolve_prefix", id)
		}
		return id, nil
	}

	var (
		match objects.ObjectID
		found int
	)
	err := s.ForEach(ctx, func(id objects.ObjectID) error {
		if id.HasPrefix(prefix) {
			match = id
			found++
		}
		return nil
	})
	if err != nil {
		return objects.ObjectID{}, err
	}

	switch found {
	case 0:
		return objects.ObjectID{}, errs.Newf(pkgName, errs.CodeNotFound, "resolve_prefix", "no object matches %q", prefix)
	case 1:
		return match, nil
	default:
		return objects.ObjectID{}, errs.Wrap(ErrAmbiguous, pkgName, "resolve_prefix")
	}
}
