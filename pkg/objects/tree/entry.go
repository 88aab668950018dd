package tree

import (
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// Entry is one line of a tree object:
//
//	[mode] SP [name] NUL [raw object id]
//
// Entries are plain values; copies handed out by a Tree or Builder never
// alias internal state.
type Entry struct {
	Name string
	Mode objects.FileMode
	ID   objects.ObjectID
}

// IsTree reports whether the entry is a subdirectory.
func (e Entry) IsTree() bool { return e.Mode.IsTree() }

// IsBlob reports whether the entry points at file content.
func (e Entry) IsBlob() bool { return e.Mode.IsBlob() }

// Type is the object type the entry points at.
func (e Entry) Type() objects.ObjectType { return e.Mode.ObjectType() }

// sortKey is the name Git compares entries by: trees sort as if their name
// had a trailing slash, so "foo" (tree) comes after "foo.txt".
func (e Entry) sortKey() string {
	if e.IsTree() {
		return e.Name + "/"
	}
	return e.Name
}

// Compare orders entries the way Git serializes them.
func Compare(a, b Entry) int {
	return strings.Compare(a.sortKey(), b.sortKey())
}

// ValidateName checks that name can be a single tree entry name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errs.New(pkgName, errs.CodeInvalidArgument, "validate_name", "entry name is empty", nil)
	case name == "." || name == "..":
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "validate_name", "entry name %q is reserved", name)
	case strings.ContainsRune(name, '/'):
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "validate_name", "entry name %q contains a path separator", name)
	case strings.ContainsRune(name, 0):
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "validate_name", "entry name %q contains a NUL byte", name)
	}
	return nil
}

func (e Entry) validate(algo objects.HashAlgorithm) error {
	if err := ValidateName(e.Name); err != nil {
		return err
	}
	if !e.Mode.Valid() {
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "validate_entry", "invalid mode %o for %q", uint32(e.Mode), e.Name)
	}
	if !e.ID.IsValid() || e.ID.Algorithm() != algo {
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "validate_entry", "invalid object id for %q", e.Name)
	}
	return nil
}
