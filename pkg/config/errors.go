package config

import errs "github.com/utkarsh5026/gitcore/pkg/common/err"

const pkgName = "config"

// Sentinels for errors.Is. Matching is by code, so any config error with the
// same code matches.
var (
	// ErrNotFound means no level sets the key.
	ErrNotFound = errs.New(pkgName, errs.CodeNotFound, "", "configuration key not found", nil)

	// ErrInvalidKey means a key is not section[.subsection].name.
	ErrInvalidKey = errs.New(pkgName, errs.CodeInvalidArgument, "", "invalid configuration key", nil)

	// ErrReadOnly means a write targeted a level without a file.
	ErrReadOnly = errs.New(pkgName, errs.CodeUnsupported, "", "configuration level is read-only", nil)
)

func invalidValue(op string, k Key, value string, cause error) *errs.Error {
	return errs.New(pkgName, errs.CodeInvalidArgument, op, "invalid value", cause).
		WithContext("key", k.String()).
		WithContext("value", value)
}
