package err

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error is the error type returned by every package in this module.
//
// Package and Op say where the failure happened, Code says what kind of
// failure it is. Callers branch on Code through the Is* helpers below or
// through errors.Is against a package sentinel carrying the same code.
type Error struct {
	// Package is the originating package ("store", "refs", "diff", ...).
	Package string

	// Code is one of the Code* constants.
	Code string

	// Op is the operation that failed ("read_object", "resolve", ...).
	Op string

	// Message is a short human readable description.
	Message string

	// Err is the wrapped cause, nil for leaf errors.
	Err error

	// Context holds optional structured fields, allocated on first use.
	Context map[string]any
}

// Error formats as [package][code]: op: message: wrapped
func (e *Error) Error() string {
	var parts []string

	var prefix strings.Builder
	if e.Package != "" {
		prefix.WriteString("[")
		prefix.WriteString(e.Package)
		prefix.WriteString("]")
	}
	if e.Code != "" {
		prefix.WriteString("[")
		prefix.WriteString(e.Code)
		prefix.WriteString("]")
	}
	if prefix.Len() > 0 {
		parts = append(parts, prefix.String())
	}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, ": ")
	if e.Err != nil {
		if result != "" {
			result += ": " + e.Err.Error()
		} else {
			result = e.Err.Error()
		}
	}
	return result
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two errors with the same non-empty code, so a package sentinel
// such as store.ErrNotFound matches any not-found error from any package.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext attaches a key/value pair and returns the receiver.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetContext returns a context value or nil.
func (e *Error) GetContext(key string) any {
	if e.Context == nil {
		return nil
	}
	return e.Context[key]
}

// New creates an error.
func New(pkg, code, op, message string, err error) *Error {
	return &Error{
		Package: pkg,
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Newf creates an error with a formatted message and no cause.
func Newf(pkg, code, op, format string, args ...any) *Error {
	return New(pkg, code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap adds package and operation context to err, keeping the code of the
// innermost Error so that kind checks still work after wrapping.
// Returns nil if err is nil.
func Wrap(err error, pkg, op string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Package: pkg,
		Code:    GetCode(err),
		Op:      op,
		Err:     err,
	}
}

// WrapWithCode wraps err under an explicit code. Returns nil if err is nil.
func WrapWithCode(err error, pkg, code, op string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Package: pkg,
		Code:    code,
		Op:      op,
		Err:     err,
	}
}

// Error kinds.
const (
	// CodeNotFound: object, reference, tree entry or config key does not exist.
	CodeNotFound = "NOT_FOUND"

	// CodeInvalidArgument: malformed id, empty required string, out of range value.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeCorrupted: stored content failed verification or is malformed.
	CodeCorrupted = "CORRUPTED"

	// CodeAlreadyExists: creating something that exists without force.
	CodeAlreadyExists = "ALREADY_EXISTS"

	// CodeConflict: state changed underneath the caller or two inputs disagree.
	CodeConflict = "CONFLICT"

	// CodeStorage: underlying I/O failure.
	CodeStorage = "STORAGE"

	// CodeCancelled: the context was cancelled or a callback asked to stop.
	CodeCancelled = "CANCELLED"

	// CodeUnsupported: capability not available in this build or configuration.
	CodeUnsupported = "UNSUPPORTED"

	// CodeInternal: a bug.
	CodeInternal = "INTERNAL"
)

// FromContext converts a context error into a CANCELLED error. Returns nil
// when cerr is nil.
func FromContext(pkg, op string, cerr error) error {
	if cerr == nil {
		return nil
	}
	if IsCode(cerr, CodeCancelled) {
		return cerr
	}
	return New(pkg, CodeCancelled, op, "operation cancelled", cerr)
}

// CheckContext returns a CANCELLED error once ctx is done.
func CheckContext(ctx context.Context, pkg, op string) error {
	select {
	case <-ctx.Done():
		return FromContext(pkg, op, ctx.Err())
	default:
		return nil
	}
}

// IsCode reports whether any Error in err's chain carries code.
func IsCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// GetCode returns the outermost non-empty code in err's chain.
func GetCode(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Code != "" {
			return e.Code
		}
		err = e.Err
	}
	return ""
}

// GetPackage returns the package of the outermost Error.
func GetPackage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Package
	}
	return ""
}

// GetOp returns the operation of the outermost Error.
func GetOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

func IsNotFound(err error) bool        { return IsCode(err, CodeNotFound) }
func IsInvalidArgument(err error) bool { return IsCode(err, CodeInvalidArgument) }
func IsCorrupted(err error) bool       { return IsCode(err, CodeCorrupted) }
func IsStorage(err error) bool         { return IsCode(err, CodeStorage) }
func IsUnsupported(err error) bool     { return IsCode(err, CodeUnsupported) }
func IsAlreadyExists(err error) bool   { return IsCode(err, CodeAlreadyExists) }

// IsConflict is true for both CONFLICT and ALREADY_EXISTS.
func IsConflict(err error) bool {
	return IsCode(err, CodeConflict) || IsCode(err, CodeAlreadyExists)
}

// IsCancelled is true for CANCELLED errors and for bare context errors.
func IsCancelled(err error) bool {
	return IsCode(err, CodeCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
