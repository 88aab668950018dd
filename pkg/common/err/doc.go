// Package err provides the structured error type shared by every package in
// the module.
//
// # Kinds
//
// Each error carries one of a small set of codes:
//
//	NOT_FOUND         object, reference, tree entry or config key is missing
//	INVALID_ARGUMENT  malformed id, empty required string, out of range value
//	CORRUPTED         stored bytes fail hash verification or cannot be parsed
//	ALREADY_EXISTS    creation without force of something that exists
//	CONFLICT          compare-and-swap failure, lock held, disagreeing inputs
//	STORAGE           I/O failure
//	CANCELLED         context cancelled or a visitor callback asked to stop
//	UNSUPPORTED       capability not available
//
// # Usage
//
// Packages declare a package name and sentinels:
//
//	const pkgName = "store"
//
//	var ErrNotFound = err.New(pkgName, err.CodeNotFound, "", "object not found", nil)
//
// and build errors at the failure site:
//
//	return err.New(pkgName, err.CodeCorrupted, "read_object", "hash mismatch", nil).
//	    WithContext("id", id.String())
//
// Callers check kinds without caring which package produced the error:
//
//	if err.IsNotFound(e) { ... }
//	if errors.Is(e, store.ErrNotFound) { ... }
//
// Wrap keeps the innermost code so kind checks survive extra layers of
// context.
package err
