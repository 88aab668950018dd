package refs

import (
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// Well known names and namespaces.
const (
	HEAD       = "HEAD"
	RefsPrefix = "refs/"

	HeadsPrefix   = "refs/heads/"
	TagsPrefix    = "refs/tags/"
	RemotesPrefix = "refs/remotes/"

	// SymbolicPrefix starts the content of a symbolic ref file.
	SymbolicPrefix = "ref: "
	lockSuffix     = ".lock"
)

// ValidateName checks name against the rules of git check-ref-format:
//
//   - components are separated by '/', none may be empty, start with '.'
//     or end with ".lock"
//   - no "..", no "@{", no control characters, space, ~ ^ : ? * [ or \
//   - the name must not end with '/' or '.', and must not be "@"
//   - one-level names are only accepted in all caps (HEAD, FETCH_HEAD)
//
// Invalid names are INVALID_ARGUMENT.
func ValidateName(name string) error {
	if reason := invalidReason(name); reason != "" {
		return errs.Newf(pkgName, errs.CodeInvalidArgument, "validate_name", "invalid reference name %q: %s", name, reason)
	}
	return nil
}

// IsValidName is ValidateName as a predicate.
func IsValidName(name string) bool {
	return invalidReason(name) == ""
}

func invalidReason(name string) string {
	switch {
	case name == "":
		return "empty"
	case name == "@":
		return "is '@'"
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return "leading or trailing slash"
	case strings.HasSuffix(name, "."):
		return "trailing dot"
	case strings.Contains(name, ".."):
		return "contains '..'"
	case strings.Contains(name, "@{"):
		return "contains '@{'"
	case strings.Contains(name, "//"):
		return "empty component"
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "contains a control character"
		}
		if strings.ContainsRune(" ~^:?*[\\", r) {
			return "contains '" + string(r) + "'"
		}
	}

	for _, comp := range strings.Split(name, "/") {
		if strings.HasPrefix(comp, ".") {
			return "component starts with '.'"
		}
		if strings.HasSuffix(comp, lockSuffix) {
			return "component ends with .lock"
		}
	}

	if !strings.Contains(name, "/") && !isOneLevel(name) {
		return "one-level names must be all caps"
	}
	return ""
}

func isOneLevel(name string) bool {
	for _, r := range name {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}

// BranchName returns refs/heads/<name> after validating it.
func BranchName(name string) (string, error) {
	return prefixed(HeadsPrefix, name)
}

// TagName returns refs/tags/<name> after validating it.
func TagName(name string) (string, error) {
	return prefixed(TagsPrefix, name)
}

// RemoteName returns refs/remotes/<remote>/<branch> after validating it.
func RemoteName(remote, branch string) (string, error) {
	if remote == "" || branch == "" {
		return "", errs.New(pkgName, errs.CodeInvalidArgument, "remote_name", "remote and branch must be set", nil)
	}
	return prefixed(RemotesPrefix, remote+"/"+branch)
}

func prefixed(prefix, name string) (string, error) {
	if name == "" {
		return "", errs.Newf(pkgName, errs.CodeInvalidArgument, "validate_name", "empty name under %s", prefix)
	}
	full := prefix + name
	if err := ValidateName(full); err != nil {
		return "", err
	}
	return full, nil
}

func IsBranch(name string) bool { return strings.HasPrefix(name, HeadsPrefix) }
func IsTag(name string) bool    { return strings.HasPrefix(name, TagsPrefix) }
func IsRemote(name string) bool { return strings.HasPrefix(name, RemotesPrefix) }

// ShortName strips the well known namespace:
//
//	refs/heads/main          -> main
//	refs/tags/v1.0.0         -> v1.0.0
//	refs/remotes/origin/main -> origin/main
//	HEAD                     -> HEAD
func ShortName(name string) string {
	for _, prefix := range []string{HeadsPrefix, TagsPrefix, RemotesPrefix, RefsPrefix} {
		if short, ok := strings.CutPrefix(name, prefix); ok {
			return short
		}
	}
	return name
}

// DWIMCandidates lists the full names a short name may refer to, in the
// order Git tries them.
func DWIMCandidates(short string) []string {
	return []string{
		short,
		RefsPrefix + short,
		TagsPrefix + short,
		HeadsPrefix + short,
		RemotesPrefix + short,
		RemotesPrefix + short + "/" + HEAD,
	}
}
