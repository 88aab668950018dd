package config

import (
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// Key names a configuration variable. Section and Name are case-insensitive
// and kept lowercase; Subsection is case-sensitive and may contain dots.
type Key struct {
	Section    string
	Subsection string
	Name       string
}

// ParseKey splits "section.name" or "section.subsection.name".
func ParseKey(s string) (Key, error) {
	first := strings.IndexByte(s, '.')
	last := strings.LastIndexByte(s, '.')
	if first <= 0 || last == len(s)-1 {
		return Key{}, keyError(s, "want section.name")
	}

	k := Key{
		Section: strings.ToLower(s[:first]),
		Name:    strings.ToLower(s[last+1:]),
	}
	if first != last {
		k.Subsection = s[first+1 : last]
	}
	if !validSection(k.Section) {
		return Key{}, keyError(s, "invalid section")
	}
	if !validName(k.Name) {
		return Key{}, keyError(s, "invalid variable name")
	}
	if strings.ContainsAny(k.Subsection, "\n\x00") {
		return Key{}, keyError(s, "invalid subsection")
	}
	return k, nil
}

// MustParseKey is ParseKey for constant keys; it panics on error.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) String() string {
	if k.Subsection == "" {
		return k.Section + "." + k.Name
	}
	return k.Section + "." + k.Subsection + "." + k.Name
}

// header is the section line for k in a config file, without brackets.
func (k Key) header() string {
	if k.Subsection == "" {
		return k.Section
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return k.Section + ` "` + r.Replace(k.Subsection) + `"`
}

// parseHeader splits a section line as read from a file. Both the quoted
// form `remote "origin"` and the deprecated `branch.main` are accepted;
// the latter's subsection is case-insensitive.
func parseHeader(h string) (section, subsection string, ok bool) {
	h = strings.TrimSpace(h)
	if sec, rest, found := strings.Cut(h, " "); found {
		rest = strings.TrimSpace(rest)
		if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
			return "", "", false
		}
		sub, ok := unquote(rest[1 : len(rest)-1])
		return strings.ToLower(sec), sub, ok && validSection(strings.ToLower(sec))
	}
	if sec, sub, found := strings.Cut(h, "."); found {
		sec = strings.ToLower(sec)
		return sec, strings.ToLower(sub), validSection(sec) && sub != ""
	}
	h = strings.ToLower(h)
	return h, "", validSection(h)
}

func unquote(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i+1 == len(s) {
				return "", false
			}
			i++
			c = s[i]
		} else if c == '"' {
			return "", false
		}
		b.WriteByte(c)
	}
	return b.String(), true
}

func validSection(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isAlnum(c) && c != '-' {
			return false
		}
	}
	return true
}

func validName(s string) bool {
	if s == "" || !isLetter(rune(s[0])) {
		return false
	}
	for _, c := range s {
		if !isAlnum(c) && c != '-' {
			return false
		}
	}
	return true
}

func isLetter(c rune) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isAlnum(c rune) bool  { return isLetter(c) || c >= '0' && c <= '9' }

func keyError(s, msg string) *errs.Error {
	return errs.New(pkgName, errs.CodeInvalidArgument, "parse_key", msg, nil).WithContext("key", s)
}
