// Package pathspec matches repository paths against gitignore-style
// patterns. The same matcher serves .gitignore rules in the worktree and
// include/exclude filters in diffs.
package pathspec

import (
	"path"
	"regexp"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

const pkgName = "pathspec"

const (
	NegationPrefix  = '!'
	DirectorySuffix = '/'
	RootedPrefix    = '/'
	CommentPrefix   = '#'

	// IgnoreFile is the per-directory ignore file name.
	IgnoreFile = ".gitignore"
)

// Pattern is one parsed rule.
//
//	*.log           any .log file at any depth
//	build/          directories named build, and everything below them
//	/TODO           TODO at the base directory only
//	**/temp         temp at any depth
//	docs/**/*.pdf   PDFs anywhere below docs
//	!keep.log       re-include keep.log
//
// A pattern containing a slash (other than a trailing one) is anchored to
// its base directory; otherwise it is compared with the last path
// component.
type Pattern struct {
	Pattern  string // cleaned glob
	Original string
	Negation bool
	DirOnly  bool
	Anchored bool

	// Base is the directory of the file the pattern came from, "" for the
	// repository root.
	Base   string
	Source string
	Line   int

	re *regexp.Regexp
}

// ParsePattern parses one line. Blank lines and comments return nil.
func ParsePattern(line, base, source string, lineNumber int) (*Pattern, error) {
	line = trimTrailingWhitespace(line)
	if line == "" || line[0] == CommentPrefix {
		return nil, nil
	}

	p := &Pattern{Original: line, Base: strings.Trim(base, "/"), Source: source, Line: lineNumber}
	glob := line
	if glob[0] == NegationPrefix {
		p.Negation = true
		glob = glob[1:]
	} else if strings.HasPrefix(glob, `\!`) || strings.HasPrefix(glob, `\#`) {
		glob = glob[1:]
	}
	if before, ok := strings.CutSuffix(glob, string(DirectorySuffix)); ok {
		p.DirOnly = true
		glob = before
	}
	if after, ok := strings.CutPrefix(glob, string(RootedPrefix)); ok {
		p.Anchored = true
		glob = after
	}
	if strings.Contains(glob, "/") {
		p.Anchored = true
	}
	if glob == "" {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "parse", "empty pattern %q", line)
	}
	p.Pattern = glob

	re, err := regexp.Compile("^" + globToRegex(glob) + "$")
	if err != nil {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "parse", "invalid pattern "+line, err)
	}
	p.re = re
	return p, nil
}

// MustParse is ParsePattern for patterns known to be valid.
func MustParse(line string) *Pattern {
	p, err := ParsePattern(line, "", "", 0)
	if err != nil || p == nil {
		panic("pathspec: invalid pattern " + line)
	}
	return p
}

// Match reports whether p applies to name, a slash separated path relative
// to the repository root. Parent directories are not consulted; see
// Matcher.Match.
func (p *Pattern) Match(name string, isDir bool) bool {
	if p.DirOnly && !isDir {
		return false
	}
	rel := name
	if p.Base != "" {
		after, ok := strings.CutPrefix(name, p.Base+"/")
		if !ok {
			return false
		}
		rel = after
	}
	if p.Anchored {
		return p.re.MatchString(rel)
	}
	return p.re.MatchString(path.Base(rel))
}

func (p *Pattern) String() string { return p.Original }

// globToRegex translates gitignore glob syntax. "**" is only special as a
// whole component; elsewhere it behaves like "*".
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch {
		case c == '*' && strings.HasPrefix(glob[i:], "**") && (i == 0 || glob[i-1] == '/'):
			switch rest := glob[i+2:]; {
			case rest == "":
				b.WriteString(".*")
				i++
			case rest[0] == '/':
				b.WriteString("(?:.*/)?")
				i += 2
			default:
				b.WriteString("[^/]*")
				i++
			}
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		case c == '[':
			class, n := bracket(glob[i:])
			if n == 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(class)
			i += n - 1
		case c == '\\' && i+1 < len(glob):
			i++
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// bracket converts a character class at the start of s and returns the
// number of glob bytes consumed, or 0 when the class is unterminated.
func bracket(s string) (string, int) {
	i := 1
	var b strings.Builder
	b.WriteByte('[')
	if i < len(s) && (s[i] == '!' || s[i] == '^') {
		b.WriteByte('^')
		i++
	}
	// a leading ] is literal
	if i < len(s) && s[i] == ']' {
		b.WriteString(`\]`)
		i++
	}
	for ; i < len(s); i++ {
		switch s[i] {
		case ']':
			b.WriteByte(']')
			return b.String(), i + 1
		case '[':
			// [:alpha:] and friends
			if end := strings.Index(s[i:], ":]"); strings.HasPrefix(s[i:], "[:") && end > 0 {
				b.WriteString(s[i : i+end+2])
				i += end + 1
				continue
			}
			b.WriteString(`\[`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0
}

// trimTrailingWhitespace drops trailing blanks unless the last one is
// escaped with a backslash.
func trimTrailingWhitespace(line string) string {
	line = strings.TrimSuffix(line, "\r")
	trimmed := strings.TrimRight(line, " \t")
	if trimmed != line && strings.HasSuffix(trimmed, `\`) {
		backslashes := len(trimmed) - len(strings.TrimRight(trimmed, `\`))
		if backslashes%2 == 1 {
			return trimmed + line[len(trimmed):len(trimmed)+1]
		}
	}
	return trimmed
}
