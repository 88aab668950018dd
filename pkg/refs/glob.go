package refs

import (
	"regexp"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// compileGlob turns a reference glob into an anchored regexp. '*' matches
// any run of characters including '/', '?' one character, and [...] a
// class.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "glob", "empty pattern", nil)
	}
	if !strings.HasPrefix(pattern, RefsPrefix) {
		pattern = RefsPrefix + pattern
	}
	if !strings.ContainsAny(pattern, "*?[") {
		pattern = strings.TrimSuffix(pattern, "/") + "/*"
	}

	var re strings.Builder
	re.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			re.WriteString(".*")
		case '?':
			re.WriteString(".")
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "glob", "unterminated class in %q", pattern)
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			re.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		default:
			re.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	re.WriteString("$")

	compiled, err := regexp.Compile(re.String())
	if err != nil {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "glob", "bad pattern "+pattern, err)
	}
	return compiled, nil
}
