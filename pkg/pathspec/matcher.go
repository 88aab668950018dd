package pathspec

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
)

// Matcher is an ordered list of patterns where the last matching pattern
// decides. A path below a matched directory matches too, so a negation
// cannot re-include a file whose parent directory is excluded.
//
// A nil *Matcher matches nothing.
type Matcher struct {
	patterns []*Pattern
}

// New parses patterns rooted at the repository root.
func New(patterns ...string) (*Matcher, error) {
	m := &Matcher{}
	for i, line := range patterns {
		p, err := ParsePattern(line, "", "", i+1)
		if err != nil {
			return nil, err
		}
		m.Add(p)
	}
	return m, nil
}

// Add appends p; nil is ignored.
func (m *Matcher) Add(p *Pattern) {
	if p != nil {
		m.patterns = append(m.patterns, p)
	}
}

// AddText parses an ignore file whose directory is base.
func (m *Matcher) AddText(text, base, source string) error {
	sc := bufio.NewScanner(strings.NewReader(text))
	for n := 1; sc.Scan(); n++ {
		p, err := ParsePattern(sc.Text(), base, source, n)
		if err != nil {
			return err
		}
		m.Add(p)
	}
	return nil
}

func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Patterns returns the patterns in evaluation order.
func (m *Matcher) Patterns() []*Pattern {
	if m == nil {
		return nil
	}
	return append([]*Pattern(nil), m.patterns...)
}

// Match reports whether name (slash separated, relative to the root) is
// selected by the patterns, either directly or through one of its parent
// directories.
func (m *Matcher) Match(name string, isDir bool) bool {
	if m.Len() == 0 {
		return false
	}
	name = strings.Trim(name, "/")
	for i := 0; i < len(name); i++ {
		if name[i] == '/' && m.matchOne(name[:i], true) {
			return true
		}
	}
	return m.matchOne(name, isDir)
}

func (m *Matcher) matchOne(name string, isDir bool) bool {
	for i := len(m.patterns) - 1; i >= 0; i-- {
		if m.patterns[i].Match(name, isDir) {
			return !m.patterns[i].Negation
		}
	}
	return false
}

// LoadWorktree collects the ignore rules of a working tree:
// .git/info/exclude followed by every .gitignore, shallower files first.
// Ignored directories are not searched for further .gitignore files.
func LoadWorktree(fs billy.Filesystem) (*Matcher, error) {
	m := &Matcher{}
	exclude := path.Join(".git", "info", "exclude")
	if data, ok, err := fileops.ReadIfExists(fs, exclude); err != nil {
		return nil, errs.WrapWithCode(err, pkgName, errs.CodeStorage, "load")
	} else if ok {
		if err := m.AddText(string(data), "", exclude); err != nil {
			return nil, err
		}
	}
	if err := m.loadDir(fs, ""); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Matcher) loadDir(fs billy.Filesystem, dir string) error {
	file := path.Join(dir, IgnoreFile)
	data, ok, err := fileops.ReadIfExists(fs, file)
	if err != nil {
		return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "load")
	}
	if ok {
		if err := m.AddText(string(data), dir, file); err != nil {
			return err
		}
	}

	infos, err := fs.ReadDir(dirOrDot(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.WrapWithCode(err, pkgName, errs.CodeStorage, "load")
	}
	for _, info := range infos {
		if !info.IsDir() || info.Name() == ".git" {
			continue
		}
		sub := path.Join(dir, info.Name())
		if m.Match(sub, true) {
			continue
		}
		if err := m.loadDir(fs, sub); err != nil {
			return err
		}
	}
	return nil
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
