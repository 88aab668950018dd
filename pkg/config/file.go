package config

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/ini.v1"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
)

var (
	loadOptions = ini.LoadOptions{
		AllowShadows:               true,
		AllowBooleanKeys:           true,
		AllowDuplicateShadowValues: true,
		SpaceBeforeInlineComment:   true,
		UnescapeValueDoubleQuotes:  true,
	}
	saveOptions = ini.LoadOptions{
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
	}
)

// FileStore is one git-style config file. Keys keep the order they were
// first seen in so a Save rewrites the file in a familiar shape.
type FileStore struct {
	fs    billy.Filesystem
	path  string
	level Level

	mu     sync.RWMutex
	order  []Key
	values map[Key][]string
}

// NewFileStore returns an empty store for path in fs. Call Load to read it.
func NewFileStore(fs billy.Filesystem, path string, level Level) *FileStore {
	return &FileStore{fs: fs, path: path, level: level, values: make(map[Key][]string)}
}

func (s *FileStore) Path() string { return s.path }
func (s *FileStore) Level() Level { return s.level }

// Load replaces the store's contents with the file. A missing file loads
// as empty.
func (s *FileStore) Load(ctx context.Context) error {
	if err := errs.CheckContext(ctx, pkgName, "load"); err != nil {
		return err
	}
	data, ok, err := fileops.ReadIfExists(s.fs, s.path)
	if err != nil {
		return errs.New(pkgName, errs.CodeStorage, "load", "", err).WithContext("path", s.path)
	}

	order, values := []Key(nil), make(map[Key][]string)
	if ok {
		if order, values, err = parseFile(data); err != nil {
			return errs.New(pkgName, errs.GetCode(err), "load", "", err).WithContext("path", s.path)
		}
	}

	s.mu.Lock()
	s.order, s.values = order, values
	s.mu.Unlock()
	return nil
}

func parseFile(data []byte) ([]Key, map[Key][]string, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, nil, errs.New(pkgName, errs.CodeCorrupted, "parse", "", err)
	}

	var order []Key
	values := make(map[Key][]string)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return nil, nil, errs.New(pkgName, errs.CodeCorrupted, "parse", "variable outside of any section", nil)
			}
			continue
		}
		section, subsection, ok := parseHeader(sec.Name())
		if !ok {
			return nil, nil, errs.New(pkgName, errs.CodeCorrupted, "parse", "bad section header", nil).
				WithContext("section", sec.Name())
		}
		for _, ik := range sec.Keys() {
			k := Key{Section: section, Subsection: subsection, Name: strings.ToLower(ik.Name())}
			if !validName(k.Name) {
				return nil, nil, errs.New(pkgName, errs.CodeCorrupted, "parse", "bad variable name", nil).
					WithContext("key", k.String())
			}
			vals := ik.ValueWithShadows()
			if len(vals) == 0 {
				vals = []string{ik.Value()}
			}
			if _, seen := values[k]; !seen {
				order = append(order, k)
			}
			values[k] = append(values[k], vals...)
		}
	}
	return order, values, nil
}

// Save writes the store back to its file atomically.
func (s *FileStore) Save(ctx context.Context) error {
	if err := errs.CheckContext(ctx, pkgName, "save"); err != nil {
		return err
	}
	s.mu.RLock()
	data, err := s.encode()
	s.mu.RUnlock()
	if err != nil {
		return errs.New(pkgName, errs.CodeInternal, "save", "", err).WithContext("path", s.path)
	}
	if err := fileops.AtomicWrite(s.fs, s.path, data, 0o644); err != nil {
		return errs.New(pkgName, errs.CodeStorage, "save", "", err).WithContext("path", s.path)
	}
	return nil
}

func (s *FileStore) encode() ([]byte, error) {
	f := ini.Empty(saveOptions)
	for _, k := range s.order {
		sec, err := f.NewSection(k.header())
		if err != nil {
			return nil, err
		}
		vals := s.values[k]
		ik, err := sec.NewKey(k.Name, vals[0])
		if err != nil {
			return nil, err
		}
		for _, v := range vals[1:] {
			if err := ik.AddShadow(v); err != nil {
				return nil, err
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteToIndent(&buf, "\t"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Get returns every value of k in file order.
func (s *FileStore) Get(k Key) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.values[k])
}

// Set replaces all values of k with value.
func (s *FileStore) Set(k Key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[k]; !ok {
		s.order = append(s.order, k)
	}
	s.values[k] = []string{value}
}

// Add appends value to k, keeping the values already there.
func (s *FileStore) Add(k Key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[k]; !ok {
		s.order = append(s.order, k)
	}
	s.values[k] = append(s.values[k], value)
}

// Unset removes k and reports whether it was present.
func (s *FileStore) Unset(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[k]; !ok {
		return false
	}
	delete(s.values, k)
	s.order = slices.DeleteFunc(s.order, func(o Key) bool { return o == k })
	return true
}

// Keys lists the keys in file order.
func (s *FileStore) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}
