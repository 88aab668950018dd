package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sync/errgroup"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// Manager resolves keys across the configuration levels. It is safe for
// concurrent use.
type Manager struct {
	mu          sync.RWMutex
	files       map[Level]*FileStore
	commandLine map[Key][]string
	builtin     map[Key]string
	validator   Validator
}

// NewManager returns a manager holding only the builtin defaults.
func NewManager() *Manager {
	m := &Manager{
		files:       make(map[Level]*FileStore),
		commandLine: make(map[Key][]string),
		builtin:     make(map[Key]string),
	}
	m.loadBuiltinDefaults()
	return m
}

// AddFile attaches the config file at path in fs as level, replacing any
// file already attached there. The file is read by Load.
func (m *Manager) AddFile(level Level, fs billy.Filesystem, path string) (*FileStore, error) {
	if !level.CanWrite() {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "add_file", "level has no file", nil).
			WithContext("level", level.String())
	}
	s := NewFileStore(fs, path, level)
	m.mu.Lock()
	m.files[level] = s
	m.mu.Unlock()
	return s, nil
}

// File returns the store attached at level, or nil.
func (m *Manager) File(level Level) *FileStore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files[level]
}

// Load reads every attached file concurrently.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.files {
		g.Go(func() error {
			return s.Load(gctx)
		})
	}
	return g.Wait()
}

// Get returns the effective entry for key: the last value at the highest
// level that sets it. A key nobody sets is NOT_FOUND.
func (m *Manager) Get(key string) (Entry, error) {
	k, err := ParseKey(key)
	if err != nil {
		return Entry{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.getUnsafe(k)
	if !ok {
		return Entry{}, errs.New(pkgName, errs.CodeNotFound, "get", "", nil).WithContext("key", k.String())
	}
	return e, nil
}

// GetString returns the effective value of key.
func (m *Manager) GetString(key string) (string, error) {
	e, err := m.Get(key)
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// GetBool returns the effective value of key as a boolean.
func (m *Manager) GetBool(key string) (bool, error) {
	e, err := m.Get(key)
	if err != nil {
		return false, err
	}
	return e.Bool()
}

// GetInt32 returns the effective value of key as a 32-bit integer.
func (m *Manager) GetInt32(key string) (int32, error) {
	e, err := m.Get(key)
	if err != nil {
		return 0, err
	}
	return e.Int32()
}

// GetInt64 returns the effective value of key as an integer.
func (m *Manager) GetInt64(key string) (int64, error) {
	e, err := m.Get(key)
	if err != nil {
		return 0, err
	}
	return e.Int64()
}

// GetAll returns every value of key from the lowest level to the highest,
// for multi-valued keys such as remote.<name>.fetch.
func (m *Manager) GetAll(key string) ([]Entry, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allUnsafe(k), nil
}

// Set replaces key at level with value and saves the file.
func (m *Manager) Set(ctx context.Context, key, value string, level Level) error {
	return m.write(ctx, "set", key, value, level, func(s *FileStore, k Key) error {
		s.Set(k, value)
		return nil
	})
}

// Add appends value to key at level and saves the file.
func (m *Manager) Add(ctx context.Context, key, value string, level Level) error {
	return m.write(ctx, "add", key, value, level, func(s *FileStore, k Key) error {
		s.Add(k, value)
		return nil
	})
}

// Unset removes key at level and saves the file. Removing a key the file
// does not have is NOT_FOUND.
func (m *Manager) Unset(ctx context.Context, key string, level Level) error {
	return m.write(ctx, "unset", key, "", level, func(s *FileStore, k Key) error {
		if !s.Unset(k) {
			return errs.New(pkgName, errs.CodeNotFound, "unset", "", nil).WithContext("key", k.String())
		}
		return nil
	})
}

func (m *Manager) write(ctx context.Context, op, key, value string, level Level, change func(*FileStore, Key) error) error {
	k, err := ParseKey(key)
	if err != nil {
		return err
	}
	if op != "unset" {
		if err := m.validator.Validate(k, value); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.storeFor(op, level)
	if err != nil {
		return err
	}
	if err := change(s, k); err != nil {
		return err
	}
	return s.Save(ctx)
}

func (m *Manager) storeFor(op string, level Level) (*FileStore, error) {
	if !level.CanWrite() {
		return nil, errs.New(pkgName, errs.CodeUnsupported, op, "level is read-only", nil).
			WithContext("level", level.String())
	}
	s, ok := m.files[level]
	if !ok {
		return nil, errs.New(pkgName, errs.CodeNotFound, op, "no file for level", nil).
			WithContext("level", level.String())
	}
	return s, nil
}

// SetCommandLine adds a -c style override that is never saved.
func (m *Manager) SetCommandLine(key, value string) error {
	k, err := ParseKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandLine[k] = append(m.commandLine[k], value)
	return nil
}

// List returns the effective entry of every known key, sorted by key.
func (m *Manager) List() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[Key]bool)
	for k := range m.builtin {
		seen[k] = true
	}
	for k := range m.commandLine {
		seen[k] = true
	}
	for _, s := range m.files {
		for _, k := range s.Keys() {
			seen[k] = true
		}
	}

	entries := make([]Entry, 0, len(seen))
	for k := range seen {
		if e, ok := m.getUnsafe(k); ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
	return entries
}

func (m *Manager) getUnsafe(k Key) (Entry, bool) {
	all := m.allUnsafe(k)
	if len(all) == 0 {
		return Entry{}, false
	}
	return all[len(all)-1], true
}

func (m *Manager) allUnsafe(k Key) []Entry {
	var out []Entry
	if v, ok := m.builtin[k]; ok {
		out = append(out, Entry{Key: k, Value: v, Level: BuiltinLevel, Source: BuiltinSource})
	}
	for _, level := range []Level{SystemLevel, UserLevel, RepositoryLevel} {
		s, ok := m.files[level]
		if !ok {
			continue
		}
		for _, v := range s.Get(k) {
			out = append(out, Entry{Key: k, Value: v, Level: level, Source: s.Path()})
		}
	}
	for _, v := range m.commandLine[k] {
		out = append(out, Entry{Key: k, Value: v, Level: CommandLineLevel, Source: CommandLineSource})
	}
	return out
}

func (m *Manager) loadBuiltinDefaults() {
	for key, value := range map[string]string{
		"core.repositoryformatversion": "0",
		"core.bare":                    "false",
		"core.filemode":                "true",
		"core.logallrefupdates":        "true",
		"diff.renames":                 "true",
		"diff.renamelimit":             strconv.Itoa(DefaultRenameLimit),
		"diff.context":                 "3",
		"blame.minmatch":               "20",
		"init.defaultbranch":           "master",
		"color.ui":                     "auto",
	} {
		m.builtin[MustParseKey(key)] = value
	}
}

// DefaultRenameLimit is the builtin diff.renamelimit.
const DefaultRenameLimit = 400

// SystemPath is the machine wide config file, or "" when GIT_CONFIG_NOSYSTEM
// is set.
func SystemPath() string {
	if b, _ := ParseBool(os.Getenv("GIT_CONFIG_NOSYSTEM")); b {
		return ""
	}
	return "/etc/gitconfig"
}

// UserPath is the per user config file. GIT_CONFIG_GLOBAL overrides it.
func UserPath() string {
	if p := os.Getenv("GIT_CONFIG_GLOBAL"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gitconfig")
}

// Open builds a manager over the system and user files on the host
// filesystem plus the repository file at repoPath in repoFS, and loads them.
// repoFS may be nil for a manager without a repository.
func Open(ctx context.Context, repoFS billy.Filesystem, repoPath string) (*Manager, error) {
	m := NewManager()
	host := osfs.New("/")
	for level, p := range map[Level]string{SystemLevel: SystemPath(), UserLevel: UserPath()} {
		if p == "" {
			continue
		}
		if _, err := m.AddFile(level, host, p); err != nil {
			return nil, err
		}
	}
	if repoFS != nil {
		if _, err := m.AddFile(RepositoryLevel, repoFS, repoPath); err != nil {
			return nil, err
		}
	}
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Levels lists the levels that currently have a file attached, lowest first.
func (m *Manager) Levels() []Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Level
	for l := range m.files {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}
