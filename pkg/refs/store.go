package refs

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/tag"
)

const (
	pkgName = "refs"

	// MaxRefDepth is the maximum number of symbolic hops Resolve follows.
	MaxRefDepth = 10
)

var (
	ErrNotFound      = errs.New(pkgName, errs.CodeNotFound, "", "reference not found", nil)
	ErrAlreadyExists = errs.New(pkgName, errs.CodeAlreadyExists, "", "reference already exists", nil)
	ErrConflict      = errs.New(pkgName, errs.CodeConflict, "", "reference changed concurrently", nil)
)

// Store reads and writes references kept under a Git directory:
//
//	.git/
//	├─ HEAD                 ref: refs/heads/main
//	├─ packed-refs          one line per packed reference
//	└─ refs/
//	   ├─ heads/main        <id>
//	   └─ tags/v1.0         <id>
//
// Loose references shadow packed ones. Every write takes <name>.lock with
// O_EXCL and renames it into place, so a second writer racing on the same
// reference fails with CONFLICT instead of clobbering it.
type Store struct {
	fs      billy.Filesystem
	objects objects.Reader
	logger  *slog.Logger

	// packedMu serializes packed-refs rewrites within this process; the
	// lock file protects against other processes.
	packedMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithObjects makes CreateDirect and Update check that targets exist and
// lets Pack record peeled tag targets.
func WithObjects(r objects.Reader) Option {
	return func(s *Store) { s.objects = r }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a store rooted at fs, which should be the Git directory.
func NewStore(fs billy.Filesystem, opts ...Option) *Store {
	s := &Store{fs: fs}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.Component(s.logger, "refs")
	return s
}

// Initialize creates refs/heads and refs/tags.
func (s *Store) Initialize() error {
	for _, dir := range []string{"refs/heads", "refs/tags"} {
		if err := fileops.EnsureDir(s.fs, dir); err != nil {
			return storageErr("initialize", err)
		}
	}
	return nil
}

func storageErr(op string, cause error) error {
	return errs.New(pkgName, errs.CodeStorage, op, "reference storage failure", cause)
}

func notFound(op, name string) error {
	return errs.Newf(pkgName, errs.CodeNotFound, op, "reference %q not found", name)
}

func conflict(op, name, msg string) error {
	return errs.Newf(pkgName, errs.CodeConflict, op, "reference %q: %s", name, msg)
}

// Read returns the reference called name without following it. Loose
// references are consulted before packed-refs.
func (s *Store) Read(name string) (*Reference, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	ref, found, err := s.readLoose(name)
	if err != nil || found {
		return ref, err
	}

	if strings.HasPrefix(name, RefsPrefix) {
		packed, err := s.readPacked()
		if err != nil {
			return nil, err
		}
		if ref, ok := packed.refs[name]; ok {
			clone := *ref
			return &clone, nil
		}
	}
	return nil, notFound("read", name)
}

func (s *Store) readLoose(name string) (*Reference, bool, error) {
	fi, err := s.fs.Stat(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr("read", err)
	}
	if fi.IsDir() {
		return nil, false, nil
	}

	data, ok, err := fileops.ReadIfExists(s.fs, name)
	if err != nil {
		return nil, false, storageErr("read", err)
	}
	if !ok {
		return nil, false, nil
	}

	ref, err := parseLoose(name, data)
	if err != nil {
		return nil, false, err
	}
	return ref, true, nil
}

func parseLoose(name string, data []byte) (*Reference, error) {
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, SymbolicPrefix); ok {
		target = strings.TrimSpace(target)
		if !IsValidName(target) {
			return nil, errs.Newf(pkgName, errs.CodeCorrupted, "read", "reference %q points at invalid name %q", name, target)
		}
		return NewSymbolic(name, target), nil
	}

	id, err := objects.ParseObjectID(content)
	if err != nil {
		return nil, errs.New(pkgName, errs.CodeCorrupted, "read", "malformed reference "+name, err)
	}
	return NewDirect(name, id), nil
}

func (s *Store) readPacked() (*packedRefs, error) {
	data, ok, err := fileops.ReadIfExists(s.fs, packedRefsFile)
	if err != nil {
		return nil, storageErr("read_packed", err)
	}
	if !ok {
		return &packedRefs{refs: map[string]*Reference{}}, nil
	}
	return parsePackedRefs(data)
}

func corruptPacked(line int, msg string) error {
	return errs.New(pkgName, errs.CodeCorrupted, "read_packed", msg, nil).WithContext("line", line)
}

// Exists reports whether a reference called name exists.
func (s *Store) Exists(name string) (bool, error) {
	_, err := s.Read(name)
	if errs.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Resolve follows symbolic references from name and returns the direct
// reference at the end of the chain. A cycle, or a chain longer than
// MaxRefDepth hops, is CORRUPTED; a dangling link is NOT_FOUND.
func (s *Store) Resolve(ctx context.Context, name string) (*Reference, error) {
	seen := map[string]bool{}
	current := name
	for range MaxRefDepth + 1 {
		if err := errs.CheckContext(ctx, pkgName, "resolve"); err != nil {
			return nil, err
		}

		ref, err := s.Read(current)
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "resolve")
		}
		if !ref.IsSymbolic() {
			return ref, nil
		}

		seen[current] = true
		if seen[ref.SymbolicTarget] {
			return nil, errs.Newf(pkgName, errs.CodeCorrupted, "resolve", "symbolic reference cycle through %q", ref.SymbolicTarget)
		}
		current = ref.SymbolicTarget
	}
	return nil, errs.Newf(pkgName, errs.CodeCorrupted, "resolve", "reference %q nests deeper than %d", name, MaxRefDepth)
}

// ResolveID is Resolve returning only the target id.
func (s *Store) ResolveID(ctx context.Context, name string) (objects.ObjectID, error) {
	ref, err := s.Resolve(ctx, name)
	if err != nil {
		return objects.ObjectID{}, err
	}
	return ref.Target, nil
}

// CreateDirect points name at id. An existing reference is ALREADY_EXISTS
// unless force is set. With an object reader configured, a missing target
// object is NOT_FOUND.
func (s *Store) CreateDirect(ctx context.Context, name string, id objects.ObjectID, force bool) (*Reference, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, "create", id); err != nil {
		return nil, err
	}

	ref := NewDirect(name, id)
	if err := s.write("create", ref, force, nil); err != nil {
		return nil, err
	}
	return ref, nil
}

// CreateSymbolic points name at the reference called target, which need
// not exist yet (an unborn branch).
func (s *Store) CreateSymbolic(name, target string, force bool) (*Reference, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateName(target); err != nil {
		return nil, err
	}

	ref := NewSymbolic(name, target)
	if err := s.write("create_symbolic", ref, force, nil); err != nil {
		return nil, err
	}
	return ref, nil
}

// Update moves the direct reference at the end of name's symbolic chain to
// id. When expectedOld is valid it is compared first: the zero id means
// "must not exist", any other id must equal the current target. A mismatch
// is CONFLICT. An invalid expectedOld skips the check.
func (s *Store) Update(ctx context.Context, name string, id, expectedOld objects.ObjectID) (*Reference, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, "update", id); err != nil {
		return nil, err
	}

	final, err := s.followSymbolic(ctx, name)
	if err != nil {
		return nil, err
	}

	ref := NewDirect(final, id)
	check := func(current *Reference) error {
		if !expectedOld.IsValid() {
			return nil
		}
		if expectedOld.IsZero() {
			if current != nil {
				return conflict("update", final, "expected it not to exist")
			}
			return nil
		}
		if current == nil || current.IsSymbolic() || current.Target != expectedOld {
			return conflict("update", final, "expected "+expectedOld.Short())
		}
		return nil
	}
	if err := s.write("update", ref, true, check); err != nil {
		return nil, err
	}
	return ref, nil
}

// followSymbolic returns the last name in the chain starting at name,
// stopping at a direct or missing reference.
func (s *Store) followSymbolic(ctx context.Context, name string) (string, error) {
	current := name
	for range MaxRefDepth + 1 {
		if err := errs.CheckContext(ctx, pkgName, "update"); err != nil {
			return "", err
		}
		ref, err := s.Read(current)
		if errs.IsNotFound(err) {
			return current, nil
		}
		if err != nil {
			return "", err
		}
		if !ref.IsSymbolic() {
			return current, nil
		}
		current = ref.SymbolicTarget
	}
	return "", errs.Newf(pkgName, errs.CodeCorrupted, "update", "reference %q nests deeper than %d", name, MaxRefDepth)
}

func (s *Store) checkTarget(ctx context.Context, op string, id objects.ObjectID) error {
	if !id.IsValid() || id.IsZero() {
		return errs.New(pkgName, errs.CodeInvalidArgument, op, "target id is not set", nil)
	}
	if s.objects == nil {
		return nil
	}
	ok, err := s.objects.HasObject(ctx, id)
	if err != nil {
		return errs.Wrap(err, pkgName, op)
	}
	if !ok {
		return errs.Newf(pkgName, errs.CodeNotFound, op, "target object %s does not exist", id)
	}
	return nil
}

// write stores ref under its lock. check, when given, sees the current
// value (nil when absent) while the lock is held.
func (s *Store) write(op string, ref *Reference, force bool, check func(*Reference) error) error {
	if err := s.checkNameConflict(op, ref.Name); err != nil {
		return err
	}

	lock, err := s.acquire(op, ref.Name)
	if err != nil {
		return err
	}
	defer lock.release()

	current, err := s.Read(ref.Name)
	if err != nil && !errs.IsNotFound(err) {
		return err
	}
	if !force && current != nil {
		return errs.Newf(pkgName, errs.CodeAlreadyExists, op, "reference %q already exists", ref.Name)
	}
	if check != nil {
		if err := check(current); err != nil {
			return err
		}
	}

	if err := lock.commit([]byte(ref.content())); err != nil {
		return err
	}
	s.logger.Debug("reference written", "ref", ref.String())
	return nil
}

// checkNameConflict rejects names that would need a file where a
// directory of references is, or the other way around (refs/heads/a vs
// refs/heads/a/b).
func (s *Store) checkNameConflict(op, name string) error {
	if fi, err := s.fs.Stat(name); err == nil && fi.IsDir() {
		return conflict(op, name, "a directory of references exists at this name")
	}

	parts := strings.Split(name, "/")
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], "/")
		if fi, err := s.fs.Stat(prefix); err == nil && !fi.IsDir() {
			return conflict(op, name, "reference "+prefix+" exists")
		}
	}

	if !strings.HasPrefix(name, RefsPrefix) {
		return nil
	}
	packed, err := s.readPacked()
	if err != nil {
		return err
	}
	for other := range packed.refs {
		if strings.HasPrefix(other, name+"/") || strings.HasPrefix(name, other+"/") {
			return conflict(op, name, "packed reference "+other+" exists")
		}
	}
	return nil
}

// Delete removes the loose file and the packed entry for name. Deleting a
// reference that exists in neither place is NOT_FOUND.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	defer s.pruneEmptyParents(name)
	lock, err := s.acquire("delete", name)
	if err != nil {
		return err
	}
	defer lock.release()

	found := false
	if _, ok, err := s.readLoose(name); err != nil && !errs.IsCorrupted(err) {
		return err
	} else if ok || errs.IsCorrupted(err) {
		if err := s.fs.Remove(name); err != nil {
			return storageErr("delete", err)
		}
		found = true
	}

	if strings.HasPrefix(name, RefsPrefix) {
		removed, err := s.rewritePacked("delete", func(p *packedRefs) bool {
			if _, ok := p.refs[name]; !ok {
				return false
			}
			delete(p.refs, name)
			return true
		})
		if err != nil {
			return err
		}
		found = found || removed
	}

	if !found {
		return notFound("delete", name)
	}
	s.logger.Debug("reference deleted", "name", name)
	return nil
}

// rewritePacked locks packed-refs, applies edit and writes the result when
// edit reports a change.
func (s *Store) rewritePacked(op string, edit func(*packedRefs) bool) (bool, error) {
	s.packedMu.Lock()
	defer s.packedMu.Unlock()

	lock, err := s.acquire(op, packedRefsFile)
	if err != nil {
		return false, err
	}
	defer lock.release()

	packed, err := s.readPacked()
	if err != nil {
		return false, err
	}
	if !edit(packed) {
		return false, nil
	}
	return true, lock.commit(packed.encode())
}

// List returns every reference under refs/, loose and packed, sorted by
// name. HEAD is not included.
func (s *Store) List() ([]*Reference, error) {
	packed, err := s.readPacked()
	if err != nil {
		return nil, err
	}
	all := make(map[string]*Reference, len(packed.refs))
	for name, ref := range packed.refs {
		clone := *ref
		all[name] = &clone
	}

	loose, err := s.listLoose()
	if err != nil {
		return nil, err
	}
	for _, ref := range loose {
		all[ref.Name] = ref
	}

	out := make([]*Reference, 0, len(all))
	for _, ref := range all {
		out = append(out, ref)
	}
	slices.SortFunc(out, func(a, b *Reference) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) listLoose() ([]*Reference, error) {
	var out []*Reference
	err := util.Walk(s.fs, "refs", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}

		name := filepath.ToSlash(p)
		if strings.HasSuffix(name, lockSuffix) || !IsValidName(name) {
			return nil
		}
		data, ok, err := fileops.ReadIfExists(s.fs, name)
		if err != nil || !ok {
			return err
		}
		ref, err := parseLoose(name, data)
		if err != nil {
			return err
		}
		out = append(out, ref)
		return nil
	})
	if err != nil {
		if errs.IsCorrupted(err) {
			return nil, err
		}
		return nil, storageErr("list", err)
	}
	return out, nil
}

// Glob lists references matching pattern. Like git's --glob, a pattern
// without a refs/ prefix gets one, and a pattern without glob characters
// matches everything below it ("refs/heads" is "refs/heads/*"). '*'
// matches across '/'.
func (s *Store) Glob(pattern string) ([]*Reference, error) {
	m, err := compileGlob(pattern)
	if err != nil {
		return nil, err
	}
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var out []*Reference
	for _, ref := range all {
		if m.MatchString(ref.Name) {
			out = append(out, ref)
		}
	}
	return out, nil
}

// Pack moves every loose direct reference under refs/ into packed-refs and
// removes the loose files. Annotated tags get their peeled target recorded
// when an object reader is configured.
func (s *Store) Pack(ctx context.Context) error {
	loose, err := s.listLoose()
	if err != nil {
		return err
	}

	var packedNow []*Reference
	_, err = s.rewritePacked("pack", func(p *packedRefs) bool {
		for _, ref := range loose {
			if ref.IsSymbolic() {
				continue
			}
			entry := NewDirect(ref.Name, ref.Target)
			if s.objects != nil && IsTag(ref.Name) {
				if raw, err := tag.Peel(ctx, s.objects, ref.Target); err == nil && raw.ID != ref.Target {
					entry.Peeled = raw.ID
				}
			}
			p.refs[ref.Name] = entry
			packedNow = append(packedNow, ref)
		}
		return len(packedNow) > 0
	})
	if err != nil {
		return err
	}

	for _, ref := range packedNow {
		if err := s.removeLooseIfUnchanged(ref); err != nil {
			return err
		}
	}
	s.logger.Debug("references packed", "count", len(packedNow))
	return nil
}

func (s *Store) removeLooseIfUnchanged(ref *Reference) error {
	defer s.pruneEmptyParents(ref.Name)
	lock, err := s.acquire("pack", ref.Name)
	if err != nil {
		return err
	}
	defer lock.release()

	current, ok, err := s.readLoose(ref.Name)
	if err != nil || !ok || current.IsSymbolic() || current.Target != ref.Target {
		return err
	}
	if err := s.fs.Remove(ref.Name); err != nil {
		return storageErr("pack", err)
	}
	return nil
}

// pruneEmptyParents removes the directories between name and its
// namespace (refs/heads, refs/tags, ...) that are left empty.
func (s *Store) pruneEmptyParents(name string) {
	for dir := path.Dir(name); strings.Count(dir, "/") >= 2 && strings.HasPrefix(dir, RefsPrefix); dir = path.Dir(dir) {
		entries, err := s.fs.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := s.fs.Remove(dir); err != nil {
			s.logger.Debug("could not prune ref directory", "dir", dir, "error", err)
			return
		}
	}
}

// lockFile is an exclusively created <name>.lock. commit renames it over
// name; release removes it if still present.
type lockFile struct {
	fs     billy.Filesystem
	name   string
	path   string
	f      billy.File
	closed bool
	done   bool
}

func (s *Store) acquire(op, name string) (*lockFile, error) {
	lockPath := name + lockSuffix
	if err := s.fs.MkdirAll(path.Dir(lockPath), 0o755); err != nil {
		return nil, storageErr(op, err)
	}
	f, err := s.fs.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, conflict(op, name, "locked by another writer ("+lockPath+" exists)")
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &lockFile{fs: s.fs, name: name, path: lockPath, f: f}, nil
}

func (l *lockFile) commit(data []byte) error {
	_, werr := l.f.Write(data)
	cerr := l.f.Close()
	l.closed = true
	if err := errors.Join(werr, cerr); err != nil {
		return storageErr("commit_lock", err)
	}
	if err := l.fs.Rename(l.path, l.name); err != nil {
		return storageErr("commit_lock", err)
	}
	l.done = true
	return nil
}

func (l *lockFile) release() {
	if l.done {
		return
	}
	if !l.closed {
		_ = l.f.Close()
	}
	_ = l.fs.Remove(l.path)
	l.done = true
}
