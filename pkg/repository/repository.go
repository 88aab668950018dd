// Package repository ties the object store, references, configuration,
// index and working tree of one repository together.
//
// A non-bare repository keeps its metadata in .git at the root of the
// working tree:
//
//	<worktree>/
//	├─ .git/
//	│  ├─ objects/      loose objects, objects/ab/cdef...
//	│  ├─ refs/heads/   branches
//	│  ├─ refs/tags/    tags
//	│  ├─ HEAD          ref: refs/heads/<default branch>
//	│  ├─ config
//	│  ├─ description
//	│  └─ index
//	└─ ...              tracked files
//
// A bare repository is the contents of .git without a working tree.
package repository

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/fileops"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/config"
	"github.com/utkarsh5026/gitcore/pkg/index"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/store"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

const pkgName = "repository"

const (
	// GitDir is the metadata directory of a non-bare repository.
	GitDir = worktree.GitDir

	configFile      = "config"
	descriptionFile = "description"
	indexFile       = "index"
	objectsDir      = "objects"

	defaultDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"
)

// Repository is an open repository. Its methods may be called from several
// goroutines, with the same caveats as the stores it wraps.
type Repository struct {
	worktree billy.Filesystem
	gitDir   billy.Filesystem
	objects  *store.Cached
	refs     *refs.Store
	config   *config.Manager
	index    *index.Manager
	logger   *slog.Logger
}

// Options configure Init and Open.
type Options struct {
	// Bare treats the filesystem as the metadata directory itself.
	Bare bool
	// DefaultBranch overrides init.defaultbranch for Init.
	DefaultBranch string
	// HashAlgorithm of a new repository; SHA1 when zero.
	HashAlgorithm objects.HashAlgorithm
	// Config supplies system and user levels. The repository attaches its
	// own file to it. A nil Config starts from the builtin defaults.
	Config *config.Manager
	// CacheSize bounds the object cache; zero uses the store default.
	CacheSize store.FileSize
	Logger    *slog.Logger
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.HashAlgorithm == 0 {
		out.HashAlgorithm = objects.SHA1
	}
	if out.Config == nil {
		out.Config = config.NewManager()
	}
	return out
}

// Init creates a repository in fs. An existing repository is
// ALREADY_EXISTS.
func Init(ctx context.Context, fs billy.Filesystem, opts *Options) (*Repository, error) {
	o := opts.withDefaults()
	gitDir, err := metadataDir(fs, o.Bare)
	if err != nil {
		return nil, err
	}
	if ok, err := fileops.Exists(gitDir, refs.HEAD); err != nil {
		return nil, storage("init", err)
	} else if ok {
		return nil, errs.New(pkgName, errs.CodeAlreadyExists, "init", "repository already exists", nil)
	}

	objFS, err := gitDir.Chroot(objectsDir)
	if err != nil {
		return nil, storage("init", err)
	}
	if err := store.NewLooseStore(objFS, o.HashAlgorithm).Initialize(); err != nil {
		return nil, errs.Wrap(err, pkgName, "init")
	}
	rs := refs.NewStore(gitDir)
	if err := rs.Initialize(); err != nil {
		return nil, errs.Wrap(err, pkgName, "init")
	}

	cfg, err := o.Config.AddFile(config.RepositoryLevel, gitDir, configFile)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "init")
	}
	version := "0"
	if o.HashAlgorithm == objects.SHA256 {
		version = "1"
		cfg.Set(config.MustParseKey("extensions.objectformat"), "sha256")
	}
	cfg.Set(config.MustParseKey("core.repositoryformatversion"), version)
	cfg.Set(config.MustParseKey("core.filemode"), "true")
	cfg.Set(config.MustParseKey("core.bare"), boolString(o.Bare))
	if !o.Bare {
		cfg.Set(config.MustParseKey("core.logallrefupdates"), "true")
	}
	if err := cfg.Save(ctx); err != nil {
		return nil, errs.Wrap(err, pkgName, "init")
	}
	if err := fileops.WriteFile(gitDir, descriptionFile, []byte(defaultDescription), 0o644); err != nil {
		return nil, storage("init", err)
	}

	branch := o.DefaultBranch
	if branch == "" {
		branch = config.NewTypedConfig(o.Config).DefaultBranch()
	}
	if err := rs.SetHead(branch); err != nil {
		return nil, errs.Wrap(err, pkgName, "init")
	}

	r, err := open(ctx, fs, gitDir, o)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("initialized repository", "bare", o.Bare, "branch", branch, "hash", o.HashAlgorithm.String())
	return r, nil
}

// InitPath creates a repository in the directory path on the host
// filesystem, with system and user configuration loaded.
func InitPath(ctx context.Context, path string, bare bool) (*Repository, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, storage("init", err)
	}
	cfg, err := hostConfig(ctx)
	if err != nil {
		return nil, err
	}
	return Init(ctx, osfs.New(path), &Options{Bare: bare, Config: cfg})
}

// Open opens the repository in fs. A filesystem holding neither a .git
// directory nor bare repository metadata is NOT_FOUND.
func Open(ctx context.Context, fs billy.Filesystem, opts *Options) (*Repository, error) {
	o := opts.withDefaults()
	gitDir := fs
	if !o.Bare {
		hasGit, err := fileops.Exists(fs, GitDir)
		if err != nil {
			return nil, storage("open", err)
		}
		if hasGit {
			if gitDir, err = fs.Chroot(GitDir); err != nil {
				return nil, storage("open", err)
			}
		} else {
			o.Bare = true
		}
	}
	ok, err := isMetadataDir(gitDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.New(pkgName, errs.CodeNotFound, "open", "not a repository", nil)
	}
	if _, err := o.Config.AddFile(config.RepositoryLevel, gitDir, configFile); err != nil {
		return nil, errs.Wrap(err, pkgName, "open")
	}
	return open(ctx, fs, gitDir, o)
}

// OpenPath opens the repository rooted at path on the host filesystem.
func OpenPath(ctx context.Context, path string) (*Repository, error) {
	cfg, err := hostConfig(ctx)
	if err != nil {
		return nil, err
	}
	return Open(ctx, osfs.New(path), &Options{Config: cfg})
}

// Find opens the repository containing path, looking in path and then each
// of its parents. It is NOT_FOUND when no ancestor is a repository.
func Find(ctx context.Context, path string) (*Repository, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "find", "", err).WithContext("path", path)
	}
	for {
		if err := errs.CheckContext(ctx, pkgName, "find"); err != nil {
			return nil, err
		}
		fs := osfs.New(dir)
		if ok, _ := fileops.Exists(fs, GitDir); ok {
			return OpenPath(ctx, dir)
		}
		if ok, _ := isMetadataDir(fs); ok {
			return OpenPath(ctx, dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errs.New(pkgName, errs.CodeNotFound, "find", "not a repository or any parent", nil).
				WithContext("path", path)
		}
		dir = parent
	}
}

func open(ctx context.Context, fs, gitDir billy.Filesystem, o Options) (*Repository, error) {
	log := logger.Component(o.Logger, pkgName)
	if err := o.Config.Load(ctx); err != nil {
		return nil, errs.Wrap(err, pkgName, "open")
	}
	algo, err := hashAlgorithm(o.Config)
	if err != nil {
		return nil, err
	}

	objFS, err := gitDir.Chroot(objectsDir)
	if err != nil {
		return nil, storage("open", err)
	}
	loose := store.NewLooseStore(objFS, algo, store.WithLogger(o.Logger))
	objs := store.NewCached(loose, o.CacheSize)

	r := &Repository{
		gitDir:  gitDir,
		objects: objs,
		refs:    refs.NewStore(gitDir, refs.WithObjects(objs), refs.WithLogger(o.Logger)),
		config:  o.Config,
		logger:  log,
	}
	if !o.Bare {
		r.worktree = fs
		r.index = index.NewManager(fs, GitDir+"/"+indexFile, objs)
		if err := r.index.Load(); err != nil {
			return nil, errs.Wrap(err, pkgName, "open")
		}
	}
	return r, nil
}

// hashAlgorithm reads extensions.objectformat.
func hashAlgorithm(cfg *config.Manager) (objects.HashAlgorithm, error) {
	format, err := cfg.GetString("extensions.objectformat")
	switch {
	case errs.IsNotFound(err), err == nil && format == "sha1":
		return objects.SHA1, nil
	case err != nil:
		return 0, errs.Wrap(err, pkgName, "open")
	case format == "sha256":
		return objects.SHA256, nil
	default:
		return 0, errs.Newf(pkgName, errs.CodeUnsupported, "open", "unknown object format %q", format)
	}
}

func metadataDir(fs billy.Filesystem, bare bool) (billy.Filesystem, error) {
	if bare {
		return fs, nil
	}
	if err := fileops.EnsureDir(fs, GitDir); err != nil {
		return nil, storage("open", err)
	}
	gitDir, err := fs.Chroot(GitDir)
	if err != nil {
		return nil, storage("open", err)
	}
	return gitDir, nil
}

// isMetadataDir reports whether fs looks like a .git directory.
func isMetadataDir(fs billy.Filesystem) (bool, error) {
	for _, name := range []string{refs.HEAD, objectsDir, "refs"} {
		ok, err := fileops.Exists(fs, name)
		if err != nil {
			return false, storage("open", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func hostConfig(ctx context.Context) (*config.Manager, error) {
	cfg, err := config.Open(ctx, nil, "")
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "config")
	}
	return cfg, nil
}

// Objects is the object database.
func (r *Repository) Objects() store.ObjectStore { return r.objects }

// Refs is the reference store.
func (r *Repository) Refs() *refs.Store { return r.refs }

// Config is the layered configuration, with the repository file attached.
func (r *Repository) Config() *config.Manager { return r.config }

// Worktree is the working tree, nil for a bare repository.
func (r *Repository) Worktree() billy.Filesystem { return r.worktree }

// GitDir is the metadata directory.
func (r *Repository) GitDir() billy.Filesystem { return r.gitDir }

// Index is the staging area, nil for a bare repository.
func (r *Repository) Index() *index.Manager { return r.index }

// IsBare reports whether the repository has no working tree.
func (r *Repository) IsBare() bool { return r.worktree == nil }

// ReadObject, HasObject and HashAlgorithm let a Repository stand in for
// an objects.Reader.
func (r *Repository) ReadObject(ctx context.Context, id objects.ObjectID) (*objects.RawObject, error) {
	return r.objects.ReadObject(ctx, id)
}

func (r *Repository) HasObject(ctx context.Context, id objects.ObjectID) (bool, error) {
	return r.objects.HasObject(ctx, id)
}

func (r *Repository) HashAlgorithm() objects.HashAlgorithm { return r.objects.HashAlgorithm() }

func storage(op string, err error) error {
	return errs.New(pkgName, errs.CodeStorage, op, "", err)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
