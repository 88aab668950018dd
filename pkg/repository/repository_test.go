package repository

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/gitcore/pkg/blame"
	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

var _ blame.Repository = (*Repository)(nil)

func initRepo(t *testing.T, opts *Options) (*Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	if opts == nil {
		opts = &Options{}
	}
	opts.Logger = logger.Discard()
	r, err := Init(context.Background(), fs, opts)
	require.NoError(t, err)
	return r, fs
}

func sig(t *testing.T, unix int64) *commit.Signature {
	t.Helper()
	s, err := commit.NewSignatureOffset("Ada Lovelace", "ada@example.com", unix, 60)
	require.NoError(t, err)
	return s
}

// commitFiles writes files into the worktree, stages them and commits.
func commitFiles(t *testing.T, r *Repository, msg string, unix int64, files map[string]string) *commit.Commit {
	t.Helper()
	ctx := context.Background()
	var paths []string
	for p, content := range files {
		require.NoError(t, util.WriteFile(r.Worktree(), p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	res, err := r.Index().Add(ctx, paths)
	require.NoError(t, err)
	require.Empty(t, res.Failed)
	c, err := r.CreateCommit(ctx, CommitRequest{Message: msg, Author: sig(t, unix)})
	require.NoError(t, err)
	return c
}

func TestInitLayout(t *testing.T) {
	ctx := context.Background()
	r, fs := initRepo(t, nil)

	for _, p := range []string{".git/HEAD", ".git/config", ".git/description", ".git/objects/pack", ".git/refs/heads", ".git/refs/tags"} {
		_, err := fs.Stat(p)
		assert.NoError(t, err, p)
	}
	head, err := util.ReadFile(fs, ".git/HEAD")
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/master\n", string(head))

	h, err := r.Head(ctx)
	require.NoError(t, err)
	assert.True(t, h.Unborn)
	assert.Equal(t, "master", h.Branch)

	bare, err := r.Config().GetBool("core.bare")
	require.NoError(t, err)
	assert.False(t, bare)
	assert.False(t, r.IsBare())

	_, err = Init(ctx, fs, nil)
	assert.True(t, errs.IsAlreadyExists(err))

	_, err = r.HeadCommit(ctx)
	assert.True(t, errs.IsNotFound(err))
}

func TestInitBareSHA256AndReopen(t *testing.T) {
	ctx := context.Background()
	r, fs := initRepo(t, &Options{Bare: true, HashAlgorithm: objects.SHA256, DefaultBranch: "trunk"})
	assert.True(t, r.IsBare())
	assert.Nil(t, r.Index())
	assert.Equal(t, objects.SHA256, r.HashAlgorithm())

	reopened, err := Open(ctx, fs, &Options{Logger: logger.Discard()})
	require.NoError(t, err)
	assert.True(t, reopened.IsBare())
	assert.Equal(t, objects.SHA256, reopened.HashAlgorithm())
	h, err := reopened.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, "trunk", h.Branch)

	_, err = reopened.Checkout(ctx, "HEAD", nil)
	assert.True(t, errs.IsUnsupported(err))
}

func TestOpenNotARepository(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "README", []byte("hi"), 0o644))
	_, err := Open(context.Background(), fs, nil)
	assert.True(t, errs.IsNotFound(err))
	_, err = fs.Stat(".git")
	assert.Error(t, err, "Open must not create .git")
}

func TestCreateCommitAndResolve(t *testing.T) {
	ctx := context.Background()
	r, _ := initRepo(t, nil)

	c1 := commitFiles(t, r, "first\n", 1700000000, map[string]string{"a.txt": "one\n", "dir/b.txt": "b\n"})
	c2 := commitFiles(t, r, "second\n", 1700000100, map[string]string{"a.txt": "two\n"})
	assert.True(t, c1.IsRoot())
	assert.Equal(t, []objects.ObjectID{c1.ID()}, c2.Parents())

	head, err := r.HeadCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, c2.ID(), head.ID())
	master, err := r.Refs().ResolveID(ctx, "refs/heads/master")
	require.NoError(t, err)
	assert.Equal(t, c2.ID(), master)

	_, err = r.Refs().CreateDirect(ctx, "refs/tags/v1", c1.ID(), false)
	require.NoError(t, err)

	tests := []struct {
		rev  string
		want objects.ObjectID
	}{
		{"HEAD", c2.ID()},
		{"@", c2.ID()},
		{"master", c2.ID()},
		{"refs/heads/master", c2.ID()},
		{"HEAD~1", c1.ID()},
		{"HEAD^", c1.ID()},
		{"master~", c1.ID()},
		{"HEAD^0", c2.ID()},
		{"v1", c1.ID()},
		{"tags/v1", c1.ID()},
		{c2.ID().String(), c2.ID()},
		{c1.ID().String()[:8], c1.ID()},
		{"HEAD^{tree}", c2.TreeID()},
		{"v1^{commit}", c1.ID()},
	}
	for _, tt := range tests {
		got, err := r.ResolveRevision(ctx, tt.rev)
		if assert.NoError(t, err, tt.rev) {
			assert.Equal(t, tt.want, got, tt.rev)
		}
	}

	for _, rev := range []string{"HEAD~2", "HEAD^2", "nope", "deadbeef"} {
		_, err := r.ResolveRevision(ctx, rev)
		assert.True(t, errs.IsNotFound(err), "%s: %v", rev, err)
	}
	for _, rev := range []string{"", "HEAD^{", "HEAD^{blob}", "HEAD^{tree}^"} {
		_, err := r.ResolveRevision(ctx, rev)
		assert.True(t, errs.IsInvalidArgument(err), "%s: %v", rev, err)
	}

	tr, err := r.ResolveTree(ctx, "v1")
	require.NoError(t, err)
	e, err := tr.GetByPath(ctx, r.Objects(), "dir/b.txt")
	require.NoError(t, err)
	assert.True(t, e.IsBlob())
}

func TestCreateCommitErrors(t *testing.T) {
	ctx := context.Background()
	r, _ := initRepo(t, nil)
	t.Setenv("GIT_AUTHOR_NAME", "")
	t.Setenv("GIT_AUTHOR_EMAIL", "")

	_, err := r.CreateCommit(ctx, CommitRequest{})
	assert.True(t, errs.IsInvalidArgument(err))

	_, err = r.CreateCommit(ctx, CommitRequest{Message: "no identity"})
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, r.Config().SetCommandLine("user.name", "Ada"))
	require.NoError(t, r.Config().SetCommandLine("user.email", "ada@example.com"))
	c, err := r.CreateCommit(ctx, CommitRequest{Message: "empty root"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Author().Name)
	assert.Equal(t, objects.EmptyTreeID(objects.SHA1), c.TreeID())

	_, err = r.CreateCommit(ctx, CommitRequest{Message: "again"})
	assert.True(t, errs.IsInvalidArgument(err), "nothing to commit: %v", err)

	_, err = r.CreateCommit(ctx, CommitRequest{Message: "again", AllowEmpty: true})
	assert.NoError(t, err)

	detached, err := r.CreateCommit(ctx, CommitRequest{Message: "loose", AllowEmpty: true, UpdateRef: NoRefUpdate})
	require.NoError(t, err)
	head, err := r.HeadID(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, detached.ID(), head)
}

func TestCheckoutMovesHead(t *testing.T) {
	ctx := context.Background()
	r, fs := initRepo(t, nil)
	c1 := commitFiles(t, r, "first\n", 1700000000, map[string]string{"a.txt": "one\n"})
	commitFiles(t, r, "second\n", 1700000100, map[string]string{"a.txt": "two\n", "new.txt": "new\n"})

	res, err := r.Checkout(ctx, "HEAD~1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)

	content, err := util.ReadFile(fs, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(content))
	_, err = fs.Stat("new.txt")
	assert.Error(t, err)

	h, err := r.Head(ctx)
	require.NoError(t, err)
	assert.True(t, h.Detached)
	assert.Equal(t, c1.ID(), h.Target)
	assert.Equal(t, []string{"a.txt"}, r.Index().Index().Paths())

	_, err = r.Checkout(ctx, "master", nil)
	require.NoError(t, err)
	h, err = r.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", h.Branch)
	assert.False(t, h.Detached)
	content, err = util.ReadFile(fs, "new.txt")
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(content))
}

func TestCheckoutRefusesLocalChanges(t *testing.T) {
	ctx := context.Background()
	r, fs := initRepo(t, nil)
	commitFiles(t, r, "first\n", 1700000000, map[string]string{"a.txt": "one\n"})
	commitFiles(t, r, "second\n", 1700000100, map[string]string{"a.txt": "two\n"})
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("local edit\n"), 0o644))

	_, err := r.Checkout(ctx, "HEAD~1", &worktree.CheckoutOptions{Strategy: worktree.StrategySafe})
	assert.True(t, errs.IsConflict(err))
	h, err := r.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", h.Branch, "HEAD must not move after a refused checkout")

	_, err = r.Checkout(ctx, "HEAD~1", &worktree.CheckoutOptions{Strategy: worktree.StrategyForce})
	require.NoError(t, err)
	content, err := util.ReadFile(fs, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(content))
}

func TestBranchFor(t *testing.T) {
	ctx := context.Background()
	r, _ := initRepo(t, nil)
	c := commitFiles(t, r, "first\n", 1700000000, map[string]string{"a.txt": "one\n"})
	_, err := r.Refs().CreateBranch(ctx, "feature", c.ID(), false)
	require.NoError(t, err)

	assert.Equal(t, "feature", r.branchFor("feature"))
	assert.Equal(t, "feature", r.branchFor(refs.HeadsPrefix+"feature"))
	assert.Equal(t, "", r.branchFor("HEAD~0"))
	assert.Equal(t, "", r.branchFor(c.ID().String()))
}
