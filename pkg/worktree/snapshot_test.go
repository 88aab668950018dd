package worktree

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/index"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/blob"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
	"github.com/utkarsh5026/gitcore/pkg/pathspec"
	"github.com/utkarsh5026/gitcore/pkg/store"
)

func TestBuildTreeMatchesManualBuilder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)

	a, err := blob.Create(ctx, s, []byte("a\n"))
	require.NoError(t, err)
	b, err := blob.Create(ctx, s, []byte("b\n"))
	require.NoError(t, err)

	sub := tree.NewBuilder(s, nil)
	_, err = sub.Insert("b.txt", b, objects.FileModeExecutable)
	require.NoError(t, err)
	subID, err := sub.Write(ctx)
	require.NoError(t, err)
	root := tree.NewBuilder(s, nil)
	_, err = root.Insert("a.txt", a, objects.FileModeRegular)
	require.NoError(t, err)
	_, err = root.Insert("dir", subID, objects.FileModeTree)
	require.NoError(t, err)
	want, err := root.Write(ctx)
	require.NoError(t, err)

	got, err := BuildTree(ctx, s, []File{
		{Path: "dir/b.txt", ID: b, Mode: objects.FileModeExecutable},
		{Path: "a.txt", ID: a, Mode: objects.FileModeRegular},
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBuildTreeEmpty(t *testing.T) {
	s := store.NewMemoryStore(objects.SHA1)
	id, err := BuildTree(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, objects.EmptyTreeID(objects.SHA1), id)
	assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", id.String())
}

func TestBuildTreeManySubdirectories(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)
	id, err := blob.Create(ctx, s, []byte("x"))
	require.NoError(t, err)

	var files []File
	for _, dir := range []string{"a", "b", "c", "d", "e/f", "e/g", "e/h", "e/i"} {
		files = append(files, File{Path: dir + "/file", ID: id, Mode: objects.FileModeRegular})
	}

	first, err := BuildTree(ctx, s, files)
	require.NoError(t, err)
	for range 5 {
		again, err := BuildTree(ctx, s, files)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}

	root, err := tree.Lookup(ctx, s, first)
	require.NoError(t, err)
	assert.Equal(t, 5, root.Size())
	e, err := root.GetByPath(ctx, s, "e/i/file")
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
}

func TestBuildTreeErrors(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)

	_, err := BuildTree(ctx, s, []File{{Path: "", ID: objects.EmptyTreeID(objects.SHA1), Mode: objects.FileModeRegular}})
	assert.True(t, errs.IsInvalidArgument(err))

	_, err = BuildTree(ctx, s, []File{{Path: "a", Mode: objects.FileModeRegular}})
	assert.True(t, errs.IsInvalidArgument(err), "zero id: %v", err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = BuildTree(cancelled, s, []File{{Path: "a", ID: objects.EmptyTreeID(objects.SHA1), Mode: objects.FileModeRegular}})
	assert.True(t, errs.IsCancelled(err))
}

func TestTreeFromIndex(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)
	id, err := blob.Create(ctx, s, []byte("hello"))
	require.NoError(t, err)

	idx := index.New(objects.SHA1)
	idx.Add(index.NewEntry("src/main.go", id))
	idx.Add(index.NewEntry("README", id))

	treeID, err := TreeFromIndex(ctx, s, idx)
	require.NoError(t, err)
	root, err := tree.Lookup(ctx, s, treeID)
	require.NoError(t, err)
	e, err := root.GetByPath(ctx, s, "src/main.go")
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)

	conflicted := index.NewEntry("README", id)
	conflicted.Stage = 2
	idx.Add(conflicted)
	_, err = TreeFromIndex(ctx, s, idx)
	assert.True(t, errs.IsConflict(err))
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "README.md", []byte("# readme\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "src/main.go", []byte("package main\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "src/run.sh", []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, util.WriteFile(fs, "build/out.bin", []byte{0, 1, 2}, 0o644))
	require.NoError(t, util.WriteFile(fs, "debug.log", []byte("noise"), 0o644))
	require.NoError(t, util.WriteFile(fs, ".git/HEAD", []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, fs.Symlink("README.md", "link"))

	ignore, err := pathspec.New("*.log", "build/")
	require.NoError(t, err)

	s := store.NewMemoryStore(objects.SHA1)
	id, err := Snapshot(ctx, fs, s, ignore)
	require.NoError(t, err)

	root, err := tree.Lookup(ctx, s, id)
	require.NoError(t, err)

	var paths []string
	require.NoError(t, root.Walk(ctx, s, tree.PreOrder, func(dir string, e tree.Entry) error {
		if !e.IsTree() {
			paths = append(paths, dir+e.Name+" "+e.Mode.String())
		}
		return nil
	}))
	assert.Equal(t, []string{
		"README.md 100644",
		"link 120000",
		"src/main.go 100644",
		"src/run.sh 100755",
	}, paths)

	link, err := root.GetByPath(ctx, s, "link")
	require.NoError(t, err)
	b, err := blob.Lookup(ctx, s, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "README.md", string(b.Content()))

	again, err := Snapshot(ctx, fs, s, ignore)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestSnapshotEmptyAndCancelled(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)

	id, err := Snapshot(ctx, memfs.New(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, objects.EmptyTreeID(objects.SHA1), id)

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "a", []byte("a"), 0o644))
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Snapshot(cancelled, fs, s, nil)
	assert.True(t, errs.IsCancelled(err))
}

func TestListFiles(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "b/c.txt", nil, 0o644))
	require.NoError(t, util.WriteFile(fs, "a.txt", nil, 0o644))
	require.NoError(t, util.WriteFile(fs, ".git/config", nil, 0o644))
	require.NoError(t, util.WriteFile(fs, ".gitignore", nil, 0o644))

	entries, err := ListFiles(context.Background(), fs, nil)
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{".gitignore", "a.txt", "b/c.txt"}, paths)
}
