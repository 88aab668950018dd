package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/store"
)

func TestManagerAddStatusRemove(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	objs := store.NewMemoryStore(objects.SHA1)
	require.NoError(t, util.WriteFile(fs, "hello.txt", []byte("hello"), 0o644))
	require.NoError(t, util.WriteFile(fs, "src/main.go", []byte("package main\n"), 0o644))
	require.NoError(t, fs.MkdirAll("dir", 0o755))

	m := NewManager(fs, ".git/index", objs)
	require.NoError(t, m.Load())

	res, err := m.Add(ctx, []string{"hello.txt", "./src/main.go", "missing", "dir"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello.txt", "src/main.go"}, res.Added)
	assert.Len(t, res.Failed, 2)

	e, ok := m.Index().Get("hello.txt")
	require.True(t, ok)
	assert.Equal(t, "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0", e.ID.String())
	has, err := objs.HasObject(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, has, "blob written to the store")

	// persisted
	other := NewManager(fs, ".git/index", objs)
	require.NoError(t, other.Load())
	assert.Equal(t, []string{"hello.txt", "src/main.go"}, other.Index().Paths())

	res, err = m.Add(ctx, []string{"hello.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello.txt"}, res.Modified)

	changes, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, changes.Modified)
	assert.Empty(t, changes.Deleted)

	require.NoError(t, util.WriteFile(fs, "hello.txt", []byte("hello, world"), 0o644))
	require.NoError(t, fs.Remove("src/main.go"))
	changes, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello.txt"}, changes.Modified)
	assert.Equal(t, []string{"src/main.go"}, changes.Deleted)

	rm, err := m.Remove([]string{"hello.txt", "nope"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello.txt"}, rm.Removed)
	assert.Len(t, rm.Failed, 1)
	_, err = fs.Stat("hello.txt")
	assert.Error(t, err, "file deleted from disk")

	require.NoError(t, m.Clear())
	assert.Zero(t, m.Index().Count())
}

func TestManagerAddCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fs := memfs.New()
	m := NewManager(fs, ".git/index", store.NewMemoryStore(objects.SHA1))
	_, err := m.Add(ctx, []string{"x"})
	assert.Error(t, err)
}

type statInfo struct {
	size  int64
	mode  os.FileMode
	mtime time.Time
}

func (s statInfo) Name() string       { return "f" }
func (s statInfo) Size() int64        { return s.size }
func (s statInfo) Mode() os.FileMode  { return s.mode }
func (s statInfo) ModTime() time.Time { return s.mtime }
func (s statInfo) IsDir() bool        { return false }
func (s statInfo) Sys() any           { return nil }

func TestEntryIsModified(t *testing.T) {
	base := time.Unix(1700000000, 500)
	e := NewEntryFromFileInfo("f", statInfo{size: 4, mode: 0o644, mtime: base}, blobID("one\n"))

	tests := []struct {
		name string
		info statInfo
		want bool
	}{
		{"unchanged", statInfo{4, 0o644, base}, false},
		{"size", statInfo{5, 0o644, base}, true},
		{"mode", statInfo{4, 0o755, base}, true},
		{"same second, later nanoseconds", statInfo{4, 0o644, base.Add(time.Millisecond)}, true},
		{"later second", statInfo{4, 0o644, base.Add(time.Second)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsModified(tt.info))
		})
	}

	e.AssumeValid = true
	assert.False(t, e.IsModified(statInfo{5, 0o644, base}))
}

func TestEntryIsRacy(t *testing.T) {
	e := NewEntry("f", blobID("x"))
	e.ModificationTime = Timestamp{Seconds: 100, Nanoseconds: 5}

	assert.False(t, e.IsRacy(Timestamp{}), "no index file")
	assert.False(t, e.IsRacy(Timestamp{Seconds: 100, Nanoseconds: 6}))
	assert.True(t, e.IsRacy(Timestamp{Seconds: 100, Nanoseconds: 5}))
	assert.True(t, e.IsRacy(Timestamp{Seconds: 99}))
}

func TestManagerStatusRacilyCleanFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := osfs.New(dir)
	objs := store.NewMemoryStore(objects.SHA1)

	stamp := time.Unix(1700000000, 0)
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("one\n"), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.txt"), stamp, stamp))

	m := NewManager(fs, ".git/index", objs)
	require.NoError(t, m.Load())
	_, err := m.Add(ctx, []string{"a.txt"})
	require.NoError(t, err)
	// Index written in the same tick as the file.
	require.NoError(t, os.Chtimes(filepath.Join(dir, ".git", "index"), stamp, stamp))

	changes, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, changes.Modified)

	// Same size and the same mtime: only rehashing can notice the edit.
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("two\n"), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.txt"), stamp, stamp))

	changes, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, changes.Modified)
}

func TestManagerStatusSameSizeEdit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := osfs.New(dir)
	objs := store.NewMemoryStore(objects.SHA1)

	first := time.Unix(1700000000, 100)
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("one\n"), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.txt"), first, first))

	m := NewManager(fs, ".git/index", objs)
	require.NoError(t, m.Load())
	_, err := m.Add(ctx, []string{"a.txt"})
	require.NoError(t, err)

	second := first.Add(time.Millisecond)
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("two\n"), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.txt"), second, second))

	changes, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, changes.Modified)
}
