package diff

import (
	"context"
	"strconv"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/store"
)

func findSimilar(t *testing.T, old, cur map[string]file, diffOpts *Options, opts *FindOptions) []string {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)
	d, err := Compute(ctx, s, TreeSource(buildTree(t, s, old)), TreeSource(buildTree(t, s, cur)), diffOpts)
	require.NoError(t, err)
	before := deltaStrings(d)

	found, err := FindSimilar(ctx, d, opts)
	require.NoError(t, err)
	assert.Equal(t, before, deltaStrings(d), "input diff must not change")
	return deltaStrings(found)
}

func TestFindSimilarRenames(t *testing.T) {
	ten := numbered(10, nil)
	edited := numbered(10, map[int]string{5: "changed"})

	tests := []struct {
		name     string
		old, cur map[string]file
		opts     *FindOptions
		want     []string
	}{
		{
			name: "exact",
			old:  map[string]file{"a.txt": text(ten)},
			cur:  map[string]file{"b.txt": text(ten)},
			want: []string{"R100 a.txt -> b.txt"},
		},
		{
			name: "similar",
			old:  map[string]file{"a.txt": text(ten)},
			cur:  map[string]file{"b.txt": text(edited)},
			want: []string{"R090 a.txt -> b.txt"},
		},
		{
			name: "below threshold",
			old:  map[string]file{"a.txt": text(ten)},
			cur:  map[string]file{"b.txt": text(edited)},
			opts: &FindOptions{Renames: true, RenameThreshold: 95},
			want: []string{"D a.txt", "A b.txt"},
		},
		{
			name: "disabled",
			old:  map[string]file{"a.txt": text(ten)},
			cur:  map[string]file{"b.txt": text(ten)},
			opts: &FindOptions{},
			want: []string{"D a.txt", "A b.txt"},
		},
		{
			name: "source renamed once",
			old:  map[string]file{"a": text(ten)},
			cur:  map[string]file{"b": text(ten), "c": text(ten)},
			want: []string{"R100 a -> b", "A c"},
		},
		{
			name: "unrelated",
			old:  map[string]file{"a": text("x\ny\n")},
			cur:  map[string]file{"b": text("p\nq\n")},
			want: []string{"D a", "A b"},
		},
		{
			name: "rewrite",
			old:  map[string]file{"a": text(ten), "b": text("p\nq\n")},
			cur:  map[string]file{"b": text(edited)},
			opts: &FindOptions{Renames: true, RenameFromRewriteThreshold: 50},
			want: []string{"R090 a -> b", "D b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findSimilar(t, tt.old, tt.cur, nil, tt.opts))
		})
	}
}

func TestFindSimilarCopies(t *testing.T) {
	orig := numbered(6, nil)
	old := map[string]file{"orig": text(orig), "keep": text("keep\n")}
	cur := map[string]file{"orig": text(orig + "more\n"), "keep": text("keep\n"), "copy": text(orig)}

	got := findSimilar(t, old, cur, nil, &FindOptions{Copies: true})
	assert.Equal(t, []string{"C100 orig -> copy", "M orig"}, got)

	got = findSimilar(t, old, cur, nil, nil)
	assert.Equal(t, []string{"A copy", "M orig"}, got)

	old = map[string]file{"keep": text(orig)}
	cur = map[string]file{"keep": text(orig), "dup": text(orig)}
	got = findSimilar(t, old, cur, &Options{IncludeUnmodified: true}, &FindOptions{CopiesFromUnmodified: true})
	assert.Equal(t, []string{"C100 keep -> dup", "U keep"}, got)
}

func TestFindSimilarRenameLimit(t *testing.T) {
	a := numbered(10, nil)
	b := numbered(10, map[int]string{1: "b1", 2: "b2", 3: "b3", 4: "b4", 5: "b5", 6: "b6", 7: "b7", 8: "b8", 9: "b9", 10: "b10"})
	bEdited := numbered(10, map[int]string{1: "b1", 2: "b2", 3: "b3", 4: "b4", 5: "b5", 6: "b6", 7: "b7", 8: "b8", 9: "b9", 10: "changed"})
	old := map[string]file{"a": text(a), "b": text(b)}
	cur := map[string]file{"c": text(a), "d": text(bEdited)}

	got := findSimilar(t, old, cur, nil, nil)
	assert.Equal(t, []string{"R100 a -> c", "R090 b -> d"}, got)

	got = findSimilar(t, old, cur, nil, &FindOptions{Renames: true, RenameLimit: 1})
	assert.Equal(t, []string{"D b", "R100 a -> c", "A d"}, got)
}

func TestFindSimilarDeterministic(t *testing.T) {
	ten := numbered(10, nil)
	old := map[string]file{"x": text(ten), "y": text(ten + "y\n")}
	cur := map[string]file{"p": text(ten + "p\n"), "q": text(ten + "q\n"), "r": text(ten + "r\n")}

	first := findSimilar(t, old, cur, nil, nil)
	for range 5 {
		assert.Equal(t, first, findSimilar(t, old, cur, nil, nil))
	}
	assert.Len(t, first, 3)
}

func TestFindSimilarRewriteKeepsOldSide(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)
	ten := numbered(10, nil)
	old := map[string]file{"a.txt": text(ten), "b.txt": text("old b\n")}
	cur := map[string]file{"b.txt": text(ten)}
	d, err := Compute(ctx, s, TreeSource(buildTree(t, s, old)), TreeSource(buildTree(t, s, cur)), nil)
	require.NoError(t, err)

	found, err := FindSimilar(ctx, d, &FindOptions{Renames: true, RenameFromRewriteThreshold: 50})
	require.NoError(t, err)
	require.Equal(t, []string{"R100 a.txt -> b.txt", "D b.txt"}, deltaStrings(found))

	gone, err := found.Delta(1)
	require.NoError(t, err)
	assert.False(t, gone.NewFile.Exists())
	data, err := gone.oldContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old b\n", string(data))
}

func TestFindSimilarCancelled(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)
	d, err := Compute(ctx, s, BufferSource("a", []byte("1\n2\n")), EmptySource(), nil)
	require.NoError(t, err)
	added, err := Compute(ctx, s, EmptySource(), BufferSource("b", []byte("1\n3\n")), nil)
	require.NoError(t, err)
	require.NoError(t, Merge(d, added))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = FindSimilar(cctx, d, nil)
	assert.True(t, errs.IsCancelled(err))
}

type mapConfig map[string]string

func (m mapConfig) GetString(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errs.Newf("config", errs.CodeNotFound, "get", "%s not set", key)
	}
	return v, nil
}

func (m mapConfig) GetBool(key string) (bool, error) {
	v, err := m.GetString(key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.New("config", errs.CodeInvalidArgument, "get", key, err)
	}
	return b, nil
}

func (m mapConfig) GetInt64(key string) (int64, error) {
	v, err := m.GetString(key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func TestFindOptionsFromConfig(t *testing.T) {
	o, err := FindOptionsFromConfig(mapConfig{})
	require.NoError(t, err)
	assert.True(t, o.Renames)
	assert.False(t, o.Copies)
	assert.Equal(t, DefaultRenameLimit, o.RenameLimit)

	o, err = FindOptionsFromConfig(mapConfig{"diff.renames": "copies", "diff.renamelimit": "50"})
	require.NoError(t, err)
	assert.True(t, o.Copies)
	assert.Equal(t, 50, o.RenameLimit)

	o, err = FindOptionsFromConfig(mapConfig{"diff.renames": "false"})
	require.NoError(t, err)
	assert.False(t, o.Renames)

	_, err = FindOptionsFromConfig(mapConfig{"diff.renames": "maybe"})
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestHashMetric(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "a", []byte("a\n\n  b  \n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "b", []byte("a\nb\n"), 0o644))
	m := NewHashMetric(fs)

	sa, err := m.FileSignature("a")
	require.NoError(t, err)
	sb, err := m.FileSignature("b")
	require.NoError(t, err)
	score, err := m.Similarity(sa, sb)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	sc, err := m.BufferSignature("c", []byte("a\nc\nd\ne\n"))
	require.NoError(t, err)
	score, err = m.Similarity(sa, sc)
	require.NoError(t, err)
	assert.Equal(t, 33, score)

	empty, err := m.BufferSignature("e", nil)
	require.NoError(t, err)
	score, err = m.Similarity(empty, empty)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	_, err = m.Similarity(sa, "nope")
	assert.True(t, errs.IsInvalidArgument(err))

	_, err = m.FileSignature("missing")
	assert.True(t, errs.IsStorage(err))
	m.Free(sa)
}
