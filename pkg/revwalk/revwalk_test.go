package revwalk

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/objects/tag"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/store"
)

type graph struct {
	t     *testing.T
	ctx   context.Context
	store *store.MemoryStore
	refs  *refs.Store
	ids   map[string]objects.ObjectID
	names map[objects.ObjectID]string
}

func newGraph(t *testing.T) *graph {
	t.Helper()
	g := &graph{
		t:     t,
		ctx:   context.Background(),
		store: store.NewMemoryStore(objects.SHA1),
		ids:   map[string]objects.ObjectID{},
		names: map[objects.ObjectID]string{},
	}
	g.refs = refs.NewStore(memfs.New(), refs.WithObjects(g.store))
	require.NoError(t, g.refs.Initialize())
	return g
}

// commit records a commit called name with the given committer time and
// parents (by name).
func (g *graph) commit(name string, when int64, parents ...string) objects.ObjectID {
	g.t.Helper()
	sig, err := commit.NewSignatureOffset("Dev", "dev@example.com", when, 0)
	require.NoError(g.t, err)

	b := commit.NewBuilder().Tree(objects.EmptyTreeID(objects.SHA1)).Author(sig).Message(name + "\n")
	for _, p := range parents {
		id, ok := g.ids[p]
		require.True(g.t, ok, "unknown parent %s", p)
		b.Parent(id)
	}
	c, err := b.Write(g.ctx, g.store)
	require.NoError(g.t, err)

	g.ids[name] = c.ID()
	g.names[c.ID()] = name
	return c.ID()
}

func (g *graph) walk(w *Walker) []string {
	g.t.Helper()
	var out []string
	for {
		id, err := w.Next(g.ctx)
		if errors.Is(err, ErrIterOver) {
			return out
		}
		require.NoError(g.t, err)
		out = append(out, g.names[id])
	}
}

// diamond builds
//
//	A <- B <- D
//	 \       /
//	  <- C <-
func diamond(g *graph, timeA int64) {
	g.commit("A", timeA)
	g.commit("B", 2, "A")
	g.commit("C", 3, "A")
	g.commit("D", 4, "B", "C")
}

func TestLinearHistory(t *testing.T) {
	g := newGraph(t)
	g.commit("C1", 1)
	g.commit("C2", 2, "C1")
	c3 := g.commit("C3", 3, "C2")

	for _, mode := range []Sort{SortNone, SortTime, SortTopological, SortTopological | SortTime} {
		w := New(g.store)
		w.Sorting(mode)
		require.NoError(t, w.Push(g.ctx, c3))
		if diff := cmp.Diff([]string{"C3", "C2", "C1"}, g.walk(w)); diff != "" {
			t.Errorf("mode %d (-want +got):\n%s", mode, diff)
		}
	}

	w := New(g.store)
	w.Sorting(SortTopological | SortReverse)
	require.NoError(t, w.Push(g.ctx, c3))
	assert.Equal(t, []string{"C1", "C2", "C3"}, g.walk(w))
}

func TestSortModes(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)

	tests := []struct {
		mode Sort
		want []string
	}{
		{SortNone, []string{"D", "B", "C", "A"}},
		{SortTime, []string{"D", "C", "B", "A"}},
		{SortTopological, []string{"D", "B", "C", "A"}},
		{SortTopological | SortTime, []string{"D", "C", "B", "A"}},
		{SortTime | SortReverse, []string{"A", "B", "C", "D"}},
		{SortNone | SortReverse, []string{"A", "C", "B", "D"}},
	}
	for _, tt := range tests {
		w := New(g.store)
		w.Sorting(tt.mode)
		require.NoError(t, w.Push(g.ctx, g.ids["D"]))
		if diff := cmp.Diff(tt.want, g.walk(w)); diff != "" {
			t.Errorf("mode %d (-want +got):\n%s", tt.mode, diff)
		}
	}
}

func TestTopologicalWithClockSkew(t *testing.T) {
	g := newGraph(t)
	diamond(g, 10) // A is "newer" than its children

	w := New(g.store)
	w.Sorting(SortTopological | SortTime)
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	order := g.walk(w)
	assert.Equal(t, []string{"D", "C", "B", "A"}, order)

	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	for child, parents := range map[string][]string{"D": {"B", "C"}, "B": {"A"}, "C": {"A"}} {
		for _, p := range parents {
			assert.Less(t, pos[child], pos[p], "%s must come before its parent %s", child, p)
		}
	}
}

func TestHide(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)

	w := New(g.store)
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	require.NoError(t, w.Hide(g.ctx, g.ids["B"]))
	assert.Equal(t, []string{"D", "C"}, g.walk(w))

	// pushing and hiding the same commit yields nothing
	require.NoError(t, w.Push(g.ctx, g.ids["C"]))
	require.NoError(t, w.Hide(g.ctx, g.ids["C"]))
	assert.Empty(t, g.walk(w))
}

func TestFirstParent(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)

	w := New(g.store)
	w.SimplifyFirstParent()
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	assert.Equal(t, []string{"D", "B", "A"}, g.walk(w))
}

func TestResetAndReuse(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)

	w := New(g.store)
	_, err := w.Next(g.ctx)
	assert.ErrorIs(t, err, ErrIterOver, "idle walker has nothing to produce")

	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	id, err := w.Next(g.ctx)
	require.NoError(t, err)
	assert.Equal(t, g.ids["D"], id)

	w.Reset()
	_, err = w.Next(g.ctx)
	assert.ErrorIs(t, err, ErrIterOver)

	// sorting survives a completed walk
	w.Sorting(SortTime)
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	assert.Equal(t, []string{"D", "C", "B", "A"}, g.walk(w))
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	assert.Equal(t, []string{"D", "C", "B", "A"}, g.walk(w))
}

func TestSortingRestartsWalk(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)

	w := New(g.store)
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	_, err := w.Next(g.ctx)
	require.NoError(t, err)

	w.Sorting(SortTime)
	assert.Equal(t, []string{"D", "C", "B", "A"}, g.walk(w))
}

func TestPushDuringWalk(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)
	g.commit("E", 5, "C")

	w := New(g.store)
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	id, err := w.Next(g.ctx)
	require.NoError(t, err)
	assert.Equal(t, g.ids["D"], id)

	require.NoError(t, w.Push(g.ctx, g.ids["E"]))
	rest := g.walk(w)
	assert.ElementsMatch(t, []string{"B", "C", "A", "E"}, rest)
}

func TestPushErrors(t *testing.T) {
	g := newGraph(t)
	blobID, err := g.store.WriteObject(g.ctx, objects.BlobType, []byte("not a commit"))
	require.NoError(t, err)

	w := New(g.store)
	err = w.Push(g.ctx, blobID)
	assert.True(t, errs.IsInvalidArgument(err), "got %v", err)

	err = w.Push(g.ctx, objects.ComputeID(objects.SHA1, objects.CommitType, []byte("missing")))
	assert.True(t, errs.IsNotFound(err), "got %v", err)

	err = w.PushHead(g.ctx)
	assert.True(t, errs.IsUnsupported(err), "walker without refs: %v", err)
}

func TestPushAnnotatedTag(t *testing.T) {
	g := newGraph(t)
	c1 := g.commit("C1", 1)

	tg, err := tag.New(c1, objects.CommitType, "v1", nil, "release\n")
	require.NoError(t, err)
	tagID, err := tag.Create(g.ctx, g.store, tg)
	require.NoError(t, err)

	w := New(g.store)
	require.NoError(t, w.Push(g.ctx, tagID))
	assert.Equal(t, []string{"C1"}, g.walk(w))
}

func TestRefsAndGlobs(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)
	g.commit("F", 6, "A")

	_, err := g.refs.CreateBranch(g.ctx, "main", g.ids["D"], false)
	require.NoError(t, err)
	_, err = g.refs.CreateBranch(g.ctx, "topic", g.ids["F"], false)
	require.NoError(t, err)
	require.NoError(t, g.refs.SetHead("main"))

	w := New(g.store, WithRefs(g.refs))
	w.Sorting(SortTime)
	require.NoError(t, w.PushGlob(g.ctx, "refs/heads"))
	assert.Equal(t, []string{"F", "D", "C", "B", "A"}, g.walk(w))

	require.NoError(t, w.PushRef(g.ctx, "refs/heads/topic"))
	require.NoError(t, w.HideHead(g.ctx))
	assert.Equal(t, []string{"F"}, g.walk(w))

	require.NoError(t, w.PushHead(g.ctx))
	require.NoError(t, w.HideGlob(g.ctx, "refs/heads/top*"))
	assert.Equal(t, []string{"D", "C", "B"}, g.walk(w))

	err = w.PushRef(g.ctx, "refs/heads/missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestIter(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)

	w := New(g.store)
	w.Sorting(SortTime)
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))

	var seen []string
	err := w.Iter(g.ctx, func(c *commit.Commit) error {
		seen = append(seen, c.Summary())
		if len(seen) == 2 {
			return ErrStop
		}
		return nil
	})
	assert.True(t, errs.IsCancelled(err))
	assert.Equal(t, []string{"D", "C"}, seen)

	_, err = w.Next(g.ctx)
	assert.ErrorIs(t, err, ErrIterOver, "Iter resets the walker")

	require.NoError(t, w.Push(g.ctx, g.ids["B"]))
	seen = nil
	require.NoError(t, w.Iter(g.ctx, func(c *commit.Commit) error {
		seen = append(seen, c.Summary())
		return nil
	}))
	assert.Equal(t, []string{"B", "A"}, seen)
}

func TestNextCancelled(t *testing.T) {
	g := newGraph(t)
	diamond(g, 1)

	w := New(g.store)
	require.NoError(t, w.Push(g.ctx, g.ids["D"]))
	ctx, cancel := context.WithCancel(g.ctx)
	cancel()
	_, err := w.Next(ctx)
	assert.True(t, errs.IsCancelled(err))
}
