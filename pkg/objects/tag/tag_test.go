package tag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/store"
)

func TestNew_SerializeParse(t *testing.T) {
	tagger, err := commit.NewSignatureOffset("Rel Eng", "rel@example.com", 1700000000, 120)
	require.NoError(t, err)
	target := objects.EmptyTreeID(objects.SHA1)

	tg, err := New(target, objects.TreeType, "v1.0.0", tagger, "Release 1.0\n")
	require.NoError(t, err)

	want := "object 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
		"type tree\n" +
		"tag v1.0.0\n" +
		"tagger Rel Eng <rel@example.com> 1700000000 +0200\n" +
		"\n" +
		"Release 1.0\n"
	assert.Equal(t, want, string(tg.Serialize()))
	assert.Equal(t, objects.ComputeID(objects.SHA1, objects.TagType, []byte(want)), tg.ID())

	parsed, err := Parse(tg.ID(), tg.Serialize())
	require.NoError(t, err)
	assert.Equal(t, target, parsed.Target())
	assert.Equal(t, objects.TreeType, parsed.TargetType())
	assert.Equal(t, "v1.0.0", parsed.Name())
	assert.True(t, tagger.Equal(parsed.Tagger()))
	assert.Equal(t, "Release 1.0\n", parsed.Message())
	assert.Equal(t, want, string(parsed.Serialize()))
}

func TestNew_WithoutTagger(t *testing.T) {
	tg, err := New(objects.EmptyTreeID(objects.SHA1), objects.TreeType, "light", nil, "")
	require.NoError(t, err)
	assert.NotContains(t, string(tg.Serialize()), "tagger")

	parsed, err := Parse(tg.ID(), tg.Serialize())
	require.NoError(t, err)
	assert.Nil(t, parsed.Tagger())
}

func TestNew_Invalid(t *testing.T) {
	target := objects.EmptyTreeID(objects.SHA1)
	_, err := New(objects.ObjectID{}, objects.TreeType, "v1", nil, "")
	assert.True(t, errs.IsInvalidArgument(err))
	_, err = New(target, objects.ObjectType("nope"), "v1", nil, "")
	assert.True(t, errs.IsInvalidArgument(err))
	_, err = New(target, objects.TreeType, "", nil, "")
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestParse_Corrupted(t *testing.T) {
	id := objects.ComputeID(objects.SHA1, objects.TagType, nil)
	for name, data := range map[string]string{
		"missing object": "type tree\ntag v1\n\n",
		"missing type":   "object 4b825dc642cb6eb9a060e54bf8d69288fbee4904\ntag v1\n\n",
		"missing name":   "object 4b825dc642cb6eb9a060e54bf8d69288fbee4904\ntype tree\n\n",
		"bad type":       "object 4b825dc642cb6eb9a060e54bf8d69288fbee4904\ntype bogus\ntag v1\n\n",
		"bad tagger":     "object 4b825dc642cb6eb9a060e54bf8d69288fbee4904\ntype tree\ntag v1\ntagger x\n\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(id, []byte(data))
			assert.True(t, errs.IsCorrupted(err), "got %v", err)
		})
	}
}

func TestPeel(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(objects.SHA1)

	treeID, err := s.WriteObject(ctx, objects.TreeType, nil)
	require.NoError(t, err)

	inner, err := New(treeID, objects.TreeType, "inner", nil, "inner\n")
	require.NoError(t, err)
	innerID, err := Create(ctx, s, inner)
	require.NoError(t, err)
	assert.Equal(t, inner.ID(), innerID)

	outer, err := New(innerID, objects.TagType, "outer", nil, "outer\n")
	require.NoError(t, err)
	outerID, err := Create(ctx, s, outer)
	require.NoError(t, err)

	raw, err := Peel(ctx, s, outerID)
	require.NoError(t, err)
	assert.Equal(t, objects.TreeType, raw.Type)
	assert.Equal(t, treeID, raw.ID)

	raw, err = Peel(ctx, s, treeID)
	require.NoError(t, err)
	assert.Equal(t, treeID, raw.ID)

	got, err := Lookup(ctx, s, outerID)
	require.NoError(t, err)
	assert.Equal(t, "outer", got.Name())

	_, err = Lookup(ctx, s, treeID)
	assert.True(t, errs.IsInvalidArgument(err))

	_, err = Peel(ctx, s, objects.ComputeID(objects.SHA1, objects.BlobType, []byte("missing")))
	assert.True(t, errs.IsNotFound(err))
}
