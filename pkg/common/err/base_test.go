package err

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"full", New("store", CodeNotFound, "read_object", "no such object", errors.New("open: missing")),
			"[store][NOT_FOUND]: read_object: no such object: open: missing"},
		{"no message", New("refs", CodeConflict, "update", "", nil), "[refs][CONFLICT]: update"},
		{"cause only", &Error{Err: errors.New("boom")}, "boom"},
		{"formatted", Newf("diff", CodeInvalidArgument, "compute", "bad context %d", -1),
			"[diff][INVALID_ARGUMENT]: compute: bad context -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapKeepsCode(t *testing.T) {
	inner := New("store", CodeCorrupted, "read_object", "hash mismatch", nil)
	outer := Wrap(fmt.Errorf("loading: %w", Wrap(inner, "tree", "lookup")), "blame", "blame")

	assert.Equal(t, CodeCorrupted, GetCode(outer))
	assert.True(t, IsCorrupted(outer))
	assert.False(t, IsNotFound(outer))
	assert.Equal(t, "blame", GetPackage(outer))
	assert.Equal(t, "blame", GetOp(outer))
	assert.True(t, errors.Is(outer, &Error{Code: CodeCorrupted}))

	assert.NoError(t, Wrap(nil, "x", "y"))
	assert.NoError(t, WrapWithCode(nil, "x", CodeStorage, "y"))
	assert.True(t, IsStorage(WrapWithCode(errors.New("disk"), "x", CodeStorage, "y")))
	assert.Empty(t, GetCode(errors.New("plain")))
}

func TestKindPredicates(t *testing.T) {
	exists := New("refs", CodeAlreadyExists, "create", "", nil)
	assert.True(t, IsAlreadyExists(exists))
	assert.True(t, IsConflict(exists))
	assert.False(t, IsAlreadyExists(New("refs", CodeConflict, "update", "", nil)))
	assert.True(t, IsUnsupported(New("repository", CodeUnsupported, "checkout", "", nil)))
	assert.True(t, IsInvalidArgument(New("objects", CodeInvalidArgument, "parse", "", nil)))
}

func TestContextErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, CheckContext(ctx, "revwalk", "next"))
	cancel()

	err := CheckContext(ctx, "revwalk", "next")
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "revwalk", GetPackage(err))

	// Already cancelled errors are not wrapped twice.
	assert.Same(t, err, FromContext("blame", "blame", err))
	assert.NoError(t, FromContext("blame", "blame", nil))
	assert.True(t, IsCancelled(context.DeadlineExceeded))
}

func TestContextValues(t *testing.T) {
	e := New("worktree", CodeConflict, "checkout", "", nil)
	assert.Nil(t, e.GetContext("path"))
	e.WithContext("path", "a.txt").WithContext("count", 2)
	assert.Equal(t, "a.txt", e.GetContext("path"))
	assert.Equal(t, 2, e.GetContext("count"))
}
