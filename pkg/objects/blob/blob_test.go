package blob

import (
	"bytes"
	"testing"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

func TestNew(t *testing.T) {
	b := New(objects.SHA1, []byte("hello"))

	if b.Size() != 5 {
		t.Errorf("Size() = %d, want 5", b.Size())
	}
	if got := b.ID().String(); got != "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0" {
		t.Errorf("ID() = %s", got)
	}
	if b.IsBinary() {
		t.Error("text blob reported as binary")
	}
}

func TestFromRaw_WrongType(t *testing.T) {
	raw := &objects.RawObject{Type: objects.TreeType}
	if _, err := FromRaw(raw); !errs.IsInvalidArgument(err) {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestIsBinary(t *testing.T) {
	if !IsBinary([]byte("ab\x00cd")) {
		t.Error("NUL byte should mark content binary")
	}

	late := append(bytes.Repeat([]byte("a"), binarySniffLen), 0)
	if IsBinary(late) {
		t.Error("NUL past the sniff window should be ignored")
	}
}
