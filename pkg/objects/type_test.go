package objects

import (
	"testing"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

func TestDecodeEnvelope(t *testing.T) {
	kind, payload, err := DecodeEnvelope(Encode(BlobType, []byte("hello")))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if kind != BlobType || string(payload) != "hello" {
		t.Errorf("got %s %q", kind, payload)
	}
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	tests := map[string]string{
		"no nul":        "blob 5hello",
		"no space":      "blob5\x00hello",
		"bad type":      "blub 5\x00hello",
		"bad size":      "blob x\x00hello",
		"size mismatch": "blob 6\x00hello",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeEnvelope([]byte(input))
			if !errs.IsCorrupted(err) {
				t.Errorf("expected CORRUPTED, got %v", err)
			}
		})
	}
}

func TestParseObjectType(t *testing.T) {
	for _, s := range []string{"blob", "tree", "commit", "tag"} {
		if _, err := ParseObjectType(s); err != nil {
			t.Errorf("ParseObjectType(%q): %v", s, err)
		}
	}
	if _, err := ParseObjectType("note"); !errs.IsInvalidArgument(err) {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestParseFileMode(t *testing.T) {
	tests := []struct {
		in   string
		want FileMode
		ok   bool
	}{
		{"100644", FileModeRegular, true},
		{"100755", FileModeExecutable, true},
		{"120000", FileModeSymlink, true},
		{"40000", FileModeTree, true},
		{"040000", FileModeTree, true},
		{"160000", FileModeSubmodule, true},
		{"100664", FileModeRegular, true},
		{"100600", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseFileMode(tt.in)
		if tt.ok && err != nil {
			t.Errorf("ParseFileMode(%q) unexpected error %v", tt.in, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ParseFileMode(%q) expected error", tt.in)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFileMode(%q) = %o, want %o", tt.in, got, tt.want)
		}
	}
}

func TestFileModeObjectType(t *testing.T) {
	if FileModeTree.ObjectType() != TreeType {
		t.Error("tree mode should point at trees")
	}
	if FileModeCommit.ObjectType() != CommitType {
		t.Error("gitlink mode should point at commits")
	}
	if FileModeSymlink.ObjectType() != BlobType {
		t.Error("symlink mode should point at blobs")
	}
	if FileModeTree.String() != "40000" {
		t.Errorf("tree mode serializes as %q", FileModeTree.String())
	}
}
