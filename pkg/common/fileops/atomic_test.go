package fileops

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestAtomicWrite_Success(t *testing.T) {
	fs := memfs.New()

	if err := AtomicWrite(fs, "refs/heads/main", []byte("abc\n"), 0o644); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	content, err := util.ReadFile(fs, "refs/heads/main")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "abc\n" {
		t.Errorf("content = %q, want %q", content, "abc\n")
	}
}

func TestAtomicWrite_Overwrite(t *testing.T) {
	fs := memfs.New()

	if err := AtomicWrite(fs, "HEAD", []byte("one"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := AtomicWrite(fs, "HEAD", []byte("two"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	content, err := util.ReadFile(fs, "HEAD")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "two" {
		t.Errorf("content = %q, want %q", content, "two")
	}
}

func TestAtomicWrite_NoTempLeftBehind(t *testing.T) {
	fs := memfs.New()

	if err := AtomicWrite(fs, "dir/file", []byte("x"), 0o644); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	entries, err := fs.ReadDir("dir")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "file" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected directory content: %v", names)
	}
}

func TestExistsAndReadIfExists(t *testing.T) {
	fs := memfs.New()

	ok, err := Exists(fs, "missing")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}

	data, found, err := ReadIfExists(fs, "missing")
	if err != nil || found || data != nil {
		t.Fatalf("ReadIfExists(missing) = %v, %v, %v", data, found, err)
	}

	if err := WriteFile(fs, "present", []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, found, err = ReadIfExists(fs, "present")
	if err != nil || !found || string(data) != "hi" {
		t.Fatalf("ReadIfExists(present) = %q, %v, %v", data, found, err)
	}
}
