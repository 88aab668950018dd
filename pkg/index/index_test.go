package index

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

func blobID(content string) objects.ObjectID {
	return objects.ComputeID(objects.SHA1, objects.BlobType, []byte(content))
}

func testEntry(path string) *Entry {
	e := NewEntry(path, blobID(path))
	e.SizeInBytes = uint32(len(path))
	e.ModificationTime = Timestamp{Seconds: 1234567890, Nanoseconds: 42}
	e.CreationTime = Timestamp{Seconds: 1234567890}
	return e
}

func TestIndexAddKeepsOrder(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"sorted", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"reversed", []string{"c", "b", "a"}, []string{"a", "b", "c"}},
		{"nested", []string{"src/z.go", "README", "src/a.go"}, []string{"README", "src/a.go", "src/z.go"}},
		{"duplicate", []string{"a", "a", "b"}, []string{"a", "b"}},
		{"byte order", []string{"foo/bar", "foo.txt", "foo-bar"}, []string{"foo-bar", "foo.txt", "foo/bar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(objects.SHA1)
			for _, p := range tt.paths {
				idx.Add(testEntry(p))
			}
			got := idx.Paths()
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Paths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndexStages(t *testing.T) {
	idx := New(objects.SHA1)
	for stage := uint8(3); stage >= 1; stage-- {
		e := testEntry("conflict.txt")
		e.Stage = stage
		idx.Add(e)
	}
	idx.Add(testEntry("clean.txt"))

	if idx.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", idx.Count())
	}
	if !idx.Conflicted() {
		t.Error("Conflicted() = false")
	}
	if _, ok := idx.Get("conflict.txt"); ok {
		t.Error("Get should only return stage 0 entries")
	}
	if got := idx.Paths(); len(got) != 2 {
		t.Errorf("Paths() = %v", got)
	}
	if !idx.Remove("conflict.txt") {
		t.Fatal("Remove reported nothing removed")
	}
	if idx.Count() != 1 || idx.Conflicted() {
		t.Errorf("after Remove: count %d conflicted %v", idx.Count(), idx.Conflicted())
	}
	if idx.Remove("conflict.txt") {
		t.Error("second Remove should report false")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	idx := New(objects.SHA1)
	for _, p := range []string{"a", "dir/sub/file.txt", "exactly-eight", "x"} {
		idx.Add(testEntry(p))
	}
	exec := testEntry("run.sh")
	exec.Mode = objects.FileModeExecutable
	exec.AssumeValid = true
	idx.Add(exec)

	data := idx.Encode()
	if !bytes.HasPrefix(data, []byte("DIRC\x00\x00\x00\x02\x00\x00\x00\x05")) {
		t.Fatalf("bad header % x", data[:12])
	}

	got, err := Decode(data, objects.SHA1)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Count() != idx.Count() {
		t.Fatalf("Count() = %d, want %d", got.Count(), idx.Count())
	}
	for i, e := range got.Entries() {
		want := idx.Entries()[i]
		if *e != *want {
			t.Errorf("entry %d = %+v, want %+v", i, e, want)
		}
	}
	if !bytes.Equal(got.Encode(), data) {
		t.Error("re-encoding changed the bytes")
	}
}

func TestEntryPadding(t *testing.T) {
	// 62 fixed bytes with SHA-1; the NUL always fits inside the padding
	for n := 1; n <= 16; n++ {
		var buf bytes.Buffer
		e := testEntry(string(bytes.Repeat([]byte("p"), n)))
		e.encode(&buf)
		if buf.Len()%8 != 0 {
			t.Errorf("path length %d: entry size %d not aligned", n, buf.Len())
		}
		if buf.Bytes()[62+n] != 0 {
			t.Errorf("path length %d: missing NUL terminator", n)
		}
	}
}

func TestDecodeCorrupted(t *testing.T) {
	idx := New(objects.SHA1)
	idx.Add(testEntry("file"))
	good := idx.Encode()

	flipped := bytes.Clone(good)
	flipped[20] ^= 0xff

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", good[:20]},
		{"checksum", flipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, objects.SHA1)
			if !errs.IsCorrupted(err) {
				t.Errorf("Decode() error = %v, want CORRUPTED", err)
			}
		})
	}
}

func TestReadWrite(t *testing.T) {
	fs := memfs.New()

	idx, err := Read(fs, ".git/index", objects.SHA1)
	if err != nil {
		t.Fatalf("Read missing: %v", err)
	}
	if idx.Count() != 0 {
		t.Fatalf("missing index should be empty, got %d entries", idx.Count())
	}

	idx.Add(testEntry("hello.txt"))
	if err := idx.Write(fs, ".git/index"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	again, err := Read(fs, ".git/index", objects.SHA1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	e, ok := again.Get("hello.txt")
	if !ok {
		t.Fatal("hello.txt missing after round trip")
	}
	if e.ID != blobID("hello.txt") {
		t.Errorf("ID = %s", e.ID)
	}
}

func TestTimestamp(t *testing.T) {
	a := Timestamp{Seconds: 10, Nanoseconds: 5}
	b := Timestamp{Seconds: 10, Nanoseconds: 6}
	if !a.Before(b) || b.Before(a) {
		t.Error("Before ordering wrong")
	}
	if !a.Equal(NewTimestamp(a.Time())) {
		t.Error("Time round trip lost precision")
	}
	if (Timestamp{}).String() != "0" {
		t.Error("zero timestamp string")
	}
}

func TestEntryFlags(t *testing.T) {
	f := NewEntryFlags(true, 2, 5000)
	if !f.AssumeValid() || f.Stage() != 2 || f.FilenameLength() != MaxFilenameLength || f.Extended() {
		t.Errorf("flags %016b decoded wrong", f)
	}
}
