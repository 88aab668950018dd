package commit

import (
	"strings"
	"testing"
	"time"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

func TestNewSignature(t *testing.T) {
	tests := []struct {
		name    string
		pname   string
		email   string
		wantErr bool
	}{
		{name: "valid", pname: "John Doe", email: "john@example.com"},
		{name: "trimmed", pname: "  Jane  ", email: " jane@example.com "},
		{name: "empty name", pname: "", email: "a@b.c", wantErr: true},
		{name: "blank name", pname: "   ", email: "a@b.c", wantErr: true},
		{name: "empty email", pname: "A", email: "", wantErr: true},
		{name: "angle bracket in name", pname: "A <B", email: "a@b.c", wantErr: true},
		{name: "angle bracket in email", pname: "A", email: "a>b", wantErr: true},
		{name: "newline", pname: "A\nB", email: "a@b.c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := NewSignature(tt.pname, tt.email, time.Unix(1609459200, 0))
			if tt.wantErr {
				if !errs.IsInvalidArgument(err) {
					t.Fatalf("NewSignature() error = %v, want INVALID_ARGUMENT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSignature() error = %v", err)
			}
			if sig.Name != strings.TrimSpace(tt.pname) || sig.Email != strings.TrimSpace(tt.email) {
				t.Errorf("NewSignature() = %q <%q>", sig.Name, sig.Email)
			}
		})
	}
}

func TestParseSignature(t *testing.T) {
	tests := []struct {
		input      string
		wantName   string
		wantEmail  string
		wantUnix   int64
		wantOffset int
	}{
		{"John Doe <john@example.com> 1700000000 +0530", "John Doe", "john@example.com", 1700000000, 330},
		{"A <a@b.c> 0 -0800", "A", "a@b.c", 0, -480},
		{"A <a@b.c> 42 +0000", "A", "a@b.c", 42, 0},
		{"<nobody@x> 1 -0030", "", "nobody@x", 1, -30},
		{"A <a@b.c> 7", "A", "a@b.c", 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sig, err := ParseSignature(tt.input)
			if err != nil {
				t.Fatalf("ParseSignature() error = %v", err)
			}
			if sig.Name != tt.wantName || sig.Email != tt.wantEmail {
				t.Errorf("got %q <%q>", sig.Name, sig.Email)
			}
			if sig.When.Unix() != tt.wantUnix {
				t.Errorf("unix = %d, want %d", sig.When.Unix(), tt.wantUnix)
			}
			if sig.Offset() != tt.wantOffset {
				t.Errorf("offset = %d, want %d", sig.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestParseSignature_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"John Doe john@example.com 1 +0000",
		"John <john@example.com 1 +0000",
		"John <j@x>",
		"John <j@x> soon +0000",
		"John <j@x> 1 0530",
		"John <j@x> 1 +05",
	} {
		if _, err := ParseSignature(input); !errs.IsInvalidArgument(err) {
			t.Errorf("ParseSignature(%q) error = %v, want INVALID_ARGUMENT", input, err)
		}
	}
}

func TestSignature_StringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"John Doe <john@example.com> 1700000000 +0530",
		"A <a@b.c> 1609459200 -0800",
		"A <a@b.c> 1609459200 +0000",
		"A <a@b.c> 1609459200 -0030",
	} {
		sig, err := ParseSignature(s)
		if err != nil {
			t.Fatalf("ParseSignature(%q) error = %v", s, err)
		}
		if got := sig.String(); got != s {
			t.Errorf("String() = %q, want %q", got, s)
		}
	}
}

func TestNewSignatureOffset(t *testing.T) {
	sig, err := NewSignatureOffset("A", "a@b.c", 1000, -300)
	if err != nil {
		t.Fatal(err)
	}
	if sig.Offset() != -300 {
		t.Errorf("Offset() = %d", sig.Offset())
	}
	if got, want := sig.String(), "A <a@b.c> 1000 -0500"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	other, _ := ParseSignature(sig.String())
	if !sig.Equal(other) {
		t.Errorf("Equal() = false for %v and %v", sig, other)
	}
	shifted, _ := NewSignatureOffset("A", "a@b.c", 1000, 0)
	if sig.Equal(shifted) {
		t.Error("signatures with different offsets compared equal")
	}
}
