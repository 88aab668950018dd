package objects

import (
	"bytes"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"github.com/minio/sha256-simd"
	"github.com/pjbgf/sha1cd"
	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

const pkgName = "objects"

// HashAlgorithm selects the digest used for object ids.
type HashAlgorithm uint8

const (
	SHA1 HashAlgorithm = iota + 1
	SHA256
)

const (
	// SHA1Size is the raw size of a SHA-1 object id.
	SHA1Size = 20
	// SHA256Size is the raw size of a SHA-256 object id.
	SHA256Size = 32
	// ShortLength is the default length of abbreviated ids.
	ShortLength = 7

	maxIDSize = SHA256Size
)

// Size returns the raw digest size.
func (a HashAlgorithm) Size() int {
	switch a {
	case SHA256:
		return SHA256Size
	default:
		return SHA1Size
	}
}

// HexSize returns the length of the hex form.
func (a HashAlgorithm) HexSize() int {
	return a.Size() * 2
}

func (a HashAlgorithm) String() string {
	switch a {
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// NewHasher returns a fresh digest for the algorithm. SHA-1 uses the
// collision-detecting implementation.
func NewHasher(a HashAlgorithm) hash.Hash {
	if a == SHA256 {
		return sha256.New()
	}
	return sha1cd.New()
}

// ObjectID is the content hash of a stored object. It is a comparable value
// and can be used as a map key. The zero value is the invalid id.
type ObjectID struct {
	algo HashAlgorithm
	sum  [maxIDSize]byte
}

// FromBytes builds an id from a raw digest.
func FromBytes(algo HashAlgorithm, raw []byte) (ObjectID, error) {
	if algo != SHA1 && algo != SHA256 {
		return ObjectID{}, errs.Newf(pkgName, errs.CodeInvalidArgument, "from_bytes", "unknown hash algorithm %d", algo)
	}
	if len(raw) != algo.Size() {
		return ObjectID{}, errs.Newf(pkgName, errs.CodeInvalidArgument, "from_bytes",
			"expected %d bytes for %s, got %d", algo.Size(), algo, len(raw))
	}
	id := ObjectID{algo: algo}
	copy(id.sum[:], raw)
	return id, nil
}

// ParseObjectID parses 40 (SHA-1) or 64 (SHA-256) hex characters.
func ParseObjectID(s string) (ObjectID, error) {
	var algo HashAlgorithm
	switch len(s) {
	case SHA1Size * 2:
		algo = SHA1
	case SHA256Size * 2:
		algo = SHA256
	default:
		return ObjectID{}, errs.Newf(pkgName, errs.CodeInvalidArgument, "parse_id",
			"object id must be 40 or 64 hex characters, got %d", len(s))
	}

	id := ObjectID{algo: algo}
	if _, err := hex.Decode(id.sum[:algo.Size()], []byte(s)); err != nil {
		return ObjectID{}, errs.New(pkgName, errs.CodeInvalidArgument, "parse_id", "invalid hex in object id", err)
	}
	return id, nil
}

// MustParseObjectID is ParseObjectID for constants and tests.
func MustParseObjectID(s string) ObjectID {
	id, err := ParseObjectID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsHex reports whether s is a plausible full or abbreviated hex id.
func IsHex(s string) bool {
	if s == "" || len(s) > SHA256Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// ZeroID is the all-zero id for an algorithm. It marks "no object", e.g.
// uncommitted lines in a blame.
func ZeroID(algo HashAlgorithm) ObjectID {
	return ObjectID{algo: algo}
}

// Algorithm returns the id's hash algorithm.
func (id ObjectID) Algorithm() HashAlgorithm { return id.algo }

// IsValid is false only for the zero value of ObjectID.
func (id ObjectID) IsValid() bool { return id.algo != 0 }

// IsZero reports whether every byte of the digest is zero.
func (id ObjectID) IsZero() bool {
	return id.sum == [maxIDSize]byte{}
}

// Bytes returns a copy of the raw digest.
func (id ObjectID) Bytes() []byte {
	out := make([]byte, id.algo.Size())
	copy(out, id.sum[:])
	return out
}

// String returns the lowercase hex form.
func (id ObjectID) String() string {
	if !id.IsValid() {
		return ""
	}
	return hex.EncodeToString(id.sum[:id.algo.Size()])
}

// Short returns the first ShortLength hex characters.
func (id ObjectID) Short() string {
	return id.ShortN(ShortLength)
}

// ShortN returns the first n hex characters.
func (id ObjectID) ShortN(n int) string {
	s := id.String()
	if n <= 0 || n > len(s) {
		return s
	}
	return s[:n]
}

// HasPrefix reports whether the hex form starts with prefix.
func (id ObjectID) HasPrefix(prefix string) bool {
	return strings.HasPrefix(id.String(), strings.ToLower(prefix))
}

// Equal compares byte-wise.
func (id ObjectID) Equal(other ObjectID) bool {
	return id == other
}

// Compare orders ids byte-wise, shorter algorithms first on equal prefixes.
func (id ObjectID) Compare(other ObjectID) int {
	if c := bytes.Compare(id.sum[:], other.sum[:]); c != 0 {
		return c
	}
	switch {
	case id.algo < other.algo:
		return -1
	case id.algo > other.algo:
		return 1
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ComputeID hashes `<type> <size>\0<payload>`.
func ComputeID(algo HashAlgorithm, kind ObjectType, payload []byte) ObjectID {
	h := NewHasher(algo)
	h.Write(EncodeHeader(kind, len(payload)))
	h.Write(payload)

	id := ObjectID{algo: algo}
	copy(id.sum[:], h.Sum(nil))
	return id
}

// EmptyTreeID is the id of the tree with no entries.
func EmptyTreeID(algo HashAlgorithm) ObjectID {
	return ComputeID(algo, TreeType, nil)
}

// EncodeHeader returns `<type> <size>\0`.
func EncodeHeader(kind ObjectType, size int) []byte {
	buf := make([]byte, 0, len(kind)+12)
	buf = append(buf, kind...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(size), 10)
	return append(buf, 0)
}
