package commit

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

const (
	pkgName = "commit"

	// DefaultEncoding is assumed when a commit has no encoding header.
	DefaultEncoding = "UTF-8"
)

// Header is a commit header this package does not interpret, such as
// gpgsig or mergetag. Value may span several lines.
type Header struct {
	Key   string
	Value string
}

// Commit is an immutable commit object.
//
// Commit Object Structure:
// ┌─────────────────────────────────────────────────────────────────┐
// │ "tree" SP tree-id LF                                            │
// │ "parent" SP parent-id LF (zero or more)                         │
// │ "author" SP signature LF                                        │
// │ "committer" SP signature LF                                     │
// │ "encoding" SP name LF (optional)                                │
// │ other headers, continuation lines start with SP                 │
// │ LF                                                              │
// │ message                                                         │
// └─────────────────────────────────────────────────────────────────┘
type Commit struct {
	id        objects.ObjectID
	tree      objects.ObjectID
	parents   []objects.ObjectID
	author    *Signature
	committer *Signature
	encoding  string
	extra     []Header
	message   []byte
}

// Parse decodes a commit payload. Missing tree, author or committer
// headers, bad ids and bad signatures are CORRUPTED.
func Parse(id objects.ObjectID, data []byte) (*Commit, error) {
	c := &Commit{id: id}

	rest := data
	for len(rest) > 0 {
		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			return nil, corrupt(id, "header without newline")
		}
		line := string(rest[:nl])
		rest = rest[nl+1:]

		if line == "" {
			c.message = rest
			rest = nil
			break
		}

		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, corrupt(id, "malformed header "+line)
		}
		for len(rest) > 0 && rest[0] == ' ' {
			nl = bytes.IndexByte(rest, '\n')
			if nl < 0 {
				nl = len(rest)
			}
			value += "\n" + string(rest[1:nl])
			rest = rest[min(nl+1, len(rest)):]
		}

		if err := c.setHeader(key, value); err != nil {
			return nil, errs.WrapWithCode(err, pkgName, errs.CodeCorrupted, "parse")
		}
	}

	switch {
	case !c.tree.IsValid():
		return nil, corrupt(id, "missing tree header")
	case c.author == nil:
		return nil, corrupt(id, "missing author header")
	case c.committer == nil:
		return nil, corrupt(id, "missing committer header")
	}
	return c, nil
}

func (c *Commit) setHeader(key, value string) error {
	var err error
	switch key {
	case "tree":
		if c.tree.IsValid() {
			return errs.New(pkgName, errs.CodeCorrupted, "parse", "duplicate tree header", nil)
		}
		c.tree, err = objects.ParseObjectID(value)
	case "parent":
		var p objects.ObjectID
		if p, err = objects.ParseObjectID(value); err == nil {
			c.parents = append(c.parents, p)
		}
	case "author":
		c.author, err = ParseSignature(value)
	case "committer":
		c.committer, err = ParseSignature(value)
	case "encoding":
		c.encoding = value
	default:
		c.extra = append(c.extra, Header{Key: key, Value: value})
	}
	return err
}

func corrupt(id objects.ObjectID, msg string) error {
	return errs.New(pkgName, errs.CodeCorrupted, "parse", msg, nil).WithContext("id", id.String())
}

// FromRaw views a stored object as a commit.
func FromRaw(raw *objects.RawObject) (*Commit, error) {
	if raw.Type != objects.CommitType {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "from_raw",
			"object %s is a %s, not a commit", raw.ID.Short(), raw.Type)
	}
	return Parse(raw.ID, raw.Data)
}

// Lookup reads and parses a commit.
func Lookup(ctx context.Context, r objects.Reader, id objects.ObjectID) (*Commit, error) {
	raw, err := r.ReadObject(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromRaw(raw)
}

// Create stores c and returns its id.
func Create(ctx context.Context, w objects.Writer, c *Commit) (objects.ObjectID, error) {
	id, err := w.WriteObject(ctx, objects.CommitType, c.Serialize())
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "create")
	}
	return id, nil
}

// Serialize returns the canonical payload.
func (c *Commit) Serialize() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.tree)
	for _, p := range c.parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.author)
	fmt.Fprintf(&buf, "committer %s\n", c.committer)
	if c.encoding != "" {
		fmt.Fprintf(&buf, "encoding %s\n", c.encoding)
	}
	for _, h := range c.extra {
		buf.WriteString(h.Key)
		buf.WriteByte(' ')
		buf.WriteString(strings.ReplaceAll(h.Value, "\n", "\n "))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(c.message)
	return buf.Bytes()
}

func (c *Commit) ID() objects.ObjectID     { return c.id }
func (c *Commit) TreeID() objects.ObjectID { return c.tree }

// Parents returns a copy of the parent ids in order.
func (c *Commit) Parents() []objects.ObjectID {
	return append([]objects.ObjectID(nil), c.parents...)
}

// ParentID returns the n-th parent (0-based).
func (c *Commit) ParentID(n int) (objects.ObjectID, bool) {
	if n < 0 || n >= len(c.parents) {
		return objects.ObjectID{}, false
	}
	return c.parents[n], true
}

func (c *Commit) ParentCount() int { return len(c.parents) }

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool { return len(c.parents) == 0 }

// IsMerge reports whether the commit has more than one parent.
func (c *Commit) IsMerge() bool { return len(c.parents) > 1 }

func (c *Commit) Author() *Signature    { return c.author }
func (c *Commit) Committer() *Signature { return c.committer }

// Time is the committer time.
func (c *Commit) Time() time.Time { return c.committer.When }

// Encoding returns the declared message encoding, UTF-8 when absent.
func (c *Commit) Encoding() string {
	if c.encoding == "" {
		return DefaultEncoding
	}
	return c.encoding
}

// ExtraHeaders returns the uninterpreted headers in stored order.
func (c *Commit) ExtraHeaders() []Header {
	return append([]Header(nil), c.extra...)
}

// Header returns the value of the first uninterpreted header called key.
func (c *Commit) Header(key string) (string, bool) {
	for _, h := range c.extra {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// RawMessage returns the message bytes exactly as stored.
func (c *Commit) RawMessage() []byte { return c.message }

// Message returns the message converted to UTF-8. When the declared
// encoding is unknown or the conversion fails the raw bytes are returned.
func (c *Commit) Message() string {
	if c.encoding == "" || strings.EqualFold(c.encoding, DefaultEncoding) || strings.EqualFold(c.encoding, "utf8") {
		return string(c.message)
	}
	enc, err := htmlindex.Get(c.encoding)
	if err != nil {
		return string(c.message)
	}
	out, err := enc.NewDecoder().Bytes(c.message)
	if err != nil {
		return string(c.message)
	}
	return string(out)
}

// Summary returns the first paragraph of the message with leading blank
// lines dropped and its lines joined by single spaces.
func (c *Commit) Summary() string {
	msg := strings.TrimLeft(c.Message(), " \t\r\n")
	para, _, _ := strings.Cut(msg, "\n\n")

	var parts []string
	for _, line := range strings.Split(para, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// Body returns everything after the summary paragraph, trimmed.
func (c *Commit) Body() string {
	msg := strings.TrimLeft(c.Message(), " \t\r\n")
	_, body, found := strings.Cut(msg, "\n\n")
	if !found {
		return ""
	}
	return strings.TrimSpace(body)
}

func (c *Commit) String() string {
	return fmt.Sprintf("Commit{id: %s, tree: %s, parents: %d, summary: %q}",
		c.id.Short(), c.tree.Short(), len(c.parents), c.Summary())
}
