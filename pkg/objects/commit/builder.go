package commit

import (
	"context"
	"errors"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
)

var reservedHeaders = map[string]bool{
	"tree": true, "parent": true, "author": true, "committer": true, "encoding": true,
}

// Builder assembles a commit. Problems are collected and reported together
// by Build.
type Builder struct {
	c    Commit
	errs []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Tree sets the root tree.
func (b *Builder) Tree(id objects.ObjectID) *Builder {
	b.c.tree = id
	return b
}

// Parent appends a parent.
func (b *Builder) Parent(id objects.ObjectID) *Builder {
	if !id.IsValid() || id.IsZero() {
		b.fail("parent id is not set")
	}
	b.c.parents = append(b.c.parents, id)
	return b
}

// Parents appends several parents in order.
func (b *Builder) Parents(ids ...objects.ObjectID) *Builder {
	for _, id := range ids {
		b.Parent(id)
	}
	return b
}

func (b *Builder) Author(sig *Signature) *Builder {
	b.c.author = sig
	return b
}

// Committer sets the committer. When never set, the author is used.
func (b *Builder) Committer(sig *Signature) *Builder {
	b.c.committer = sig
	return b
}

func (b *Builder) Message(msg string) *Builder {
	b.c.message = []byte(msg)
	return b
}

// Encoding declares the encoding the message bytes are in.
func (b *Builder) Encoding(name string) *Builder {
	if strings.ContainsAny(name, " \n") {
		b.fail("encoding name contains whitespace")
	}
	b.c.encoding = name
	return b
}

// Header appends an extra header such as gpgsig.
func (b *Builder) Header(key, value string) *Builder {
	switch {
	case key == "" || strings.ContainsAny(key, " \n"):
		b.fail("header key " + key + " is invalid")
	case reservedHeaders[key]:
		b.fail("header " + key + " cannot be set as an extra header")
	}
	b.c.extra = append(b.c.extra, Header{Key: key, Value: value})
	return b
}

func (b *Builder) fail(msg string) {
	b.errs = append(b.errs, errors.New(msg))
}

// Build validates the collected fields and returns the commit with its id
// computed. Missing tree or author is INVALID_ARGUMENT, as are ids of mixed
// hash algorithms.
func (b *Builder) Build() (*Commit, error) {
	if !b.c.tree.IsValid() || b.c.tree.IsZero() {
		b.fail("tree is required")
	}
	if b.c.author == nil {
		b.fail("author is required")
	}
	for _, p := range b.c.parents {
		if p.IsValid() && b.c.tree.IsValid() && p.Algorithm() != b.c.tree.Algorithm() {
			b.fail("parent " + p.Short() + " uses a different hash algorithm than the tree")
		}
	}
	if len(b.errs) > 0 {
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "build", "invalid commit", errors.Join(b.errs...))
	}

	c := b.c
	c.parents = append([]objects.ObjectID(nil), b.c.parents...)
	c.extra = append([]Header(nil), b.c.extra...)
	if c.committer == nil {
		c.committer = c.author
	}
	c.id = objects.ComputeID(c.tree.Algorithm(), objects.CommitType, c.Serialize())
	return &c, nil
}

// Write builds the commit and stores it.
func (b *Builder) Write(ctx context.Context, w objects.Writer) (*Commit, error) {
	c, err := b.Build()
	if err != nil {
		return nil, err
	}
	if _, err := Create(ctx, w, c); err != nil {
		return nil, err
	}
	return c, nil
}
