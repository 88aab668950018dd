package tag

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
)

const pkgName = "tag"

// MaxPeelDepth bounds tag-to-tag chains followed by Peel.
const MaxPeelDepth = 32

// Tag is an annotated tag object.
//
//	object <id>
//	type <object type>
//	tag <name>
//	tagger <signature>      (optional)
//
//	<message>
type Tag struct {
	id         objects.ObjectID
	target     objects.ObjectID
	targetType objects.ObjectType
	name       string
	tagger     *commit.Signature
	message    []byte
}

// New validates the fields and returns a tag with its id computed. tagger
// may be nil.
func New(target objects.ObjectID, targetType objects.ObjectType, name string, tagger *commit.Signature, message string) (*Tag, error) {
	switch {
	case !target.IsValid() || target.IsZero():
		return nil, errs.New(pkgName, errs.CodeInvalidArgument, "new", "target id is not set", nil)
	case !targetType.Valid():
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "new", "invalid target type %q", targetType)
	case name == "" || strings.ContainsAny(name, "\n "):
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "new", "invalid tag name %q", name)
	}

	t := &Tag{
		target:     target,
		targetType: targetType,
		name:       name,
		tagger:     tagger,
		message:    []byte(message),
	}
	t.id = objects.ComputeID(target.Algorithm(), objects.TagType, t.Serialize())
	return t, nil
}

// Parse decodes a tag payload. Missing object, type or tag headers are
// CORRUPTED.
func Parse(id objects.ObjectID, data []byte) (*Tag, error) {
	t := &Tag{id: id}

	rest := data
	for len(rest) > 0 {
		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			nl = len(rest)
		}
		line := string(rest[:nl])
		rest = rest[min(nl+1, len(rest)):]

		if line == "" {
			t.message = rest
			break
		}

		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, corrupt(id, "malformed header "+line)
		}

		var err error
		switch key {
		case "object":
			t.target, err = objects.ParseObjectID(value)
		case "type":
			t.targetType, err = objects.ParseObjectType(value)
		case "tag":
			t.name = value
		case "tagger":
			t.tagger, err = commit.ParseSignature(value)
		}
		if err != nil {
			return nil, errs.WrapWithCode(err, pkgName, errs.CodeCorrupted, "parse")
		}
	}

	switch {
	case !t.target.IsValid():
		return nil, corrupt(id, "missing object header")
	case t.targetType == "":
		return nil, corrupt(id, "missing type header")
	case t.name == "":
		return nil, corrupt(id, "missing tag header")
	}
	return t, nil
}

func corrupt(id objects.ObjectID, msg string) error {
	return errs.New(pkgName, errs.CodeCorrupted, "parse", msg, nil).WithContext("id", id.String())
}

// FromRaw views a stored object as a tag.
func FromRaw(raw *objects.RawObject) (*Tag, error) {
	if raw.Type != objects.TagType {
		return nil, errs.Newf(pkgName, errs.CodeInvalidArgument, "from_raw",
			"object %s is a %s, not a tag", raw.ID.Short(), raw.Type)
	}
	return Parse(raw.ID, raw.Data)
}

// Lookup reads and parses a tag.
func Lookup(ctx context.Context, r objects.Reader, id objects.ObjectID) (*Tag, error) {
	raw, err := r.ReadObject(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromRaw(raw)
}

// Create stores t and returns its id.
func Create(ctx context.Context, w objects.Writer, t *Tag) (objects.ObjectID, error) {
	id, err := w.WriteObject(ctx, objects.TagType, t.Serialize())
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, "create")
	}
	return id, nil
}

// Peel follows annotated tags starting at id and returns the first object
// that is not a tag. Non-tag objects are returned as is.
func Peel(ctx context.Context, r objects.Reader, id objects.ObjectID) (*objects.RawObject, error) {
	for range MaxPeelDepth {
		raw, err := r.ReadObject(ctx, id)
		if err != nil {
			return nil, errs.Wrap(err, pkgName, "peel")
		}
		if raw.Type != objects.TagType {
			return raw, nil
		}
		t, err := Parse(raw.ID, raw.Data)
		if err != nil {
			return nil, err
		}
		id = t.target
	}
	return nil, errs.Newf(pkgName, errs.CodeCorrupted, "peel", "tag chain deeper than %d", MaxPeelDepth)
}

// Serialize returns the canonical payload.
func (t *Tag) Serialize() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.target)
	fmt.Fprintf(&buf, "type %s\n", t.targetType)
	fmt.Fprintf(&buf, "tag %s\n", t.name)
	if t.tagger != nil {
		fmt.Fprintf(&buf, "tagger %s\n", t.tagger)
	}
	buf.WriteByte('\n')
	buf.Write(t.message)
	return buf.Bytes()
}

func (t *Tag) ID() objects.ObjectID           { return t.id }
func (t *Tag) Target() objects.ObjectID       { return t.target }
func (t *Tag) TargetType() objects.ObjectType { return t.targetType }
func (t *Tag) Name() string                   { return t.name }
func (t *Tag) Tagger() *commit.Signature      { return t.tagger }
func (t *Tag) Message() string                { return string(t.message) }

func (t *Tag) String() string {
	return fmt.Sprintf("Tag{id: %s, name: %s, target: %s %s}", t.id.Short(), t.name, t.targetType, t.target.Short())
}
