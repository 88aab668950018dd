package refs

import (
	"fmt"

	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// Type distinguishes direct from symbolic references.
type Type uint8

const (
	InvalidType Type = iota
	// Direct references hold an object id.
	Direct
	// Symbolic references name another reference.
	Symbolic
)

func (t Type) String() string {
	switch t {
	case Direct:
		return "direct"
	case Symbolic:
		return "symbolic"
	default:
		return "invalid"
	}
}

// Reference is a named pointer to an object or to another reference.
// References are values; the store never hands out shared state.
type Reference struct {
	Name           string
	Type           Type
	Target         objects.ObjectID
	SymbolicTarget string

	// Peeled is the object an annotated tag ultimately points at, when
	// known from packed-refs. Zero otherwise.
	Peeled objects.ObjectID
}

// NewDirect returns a direct reference.
func NewDirect(name string, id objects.ObjectID) *Reference {
	return &Reference{Name: name, Type: Direct, Target: id}
}

// NewSymbolic returns a symbolic reference.
func NewSymbolic(name, target string) *Reference {
	return &Reference{Name: name, Type: Symbolic, SymbolicTarget: target}
}

// IsSymbolic reports whether the reference names another reference.
func (r *Reference) IsSymbolic() bool { return r.Type == Symbolic }

// ShortName is ShortName(r.Name).
func (r *Reference) ShortName() string { return ShortName(r.Name) }

// content is the loose file representation.
func (r *Reference) content() string {
	if r.Type == Symbolic {
		return SymbolicPrefix + r.SymbolicTarget + "\n"
	}
	return r.Target.String() + "\n"
}

func (r *Reference) String() string {
	if r.Type == Symbolic {
		return fmt.Sprintf("%s -> %s", r.Name, r.SymbolicTarget)
	}
	return fmt.Sprintf("%s %s", r.Target, r.Name)
}
