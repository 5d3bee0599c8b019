// Package iface records, per component, an abstract summary of every call
// the component makes to functions it does not define, and maps summarized
// calls to rewrites that a specializer can apply.
package iface

import (
	"fmt"
	"go/constant"

	"golang.org/x/tools/go/ssa"
)

// NoMatch is the score returned when an abstraction does not cover a value.
const NoMatch = -1

// Kind identifies the variant held by a Type.
type Kind uint8

const (
	KindUnknown  Kind = iota // any value
	KindConstant             // a compile-time constant with a known literal
	KindShape                // a pointer of a known shape class
)

// String returns the lower-case name of k.
func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindConstant:
		return "constant"
	case KindShape:
		return "shape"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Type is the abstraction of one call argument. The zero value is Unknown.
// Types are comparable with ==.
type Type struct {
	kind  Kind
	lit   string // constant literal, KindConstant only
	shape uint32 // shape class, KindShape only
}

// Unknown returns the abstraction that covers every value.
func Unknown() Type { return Type{} }

// Constant returns the abstraction of a constant with the given exact literal.
func Constant(lit string) Type { return Type{kind: KindConstant, lit: lit} }

// ConstantValue returns the abstraction of v. A nil v stands for a typed nil
// or zero-valued aggregate constant.
func ConstantValue(v constant.Value) Type {
	if v == nil {
		return Constant("nil")
	}
	return Constant(v.ExactString())
}

// Shape returns the abstraction of a pointer whose shape class is class.
func Shape(class uint32) Type { return Type{kind: KindShape, shape: class} }

// Kind returns the variant of t.
func (t Type) Kind() Kind { return t.kind }

// IsUnknown reports whether t covers every value.
func (t Type) IsUnknown() bool { return t.kind == KindUnknown }

// Literal returns the exact constant literal of a KindConstant type, or "".
func (t Type) Literal() string { return t.lit }

// ShapeClass returns the shape class of a KindShape type, or 0.
func (t Type) ShapeClass() uint32 { return t.shape }

// Equal reports whether t and u are the same abstraction.
func (t Type) Equal(u Type) bool { return t == u }

// Refines reports how well t covers a live argument whose most precise
// abstraction is concrete. Unknown covers everything with score 0; a
// constant or shape covers only an equal abstraction.
func (t Type) Refines(concrete Type) int {
	switch t.kind {
	case KindUnknown:
		return 0
	case KindConstant:
		if concrete == t {
			return 2
		}
	case KindShape:
		if concrete == t {
			return 1
		}
	}
	return NoMatch
}

func (t Type) String() string {
	switch t.kind {
	case KindConstant:
		return t.lit
	case KindShape:
		return fmt.Sprintf("shape#%d", t.shape)
	}
	return "?"
}

// ShapeOracle classifies pointer values into shape classes. It is supplied
// by a pointer/shape analysis.
type ShapeOracle interface {
	ShapeOf(v ssa.Value) (class uint32, ok bool)
}

// An Abstractor maps concrete SSA values to their most precise Type.
type Abstractor struct {
	Shapes ShapeOracle // optional
}

// Abstract returns the abstraction of v.
func (a Abstractor) Abstract(v ssa.Value) Type {
	if c, ok := v.(*ssa.Const); ok {
		return ConstantValue(c.Value)
	}
	if a.Shapes != nil && v != nil {
		if class, ok := a.Shapes.ShapeOf(v); ok {
			return Shape(class)
		}
	}
	return Unknown()
}

// AbstractAll abstracts each value of args in order.
func (a Abstractor) AbstractAll(args []ssa.Value) []Type {
	out := make([]Type, len(args))
	for i, v := range args {
		out[i] = a.Abstract(v)
	}
	return out
}
