package main

import (
	"go/types"
	"hash/fnv"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/types/typeutil"
)

// TypeShapes classifies pointer values by their pointee type. The class of
// a type is derived from its fully qualified name, so it does not depend on
// the order values are seen and is the same in every component and every
// run.
//
// A TypeShapes is not safe for concurrent use.
type TypeShapes struct {
	classes typeutil.Map // pointee type -> uint32
}

// ShapeOf implements iface.ShapeOracle.
func (s *TypeShapes) ShapeOf(v ssa.Value) (uint32, bool) {
	ptr, ok := v.Type().Underlying().(*types.Pointer)
	if !ok {
		return 0, false
	}
	if class, ok := s.classes.At(ptr.Elem()).(uint32); ok {
		return class, true
	}
	class := shapeClass(types.TypeString(ptr.Elem(), nil))
	s.classes.Set(ptr.Elem(), class)
	return class, true
}

// Len returns the number of distinct pointee types classified so far.
func (s *TypeShapes) Len() int { return s.classes.Len() }

// shapeClass hashes a qualified type name into a shape class.
func shapeClass(typeName string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(typeName))
	return h.Sum32()
}
