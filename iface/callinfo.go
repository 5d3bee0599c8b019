package iface

import "strings"

// CallID is the stable handle of a CallInfo within the interface that
// created it.
type CallID uint32

// CallInfo is one distinct abstract call shape of a function together with
// the number of observed calls it covers. Its arity never changes.
type CallInfo struct {
	ID    CallID
	Args  []Type
	Count uint32
}

// NumArgs returns the arity of the call shape.
func (ci *CallInfo) NumArgs() int { return len(ci.Args) }

// Refines scores how well ci covers a call whose arguments abstract to args.
// It returns NoMatch on arity mismatch or when any argument is not covered,
// and the sum of the per-argument scores otherwise.
func (ci *CallInfo) Refines(args []Type) int {
	if len(args) != len(ci.Args) {
		return NoMatch
	}
	matched := 0
	for i, t := range ci.Args {
		r := t.Refines(args[i])
		if r == NoMatch {
			return NoMatch
		}
		matched += r
	}
	return matched
}

// allUnknown reports whether every argument of ci is Unknown.
func (ci *CallInfo) allUnknown() bool {
	for _, t := range ci.Args {
		if !t.IsUnknown() {
			return false
		}
	}
	return true
}

func (ci *CallInfo) sameArgs(args []Type) bool {
	if len(args) != len(ci.Args) {
		return false
	}
	for i, t := range ci.Args {
		if t != args[i] {
			return false
		}
	}
	return true
}

func (ci *CallInfo) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, t := range ci.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}

// UnknownArgs returns arity Unknown types.
func UnknownArgs(arity int) []Type {
	return make([]Type, arity)
}
