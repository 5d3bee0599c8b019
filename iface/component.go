package iface

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"sort"

	"golang.org/x/tools/go/ssa"
)

// ComponentInterface summarizes the external calls and references of one
// component. Within a function's summary no entry is added for a call that an
// existing entry already covers.
//
// A ComponentInterface is not safe for concurrent use.
type ComponentInterface struct {
	Abstractor Abstractor

	infos []*CallInfo         // arena, indexed by CallID
	calls map[string][]CallID // function name -> summary
	order []string            // function names in first-insertion order
	refs  map[string]struct{}
}

// NewComponentInterface returns an empty interface that abstracts live
// arguments with abs.
func NewComponentInterface(abs Abstractor) *ComponentInterface {
	return &ComponentInterface{
		Abstractor: abs,
		calls:      make(map[string][]CallID),
		refs:       make(map[string]struct{}),
	}
}

func (ci *ComponentInterface) init() {
	if ci.calls == nil {
		ci.calls = make(map[string][]CallID)
	}
	if ci.refs == nil {
		ci.refs = make(map[string]struct{})
	}
}

// newCall allocates a CallInfo in the arena and appends it to fn's summary.
func (ci *ComponentInterface) newCall(fn string, args []Type, count uint32) *CallInfo {
	ci.init()
	info := &CallInfo{
		ID:    CallID(len(ci.infos)),
		Args:  slices.Clone(args),
		Count: count,
	}
	ci.infos = append(ci.infos, info)
	ids, ok := ci.calls[fn]
	if !ok {
		ci.order = append(ci.order, fn)
	}
	ci.calls[fn] = append(ids, info.ID)
	return info
}

// Call records a call fn(args...) unless an existing entry for fn already
// covers it, in which case that entry's count is incremented.
func (ci *ComponentInterface) Call(fn string, args []ssa.Value) *CallInfo {
	return ci.CallTypes(fn, ci.Abstractor.AbstractAll(args))
}

// CallTypes is Call for arguments that are already abstracted.
func (ci *ComponentInterface) CallTypes(fn string, args []Type) *CallInfo {
	for _, id := range ci.calls[fn] {
		info := ci.infos[id]
		if info.Refines(args) != NoMatch {
			info.Count++
			return info
		}
	}
	return ci.newCall(fn, args, 1)
}

// CallAny records that fn is called with arity unknown arguments.
func (ci *ComponentInterface) CallAny(fn string, arity int) *CallInfo {
	for _, id := range ci.calls[fn] {
		info := ci.infos[id]
		if info.NumArgs() == arity && info.allUnknown() {
			info.Count++
			return info
		}
	}
	return ci.newCall(fn, UnknownArgs(arity), 1)
}

// Reference records a non-call reference to the external symbol name.
func (ci *ComponentInterface) Reference(name string) {
	ci.init()
	ci.refs[name] = struct{}{}
}

// GetOrCreateCall returns the first entry of fn whose arguments are
// structurally equal to args, creating one with a zero count if there is
// none. Unlike CallTypes it never merges by refinement.
func (ci *ComponentInterface) GetOrCreateCall(fn string, args []Type) *CallInfo {
	for _, id := range ci.calls[fn] {
		if info := ci.infos[id]; info.sameArgs(args) {
			return info
		}
	}
	return ci.newCall(fn, args, 0)
}

// HasFunction reports whether fn has a call summary.
func (ci *ComponentInterface) HasFunction(fn string) bool {
	_, ok := ci.calls[fn]
	return ok
}

// Functions yields the names of functions with a summary, in the order they
// were first recorded.
func (ci *ComponentInterface) Functions() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, fn := range ci.order {
			if !yield(fn) {
				return
			}
		}
	}
}

// Calls yields the summary entries of fn in insertion order. It panics if
// fn has no summary; check HasFunction first.
func (ci *ComponentInterface) Calls(fn string) iter.Seq[*CallInfo] {
	ids, ok := ci.calls[fn]
	if !ok {
		panic(fmt.Sprintf("iface: no call summary for %q", fn))
	}
	return func(yield func(*CallInfo) bool) {
		for _, id := range ids {
			if !yield(ci.infos[id]) {
				return
			}
		}
	}
}

// Lookup returns the entry with the given handle, or nil.
func (ci *ComponentInterface) Lookup(id CallID) *CallInfo {
	if int(id) >= len(ci.infos) {
		return nil
	}
	return ci.infos[id]
}

// Len returns the total number of summary entries.
func (ci *ComponentInterface) Len() int { return len(ci.infos) }

// References returns the referenced external symbols, sorted.
func (ci *ComponentInterface) References() []string {
	refs := make([]string, 0, len(ci.refs))
	for r := range ci.refs {
		refs = append(refs, r)
	}
	sort.Strings(refs)
	return refs
}

// Dump writes a human readable listing of the interface to w.
func (ci *ComponentInterface) Dump(w io.Writer) {
	for _, fn := range ci.order {
		var total uint64
		for _, id := range ci.calls[fn] {
			total += uint64(ci.infos[id].Count)
		}
		fmt.Fprintf(w, "external call to '%s' %d times (%d shapes)\n", fn, total, len(ci.calls[fn]))
	}
	for _, ref := range ci.References() {
		fmt.Fprintf(w, "reference to external symbol '%s'\n", ref)
	}
}
