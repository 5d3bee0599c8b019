package iface

import (
	"fmt"
	"io"
	"sort"

	"golang.org/x/tools/go/ssa"
)

// Transform owns a ComponentInterface and the rewrites attached to its
// summary entries. Rewrites are keyed by CallID, so they stay valid only
// against the interface they were registered with.
type Transform struct {
	iface    *ComponentInterface
	rewrites map[string]map[CallID]CallRewrite
}

// NewTransform returns a transform over ci. ci may be nil; it is then
// created when an interface or transform file is read.
func NewTransform(ci *ComponentInterface) *Transform {
	return &Transform{
		iface:    ci,
		rewrites: make(map[string]map[CallID]CallRewrite),
	}
}

// HasInterface reports whether t has an interface attached.
func (t *Transform) HasInterface() bool { return t.iface != nil }

// Interface returns the attached interface. It panics if there is none.
func (t *Transform) Interface() *ComponentInterface {
	t.mustInterface()
	return t.iface
}

func (t *Transform) mustInterface() {
	if t.iface == nil {
		panic("iface: transform has no interface")
	}
}

func (t *Transform) ensureInterface() *ComponentInterface {
	if t.iface == nil {
		t.iface = NewComponentInterface(Abstractor{})
	}
	return t.iface
}

// Rewrite registers rw for the summary entry from of fn, replacing any
// rewrite already registered for it. from must belong to t's interface.
func (t *Transform) Rewrite(fn string, from *CallInfo, rw CallRewrite) {
	if t.rewrites == nil {
		t.rewrites = make(map[string]map[CallID]CallRewrite)
	}
	m, ok := t.rewrites[fn]
	if !ok {
		m = make(map[CallID]CallRewrite)
		t.rewrites[fn] = m
	}
	m[from.ID] = rw
}

// RewriteFor returns the rewrite registered for the entry key of fn.
func (t *Transform) RewriteFor(fn string, key *CallInfo) (CallRewrite, bool) {
	rw, ok := t.rewrites[fn][key.ID]
	return rw, ok
}

// LookupRewrite resolves the rewrite for a concrete call fn(args...).
func (t *Transform) LookupRewrite(fn string, args []ssa.Value) (CallRewrite, bool) {
	t.mustInterface()
	return t.LookupRewriteTypes(fn, t.iface.Abstractor.AbstractAll(args))
}

// LookupRewriteTypes resolves the rewrite for a call whose arguments abstract
// to args. The entry of fn with the strictly greatest refinement score wins,
// the earliest registered one on ties. The result is absent when no entry
// covers the call or the winning entry has no rewrite.
func (t *Transform) LookupRewriteTypes(fn string, args []Type) (CallRewrite, bool) {
	best := t.BestMatch(fn, args)
	if best == nil {
		return CallRewrite{}, false
	}
	return t.RewriteFor(fn, best)
}

// BestMatch returns the summary entry of fn that best covers args, or nil.
func (t *Transform) BestMatch(fn string, args []Type) *CallInfo {
	t.mustInterface()
	if !t.iface.HasFunction(fn) {
		return nil
	}
	var best *CallInfo
	score := NoMatch
	for info := range t.iface.Calls(fn) {
		if s := info.Refines(args); s > score {
			score = s
			best = info
		}
	}
	return best
}

// RewriteCount returns the number of registered rewrites.
func (t *Transform) RewriteCount() int {
	n := 0
	for _, m := range t.rewrites {
		n += len(m)
	}
	return n
}

// Dump writes one line per registered rewrite to w.
func (t *Transform) Dump(w io.Writer) {
	var lines []string
	for fn, m := range t.rewrites {
		for _, rw := range m {
			lines = append(lines, fmt.Sprintf("'%s' -> '%s'", fn, rw.Function))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
