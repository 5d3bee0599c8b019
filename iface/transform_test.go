package iface_test

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
	"golang.org/x/tools/go/ssa"

	"go-previrt/iface"
)

func TestLookupRewriteTieBreak(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	first := ci.CallTypes("f", []iface.Type{iface.Unknown(), iface.Constant("1")})
	second := ci.CallTypes("f", []iface.Type{iface.Constant("1"), iface.Unknown()})
	tr := iface.NewTransform(ci)
	tr.Rewrite("f", first, iface.NewCallRewrite("f_first", 0))
	tr.Rewrite("f", second, iface.NewCallRewrite("f_second", 1))

	// Both entries score 2 against f(1, 1).
	rw, ok := tr.LookupRewrite("f", []ssa.Value{intConst(1), intConst(1)})
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(rw.Function, "f_first"))
}

func TestLookupRewritePrefersHigherScore(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	general := ci.CallTypes("f", []iface.Type{iface.Unknown(), iface.Unknown()})
	specific := ci.GetOrCreateCall("f", []iface.Type{iface.Constant("1"), iface.Unknown()})
	tr := iface.NewTransform(ci)
	tr.Rewrite("f", general, iface.NewCallRewrite("f_any", 0, 1))
	tr.Rewrite("f", specific, iface.NewCallRewrite("f_one", 1))

	rw, ok := tr.LookupRewrite("f", []ssa.Value{intConst(1), param()})
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(rw, iface.NewCallRewrite("f_one", 1)))

	rw, ok = tr.LookupRewrite("f", []ssa.Value{intConst(2), param()})
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(rw.Function, "f_any"))
}

func TestLookupRewriteAbsent(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	one := ci.CallTypes("f", []iface.Type{iface.Constant("1")})
	two := ci.CallTypes("f", []iface.Type{iface.Constant("2")})
	tr := iface.NewTransform(ci)
	tr.Rewrite("f", one, iface.NewCallRewrite("f1"))

	// No entry covers the call.
	_, ok := tr.LookupRewrite("f", []ssa.Value{intConst(3)})
	qt.Assert(t, qt.IsFalse(ok))

	// Arity mismatch.
	_, ok = tr.LookupRewrite("f", []ssa.Value{intConst(1), intConst(1)})
	qt.Assert(t, qt.IsFalse(ok))

	// The best entry has no rewrite.
	qt.Assert(t, qt.Equals(tr.BestMatch("f", []iface.Type{iface.Constant("2")}), two))
	_, ok = tr.LookupRewrite("f", []ssa.Value{intConst(2)})
	qt.Assert(t, qt.IsFalse(ok))

	// Unsummarized function.
	_, ok = tr.LookupRewrite("g", nil)
	qt.Assert(t, qt.IsFalse(ok))
}

func TestLookupRewriteWithoutInterfacePanics(t *testing.T) {
	tr := iface.NewTransform(nil)
	qt.Assert(t, qt.IsFalse(tr.HasInterface()))
	qt.Assert(t, qt.PanicMatches(func() {
		tr.LookupRewrite("f", nil)
	}, "iface: transform has no interface"))
}

func TestRewriteOverwrites(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	info := ci.CallAny("f", 1)
	tr := iface.NewTransform(ci)
	tr.Rewrite("f", info, iface.NewCallRewrite("a", 0))
	tr.Rewrite("f", info, iface.NewCallRewrite("b", 0))

	qt.Assert(t, qt.Equals(tr.RewriteCount(), 1))
	rw, ok := tr.RewriteFor("f", info)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(rw.Function, "b"))
}

func TestRewriteCountAndDump(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	tr := iface.NewTransform(ci)
	tr.Rewrite("g", ci.CallAny("g", 0), iface.NewCallRewrite("g0"))
	tr.Rewrite("f", ci.CallAny("f", 1), iface.NewCallRewrite("f1", 0))
	tr.Rewrite("f", ci.CallAny("f", 2), iface.NewCallRewrite("f2", 1, 0))
	qt.Assert(t, qt.Equals(tr.RewriteCount(), 3))

	var buf strings.Builder
	tr.Dump(&buf)
	qt.Assert(t, qt.Equals(buf.String(), "'f' -> 'f1'\n'f' -> 'f2'\n'g' -> 'g0'\n"))
}

func TestGather(t *testing.T) {
	rw := iface.NewCallRewrite("bar", 2, 0, 0)
	got, err := iface.Gather(rw, []string{"a", "b", "c"})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(got, []string{"c", "a", "a"}))

	_, err = iface.Gather(iface.NewCallRewrite("bar", 3), []string{"a"})
	qt.Assert(t, qt.ErrorMatches(err, `rewrite to bar: argument index 3 out of range \[0,1\)`))

	got, err = iface.Gather(iface.NewCallRewrite("bar"), []string{"a"})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(got, 0))
}
