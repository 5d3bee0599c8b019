package main

import (
	"testing"

	"github.com/go-quicktest/qt"

	"go-previrt/iface"
)

func TestCallRows(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	ci.CallTypes("f", []iface.Type{iface.Constant("1"), iface.Shape(2)})
	ci.CallTypes("f", []iface.Type{iface.Constant("1"), iface.Shape(2)})
	ci.CallAny("g", 1)

	qt.Assert(t, qt.DeepEquals(callRows("comp", ci), []map[string]any{{
		"key":       "comp|f|(1, shape#2)",
		"component": "comp",
		"func":      "f",
		"args":      []string{"1", "shape#2"},
		"arity":     2,
		"count":     int64(2),
	}, {
		"key":       "comp|g|(?)",
		"component": "comp",
		"func":      "g",
		"args":      []string{"?"},
		"arity":     1,
		"count":     int64(1),
	}}))
}

func TestRewriteRows(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	f := ci.CallAny("f", 2)
	ci.CallAny("g", 0)
	tr := iface.NewTransform(ci)
	tr.Rewrite("f", f, iface.NewCallRewrite("f_swapped", 1, 0))

	qt.Assert(t, qt.DeepEquals(rewriteRows("comp", tr), []map[string]any{{
		"key":    "comp|f|(?, ?)",
		"target": "f_swapped",
		"args":   []int64{1, 0},
	}}))
}

func TestRewriteRowsMatchInterfaceRows(t *testing.T) {
	ci := iface.NewComponentInterface(iface.Abstractor{})
	ci.CallTypes("foo", []iface.Type{iface.Unknown()})
	one := ci.GetOrCreateCall("foo", []iface.Type{iface.Constant("1")})
	src := iface.NewTransform(ci)
	src.Rewrite("foo", one, iface.NewCallRewrite("foo1"))

	ifaceData, err := ci.Encode()
	qt.Assert(t, qt.IsNil(err))
	trData, err := src.Encode()
	qt.Assert(t, qt.IsNil(err))

	// Decoded separately, as export does with an interface file and its
	// transform file.
	loaded := iface.NewComponentInterface(iface.Abstractor{})
	qt.Assert(t, qt.IsNil(loaded.Decode(ifaceData)))
	tr := iface.NewTransform(nil)
	qt.Assert(t, qt.IsNil(tr.DecodeTransform(trData)))

	keys := make(map[string][]string)
	for _, row := range callRows("a", loaded) {
		keys[row["key"].(string)] = row["args"].([]string)
	}
	rewrites := rewriteRows("a", tr)
	qt.Assert(t, qt.HasLen(rewrites, 1))
	qt.Assert(t, qt.Equals(rewrites[0]["target"].(string), "foo1"))
	qt.Assert(t, qt.DeepEquals(keys[rewrites[0]["key"].(string)], []string{"1"}))

	trRows := callRows("a", tr.Interface())
	qt.Assert(t, qt.HasLen(trRows, 1))
	qt.Assert(t, qt.Equals(trRows[0]["key"].(string), rewrites[0]["key"].(string)))
}
