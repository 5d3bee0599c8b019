package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/go-quicktest/qt"

	"go-previrt/iface"
)

func TestInterfaceFileName(t *testing.T) {
	qt.Assert(t, qt.Equals(interfaceFileName("example.com/mod/internal/x"), "example.com_mod_internal_x.iface"))
	qt.Assert(t, qt.Equals(componentName("/tmp/out/example.com_mod_internal_x.iface"), "example.com_mod_internal_x"))
	qt.Assert(t, qt.Equals(componentName("a.transform"), "a"))
}

func TestInterfaceFilesCollision(t *testing.T) {
	files, err := interfaceFiles([]string{"a/b", "a/c"})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(files, map[string]string{"a/b": "a_b.iface", "a/c": "a_c.iface"}))

	_, err = interfaceFiles([]string{"a/b_c", "a/d", "a_b/c"})
	qt.Assert(t, qt.ErrorMatches(err, `packages a/b_c and a_b/c both map to interface file a_b_c\.iface`))
}

func TestRunDump(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()

	ci := iface.NewComponentInterface(iface.Abstractor{})
	foo := ci.CallTypes("foo", []iface.Type{iface.Unknown()})
	ci.CallTypes("foo", []iface.Type{iface.Unknown()})
	ci.Reference("errno")
	ifacePath := filepath.Join(dir, "a.iface")
	qt.Assert(t, qt.IsNil(ci.WriteToFile(ifacePath)))

	var buf strings.Builder
	qt.Assert(t, qt.IsNil(runDump(&buf, ifacePath, false, true)))
	qt.Assert(t, qt.Equals(buf.String(), "interface "+ifacePath+`
external call to 'foo' 2 times (1 shapes)
reference to external symbol 'errno'
  foo(?) x2
`))

	tr := iface.NewTransform(ci)
	tr.Rewrite("foo", foo, iface.NewCallRewrite("bar", 0))
	trPath := filepath.Join(dir, "a.transform")
	qt.Assert(t, qt.IsNil(tr.WriteToFile(trPath)))

	buf.Reset()
	qt.Assert(t, qt.IsNil(runDump(&buf, trPath, true, true)))
	qt.Assert(t, qt.Equals(buf.String(), "transform "+trPath+` (1 rewrites)
external call to 'foo' 2 times (1 shapes)
'foo' -> 'bar'
  foo(?) x2 -> bar[0]
`))

	qt.Assert(t, qt.IsNotNil(runDump(&buf, filepath.Join(dir, "missing"), false, false)))
}
