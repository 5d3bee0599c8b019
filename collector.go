package main

import (
	"fmt"
	"go/types"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"go-previrt/iface"
)

// Program is a loaded and built SSA program together with the packages
// matched by the requested patterns, which are the components.
type Program struct {
	RootModule string
	Prog       *ssa.Program
	Components []*ssa.Package
	Graph      *callgraph.Graph // nil unless dynamic calls are resolved

	funcs map[*ssa.Package][]*ssa.Function
}

// LoadProgram loads the packages matching cfg's patterns and builds SSA for
// them. With cfg.Dynamic set it also builds a VTA call graph.
func LoadProgram(cfg AnalysisConfig) (*Program, error) {
	absDir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	modulePath, err := detectModulePath(absDir)
	if err != nil {
		return nil, fmt.Errorf("cannot detect Go module: %w", err)
	}
	log.Printf("Module: %s", modulePath)
	log.Printf("Dir: %s", absDir)

	log.Println("Loading packages (this may take a minute)...")
	pcfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
			packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedTypesSizes,
		Dir: absDir,
	}
	pkgs, err := packages.Load(pcfg, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		log.Printf("Warning: %d package errors (continuing anyway)", n)
	}
	log.Printf("Loaded %d packages", len(pkgs))

	log.Println("Building SSA...")
	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	p := &Program{RootModule: modulePath, Prog: prog}
	for _, sp := range ssaPkgs {
		if sp != nil {
			sp.Build()
			p.Components = append(p.Components, sp)
		}
	}
	all := ssautil.AllFunctions(prog)
	p.funcs = componentFuncs(all)
	if cfg.Dynamic {
		log.Println("Building call graph (VTA)...")
		p.Graph = vta.CallGraph(all, nil)
	}
	return p, nil
}

// Collector returns a collector for the component pkg.
func (p *Program) Collector(pkg *ssa.Package) *Collector {
	return NewCollector(p.RootModule, pkg, p.Graph, p.funcs[pkg])
}

// componentFuncs groups the functions that have a body by package.
func componentFuncs(all map[*ssa.Function]bool) map[*ssa.Package][]*ssa.Function {
	out := make(map[*ssa.Package][]*ssa.Function)
	for fn := range all {
		if fn.Pkg != nil && fn.Blocks != nil {
			out[fn.Pkg] = append(out[fn.Pkg], fn)
		}
	}
	return out
}

// Collector walks the external call sites of one component.
type Collector struct {
	RootModule string

	pkg   *ssa.Package
	graph *callgraph.Graph
	funcs []*ssa.Function
}

// NewCollector returns a collector for pkg whose functions are funcs. graph
// may be nil, in which case only statically dispatched calls are visited.
func NewCollector(rootModule string, pkg *ssa.Package, graph *callgraph.Graph, funcs []*ssa.Function) *Collector {
	c := &Collector{RootModule: rootModule, pkg: pkg, graph: graph, funcs: slices.Clone(funcs)}
	sort.Slice(c.funcs, func(i, j int) bool {
		return c.funcs[i].String() < c.funcs[j].String()
	})
	return c
}

// relPath strips the module prefix from a full file or package path,
// returning a path relative to the project root.
func (c *Collector) relPath(fullPath string) string {
	if c.RootModule == "" {
		return fullPath
	}
	if idx := strings.Index(fullPath, c.RootModule); idx >= 0 {
		rest := fullPath[idx+len(c.RootModule):]
		if len(rest) > 0 && rest[0] == '/' {
			return rest[1:]
		}
		return rest
	}
	return fullPath
}

// isExternal reports whether g is not defined by the component: it either
// belongs to another package or is a bodiless declaration. Package
// initializers are never part of an interface.
func (c *Collector) isExternal(g *ssa.Function) bool {
	if g.Synthetic == "package initializer" {
		return false
	}
	if g.Blocks == nil {
		return true
	}
	if g.Pkg != nil {
		return g.Pkg != c.pkg
	}
	if obj := g.Object(); obj != nil && obj.Pkg() != nil {
		return obj.Pkg() != c.pkg.Pkg
	}
	return false
}

// siteVisitor is called once per external call site and resolved callee.
type siteVisitor func(caller *ssa.Function, site ssa.CallInstruction, callee *ssa.Function, args []ssa.Value)

// visitCalls calls visit for every external call site of the component.
// Static calls come from the instructions; dynamic ones from the call graph.
func (c *Collector) visitCalls(visit siteVisitor) {
	for _, f := range c.funcs {
		for _, b := range f.Blocks {
			for _, instr := range b.Instrs {
				site, ok := instr.(ssa.CallInstruction)
				if !ok {
					continue
				}
				if g := site.Common().StaticCallee(); g != nil && c.isExternal(g) {
					visit(f, site, g, site.Common().Args)
				}
			}
		}
		if c.graph == nil {
			continue
		}
		node := c.graph.Nodes[f]
		if node == nil {
			continue
		}
		for _, edge := range node.Out {
			if edge.Site == nil || edge.Site.Common().StaticCallee() != nil {
				continue
			}
			if g := edge.Callee.Func; c.isExternal(g) {
				visit(f, edge.Site, g, callArgs(edge.Site.Common()))
			}
		}
	}
}

// visitOperands reports external functions used as values and external
// globals referenced by the component.
func (c *Collector) visitOperands(fn func(*ssa.Function), global func(*ssa.Global)) {
	var space [32]*ssa.Value
	for _, f := range c.funcs {
		for _, b := range f.Blocks {
			for _, instr := range b.Instrs {
				rands := instr.Operands(space[:0])
				if _, ok := instr.(ssa.CallInstruction); ok && len(rands) > 0 {
					// Ignore the call-position operand.
					rands = rands[1:]
				}
				for _, op := range rands {
					switch v := (*op).(type) {
					case *ssa.Function:
						if c.isExternal(v) {
							fn(v)
						}
					case *ssa.Global:
						if v.Pkg != c.pkg {
							global(v)
						}
					}
				}
			}
		}
	}
}

// Collect summarizes the component's external calls into a new interface.
func (c *Collector) Collect(abs iface.Abstractor) *Component {
	comp := &Component{
		Path:  c.pkg.Pkg.Path(),
		Name:  c.pkg.Pkg.Name(),
		Iface: iface.NewComponentInterface(abs),
	}
	c.visitCalls(func(_ *ssa.Function, _ ssa.CallInstruction, callee *ssa.Function, args []ssa.Value) {
		comp.Iface.Call(buildSSAFuncName(callee), args)
		comp.Sites++
	})
	c.visitOperands(func(g *ssa.Function) {
		name := buildSSAFuncName(g)
		comp.Iface.CallAny(name, arity(g))
		comp.Iface.Reference(name)
	}, func(g *ssa.Global) {
		comp.Iface.Reference(globalName(g))
	})
	return comp
}

// Externals lists the external functions the component calls or
// references, sorted by name.
func (c *Collector) Externals() []ExternalFunc {
	seen := make(map[string]ExternalFunc)
	add := func(g *ssa.Function) {
		name := buildSSAFuncName(g)
		if _, ok := seen[name]; !ok {
			seen[name] = ExternalFunc{
				FullName: name,
				Arity:    arity(g),
				Declared: g.Blocks == nil && g.Pkg == c.pkg,
			}
		}
	}
	c.visitCalls(func(_ *ssa.Function, _ ssa.CallInstruction, callee *ssa.Function, _ []ssa.Value) {
		add(callee)
	})
	c.visitOperands(add, func(*ssa.Global) {})

	out := make([]ExternalFunc, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// ResolveRewrites looks up, for every external call site of the component,
// the rewrite t selects for the site's arguments as abstracted by abs.
// Sites without a rewrite are omitted.
func (c *Collector) ResolveRewrites(t *iface.Transform, abs iface.Abstractor) ([]ResolvedCall, error) {
	var (
		out []ResolvedCall
		err error
	)
	c.visitCalls(func(caller *ssa.Function, site ssa.CallInstruction, callee *ssa.Function, args []ssa.Value) {
		if err != nil {
			return
		}
		name := buildSSAFuncName(callee)
		abstracted := abs.AbstractAll(args)
		if !t.Interface().HasFunction(name) {
			return
		}
		rw, ok := t.LookupRewriteTypes(name, abstracted)
		if !ok {
			return
		}
		picked, gerr := iface.Gather(rw, args)
		if gerr != nil {
			err = fmt.Errorf("%s: %w", c.position(site), gerr)
			return
		}
		names := make([]string, len(picked))
		for i, v := range picked {
			names[i] = v.Name()
		}
		out = append(out, ResolvedCall{
			Site:    c.position(site),
			Caller:  buildSSAFuncName(caller),
			Callee:  name,
			Rewrite: rw,
			Args:    names,
		})
	})
	return out, err
}

func (c *Collector) position(site ssa.CallInstruction) string {
	pos := c.pkg.Prog.Fset.Position(site.Pos())
	if !pos.IsValid() {
		return "?"
	}
	return fmt.Sprintf("%s:%d", c.relPath(pos.Filename), pos.Line)
}

// callArgs returns the arguments of a call; for an interface method call
// the receiver comes first, matching the method's static signature.
func callArgs(common *ssa.CallCommon) []ssa.Value {
	if !common.IsInvoke() {
		return common.Args
	}
	args := make([]ssa.Value, 0, len(common.Args)+1)
	args = append(args, common.Value)
	return append(args, common.Args...)
}

// arity returns the number of arguments of fn, counting the receiver.
func arity(fn *ssa.Function) int {
	n := fn.Signature.Params().Len()
	if fn.Signature.Recv() != nil {
		n++
	}
	return n
}

func globalName(g *ssa.Global) string {
	if g.Pkg == nil {
		return g.Name()
	}
	return g.Pkg.Pkg.Path() + "." + g.Name()
}

// buildSSAFuncName derives a full name for an SSA function:
// package.Func or package.ReceiverType.Method.
func buildSSAFuncName(fn *ssa.Function) string {
	if fn.Pkg == nil {
		return fn.String()
	}
	pkgPath := fn.Pkg.Pkg.Path()

	if recv := fn.Signature.Recv(); recv != nil {
		recvType := recv.Type()
		if ptr, ok := recvType.(*types.Pointer); ok {
			recvType = ptr.Elem()
		}
		if named, ok := recvType.(*types.Named); ok {
			return pkgPath + "." + named.Obj().Name() + "." + fn.Name()
		}
	}
	return pkgPath + "." + fn.Name()
}

// detectModulePath reads the go.mod file in dir and returns the module path.
func detectModulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("cannot read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("module directive not found in go.mod")
	}
	return path, nil
}
