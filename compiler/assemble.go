package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/chazu/pyjs/jsast"
)

// ---------------------------------------------------------------------------
// Code assembly
// ---------------------------------------------------------------------------

// Bundle is the emitted source of a set of root functions and everything
// they reach.
type Bundle struct {
	Code          string
	ExternalNames map[string]string // root ID -> allocated name
	ContentHash   string            // hex SHA-256 of Code
	Modules       []string          // non-builtin namespaces the host must provide
	Functions     []string          // allocated function names in emission order
	Constants     []string          // allocated constant names in emission order
}

const (
	white = iota
	gray
	black
)

type constant struct {
	name  string
	value jsast.Expr
}

type assembler struct {
	names  *nameAllocator
	color  map[*CompiledFunction]int
	rename map[string]string // Ref key -> allocated name
	byCode map[string]string // emitted constant -> allocated name

	order   []*CompiledFunction // post-order
	consts  []constant
	modules map[string]bool
}

// assemble emits roots and their dependency graph as one source text.
// Roots are visited in ID order and dependencies in first-reference
// order, so the output does not depend on the order roots were given.
func assemble(roots []*CompiledFunction) (*Bundle, error) {
	sorted := append([]*CompiledFunction(nil), roots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	a := &assembler{
		names:   newNameAllocator(),
		color:   make(map[*CompiledFunction]int),
		rename:  make(map[string]string),
		byCode:  make(map[string]string),
		modules: make(map[string]bool),
	}
	reachable(sorted, func(cf *CompiledFunction) {
		a.names.reserve(jsast.Idents(cf.Root))
	})
	for _, cf := range sorted {
		if err := a.visit(cf, nil); err != nil {
			return nil, err
		}
	}

	p := jsast.NewPrinter(func(key string) string { return a.rename[key] })
	b := &Bundle{ExternalNames: make(map[string]string, len(roots))}
	var stmts []jsast.Stmt
	for _, cf := range a.order {
		decl := *cf.Root
		decl.Name = a.rename[cf.key]
		stmts = append(stmts, &jsast.FuncDecl{Func: &decl})
		b.Functions = append(b.Functions, decl.Name)
	}
	for _, c := range a.consts {
		stmts = append(stmts, &jsast.Assign{Declare: jsast.DeclConst, Target: ident(c.name), Value: c.value})
		b.Constants = append(b.Constants, c.name)
	}
	p.Stmts(stmts)

	b.Code = p.String()
	sum := sha256.Sum256([]byte(b.Code))
	b.ContentHash = hex.EncodeToString(sum[:])
	for _, cf := range sorted {
		b.ExternalNames[cf.ID] = a.rename[cf.key]
	}
	for m := range a.modules {
		b.Modules = append(b.Modules, m)
	}
	sort.Strings(b.Modules)
	return b, nil
}

// reachable calls fn once for every function reachable from roots.
func reachable(roots []*CompiledFunction, fn func(*CompiledFunction)) {
	seen := make(map[*CompiledFunction]bool)
	var walk func(cf *CompiledFunction)
	walk = func(cf *CompiledFunction) {
		if seen[cf] {
			return
		}
		seen[cf] = true
		fn(cf)
		for _, d := range cf.Deps {
			if d.Kind == DepFunction {
				walk(d.Func)
			}
		}
	}
	for _, cf := range roots {
		walk(cf)
	}
}

// visit names cf on discovery, then its dependencies in the order its
// tree first references them, and records cf after them.
func (a *assembler) visit(cf *CompiledFunction, path []*CompiledFunction) error {
	switch a.color[cf] {
	case black:
		return nil
	case gray:
		return a.cycle(cf, path)
	}
	a.color[cf] = gray
	a.rename[cf.key] = a.names.allocate(cf.Name)
	path = append(path, cf)

	deps := make(map[string]*Dependency, len(cf.Deps))
	for _, d := range cf.Deps {
		if d.Key != "" {
			deps[d.Key] = d
		}
		if d.Kind == DepModule && !d.Module.Builtin {
			a.modules[rootName(d.Module.JS)] = true
		}
	}
	for _, key := range jsast.Refs(cf.Root) {
		d, ok := deps[key]
		if !ok {
			continue
		}
		switch d.Kind {
		case DepFunction:
			if err := a.visit(d.Func, path); err != nil {
				return err
			}
		case DepConstant:
			a.constant(d)
		}
	}

	a.color[cf] = black
	a.order = append(a.order, cf)
	return nil
}

// constant names d, sharing the name of an identical constant already
// emitted.
func (a *assembler) constant(d *Dependency) {
	code := jsast.EmitExpr(d.Const)
	if name, ok := a.byCode[code]; ok {
		a.rename[d.Key] = name
		return
	}
	name := a.names.allocate(d.Name)
	a.byCode[code] = name
	a.rename[d.Key] = name
	a.consts = append(a.consts, constant{name: name, value: d.Const})
}

func (a *assembler) cycle(cf *CompiledFunction, path []*CompiledFunction) error {
	var names []string
	start := 0
	for i, f := range path {
		if f == cf {
			start = i
			break
		}
	}
	for _, f := range path[start:] {
		names = append(names, f.Name)
	}
	names = append(names, cf.Name)
	return &Error{
		Code: CyclicDependency, Construct: cf.Name, Func: path[len(path)-1].Name,
		Msg: "cyclic dependency: " + strings.Join(names, " -> "),
	}
}
