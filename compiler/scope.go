package compiler

import "github.com/chazu/pyjs/syntax"

// ---------------------------------------------------------------------------
// Scope analysis
// ---------------------------------------------------------------------------

// binding summarises how one local name is bound in a def body.
type binding struct {
	sites     int
	first     syntax.Stmt // statement holding the first binding
	topAssign bool        // first binding is a top-level single-name assignment
	topDef    bool        // first binding is a top-level def
}

// declaration reports how a local is declared in emitted code.
type declaration int

const (
	declHoisted declaration = iota // one let at function top
	declInline                     // let at its first assignment
	declFunction                   // function declaration
)

func (b *binding) declaration() declaration {
	switch {
	case b.topDef && b.sites == 1:
		return declFunction
	case b.topAssign:
		return declInline
	}
	return declHoisted
}

// bindings collects the names bound in a def body (not counting
// parameters) in first-binding order.
type bindings struct {
	order []string
	info  map[string]*binding
}

func collectBindings(body []syntax.Stmt) *bindings {
	b := &bindings{info: make(map[string]*binding)}
	b.stmts(body, 0)
	return b
}

func (b *bindings) bind(name string, st syntax.Stmt) *binding {
	info, ok := b.info[name]
	if !ok {
		info = &binding{first: st}
		b.info[name] = info
		b.order = append(b.order, name)
	}
	info.sites++
	return info
}

func (b *bindings) stmts(list []syntax.Stmt, depth int) {
	for _, st := range list {
		b.stmt(st, depth)
	}
}

func (b *bindings) stmt(st syntax.Stmt, depth int) {
	switch s := st.(type) {
	case *syntax.Assign:
		for _, target := range s.Targets {
			if name, ok := target.(*syntax.Name); ok {
				info := b.bind(name.Id, st)
				if info.sites == 1 && depth == 0 && len(s.Targets) == 1 {
					info.topAssign = true
				}
				continue
			}
			b.target(target, st)
		}
	case *syntax.AnnAssign:
		if s.Value == nil {
			return
		}
		if name, ok := s.Target.(*syntax.Name); ok {
			info := b.bind(name.Id, st)
			if info.sites == 1 && depth == 0 {
				info.topAssign = true
			}
		}
	case *syntax.AugAssign:
		b.target(s.Target, st)
	case *syntax.For:
		b.target(s.Target, st)
		b.stmts(s.Body, depth+1)
		b.stmts(s.Else, depth+1)
	case *syntax.While:
		b.stmts(s.Body, depth+1)
		b.stmts(s.Else, depth+1)
	case *syntax.If:
		b.stmts(s.Body, depth+1)
		b.stmts(s.Else, depth+1)
	case *syntax.FuncDef:
		info := b.bind(s.Name, st)
		if info.sites == 1 && depth == 0 {
			info.topDef = true
		}
	}
}

// target records the names stored by an assignment target.
func (b *bindings) target(e syntax.Expr, st syntax.Stmt) {
	switch t := e.(type) {
	case *syntax.Name:
		b.bind(t.Id, st)
	case *syntax.Tuple:
		for _, elt := range t.Elts {
			b.target(elt, st)
		}
	case *syntax.List:
		for _, elt := range t.Elts {
			b.target(elt, st)
		}
	case *syntax.Starred:
		b.target(t.X, st)
	}
}

// ---------------------------------------------------------------------------
// Free variables
// ---------------------------------------------------------------------------

// freeVariables returns the names def loads without binding them, in
// first-occurrence order. Names free in nested defs, lambdas and
// comprehensions that def does not bind are free in def too.
func freeVariables(def *syntax.FuncDef) []string {
	w := &freeWalker{bound: make(map[string]bool), seen: make(map[string]bool)}
	// Defaults are evaluated where the def is defined.
	for _, p := range def.Params {
		if p.Default != nil {
			w.expr(p.Default)
		}
	}
	for _, p := range def.Params {
		w.bound[p.Name] = true
	}
	for name := range collectBindings(def.Body).info {
		w.bound[name] = true
	}
	w.stmts(def.Body)
	return w.free
}

type freeWalker struct {
	bound map[string]bool
	inner []map[string]bool // lambda and comprehension scopes
	seen  map[string]bool
	free  []string
}

func (w *freeWalker) load(name string) {
	for i := len(w.inner) - 1; i >= 0; i-- {
		if w.inner[i][name] {
			return
		}
	}
	if w.bound[name] || w.seen[name] {
		return
	}
	w.seen[name] = true
	w.free = append(w.free, name)
}

func (w *freeWalker) stmts(list []syntax.Stmt) {
	for _, st := range list {
		w.stmt(st)
	}
}

func (w *freeWalker) stmt(st syntax.Stmt) {
	switch s := st.(type) {
	case *syntax.FuncDef:
		for _, p := range s.Params {
			if p.Default != nil {
				w.expr(p.Default)
			}
		}
		for _, name := range freeVariables(&syntax.FuncDef{Params: s.Params, Body: s.Body}) {
			w.load(name)
		}
	case *syntax.Return:
		w.optional(s.Value)
	case *syntax.Assign:
		w.expr(s.Value)
		for _, t := range s.Targets {
			w.store(t)
		}
	case *syntax.AnnAssign:
		w.optional(s.Value)
		w.store(s.Target)
	case *syntax.AugAssign:
		w.expr(s.Target)
		w.expr(s.Value)
	case *syntax.ExprStmt:
		w.expr(s.X)
	case *syntax.If:
		w.expr(s.Cond)
		w.stmts(s.Body)
		w.stmts(s.Else)
	case *syntax.While:
		w.expr(s.Cond)
		w.stmts(s.Body)
		w.stmts(s.Else)
	case *syntax.For:
		w.expr(s.Iter)
		w.store(s.Target)
		w.stmts(s.Body)
		w.stmts(s.Else)
	}
}

// store walks the loads inside an assignment target.
func (w *freeWalker) store(e syntax.Expr) {
	switch t := e.(type) {
	case *syntax.Name:
	case *syntax.Tuple:
		for _, elt := range t.Elts {
			w.store(elt)
		}
	case *syntax.List:
		for _, elt := range t.Elts {
			w.store(elt)
		}
	case *syntax.Starred:
		w.store(t.X)
	default:
		w.expr(e)
	}
}

func (w *freeWalker) optional(e syntax.Expr) {
	if e != nil {
		w.expr(e)
	}
}

func (w *freeWalker) expr(e syntax.Expr) {
	switch x := e.(type) {
	case *syntax.Name:
		w.load(x.Id)
	case *syntax.Lambda:
		scope := make(map[string]bool)
		for _, p := range x.Params {
			if p.Default != nil {
				w.expr(p.Default)
			}
			scope[p.Name] = true
		}
		w.inner = append(w.inner, scope)
		w.expr(x.Body)
		w.inner = w.inner[:len(w.inner)-1]
	case *syntax.ListComp:
		w.comprehension(x.Generators, x.Elt)
	case *syntax.SetComp:
		w.comprehension(x.Generators, x.Elt)
	case *syntax.GeneratorExp:
		w.comprehension(x.Generators, x.Elt)
	case *syntax.DictComp:
		w.comprehension(x.Generators, x.Key, x.Value)
	default:
		syntax.Inspect(e, func(n syntax.Node) bool {
			if n == e {
				return true
			}
			if sub, ok := n.(syntax.Expr); ok {
				w.expr(sub)
				return false
			}
			return true
		})
	}
}

func (w *freeWalker) comprehension(gens []*syntax.Comprehension, elts ...syntax.Expr) {
	// The first iterable is evaluated in the enclosing scope.
	w.expr(gens[0].Iter)
	scope := make(map[string]bool)
	w.inner = append(w.inner, scope)
	for i, g := range gens {
		if i > 0 {
			w.expr(g.Iter)
		}
		targetNames(g.Target, scope)
		for _, cond := range g.Ifs {
			w.expr(cond)
		}
	}
	for _, e := range elts {
		w.expr(e)
	}
	w.inner = w.inner[:len(w.inner)-1]
}

// targetNames adds the names stored by target to set.
func targetNames(target syntax.Expr, set map[string]bool) {
	switch t := target.(type) {
	case *syntax.Name:
		set[t.Id] = true
	case *syntax.Tuple:
		for _, elt := range t.Elts {
			targetNames(elt, set)
		}
	case *syntax.List:
		for _, elt := range t.Elts {
			targetNames(elt, set)
		}
	case *syntax.Starred:
		targetNames(t.X, set)
	}
}

// allNames returns every identifier spelled anywhere in def.
func allNames(def *syntax.FuncDef) map[string]bool {
	names := make(map[string]bool)
	syntax.Inspect(def, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Name:
			names[n.Id] = true
		case *syntax.Param:
			names[n.Name] = true
		case *syntax.FuncDef:
			names[n.Name] = true
		}
		return true
	})
	return names
}
