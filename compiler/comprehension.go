package compiler

import (
	"github.com/chazu/pyjs/jsast"
	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// Comprehension chains
// ---------------------------------------------------------------------------

// comprehension desugars the for clauses of a comprehension into a
// filter/map chain. Every clause but the last maps with flatMap so the
// nested results come out flat; each if clause becomes a filter right
// before its clause's map. Targets are scoped to the chain.
func (t *transpiler) comprehension(gens []*syntax.Comprehension, elt func() jsast.Expr) jsast.Expr {
	sc := &scope{names: make(map[string]string)}
	t.push(sc)
	defer t.pop()
	return t.clause(gens, 0, sc, elt)
}

func (t *transpiler) clause(gens []*syntax.Comprehension, i int, sc *scope, elt func() jsast.Expr) jsast.Expr {
	g := gens[i]
	// Nothing is bound in sc yet when the first iterable is translated,
	// so it sees the enclosing scope only.
	iter := t.arrayOf(t.expr(g.Iter), t.knownShape(g.Iter), false)

	param := t.clauseParam(g.Target, sc)
	chain := iter
	for _, cond := range g.Ifs {
		test := &jsast.Function{Arrow: true, Params: []jsast.Param{param}, ExprBody: t.expr(cond)}
		chain = invoke(chain, "filter", test)
	}
	if i == len(gens)-1 {
		return invoke(chain, "map", &jsast.Function{Arrow: true, Params: []jsast.Param{param}, ExprBody: elt()})
	}
	inner := t.clause(gens, i+1, sc, elt)
	return invoke(chain, "flatMap", &jsast.Function{Arrow: true, Params: []jsast.Param{param}, ExprBody: inner})
}

// clauseParam binds the names of a clause target in sc and returns the
// arrow parameter receiving each element.
func (t *transpiler) clauseParam(target syntax.Expr, sc *scope) jsast.Param {
	bind := func(n *syntax.Name) string {
		js := t.localName(n.Id)
		sc.names[n.Id] = js
		return js
	}
	switch x := target.(type) {
	case *syntax.Name:
		return jsast.Param{Name: bind(x)}
	case *syntax.Tuple, *syntax.List:
		var elts []syntax.Expr
		if tup, ok := x.(*syntax.Tuple); ok {
			elts = tup.Elts
		} else {
			elts = x.(*syntax.List).Elts
		}
		t.checkFlat(elts)
		names := make([]string, len(elts))
		for i, e := range elts {
			names[i] = bind(e.(*syntax.Name))
		}
		return jsast.Param{Elems: names}
	}
	t.fail(target, UnsupportedUnpacking, "comprehension target", "only names and flat tuples of names can be comprehension targets")
	return jsast.Param{}
}
