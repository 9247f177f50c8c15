package compiler

import (
	"strings"

	"github.com/chazu/pyjs/jsast"
)

// ---------------------------------------------------------------------------
// Node construction helpers
// ---------------------------------------------------------------------------

func ident(name string) *jsast.Ident { return &jsast.Ident{Name: name} }

func num(v float64) *jsast.Number { return &jsast.Number{Value: v} }

func str(s string) *jsast.String { return &jsast.String{Value: s} }

func undef() *jsast.Undefined { return &jsast.Undefined{} }

func member(x jsast.Expr, name string) *jsast.Member { return &jsast.Member{X: x, Name: name} }

func index(x, i jsast.Expr) *jsast.Index { return &jsast.Index{X: x, Index: i} }

func call(callee jsast.Expr, args ...jsast.Expr) *jsast.Call {
	return &jsast.Call{Callee: callee, Args: args}
}

// invoke calls method name on x.
func invoke(x jsast.Expr, name string, args ...jsast.Expr) *jsast.Call {
	return call(member(x, name), args...)
}

func newExpr(callee string, args ...jsast.Expr) *jsast.New {
	return &jsast.New{Callee: ident(callee), Args: args}
}

func bin(op string, x, y jsast.Expr) *jsast.Binary { return &jsast.Binary{Op: op, X: x, Y: y} }

func and(values ...jsast.Expr) jsast.Expr { return logical("&&", values) }

func or(values ...jsast.Expr) jsast.Expr { return logical("||", values) }

func logical(op string, values []jsast.Expr) jsast.Expr {
	if len(values) == 1 {
		return values[0]
	}
	return &jsast.Logical{Op: op, Values: values}
}

func not(x jsast.Expr) *jsast.Unary { return &jsast.Unary{Op: "!", X: x} }

func cond(test, then, els jsast.Expr) *jsast.Conditional {
	return &jsast.Conditional{Test: test, Then: then, Else: els}
}

func arrow(params []string, body jsast.Expr) *jsast.Function {
	fn := &jsast.Function{Arrow: true, ExprBody: body}
	for _, p := range params {
		fn.Params = append(fn.Params, jsast.Param{Name: p})
	}
	return fn
}

func spread(x jsast.Expr) *jsast.Spread { return &jsast.Spread{X: x} }

func array(elems ...jsast.Expr) *jsast.Array { return &jsast.Array{Elems: elems} }

// none evaluates x for its effect and yields undefined.
func none(x jsast.Expr) *jsast.Sequence {
	return &jsast.Sequence{Exprs: []jsast.Expr{x, undef()}}
}

// path builds a dotted JS expression such as "Math.floor".
func path(p string) jsast.Expr {
	parts := strings.Split(p, ".")
	var x jsast.Expr = ident(parts[0])
	for _, name := range parts[1:] {
		x = member(x, name)
	}
	return x
}

// isSimple reports whether e may be evaluated more than once without
// changing behaviour.
func isSimple(e jsast.Expr) bool {
	switch x := e.(type) {
	case *jsast.Ident, *jsast.Ref, *jsast.String, *jsast.Bool, *jsast.Null, *jsast.Undefined:
		return true
	case *jsast.Number:
		return true
	case *jsast.Unary:
		_, ok := x.X.(*jsast.Number)
		return ok && x.Op == "-"
	}
	return false
}

// bindValues passes values that are not simple through an arrow IIFE so
// that body may reference each one any number of times. Values are
// evaluated once, left to right.
func bindValues(temp func() string, values []jsast.Expr, body func(refs []jsast.Expr) jsast.Expr) jsast.Expr {
	refs := make([]jsast.Expr, len(values))
	var params []string
	var args []jsast.Expr
	for i, v := range values {
		if isSimple(v) {
			refs[i] = v
			continue
		}
		name := temp()
		params = append(params, name)
		args = append(args, v)
		refs[i] = ident(name)
	}
	out := body(refs)
	if len(params) == 0 {
		return out
	}
	return call(arrow(params, out), args...)
}

// hasOwn tests for an own key of a plain object.
func hasOwn(obj, key jsast.Expr) jsast.Expr {
	return call(path("Object.prototype.hasOwnProperty.call"), obj, key)
}

// compareBody orders a and b the way Python's < and > do for numbers and
// strings.
func compareBody(a, b jsast.Expr) jsast.Expr {
	return cond(bin("<", a, b), num(-1), cond(bin(">", a, b), num(1), num(0)))
}
