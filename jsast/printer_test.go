package jsast

import (
	"testing"

	"github.com/dop251/goja/parser"
)

func id(name string) *Ident { return &Ident{Name: name} }

func num(v float64) *Number { return &Number{Value: v} }

func neg(x Expr) *Unary { return &Unary{Op: "-", X: x} }

func bin(op string, x, y Expr) *Binary { return &Binary{Op: op, X: x, Y: y} }

func TestEmitPrecedence(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{&Logical{Op: "||", Values: []Expr{&Logical{Op: "&&", Values: []Expr{id("a"), id("b")}}, id("c")}}, "a && b || c"},
		{&Logical{Op: "&&", Values: []Expr{id("a"), &Logical{Op: "||", Values: []Expr{id("b"), id("c")}}}}, "a && (b || c)"},
		{bin("**", num(2), neg(id("x"))), "2 ** (-x)"},
		{bin("**", neg(id("x")), num(2)), "(-x) ** 2"},
		{bin("**", id("a"), bin("**", id("b"), id("c"))), "a ** b ** c"},
		{bin("**", bin("**", id("a"), id("b")), id("c")), "(a ** b) ** c"},
		{bin("-", id("a"), bin("-", id("b"), id("c"))), "a - (b - c)"},
		{bin("-", bin("-", id("a"), id("b")), id("c")), "a - b - c"},
		{bin("*", bin("+", id("a"), id("b")), id("c")), "(a + b) * c"},
		{bin("+", id("a"), bin("*", id("b"), id("c"))), "a + b * c"},
		{&Member{X: bin("+", id("a"), id("b")), Name: "x"}, "(a + b).x"},
		{&Member{X: num(1), Name: "toFixed"}, "(1).toFixed"},
		{&Call{Callee: &Function{Arrow: true, Params: []Param{{Name: "x"}}, ExprBody: id("x")}, Args: []Expr{num(1)}}, "((x) => x)(1)"},
		{neg(neg(id("x"))), "-(-x)"},
		{neg(num(-1)), "-(-1)"},
		{&Unary{Op: "!", X: bin("in", id("k"), id("o"))}, "!(k in o)"},
		{bin("===", &Unary{Op: "typeof", X: id("x")}, &String{Value: "string"}), `typeof x === "string"`},
		{&Conditional{Test: id("a"), Then: id("b"), Else: &Conditional{Test: id("c"), Then: id("d"), Else: id("e")}}, "a ? b : c ? d : e"},
		{&Conditional{Test: &Conditional{Test: id("a"), Then: id("b"), Else: id("c")}, Then: id("d"), Else: id("e")}, "(a ? b : c) ? d : e"},
		{&Call{Callee: id("f"), Args: []Expr{&Sequence{Exprs: []Expr{id("a"), id("b")}}}}, "f((a, b))"},
		{&Function{Arrow: true, ExprBody: &Object{Props: []Property{{Key: "a", Value: num(1)}}}}, "() => ({ a: 1 })"},
		{&New{Callee: &Call{Callee: id("f")}}, "new (f())()"},
		{&Member{X: &New{Callee: id("Set"), Args: []Expr{id("xs")}}, Name: "size"}, "new Set(xs).size"},
		{&Call{Callee: id("f"), Args: []Expr{&Spread{X: id("xs")}}}, "f(...xs)"},
		{&Array{Elems: []Expr{num(1), &Spread{X: id("rest")}}}, "[1, ...rest]"},
		{&Object{Props: []Property{{Key: "a-b", Value: num(1)}, {Spread: true, Value: id("o")}, {Computed: id("k"), Value: id("v")}}}, `{ "a-b": 1, ...o, [k]: v }`},
		{&Sequence{Exprs: []Expr{&Call{Callee: &Member{X: id("xs"), Name: "push"}, Args: []Expr{id("x")}}, &Undefined{}}}, "xs.push(x), undefined"},
		{&AssignExpr{Target: &Index{X: id("d"), Index: id("k")}, Op: "=", Value: id("v")}, "d[k] = v"},
		{&Conditional{Test: id("c"), Then: &AssignExpr{Target: id("a"), Op: "=", Value: num(1)}, Else: id("b")}, "c ? a = 1 : b"},
		{&Template{Quasis: []string{"a", "b`${"}, Exprs: []Expr{id("x")}}, "`a${x}b\\`\\${`"},
		{&String{Value: "he said \"hi\"\n"}, `"he said \"hi\"\n"`},
		{num(1.5), "1.5"},
		{num(-0.5), "-0.5"},
		{num(1e21), "1e+21"},
		{num(100), "100"},
		{&Call{Callee: &Member{X: &Regex{Pattern: `^\d+$`}, Name: "test"}, Args: []Expr{id("s")}}, `/^\d+$/.test(s)`},
		{&Function{Arrow: true, Params: []Param{{Elems: []string{"k", "v"}}}, ExprBody: id("v")}, "([k, v]) => v"},
	}

	for _, tc := range tests {
		got := EmitExpr(tc.expr)
		if got != tc.want {
			t.Errorf("emit = %s, want %s", got, tc.want)
		}
	}
}

func TestEmittedExpressionsParse(t *testing.T) {
	exprs := []Expr{
		bin("**", num(2), neg(id("x"))),
		bin("**", neg(id("x")), num(2)),
		&Member{X: num(1), Name: "toFixed"},
		&Call{Callee: &Function{Arrow: true, Params: []Param{{Name: "x"}}, ExprBody: id("x")}, Args: []Expr{num(1)}},
		neg(neg(id("x"))),
		&Function{Arrow: true, ExprBody: &Object{Props: []Property{{Key: "a", Value: num(1)}}}},
		&Object{Props: []Property{{Key: "a", Value: num(1)}}},
		&Conditional{Test: &Conditional{Test: id("a"), Then: id("b"), Else: id("c")}, Then: id("d"), Else: id("e")},
		&New{Callee: &Call{Callee: id("f")}},
		&Template{Quasis: []string{"`", "${"}, Exprs: []Expr{bin("+", id("a"), num(1))}},
	}
	for _, e := range exprs {
		src := EmitStmts(&ExprStmt{X: e})
		if _, err := parser.ParseFile(nil, "", src, 0); err != nil {
			t.Errorf("%s does not parse: %v", src, err)
		}
	}
}

func TestEmitJSX(t *testing.T) {
	el := &JSXElement{
		Tag: "div",
		Attrs: []JSXAttr{
			{Name: "a", Value: num(1)},
			{Spread: true, Value: id("s")},
			{Name: "b", Value: num(2)},
		},
		Children: []Expr{&String{Value: "hi"}, &JSXElement{Tag: "br"}},
	}
	want := `<div a={1} {...s} b={2}>{"hi"}<br /></div>`
	if got := EmitExpr(el); got != want {
		t.Errorf("emit = %s, want %s", got, want)
	}

	frag := &JSXElement{Children: []Expr{id("x")}}
	if got := EmitExpr(frag); got != "<>{x}</>" {
		t.Errorf("fragment = %s", got)
	}
}

func TestEmitRefs(t *testing.T) {
	call := &Call{Callee: &Ref{Key: "fn:1", Hint: "helper"}, Args: []Expr{&Ref{Key: "const:1", Hint: "LIMIT"}}}
	if got := EmitExpr(call); got != "helper(LIMIT)" {
		t.Errorf("without renamer = %s", got)
	}
	p := NewPrinter(func(key string) string {
		if key == "fn:1" {
			return "helper_2"
		}
		return ""
	})
	p.Expr(call)
	if got := p.String(); got != "helper_2(LIMIT)" {
		t.Errorf("with renamer = %s", got)
	}
	if keys := Refs(&ExprStmt{X: call}); len(keys) != 2 || keys[0] != "fn:1" {
		t.Errorf("refs = %v", keys)
	}
}

func TestEmitStatements(t *testing.T) {
	fn := &FuncDecl{Func: &Function{
		Name:   "f",
		Params: []Param{{Name: "x"}, {Name: "y", Default: num(1)}},
		Body: []Stmt{
			&Let{Names: []string{"r"}},
			&If{
				Test: bin(">", id("x"), num(0)),
				Then: []Stmt{&Assign{Target: id("r"), Value: id("x")}},
				Else: []Stmt{&If{
					Test: bin("<", id("x"), num(0)),
					Then: []Stmt{&Assign{Target: id("r"), Value: neg(id("x"))}},
					Else: []Stmt{&Assign{Target: id("r"), Value: id("y")}},
				}},
			},
			&ForOf{Declare: DeclConst, Name: "v", Iter: id("xs"), Body: []Stmt{
				&AugAssign{Target: id("r"), Op: "+", Value: id("v")},
				&Continue{},
			}},
			&While{Test: &Bool{Value: false}, Body: []Stmt{&Break{}}},
			&Assign{Declare: DeclConst, Target: id("o"), Value: &Object{}},
			&ExprStmt{X: &Member{X: &Object{}, Name: "x"}},
			&Return{Value: id("r")},
		},
	}}

	want := `function f(x, y = 1) {
  let r;
  if (x > 0) {
    r = x;
  } else if (x < 0) {
    r = -x;
  } else {
    r = y;
  }
  for (const v of xs) {
    r += v;
    continue;
  }
  while (false) {
    break;
  }
  const o = {};
  ({}.x);
  return r;
}
`
	got := EmitStmts(fn)
	if got != want {
		t.Errorf("emit =\n%s\nwant\n%s", got, want)
	}
	if _, err := parser.ParseFile(nil, "", got, 0); err != nil {
		t.Errorf("emitted function does not parse: %v", err)
	}
}

func TestIsIdentifierName(t *testing.T) {
	tests := map[string]bool{
		"a": true, "_x": true, "$": true, "a1": true, "1a": false, "a-b": false, "": false,
	}
	for in, want := range tests {
		if got := IsIdentifierName(in); got != want {
			t.Errorf("IsIdentifierName(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIdents(t *testing.T) {
	fn := &Function{
		Name:   "f",
		Params: []Param{{Name: "x"}, {Elems: []string{"a", "b"}}},
		Body: []Stmt{
			&Let{Names: []string{"tmp"}},
			&Return{Value: &JSXElement{Tag: "ui.Card", Children: []Expr{bin("+", id("x"), &Ref{Key: "fn:1", Hint: "helper"})}}},
		},
	}
	got := Idents(fn)
	for _, want := range []string{"f", "x", "a", "b", "tmp", "ui"} {
		if !got[want] {
			t.Errorf("Idents missing %q: %v", want, got)
		}
	}
	if got["helper"] {
		t.Error("Idents includes a Ref hint")
	}
}
