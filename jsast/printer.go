package jsast

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Printer: renders nodes as JavaScript source text
// ---------------------------------------------------------------------------

// Printer accumulates emitted source. Rename resolves Ref keys to their
// allocated names; when it is nil or returns "", the Ref's hint is used.
type Printer struct {
	buf    strings.Builder
	indent int
	Rename func(key string) string
}

// NewPrinter creates a printer with the given Ref resolver.
func NewPrinter(rename func(key string) string) *Printer {
	return &Printer{Rename: rename}
}

// String returns everything printed so far.
func (p *Printer) String() string {
	return p.buf.String()
}

// Expr prints an expression at the lowest precedence.
func (p *Printer) Expr(e Expr) {
	p.expr(e, LLowest)
}

// Stmts prints a statement list, one statement per line.
func (p *Printer) Stmts(stmts []Stmt) {
	for _, s := range stmts {
		s.emitStmt(p)
	}
}

// EmitExpr renders a single expression without renaming.
func EmitExpr(e Expr) string {
	p := NewPrinter(nil)
	p.Expr(e)
	return p.String()
}

// EmitStmts renders statements without renaming.
func EmitStmts(stmts ...Stmt) string {
	p := NewPrinter(nil)
	p.Stmts(stmts)
	return p.String()
}

func (p *Printer) print(s string) {
	p.buf.WriteString(s)
}

func (p *Printer) printIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
}

// expr prints e, wrapping it in parentheses when its level is below the
// level the context requires.
func (p *Printer) expr(e Expr, level L) {
	if e.Level() < level {
		p.print("(")
		e.emit(p)
		p.print(")")
		return
	}
	e.emit(p)
}

// parens prints e inside parentheses unconditionally.
func (p *Printer) parens(e Expr) {
	p.print("(")
	e.emit(p)
	p.print(")")
}

// list prints comma-separated elements, allowing spreads.
func (p *Printer) list(elems []Expr) {
	for i, e := range elems {
		if i > 0 {
			p.print(", ")
		}
		p.element(e)
	}
}

func (p *Printer) element(e Expr) {
	if s, ok := e.(*Spread); ok {
		s.emit(p)
		return
	}
	p.expr(e, LAssign)
}

func (p *Printer) block(stmts []Stmt) {
	p.print("{\n")
	p.indent++
	p.Stmts(stmts)
	p.indent--
	p.printIndent()
	p.print("}")
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (n *Ident) emit(p *Printer) { p.print(n.Name) }

func (n *Ref) emit(p *Printer) {
	if p.Rename != nil {
		if name := p.Rename(n.Key); name != "" {
			p.print(name)
			return
		}
	}
	p.print(n.Hint)
}

func (n *Number) emit(p *Printer) { p.print(FormatNumber(n.Value)) }

func (n *String) emit(p *Printer) { p.print(Quote(n.Value)) }

func (n *Bool) emit(p *Printer) {
	if n.Value {
		p.print("true")
	} else {
		p.print("false")
	}
}

func (*Null) emit(p *Printer)      { p.print("null") }
func (*Undefined) emit(p *Printer) { p.print("undefined") }

func (n *Array) emit(p *Printer) {
	p.print("[")
	p.list(n.Elems)
	p.print("]")
}

func (n *Object) emit(p *Printer) {
	if len(n.Props) == 0 {
		p.print("{}")
		return
	}
	p.print("{ ")
	for i, prop := range n.Props {
		if i > 0 {
			p.print(", ")
		}
		switch {
		case prop.Spread:
			p.print("...")
			p.expr(prop.Value, LAssign)
			continue
		case prop.Computed != nil:
			p.print("[")
			p.expr(prop.Computed, LAssign)
			p.print("]")
		case IsIdentifierName(prop.Key):
			p.print(prop.Key)
		default:
			p.print(Quote(prop.Key))
		}
		p.print(": ")
		p.expr(prop.Value, LAssign)
	}
	p.print(" }")
}

func (n *Unary) emit(p *Printer) {
	p.print(n.Op)
	if isKeywordOp(n.Op) {
		p.print(" ")
	}
	// "- -x" and "--x" differ; keep sign operators apart.
	if (n.Op == "-" || n.Op == "+") && startsWithSign(n.X) {
		p.parens(n.X)
		return
	}
	p.expr(n.X, LPrefix)
}

func startsWithSign(e Expr) bool {
	switch x := e.(type) {
	case *Unary:
		return x.Op == "-" || x.Op == "+"
	case *Number:
		return x.Level() == LPrefix
	}
	return false
}

func (n *Binary) emit(p *Printer) {
	level := n.Level()
	left, right := level, level+1
	if IsRightAssociative(n.Op) {
		left, right = level+1, level
	}

	if n.Op == "**" && n.X.Level() <= LPrefix {
		p.parens(n.X)
	} else {
		p.expr(n.X, left)
	}
	p.print(" ")
	p.print(n.Op)
	p.print(" ")
	if n.Op == "**" && n.Y.Level() == LPrefix {
		p.parens(n.Y)
	} else {
		p.expr(n.Y, right)
	}
}

func (n *Logical) emit(p *Printer) {
	level := n.Level()
	for i, v := range n.Values {
		if i > 0 {
			p.print(" ")
			p.print(n.Op)
			p.print(" ")
			p.expr(v, level+1)
			continue
		}
		p.expr(v, level)
	}
}

func (n *Conditional) emit(p *Printer) {
	p.expr(n.Test, LConditional+1)
	p.print(" ? ")
	p.expr(n.Then, LAssign)
	p.print(" : ")
	p.expr(n.Else, LAssign)
}

func (n *Call) emit(p *Printer) {
	p.expr(n.Callee, LCall)
	p.print("(")
	p.list(n.Args)
	p.print(")")
}

func (n *Member) emit(p *Printer) {
	if _, ok := n.X.(*Number); ok {
		p.parens(n.X)
	} else {
		p.expr(n.X, LCall)
	}
	p.print(".")
	p.print(n.Name)
}

func (n *Index) emit(p *Printer) {
	if _, ok := n.X.(*Number); ok {
		p.parens(n.X)
	} else {
		p.expr(n.X, LCall)
	}
	p.print("[")
	p.expr(n.Index, LLowest)
	p.print("]")
}

func (n *New) emit(p *Printer) {
	p.print("new ")
	p.expr(n.Callee, LMember)
	p.print("(")
	p.list(n.Args)
	p.print(")")
}

func (n *Function) emit(p *Printer) {
	if !n.Arrow {
		p.print("function")
		if n.Name != "" {
			p.print(" ")
			p.print(n.Name)
		}
	}
	p.print("(")
	for i, param := range n.Params {
		if i > 0 {
			p.print(", ")
		}
		if param.Rest {
			p.print("...")
		}
		if len(param.Elems) > 0 {
			p.print("[")
			p.print(strings.Join(param.Elems, ", "))
			p.print("]")
		} else {
			p.print(param.Name)
		}
		if param.Default != nil {
			p.print(" = ")
			p.expr(param.Default, LAssign)
		}
	}
	p.print(")")
	if n.Arrow {
		p.print(" =>")
	}
	p.print(" ")
	if n.Arrow && n.ExprBody != nil {
		if startsWithBrace(n.ExprBody) {
			p.parens(n.ExprBody)
		} else {
			p.expr(n.ExprBody, LAssign)
		}
		return
	}
	p.block(n.Body)
}

func (n *Regex) emit(p *Printer) {
	p.print("/")
	p.print(n.Pattern)
	p.print("/")
	p.print(n.Flags)
}

func (n *Template) emit(p *Printer) {
	p.print("`")
	for i, q := range n.Quasis {
		p.print(escapeTemplate(q))
		if i < len(n.Exprs) {
			p.print("${")
			p.expr(n.Exprs[i], LLowest)
			p.print("}")
		}
	}
	p.print("`")
}

func (n *JSXElement) emit(p *Printer) {
	p.print("<")
	p.print(n.Tag)
	for _, a := range n.Attrs {
		p.print(" ")
		if a.Spread {
			p.print("{...")
			p.expr(a.Value, LAssign)
			p.print("}")
			continue
		}
		p.print(a.Name)
		p.print("={")
		p.expr(a.Value, LAssign)
		p.print("}")
	}
	if len(n.Children) == 0 && n.Tag != "" {
		p.print(" />")
		return
	}
	p.print(">")
	for _, c := range n.Children {
		if el, ok := c.(*JSXElement); ok {
			el.emit(p)
			continue
		}
		p.print("{")
		p.expr(c, LAssign)
		p.print("}")
	}
	p.print("</")
	p.print(n.Tag)
	p.print(">")
}

func (n *Spread) emit(p *Printer) {
	p.print("...")
	p.expr(n.X, LAssign)
}

func (n *Sequence) emit(p *Printer) {
	for i, e := range n.Exprs {
		if i > 0 {
			p.print(", ")
		}
		p.expr(e, LAssign)
	}
}

func (n *AssignExpr) emit(p *Printer) {
	p.expr(n.Target, LCall)
	p.print(" ")
	p.print(n.Op)
	p.print(" ")
	p.expr(n.Value, LAssign)
}

// startsWithBrace reports whether e's text begins with "{" or "function",
// which would be misread at the start of a statement or arrow body.
func startsWithBrace(e Expr) bool {
	for {
		switch x := e.(type) {
		case *Object:
			return true
		case *Function:
			return !x.Arrow
		case *Binary:
			e = x.X
		case *Logical:
			e = x.Values[0]
		case *Conditional:
			e = x.Test
		case *Call:
			e = x.Callee
		case *Member:
			e = x.X
		case *Index:
			e = x.X
		case *Sequence:
			e = x.Exprs[0]
		case *AssignExpr:
			e = x.Target
		default:
			return false
		}
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (n *ExprStmt) emitStmt(p *Printer) {
	p.printIndent()
	if startsWithBrace(n.X) {
		p.parens(n.X)
	} else {
		p.expr(n.X, LLowest)
	}
	p.print(";\n")
}

func (n *Return) emitStmt(p *Printer) {
	p.printIndent()
	if n.Value == nil {
		p.print("return;\n")
		return
	}
	p.print("return ")
	p.expr(n.Value, LLowest)
	p.print(";\n")
}

func (n *Assign) emitStmt(p *Printer) {
	p.printIndent()
	if n.Declare != DeclNone {
		p.print(n.Declare.String())
		p.print(" ")
	}
	p.expr(n.Target, LCall)
	p.print(" = ")
	p.expr(n.Value, LAssign)
	p.print(";\n")
}

func (n *AugAssign) emitStmt(p *Printer) {
	p.printIndent()
	p.expr(n.Target, LCall)
	p.print(" ")
	p.print(n.Op)
	p.print("= ")
	p.expr(n.Value, LAssign)
	p.print(";\n")
}

func (n *Let) emitStmt(p *Printer) {
	p.printIndent()
	p.print("let ")
	p.print(strings.Join(n.Names, ", "))
	p.print(";\n")
}

func (n *If) emitStmt(p *Printer) {
	p.printIndent()
	n.emitChain(p)
	p.print("\n")
}

func (n *If) emitChain(p *Printer) {
	p.print("if (")
	p.expr(n.Test, LLowest)
	p.print(") ")
	p.block(n.Then)
	if len(n.Else) == 0 {
		return
	}
	p.print(" else ")
	if elif, ok := n.Else[0].(*If); ok && len(n.Else) == 1 {
		elif.emitChain(p)
		return
	}
	p.block(n.Else)
}

func (n *While) emitStmt(p *Printer) {
	p.printIndent()
	p.print("while (")
	p.expr(n.Test, LLowest)
	p.print(") ")
	p.block(n.Body)
	p.print("\n")
}

func (n *ForOf) emitStmt(p *Printer) {
	p.printIndent()
	p.print("for (")
	if n.Declare != DeclNone {
		p.print(n.Declare.String())
		p.print(" ")
	}
	p.print(n.Name)
	p.print(" of ")
	p.expr(n.Iter, LAssign)
	p.print(") ")
	p.block(n.Body)
	p.print("\n")
}

func (*Break) emitStmt(p *Printer) {
	p.printIndent()
	p.print("break;\n")
}

func (*Continue) emitStmt(p *Printer) {
	p.printIndent()
	p.print("continue;\n")
}

func (n *Block) emitStmt(p *Printer) {
	p.printIndent()
	p.block(n.Body)
	p.print("\n")
}

func (n *FuncDecl) emitStmt(p *Printer) {
	p.printIndent()
	f := *n.Func
	f.Arrow = false
	f.emit(p)
	p.print("\n")
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// FormatNumber renders a float the way JavaScript's Number#toString does
// for the values the compiler produces.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case isNegativeZero(v):
		return "-0"
	case v == math.Trunc(v) && math.Abs(v) < 1e21:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isNegativeZero(v float64) bool {
	return v == 0 && math.Signbit(v)
}
