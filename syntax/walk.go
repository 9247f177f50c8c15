package syntax

// Inspect traverses n depth-first in source order, calling fn for every
// node. Children of a node are skipped when fn returns false.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *FString:
		for _, part := range n.Parts {
			if part.Field != nil {
				Inspect(part.Field, fn)
			}
		}
	case *FormattedValue:
		Inspect(n.Value, fn)
		if n.Spec != nil {
			Inspect(n.Spec, fn)
		}
	case *List:
		inspectExprs(n.Elts, fn)
	case *Tuple:
		inspectExprs(n.Elts, fn)
	case *Set:
		inspectExprs(n.Elts, fn)
	case *Dict:
		for i, k := range n.Keys {
			if k != nil {
				Inspect(k, fn)
			}
			Inspect(n.Values[i], fn)
		}
	case *BinOp:
		Inspect(n.X, fn)
		Inspect(n.Y, fn)
	case *UnaryOp:
		Inspect(n.X, fn)
	case *BoolOp:
		inspectExprs(n.Values, fn)
	case *Compare:
		Inspect(n.Left, fn)
		inspectExprs(n.Comparators, fn)
	case *IfExp:
		Inspect(n.Cond, fn)
		Inspect(n.Body, fn)
		Inspect(n.Else, fn)
	case *Lambda:
		for _, p := range n.Params {
			Inspect(p, fn)
		}
		Inspect(n.Body, fn)
	case *Call:
		Inspect(n.Func, fn)
		inspectExprs(n.Args, fn)
		for _, kw := range n.Keywords {
			Inspect(kw, fn)
		}
	case *Keyword:
		Inspect(n.Value, fn)
	case *Attribute:
		Inspect(n.X, fn)
	case *Subscript:
		Inspect(n.X, fn)
		Inspect(n.Index, fn)
	case *Slice:
		inspectOptional(n.Lower, fn)
		inspectOptional(n.Upper, fn)
		inspectOptional(n.Step, fn)
	case *Starred:
		Inspect(n.X, fn)
	case *NamedExpr:
		Inspect(n.Target, fn)
		Inspect(n.Value, fn)
	case *Comprehension:
		Inspect(n.Target, fn)
		Inspect(n.Iter, fn)
		inspectExprs(n.Ifs, fn)
	case *ListComp:
		inspectComp(n.Generators, fn, n.Elt)
	case *SetComp:
		inspectComp(n.Generators, fn, n.Elt)
	case *GeneratorExp:
		inspectComp(n.Generators, fn, n.Elt)
	case *DictComp:
		inspectComp(n.Generators, fn, n.Key, n.Value)
	case *Yield:
		inspectOptional(n.Value, fn)

	case *Param:
		inspectOptional(n.Default, fn)
	case *FuncDef:
		inspectExprs(n.Decorators, fn)
		for _, p := range n.Params {
			Inspect(p, fn)
		}
		inspectStmts(n.Body, fn)
	case *Return:
		inspectOptional(n.Value, fn)
	case *Assign:
		inspectExprs(n.Targets, fn)
		Inspect(n.Value, fn)
	case *AugAssign:
		Inspect(n.Target, fn)
		Inspect(n.Value, fn)
	case *AnnAssign:
		Inspect(n.Target, fn)
		Inspect(n.Annotation, fn)
		inspectOptional(n.Value, fn)
	case *ExprStmt:
		Inspect(n.X, fn)
	case *If:
		Inspect(n.Cond, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Else, fn)
	case *While:
		Inspect(n.Cond, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Else, fn)
	case *For:
		Inspect(n.Target, fn)
		Inspect(n.Iter, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Else, fn)
	}
}

func inspectOptional(e Expr, fn func(Node) bool) {
	if e != nil {
		Inspect(e, fn)
	}
}

func inspectExprs(list []Expr, fn func(Node) bool) {
	for _, e := range list {
		Inspect(e, fn)
	}
}

func inspectStmts(list []Stmt, fn func(Node) bool) {
	for _, s := range list {
		Inspect(s, fn)
	}
}

func inspectComp(gens []*Comprehension, fn func(Node) bool, elts ...Expr) {
	for _, g := range gens {
		Inspect(g, fn)
	}
	inspectExprs(elts, fn)
}
