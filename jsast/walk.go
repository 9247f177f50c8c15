package jsast

import "strings"

// Walk traverses n depth-first in source order, calling fn for every node.
// Children of a node are skipped when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Array:
		walkExprs(n.Elems, fn)
	case *Object:
		for _, prop := range n.Props {
			if prop.Computed != nil {
				Walk(prop.Computed, fn)
			}
			Walk(prop.Value, fn)
		}
	case *Unary:
		Walk(n.X, fn)
	case *Binary:
		Walk(n.X, fn)
		Walk(n.Y, fn)
	case *Logical:
		walkExprs(n.Values, fn)
	case *Conditional:
		Walk(n.Test, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Call:
		Walk(n.Callee, fn)
		walkExprs(n.Args, fn)
	case *Member:
		Walk(n.X, fn)
	case *Index:
		Walk(n.X, fn)
		Walk(n.Index, fn)
	case *New:
		Walk(n.Callee, fn)
		walkExprs(n.Args, fn)
	case *Function:
		for _, param := range n.Params {
			if param.Default != nil {
				Walk(param.Default, fn)
			}
		}
		walkStmts(n.Body, fn)
		if n.ExprBody != nil {
			Walk(n.ExprBody, fn)
		}
	case *Template:
		walkExprs(n.Exprs, fn)
	case *JSXElement:
		for _, a := range n.Attrs {
			Walk(a.Value, fn)
		}
		walkExprs(n.Children, fn)
	case *Spread:
		Walk(n.X, fn)
	case *Sequence:
		walkExprs(n.Exprs, fn)
	case *AssignExpr:
		Walk(n.Target, fn)
		Walk(n.Value, fn)

	case *ExprStmt:
		Walk(n.X, fn)
	case *Return:
		if n.Value != nil {
			Walk(n.Value, fn)
		}
	case *Assign:
		Walk(n.Target, fn)
		Walk(n.Value, fn)
	case *AugAssign:
		Walk(n.Target, fn)
		Walk(n.Value, fn)
	case *If:
		Walk(n.Test, fn)
		walkStmts(n.Then, fn)
		walkStmts(n.Else, fn)
	case *While:
		Walk(n.Test, fn)
		walkStmts(n.Body, fn)
	case *ForOf:
		Walk(n.Iter, fn)
		walkStmts(n.Body, fn)
	case *Block:
		walkStmts(n.Body, fn)
	case *FuncDecl:
		Walk(n.Func, fn)
	}
}

func walkExprs(list []Expr, fn func(Node) bool) {
	for _, e := range list {
		Walk(e, fn)
	}
}

func walkStmts(list []Stmt, fn func(Node) bool) {
	for _, s := range list {
		Walk(s, fn)
	}
}

// Refs returns the distinct Ref keys under n in first-reference order.
func Refs(n Node) []string {
	var keys []string
	seen := make(map[string]bool)
	Walk(n, func(n Node) bool {
		if r, ok := n.(*Ref); ok && !seen[r.Key] {
			seen[r.Key] = true
			keys = append(keys, r.Key)
		}
		return true
	})
	return keys
}

// Idents returns every identifier spelled under n: plain identifiers,
// parameter and declared names, and the root of each JSX tag.
func Idents(n Node) map[string]bool {
	names := make(map[string]bool)
	Walk(n, func(n Node) bool {
		switch n := n.(type) {
		case *Ident:
			names[n.Name] = true
		case *Function:
			if n.Name != "" {
				names[n.Name] = true
			}
			for _, p := range n.Params {
				if p.Name != "" {
					names[p.Name] = true
				}
				for _, e := range p.Elems {
					names[e] = true
				}
			}
		case *Let:
			for _, name := range n.Names {
				names[name] = true
			}
		case *ForOf:
			names[n.Name] = true
		case *JSXElement:
			if n.Tag != "" {
				names[strings.SplitN(n.Tag, ".", 2)[0]] = true
			}
		}
		return true
	})
	return names
}
