package compiler

import (
	"strings"

	"github.com/chazu/pyjs/jsast"
	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// UI elements
// ---------------------------------------------------------------------------

// An element expression goes bare -> called -> finalised: Tag, Tag(props,
// *children), Tag(props)[children]. Nothing can follow finalisation.
type elementState int

const (
	elementBare elementState = iota
	elementCalled
	elementFinal
)

type element struct {
	tag   string
	state elementState
}

func (el *element) label() string {
	if el.tag == "" {
		return "<>"
	}
	return "<" + el.tag + ">"
}

// elementOf reports the element state of e, or nil when e is not an
// element expression.
func (t *transpiler) elementOf(e syntax.Expr) *element {
	switch x := e.(type) {
	case *syntax.Name:
		if _, local := t.lookupLocal(x.Id); local {
			return nil
		}
		d, ok := t.deps[x.Id]
		if !ok || d.Kind != DepElement {
			return nil
		}
		return &element{tag: d.Tag}
	case *syntax.Call:
		el := t.elementOf(x.Func)
		if el == nil {
			return nil
		}
		if el.state != elementBare {
			t.fail(x, ElementAlreadyFinalized, el.label(), "element %s cannot be called again", el.label())
		}
		el.state = elementCalled
		return el
	case *syntax.Subscript:
		el := t.elementOf(x.X)
		if el == nil {
			return nil
		}
		if el.state == elementFinal {
			t.fail(x, ElementAlreadyFinalized, el.label(), "element %s already has its children", el.label())
		}
		el.state = elementFinal
		return el
	}
	return nil
}

// elementCall builds Tag(a=1, **spread, b=2, *children). Props keep
// source order, spreads included.
func (t *transpiler) elementCall(c *syntax.Call, el *element) *jsast.JSXElement {
	if el.state != elementBare {
		t.fail(c, ElementAlreadyFinalized, el.label(), "element %s cannot be called again", el.label())
	}
	node := &jsast.JSXElement{Tag: el.tag}
	for _, kw := range c.Keywords {
		if el.tag == "" {
			t.fail(kw, UnsupportedSyntax, kw.Name, "fragments take no props")
		}
		if kw.Name == "" {
			node.Attrs = append(node.Attrs, jsast.JSXAttr{Spread: true, Value: t.expr(kw.Value)})
			continue
		}
		node.Attrs = append(node.Attrs, jsast.JSXAttr{Name: propName(kw.Name), Value: t.expr(kw.Value)})
	}
	node.Children = t.children(c.Args)
	return node
}

// elementChildren builds Tag[...] and Tag(...)[...].
func (t *transpiler) elementChildren(x *syntax.Subscript, el *element) jsast.Expr {
	if el.state == elementFinal {
		t.fail(x, ElementAlreadyFinalized, el.label(), "element %s already has its children", el.label())
	}
	var node *jsast.JSXElement
	if c, ok := x.X.(*syntax.Call); ok {
		node = t.elementCall(c, t.elementOf(c.Func))
	} else {
		node = &jsast.JSXElement{Tag: el.tag}
	}
	if _, ok := x.Index.(*syntax.Slice); ok {
		t.fail(x.Index, UnsupportedSyntax, ":", "element children cannot be sliced")
	}
	if tup, ok := x.Index.(*syntax.Tuple); ok {
		node.Children = append(node.Children, t.children(tup.Elts)...)
	} else {
		node.Children = append(node.Children, t.children([]syntax.Expr{x.Index})...)
	}
	return node
}

// finishElement renders a bare element used as a value.
func (t *transpiler) finishElement(el *element) jsast.Expr {
	return &jsast.JSXElement{Tag: el.tag}
}

// children translates element children; *xs inserts the list itself,
// which the runtime renders item by item.
func (t *transpiler) children(list []syntax.Expr) []jsast.Expr {
	out := make([]jsast.Expr, len(list))
	for i, e := range list {
		if s, ok := e.(*syntax.Starred); ok {
			out[i] = t.arrayOf(t.expr(s.X), t.knownShape(s.X), false)
			continue
		}
		out[i] = t.expr(e)
	}
	return out
}

// propName maps class_ and for_ style keywords onto prop names.
func propName(name string) string {
	if len(name) > 1 && strings.HasSuffix(name, "_") {
		return name[:len(name)-1]
	}
	return name
}
