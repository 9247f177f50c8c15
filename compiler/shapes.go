package compiler

import (
	"github.com/chazu/pyjs/jsast"
	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// Runtime shapes
// ---------------------------------------------------------------------------

// Shape is the runtime representation of a Python value.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeArray         // list, tuple
	ShapeString        // str
	ShapeSet           // set
	ShapeMap           // Map-backed dict
	ShapeDict          // plain-object dict
	ShapeNumber
	ShapeBool
	ShapeAny // method entries that apply to every receiver
)

// dispatchOrder is the fixed priority of runtime shape guards.
var dispatchOrder = []Shape{ShapeArray, ShapeString, ShapeSet, ShapeMap, ShapeDict}

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "list"
	case ShapeString:
		return "str"
	case ShapeSet:
		return "set"
	case ShapeMap:
		return "Map"
	case ShapeDict:
		return "dict"
	case ShapeNumber:
		return "number"
	case ShapeBool:
		return "bool"
	case ShapeAny:
		return "any"
	}
	return "unknown"
}

// guard returns the runtime test selecting shape s for a simple x.
func guard(s Shape, x jsast.Expr) jsast.Expr {
	switch s {
	case ShapeArray:
		return call(path("Array.isArray"), x)
	case ShapeString:
		return bin("===", &jsast.Unary{Op: "typeof", X: x}, str("string"))
	case ShapeSet:
		return bin("instanceof", x, ident("Set"))
	case ShapeMap:
		return bin("instanceof", x, ident("Map"))
	case ShapeDict:
		return and(
			bin("!=", x, &jsast.Null{}),
			bin("===", call(path("Object.getPrototypeOf"), x), path("Object.prototype")),
		)
	case ShapeNumber:
		return bin("===", &jsast.Unary{Op: "typeof", X: x}, str("number"))
	}
	return &jsast.Bool{Value: true}
}

// arrayOf views x as an array the way Python iterates it: lists as-is,
// strings and sets by element, dicts and Maps by key. With copy set the
// result never aliases x.
func (t *transpiler) arrayOf(x jsast.Expr, shape Shape, copy bool) jsast.Expr {
	switch shape {
	case ShapeArray:
		if copy {
			return invoke(x, "slice")
		}
		return x
	case ShapeString, ShapeSet:
		return array(spread(x))
	case ShapeMap:
		return array(spread(invoke(x, "keys")))
	case ShapeDict:
		return call(path("Object.keys"), x)
	}
	return bindValues(t.temp, []jsast.Expr{x}, func(r []jsast.Expr) jsast.Expr {
		v := r[0]
		var self jsast.Expr = v
		if copy {
			self = invoke(v, "slice")
		}
		iterable := bin("===",
			&jsast.Unary{Op: "typeof", X: index(v, path("Symbol.iterator"))},
			str("function"))
		return cond(guard(ShapeArray, v), self,
			cond(guard(ShapeMap, v), array(spread(invoke(v, "keys"))),
				cond(iterable, array(spread(v)), call(path("Object.keys"), v))))
	})
}

// lengthOf is len(x).
func (t *transpiler) lengthOf(x jsast.Expr, shape Shape) jsast.Expr {
	switch shape {
	case ShapeArray, ShapeString:
		return member(x, "length")
	case ShapeSet, ShapeMap:
		return member(x, "size")
	case ShapeDict:
		return member(call(path("Object.keys"), x), "length")
	}
	return bindValues(t.temp, []jsast.Expr{x}, func(r []jsast.Expr) jsast.Expr {
		v := r[0]
		return cond(or(guard(ShapeArray, v), guard(ShapeString, v)), member(v, "length"),
			cond(or(guard(ShapeSet, v), guard(ShapeMap, v)), member(v, "size"),
				member(call(path("Object.keys"), v), "length")))
	})
}

// contains is x in y.
func (t *transpiler) contains(x, y jsast.Expr, shape Shape) jsast.Expr {
	switch shape {
	case ShapeArray, ShapeString:
		return invoke(y, "includes", x)
	case ShapeSet, ShapeMap:
		return invoke(y, "has", x)
	case ShapeDict:
		return hasOwn(y, x)
	}
	return bindValues(t.temp, []jsast.Expr{x, y}, func(r []jsast.Expr) jsast.Expr {
		k, c := r[0], r[1]
		return cond(or(guard(ShapeArray, c), guard(ShapeString, c)), invoke(c, "includes", k),
			cond(or(guard(ShapeSet, c), guard(ShapeMap, c)), invoke(c, "has", k),
				cond(guard(ShapeDict, c), hasOwn(c, k), &jsast.Bool{Value: false})))
	})
}

// ---------------------------------------------------------------------------
// Static shape inference
// ---------------------------------------------------------------------------

// knownShape is the shape the dispatcher may rely on to skip runtime
// guards. It is ShapeUnknown when shape inference is off.
func (t *transpiler) knownShape(e syntax.Expr) Shape {
	if !t.opts.ShapeInference {
		return ShapeUnknown
	}
	return t.shapeOf(e)
}

// shapeOf infers the shape of fresh values: displays, comprehensions and
// calls of builtin constructors. Names are never tracked.
func (t *transpiler) shapeOf(e syntax.Expr) Shape {
	switch x := e.(type) {
	case *syntax.List, *syntax.Tuple, *syntax.ListComp, *syntax.GeneratorExp:
		return ShapeArray
	case *syntax.StringLit, *syntax.FString:
		return ShapeString
	case *syntax.Set, *syntax.SetComp:
		return ShapeSet
	case *syntax.Dict, *syntax.DictComp:
		return ShapeDict
	case *syntax.IntLit, *syntax.FloatLit:
		return ShapeNumber
	case *syntax.BoolLit:
		return ShapeBool
	case *syntax.BinOp:
		left, right := t.shapeOf(x.X), t.shapeOf(x.Y)
		switch x.Op {
		case "+":
			if left == right && (left == ShapeArray || left == ShapeString || left == ShapeNumber) {
				return left
			}
		case "*":
			if left == ShapeArray || right == ShapeArray {
				return ShapeArray
			}
			if left == ShapeString || right == ShapeString {
				return ShapeString
			}
		}
	case *syntax.Call:
		switch fn := x.Func.(type) {
		case *syntax.Name:
			if b := t.builtinNamed(fn.Id); b != nil {
				return b.result
			}
		case *syntax.Attribute:
			if t.shapeOf(fn.X) == ShapeString {
				return stringMethodResults[fn.Attr]
			}
		}
	}
	return ShapeUnknown
}

// stringMethodResults gives the result shape of str methods.
var stringMethodResults = map[string]Shape{
	"upper": ShapeString, "lower": ShapeString, "strip": ShapeString,
	"lstrip": ShapeString, "rstrip": ShapeString, "replace": ShapeString,
	"join": ShapeString, "split": ShapeArray, "find": ShapeNumber,
	"index": ShapeNumber, "count": ShapeNumber, "startswith": ShapeBool,
	"endswith": ShapeBool, "isdigit": ShapeBool,
}
