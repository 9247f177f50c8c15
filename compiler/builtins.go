package compiler

import (
	"errors"
	"fmt"

	"github.com/chazu/pyjs/jsast"
)

// ---------------------------------------------------------------------------
// Builtin functions
// ---------------------------------------------------------------------------

func registerBuiltins(r *Registry) {
	add := func(name string, result Shape, gen BuiltinFunc, value func() jsast.Expr) {
		r.builtins[name] = &builtin{gen: gen, value: value, result: result}
	}
	valuePath := func(p string) func() jsast.Expr {
		return func() jsast.Expr { return path(p) }
	}

	add("len", ShapeNumber, genLen, func() jsast.Expr {
		t := &transpiler{}
		return arrow([]string{"$v"}, t.lengthOf(ident("$v"), ShapeUnknown))
	})
	add("min", ShapeUnknown, genExtreme("min", "<"), nil)
	add("max", ShapeUnknown, genExtreme("max", ">"), nil)
	add("range", ShapeArray, genRange, nil)
	add("enumerate", ShapeArray, genEnumerate, nil)
	add("zip", ShapeArray, genZip, nil)
	add("sorted", ShapeArray, genSorted, nil)
	add("filter", ShapeArray, genFilter, nil)
	add("map", ShapeArray, genMap, nil)
	add("any", ShapeBool, genTest("some"), nil)
	add("all", ShapeBool, genTest("every"), nil)
	add("sum", ShapeNumber, genSum, nil)
	add("reversed", ShapeArray, genReversed, nil)
	add("abs", ShapeNumber, genUnary("abs", "Math.abs"), valuePath("Math.abs"))
	add("round", ShapeNumber, genRound, nil)
	add("int", ShapeNumber, genInt, func() jsast.Expr {
		return arrow([]string{"$v"}, call(path("Math.trunc"), call(ident("Number"), ident("$v"))))
	})
	add("float", ShapeNumber, genConvert("float", "Number", num(0)), valuePath("Number"))
	add("str", ShapeString, genConvert("str", "String", str("")), valuePath("String"))
	add("bool", ShapeBool, genConvert("bool", "Boolean", &jsast.Bool{Value: false}), valuePath("Boolean"))
	add("list", ShapeArray, genSequence("list"), nil)
	add("tuple", ShapeArray, genSequence("tuple"), nil)
	add("set", ShapeSet, genSet, nil)
	add("dict", ShapeDict, genDict, nil)
	add("print", ShapeUnknown, genPrint, nil)
	add("chr", ShapeString, genUnary("chr", "String.fromCodePoint"), valuePath("String.fromCodePoint"))
	add("ord", ShapeNumber, genOrd, nil)
	add("pow", ShapeNumber, genPow, nil)
}

func genLen(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(1, 1); err != nil {
		return nil, err
	}
	return cs.t.lengthOf(cs.Args[0], cs.shape(0)), nil
}

// genExtreme builds min (op "<") and max (op ">").
func genExtreme(name, op string) BuiltinFunc {
	return func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.allowKwargs("key", "default"); err != nil {
			return nil, err
		}
		if err := cs.arity(1, -1); err != nil {
			return nil, err
		}
		key, hasKey := cs.Kwarg("key")
		if _, isNull := key.(*jsast.Null); isNull {
			hasKey = false
		}
		def, hasDefault := cs.Kwarg("default")
		if len(cs.Args) > 1 && hasDefault {
			return nil, fmt.Errorf("%s() cannot specify a default for multiple positional arguments", name)
		}
		if len(cs.Args) > 1 && !hasKey && cs.allShape(ShapeNumber) {
			mathName := "Math.min"
			if op == ">" {
				mathName = "Math.max"
			}
			return call(path(mathName), cs.Args...), nil
		}

		var items jsast.Expr
		if len(cs.Args) > 1 {
			items = array(cs.Args...)
		} else {
			items = cs.t.arrayOf(cs.Args[0], cs.shape(0), false)
		}
		values := []jsast.Expr{items}
		if hasKey {
			values = append(values, key)
		}
		return cs.Bind(values, func(r []jsast.Expr) jsast.Expr {
			a, b := ident("$a"), ident("$b")
			var ka, kb jsast.Expr = a, b
			if hasKey {
				ka, kb = call(r[1], a), call(r[1], b)
			}
			reduce := invoke(r[0], "reduce", arrow([]string{"$a", "$b"}, cond(bin(op, kb, ka), b, a)))
			if !hasDefault {
				return reduce
			}
			return cond(member(r[0], "length"), reduce, def)
		}), nil
	}
}

func genRange(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(1, 3); err != nil {
		return nil, err
	}
	seq := func(length jsast.Expr, elem jsast.Expr) jsast.Expr {
		return call(path("Array.from"),
			&jsast.Object{Props: []jsast.Property{{Key: "length", Value: length}}},
			arrow([]string{"$_", "$i"}, elem))
	}
	i := ident("$i")
	switch len(cs.Args) {
	case 1:
		return seq(cs.Args[0], i), nil
	case 2:
		return cs.Bind(cs.Args, func(r []jsast.Expr) jsast.Expr {
			start, stop := r[0], r[1]
			return seq(call(path("Math.max"), num(0), bin("-", stop, start)), bin("+", start, i))
		}), nil
	}
	return cs.Bind(cs.Args, func(r []jsast.Expr) jsast.Expr {
		start, stop, step := r[0], r[1], r[2]
		length := call(path("Math.max"), num(0), call(path("Math.ceil"), bin("/", bin("-", stop, start), step)))
		return seq(length, bin("+", start, bin("*", i, step)))
	}), nil
}

func genEnumerate(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs("start"); err != nil {
		return nil, err
	}
	if err := cs.arity(1, 2); err != nil {
		return nil, err
	}
	items := cs.t.arrayOf(cs.Args[0], cs.shape(0), false)
	start, ok := cs.Arg(1, "start")
	if !ok {
		return invoke(items, "map", arrow([]string{"$v", "$i"}, array(ident("$i"), ident("$v")))), nil
	}
	return cs.Bind([]jsast.Expr{items, start}, func(r []jsast.Expr) jsast.Expr {
		return invoke(r[0], "map", arrow([]string{"$v", "$i"}, array(bin("+", ident("$i"), r[1]), ident("$v"))))
	}), nil
}

func genZip(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if len(cs.Args) == 0 {
		return array(), nil
	}
	lists := make([]jsast.Expr, len(cs.Args))
	for i, a := range cs.Args {
		lists[i] = cs.t.arrayOf(a, cs.shape(i), false)
	}
	return cs.Bind(lists, func(r []jsast.Expr) jsast.Expr {
		lengths := make([]jsast.Expr, len(r))
		elems := make([]jsast.Expr, len(r))
		for i, l := range r {
			lengths[i] = member(l, "length")
			elems[i] = index(l, ident("$i"))
		}
		return call(path("Array.from"),
			&jsast.Object{Props: []jsast.Property{{Key: "length", Value: call(path("Math.min"), lengths...)}}},
			arrow([]string{"$_", "$i"}, array(elems...)))
	}), nil
}

// comparator builds a sort comparator with Python's ordering, applying key
// (which must be simple) and reverse.
func comparator(key jsast.Expr, reverse bool) jsast.Expr {
	a, b := "$a", "$b"
	if reverse {
		a, b = b, a
	}
	if key == nil {
		fn := arrow([]string{"$a", "$b"}, compareBody(ident(a), ident(b)))
		return fn
	}
	return &jsast.Function{
		Arrow:  true,
		Params: []jsast.Param{{Name: "$a"}, {Name: "$b"}},
		Body: []jsast.Stmt{
			&jsast.Assign{Declare: jsast.DeclConst, Target: ident("$x"), Value: call(key, ident(a))},
			&jsast.Assign{Declare: jsast.DeclConst, Target: ident("$y"), Value: call(key, ident(b))},
			&jsast.Return{Value: compareBody(ident("$x"), ident("$y"))},
		},
	}
}

// sortOptions reads the key and reverse keyword arguments.
func sortOptions(cs *CallSite) (key jsast.Expr, reverse bool, err error) {
	if err := cs.allowKwargs("key", "reverse"); err != nil {
		return nil, false, err
	}
	if k, ok := cs.Kwarg("key"); ok {
		if _, isNull := k.(*jsast.Null); !isNull {
			key = k
		}
	}
	if rv, ok := cs.Kwarg("reverse"); ok {
		b, isBool := rv.(*jsast.Bool)
		if !isBool {
			return nil, false, errors.New("reverse must be True or False")
		}
		reverse = b.Value
	}
	return key, reverse, nil
}

// sortExpr sorts list in place.
func sortExpr(cs *CallSite, list jsast.Expr) (jsast.Expr, error) {
	key, reverse, err := sortOptions(cs)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return invoke(list, "sort", comparator(nil, reverse)), nil
	}
	return cs.Bind([]jsast.Expr{key}, func(r []jsast.Expr) jsast.Expr {
		return invoke(list, "sort", comparator(r[0], reverse))
	}), nil
}

func genSorted(cs *CallSite) (jsast.Expr, error) {
	if err := cs.arity(1, 1); err != nil {
		return nil, err
	}
	return sortExpr(cs, cs.t.arrayOf(cs.Args[0], cs.shape(0), true))
}

// callback adapts a Python callable to a one-argument JS callback.
func callback(cs *CallSite, fn jsast.Expr, use func(cb jsast.Expr) jsast.Expr) jsast.Expr {
	if isArrow1(fn) {
		return use(fn)
	}
	return cs.Bind([]jsast.Expr{fn}, func(r []jsast.Expr) jsast.Expr {
		return use(arrow([]string{"$v"}, call(r[0], ident("$v"))))
	})
}

// isArrow1 reports whether fn is an arrow literal taking exactly one plain
// parameter, safe to pass where JS supplies extra arguments.
func isArrow1(fn jsast.Expr) bool {
	f, ok := fn.(*jsast.Function)
	return ok && f.Arrow && len(f.Params) == 1 && !f.Params[0].Rest && len(f.Params[0].Elems) == 0
}

func genFilter(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(2, 2); err != nil {
		return nil, err
	}
	items := cs.t.arrayOf(cs.Args[1], cs.shape(1), false)
	if _, isNull := cs.Args[0].(*jsast.Null); isNull {
		return invoke(items, "filter", arrow([]string{"$v"}, ident("$v"))), nil
	}
	if isArrow1(cs.Args[0]) || isSimple(cs.Args[0]) {
		return callback(cs, cs.Args[0], func(cb jsast.Expr) jsast.Expr { return invoke(items, "filter", cb) }), nil
	}
	// Keep Python's evaluation order: the function before the iterable.
	return cs.Bind([]jsast.Expr{cs.Args[0], items}, func(r []jsast.Expr) jsast.Expr {
		return invoke(r[1], "filter", arrow([]string{"$v"}, call(r[0], ident("$v"))))
	}), nil
}

func genMap(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(2, -1); err != nil {
		return nil, err
	}
	if len(cs.Args) == 2 {
		items := cs.t.arrayOf(cs.Args[1], cs.shape(1), false)
		if isArrow1(cs.Args[0]) {
			return invoke(items, "map", cs.Args[0]), nil
		}
		return cs.Bind([]jsast.Expr{cs.Args[0], items}, func(r []jsast.Expr) jsast.Expr {
			return invoke(r[1], "map", arrow([]string{"$v"}, call(r[0], ident("$v"))))
		}), nil
	}
	values := []jsast.Expr{cs.Args[0]}
	for i, a := range cs.Args[1:] {
		values = append(values, cs.t.arrayOf(a, cs.shape(i+1), false))
	}
	return cs.Bind(values, func(r []jsast.Expr) jsast.Expr {
		lists := r[1:]
		lengths := make([]jsast.Expr, len(lists))
		elems := make([]jsast.Expr, len(lists))
		for i, l := range lists {
			lengths[i] = member(l, "length")
			elems[i] = index(l, ident("$i"))
		}
		return call(path("Array.from"),
			&jsast.Object{Props: []jsast.Property{{Key: "length", Value: call(path("Math.min"), lengths...)}}},
			arrow([]string{"$_", "$i"}, call(r[0], elems...)))
	}), nil
}

// genTest builds any (some) and all (every).
func genTest(fn string) BuiltinFunc {
	return func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.allowKwargs(); err != nil {
			return nil, err
		}
		if err := cs.arity(1, 1); err != nil {
			return nil, err
		}
		items := cs.t.arrayOf(cs.Args[0], cs.shape(0), false)
		return invoke(items, fn, arrow([]string{"$v"}, ident("$v"))), nil
	}
}

func genSum(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs("start"); err != nil {
		return nil, err
	}
	if err := cs.arity(1, 2); err != nil {
		return nil, err
	}
	items := cs.t.arrayOf(cs.Args[0], cs.shape(0), false)
	start, ok := cs.Arg(1, "start")
	if !ok {
		start = num(0)
	}
	return invoke(items, "reduce", arrow([]string{"$a", "$b"}, bin("+", ident("$a"), ident("$b"))), start), nil
}

func genReversed(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(1, 1); err != nil {
		return nil, err
	}
	return invoke(cs.t.arrayOf(cs.Args[0], cs.shape(0), true), "reverse"), nil
}

// genUnary maps a one-argument builtin onto a JS function.
func genUnary(name, jsPath string) BuiltinFunc {
	return func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.allowKwargs(); err != nil {
			return nil, err
		}
		if err := cs.arity(1, 1); err != nil {
			return nil, err
		}
		return call(path(jsPath), cs.Args[0]), nil
	}
}

func genRound(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs("ndigits"); err != nil {
		return nil, err
	}
	if err := cs.arity(1, 2); err != nil {
		return nil, err
	}
	if digits, ok := cs.Arg(1, "ndigits"); ok {
		if _, isNull := digits.(*jsast.Null); !isNull {
			return call(ident("Number"), toFixedEven(cs.Args[0], digits)), nil
		}
	}
	// Round half to even.
	return cs.Bind(cs.Args[:1], func(r []jsast.Expr) jsast.Expr {
		x := r[0]
		half := bin("===", call(path("Math.abs"), bin("%", x, num(1))), num(0.5))
		return cond(half,
			bin("*", num(2), call(path("Math.round"), bin("/", x, num(2)))),
			call(path("Math.round"), x))
	}), nil
}

func genInt(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs("base"); err != nil {
		return nil, err
	}
	if err := cs.arity(0, 2); err != nil {
		return nil, err
	}
	if len(cs.Args) == 0 {
		return num(0), nil
	}
	if base, ok := cs.Arg(1, "base"); ok {
		return call(ident("parseInt"), cs.Args[0], base), nil
	}
	return call(path("Math.trunc"), call(ident("Number"), cs.Args[0])), nil
}

// genConvert maps float, str and bool onto the JS conversion functions.
func genConvert(name, fn string, zero jsast.Expr) BuiltinFunc {
	return func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.allowKwargs(); err != nil {
			return nil, err
		}
		if err := cs.arity(0, 1); err != nil {
			return nil, err
		}
		if len(cs.Args) == 0 {
			return zero, nil
		}
		return call(ident(fn), cs.Args[0]), nil
	}
}

func genSequence(name string) BuiltinFunc {
	return func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.allowKwargs(); err != nil {
			return nil, err
		}
		if err := cs.arity(0, 1); err != nil {
			return nil, err
		}
		if len(cs.Args) == 0 {
			return array(), nil
		}
		return cs.t.arrayOf(cs.Args[0], cs.shape(0), true), nil
	}
}

func genSet(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(0, 1); err != nil {
		return nil, err
	}
	if len(cs.Args) == 0 {
		return newExpr("Set"), nil
	}
	return newExpr("Set", cs.t.arrayOf(cs.Args[0], cs.shape(0), false)), nil
}

func genDict(cs *CallSite) (jsast.Expr, error) {
	if err := cs.arity(0, 1); err != nil {
		return nil, err
	}
	obj := &jsast.Object{}
	if len(cs.Args) == 1 {
		var src jsast.Expr
		switch cs.shape(0) {
		case ShapeDict:
			src = cs.Args[0]
		case ShapeArray, ShapeMap:
			src = call(path("Object.fromEntries"), cs.Args[0])
		default:
			src = cs.Bind(cs.Args, func(r []jsast.Expr) jsast.Expr {
				x := r[0]
				return cond(or(guard(ShapeArray, x), guard(ShapeMap, x)),
					call(path("Object.fromEntries"), x),
					&jsast.Object{Props: []jsast.Property{{Spread: true, Value: x}}})
			})
		}
		if len(cs.Kwargs) == 0 && cs.shape(0) != ShapeDict {
			return src, nil
		}
		obj.Props = append(obj.Props, jsast.Property{Spread: true, Value: src})
	}
	for _, kw := range cs.Kwargs {
		obj.Props = append(obj.Props, jsast.Property{Key: kw.Name, Value: kw.Value})
	}
	return obj, nil
}

func genPrint(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs("sep"); err != nil {
		return nil, err
	}
	sep, ok := cs.Kwarg("sep")
	if !ok {
		return call(path("console.log"), cs.Args...), nil
	}
	return call(path("console.log"), invoke(array(cs.Args...), "join", sep)), nil
}

func genOrd(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(1, 1); err != nil {
		return nil, err
	}
	return invoke(cs.Args[0], "codePointAt", num(0)), nil
}

func genPow(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs(); err != nil {
		return nil, err
	}
	if err := cs.arity(2, 2); err != nil {
		return nil, err
	}
	return bin("**", cs.Args[0], cs.Args[1]), nil
}
