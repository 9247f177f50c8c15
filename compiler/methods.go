package compiler

import (
	"errors"
	"fmt"

	"github.com/chazu/pyjs/jsast"
)

// ---------------------------------------------------------------------------
// Instance methods per receiver shape
// ---------------------------------------------------------------------------

func registerMethods(r *Registry) {
	// list
	r.AddMethod("append", ShapeArray, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "push", cs.Args[0]))
	}))
	r.AddMethod("extend", ShapeArray, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "push", spread(cs.t.arrayOf(cs.Args[0], cs.shape(0), false))))
	}))
	r.AddMethod("insert", ShapeArray, fixed(2, 2, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "splice", cs.Args[0], num(0), cs.Args[1]))
	}))
	r.AddMethod("pop", ShapeArray, fixed(0, 1, func(cs *CallSite) jsast.Expr {
		if len(cs.Args) == 0 {
			return invoke(cs.Recv, "pop")
		}
		return index(invoke(cs.Recv, "splice", cs.Args[0], num(1)), num(0))
	}))
	r.AddMethod("remove", ShapeArray, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, cs.Args, func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			return none(and(
				invoke(recv, "includes", a[0]),
				invoke(recv, "splice", invoke(recv, "indexOf", a[0]), num(1))))
		})
	}))
	r.AddMethod("clear", ShapeArray, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "splice", num(0)))
	}))
	r.AddMethod("copy", ShapeArray, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return invoke(cs.Recv, "slice")
	}))
	r.AddMethod("index", ShapeArray, fixed(1, 1, indexOf))
	r.AddMethod("count", ShapeArray, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, cs.Args, func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			eq := arrow([]string{"$v"}, bin("===", ident("$v"), a[0]))
			return member(invoke(recv, "filter", eq), "length")
		})
	}))
	r.AddMethod("reverse", ShapeArray, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "reverse"))
	}))
	r.AddMethod("sort", ShapeArray, func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.arity(0, 0); err != nil {
			return nil, err
		}
		sorted, err := sortExpr(cs, cs.Recv)
		if err != nil {
			return nil, err
		}
		return none(sorted), nil
	})

	// str
	r.AddMethod("upper", ShapeString, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return invoke(cs.Recv, "toUpperCase")
	}))
	r.AddMethod("lower", ShapeString, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return invoke(cs.Recv, "toLowerCase")
	}))
	for name, js := range map[string]string{"strip": "trim", "lstrip": "trimStart", "rstrip": "trimEnd"} {
		js := js
		r.AddMethod(name, ShapeString, func(cs *CallSite) (jsast.Expr, error) {
			if len(cs.Args) > 0 || len(cs.Kwargs) > 0 {
				return nil, fmt.Errorf("%s() with characters is not supported", cs.Name)
			}
			return invoke(cs.Recv, js), nil
		})
	}
	r.AddMethod("split", ShapeString, stringSplit)
	r.AddMethod("join", ShapeString, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, cs.Args, func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			return invoke(cs.t.arrayOf(a[0], cs.shape(0), false), "join", recv)
		})
	}))
	r.AddMethod("startswith", ShapeString, fixed(1, 1, prefixTest("startsWith")))
	r.AddMethod("endswith", ShapeString, fixed(1, 1, prefixTest("endsWith")))
	r.AddMethod("replace", ShapeString, func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.allowKwargs(); err != nil {
			return nil, err
		}
		if len(cs.Args) == 3 {
			return nil, errors.New("replace() with a count is not supported")
		}
		if err := cs.arity(2, 2); err != nil {
			return nil, err
		}
		return invoke(invoke(cs.Recv, "split", cs.Args[0]), "join", cs.Args[1]), nil
	})
	r.AddMethod("find", ShapeString, fixed(1, 1, indexOf))
	r.AddMethod("index", ShapeString, fixed(1, 1, indexOf))
	r.AddMethod("count", ShapeString, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		// An empty needle matches between every character and at both ends.
		return withRecv(cs, cs.Args, func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			return cond(bin("===", a[0], str("")),
				bin("+", member(recv, "length"), num(1)),
				bin("-", member(invoke(recv, "split", a[0]), "length"), num(1)))
		})
	}))
	r.AddMethod("isdigit", ShapeString, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return invoke(&jsast.Regex{Pattern: `^\d+$`}, "test", cs.Recv)
	}))

	// set
	r.AddMethod("add", ShapeSet, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "add", cs.Args[0]))
	}))
	for _, name := range []string{"discard", "remove"} {
		r.AddMethod(name, ShapeSet, fixed(1, 1, func(cs *CallSite) jsast.Expr {
			return none(invoke(cs.Recv, "delete", cs.Args[0]))
		}))
	}
	r.AddMethod("pop", ShapeSet, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, nil, func(recv jsast.Expr, _ []jsast.Expr) jsast.Expr {
			first := member(invoke(invoke(recv, "values"), "next"), "value")
			take := arrow([]string{"$v"}, &jsast.Sequence{Exprs: []jsast.Expr{invoke(recv, "delete", ident("$v")), ident("$v")}})
			return call(take, first)
		})
	}))
	r.AddMethod("clear", ShapeSet, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "clear"))
	}))
	r.AddMethod("copy", ShapeSet, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return newExpr("Set", cs.Recv)
	}))
	r.AddMethod("update", ShapeSet, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, nil, func(recv jsast.Expr, _ []jsast.Expr) jsast.Expr {
			add := arrow([]string{"$v"}, invoke(recv, "add", ident("$v")))
			return none(invoke(cs.t.arrayOf(cs.Args[0], cs.shape(0), false), "forEach", add))
		})
	}))
	r.AddMethod("union", ShapeSet, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return newExpr("Set", array(spread(cs.Recv), spread(cs.t.arrayOf(cs.Args[0], cs.shape(0), false))))
	}))
	r.AddMethod("intersection", ShapeSet, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, nil, func(recv jsast.Expr, _ []jsast.Expr) jsast.Expr {
			keep := arrow([]string{"$v"}, invoke(recv, "has", ident("$v")))
			return newExpr("Set", invoke(cs.t.arrayOf(cs.Args[0], cs.shape(0), false), "filter", keep))
		})
	}))
	r.AddMethod("difference", ShapeSet, fixed(1, 1, func(cs *CallSite) jsast.Expr {
		other := newExpr("Set", cs.t.arrayOf(cs.Args[0], cs.shape(0), false))
		return withRecv(cs, []jsast.Expr{other}, func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			drop := arrow([]string{"$v"}, not(invoke(a[0], "has", ident("$v"))))
			return newExpr("Set", invoke(array(spread(recv)), "filter", drop))
		})
	}))

	// Map-backed dict
	r.AddMethod("get", ShapeMap, dictGet(func(recv, key jsast.Expr) (jsast.Expr, jsast.Expr) {
		return invoke(recv, "has", key), invoke(recv, "get", key)
	}))
	r.AddMethod("keys", ShapeMap, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return array(spread(invoke(cs.Recv, "keys")))
	}))
	r.AddMethod("values", ShapeMap, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return array(spread(invoke(cs.Recv, "values")))
	}))
	r.AddMethod("items", ShapeMap, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return array(spread(invoke(cs.Recv, "entries")))
	}))
	r.AddMethod("pop", ShapeMap, dictPop(func(recv, key jsast.Expr) (jsast.Expr, jsast.Expr, jsast.Expr) {
		return invoke(recv, "has", key), invoke(recv, "get", key), invoke(recv, "delete", key)
	}))
	r.AddMethod("setdefault", ShapeMap, fixed(1, 2, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, withDefault(cs.Args), func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			k, d := a[0], a[1]
			store := &jsast.Sequence{Exprs: []jsast.Expr{invoke(recv, "set", k, d), d}}
			return cond(invoke(recv, "has", k), invoke(recv, "get", k), store)
		})
	}))
	r.AddMethod("update", ShapeMap, func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.arity(0, 1); err != nil {
			return nil, err
		}
		return withRecv(cs, cs.Args, func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			var steps []jsast.Expr
			if len(a) == 1 {
				set := &jsast.Function{
					Arrow:    true,
					Params:   []jsast.Param{{Elems: []string{"$k", "$v"}}},
					ExprBody: invoke(recv, "set", ident("$k"), ident("$v")),
				}
				steps = append(steps, invoke(entriesOf(a[0], cs.shape(0)), "forEach", set))
			}
			for _, kw := range cs.Kwargs {
				steps = append(steps, invoke(recv, "set", str(kw.Name), kw.Value))
			}
			return &jsast.Sequence{Exprs: append(steps, undef())}
		}), nil
	})
	r.AddMethod("clear", ShapeMap, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return none(invoke(cs.Recv, "clear"))
	}))
	r.AddMethod("copy", ShapeMap, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return newExpr("Map", cs.Recv)
	}))

	// plain-object dict
	r.AddMethod("get", ShapeDict, dictGet(func(recv, key jsast.Expr) (jsast.Expr, jsast.Expr) {
		return hasOwn(recv, key), index(recv, key)
	}))
	r.AddMethod("keys", ShapeDict, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return call(path("Object.keys"), cs.Recv)
	}))
	r.AddMethod("values", ShapeDict, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return call(path("Object.values"), cs.Recv)
	}))
	r.AddMethod("items", ShapeDict, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return call(path("Object.entries"), cs.Recv)
	}))
	r.AddMethod("pop", ShapeDict, dictPop(func(recv, key jsast.Expr) (jsast.Expr, jsast.Expr, jsast.Expr) {
		return hasOwn(recv, key), index(recv, key), &jsast.Unary{Op: "delete", X: index(recv, key)}
	}))
	r.AddMethod("setdefault", ShapeDict, fixed(1, 2, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, cs.Args[:1], func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			var d jsast.Expr = &jsast.Null{}
			if len(cs.Args) == 2 {
				d = cs.Args[1]
			}
			return cond(hasOwn(recv, a[0]), index(recv, a[0]),
				&jsast.AssignExpr{Target: index(recv, a[0]), Op: "=", Value: d})
		})
	}))
	r.AddMethod("update", ShapeDict, func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.arity(0, 1); err != nil {
			return nil, err
		}
		args := []jsast.Expr{cs.Recv}
		if len(cs.Args) == 1 {
			args = append(args, dictSource(cs, cs.Args[0], cs.shape(0)))
		}
		if len(cs.Kwargs) > 0 {
			obj := &jsast.Object{}
			for _, kw := range cs.Kwargs {
				obj.Props = append(obj.Props, jsast.Property{Key: kw.Name, Value: kw.Value})
			}
			args = append(args, obj)
		}
		return none(call(path("Object.assign"), args...)), nil
	})
	r.AddMethod("clear", ShapeDict, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, nil, func(recv jsast.Expr, _ []jsast.Expr) jsast.Expr {
			drop := arrow([]string{"$k"}, &jsast.Unary{Op: "delete", X: index(recv, ident("$k"))})
			return none(invoke(call(path("Object.keys"), recv), "forEach", drop))
		})
	}))
	r.AddMethod("copy", ShapeDict, fixed(0, 0, func(cs *CallSite) jsast.Expr {
		return &jsast.Object{Props: []jsast.Property{{Spread: true, Value: cs.Recv}}}
	}))
}

// fixed adapts a generator taking min..max positional arguments and no
// keyword arguments.
func fixed(min, max int, gen func(cs *CallSite) jsast.Expr) MethodFunc {
	return func(cs *CallSite) (jsast.Expr, error) {
		if err := cs.allowKwargs(); err != nil {
			return nil, err
		}
		if err := cs.arity(min, max); err != nil {
			return nil, err
		}
		return gen(cs), nil
	}
}

// withRecv binds the receiver and then args so body may repeat them.
func withRecv(cs *CallSite, args []jsast.Expr, body func(recv jsast.Expr, args []jsast.Expr) jsast.Expr) jsast.Expr {
	values := append([]jsast.Expr{cs.Recv}, args...)
	return cs.Bind(values, func(r []jsast.Expr) jsast.Expr {
		return body(r[0], r[1:])
	})
}

// withDefault appends the implicit None default of get-like methods.
func withDefault(args []jsast.Expr) []jsast.Expr {
	if len(args) == 1 {
		return []jsast.Expr{args[0], &jsast.Null{}}
	}
	return args
}

func indexOf(cs *CallSite) jsast.Expr {
	return invoke(cs.Recv, "indexOf", cs.Args[0])
}

func stringSplit(cs *CallSite) (jsast.Expr, error) {
	if err := cs.allowKwargs("sep"); err != nil {
		return nil, err
	}
	if len(cs.Args) > 1 {
		return nil, errors.New("split() with maxsplit is not supported")
	}
	sep, ok := cs.Arg(0, "sep")
	if _, isNull := sep.(*jsast.Null); ok && !isNull {
		return invoke(cs.Recv, "split", sep), nil
	}
	words := invoke(cs.Recv, "split", &jsast.Regex{Pattern: `\s+`})
	return invoke(words, "filter", arrow([]string{"$v"}, bin("!==", ident("$v"), str("")))), nil
}

// prefixTest builds startswith/endswith; a tuple of prefixes matches any.
func prefixTest(js string) func(cs *CallSite) jsast.Expr {
	return func(cs *CallSite) jsast.Expr {
		if _, ok := cs.Args[0].(*jsast.Array); ok {
			return withRecv(cs, nil, func(recv jsast.Expr, _ []jsast.Expr) jsast.Expr {
				return invoke(cs.Args[0], "some", arrow([]string{"$v"}, invoke(recv, js, ident("$v"))))
			})
		}
		return invoke(cs.Recv, js, cs.Args[0])
	}
}

// dictGet builds get(k[, d]) from a presence test and a lookup.
func dictGet(lookup func(recv, key jsast.Expr) (has, get jsast.Expr)) MethodFunc {
	return fixed(1, 2, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, withDefault(cs.Args), func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			has, get := lookup(recv, a[0])
			return cond(has, get, a[1])
		})
	})
}

// dictPop builds pop(k[, d]) from a presence test, a lookup and a removal.
// A missing key without a default yields undefined.
func dictPop(ops func(recv, key jsast.Expr) (has, get, del jsast.Expr)) MethodFunc {
	return fixed(1, 2, func(cs *CallSite) jsast.Expr {
		return withRecv(cs, cs.Args, func(recv jsast.Expr, a []jsast.Expr) jsast.Expr {
			has, get, del := ops(recv, a[0])
			take := call(arrow([]string{"$v"}, &jsast.Sequence{Exprs: []jsast.Expr{del, ident("$v")}}), get)
			if len(a) == 1 {
				return take
			}
			return cond(has, take, a[1])
		})
	})
}

// entriesOf lists the [key, value] pairs of a Map, a plain object or a
// list of pairs.
func entriesOf(x jsast.Expr, shape Shape) jsast.Expr {
	switch shape {
	case ShapeMap:
		return array(spread(invoke(x, "entries")))
	case ShapeDict:
		return call(path("Object.entries"), x)
	case ShapeArray:
		return x
	}
	return cond(guard(ShapeArray, x), x,
		cond(guard(ShapeMap, x), array(spread(invoke(x, "entries"))), call(path("Object.entries"), x)))
}

// dictSource converts an update() argument to a plain object.
func dictSource(cs *CallSite, x jsast.Expr, shape Shape) jsast.Expr {
	switch shape {
	case ShapeDict:
		return x
	case ShapeArray, ShapeMap:
		return call(path("Object.fromEntries"), x)
	}
	return cs.Bind([]jsast.Expr{x}, func(r []jsast.Expr) jsast.Expr {
		return cond(or(guard(ShapeArray, r[0]), guard(ShapeMap, r[0])),
			call(path("Object.fromEntries"), r[0]), r[0])
	})
}
