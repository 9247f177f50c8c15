package compiler

import (
	"fmt"
	"sort"

	"github.com/chazu/pyjs/jsast"
)

// ---------------------------------------------------------------------------
// Constant conversion
// ---------------------------------------------------------------------------

// constantExpr converts an immutable host value to a JS literal.
func constantExpr(v any) (jsast.Expr, error) {
	switch x := v.(type) {
	case nil:
		return &jsast.Null{}, nil
	case bool:
		return &jsast.Bool{Value: x}, nil
	case int:
		return &jsast.Number{Value: float64(x)}, nil
	case int32:
		return &jsast.Number{Value: float64(x)}, nil
	case int64:
		return &jsast.Number{Value: float64(x)}, nil
	case uint:
		return &jsast.Number{Value: float64(x)}, nil
	case uint64:
		return &jsast.Number{Value: float64(x)}, nil
	case float32:
		return &jsast.Number{Value: float64(x)}, nil
	case float64:
		return &jsast.Number{Value: x}, nil
	case string:
		return &jsast.String{Value: x}, nil
	case []any:
		return constantArray(x)
	case Tuple:
		return constantArray(x)
	case []string:
		elems := make([]jsast.Expr, len(x))
		for i, s := range x {
			elems[i] = &jsast.String{Value: s}
		}
		return &jsast.Array{Elems: elems}, nil
	case SetOf:
		arr, err := constantArray(x)
		if err != nil {
			return nil, err
		}
		return &jsast.New{Callee: &jsast.Ident{Name: "Set"}, Args: []jsast.Expr{arr}}, nil
	case Dict:
		obj := &jsast.Object{}
		for _, kv := range x {
			val, err := constantExpr(kv.Value)
			if err != nil {
				return nil, err
			}
			obj.Props = append(obj.Props, jsast.Property{Key: kv.Key, Value: val})
		}
		return obj, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &jsast.Object{}
		for _, k := range keys {
			val, err := constantExpr(x[k])
			if err != nil {
				return nil, err
			}
			obj.Props = append(obj.Props, jsast.Property{Key: k, Value: val})
		}
		return obj, nil
	}
	return nil, fmt.Errorf("cannot convert %T to a constant", v)
}

func constantArray(list []any) (jsast.Expr, error) {
	elems := make([]jsast.Expr, len(list))
	for i, v := range list {
		e, err := constantExpr(v)
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return &jsast.Array{Elems: elems}, nil
}
