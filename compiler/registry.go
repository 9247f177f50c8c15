package compiler

import (
	"fmt"
	"sort"

	"github.com/chazu/pyjs/jsast"
)

// ---------------------------------------------------------------------------
// Builtin & method dispatch table
// ---------------------------------------------------------------------------

// Kwarg is a translated keyword argument.
type Kwarg struct {
	Name  string
	Value jsast.Expr
}

// CallSite is a builtin or method call handed to a generator. Arguments
// are already translated; a generator that uses a value more than once
// must pass it through Bind.
type CallSite struct {
	Name      string
	Recv      jsast.Expr // methods only
	RecvShape Shape
	Args      []jsast.Expr
	Shapes    []Shape // statically known shapes of Args
	Kwargs    []Kwarg

	t *transpiler
}

// Temp allocates a fresh temporary name.
func (cs *CallSite) Temp() string { return cs.t.temp() }

// Bind evaluates values once, left to right, and hands body expressions
// that are safe to repeat.
func (cs *CallSite) Bind(values []jsast.Expr, body func(refs []jsast.Expr) jsast.Expr) jsast.Expr {
	return bindValues(cs.t.temp, values, body)
}

// Kwarg returns the keyword argument called name.
func (cs *CallSite) Kwarg(name string) (jsast.Expr, bool) {
	for _, kw := range cs.Kwargs {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

// Arg returns positional argument i, or the keyword argument name when
// fewer positional arguments were passed.
func (cs *CallSite) Arg(i int, name string) (jsast.Expr, bool) {
	if i < len(cs.Args) {
		return cs.Args[i], true
	}
	if name == "" {
		return nil, false
	}
	return cs.Kwarg(name)
}

// shape returns the known shape of positional argument i.
func (cs *CallSite) shape(i int) Shape {
	if i < len(cs.Shapes) {
		return cs.Shapes[i]
	}
	return ShapeUnknown
}

// allShape reports whether every positional argument is known to be s.
func (cs *CallSite) allShape(s Shape) bool {
	for i := range cs.Args {
		if cs.shape(i) != s {
			return false
		}
	}
	return true
}

// allowKwargs rejects keyword arguments not in names.
func (cs *CallSite) allowKwargs(names ...string) error {
	for _, kw := range cs.Kwargs {
		ok := false
		for _, n := range names {
			if kw.Name == n {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s() got an unexpected keyword argument '%s'", cs.Name, kw.Name)
		}
	}
	return nil
}

// arity rejects calls with a positional count outside [min, max]; max < 0
// means unbounded.
func (cs *CallSite) arity(min, max int) error {
	n := len(cs.Args)
	if n < min || (max >= 0 && n > max) {
		return fmt.Errorf("%s() takes %s, %d given", cs.Name, arityText(min, max), n)
	}
	return nil
}

func arityText(min, max int) string {
	switch {
	case min == max:
		return fmt.Sprintf("exactly %d argument(s)", min)
	case max < 0:
		return fmt.Sprintf("at least %d argument(s)", min)
	}
	return fmt.Sprintf("%d to %d arguments", min, max)
}

// BuiltinFunc generates the code of a builtin call.
type BuiltinFunc func(cs *CallSite) (jsast.Expr, error)

// MethodFunc generates the code of a method call for one receiver shape.
// It returns a nil expression when the call's arity does not apply to
// that shape.
type MethodFunc func(cs *CallSite) (jsast.Expr, error)

type builtin struct {
	gen    BuiltinFunc
	value  func() jsast.Expr // the builtin used as a first-class value
	result Shape
}

type method struct {
	shape Shape
	gen   MethodFunc
}

// Registry maps Python builtins, methods and modules to generated code.
// The zero value is not usable; use NewRegistry or DefaultRegistry. A
// Registry must not be modified while sessions use it.
type Registry struct {
	builtins map[string]*builtin
	methods  map[string][]method
	modules  map[string]Binding
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builtins: make(map[string]*builtin),
		methods:  make(map[string][]method),
		modules:  make(map[string]Binding),
	}
}

// DefaultRegistry returns a registry holding the standard builtins,
// the list/str/set/dict methods and the math and json modules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	registerMethods(r)
	r.AddModule("math", "Math", map[string]string{"pi": "PI", "e": "E"})
	r.AddModule("json", "JSON", map[string]string{"dumps": "stringify", "loads": "parse"})
	return r
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, v := range r.builtins {
		b := *v
		c.builtins[k] = &b
	}
	for k, v := range r.methods {
		c.methods[k] = append([]method(nil), v...)
	}
	for k, v := range r.modules {
		c.modules[k] = v
	}
	return c
}

// AddBuiltin registers a builtin function generated by gen.
func (r *Registry) AddBuiltin(name string, gen BuiltinFunc) {
	r.builtins[name] = &builtin{gen: gen}
}

// AddAlias registers a builtin that calls the JS function at jsPath
// (for example "Date.now") with the call's positional arguments.
func (r *Registry) AddAlias(name, jsPath string) {
	r.builtins[name] = &builtin{
		gen: func(cs *CallSite) (jsast.Expr, error) {
			if len(cs.Kwargs) > 0 {
				return nil, fmt.Errorf("%s() takes no keyword arguments", name)
			}
			return call(path(jsPath), cs.Args...), nil
		},
		value: func() jsast.Expr { return path(jsPath) },
	}
}

// AddMethod registers gen for receivers of the given shape. Entries for
// one name are dispatched in the fixed shape priority; ShapeAny entries
// apply to every receiver.
func (r *Registry) AddMethod(name string, shape Shape, gen MethodFunc) {
	list := r.methods[name]
	for i, m := range list {
		if m.shape == shape {
			list[i].gen = gen
			return
		}
	}
	list = append(list, method{shape: shape, gen: gen})
	sort.SliceStable(list, func(i, j int) bool { return list[i].shape < list[j].shape })
	r.methods[name] = list
}

// AddPassthrough registers a method that is called on the receiver as is,
// whatever its shape.
func (r *Registry) AddPassthrough(name string) {
	r.AddMethod(name, ShapeAny, func(cs *CallSite) (jsast.Expr, error) {
		if len(cs.Kwargs) > 0 {
			return nil, fmt.Errorf("%s() takes no keyword arguments", name)
		}
		return invoke(cs.Recv, name, cs.Args...), nil
	})
}

// AddModule registers a builtin namespace: `import name` binds the JS
// global js, with attribute renames applied.
func (r *Registry) AddModule(name, js string, renames map[string]string) {
	r.modules[name] = ModuleRef(js, true, renames)
}

// Module returns the registered namespace called name.
func (r *Registry) Module(name string) (Binding, bool) {
	b, ok := r.modules[name]
	return b, ok
}

// HasBuiltin reports whether name is a registered builtin.
func (r *Registry) HasBuiltin(name string) bool {
	_, ok := r.builtins[name]
	return ok
}

// Builtins returns the registered builtin names in sorted order.
func (r *Registry) Builtins() []string {
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pythonBuiltins are names Python resolves without an import. Using one
// that is not registered is UnsupportedBuiltin rather than UnboundName.
var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "ascii": true, "bin": true,
	"bool": true, "breakpoint": true, "bytearray": true, "bytes": true,
	"callable": true, "chr": true, "classmethod": true, "compile": true,
	"complex": true, "delattr": true, "dict": true, "dir": true,
	"divmod": true, "enumerate": true, "eval": true, "exec": true,
	"filter": true, "float": true, "format": true, "frozenset": true,
	"getattr": true, "globals": true, "hasattr": true, "hash": true,
	"help": true, "hex": true, "id": true, "input": true, "int": true,
	"isinstance": true, "issubclass": true, "iter": true, "len": true,
	"list": true, "locals": true, "map": true, "max": true,
	"memoryview": true, "min": true, "next": true, "object": true,
	"oct": true, "open": true, "ord": true, "pow": true, "print": true,
	"property": true, "range": true, "repr": true, "reversed": true,
	"round": true, "set": true, "setattr": true, "slice": true,
	"sorted": true, "staticmethod": true, "str": true, "sum": true,
	"super": true, "tuple": true, "type": true, "vars": true, "zip": true,
}
