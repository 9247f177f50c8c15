package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Functions and their closure snapshot
// ---------------------------------------------------------------------------

// Function describes one Python function to compile. Either Source or Load
// supplies its text. Globals is the snapshot of every name the function may
// read from its enclosing module.
type Function struct {
	ID      string // stable identity; defaults to file:line:name
	Name    string // def to extract; the first top-level def when empty
	Source  string
	Load    func() (string, error)
	File    string
	Line    int // line of the first source line in File
	Globals map[string]Binding
}

// key returns the stable identity of fn.
func (fn *Function) key() string {
	if fn.ID != "" {
		return fn.ID
	}
	return fmt.Sprintf("%s:%d:%s", fn.File, fn.Line, fn.Name)
}

// BindingKind selects the variant of a Binding.
type BindingKind int

const (
	BindConstant BindingKind = iota
	BindFunction
	BindModule
	BindElement
	BindOpaque
)

func (k BindingKind) String() string {
	switch k {
	case BindConstant:
		return "constant"
	case BindFunction:
		return "function"
	case BindModule:
		return "module"
	case BindElement:
		return "element"
	}
	return "opaque"
}

// Binding is the value a global name holds.
type Binding struct {
	Kind BindingKind

	Value any       // BindConstant
	Func  *Function // BindFunction

	// BindModule: JS is the expression the namespace maps to. Builtin
	// modules are JS globals; others must be provided by the host page.
	JS      string
	Builtin bool
	Renames map[string]string

	Tag    string // BindElement; empty for a fragment
	Opaque string // BindOpaque: description of the unsupported value
}

// Constant binds an immutable value: nil, bool, int, int64, float64,
// string, or a []any, Tuple, SetOf, Dict or map[string]any of such values.
func Constant(v any) Binding { return Binding{Kind: BindConstant, Value: v} }

// FunctionRef binds another compilable function.
func FunctionRef(fn *Function) Binding { return Binding{Kind: BindFunction, Func: fn} }

// ModuleRef binds a transparent namespace whose attributes are forwarded
// to the JS expression js.
func ModuleRef(js string, builtin bool, renames map[string]string) Binding {
	return Binding{Kind: BindModule, JS: js, Builtin: builtin, Renames: renames}
}

// Element binds a UI element tag.
func Element(tag string) Binding { return Binding{Kind: BindElement, Tag: tag} }

// Opaque binds a value the compiler cannot translate.
func Opaque(kind string) Binding { return Binding{Kind: BindOpaque, Opaque: kind} }

// Tuple is an immutable sequence constant.
type Tuple []any

// SetOf is a set constant; elements are emitted in the given order.
type SetOf []any

// KV is one entry of an ordered Dict constant.
type KV struct {
	Key   string
	Value any
}

// Dict is a dict constant with insertion order preserved.
type Dict []KV
