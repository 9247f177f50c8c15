package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// Module scanning
// ---------------------------------------------------------------------------

// ModuleConfig supplies what a source file alone cannot tell: which defs
// are roots and which names the host binds.
type ModuleConfig struct {
	File       string
	Decorators []string           // defs carrying one of these are roots; all defs when empty
	Elements   map[string]string  // Python name -> element tag
	Constants  map[string]any     // host constants
	Modules    map[string]Binding // importable namespaces beyond the registry's
}

// Module is a scanned Python file.
type Module struct {
	File      string
	Functions []*Function // every top-level def in source order
	Roots     []*Function
	Globals   map[string]Binding // shared by every function of the module
	Imports   map[string]Import  // imports the scan left opaque, by local name
}

// Import is the source of an imported name. Module keeps the leading dots
// of a relative import; Name is empty for a plain import.
type Import struct {
	Module string
	Name   string
}

// Function returns the top-level def called name.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// ScanModule builds a Function for every top-level def in src. The
// functions share one closure snapshot derived from the module: sibling
// defs, literal assignments, imports of known namespaces and configured
// elements. Later top-level bindings of a name replace earlier ones.
func ScanModule(src string, reg *Registry, cfg ModuleConfig) (*Module, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	src = strings.ReplaceAll(src, "\r\n", "\n")
	mod, err := syntax.Parse(src)
	if err != nil {
		var perr syntax.Error
		if errors.As(err, &perr) {
			return nil, &Error{
				Code: ParseError, Msg: perr.Msg, Err: err,
				Pos: Pos{File: cfg.File, Line: perr.Pos.Line, Column: perr.Pos.Column},
			}
		}
		return nil, &Error{Code: ParseError, Pos: Pos{File: cfg.File}, Msg: err.Error(), Err: err}
	}

	m := &Module{File: cfg.File, Globals: make(map[string]Binding), Imports: make(map[string]Import)}
	for name, value := range cfg.Constants {
		m.Globals[name] = Constant(value)
	}
	for name, tag := range cfg.Elements {
		m.Globals[name] = Element(tag)
	}

	lines := strings.Split(src, "\n")
	for i, st := range mod.Body {
		switch st := st.(type) {
		case *syntax.FuncDef:
			delete(m.Imports, st.Name)
			start := defStart(st)
			end := len(lines)
			if i+1 < len(mod.Body) {
				end = stmtStart(mod.Body[i+1]) - 1
			}
			fn := &Function{
				ID:      fmt.Sprintf("%s:%d:%s", cfg.File, start, st.Name),
				Name:    st.Name,
				Source:  strings.Join(lines[start-1:end], "\n"),
				File:    cfg.File,
				Line:    start,
				Globals: m.Globals,
			}
			m.Functions = append(m.Functions, fn)
			m.Globals[st.Name] = FunctionRef(fn)
			if isRoot(st, cfg.Decorators) {
				m.Roots = append(m.Roots, fn)
			}

		case *syntax.Assign:
			for _, target := range st.Targets {
				m.bind(target, st.Value)
			}

		case *syntax.AnnAssign:
			if st.Value != nil {
				m.bind(st.Target, st.Value)
			}

		case *syntax.Import:
			for _, alias := range st.Names {
				name := alias.AsName
				if name == "" {
					name = strings.SplitN(alias.Name, ".", 2)[0]
				}
				if b, ok := namespace(reg, cfg, alias.Name); ok {
					m.Globals[name] = b
				} else {
					m.Globals[name] = Opaque("module " + alias.Name)
					m.Imports[name] = Import{Module: alias.Name}
				}
			}

		case *syntax.ImportFrom:
			for _, alias := range st.Names {
				name := alias.AsName
				if name == "" {
					name = alias.Name
				}
				switch tag, ok := cfg.Elements[alias.Name]; {
				case ok:
					m.Globals[name] = Element(tag)
				default:
					if b, ok := namespace(reg, cfg, st.Module+"."+alias.Name); ok {
						m.Globals[name] = b
					} else {
						m.Globals[name] = Opaque(fmt.Sprintf("%s imported from %s", alias.Name, st.Module))
						m.Imports[name] = Import{Module: st.Module, Name: alias.Name}
					}
				}
			}
		}
	}
	return m, nil
}

// namespace looks a dotted module name up in the configuration, then the
// registry.
func namespace(reg *Registry, cfg ModuleConfig, name string) (Binding, bool) {
	if b, ok := cfg.Modules[name]; ok {
		return b, true
	}
	return reg.Module(name)
}

func (m *Module) bind(target, value syntax.Expr) {
	n, ok := target.(*syntax.Name)
	if !ok {
		return
	}
	delete(m.Imports, n.Id)
	if v, ok := literalValue(value); ok {
		m.Globals[n.Id] = Constant(v)
		return
	}
	m.Globals[n.Id] = Opaque("a value computed at import time")
}

// literalValue evaluates a constant display.
func literalValue(e syntax.Expr) (any, bool) {
	switch x := e.(type) {
	case *syntax.NoneLit:
		return nil, true
	case *syntax.BoolLit:
		return x.Value, true
	case *syntax.IntLit:
		return x.Value, true
	case *syntax.FloatLit:
		return x.Value, true
	case *syntax.StringLit:
		return x.Value, true
	case *syntax.UnaryOp:
		switch v, ok := literalValue(x.X); {
		case !ok || (x.Op != "-" && x.Op != "+"):
		case x.Op == "+":
			return v, true
		default:
			switch n := v.(type) {
			case int64:
				return -n, true
			case float64:
				return -n, true
			}
		}
	case *syntax.List:
		return literalList(x.Elts)
	case *syntax.Tuple:
		list, ok := literalList(x.Elts)
		return Tuple(list), ok
	case *syntax.Set:
		list, ok := literalList(x.Elts)
		return SetOf(list), ok
	case *syntax.Dict:
		d := make(Dict, 0, len(x.Keys))
		for i, k := range x.Keys {
			key, ok := k.(*syntax.StringLit)
			if !ok {
				return nil, false
			}
			v, ok := literalValue(x.Values[i])
			if !ok {
				return nil, false
			}
			d = append(d, KV{Key: key.Value, Value: v})
		}
		return d, true
	}
	return nil, false
}

func literalList(elts []syntax.Expr) ([]any, bool) {
	list := make([]any, len(elts))
	for i, e := range elts {
		v, ok := literalValue(e)
		if !ok {
			return nil, false
		}
		list[i] = v
	}
	return list, true
}

func isRoot(def *syntax.FuncDef, decorators []string) bool {
	if len(decorators) == 0 {
		return true
	}
	for _, d := range def.Decorators {
		if c, ok := d.(*syntax.Call); ok {
			d = c.Func
		}
		var name string
		switch x := d.(type) {
		case *syntax.Name:
			name = x.Id
		case *syntax.Attribute:
			name = x.Attr
		}
		for _, want := range decorators {
			if name == want {
				return true
			}
		}
	}
	return false
}

// defStart is the first line of def, decorators included.
func defStart(def *syntax.FuncDef) int {
	line := def.SpanVal.Start.Line
	for _, d := range def.Decorators {
		if l := d.Span().Start.Line; l < line {
			line = l
		}
	}
	return line
}

func stmtStart(st syntax.Stmt) int {
	if def, ok := st.(*syntax.FuncDef); ok {
		return defStart(def)
	}
	return st.Span().Start.Line
}
