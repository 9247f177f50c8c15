package compiler

import (
	"fmt"
	"strings"

	"github.com/chazu/pyjs/compiler/hash"
	"github.com/chazu/pyjs/jsast"
	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// Dependency resolution
// ---------------------------------------------------------------------------

// DepKind classifies a free variable of a compiled function.
type DepKind int

const (
	DepSelf     DepKind = iota // the function itself
	DepFunction                // another compiled function
	DepConstant                // an immutable literal
	DepModule                  // a transparent namespace
	DepElement                 // a UI element tag
	DepBuiltin                 // a registry builtin
	DepUnbound                 // not bound anywhere
	DepOpaque                  // bound to a value that cannot be translated
)

func (k DepKind) String() string {
	switch k {
	case DepSelf:
		return "self"
	case DepFunction:
		return "function"
	case DepConstant:
		return "constant"
	case DepModule:
		return "module"
	case DepElement:
		return "element"
	case DepBuiltin:
		return "builtin"
	case DepUnbound:
		return "unbound"
	}
	return "opaque"
}

// Dependency is the resolution of one free variable.
type Dependency struct {
	Name string
	Kind DepKind
	Key  string // Ref key for DepSelf, DepFunction and DepConstant

	Func   *CompiledFunction // DepFunction
	Const  jsast.Expr        // DepConstant
	Module Binding           // DepModule
	Tag    string            // DepElement
	Reason string            // DepOpaque
}

// CompiledFunction is a transpiled function together with its resolved
// dependencies. It is immutable once built and shared by every bundle
// that reaches it.
type CompiledFunction struct {
	ID     string
	Name   string
	Params []string
	Deps   []*Dependency // in free-variable order
	Root   *jsast.Function
	Digest [32]byte

	key string
	def *syntax.FuncDef
}

// Key is the Ref key other trees use to reference the function.
func (cf *CompiledFunction) Key() string { return cf.key }

func functionKey(id string) string { return "fn:" + id }

func constantKey(owner, name string) string { return "const:" + owner + ":" + name }

// compile returns the cached compilation of fn, building it and every
// function it reaches on a miss. stack holds the functions being
// compiled, outermost first.
func (s *Session) compile(fn *Function, stack []*Function) (*CompiledFunction, error) {
	if cf, ok := s.compiled[fn]; ok {
		s.log.Debugf("cache hit: %s", cf.ID)
		return cf, nil
	}
	id := fn.key()
	if other, ok := s.ids[id]; ok && other != fn {
		return nil, fmt.Errorf("compiler: two functions share the ID %q", id)
	}

	sf, err := Extract(fn)
	if err != nil {
		return nil, err
	}
	cf := &CompiledFunction{
		ID:     id,
		Name:   sf.Def.Name,
		Params: sf.Params,
		key:    functionKey(id),
		def:    sf.Def,
	}
	deps, err := s.resolve(sf, cf, append(stack, fn))
	if err != nil {
		return nil, err
	}
	root, err := transpile(sf, deps, s.reg, s.opts)
	if err != nil {
		return nil, err
	}
	cf.Root = root
	cf.Digest = hash.HashFunction(root, cf.digestOf)

	s.compiled[fn] = cf
	s.ids[id] = fn
	s.log.Debugf("compiled %s (%d dependencies)", id, len(cf.Deps))
	return cf, nil
}

// digestOf resolves the Ref keys of cf's tree for hashing. Self
// references hash as their key.
func (cf *CompiledFunction) digestOf(key string) ([32]byte, bool) {
	for _, d := range cf.Deps {
		if d.Key != key {
			continue
		}
		switch d.Kind {
		case DepFunction:
			return d.Func.Digest, true
		case DepConstant:
			return hash.HashConstant(d.Const), true
		}
	}
	return [32]byte{}, false
}

// resolve classifies every free variable of sf. Function dependencies
// are compiled recursively.
func (s *Session) resolve(sf *SourceFunction, cf *CompiledFunction, stack []*Function) (map[string]*Dependency, error) {
	fn := sf.Fn
	deps := make(map[string]*Dependency, len(sf.Free))
	for _, name := range sf.Free {
		d := &Dependency{Name: name}
		b, bound := fn.Globals[name]
		switch {
		case bound && b.Kind == BindFunction && b.Func == fn,
			!bound && name == sf.Def.Name:
			d.Kind, d.Key = DepSelf, cf.key

		case bound:
			if err := s.resolveBinding(sf, cf, d, b, stack); err != nil {
				return nil, err
			}

		case s.reg.HasBuiltin(name):
			d.Kind = DepBuiltin

		default:
			if mod, ok := s.reg.Module(name); ok {
				d.Kind, d.Module = DepModule, mod
			} else {
				d.Kind = DepUnbound
			}
		}
		deps[name] = d
		cf.Deps = append(cf.Deps, d)
	}
	return deps, nil
}

func (s *Session) resolveBinding(sf *SourceFunction, cf *CompiledFunction, d *Dependency, b Binding, stack []*Function) error {
	switch b.Kind {
	case BindFunction:
		if b.Func == nil {
			d.Kind, d.Reason = DepOpaque, "a function reference without a function"
			return nil
		}
		for i, f := range stack {
			if f == b.Func {
				return s.cycle(sf, d.Name, stack[i:])
			}
		}
		dep, err := s.compile(b.Func, stack)
		if err != nil {
			return err
		}
		d.Kind, d.Key, d.Func = DepFunction, dep.key, dep

	case BindConstant:
		value, err := constantExpr(b.Value)
		if err != nil {
			d.Kind, d.Reason = DepOpaque, err.Error()
			return nil
		}
		d.Kind, d.Key, d.Const = DepConstant, constantKey(cf.key, d.Name), value

	case BindModule:
		d.Kind, d.Module = DepModule, b

	case BindElement:
		d.Kind, d.Tag = DepElement, b.Tag

	default:
		reason := b.Opaque
		if reason == "" {
			reason = "an unsupported value"
		}
		d.Kind, d.Reason = DepOpaque, reason
	}
	return nil
}

// cycle reports a dependency of sf on name that closes the cycle through
// the functions in ring.
func (s *Session) cycle(sf *SourceFunction, name string, ring []*Function) error {
	names := make([]string, 0, len(ring)+1)
	for _, f := range ring {
		names = append(names, displayName(f))
	}
	names = append(names, displayName(ring[0]))
	chain := strings.Join(names, " -> ")

	pos := Pos{File: sf.Fn.File, Line: sf.Fn.Line}
	if n := firstLoad(sf.Def, name); n != nil {
		pos = sf.pos(n.Span().Start)
	}
	e := errorf(CyclicDependency, pos, name, "cyclic dependency: %s", chain)
	e.Func = sf.Def.Name
	return e
}

func displayName(f *Function) string {
	if f.Name != "" {
		return f.Name
	}
	return f.key()
}

// firstLoad returns the first occurrence of name in def.
func firstLoad(def *syntax.FuncDef, name string) *syntax.Name {
	var found *syntax.Name
	for _, st := range def.Body {
		syntax.Inspect(st, func(n syntax.Node) bool {
			if found != nil {
				return false
			}
			if x, ok := n.(*syntax.Name); ok && x.Id == name {
				found = x
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}
