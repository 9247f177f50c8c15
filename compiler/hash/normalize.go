package hash

import "github.com/chazu/pyjs/jsast"

// ---------------------------------------------------------------------------
// Local slot assignment
//
// Every name declared inside a tree (parameters, let/const bindings, loop
// variables, nested function declarations) is given a slot in order of
// first declaration. Two trees that differ only in local names serialize
// identically.
// ---------------------------------------------------------------------------

// slots maps declared names to their slot index.
type slots map[string]uint16

func (s slots) declare(name string) {
	if name == "" {
		return
	}
	if _, ok := s[name]; !ok {
		s[name] = uint16(len(s))
	}
}

// declaredSlots collects the local names of n.
func declaredSlots(n jsast.Node) slots {
	s := make(slots)
	jsast.Walk(n, func(n jsast.Node) bool {
		switch n := n.(type) {
		case *jsast.Function:
			s.declare(n.Name)
			for _, p := range n.Params {
				s.declare(p.Name)
				for _, e := range p.Elems {
					s.declare(e)
				}
			}
		case *jsast.Let:
			for _, name := range n.Names {
				s.declare(name)
			}
		case *jsast.Assign:
			if id, ok := n.Target.(*jsast.Ident); ok && n.Declare != jsast.DeclNone {
				s.declare(id.Name)
			}
		case *jsast.ForOf:
			s.declare(n.Name)
		}
		return true
	})
	return s
}
