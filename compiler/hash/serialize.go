package hash

import (
	"encoding/binary"
	"math"

	"github.com/chazu/pyjs/jsast"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of JavaScript trees.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Integers: big-endian fixed-width (uint16=2B, uint32=4B)
//   - Floats: IEEE 754 big-endian 8B
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Optional children: presence byte, then the child
//   - Child nodes: serialized inline (flat)
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of a tree.
// The returned bytes are suitable for hashing with SHA-256.
func Serialize(node jsast.Node, resolve RefResolver) []byte {
	s := &serializer{
		buf:     make([]byte, 0, 256),
		slots:   declaredSlots(node),
		resolve: resolve,
	}
	s.writeByte(HashVersion)
	s.serializeNode(node)
	return s.buf
}

type serializer struct {
	buf     []byte
	slots   slots
	resolve RefResolver
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *serializer) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeFloat64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

// writeName writes a declared name as its slot, anything else by name.
func (s *serializer) writeName(name string) {
	if slot, ok := s.slots[name]; ok {
		s.writeByte(TagLocal)
		s.writeUint16(slot)
		return
	}
	s.writeByte(TagGlobal)
	s.writeString(name)
}

func (s *serializer) optional(e jsast.Expr) {
	if e == nil {
		s.writeByte(0)
		return
	}
	s.writeByte(1)
	s.serializeNode(e)
}

func (s *serializer) exprs(list []jsast.Expr) {
	s.writeUint32(uint32(len(list)))
	for _, e := range list {
		s.serializeNode(e)
	}
}

func (s *serializer) stmts(list []jsast.Stmt) {
	s.writeUint32(uint32(len(list)))
	for _, st := range list {
		s.serializeNode(st)
	}
}

func (s *serializer) serializeNode(node jsast.Node) {
	switch n := node.(type) {
	case *jsast.Number:
		s.writeByte(TagNumber)
		s.writeFloat64(n.Value)

	case *jsast.String:
		s.writeByte(TagString)
		s.writeString(n.Value)

	case *jsast.Bool:
		s.writeByte(TagBool)
		s.writeBool(n.Value)

	case *jsast.Null:
		s.writeByte(TagNull)

	case *jsast.Undefined:
		s.writeByte(TagUndefined)

	case *jsast.Regex:
		s.writeByte(TagRegex)
		s.writeString(n.Pattern)
		s.writeString(n.Flags)

	case *jsast.Ident:
		s.writeName(n.Name)

	case *jsast.Ref:
		if s.resolve != nil {
			if digest, ok := s.resolve(n.Key); ok {
				s.writeByte(TagRef)
				s.buf = append(s.buf, digest[:]...)
				return
			}
		}
		s.writeByte(TagRefKey)
		s.writeString(n.Key)

	case *jsast.Array:
		s.writeByte(TagArray)
		s.exprs(n.Elems)

	case *jsast.Object:
		s.writeByte(TagObject)
		s.writeUint32(uint32(len(n.Props)))
		for _, p := range n.Props {
			switch {
			case p.Spread:
				s.writeByte(TagPropSpread)
			case p.Computed != nil:
				s.writeByte(TagPropComputed)
				s.serializeNode(p.Computed)
			default:
				s.writeByte(TagPropKey)
				s.writeString(p.Key)
			}
			s.serializeNode(p.Value)
		}

	case *jsast.Template:
		s.writeByte(TagTemplate)
		s.writeUint32(uint32(len(n.Quasis)))
		for _, q := range n.Quasis {
			s.writeString(q)
		}
		s.exprs(n.Exprs)

	case *jsast.Unary:
		s.writeByte(TagUnary)
		s.writeString(n.Op)
		s.serializeNode(n.X)

	case *jsast.Binary:
		s.writeByte(TagBinary)
		s.writeString(n.Op)
		s.serializeNode(n.X)
		s.serializeNode(n.Y)

	case *jsast.Logical:
		s.writeByte(TagLogical)
		s.writeString(n.Op)
		s.exprs(n.Values)

	case *jsast.Conditional:
		s.writeByte(TagConditional)
		s.serializeNode(n.Test)
		s.serializeNode(n.Then)
		s.serializeNode(n.Else)

	case *jsast.Call:
		s.writeByte(TagCall)
		s.serializeNode(n.Callee)
		s.exprs(n.Args)

	case *jsast.Member:
		s.writeByte(TagMember)
		s.serializeNode(n.X)
		s.writeString(n.Name)

	case *jsast.Index:
		s.writeByte(TagIndex)
		s.serializeNode(n.X)
		s.serializeNode(n.Index)

	case *jsast.New:
		s.writeByte(TagNew)
		s.serializeNode(n.Callee)
		s.exprs(n.Args)

	case *jsast.Function:
		s.writeByte(TagFunction)
		s.writeBool(n.Arrow)
		s.writeName(n.Name)
		s.writeUint32(uint32(len(n.Params)))
		for _, p := range n.Params {
			s.writeBool(p.Rest)
			s.writeUint32(uint32(len(p.Elems)))
			for _, e := range p.Elems {
				s.writeName(e)
			}
			if len(p.Elems) == 0 {
				s.writeName(p.Name)
			}
			s.optional(p.Default)
		}
		s.optional(n.ExprBody)
		s.stmts(n.Body)

	case *jsast.JSXElement:
		s.writeByte(TagJSXElement)
		s.writeString(n.Tag)
		s.writeUint32(uint32(len(n.Attrs)))
		for _, a := range n.Attrs {
			s.writeBool(a.Spread)
			s.writeString(a.Name)
			s.serializeNode(a.Value)
		}
		s.exprs(n.Children)

	case *jsast.Spread:
		s.writeByte(TagSpread)
		s.serializeNode(n.X)

	case *jsast.Sequence:
		s.writeByte(TagSequence)
		s.exprs(n.Exprs)

	case *jsast.AssignExpr:
		s.writeByte(TagAssignExpr)
		s.writeString(n.Op)
		s.serializeNode(n.Target)
		s.serializeNode(n.Value)

	case *jsast.ExprStmt:
		s.writeByte(TagExprStmt)
		s.serializeNode(n.X)

	case *jsast.Return:
		s.writeByte(TagReturn)
		s.optional(n.Value)

	case *jsast.Assign:
		s.writeByte(TagAssign)
		s.writeByte(byte(n.Declare))
		s.serializeNode(n.Target)
		s.serializeNode(n.Value)

	case *jsast.AugAssign:
		s.writeByte(TagAugAssign)
		s.writeString(n.Op)
		s.serializeNode(n.Target)
		s.serializeNode(n.Value)

	case *jsast.Let:
		s.writeByte(TagLet)
		s.writeUint32(uint32(len(n.Names)))
		for _, name := range n.Names {
			s.writeName(name)
		}

	case *jsast.If:
		s.writeByte(TagIf)
		s.serializeNode(n.Test)
		s.stmts(n.Then)
		s.stmts(n.Else)

	case *jsast.While:
		s.writeByte(TagWhile)
		s.serializeNode(n.Test)
		s.stmts(n.Body)

	case *jsast.ForOf:
		s.writeByte(TagForOf)
		s.writeByte(byte(n.Declare))
		s.writeName(n.Name)
		s.serializeNode(n.Iter)
		s.stmts(n.Body)

	case *jsast.Break:
		s.writeByte(TagBreak)

	case *jsast.Continue:
		s.writeByte(TagContinue)

	case *jsast.Block:
		s.writeByte(TagBlock)
		s.stmts(n.Body)

	case *jsast.FuncDecl:
		s.writeByte(TagFuncDecl)
		s.serializeNode(n.Func)
	}
}
