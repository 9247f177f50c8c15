package hash_test

import (
	"testing"

	"github.com/chazu/pyjs/compiler/hash"
	"github.com/chazu/pyjs/jsast"
)

func adder(a, b string, op string) *jsast.Function {
	return &jsast.Function{
		Name:   "add",
		Params: []jsast.Param{{Name: a}, {Name: b}},
		Body: []jsast.Stmt{
			&jsast.Assign{Declare: jsast.DeclLet, Target: &jsast.Ident{Name: "r"},
				Value: &jsast.Binary{Op: op, X: &jsast.Ident{Name: a}, Y: &jsast.Ident{Name: b}}},
			&jsast.Return{Value: &jsast.Call{Callee: &jsast.Member{X: &jsast.Ident{Name: "Math"}, Name: "abs"},
				Args: []jsast.Expr{&jsast.Ident{Name: "r"}}}},
		},
	}
}

func TestHashFunction_Deterministic(t *testing.T) {
	h1 := hash.HashFunction(adder("x", "y", "+"), nil)
	h2 := hash.HashFunction(adder("x", "y", "+"), nil)
	if h1 != h2 {
		t.Error("same tree should produce identical digests")
	}
	var zero [32]byte
	if h1 == zero {
		t.Error("digest should be non-zero")
	}
}

func TestHashFunction_DifferentBodyDifferentHash(t *testing.T) {
	if hash.HashFunction(adder("x", "y", "+"), nil) == hash.HashFunction(adder("x", "y", "-"), nil) {
		t.Error("different bodies should produce different digests")
	}
}

func TestHashFunction_AlphaEquivalent(t *testing.T) {
	if hash.HashFunction(adder("x", "y", "+"), nil) != hash.HashFunction(adder("a", "b", "+"), nil) {
		t.Error("renaming locals should not change the digest")
	}
}

func TestHashFunction_FreeNamesMatter(t *testing.T) {
	f1 := adder("x", "y", "+")
	f2 := adder("x", "y", "+")
	f2.Body[1].(*jsast.Return).Value.(*jsast.Call).Callee = &jsast.Member{X: &jsast.Ident{Name: "Number"}, Name: "abs"}
	if hash.HashFunction(f1, nil) == hash.HashFunction(f2, nil) {
		t.Error("free identifiers should be hashed by name")
	}
}

func TestHashFunction_DependencyDigestPropagates(t *testing.T) {
	caller := &jsast.Function{
		Name: "caller",
		Body: []jsast.Stmt{&jsast.Return{Value: &jsast.Call{Callee: &jsast.Ref{Key: "fn:helper", Hint: "helper"}}}},
	}
	v1 := hash.HashConstant(&jsast.Number{Value: 1})
	v2 := hash.HashConstant(&jsast.Number{Value: 2})

	h1 := hash.HashFunction(caller, func(string) ([32]byte, bool) { return v1, true })
	h2 := hash.HashFunction(caller, func(string) ([32]byte, bool) { return v2, true })
	if h1 == h2 {
		t.Error("a changed dependency should change the caller's digest")
	}
}
