package hash

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/chazu/pyjs/jsast"
)

func TestSerialize_Deterministic(t *testing.T) {
	node := &jsast.Function{
		Params: []jsast.Param{{Name: "x"}},
		Body: []jsast.Stmt{
			&jsast.Return{Value: &jsast.Binary{Op: "+", X: &jsast.Ident{Name: "x"}, Y: &jsast.Number{Value: 42}}},
		},
	}

	data1 := Serialize(node, nil)
	data2 := Serialize(node, nil)

	if string(data1) != string(data2) {
		t.Error("serialization is not deterministic")
	}
}

func TestSerialize_VersionPrefix(t *testing.T) {
	data := Serialize(&jsast.Null{}, nil)

	if len(data) < 1 {
		t.Fatal("empty serialization")
	}
	if data[0] != HashVersion {
		t.Errorf("version prefix: got 0x%02X, want 0x%02X", data[0], HashVersion)
	}
}

func TestSerialize_Number(t *testing.T) {
	data := Serialize(&jsast.Number{Value: 3.14}, nil)

	// version(1) + tag(1) + float64(8) = 10
	if len(data) != 10 {
		t.Fatalf("length: got %d, want 10", len(data))
	}
	if data[1] != TagNumber {
		t.Errorf("tag: got 0x%02X, want 0x%02X", data[1], TagNumber)
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(data[2:10]))
	if v != 3.14 {
		t.Errorf("value: got %f, want 3.14", v)
	}
}

func TestSerialize_String(t *testing.T) {
	data := Serialize(&jsast.String{Value: "hello"}, nil)

	// version(1) + tag(1) + len(4) + "hello"(5) = 11
	if len(data) != 11 {
		t.Fatalf("length: got %d, want 11", len(data))
	}
	if n := binary.BigEndian.Uint32(data[2:6]); n != 5 {
		t.Errorf("string length: got %d, want 5", n)
	}
	if string(data[6:11]) != "hello" {
		t.Errorf("string value: got %q, want %q", string(data[6:11]), "hello")
	}
}

func TestSerialize_Bool(t *testing.T) {
	dataTrue := Serialize(&jsast.Bool{Value: true}, nil)
	dataFalse := Serialize(&jsast.Bool{Value: false}, nil)

	// version(1) + tag(1) + bool(1) = 3
	if len(dataTrue) != 3 || len(dataFalse) != 3 {
		t.Fatalf("lengths: true=%d false=%d, want 3", len(dataTrue), len(dataFalse))
	}
	if dataTrue[2] != 1 || dataFalse[2] != 0 {
		t.Errorf("got true=%d false=%d", dataTrue[2], dataFalse[2])
	}
}

func TestSerialize_RefUsesDigest(t *testing.T) {
	var digest [32]byte
	digest[0] = 0xAB
	resolve := func(key string) ([32]byte, bool) {
		return digest, key == "fn:a"
	}

	data := Serialize(&jsast.Ref{Key: "fn:a", Hint: "a"}, resolve)
	// version(1) + tag(1) + digest(32)
	if len(data) != 34 || data[1] != TagRef || data[2] != 0xAB {
		t.Errorf("resolved ref: % x", data)
	}

	data = Serialize(&jsast.Ref{Key: "fn:b", Hint: "b"}, resolve)
	if data[1] != TagRefKey {
		t.Errorf("unresolved ref tag: got 0x%02X, want 0x%02X", data[1], TagRefKey)
	}
}

func TestSerialize_DifferentNodesDiffer(t *testing.T) {
	nodes := []jsast.Node{
		&jsast.Number{Value: 1},
		&jsast.String{Value: "1"},
		&jsast.Bool{Value: true},
		&jsast.Null{},
		&jsast.Undefined{},
		&jsast.Ident{Name: "Math"},
		&jsast.Array{},
		&jsast.Object{},
		&jsast.Regex{Pattern: "1"},
		&jsast.Ref{Key: "Math"},
		&jsast.Break{},
		&jsast.Continue{},
	}

	seen := make(map[string]int)
	for i, node := range nodes {
		data := string(Serialize(node, nil))
		if prev, ok := seen[data]; ok {
			t.Errorf("node %d and %d produce identical serializations", prev, i)
		}
		seen[data] = i
	}
}
