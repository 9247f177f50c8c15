package store

import "testing"

func TestKeyOrderIndependent(t *testing.T) {
	a := NewKeyBuilder().Source("a.py", "x").Source("b.py", "y").Root("r1").Root("r2").Config("shapes", "true").Sum()
	b := NewKeyBuilder().Config("shapes", "true").Root("r2").Source("b.py", "y").Root("r1").Source("a.py", "x").Sum()
	if a != b {
		t.Errorf("keys differ: %s vs %s", a, b)
	}
}

func TestKeySensitivity(t *testing.T) {
	base := func() *KeyBuilder {
		return NewKeyBuilder().Source("a.py", "def f(): pass").Root("a.py:1:f").Config("shapes", "true")
	}
	ref := base().Sum()
	variants := map[string]Key{
		"source":    base().Source("a.py", "def f(): return 1").Sum(),
		"new file":  base().Source("b.py", "").Sum(),
		"root":      base().Root("a.py:5:g").Sum(),
		"config":    base().Config("shapes", "false").Sum(),
		"new param": base().Config("cache", "off").Sum(),
	}
	for name, k := range variants {
		if k == ref {
			t.Errorf("%s change left the key unchanged", name)
		}
	}

	// Length prefixes keep field boundaries apart.
	x := NewKeyBuilder().Source("ab", "c").Sum()
	y := NewKeyBuilder().Source("a", "bc").Sum()
	if x == y {
		t.Error("shifted field boundary produced the same key")
	}
	if len(ref.String()) != 32 {
		t.Errorf("key string = %q", ref.String())
	}
}
