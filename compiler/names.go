package compiler

import (
	"strconv"

	"github.com/chazu/pyjs/jsast"
)

// nameAllocator hands out collision-free top-level names for one bundle.
// A taken base name gets the first free numeric suffix: helper, helper_2,
// helper_3.
type nameAllocator struct {
	used map[string]bool
}

func newNameAllocator() *nameAllocator {
	a := &nameAllocator{used: make(map[string]bool)}
	for name := range jsast.Keywords {
		a.used[name] = true
	}
	for name := range jsast.Globals {
		a.used[name] = true
	}
	return a
}

// reserve marks names as unavailable.
func (a *nameAllocator) reserve(names map[string]bool) {
	for name := range names {
		a.used[name] = true
	}
}

func (a *nameAllocator) allocate(base string) string {
	if !jsast.IsIdentifierName(base) {
		base = "fn"
	}
	name := base
	for i := 2; a.used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	a.used[name] = true
	return name
}
