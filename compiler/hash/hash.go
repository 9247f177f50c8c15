package hash

import (
	"crypto/sha256"

	"github.com/chazu/pyjs/jsast"
)

// RefResolver returns the digest of the dependency a Ref key points at.
// ok is false when the key has no digest; the key itself is then hashed.
type RefResolver func(key string) (digest [32]byte, ok bool)

// HashFunction computes the SHA-256 content digest of a compiled function.
//
// The digest is computed over a deterministic serialization of the tree
// with locally declared names replaced by slot indices. Dependency refs
// contribute the digest of what they point at, so a function's digest
// changes whenever any function or constant it reaches changes.
func HashFunction(fn *jsast.Function, resolve RefResolver) [32]byte {
	data := Serialize(fn, resolve)
	return sha256.Sum256(data)
}

// HashConstant computes the digest of a constant's emitted value.
func HashConstant(value jsast.Expr) [32]byte {
	return sha256.Sum256(Serialize(value, nil))
}
