package store

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/zeebo/xxh3"
)

// formatVersion changes whenever emitted code for identical input may
// change, invalidating every stored bundle.
const formatVersion = "pyjs-bundle-1"

// Key identifies one bundle build: the sources it was built from, the
// configuration that shaped it and its root set.
type Key [16]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// KeyBuilder accumulates the inputs of a build. Inputs may be added in
// any order.
type KeyBuilder struct {
	config  map[string]string
	sources map[string]string
	roots   map[string]bool
}

// NewKeyBuilder creates an empty builder.
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{
		config:  make(map[string]string),
		sources: make(map[string]string),
		roots:   make(map[string]bool),
	}
}

// Config records a configuration setting.
func (b *KeyBuilder) Config(name, value string) *KeyBuilder {
	b.config[name] = value
	return b
}

// Source records the text of a source file.
func (b *KeyBuilder) Source(path, text string) *KeyBuilder {
	b.sources[path] = text
	return b
}

// Root records the ID of a root function.
func (b *KeyBuilder) Root(id string) *KeyBuilder {
	b.roots[id] = true
	return b
}

// Sum returns the 128-bit xxh3 fingerprint of everything recorded.
func (b *KeyBuilder) Sum() Key {
	h := xxh3.New()
	field(h, formatVersion)
	section(h, "config", b.config)
	section(h, "source", b.sources)
	roots := make([]string, 0, len(b.roots))
	for id := range b.roots {
		roots = append(roots, id)
	}
	sort.Strings(roots)
	field(h, "roots")
	for _, id := range roots {
		field(h, id)
	}
	return Key(h.Sum128().Bytes())
}

func section(h *xxh3.Hasher, name string, entries map[string]string) {
	field(h, name)
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field(h, k)
		field(h, entries[k])
	}
}

// field writes s length-prefixed so adjacent fields cannot run together.
func field(h *xxh3.Hasher, s string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.WriteString(s)
}
