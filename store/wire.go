package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/pyjs/compiler"
)

// Record is a stored bundle.
type Record struct {
	Key           Key               `cbor:"1,keyasint"`
	Code          string            `cbor:"2,keyasint"`
	ContentHash   string            `cbor:"3,keyasint"`
	ExternalNames map[string]string `cbor:"4,keyasint"`
	Modules       []string          `cbor:"5,keyasint,omitempty"`
	Functions     []string          `cbor:"6,keyasint,omitempty"`
	Constants     []string          `cbor:"7,keyasint,omitempty"`
	CreatedAt     int64             `cbor:"8,keyasint"` // unix seconds
}

// NewRecord captures b under key.
func NewRecord(key Key, b *compiler.Bundle) *Record {
	return &Record{
		Key:           key,
		Code:          b.Code,
		ContentHash:   b.ContentHash,
		ExternalNames: b.ExternalNames,
		Modules:       b.Modules,
		Functions:     b.Functions,
		Constants:     b.Constants,
	}
}

// Bundle returns the stored bundle.
func (r *Record) Bundle() *compiler.Bundle {
	return &compiler.Bundle{
		Code:          r.Code,
		ContentHash:   r.ContentHash,
		ExternalNames: r.ExternalNames,
		Modules:       r.Modules,
		Functions:     r.Functions,
		Constants:     r.Constants,
	}
}

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalRecord serializes a Record to CBOR bytes.
func MarshalRecord(r *Record) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalRecord deserializes a Record from CBOR bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	var r Record
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("store: unmarshal record: %w", err)
	}
	return &r, nil
}
