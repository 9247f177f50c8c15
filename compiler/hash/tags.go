package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the hashing serialization of JavaScript trees.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously computed content digests.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing content digests.
const HashVersion byte = 1

// Node type tags. Each tag uniquely identifies a node kind in the
// serialized byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Literal values
	TagNumber    byte = 0x01
	TagString    byte = 0x02
	TagBool      byte = 0x03
	TagNull      byte = 0x04
	TagUndefined byte = 0x05
	TagArray     byte = 0x06
	TagObject    byte = 0x07
	TagTemplate  byte = 0x08
	TagRegex     byte = 0x09

	// Identifier references
	TagLocal  byte = 0x0A // slot index of a locally declared name
	TagGlobal byte = 0x0B // free identifier, by name
	TagRef    byte = 0x0C // dependency, by digest
	TagRefKey byte = 0x0D // dependency without a digest, by key

	// Operators
	TagUnary       byte = 0x10
	TagBinary      byte = 0x11
	TagLogical     byte = 0x12
	TagConditional byte = 0x13
	TagCall        byte = 0x14
	TagMember      byte = 0x15
	TagIndex       byte = 0x16
	TagNew         byte = 0x17
	TagFunction    byte = 0x18
	TagSpread      byte = 0x19
	TagSequence    byte = 0x1A
	TagAssignExpr  byte = 0x1B
	TagJSXElement  byte = 0x1C

	// Statements
	TagExprStmt  byte = 0x20
	TagReturn    byte = 0x21
	TagAssign    byte = 0x22
	TagAugAssign byte = 0x23
	TagLet       byte = 0x24
	TagIf        byte = 0x25
	TagWhile     byte = 0x26
	TagForOf     byte = 0x27
	TagBreak     byte = 0x28
	TagContinue  byte = 0x29
	TagBlock     byte = 0x2A
	TagFuncDecl  byte = 0x2B

	// Reserved 0xFE-0xFF

	// Object property sub-types (used within object serialization)
	TagPropKey      byte = 0x30
	TagPropComputed byte = 0x31
	TagPropSpread   byte = 0x32
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagNumber, TagString, TagBool, TagNull, TagUndefined,
	TagArray, TagObject, TagTemplate, TagRegex,
	TagLocal, TagGlobal, TagRef, TagRefKey,
	TagUnary, TagBinary, TagLogical, TagConditional, TagCall, TagMember,
	TagIndex, TagNew, TagFunction, TagSpread, TagSequence, TagAssignExpr,
	TagJSXElement,
	TagExprStmt, TagReturn, TagAssign, TagAugAssign, TagLet, TagIf,
	TagWhile, TagForOf, TagBreak, TagContinue, TagBlock, TagFuncDecl,
	TagPropKey, TagPropComputed, TagPropSpread,
}
