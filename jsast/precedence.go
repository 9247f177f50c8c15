package jsast

// ---------------------------------------------------------------------------
// Operator precedence
// ---------------------------------------------------------------------------

// L is a precedence level. Higher levels bind tighter.
type L uint8

// https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Operators/Operator_Precedence
const (
	LLowest L = iota
	LComma
	LSpread
	LYield
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitwiseOr
	LBitwiseXor
	LBitwiseAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponentiation
	LPrefix
	LPostfix
	LNew
	LCall
	LMember
)

// binaryLevels gives the level of every binary operator the node model can
// emit.
var binaryLevels = map[string]L{
	"??":         LNullishCoalescing,
	"||":         LLogicalOr,
	"&&":         LLogicalAnd,
	"|":          LBitwiseOr,
	"^":          LBitwiseXor,
	"&":          LBitwiseAnd,
	"==":         LEquals,
	"!=":         LEquals,
	"===":        LEquals,
	"!==":        LEquals,
	"<":          LCompare,
	"<=":         LCompare,
	">":          LCompare,
	">=":         LCompare,
	"in":         LCompare,
	"instanceof": LCompare,
	"<<":         LShift,
	">>":         LShift,
	">>>":        LShift,
	"+":          LAdd,
	"-":          LAdd,
	"*":          LMultiply,
	"/":          LMultiply,
	"%":          LMultiply,
	"**":         LExponentiation,
}

// BinaryLevel returns the precedence of a binary operator and whether the
// operator is known.
func BinaryLevel(op string) (L, bool) {
	l, ok := binaryLevels[op]
	return l, ok
}

// IsRightAssociative reports whether op groups to the right.
func IsRightAssociative(op string) bool {
	return op == "**"
}

// isKeywordOp reports whether an operator is spelled as a word.
func isKeywordOp(op string) bool {
	switch op {
	case "in", "instanceof", "typeof", "void", "delete":
		return true
	}
	return false
}
