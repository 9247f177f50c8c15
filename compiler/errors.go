package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// Code classifies a compile diagnostic. A Code is itself an error so it can
// be used as a sentinel with errors.Is.
type Code int

const (
	SourceUnavailable Code = iota + 1
	ParseError
	NoFunctionDefFound
	UnboundName
	UnsupportedOperator
	UnsupportedUnpacking
	UnsupportedMethod
	UnsupportedBuiltin
	UnsupportedGlobalKind
	UnsupportedSyntax
	CyclicDependency
	DynamicFormatSpec
	InvalidFormatSpec
	ElementAlreadyFinalized
)

var codeNames = map[Code]string{
	SourceUnavailable:       "SourceUnavailable",
	ParseError:              "ParseError",
	NoFunctionDefFound:      "NoFunctionDefFound",
	UnboundName:             "UnboundName",
	UnsupportedOperator:     "UnsupportedOperator",
	UnsupportedUnpacking:    "UnsupportedUnpacking",
	UnsupportedMethod:       "UnsupportedMethod",
	UnsupportedBuiltin:      "UnsupportedBuiltin",
	UnsupportedGlobalKind:   "UnsupportedGlobalKind",
	UnsupportedSyntax:       "UnsupportedSyntax",
	CyclicDependency:        "CyclicDependency",
	DynamicFormatSpec:       "DynamicFormatSpec",
	InvalidFormatSpec:       "InvalidFormatSpec",
	ElementAlreadyFinalized: "ElementAlreadyFinalized",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

func (c Code) Error() string { return c.String() }

// Pos is a location in a source file. Line and Column are 1-based; zero
// means unknown.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	var b strings.Builder
	b.WriteString(p.File)
	if p.Line > 0 {
		if b.Len() > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%d", p.Line)
		if p.Column > 0 {
			fmt.Fprintf(&b, ":%d", p.Column)
		}
	}
	return b.String()
}

// Error is a compile diagnostic.
type Error struct {
	Code      Code
	Pos       Pos
	Construct string // offending name, operator or construct
	Msg       string
	Func      string // function being compiled
	Err       error  // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	if pos := e.Pos.String(); pos != "" {
		b.WriteString(pos)
		b.WriteString(": ")
	}
	b.WriteString(e.Code.String())
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Func != "" {
		fmt.Fprintf(&b, " (in %s)", e.Func)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is e's Code.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

func errorf(code Code, pos Pos, construct, format string, args ...interface{}) *Error {
	return &Error{Code: code, Pos: pos, Construct: construct, Msg: fmt.Sprintf(format, args...)}
}

// bailout carries a diagnostic out of a deep transpiler walk; the
// entry point recovers it.
type bailout struct {
	err *Error
}
