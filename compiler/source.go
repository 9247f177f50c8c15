package compiler

import (
	"errors"
	"strings"

	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// Front-End: source retrieval, dedent and def isolation
// ---------------------------------------------------------------------------

// SourceFunction is a parsed def ready for resolution. It is immutable once
// built.
type SourceFunction struct {
	Fn     *Function
	Source string // dedented source
	Def    *syntax.FuncDef
	Params []string
	Free   []string // free variables in first-occurrence order

	indent int // columns removed by dedent
}

// Extract retrieves fn's source, parses it and isolates the requested def
// with its docstring removed and decorators dropped.
func Extract(fn *Function) (*SourceFunction, error) {
	src, err := loadSource(fn)
	if err != nil {
		return nil, err
	}
	text, indent := Dedent(src)
	sf := &SourceFunction{Fn: fn, Source: text, indent: indent}

	mod, err := syntax.Parse(text)
	if err != nil {
		var perr syntax.Error
		pos := Pos{File: fn.File}
		if errors.As(err, &perr) {
			pos = sf.pos(perr.Pos)
			return nil, &Error{Code: ParseError, Pos: pos, Msg: perr.Msg, Func: fn.Name, Err: err}
		}
		return nil, &Error{Code: ParseError, Pos: pos, Msg: err.Error(), Func: fn.Name, Err: err}
	}

	def := findDef(mod, fn.Name)
	if def == nil {
		name := fn.Name
		if name == "" {
			name = "<any>"
		}
		return nil, &Error{
			Code: NoFunctionDefFound, Pos: Pos{File: fn.File, Line: fn.Line}, Construct: name,
			Msg: "no def " + name + " in source", Func: fn.Name,
		}
	}

	isolated := *def
	isolated.Decorators = nil
	isolated.Body = stripDocstring(def.Body)
	sf.Def = &isolated
	for _, p := range isolated.Params {
		sf.Params = append(sf.Params, p.Name)
	}
	sf.Free = freeVariables(&isolated)
	return sf, nil
}

func loadSource(fn *Function) (string, error) {
	if fn.Source != "" {
		return fn.Source, nil
	}
	pos := Pos{File: fn.File, Line: fn.Line}
	if fn.Load == nil {
		return "", &Error{Code: SourceUnavailable, Pos: pos, Construct: fn.Name, Msg: "no source for " + fn.Name, Func: fn.Name}
	}
	src, err := fn.Load()
	if err != nil {
		return "", &Error{Code: SourceUnavailable, Pos: pos, Construct: fn.Name, Msg: err.Error(), Func: fn.Name, Err: err}
	}
	if strings.TrimSpace(src) == "" {
		return "", &Error{Code: SourceUnavailable, Pos: pos, Construct: fn.Name, Msg: "empty source for " + fn.Name, Func: fn.Name}
	}
	return src, nil
}

// findDef returns the top-level def called name, or the first one when
// name is empty.
func findDef(mod *syntax.Module, name string) *syntax.FuncDef {
	for _, st := range mod.Body {
		if def, ok := st.(*syntax.FuncDef); ok && (name == "" || def.Name == name) {
			return def
		}
	}
	return nil
}

func stripDocstring(body []syntax.Stmt) []syntax.Stmt {
	if len(body) == 0 {
		return body
	}
	if es, ok := body[0].(*syntax.ExprStmt); ok {
		if _, ok := es.X.(*syntax.StringLit); ok {
			return body[1:]
		}
	}
	return body
}

// Dedent removes the whitespace prefix common to every non-blank line and
// reports how many columns were removed.
func Dedent(src string) (string, int) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = lead, false
			continue
		}
		for !strings.HasPrefix(lead, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if prefix == "" {
		return src, 0
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n"), len(prefix)
}

// pos maps a position in the dedented source back to the original file.
func (sf *SourceFunction) pos(p syntax.Position) Pos {
	line := p.Line
	if sf.Fn.Line > 0 {
		line += sf.Fn.Line - 1
	}
	col := p.Column
	if col > 0 {
		col += sf.indent
	}
	return Pos{File: sf.Fn.File, Line: line, Column: col}
}
