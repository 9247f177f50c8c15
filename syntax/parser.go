package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for the Python subset
// ---------------------------------------------------------------------------

// Error is a parse error with its location.
type Error struct {
	Pos Position
	Msg string
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// bailout aborts parsing after the first error; the caller recovers it.
type bailout struct{}

// Parser parses Python source code into an AST.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	lastToken Token
	errors    []Error
	input     string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	return newParserWith(NewLexer(input), input)
}

func newParserWith(l *Lexer, input string) *Parser {
	p := &Parser{lexer: l, input: input}
	// Read two tokens to fill curToken and peekToken; an error in the
	// first token is reported once parsing starts.
	p.curToken = l.NextToken()
	p.peekToken = l.NextToken()
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.lastToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	if p.curToken.Type == TokenError {
		p.errorAt(p.curToken.Pos, "%s", p.curToken.Literal)
	}
}

// curIs reports whether the current token is the given operator or keyword.
func (p *Parser) curIs(lit string) bool {
	return p.curToken.is(lit)
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// expect advances if the current token is the given operator or keyword,
// otherwise records an error.
func (p *Parser) expect(lit string) {
	if !p.curIs(lit) {
		p.errorf("expected %q, got %s", lit, p.curToken)
	}
	p.nextToken()
}

// expectType advances past a token of the given type or records an error.
func (p *Parser) expectType(t TokenType) Token {
	tok := p.curToken
	if tok.Type != t {
		p.errorf("expected %s, got %s", t, tok)
	}
	p.nextToken()
	return tok
}

// errorf records a parse error at the current token.
func (p *Parser) errorf(format string, args ...interface{}) {
	p.errorAt(p.curToken.Pos, format, args...)
}

func (p *Parser) errorAt(pos Position, format string, args ...interface{}) {
	p.errors = append(p.errors, Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
	panic(bailout{})
}

// Errors returns accumulated parse errors as strings.
func (p *Parser) Errors() []string {
	out := make([]string, len(p.errors))
	for i, e := range p.errors {
		out[i] = e.Error()
	}
	return out
}

// Diagnostics returns accumulated parse errors with positions.
func (p *Parser) Diagnostics() []Error {
	return p.errors
}

func (p *Parser) checkFirst() {
	if p.curToken.Type == TokenError {
		p.errorAt(p.curToken.Pos, "%s", p.curToken.Literal)
	}
}

func (p *Parser) spanFrom(start Position) Span {
	return MakeSpan(start, p.lastToken.End)
}

// guard recovers a bailout so that the public entry points return normally.
func (p *Parser) guard() {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
	}
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseModule parses a whole source file.
func (p *Parser) ParseModule() (mod *Module) {
	mod = &Module{}
	defer p.guard()
	p.checkFirst()
	for !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenNewline) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(TokenIndent) {
			p.errorf("unexpected indent")
		}
		mod.Body = append(mod.Body, p.parseStatement()...)
	}
	return mod
}

// ParseExpression parses a single expression (a bare tuple is allowed).
func (p *Parser) ParseExpression() (expr Expr) {
	defer p.guard()
	p.checkFirst()
	expr = p.parseTestList()
	for p.curTokenIs(TokenNewline) {
		p.nextToken()
	}
	if !p.curTokenIs(TokenEOF) {
		p.errorf("unexpected %s after expression", p.curToken)
	}
	return expr
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// parseStatement parses one logical line or compound statement. Simple
// statements separated by ';' produce several results.
func (p *Parser) parseStatement() []Stmt {
	if p.curTokenIs(TokenKeyword) {
		switch p.curToken.Literal {
		case "def":
			return []Stmt{p.parseFuncDef(nil)}
		case "if":
			return []Stmt{p.parseIf()}
		case "while":
			return []Stmt{p.parseWhile()}
		case "for":
			return []Stmt{p.parseFor()}
		case "class", "try", "except", "finally", "with", "async":
			return []Stmt{p.skipCompound()}
		case "elif", "else":
			p.errorf("%q without matching statement", p.curToken.Literal)
		}
	}
	if p.curIs("@") {
		return []Stmt{p.parseDecorated()}
	}
	return p.parseSimpleStatements()
}

// parseSimpleStatements parses small statements up to the end of the line.
func (p *Parser) parseSimpleStatements() []Stmt {
	var stmts []Stmt
	for {
		stmts = append(stmts, p.parseSmallStatement())
		if !p.curIs(";") {
			break
		}
		p.nextToken()
		if p.curTokenIs(TokenNewline) || p.curTokenIs(TokenEOF) {
			break
		}
	}
	if !p.curTokenIs(TokenEOF) {
		p.expectType(TokenNewline)
	}
	return stmts
}

func (p *Parser) parseSmallStatement() Stmt {
	start := p.curToken.Pos
	if p.curTokenIs(TokenKeyword) {
		switch p.curToken.Literal {
		case "return":
			p.nextToken()
			var value Expr
			if !p.atStatementEnd() {
				value = p.parseTestList()
			}
			return &Return{SpanVal: p.spanFrom(start), Value: value}
		case "pass":
			p.nextToken()
			return &Pass{SpanVal: p.spanFrom(start)}
		case "break":
			p.nextToken()
			return &Break{SpanVal: p.spanFrom(start)}
		case "continue":
			p.nextToken()
			return &Continue{SpanVal: p.spanFrom(start)}
		case "import":
			return p.parseImport()
		case "from":
			return p.parseImportFrom()
		case "global", "nonlocal", "del", "assert", "raise":
			kw := p.curToken.Literal
			for !p.atStatementEnd() {
				p.nextToken()
			}
			return &Unsupported{SpanVal: p.spanFrom(start), Keyword: kw}
		}
	}
	return p.parseExprStatement()
}

func (p *Parser) atStatementEnd() bool {
	return p.curTokenIs(TokenNewline) || p.curTokenIs(TokenEOF) || p.curIs(";")
}

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, "&=": true, "|=": true, "^=": true,
	"@=": true,
}

// parseExprStatement parses assignments and expression statements.
func (p *Parser) parseExprStatement() Stmt {
	start := p.curToken.Pos
	first := p.parseTestListStar()

	switch {
	case p.curIs(":"):
		p.nextToken()
		ann := p.parseTest()
		var value Expr
		if p.curIs("=") {
			p.nextToken()
			value = p.parseTestListStar()
		}
		return &AnnAssign{SpanVal: p.spanFrom(start), Target: first, Annotation: ann, Value: value}

	case p.curTokenIs(TokenOp) && augOps[p.curToken.Literal]:
		op := strings.TrimSuffix(p.curToken.Literal, "=")
		p.nextToken()
		value := p.parseTestList()
		return &AugAssign{SpanVal: p.spanFrom(start), Target: first, Op: op, Value: value}

	case p.curIs("="):
		targets := []Expr{first}
		var value Expr
		for p.curIs("=") {
			p.nextToken()
			v := p.parseTestListStar()
			if p.curIs("=") {
				targets = append(targets, v)
				continue
			}
			value = v
		}
		return &Assign{SpanVal: p.spanFrom(start), Targets: targets, Value: value}
	}

	return &ExprStmt{SpanVal: p.spanFrom(start), X: first}
}

func (p *Parser) parseImport() Stmt {
	start := p.curToken.Pos
	p.expect("import")
	stmt := &Import{}
	for {
		stmt.Names = append(stmt.Names, p.parseAlias(true))
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseImportFrom() Stmt {
	start := p.curToken.Pos
	p.expect("from")
	var module strings.Builder
	for p.curIs(".") || p.curIs("...") {
		module.WriteString(p.curToken.Literal)
		p.nextToken()
	}
	if p.curTokenIs(TokenName) {
		module.WriteString(p.parseDottedName())
	}
	p.expect("import")
	stmt := &ImportFrom{Module: module.String()}
	paren := p.curIs("(")
	if paren {
		p.nextToken()
	}
	if p.curIs("*") {
		p.nextToken()
		stmt.Names = append(stmt.Names, Alias{Name: "*"})
	} else {
		for {
			stmt.Names = append(stmt.Names, p.parseAlias(false))
			if !p.curIs(",") {
				break
			}
			p.nextToken()
			if paren && p.curIs(")") {
				break
			}
		}
	}
	if paren {
		p.expect(")")
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseAlias(dotted bool) Alias {
	var a Alias
	if dotted {
		a.Name = p.parseDottedName()
	} else {
		a.Name = p.expectType(TokenName).Literal
	}
	if p.curIs("as") {
		p.nextToken()
		a.AsName = p.expectType(TokenName).Literal
	}
	return a
}

func (p *Parser) parseDottedName() string {
	parts := []string{p.expectType(TokenName).Literal}
	for p.curIs(".") {
		p.nextToken()
		parts = append(parts, p.expectType(TokenName).Literal)
	}
	return strings.Join(parts, ".")
}

// skipCompound consumes an unsupported statement including its block.
func (p *Parser) skipCompound() Stmt {
	start := p.curToken.Pos
	kw := p.curToken.Literal
	for !p.curTokenIs(TokenNewline) && !p.curTokenIs(TokenEOF) {
		p.nextToken()
	}
	if p.curTokenIs(TokenNewline) {
		p.nextToken()
	}
	if p.curTokenIs(TokenIndent) {
		depth := 0
		for {
			switch p.curToken.Type {
			case TokenIndent:
				depth++
			case TokenDedent:
				depth--
			case TokenEOF:
				depth = 0
			}
			p.nextToken()
			if depth == 0 {
				break
			}
		}
	}
	return &Unsupported{SpanVal: p.spanFrom(start), Keyword: kw}
}

// parseDecorated parses decorators followed by a def.
func (p *Parser) parseDecorated() Stmt {
	var decorators []Expr
	for p.curIs("@") {
		p.nextToken()
		decorators = append(decorators, p.parseTest())
		p.expectType(TokenNewline)
	}
	if !p.curIs("def") {
		stmt := p.skipCompound()
		return stmt
	}
	return p.parseFuncDef(decorators)
}

// parseFuncDef parses def name(params): block.
func (p *Parser) parseFuncDef(decorators []Expr) *FuncDef {
	start := p.curToken.Pos
	if len(decorators) > 0 {
		start = decorators[0].Span().Start
	}
	p.expect("def")
	name := p.expectType(TokenName).Literal
	p.expect("(")
	params := p.parseParams(")", true)
	p.expect(")")
	if p.curIs("->") {
		p.nextToken()
		p.parseTest()
	}
	body := p.parseBlock()
	return &FuncDef{
		SpanVal:    p.spanFrom(start),
		Name:       name,
		Params:     params,
		Body:       body,
		Decorators: decorators,
	}
}

// parseParams parses a parameter list up to (not including) end.
func (p *Parser) parseParams(end string, annotations bool) []*Param {
	var params []*Param
	kind := ParamNormal
	for !p.curIs(end) {
		start := p.curToken.Pos
		param := &Param{Kind: kind}
		switch {
		case p.curIs("/"):
			p.nextToken()
			if !p.curIs(end) {
				p.expect(",")
			}
			continue
		case p.curIs("**"):
			p.nextToken()
			param.Kind = ParamKwArgs
		case p.curIs("*"):
			p.nextToken()
			kind = ParamKwOnly
			if p.curIs(",") {
				p.nextToken()
				continue
			}
			param.Kind = ParamVarArgs
		}
		param.Name = p.expectType(TokenName).Literal
		if annotations && p.curIs(":") {
			p.nextToken()
			p.parseTest()
		}
		if p.curIs("=") {
			p.nextToken()
			param.Default = p.parseTest()
		}
		param.SpanVal = p.spanFrom(start)
		params = append(params, param)
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	return params
}

// parseBlock parses ':' followed by an indented suite or a same-line body.
func (p *Parser) parseBlock() []Stmt {
	p.expect(":")
	if !p.curTokenIs(TokenNewline) {
		return p.parseSimpleStatements()
	}
	p.nextToken()
	if !p.curTokenIs(TokenIndent) {
		p.errorf("expected an indented block")
	}
	p.nextToken()
	var body []Stmt
	for !p.curTokenIs(TokenDedent) && !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenNewline) {
			p.nextToken()
			continue
		}
		body = append(body, p.parseStatement()...)
	}
	if p.curTokenIs(TokenDedent) {
		p.nextToken()
	}
	return body
}

func (p *Parser) parseIf() Stmt {
	start := p.curToken.Pos
	p.nextToken() // 'if' or 'elif'
	cond := p.parseTest()
	body := p.parseBlock()
	stmt := &If{Cond: cond, Body: body}
	switch {
	case p.curIs("elif"):
		stmt.Else = []Stmt{p.parseIf()}
	case p.curIs("else"):
		p.nextToken()
		stmt.Else = p.parseBlock()
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseWhile() Stmt {
	start := p.curToken.Pos
	p.expect("while")
	cond := p.parseTest()
	body := p.parseBlock()
	stmt := &While{Cond: cond, Body: body}
	if p.curIs("else") {
		p.nextToken()
		stmt.Else = p.parseBlock()
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseFor() Stmt {
	start := p.curToken.Pos
	p.expect("for")
	target := p.parseTargetList()
	p.expect("in")
	iter := p.parseTestList()
	body := p.parseBlock()
	stmt := &For{Target: target, Iter: iter, Body: body}
	if p.curIs("else") {
		p.nextToken()
		stmt.Else = p.parseBlock()
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// parseTestList parses test (',' test)* [','] into a tuple when needed.
func (p *Parser) parseTestList() Expr {
	return p.parseSequence(p.parseTest)
}

// parseTestListStar is parseTestList allowing starred elements.
func (p *Parser) parseTestListStar() Expr {
	return p.parseSequence(p.parseTestOrStar)
}

// parseTargetList parses loop and comprehension targets.
func (p *Parser) parseTargetList() Expr {
	return p.parseSequence(func() Expr {
		if p.curIs("*") {
			start := p.curToken.Pos
			p.nextToken()
			x := p.parseBitOr()
			return &Starred{SpanVal: p.spanFrom(start), X: x}
		}
		return p.parseBitOr()
	})
}

func (p *Parser) parseSequence(item func() Expr) Expr {
	start := p.curToken.Pos
	first := item()
	if !p.curIs(",") {
		return first
	}
	elts := []Expr{first}
	for p.curIs(",") {
		p.nextToken()
		if !p.startsExpression() {
			break
		}
		elts = append(elts, item())
	}
	return &Tuple{SpanVal: p.spanFrom(start), Elts: elts}
}

// startsExpression reports whether the current token can begin an expression.
func (p *Parser) startsExpression() bool {
	tok := p.curToken
	switch tok.Type {
	case TokenName, TokenInt, TokenFloat, TokenString:
		return true
	case TokenKeyword:
		switch tok.Literal {
		case "None", "True", "False", "not", "lambda", "await", "yield":
			return true
		}
	case TokenOp:
		switch tok.Literal {
		case "(", "[", "{", "-", "+", "~", "*", "...":
			return true
		}
	}
	return false
}

func (p *Parser) parseTestOrStar() Expr {
	if p.curIs("*") {
		start := p.curToken.Pos
		p.nextToken()
		x := p.parseBitOr()
		return &Starred{SpanVal: p.spanFrom(start), X: x}
	}
	return p.parseTest()
}

// parseTest parses a full expression: lambda, conditional or walrus.
func (p *Parser) parseTest() Expr {
	start := p.curToken.Pos
	if p.curIs("lambda") {
		return p.parseLambda()
	}
	x := p.parseOrTest()
	if p.curIs("if") {
		p.nextToken()
		cond := p.parseOrTest()
		p.expect("else")
		other := p.parseTest()
		return &IfExp{SpanVal: p.spanFrom(start), Cond: cond, Body: x, Else: other}
	}
	if p.curIs(":=") {
		name, ok := x.(*Name)
		if !ok {
			p.errorf("cannot use assignment expression with %T", x)
		}
		p.nextToken()
		value := p.parseTest()
		return &NamedExpr{SpanVal: p.spanFrom(start), Target: name, Value: value}
	}
	return x
}

func (p *Parser) parseLambda() Expr {
	start := p.curToken.Pos
	p.expect("lambda")
	params := p.parseParams(":", false)
	p.expect(":")
	body := p.parseTest()
	return &Lambda{SpanVal: p.spanFrom(start), Params: params, Body: body}
}

func (p *Parser) parseOrTest() Expr {
	return p.parseBoolChain("or", p.parseAndTest)
}

func (p *Parser) parseAndTest() Expr {
	return p.parseBoolChain("and", p.parseNotTest)
}

func (p *Parser) parseBoolChain(op string, next func() Expr) Expr {
	start := p.curToken.Pos
	x := next()
	if !p.curIs(op) {
		return x
	}
	values := []Expr{x}
	for p.curIs(op) {
		p.nextToken()
		values = append(values, next())
	}
	return &BoolOp{SpanVal: p.spanFrom(start), Op: op, Values: values}
}

func (p *Parser) parseNotTest() Expr {
	if p.curIs("not") {
		start := p.curToken.Pos
		p.nextToken()
		x := p.parseNotTest()
		return &UnaryOp{SpanVal: p.spanFrom(start), Op: "not", X: x}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() Expr {
	start := p.curToken.Pos
	left := p.parseBitOr()
	var ops []string
	var comparators []Expr
	for {
		op := ""
		switch {
		case p.curTokenIs(TokenOp):
			switch p.curToken.Literal {
			case "<", ">", "==", ">=", "<=", "!=":
				op = p.curToken.Literal
				p.nextToken()
			}
		case p.curIs("in"):
			op = "in"
			p.nextToken()
		case p.curIs("not") && p.peekToken.is("in"):
			op = "not in"
			p.nextToken()
			p.nextToken()
		case p.curIs("is"):
			op = "is"
			p.nextToken()
			if p.curIs("not") {
				op = "is not"
				p.nextToken()
			}
		}
		if op == "" {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseBitOr())
	}
	if len(ops) == 0 {
		return left
	}
	return &Compare{SpanVal: p.spanFrom(start), Left: left, Ops: ops, Comparators: comparators}
}

// binaryLevels lists left-associative binary operators from loosest to
// tightest binding.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%", "@"},
}

func (p *Parser) parseBitOr() Expr {
	return p.parseBinaryLevel(0)
}

func (p *Parser) parseBinaryLevel(level int) Expr {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}
	start := p.curToken.Pos
	x := p.parseBinaryLevel(level + 1)
	for p.curTokenIs(TokenOp) && contains(binaryLevels[level], p.curToken.Literal) {
		op := p.curToken.Literal
		p.nextToken()
		y := p.parseBinaryLevel(level + 1)
		x = &BinOp{SpanVal: p.spanFrom(start), Op: op, X: x, Y: y}
	}
	return x
}

func (p *Parser) parseFactor() Expr {
	start := p.curToken.Pos
	if p.curTokenIs(TokenOp) {
		switch p.curToken.Literal {
		case "-", "+", "~":
			op := p.curToken.Literal
			p.nextToken()
			x := p.parseFactor()
			return &UnaryOp{SpanVal: p.spanFrom(start), Op: op, X: x}
		}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() Expr {
	start := p.curToken.Pos
	if p.curIs("await") {
		p.nextToken()
		x := p.parsePrimary()
		return &Yield{SpanVal: p.spanFrom(start), Keyword: "await", Value: x}
	}
	x := p.parsePrimary()
	if p.curIs("**") {
		p.nextToken()
		y := p.parseFactor()
		return &BinOp{SpanVal: p.spanFrom(start), Op: "**", X: x, Y: y}
	}
	return x
}

// parsePrimary parses an atom followed by call, subscript and attribute
// trailers.
func (p *Parser) parsePrimary() Expr {
	start := p.curToken.Pos
	x := p.parseAtom()
	for {
		switch {
		case p.curIs("("):
			x = p.parseCall(x, start)
		case p.curIs("["):
			p.nextToken()
			index := p.parseSubscriptList()
			p.expect("]")
			x = &Subscript{SpanVal: p.spanFrom(start), X: x, Index: index}
		case p.curIs("."):
			p.nextToken()
			attr := p.expectType(TokenName).Literal
			x = &Attribute{SpanVal: p.spanFrom(start), X: x, Attr: attr}
		default:
			return x
		}
	}
}

func (p *Parser) parseCall(fn Expr, start Position) Expr {
	p.expect("(")
	call := &Call{Func: fn}
	for !p.curIs(")") {
		argStart := p.curToken.Pos
		switch {
		case p.curIs("*"):
			p.nextToken()
			x := p.parseTest()
			call.Args = append(call.Args, &Starred{SpanVal: p.spanFrom(argStart), X: x})
		case p.curIs("**"):
			p.nextToken()
			x := p.parseTest()
			call.Keywords = append(call.Keywords, &Keyword{SpanVal: p.spanFrom(argStart), Value: x})
		case p.curTokenIs(TokenName) && p.peekToken.is("="):
			name := p.curToken.Literal
			p.nextToken()
			p.nextToken()
			x := p.parseTest()
			call.Keywords = append(call.Keywords, &Keyword{SpanVal: p.spanFrom(argStart), Name: name, Value: x})
		default:
			x := p.parseTest()
			if p.curIs("for") {
				gens := p.parseComprehensionClauses()
				x = &GeneratorExp{SpanVal: p.spanFrom(argStart), Elt: x, Generators: gens}
			}
			if len(call.Keywords) > 0 {
				p.errorAt(argStart, "positional argument follows keyword argument")
			}
			call.Args = append(call.Args, x)
		}
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	p.expect(")")
	call.SpanVal = p.spanFrom(start)
	return call
}

func (p *Parser) parseSubscriptList() Expr {
	start := p.curToken.Pos
	first := p.parseSubscriptItem()
	if !p.curIs(",") {
		return first
	}
	elts := []Expr{first}
	for p.curIs(",") {
		p.nextToken()
		if p.curIs("]") {
			break
		}
		elts = append(elts, p.parseSubscriptItem())
	}
	return &Tuple{SpanVal: p.spanFrom(start), Elts: elts}
}

func (p *Parser) parseSubscriptItem() Expr {
	start := p.curToken.Pos
	var lower Expr
	if !p.curIs(":") {
		lower = p.parseTest()
		if !p.curIs(":") {
			return lower
		}
	}
	p.expect(":")
	s := &Slice{Lower: lower}
	if !p.curIs("]") && !p.curIs(",") && !p.curIs(":") {
		s.Upper = p.parseTest()
	}
	if p.curIs(":") {
		p.nextToken()
		if !p.curIs("]") && !p.curIs(",") {
			s.Step = p.parseTest()
		}
	}
	s.SpanVal = p.spanFrom(start)
	return s
}

func (p *Parser) parseComprehensionClauses() []*Comprehension {
	var gens []*Comprehension
	for p.curIs("for") || p.curIs("async") {
		start := p.curToken.Pos
		if p.curIs("async") {
			p.errorf("asynchronous comprehensions are not supported")
		}
		p.nextToken()
		target := p.parseTargetList()
		p.expect("in")
		iter := p.parseOrTest()
		comp := &Comprehension{Target: target, Iter: iter}
		for p.curIs("if") {
			p.nextToken()
			comp.Ifs = append(comp.Ifs, p.parseOrTest())
		}
		comp.SpanVal = p.spanFrom(start)
		gens = append(gens, comp)
	}
	return gens
}

// parseAtom parses literals, names and displays.
func (p *Parser) parseAtom() Expr {
	tok := p.curToken
	start := tok.Pos
	switch tok.Type {
	case TokenName:
		p.nextToken()
		return &Name{SpanVal: p.spanFrom(start), Id: tok.Literal}

	case TokenInt:
		p.nextToken()
		v, err := strconv.ParseInt(tok.Literal, 0, 64)
		if err != nil {
			p.errorAt(start, "invalid integer literal %s", tok.Literal)
		}
		return &IntLit{SpanVal: p.spanFrom(start), Value: v, Raw: tok.Literal}

	case TokenFloat:
		p.nextToken()
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Literal, "_", ""), 64)
		if err != nil {
			p.errorAt(start, "invalid float literal %s", tok.Literal)
		}
		return &FloatLit{SpanVal: p.spanFrom(start), Value: v, Raw: tok.Literal}

	case TokenString:
		return p.parseStrings()

	case TokenKeyword:
		switch tok.Literal {
		case "None":
			p.nextToken()
			return &NoneLit{SpanVal: p.spanFrom(start)}
		case "True", "False":
			p.nextToken()
			return &BoolLit{SpanVal: p.spanFrom(start), Value: tok.Literal == "True"}
		case "yield":
			p.nextToken()
			var value Expr
			if p.startsExpression() {
				value = p.parseTestList()
			}
			return &Yield{SpanVal: p.spanFrom(start), Keyword: "yield", Value: value}
		}

	case TokenOp:
		switch tok.Literal {
		case "(":
			return p.parseParenthesized()
		case "[":
			return p.parseListDisplay()
		case "{":
			return p.parseBraceDisplay()
		case "...":
			p.nextToken()
			return &EllipsisLit{SpanVal: p.spanFrom(start)}
		}
	}
	p.errorf("unexpected %s", tok)
	return nil
}

func (p *Parser) parseParenthesized() Expr {
	start := p.curToken.Pos
	p.expect("(")
	if p.curIs(")") {
		p.nextToken()
		return &Tuple{SpanVal: p.spanFrom(start)}
	}
	first := p.parseTestOrStar()
	if p.curIs("for") {
		gens := p.parseComprehensionClauses()
		p.expect(")")
		return &GeneratorExp{SpanVal: p.spanFrom(start), Elt: first, Generators: gens}
	}
	if !p.curIs(",") {
		p.expect(")")
		return first
	}
	elts := []Expr{first}
	for p.curIs(",") {
		p.nextToken()
		if p.curIs(")") {
			break
		}
		elts = append(elts, p.parseTestOrStar())
	}
	p.expect(")")
	return &Tuple{SpanVal: p.spanFrom(start), Elts: elts}
}

func (p *Parser) parseListDisplay() Expr {
	start := p.curToken.Pos
	p.expect("[")
	if p.curIs("]") {
		p.nextToken()
		return &List{SpanVal: p.spanFrom(start)}
	}
	first := p.parseTestOrStar()
	if p.curIs("for") {
		gens := p.parseComprehensionClauses()
		p.expect("]")
		return &ListComp{SpanVal: p.spanFrom(start), Elt: first, Generators: gens}
	}
	elts := []Expr{first}
	for p.curIs(",") {
		p.nextToken()
		if p.curIs("]") {
			break
		}
		elts = append(elts, p.parseTestOrStar())
	}
	p.expect("]")
	return &List{SpanVal: p.spanFrom(start), Elts: elts}
}

func (p *Parser) parseBraceDisplay() Expr {
	start := p.curToken.Pos
	p.expect("{")
	if p.curIs("}") {
		p.nextToken()
		return &Dict{SpanVal: p.spanFrom(start)}
	}

	if p.curIs("**") {
		return p.parseDictRest(start, nil, nil)
	}
	first := p.parseTestOrStar()
	if p.curIs(":") {
		p.nextToken()
		value := p.parseTest()
		if p.curIs("for") {
			gens := p.parseComprehensionClauses()
			p.expect("}")
			return &DictComp{SpanVal: p.spanFrom(start), Key: first, Value: value, Generators: gens}
		}
		if p.curIs(",") {
			p.nextToken()
		}
		return p.parseDictRest(start, []Expr{first}, []Expr{value})
	}

	if p.curIs("for") {
		gens := p.parseComprehensionClauses()
		p.expect("}")
		return &SetComp{SpanVal: p.spanFrom(start), Elt: first, Generators: gens}
	}
	elts := []Expr{first}
	for p.curIs(",") {
		p.nextToken()
		if p.curIs("}") {
			break
		}
		elts = append(elts, p.parseTestOrStar())
	}
	p.expect("}")
	return &Set{SpanVal: p.spanFrom(start), Elts: elts}
}

// parseDictRest parses the remaining entries of a dict display.
func (p *Parser) parseDictRest(start Position, keys, values []Expr) Expr {
	for !p.curIs("}") {
		if p.curIs("**") {
			p.nextToken()
			keys = append(keys, nil)
			values = append(values, p.parseBitOr())
		} else {
			k := p.parseTest()
			p.expect(":")
			keys = append(keys, k)
			values = append(values, p.parseTest())
		}
		if !p.curIs(",") {
			break
		}
		p.nextToken()
	}
	p.expect("}")
	return &Dict{SpanVal: p.spanFrom(start), Keys: keys, Values: values}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Parse parses src as a module and returns the first error, if any.
func Parse(src string) (*Module, error) {
	p := NewParser(src)
	mod := p.ParseModule()
	if len(p.errors) > 0 {
		return mod, p.errors[0]
	}
	return mod, nil
}

// ParseExpr parses src as a single expression.
func ParseExpr(src string) (Expr, error) {
	p := NewParser(src)
	x := p.ParseExpression()
	if len(p.errors) > 0 {
		return x, p.errors[0]
	}
	return x, nil
}
