package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for the Python subset, including INDENT/DEDENT layout
// ---------------------------------------------------------------------------

// Lexer tokenizes Python source code.
type Lexer struct {
	input     string
	pos       int  // current position in input
	readPos   int  // reading position (after current char)
	ch        rune // current character
	line      int  // current line (1-based)
	lineStart int  // offset of current line start

	// base shifts reported positions; used when lexing an f-string field
	base Position

	parenDepth  int
	indents     []int
	pending     []Token
	atLineStart bool
	lastType    TokenType
	emitted     bool
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return newLexerAt(input, Position{Line: 1, Column: 1})
}

func newLexerAt(input string, base Position) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		base:        base,
		indents:     []int{0},
		atLineStart: true,
		lastType:    TokenNewline,
	}
	l.readChar()
	return l
}

// newExprLexer lexes a bare expression embedded in another token, such as
// an f-string replacement field. Layout tokens are suppressed.
func newExprLexer(input string, base Position) *Lexer {
	l := newLexerAt(input, base)
	l.parenDepth = 1
	l.atLineStart = false
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' && l.readPos > 0 {
		l.line++
		l.lineStart = l.readPos
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	p := Position{
		Offset: l.base.Offset + l.pos,
		Line:   l.base.Line + l.line - 1,
		Column: l.pos - l.lineStart + 1,
	}
	if l.line == 1 {
		p.Column += l.base.Column - 1
	}
	return p
}

func (l *Lexer) token(t TokenType, lit string, pos Position) Token {
	tok := Token{Type: t, Literal: lit, Pos: pos, End: l.position()}
	l.lastType = t
	l.emitted = true
	return tok
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		l.lastType = tok.Type
		return tok
	}

	if l.atLineStart && l.parenDepth == 0 {
		if tok, ok := l.readIndentation(); ok {
			return tok
		}
	}

	l.skipInlineWhitespace()
	pos := l.position()

	switch {
	case l.ch == 0:
		return l.finish(pos)

	case l.ch == '\n':
		l.readChar()
		if l.parenDepth > 0 {
			return l.NextToken()
		}
		l.atLineStart = true
		return l.token(TokenNewline, "\n", pos)

	case l.ch == '\'' || l.ch == '"':
		return l.readString("", pos)

	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber(pos)

	case isIdentStart(l.ch):
		return l.readIdentifier(pos)
	}

	rest := l.input[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.readChar()
			}
			switch op {
			case "(", "[", "{":
				l.parenDepth++
			case ")", "]", "}":
				if l.parenDepth > 0 {
					l.parenDepth--
				}
			}
			return l.token(TokenOp, op, pos)
		}
	}

	ch := l.ch
	l.readChar()
	return l.token(TokenError, fmt.Sprintf("unexpected character: %q", ch), pos)
}

// finish emits the trailing NEWLINE and DEDENT tokens before EOF.
func (l *Lexer) finish(pos Position) Token {
	if l.emitted && l.parenDepth == 0 && l.lastType != TokenNewline && l.lastType != TokenDedent {
		l.pending = append(l.pending, Token{Type: TokenNewline, Pos: pos, End: pos})
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, Token{Type: TokenDedent, Pos: pos, End: pos})
	}
	l.pending = append(l.pending, Token{Type: TokenEOF, Pos: pos, End: pos})
	return l.NextToken()
}

// readIndentation measures the indentation of a new logical line and
// produces INDENT or DEDENT tokens. Blank and comment-only lines are skipped.
func (l *Lexer) readIndentation() (Token, bool) {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			switch l.ch {
			case ' ':
				width++
			case '\t':
				width = (width/8 + 1) * 8
			}
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		}
		if l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '\n' {
			l.readChar()
			continue
		}
		l.atLineStart = false
		if l.ch == 0 {
			return Token{}, false
		}

		pos := l.position()
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			return l.token(TokenIndent, "", pos), true
		case width < top:
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, Token{Type: TokenDedent, Pos: pos, End: pos})
			}
			if l.indents[len(l.indents)-1] != width {
				l.pending = append(l.pending, Token{Type: TokenError, Literal: "unindent does not match any outer indentation level", Pos: pos, End: pos})
			}
			return l.NextToken(), true
		}
		return Token{}, false
	}
}

// skipInlineWhitespace skips spaces, comments and explicit line joins.
func (l *Lexer) skipInlineWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\f' || l.ch == '\r':
			l.readChar()
		case l.ch == '\\' && (l.peekChar() == '\n' || l.peekChar() == '\r'):
			l.readChar()
			if l.ch == '\r' {
				l.readChar()
			}
			l.readChar()
		case l.ch == '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "b": true, "f": true,
	"br": true, "rb": true, "fr": true, "rf": true,
}

// readIdentifier reads a name, keyword, or string prefix.
func (l *Lexer) readIdentifier(pos Position) Token {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	word := l.input[start:l.pos]
	if (l.ch == '\'' || l.ch == '"') && stringPrefixes[strings.ToLower(word)] {
		return l.readString(strings.ToLower(word), pos)
	}
	if keywords[word] {
		return l.token(TokenKeyword, word, pos)
	}
	return l.token(TokenName, word, pos)
}

// readString reads a quoted string body. The body is kept undecoded; the
// parser decodes escapes so that f-string fields can be split first.
func (l *Lexer) readString(prefix string, pos Position) Token {
	quote := l.ch
	triple := false
	l.readChar()
	if l.ch == quote && l.peekChar() == quote {
		triple = true
		l.readChar()
		l.readChar()
	}

	start := l.pos
	for {
		switch {
		case l.ch == 0:
			return l.token(TokenError, "unterminated string literal", pos)
		case l.ch == '\\':
			l.readChar()
			if l.ch != 0 {
				l.readChar()
			}
		case l.ch == '\n' && !triple:
			return l.token(TokenError, "unterminated string literal", pos)
		case l.ch == quote:
			if !triple {
				body := l.input[start:l.pos]
				l.readChar()
				tok := l.token(TokenString, body, pos)
				tok.Prefix = prefix
				return tok
			}
			if strings.HasPrefix(l.input[l.pos:], strings.Repeat(string(quote), 3)) {
				body := l.input[start:l.pos]
				l.readChar()
				l.readChar()
				l.readChar()
				tok := l.token(TokenString, body, pos)
				tok.Prefix = prefix
				return tok
			}
			l.readChar()
		default:
			l.readChar()
		}
	}
}

// readNumber reads an integer or float literal.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos

	if l.ch == '0' && strings.ContainsRune("xXoObB", l.peekChar()) {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		return l.token(TokenInt, l.input[start:l.pos], pos)
	}

	isFloat := false
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) || l.ch == '_' {
				l.readChar()
			}
		}
	}
	if l.ch == 'j' || l.ch == 'J' {
		l.readChar()
		return l.token(TokenError, "complex literals are not supported", pos)
	}
	if isFloat {
		return l.token(TokenFloat, l.input[start:l.pos], pos)
	}
	return l.token(TokenInt, l.input[start:l.pos], pos)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
