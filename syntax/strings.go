package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// String literals: escape decoding, concatenation and f-string fields
// ---------------------------------------------------------------------------

// parseStrings parses one or more adjacent string tokens. Adjacent literals
// are concatenated; if any of them is an f-string the result is an FString.
func (p *Parser) parseStrings() Expr {
	start := p.curToken.Pos
	var parts []FStringPart
	formatted := false
	for p.curTokenIs(TokenString) {
		tok := p.curToken
		p.nextToken()
		if strings.Contains(tok.Prefix, "b") {
			p.errorAt(tok.Pos, "bytes literals are not supported")
		}
		raw := strings.Contains(tok.Prefix, "r")
		if strings.Contains(tok.Prefix, "f") {
			formatted = true
			fs := p.parseFString(tok.Literal, raw, bodyStart(tok))
			parts = append(parts, fs.Parts...)
			continue
		}
		text := tok.Literal
		if !raw {
			decoded, err := Unescape(text)
			if err != nil {
				p.errorAt(tok.Pos, "%s", err)
			}
			text = decoded
		}
		parts = append(parts, FStringPart{Text: text})
	}
	span := p.spanFrom(start)
	if !formatted {
		var b strings.Builder
		for _, part := range parts {
			b.WriteString(part.Text)
		}
		return &StringLit{SpanVal: span, Value: b.String()}
	}
	return &FString{SpanVal: span, Parts: mergeText(parts)}
}

// bodyStart returns the position of the first character inside the quotes.
func bodyStart(tok Token) Position {
	skip := len(tok.Prefix) + 1
	if tok.End.Offset-tok.Pos.Offset >= len(tok.Prefix)+6+len(tok.Literal) {
		skip = len(tok.Prefix) + 3
	}
	return Position{
		Offset: tok.Pos.Offset + skip,
		Line:   tok.Pos.Line,
		Column: tok.Pos.Column + skip,
	}
}

// advance returns the position reached after scanning text from pos.
func advance(pos Position, text string) Position {
	for _, r := range text {
		pos.Offset += utf8.RuneLen(r)
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

// mergeText joins adjacent text parts and drops empty ones.
func mergeText(parts []FStringPart) []FStringPart {
	var out []FStringPart
	for _, part := range parts {
		if part.Field == nil {
			if part.Text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Field == nil {
				out[n-1].Text += part.Text
				continue
			}
		}
		out = append(out, part)
	}
	return out
}

// parseFString splits an f-string body into literal text and replacement
// fields, parsing each field expression with a sub-parser.
func (p *Parser) parseFString(body string, raw bool, base Position) *FString {
	fs := &FString{}
	var text strings.Builder
	flush := func() {
		if text.Len() == 0 {
			return
		}
		s := text.String()
		if !raw {
			decoded, err := Unescape(s)
			if err != nil {
				p.errorAt(base, "%s", err)
			}
			s = decoded
		}
		fs.Parts = append(fs.Parts, FStringPart{Text: s})
		text.Reset()
	}

	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == '{' && i+1 < len(body) && body[i+1] == '{':
			text.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(body) && body[i+1] == '}':
			text.WriteByte('}')
			i += 2
		case c == '}':
			p.errorAt(advance(base, body[:i]), "f-string: single '}' is not allowed")
		case c == '{':
			flush()
			end := matchingBrace(body, i)
			if end < 0 {
				p.errorAt(advance(base, body[:i]), "f-string: expecting '}'")
			}
			fieldPos := advance(base, body[:i+1])
			field := p.parseField(body[i+1:end], raw, fieldPos)
			fs.Parts = append(fs.Parts, FStringPart{Field: field})
			i = end + 1
		case c == '\\' && !raw && i+1 < len(body):
			text.WriteString(body[i : i+2])
			i += 2
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()
	fs.Parts = mergeText(fs.Parts)
	fs.SpanVal = MakeSpan(base, advance(base, body))
	return fs
}

// matchingBrace finds the '}' closing the field opened at body[open],
// skipping nested brackets and quoted strings.
func matchingBrace(body string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{', '[', '(':
			depth++
		case ']', ')':
			depth--
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitField locates the conversion '!' and spec ':' separators of a field
// at nesting depth zero. Missing separators are reported as -1.
func splitField(field string) (bang, colon int) {
	bang, colon = -1, -1
	depth := 0
	var quote byte
	for i := 0; i < len(field); i++ {
		c := field[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case '!':
			if depth == 0 && bang < 0 && (i+1 >= len(field) || field[i+1] != '=') {
				bang = i
			}
		case ':':
			if depth == 0 {
				return bang, i
			}
		}
	}
	return bang, colon
}

func (p *Parser) parseField(field string, raw bool, pos Position) *FormattedValue {
	bang, colon := splitField(field)
	exprEnd := len(field)
	if bang >= 0 {
		exprEnd = bang
	} else if colon >= 0 {
		exprEnd = colon
	}
	exprText := field[:exprEnd]
	if strings.TrimSpace(exprText) == "" {
		p.errorAt(pos, "f-string: empty expression not allowed")
	}
	if strings.HasSuffix(strings.TrimSpace(exprText), "=") {
		p.errorAt(pos, "f-string: self-documenting '=' fields are not supported")
	}

	sub := newParserWith(newExprLexer(exprText, pos), exprText)
	value := sub.ParseExpression()
	if len(sub.errors) > 0 {
		p.errors = append(p.errors, sub.errors...)
		panic(bailout{})
	}

	fv := &FormattedValue{Value: value}
	if bang >= 0 {
		convEnd := len(field)
		if colon >= 0 {
			convEnd = colon
		}
		conv := strings.TrimSpace(field[bang+1 : convEnd])
		if conv != "s" && conv != "r" && conv != "a" {
			p.errorAt(advance(pos, field[:bang]), "f-string: invalid conversion character %q", conv)
		}
		fv.Conversion = rune(conv[0])
	}
	if colon >= 0 {
		specPos := advance(pos, field[:colon+1])
		fv.Spec = p.parseFString(field[colon+1:], raw, specPos)
	}
	fv.SpanVal = MakeSpan(pos, advance(pos, field))
	return fv
}

// Unescape decodes backslash escapes in a non-raw string literal body.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+n > len(s) {
				return "", fmt.Errorf("truncated \\%c escape", e)
			}
			v, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil || v > utf8.MaxRune {
				return "", fmt.Errorf("invalid \\%c escape", e)
			}
			b.WriteRune(rune(v))
			i += n
		case 'N':
			return "", fmt.Errorf("named unicode escapes are not supported")
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}
