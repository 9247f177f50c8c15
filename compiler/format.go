package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chazu/pyjs/jsast"
	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// f-strings
// ---------------------------------------------------------------------------

func (t *transpiler) fstring(x *syntax.FString) jsast.Expr {
	tpl := &jsast.Template{Quasis: []string{""}}
	for _, part := range x.Parts {
		if part.Field == nil {
			tpl.Quasis[len(tpl.Quasis)-1] += part.Text
			continue
		}
		tpl.Exprs = append(tpl.Exprs, t.formatField(part.Field))
		tpl.Quasis = append(tpl.Quasis, "")
	}
	if len(tpl.Exprs) == 0 {
		return str(tpl.Quasis[0])
	}
	return tpl
}

func (t *transpiler) formatField(f *syntax.FormattedValue) jsast.Expr {
	v := t.expr(f.Value)
	shape := t.knownShape(f.Value)
	switch f.Conversion {
	case 's':
		v, shape = call(ident("String"), v), ShapeString
	case 'r', 'a':
		v, shape = call(path("JSON.stringify"), v), ShapeString
	}
	if f.Spec == nil {
		return v
	}
	var spec strings.Builder
	for _, part := range f.Spec.Parts {
		if part.Field != nil {
			t.fail(part.Field, DynamicFormatSpec, "{...}", "format specs must be constant")
		}
		spec.WriteString(part.Text)
	}
	if spec.Len() == 0 {
		return v
	}
	fs, err := parseFormatSpec(spec.String())
	if err != nil {
		t.fail(f, InvalidFormatSpec, spec.String(), "%v", err)
	}
	return t.formatValue(v, shape, fs)
}

// ---------------------------------------------------------------------------
// Format-spec mini-language
// ---------------------------------------------------------------------------

// formatSpec is a parsed [[fill]align][sign][#][0][width][grouping]
// [.precision][type] specifier.
type formatSpec struct {
	fill      string // empty when unset
	align     byte   // 0 or one of < > = ^
	sign      byte   // 0, '+', '-' or ' '
	alt       bool
	zero      bool
	width     int
	grouping  byte // 0, ',' or '_'
	precision int  // -1 when unset
	typ       byte // 0 or a presentation type
}

const formatTypes = "sdfFeEgG%xXobcn"

func isAlign(c byte) bool { return strings.IndexByte("<>=^", c) >= 0 }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func parseFormatSpec(s string) (*formatSpec, error) {
	fs := &formatSpec{precision: -1}
	i := 0
	if r, size := utf8.DecodeRuneInString(s); size > 0 && size < len(s) && isAlign(s[size]) {
		fs.fill, fs.align, i = string(r), s[size], size+1
	} else if len(s) > 0 && isAlign(s[0]) {
		fs.align, i = s[0], 1
	}
	if i < len(s) && (s[i] == '+' || s[i] == '-' || s[i] == ' ') {
		fs.sign = s[i]
		i++
	}
	if i < len(s) && s[i] == 'z' {
		return nil, errors.New("the 'z' option is not supported")
	}
	if i < len(s) && s[i] == '#' {
		fs.alt = true
		i++
	}
	if i < len(s) && s[i] == '0' {
		fs.zero = true
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i > start {
		fs.width, _ = strconv.Atoi(s[start:i])
	}
	if i < len(s) && (s[i] == ',' || s[i] == '_') {
		fs.grouping = s[i]
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return nil, errors.New("format specifier missing precision")
		}
		fs.precision, _ = strconv.Atoi(s[start:i])
	}
	if i < len(s) {
		if i != len(s)-1 || strings.IndexByte(formatTypes, s[i]) < 0 {
			return nil, fmt.Errorf("invalid format specifier %q", s)
		}
		fs.typ = s[i]
	}
	if err := fs.validate(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *formatSpec) validate() error {
	switch fs.typ {
	case 's':
		switch {
		case fs.sign != 0:
			return errors.New("sign not allowed in string format specifier")
		case fs.alt:
			return errors.New("alternate form (#) not allowed in string format specifier")
		case fs.align == '=':
			return errors.New("'=' alignment not allowed in string format specifier")
		}
	case 'c':
		if fs.sign != 0 {
			return errors.New("sign not allowed with integer format specifier 'c'")
		}
		if fs.alt {
			return errors.New("alternate form (#) not allowed with integer format specifier 'c'")
		}
	}
	switch fs.typ {
	case 'd', 'x', 'X', 'o', 'b', 'c', 'n':
		if fs.precision >= 0 {
			return errors.New("precision not allowed in integer format specifier")
		}
	}
	switch {
	case fs.grouping == ',' && strings.IndexByte("sxXobcn", fs.typ) >= 0 && fs.typ != 0:
		return fmt.Errorf("cannot specify ',' with '%c'", fs.typ)
	case fs.grouping == '_' && strings.IndexByte("scn", fs.typ) >= 0 && fs.typ != 0:
		return fmt.Errorf("cannot specify '_' with '%c'", fs.typ)
	}
	return nil
}

// padFill is the fill character.
func (fs *formatSpec) padFill() string {
	switch {
	case fs.fill != "":
		return fs.fill
	case fs.zero:
		return "0"
	}
	return " "
}

// fixed binds a non-simple value to a fixed parameter name. The body
// must reference nothing but ref and constants.
func fixed1(name string, value jsast.Expr, body func(ref jsast.Expr) jsast.Expr) jsast.Expr {
	if isSimple(value) {
		return body(value)
	}
	return call(arrow([]string{name}, body(ident(name))), value)
}

// formatValue compiles format(v, spec).
func (t *transpiler) formatValue(v jsast.Expr, shape Shape, fs *formatSpec) jsast.Expr {
	switch {
	case fs.typ == 's':
		return formatString(v, shape, fs, '<')
	case fs.typ == 'c':
		return formatString(call(path("String.fromCodePoint"), v), ShapeString, fs, '<')
	case fs.typ != 0:
		return formatNumber(v, fs)
	case shape == ShapeString:
		return formatString(v, shape, fs, '<')
	case shape == ShapeNumber || fs.sign != 0 || fs.grouping != 0 || fs.alt:
		return formatNumber(v, fs)
	}
	// Without a type the runtime type picks the presentation.
	return fixed1("$v", v, func(r jsast.Expr) jsast.Expr {
		isNumber := bin("===", &jsast.Unary{Op: "typeof", X: r}, str("number"))
		return cond(isNumber, formatNumber(r, fs), formatString(r, ShapeUnknown, fs, '<'))
	})
}

func formatString(v jsast.Expr, shape Shape, fs *formatSpec, defaultAlign byte) jsast.Expr {
	s := v
	if shape != ShapeString {
		s = call(ident("String"), v)
	}
	if fs.precision >= 0 {
		s = invoke(s, "slice", num(0), num(float64(fs.precision)))
	}
	align := fs.align
	if align == 0 {
		align = defaultAlign
	}
	return pad(s, nil, align, fs.width, fs.padFill())
}

// pad aligns body (preceded by sign, which may be nil) in width.
func pad(body, sign jsast.Expr, align byte, width int, fill string) jsast.Expr {
	whole := body
	if sign != nil {
		whole = bin("+", sign, body)
	}
	if width == 0 {
		return whole
	}
	w, f := num(float64(width)), str(fill)
	switch align {
	case '<':
		return invoke(whole, "padEnd", w, f)
	case '=':
		if sign == nil {
			return invoke(body, "padStart", w, f)
		}
		return fixed1("$sign", sign, func(s jsast.Expr) jsast.Expr {
			return bin("+", s, invoke(body, "padStart", bin("-", w, member(s, "length")), f))
		})
	case '^':
		return fixed1("$s", whole, func(s jsast.Expr) jsast.Expr {
			left := bin("+", member(s, "length"), call(path("Math.floor"), bin("/", bin("-", w, member(s, "length")), num(2))))
			return invoke(invoke(s, "padStart", left, f), "padEnd", w, f)
		})
	}
	return invoke(whole, "padStart", w, f)
}

// formatNumber compiles the numeric presentation types and the untyped
// numeric form.
func formatNumber(value jsast.Expr, fs *formatSpec) jsast.Expr {
	return fixed1("$v", value, func(v jsast.Expr) jsast.Expr {
		abs := call(path("Math.abs"), v)
		p := fs.precision
		var digits jsast.Expr
		finite, upper, floating := false, false, true
		suffix, prefix := "", ""
		switch fs.typ {
		case 'd':
			digits, floating = call(ident("String"), abs), false
		case 'x', 'X', 'o', 'b':
			base := map[byte]float64{'x': 16, 'X': 16, 'o': 8, 'b': 2}[fs.typ]
			digits, floating = invoke(abs, "toString", num(base)), false
			if fs.typ == 'X' {
				digits = invoke(digits, "toUpperCase")
			}
			if fs.alt {
				prefix = "0" + string(fs.typ)
			}
		case 'f', 'F':
			if p < 0 {
				p = 6
			}
			digits = toFixedEven(abs, num(float64(p)))
			if fs.alt && p == 0 {
				digits = bin("+", digits, str("."))
			}
			finite, upper = true, fs.typ == 'F'
		case 'e', 'E':
			if p < 0 {
				p = 6
			}
			digits = exponential(abs, p)
			if fs.typ == 'E' {
				digits = invoke(digits, "toUpperCase")
			}
			finite, upper = true, fs.typ == 'E'
		case 'g', 'G':
			digits = general(abs, p, fs.alt)
			if fs.typ == 'G' {
				digits = invoke(digits, "toUpperCase")
			}
			finite, upper = true, fs.typ == 'G'
		case '%':
			if p < 0 {
				p = 6
			}
			digits = toFixedEven(bin("*", abs, num(100)), num(float64(p)))
			finite, suffix = true, "%"
		case 'n':
			digits = cond(call(path("Number.isInteger"), v), call(ident("String"), abs), general(abs, p, fs.alt))
			finite = true
		default:
			if p >= 0 {
				digits = general(abs, p, fs.alt)
			} else {
				digits = call(ident("String"), abs)
			}
			finite = true
		}

		switch {
		case fs.grouping != 0 && (fs.typ == 'x' || fs.typ == 'X' || fs.typ == 'o' || fs.typ == 'b'):
			digits = group(digits, `[0-9a-fA-F]`, 4, fs.grouping)
		case fs.grouping != 0:
			digits = group(digits, `\d`, 3, fs.grouping)
		}
		if finite {
			nan, inf := "nan", "inf"
			if upper {
				nan, inf = "NAN", "INF"
			}
			digits = cond(call(path("Number.isFinite"), v), digits,
				cond(call(path("Number.isNaN"), v), str(nan), str(inf)))
		}
		if suffix != "" {
			digits = bin("+", digits, str(suffix))
		}

		var neg jsast.Expr = bin("<", v, num(0))
		if floating {
			neg = or(neg, call(path("Object.is"), v, num(negZero)))
		}
		positive := ""
		switch fs.sign {
		case '+':
			positive = "+"
		case ' ':
			positive = " "
		}
		var sign jsast.Expr = cond(neg, str("-"), str(positive))
		if prefix != "" {
			sign = bin("+", sign, str(prefix))
		}

		align := fs.align
		if align == 0 {
			align = '>'
			if fs.zero {
				align = '='
			}
		}
		return pad(digits, sign, align, fs.width, fs.padFill())
	})
}

var negZero = func() float64 {
	var z float64
	return -z
}()

// toFixedEven renders x.toFixed(d) with exact ties rounded to the even
// digit. toFixed(100) is exact for every tie of up to 40 digits, so a tie
// shows as a trailing 5 followed by zeros.
func toFixedEven(x, d jsast.Expr) jsast.Expr {
	xv, dv, t, i := ident("$x"), ident("$d"), ident("$t"), ident("$i")
	tail := bin("+", bin("+", i, dv), num(1))
	trunc := invoke(t, "slice", num(0), cond(bin(">", dv, num(0)), tail, i))
	tie := and(
		bin(">=", i, num(0)),
		invoke(&jsast.Regex{Pattern: `^50*$`}, "test", invoke(t, "slice", tail)),
		invoke(str("02468"), "includes", invoke(trunc, "slice", num(-1))))
	body := cond(tie, trunc, invoke(xv, "toFixed", dv))
	scan := call(arrow([]string{"$i"}, body), invoke(t, "indexOf", str(".")))
	exact := call(arrow([]string{"$t"}, scan), invoke(xv, "toFixed", num(100)))
	return call(arrow([]string{"$x", "$d"}, exact), x, d)
}

// exponential renders a.toExponential(p) with Python's two-digit
// exponent.
func exponential(a jsast.Expr, p int) jsast.Expr {
	return invoke(invoke(a, "toExponential", num(float64(p))), "replace",
		&jsast.Regex{Pattern: `[+-](?=\d$)`}, str("$&0"))
}

// general renders the 'g' presentation: fixed-point when the rounded
// exponent lies in [-4, p), scientific otherwise, trailing zeros removed
// unless alt is set.
func general(a jsast.Expr, p int, alt bool) jsast.Expr {
	if p < 0 {
		p = 6
	}
	if p == 0 {
		p = 1
	}
	exp := call(ident("Number"), index(invoke(invoke(a, "toExponential", num(float64(p-1))), "split", str("e")), num(1)))
	e := ident("$e")
	var fixedForm, sciForm jsast.Expr = toFixedEven(a, bin("-", num(float64(p-1)), e)), exponential(a, p-1)
	if !alt {
		fixedForm, sciForm = stripZeros(fixedForm), stripZeros(sciForm)
	}
	inRange := and(bin(">=", e, num(-4)), bin("<", e, num(float64(p))))
	return call(arrow([]string{"$e"}, cond(inRange, fixedForm, sciForm)), exp)
}

func stripZeros(s jsast.Expr) jsast.Expr {
	s = invoke(s, "replace", &jsast.Regex{Pattern: `(\.\d*?)0+(?=e|$)`}, str("$1"))
	return invoke(s, "replace", &jsast.Regex{Pattern: `\.(?=e|$)`}, str(""))
}

// group inserts sep between runs of size digits in the leading integer
// part of s.
func group(s jsast.Expr, digit string, size int, sep byte) jsast.Expr {
	lead := &jsast.Regex{Pattern: "^" + digit + "+"}
	runs := &jsast.Regex{Pattern: fmt.Sprintf(`\B(?=(%s{%d})+$)`, digit, size), Flags: "g"}
	insert := arrow([]string{"$m"}, invoke(ident("$m"), "replace", runs, str(string(sep))))
	return invoke(s, "replace", lead, insert)
}
