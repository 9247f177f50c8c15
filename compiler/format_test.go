package compiler

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseFormatSpec(t *testing.T) {
	tests := []struct {
		spec string
		want formatSpec
	}{
		{".2f", formatSpec{precision: 2, typ: 'f'}},
		{",.2f", formatSpec{grouping: ',', precision: 2, typ: 'f'}},
		{"+.1%", formatSpec{sign: '+', precision: 1, typ: '%'}},
		{"08.3f", formatSpec{zero: true, width: 8, precision: 3, typ: 'f'}},
		{"*^12", formatSpec{fill: "*", align: '^', width: 12, precision: -1}},
		{"0>5", formatSpec{fill: "0", align: '>', width: 5, precision: -1}},
		{"#x", formatSpec{alt: true, precision: -1, typ: 'x'}},
		{"<", formatSpec{align: '<', precision: -1}},
		{"_d", formatSpec{grouping: '_', precision: -1, typ: 'd'}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseFormatSpec(tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			if *got != tt.want {
				t.Errorf("parseFormatSpec(%q) = %+v, want %+v", tt.spec, *got, tt.want)
			}
		})
	}
}

func TestParseFormatSpecInvalid(t *testing.T) {
	for _, spec := range []string{"q", ".f", "=s", ",x", ".2d", "z", "10.2fx", ",s", ".2c"} {
		if _, err := parseFormatSpec(spec); err == nil {
			t.Errorf("parseFormatSpec(%q) succeeded", spec)
		}
	}
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		spec string
		arg  string
		want string
	}{
		{".2f", "3.14159", "3.14"},
		{".2f", "-2.5", "-2.50"},
		{".2f", "0", "0.00"},
		{",.2f", "1234567.891", "1,234,567.89"},
		{",.2f", "-1234.5", "-1,234.50"},
		{",.2f", "12", "12.00"},
		{"+.1%", "0.5", "+50.0%"},
		{"+.1%", "-0.125", "-12.5%"},
		{"0>5", "42", "00042"},
		{"0>5", `"ab"`, "000ab"},
		{"^10", `"hi"`, "    hi    "},
		{"^10", "7", "    7     "},
		{"*<6", `"ab"`, "ab****"},
		{">6", `"ab"`, "    ab"},
		{"<4", "7", "7   "},
		{"08.3f", "-3.14159", "-003.142"},
		{"#x", "255", "0xff"},
		{"#x", "-255", "-0xff"},
		{"b", "5", "101"},
		{"X", "255", "FF"},
		{".2e", "12345.678", "1.23e+04"},
		{".3g", "0.0001234", "0.000123"},
		{"g", "123456789", "1.23457e+08"},
		{"g", "100", "100"},
		{",d", "1234567", "1,234,567"},
		{"+d", "3", "+3"},
		{" d", "3", " 3"},
		{".3s", `"abcdef"`, "abc"},
		{"c", "65", "A"},
		{".2f", "0.125", "0.12"},
		{".2f", "0.375", "0.38"},
		{".2f", "-0.125", "-0.12"},
		{".0f", "2.5", "2"},
		{".0f", "3.5", "4"},
		{".0f", "-0.5", "-0"},
		{",.2f", "1234.125", "1,234.12"},
		{"+.1%", "0.0625", "+6.2%"},
		{".2g", "0.125", "0.12"},
		{".1f", "NaN", "nan"},
		{"F", "Infinity", "INF"},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%s/%s", tt.spec, tt.arg)
		t.Run(name, func(t *testing.T) {
			eachMode(t, func(t *testing.T, s *Session) {
				src := fmt.Sprintf("def fmt(x):\n    return f\"{x:%s}\"\n", tt.spec)
				b := bundle(t, s, def("fmt", src, nil))
				if got := run(t, b.Code, "fmt("+tt.arg+")"); got != quote(tt.want) {
					t.Errorf("f\"{x:%s}\" of %s = %s, want %q\n%s", tt.spec, tt.arg, got, tt.want, b.Code)
				}
			})
		})
	}
}

func TestFormatTemplate(t *testing.T) {
	src := "def greet(name, n):\n    return f\"hello {name!r}, {n} new {'item' if n == 1 else 'items'}\"\n"
	b := bundle(t, NewSession(), def("greet", src, nil))
	if got := run(t, b.Code, `greet("bo", 2)`); got != quote(`hello "bo", 2 new items`) {
		t.Errorf("greet = %s\n%s", got, b.Code)
	}
}

func TestFormatLiteralShape(t *testing.T) {
	src := "def label():\n    return f\"{'ab':>4}|{3:>4}\"\n"
	b := bundle(t, NewSession(), def("label", src, nil))
	if got := run(t, b.Code, "label()"); got != quote("  ab|   3") {
		t.Errorf("label() = %s\n%s", got, b.Code)
	}
}

func TestFormatSpecErrors(t *testing.T) {
	_, err := NewSession().Compile(def("f", "def f(x):\n    return f\"{x:10.2q}\"\n", nil))
	var e *Error
	if !errors.As(err, &e) || e.Code != InvalidFormatSpec {
		t.Fatalf("err = %v, want InvalidFormatSpec", err)
	}
	if e.Construct != "10.2q" {
		t.Errorf("construct = %q", e.Construct)
	}
}
