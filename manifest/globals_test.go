package manifest

import (
	"errors"
	"testing"

	"github.com/chazu/pyjs/compiler"
)

func errorsAs(err error, target any) bool { return errors.As(err, target) }

func TestParseGlobals(t *testing.T) {
	g, err := ParseGlobals([]byte(`
constants:
  LIMIT: 10
  RATIO: 0.5
  DEBUG: false
  NAME: demo
  EMPTY: null
  TAGS: [a, b]
  THEME:
    fg: black
    bg: white
modules:
  api: {js: window.api}
elements:
  Card: ui.Card
`))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"LIMIT": int64(10),
		"RATIO": 0.5,
		"DEBUG": false,
		"NAME":  "demo",
		"EMPTY": nil,
	}
	for name, v := range want {
		if got, ok := g.Constants[name]; !ok || got != v {
			t.Errorf("%s = %#v, want %#v", name, got, v)
		}
	}
	if tags, ok := g.Constants["TAGS"].([]any); !ok || len(tags) != 2 || tags[1] != "b" {
		t.Errorf("TAGS = %#v", g.Constants["TAGS"])
	}
	theme, ok := g.Constants["THEME"].(compiler.Dict)
	if !ok || len(theme) != 2 || theme[0].Key != "fg" || theme[1].Key != "bg" {
		t.Errorf("THEME = %#v, want keys in document order", g.Constants["THEME"])
	}

	cfg := compiler.ModuleConfig{}
	g.Apply(&cfg)
	if b := cfg.Modules["api"]; b.JS != "window.api" {
		t.Errorf("api = %+v", b)
	}
	if cfg.Elements["Card"] != "ui.Card" || cfg.Constants["LIMIT"] != int64(10) {
		t.Errorf("config = %+v", cfg)
	}
}

func TestParseGlobalsErrors(t *testing.T) {
	for _, src := range []string{
		"constants: [1, 2]\n",
		"modules:\n  api: {builtin: true}\n",
		"constants: {a: [\n",
	} {
		if _, err := ParseGlobals([]byte(src)); err == nil {
			t.Errorf("ParseGlobals(%q) succeeded", src)
		}
	}
}
