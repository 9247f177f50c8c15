package compiler

import (
	"errors"
	"strings"
	"testing"
)

const appSource = `import math
from ui import div, Button
from store import session

SCALE = 2
NAMES = ("a", "b")
LIMITS = {"low": -1, "high": 2.5}
handler = make_handler()


def helper(x):
    return x * SCALE


@javascript
def render(xs):
    return div(class_="list")[[Button(label=n) for n in NAMES]]


@javascript
def total(xs):
    return sum(helper(x) for x in xs) + math.floor(LIMITS["high"])
`

func TestScanModule(t *testing.T) {
	m, err := ScanModule(appSource, nil, ModuleConfig{
		File:       "app.py",
		Decorators: []string{"javascript"},
		Elements:   map[string]string{"div": "div", "Button": "Button"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Functions) != 3 {
		t.Fatalf("functions = %d, want 3", len(m.Functions))
	}
	if len(m.Roots) != 2 || m.Roots[0].Name != "render" || m.Roots[1].Name != "total" {
		t.Fatalf("roots = %v", m.Roots)
	}
	if total := m.Function("total"); total.Line != 20 || total.ID != "app.py:20:total" {
		t.Errorf("total at line %d, ID %q", total.Line, total.ID)
	}
	if !strings.HasPrefix(m.Function("render").Source, "@javascript\ndef render(xs):") {
		t.Errorf("render source = %q", m.Function("render").Source)
	}

	kinds := map[string]BindingKind{
		"math":    BindModule,
		"div":     BindElement,
		"session": BindOpaque,
		"SCALE":   BindConstant,
		"NAMES":   BindConstant,
		"LIMITS":  BindConstant,
		"handler": BindOpaque,
		"helper":  BindFunction,
	}
	for name, want := range kinds {
		if got := m.Globals[name].Kind; got != want {
			t.Errorf("%s bound as %v, want %v", name, got, want)
		}
	}
	if limits, ok := m.Globals["LIMITS"].Value.(Dict); !ok || limits[0].Value != int64(-1) {
		t.Errorf("LIMITS = %#v", m.Globals["LIMITS"].Value)
	}

	b, err := NewSession().Bundle(m.Roots...)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`<div class={"list"}>`,
		"function helper(x)",
		"const SCALE = 2;",
		"Math.floor(",
	} {
		if !strings.Contains(b.Code, want) {
			t.Errorf("missing %q in\n%s", want, b.Code)
		}
	}
	if b.ExternalNames["app.py:15:render"] != "render" || b.ExternalNames["app.py:20:total"] != "total" {
		t.Errorf("external names = %v", b.ExternalNames)
	}
}

func TestScanModuleAllRoots(t *testing.T) {
	m, err := ScanModule("def a():\n    return 1\n\ndef b():\n    return a()\n", nil, ModuleConfig{File: "m.py"})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(m.Roots))
	}
	b, err := NewSession().Bundle(m.Roots...)
	if err != nil {
		t.Fatal(err)
	}
	if got := run(t, b.Code, "b()"); got != "1" {
		t.Errorf("b() = %s", got)
	}
}

func TestScanModuleOpaqueUse(t *testing.T) {
	m, err := ScanModule("handler = make()\n\ndef f():\n    return handler\n", nil, ModuleConfig{File: "m.py"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewSession().Bundle(m.Roots...)
	if !errors.Is(err, UnsupportedGlobalKind) {
		t.Errorf("err = %v, want UnsupportedGlobalKind", err)
	}
}

func TestScanModuleConfiguredModules(t *testing.T) {
	m, err := ScanModule("import api\n\ndef f(x):\n    return api.fetch(x)\n", nil, ModuleConfig{
		File:    "m.py",
		Modules: map[string]Binding{"api": ModuleRef("window.api", false, nil)},
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSession().Bundle(m.Roots...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.Code, "window.api.fetch(x)") {
		t.Errorf("code = %s", b.Code)
	}
	if len(b.Modules) != 1 || b.Modules[0] != "window" {
		t.Errorf("modules = %v, want [window]", b.Modules)
	}
}

func TestScanModuleParseError(t *testing.T) {
	_, err := ScanModule("def f(:\n", nil, ModuleConfig{File: "bad.py"})
	var e *Error
	if !errors.As(err, &e) || e.Code != ParseError || e.Pos.File != "bad.py" || e.Pos.Line != 1 {
		t.Errorf("err = %v", err)
	}
}
