package manifest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/pyjs/compiler"
)

func project(t *testing.T, files map[string]string) *Manifest {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
	}
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestResolveLinksImports(t *testing.T) {
	m := project(t, map[string]string{
		FileName: `
[source]
dirs = ["src"]
decorators = ["javascript"]

[elements]
Card = "Card"
`,
		"src/app/__init__.py": "from .util import LIMIT\n",
		"src/app/util.py":     "LIMIT = 3\n\ndef clamp(x):\n    return min(x, LIMIT)\n",
		"src/app/views.py": `from app.util import clamp
from . import LIMIT as CAP
from ui import Card


@javascript
def view(n):
    return Card(count=clamp(n), cap=CAP)
`,
		"src/.hidden/skip.py":          "def broken(:\n",
		"src/app/__pycache__/views.py": "def broken(:\n",
	})

	p, err := NewResolver(m, nil, nil).Resolve()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range p.Files {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "app,app.util,app.views" {
		t.Fatalf("modules = %s", got)
	}

	views := p.File("app.views").Module
	if b := views.Globals["clamp"]; b.Kind != compiler.BindFunction || b.Func.Name != "clamp" {
		t.Errorf("clamp bound as %+v", b)
	}
	if b := views.Globals["CAP"]; b.Kind != compiler.BindConstant || b.Value != int64(3) {
		t.Errorf("CAP bound as %+v", b)
	}
	if len(views.Imports) != 0 {
		t.Errorf("unlinked imports: %v", views.Imports)
	}

	roots := p.Roots()
	if len(roots) != 1 || roots[0].Name != "view" {
		t.Fatalf("roots = %v", roots)
	}
	b, err := compiler.NewSession(m.SessionOptions()...).Bundle(roots...)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"function clamp(x)", "const LIMIT = 3;", "<Card count={clamp(n)} cap={LIMIT} />"} {
		if !strings.Contains(b.Code, want) {
			t.Errorf("missing %q in\n%s", want, b.Code)
		}
	}
}

func TestResolveRejectsShadowedBuiltin(t *testing.T) {
	m := project(t, map[string]string{
		FileName:  "[project]\nname = \"x\"\n",
		"math.py": "def floor(x):\n    return x\n",
	})
	if _, err := NewResolver(m, nil, nil).Resolve(); err == nil {
		t.Error("a module named math was accepted")
	}
}

func TestResolveParseError(t *testing.T) {
	m := project(t, map[string]string{
		FileName: "[project]\nname = \"x\"\n",
		"bad.py": "def f(:\n",
	})
	_, err := NewResolver(m, nil, nil).Resolve()
	var e *compiler.Error
	if !errorsAs(err, &e) || e.Code != compiler.ParseError || e.Pos.File != "bad.py" {
		t.Errorf("err = %v", err)
	}
}

func TestResolveAppliesGlobals(t *testing.T) {
	m := project(t, map[string]string{
		FileName: "[project]\nname = \"x\"\n",
		"a.py":   "def f():\n    return API_ROOT\n",
	})
	g, err := ParseGlobals([]byte("constants:\n  API_ROOT: /api\n"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewResolver(m, nil, g).Resolve()
	if err != nil {
		t.Fatal(err)
	}
	b, err := compiler.NewSession().Bundle(p.Roots()...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.Code, `const API_ROOT = "/api";`) {
		t.Errorf("code = %s", b.Code)
	}
}

func TestResolverOverlay(t *testing.T) {
	m := project(t, map[string]string{
		FileName:      "[source]\ndirs = [\"src\"]\n",
		"src/calc.py": "def f():\n    return 1\n",
	})
	path := filepath.Join(m.Dir, "src", "calc.py")
	if !m.Contains(path) || m.Contains(filepath.Join(m.Dir, "calc.py")) {
		t.Fatal("Contains misreports the source directory")
	}

	r := NewResolver(m, nil, nil)
	r.Overlay(path, "def g():\n    return 2\n")
	p, err := r.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	f := p.FileAt(path)
	if f == nil || f.Module.Function("g") == nil {
		t.Fatalf("overlay not scanned: %+v", f)
	}

	r.Forget(path)
	p, err = r.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if p.FileAt(path).Module.Function("f") == nil {
		t.Error("file on disk not rescanned after Forget")
	}
}
