package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/pyjs/compiler"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[project]
name = "demo"
version = "0.1.0"

[source]
dirs = ["src", "lib"]
decorators = ["javascript"]
globals = "globals.yaml"

[compile]
shape-inference = false
passthrough = ["toISOString"]

[builtins]
now = "Date.now"

[modules.math]
js = "Math"
builtin = true
rename = { pi = "PI", e = "E" }

[modules.api]
js = "window.api"

[elements]
div = "div"
Button = "Button"

[cache]
path = "build/cache.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if want := (ProjectInfo{Name: "demo", Version: "0.1.0"}); m.Project != want {
		t.Errorf("project = %+v, want %+v", m.Project, want)
	}
	if len(m.Source.Dirs) != 2 || m.Source.Decorators[0] != "javascript" {
		t.Errorf("source = %+v", m.Source)
	}
	if m.ShapeInference() {
		t.Error("shape-inference = true, want false")
	}
	if m.Builtins["now"] != "Date.now" {
		t.Errorf("builtins = %v", m.Builtins)
	}
	if mod := m.Modules["math"]; mod.JS != "Math" || !mod.Builtin || mod.Rename["pi"] != "PI" {
		t.Errorf("math module = %+v", mod)
	}
	if m.Elements["Button"] != "Button" {
		t.Errorf("elements = %v", m.Elements)
	}
	if got, want := m.CachePath(), filepath.Join(m.Dir, "build", "cache.db"); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
	if got, want := m.GlobalsPath(), filepath.Join(m.Dir, "globals.yaml"); got != want {
		t.Errorf("globals path = %q, want %q", got, want)
	}

	reg := m.Registry()
	if !reg.HasBuiltin("now") {
		t.Error("configured builtin not registered")
	}
	if _, ok := reg.Module("api"); ok {
		t.Error("host module registered as builtin")
	}
	cfg := m.ModuleConfig(filepath.Join(m.Dir, "src", "app.py"))
	if cfg.File != "src/app.py" {
		t.Errorf("config file = %q", cfg.File)
	}
	if b := cfg.Modules["api"]; b.Kind != compiler.BindModule || b.JS != "window.api" || b.Builtin {
		t.Errorf("api binding = %+v", b)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[project]\nname = \"minimal\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "." {
		t.Errorf("default source dirs = %v, want [.]", m.Source.Dirs)
	}
	if !m.ShapeInference() {
		t.Error("shape inference off by default")
	}
	if got, want := m.CachePath(), filepath.Join(m.Dir, ".pyjs", "cache.db"); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
	if m.GlobalsPath() != "" {
		t.Errorf("globals path = %q, want none", m.GlobalsPath())
	}
}

func TestLoadManifestRejectsModuleWithoutJS(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[modules.api]\nbuiltin = true\n")
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted a module without a js expression")
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, FileName), "[project]\nname = \"found-project\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no pyjs.toml exists")
	}
}

func TestSourceDirPaths(t *testing.T) {
	m := &Manifest{
		Dir: "/app",
		Source: Source{
			Dirs: []string{"src", "/abs/lib"},
		},
	}

	paths := m.SourceDirPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0] != "/app/src" {
		t.Errorf("paths[0] = %q, want /app/src", paths[0])
	}
	if paths[1] != "/abs/lib" {
		t.Errorf("paths[1] = %q, want /abs/lib", paths[1])
	}
}

func TestCacheDisabled(t *testing.T) {
	m := &Manifest{Dir: "/app", Cache: Cache{Path: "c.db", Disabled: true}}
	if m.CachePath() != "" {
		t.Errorf("cache path = %q, want none", m.CachePath())
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "[project]\nname = \"a\"\n\n[elements]\ndiv = \"div\"\n")
	a, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	fa, err := a.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}

	b, _ := Load(dir)
	b.Project.Name = "renamed"
	b.Cache.Path = "elsewhere.db"
	if fb, _ := b.Fingerprint(); fb != fa {
		t.Errorf("metadata changed the fingerprint:\n%s\n%s", fa, fb)
	}

	off := false
	b.Compile.ShapeInference = &off
	if fb, _ := b.Fingerprint(); fb == fa {
		t.Error("shape inference did not change the fingerprint")
	}
	b.Compile.ShapeInference = nil
	b.Elements["span"] = "span"
	if fb, _ := b.Fingerprint(); fb == fa {
		t.Error("elements did not change the fingerprint")
	}
}
