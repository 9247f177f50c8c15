package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/pyjs/compiler"
	"github.com/chazu/pyjs/manifest"
)

const testManifest = `
[project]
name = "demo"

[source]
dirs = ["src"]
decorators = ["javascript"]

[cache]
path = ".pyjs/cache.db"
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		flagOut, flagRoots, flagNoCache = "", nil, false
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBuildCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		manifest.FileName: testManifest,
		"src/app.py":      "SCALE = 2\n\n\n@javascript\ndef double(x):\n    return x * SCALE\n",
	})

	stdout, stderr, err := execute(t, "build", "-C", dir)
	if err != nil {
		t.Fatalf("build failed: %v\n%s", err, stderr)
	}
	for _, want := range []string{"const SCALE = 2;", "function double(x)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("bundle missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "demo") || strings.Contains(stderr, "(cached)") {
		t.Errorf("first build summary = %s", stderr)
	}

	_, stderr, err = execute(t, "build", "-C", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "(cached)") {
		t.Errorf("second build not served from the cache:\n%s", stderr)
	}
}

func TestBuildCommandOutputFile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		manifest.FileName: testManifest,
		"src/app.py":      "@javascript\ndef one():\n    return 1\n\n\n@javascript\ndef two():\n    return 2\n",
	})
	out := filepath.Join(dir, "dist", "app.js")

	stdout, _, err := execute(t, "build", "-C", dir, "--no-cache", "-o", out, "--root", "app.two")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if code := string(data); !strings.Contains(code, "function two()") || strings.Contains(code, "function one()") {
		t.Errorf("bundle = %s", code)
	}
	if _, err := os.Stat(filepath.Join(dir, ".pyjs", "cache.db")); !os.IsNotExist(err) {
		t.Error("--no-cache still created the cache")
	}
}

func TestBuildCommandDiagnostic(t *testing.T) {
	dir := writeProject(t, map[string]string{
		manifest.FileName: testManifest,
		"src/app.py":      "@javascript\ndef f(n):\n    return n + missing\n",
	})

	_, _, err := execute(t, "build", "-C", dir, "--no-cache")
	if err != errDiagnostics {
		t.Errorf("err = %v, want %v", err, errDiagnostics)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		manifest.FileName: testManifest,
		"src/app.py": `@javascript
def ok(n):
    return n


@javascript
def bad(n):
    return n + missing


@javascript
def worse(xs):
    return xs @ xs
`,
	})

	_, stderr, err := execute(t, "check", "-C", dir)
	if err == nil || err.Error() != "2 diagnostic(s)" {
		t.Fatalf("err = %v, want 2 diagnostic(s)", err)
	}
	for _, want := range []string{"src/app.py:8:16", "UnboundName", "return n + missing", "^^^^^^^"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("report missing %q:\n%s", want, stderr)
		}
	}
}

func TestFindFunction(t *testing.T) {
	dir := writeProject(t, map[string]string{
		manifest.FileName: testManifest,
		"src/a.py":        "def f():\n    return 1\n\ndef g():\n    return 2\n",
		"src/b.py":        "def f():\n    return 3\n",
	})
	m, err := manifest.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	p, err := manifest.NewResolver(m, nil, nil).Resolve()
	if err != nil {
		t.Fatal(err)
	}

	if fn, err := findFunction(p, "g"); err != nil || fn.Name != "g" {
		t.Errorf("g: %v, %v", fn, err)
	}
	if fn, err := findFunction(p, "b.f"); err != nil || fn.File != "src/b.py" {
		t.Errorf("b.f: %v, %v", fn, err)
	}
	if _, err := findFunction(p, "f"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("f: err = %v, want ambiguous", err)
	}
	if _, err := findFunction(p, "nope"); err == nil {
		t.Error("nope: want error")
	}
	if _, err := selectRoots(p, nil); err == nil {
		t.Error("project without decorated defs: want error")
	}
}

func TestSourceExcerpt(t *testing.T) {
	src := "def f(n):\n    return n + missing\n"
	tests := []struct {
		name string
		e    *compiler.Error
		want string
	}{
		{
			"construct",
			&compiler.Error{Pos: compiler.Pos{Line: 2, Column: 16}, Construct: "missing"},
			"    2 |     return n + missing\n      |                ^^^^^^^\n",
		},
		{
			"construct elsewhere",
			&compiler.Error{Pos: compiler.Pos{Line: 2, Column: 5}, Construct: "+"},
			"    2 |     return n + missing\n      |     ^\n",
		},
		{
			"line only",
			&compiler.Error{Pos: compiler.Pos{Line: 1}},
			"    1 | def f(n):\n",
		},
		{"no line", &compiler.Error{}, ""},
		{"past end", &compiler.Error{Pos: compiler.Pos{Line: 10}}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sourceExcerpt(tc.e, src); got != tc.want {
				t.Errorf("got\n%q\nwant\n%q", got, tc.want)
			}
		})
	}
}
