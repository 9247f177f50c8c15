package server

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/pyjs/compiler"
)

func TestWorkerDo(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	w := newTestWorker(t, ws)

	result, err := w.Do(func(got *Workspace) interface{} {
		return got == ws
	})
	if err != nil {
		t.Fatal(err)
	}
	if result != true {
		t.Error("function did not run against the worker's workspace")
	}
}

func TestWorkerRecoversPanic(t *testing.T) {
	w := newTestWorker(t, newTestWorkspace(t, nil))

	_, err := w.Do(func(*Workspace) interface{} {
		panic("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want boom", err)
	}

	// The worker keeps serving after a panic.
	result, err := w.Do(func(*Workspace) interface{} { return 42 })
	if err != nil || result != 42 {
		t.Errorf("after panic: %v, %v", result, err)
	}
}

func TestWorkspaceCheck(t *testing.T) {
	ws := newProjectWorkspace(t)
	diags := ws.Check(ws.path("src/views.py"), viewsSource)
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v, want 2", diags)
	}

	bad := diags[0]
	if bad.Code != compiler.UnboundName || bad.Construct != "missing" {
		t.Errorf("first diagnostic = %+v", bad)
	}
	if bad.Pos != (compiler.Pos{File: "src/views.py", Line: 11, Column: 16}) {
		t.Errorf("first diagnostic at %v", bad.Pos)
	}

	indirect := diags[1]
	if indirect.Code != compiler.UnboundName || indirect.Func != "indirect" {
		t.Errorf("second diagnostic = %+v", indirect)
	}
	if indirect.Pos.File != "src/views.py" || indirect.Pos.Line != 14 {
		t.Errorf("second diagnostic at %v, want the root's line", indirect.Pos)
	}
	if !strings.HasPrefix(indirect.Msg, "src/util.py:9:") {
		t.Errorf("second diagnostic does not name its origin: %q", indirect.Msg)
	}
}

func TestWorkspaceCheckClean(t *testing.T) {
	ws := newProjectWorkspace(t)
	src := "from util import clamp\n\n\n@javascript\ndef ok(n):\n    return clamp(n)\n"
	if diags := ws.Check(ws.path("src/views.py"), src); len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestWorkspaceCheckParseError(t *testing.T) {
	ws := newProjectWorkspace(t)
	diags := ws.Check(ws.path("src/views.py"), "def f(:\n")
	if len(diags) != 1 || !errors.Is(diags[0], compiler.ParseError) {
		t.Fatalf("diagnostics = %v, want one ParseError", diags)
	}
	if diags[0].Pos.File != "src/views.py" || diags[0].Pos.Line != 1 {
		t.Errorf("parse error at %v", diags[0].Pos)
	}
}

func TestWorkspaceCheckOutsideProject(t *testing.T) {
	ws := newProjectWorkspace(t)
	// Scanned alone, the import of a project module stays opaque.
	diags := ws.Check(ws.path("scratch.py"), "from util import clamp\n\n@javascript\ndef f(n):\n    return clamp(n)\n")
	if len(diags) != 1 || diags[0].Code != compiler.UnsupportedGlobalKind {
		t.Errorf("diagnostics = %v, want UnsupportedGlobalKind", diags)
	}
}

func TestWorkspaceKey(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	fn := &compiler.Function{ID: "a.py:1:f", Name: "f"}
	k1, err := ws.Key(map[string]string{"a.py": "def f():\n    pass\n"}, []*compiler.Function{fn})
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := ws.Key(map[string]string{"a.py": "def f():\n    return 1\n"}, []*compiler.Function{fn})
	k3, _ := ws.Key(map[string]string{"a.py": "def f():\n    pass\n"}, []*compiler.Function{fn})
	if k1 == k2 {
		t.Error("source change kept the key")
	}
	if k1 != k3 {
		t.Error("identical inputs changed the key")
	}
}
