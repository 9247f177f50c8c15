package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/pyjs/manifest"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
// ---------------------------------------------------------------------------

const projectManifest = `
[source]
dirs = ["src"]
decorators = ["javascript"]

[elements]
div = "div"
`

const utilSource = `LIMIT = 3


def clamp(x):
    return min(x, LIMIT)


def broken(x):
    return undefined_name + x
`

const viewsSource = `from util import clamp, broken


@javascript
def ok(n):
    return clamp(n)


@javascript
def bad(n):
    return n + missing


@javascript
def indirect(n):
    return broken(n)
`

// newTestWorkspace writes files into a fresh directory and returns its
// workspace. Without a pyjs.toml the defaults apply.
func newTestWorkspace(t *testing.T, files map[string]string) *Workspace {
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
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		if m, err = manifest.Default(dir); err != nil {
			t.Fatal(err)
		}
	}
	return NewWorkspace(m, nil)
}

// newProjectWorkspace returns a workspace whose views.py on disk is stale;
// tests pass viewsSource as the open document.
func newProjectWorkspace(t *testing.T) *Workspace {
	return newTestWorkspace(t, map[string]string{
		manifest.FileName: projectManifest,
		"src/util.py":     utilSource,
		"src/views.py":    "@javascript\ndef ok(n):\n    return n\n",
	})
}

func (ws *Workspace) path(rel string) string {
	return filepath.Join(ws.Manifest.Dir, filepath.FromSlash(rel))
}

// newTestWorker starts a worker for ws, stopped when the test ends.
func newTestWorker(t *testing.T, ws *Workspace) *Worker {
	w := NewWorker(ws)
	t.Cleanup(w.Stop)
	return w
}

// ---------------------------------------------------------------------------
// Request builder helpers for tests.
// ---------------------------------------------------------------------------

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

func bg() context.Context {
	return context.Background()
}
