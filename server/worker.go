package server

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/pyjs/compiler"
	"github.com/chazu/pyjs/manifest"
	"github.com/chazu/pyjs/store"
)

// Workspace is the compile state of one project: its configuration, the
// resolver holding unsaved documents, and the options every session is
// created with. It is owned by a Worker goroutine.
type Workspace struct {
	Manifest *manifest.Manifest
	Resolver *manifest.Resolver
	globals  *manifest.Globals
	opts     []compiler.Option
}

// NewWorkspace creates the workspace of m. globals may be nil.
func NewWorkspace(m *manifest.Manifest, globals *manifest.Globals) *Workspace {
	reg := m.Registry()
	return &Workspace{
		Manifest: m,
		Resolver: manifest.NewResolver(m, reg, globals),
		globals:  globals,
		opts: []compiler.Option{
			compiler.WithRegistry(reg),
			compiler.WithShapeInference(m.ShapeInference()),
		},
	}
}

// Session creates a fresh compile session. Scans produce new Function
// values, so a session is not reused across document versions.
func (ws *Workspace) Session() *compiler.Session {
	return compiler.NewSession(ws.opts...)
}

// Key fingerprints a build of roots from sources under the workspace
// configuration.
func (ws *Workspace) Key(sources map[string]string, roots []*compiler.Function) (store.Key, error) {
	cfg, err := ws.Manifest.Fingerprint()
	if err != nil {
		return store.Key{}, err
	}
	kb := store.NewKeyBuilder().
		Config("manifest", cfg).
		Config("globals", ws.globals.Fingerprint())
	for path, text := range sources {
		kb.Source(path, text)
	}
	for _, fn := range roots {
		kb.Root(fn.ID)
	}
	return kb.Sum(), nil
}

// Scan scans text as the document at path. Documents inside the project
// are scanned with the whole project so imports of sibling modules bind;
// anything else is scanned on its own.
func (ws *Workspace) Scan(path, text string) (*manifest.SourceFile, error) {
	if ws.Manifest.Contains(path) {
		ws.Resolver.Overlay(path, text)
		p, err := ws.Resolver.Resolve()
		if err == nil {
			if f := p.FileAt(path); f != nil {
				return f, nil
			}
		}
		var ce *compiler.Error
		if errors.As(err, &ce) && ce.Pos.File == ws.Manifest.Relative(path) {
			return nil, err
		}
	}
	return ws.Resolver.ScanSource(path, text)
}

// Check scans the document at path and compiles each of its roots on
// its own, returning every distinct diagnostic in position order.
// Diagnostics raised inside another file are reported at the root that
// reached them.
func (ws *Workspace) Check(path, text string) []*compiler.Error {
	file := ws.Manifest.Relative(path)
	f, err := ws.Scan(path, text)
	if err != nil {
		return []*compiler.Error{asError(err, file)}
	}

	sess := ws.Session()
	seen := make(map[string]bool)
	var diags []*compiler.Error
	for _, root := range f.Module.Roots {
		_, err := sess.Bundle(root)
		if err == nil {
			continue
		}
		e := asError(err, file)
		if e.Pos.File != file {
			e = &compiler.Error{
				Code:      e.Code,
				Pos:       compiler.Pos{File: file, Line: root.Line, Column: 1},
				Construct: e.Construct,
				Msg:       fmt.Sprintf("%s: %s", e.Pos, e.Msg),
				Func:      root.Name,
				Err:       e,
			}
		}
		if key := e.Error(); !seen[key] {
			seen[key] = true
			diags = append(diags, e)
		}
	}
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Pos, diags[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return diags
}

// asError returns err as a compile diagnostic, attributing errors that
// are not diagnostics to file.
func asError(err error, file string) *compiler.Error {
	var ce *compiler.Error
	if errors.As(err, &ce) {
		return ce
	}
	return &compiler.Error{Code: compiler.SourceUnavailable, Pos: compiler.Pos{File: file}, Msg: err.Error(), Err: err}
}

// ---------------------------------------------------------------------------
// Worker
// ---------------------------------------------------------------------------

// request represents a unit of work to be executed on the worker goroutine.
type request struct {
	fn   func(*Workspace) interface{}
	done chan result
}

// result holds the return value from a workspace operation.
type result struct {
	value interface{}
	err   error
}

// Worker serializes all workspace access through a single goroutine.
// The resolver's overlay and project scan are shared mutable state;
// every handler goes through the worker to avoid data races.
type Worker struct {
	ws       *Workspace
	requests chan request
	quit     chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(ws *Workspace) *Worker {
	w := &Worker{
		ws:       ws,
		requests: make(chan request, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function on the workspace, recovering from panics.
func (w *Worker) execute(fn func(*Workspace) interface{}) result {
	var res result
	func() {
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("%v", r)
			}
		}()
		res.value = fn(w.ws)
	}()
	return res
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(*Workspace) interface{}) (interface{}, error) {
	req := request{
		fn:   fn,
		done: make(chan result, 1),
	}
	w.requests <- req
	res := <-req.done
	return res.value, res.err
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}

// Manifest returns the workspace configuration, which never changes.
func (w *Worker) Manifest() *manifest.Manifest {
	return w.ws.Manifest
}
