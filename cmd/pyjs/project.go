package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/pyjs/compiler"
	"github.com/chazu/pyjs/manifest"
	"github.com/chazu/pyjs/store"
)

// selectRoots returns the project's roots, or the functions named by
// names. A name is either a def name or module.def.
func selectRoots(p *manifest.Project, names []string) ([]*compiler.Function, error) {
	if len(names) == 0 {
		roots := p.Roots()
		if len(roots) == 0 {
			return nil, errors.New("no root functions found")
		}
		return roots, nil
	}
	var roots []*compiler.Function
	for _, name := range names {
		fn, err := findFunction(p, name)
		if err != nil {
			return nil, err
		}
		roots = append(roots, fn)
	}
	return roots, nil
}

func findFunction(p *manifest.Project, name string) (*compiler.Function, error) {
	module, def := "", name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		module, def = name[:idx], name[idx+1:]
	}
	var found []*compiler.Function
	for _, f := range p.Files {
		if module != "" && f.Name != module {
			continue
		}
		if fn := f.Module.Function(def); fn != nil {
			found = append(found, fn)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no function %q in the project", name)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("function %q is ambiguous; qualify it with its module", name)
}

// newSession creates a session compiling against the project's registry.
func newSession(m *manifest.Manifest, p *manifest.Project) *compiler.Session {
	return compiler.NewSession(
		compiler.WithRegistry(p.Registry),
		compiler.WithShapeInference(m.ShapeInference()),
	)
}

// projectKey fingerprints a build of roots from the whole project.
func projectKey(m *manifest.Manifest, globals *manifest.Globals, p *manifest.Project, roots []*compiler.Function) (store.Key, error) {
	cfg, err := m.Fingerprint()
	if err != nil {
		return store.Key{}, err
	}
	kb := store.NewKeyBuilder().
		Config("manifest", cfg).
		Config("globals", globals.Fingerprint())
	for _, f := range p.Files {
		kb.Source(m.Relative(f.Path), f.Source)
	}
	for _, fn := range roots {
		kb.Root(fn.ID)
	}
	return kb.Sum(), nil
}

// openStore opens the project's bundle cache, or returns nil when caching
// is off.
func openStore(m *manifest.Manifest, disabled bool) (*store.Store, error) {
	path := m.CachePath()
	if disabled || path == "" {
		return nil, nil
	}
	return store.Open(path)
}

// sources maps project-relative file names to their text for rendering.
func sources(m *manifest.Manifest, p *manifest.Project) map[string]string {
	out := make(map[string]string, len(p.Files))
	for _, f := range p.Files {
		out[m.Relative(f.Path)] = f.Source
	}
	return out
}
