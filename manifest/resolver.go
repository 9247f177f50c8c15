package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/pyjs/compiler"
)

// SourceFile is one scanned Python file of a project.
type SourceFile struct {
	Path   string // absolute path
	Name   string // dotted module name
	Source string
	Module *compiler.Module

	pkg bool
}

// Project is the scanned source tree of a manifest.
type Project struct {
	Manifest *Manifest
	Registry *compiler.Registry
	Files    []*SourceFile // in module-name order
}

// File returns the source file of the named module.
func (p *Project) File(name string) *SourceFile {
	for _, f := range p.Files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FileAt returns the source file at the absolute path.
func (p *Project) FileAt(path string) *SourceFile {
	for _, f := range p.Files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

// Roots returns the root functions of every file in module-name order.
func (p *Project) Roots() []*compiler.Function {
	var roots []*compiler.Function
	for _, f := range p.Files {
		roots = append(roots, f.Module.Roots...)
	}
	return roots
}

// Resolver scans a project's source directories and links imports
// between its modules. A Resolver is not safe for concurrent use.
type Resolver struct {
	manifest *Manifest
	reg      *compiler.Registry
	globals  *Globals
	overlay  map[string]string // path -> unsaved text
	log      commonlog.Logger
}

// NewResolver creates a resolver for m. globals may be nil.
func NewResolver(m *Manifest, reg *compiler.Registry, globals *Globals) *Resolver {
	if reg == nil {
		reg = m.Registry()
	}
	return &Resolver{
		manifest: m,
		reg:      reg,
		globals:  globals,
		overlay:  make(map[string]string),
		log:      commonlog.GetLogger("pyjs.manifest"),
	}
}

// Resolve scans every .py file under the source directories and returns
// the project with cross-module imports bound.
func (r *Resolver) Resolve() (*Project, error) {
	p := &Project{Manifest: r.manifest, Registry: r.reg}
	byName := make(map[string]*SourceFile)
	for _, dir := range r.manifest.SourceDirPaths() {
		paths, err := sourceFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
		for _, path := range paths {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)
			name := ModuleName(rel)
			if IsReservedModule(r.reg, name) {
				return nil, fmt.Errorf("%s: module %q shadows the builtin namespace of the same name", path, name)
			}
			if other, ok := byName[name]; ok {
				return nil, fmt.Errorf("module %q defined twice: %s and %s", name, other.Path, path)
			}
			f, err := r.ScanFile(path)
			if err != nil {
				return nil, err
			}
			f.Name, f.pkg = name, isPackage(rel)
			byName[name] = f
			p.Files = append(p.Files, f)
		}
	}
	sort.Slice(p.Files, func(i, j int) bool { return p.Files[i].Name < p.Files[j].Name })

	linked := link(p.Files, byName)
	r.log.Infof("resolved %d module(s), %d root(s), %d linked import(s)", len(p.Files), len(p.Roots()), linked)
	return p, nil
}

// Manifest returns the configuration the resolver scans with.
func (r *Resolver) Manifest() *Manifest { return r.manifest }

// Registry returns the registry the resolver scans against.
func (r *Resolver) Registry() *compiler.Registry { return r.reg }

// Overlay makes later scans of path read text instead of the file.
func (r *Resolver) Overlay(path, text string) {
	r.overlay[path] = text
}

// Forget drops the overlay of path.
func (r *Resolver) Forget(path string) {
	delete(r.overlay, path)
}

// ScanFile scans one source file with the manifest's configuration.
func (r *Resolver) ScanFile(path string) (*SourceFile, error) {
	if text, ok := r.overlay[path]; ok {
		return r.ScanSource(path, text)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return r.ScanSource(path, string(data))
}

// ScanSource scans src as the file at path.
func (r *Resolver) ScanSource(path, src string) (*SourceFile, error) {
	cfg := r.manifest.ModuleConfig(path)
	if r.globals != nil {
		r.globals.Apply(&cfg)
	}
	mod, err := compiler.ScanModule(src, r.reg, cfg)
	if err != nil {
		return nil, err
	}
	r.log.Debugf("scanned %s: %d function(s)", cfg.File, len(mod.Functions))
	return &SourceFile{Path: path, Source: src, Module: mod}, nil
}

// link binds imports of sibling modules' functions and constants until
// nothing changes, so re-exports resolve through any chain. It returns
// the number of imports bound.
func link(files []*SourceFile, byName map[string]*SourceFile) int {
	linked := 0
	for changed := true; changed; {
		changed = false
		for _, f := range files {
			for _, local := range sortedImports(f.Module.Imports) {
				imp := f.Module.Imports[local]
				if imp.Name == "" {
					continue
				}
				target, ok := ResolveRelative(f.Name, f.pkg, imp.Module)
				if !ok {
					continue
				}
				src, ok := byName[target]
				if !ok {
					continue
				}
				b, ok := src.Module.Globals[imp.Name]
				if !ok || b.Kind == compiler.BindOpaque {
					continue
				}
				f.Module.Globals[local] = b
				delete(f.Module.Imports, local)
				linked++
				changed = true
			}
		}
	}
	return linked
}

func sortedImports(imports map[string]compiler.Import) []string {
	names := make([]string, 0, len(imports))
	for name := range imports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sourceFiles lists the .py files under dir, skipping hidden and cache
// directories.
func sourceFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (strings.HasPrefix(name, ".") || name == "__pycache__") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".py") {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths, err
}
