// Package manifest handles pyjs.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/pyjs/compiler"
)

// FileName is the name of the project configuration file.
const FileName = "pyjs.toml"

// Manifest represents a pyjs.toml project configuration.
type Manifest struct {
	Project  ProjectInfo       `toml:"project"`
	Source   Source            `toml:"source"`
	Compile  Compile           `toml:"compile"`
	Builtins map[string]string `toml:"builtins"`
	Modules  map[string]Module `toml:"modules"`
	Elements map[string]string `toml:"elements"`
	Cache    Cache             `toml:"cache"`

	// Dir is the directory containing the pyjs.toml file (set at load time).
	Dir string `toml:"-"`
}

// ProjectInfo contains project metadata.
type ProjectInfo struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations and root selection.
type Source struct {
	Dirs       []string `toml:"dirs"`
	Decorators []string `toml:"decorators"`
	Globals    string   `toml:"globals"` // optional YAML overlay
}

// Compile configures the transpiler.
type Compile struct {
	ShapeInference *bool    `toml:"shape-inference"`
	Passthrough    []string `toml:"passthrough"` // methods called on any receiver as is
}

// Module maps an importable Python namespace to a JS expression.
type Module struct {
	JS      string            `toml:"js" yaml:"js"`
	Builtin bool              `toml:"builtin" yaml:"builtin"`
	Rename  map[string]string `toml:"rename" yaml:"rename"`
}

// Cache configures the persistent bundle cache.
type Cache struct {
	Path     string `toml:"path"`
	Disabled bool   `toml:"disabled"`
}

// Load parses a pyjs.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	for name, mod := range m.Modules {
		if mod.JS == "" {
			return nil, fmt.Errorf("%s: module %q has no js expression", path, name)
		}
	}
	m.applyDefaults()
	return &m, nil
}

// Default returns the configuration used when dir has no pyjs.toml.
func Default(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	m := &Manifest{Dir: abs}
	m.applyDefaults()
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Project.Name == "" {
		m.Project.Name = filepath.Base(m.Dir)
	}
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"."}
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".pyjs", "cache.db")
	}
}

// FindAndLoad walks up from startDir to find a pyjs.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, m.abs(d))
	}
	return paths
}

// CachePath returns the absolute path of the bundle cache database, or ""
// when caching is disabled.
func (m *Manifest) CachePath() string {
	if m.Cache.Disabled {
		return ""
	}
	return m.abs(m.Cache.Path)
}

// GlobalsPath returns the absolute path of the globals overlay, or "".
func (m *Manifest) GlobalsPath() string {
	if m.Source.Globals == "" {
		return ""
	}
	return m.abs(m.Source.Globals)
}

// Contains reports whether path lies in one of the source directories.
func (m *Manifest) Contains(path string) bool {
	for _, dir := range m.SourceDirPaths() {
		if rel, err := filepath.Rel(dir, path); err == nil && filepath.IsLocal(rel) {
			return true
		}
	}
	return false
}

func (m *Manifest) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ShapeInference reports whether evident receiver shapes skip runtime
// guards. It defaults to true.
func (m *Manifest) ShapeInference() bool {
	return m.Compile.ShapeInference == nil || *m.Compile.ShapeInference
}

// Registry returns the default registry extended with the configured
// builtins, builtin modules and passthrough methods.
func (m *Manifest) Registry() *compiler.Registry {
	reg := compiler.DefaultRegistry()
	for name, js := range m.Builtins {
		reg.AddAlias(name, js)
	}
	for name, mod := range m.Modules {
		if mod.Builtin {
			reg.AddModule(name, mod.JS, mod.Rename)
		}
	}
	for _, name := range m.Compile.Passthrough {
		reg.AddPassthrough(name)
	}
	return reg
}

// Fingerprint returns a canonical TOML rendering of the settings that
// shape emitted code. Project metadata, source layout and cache settings
// are left out.
func (m *Manifest) Fingerprint() (string, error) {
	var b strings.Builder
	err := toml.NewEncoder(&b).Encode(struct {
		Decorators     []string          `toml:"decorators"`
		ShapeInference bool              `toml:"shape-inference"`
		Passthrough    []string          `toml:"passthrough"`
		Builtins       map[string]string `toml:"builtins"`
		Modules        map[string]Module `toml:"modules"`
		Elements       map[string]string `toml:"elements"`
	}{
		Decorators:     m.Source.Decorators,
		ShapeInference: m.ShapeInference(),
		Passthrough:    m.Compile.Passthrough,
		Builtins:       m.Builtins,
		Modules:        m.Modules,
		Elements:       m.Elements,
	})
	return b.String(), err
}

// SessionOptions returns the compiler options the manifest selects.
func (m *Manifest) SessionOptions() []compiler.Option {
	return []compiler.Option{
		compiler.WithRegistry(m.Registry()),
		compiler.WithShapeInference(m.ShapeInference()),
	}
}

// ModuleConfig returns the scan configuration for the source file at path.
// Modules the host provides at runtime are added here rather than to the
// registry.
func (m *Manifest) ModuleConfig(path string) compiler.ModuleConfig {
	cfg := compiler.ModuleConfig{
		File:       m.Relative(path),
		Decorators: m.Source.Decorators,
		Elements:   make(map[string]string, len(m.Elements)),
		Constants:  make(map[string]any),
		Modules:    make(map[string]compiler.Binding),
	}
	for name, tag := range m.Elements {
		cfg.Elements[name] = tag
	}
	for name, mod := range m.Modules {
		if !mod.Builtin {
			cfg.Modules[name] = compiler.ModuleRef(mod.JS, false, mod.Rename)
		}
	}
	return cfg
}

// Relative returns path relative to the project directory when it lies
// inside it, and path unchanged otherwise.
func (m *Manifest) Relative(path string) string {
	if rel, err := filepath.Rel(m.Dir, path); err == nil && filepath.IsLocal(rel) {
		return filepath.ToSlash(rel)
	}
	return path
}
