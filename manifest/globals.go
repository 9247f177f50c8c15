package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chazu/pyjs/compiler"
)

// Globals is a YAML overlay of extra closure bindings:
//
//	constants:
//	  API_ROOT: /api/v1
//	  LIMITS: {low: 0, high: 10}
//	modules:
//	  api: {js: window.api}
//	elements:
//	  Card: ui.Card
type Globals struct {
	Constants map[string]any
	Modules   map[string]Module
	Elements  map[string]string

	raw string
}

type globalsFile struct {
	Constants yaml.Node         `yaml:"constants"`
	Modules   map[string]Module `yaml:"modules"`
	Elements  map[string]string `yaml:"elements"`
}

// LoadGlobals reads a globals overlay file.
func LoadGlobals(path string) (*Globals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	g, err := ParseGlobals(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return g, nil
}

// ParseGlobals decodes a globals overlay. Mappings become ordered
// dictionaries so constants emit in document order.
func ParseGlobals(data []byte) (*Globals, error) {
	var f globalsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	g := &Globals{
		Constants: make(map[string]any),
		Modules:   f.Modules,
		Elements:  f.Elements,
		raw:       string(data),
	}
	for name, mod := range g.Modules {
		if mod.JS == "" {
			return nil, fmt.Errorf("module %q has no js expression", name)
		}
	}
	if f.Constants.Kind == 0 {
		return g, nil
	}
	if f.Constants.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: constants must be a mapping", f.Constants.Line)
	}
	for i := 0; i+1 < len(f.Constants.Content); i += 2 {
		name := f.Constants.Content[i].Value
		v, err := nodeValue(f.Constants.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", name, err)
		}
		g.Constants[name] = v
	}
	return g, nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		list := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case yaml.MappingNode:
		d := make(compiler.Dict, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			d = append(d, compiler.KV{Key: n.Content[i].Value, Value: v})
		}
		return d, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var v bool
			err := n.Decode(&v)
			return v, err
		case "!!int":
			var v int64
			err := n.Decode(&v)
			return v, err
		case "!!float":
			var v float64
			err := n.Decode(&v)
			return v, err
		}
		return n.Value, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

// Fingerprint returns the overlay's source text. A nil overlay has an
// empty fingerprint.
func (g *Globals) Fingerprint() string {
	if g == nil {
		return ""
	}
	return g.raw
}

// Apply adds the overlay's bindings to cfg. Overlay entries replace
// manifest entries of the same name.
func (g *Globals) Apply(cfg *compiler.ModuleConfig) {
	if cfg.Constants == nil {
		cfg.Constants = make(map[string]any)
	}
	if cfg.Modules == nil {
		cfg.Modules = make(map[string]compiler.Binding)
	}
	if cfg.Elements == nil {
		cfg.Elements = make(map[string]string)
	}
	for name, v := range g.Constants {
		cfg.Constants[name] = v
	}
	for name, mod := range g.Modules {
		cfg.Modules[name] = compiler.ModuleRef(mod.JS, mod.Builtin, mod.Rename)
	}
	for name, tag := range g.Elements {
		cfg.Elements[name] = tag
	}
}
