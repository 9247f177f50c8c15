package manifest

import (
	"path"
	"strings"

	"github.com/chazu/pyjs/compiler"
)

// ModuleName converts a slash-separated path relative to a source
// directory to a dotted Python module name.
// "app/views.py" -> "app.views", "app/__init__.py" -> "app"
func ModuleName(rel string) string {
	rel = strings.TrimSuffix(path.Clean(rel), ".py")
	rel = strings.TrimSuffix(rel, "/__init__")
	if rel == "__init__" || rel == "." {
		return ""
	}
	return strings.ReplaceAll(rel, "/", ".")
}

// isPackage reports whether the file at rel defines a package.
func isPackage(rel string) bool {
	return path.Base(rel) == "__init__.py"
}

// ResolveRelative resolves a possibly relative import module name against
// the module doing the import; pkg reports whether the importer is a
// package's __init__. It reports false when the dots climb above the
// top-level package.
// ResolveRelative("app.views", false, ".util") -> "app.util"
func ResolveRelative(importer string, pkg bool, module string) (string, bool) {
	dots := len(module) - len(strings.TrimLeft(module, "."))
	if dots == 0 {
		return module, true
	}
	var parts []string
	if importer != "" {
		parts = strings.Split(importer, ".")
	}
	if !pkg && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	up := dots - 1
	if up > len(parts) {
		return "", false
	}
	parts = parts[:len(parts)-up]
	if rest := module[dots:]; rest != "" {
		parts = append(parts, rest)
	}
	return strings.Join(parts, "."), true
}

// IsReservedModule reports whether the root segment of name is a
// namespace the registry provides, which a project module would shadow.
// "math.stats" is reserved because "math" is; "mathx" is fine.
func IsReservedModule(reg *compiler.Registry, name string) bool {
	root := name
	if idx := strings.Index(name, "."); idx >= 0 {
		root = name[:idx]
	}
	_, ok := reg.Module(root)
	return ok
}
