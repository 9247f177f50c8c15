package manifest

import (
	"testing"

	"github.com/chazu/pyjs/compiler"
)

func TestModuleName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"views.py", "views"},
		{"app/views.py", "app.views"},
		{"app/__init__.py", "app"},
		{"app/ui/cards.py", "app.ui.cards"},
		{"./app/util.py", "app.util"},
		{"__init__.py", ""},
	}

	for _, tc := range tests {
		got := ModuleName(tc.input)
		if got != tc.want {
			t.Errorf("ModuleName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		importer string
		pkg      bool
		module   string
		want     string
		ok       bool
	}{
		{"app.views", false, "util", "util", true},
		{"app.views", false, ".util", "app.util", true},
		{"app.views", false, ".", "app", true},
		{"app.ui.cards", false, "..util", "app.util", true},
		{"app", true, ".util", "app.util", true},
		{"app", true, "..util", "util", true},
		{"views", false, ".util", "util", true},
		{"views", false, "..util", "", false},
	}

	for _, tc := range tests {
		got, ok := ResolveRelative(tc.importer, tc.pkg, tc.module)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ResolveRelative(%q, %v, %q) = %q, %v, want %q, %v",
				tc.importer, tc.pkg, tc.module, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsReservedModule(t *testing.T) {
	reg := compiler.DefaultRegistry()
	tests := []struct {
		name string
		want bool
	}{
		{"math", true},
		{"json", true},
		{"math.stats", true},
		{"mathx", false},
		{"app.math", false},
	}

	for _, tc := range tests {
		got := IsReservedModule(reg, tc.name)
		if got != tc.want {
			t.Errorf("IsReservedModule(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
