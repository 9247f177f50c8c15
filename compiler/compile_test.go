package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dop251/goja"
)

// def builds a Function from source text; its ID is test.py:1:name.
func def(name, src string, globals map[string]Binding) *Function {
	return &Function{Name: name, Source: src, File: "test.py", Line: 1, Globals: globals}
}

func bundle(t *testing.T, s *Session, fns ...*Function) *Bundle {
	t.Helper()
	b, err := s.Bundle(fns...)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	return b
}

// run executes code followed by expr and returns expr as JSON text.
func run(t *testing.T, code, expr string) string {
	t.Helper()
	vm := goja.New()
	v, err := vm.RunString(code + "\nJSON.stringify(" + expr + ");")
	if err != nil {
		t.Fatalf("run %s: %v\n%s", expr, err, code)
	}
	return v.String()
}

// eachMode runs f once with shape inference on and once with it off.
func eachMode(t *testing.T, f func(t *testing.T, s *Session)) {
	for _, on := range []bool{true, false} {
		t.Run(fmt.Sprintf("shapes=%v", on), func(t *testing.T) {
			f(t, NewSession(WithShapeInference(on)))
		})
	}
}

func TestCompileExactOutput(t *testing.T) {
	s := NewSession()
	res, err := s.Compile(def("add", "def add(a, b):\n    return a + b\n", nil))
	if err != nil {
		t.Fatal(err)
	}
	want := "function add(a, b) {\n  return a + b;\n}\n"
	if res.Code != want {
		t.Errorf("code = %q, want %q", res.Code, want)
	}
	if res.ExternalName != "add" {
		t.Errorf("external name = %q, want add", res.ExternalName)
	}
	if len(res.ContentHash) != 64 {
		t.Errorf("content hash = %q", res.ContentHash)
	}
}

func TestCompileRuns(t *testing.T) {
	tests := []struct {
		name string
		src  string
		expr string
		want string
	}{
		{"recursion", "def fact(n):\n    return 1 if n <= 1 else n * fact(n - 1)\n", "fact(5)", "120"},
		{"builtins", `def stats(xs):
    return [len(xs), min(xs), max(xs), sum(xs), sorted(xs, reverse=True), list(range(1, 4)),
            [i * v for i, v in enumerate(xs)], any(v > 2 for v in xs), round(2.5), round(3.5)]
`, "stats([3, 1, 2])", "[3,1,3,6,[3,2,1],[1,2,3],[0,1,4],true,2,4]"},
		{"unpacking", `def swap_sum(pairs):
    total = 0
    for a, b in pairs:
        total += a - b
    x, y = 1, 2
    x, y = y, x
    return [total, x, y]
`, "swap_sum([[5, 1], [3, 3]])", "[4,2,1]"},
		{"mutation", `def mutated():
    xs = [3, 1, 2]
    xs.append(4)
    xs.remove(1)
    xs.sort()
    xs.reverse()
    return xs
`, "mutated()", "[4,3,2]"},
		{"pop", `def pops():
    xs = [1, 2, 3]
    d = {"a": 1, "b": 2}
    s = {5}
    return [xs.pop(), xs.pop(0), d.pop("a"), d.pop("zz", 9), s.pop(), xs, d]
`, "pops()", `[3,1,1,9,5,[2],{"b":2}]`},
		{"membership", "def has(x, y):\n    return x in y\n",
			`[has(2, [1, 2]), has("b", "abc"), has(3, new Set([3])), has(1, new Map([[1, 2]])), has("k", {k: 1}), has("toString", {}), has(4, [1])]`,
			"[true,true,true,true,true,false,false]"},
		{"literal membership", `def lits():
    return [2 in [1, 2], "b" in "abc", 3 in {3}, "k" in {"k": 1}, "z" in {"k": 1}, 1 not in [1]]
`, "lits()", "[true,true,true,true,false,false]"},
		{"mutators return None", `def muts():
    xs = [3, 1, 2]
    s = {1}
    d = {"a": 1}
    return [xs.append(4), xs.extend([5]), xs.insert(0, 0), xs.remove(3), xs.reverse(), xs.sort(),
            s.add(2), s.discard(1), s.update([7]), d.update({"b": 2}), d.clear(), xs.clear(), s.clear(),
            [1].append(2), {1}.add(2), {"a": 1}.update({"b": 2})]
`, "muts().every((v) => v === undefined)", "true"},
		{"reserved parameter", "def h(new):\n    return new + 1\n", "h(1)", "2"},
		{"rounding ties", "def r(x, n):\n    return round(x, n)\n",
			"[r(0.125, 2), r(0.375, 2), r(2.5, 0), r(1.5, 0), r(0.1, 1)]", "[0.12,0.38,2,2,0.1]"},
		{"string extremes", "def ext(a, b):\n    return [min(a, b), max(a, b), min(\"b\", \"a\"), max(3, 7)]\n",
			`ext("b", "a")`, `["a","b","a",7]`},
		{"floor modulo", `def mods(a, b):
    c = a
    c %= b
    return [a % b, a // b, (a // b) * b + a % b, c, (0 - 1) % 5]
`, "mods(-7, 2)", "[1,-4,-7,1,4]"},
		{"map subscripts", `def lookup(d, k):
    d[k] = d[k] + 1
    d["n"] = 5
    d["n"] += 1
    return [d["k"], d[k], d["n"]]
`, `lookup(new Map([["k", 1]]), "k")`, "[2,2,6]"},
		{"dict subscripts", `def lookup(d, k):
    d[k] = d[k] + 1
    d["n"] = 5
    d["n"] += 1
    return [d["k"], d[k], d["n"]]
`, `lookup({k: 1}, "k")`, "[2,2,6]"},
		{"count empty needle", "def cnt(s, sub):\n    return [s.count(sub), \"aaa\".count(\"\"), \"banana\".count(\"an\")]\n",
			`cnt("aaa", "")`, "[4,4,2]"},
		{"chained comparison", "def between(a, x, b):\n    return a < x <= b\n", "[between(1, 2, 3), between(1, 4, 3)]", "[true,false]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eachMode(t, func(t *testing.T, s *Session) {
				b := bundle(t, s, def("", tt.src, nil))
				if got := run(t, b.Code, tt.expr); got != tt.want {
					t.Errorf("%s = %s, want %s\n%s", tt.expr, got, tt.want, b.Code)
				}
			})
		})
	}
}

func TestCompileKeywordArguments(t *testing.T) {
	globals := map[string]Binding{}
	area := &Function{Name: "area", File: "shapes.py", Line: 1, Globals: globals,
		Source: "def area(w, h=2, scale=1):\n    return w * h * scale\n"}
	use := &Function{Name: "use", File: "shapes.py", Line: 4, Globals: globals,
		Source: "def use():\n    return [area(3), area(3, scale=10), area(w=2, h=5)]\n"}
	globals["area"] = FunctionRef(area)
	globals["use"] = FunctionRef(use)

	b := bundle(t, NewSession(), use)
	if got := run(t, b.Code, "use()"); got != "[6,60,10]" {
		t.Errorf("use() = %s\n%s", got, b.Code)
	}
	if want := []string{"area", "use"}; strings.Join(b.Functions, ",") != strings.Join(want, ",") {
		t.Errorf("functions = %v, want %v", b.Functions, want)
	}
}

func TestCompilePrecedence(t *testing.T) {
	b := bundle(t, NewSession(), def("f", "def f(a, b, c, x):\n    return a and b or c, 2 ** -x\n", nil))
	for _, want := range []string{"a && b || c", "2 ** (-x)"} {
		if !strings.Contains(b.Code, want) {
			t.Errorf("missing %q in\n%s", want, b.Code)
		}
	}
}

func TestCompileNameAllocation(t *testing.T) {
	h1 := &Function{Name: "helper", File: "a.py", Line: 1, Source: "def helper():\n    return 1\n"}
	h2 := &Function{Name: "helper", File: "b.py", Line: 1, Source: "def helper():\n    return 2\n"}
	main := def("main", "def main():\n    return [helper(), other(), Math + LIMIT + SAME]\n", map[string]Binding{
		"helper": FunctionRef(h1),
		"other":  FunctionRef(h2),
		"Math":   Constant(3),
		"LIMIT":  Constant(10),
		"SAME":   Constant(10),
	})

	b := bundle(t, NewSession(), main)
	if got := run(t, b.Code, "main()"); got != "[1,2,23]" {
		t.Fatalf("main() = %s\n%s", got, b.Code)
	}
	for _, want := range []string{"function helper()", "function helper_2()", "const Math_2 = 3;", "const LIMIT = 10;"} {
		if !strings.Contains(b.Code, want) {
			t.Errorf("missing %q in\n%s", want, b.Code)
		}
	}
	if strings.Contains(b.Code, "SAME") {
		t.Errorf("identical constant emitted twice:\n%s", b.Code)
	}
	if got := b.ExternalNames[main.key()]; got != "main" {
		t.Errorf("external name = %q, want main", got)
	}
}

func TestBundleDeterminism(t *testing.T) {
	globals := map[string]Binding{"LIMIT": Constant(5)}
	clamp := &Function{Name: "clamp", File: "m.py", Line: 1, Globals: globals,
		Source: "def clamp(x):\n    return min(x, LIMIT)\n"}
	first := &Function{Name: "first", File: "m.py", Line: 4, Globals: globals,
		Source: "def first(xs):\n    return clamp(xs[0])\n"}
	last := &Function{Name: "last", File: "m.py", Line: 7, Globals: globals,
		Source: "def last(xs):\n    return clamp(xs[-1])\n"}
	globals["clamp"] = FunctionRef(clamp)

	a := bundle(t, NewSession(), first, last)
	b := bundle(t, NewSession(), last, first)
	if a.Code != b.Code || a.ContentHash != b.ContentHash {
		t.Errorf("root order changed output:\n%s\n---\n%s", a.Code, b.Code)
	}
	if strings.Count(a.Code, "function clamp(") != 1 {
		t.Errorf("shared dependency not emitted once:\n%s", a.Code)
	}

	s := NewSession()
	c := bundle(t, s, first, last)
	if again := bundle(t, s, last, first); again != c {
		t.Error("bundle cache missed for the same root set")
	}
}

func TestConcurrentCompile(t *testing.T) {
	s := NewSession()
	fn := def("sq", "def sq(x):\n    return x * x\n", nil)
	results := make([]*Result, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.Compile(fn)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()
	for _, r := range results[1:] {
		if r == nil || results[0] == nil || r.Code != results[0].Code {
			t.Fatal("concurrent compiles disagree")
		}
	}
}

func TestDigestTracksDependencies(t *testing.T) {
	digest := func(limit int) [32]byte {
		s := NewSession()
		fn := def("f", "def f(x):\n    return x + LIMIT\n", map[string]Binding{"LIMIT": Constant(limit)})
		bundle(t, s, fn)
		cf, ok := s.Lookup(fn)
		if !ok {
			t.Fatal("compiled function not cached")
		}
		return cf.Digest
	}
	if digest(1) != digest(1) {
		t.Error("digest not stable across sessions")
	}
	if digest(1) == digest(2) {
		t.Error("digest ignores constant value")
	}
}

func TestCompileModuleAttribute(t *testing.T) {
	fn := def("area", "def area(r):\n    return math.pi * r ** 2\n", map[string]Binding{
		"math": ModuleRef("Math", true, map[string]string{"pi": "PI"}),
	})
	b := bundle(t, NewSession(), fn)
	if got := run(t, b.Code, "area(1) === Math.PI"); got != "true" {
		t.Errorf("area(1) = %s\n%s", got, b.Code)
	}
	if len(b.Modules) != 0 {
		t.Errorf("builtin namespace listed as external: %v", b.Modules)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		globals map[string]Binding
		code    Code
	}{
		{"matmul", "def f(x):\n    return x @ x\n", nil, UnsupportedOperator},
		{"nested unpacking", "def f(xs):\n    a, (b, c) = xs\n    return a\n", nil, UnsupportedUnpacking},
		{"unknown method", "def f(xs):\n    return xs.frobnicate()\n", nil, UnsupportedMethod},
		{"unregistered builtin", "def f(x):\n    return hex(x)\n", nil, UnsupportedBuiltin},
		{"unbound", "def f():\n    return nope\n", nil, UnboundName},
		{"comprehension variable", "def f(xs):\n    ys = [v for v in xs]\n    return v\n", nil, UnboundName},
		{"opaque global", "def f():\n    return db\n", map[string]Binding{"db": Opaque("a database handle")}, UnsupportedGlobalKind},
		{"dynamic spec", "def f(x, w):\n    return f\"{x:{w}}\"\n", nil, DynamicFormatSpec},
		{"bad spec", "def f(x):\n    return f\"{x:q}\"\n", nil, InvalidFormatSpec},
		{"try", "def f(x):\n    try:\n        pass\n    except E:\n        pass\n", nil, UnsupportedSyntax},
		{"while else", "def f(x):\n    while x:\n        pass\n    else:\n        pass\n", nil, UnsupportedSyntax},
		{"kwargs parameter", "def f(**kw):\n    return 1\n", nil, UnsupportedSyntax},
		{"slice step", "def f(x):\n    return x[::2]\n", nil, UnsupportedSyntax},
		{"yield", "def f():\n    yield 1\n", nil, UnsupportedSyntax},
		{"parse", "def f(:\n", nil, ParseError},
		{"refinalized element", "def f():\n    return Tag(a=1)[\"x\"](\"y\")\n", map[string]Binding{"Tag": Element("Tag")}, ElementAlreadyFinalized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession().Bundle(def("f", tt.src, tt.globals))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCompileErrorPosition(t *testing.T) {
	fn := &Function{Name: "f", File: "app.py", Line: 10, Source: "def f():\n    return nope\n"}
	_, err := NewSession().Compile(fn)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if e.Pos.File != "app.py" || e.Pos.Line != 11 || e.Construct != "nope" {
		t.Errorf("diagnostic = %+v", e)
	}
}

func TestExtractErrors(t *testing.T) {
	_, err := NewSession().Compile(&Function{Name: "f"})
	if !errors.Is(err, SourceUnavailable) {
		t.Errorf("missing source: err = %v", err)
	}
	_, err = NewSession().Compile(def("f", "def g():\n    pass\n", nil))
	if !errors.Is(err, NoFunctionDefFound) {
		t.Errorf("wrong def: err = %v", err)
	}
	_, err = NewSession().Compile(&Function{Name: "f", Load: func() (string, error) {
		return "", errors.New("no such file")
	}})
	if !errors.Is(err, SourceUnavailable) {
		t.Errorf("failed load: err = %v", err)
	}
}

func TestCyclicDependency(t *testing.T) {
	globals := map[string]Binding{}
	a := &Function{Name: "a", File: "c.py", Line: 1, Globals: globals, Source: "def a(n):\n    return b(n)\n"}
	b := &Function{Name: "b", File: "c.py", Line: 4, Globals: globals, Source: "def b(n):\n    return a(n)\n"}
	globals["a"] = FunctionRef(a)
	globals["b"] = FunctionRef(b)

	s := NewSession()
	out, err := s.Bundle(a)
	if !errors.Is(err, CyclicDependency) {
		t.Fatalf("err = %v, want CyclicDependency", err)
	}
	if out != nil {
		t.Error("cyclic bundle produced output")
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("err = %v, want the cycle spelled out", err)
	}
}

func TestElementProps(t *testing.T) {
	fn := def("view", "def view(extra, items):\n    return Tag(a=1, **extra, b=2, class_=\"x\")[items]\n",
		map[string]Binding{"Tag": Element("Tag")})
	b := bundle(t, NewSession(), fn)
	if want := `<Tag a={1} {...extra} b={2} class={"x"}>`; !strings.Contains(b.Code, want) {
		t.Errorf("missing %q in\n%s", want, b.Code)
	}

	bare := def("bare", "def bare():\n    return Tag(a=1)\n", map[string]Binding{"Tag": Element("Tag")})
	b = bundle(t, NewSession(), bare)
	if want := "<Tag a={1} />"; !strings.Contains(b.Code, want) {
		t.Errorf("missing %q in\n%s", want, b.Code)
	}
}

func TestDedent(t *testing.T) {
	got, n := Dedent("    def f():\n        return 1\n")
	if got != "def f():\n    return 1\n" || n != 4 {
		t.Errorf("Dedent = %q, %d", got, n)
	}
}

// quote renders want as JSON.stringify would for ASCII text.
func quote(want string) string { return strconv.Quote(want) }
