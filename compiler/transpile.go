package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/pyjs/jsast"
	"github.com/chazu/pyjs/syntax"
)

// ---------------------------------------------------------------------------
// Statement/expression transpiler
// ---------------------------------------------------------------------------

// Options tune code generation.
type Options struct {
	// ShapeInference lets the dispatcher skip runtime shape guards on
	// receivers whose shape is evident from the source (fresh displays,
	// comprehensions, constructor calls). It never changes behaviour.
	ShapeInference bool
}

// scope maps the Python names visible in one function, lambda or
// comprehension to their JS names.
type scope struct {
	names  map[string]string
	defs   map[string]*syntax.FuncDef // nested defs bound exactly once
	binds  *bindings                  // function scopes only
	params map[string]bool
}

// transpiler turns one SourceFunction into a jsast function. It is used
// once and discarded.
type transpiler struct {
	sf   *SourceFunction
	reg  *Registry
	opts Options
	deps map[string]*Dependency

	scopes   []*scope
	taken    map[string]bool // Python names spelled anywhere in the def
	reserved map[string]bool // JS names locals must avoid
	ntemp    int
}

// transpile compiles sf against its resolved dependencies.
func transpile(sf *SourceFunction, deps map[string]*Dependency, reg *Registry, opts Options) (fn *jsast.Function, err error) {
	t := &transpiler{
		sf:       sf,
		reg:      reg,
		opts:     opts,
		deps:     deps,
		taken:    allNames(sf.Def),
		reserved: make(map[string]bool),
	}
	for _, d := range deps {
		switch d.Kind {
		case DepModule:
			t.reserved[rootName(d.Module.JS)] = true
		case DepElement:
			if d.Tag != "" {
				t.reserved[rootName(d.Tag)] = true
			}
		}
	}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			fn, err = nil, b.err
		}
	}()
	return t.function(sf.Def), nil
}

// rootName is the leading identifier of a dotted JS path.
func rootName(p string) string {
	if i := strings.IndexByte(p, '.'); i >= 0 {
		return p[:i]
	}
	return p
}

// fail aborts the walk with a diagnostic located at node.
func (t *transpiler) fail(node syntax.Node, code Code, construct, format string, args ...interface{}) {
	var pos Pos
	if node != nil {
		pos = t.sf.pos(node.Span().Start)
	} else {
		pos = Pos{File: t.sf.Fn.File, Line: t.sf.Fn.Line}
	}
	e := errorf(code, pos, construct, format, args...)
	e.Func = t.sf.Def.Name
	panic(bailout{err: e})
}

// temp allocates a fresh temporary.
func (t *transpiler) temp() string {
	t.ntemp++
	return "$" + strconv.Itoa(t.ntemp)
}

func (t *transpiler) builtinNamed(name string) *builtin {
	if _, local := t.lookupLocal(name); local {
		return nil
	}
	if d, ok := t.deps[name]; ok && d.Kind != DepBuiltin {
		return nil
	}
	return t.reg.builtins[name]
}

// ---------------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------------

// localName picks the JS name of a Python local.
func (t *transpiler) localName(name string) string {
	js := name
	if !jsast.IsReserved(js) && !t.reserved[js] {
		return js
	}
	for jsast.IsReserved(js) || t.reserved[js] || (js != name && t.taken[js]) {
		js += "_"
	}
	return js
}

func (t *transpiler) push(sc *scope) { t.scopes = append(t.scopes, sc) }

func (t *transpiler) pop() { t.scopes = t.scopes[:len(t.scopes)-1] }

// fnScope returns the innermost function scope.
func (t *transpiler) fnScope() *scope {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if t.scopes[i].binds != nil {
			return t.scopes[i]
		}
	}
	return nil
}

func (t *transpiler) lookupLocal(name string) (string, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if js, ok := t.scopes[i].names[name]; ok {
			return js, true
		}
	}
	return "", false
}

// nestedDef returns the signature of a local def bound exactly once.
func (t *transpiler) nestedDef(name string) *syntax.FuncDef {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		sc := t.scopes[i]
		if _, ok := sc.names[name]; ok {
			return sc.defs[name]
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

func (t *transpiler) function(def *syntax.FuncDef) *jsast.Function {
	if def.Async {
		t.fail(def, UnsupportedSyntax, "async", "async functions are not supported")
	}
	if len(def.Decorators) > 0 {
		t.fail(def.Decorators[0], UnsupportedSyntax, "decorator", "decorators on nested functions are not supported")
	}
	params := t.params(def.Params)

	binds := collectBindings(def.Body)
	isParam := make(map[string]bool)
	sc := &scope{names: make(map[string]string), defs: make(map[string]*syntax.FuncDef), binds: binds, params: isParam}
	for _, p := range def.Params {
		isParam[p.Name] = true
		sc.names[p.Name] = t.localName(p.Name)
	}
	var hoisted []string
	for _, name := range binds.order {
		if isParam[name] {
			continue
		}
		js := t.localName(name)
		sc.names[name] = js
		if binds.info[name].declaration() == declHoisted {
			hoisted = append(hoisted, js)
		}
	}
	for i, p := range def.Params {
		params[i].Name = sc.names[p.Name]
	}
	for _, st := range def.Body {
		if d, ok := st.(*syntax.FuncDef); ok && !isParam[d.Name] && binds.info[d.Name].declaration() == declFunction {
			sc.defs[d.Name] = d
		}
	}

	t.push(sc)
	defer t.pop()

	var body []jsast.Stmt
	if len(hoisted) > 0 {
		body = append(body, &jsast.Let{Names: hoisted})
	}
	body = append(body, t.stmts(def.Body)...)
	return &jsast.Function{Params: params, Body: body}
}

// params translates parameter lists. Defaults are evaluated in the
// enclosing scope; names are filled in by the caller.
func (t *transpiler) params(list []*syntax.Param) []jsast.Param {
	out := make([]jsast.Param, len(list))
	sawVarArgs := false
	for i, p := range list {
		switch p.Kind {
		case syntax.ParamKwArgs:
			t.fail(p, UnsupportedSyntax, "**"+p.Name, "**kwargs parameters are not supported")
		case syntax.ParamVarArgs:
			sawVarArgs = true
			out[i].Rest = true
		default:
			if sawVarArgs {
				t.fail(p, UnsupportedSyntax, p.Name, "keyword-only parameters after *args are not supported")
			}
		}
		if p.Default != nil {
			out[i].Default = t.expr(p.Default)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (t *transpiler) stmts(list []syntax.Stmt) []jsast.Stmt {
	var out []jsast.Stmt
	for _, st := range list {
		out = append(out, t.stmt(st)...)
	}
	return out
}

func (t *transpiler) stmt(st syntax.Stmt) []jsast.Stmt {
	switch s := st.(type) {
	case *syntax.FuncDef:
		return t.nestedFunction(s)
	case *syntax.Return:
		if s.Value == nil {
			return []jsast.Stmt{&jsast.Return{}}
		}
		return []jsast.Stmt{&jsast.Return{Value: t.expr(s.Value)}}
	case *syntax.Assign:
		return t.assign(s, s.Targets, s.Value)
	case *syntax.AnnAssign:
		if s.Value == nil {
			return nil
		}
		return t.assign(s, []syntax.Expr{s.Target}, s.Value)
	case *syntax.AugAssign:
		return t.augAssign(s)
	case *syntax.ExprStmt:
		switch s.X.(type) {
		case *syntax.StringLit, *syntax.EllipsisLit:
			return nil
		}
		return []jsast.Stmt{&jsast.ExprStmt{X: dropResult(t.expr(s.X))}}
	case *syntax.If:
		return []jsast.Stmt{&jsast.If{Test: t.expr(s.Cond), Then: t.stmts(s.Body), Else: t.stmts(s.Else)}}
	case *syntax.While:
		if len(s.Else) > 0 {
			t.fail(s, UnsupportedSyntax, "while/else", "while/else is not supported")
		}
		return []jsast.Stmt{&jsast.While{Test: t.expr(s.Cond), Body: t.stmts(s.Body)}}
	case *syntax.For:
		return t.forLoop(s)
	case *syntax.Break:
		return []jsast.Stmt{&jsast.Break{}}
	case *syntax.Continue:
		return []jsast.Stmt{&jsast.Continue{}}
	case *syntax.Pass:
		return nil
	case *syntax.Import, *syntax.ImportFrom:
		t.fail(s, UnsupportedSyntax, "import", "imports inside a function are not supported")
	case *syntax.Unsupported:
		t.fail(s, UnsupportedSyntax, s.Keyword, "%s statements are not supported", s.Keyword)
	}
	t.fail(st, UnsupportedSyntax, fmt.Sprintf("%T", st), "unsupported statement")
	return nil
}

// dropResult strips the trailing undefined of a None-returning call used
// as a statement.
func dropResult(x jsast.Expr) jsast.Expr {
	seq, ok := x.(*jsast.Sequence)
	if !ok || len(seq.Exprs) < 2 {
		return x
	}
	if _, ok := seq.Exprs[len(seq.Exprs)-1].(*jsast.Undefined); !ok {
		return x
	}
	if len(seq.Exprs) == 2 {
		return seq.Exprs[0]
	}
	return &jsast.Sequence{Exprs: seq.Exprs[:len(seq.Exprs)-1]}
}

// hoist moves a non-simple x into a const temporary emitted to pre.
func (t *transpiler) hoist(pre *[]jsast.Stmt, x jsast.Expr) jsast.Expr {
	if isSimple(x) {
		return x
	}
	tmp := t.temp()
	*pre = append(*pre, &jsast.Assign{Declare: jsast.DeclConst, Target: ident(tmp), Value: x})
	return ident(tmp)
}

func (t *transpiler) nestedFunction(def *syntax.FuncDef) []jsast.Stmt {
	js, _ := t.lookupLocal(def.Name)
	fn := t.function(def)
	if t.fnScope().defs[def.Name] == def {
		fn.Name = js
		return []jsast.Stmt{&jsast.FuncDecl{Func: fn}}
	}
	return []jsast.Stmt{&jsast.Assign{Target: ident(js), Value: fn}}
}

// declareKind reports whether the assignment st introduces name inline.
func (t *transpiler) declareKind(name string, st syntax.Stmt) jsast.DeclKind {
	sc := t.fnScope()
	info, ok := sc.binds.info[name]
	if ok && !sc.params[name] && info.first == st && info.declaration() == declInline {
		return jsast.DeclLet
	}
	return jsast.DeclNone
}

func (t *transpiler) assign(st syntax.Stmt, targets []syntax.Expr, value syntax.Expr) []jsast.Stmt {
	if len(targets) == 1 {
		return t.store(st, targets[0], t.expr(value), value)
	}
	// a = b = value evaluates value once.
	tmp := t.temp()
	out := []jsast.Stmt{&jsast.Assign{Declare: jsast.DeclConst, Target: ident(tmp), Value: t.expr(value)}}
	for _, target := range targets {
		out = append(out, t.store(st, target, ident(tmp), nil)...)
	}
	return out
}

// store assigns v to target. src is the source of v when known, used to
// skip the array view of literal tuples.
func (t *transpiler) store(st syntax.Stmt, target syntax.Expr, v jsast.Expr, src syntax.Expr) []jsast.Stmt {
	switch x := target.(type) {
	case *syntax.Name:
		js := t.localRef(x)
		return []jsast.Stmt{&jsast.Assign{Declare: t.declareKind(x.Id, st), Target: ident(js), Value: v}}
	case *syntax.Attribute:
		return []jsast.Stmt{&jsast.Assign{Target: member(t.expr(x.X), x.Attr), Value: v}}
	case *syntax.Subscript:
		return t.storeSubscript(x, v)
	case *syntax.Tuple:
		return t.unpack(st, x.Elts, v, src)
	case *syntax.List:
		return t.unpack(st, x.Elts, v, src)
	case *syntax.Starred:
		t.fail(x, UnsupportedUnpacking, "*", "starred assignment targets are not supported")
	}
	t.fail(target, UnsupportedSyntax, "assignment", "cannot assign to this expression")
	return nil
}

// localRef is the JS name of a Python name being stored.
func (t *transpiler) localRef(n *syntax.Name) string {
	js, ok := t.lookupLocal(n.Id)
	if !ok {
		t.fail(n, UnboundName, n.Id, "name %q is not local", n.Id)
	}
	return js
}

func (t *transpiler) storeSubscript(x *syntax.Subscript, v jsast.Expr) []jsast.Stmt {
	if _, ok := x.Index.(*syntax.Slice); ok {
		t.fail(x, UnsupportedSyntax, "slice assignment", "slice assignment is not supported")
	}
	if el := t.elementOf(x.X); el != nil {
		t.fail(x, UnsupportedSyntax, "element", "cannot assign into a UI element")
	}
	obj := t.expr(x.X)
	if n, ok := negativeIndex(x.Index); ok {
		var pre []jsast.Stmt
		obj = t.hoist(&pre, obj)
		target := index(obj, bin("-", member(obj, "length"), num(float64(n))))
		return append(pre, &jsast.Assign{Target: target, Value: v})
	}
	key := t.expr(x.Index)
	switch t.knownShape(x.X) {
	case ShapeArray, ShapeDict:
		return []jsast.Stmt{&jsast.Assign{Target: index(obj, key), Value: v}}
	case ShapeMap:
		return []jsast.Stmt{&jsast.ExprStmt{X: invoke(obj, "set", key, v)}}
	}
	var pre []jsast.Stmt
	obj = t.hoist(&pre, obj)
	key = t.hoist(&pre, key)
	return append(pre, &jsast.If{
		Test: guard(ShapeMap, obj),
		Then: []jsast.Stmt{&jsast.ExprStmt{X: invoke(obj, "set", key, v)}},
		Else: []jsast.Stmt{&jsast.Assign{Target: index(obj, key), Value: v}},
	})
}

// negativeIndex recognises a literal negative integer -n.
func negativeIndex(e syntax.Expr) (int64, bool) {
	u, ok := e.(*syntax.UnaryOp)
	if !ok || u.Op != "-" {
		return 0, false
	}
	lit, ok := u.X.(*syntax.IntLit)
	if !ok || lit.Value <= 0 {
		return 0, false
	}
	return lit.Value, true
}

// unpack assigns the elements of v to flat name targets through a
// temporary.
func (t *transpiler) unpack(st syntax.Stmt, elts []syntax.Expr, v jsast.Expr, src syntax.Expr) []jsast.Stmt {
	t.checkFlat(elts)
	switch src.(type) {
	case *syntax.Tuple, *syntax.List:
	default:
		v = t.arrayOf(v, ShapeUnknown, false)
	}
	tmp := t.temp()
	out := []jsast.Stmt{&jsast.Assign{Declare: jsast.DeclConst, Target: ident(tmp), Value: v}}
	return append(out, t.unpackFrom(elts, ident(tmp))...)
}

// unpackFrom assigns the elements of the array arr to name targets.
func (t *transpiler) unpackFrom(elts []syntax.Expr, arr jsast.Expr) []jsast.Stmt {
	out := make([]jsast.Stmt, len(elts))
	for i, e := range elts {
		out[i] = &jsast.Assign{Target: ident(t.localRef(e.(*syntax.Name))), Value: index(arr, num(float64(i)))}
	}
	return out
}

// checkFlat rejects nested and starred unpacking targets.
func (t *transpiler) checkFlat(elts []syntax.Expr) {
	for _, e := range elts {
		switch e.(type) {
		case *syntax.Name:
		case *syntax.Starred:
			t.fail(e, UnsupportedUnpacking, "*", "starred unpacking is not supported")
		default:
			t.fail(e, UnsupportedUnpacking, "nested", "only flat name targets can be unpacked")
		}
	}
}

var augOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"<<": true, ">>": true, "|": true, "&": true, "^": true,
}

func (t *transpiler) augAssign(s *syntax.AugAssign) []jsast.Stmt {
	var target, mapObj, mapKey jsast.Expr
	var pre []jsast.Stmt
	switch x := s.Target.(type) {
	case *syntax.Name:
		target = ident(t.localRef(x))
	case *syntax.Attribute:
		target = member(t.hoist(&pre, t.expr(x.X)), x.Attr)
	case *syntax.Subscript:
		if _, ok := x.Index.(*syntax.Slice); ok {
			t.fail(x, UnsupportedSyntax, "slice assignment", "slice assignment is not supported")
		}
		obj := t.hoist(&pre, t.expr(x.X))
		var key jsast.Expr
		if n, ok := negativeIndex(x.Index); ok {
			key = bin("-", member(obj, "length"), num(float64(n)))
		} else {
			key = t.hoist(&pre, t.expr(x.Index))
			switch t.knownShape(x.X) {
			case ShapeArray, ShapeString, ShapeDict:
			default:
				mapObj, mapKey = obj, key
			}
		}
		target = index(obj, key)
	default:
		t.fail(s.Target, UnsupportedSyntax, "augmented assignment", "cannot assign to this expression")
	}
	if !augOps[s.Op] && s.Op != "//" {
		t.fail(s, UnsupportedOperator, s.Op+"=", "operator %s= is not supported", s.Op)
		return nil
	}

	value := t.expr(s.Value)
	var update jsast.Stmt
	switch {
	case s.Op == "//" || s.Op == "%":
		update = &jsast.Assign{Target: target, Value: t.arith(s.Op, target, value)}
	case s.Op == "+" && t.shapeOf(s.Value) == ShapeArray:
		update = &jsast.ExprStmt{X: invoke(target, "push", spread(value))}
	default:
		update = &jsast.AugAssign{Target: target, Op: s.Op, Value: value}
	}
	if mapObj == nil {
		return append(pre, update)
	}
	current := invoke(mapObj, "get", mapKey)
	next := t.arith(s.Op, current, value)
	if s.Op == "+" && t.shapeOf(s.Value) == ShapeArray {
		next = invoke(current, "concat", value)
	}
	return append(pre, &jsast.If{
		Test: guard(ShapeMap, mapObj),
		Then: []jsast.Stmt{&jsast.ExprStmt{X: invoke(mapObj, "set", mapKey, next)}},
		Else: []jsast.Stmt{update},
	})
}

// arith applies a Python arithmetic operator. Floor division and modulo
// round toward negative infinity.
func (t *transpiler) arith(op string, a, b jsast.Expr) jsast.Expr {
	switch op {
	case "//":
		return call(path("Math.floor"), bin("/", a, b))
	case "%":
		return bindValues(t.temp, []jsast.Expr{a, b}, func(r []jsast.Expr) jsast.Expr {
			return bin("%", bin("+", bin("%", r[0], r[1]), r[1]), r[1])
		})
	}
	return bin(binaryOps[op], a, b)
}

func (t *transpiler) forLoop(s *syntax.For) []jsast.Stmt {
	if len(s.Else) > 0 {
		t.fail(s, UnsupportedSyntax, "for/else", "for/else is not supported")
	}
	iter := t.arrayOf(t.expr(s.Iter), t.knownShape(s.Iter), false)
	switch target := s.Target.(type) {
	case *syntax.Name:
		body := t.stmts(s.Body)
		return []jsast.Stmt{&jsast.ForOf{Name: t.localRef(target), Iter: iter, Body: body}}
	case *syntax.Tuple, *syntax.List:
		var elts []syntax.Expr
		if tup, ok := target.(*syntax.Tuple); ok {
			elts = tup.Elts
		} else {
			elts = target.(*syntax.List).Elts
		}
		t.checkFlat(elts)
		tmp := t.temp()
		body := append(t.unpackFrom(elts, ident(tmp)), t.stmts(s.Body)...)
		return []jsast.Stmt{&jsast.ForOf{Declare: jsast.DeclConst, Name: tmp, Iter: iter, Body: body}}
	}
	t.fail(s.Target, UnsupportedUnpacking, "for target", "unsupported loop target")
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (t *transpiler) exprs(list []syntax.Expr) []jsast.Expr {
	out := make([]jsast.Expr, len(list))
	for i, e := range list {
		out[i] = t.expr(e)
	}
	return out
}

func (t *transpiler) expr(e syntax.Expr) jsast.Expr {
	switch x := e.(type) {
	case *syntax.Name:
		return t.name(x)
	case *syntax.IntLit:
		return num(float64(x.Value))
	case *syntax.FloatLit:
		return num(x.Value)
	case *syntax.StringLit:
		return str(x.Value)
	case *syntax.FString:
		return t.fstring(x)
	case *syntax.NoneLit:
		return &jsast.Null{}
	case *syntax.BoolLit:
		return &jsast.Bool{Value: x.Value}
	case *syntax.EllipsisLit:
		t.fail(x, UnsupportedSyntax, "...", "Ellipsis is not supported as a value")
	case *syntax.List:
		return array(t.elements(x.Elts)...)
	case *syntax.Tuple:
		return array(t.elements(x.Elts)...)
	case *syntax.Set:
		if len(x.Elts) == 0 {
			return newExpr("Set")
		}
		return newExpr("Set", array(t.elements(x.Elts)...))
	case *syntax.Dict:
		return t.dict(x)
	case *syntax.BinOp:
		return t.binOp(x)
	case *syntax.UnaryOp:
		return t.unaryOp(x)
	case *syntax.BoolOp:
		op := "&&"
		if x.Op == "or" {
			op = "||"
		}
		return &jsast.Logical{Op: op, Values: t.exprs(x.Values)}
	case *syntax.Compare:
		return t.compare(x)
	case *syntax.IfExp:
		return cond(t.expr(x.Cond), t.expr(x.Body), t.expr(x.Else))
	case *syntax.Lambda:
		return t.lambda(x)
	case *syntax.Call:
		return t.call(x)
	case *syntax.Attribute:
		return t.attribute(x)
	case *syntax.Subscript:
		return t.subscript(x)
	case *syntax.ListComp:
		return t.comprehension(x.Generators, func() jsast.Expr { return t.expr(x.Elt) })
	case *syntax.GeneratorExp:
		return t.comprehension(x.Generators, func() jsast.Expr { return t.expr(x.Elt) })
	case *syntax.SetComp:
		return newExpr("Set", t.comprehension(x.Generators, func() jsast.Expr { return t.expr(x.Elt) }))
	case *syntax.DictComp:
		pairs := t.comprehension(x.Generators, func() jsast.Expr { return array(t.expr(x.Key), t.expr(x.Value)) })
		return call(path("Object.fromEntries"), pairs)
	case *syntax.Starred:
		t.fail(x, UnsupportedSyntax, "*", "starred expression is not allowed here")
	case *syntax.Slice:
		t.fail(x, UnsupportedSyntax, ":", "slice is not allowed here")
	case *syntax.NamedExpr:
		t.fail(x, UnsupportedOperator, ":=", "assignment expressions are not supported")
	case *syntax.Yield:
		t.fail(x, UnsupportedSyntax, x.Keyword, "%s is not supported", x.Keyword)
	}
	t.fail(e, UnsupportedSyntax, fmt.Sprintf("%T", e), "unsupported expression")
	return nil
}

// elements translates display items; *x spreads the array view of x.
func (t *transpiler) elements(list []syntax.Expr) []jsast.Expr {
	out := make([]jsast.Expr, len(list))
	for i, e := range list {
		if s, ok := e.(*syntax.Starred); ok {
			out[i] = spread(t.arrayOf(t.expr(s.X), t.knownShape(s.X), false))
			continue
		}
		out[i] = t.expr(e)
	}
	return out
}

func (t *transpiler) dict(x *syntax.Dict) jsast.Expr {
	obj := &jsast.Object{}
	for i, k := range x.Keys {
		v := t.expr(x.Values[i])
		switch key := k.(type) {
		case nil:
			obj.Props = append(obj.Props, jsast.Property{Spread: true, Value: v})
		case *syntax.StringLit:
			obj.Props = append(obj.Props, jsast.Property{Key: key.Value, Value: v})
		default:
			obj.Props = append(obj.Props, jsast.Property{Computed: t.expr(k), Value: v})
		}
	}
	return obj
}

// name resolves a load of a Python name.
func (t *transpiler) name(n *syntax.Name) jsast.Expr {
	if js, ok := t.lookupLocal(n.Id); ok {
		return ident(js)
	}
	d := t.dep(n)
	switch d.Kind {
	case DepSelf, DepFunction, DepConstant:
		return &jsast.Ref{Key: d.Key, Hint: d.Name}
	case DepModule:
		return path(d.Module.JS)
	case DepElement:
		return t.finishElement(&element{tag: d.Tag})
	case DepBuiltin:
		b := t.reg.builtins[n.Id]
		if b.value == nil {
			t.fail(n, UnsupportedBuiltin, n.Id, "builtin %s cannot be used as a value", n.Id)
		}
		return b.value()
	}
	return nil
}

// dep returns the dependency a global name resolves to, failing on
// unbound and unsupported names.
func (t *transpiler) dep(n *syntax.Name) *Dependency {
	d, ok := t.deps[n.Id]
	if !ok {
		if pythonBuiltins[n.Id] {
			t.fail(n, UnsupportedBuiltin, n.Id, "builtin %s is not supported", n.Id)
		}
		t.fail(n, UnboundName, n.Id, "name %q is not defined", n.Id)
	}
	switch d.Kind {
	case DepUnbound:
		if pythonBuiltins[n.Id] {
			t.fail(n, UnsupportedBuiltin, n.Id, "builtin %s is not supported", n.Id)
		}
		t.fail(n, UnboundName, n.Id, "name %q is not defined", n.Id)
	case DepOpaque:
		t.fail(n, UnsupportedGlobalKind, n.Id, "global %s is %s", n.Id, d.Reason)
	}
	return d
}

var binaryOps = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%", "**": "**",
	"<<": "<<", ">>": ">>", "|": "|", "&": "&", "^": "^",
}

func (t *transpiler) binOp(x *syntax.BinOp) jsast.Expr {
	if x.Op == "//" {
		return t.arith("//", t.expr(x.X), t.expr(x.Y))
	}
	op, ok := binaryOps[x.Op]
	if !ok {
		t.fail(x, UnsupportedOperator, x.Op, "operator %s is not supported", x.Op)
	}
	left, right := t.shapeOf(x.X), t.shapeOf(x.Y)
	a, b := t.expr(x.X), t.expr(x.Y)
	switch {
	case x.Op == "+" && (left == ShapeArray || right == ShapeArray):
		return invoke(a, "concat", b)
	case x.Op == "*" && (left == ShapeArray || right == ShapeArray):
		seq, n := a, b
		if right == ShapeArray {
			seq, n = b, a
		}
		return t.repeat(seq, n, left == ShapeArray, func(s, k jsast.Expr) jsast.Expr {
			fill := arrow(nil, s)
			return invoke(call(path("Array.from"), &jsast.Object{Props: []jsast.Property{{Key: "length", Value: k}}}, fill), "flat")
		})
	case x.Op == "*" && (left == ShapeString || right == ShapeString):
		seq, n := a, b
		if right == ShapeString {
			seq, n = b, a
		}
		return t.repeat(seq, n, left == ShapeString, func(s, k jsast.Expr) jsast.Expr {
			return invoke(s, "repeat", call(path("Math.max"), num(0), k))
		})
	case x.Op == "%":
		return t.arith("%", a, b)
	}
	return bin(op, a, b)
}

// repeat evaluates seq and n in source order before building the
// repetition.
func (t *transpiler) repeat(seq, n jsast.Expr, seqFirst bool, build func(s, k jsast.Expr) jsast.Expr) jsast.Expr {
	values := []jsast.Expr{seq, n}
	if !seqFirst {
		values = []jsast.Expr{n, seq}
	}
	return bindValues(t.temp, values, func(r []jsast.Expr) jsast.Expr {
		if seqFirst {
			return build(r[0], r[1])
		}
		return build(r[1], r[0])
	})
}

func (t *transpiler) unaryOp(x *syntax.UnaryOp) jsast.Expr {
	switch x.Op {
	case "not":
		return not(t.expr(x.X))
	case "-", "+", "~":
		return &jsast.Unary{Op: x.Op, X: t.expr(x.X)}
	}
	t.fail(x, UnsupportedOperator, x.Op, "operator %s is not supported", x.Op)
	return nil
}

func (t *transpiler) compare(x *syntax.Compare) jsast.Expr {
	operands := append([]syntax.Expr{x.Left}, x.Comparators...)
	values := t.exprs(operands)
	if len(x.Ops) == 1 {
		return t.compareOp(x, x.Ops[0], operands[0], operands[1], values[0], values[1])
	}
	// Chains bind every operand but the last, which only the final link
	// reads.
	head := values[:len(values)-1]
	return bindValues(t.temp, head, func(r []jsast.Expr) jsast.Expr {
		vs := append(append([]jsast.Expr(nil), r...), values[len(values)-1])
		links := make([]jsast.Expr, len(x.Ops))
		for i, op := range x.Ops {
			links[i] = t.compareOp(x, op, operands[i], operands[i+1], vs[i], vs[i+1])
		}
		return and(links...)
	})
}

func (t *transpiler) compareOp(x *syntax.Compare, op string, ls, rs syntax.Expr, a, b jsast.Expr) jsast.Expr {
	_, lnone := ls.(*syntax.NoneLit)
	_, rnone := rs.(*syntax.NoneLit)
	switch op {
	case "==":
		return bin("===", a, b)
	case "!=":
		return bin("!==", a, b)
	case "<", "<=", ">", ">=":
		return bin(op, a, b)
	case "is":
		if lnone || rnone {
			return bin("==", a, b)
		}
		return bin("===", a, b)
	case "is not":
		if lnone || rnone {
			return bin("!=", a, b)
		}
		return bin("!==", a, b)
	case "in":
		return t.contains(a, b, t.knownShape(rs))
	case "not in":
		return not(t.contains(a, b, t.knownShape(rs)))
	}
	t.fail(x, UnsupportedOperator, op, "comparison %s is not supported", op)
	return nil
}

func (t *transpiler) lambda(x *syntax.Lambda) jsast.Expr {
	params := t.params(x.Params)
	sc := &scope{names: make(map[string]string)}
	for i, p := range x.Params {
		sc.names[p.Name] = t.localName(p.Name)
		params[i].Name = sc.names[p.Name]
	}
	t.push(sc)
	defer t.pop()
	return &jsast.Function{Arrow: true, Params: params, ExprBody: t.expr(x.Body)}
}

// attribute translates x.attr; namespace attributes are forwarded.
func (t *transpiler) attribute(x *syntax.Attribute) jsast.Expr {
	if mod, ok := t.moduleOf(x.X); ok {
		return member(path(mod.JS), moduleAttr(mod, x.Attr))
	}
	if el := t.elementOf(x.X); el != nil {
		t.fail(x, UnsupportedSyntax, x.Attr, "UI elements have no attributes")
	}
	return member(t.expr(x.X), x.Attr)
}

// moduleOf reports whether e names a transparent namespace.
func (t *transpiler) moduleOf(e syntax.Expr) (Binding, bool) {
	n, ok := e.(*syntax.Name)
	if !ok {
		return Binding{}, false
	}
	if _, local := t.lookupLocal(n.Id); local {
		return Binding{}, false
	}
	d, ok := t.deps[n.Id]
	if !ok || d.Kind != DepModule {
		return Binding{}, false
	}
	return d.Module, true
}

func moduleAttr(mod Binding, attr string) string {
	if js, ok := mod.Renames[attr]; ok {
		return js
	}
	return attr
}

func (t *transpiler) subscript(x *syntax.Subscript) jsast.Expr {
	if el := t.elementOf(x.X); el != nil {
		return t.elementChildren(x, el)
	}
	obj := t.expr(x.X)
	if sl, ok := x.Index.(*syntax.Slice); ok {
		if sl.Step != nil {
			t.fail(sl, UnsupportedSyntax, "::", "stepped slices are not supported")
		}
		switch {
		case sl.Lower == nil && sl.Upper == nil:
			return invoke(obj, "slice")
		case sl.Upper == nil:
			return invoke(obj, "slice", t.expr(sl.Lower))
		case sl.Lower == nil:
			return invoke(obj, "slice", num(0), t.expr(sl.Upper))
		}
		return invoke(obj, "slice", t.expr(sl.Lower), t.expr(sl.Upper))
	}
	if _, ok := x.Index.(*syntax.Tuple); ok {
		t.fail(x.Index, UnsupportedSyntax, "[a, b]", "tuple subscripts are not supported")
	}
	shape := t.knownShape(x.X)
	switch idx := x.Index.(type) {
	case *syntax.IntLit:
		return index(obj, num(float64(idx.Value)))
	case *syntax.StringLit:
		key := str(idx.Value)
		switch shape {
		case ShapeArray, ShapeString, ShapeDict:
			return index(obj, key)
		case ShapeMap:
			return invoke(obj, "get", key)
		}
		return bindValues(t.temp, []jsast.Expr{obj}, func(r []jsast.Expr) jsast.Expr {
			return cond(guard(ShapeMap, r[0]), invoke(r[0], "get", key), index(r[0], key))
		})
	}
	if n, ok := negativeIndex(x.Index); ok {
		return invoke(obj, "at", num(float64(-n)))
	}
	key := t.expr(x.Index)
	switch shape {
	case ShapeArray, ShapeString:
		return invoke(obj, "at", key)
	case ShapeDict:
		return index(obj, key)
	case ShapeMap:
		return invoke(obj, "get", key)
	}
	return bindValues(t.temp, []jsast.Expr{obj, key}, func(r []jsast.Expr) jsast.Expr {
		return cond(or(guard(ShapeArray, r[0]), guard(ShapeString, r[0])),
			invoke(r[0], "at", r[1]),
			cond(guard(ShapeMap, r[0]), invoke(r[0], "get", r[1]), index(r[0], r[1])))
	})
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

func (t *transpiler) call(c *syntax.Call) jsast.Expr {
	if el := t.elementOf(c.Func); el != nil {
		return t.elementCall(c, el)
	}
	switch fn := c.Func.(type) {
	case *syntax.Name:
		if js, ok := t.lookupLocal(fn.Id); ok {
			return call(ident(js), t.helperArgs(c, t.nestedDef(fn.Id))...)
		}
		d := t.dep(fn)
		switch d.Kind {
		case DepSelf:
			return call(&jsast.Ref{Key: d.Key, Hint: d.Name}, t.helperArgs(c, t.sf.Def)...)
		case DepFunction:
			return call(&jsast.Ref{Key: d.Key, Hint: d.Name}, t.helperArgs(c, d.Func.def)...)
		case DepConstant:
			return call(&jsast.Ref{Key: d.Key, Hint: d.Name}, t.helperArgs(c, nil)...)
		case DepModule:
			t.fail(fn, UnsupportedSyntax, fn.Id, "module %s is not callable", fn.Id)
		case DepBuiltin:
			return t.builtinCall(c, fn.Id)
		}
	case *syntax.Attribute:
		if mod, ok := t.moduleOf(fn.X); ok {
			callee := member(path(mod.JS), moduleAttr(mod, fn.Attr))
			return call(callee, t.helperArgs(c, nil)...)
		}
		return t.methodCall(c, fn)
	}
	return call(t.expr(c.Func), t.helperArgs(c, nil)...)
}

// helperArgs translates the arguments of a call to a compiled function.
// With a known signature keyword arguments are placed by parameter name;
// skipped positions are filled with undefined.
func (t *transpiler) helperArgs(c *syntax.Call, def *syntax.FuncDef) []jsast.Expr {
	args := t.elements(c.Args)
	if len(c.Keywords) == 0 {
		return args
	}
	for _, kw := range c.Keywords {
		if kw.Name == "" {
			t.fail(kw, UnsupportedSyntax, "**", "**kwargs in calls to compiled functions is not supported")
		}
	}
	if def == nil {
		t.fail(c.Keywords[0], UnsupportedSyntax, c.Keywords[0].Name, "keyword arguments need a callee with a known signature")
	}
	for _, a := range c.Args {
		if _, ok := a.(*syntax.Starred); ok {
			t.fail(a, UnsupportedSyntax, "*", "*args together with keyword arguments is not supported")
		}
	}
	slots := make([]jsast.Expr, 0, len(def.Params))
	var names []string
	for _, p := range def.Params {
		if p.Kind == syntax.ParamVarArgs {
			break
		}
		names = append(names, p.Name)
	}
	if len(args) > len(names) {
		for _, kw := range c.Keywords {
			t.fail(kw, UnsupportedSyntax, kw.Name, "keyword arguments after *args are not supported")
		}
	}
	slots = append(slots, args...)
	for len(slots) < len(names) {
		slots = append(slots, nil)
	}
	last := len(args) - 1
	for _, kw := range c.Keywords {
		pos := -1
		for i, n := range names {
			if n == kw.Name {
				pos = i
				break
			}
		}
		if pos < 0 {
			t.fail(kw, UnsupportedSyntax, kw.Name, "%s() got an unexpected keyword argument %q", def.Name, kw.Name)
		}
		if slots[pos] != nil {
			t.fail(kw, UnsupportedSyntax, kw.Name, "%s() got multiple values for argument %q", def.Name, kw.Name)
		}
		slots[pos] = t.expr(kw.Value)
		if pos > last {
			last = pos
		}
	}
	slots = slots[:last+1]
	for i, s := range slots {
		if s == nil {
			slots[i] = undef()
		}
	}
	return slots
}

// plainArgs translates positional and keyword arguments for the dispatch
// table, which takes no starred or ** arguments.
func (t *transpiler) plainArgs(c *syntax.Call) ([]jsast.Expr, []Shape, []Kwarg) {
	args := make([]jsast.Expr, len(c.Args))
	shapes := make([]Shape, len(c.Args))
	for i, a := range c.Args {
		if s, ok := a.(*syntax.Starred); ok {
			t.fail(s, UnsupportedSyntax, "*", "*args is not supported here")
		}
		args[i] = t.expr(a)
		shapes[i] = t.knownShape(a)
	}
	var kwargs []Kwarg
	for _, kw := range c.Keywords {
		if kw.Name == "" {
			t.fail(kw, UnsupportedSyntax, "**", "**kwargs is not supported here")
		}
		kwargs = append(kwargs, Kwarg{Name: kw.Name, Value: t.expr(kw.Value)})
	}
	return args, shapes, kwargs
}

func (t *transpiler) builtinCall(c *syntax.Call, name string) jsast.Expr {
	b := t.reg.builtins[name]
	args, shapes, kwargs := t.plainArgs(c)
	cs := &CallSite{Name: name, Args: args, Shapes: shapes, Kwargs: kwargs, t: t}
	out, err := b.gen(cs)
	if err != nil {
		t.fail(c, UnsupportedBuiltin, name, "%v", err)
	}
	return out
}

// methodCall dispatches recv.name(...) through the method table. A known
// receiver shape selects one entry; otherwise a runtime ternary tries the
// entries in shape priority and falls back to calling the method as is.
func (t *transpiler) methodCall(c *syntax.Call, fn *syntax.Attribute) jsast.Expr {
	name := fn.Attr
	entries := t.reg.methods[name]
	if len(entries) == 0 {
		t.fail(fn, UnsupportedMethod, name, "method %s is not supported", name)
	}
	recv := t.expr(fn.X)
	shape := t.knownShape(fn.X)
	args, shapes, kwargs := t.plainArgs(c)
	site := func(r jsast.Expr, s Shape) *CallSite {
		return &CallSite{Name: name, Recv: r, RecvShape: s, Args: args, Shapes: shapes, Kwargs: kwargs, t: t}
	}

	var generic *method
	for i := range entries {
		if entries[i].shape == ShapeAny {
			generic = &entries[i]
		}
	}

	if shape != ShapeUnknown {
		for _, m := range entries {
			if m.shape != shape {
				continue
			}
			out, err := m.gen(site(recv, shape))
			if err != nil {
				t.fail(fn, UnsupportedMethod, name, "%v", err)
			}
			if out != nil {
				return out
			}
		}
		if generic != nil {
			out, err := generic.gen(site(recv, shape))
			if err != nil {
				t.fail(fn, UnsupportedMethod, name, "%v", err)
			}
			return out
		}
		t.fail(fn, UnsupportedMethod, name, "%s has no method %s", shape, name)
	}

	r := recv
	if !isSimple(recv) {
		r = ident(t.temp())
	}
	var firstErr error
	var fallback jsast.Expr
	if generic != nil {
		x, err := generic.gen(site(r, ShapeUnknown))
		if err != nil {
			t.fail(fn, UnsupportedMethod, name, "%v", err)
		}
		fallback = x
	} else {
		fallback = invoke(r, name, args...)
	}
	type branch struct{ test, then jsast.Expr }
	var branches []branch
	for _, m := range entries {
		if m.shape == ShapeAny {
			continue
		}
		x, err := m.gen(site(r, m.shape))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if x != nil {
			branches = append(branches, branch{guard(m.shape, r), x})
		}
	}
	if len(branches) == 0 && generic == nil {
		if firstErr != nil {
			t.fail(fn, UnsupportedMethod, name, "%v", firstErr)
		}
		t.fail(fn, UnsupportedMethod, name, "method %s is not supported with these arguments", name)
	}
	out := fallback
	for i := len(branches) - 1; i >= 0; i-- {
		out = cond(branches[i].test, branches[i].then, out)
	}
	if r != recv {
		out = call(arrow([]string{r.(*jsast.Ident).Name}, out), recv)
	}
	return out
}
