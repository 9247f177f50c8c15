package jsast

// ---------------------------------------------------------------------------
// Node Model: a closed set of JavaScript expressions and statements
// ---------------------------------------------------------------------------

// Node is implemented by every expression and statement.
type Node interface {
	node() // marker method
}

// Expr is an expression node. Level reports the precedence of the node's
// outermost operator; the printer parenthesizes an expression whenever its
// level is below what the surrounding context requires.
type Expr interface {
	Node
	Level() L
	emit(p *Printer)
}

// Stmt is a statement node.
type Stmt interface {
	Node
	emitStmt(p *Printer)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Ident is a plain identifier emitted verbatim.
type Ident struct {
	Name string
}

// Ref is a reference to a dependency (function or constant) whose final
// name is chosen at assembly time. Hint is used when no renamer is set.
type Ref struct {
	Key  string
	Hint string
}

// Number is a numeric literal.
type Number struct {
	Value float64
}

// String is a string literal.
type String struct {
	Value string
}

// Bool is true or false.
type Bool struct {
	Value bool
}

// Null is the null literal.
type Null struct{}

// Undefined is the undefined value.
type Undefined struct{}

// Array is an array literal. Elements may be Spread.
type Array struct {
	Elems []Expr
}

// Property is one entry of an object literal. Exactly one of Key, Computed
// or Spread describes the key.
type Property struct {
	Key      string
	Computed Expr
	Spread   bool
	Value    Expr
}

// Object is an object literal.
type Object struct {
	Props []Property
}

// Unary is a prefix operator: - + ~ ! typeof void.
type Unary struct {
	Op string
	X  Expr
}

// Binary is a binary operator other than && and ||.
type Binary struct {
	Op string
	X  Expr
	Y  Expr
}

// Logical is a chain of && or || operands.
type Logical struct {
	Op     string
	Values []Expr
}

// Conditional is test ? then : else.
type Conditional struct {
	Test Expr
	Then Expr
	Else Expr
}

// Call is a function call. Args may contain Spread.
type Call struct {
	Callee Expr
	Args   []Expr
}

// Member is a static property access x.name.
type Member struct {
	X    Expr
	Name string
}

// Index is a computed property access x[index].
type Index struct {
	X     Expr
	Index Expr
}

// New is a constructor call.
type New struct {
	Callee Expr
	Args   []Expr
}

// Param is a function parameter. A non-empty Elems makes it an array
// destructuring pattern [a, b] and Name is ignored.
type Param struct {
	Name    string
	Default Expr
	Rest    bool
	Elems   []string
}

// Function is a function or arrow function literal. An arrow with a
// non-nil ExprBody emits a concise body.
type Function struct {
	Name     string
	Params   []Param
	Body     []Stmt
	ExprBody Expr
	Arrow    bool
}

// Regex is a regular expression literal /pattern/flags.
type Regex struct {
	Pattern string
	Flags   string
}

// Template is a template literal. len(Quasis) == len(Exprs)+1.
type Template struct {
	Quasis []string
	Exprs  []Expr
}

// JSXAttr is one attribute of a JSX element; Spread attributes have no name.
type JSXAttr struct {
	Name   string
	Value  Expr
	Spread bool
}

// JSXElement is a JSX element. An empty Tag is a fragment.
type JSXElement struct {
	Tag      string
	Attrs    []JSXAttr
	Children []Expr
}

// Spread is ...x inside an array, call or object.
type Spread struct {
	X Expr
}

// Sequence is a comma expression.
type Sequence struct {
	Exprs []Expr
}

// AssignExpr is an assignment used as an expression.
type AssignExpr struct {
	Target Expr
	Op     string // "=", "+=", ...
	Value  Expr
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// DeclKind selects how an assignment declares its target.
type DeclKind int

const (
	DeclNone DeclKind = iota
	DeclLet
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	}
	return ""
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	X Expr
}

// Return is a return statement; Value may be nil.
type Return struct {
	Value Expr
}

// Assign assigns or declares a single target.
type Assign struct {
	Declare DeclKind
	Target  Expr
	Value   Expr
}

// AugAssign is target op= value.
type AugAssign struct {
	Target Expr
	Op     string // operator without '='
	Value  Expr
}

// Let declares names without initializers: let a, b;
type Let struct {
	Names []string
}

// If is an if statement. An Else holding a single If prints as else if.
type If struct {
	Test Expr
	Then []Stmt
	Else []Stmt
}

// While is a while loop.
type While struct {
	Test Expr
	Body []Stmt
}

// ForOf is for (decl name of iter).
type ForOf struct {
	Declare DeclKind
	Name    string
	Iter    Expr
	Body    []Stmt
}

// Break is a break statement.
type Break struct{}

// Continue is a continue statement.
type Continue struct{}

// Block is a braced statement list.
type Block struct {
	Body []Stmt
}

// FuncDecl is a function declaration.
type FuncDecl struct {
	Func *Function
}

// ---------------------------------------------------------------------------
// Marker methods
// ---------------------------------------------------------------------------

func (*Ident) node()       {}
func (*Ref) node()         {}
func (*Number) node()      {}
func (*String) node()      {}
func (*Bool) node()        {}
func (*Null) node()        {}
func (*Undefined) node()   {}
func (*Array) node()       {}
func (*Object) node()      {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Logical) node()     {}
func (*Conditional) node() {}
func (*Call) node()        {}
func (*Member) node()      {}
func (*Index) node()       {}
func (*New) node()         {}
func (*Function) node()    {}
func (*Template) node()    {}
func (*Regex) node()       {}
func (*JSXElement) node()  {}
func (*Spread) node()      {}
func (*Sequence) node()    {}
func (*AssignExpr) node()  {}

func (*ExprStmt) node()  {}
func (*Return) node()    {}
func (*Assign) node()    {}
func (*AugAssign) node() {}
func (*Let) node()       {}
func (*If) node()        {}
func (*While) node()     {}
func (*ForOf) node()     {}
func (*Break) node()     {}
func (*Continue) node()  {}
func (*Block) node()     {}
func (*FuncDecl) node()  {}

// ---------------------------------------------------------------------------
// Precedence levels
// ---------------------------------------------------------------------------

func (*Ident) Level() L       { return LMember }
func (*Ref) Level() L         { return LMember }
func (*String) Level() L      { return LMember }
func (*Bool) Level() L        { return LMember }
func (*Null) Level() L        { return LMember }
func (*Undefined) Level() L   { return LMember }
func (*Array) Level() L       { return LMember }
func (*Object) Level() L      { return LMember }
func (*Template) Level() L    { return LMember }
func (*Regex) Level() L       { return LMember }
func (*JSXElement) Level() L  { return LMember }
func (*Member) Level() L      { return LMember }
func (*Index) Level() L       { return LMember }
func (*New) Level() L         { return LMember }
func (*Call) Level() L        { return LCall }
func (*Unary) Level() L       { return LPrefix }
func (*Spread) Level() L      { return LSpread }
func (*Sequence) Level() L    { return LComma }
func (*AssignExpr) Level() L  { return LAssign }
func (*Conditional) Level() L { return LConditional }

// Level of a negative number is that of a prefix operator.
func (n *Number) Level() L {
	if n.Value < 0 || (n.Value == 0 && isNegativeZero(n.Value)) {
		return LPrefix
	}
	return LMember
}

func (n *Binary) Level() L {
	l, _ := BinaryLevel(n.Op)
	return l
}

func (n *Logical) Level() L {
	if n.Op == "&&" {
		return LLogicalAnd
	}
	return LLogicalOr
}

func (n *Function) Level() L {
	if n.Arrow {
		return LAssign
	}
	return LMember
}
