package syntax

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for the Python subset
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan creates a span from two positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Name is an identifier reference.
type Name struct {
	SpanVal Span
	Id      string
}

// IntLit is an integer literal.
type IntLit struct {
	SpanVal Span
	Value   int64
	Raw     string
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	SpanVal Span
	Value   float64
	Raw     string
}

// StringLit is a (possibly concatenated) plain string literal.
type StringLit struct {
	SpanVal Span
	Value   string
}

// FString is a formatted string literal. Parts alternate freely between
// literal text and replacement fields.
type FString struct {
	SpanVal Span
	Parts   []FStringPart
}

// FStringPart is one piece of an f-string: either Text or Field is set.
type FStringPart struct {
	Text  string
	Field *FormattedValue
}

// FormattedValue is a replacement field {expr!conv:spec}.
type FormattedValue struct {
	SpanVal    Span
	Value      Expr
	Conversion rune     // 0, 's', 'r' or 'a'
	Spec       *FString // nil when absent; may itself contain fields
}

// NoneLit is the None literal.
type NoneLit struct {
	SpanVal Span
}

// BoolLit is True or False.
type BoolLit struct {
	SpanVal Span
	Value   bool
}

// EllipsisLit is the ... literal.
type EllipsisLit struct {
	SpanVal Span
}

// List is a list display [a, b].
type List struct {
	SpanVal Span
	Elts    []Expr
}

// Tuple is a tuple display (a, b) or a bare a, b.
type Tuple struct {
	SpanVal Span
	Elts    []Expr
}

// Set is a set display {a, b}.
type Set struct {
	SpanVal Span
	Elts    []Expr
}

// Dict is a dict display. A nil key marks a **spread entry.
type Dict struct {
	SpanVal Span
	Keys    []Expr
	Values  []Expr
}

// BinOp is a binary arithmetic or bitwise operation.
type BinOp struct {
	SpanVal Span
	Op      string
	X, Y    Expr
}

// UnaryOp is -x, +x, ~x or not x.
type UnaryOp struct {
	SpanVal Span
	Op      string
	X       Expr
}

// BoolOp is a chain of and/or with the same operator.
type BoolOp struct {
	SpanVal Span
	Op      string // "and" or "or"
	Values  []Expr
}

// Compare is a (possibly chained) comparison a < b <= c.
type Compare struct {
	SpanVal     Span
	Left        Expr
	Ops         []string // "<", "in", "not in", "is", "is not", ...
	Comparators []Expr
}

// IfExp is the conditional expression a if cond else b.
type IfExp struct {
	SpanVal Span
	Cond    Expr
	Body    Expr
	Else    Expr
}

// Lambda is an anonymous function.
type Lambda struct {
	SpanVal Span
	Params  []*Param
	Body    Expr
}

// Keyword is a keyword argument. An empty Name marks a **spread.
type Keyword struct {
	SpanVal Span
	Name    string
	Value   Expr
}

// Call is a function call. Keywords keep source order, including spreads.
type Call struct {
	SpanVal  Span
	Func     Expr
	Args     []Expr // may contain *Starred
	Keywords []*Keyword
}

// Attribute is x.attr.
type Attribute struct {
	SpanVal Span
	X       Expr
	Attr    string
}

// Subscript is x[index]. Index may be a *Slice or a *Tuple.
type Subscript struct {
	SpanVal Span
	X       Expr
	Index   Expr
}

// Slice is lower:upper:step inside a subscript.
type Slice struct {
	SpanVal Span
	Lower   Expr
	Upper   Expr
	Step    Expr
}

// Starred is *x in a call, display or assignment target.
type Starred struct {
	SpanVal Span
	X       Expr
}

// NamedExpr is the walrus operator x := v.
type NamedExpr struct {
	SpanVal Span
	Target  *Name
	Value   Expr
}

// Comprehension is one "for target in iter if cond..." clause.
type Comprehension struct {
	SpanVal Span
	Target  Expr
	Iter    Expr
	Ifs     []Expr
}

// ListComp is [elt for ...].
type ListComp struct {
	SpanVal    Span
	Elt        Expr
	Generators []*Comprehension
}

// SetComp is {elt for ...}.
type SetComp struct {
	SpanVal    Span
	Elt        Expr
	Generators []*Comprehension
}

// DictComp is {key: value for ...}.
type DictComp struct {
	SpanVal    Span
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

// GeneratorExp is (elt for ...).
type GeneratorExp struct {
	SpanVal    Span
	Elt        Expr
	Generators []*Comprehension
}

// Yield is a yield or await expression; it only exists to be rejected.
type Yield struct {
	SpanVal Span
	Keyword string
	Value   Expr
}

func (n *Name) Span() Span           { return n.SpanVal }
func (n *IntLit) Span() Span         { return n.SpanVal }
func (n *FloatLit) Span() Span       { return n.SpanVal }
func (n *StringLit) Span() Span      { return n.SpanVal }
func (n *FString) Span() Span        { return n.SpanVal }
func (n *NoneLit) Span() Span        { return n.SpanVal }
func (n *BoolLit) Span() Span        { return n.SpanVal }
func (n *EllipsisLit) Span() Span    { return n.SpanVal }
func (n *List) Span() Span           { return n.SpanVal }
func (n *Tuple) Span() Span          { return n.SpanVal }
func (n *Set) Span() Span            { return n.SpanVal }
func (n *Dict) Span() Span           { return n.SpanVal }
func (n *BinOp) Span() Span          { return n.SpanVal }
func (n *UnaryOp) Span() Span        { return n.SpanVal }
func (n *BoolOp) Span() Span         { return n.SpanVal }
func (n *Compare) Span() Span        { return n.SpanVal }
func (n *IfExp) Span() Span          { return n.SpanVal }
func (n *Lambda) Span() Span         { return n.SpanVal }
func (n *Call) Span() Span           { return n.SpanVal }
func (n *Attribute) Span() Span      { return n.SpanVal }
func (n *Subscript) Span() Span      { return n.SpanVal }
func (n *Slice) Span() Span          { return n.SpanVal }
func (n *Starred) Span() Span        { return n.SpanVal }
func (n *NamedExpr) Span() Span      { return n.SpanVal }
func (n *ListComp) Span() Span       { return n.SpanVal }
func (n *SetComp) Span() Span        { return n.SpanVal }
func (n *DictComp) Span() Span       { return n.SpanVal }
func (n *GeneratorExp) Span() Span   { return n.SpanVal }
func (n *Yield) Span() Span          { return n.SpanVal }
func (n *Keyword) Span() Span        { return n.SpanVal }
func (n *Comprehension) Span() Span  { return n.SpanVal }
func (n *FormattedValue) Span() Span { return n.SpanVal }

func (*Name) node()           {}
func (*IntLit) node()         {}
func (*FloatLit) node()       {}
func (*StringLit) node()      {}
func (*FString) node()        {}
func (*NoneLit) node()        {}
func (*BoolLit) node()        {}
func (*EllipsisLit) node()    {}
func (*List) node()           {}
func (*Tuple) node()          {}
func (*Set) node()            {}
func (*Dict) node()           {}
func (*BinOp) node()          {}
func (*UnaryOp) node()        {}
func (*BoolOp) node()         {}
func (*Compare) node()        {}
func (*IfExp) node()          {}
func (*Lambda) node()         {}
func (*Call) node()           {}
func (*Attribute) node()      {}
func (*Subscript) node()      {}
func (*Slice) node()          {}
func (*Starred) node()        {}
func (*NamedExpr) node()      {}
func (*ListComp) node()       {}
func (*SetComp) node()        {}
func (*DictComp) node()       {}
func (*GeneratorExp) node()   {}
func (*Yield) node()          {}
func (*Keyword) node()        {}
func (*Comprehension) node()  {}
func (*FormattedValue) node() {}

func (*Name) expr()         {}
func (*IntLit) expr()       {}
func (*FloatLit) expr()     {}
func (*StringLit) expr()    {}
func (*FString) expr()      {}
func (*NoneLit) expr()      {}
func (*BoolLit) expr()      {}
func (*EllipsisLit) expr()  {}
func (*List) expr()         {}
func (*Tuple) expr()        {}
func (*Set) expr()          {}
func (*Dict) expr()         {}
func (*BinOp) expr()        {}
func (*UnaryOp) expr()      {}
func (*BoolOp) expr()       {}
func (*Compare) expr()      {}
func (*IfExp) expr()        {}
func (*Lambda) expr()       {}
func (*Call) expr()         {}
func (*Attribute) expr()    {}
func (*Subscript) expr()    {}
func (*Slice) expr()        {}
func (*Starred) expr()      {}
func (*NamedExpr) expr()    {}
func (*ListComp) expr()     {}
func (*SetComp) expr()      {}
func (*DictComp) expr()     {}
func (*GeneratorExp) expr() {}
func (*Yield) expr()        {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// ParamKind distinguishes positional, *args and **kwargs parameters.
type ParamKind int

const (
	ParamNormal ParamKind = iota
	ParamVarArgs
	ParamKwArgs
	ParamKwOnly
)

// Param is a function or lambda parameter.
type Param struct {
	SpanVal Span
	Name    string
	Default Expr
	Kind    ParamKind
}

func (n *Param) Span() Span { return n.SpanVal }
func (*Param) node()        {}

// FuncDef is a def statement.
type FuncDef struct {
	SpanVal    Span
	Name       string
	Params     []*Param
	Body       []Stmt
	Decorators []Expr
	Async      bool
}

// Return is a return statement.
type Return struct {
	SpanVal Span
	Value   Expr // nil for a bare return
}

// Assign is target = value, possibly chained (a = b = v).
type Assign struct {
	SpanVal Span
	Targets []Expr
	Value   Expr
}

// AugAssign is target op= value.
type AugAssign struct {
	SpanVal Span
	Target  Expr
	Op      string // operator without '=' ("+", "//", ...)
	Value   Expr
}

// AnnAssign is target: annotation [= value].
type AnnAssign struct {
	SpanVal    Span
	Target     Expr
	Annotation Expr
	Value      Expr
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	SpanVal Span
	X       Expr
}

// If is an if statement; elif chains nest in Else.
type If struct {
	SpanVal Span
	Cond    Expr
	Body    []Stmt
	Else    []Stmt
}

// While is a while loop.
type While struct {
	SpanVal Span
	Cond    Expr
	Body    []Stmt
	Else    []Stmt
}

// For is a for loop.
type For struct {
	SpanVal Span
	Target  Expr
	Iter    Expr
	Body    []Stmt
	Else    []Stmt
}

// Break is a break statement.
type Break struct {
	SpanVal Span
}

// Continue is a continue statement.
type Continue struct {
	SpanVal Span
}

// Pass is a pass statement.
type Pass struct {
	SpanVal Span
}

// Alias is one "name as asname" in an import.
type Alias struct {
	Name   string
	AsName string
}

// Import is import a.b as c.
type Import struct {
	SpanVal Span
	Names   []Alias
}

// ImportFrom is from module import a as b.
type ImportFrom struct {
	SpanVal Span
	Module  string
	Names   []Alias
}

// Unsupported records a statement whose construct the subset rejects
// (class, try, with, raise, ...). Its body has been skipped.
type Unsupported struct {
	SpanVal Span
	Keyword string
}

func (n *FuncDef) Span() Span     { return n.SpanVal }
func (n *Return) Span() Span      { return n.SpanVal }
func (n *Assign) Span() Span      { return n.SpanVal }
func (n *AugAssign) Span() Span   { return n.SpanVal }
func (n *AnnAssign) Span() Span   { return n.SpanVal }
func (n *ExprStmt) Span() Span    { return n.SpanVal }
func (n *If) Span() Span          { return n.SpanVal }
func (n *While) Span() Span       { return n.SpanVal }
func (n *For) Span() Span         { return n.SpanVal }
func (n *Break) Span() Span       { return n.SpanVal }
func (n *Continue) Span() Span    { return n.SpanVal }
func (n *Pass) Span() Span        { return n.SpanVal }
func (n *Import) Span() Span      { return n.SpanVal }
func (n *ImportFrom) Span() Span  { return n.SpanVal }
func (n *Unsupported) Span() Span { return n.SpanVal }

func (*FuncDef) node()     {}
func (*Return) node()      {}
func (*Assign) node()      {}
func (*AugAssign) node()   {}
func (*AnnAssign) node()   {}
func (*ExprStmt) node()    {}
func (*If) node()          {}
func (*While) node()       {}
func (*For) node()         {}
func (*Break) node()       {}
func (*Continue) node()    {}
func (*Pass) node()        {}
func (*Import) node()      {}
func (*ImportFrom) node()  {}
func (*Unsupported) node() {}

func (*FuncDef) stmt()     {}
func (*Return) stmt()      {}
func (*Assign) stmt()      {}
func (*AugAssign) stmt()   {}
func (*AnnAssign) stmt()   {}
func (*ExprStmt) stmt()    {}
func (*If) stmt()          {}
func (*While) stmt()       {}
func (*For) stmt()         {}
func (*Break) stmt()       {}
func (*Continue) stmt()    {}
func (*Pass) stmt()        {}
func (*Import) stmt()      {}
func (*ImportFrom) stmt()  {}
func (*Unsupported) stmt() {}

// Module is a parsed source file.
type Module struct {
	Body []Stmt
}
