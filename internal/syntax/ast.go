package syntax

// AST node types for the subset of Python surface the class model consumes:
// class/function definitions, assignment forms, control flow that matters for
// reachability, and the expressions that appear in base lists, annotations and
// method bodies. Anything else is dropped by the extractor; the engine treats
// unmodelled expressions as unknown.

type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

type Node interface {
	Span() Span
}

type Stmt interface {
	Node
	stmt()
}

type Expr interface {
	Node
	expr()
}

type position struct {
	span Span
}

func (p position) Span() Span { return p.span }

// Module is one parsed source file.
type Module struct {
	position
	Path string
	Body []Stmt
}

// --- Statements ---

// ClassDef is a class-definition statement. Bases and Keywords are the
// unevaluated argument-list expressions; the engine resolves them lazily.
type ClassDef struct {
	position
	Name       string
	NameSpan   Span
	TypeParams []TypeParam // PEP 695 syntactic type parameters
	Bases      []Expr
	Keywords   []Keyword // metaclass=..., kw-only class arguments
	Decorators []Expr
	Body       []Stmt
	// HeaderSpan covers the class name through its argument list, used to
	// anchor diagnostics.
	HeaderSpan Span
}

func (*ClassDef) stmt() {}

type FunctionDef struct {
	position
	Name       string
	Decorators []Expr
	Params     []Param
	Returns    Expr
	Body       []Stmt
	IsAsync    bool
}

func (*FunctionDef) stmt() {}

type Assign struct {
	position
	Targets []Expr // multiple for chained assignment a = b = v
	Value   Expr
}

func (*Assign) stmt() {}

// AnnAssign is an annotated assignment `x: T` or `x: T = v`.
type AnnAssign struct {
	position
	Target     Expr
	Annotation Expr
	Value      Expr // nil for a bare declaration
}

func (*AnnAssign) stmt() {}

type AugAssign struct {
	position
	Target Expr
	Op     string
	Value  Expr
}

func (*AugAssign) stmt() {}

type If struct {
	position
	Cond Expr
	Body []Stmt
	Else []Stmt
}

func (*If) stmt() {}

type For struct {
	position
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
}

func (*For) stmt() {}

type While struct {
	position
	Cond Expr
	Body []Stmt
	Else []Stmt
}

func (*While) stmt() {}

type With struct {
	position
	Items []WithItem
	Body  []Stmt
}

func (*With) stmt() {}

type Try struct {
	position
	Body     []Stmt
	Handlers [][]Stmt
	Else     []Stmt
	Finally  []Stmt
}

func (*Try) stmt() {}

type Return struct {
	position
	Value Expr // nil for bare return
}

func (*Return) stmt() {}

type Raise struct {
	position
	Exc Expr
}

func (*Raise) stmt() {}

type Pass struct{ position }

func (*Pass) stmt() {}

type Break struct{ position }

func (*Break) stmt() {}

type Continue struct{ position }

func (*Continue) stmt() {}

type ExprStmt struct {
	position
	Value Expr
}

func (*ExprStmt) stmt() {}

// --- Expressions ---

type Name struct {
	position
	ID string
}

func (*Name) expr() {}

type Attribute struct {
	position
	Value Expr
	Attr  string
}

func (*Attribute) expr() {}

// Subscript is `value[index]`; a multi-argument subscript like dict[str, int]
// carries one index per argument.
type Subscript struct {
	position
	Value   Expr
	Indexes []Expr
}

func (*Subscript) expr() {}

type Call struct {
	position
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

func (*Call) expr() {}

type TupleExpr struct {
	position
	Elts []Expr
}

func (*TupleExpr) expr() {}

type ListExpr struct {
	position
	Elts []Expr
}

func (*ListExpr) expr() {}

type Starred struct {
	position
	Value Expr
}

func (*Starred) expr() {}

type StringLit struct {
	position
	Value string
}

func (*StringLit) expr() {}

type IntLit struct {
	position
	Value int64
}

func (*IntLit) expr() {}

type FloatLit struct {
	position
	Value float64
}

func (*FloatLit) expr() {}

type BoolLit struct {
	position
	Value bool
}

func (*BoolLit) expr() {}

type NoneLit struct{ position }

func (*NoneLit) expr() {}

type EllipsisLit struct{ position }

func (*EllipsisLit) expr() {}

// Comp covers list/set/dict comprehensions and generator expressions; only the
// generator clauses matter for implicit-attribute scanning.
type Comp struct {
	position
	Clauses []CompClause
}

func (*Comp) expr() {}

// Opaque is any expression the extractor does not model. The raw source text
// is retained for diagnostics.
type Opaque struct {
	position
	Text string
}

func (*Opaque) expr() {}

// --- Supporting nodes ---

type TypeParam struct {
	Name    string
	Bound   Expr // nil when unconstrained
	Default Expr // nil when absent
	Pos     Span
}

type Keyword struct {
	Name  string
	Value Expr
}

type Param struct {
	Name        string
	Annotation  Expr
	Default     Expr
	KeywordOnly bool
	IsSelfOrCls bool // positionally first parameter of a method
	Star        ParamStar
}

type ParamStar int

const (
	StarNone   ParamStar = iota
	StarArgs   // *args
	StarKwargs // **kwargs
)

type WithItem struct {
	Context Expr
	Vars    Expr // nil without `as`
}

type CompClause struct {
	Target Expr
	Iter   Expr
}
