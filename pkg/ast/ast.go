// Package ast defines the syntax tree produced by the parser. Every
// node carries its own source span.
package ast

import "github.com/burnlang/saplin/pkg/diag"

// Program is an ordered sequence of top-level statements.
type Program struct {
	Stmts []Stmt
	Span  diag.Span
}

// Stmt is any statement-level node.
type Stmt interface {
	Span() diag.Span
	stmtNode()
}

// FnDef declares a named function.
type FnDef struct {
	Name         string
	Params       []FnParam
	ReturnSchema SchemaExpr // nil when absent
	Body         []Stmt
	SpanVal      diag.Span
}

func (f *FnDef) Span() diag.Span { return f.SpanVal }
func (f *FnDef) stmtNode()       {}

// FnParam is a single function parameter, with an optional schema.
type FnParam struct {
	Name    string
	Schema  SchemaExpr // nil when absent
	SpanVal diag.Span
}

// Pattern is a for-loop binding pattern: a bare name or tuple destructure.
type Pattern interface {
	patternNode()
}

// NamePattern binds a single name.
type NamePattern struct{ Name string }

func (NamePattern) patternNode() {}

// TuplePattern destructures a tuple into names.
type TuplePattern struct{ Names []string }

func (TuplePattern) patternNode() {}

// Assign is `name [: schema] = value`.
type Assign struct {
	Name       string
	Annotation SchemaExpr // nil when absent
	Value      Expr
	SpanVal    diag.Span
}

func (a *Assign) Span() diag.Span { return a.SpanVal }
func (a *Assign) stmtNode()       {}

// If is `if cond: then [else: else]`.
type If struct {
	Cond       Expr
	Then       []Stmt
	Else       []Stmt // nil when absent
	SpanVal    diag.Span
}

func (i *If) Span() diag.Span { return i.SpanVal }
func (i *If) stmtNode()       {}

// For is `for pattern in iter: body`.
type For struct {
	Pattern Pattern
	Iter    Expr
	Body    []Stmt
	SpanVal diag.Span
}

func (f *For) Span() diag.Span { return f.SpanVal }
func (f *For) stmtNode()       {}

// Return is `ret [value]`.
type Return struct {
	Value   Expr // nil when bare
	SpanVal diag.Span
}

func (r *Return) Span() diag.Span { return r.SpanVal }
func (r *Return) stmtNode()       {}

// Assert is `assert expr`.
type Assert struct {
	Expr    Expr
	SpanVal diag.Span
}

func (a *Assert) Span() diag.Span { return a.SpanVal }
func (a *Assert) stmtNode()       {}

// ExprStmt is a bare expression used for its side effects.
type ExprStmt struct {
	Expr    Expr
	SpanVal diag.Span
}

func (e *ExprStmt) Span() diag.Span { return e.SpanVal }
func (e *ExprStmt) stmtNode()       {}

// Expr is any expression-level node.
type Expr interface {
	Span() diag.Span
	exprNode()
}

type IntLit struct {
	Value   int64
	SpanVal diag.Span
}

func (n *IntLit) Span() diag.Span { return n.SpanVal }
func (n *IntLit) exprNode()       {}

type FloatLit struct {
	Value   float64
	SpanVal diag.Span
}

func (n *FloatLit) Span() diag.Span { return n.SpanVal }
func (n *FloatLit) exprNode()       {}

type BoolLit struct {
	Value   bool
	SpanVal diag.Span
}

func (n *BoolLit) Span() diag.Span { return n.SpanVal }
func (n *BoolLit) exprNode()       {}

type StrLit struct {
	Value   string
	SpanVal diag.Span
}

func (n *StrLit) Span() diag.Span { return n.SpanVal }
func (n *StrLit) exprNode()       {}

type NilLit struct{ SpanVal diag.Span }

func (n *NilLit) Span() diag.Span { return n.SpanVal }
func (n *NilLit) exprNode()       {}

type Var struct {
	Name    string
	SpanVal diag.Span
}

func (n *Var) Span() diag.Span { return n.SpanVal }
func (n *Var) exprNode()       {}

type ListLit struct {
	Items   []Expr
	SpanVal diag.Span
}

func (n *ListLit) Span() diag.Span { return n.SpanVal }
func (n *ListLit) exprNode()       {}

type TupleLit struct {
	Items   []Expr
	SpanVal diag.Span
}

func (n *TupleLit) Span() diag.Span { return n.SpanVal }
func (n *TupleLit) exprNode()       {}

// ObjectField is one field of an object literal, order-significant.
type ObjectField struct {
	Name  string
	Value Expr
}

type ObjectLit struct {
	Fields  []ObjectField
	SpanVal diag.Span
}

func (n *ObjectLit) Span() diag.Span { return n.SpanVal }
func (n *ObjectLit) exprNode()       {}

type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
)

type Unary struct {
	Op      UnaryOp
	Expr    Expr
	SpanVal diag.Span
}

func (n *Unary) Span() diag.Span { return n.SpanVal }
func (n *Unary) exprNode()       {}

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

type Binary struct {
	Left    Expr
	Op      BinaryOp
	Right   Expr
	SpanVal diag.Span
}

func (n *Binary) Span() diag.Span { return n.SpanVal }
func (n *Binary) exprNode()       {}

type Call struct {
	Callee  Expr
	Args    []Expr
	SpanVal diag.Span
}

func (n *Call) Span() diag.Span { return n.SpanVal }
func (n *Call) exprNode()       {}

type Index struct {
	Target  Expr
	IndexE  Expr
	SpanVal diag.Span
}

func (n *Index) Span() diag.Span { return n.SpanVal }
func (n *Index) exprNode()       {}

type Member struct {
	Target  Expr
	Name    string
	SpanVal diag.Span
}

func (n *Member) Span() diag.Span { return n.SpanVal }
func (n *Member) exprNode()       {}

type TupleIndex struct {
	Target  Expr
	Index   int
	SpanVal diag.Span
}

func (n *TupleIndex) Span() diag.Span { return n.SpanVal }
func (n *TupleIndex) exprNode()       {}

// Prompt is a `$ ... $` template expression.
type Prompt struct {
	Parts   []PromptPart
	SpanVal diag.Span
}

func (n *Prompt) Span() diag.Span { return n.SpanVal }
func (n *Prompt) exprNode()       {}

// PromptPart is a piece of a prompt template: literal text or an
// interpolated expression.
type PromptPart interface {
	promptPartNode()
}

type PromptText struct{ Text string }

func (PromptText) promptPartNode() {}

type PromptInterpolation struct{ Expr Expr }

func (PromptInterpolation) promptPartNode() {}

// SchemaExpr is a node of the schema mini-grammar.
type SchemaExpr interface {
	schemaNode()
}

type AnySchema struct{}
type IntSchema struct{}
type FloatSchema struct{}
type BoolSchema struct{}
type StringSchema struct{}

func (AnySchema) schemaNode()    {}
func (IntSchema) schemaNode()    {}
func (FloatSchema) schemaNode()  {}
func (BoolSchema) schemaNode()   {}
func (StringSchema) schemaNode() {}

type ListSchema struct{ Inner SchemaExpr }

func (ListSchema) schemaNode() {}

type TupleSchema struct{ Items []SchemaExpr }

func (TupleSchema) schemaNode() {}

// SchemaField is one named field of an object schema, order-significant.
type SchemaField struct {
	Name   string
	Schema SchemaExpr
}

type ObjectSchema struct{ Fields []SchemaField }

func (ObjectSchema) schemaNode() {}

type UnionSchema struct{ Variants []SchemaExpr }

func (UnionSchema) schemaNode() {}

type OptionalSchema struct{ Inner SchemaExpr }

func (OptionalSchema) schemaNode() {}
