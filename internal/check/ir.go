package check

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/decl"
	"github.com/emberlang/ember/internal/types"
)

// IdentDef is what a checked identifier expression resolved to: a scope
// Variable, a Generic brought into scope, a forest Decl, or nothing
// (already reported as Unresolved, and typed Unknown so checking can
// keep going).
type IdentDef interface{ isIdentDef() }

type DefVariable struct{ Ty types.Ty }
type DefGeneric struct{ Ty types.Generic }
type DefDecl struct{ Decl *decl.Decl }
type DefUnresolved struct{}

func (DefVariable) isIdentDef()   {}
func (DefGeneric) isIdentDef()    {}
func (DefDecl) isIdentDef()       {}
func (DefUnresolved) isIdentDef() {}

// Expr is a typed IR expression: every ast.Expr variant has a matching
// case here plus the Ty the checker assigned it.
type Expr struct {
	Ty   types.Ty
	Span ast.Span
	Node ExprNode
}

// ExprNode is the sum of typed expression shapes. Kept separate from
// Expr so Ty/Span live once at the top instead of being duplicated into
// every variant.
type ExprNode interface{ isExprNode() }

type IdentExpr struct {
	Name string
	Def  IdentDef
}
type IntLit struct{ Value int64 }
type FloatLit struct{ Value float32 }
type StringLit struct{ Value string }
type BoolLit struct{ Value bool }
type CharLit struct{ Value rune }
type ListLit struct{ Elems []*Expr }
type TupleExpr struct{ Elems []*Expr }
type CallExpr struct {
	Callee *Expr
	Args   []*Expr
	Target *decl.Decl // resolved function/struct-constructor decl, if any
}
type MemberExpr struct {
	Recv  *Expr
	Field string
}
type MethodCallExpr struct {
	Recv   *Expr
	Method string
	Args   []*Expr
	Target *decl.Decl
}
type BinaryExpr struct {
	Op          ast.BinOp
	Left, Right *Expr
}
type UnaryExpr struct {
	Op      string
	Operand *Expr
}
type AssignExpr struct{ Target, Value *Expr }
type LambdaExpr struct {
	Params []string
	Body   *Expr
}
type BlockExpr struct {
	Stmts []Stmt
	Tail  *Expr // nil when the block's value is unit
}
type IfExpr struct {
	Cond       *Expr
	Then, Else *Expr
}
type MatchArm struct {
	Pattern Pattern
	Guard   *Expr
	Body    *Expr
}
type MatchExpr struct {
	Scrutinee *Expr
	Arms      []MatchArm
}
type ForExpr struct {
	Pattern Pattern
	Iter    *Expr
	Body    *Expr

	// The resolved iteration protocol: the `iter` function
	// on the iterable's type and the `next` function on the iterator it
	// returns, plus whether each dispatches dynamically.
	IterFn  *decl.Decl
	NextFn  *decl.Decl
	IterDyn bool
	NextDyn bool
}
type WhileExpr struct {
	Cond   *Expr
	Let    Pattern
	LetVal *Expr
	Body   *Expr
}
type BreakExpr struct{}
type ContinueExpr struct{}
type ReturnExpr struct{ Value *Expr }

func (IdentExpr) isExprNode()      {}
func (IntLit) isExprNode()         {}
func (FloatLit) isExprNode()       {}
func (StringLit) isExprNode()      {}
func (BoolLit) isExprNode()        {}
func (CharLit) isExprNode()        {}
func (ListLit) isExprNode()        {}
func (TupleExpr) isExprNode()      {}
func (CallExpr) isExprNode()       {}
func (MemberExpr) isExprNode()     {}
func (MethodCallExpr) isExprNode() {}
func (BinaryExpr) isExprNode()     {}
func (UnaryExpr) isExprNode()      {}
func (AssignExpr) isExprNode()     {}
func (LambdaExpr) isExprNode()     {}
func (BlockExpr) isExprNode()      {}
func (IfExpr) isExprNode()         {}
func (MatchExpr) isExprNode()      {}
func (ForExpr) isExprNode()        {}
func (WhileExpr) isExprNode()      {}
func (BreakExpr) isExprNode()      {}
func (ContinueExpr) isExprNode()   {}
func (ReturnExpr) isExprNode()     {}

// Stmt is a typed statement: a let-binding or a bare expression.
type Stmt interface{ isStmt() }

type LetStmt struct {
	Pattern Pattern
	Value   *Expr
}
type ExprStmt struct{ X *Expr }

func (LetStmt) isStmt()  {}
func (ExprStmt) isStmt() {}

// Pattern mirrors ast's pattern shapes, annotated with the Ty each
// binding site was checked against.
type Pattern interface{ isPattern() }

type WildcardPattern struct{}
type NamePattern struct {
	Name string
	Ty   types.Ty
}
type LiteralPattern struct{ Lit *Expr }
type FieldPattern struct {
	Name    string
	Pattern Pattern
}
type StructPattern struct {
	Target *decl.Decl
	Fields []FieldPattern
}
type TupleStructPattern struct {
	Target *decl.Decl
	Elems  []Pattern
}
type TuplePattern struct{ Elems []Pattern }

func (WildcardPattern) isPattern()    {}
func (NamePattern) isPattern()        {}
func (LiteralPattern) isPattern()     {}
func (StructPattern) isPattern()      {}
func (TupleStructPattern) isPattern() {}
func (TuplePattern) isPattern()       {}
