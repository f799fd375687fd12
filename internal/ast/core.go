// Package ast defines the syntax tree produced by internal/parser.
//
// The tree is intentionally close to source: it carries spans for every
// node but no resolved identities. Resolution happens later, in
// internal/decl (declarations) and internal/check (everything else).
package ast

// Pos is a single point in a source file.
type Pos struct {
	Line, Col int
}

// Span covers a contiguous range of source text.
type Span struct {
	Start, End Pos
}

// Node is implemented by every AST node.
type Node interface {
	Span() Span
}

// Expr is any expression-position node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement-position node (a block is a list of Stmt, the last
// of which may be an expression-statement used as the block's value).
type Stmt interface {
	Node
	stmtNode()
}

// Pattern is any pattern-position node (let-bindings, match arms, for-loop
// targets).
type Pattern interface {
	Node
	patternNode()
}

// TypeExpr is a parsed, unresolved type annotation.
type TypeExpr interface {
	Node
	typeExprNode()
}

// File is one parsed source file.
type File struct {
	Path    string   // source file path, as passed to parser.ParseFile
	Items   []Item
	Span_   Span
}

func (f *File) Span() Span { return f.Span_ }

// Item is anything that can appear at module top level.
type Item interface {
	Node
	itemNode()
}
