package ast

import (
	"mpsl/internal/source"
	"mpsl/internal/types"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtVarDecl
	StmtIf
	StmtFor
	StmtWhile
	StmtDoWhile
	StmtBreak
	StmtContinue
	StmtReturn
	StmtExpr
)

// Stmt is the shared statement header.
type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type StmtBlockData struct {
	Stmts []StmtID
}

// StmtVarDeclData declares one local. Binding is the analyzer-assigned
// local slot (1-based; 0 until resolution). Init may be NoExprID.
type StmtVarDeclData struct {
	Name    source.StringID
	Type    types.TypeInfo
	Init    ExprID
	Const   bool
	Binding uint32
}

// StmtIfData; Else is NoStmtID when absent.
type StmtIfData struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

// StmtForData; Init/Cond/Post may each be absent.
type StmtForData struct {
	Init StmtID
	Cond ExprID
	Post ExprID
	Body StmtID
}

type StmtWhileData struct {
	Cond ExprID
	Body StmtID
}

type StmtDoWhileData struct {
	Body StmtID
	Cond ExprID
}

// StmtReturnData; Value is NoExprID for a bare return.
type StmtReturnData struct {
	Value ExprID
}

type StmtExprData struct {
	Expr ExprID
}
