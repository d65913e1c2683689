package ast

import (
	"mpsl/internal/source"
	"mpsl/internal/types"
)

// Stmts manages allocation of statements.
type Stmts struct {
	Arena    *Arena[Stmt]
	Blocks   *Arena[StmtBlockData]
	VarDecls *Arena[StmtVarDeclData]
	Ifs      *Arena[StmtIfData]
	Fors     *Arena[StmtForData]
	Whiles   *Arena[StmtWhileData]
	DoWhiles *Arena[StmtDoWhileData]
	Returns  *Arena[StmtReturnData]
	Exprs    *Arena[StmtExprData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Stmts{
		Arena:    NewArena[Stmt](capHint),
		Blocks:   NewArena[StmtBlockData](capHint / 4),
		VarDecls: NewArena[StmtVarDeclData](capHint / 4),
		Ifs:      NewArena[StmtIfData](capHint / 4),
		Fors:     NewArena[StmtForData](capHint / 8),
		Whiles:   NewArena[StmtWhileData](capHint / 8),
		DoWhiles: NewArena[StmtDoWhileData](capHint / 8),
		Returns:  NewArena[StmtReturnData](capHint / 8),
		Exprs:    NewArena[StmtExprData](capHint / 2),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the statement with the given ID.
func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	return s.new(StmtBlock, span, s.Blocks.Allocate(StmtBlockData{
		Stmts: append([]StmtID(nil), stmts...),
	}))
}

func (s *Stmts) Block(id StmtID) (*StmtBlockData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtBlock {
		return nil, false
	}
	return s.Blocks.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewVarDecl(span source.Span, name source.StringID, typ types.TypeInfo, init ExprID, isConst bool) StmtID {
	return s.new(StmtVarDecl, span, s.VarDecls.Allocate(StmtVarDeclData{
		Name: name, Type: typ, Init: init, Const: isConst,
	}))
}

func (s *Stmts) VarDecl(id StmtID) (*StmtVarDeclData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtVarDecl {
		return nil, false
	}
	return s.VarDecls.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els StmtID) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(StmtIfData{Cond: cond, Then: then, Else: els}))
}

func (s *Stmts) If(id StmtID) (*StmtIfData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtIf {
		return nil, false
	}
	return s.Ifs.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewFor(span source.Span, init StmtID, cond, post ExprID, body StmtID) StmtID {
	return s.new(StmtFor, span, s.Fors.Allocate(StmtForData{Init: init, Cond: cond, Post: post, Body: body}))
}

func (s *Stmts) For(id StmtID) (*StmtForData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtFor {
		return nil, false
	}
	return s.Fors.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body StmtID) StmtID {
	return s.new(StmtWhile, span, s.Whiles.Allocate(StmtWhileData{Cond: cond, Body: body}))
}

func (s *Stmts) While(id StmtID) (*StmtWhileData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtWhile {
		return nil, false
	}
	return s.Whiles.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewDoWhile(span source.Span, body StmtID, cond ExprID) StmtID {
	return s.new(StmtDoWhile, span, s.DoWhiles.Allocate(StmtDoWhileData{Body: body, Cond: cond}))
}

func (s *Stmts) DoWhile(id StmtID) (*StmtDoWhileData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtDoWhile {
		return nil, false
	}
	return s.DoWhiles.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewBreak(span source.Span) StmtID {
	return s.new(StmtBreak, span, 0)
}

func (s *Stmts) NewContinue(span source.Span) StmtID {
	return s.new(StmtContinue, span, 0)
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(StmtReturnData{Value: value}))
}

func (s *Stmts) Return(id StmtID) (*StmtReturnData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtReturn {
		return nil, false
	}
	return s.Returns.Get(uint32(stmt.Payload)), true
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(StmtExprData{Expr: expr}))
}

func (s *Stmts) Expr(id StmtID) (*StmtExprData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtExpr {
		return nil, false
	}
	return s.Exprs.Get(uint32(stmt.Payload)), true
}
