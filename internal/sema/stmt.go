package sema

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/types"
)

func (a *Analyzer) stmt(id ast.StmtID) bool {
	st := a.b.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtBlock:
		d, _ := a.b.Stmts.Block(id)
		a.scopes.push()
		defer a.scopes.pop()
		for _, s := range d.Stmts {
			if !a.stmt(s) {
				return false
			}
		}
		return true

	case ast.StmtVarDecl:
		return a.varDecl(id)

	case ast.StmtIf:
		d, _ := a.b.Stmts.If(id)
		if !a.expr(d.Cond) || !a.boolCond(d.Cond) {
			return false
		}
		if !a.stmt(d.Then) {
			return false
		}
		if d.Else.IsValid() {
			return a.stmt(d.Else)
		}
		return true

	case ast.StmtFor:
		d, _ := a.b.Stmts.For(id)
		a.scopes.push()
		defer a.scopes.pop()
		if d.Init.IsValid() && !a.stmt(d.Init) {
			return false
		}
		if d.Cond.IsValid() {
			if !a.expr(d.Cond) || !a.boolCond(d.Cond) {
				return false
			}
		}
		if d.Post.IsValid() && !a.expr(d.Post) {
			return false
		}
		a.loopDepth++
		ok := a.stmt(d.Body)
		a.loopDepth--
		return ok

	case ast.StmtWhile:
		d, _ := a.b.Stmts.While(id)
		if !a.expr(d.Cond) || !a.boolCond(d.Cond) {
			return false
		}
		a.loopDepth++
		ok := a.stmt(d.Body)
		a.loopDepth--
		return ok

	case ast.StmtDoWhile:
		d, _ := a.b.Stmts.DoWhile(id)
		a.loopDepth++
		ok := a.stmt(d.Body)
		a.loopDepth--
		if !ok {
			return false
		}
		return a.expr(d.Cond) && a.boolCond(d.Cond)

	case ast.StmtBreak:
		if a.loopDepth == 0 {
			a.err(diag.SemaBreakOutsideLoop, st.Span, "'break' outside of a loop")
			return false
		}
		return true

	case ast.StmtContinue:
		if a.loopDepth == 0 {
			a.err(diag.SemaContinueOutsideLoop, st.Span, "'continue' outside of a loop")
			return false
		}
		return true

	case ast.StmtReturn:
		return a.returnStmt(id)

	case ast.StmtExpr:
		d, _ := a.b.Stmts.Expr(id)
		return a.expr(d.Expr)
	}
	return true
}

func (a *Analyzer) varDecl(id ast.StmtID) bool {
	d, _ := a.b.Stmts.VarDecl(id)
	st := a.b.Stmts.Get(id)

	if d.Init.IsValid() {
		if !a.expr(d.Init) {
			return false
		}
		init, ok := a.coerce(d.Init, d.Type, diag.SemaTypeMismatch)
		if !ok {
			return false
		}
		d.Init = init
	}

	slot := a.nextSlot
	a.nextSlot++
	d.Binding = slot + 1

	declared := d.Type
	if d.Const {
		declared = declared.WithConst()
	}
	ok := a.scopes.declare(Symbol{
		Name:    d.Name,
		Kind:    SymVariable,
		Type:    declared,
		Binding: d.Binding,
	})
	if !ok {
		a.err(diag.SemaSymbolRedefined, st.Span, "symbol '"+a.b.Name(d.Name)+"' redefined")
		return false
	}
	return true
}

func (a *Analyzer) returnStmt(id ast.StmtID) bool {
	d, _ := a.b.Stmts.Return(id)
	st := a.b.Stmts.Get(id)
	ret := a.b.Funcs.Get(a.fn).Ret

	if ret.SameShape(types.Void) {
		if d.Value.IsValid() {
			a.err(diag.SemaReturnTypeMismatch, st.Span, "void function returns a value")
			return false
		}
		return true
	}
	if !d.Value.IsValid() {
		a.err(diag.SemaReturnTypeMismatch, st.Span,
			"function must return '"+ret.String()+"'")
		return false
	}
	if !a.expr(d.Value) {
		return false
	}
	value, ok := a.coerce(d.Value, ret, diag.SemaReturnTypeMismatch)
	if !ok {
		return false
	}
	d.Value = value
	return true
}
