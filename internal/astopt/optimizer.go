// Package astopt simplifies an analyzed tree before lowering: constant
// folding over literal operands and elimination of statements that can
// never execute. Nodes are rewritten in place; expression types never
// change, only kinds and payloads.
package astopt

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/source"
)

type optimizer struct {
	b        *ast.Builder
	reporter diag.Reporter
	failed   bool
}

// Optimize runs the pass over every function body. It reports false
// after emitting a diagnostic, which today only happens for integer
// division or remainder by a constant zero.
func Optimize(b *ast.Builder, reporter diag.Reporter) bool {
	o := &optimizer{b: b, reporter: reporter}
	count := b.Funcs.Arena.Len()
	for i := uint32(1); i <= count; i++ {
		fn := b.Funcs.Get(ast.FuncID(i))
		body, _ := o.stmt(fn.Body)
		if o.failed {
			return false
		}
		fn.Body = o.keep(b.Stmts.Get(fn.Body).Span, body)
	}
	return true
}

func (o *optimizer) err(code diag.Code, sp source.Span, msg string) {
	if !o.failed {
		diag.ReportError(o.reporter, code, sp, msg)
		o.failed = true
	}
}

// keep substitutes an empty block for a dropped statement in positions
// that must stay occupied, like an if branch or a loop body.
func (o *optimizer) keep(sp source.Span, id ast.StmtID) ast.StmtID {
	if id.IsValid() {
		return id
	}
	return o.b.Stmts.NewBlock(sp, nil)
}

// stmt simplifies one statement. It returns NoStmtID when the statement
// can be dropped, and reports whether control never flows past it.
func (o *optimizer) stmt(id ast.StmtID) (ast.StmtID, bool) {
	if !id.IsValid() || o.failed {
		return id, false
	}
	s := o.b.Stmts.Get(id)
	switch s.Kind {
	case ast.StmtBlock:
		return o.block(id)
	case ast.StmtVarDecl:
		d, _ := o.b.Stmts.VarDecl(id)
		if d.Init.IsValid() {
			o.expr(d.Init)
		}
		return id, false
	case ast.StmtIf:
		return o.ifStmt(id)
	case ast.StmtFor:
		return o.forStmt(id)
	case ast.StmtWhile:
		return o.whileStmt(id)
	case ast.StmtDoWhile:
		return o.doWhileStmt(id)
	case ast.StmtBreak, ast.StmtContinue:
		return id, true
	case ast.StmtReturn:
		d, _ := o.b.Stmts.Return(id)
		if d.Value.IsValid() {
			o.expr(d.Value)
		}
		return id, true
	case ast.StmtExpr:
		d, _ := o.b.Stmts.Expr(id)
		o.expr(d.Expr)
		if o.b.Exprs.Get(d.Expr).Kind == ast.ExprLit {
			// the whole expression folded away, nothing left to do
			return ast.NoStmtID, false
		}
		return id, false
	}
	return id, false
}

func (o *optimizer) block(id ast.StmtID) (ast.StmtID, bool) {
	d, _ := o.b.Stmts.Block(id)
	out := d.Stmts[:0]
	terminated := false
	for _, sid := range d.Stmts {
		ns, term := o.stmt(sid)
		if o.failed {
			return id, false
		}
		if ns.IsValid() {
			out = append(out, ns)
		}
		if term {
			// statements after this one can never run
			terminated = true
			break
		}
	}
	d.Stmts = out
	return id, terminated
}

func (o *optimizer) ifStmt(id ast.StmtID) (ast.StmtID, bool) {
	d, _ := o.b.Stmts.If(id)
	o.expr(d.Cond)
	if lit, ok := o.b.Exprs.Literal(d.Cond); ok {
		if lit.Val.Bool(0) {
			return o.stmt(d.Then)
		}
		return o.stmt(d.Else)
	}
	then, termThen := o.stmt(d.Then)
	d.Then = o.keep(o.b.Stmts.Get(id).Span, then)
	els, termElse := o.stmt(d.Else)
	d.Else = els
	return id, d.Else.IsValid() && termThen && termElse
}

func (o *optimizer) forStmt(id ast.StmtID) (ast.StmtID, bool) {
	d, _ := o.b.Stmts.For(id)
	init, _ := o.stmt(d.Init)
	d.Init = init
	if d.Cond.IsValid() {
		o.expr(d.Cond)
		if lit, ok := o.b.Exprs.Literal(d.Cond); ok && !lit.Val.Bool(0) {
			// the loop never runs; the init still does
			return d.Init, false
		}
	}
	if d.Post.IsValid() {
		o.expr(d.Post)
	}
	body, _ := o.stmt(d.Body)
	d.Body = o.keep(o.b.Stmts.Get(id).Span, body)
	return id, false
}

func (o *optimizer) whileStmt(id ast.StmtID) (ast.StmtID, bool) {
	d, _ := o.b.Stmts.While(id)
	o.expr(d.Cond)
	if lit, ok := o.b.Exprs.Literal(d.Cond); ok && !lit.Val.Bool(0) {
		return ast.NoStmtID, false
	}
	body, _ := o.stmt(d.Body)
	d.Body = o.keep(o.b.Stmts.Get(id).Span, body)
	return id, false
}

func (o *optimizer) doWhileStmt(id ast.StmtID) (ast.StmtID, bool) {
	d, _ := o.b.Stmts.DoWhile(id)
	body, _ := o.stmt(d.Body)
	d.Body = o.keep(o.b.Stmts.Get(id).Span, body)
	o.expr(d.Cond)
	if lit, ok := o.b.Exprs.Literal(d.Cond); ok && !lit.Val.Bool(0) {
		if !o.hasLoopJump(d.Body) {
			// runs exactly once and there is no break or continue
			// that would need the loop around it
			return d.Body, false
		}
	}
	return id, false
}

// hasLoopJump reports whether a break or continue targets the loop this
// statement is the body of. Nested loops capture their own jumps.
func (o *optimizer) hasLoopJump(id ast.StmtID) bool {
	if !id.IsValid() {
		return false
	}
	s := o.b.Stmts.Get(id)
	switch s.Kind {
	case ast.StmtBreak, ast.StmtContinue:
		return true
	case ast.StmtBlock:
		d, _ := o.b.Stmts.Block(id)
		for _, sid := range d.Stmts {
			if o.hasLoopJump(sid) {
				return true
			}
		}
	case ast.StmtIf:
		d, _ := o.b.Stmts.If(id)
		return o.hasLoopJump(d.Then) || o.hasLoopJump(d.Else)
	}
	return false
}
