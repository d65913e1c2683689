package ir

import (
	"mpsl/internal/ast"
)

func (lw *Lowerer) stmt(id ast.StmtID) {
	if !id.IsValid() || lw.block().Terminated() {
		return
	}
	switch lw.b.Stmts.Get(id).Kind {
	case ast.StmtBlock:
		d, _ := lw.b.Stmts.Block(id)
		for _, sid := range d.Stmts {
			lw.stmt(sid)
		}
	case ast.StmtVarDecl:
		d, _ := lw.b.Stmts.VarDecl(id)
		slot := lw.slotFor(d.Binding, d.Type)
		if d.Init.IsValid() {
			lw.storeSlots(slot, lw.expr(d.Init))
		}
	case ast.StmtIf:
		lw.ifStmt(id)
	case ast.StmtFor:
		lw.forStmt(id)
	case ast.StmtWhile:
		lw.whileStmt(id)
	case ast.StmtDoWhile:
		lw.doWhileStmt(id)
	case ast.StmtBreak:
		lw.block().Term = Goto(lw.loops[len(lw.loops)-1].brk)
	case ast.StmtContinue:
		lw.block().Term = Goto(lw.loops[len(lw.loops)-1].cont)
	case ast.StmtReturn:
		d, _ := lw.b.Stmts.Return(id)
		lw.ret(d.Value)
	case ast.StmtExpr:
		d, _ := lw.b.Stmts.Expr(id)
		lw.expr(d.Expr)
	}
}

func (lw *Lowerer) ret(valueID ast.ExprID) {
	fr := lw.frame()
	if len(lw.frames) == 1 {
		if valueID.IsValid() {
			v := lw.expr(valueID)
			if lw.retDest != nil {
				lw.storeMem(lw.argPtr(lw.retDest.Slot), lw.retDest.Offset, v)
			}
		}
		lw.block().Term = Return(NoVReg)
		return
	}
	if valueID.IsValid() {
		lw.storeSlots(fr.retSlot, lw.expr(valueID))
	}
	lw.block().Term = Goto(fr.retJoin)
}

func (lw *Lowerer) ifStmt(id ast.StmtID) {
	d, _ := lw.b.Stmts.If(id)
	cond := lw.expr(d.Cond).regs[0]

	thenB := lw.fn.NewBlock()
	join := lw.fn.NewBlock()
	elseB := join
	if d.Else.IsValid() {
		elseB = lw.fn.NewBlock()
	}
	lw.block().Term = If(cond, thenB, elseB)

	lw.cur = thenB
	lw.stmt(d.Then)
	if !lw.block().Terminated() {
		lw.block().Term = Goto(join)
	}
	if d.Else.IsValid() {
		lw.cur = elseB
		lw.stmt(d.Else)
		if !lw.block().Terminated() {
			lw.block().Term = Goto(join)
		}
	}
	lw.cur = join
}

func (lw *Lowerer) forStmt(id ast.StmtID) {
	d, _ := lw.b.Stmts.For(id)
	lw.stmt(d.Init)

	header := lw.fn.NewBlock()
	body := lw.fn.NewBlock()
	latch := lw.fn.NewBlock()
	exit := lw.fn.NewBlock()

	lw.block().Term = Goto(header)
	lw.cur = header
	if d.Cond.IsValid() {
		cond := lw.expr(d.Cond).regs[0]
		lw.block().Term = If(cond, body, exit)
	} else {
		lw.block().Term = Goto(body)
	}

	lw.loops = append(lw.loops, loopTargets{brk: exit, cont: latch})
	lw.cur = body
	lw.stmt(d.Body)
	if !lw.block().Terminated() {
		lw.block().Term = Goto(latch)
	}
	lw.loops = lw.loops[:len(lw.loops)-1]

	lw.cur = latch
	if d.Post.IsValid() {
		lw.expr(d.Post)
	}
	lw.block().Term = Goto(header)
	lw.cur = exit
}

func (lw *Lowerer) whileStmt(id ast.StmtID) {
	d, _ := lw.b.Stmts.While(id)

	header := lw.fn.NewBlock()
	body := lw.fn.NewBlock()
	exit := lw.fn.NewBlock()

	lw.block().Term = Goto(header)
	lw.cur = header
	cond := lw.expr(d.Cond).regs[0]
	lw.block().Term = If(cond, body, exit)

	lw.loops = append(lw.loops, loopTargets{brk: exit, cont: header})
	lw.cur = body
	lw.stmt(d.Body)
	if !lw.block().Terminated() {
		lw.block().Term = Goto(header)
	}
	lw.loops = lw.loops[:len(lw.loops)-1]
	lw.cur = exit
}

func (lw *Lowerer) doWhileStmt(id ast.StmtID) {
	d, _ := lw.b.Stmts.DoWhile(id)

	body := lw.fn.NewBlock()
	check := lw.fn.NewBlock()
	exit := lw.fn.NewBlock()

	lw.block().Term = Goto(body)
	lw.loops = append(lw.loops, loopTargets{brk: exit, cont: check})
	lw.cur = body
	lw.stmt(d.Body)
	if !lw.block().Terminated() {
		lw.block().Term = Goto(check)
	}
	lw.loops = lw.loops[:len(lw.loops)-1]

	lw.cur = check
	cond := lw.expr(d.Cond).regs[0]
	lw.block().Term = If(cond, body, exit)
	lw.cur = exit
}
