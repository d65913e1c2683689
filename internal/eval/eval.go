// Package eval executes analyzed programs directly over the tree. It
// mirrors the compiled code lane for lane, so running a program here and
// through the JIT yields the same bits.
package eval

import (
	"fmt"
	"unsafe"

	"mpsl/internal/ast"
	"mpsl/internal/types"
)

// val is one evaluated expression: a single row of lanes, or one row
// per matrix row.
type val struct {
	t    types.TypeInfo
	rows [4]ast.Value
	n    uint8
}

func single(t types.TypeInfo, v ast.Value) val {
	return val{t: t, rows: [4]ast.Value{v}, n: 1}
}

func rowCount(t types.TypeInfo) uint8 {
	if t.IsMatrix() {
		return uint8(t.Rows())
	}
	return 1
}

func rowLanes(t types.TypeInfo) uint32 {
	if t.IsMatrix() {
		return t.Cols()
	}
	return t.Lanes()
}

type ctrl uint8

const (
	ctrlNone ctrl = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

// frame is one call activation. Locals map analyzer bindings to values;
// params occupy bindings 1..len(params).
type frame struct {
	locals map[uint32]*val
	ret    val
}

func newFrame() *frame {
	return &frame{locals: make(map[uint32]*val)}
}

// Machine walks an analyzed and optimized tree. One Machine serves one
// run; it is not safe for concurrent use.
type Machine struct {
	b      *ast.Builder
	args   []unsafe.Pointer
	frames []*frame
}

// RetDest is the argument member that receives the value of a non-void
// main: slot index and byte offset within the record.
type RetDest struct {
	Slot   uint32
	Offset uint32
}

// Run executes the program's main function against the given argument
// records, one pointer per object slot in layout order. A nil ret
// discards the value of a non-void main.
func Run(b *ast.Builder, args []unsafe.Pointer, ret *RetDest) error {
	mainID := b.Funcs.Find(b.Strings.Intern("main"))
	if !mainID.IsValid() {
		return fmt.Errorf("eval: program has no main function")
	}
	m := &Machine{b: b, args: args}
	m.frames = append(m.frames, newFrame())
	m.stmt(b.Funcs.Get(mainID).Body)
	if ret != nil && m.frames[0].ret.n != 0 {
		m.storeMem(ret.Slot, ret.Offset, m.frames[0].ret)
	}
	return nil
}

func (m *Machine) frame() *frame {
	return m.frames[len(m.frames)-1]
}

// local returns the storage for a binding, creating a zero value of the
// type on first touch.
func (m *Machine) local(binding uint32, t types.TypeInfo) *val {
	fr := m.frame()
	if v, ok := fr.locals[binding]; ok {
		return v
	}
	v := &val{t: t.Unqualified(), n: rowCount(t)}
	fr.locals[binding] = v
	return v
}

func (m *Machine) setLocal(binding uint32, t types.TypeInfo, v val) {
	l := m.local(binding, t)
	l.rows = v.rows
	l.n = v.n
}

func (m *Machine) stmt(id ast.StmtID) ctrl {
	if !id.IsValid() {
		return ctrlNone
	}
	switch m.b.Stmts.Get(id).Kind {
	case ast.StmtBlock:
		d, _ := m.b.Stmts.Block(id)
		for _, sid := range d.Stmts {
			if c := m.stmt(sid); c != ctrlNone {
				return c
			}
		}
	case ast.StmtVarDecl:
		d, _ := m.b.Stmts.VarDecl(id)
		if d.Init.IsValid() {
			m.setLocal(d.Binding, d.Type, m.expr(d.Init))
		} else {
			m.local(d.Binding, d.Type)
		}
	case ast.StmtIf:
		d, _ := m.b.Stmts.If(id)
		if m.truth(d.Cond) {
			return m.stmt(d.Then)
		}
		return m.stmt(d.Else)
	case ast.StmtFor:
		return m.forStmt(id)
	case ast.StmtWhile:
		d, _ := m.b.Stmts.While(id)
		for m.truth(d.Cond) {
			switch m.stmt(d.Body) {
			case ctrlBreak:
				return ctrlNone
			case ctrlReturn:
				return ctrlReturn
			}
		}
	case ast.StmtDoWhile:
		d, _ := m.b.Stmts.DoWhile(id)
		for {
			switch m.stmt(d.Body) {
			case ctrlBreak:
				return ctrlNone
			case ctrlReturn:
				return ctrlReturn
			}
			if !m.truth(d.Cond) {
				break
			}
		}
	case ast.StmtBreak:
		return ctrlBreak
	case ast.StmtContinue:
		return ctrlContinue
	case ast.StmtReturn:
		d, _ := m.b.Stmts.Return(id)
		if d.Value.IsValid() {
			m.frame().ret = m.expr(d.Value)
		}
		return ctrlReturn
	case ast.StmtExpr:
		d, _ := m.b.Stmts.Expr(id)
		m.expr(d.Expr)
	}
	return ctrlNone
}

func (m *Machine) forStmt(id ast.StmtID) ctrl {
	d, _ := m.b.Stmts.For(id)
	m.stmt(d.Init)
	for {
		if d.Cond.IsValid() && !m.truth(d.Cond) {
			return ctrlNone
		}
		switch m.stmt(d.Body) {
		case ctrlBreak:
			return ctrlNone
		case ctrlReturn:
			return ctrlReturn
		}
		if d.Post.IsValid() {
			m.expr(d.Post)
		}
	}
}

// truth evaluates a scalar bool condition.
func (m *Machine) truth(id ast.ExprID) bool {
	v := m.expr(id)
	return v.rows[0].Bool(0)
}
