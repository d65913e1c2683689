package ir

import (
	"math"

	"mpsl/internal/ast"
	"mpsl/internal/types"
)

// value is one lowered expression: a single register, or one register
// per row for matrices.
type value struct {
	t    types.TypeInfo
	regs [4]VRegID
	rows uint8
}

func single(t types.TypeInfo, r VRegID) value {
	return value{t: t, regs: [4]VRegID{r}, rows: 1}
}

func rowCount(t types.TypeInfo) uint8 {
	if t.IsMatrix() {
		return uint8(t.Rows())
	}
	return 1
}

func (lw *Lowerer) expr(id ast.ExprID) value {
	e := lw.b.Exprs.Get(id)
	t := e.Type.Unqualified()
	switch e.Kind {
	case ast.ExprLit:
		d, _ := lw.b.Exprs.Literal(id)
		return single(t, lw.constReg(t, d.Val))
	case ast.ExprIdent:
		d, _ := lw.b.Exprs.Ident(id)
		return lw.loadSlots(lw.slotFor(d.Binding, t), t)
	case ast.ExprUnary:
		return lw.unary(id, t)
	case ast.ExprBinary:
		return lw.binary(id, t)
	case ast.ExprTernary:
		return lw.ternary(id, t)
	case ast.ExprCall:
		d, _ := lw.b.Exprs.Call(id)
		if d.Intrinsic != ast.NoIntrinsic {
			return lw.intrinsic(d.Intrinsic, d.Args, t)
		}
		return lw.inline(d.Func, d.Args)
	case ast.ExprCast:
		return lw.cast(id, t)
	case ast.ExprCtor:
		return lw.ctor(id, t)
	case ast.ExprSwizzle:
		d, _ := lw.b.Exprs.Swizzle(id)
		src := lw.expr(d.Value)
		return single(t, lw.shuffle(t, src.regs[0], d.Sel, d.Count))
	case ast.ExprMember:
		d, _ := lw.b.Exprs.Member(id)
		base := lw.argPtr(d.Slot)
		return lw.loadMem(base, uint32(d.Offset), t)
	case ast.ExprIndex:
		return lw.index(id, t)
	}
	return value{t: types.Void}
}

// constReg materializes a constant through the pool.
func (lw *Lowerer) constReg(t types.TypeInfo, v ast.Value) VRegID {
	dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
	pool := lw.fn.Pool.InternValue(v, t.Kind(), t.Lanes())
	lw.emit(Instr{Op: OpConst, Dst: dst, Extra: uint32(pool)})
	return dst
}

func (lw *Lowerer) constInt(x int32) VRegID {
	return lw.constReg(types.Make(types.KindInt, 1), ast.ScalarInt(x))
}

func (lw *Lowerer) argPtr(slot uint32) VRegID {
	dst := lw.fn.NewPtrReg()
	lw.emit(Instr{Op: OpArgPtr, Dst: dst, Extra: slot})
	return dst
}

func (lw *Lowerer) shuffle(t types.TypeInfo, src VRegID, sel [8]uint8, count uint8) VRegID {
	dst := lw.fn.NewVReg(t.Kind(), uint32(count))
	lw.emit(Instr{Op: OpShuffle, Dst: dst, A: src, Extra: ShuffleSel(sel, count)})
	return dst
}

func (lw *Lowerer) unary(id ast.ExprID, t types.TypeInfo) value {
	d, _ := lw.b.Exprs.Unary(id)
	switch d.Op {
	case ast.UnaryPlus:
		return lw.expr(d.Operand)
	case ast.UnaryNeg, ast.UnaryNot, ast.UnaryBitNot:
		op := OpNeg
		switch d.Op {
		case ast.UnaryNot:
			op = OpNot
		case ast.UnaryBitNot:
			op = OpBitNot
		}
		src := lw.expr(d.Operand)
		out := value{t: t, rows: src.rows}
		for r := uint8(0); r < src.rows; r++ {
			dst := lw.fn.NewVReg(t.Kind(), rowLanes(t))
			lw.emit(Instr{Op: op, Dst: dst, A: src.regs[r]})
			out.regs[r] = dst
		}
		return out
	}

	// increment and decrement read, adjust and write back
	pl := lw.place(d.Operand)
	old := lw.load(pl)
	one := lw.oneFor(pl.t)
	op := OpAdd
	if d.Op == ast.UnaryPreDec || d.Op == ast.UnaryPostDec {
		op = OpSub
	}
	dst := lw.fn.NewVReg(pl.t.Kind(), pl.t.Lanes())
	lw.emit(Instr{Op: op, Dst: dst, A: old.regs[0], B: one})
	lw.store(pl, single(pl.t, dst))
	if d.Op.IsPostfix() {
		return old
	}
	return single(pl.t, dst)
}

// oneFor builds the constant 1 in every lane of the type.
func (lw *Lowerer) oneFor(t types.TypeInfo) VRegID {
	var v ast.Value
	for i := uint32(0); i < t.Lanes(); i++ {
		switch t.Kind() {
		case types.KindInt:
			v.SetInt(i, 1)
		case types.KindFloat:
			v.SetFloat(i, 1)
		case types.KindDouble:
			v.SetDouble(i, 1)
		}
	}
	return lw.constReg(t, v)
}

func rowLanes(t types.TypeInfo) uint32 {
	if t.IsMatrix() {
		return t.Cols()
	}
	return t.Lanes()
}

var binOps = map[ast.BinaryOp]Op{
	ast.BinAdd: OpAdd, ast.BinSub: OpSub, ast.BinMul: OpMul,
	ast.BinDiv: OpDiv, ast.BinMod: OpMod,
	ast.BinAnd: OpAnd, ast.BinOr: OpOr, ast.BinXor: OpXor,
	ast.BinShl: OpShl, ast.BinShr: OpShr,
	ast.BinLt: OpCmpLt, ast.BinLe: OpCmpLe,
	ast.BinGt: OpCmpGt, ast.BinGe: OpCmpGe,
	ast.BinEq: OpCmpEq, ast.BinNe: OpCmpNe,
}

func (lw *Lowerer) binary(id ast.ExprID, t types.TypeInfo) value {
	d, _ := lw.b.Exprs.Binary(id)
	if d.Op.IsAssign() {
		return lw.assign(d, t)
	}
	if d.Op.IsLogical() {
		return lw.logical(d, t)
	}
	l := lw.expr(d.Left)
	r := lw.expr(d.Right)
	return lw.binValue(d.Op, t, l, r)
}

func (lw *Lowerer) binValue(op ast.BinaryOp, t types.TypeInfo, l, r value) value {
	if l.t.IsMatrix() || r.t.IsMatrix() {
		return lw.matrixBin(op, t, l, r)
	}
	dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
	lw.emit(Instr{Op: binOps[op], Dst: dst, A: l.regs[0], B: r.regs[0]})
	return single(t, dst)
}

func (lw *Lowerer) matrixBin(op ast.BinaryOp, t types.TypeInfo, l, r value) value {
	if op == ast.BinMul && (l.t.IsMatrix() && !r.t.IsScalar() || r.t.IsMatrix() && !l.t.IsScalar()) {
		return lw.matMul(t, l, r)
	}

	// component-wise: matrix op matrix, or matrix op broadcast scalar
	rows := rowCount(t)
	out := value{t: t, rows: rows}
	for i := uint8(0); i < rows; i++ {
		a := lw.rowReg(l, i, t)
		b := lw.rowReg(r, i, t)
		dst := lw.fn.NewVReg(t.Kind(), t.Cols())
		lw.emit(Instr{Op: binOps[op], Dst: dst, A: a, B: b})
		out.regs[i] = dst
	}
	return out
}

// rowReg returns row i of a matrix value, broadcasting a scalar
// operand across the row shape.
func (lw *Lowerer) rowReg(v value, i uint8, t types.TypeInfo) VRegID {
	if v.t.IsMatrix() {
		return v.regs[i]
	}
	dst := lw.fn.NewVReg(t.Kind(), t.Cols())
	lw.emit(Instr{Op: OpBroadcast, Dst: dst, A: v.regs[0]})
	return dst
}

// matMul lowers the three matrix product shapes: MxK * KxN, MxK * vecK
// and vecK * KxN. Each result row accumulates broadcast-multiplied rows
// of the right side.
func (lw *Lowerer) matMul(t types.TypeInfo, l, r value) value {
	if !l.t.IsMatrix() {
		// vecK * KxN: one result row
		return single(t, lw.matMulRow(l.regs[0], l.t.Lanes(), r, t))
	}

	inner := l.t.Cols()
	if !t.IsMatrix() {
		// MxK * vecK: dot each left row with the vector
		acc := lw.zeroReg(t)
		for i := uint32(0); i < l.t.Rows(); i++ {
			s := lw.fn.NewVReg(t.Kind(), 1)
			lw.emit(Instr{Op: OpDot, Dst: s, A: l.regs[i], B: r.regs[0]})
			next := lw.fn.NewVReg(t.Kind(), t.Lanes())
			lw.emit(Instr{Op: OpInsert, Dst: next, A: acc, B: s, C: lw.constInt(int32(i))})
			acc = next
		}
		return single(t, acc)
	}

	out := value{t: t, rows: uint8(t.Rows())}
	for i := uint32(0); i < t.Rows(); i++ {
		out.regs[i] = lw.matMulRow(l.regs[i], inner, r, t)
	}
	return out
}

// matMulRow computes one output row: sum over k of (left lane k
// broadcast) * (right row k).
func (lw *Lowerer) matMulRow(left VRegID, inner uint32, r value, t types.TypeInfo) VRegID {
	var acc VRegID
	for k := uint32(0); k < inner; k++ {
		lane := lw.fn.NewVReg(t.Kind(), 1)
		lw.emit(Instr{Op: OpExtract, Dst: lane, A: left, B: lw.constInt(int32(k))})
		bc := lw.fn.NewVReg(t.Kind(), t.Cols())
		lw.emit(Instr{Op: OpBroadcast, Dst: bc, A: lane})
		m := lw.fn.NewVReg(t.Kind(), t.Cols())
		lw.emit(Instr{Op: OpMul, Dst: m, A: bc, B: r.regs[k]})
		if !acc.IsValid() {
			acc = m
			continue
		}
		next := lw.fn.NewVReg(t.Kind(), t.Cols())
		lw.emit(Instr{Op: OpAdd, Dst: next, A: acc, B: m})
		acc = next
	}
	return acc
}

func (lw *Lowerer) zeroReg(t types.TypeInfo) VRegID {
	return lw.constReg(t, ast.Value{})
}

func (lw *Lowerer) assign(d *ast.ExprBinaryData, t types.TypeInfo) value {
	pl := lw.place(d.Left)
	if d.Op == ast.BinAssign {
		v := lw.expr(d.Right)
		lw.store(pl, v)
		return v
	}
	cur := lw.load(pl)
	r := lw.expr(d.Right)
	res := lw.binValue(d.Op.Base(), pl.t, cur, r)
	lw.store(pl, res)
	return res
}

// logical lowers && and || as branches through a temporary slot so the
// right side only evaluates when it must.
func (lw *Lowerer) logical(d *ast.ExprBinaryData, t types.TypeInfo) value {
	slot := lw.fn.NewSlot(t)
	left := lw.expr(d.Left)
	lw.emit(Instr{Op: OpStoreVar, A: left.regs[0], Extra: slot})

	evalRight := lw.fn.NewBlock()
	join := lw.fn.NewBlock()
	then, els := evalRight, join
	if d.Op == ast.BinLogOr {
		then, els = join, evalRight
	}
	lw.block().Term = If(left.regs[0], then, els)

	lw.cur = evalRight
	right := lw.expr(d.Right)
	lw.emit(Instr{Op: OpStoreVar, A: right.regs[0], Extra: slot})
	lw.block().Term = Goto(join)

	lw.cur = join
	dst := lw.fn.NewVReg(t.Kind(), 1)
	lw.emit(Instr{Op: OpLoadVar, Dst: dst, Extra: slot})
	return single(t, dst)
}

func (lw *Lowerer) ternary(id ast.ExprID, t types.TypeInfo) value {
	d, _ := lw.b.Exprs.Ternary(id)
	slot := lw.allocSlots(t)
	cond := lw.expr(d.Cond).regs[0]

	thenB := lw.fn.NewBlock()
	elseB := lw.fn.NewBlock()
	join := lw.fn.NewBlock()
	lw.block().Term = If(cond, thenB, elseB)

	lw.cur = thenB
	lw.storeSlots(slot, lw.expr(d.Then))
	lw.block().Term = Goto(join)

	lw.cur = elseB
	lw.storeSlots(slot, lw.expr(d.Else))
	lw.block().Term = Goto(join)

	lw.cur = join
	return lw.loadSlots(slot, t)
}

func (lw *Lowerer) cast(id ast.ExprID, t types.TypeInfo) value {
	d, _ := lw.b.Exprs.Cast(id)
	src := lw.expr(d.Value)
	from := src.t

	if t.IsMatrix() {
		// only identity matrix casts reach lowering
		return src
	}

	reg := src.regs[0]
	if from.Kind() != t.Kind() {
		dst := lw.fn.NewVReg(t.Kind(), from.Lanes())
		lw.emit(Instr{Op: OpCast, Dst: dst, A: reg})
		reg = dst
	}
	if from.IsScalar() && t.Lanes() > 1 {
		dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpBroadcast, Dst: dst, A: reg})
		reg = dst
	}
	return single(t, reg)
}

// ctor assembles a vector or matrix lane by lane.
func (lw *Lowerer) ctor(id ast.ExprID, t types.TypeInfo) value {
	d, _ := lw.b.Exprs.Ctor(id)

	vals := make([]value, len(d.Args))
	for i, arg := range d.Args {
		vals[i] = lw.expr(arg)
	}

	if t.IsMatrix() {
		out := value{t: t, rows: uint8(t.Rows())}
		n := 0
		for i := uint32(0); i < t.Rows(); i++ {
			row := lw.zeroReg(t.Row())
			for j := uint32(0); j < t.Cols(); j++ {
				next := lw.fn.NewVReg(t.Kind(), t.Cols())
				lw.emit(Instr{Op: OpInsert, Dst: next, A: row, B: vals[n].regs[0], C: lw.constInt(int32(j))})
				row = next
				n++
			}
			out.regs[i] = row
		}
		return out
	}

	acc := lw.zeroReg(t)
	lane := uint32(0)
	for _, v := range vals {
		for j := uint32(0); j < v.t.Lanes(); j++ {
			s := v.regs[0]
			if !v.t.IsScalar() {
				ext := lw.fn.NewVReg(t.Kind(), 1)
				lw.emit(Instr{Op: OpExtract, Dst: ext, A: v.regs[0], B: lw.constInt(int32(j))})
				s = ext
			}
			next := lw.fn.NewVReg(t.Kind(), t.Lanes())
			lw.emit(Instr{Op: OpInsert, Dst: next, A: acc, B: s, C: lw.constInt(int32(lane))})
			acc = next
			lane++
		}
	}
	return single(t, acc)
}

func (lw *Lowerer) index(id ast.ExprID, t types.TypeInfo) value {
	d, _ := lw.b.Exprs.Index(id)
	src := lw.expr(d.Value)
	idx := lw.expr(d.Index).regs[0]

	if src.t.IsMatrix() {
		return single(t, lw.selectRow(src, idx))
	}
	dst := lw.fn.NewVReg(t.Kind(), 1)
	lw.emit(Instr{Op: OpExtract, Dst: dst, A: src.regs[0], B: idx})
	return single(t, dst)
}

// selectRow picks a matrix row by runtime index with a compare-select
// chain over the row registers.
func (lw *Lowerer) selectRow(m value, idx VRegID) VRegID {
	row := m.t.Row()
	res := m.regs[0]
	for k := uint8(1); k < m.rows; k++ {
		eq := lw.fn.NewVReg(types.KindBool, 1)
		lw.emit(Instr{Op: OpCmpEq, Dst: eq, A: idx, B: lw.constInt(int32(k))})
		mask := lw.fn.NewVReg(types.KindBool, row.Lanes())
		lw.emit(Instr{Op: OpBroadcast, Dst: mask, A: eq})
		next := lw.fn.NewVReg(row.Kind(), row.Lanes())
		lw.emit(Instr{Op: OpSelect, Dst: next, A: mask, B: m.regs[k], C: res})
		res = next
	}
	return res
}

func (lw *Lowerer) intrinsic(in ast.Intrinsic, args []ast.ExprID, t types.TypeInfo) value {
	vals := make([]value, len(args))
	for i, arg := range args {
		vals[i] = lw.expr(arg)
	}
	u := vals[0].t

	simple := map[ast.Intrinsic]Op{
		ast.IntrAbs: OpAbs, ast.IntrMin: OpMin, ast.IntrMax: OpMax,
		ast.IntrFloor: OpFloor, ast.IntrCeil: OpCeil,
		ast.IntrRound: OpRound, ast.IntrTrunc: OpTrunc,
		ast.IntrSqrt: OpSqrt, ast.IntrRsqrt: OpRsqrt, ast.IntrRcp: OpRcp,
		ast.IntrSign: OpSign,
	}
	if op, ok := simple[in]; ok {
		dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
		b := NoVReg
		if len(vals) > 1 {
			b = vals[1].regs[0]
		}
		lw.emit(Instr{Op: op, Dst: dst, A: vals[0].regs[0], B: b})
		return single(t, dst)
	}

	switch in {
	case ast.IntrClamp:
		lo := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpMax, Dst: lo, A: vals[0].regs[0], B: vals[1].regs[0]})
		dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpMin, Dst: dst, A: lo, B: vals[2].regs[0]})
		return single(t, dst)
	case ast.IntrLerp:
		diff := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpSub, Dst: diff, A: vals[1].regs[0], B: vals[0].regs[0]})
		scaled := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpMul, Dst: scaled, A: diff, B: vals[2].regs[0]})
		dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpAdd, Dst: dst, A: vals[0].regs[0], B: scaled})
		return single(t, dst)
	case ast.IntrFrac:
		fl := lw.fn.NewVReg(u.Kind(), u.Lanes())
		lw.emit(Instr{Op: OpFloor, Dst: fl, A: vals[0].regs[0]})
		dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpSub, Dst: dst, A: vals[0].regs[0], B: fl})
		return single(t, dst)
	case ast.IntrIsNan:
		dst := lw.fn.NewVReg(types.KindBool, t.Lanes())
		lw.emit(Instr{Op: OpCmpNe, Dst: dst, A: vals[0].regs[0], B: vals[0].regs[0]})
		return single(t, dst)
	case ast.IntrIsInf, ast.IntrIsFinite:
		a := lw.fn.NewVReg(u.Kind(), u.Lanes())
		lw.emit(Instr{Op: OpAbs, Dst: a, A: vals[0].regs[0]})
		inf := lw.infReg(u)
		op := OpCmpEq
		if in == ast.IntrIsFinite {
			op = OpCmpLt
		}
		dst := lw.fn.NewVReg(types.KindBool, t.Lanes())
		lw.emit(Instr{Op: op, Dst: dst, A: a, B: inf})
		return single(t, dst)
	case ast.IntrDot:
		dst := lw.fn.NewVReg(t.Kind(), 1)
		lw.emit(Instr{Op: OpDot, Dst: dst, A: vals[0].regs[0], B: vals[1].regs[0]})
		return single(t, dst)
	}
	return value{t: types.Void}
}

func (lw *Lowerer) infReg(t types.TypeInfo) VRegID {
	var v ast.Value
	for i := uint32(0); i < t.Lanes(); i++ {
		if t.Kind() == types.KindDouble {
			v.SetDouble(i, math.Inf(1))
		} else {
			v.SetFloat(i, float32(math.Inf(1)))
		}
	}
	return lw.constReg(t, v)
}
