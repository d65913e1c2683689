package eval

import (
	"mpsl/internal/ast"
	"mpsl/internal/types"
)

func (m *Machine) expr(id ast.ExprID) val {
	e := m.b.Exprs.Get(id)
	t := e.Type.Unqualified()
	switch e.Kind {
	case ast.ExprLit:
		d, _ := m.b.Exprs.Literal(id)
		return single(t, d.Val)
	case ast.ExprIdent:
		d, _ := m.b.Exprs.Ident(id)
		return *m.local(d.Binding, t)
	case ast.ExprUnary:
		return m.unary(id, t)
	case ast.ExprBinary:
		return m.binary(id, t)
	case ast.ExprTernary:
		d, _ := m.b.Exprs.Ternary(id)
		if m.truth(d.Cond) {
			return m.expr(d.Then)
		}
		return m.expr(d.Else)
	case ast.ExprCall:
		d, _ := m.b.Exprs.Call(id)
		if d.Intrinsic != ast.NoIntrinsic {
			return m.intrinsic(d.Intrinsic, d.Args, t)
		}
		return m.call(d.Func, d.Args)
	case ast.ExprCast:
		return m.castExpr(id, t)
	case ast.ExprCtor:
		return m.ctor(id, t)
	case ast.ExprSwizzle:
		d, _ := m.b.Exprs.Swizzle(id)
		src := m.expr(d.Value)
		return single(t, shuffle(src.rows[0], d.Sel, d.Count))
	case ast.ExprMember:
		d, _ := m.b.Exprs.Member(id)
		return m.loadMem(d.Slot, uint32(d.Offset), t)
	case ast.ExprIndex:
		d, _ := m.b.Exprs.Index(id)
		src := m.expr(d.Value)
		idxVal := m.expr(d.Index)
		idx := idxVal.rows[0].Int(0)
		if src.t.IsMatrix() {
			return single(t, selectRow(src, idx))
		}
		return single(t, extractLane(src.rows[0], src.t.Lanes(), idx))
	}
	return val{t: types.Void}
}

func shuffle(src ast.Value, sel [8]uint8, count uint8) ast.Value {
	var out ast.Value
	for i := uint8(0); i < count; i++ {
		out.Lanes[i] = src.Lanes[sel[i]]
	}
	return out
}

// laneMask is the wrap applied to dynamic lane indices; the compiled
// code masks the index to the cell so a stray value stays inside it.
func laneMask(lanes uint32) uint32 {
	mask := uint32(1)
	for mask+1 < lanes {
		mask = mask<<1 | 1
	}
	return mask
}

func extractLane(v ast.Value, lanes uint32, idx int32) ast.Value {
	var out ast.Value
	out.Lanes[0] = v.Lanes[uint32(idx)&laneMask(lanes)]
	return out
}

// selectRow picks a matrix row by runtime index; any index that matches
// no row past the first falls back to row zero.
func selectRow(m val, idx int32) ast.Value {
	res := m.rows[0]
	for k := int32(1); k < int32(m.n); k++ {
		if idx == k {
			res = m.rows[k]
		}
	}
	return res
}

func (m *Machine) unary(id ast.ExprID, t types.TypeInfo) val {
	d, _ := m.b.Exprs.Unary(id)
	switch d.Op {
	case ast.UnaryPlus:
		return m.expr(d.Operand)
	case ast.UnaryNeg, ast.UnaryNot, ast.UnaryBitNot:
		src := m.expr(d.Operand)
		out := val{t: t, n: src.n}
		for r := uint8(0); r < src.n; r++ {
			out.rows[r], _ = ast.FoldUnary(d.Op, t.Kind(), rowLanes(t), src.rows[r])
		}
		return out
	}

	// increment and decrement read, adjust and write back
	pl := m.place(d.Operand)
	old := m.load(pl)
	op := ast.BinAdd
	if d.Op == ast.UnaryPreDec || d.Op == ast.UnaryPostDec {
		op = ast.BinSub
	}
	next := foldBin(op, pl.t.Kind(), pl.t.Lanes(), old.rows[0], oneFor(pl.t))
	m.store(pl, single(pl.t, next))
	if d.Op.IsPostfix() {
		return old
	}
	return single(pl.t, next)
}

func oneFor(t types.TypeInfo) ast.Value {
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
	return v
}

func (m *Machine) binary(id ast.ExprID, t types.TypeInfo) val {
	d, _ := m.b.Exprs.Binary(id)
	if d.Op.IsAssign() {
		return m.assign(d, t)
	}
	if d.Op.IsLogical() {
		return m.logical(d, t)
	}
	l := m.expr(d.Left)
	r := m.expr(d.Right)
	return binValue(d.Op, t, l, r)
}

func (m *Machine) assign(d *ast.ExprBinaryData, t types.TypeInfo) val {
	pl := m.place(d.Left)
	if d.Op == ast.BinAssign {
		v := m.expr(d.Right)
		m.store(pl, v)
		return v
	}
	cur := m.load(pl)
	r := m.expr(d.Right)
	res := binValue(d.Op.Base(), pl.t, cur, r)
	m.store(pl, res)
	return res
}

// logical evaluates && and || lazily: the right side runs only when the
// left side does not decide the result.
func (m *Machine) logical(d *ast.ExprBinaryData, t types.TypeInfo) val {
	left := m.expr(d.Left)
	decided := left.rows[0].Bool(0)
	if d.Op == ast.BinLogAnd {
		decided = !decided
	}
	if decided {
		return single(t, left.rows[0])
	}
	right := m.expr(d.Right)
	return single(t, right.rows[0])
}

func binValue(op ast.BinaryOp, t types.TypeInfo, l, r val) val {
	if l.t.IsMatrix() || r.t.IsMatrix() {
		return matrixBin(op, t, l, r)
	}
	return single(t, foldBin(op, l.t.Kind(), l.t.Lanes(), l.rows[0], r.rows[0]))
}

// foldBin applies one lane-wise operator, falling back to the guarded
// integer division the compiled code uses when the folder refuses a
// zero divisor.
func foldBin(op ast.BinaryOp, kind types.Kind, lanes uint32, l, r ast.Value) ast.Value {
	out, ok := ast.FoldBinary(op, kind, lanes, l, r)
	if ok {
		return out
	}
	if kind == types.KindInt && (op == ast.BinDiv || op == ast.BinMod) {
		return divModInt(op, lanes, l, r)
	}
	return out
}

// divModInt mirrors the guarded hardware division: a zero divisor
// yields zero and INT_MIN / -1 wraps instead of faulting.
func divModInt(op ast.BinaryOp, lanes uint32, l, r ast.Value) ast.Value {
	var out ast.Value
	for i := uint32(0); i < lanes; i++ {
		a, b := l.Int(i), r.Int(i)
		if b == 0 {
			out.SetInt(i, 0)
			continue
		}
		if op == ast.BinDiv {
			out.SetInt(i, a/b)
		} else {
			out.SetInt(i, a%b)
		}
	}
	return out
}

func matrixBin(op ast.BinaryOp, t types.TypeInfo, l, r val) val {
	if op == ast.BinMul && (l.t.IsMatrix() && !r.t.IsScalar() || r.t.IsMatrix() && !l.t.IsScalar()) {
		return matMul(t, l, r)
	}

	// component-wise: matrix op matrix, or matrix op broadcast scalar
	rows := rowCount(t)
	out := val{t: t, n: rows}
	for i := uint8(0); i < rows; i++ {
		a := rowOf(l, i)
		b := rowOf(r, i)
		out.rows[i] = foldBin(op, t.Kind(), t.Cols(), a, b)
	}
	return out
}

// rowOf returns row i of a matrix operand, broadcasting a scalar across
// the row shape.
func rowOf(v val, i uint8) ast.Value {
	if v.t.IsMatrix() {
		return v.rows[i]
	}
	return v.rows[0].Splat(8)
}

// matMul covers the three product shapes: MxK * KxN, MxK * vecK and
// vecK * KxN. Result rows accumulate broadcast-multiplied rows of the
// right side in lane order, matching the compiled expansion.
func matMul(t types.TypeInfo, l, r val) val {
	if !l.t.IsMatrix() {
		return single(t, matMulRow(l.rows[0], l.t.Lanes(), r, t))
	}

	inner := l.t.Cols()
	if !t.IsMatrix() {
		var acc ast.Value
		for i := uint32(0); i < l.t.Rows(); i++ {
			s := dot(t.Kind(), inner, l.rows[i], r.rows[0])
			acc.Lanes[uint32(i)&laneMask(t.Lanes())] = s.Lanes[0]
		}
		return single(t, acc)
	}

	out := val{t: t, n: uint8(t.Rows())}
	for i := uint32(0); i < t.Rows(); i++ {
		out.rows[i] = matMulRow(l.rows[i], inner, r, t)
	}
	return out
}

func matMulRow(left ast.Value, inner uint32, r val, t types.TypeInfo) ast.Value {
	var acc ast.Value
	for k := uint32(0); k < inner; k++ {
		var lane ast.Value
		lane.Lanes[0] = left.Lanes[k]
		prod := foldBin(ast.BinMul, t.Kind(), t.Cols(), lane.Splat(t.Cols()), r.rows[k])
		if k == 0 {
			acc = prod
			continue
		}
		acc = foldBin(ast.BinAdd, t.Kind(), t.Cols(), acc, prod)
	}
	return acc
}

func dot(kind types.Kind, lanes uint32, a, b ast.Value) ast.Value {
	out, _ := ast.FoldIntrinsic(ast.IntrDot, kind, lanes, []ast.Value{a, b})
	return out
}

func (m *Machine) intrinsic(in ast.Intrinsic, args []ast.ExprID, t types.TypeInfo) val {
	vals := make([]val, len(args))
	rows := make([]ast.Value, len(args))
	for i, arg := range args {
		vals[i] = m.expr(arg)
		rows[i] = vals[i].rows[0]
	}
	u := vals[0].t
	out, _ := ast.FoldIntrinsic(in, u.Kind(), u.Lanes(), rows)
	return single(t, out)
}

// call runs a user function in a fresh frame. Arguments evaluate in the
// caller's frame first.
func (m *Machine) call(fnID ast.FuncID, args []ast.ExprID) val {
	callee := m.b.Funcs.Get(fnID)

	vals := make([]val, len(args))
	for i, arg := range args {
		vals[i] = m.expr(arg)
	}

	fr := newFrame()
	for i, p := range callee.Params {
		pt := p.Type.Unqualified()
		fr.locals[uint32(i+1)] = &val{t: pt, rows: vals[i].rows, n: rowCount(pt)}
	}
	m.frames = append(m.frames, fr)
	m.stmt(callee.Body)
	m.frames = m.frames[:len(m.frames)-1]

	ret := callee.Ret.Unqualified()
	if ret.IsVoid() {
		return val{t: types.Void}
	}
	fr.ret.t = ret
	fr.ret.n = rowCount(ret)
	return fr.ret
}

func (m *Machine) castExpr(id ast.ExprID, t types.TypeInfo) val {
	d, _ := m.b.Exprs.Cast(id)
	src := m.expr(d.Value)
	if t.IsMatrix() {
		// only identity matrix casts reach evaluation
		return src
	}
	return single(t, ast.FoldCast(src.t, t, src.rows[0]))
}

// ctor assembles a vector or matrix lane by lane from scalar and vector
// parts in source order.
func (m *Machine) ctor(id ast.ExprID, t types.TypeInfo) val {
	d, _ := m.b.Exprs.Ctor(id)

	vals := make([]val, len(d.Args))
	for i, arg := range d.Args {
		vals[i] = m.expr(arg)
	}

	if t.IsMatrix() {
		out := val{t: t, n: uint8(t.Rows())}
		n := 0
		for i := uint32(0); i < t.Rows(); i++ {
			for j := uint32(0); j < t.Cols(); j++ {
				out.rows[i].Lanes[j] = vals[n].rows[0].Lanes[0]
				n++
			}
		}
		return out
	}

	var acc ast.Value
	lane := uint32(0)
	for _, v := range vals {
		for j := uint32(0); j < v.t.Lanes(); j++ {
			acc.Lanes[lane] = v.rows[0].Lanes[j]
			lane++
		}
	}
	return single(t, acc)
}
