package ir

import (
	"mpsl/internal/ast"
	"mpsl/internal/types"
)

type placeKind uint8

const (
	placeSlot placeKind = iota
	placeMem
	placeSwizzle
	placeLane
)

// place is a resolved assignment target: a local slot, an argument
// member, or a swizzle/lane view over another place.
type place struct {
	kind  placeKind
	t     types.TypeInfo
	slot  uint32
	base  VRegID
	off   uint32
	inner *place
	sel   [8]uint8
	count uint8
	index VRegID
}

func (lw *Lowerer) place(id ast.ExprID) place {
	e := lw.b.Exprs.Get(id)
	t := e.Type.Unqualified()
	switch e.Kind {
	case ast.ExprIdent:
		d, _ := lw.b.Exprs.Ident(id)
		return place{kind: placeSlot, t: t, slot: lw.slotFor(d.Binding, t)}
	case ast.ExprMember:
		d, _ := lw.b.Exprs.Member(id)
		return place{kind: placeMem, t: t, base: lw.argPtr(d.Slot), off: uint32(d.Offset)}
	case ast.ExprSwizzle:
		d, _ := lw.b.Exprs.Swizzle(id)
		inner := lw.place(d.Value)
		return place{kind: placeSwizzle, t: t, inner: &inner, sel: d.Sel, count: d.Count}
	case ast.ExprIndex:
		d, _ := lw.b.Exprs.Index(id)
		inner := lw.place(d.Value)
		idx := lw.expr(d.Index).regs[0]
		return place{kind: placeLane, t: t, inner: &inner, index: idx}
	}
	return place{kind: placeSlot, t: types.Void}
}

func (lw *Lowerer) load(pl place) value {
	switch pl.kind {
	case placeSlot:
		return lw.loadSlots(pl.slot, pl.t)
	case placeMem:
		return lw.loadMem(pl.base, pl.off, pl.t)
	case placeSwizzle:
		src := lw.load(*pl.inner)
		return single(pl.t, lw.shuffle(pl.t, src.regs[0], pl.sel, pl.count))
	case placeLane:
		src := lw.load(*pl.inner)
		if src.t.IsMatrix() {
			return single(pl.t, lw.selectRow(src, pl.index))
		}
		dst := lw.fn.NewVReg(pl.t.Kind(), 1)
		lw.emit(Instr{Op: OpExtract, Dst: dst, A: src.regs[0], B: pl.index})
		return single(pl.t, dst)
	}
	return value{t: types.Void}
}

func (lw *Lowerer) store(pl place, v value) {
	switch pl.kind {
	case placeSlot:
		lw.storeSlots(pl.slot, v)
	case placeMem:
		lw.storeMem(pl.base, pl.off, v)
	case placeSwizzle:
		lw.storeSwizzle(pl, v)
	case placeLane:
		lw.storeLane(pl, v)
	}
}

// storeSwizzle writes selected lanes of the inner place, leaving the
// rest intact. The source is routed into position with a shuffle, then
// blended over the old value by lane mask.
func (lw *Lowerer) storeSwizzle(pl place, v value) {
	old := lw.load(*pl.inner)
	lanes := pl.inner.t.Lanes()

	var inverse [8]uint8
	var mask uint32
	for i := uint8(0); i < pl.count; i++ {
		inverse[pl.sel[i]] = i
		mask |= 1 << pl.sel[i]
	}

	src := v.regs[0]
	if pl.count == 1 && v.t.IsScalar() {
		bc := lw.fn.NewVReg(pl.inner.t.Kind(), lanes)
		lw.emit(Instr{Op: OpBroadcast, Dst: bc, A: src})
		src = bc
	} else {
		routed := lw.fn.NewVReg(pl.inner.t.Kind(), lanes)
		lw.emit(Instr{Op: OpShuffle, Dst: routed, A: src, Extra: ShuffleSel(inverse, uint8(lanes))})
		src = routed
	}

	dst := lw.fn.NewVReg(pl.inner.t.Kind(), lanes)
	lw.emit(Instr{Op: OpBlend, Dst: dst, A: old.regs[0], B: src, Extra: mask})
	lw.store(*pl.inner, single(pl.inner.t, dst))
}

// storeLane writes one lane of a vector or one row of a matrix at a
// runtime index.
func (lw *Lowerer) storeLane(pl place, v value) {
	old := lw.load(*pl.inner)
	if !old.t.IsMatrix() {
		dst := lw.fn.NewVReg(pl.inner.t.Kind(), pl.inner.t.Lanes())
		lw.emit(Instr{Op: OpInsert, Dst: dst, A: old.regs[0], B: v.regs[0], C: pl.index})
		lw.store(*pl.inner, single(pl.inner.t, dst))
		return
	}

	// matrix row: replace each row under a broadcast index-match mask
	row := old.t.Row()
	out := value{t: old.t, rows: old.rows}
	for k := uint8(0); k < old.rows; k++ {
		eq := lw.fn.NewVReg(types.KindBool, 1)
		lw.emit(Instr{Op: OpCmpEq, Dst: eq, A: pl.index, B: lw.constInt(int32(k))})
		mask := lw.fn.NewVReg(types.KindBool, row.Lanes())
		lw.emit(Instr{Op: OpBroadcast, Dst: mask, A: eq})
		next := lw.fn.NewVReg(row.Kind(), row.Lanes())
		lw.emit(Instr{Op: OpSelect, Dst: next, A: mask, B: v.regs[0], C: old.regs[k]})
		out.regs[k] = next
	}
	lw.store(*pl.inner, out)
}

// loadSlots reads a value from local storage: one OpLoadVar, or one per
// row for matrices.
func (lw *Lowerer) loadSlots(base uint32, t types.TypeInfo) value {
	t = t.Unqualified()
	if !t.IsMatrix() {
		dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpLoadVar, Dst: dst, Extra: base})
		return single(t, dst)
	}
	out := value{t: t, rows: uint8(t.Rows())}
	for r := uint32(0); r < t.Rows(); r++ {
		dst := lw.fn.NewVReg(t.Kind(), t.Cols())
		lw.emit(Instr{Op: OpLoadVar, Dst: dst, Extra: base + r})
		out.regs[r] = dst
	}
	return out
}

func (lw *Lowerer) storeSlots(base uint32, v value) {
	for r := uint8(0); r < v.rows; r++ {
		lw.emit(Instr{Op: OpStoreVar, A: v.regs[r], Extra: base + uint32(r)})
	}
}

// loadMem reads an argument member through its object pointer.
// Matrices load row by row at consecutive offsets.
func (lw *Lowerer) loadMem(base VRegID, off uint32, t types.TypeInfo) value {
	t = t.Unqualified()
	if !t.IsMatrix() {
		dst := lw.fn.NewVReg(t.Kind(), t.Lanes())
		lw.emit(Instr{Op: OpLoad, Dst: dst, A: base, Extra: off})
		return single(t, dst)
	}
	rowBytes := ElemSize(t.Kind()) * t.Cols()
	out := value{t: t, rows: uint8(t.Rows())}
	for r := uint32(0); r < t.Rows(); r++ {
		dst := lw.fn.NewVReg(t.Kind(), t.Cols())
		lw.emit(Instr{Op: OpLoad, Dst: dst, A: base, Extra: off + r*rowBytes})
		out.regs[r] = dst
	}
	return out
}

func (lw *Lowerer) storeMem(base VRegID, off uint32, v value) {
	if !v.t.IsMatrix() {
		lw.emit(Instr{Op: OpStore, A: base, B: v.regs[0], Extra: off})
		return
	}
	rowBytes := ElemSize(v.t.Kind()) * v.t.Cols()
	for r := uint8(0); r < v.rows; r++ {
		lw.emit(Instr{Op: OpStore, A: base, B: v.regs[r], Extra: off + uint32(r)*rowBytes})
	}
}
