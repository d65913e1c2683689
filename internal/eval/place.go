package eval

import (
	"unsafe"

	"mpsl/internal/ast"
	"mpsl/internal/types"
)

type placeKind uint8

const (
	placeLocal placeKind = iota
	placeMem
	placeSwizzle
	placeLane
)

// place is a resolved assignment target: a local binding, an argument
// member, or a swizzle/lane view over another place. Index expressions
// evaluate while the place is resolved, before the stored value.
type place struct {
	kind    placeKind
	t       types.TypeInfo
	binding uint32
	slot    uint32
	off     uint32
	inner   *place
	sel     [8]uint8
	count   uint8
	index   int32
}

func (m *Machine) place(id ast.ExprID) place {
	e := m.b.Exprs.Get(id)
	t := e.Type.Unqualified()
	switch e.Kind {
	case ast.ExprIdent:
		d, _ := m.b.Exprs.Ident(id)
		return place{kind: placeLocal, t: t, binding: d.Binding}
	case ast.ExprMember:
		d, _ := m.b.Exprs.Member(id)
		return place{kind: placeMem, t: t, slot: d.Slot, off: uint32(d.Offset)}
	case ast.ExprSwizzle:
		d, _ := m.b.Exprs.Swizzle(id)
		inner := m.place(d.Value)
		return place{kind: placeSwizzle, t: t, inner: &inner, sel: d.Sel, count: d.Count}
	case ast.ExprIndex:
		d, _ := m.b.Exprs.Index(id)
		inner := m.place(d.Value)
		idxVal := m.expr(d.Index)
		idx := idxVal.rows[0].Int(0)
		return place{kind: placeLane, t: t, inner: &inner, index: idx}
	}
	return place{kind: placeLocal, t: types.Void}
}

func (m *Machine) load(pl place) val {
	switch pl.kind {
	case placeLocal:
		return *m.local(pl.binding, pl.t)
	case placeMem:
		return m.loadMem(pl.slot, pl.off, pl.t)
	case placeSwizzle:
		src := m.load(*pl.inner)
		return single(pl.t, shuffle(src.rows[0], pl.sel, pl.count))
	case placeLane:
		src := m.load(*pl.inner)
		if src.t.IsMatrix() {
			return single(pl.t, selectRow(src, pl.index))
		}
		return single(pl.t, extractLane(src.rows[0], src.t.Lanes(), pl.index))
	}
	return val{t: types.Void}
}

func (m *Machine) store(pl place, v val) {
	switch pl.kind {
	case placeLocal:
		m.setLocal(pl.binding, pl.t, v)
	case placeMem:
		m.storeMem(pl.slot, pl.off, v)
	case placeSwizzle:
		m.storeSwizzle(pl, v)
	case placeLane:
		m.storeLane(pl, v)
	}
}

// storeSwizzle writes the selected lanes of the inner place and leaves
// the rest intact.
func (m *Machine) storeSwizzle(pl place, v val) {
	old := m.load(*pl.inner)
	row := old.rows[0]
	for i := uint8(0); i < pl.count; i++ {
		row.Lanes[pl.sel[i]] = v.rows[0].Lanes[i]
	}
	m.store(*pl.inner, single(pl.inner.t, row))
}

// storeLane writes one lane of a vector or one row of a matrix at a
// runtime index. A matrix row index that matches no row stores nothing.
func (m *Machine) storeLane(pl place, v val) {
	old := m.load(*pl.inner)
	if !old.t.IsMatrix() {
		row := old.rows[0]
		row.Lanes[uint32(pl.index)&laneMask(pl.inner.t.Lanes())] = v.rows[0].Lanes[0]
		m.store(*pl.inner, single(pl.inner.t, row))
		return
	}
	for k := uint8(0); k < old.n; k++ {
		if pl.index == int32(k) {
			old.rows[k] = v.rows[0]
		}
	}
	m.store(*pl.inner, old)
}

func elemSize(kind types.Kind) uint32 {
	if kind == types.KindDouble {
		return 8
	}
	return 4
}

// loadMem reads an argument member through its record pointer. Matrices
// read row by row at consecutive offsets.
func (m *Machine) loadMem(slot, off uint32, t types.TypeInfo) val {
	t = t.Unqualified()
	base := m.args[slot]
	if !t.IsMatrix() {
		return single(t, readRow(base, off, t.Kind(), t.Lanes()))
	}
	rowBytes := elemSize(t.Kind()) * t.Cols()
	out := val{t: t, n: uint8(t.Rows())}
	for r := uint32(0); r < t.Rows(); r++ {
		out.rows[r] = readRow(base, off+r*rowBytes, t.Kind(), t.Cols())
	}
	return out
}

func (m *Machine) storeMem(slot, off uint32, v val) {
	base := m.args[slot]
	if !v.t.IsMatrix() {
		writeRow(base, off, v.t.Kind(), v.t.Lanes(), v.rows[0])
		return
	}
	rowBytes := elemSize(v.t.Kind()) * v.t.Cols()
	for r := uint8(0); r < v.n; r++ {
		writeRow(base, off+uint32(r)*rowBytes, v.t.Kind(), v.t.Cols(), v.rows[r])
	}
}

// readRow copies lanes out of record memory. Bool elements hold an
// all-ones or all-zero mask in memory and normalize to 0/1 lanes here.
func readRow(base unsafe.Pointer, off uint32, kind types.Kind, lanes uint32) ast.Value {
	var out ast.Value
	for i := uint32(0); i < lanes; i++ {
		if kind == types.KindDouble {
			out.Lanes[i] = *(*uint64)(unsafe.Add(base, uintptr(off+i*8)))
			continue
		}
		bits := *(*uint32)(unsafe.Add(base, uintptr(off+i*4)))
		if kind == types.KindBool && bits != 0 {
			bits = 1
		}
		out.Lanes[i] = uint64(bits)
	}
	return out
}

// writeRow copies lanes into record memory, widening bool lanes back to
// element masks.
func writeRow(base unsafe.Pointer, off uint32, kind types.Kind, lanes uint32, v ast.Value) {
	for i := uint32(0); i < lanes; i++ {
		if kind == types.KindDouble {
			*(*uint64)(unsafe.Add(base, uintptr(off+i*8))) = v.Lanes[i]
			continue
		}
		bits := uint32(v.Lanes[i])
		if kind == types.KindBool {
			bits = 0
			if v.Lanes[i] != 0 {
				bits = 0xFFFFFFFF
			}
		}
		*(*uint32)(unsafe.Add(base, uintptr(off+i*4))) = bits
	}
}
