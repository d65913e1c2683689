package x86

import (
	"mpsl/internal/asm"
	"mpsl/internal/ir"
	"mpsl/internal/types"
)

func (e *emitter) instr(in *ir.Instr) {
	e.sc.reset()
	switch in.Op {
	case ir.OpNop:
	case ir.OpConst:
		e.opConst(in)
	case ir.OpMov:
		e.opMov(in)
	case ir.OpBroadcast:
		e.opBroadcast(in)
	case ir.OpShuffle:
		e.opShuffle(in)
	case ir.OpBlend:
		e.opBlend(in)
	case ir.OpSelect:
		e.opSelect(in)
	case ir.OpExtract:
		e.opExtract(in)
	case ir.OpInsert:
		e.opInsert(in)
	case ir.OpArgPtr:
		e.opArgPtr(in)
	case ir.OpLoad:
		e.opLoad(in)
	case ir.OpStore:
		e.opStore(in)
	case ir.OpLoadVar:
		e.opLoadVar(in)
	case ir.OpStoreVar:
		e.opStoreVar(in)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpMin, ir.OpMax:
		e.binary(in)
	case ir.OpShl, ir.OpShr:
		e.shift(in)
	case ir.OpCmpLt, ir.OpCmpLe, ir.OpCmpGt, ir.OpCmpGe, ir.OpCmpEq, ir.OpCmpNe:
		e.compare(in)
	case ir.OpNeg, ir.OpNot, ir.OpBitNot, ir.OpAbs,
		ir.OpSqrt, ir.OpRsqrt, ir.OpRcp, ir.OpSign:
		e.unary(in)
	case ir.OpFloor, ir.OpCeil, ir.OpRound, ir.OpTrunc:
		e.round(in)
	case ir.OpCast:
		e.cast(in)
	case ir.OpDot:
		e.dot(in)
	default:
		panic("unhandled op " + in.Op.String())
	}
}

func (e *emitter) opConst(in *ir.Instr) {
	pe := e.fn.Pool.Get(ir.PoolID(in.Extra))
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		r := e.dst(in.Dst, hi)
		e.a.Movups(r, e.lit(pe.Data[h*16:h*16+16]))
		e.flush(in.Dst, hi, r)
	}
}

func (e *emitter) opMov(in *ir.Instr) {
	if e.kind(in.Dst) == types.KindObject {
		rs := e.gp(in.A)
		rd := e.dstGP(in.Dst)
		if rd != rs {
			e.a.MovRegReg(rd, rs)
		}
		e.flushGP(in.Dst, rd)
		return
	}
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		xa := e.src(in.A, hi)
		r := e.dst(in.Dst, hi)
		e.a.Movaps(r, xa)
		e.flush(in.Dst, hi, r)
	}
}

func (e *emitter) opBroadcast(in *ir.Instr) {
	xa := e.src(in.A, false)
	r := e.dst(in.Dst, false)
	if e.kind(in.Dst) == types.KindDouble {
		e.a.Movaps(r, xa)
		e.a.Shufpd(r, r, 0)
	} else {
		e.a.Pshufd(r, xa, 0)
	}
	e.flush(in.Dst, false, r)
	if e.halves(in.Dst) == 2 {
		r2 := e.dst(in.Dst, true)
		e.a.Movaps(r2, r)
		e.flush(in.Dst, true, r2)
	}
}

func (e *emitter) opShuffle(in *ir.Instr) {
	lanes := e.lanes(in.Dst)
	if e.kind(in.Dst) != types.KindDouble {
		var sel uint8
		for i := uint32(0); i < lanes && i < 4; i++ {
			sel |= uint8(ir.ShuffleLane(in.Extra, i)) << (2 * i)
		}
		xa := e.src(in.A, false)
		r := e.dst(in.Dst, false)
		e.a.Pshufd(r, xa, sel)
		e.flush(in.Dst, false, r)
		return
	}
	if e.halves(in.Dst) == 1 {
		sel := uint8(ir.ShuffleLane(in.Extra, 0)&1) | uint8(ir.ShuffleLane(in.Extra, 1)&1)<<1
		xa := e.src(in.A, false)
		r := e.dst(in.Dst, false)
		e.a.Movaps(r, xa)
		e.a.Shufpd(r, r, sel)
		e.flush(in.Dst, false, r)
		return
	}
	// wide double lanes cross the register pair; route the permutation
	// through scratch memory with qword moves
	e.stage(in.A, e.fr.scratchA)
	for i := uint32(0); i < lanes; i++ {
		j := int32(ir.ShuffleLane(in.Extra, i))
		e.a.MovRegMem(asm.RAX, e.mem(e.fr.scratchA+j*8))
		e.a.MovMemReg(e.mem(e.fr.scratchC+int32(i)*8), asm.RAX)
	}
	e.unstage(in.Dst, e.fr.scratchC)
}

// stage copies a value's halves into a 32-byte frame cell.
func (e *emitter) stage(id ir.VRegID, off int32) {
	for h := 0; h < e.halves(id); h++ {
		x := e.src(id, h == 1)
		e.a.MovupsStore(e.mem(off+int32(h)*16), x)
		e.sc.free(x)
	}
}

// unstage loads a destination's halves back from a frame cell.
func (e *emitter) unstage(id ir.VRegID, off int32) {
	for h := 0; h < e.halves(id); h++ {
		hi := h == 1
		r := e.dst(id, hi)
		e.a.Movups(r, e.mem(off+int32(h)*16))
		e.flush(id, hi, r)
		e.sc.free(r)
	}
}

func (e *emitter) opBlend(in *ir.Instr) {
	kd := e.kind(in.Dst)
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		xa := e.src(in.A, hi)
		xb := e.src(in.B, hi)
		r := e.dst(in.Dst, hi)
		if kd != types.KindDouble && e.feat.SSE41 {
			e.a.Movaps(r, xa)
			e.a.Blendps(r, xb, uint8(in.Extra&0xF))
		} else {
			elem, first := uint32(4), uint32(0)
			if kd == types.KindDouble {
				elem, first = 8, uint32(h)*2
			}
			m := e.blendMask(in.Extra, elem, first)
			e.a.Movaps(r, xb)
			e.a.AndpsMem(r, m)
			t := e.sc.take()
			e.a.Movups(t, m)
			e.a.Andnps(t, xa)
			e.a.Orps(r, t)
			e.sc.free(t)
		}
		e.flush(in.Dst, hi, r)
	}
}

// maskMerge computes r = (m & b) | (~m & c), clobbering m when it is a
// scratch register and borrowing one otherwise.
func (e *emitter) maskMerge(r, m, b, c asm.XMM) {
	e.a.Movaps(r, b)
	e.a.Andps(r, m)
	if isScratch(m) {
		e.a.Andnps(m, c)
		e.a.Orps(r, m)
		return
	}
	t := e.sc.take()
	e.a.Movaps(t, m)
	e.a.Andnps(t, c)
	e.a.Orps(r, t)
	e.sc.free(t)
}

func (e *emitter) opSelect(in *ir.Instr) {
	double := e.kind(in.Dst) == types.KindDouble
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		m := e.src(in.A, false)
		if double {
			// widen 32-bit bool lanes to qword masks for this half
			sel := uint8(0x50)
			if hi {
				sel = 0xFA
			}
			em := e.sc.take()
			e.a.Pshufd(em, m, sel)
			e.sc.free(m)
			m = em
		}
		xb := e.src(in.B, hi)
		xc := e.src(in.C, hi)
		r := e.dst(in.Dst, hi)
		e.maskMerge(r, m, xb, xc)
		e.flush(in.Dst, hi, r)
	}
}

// laneIndex moves a dynamic lane index into eax, wrapped to the cell
// so a stray index cannot read outside the staged value.
func (e *emitter) laneIndex(id ir.VRegID, lanes uint32) {
	xi := e.src(id, false)
	e.a.MovdRegXmm(asm.RAX, xi)
	e.sc.free(xi)
	mask := int32(1)
	for uint32(mask+1) < lanes {
		mask = mask<<1 | 1
	}
	e.a.AndRegImm32(asm.RAX, mask)
}

func (e *emitter) opExtract(in *ir.Instr) {
	e.stage(in.A, e.fr.scratchA)
	e.laneIndex(in.B, e.lanes(in.A))
	e.a.Lea(asm.R11, e.mem(e.fr.scratchA))
	r := e.dst(in.Dst, false)
	if e.kind(in.A) == types.KindDouble {
		e.a.MovRegMemIdx64(asm.R10, asm.R11, asm.RAX, 8)
		e.a.MovMemReg(e.mem(e.fr.scratchC), asm.R10)
		e.a.Movsd(r, e.mem(e.fr.scratchC))
	} else {
		e.a.MovRegMemIdx32(asm.R10, asm.R11, asm.RAX, 4)
		e.a.MovdXmmReg(r, asm.R10)
	}
	e.flush(in.Dst, false, r)
}

func (e *emitter) opInsert(in *ir.Instr) {
	e.stage(in.A, e.fr.scratchA)
	e.laneIndex(in.C, e.lanes(in.Dst))
	e.a.Lea(asm.R11, e.mem(e.fr.scratchA))
	xb := e.src(in.B, false)
	if e.kind(in.Dst) == types.KindDouble {
		e.a.MovsdStore(e.mem(e.fr.scratchC), xb)
		e.a.MovRegMem(asm.R10, e.mem(e.fr.scratchC))
		e.a.MovMemIdxReg64(asm.R11, asm.RAX, 8, asm.R10)
	} else {
		e.a.MovdRegXmm(asm.R10, xb)
		e.a.MovMemIdxReg32(asm.R11, asm.RAX, 4, asm.R10)
	}
	e.sc.free(xb)
	e.unstage(in.Dst, e.fr.scratchA)
}

func (e *emitter) opArgPtr(in *ir.Instr) {
	r := e.dstGP(in.Dst)
	e.a.MovRegMem(r, e.mem(-8))
	e.a.MovRegMem(r, asm.BaseDisp(r, int32(in.Extra)*8))
	e.flushGP(in.Dst, r)
}

func (e *emitter) opLoad(in *ir.Instr) {
	base := e.gp(in.A)
	off := int32(in.Extra)
	d := e.fn.VReg(in.Dst)
	n := ir.ElemSize(d.Kind) * d.Lanes
	r := e.dst(in.Dst, false)
	switch n {
	case 4:
		e.a.Movss(r, asm.BaseDisp(base, off))
	case 8:
		e.a.Movsd(r, asm.BaseDisp(base, off))
	case 12:
		e.a.Movsd(r, asm.BaseDisp(base, off))
		t := e.sc.take()
		e.a.Movss(t, asm.BaseDisp(base, off+8))
		e.a.Movlhps(r, t)
		e.sc.free(t)
	default:
		e.a.Movups(r, asm.BaseDisp(base, off))
	}
	e.flush(in.Dst, false, r)
	if n > 16 {
		e.sc.free(r)
		r2 := e.dst(in.Dst, true)
		if n == 24 {
			e.a.Movsd(r2, asm.BaseDisp(base, off+16))
		} else {
			e.a.Movups(r2, asm.BaseDisp(base, off+16))
		}
		e.flush(in.Dst, true, r2)
	}
}

func (e *emitter) opStore(in *ir.Instr) {
	base := e.gp(in.A)
	off := int32(in.Extra)
	v := e.fn.VReg(in.B)
	n := ir.ElemSize(v.Kind) * v.Lanes
	x := e.src(in.B, false)
	switch n {
	case 4:
		e.a.MovssStore(asm.BaseDisp(base, off), x)
	case 8:
		e.a.MovsdStore(asm.BaseDisp(base, off), x)
	case 12:
		e.a.MovsdStore(asm.BaseDisp(base, off), x)
		t := e.sc.take()
		e.a.Movhlps(t, x)
		e.a.MovssStore(asm.BaseDisp(base, off+8), t)
		e.sc.free(t)
	default:
		e.a.MovupsStore(asm.BaseDisp(base, off), x)
	}
	if n > 16 {
		e.sc.free(x)
		x2 := e.src(in.B, true)
		if n == 24 {
			e.a.MovsdStore(asm.BaseDisp(base, off+16), x2)
		} else {
			e.a.MovupsStore(asm.BaseDisp(base, off+16), x2)
		}
	}
}

func (e *emitter) opLoadVar(in *ir.Instr) {
	off := e.fr.slots[in.Extra]
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		r := e.dst(in.Dst, hi)
		e.a.Movups(r, e.mem(off+int32(h)*16))
		e.flush(in.Dst, hi, r)
	}
}

func (e *emitter) opStoreVar(in *ir.Instr) {
	off := e.fr.slots[in.Extra]
	for h := 0; h < e.halves(in.A); h++ {
		e.sc.reset()
		x := e.src(in.A, h == 1)
		e.a.MovupsStore(e.mem(off+int32(h)*16), x)
	}
}
