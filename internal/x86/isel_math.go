package x86

import (
	"math"

	"mpsl/internal/asm"
	"mpsl/internal/ir"
	"mpsl/internal/types"
)

type xop = func(*asm.Assembler, asm.XMM, asm.XMM)

// laneOps maps lane-wise opcodes to their int, float and double forms.
// Bitwise ops share the float form; the bits are the same either way.
var laneOps = map[ir.Op][3]xop{
	ir.OpAdd: {(*asm.Assembler).Paddd, (*asm.Assembler).Addps, (*asm.Assembler).Addpd},
	ir.OpSub: {(*asm.Assembler).Psubd, (*asm.Assembler).Subps, (*asm.Assembler).Subpd},
	ir.OpAnd: {(*asm.Assembler).Pand, (*asm.Assembler).Andps, (*asm.Assembler).Andps},
	ir.OpOr:  {(*asm.Assembler).Por, (*asm.Assembler).Orps, (*asm.Assembler).Orps},
	ir.OpXor: {(*asm.Assembler).Pxor, (*asm.Assembler).Xorps, (*asm.Assembler).Xorps},
	ir.OpMul: {nil, (*asm.Assembler).Mulps, (*asm.Assembler).Mulpd},
	ir.OpDiv: {nil, (*asm.Assembler).Divps, (*asm.Assembler).Divpd},
	ir.OpMin: {nil, (*asm.Assembler).Minps, (*asm.Assembler).Minpd},
	ir.OpMax: {nil, (*asm.Assembler).Maxps, (*asm.Assembler).Maxpd},
}

func (e *emitter) lane2(in *ir.Instr, op xop) {
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		xa := e.src(in.A, hi)
		xb := e.src(in.B, hi)
		r := e.dst(in.Dst, hi)
		e.a.Movaps(r, xa)
		op(e.a, r, xb)
		e.flush(in.Dst, hi, r)
	}
}

func (e *emitter) binary(in *ir.Instr) {
	k := e.kind(in.A)
	if k == types.KindInt {
		switch in.Op {
		case ir.OpMul:
			e.intMul(in)
			return
		case ir.OpDiv:
			e.intDivMod(in, false)
			return
		case ir.OpMod:
			e.intDivMod(in, true)
			return
		case ir.OpMin, ir.OpMax:
			e.intMinMax(in)
			return
		}
	} else if in.Op == ir.OpMod {
		e.floatMod(in)
		return
	}
	ops := laneOps[in.Op]
	switch k {
	case types.KindInt:
		e.lane2(in, ops[0])
	case types.KindDouble:
		e.lane2(in, ops[2])
	default:
		e.lane2(in, ops[1])
	}
}

func (e *emitter) intMul(in *ir.Instr) {
	xa := e.src(in.A, false)
	xb := e.src(in.B, false)
	r := e.dst(in.Dst, false)
	if e.feat.SSE41 {
		e.a.Movaps(r, xa)
		e.a.Pmulld(r, xb)
		e.flush(in.Dst, false, r)
		return
	}
	// pmuludq covers the even lanes; the odd lanes get their own pass
	// after a pair swap, then the low dwords interleave back together
	e.a.Movaps(r, xa)
	e.a.Pmuludq(r, xb)
	t1 := e.sc.take()
	e.a.Pshufd(t1, xa, 0xB1)
	t2 := xb
	if !isScratch(t2) {
		t2 = e.sc.take()
	}
	e.a.Pshufd(t2, xb, 0xB1)
	e.a.Pmuludq(t1, t2)
	e.a.Pshufd(r, r, 0x08)
	e.a.Pshufd(t1, t1, 0x08)
	e.a.Unpcklps(r, t1)
	e.flush(in.Dst, false, r)
}

func (e *emitter) intMinMax(in *ir.Instr) {
	xa := e.src(in.A, false)
	xb := e.src(in.B, false)
	r := e.dst(in.Dst, false)
	if e.feat.SSE41 {
		e.a.Movaps(r, xa)
		if in.Op == ir.OpMin {
			e.a.Pminsd(r, xb)
		} else {
			e.a.Pmaxsd(r, xb)
		}
		e.flush(in.Dst, false, r)
		return
	}
	m := e.sc.take()
	e.a.Movaps(m, xb)
	e.a.Pcmpgtd(m, xa)
	if in.Op == ir.OpMin {
		e.maskMerge(r, m, xa, xb)
	} else {
		e.maskMerge(r, m, xb, xa)
	}
	e.flush(in.Dst, false, r)
}

// intDivMod expands integer division lane by lane through scratch
// memory. A zero divisor yields zero, and INT_MIN/-1 wraps instead of
// faulting.
func (e *emitter) intDivMod(in *ir.Instr, mod bool) {
	e.stage(in.A, e.fr.scratchA)
	e.stage(in.B, e.fr.scratchB)
	e.a.Push(asm.RDX)
	for i := int32(0); i < int32(e.lanes(in.Dst)); i++ {
		ok := e.a.NewLabel()
		zero := e.a.NewLabel()
		done := e.a.NewLabel()
		cell := e.mem(e.fr.scratchA + i*4)
		e.a.MovRegMem32(asm.RAX, cell)
		e.a.MovRegMem32(asm.R10, e.mem(e.fr.scratchB+i*4))
		e.a.TestRegReg32(asm.R10, asm.R10)
		e.a.Jcc(asm.CondE, zero)
		e.a.CmpRegImm32(asm.R10, -1)
		e.a.Jcc(asm.CondNE, ok)
		e.a.CmpRegImm32(asm.RAX, math.MinInt32)
		e.a.Jcc(asm.CondNE, ok)
		if mod {
			e.a.MovRegImm32(asm.RAX, 0)
		}
		e.a.MovMemReg32(cell, asm.RAX)
		e.a.Jmp(done)
		e.a.Bind(ok)
		e.a.Cdq()
		e.a.Idiv32(asm.R10)
		if mod {
			e.a.MovMemReg32(cell, asm.RDX)
		} else {
			e.a.MovMemReg32(cell, asm.RAX)
		}
		e.a.Jmp(done)
		e.a.Bind(zero)
		e.a.MovRegImm32(asm.RAX, 0)
		e.a.MovMemReg32(cell, asm.RAX)
		e.a.Bind(done)
	}
	e.a.Pop(asm.RDX)
	e.unstage(in.Dst, e.fr.scratchA)
}

// shift expands lane-wise shifts through cl; hardware wraps the count
// at the register width, matching the folder.
func (e *emitter) shift(in *ir.Instr) {
	e.stage(in.A, e.fr.scratchA)
	e.stage(in.B, e.fr.scratchB)
	e.a.Push(asm.RCX)
	for i := int32(0); i < int32(e.lanes(in.Dst)); i++ {
		e.a.MovRegMem32(asm.RCX, e.mem(e.fr.scratchB+i*4))
		e.a.MovRegMem32(asm.RAX, e.mem(e.fr.scratchA+i*4))
		if in.Op == ir.OpShl {
			e.a.ShlCl32(asm.RAX)
		} else {
			e.a.SarCl32(asm.RAX)
		}
		e.a.MovMemReg32(e.mem(e.fr.scratchA+i*4), asm.RAX)
	}
	e.a.Pop(asm.RCX)
	e.unstage(in.Dst, e.fr.scratchA)
}

// floatMod computes a - trunc(a/b)*b, staging the operands so the
// truncation helpers have registers to work with.
func (e *emitter) floatMod(in *ir.Instr) {
	double := e.kind(in.Dst) == types.KindDouble
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		xa := e.src(in.A, hi)
		e.a.MovupsStore(e.mem(e.fr.scratchA), xa)
		e.sc.free(xa)
		xb := e.src(in.B, hi)
		e.a.MovupsStore(e.mem(e.fr.scratchA+16), xb)
		e.sc.free(xb)
		q := e.sc.take()
		e.a.Movups(q, e.mem(e.fr.scratchA))
		t := e.sc.take()
		e.a.Movups(t, e.mem(e.fr.scratchA+16))
		if double {
			e.a.Divpd(q, t)
		} else {
			e.a.Divps(q, t)
		}
		e.sc.free(t)
		if double {
			e.roundPdInPlace(q, ir.OpTrunc)
		} else {
			e.roundPsInPlace(q, ir.OpTrunc)
		}
		t = e.sc.take()
		e.a.Movups(t, e.mem(e.fr.scratchA+16))
		if double {
			e.a.Mulpd(q, t)
		} else {
			e.a.Mulps(q, t)
		}
		e.sc.free(t)
		r := e.dst(in.Dst, hi)
		e.a.Movups(r, e.mem(e.fr.scratchA))
		if double {
			e.a.Subpd(r, q)
		} else {
			e.a.Subps(r, q)
		}
		e.sc.free(q)
		e.flush(in.Dst, hi, r)
	}
}

func cmpPred(op ir.Op) (pred uint8, swap bool) {
	switch op {
	case ir.OpCmpEq:
		return 0, false
	case ir.OpCmpLt:
		return 1, false
	case ir.OpCmpLe:
		return 2, false
	case ir.OpCmpNe:
		return 4, false
	case ir.OpCmpGt:
		return 1, true
	default:
		return 2, true
	}
}

func (e *emitter) compare(in *ir.Instr) {
	switch e.kind(in.A) {
	case types.KindInt, types.KindBool:
		e.compareInt(in)
	case types.KindDouble:
		e.compareDouble(in)
	default:
		e.compareFloat(in)
	}
}

func (e *emitter) compareFloat(in *ir.Instr) {
	pred, swap := cmpPred(in.Op)
	a, b := in.A, in.B
	if swap {
		a, b = b, a
	}
	xa := e.src(a, false)
	xb := e.src(b, false)
	r := e.dst(in.Dst, false)
	e.a.Movaps(r, xa)
	e.a.Cmpps(r, xb, pred)
	e.flush(in.Dst, false, r)
}

// compareDouble packs the qword masks of cmppd down to the 32-bit bool
// lanes the rest of the pipeline works with.
func (e *emitter) compareDouble(in *ir.Instr) {
	pred, swap := cmpPred(in.Op)
	a, b := in.A, in.B
	if swap {
		a, b = b, a
	}
	xa := e.src(a, false)
	xb := e.src(b, false)
	r := e.dst(in.Dst, false)
	e.a.Movaps(r, xa)
	e.a.Cmppd(r, xb, pred)
	e.sc.free(xa)
	e.sc.free(xb)
	if e.halves(in.A) == 2 {
		xa2 := e.src(a, true)
		xb2 := e.src(b, true)
		mh := e.sc.take()
		e.a.Movaps(mh, xa2)
		e.a.Cmppd(mh, xb2, pred)
		e.sc.free(xa2)
		e.sc.free(xb2)
		e.a.Shufps(r, mh, 0x88)
		e.sc.free(mh)
	} else {
		e.a.Shufps(r, r, 0x88)
	}
	e.flush(in.Dst, false, r)
}

func (e *emitter) compareInt(in *ir.Instr) {
	xa := e.src(in.A, false)
	xb := e.src(in.B, false)
	r := e.dst(in.Dst, false)
	invert := false
	switch in.Op {
	case ir.OpCmpEq, ir.OpCmpNe:
		e.a.Movaps(r, xa)
		e.a.Pcmpeqd(r, xb)
		invert = in.Op == ir.OpCmpNe
	case ir.OpCmpLt, ir.OpCmpGe:
		e.a.Movaps(r, xb)
		e.a.Pcmpgtd(r, xa)
		invert = in.Op == ir.OpCmpGe
	default: // gt, le
		e.a.Movaps(r, xa)
		e.a.Pcmpgtd(r, xb)
		invert = in.Op == ir.OpCmpLe
	}
	if invert {
		e.a.XorpsMem(r, e.litOnes())
	}
	e.flush(in.Dst, false, r)
}

const (
	signBits32 = 0x80000000
	absBits32  = 0x7FFFFFFF
	signBits64 = 0x8000000000000000
	absBits64  = 0x7FFFFFFFFFFFFFFF
)

func (e *emitter) unary(in *ir.Instr) {
	k := e.kind(in.Dst)
	double := k == types.KindDouble
	if in.Op == ir.OpSign {
		e.sign(in)
		return
	}
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		xa := e.src(in.A, hi)
		r := e.dst(in.Dst, hi)
		switch in.Op {
		case ir.OpNot, ir.OpBitNot:
			e.a.Movaps(r, xa)
			e.a.XorpsMem(r, e.litOnes())
		case ir.OpNeg:
			switch {
			case k == types.KindInt:
				e.a.Pxor(r, r)
				e.a.Psubd(r, xa)
			case double:
				e.a.Movaps(r, xa)
				e.a.XorpsMem(r, e.lit(bcast64(signBits64)))
			default:
				e.a.Movaps(r, xa)
				e.a.XorpsMem(r, e.lit(bcast32(signBits32)))
			}
		case ir.OpAbs:
			switch {
			case k == types.KindInt && e.feat.SSE41:
				e.a.Pabsd(r, xa)
			case k == types.KindInt:
				t := e.sc.take()
				e.a.Movaps(t, xa)
				e.a.PsradImm(t, 31)
				e.a.Movaps(r, xa)
				e.a.Pxor(r, t)
				e.a.Psubd(r, t)
				e.sc.free(t)
			case double:
				e.a.Movaps(r, xa)
				e.a.AndpsMem(r, e.lit(bcast64(absBits64)))
			default:
				e.a.Movaps(r, xa)
				e.a.AndpsMem(r, e.lit(bcast32(absBits32)))
			}
		case ir.OpSqrt:
			if double {
				e.a.Sqrtpd(r, xa)
			} else {
				e.a.Sqrtps(r, xa)
			}
		case ir.OpRsqrt:
			t := e.sc.take()
			if double {
				e.a.Sqrtpd(t, xa)
				e.a.Movups(r, e.litF64(1))
				e.a.Divpd(r, t)
			} else {
				e.a.Sqrtps(t, xa)
				e.a.Movups(r, e.litF32(1))
				e.a.Divps(r, t)
			}
			e.sc.free(t)
		case ir.OpRcp:
			if double {
				e.a.Movups(r, e.litF64(1))
				e.a.Divpd(r, xa)
			} else {
				e.a.Movups(r, e.litF32(1))
				e.a.Divps(r, xa)
			}
		}
		e.flush(in.Dst, hi, r)
	}
}

func (e *emitter) sign(in *ir.Instr) {
	k := e.kind(in.Dst)
	if k == types.KindInt {
		xa := e.src(in.A, false)
		z := e.sc.take()
		e.a.Pxor(z, z)
		p := e.sc.take()
		e.a.Movaps(p, xa)
		e.a.Pcmpgtd(p, z)
		e.sc.free(z)
		e.a.AndpsMem(p, e.lit(bcast32(1)))
		t := e.sc.take()
		e.a.Movaps(t, xa)
		e.sc.free(xa)
		e.a.PsradImm(t, 31)
		r := e.dst(in.Dst, false)
		e.a.Movaps(r, p)
		e.a.Orps(r, t)
		e.sc.free(p)
		e.sc.free(t)
		e.flush(in.Dst, false, r)
		return
	}
	double := k == types.KindDouble
	one, negOne := e.litF32(1), e.litF32(-1)
	if double {
		one, negOne = e.litF64(1), e.litF64(-1)
	}
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		xa := e.src(in.A, hi)
		z := e.sc.take()
		e.a.Xorps(z, z)
		p := e.sc.take()
		e.a.Movaps(p, z)
		if double {
			e.a.Cmppd(p, xa, 1)
		} else {
			e.a.Cmpps(p, xa, 1)
		}
		e.a.AndpsMem(p, one)
		n := e.sc.take()
		e.a.Movaps(n, xa)
		e.sc.free(xa)
		if double {
			e.a.Cmppd(n, z, 1)
		} else {
			e.a.Cmpps(n, z, 1)
		}
		e.sc.free(z)
		e.a.AndpsMem(n, negOne)
		r := e.dst(in.Dst, hi)
		e.a.Movaps(r, p)
		e.a.Orps(r, n)
		e.sc.free(p)
		e.sc.free(n)
		e.flush(in.Dst, hi, r)
	}
}

func (e *emitter) round(in *ir.Instr) {
	double := e.kind(in.Dst) == types.KindDouble
	for h := 0; h < e.halves(in.Dst); h++ {
		e.sc.reset()
		hi := h == 1
		xa := e.src(in.A, hi)
		r := e.dst(in.Dst, hi)
		e.a.Movaps(r, xa)
		e.sc.free(xa)
		if double {
			e.roundPdInPlace(r, in.Op)
		} else {
			e.roundPsInPlace(r, in.Op)
		}
		e.flush(in.Dst, hi, r)
	}
}

// shiftHalfAway adds copysign(0.5, x) so a truncation afterwards gives
// rounding half away from zero, matching the folder's math.Round.
func (e *emitter) shiftHalfAway(x asm.XMM, double bool) {
	h := e.sc.take()
	e.a.Movaps(h, x)
	if double {
		e.a.AndpsMem(h, e.lit(bcast64(signBits64)))
		e.a.OrpsMem(h, e.litF64(0.5))
		e.a.Addpd(x, h)
	} else {
		e.a.AndpsMem(h, e.lit(bcast32(signBits32)))
		e.a.OrpsMem(h, e.litF32(0.5))
		e.a.Addps(x, h)
	}
	e.sc.free(h)
}

func (e *emitter) roundPsInPlace(x asm.XMM, mode ir.Op) {
	if e.feat.SSE41 {
		switch mode {
		case ir.OpFloor:
			e.a.Roundps(x, x, 0x9)
		case ir.OpCeil:
			e.a.Roundps(x, x, 0xA)
		case ir.OpTrunc:
			e.a.Roundps(x, x, 0xB)
		case ir.OpRound:
			e.shiftHalfAway(x, false)
			e.a.Roundps(x, x, 0xB)
		}
		return
	}
	switch mode {
	case ir.OpTrunc:
		e.truncPsCore(x)
	case ir.OpRound:
		e.shiftHalfAway(x, false)
		e.truncPsCore(x)
	case ir.OpFloor:
		e.a.MovupsStore(e.mem(e.fr.scratchC), x)
		e.truncPsCore(x)
		c := e.sc.take()
		e.a.Movups(c, e.mem(e.fr.scratchC))
		e.a.Cmpps(c, x, 1) // the fraction was negative
		e.a.AndpsMem(c, e.litF32(1))
		e.a.Subps(x, c)
		e.sc.free(c)
	case ir.OpCeil:
		e.a.MovupsStore(e.mem(e.fr.scratchC), x)
		e.truncPsCore(x)
		c := e.sc.take()
		e.a.Movups(c, e.mem(e.fr.scratchC))
		d := e.sc.take()
		e.a.Movaps(d, x)
		e.a.Cmpps(d, c, 1) // the fraction was positive
		e.sc.free(c)
		e.a.AndpsMem(d, e.litF32(1))
		e.a.Addps(x, d)
		e.sc.free(d)
	}
}

// truncPsCore rounds toward zero through the integer pipeline; lanes at
// or beyond 2^23 carry no fraction and keep their original value.
func (e *emitter) truncPsCore(x asm.XMM) {
	t := e.sc.take()
	e.a.Cvttps2dq(t, x)
	e.a.Cvtdq2ps(t, t)
	m := e.sc.take()
	e.a.Movaps(m, x)
	e.a.AndpsMem(m, e.lit(bcast32(absBits32)))
	lim := e.sc.take()
	e.a.Movups(lim, e.litF32(8388608))
	e.a.Cmpps(m, lim, 1)
	e.sc.free(lim)
	e.a.Andps(t, m)
	e.a.Andnps(m, x)
	e.a.Movaps(x, t)
	e.a.Orps(x, m)
	e.sc.free(t)
	e.sc.free(m)
}

const twoPow52 = 4503599627370496.0

func (e *emitter) roundPdInPlace(x asm.XMM, mode ir.Op) {
	if e.feat.SSE41 {
		switch mode {
		case ir.OpFloor:
			e.a.Roundpd(x, x, 0x9)
		case ir.OpCeil:
			e.a.Roundpd(x, x, 0xA)
		case ir.OpTrunc:
			e.a.Roundpd(x, x, 0xB)
		case ir.OpRound:
			e.shiftHalfAway(x, true)
			e.a.Roundpd(x, x, 0xB)
		}
		return
	}
	// magic-number rounding; anything at or beyond 2^52 is already
	// integral and keeps its original value through the final guard
	e.a.MovupsStore(e.mem(e.fr.scratchC), x)
	if mode == ir.OpRound {
		e.shiftHalfAway(x, true)
	}
	e.a.MovupsStore(e.mem(e.fr.scratchB), x)
	s := e.sc.take()
	e.a.Movaps(s, x)
	e.a.AndpsMem(s, e.lit(bcast64(signBits64)))
	e.a.OrpsMem(s, e.litF64(twoPow52))
	e.a.Addpd(x, s)
	e.a.Subpd(x, s)
	e.sc.free(s)
	switch mode {
	case ir.OpFloor:
		c := e.sc.take()
		e.a.Movups(c, e.mem(e.fr.scratchB))
		e.a.Cmppd(c, x, 1)
		e.a.AndpsMem(c, e.litF64(1))
		e.a.Subpd(x, c)
		e.sc.free(c)
	case ir.OpCeil:
		c := e.sc.take()
		e.a.Movups(c, e.mem(e.fr.scratchB))
		d := e.sc.take()
		e.a.Movaps(d, x)
		e.a.Cmppd(d, c, 1)
		e.sc.free(c)
		e.a.AndpsMem(d, e.litF64(1))
		e.a.Addpd(x, d)
		e.sc.free(d)
	case ir.OpTrunc, ir.OpRound:
		// pull away-from-zero results back toward zero
		at := e.sc.take()
		e.a.Movaps(at, x)
		e.a.AndpsMem(at, e.lit(bcast64(absBits64)))
		ao := e.sc.take()
		e.a.Movups(ao, e.mem(e.fr.scratchB))
		e.a.AndpsMem(ao, e.lit(bcast64(absBits64)))
		e.a.Cmppd(ao, at, 1)
		e.sc.free(at)
		adj := e.sc.take()
		e.a.Movups(adj, e.mem(e.fr.scratchB))
		e.a.AndpsMem(adj, e.lit(bcast64(signBits64)))
		e.a.OrpsMem(adj, e.litF64(1))
		e.a.Andps(adj, ao)
		e.a.Subpd(x, adj)
		e.sc.free(ao)
		e.sc.free(adj)
	}
	g := e.sc.take()
	e.a.Movups(g, e.mem(e.fr.scratchC))
	e.a.AndpsMem(g, e.lit(bcast64(absBits64)))
	l := e.sc.take()
	e.a.Movups(l, e.litF64(twoPow52))
	e.a.Cmppd(g, l, 1)
	e.sc.free(l)
	e.a.Andps(x, g)
	o := e.sc.take()
	e.a.Movups(o, e.mem(e.fr.scratchC))
	e.a.Andnps(g, o)
	e.a.Orps(x, g)
	e.sc.free(g)
	e.sc.free(o)
}

func (e *emitter) cast(in *ir.Instr) {
	sk, dk := e.kind(in.A), e.kind(in.Dst)
	if sk == dk {
		e.opMov(in)
		return
	}
	switch dk {
	case types.KindDouble:
		e.castToDouble(in, sk)
	case types.KindBool:
		e.castToBool(in, sk)
	default:
		if sk == types.KindDouble {
			e.castFromDouble(in, dk)
			return
		}
		xa := e.src(in.A, false)
		r := e.dst(in.Dst, false)
		switch {
		case sk == types.KindBool && dk == types.KindInt:
			e.a.Movaps(r, xa)
			e.a.AndpsMem(r, e.lit(bcast32(1)))
		case sk == types.KindBool:
			e.a.Movaps(r, xa)
			e.a.AndpsMem(r, e.lit(bcast32(1)))
			e.a.Cvtdq2ps(r, r)
		case dk == types.KindFloat:
			e.a.Cvtdq2ps(r, xa)
		default:
			// truncating; out-of-range lanes saturate to INT_MIN
			e.a.Cvttps2dq(r, xa)
		}
		e.flush(in.Dst, false, r)
	}
}

func (e *emitter) castToDouble(in *ir.Instr, sk types.Kind) {
	xa := e.src(in.A, false)
	m := xa
	if sk == types.KindBool {
		m = e.sc.take()
		e.a.Movaps(m, xa)
		e.a.AndpsMem(m, e.lit(bcast32(1)))
		e.sc.free(xa)
	}
	conv := (*asm.Assembler).Cvtdq2pd
	if sk == types.KindFloat {
		conv = (*asm.Assembler).Cvtps2pd
	}
	r := e.dst(in.Dst, false)
	conv(e.a, r, m)
	e.flush(in.Dst, false, r)
	if e.halves(in.Dst) == 2 {
		e.sc.free(r)
		sh := e.sc.take()
		e.a.Pshufd(sh, m, 0x0E)
		r2 := e.dst(in.Dst, true)
		conv(e.a, r2, sh)
		e.sc.free(sh)
		e.flush(in.Dst, true, r2)
	}
}

func (e *emitter) castFromDouble(in *ir.Instr, dk types.Kind) {
	conv := (*asm.Assembler).Cvttpd2dq
	if dk == types.KindFloat {
		conv = (*asm.Assembler).Cvtpd2ps
	}
	if e.halves(in.A) == 1 {
		xa := e.src(in.A, false)
		r := e.dst(in.Dst, false)
		conv(e.a, r, xa)
		e.flush(in.Dst, false, r)
		return
	}
	xl := e.src(in.A, false)
	tlo := e.sc.take()
	conv(e.a, tlo, xl)
	e.sc.free(xl)
	xh := e.src(in.A, true)
	thi := e.sc.take()
	conv(e.a, thi, xh)
	e.sc.free(xh)
	e.a.Movlhps(tlo, thi)
	e.sc.free(thi)
	r := e.dst(in.Dst, false)
	e.a.Movaps(r, tlo)
	e.sc.free(tlo)
	e.flush(in.Dst, false, r)
}

func (e *emitter) castToBool(in *ir.Instr, sk types.Kind) {
	switch sk {
	case types.KindDouble:
		z := e.sc.take()
		e.a.Xorps(z, z)
		xl := e.src(in.A, false)
		r := e.dst(in.Dst, false)
		e.a.Movaps(r, xl)
		e.a.Cmppd(r, z, 4)
		e.sc.free(xl)
		if e.halves(in.A) == 2 {
			xh := e.src(in.A, true)
			mh := e.sc.take()
			e.a.Movaps(mh, xh)
			e.a.Cmppd(mh, z, 4)
			e.sc.free(xh)
			e.sc.free(z)
			e.a.Shufps(r, mh, 0x88)
			e.sc.free(mh)
		} else {
			e.sc.free(z)
			e.a.Shufps(r, r, 0x88)
		}
		e.flush(in.Dst, false, r)
	case types.KindInt:
		xa := e.src(in.A, false)
		r := e.dst(in.Dst, false)
		z := e.sc.take()
		e.a.Pxor(z, z)
		e.a.Movaps(r, xa)
		e.a.Pcmpeqd(r, z)
		e.sc.free(z)
		e.a.XorpsMem(r, e.litOnes())
		e.flush(in.Dst, false, r)
	default:
		xa := e.src(in.A, false)
		r := e.dst(in.Dst, false)
		z := e.sc.take()
		e.a.Xorps(z, z)
		e.a.Movaps(r, xa)
		e.a.Cmpps(r, z, 4)
		e.sc.free(z)
		e.flush(in.Dst, false, r)
	}
}

func (e *emitter) dot(in *ir.Instr) {
	n := e.lanes(in.A)
	if e.kind(in.A) == types.KindDouble {
		e.dotDouble(in, n)
		return
	}
	xa := e.src(in.A, false)
	xb := e.src(in.B, false)
	r := e.dst(in.Dst, false)
	if e.feat.SSE41 {
		e.a.Movaps(r, xa)
		e.a.Dpps(r, xb, uint8((1<<n)-1)<<4|0x1)
	} else {
		e.a.Movaps(r, xa)
		e.a.Mulps(r, xb)
		if n < 4 {
			e.a.AndpsMem(r, e.laneMask(n))
		}
		t := e.sc.take()
		e.a.Movhlps(t, r)
		e.a.Addps(r, t)
		e.a.Pshufd(t, r, 0x01)
		e.a.Addps(r, t)
		e.sc.free(t)
	}
	e.flush(in.Dst, false, r)
}

func (e *emitter) dotDouble(in *ir.Instr, n uint32) {
	xl := e.src(in.A, false)
	yl := e.src(in.B, false)
	p := e.sc.take()
	e.a.Movaps(p, xl)
	e.a.Mulpd(p, yl)
	e.sc.free(xl)
	e.sc.free(yl)
	if e.halves(in.A) == 2 {
		xh := e.src(in.A, true)
		yh := e.src(in.B, true)
		ph := e.sc.take()
		e.a.Movaps(ph, xh)
		e.a.Mulpd(ph, yh)
		e.sc.free(xh)
		e.sc.free(yh)
		if n == 3 {
			var b [16]byte
			for i := 0; i < 8; i++ {
				b[i] = 0xFF
			}
			e.a.AndpsMem(ph, e.lit(b[:]))
		}
		e.a.Addpd(p, ph)
		e.sc.free(ph)
	}
	t := e.sc.take()
	e.a.Pshufd(t, p, 0x4E)
	e.a.Addpd(p, t)
	e.sc.free(t)
	r := e.dst(in.Dst, false)
	e.a.Movaps(r, p)
	e.sc.free(p)
	e.flush(in.Dst, false, r)
}
