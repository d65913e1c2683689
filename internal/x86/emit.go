package x86

import (
	"encoding/binary"
	"fmt"
	"math"

	"mpsl/internal/asm"
	"mpsl/internal/ir"
	"mpsl/internal/types"
)

// Compile translates a finalized IR function into a flat machine-code
// image ready for an executable mapping. The returned trace holds one
// mnemonic per emitted instruction when tracing is on.
func Compile(fn *ir.Fn, feat Features, tracing bool) (image []byte, trace []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("x86: %v", r)
		}
	}()

	a := asm.New()
	a.SetTracing(tracing)
	fr := newFrame(fn)
	locs := allocate(fn, fr)

	e := &emitter{a: a, fn: fn, fr: fr, locs: locs, feat: feat}
	e.labels = make([]asm.Label, len(fn.Blocks))
	for i := range e.labels {
		e.labels[i] = a.NewLabel()
	}

	e.prologue()
	for i := range fn.Blocks {
		bb := &fn.Blocks[i]
		a.Bind(e.labels[bb.ID])
		for j := range bb.Instrs {
			e.instr(&bb.Instrs[j])
		}
		e.term(bb, i)
	}

	image, err = a.Finish()
	if err != nil {
		return nil, nil, err
	}
	return image, a.Trace(), nil
}

type emitter struct {
	a      *asm.Assembler
	fn     *ir.Fn
	fr     *frame
	locs   []loc
	feat   Features
	labels []asm.Label
	sc     scratchSet
}

// scratchSet hands out X12-X15 within one instruction's expansion.
type scratchSet struct {
	used uint8
}

func (s *scratchSet) take() asm.XMM {
	for i := uint8(0); i < 4; i++ {
		if s.used&(1<<i) == 0 {
			s.used |= 1 << i
			return asm.X12 + asm.XMM(i)
		}
	}
	panic("scratch registers exhausted")
}

func (s *scratchSet) free(x asm.XMM) {
	if x >= asm.X12 {
		s.used &^= 1 << (x - asm.X12)
	}
}

func (s *scratchSet) reset() {
	s.used = 0
}

func isScratch(x asm.XMM) bool {
	return x >= asm.X12
}

func (e *emitter) mem(off int32) asm.Mem {
	return asm.BaseDisp(asm.RBP, off)
}

// src returns a register holding one 128-bit half of the operand,
// reloading from its frame cell into a scratch register when spilled.
func (e *emitter) src(id ir.VRegID, hi bool) asm.XMM {
	l := e.locs[id]
	switch l.kind {
	case locXMM:
		return l.x
	case locPair:
		if hi {
			return l.x2
		}
		return l.x
	case locSpill:
		t := e.sc.take()
		off := l.off
		if hi {
			off += 16
		}
		e.a.Movups(t, e.mem(off))
		return t
	}
	panic("operand without an xmm home")
}

// dst returns the register the result half must land in; flush stores
// it back when the destination lives in a frame cell.
func (e *emitter) dst(id ir.VRegID, hi bool) asm.XMM {
	l := e.locs[id]
	switch l.kind {
	case locXMM:
		return l.x
	case locPair:
		if hi {
			return l.x2
		}
		return l.x
	case locSpill:
		return e.sc.take()
	}
	panic("destination without an xmm home")
}

func (e *emitter) flush(id ir.VRegID, hi bool, x asm.XMM) {
	if l := e.locs[id]; l.kind == locSpill {
		off := l.off
		if hi {
			off += 16
		}
		e.a.MovupsStore(e.mem(off), x)
	}
}

// gp resolves a pointer operand, reloading spills into R10.
func (e *emitter) gp(id ir.VRegID) asm.Reg {
	l := e.locs[id]
	if l.kind == locGP {
		return l.gp
	}
	e.a.MovRegMem(asm.R10, e.mem(l.off))
	return asm.R10
}

func (e *emitter) dstGP(id ir.VRegID) asm.Reg {
	if l := e.locs[id]; l.kind == locGP {
		return l.gp
	}
	return asm.R10
}

func (e *emitter) flushGP(id ir.VRegID, r asm.Reg) {
	if l := e.locs[id]; l.kind == locSpill {
		e.a.MovMemReg(e.mem(l.off), r)
	}
}

// halves reports how many 128-bit chunks the register occupies.
func (e *emitter) halves(id ir.VRegID) int {
	if e.fn.VReg(id).Width == ir.W256 {
		return 2
	}
	return 1
}

func (e *emitter) kind(id ir.VRegID) types.Kind {
	return e.fn.VReg(id).Kind
}

func (e *emitter) lanes(id ir.VRegID) uint32 {
	return e.fn.VReg(id).Lanes
}

// literal helpers; each returns a RIP-relative operand into the
// deduplicated literal area.

func (e *emitter) lit(b []byte) asm.Mem {
	return asm.LitRef(e.a.Literal(b))
}

func bcast32(v uint32) []byte {
	var b [16]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b[:]
}

func bcast64(v uint64) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:], v)
	binary.LittleEndian.PutUint64(b[8:], v)
	return b[:]
}

func (e *emitter) litOnes() asm.Mem      { return e.lit(bcast32(0xFFFFFFFF)) }
func (e *emitter) litF32(f float32) asm.Mem {
	return e.lit(bcast32(math.Float32bits(f)))
}
func (e *emitter) litF64(f float64) asm.Mem {
	return e.lit(bcast64(math.Float64bits(f)))
}

// laneMask builds a literal with all-ones in the first n 32-bit lanes.
func (e *emitter) laneMask(n uint32) asm.Mem {
	var b [16]byte
	for i := uint32(0); i < n; i++ {
		binary.LittleEndian.PutUint32(b[i*4:], 0xFFFFFFFF)
	}
	return e.lit(b[:])
}

// blendMask expands a per-lane bitmask into a byte mask literal. elem
// is the lane size in bytes; first selects which logical lanes the
// 16-byte half covers.
func (e *emitter) blendMask(bits uint32, elem uint32, first uint32) asm.Mem {
	var b [16]byte
	for i := uint32(0); i < 16/elem; i++ {
		if bits&(1<<(first+i)) != 0 {
			for j := uint32(0); j < elem; j++ {
				b[i*elem+j] = 0xFF
			}
		}
	}
	return e.lit(b[:])
}

func (e *emitter) prologue() {
	e.a.Push(asm.RBP)
	e.a.MovRegReg(asm.RBP, asm.RSP)
	if n := e.fr.size(); n > 0 {
		e.a.SubRegImm(asm.RSP, n)
	}
	e.a.MovMemReg(e.mem(-8), asm.RDI)
}

func (e *emitter) epilogue() {
	e.a.MovRegReg(asm.RSP, asm.RBP)
	e.a.Pop(asm.RBP)
	e.a.Ret()
}

// term finishes a block; fallthrough jumps are elided when the target
// is the next block in layout order.
func (e *emitter) term(bb *ir.Block, idx int) {
	switch bb.Term.Kind {
	case ir.TermGoto:
		if int(bb.Term.Then) != idx+1 {
			e.a.Jmp(e.labels[bb.Term.Then])
		}
	case ir.TermIf:
		e.sc.reset()
		x := e.src(bb.Term.Cond, false)
		e.a.MovdRegXmm(asm.RAX, x)
		e.a.TestRegReg32(asm.RAX, asm.RAX)
		switch {
		case int(bb.Term.Then) == idx+1:
			e.a.Jcc(asm.CondE, e.labels[bb.Term.Else])
		case int(bb.Term.Else) == idx+1:
			e.a.Jcc(asm.CondNE, e.labels[bb.Term.Then])
		default:
			e.a.Jcc(asm.CondNE, e.labels[bb.Term.Then])
			e.a.Jmp(e.labels[bb.Term.Else])
		}
	case ir.TermReturn:
		// results reach the caller through bound objects; the lowerer
		// stores a non-void main's value before returning
		e.epilogue()
	}
}
