package x86

import (
	"slices"

	"mpsl/internal/asm"
	"mpsl/internal/ir"
	"mpsl/internal/types"
)

type locKind uint8

const (
	locNone locKind = iota
	locXMM
	locPair
	locGP
	locSpill
)

// loc is the home of one virtual register for its whole lifetime: an
// XMM register, a pair of them for 256-bit values, a general-purpose
// register for pointers, or a frame cell.
type loc struct {
	kind locKind
	x    asm.XMM
	x2   asm.XMM
	gp   asm.Reg
	off  int32
}

// X12-X15 and RAX/R10/R11 stay out of the pools; the selector uses
// them for reloads and emulation temporaries.
var (
	xmmPool = [...]asm.XMM{
		asm.X0, asm.X1, asm.X2, asm.X3, asm.X4, asm.X5,
		asm.X6, asm.X7, asm.X8, asm.X9, asm.X10, asm.X11,
	}
	gpPool = [...]asm.Reg{asm.RSI, asm.RDX, asm.RCX, asm.R8, asm.R9}
)

type activeEnt struct {
	reg ir.VRegID
	end int
}

// allocate runs a linear scan over the liveness intervals. Every
// register keeps one assignment for its whole range; when a pool runs
// dry the interval ending furthest away moves to a frame cell. An
// interval is held active through the position of its last use, so a
// destination never shares a register with one of its sources.
func allocate(fn *ir.Fn, fr *frame) []loc {
	locs := make([]loc, fn.NumVRegs()+1)
	freeX := append([]asm.XMM(nil), xmmPool[:]...)
	freeG := append([]asm.Reg(nil), gpPool[:]...)
	var active []activeEnt

	release := func(l loc) {
		switch l.kind {
		case locXMM:
			freeX = append(freeX, l.x)
		case locPair:
			freeX = append(freeX, l.x, l.x2)
		case locGP:
			freeG = append(freeG, l.gp)
		}
	}
	toMem := func(id ir.VRegID, wide bool) {
		n := int32(16)
		if wide {
			n = 32
		}
		locs[id] = loc{kind: locSpill, off: fr.cell(n)}
	}
	furthest := func(gp bool) int {
		best := -1
		for i, a := range active {
			k := locs[a.reg].kind
			if gp != (k == locGP) || k == locSpill {
				continue
			}
			if best < 0 || a.end > active[best].end {
				best = i
			}
		}
		return best
	}
	evict := func(i int) {
		l := locs[active[i].reg]
		release(l)
		toMem(active[i].reg, l.kind == locPair)
		active = slices.Delete(active, i, i+1)
	}

	for _, it := range ir.Liveness(fn) {
		kept := active[:0]
		for _, a := range active {
			if a.end < it.Start {
				release(locs[a.reg])
				continue
			}
			kept = append(kept, a)
		}
		active = kept

		r := fn.VReg(it.Reg)
		switch {
		case r.Kind == types.KindObject:
			if len(freeG) == 0 {
				if bi := furthest(true); bi >= 0 && active[bi].end > it.End {
					evict(bi)
				}
			}
			if len(freeG) == 0 {
				toMem(it.Reg, false)
				continue
			}
			g := freeG[len(freeG)-1]
			freeG = freeG[:len(freeG)-1]
			locs[it.Reg] = loc{kind: locGP, gp: g}

		case r.Width == ir.W256:
			for len(freeX) < 2 {
				bi := furthest(false)
				if bi < 0 || active[bi].end <= it.End {
					break
				}
				evict(bi)
			}
			if len(freeX) < 2 {
				toMem(it.Reg, true)
				continue
			}
			x := freeX[len(freeX)-1]
			x2 := freeX[len(freeX)-2]
			freeX = freeX[:len(freeX)-2]
			locs[it.Reg] = loc{kind: locPair, x: x, x2: x2}

		default:
			if len(freeX) == 0 {
				if bi := furthest(false); bi >= 0 && active[bi].end > it.End {
					evict(bi)
				}
			}
			if len(freeX) == 0 {
				toMem(it.Reg, false)
				continue
			}
			x := freeX[len(freeX)-1]
			freeX = freeX[:len(freeX)-1]
			locs[it.Reg] = loc{kind: locXMM, x: x}
		}
		active = append(active, activeEnt{reg: it.Reg, end: it.End})
	}
	return locs
}
