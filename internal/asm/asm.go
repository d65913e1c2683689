package asm

import (
	"encoding/binary"
	"fmt"
)

// Label marks a code position that jumps can target before it is
// placed.
type Label int

type fixup struct {
	pos   int // offset of the rel32 field
	label Label
}

// litFixup is a RIP-relative reference into the literal area appended
// after the code.
type litFixup struct {
	pos int
	lit int
}

// Assembler builds x86-64 machine code into a flat buffer. Jump targets
// and literal loads are recorded as fixups and patched by Finish, and
// every instruction can leave a textual trace for the assembly dump.
type Assembler struct {
	buf     []byte
	labels  []int
	fixups  []fixup
	lits    [][]byte
	litRefs []litFixup
	trace   []string
	tracing bool
}

func New() *Assembler {
	return &Assembler{}
}

// SetTracing turns the mnemonic trace on or off.
func (a *Assembler) SetTracing(on bool) {
	a.tracing = on
}

// Trace returns the mnemonics emitted so far, one per instruction.
func (a *Assembler) Trace() []string {
	return a.trace
}

func (a *Assembler) note(format string, args ...any) {
	if a.tracing {
		a.trace = append(a.trace, fmt.Sprintf(format, args...))
	}
}

// NewLabel reserves an unplaced label.
func (a *Assembler) NewLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// Bind places the label at the current position.
func (a *Assembler) Bind(l Label) {
	a.labels[l] = len(a.buf)
	a.note(".L%d:", l)
}

// Literal stores data in the literal area and returns its index for
// RIP-relative addressing.
func (a *Assembler) Literal(data []byte) int {
	for i, l := range a.lits {
		if string(l) == string(data) {
			return i
		}
	}
	a.lits = append(a.lits, append([]byte(nil), data...))
	return len(a.lits) - 1
}

// Pos returns the current code offset.
func (a *Assembler) Pos() int {
	return len(a.buf)
}

func (a *Assembler) byte(bs ...byte) {
	a.buf = append(a.buf, bs...)
}

func (a *Assembler) u32(v uint32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, v)
}

func (a *Assembler) u64(v uint64) {
	a.buf = binary.LittleEndian.AppendUint64(a.buf, v)
}

// Finish patches all fixups and appends the literal area, returning the
// final image. Literals start 16-byte aligned so vector loads stay
// within their natural alignment.
func (a *Assembler) Finish() ([]byte, error) {
	for _, f := range a.fixups {
		target := a.labels[f.label]
		if target < 0 {
			return nil, fmt.Errorf("asm: label L%d never bound", f.label)
		}
		binary.LittleEndian.PutUint32(a.buf[f.pos:], uint32(int32(target-(f.pos+4))))
	}

	if len(a.lits) > 0 {
		litBase := (len(a.buf) + 15) &^ 15
		for len(a.buf) < litBase {
			a.buf = append(a.buf, 0xCC)
		}
	}
	offsets := make([]int, len(a.lits))
	for i, l := range a.lits {
		pad := (16 - len(a.buf)%16) % 16
		if len(l) > 16 {
			pad = (32 - len(a.buf)%32) % 32
		}
		for j := 0; j < pad; j++ {
			a.buf = append(a.buf, 0)
		}
		offsets[i] = len(a.buf)
		a.buf = append(a.buf, l...)
	}
	for _, f := range a.litRefs {
		binary.LittleEndian.PutUint32(a.buf[f.pos:], uint32(int32(offsets[f.lit]-(f.pos+4))))
	}
	return a.buf, nil
}

// rex emits a REX prefix when any extension bit or the wide flag is
// set.
func (a *Assembler) rex(w bool, reg, index, base uint8) {
	b := uint8(0x40)
	if w {
		b |= 8
	}
	b |= (reg >> 3 & 1) << 2
	b |= (index >> 3 & 1) << 1
	b |= base >> 3 & 1
	if b != 0x40 || w {
		a.byte(b)
	}
}

func (a *Assembler) modrmReg(reg, rm uint8) {
	a.byte(0xC0 | (reg&7)<<3 | rm&7)
}

// modrmMem encodes [base+disp] with the SIB and short-displacement
// special cases, or a RIP-relative slot when m.Rip is set.
func (a *Assembler) modrmMem(reg uint8, m Mem) {
	if m.Rip {
		a.byte(0x00 | (reg&7)<<3 | 0x05)
		a.litRefs = append(a.litRefs, litFixup{pos: len(a.buf), lit: m.Lit})
		a.u32(0)
		return
	}
	base := uint8(m.Base) & 7
	needSIB := base == 4
	switch {
	case m.Disp == 0 && base != 5:
		a.byte(0x00 | (reg&7)<<3 | base)
	case m.Disp >= -128 && m.Disp <= 127:
		a.byte(0x40 | (reg&7)<<3 | base)
		if needSIB {
			a.byte(0x24)
		}
		a.byte(uint8(m.Disp))
		return
	default:
		a.byte(0x80 | (reg&7)<<3 | base)
		if needSIB {
			a.byte(0x24)
		}
		a.u32(uint32(m.Disp))
		return
	}
	if needSIB {
		a.byte(0x24)
	}
}
