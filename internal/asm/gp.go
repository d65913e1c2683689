package asm

// Cond selects a conditional-jump predicate (the low nibble of the
// 0F 8x opcode).
type Cond uint8

const (
	CondE  Cond = 0x4
	CondNE Cond = 0x5
	CondL  Cond = 0xC
	CondGE Cond = 0xD
	CondLE Cond = 0xE
	CondG  Cond = 0xF
)

var condNames = map[Cond]string{
	CondE: "je", CondNE: "jne", CondL: "jl", CondGE: "jge", CondLE: "jle", CondG: "jg",
}

func (a *Assembler) Push(r Reg) {
	a.rex(false, 0, 0, uint8(r))
	a.byte(0x50 | uint8(r)&7)
	a.note("push %s", r)
}

func (a *Assembler) Pop(r Reg) {
	a.rex(false, 0, 0, uint8(r))
	a.byte(0x58 | uint8(r)&7)
	a.note("pop %s", r)
}

func (a *Assembler) Ret() {
	a.byte(0xC3)
	a.note("ret")
}

func (a *Assembler) MovRegReg(dst, src Reg) {
	a.rex(true, uint8(src), 0, uint8(dst))
	a.byte(0x89)
	a.modrmReg(uint8(src), uint8(dst))
	a.note("mov %s, %s", dst, src)
}

func (a *Assembler) MovRegMem(dst Reg, m Mem) {
	a.rex(true, uint8(dst), 0, uint8(m.Base))
	a.byte(0x8B)
	a.modrmMem(uint8(dst), m)
	a.note("mov %s, %s", dst, m)
}

func (a *Assembler) MovMemReg(m Mem, src Reg) {
	a.rex(true, uint8(src), 0, uint8(m.Base))
	a.byte(0x89)
	a.modrmMem(uint8(src), m)
	a.note("mov %s, %s", m, src)
}

// MovRegMem32 loads a zero-extended dword.
func (a *Assembler) MovRegMem32(dst Reg, m Mem) {
	a.rex(false, uint8(dst), 0, uint8(m.Base))
	a.byte(0x8B)
	a.modrmMem(uint8(dst), m)
	a.note("mov %sd, %s", dst, m)
}

func (a *Assembler) MovMemReg32(m Mem, src Reg) {
	a.rex(false, uint8(src), 0, uint8(m.Base))
	a.byte(0x89)
	a.modrmMem(uint8(src), m)
	a.note("mov %s, %sd", m, src)
}

func (a *Assembler) MovRegImm64(dst Reg, imm uint64) {
	a.rex(true, 0, 0, uint8(dst))
	a.byte(0xB8 | uint8(dst)&7)
	a.u64(imm)
	a.note("mov %s, %#x", dst, imm)
}

func (a *Assembler) MovRegImm32(dst Reg, imm uint32) {
	a.rex(false, 0, 0, uint8(dst))
	a.byte(0xB8 | uint8(dst)&7)
	a.u32(imm)
	a.note("mov %sd, %#x", dst, imm)
}

func (a *Assembler) AddRegImm(dst Reg, imm int32) {
	a.rex(true, 0, 0, uint8(dst))
	a.byte(0x81)
	a.modrmReg(0, uint8(dst))
	a.u32(uint32(imm))
	a.note("add %s, %d", dst, imm)
}

func (a *Assembler) SubRegImm(dst Reg, imm int32) {
	a.rex(true, 0, 0, uint8(dst))
	a.byte(0x81)
	a.modrmReg(5, uint8(dst))
	a.u32(uint32(imm))
	a.note("sub %s, %d", dst, imm)
}

func (a *Assembler) AndRegImm32(dst Reg, imm int32) {
	a.rex(false, 0, 0, uint8(dst))
	a.byte(0x81)
	a.modrmReg(4, uint8(dst))
	a.u32(uint32(imm))
	a.note("and %sd, %d", dst, imm)
}

func (a *Assembler) CmpRegImm32(x Reg, imm int32) {
	a.rex(false, 0, 0, uint8(x))
	a.byte(0x81)
	a.modrmReg(7, uint8(x))
	a.u32(uint32(imm))
	a.note("cmp %sd, %d", x, imm)
}

func (a *Assembler) TestRegReg32(x, y Reg) {
	a.rex(false, uint8(y), 0, uint8(x))
	a.byte(0x85)
	a.modrmReg(uint8(y), uint8(x))
	a.note("test %sd, %sd", x, y)
}

// Cdq sign-extends eax into edx, the idiv setup.
func (a *Assembler) Cdq() {
	a.byte(0x99)
	a.note("cdq")
}

// Idiv32 divides edx:eax by the operand, quotient in eax and remainder
// in edx.
func (a *Assembler) Idiv32(r Reg) {
	a.rex(false, 0, 0, uint8(r))
	a.byte(0xF7)
	a.modrmReg(7, uint8(r))
	a.note("idiv %sd", r)
}

// shift32 emits a CL-count shift of a 32-bit register.
func (a *Assembler) shift32(ext uint8, name string, r Reg) {
	a.rex(false, 0, 0, uint8(r))
	a.byte(0xD3)
	a.modrmReg(ext, uint8(r))
	a.note("%s %sd, cl", name, r)
}

func (a *Assembler) ShlCl32(r Reg) { a.shift32(4, "shl", r) }
func (a *Assembler) SarCl32(r Reg) { a.shift32(7, "sar", r) }

// Lea computes a register-relative address.
func (a *Assembler) Lea(dst Reg, m Mem) {
	a.rex(true, uint8(dst), 0, uint8(m.Base))
	a.byte(0x8D)
	a.modrmMem(uint8(dst), m)
	a.note("lea %s, %s", dst, m)
}

// MovRegMemIdx32 loads a dword from [base + index*scale].
func (a *Assembler) MovRegMemIdx32(dst, base, index Reg, scale uint8) {
	a.rex(false, uint8(dst), uint8(index), uint8(base))
	a.byte(0x8B)
	a.sib(uint8(dst), base, index, scale)
	a.note("mov %sd, [%s+%s*%d]", dst, base, index, scale)
}

func (a *Assembler) MovMemIdxReg32(base, index Reg, scale uint8, src Reg) {
	a.rex(false, uint8(src), uint8(index), uint8(base))
	a.byte(0x89)
	a.sib(uint8(src), base, index, scale)
	a.note("mov [%s+%s*%d], %sd", base, index, scale, src)
}

func (a *Assembler) MovRegMemIdx64(dst, base, index Reg, scale uint8) {
	a.rex(true, uint8(dst), uint8(index), uint8(base))
	a.byte(0x8B)
	a.sib(uint8(dst), base, index, scale)
	a.note("mov %s, [%s+%s*%d]", dst, base, index, scale)
}

func (a *Assembler) MovMemIdxReg64(base, index Reg, scale uint8, src Reg) {
	a.rex(true, uint8(src), uint8(index), uint8(base))
	a.byte(0x89)
	a.sib(uint8(src), base, index, scale)
	a.note("mov [%s+%s*%d], %s", base, index, scale, src)
}

// sib encodes a [base + index*scale] operand with no displacement.
func (a *Assembler) sib(reg uint8, base, index Reg, scale uint8) {
	ss := uint8(0)
	for s := scale; s > 1; s >>= 1 {
		ss++
	}
	if uint8(base)&7 == 5 {
		a.byte(0x40 | (reg&7)<<3 | 0x04)
		a.byte(ss<<6 | (uint8(index)&7)<<3 | uint8(base)&7)
		a.byte(0)
		return
	}
	a.byte(0x00 | (reg&7)<<3 | 0x04)
	a.byte(ss<<6 | (uint8(index)&7)<<3 | uint8(base)&7)
}

// Jmp emits an unconditional rel32 jump to the label.
func (a *Assembler) Jmp(l Label) {
	a.byte(0xE9)
	a.fixups = append(a.fixups, fixup{pos: len(a.buf), label: l})
	a.u32(0)
	a.note("jmp .L%d", l)
}

// Jcc emits a conditional rel32 jump.
func (a *Assembler) Jcc(c Cond, l Label) {
	a.byte(0x0F, 0x80|uint8(c))
	a.fixups = append(a.fixups, fixup{pos: len(a.buf), label: l})
	a.u32(0)
	a.note("%s .L%d", condNames[c], l)
}
