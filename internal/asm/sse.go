package asm

// emitters for the four SSE encoding shapes: 0F op, prefixed 0F op,
// and the SSE4.1 0F 38 / 0F 3A maps.

func (a *Assembler) xrr(prefix, op byte, dst, src XMM, name string) {
	if prefix != 0 {
		a.byte(prefix)
	}
	a.rex(false, uint8(dst), 0, uint8(src))
	a.byte(0x0F, op)
	a.modrmReg(uint8(dst), uint8(src))
	a.note("%s %s, %s", name, dst, src)
}

func (a *Assembler) xrm(prefix, op byte, dst XMM, m Mem, name string) {
	if prefix != 0 {
		a.byte(prefix)
	}
	a.rex(false, uint8(dst), 0, uint8(m.Base))
	a.byte(0x0F, op)
	a.modrmMem(uint8(dst), m)
	a.note("%s %s, %s", name, dst, m)
}

func (a *Assembler) xrrImm(prefix, op byte, dst, src XMM, imm uint8, name string) {
	if prefix != 0 {
		a.byte(prefix)
	}
	a.rex(false, uint8(dst), 0, uint8(src))
	a.byte(0x0F, op)
	a.modrmReg(uint8(dst), uint8(src))
	a.byte(imm)
	a.note("%s %s, %s, %#x", name, dst, src, imm)
}

func (a *Assembler) x38(op byte, dst, src XMM, name string) {
	a.byte(0x66)
	a.rex(false, uint8(dst), 0, uint8(src))
	a.byte(0x0F, 0x38, op)
	a.modrmReg(uint8(dst), uint8(src))
	a.note("%s %s, %s", name, dst, src)
}

func (a *Assembler) x3aImm(op byte, dst, src XMM, imm uint8, name string) {
	a.byte(0x66)
	a.rex(false, uint8(dst), 0, uint8(src))
	a.byte(0x0F, 0x3A, op)
	a.modrmReg(uint8(dst), uint8(src))
	a.byte(imm)
	a.note("%s %s, %s, %#x", name, dst, src, imm)
}

// moves

func (a *Assembler) Movups(dst XMM, m Mem) { a.xrm(0, 0x10, dst, m, "movups") }
func (a *Assembler) MovupsStore(m Mem, src XMM) {
	a.rex(false, uint8(src), 0, uint8(m.Base))
	a.byte(0x0F, 0x11)
	a.modrmMem(uint8(src), m)
	a.note("movups %s, %s", m, src)
}
func (a *Assembler) Movaps(dst, src XMM)  { a.xrr(0, 0x28, dst, src, "movaps") }
func (a *Assembler) Movss(dst XMM, m Mem) { a.xrm(0xF3, 0x10, dst, m, "movss") }
func (a *Assembler) MovssStore(m Mem, src XMM) {
	a.byte(0xF3)
	a.rex(false, uint8(src), 0, uint8(m.Base))
	a.byte(0x0F, 0x11)
	a.modrmMem(uint8(src), m)
	a.note("movss %s, %s", m, src)
}
func (a *Assembler) Movsd(dst XMM, m Mem) { a.xrm(0xF2, 0x10, dst, m, "movsd") }
func (a *Assembler) MovsdStore(m Mem, src XMM) {
	a.byte(0xF2)
	a.rex(false, uint8(src), 0, uint8(m.Base))
	a.byte(0x0F, 0x11)
	a.modrmMem(uint8(src), m)
	a.note("movsd %s, %s", m, src)
}

// Movd moves the low dword between a GP register and an XMM register.
func (a *Assembler) MovdXmmReg(dst XMM, src Reg) {
	a.byte(0x66)
	a.rex(false, uint8(dst), 0, uint8(src))
	a.byte(0x0F, 0x6E)
	a.modrmReg(uint8(dst), uint8(src))
	a.note("movd %s, %sd", dst, src)
}

func (a *Assembler) MovdRegXmm(dst Reg, src XMM) {
	a.byte(0x66)
	a.rex(false, uint8(src), 0, uint8(dst))
	a.byte(0x0F, 0x7E)
	a.modrmReg(uint8(src), uint8(dst))
	a.note("movd %sd, %s", dst, src)
}

// Movmskps collects the lane sign bits into a GP register.
func (a *Assembler) Movmskps(dst Reg, src XMM) {
	a.rex(false, uint8(dst), 0, uint8(src))
	a.byte(0x0F, 0x50)
	a.modrmReg(uint8(dst), uint8(src))
	a.note("movmskps %sd, %s", dst, src)
}

// packed float arithmetic

func (a *Assembler) Addps(dst, src XMM)   { a.xrr(0, 0x58, dst, src, "addps") }
func (a *Assembler) Addpd(dst, src XMM)   { a.xrr(0x66, 0x58, dst, src, "addpd") }
func (a *Assembler) Subps(dst, src XMM)   { a.xrr(0, 0x5C, dst, src, "subps") }
func (a *Assembler) Subpd(dst, src XMM)   { a.xrr(0x66, 0x5C, dst, src, "subpd") }
func (a *Assembler) Mulps(dst, src XMM)   { a.xrr(0, 0x59, dst, src, "mulps") }
func (a *Assembler) Mulpd(dst, src XMM)   { a.xrr(0x66, 0x59, dst, src, "mulpd") }
func (a *Assembler) Divps(dst, src XMM)   { a.xrr(0, 0x5E, dst, src, "divps") }
func (a *Assembler) Divpd(dst, src XMM)   { a.xrr(0x66, 0x5E, dst, src, "divpd") }
func (a *Assembler) Minps(dst, src XMM)   { a.xrr(0, 0x5D, dst, src, "minps") }
func (a *Assembler) Minpd(dst, src XMM)   { a.xrr(0x66, 0x5D, dst, src, "minpd") }
func (a *Assembler) Maxps(dst, src XMM)   { a.xrr(0, 0x5F, dst, src, "maxps") }
func (a *Assembler) Maxpd(dst, src XMM)   { a.xrr(0x66, 0x5F, dst, src, "maxpd") }
func (a *Assembler) Sqrtps(dst, src XMM)  { a.xrr(0, 0x51, dst, src, "sqrtps") }
func (a *Assembler) Sqrtpd(dst, src XMM)  { a.xrr(0x66, 0x51, dst, src, "sqrtpd") }
func (a *Assembler) Rsqrtps(dst, src XMM) { a.xrr(0, 0x52, dst, src, "rsqrtps") }
func (a *Assembler) Rcpps(dst, src XMM)   { a.xrr(0, 0x53, dst, src, "rcpps") }

// float bitwise

func (a *Assembler) Andps(dst, src XMM)      { a.xrr(0, 0x54, dst, src, "andps") }
func (a *Assembler) Andnps(dst, src XMM)     { a.xrr(0, 0x55, dst, src, "andnps") }
func (a *Assembler) Orps(dst, src XMM)       { a.xrr(0, 0x56, dst, src, "orps") }
func (a *Assembler) Xorps(dst, src XMM)      { a.xrr(0, 0x57, dst, src, "xorps") }
func (a *Assembler) AndpsMem(dst XMM, m Mem) { a.xrm(0, 0x54, dst, m, "andps") }
func (a *Assembler) OrpsMem(dst XMM, m Mem)  { a.xrm(0, 0x56, dst, m, "orps") }
func (a *Assembler) XorpsMem(dst XMM, m Mem) { a.xrm(0, 0x57, dst, m, "xorps") }

// comparisons; imm8 selects the predicate (0 eq, 1 lt, 2 le, 4 neq,
// 5 nlt, 6 nle)

func (a *Assembler) Cmpps(dst, src XMM, pred uint8) { a.xrrImm(0, 0xC2, dst, src, pred, "cmpps") }
func (a *Assembler) Cmppd(dst, src XMM, pred uint8) { a.xrrImm(0x66, 0xC2, dst, src, pred, "cmppd") }

// shuffles

func (a *Assembler) Shufps(dst, src XMM, sel uint8) { a.xrrImm(0, 0xC6, dst, src, sel, "shufps") }
func (a *Assembler) Shufpd(dst, src XMM, sel uint8) { a.xrrImm(0x66, 0xC6, dst, src, sel, "shufpd") }
func (a *Assembler) Pshufd(dst, src XMM, sel uint8) { a.xrrImm(0x66, 0x70, dst, src, sel, "pshufd") }
func (a *Assembler) Unpcklps(dst, src XMM)          { a.xrr(0, 0x14, dst, src, "unpcklps") }
func (a *Assembler) Movhlps(dst, src XMM)           { a.xrr(0, 0x12, dst, src, "movhlps") }
func (a *Assembler) Movlhps(dst, src XMM)           { a.xrr(0, 0x16, dst, src, "movlhps") }

// packed integer

func (a *Assembler) Paddd(dst, src XMM)   { a.xrr(0x66, 0xFE, dst, src, "paddd") }
func (a *Assembler) Psubd(dst, src XMM)   { a.xrr(0x66, 0xFA, dst, src, "psubd") }
func (a *Assembler) Pand(dst, src XMM)    { a.xrr(0x66, 0xDB, dst, src, "pand") }
func (a *Assembler) Por(dst, src XMM)     { a.xrr(0x66, 0xEB, dst, src, "por") }
func (a *Assembler) Pxor(dst, src XMM)    { a.xrr(0x66, 0xEF, dst, src, "pxor") }
func (a *Assembler) Pcmpeqd(dst, src XMM) { a.xrr(0x66, 0x76, dst, src, "pcmpeqd") }
func (a *Assembler) Pcmpgtd(dst, src XMM) { a.xrr(0x66, 0x66, dst, src, "pcmpgtd") }
func (a *Assembler) Pmuludq(dst, src XMM) { a.xrr(0x66, 0xF4, dst, src, "pmuludq") }

func (a *Assembler) pshiftImm(ext uint8, name string, dst XMM, imm uint8) {
	a.byte(0x66)
	a.rex(false, 0, 0, uint8(dst))
	a.byte(0x0F, 0x72)
	a.modrmReg(ext, uint8(dst))
	a.byte(imm)
	a.note("%s %s, %d", name, dst, imm)
}

func (a *Assembler) PslldImm(dst XMM, imm uint8) { a.pshiftImm(6, "pslld", dst, imm) }
func (a *Assembler) PsrldImm(dst XMM, imm uint8) { a.pshiftImm(2, "psrld", dst, imm) }
func (a *Assembler) PsradImm(dst XMM, imm uint8) { a.pshiftImm(4, "psrad", dst, imm) }

// conversions

func (a *Assembler) Cvtdq2ps(dst, src XMM)  { a.xrr(0, 0x5B, dst, src, "cvtdq2ps") }
func (a *Assembler) Cvttps2dq(dst, src XMM) { a.xrr(0xF3, 0x5B, dst, src, "cvttps2dq") }
func (a *Assembler) Cvtdq2pd(dst, src XMM)  { a.xrr(0xF3, 0xE6, dst, src, "cvtdq2pd") }
func (a *Assembler) Cvttpd2dq(dst, src XMM) { a.xrr(0x66, 0xE6, dst, src, "cvttpd2dq") }
func (a *Assembler) Cvtps2pd(dst, src XMM)  { a.xrr(0, 0x5A, dst, src, "cvtps2pd") }
func (a *Assembler) Cvtpd2ps(dst, src XMM)  { a.xrr(0x66, 0x5A, dst, src, "cvtpd2ps") }

// SSE4.1; the selector only reaches these behind the feature gate

func (a *Assembler) Pmulld(dst, src XMM)                  { a.x38(0x40, dst, src, "pmulld") }
func (a *Assembler) Pminsd(dst, src XMM)                  { a.x38(0x39, dst, src, "pminsd") }
func (a *Assembler) Pmaxsd(dst, src XMM)                  { a.x38(0x3D, dst, src, "pmaxsd") }
func (a *Assembler) Pabsd(dst, src XMM)                   { a.x38(0x1E, dst, src, "pabsd") }
func (a *Assembler) Roundps(dst, src XMM, mode uint8)     { a.x3aImm(0x08, dst, src, mode, "roundps") }
func (a *Assembler) Roundpd(dst, src XMM, mode uint8)     { a.x3aImm(0x09, dst, src, mode, "roundpd") }
func (a *Assembler) Blendps(dst, src XMM, mask uint8)     { a.x3aImm(0x0C, dst, src, mask, "blendps") }
func (a *Assembler) Insertps(dst, src XMM, sel uint8)     { a.x3aImm(0x21, dst, src, sel, "insertps") }
func (a *Assembler) Dpps(dst, src XMM, mask uint8)        { a.x3aImm(0x40, dst, src, mask, "dpps") }
func (a *Assembler) Pextrd(dst Reg, src XMM, lane uint8)  {
	a.byte(0x66)
	a.rex(false, uint8(src), 0, uint8(dst))
	a.byte(0x0F, 0x3A, 0x16)
	a.modrmReg(uint8(src), uint8(dst))
	a.byte(lane)
	a.note("pextrd %sd, %s, %d", dst, src, lane)
}
func (a *Assembler) Pinsrd(dst XMM, src Reg, lane uint8) {
	a.byte(0x66)
	a.rex(false, uint8(dst), 0, uint8(src))
	a.byte(0x0F, 0x3A, 0x22)
	a.modrmReg(uint8(dst), uint8(src))
	a.byte(lane)
	a.note("pinsrd %s, %sd, %d", dst, src, lane)
}

// memory forms used for literal loads

func (a *Assembler) MovupsLit(dst XMM, lit int) { a.Movups(dst, LitRef(lit)) }
