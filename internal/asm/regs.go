package asm

import (
	"strconv"
)

// Reg is a general-purpose 64-bit register.
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var regNames = [...]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return "r?"
}

// XMM is a 128-bit SSE register.
type XMM uint8

const (
	X0 XMM = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
)

func (x XMM) String() string {
	return "xmm" + strconv.Itoa(int(x))
}

// Mem is a memory operand: [Base+Disp], or a RIP-relative literal
// reference when Rip is set.
type Mem struct {
	Base Reg
	Disp int32
	Rip  bool
	Lit  int
}

// BaseDisp builds a register-relative operand.
func BaseDisp(base Reg, disp int32) Mem {
	return Mem{Base: base, Disp: disp}
}

// LitRef builds a RIP-relative reference to literal index lit.
func LitRef(lit int) Mem {
	return Mem{Rip: true, Lit: lit}
}

func (m Mem) String() string {
	if m.Rip {
		return "[lit" + strconv.Itoa(m.Lit) + "]"
	}
	if m.Disp == 0 {
		return "[" + m.Base.String() + "]"
	}
	if m.Disp < 0 {
		return "[" + m.Base.String() + "-" + strconv.Itoa(int(-m.Disp)) + "]"
	}
	return "[" + m.Base.String() + "+" + strconv.Itoa(int(m.Disp)) + "]"
}
