package ir

import (
	"mpsl/internal/types"
)

// VReg describes one virtual register: element kind, live lane count
// and the storage class holding them.
type VReg struct {
	Kind  types.Kind
	Lanes uint32
	Width Width
}

// Slot is one cell of function-local storage. Locals are addressed by
// slot index; matrices occupy one slot per row.
type Slot struct {
	Type types.TypeInfo
}

// Fn is one lowered function: every user function the program calls is
// inlined into main, so a compilation produces exactly one Fn.
type Fn struct {
	Name    string
	Ret     types.TypeInfo
	NumArgs int

	Slots  []Slot
	Blocks []Block
	Entry  BlockID
	Pool   *Pool

	vregs []VReg
}

func NewFn(name string, ret types.TypeInfo, numArgs int) *Fn {
	return &Fn{Name: name, Ret: ret, NumArgs: numArgs, Pool: NewPool()}
}

func widthForLanes(kind types.Kind, lanes uint32) Width {
	size := ElemSize(kind) * lanes
	switch {
	case size <= 4:
		return W32
	case size <= 8:
		return W64
	case size <= 16:
		return W128
	default:
		return W256
	}
}

// NewVReg allocates a fresh register for the given element shape.
func (f *Fn) NewVReg(kind types.Kind, lanes uint32) VRegID {
	f.vregs = append(f.vregs, VReg{Kind: kind, Lanes: lanes, Width: widthForLanes(kind, lanes)})
	return VRegID(len(f.vregs))
}

// NewPtrReg allocates a register holding a host pointer.
func (f *Fn) NewPtrReg() VRegID {
	f.vregs = append(f.vregs, VReg{Kind: types.KindObject, Lanes: 1, Width: W64})
	return VRegID(len(f.vregs))
}

func (f *Fn) VReg(id VRegID) *VReg {
	return &f.vregs[id-1]
}

func (f *Fn) NumVRegs() int {
	return len(f.vregs)
}

// NewBlock appends an empty block. Hold the ID, not the pointer: the
// block slice moves as it grows.
func (f *Fn) NewBlock() BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, Block{ID: id})
	return id
}

func (f *Fn) Block(id BlockID) *Block {
	return &f.Blocks[id]
}

// NewSlot reserves one local storage cell and returns its index.
func (f *Fn) NewSlot(t types.TypeInfo) uint32 {
	f.Slots = append(f.Slots, Slot{Type: t})
	return uint32(len(f.Slots) - 1)
}
