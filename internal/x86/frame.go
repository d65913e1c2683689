package x86

import (
	"mpsl/internal/ir"
)

// frame assigns rbp-relative cells: the saved argument-array pointer at
// [rbp-8], one cell per IR slot, three scratch cells the selector
// stages data through, and spill cells handed out by the allocator.
// Offsets are negative; rbp itself is 16-byte aligned after the
// prologue, so cells keep vector alignment.
type frame struct {
	top      int32
	slots    []int32
	scratchA int32
	scratchB int32
	scratchC int32
}

func newFrame(fn *ir.Fn) *frame {
	f := &frame{top: 16}
	f.slots = make([]int32, len(fn.Slots))
	for i, s := range fn.Slots {
		n := int32(16)
		if ir.WidthOf(s.Type) == ir.W256 {
			n = 32
		}
		f.slots[i] = f.cell(n)
	}
	f.scratchA = f.cell(32)
	f.scratchB = f.cell(32)
	f.scratchC = f.cell(32)
	return f
}

// cell reserves n bytes below everything reserved so far and returns
// the rbp-relative offset of the cell's first byte.
func (f *frame) cell(n int32) int32 {
	f.top = (f.top + n + 15) &^ 15
	return -f.top
}

// size returns the stack reservation for the prologue.
func (f *frame) size() int32 {
	return (f.top + 15) &^ 15
}
