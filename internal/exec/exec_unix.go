//go:build unix

package exec

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Block owns one executable mapping holding a compiled kernel. Pages
// are writable only between Alloc and the final protection flip, the
// usual W^X discipline.
type Block struct {
	mem []byte
}

// Alloc maps fresh pages, copies the code image in and seals the
// mapping read-execute.
func Alloc(image []byte) (*Block, error) {
	mem, err := unix.Mmap(-1, 0, len(image),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	copy(mem, image)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, err
	}
	return &Block{mem: mem}, nil
}

// Entry returns the address of the first instruction.
func (b *Block) Entry() uintptr {
	return uintptr(unsafe.Pointer(&b.mem[0]))
}

// Release unmaps the pages. The block must not be running.
func (b *Block) Release() error {
	if b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	return err
}

// Size returns the mapped length in bytes.
func (b *Block) Size() int {
	return len(b.mem)
}
