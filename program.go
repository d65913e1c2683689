package mpsl

import (
	"sync/atomic"
	"unsafe"

	"mpsl/internal/exec"
)

// programImpl is the immutable compiled artifact behind Program handles.
// refs counts the handles sharing it; the null impl stays at zero and
// is never destroyed.
type programImpl struct {
	refs    atomic.Int32
	block   *exec.Block
	entry   uintptr
	numArgs int
	iso     *isolateImpl
}

var nullProgram = &programImpl{}

func (p *programImpl) retain() *programImpl {
	if p != nullProgram {
		p.refs.Add(1)
	}
	return p
}

func (p *programImpl) release() {
	if p == nullProgram {
		return
	}
	if p.refs.Add(-1) == 0 {
		p.iso.detach(p.block.Size())
		p.block.Release()
	}
}

// Program is a handle to one compiled function. Handles are copied with
// Clone and may be shared across goroutines; the machine code behind
// them is released when the last handle resets or is assigned over.
type Program struct {
	impl atomic.Pointer[programImpl]
}

func newProgramHandle(impl *programImpl) *Program {
	p := &Program{}
	p.impl.Store(impl)
	return p
}

// NewProgram returns an empty handle. Running it reports
// ErrorInvalidState until a compiled program is assigned.
func NewProgram() *Program {
	return newProgramHandle(nullProgram)
}

// Clone returns a second handle to the same compiled code.
func (p *Program) Clone() *Program {
	return newProgramHandle(p.impl.Load().retain())
}

// Assign points this handle at the code other holds and releases
// whatever it held before.
func (p *Program) Assign(other *Program) {
	next := other.impl.Load().retain()
	p.impl.Swap(next).release()
}

// Reset detaches the handle; an empty handle stays empty.
func (p *Program) Reset() {
	p.impl.Swap(nullProgram).release()
}

// IsEmpty reports whether the handle carries no compiled code.
func (p *Program) IsEmpty() bool {
	return p.impl.Load() == nullProgram
}

// CodeSize returns the size of the executable image in bytes, zero for
// an empty handle.
func (p *Program) CodeSize() int {
	impl := p.impl.Load()
	if impl == nullProgram {
		return 0
	}
	return impl.block.Size()
}

// Run invokes the compiled function with one record pointer per layout
// slot, in the order the layouts were passed to Compile. Each pointer
// must reference storage matching the corresponding layout's member
// offsets.
func (p *Program) Run(args ...unsafe.Pointer) Error {
	impl := p.impl.Load()
	if impl == nullProgram {
		return ErrorInvalidState
	}
	if len(args) != impl.numArgs {
		return ErrorInvalidArgument
	}
	exec.Call(impl.entry, unsafe.Pointer(&args[0]))
	return ErrorOk
}
