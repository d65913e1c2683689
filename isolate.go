package mpsl

import (
	"sync/atomic"
)

// isolateImpl is the runtime every program compiled through one isolate
// runs against. It only keeps accounting: executable pages belong to
// the program impls, which detach here when they go away.
type isolateImpl struct {
	programs  atomic.Int32
	codeBytes atomic.Int64
}

func (r *isolateImpl) attach(size int) {
	r.programs.Add(1)
	r.codeBytes.Add(int64(size))
}

func (r *isolateImpl) detach(size int) {
	r.programs.Add(-1)
	r.codeBytes.Add(-int64(size))
}

// Isolate is a compilation context. It is safe to share across
// goroutines; compilations through the same isolate are independent.
type Isolate struct {
	impl *isolateImpl
}

func NewIsolate() *Isolate {
	return &Isolate{impl: &isolateImpl{}}
}

// LivePrograms counts the compiled programs whose code is still mapped.
func (iso *Isolate) LivePrograms() int {
	if iso.impl == nil {
		return 0
	}
	return int(iso.impl.programs.Load())
}

// CodeBytes returns the total executable memory currently held by
// programs of this isolate.
func (iso *Isolate) CodeBytes() int64 {
	if iso.impl == nil {
		return 0
	}
	return iso.impl.codeBytes.Load()
}

// Clone is reserved; the semantics of copying a compilation context are
// not defined, so the call is rejected.
func (iso *Isolate) Clone() (*Isolate, Error) {
	return nil, ErrorInvalidState
}

// Freeze is reserved and rejected, like Clone.
func (iso *Isolate) Freeze() Error {
	return ErrorInvalidState
}
