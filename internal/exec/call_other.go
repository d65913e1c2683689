//go:build !amd64

package exec

import (
	"unsafe"
)

// Call is a stub on architectures without a backend; compilation fails
// before any code could reach it.
func Call(entry uintptr, args unsafe.Pointer) {
	panic("exec: no trampoline for this architecture")
}
