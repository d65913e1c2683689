//go:build amd64

package exec

import (
	"unsafe"
)

// Call runs a compiled kernel. args points at the argument-pointer
// array the kernel indexes; it lands in the first parameter register.
func Call(entry uintptr, args unsafe.Pointer) {
	call(entry, args)
}

//go:noescape
func call(entry uintptr, args unsafe.Pointer)
