package x86

import (
	"golang.org/x/sys/cpu"
)

// Features describes the instruction-set extensions the selector may
// use beyond the SSE2 baseline.
type Features struct {
	SSE41 bool
}

// Detect probes the host CPU. disableSSE41 forces the baseline even on
// capable hardware.
func Detect(disableSSE41 bool) Features {
	return Features{SSE41: cpu.X86.HasSSE41 && !disableSSE41}
}
