package ir

// Finalize prepares a lowered function for instruction selection.
// Vector registers are widened to a full SIMD class so lane-wise
// operations never need partial-register shuffles, and the constant
// pool drops entries nothing references.
func Finalize(f *Fn) {
	for i := range f.vregs {
		r := &f.vregs[i]
		if r.Lanes > 1 && r.Width < W128 {
			r.Width = W128
		}
	}
	f.Pool.Compact(f)
}
