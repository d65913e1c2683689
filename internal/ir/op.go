package ir

// Op enumerates IR opcodes. Element kind and lane count live on the
// destination register; Extra carries the opcode-specific immediate.
type Op uint8

const (
	OpNop Op = iota

	// data movement
	OpConst     // dst = pool[Extra]
	OpMov       // dst = a
	OpBroadcast // dst lanes = a lane 0
	OpShuffle   // dst lane i = a lane sel(i), Extra packs 4-bit selectors
	OpBlend     // dst lane i = Extra bit i ? b lane i : a lane i
	OpSelect    // dst lane i = a mask lane i ? b lane i : c lane i
	OpExtract   // dst scalar = a lane [b]
	OpInsert    // dst = a with lane [c] = b scalar

	// memory
	OpArgPtr   // dst = pointer of argument slot Extra
	OpLoad     // dst = [a + Extra]
	OpStore    // [a + Extra] = b
	OpLoadVar  // dst = local slot Extra
	OpStoreVar // local slot Extra = a

	// arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// bitwise, integer and mask
	OpAnd
	OpOr
	OpXor
	OpNot
	OpBitNot
	OpShl
	OpShr

	// comparisons produce full-width lane masks
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe
	OpCmpEq
	OpCmpNe

	// conversion between element kinds, dst register carries the target
	OpCast

	// builtin operations kept whole for the selector
	OpAbs
	OpMin
	OpMax
	OpSqrt
	OpRsqrt
	OpRcp
	OpFloor
	OpCeil
	OpRound
	OpTrunc
	OpSign
	OpDot
)

var opNames = [...]string{
	OpNop: "nop",
	OpConst: "const", OpMov: "mov", OpBroadcast: "bcast",
	OpShuffle: "shuf", OpBlend: "blend", OpSelect: "select",
	OpExtract: "extract", OpInsert: "insert",
	OpArgPtr: "argptr", OpLoad: "load", OpStore: "store",
	OpLoadVar: "loadvar", OpStoreVar: "storevar",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod", OpNeg: "neg",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpNot: "not", OpBitNot: "bitnot",
	OpShl: "shl", OpShr: "shr",
	OpCmpLt: "cmplt", OpCmpLe: "cmple", OpCmpGt: "cmpgt", OpCmpGe: "cmpge",
	OpCmpEq: "cmpeq", OpCmpNe: "cmpne",
	OpCast: "cast",
	OpAbs:  "abs", OpMin: "min", OpMax: "max",
	OpSqrt: "sqrt", OpRsqrt: "rsqrt", OpRcp: "rcp",
	OpFloor: "floor", OpCeil: "ceil", OpRound: "round", OpTrunc: "trunc",
	OpSign: "sign", OpDot: "dot",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "op?"
}

// ShuffleSel packs per-lane source indices into the Extra immediate,
// four bits per destination lane.
func ShuffleSel(sel [8]uint8, count uint8) uint32 {
	var out uint32
	for i := uint8(0); i < count; i++ {
		out |= uint32(sel[i]&0xF) << (4 * i)
	}
	return out
}

// ShuffleLane unpacks the source index of one destination lane.
func ShuffleLane(extra uint32, lane uint32) uint32 {
	return (extra >> (4 * lane)) & 0xF
}
