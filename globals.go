package mpsl

// Hard limits of the public surface. These match the wire format of Layout
// packing and the calling convention of compiled programs, so they are
// constants rather than tunables.
const (
	// MaxArgumentsCount is the maximum number of layout slots a program can
	// take; the generated entry point receives one pointer per slot.
	MaxArgumentsCount = 8
	// MaxIdentifierLength limits layout record and member names.
	MaxIdentifierLength = 255
	// MaxMembersCount limits members per layout.
	MaxMembersCount = 32
)

// Options is a bit set controlling a single compilation.
type Options uint32

const (
	// OptionVerbose emits info-level log messages through the pipeline.
	OptionVerbose Options = 1 << iota
	// OptionDebugAST dumps the AST before and after optimization.
	OptionDebugAST
	// OptionDebugIR dumps the IR before and after the IR pass.
	OptionDebugIR
	// OptionDebugASM dumps the generated machine code listing.
	OptionDebugASM
	// OptionDisableSSE4_1 suppresses SSE4.1 code paths; the backend falls
	// back to the documented SSE2 emulation sequences.
	OptionDisableSSE4_1
)

// optionsMask keeps only publicly recognized bits.
const optionsMask = OptionVerbose | OptionDebugAST | OptionDebugIR | OptionDebugASM | OptionDisableSSE4_1

// debugOptions are the bits that are silently cleared when no log sink is
// attached to a compilation.
const debugOptions = OptionVerbose | OptionDebugAST | OptionDebugIR | OptionDebugASM
