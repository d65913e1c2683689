package mpsl

import "fmt"

// Error is a stable numeric result code. The zero value means success;
// every other value identifies one failure category of the pipeline or
// of the public API. Numeric values are part of the external surface and
// must not be reordered.
type Error uint32

const (
	// ErrorOk means success. Functions of this package that return an
	// Error return ErrorOk on success; AsError maps it to a nil error.
	ErrorOk Error = iota
	// ErrorNoMemory is reported when an arena, heap, or executable-memory
	// allocation fails.
	ErrorNoMemory
	// ErrorInvalidArgument is reported when a caller-supplied value violates
	// a documented precondition.
	ErrorInvalidArgument
	// ErrorInvalidState is reported by operations that are not valid for the
	// current state of the handle (unconfigured isolate, Clone/Freeze).
	ErrorInvalidState
	// ErrorInvalidSyntax is reported by the parser.
	ErrorInvalidSyntax
	// ErrorSymbolNotFound is reported by the analyzer for unresolved names.
	ErrorSymbolNotFound
	// ErrorSymbolCollision is reported when an argument object collides with
	// a built-in symbol, or when a declaration reuses a name that is
	// already declared.
	ErrorSymbolCollision
	// ErrorAlreadyExists is reported by Layout.Add for a name the layout
	// already holds.
	ErrorAlreadyExists
	// ErrorInvalidCast is reported for casts the language forbids.
	ErrorInvalidCast
	// ErrorInvalidOperator is reported for operators applied to unsupported
	// operand shapes.
	ErrorInvalidOperator
	// ErrorTypeMismatch is reported for incompatible operand or return types.
	ErrorTypeMismatch
	// ErrorTooManyMembers is reported by Layout.Add past the member limit.
	ErrorTooManyMembers
	// ErrorAlreadyConfigured is reported by Layout.Configure on the second call.
	ErrorAlreadyConfigured
	// ErrorJITFailed is reported by the backend for encoding or finalization
	// failures, including internal IR invariant violations.
	ErrorJITFailed
)

var errorText = map[Error]string{
	ErrorOk:                "ok",
	ErrorNoMemory:          "no memory",
	ErrorInvalidArgument:   "invalid argument",
	ErrorInvalidState:      "invalid state",
	ErrorInvalidSyntax:     "invalid syntax",
	ErrorSymbolNotFound:    "symbol not found",
	ErrorSymbolCollision:   "symbol collision",
	ErrorAlreadyExists:     "already exists",
	ErrorInvalidCast:       "invalid cast",
	ErrorInvalidOperator:   "invalid operator",
	ErrorTypeMismatch:      "type mismatch",
	ErrorTooManyMembers:    "too many members",
	ErrorAlreadyConfigured: "already configured",
	ErrorJITFailed:         "JIT failed",
}

func (e Error) Error() string {
	if s, ok := errorText[e]; ok {
		return s
	}
	return fmt.Sprintf("unknown error %d", uint32(e))
}

// AsError converts a result code to the error interface: nil for ErrorOk.
func (e Error) AsError() error {
	if e == ErrorOk {
		return nil
	}
	return e
}
