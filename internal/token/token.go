package token

import (
	"mpsl/internal/source"
)

// Token represents a single source token with its location. Text is the
// raw source slice; the parser reads literal values out of it.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, DoubleLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwConst, KwIf, KwElse, KwFor, KwWhile, KwDo,
		KwBreak, KwContinue, KwReturn, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsAssignOp reports whether the token assigns to its left operand.
func (t Token) IsAssignOp() bool {
	switch t.Kind {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign,
		PercentAssign, AmpAssign, PipeAssign, CaretAssign, ShlAssign, ShrAssign:
		return true
	default:
		return false
	}
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
