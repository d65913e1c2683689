package ast

import (
	"mpsl/internal/source"
	"mpsl/internal/types"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprUnary
	ExprBinary
	ExprTernary
	ExprCall
	ExprCast
	ExprCtor
	ExprSwizzle
	ExprMember
	ExprIndex
)

// Expr is the shared node header. Type is written by the analyzer; until
// then it is types.Invalid.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Type    types.TypeInfo
	Payload PayloadID
}

// ExprIdentData names a variable. Binding is the analyzer-assigned local
// slot (1-based; 0 until resolution).
type ExprIdentData struct {
	Name    source.StringID
	Binding uint32
}

// ExprLiteralData holds a constant of the expression's type.
type ExprLiteralData struct {
	Val Value
}

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

type ExprTernaryData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

// ExprCallData is a named call as parsed. The analyzer either rewrites
// the node to a cast/constructor (when Name is a type) or binds it:
// Intrinsic for builtins, FuncID for user functions.
type ExprCallData struct {
	Name      source.StringID
	Args      []ExprID
	Intrinsic Intrinsic
	Func      FuncID
}

// ExprCastData converts Value to the node's type. Analyzer-inserted for
// implicit widening and broadcast; parser-visible casts arrive as calls
// and are rewritten here.
type ExprCastData struct {
	Value ExprID
}

// ExprCtorData builds a vector or matrix from components. Total given
// lane count must equal the target's, or be a single broadcast scalar.
type ExprCtorData struct {
	Args []ExprID
}

// ExprSwizzleData selects Count lanes of Value in the given order.
type ExprSwizzleData struct {
	Value ExprID
	Sel   [8]uint8
	Count uint8
}

// ExprMemberData reads a member of an argument object. Slot and Offset
// are resolved by the analyzer.
type ExprMemberData struct {
	Value  ExprID
	Name   source.StringID
	Slot   uint32
	Offset int32
}

type ExprIndexData struct {
	Value ExprID
	Index ExprID
}
