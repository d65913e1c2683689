package ast

import (
	"mpsl/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena     *Arena[Expr]
	Idents    *Arena[ExprIdentData]
	Literals  *Arena[ExprLiteralData]
	Unaries   *Arena[ExprUnaryData]
	Binaries  *Arena[ExprBinaryData]
	Ternaries *Arena[ExprTernaryData]
	Calls     *Arena[ExprCallData]
	Casts     *Arena[ExprCastData]
	Ctors     *Arena[ExprCtorData]
	Swizzles  *Arena[ExprSwizzleData]
	Members   *Arena[ExprMemberData]
	Indices   *Arena[ExprIndexData]
}

// NewExprs creates a new Exprs with per-kind arenas preallocated using
// capHint as the initial capacity; 0 picks a default.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:     NewArena[Expr](capHint),
		Idents:    NewArena[ExprIdentData](capHint),
		Literals:  NewArena[ExprLiteralData](capHint),
		Unaries:   NewArena[ExprUnaryData](capHint),
		Binaries:  NewArena[ExprBinaryData](capHint),
		Ternaries: NewArena[ExprTernaryData](capHint / 4),
		Calls:     NewArena[ExprCallData](capHint / 4),
		Casts:     NewArena[ExprCastData](capHint / 2),
		Ctors:     NewArena[ExprCtorData](capHint / 4),
		Swizzles:  NewArena[ExprSwizzleData](capHint / 2),
		Members:   NewArena[ExprMemberData](capHint / 2),
		Indices:   NewArena[ExprIndexData](capHint / 4),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// NewIdent creates a new identifier expression.
func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(ExprIdentData{Name: name}))
}

// Ident returns the identifier data for the given expression ID.
func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIdent {
		return nil, false
	}
	return e.Idents.Get(uint32(expr.Payload)), true
}

// NewLiteral creates a new literal expression.
func (e *Exprs) NewLiteral(span source.Span, val Value) ExprID {
	return e.new(ExprLit, span, e.Literals.Allocate(ExprLiteralData{Val: val}))
}

// Literal returns the literal data for the given expression ID.
func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprLit {
		return nil, false
	}
	return e.Literals.Get(uint32(expr.Payload)), true
}

// NewUnary creates a new unary expression.
func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand}))
}

// Unary returns the unary data for the given expression ID.
func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprUnary {
		return nil, false
	}
	return e.Unaries.Get(uint32(expr.Payload)), true
}

// NewBinary creates a new binary expression.
func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

// Binary returns the binary data for the given expression ID.
func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinary {
		return nil, false
	}
	return e.Binaries.Get(uint32(expr.Payload)), true
}

// NewTernary creates a new ?: expression.
func (e *Exprs) NewTernary(span source.Span, cond, then, els ExprID) ExprID {
	return e.new(ExprTernary, span, e.Ternaries.Allocate(ExprTernaryData{Cond: cond, Then: then, Else: els}))
}

// Ternary returns the ternary data for the given expression ID.
func (e *Exprs) Ternary(id ExprID) (*ExprTernaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprTernary {
		return nil, false
	}
	return e.Ternaries.Get(uint32(expr.Payload)), true
}

// NewCall creates a new named call expression.
func (e *Exprs) NewCall(span source.Span, name source.StringID, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{
		Name: name,
		Args: append([]ExprID(nil), args...),
	}))
}

// Call returns the call data for the given expression ID.
func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(expr.Payload)), true
}

// NewCast creates a conversion of value to the node's eventual type.
func (e *Exprs) NewCast(span source.Span, value ExprID) ExprID {
	return e.new(ExprCast, span, e.Casts.Allocate(ExprCastData{Value: value}))
}

// Cast returns the cast data for the given expression ID.
func (e *Exprs) Cast(id ExprID) (*ExprCastData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCast {
		return nil, false
	}
	return e.Casts.Get(uint32(expr.Payload)), true
}

// NewCtor creates a vector/matrix constructor expression.
func (e *Exprs) NewCtor(span source.Span, args []ExprID) ExprID {
	return e.new(ExprCtor, span, e.Ctors.Allocate(ExprCtorData{
		Args: append([]ExprID(nil), args...),
	}))
}

// Ctor returns the constructor data for the given expression ID.
func (e *Exprs) Ctor(id ExprID) (*ExprCtorData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCtor {
		return nil, false
	}
	return e.Ctors.Get(uint32(expr.Payload)), true
}

// NewSwizzle creates a lane-selection expression.
func (e *Exprs) NewSwizzle(span source.Span, value ExprID, sel [8]uint8, count uint8) ExprID {
	return e.new(ExprSwizzle, span, e.Swizzles.Allocate(ExprSwizzleData{Value: value, Sel: sel, Count: count}))
}

// Swizzle returns the swizzle data for the given expression ID.
func (e *Exprs) Swizzle(id ExprID) (*ExprSwizzleData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSwizzle {
		return nil, false
	}
	return e.Swizzles.Get(uint32(expr.Payload)), true
}

// NewMember creates a member access expression.
func (e *Exprs) NewMember(span source.Span, value ExprID, name source.StringID) ExprID {
	return e.new(ExprMember, span, e.Members.Allocate(ExprMemberData{Value: value, Name: name}))
}

// Member returns the member data for the given expression ID.
func (e *Exprs) Member(id ExprID) (*ExprMemberData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprMember {
		return nil, false
	}
	return e.Members.Get(uint32(expr.Payload)), true
}

// NewIndex creates an indexing expression.
func (e *Exprs) NewIndex(span source.Span, value, index ExprID) ExprID {
	return e.new(ExprIndex, span, e.Indices.Allocate(ExprIndexData{Value: value, Index: index}))
}

// Index returns the index data for the given expression ID.
func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIndex {
		return nil, false
	}
	return e.Indices.Get(uint32(expr.Payload)), true
}
