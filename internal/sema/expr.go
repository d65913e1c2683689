package sema

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/types"
)

// expr types one expression node. Lvalue-capable nodes keep the ref and
// const qualifiers on their type; operand computations run over the
// unqualified value types.
func (a *Analyzer) expr(id ast.ExprID) bool {
	switch a.b.Exprs.Get(id).Kind {
	case ast.ExprIdent:
		return a.ident(id)
	case ast.ExprLit:
		// parser typed every scalar literal; the zero type marks a
		// string literal, which no context can accept
		expr := a.b.Exprs.Get(id)
		if expr.Type == types.Invalid {
			a.err(diag.SemaInvalidCast, expr.Span,
				"string literal cannot be converted to a value type")
			return false
		}
		return true
	case ast.ExprUnary:
		return a.unary(id)
	case ast.ExprBinary:
		return a.binary(id)
	case ast.ExprTernary:
		return a.ternary(id)
	case ast.ExprCall:
		return a.call(id)
	case ast.ExprMember:
		return a.member(id)
	case ast.ExprIndex:
		return a.index(id)
	}
	return true
}

func (a *Analyzer) ident(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Ident(id)
	sym, ok := a.scopes.lookup(d.Name)
	if !ok {
		a.err(diag.SemaSymbolNotFound, expr.Span, "symbol '"+a.b.Name(d.Name)+"' not found")
		return false
	}
	switch sym.Kind {
	case SymVariable:
		d.Binding = sym.Binding
		expr.Type = sym.Type.WithRef()
		return true
	case SymConstant:
		// fold the constant right here so later passes see a literal
		expr.Kind = ast.ExprLit
		expr.Payload = ast.PayloadID(a.b.Exprs.Literals.Allocate(ast.ExprLiteralData{Val: sym.Const}))
		expr.Type = sym.Type.Unqualified()
		return true
	case SymObject:
		expr.Type = sym.Type
		return true
	default:
		a.err(diag.SemaInvalidOperator, expr.Span,
			"cannot use "+sym.Kind.String()+" '"+a.b.Name(d.Name)+"' as a value")
		return false
	}
}

// lvalue checks that an expression designates mutable storage.
func (a *Analyzer) lvalue(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	t := expr.Type
	if !t.IsRef() {
		a.err(diag.SemaNotLValue, expr.Span, "expression is not assignable")
		return false
	}
	if t.IsConst() {
		a.err(diag.SemaAssignToConst, expr.Span, "cannot assign to a const value")
		return false
	}
	if expr.Kind == ast.ExprSwizzle {
		d, _ := a.b.Exprs.Swizzle(id)
		if !distinctSel(d.Sel, d.Count) {
			a.err(diag.SemaSwizzleDuplicate, expr.Span,
				"swizzle written to must select distinct components")
			return false
		}
	}
	return true
}

func (a *Analyzer) unary(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Unary(id)
	if !a.expr(d.Operand) {
		return false
	}
	t := a.b.Exprs.Get(d.Operand).Type
	vt := t.Unqualified()

	switch d.Op {
	case ast.UnaryPlus, ast.UnaryNeg:
		if !vt.IsNumeric() {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '"+d.Op.String()+"' requires a numeric operand, got '"+vt.String()+"'")
			return false
		}
	case ast.UnaryNot:
		if vt.Kind() != types.KindBool || vt.IsMatrix() {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '!' requires a bool operand, got '"+vt.String()+"'")
			return false
		}
	case ast.UnaryBitNot:
		if vt.Kind() != types.KindInt {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '~' requires an int operand, got '"+vt.String()+"'")
			return false
		}
	default:
		// ++ and --
		if !vt.IsNumeric() || vt.IsMatrix() {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '"+d.Op.String()+"' requires a numeric operand, got '"+vt.String()+"'")
			return false
		}
		if !a.lvalue(d.Operand) {
			return false
		}
	}
	expr.Type = vt
	return true
}

func (a *Analyzer) binary(id ast.ExprID) bool {
	d, _ := a.b.Exprs.Binary(id)
	if d.Op.IsAssign() {
		// ident() folds a global constant into a literal, so the const
		// target has to be caught before the left side is analyzed
		if l := a.b.Exprs.Get(d.Left); l.Kind == ast.ExprIdent {
			ld, _ := a.b.Exprs.Ident(d.Left)
			if sym, ok := a.scopes.lookup(ld.Name); ok && sym.Kind == SymConstant {
				a.err(diag.SemaAssignToConst, l.Span, "cannot assign to a const value")
				return false
			}
		}
	}
	if !a.expr(d.Left) {
		return false
	}
	if !a.expr(d.Right) {
		return false
	}
	if d.Op.IsAssign() {
		return a.assign(id)
	}

	expr := a.b.Exprs.Get(id)
	lt := a.b.Exprs.Get(d.Left).Type.Unqualified()
	rt := a.b.Exprs.Get(d.Right).Type.Unqualified()

	switch {
	case d.Op.IsLogical():
		if lt != types.Make(types.KindBool, 1) || rt != types.Make(types.KindBool, 1) {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '"+d.Op.String()+"' requires bool operands")
			return false
		}
		expr.Type = types.Make(types.KindBool, 1)
		return true

	case d.Op.IsComparison():
		return a.comparison(id, d, lt, rt)

	case d.Op.IsBitwise() || d.Op == ast.BinMod:
		if lt.Kind() != types.KindInt || rt.Kind() != types.KindInt {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '"+d.Op.String()+"' requires int operands, got '"+
					lt.String()+"' and '"+rt.String()+"'")
			return false
		}
		u, ok := types.Promote(lt, rt)
		if !ok {
			a.err(diag.SemaTypeMismatch, expr.Span,
				"mismatched shapes '"+lt.String()+"' and '"+rt.String()+"'")
			return false
		}
		return a.finishBinary(id, d, u, u)

	default:
		// + - * /
		return a.arith(id, d, lt, rt)
	}
}

func (a *Analyzer) arith(id ast.ExprID, d *ast.ExprBinaryData, lt, rt types.TypeInfo) bool {
	expr := a.b.Exprs.Get(id)

	if lt.IsMatrix() || rt.IsMatrix() {
		return a.matrixArith(id, d, lt, rt)
	}
	u, ok := types.Promote(lt, rt)
	if !ok || !u.IsNumeric() {
		a.err(diag.SemaInvalidOperator, expr.Span,
			"invalid operands '"+lt.String()+"' and '"+rt.String()+
				"' for operator '"+d.Op.String()+"'")
		return false
	}
	return a.finishBinary(id, d, u, u)
}

// matrixArith types the matrix forms: linear-algebra multiply, scalar
// scaling, and same-shape addition.
func (a *Analyzer) matrixArith(id ast.ExprID, d *ast.ExprBinaryData, lt, rt types.TypeInfo) bool {
	expr := a.b.Exprs.Get(id)

	if d.Op == ast.BinMul {
		if res, ok := types.MatMulResult(lt, rt); ok {
			expr.Type = res
			return true
		}
	}

	// matrix-scalar forms scale component-wise
	elem := types.Make(types.KindFloat, 1)
	switch {
	case lt.IsMatrix() && rt.IsScalar() && (d.Op == ast.BinMul || d.Op == ast.BinDiv):
		right, ok := a.coerce(d.Right, elem, diag.SemaTypeMismatch)
		if !ok {
			return false
		}
		d.Right = right
		expr.Type = lt
		return true
	case rt.IsMatrix() && lt.IsScalar() && d.Op == ast.BinMul:
		left, ok := a.coerce(d.Left, elem, diag.SemaTypeMismatch)
		if !ok {
			return false
		}
		d.Left = left
		expr.Type = rt
		return true
	case lt == rt && (d.Op == ast.BinAdd || d.Op == ast.BinSub):
		expr.Type = lt
		return true
	}

	a.err(diag.SemaInvalidOperator, expr.Span,
		"invalid operands '"+lt.String()+"' and '"+rt.String()+
			"' for operator '"+d.Op.String()+"'")
	return false
}

func (a *Analyzer) comparison(id ast.ExprID, d *ast.ExprBinaryData, lt, rt types.TypeInfo) bool {
	expr := a.b.Exprs.Get(id)
	equality := d.Op == ast.BinEq || d.Op == ast.BinNe

	if lt.IsMatrix() || rt.IsMatrix() {
		a.err(diag.SemaInvalidOperator, expr.Span, "matrices cannot be compared")
		return false
	}
	if lt.Kind() == types.KindBool || rt.Kind() == types.KindBool {
		if !equality || lt != rt {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"invalid operands '"+lt.String()+"' and '"+rt.String()+
					"' for operator '"+d.Op.String()+"'")
			return false
		}
		expr.Type = types.Make(types.KindBool, lt.Lanes())
		return true
	}
	u, ok := types.Promote(lt, rt)
	if !ok {
		a.err(diag.SemaTypeMismatch, expr.Span,
			"mismatched shapes '"+lt.String()+"' and '"+rt.String()+"'")
		return false
	}
	return a.finishBinary(id, d, u, types.Make(types.KindBool, u.Lanes()))
}

// finishBinary coerces both operands to the unified type and sets the
// result type.
func (a *Analyzer) finishBinary(id ast.ExprID, d *ast.ExprBinaryData, operand, result types.TypeInfo) bool {
	left, ok := a.coerce(d.Left, operand, diag.SemaTypeMismatch)
	if !ok {
		return false
	}
	right, ok := a.coerce(d.Right, operand, diag.SemaTypeMismatch)
	if !ok {
		return false
	}
	d.Left = left
	d.Right = right
	a.b.Exprs.Get(id).Type = result
	return true
}

// assign types plain and compound assignment. The stored value always
// has the exact type of the target; compound operands are converted
// before the operation when the result would widen.
func (a *Analyzer) assign(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Binary(id)
	if !a.lvalue(d.Left) {
		return false
	}
	target := a.b.Exprs.Get(d.Left).Type.Unqualified()
	rt := a.b.Exprs.Get(d.Right).Type.Unqualified()

	base := d.Op.Base()
	switch {
	case d.Op == ast.BinAssign:
	case base.IsBitwise() || base == ast.BinMod:
		if target.Kind() != types.KindInt || rt.Kind() != types.KindInt {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '"+d.Op.String()+"' requires int operands, got '"+
					target.String()+"' and '"+rt.String()+"'")
			return false
		}
	default:
		if target.IsMatrix() || rt.IsMatrix() {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"compound assignment is not defined for matrices")
			return false
		}
		if !target.IsNumeric() {
			a.err(diag.SemaInvalidOperator, expr.Span,
				"operator '"+d.Op.String()+"' requires numeric operands")
			return false
		}
	}

	right, ok := a.coerce(d.Right, target, diag.SemaTypeMismatch)
	if !ok {
		return false
	}
	d.Right = right
	expr.Type = target
	return true
}

func (a *Analyzer) ternary(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Ternary(id)
	if !a.expr(d.Cond) || !a.boolCond(d.Cond) {
		return false
	}
	if !a.expr(d.Then) || !a.expr(d.Else) {
		return false
	}
	tt := a.b.Exprs.Get(d.Then).Type.Unqualified()
	et := a.b.Exprs.Get(d.Else).Type.Unqualified()
	u := tt
	if tt != et {
		var ok bool
		u, ok = types.Promote(tt, et)
		if !ok {
			a.err(diag.SemaTypeMismatch, expr.Span,
				"ternary branches have incompatible types '"+tt.String()+"' and '"+et.String()+"'")
			return false
		}
	}
	then, ok := a.coerce(d.Then, u, diag.SemaTypeMismatch)
	if !ok {
		return false
	}
	els, ok := a.coerce(d.Else, u, diag.SemaTypeMismatch)
	if !ok {
		return false
	}
	d.Then = then
	d.Else = els
	expr.Type = u
	return true
}

func (a *Analyzer) index(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Index(id)
	if !a.expr(d.Value) || !a.expr(d.Index) {
		return false
	}
	it := a.b.Exprs.Get(d.Index).Type.Unqualified()
	if it != types.Make(types.KindInt, 1) {
		a.err(diag.SemaTypeMismatch, a.b.Exprs.Get(d.Index).Span,
			"index must be 'int', got '"+it.String()+"'")
		return false
	}
	vt := a.b.Exprs.Get(d.Value).Type
	quals := vt & (types.QualRef | types.QualConst)
	switch {
	case vt.IsMatrix():
		expr.Type = vt.Row() | quals
	case vt.Unqualified().IsVector():
		expr.Type = vt.Elem() | quals
	default:
		a.err(diag.SemaInvalidOperator, expr.Span,
			"type '"+vt.Unqualified().String()+"' cannot be indexed")
		return false
	}
	return true
}
