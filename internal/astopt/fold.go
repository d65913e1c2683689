package astopt

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/types"
)

// expr folds an expression tree bottom-up, rewriting foldable nodes
// into literals in place.
func (o *optimizer) expr(id ast.ExprID) {
	if !id.IsValid() || o.failed {
		return
	}
	switch o.b.Exprs.Get(id).Kind {
	case ast.ExprIdent, ast.ExprLit:
	case ast.ExprUnary:
		o.unary(id)
	case ast.ExprBinary:
		o.binary(id)
	case ast.ExprTernary:
		o.ternary(id)
	case ast.ExprCall:
		o.call(id)
	case ast.ExprCast:
		o.cast(id)
	case ast.ExprCtor:
		o.ctor(id)
	case ast.ExprSwizzle:
		o.swizzle(id)
	case ast.ExprMember:
		d, _ := o.b.Exprs.Member(id)
		o.expr(d.Value)
	case ast.ExprIndex:
		d, _ := o.b.Exprs.Index(id)
		o.expr(d.Value)
		o.expr(d.Index)
	}
}

func (o *optimizer) toLiteral(id ast.ExprID, val ast.Value) {
	e := o.b.Exprs.Get(id)
	e.Kind = ast.ExprLit
	e.Payload = ast.PayloadID(o.b.Exprs.Literals.Allocate(ast.ExprLiteralData{Val: val}))
}

// replace turns the node into a copy of another node's header. The
// result type of the two must already agree.
func (o *optimizer) replace(id, src ast.ExprID) {
	sp := o.b.Exprs.Get(id).Span
	*o.b.Exprs.Get(id) = *o.b.Exprs.Get(src)
	o.b.Exprs.Get(id).Span = sp
}

func (o *optimizer) unary(id ast.ExprID) {
	d, _ := o.b.Exprs.Unary(id)
	o.expr(d.Operand)
	lit, ok := o.b.Exprs.Literal(d.Operand)
	if !ok {
		return
	}
	t := o.b.Exprs.Get(d.Operand).Type.Unqualified()
	if v, folded := ast.FoldUnary(d.Op, t.Kind(), t.Lanes(), lit.Val); folded {
		o.toLiteral(id, v)
	}
}

func (o *optimizer) binary(id ast.ExprID) {
	d, _ := o.b.Exprs.Binary(id)
	o.expr(d.Left)
	o.expr(d.Right)
	if o.failed {
		return
	}

	lt := o.b.Exprs.Get(d.Left).Type.Unqualified()
	kind, lanes := lt.Kind(), lt.Lanes()

	if base := d.Op.Base(); kind == types.KindInt && (base == ast.BinDiv || base == ast.BinMod) {
		if lit, ok := o.b.Exprs.Literal(d.Right); ok {
			for i := uint32(0); i < lanes; i++ {
				if lit.Val.Int(i) == 0 {
					o.err(diag.SemaDivisionByZero, o.b.Exprs.Get(id).Span,
						"division by constant zero")
					return
				}
			}
		}
	}
	if d.Op.IsAssign() {
		return
	}

	llit, lok := o.b.Exprs.Literal(d.Left)
	rlit, rok := o.b.Exprs.Literal(d.Right)

	if d.Op.IsLogical() && lok && !rok {
		// a literal left side decides the short circuit on its own
		if (d.Op == ast.BinLogAnd) == llit.Val.Bool(0) {
			o.replace(id, d.Right)
		} else {
			o.toLiteral(id, llit.Val)
		}
		return
	}

	if lok && rok {
		if v, folded := ast.FoldBinary(d.Op, kind, lanes, llit.Val, rlit.Val); folded {
			o.toLiteral(id, v)
		}
		return
	}

	// identities are integer-only: dropping a float term would change
	// NaN and signed-zero results
	if kind != types.KindInt {
		return
	}
	switch d.Op {
	case ast.BinAdd:
		if rok && allIntLanes(rlit.Val, lanes, 0) {
			o.replace(id, d.Left)
		} else if lok && allIntLanes(llit.Val, lanes, 0) {
			o.replace(id, d.Right)
		}
	case ast.BinSub, ast.BinOr, ast.BinXor, ast.BinShl, ast.BinShr:
		if rok && allIntLanes(rlit.Val, lanes, 0) {
			o.replace(id, d.Left)
		}
	case ast.BinMul:
		if rok && allIntLanes(rlit.Val, lanes, 1) {
			o.replace(id, d.Left)
		} else if lok && allIntLanes(llit.Val, lanes, 1) {
			o.replace(id, d.Right)
		}
	}
}

func allIntLanes(v ast.Value, lanes uint32, want int32) bool {
	for i := uint32(0); i < lanes; i++ {
		if v.Int(i) != want {
			return false
		}
	}
	return true
}

func (o *optimizer) ternary(id ast.ExprID) {
	d, _ := o.b.Exprs.Ternary(id)
	o.expr(d.Cond)
	if lit, ok := o.b.Exprs.Literal(d.Cond); ok {
		branch := d.Then
		if !lit.Val.Bool(0) {
			branch = d.Else
		}
		o.expr(branch)
		o.replace(id, branch)
		return
	}
	o.expr(d.Then)
	o.expr(d.Else)
}

func (o *optimizer) call(id ast.ExprID) {
	d, _ := o.b.Exprs.Call(id)
	for _, arg := range d.Args {
		o.expr(arg)
	}
	if o.failed || d.Intrinsic == ast.NoIntrinsic {
		// user calls never fold: the callee may write argument objects
		return
	}
	vals := make([]ast.Value, len(d.Args))
	for i, arg := range d.Args {
		lit, ok := o.b.Exprs.Literal(arg)
		if !ok {
			return
		}
		vals[i] = lit.Val
	}
	u := o.b.Exprs.Get(d.Args[0]).Type.Unqualified()
	if v, folded := ast.FoldIntrinsic(d.Intrinsic, u.Kind(), u.Lanes(), vals); folded {
		o.toLiteral(id, v)
	}
}

func (o *optimizer) cast(id ast.ExprID) {
	d, _ := o.b.Exprs.Cast(id)
	o.expr(d.Value)
	lit, ok := o.b.Exprs.Literal(d.Value)
	if !ok {
		return
	}
	from := o.b.Exprs.Get(d.Value).Type.Unqualified()
	to := o.b.Exprs.Get(id).Type.Unqualified()
	if to.IsMatrix() {
		// matrix lane counts exceed constant storage
		return
	}
	o.toLiteral(id, ast.FoldCast(from, to, lit.Val))
}

func (o *optimizer) ctor(id ast.ExprID) {
	d, _ := o.b.Exprs.Ctor(id)
	for _, arg := range d.Args {
		o.expr(arg)
	}
	t := o.b.Exprs.Get(id).Type.Unqualified()
	if t.IsMatrix() {
		return
	}
	var v ast.Value
	n := uint32(0)
	for _, arg := range d.Args {
		lit, ok := o.b.Exprs.Literal(arg)
		if !ok {
			return
		}
		al := o.b.Exprs.Get(arg).Type.Unqualified().Lanes()
		for j := uint32(0); j < al; j++ {
			v.Lanes[n] = lit.Val.Lanes[j]
			n++
		}
	}
	o.toLiteral(id, v)
}

func (o *optimizer) swizzle(id ast.ExprID) {
	d, _ := o.b.Exprs.Swizzle(id)
	o.expr(d.Value)
	lit, ok := o.b.Exprs.Literal(d.Value)
	if !ok {
		return
	}
	var v ast.Value
	for i := uint8(0); i < d.Count; i++ {
		v.Lanes[i] = lit.Val.Lanes[d.Sel[i]]
	}
	o.toLiteral(id, v)
}
