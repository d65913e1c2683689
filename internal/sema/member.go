package sema

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/types"
)

// member resolves `value.name`: a layout field when the value is an
// argument object, a swizzle when the value is a vector or scalar.
func (a *Analyzer) member(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Member(id)
	if !a.expr(d.Value) {
		return false
	}
	vt := a.b.Exprs.Get(d.Value).Type
	name := a.b.Name(d.Name)

	if vt.IsObject() {
		obj := a.objectBySlot(vt.ObjectSlot())
		if obj == nil {
			a.err(diag.SemaMemberNotFound, expr.Span, "argument object is not bound")
			return false
		}
		m, found := obj.Member(name)
		if !found {
			a.err(diag.SemaMemberNotFound, expr.Span,
				"'"+obj.Name+"' has no member '"+name+"'")
			return false
		}
		d.Slot = obj.Slot
		d.Offset = m.Offset
		expr.Type = m.Type.WithRef()
		return true
	}

	ut := vt.Unqualified()
	if ut.IsMatrix() || ut.Kind() == types.KindVoid {
		a.err(diag.SemaMemberNotFound, expr.Span,
			"type '"+ut.String()+"' has no member '"+name+"'")
		return false
	}

	sel, count, ok := swizzleSelector(name)
	if !ok {
		a.err(diag.SemaMemberNotFound, expr.Span,
			"type '"+ut.String()+"' has no component '"+name+"'")
		return false
	}
	for i := uint8(0); i < count; i++ {
		if uint32(sel[i]) >= ut.Lanes() {
			a.err(diag.SemaSwizzleTooLong, expr.Span,
				"swizzle '"+name+"' reaches past the lanes of '"+ut.String()+"'")
			return false
		}
	}

	value := d.Value
	expr.Kind = ast.ExprSwizzle
	expr.Payload = ast.PayloadID(a.b.Exprs.Swizzles.Allocate(ast.ExprSwizzleData{
		Value: value,
		Sel:   sel,
		Count: count,
	}))

	result := types.Make(ut.Kind(), uint32(count))
	if !result.Valid() {
		a.err(diag.SemaSwizzleTooLong, expr.Span,
			"swizzle '"+name+"' does not form a vector type")
		return false
	}
	// a swizzle of an lvalue stays writable; duplicates are rejected at
	// the assignment site
	result |= vt & (types.QualRef | types.QualConst)
	expr.Type = result
	return true
}

func (a *Analyzer) objectBySlot(slot uint32) *Object {
	for i := range a.objects {
		if a.objects[i].Slot == slot {
			return &a.objects[i]
		}
	}
	return nil
}
