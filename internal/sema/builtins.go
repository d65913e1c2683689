package sema

import (
	"math"

	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/source"
	"mpsl/internal/types"
)

// builtinConst pairs a root-scope constant with its value.
type builtinConst struct {
	name string
	typ  types.TypeInfo
	val  ast.Value
}

func builtinConstants() []builtinConst {
	intT := types.Make(types.KindInt, 1)
	fltT := types.Make(types.KindFloat, 1)
	dblT := types.Make(types.KindDouble, 1)
	return []builtinConst{
		{"PI", dblT, ast.ScalarDouble(math.Pi)},
		{"E", dblT, ast.ScalarDouble(math.E)},
		{"INFINITY", dblT, ast.ScalarDouble(math.Inf(1))},
		{"NAN", dblT, ast.ScalarDouble(math.NaN())},
		{"INT_MIN", intT, ast.ScalarInt(math.MinInt32)},
		{"INT_MAX", intT, ast.ScalarInt(math.MaxInt32)},
		{"FLT_EPSILON", fltT, ast.ScalarFloat(0x1p-23)},
		{"DBL_EPSILON", dblT, ast.ScalarDouble(0x1p-52)},
	}
}

// installBuiltins fills the root scope with constants, intrinsics and the
// caller's argument objects. An object whose name collides with another
// root symbol aborts installation.
func (a *Analyzer) installBuiltins(objects []Object) bool {
	for _, c := range builtinConstants() {
		a.scopes.declareRoot(Symbol{
			Name:  a.b.Strings.Intern(c.name),
			Kind:  SymConstant,
			Type:  c.typ.WithConst(),
			Const: c.val,
		})
	}
	for _, in := range ast.Intrinsics() {
		a.scopes.declareRoot(Symbol{
			Name: a.b.Strings.Intern(in.String()),
			Kind: SymIntrinsic,
			Intr: in,
		})
	}
	for i := range objects {
		o := &objects[i]
		ok := a.scopes.declareRoot(Symbol{
			Name: a.b.Strings.Intern(o.Name),
			Kind: SymObject,
			Type: types.Object(o.Slot),
			Slot: o.Slot,
		})
		if !ok {
			a.err(diag.SemaSymbolCollision, source.Span{},
				"argument object '"+o.Name+"' collides with a built-in symbol")
			return false
		}
	}
	a.objects = objects
	return true
}
