package sema

import (
	"strconv"

	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/types"
)

// call types a named call. The name decides what the node really is: a
// builtin type name makes it a constructor or cast, an intrinsic name a
// builtin operation, anything else a user function call.
func (a *Analyzer) call(id ast.ExprID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Call(id)
	name := a.b.Name(d.Name)

	if t, isType := a.typeNames[name]; isType {
		return a.constructor(id, t)
	}

	sym, found := a.scopes.lookup(d.Name)
	if !found {
		a.err(diag.SemaSymbolNotFound, expr.Span, "symbol '"+name+"' not found")
		return false
	}
	switch sym.Kind {
	case SymIntrinsic:
		return a.intrinsicCall(id, sym.Intr)
	case SymFunction:
		return a.functionCall(id, sym.Func)
	default:
		a.err(diag.SemaInvalidOperator, expr.Span,
			"'"+name+"' is a "+sym.Kind.String()+", not a function")
		return false
	}
}

// constructor handles `type(args)`. A single argument is an explicit
// cast; multiple arguments build the value component by component.
func (a *Analyzer) constructor(id ast.ExprID, t types.TypeInfo) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Call(id)

	if t.SameShape(types.Void) {
		a.err(diag.SemaBadConstructorCall, expr.Span, "cannot construct 'void'")
		return false
	}
	for _, arg := range d.Args {
		if !a.expr(arg) {
			return false
		}
	}

	if len(d.Args) == 1 {
		arg := d.Args[0]
		from := a.b.Exprs.Get(arg).Type.Unqualified()
		if !types.CanExplicitCast(from, t) {
			a.err(diag.SemaInvalidCast, expr.Span,
				"cannot cast '"+from.String()+"' to '"+t.String()+"'")
			return false
		}
		expr.Kind = ast.ExprCast
		expr.Payload = ast.PayloadID(a.b.Exprs.Casts.Allocate(ast.ExprCastData{Value: arg}))
		expr.Type = t
		return true
	}

	need := t.Lanes()
	if t.IsMatrix() {
		need = t.Rows() * t.Cols()
	}
	elem := t.Elem()

	var total uint32
	args := make([]ast.ExprID, 0, len(d.Args))
	for _, arg := range d.Args {
		at := a.b.Exprs.Get(arg).Type.Unqualified()
		if at.IsMatrix() || at.Kind() == types.KindVoid || at.IsObject() ||
			(t.IsMatrix() && !at.IsScalar()) {
			a.err(diag.SemaBadConstructorCall, a.b.Exprs.Get(arg).Span,
				"'"+at.String()+"' cannot be a constructor component")
			return false
		}
		want := types.Make(elem.Kind(), at.Lanes())
		if at != want {
			if !types.CanExplicitCast(at, want) {
				a.err(diag.SemaInvalidCast, a.b.Exprs.Get(arg).Span,
					"cannot convert constructor component '"+at.String()+"' to '"+want.String()+"'")
				return false
			}
			arg = a.insertCast(arg, want)
		}
		args = append(args, arg)
		total += at.Lanes()
	}
	if total != need {
		a.err(diag.SemaBadConstructorCall, expr.Span,
			"'"+t.String()+"' constructor needs "+itoa(need)+" components, got "+itoa(total))
		return false
	}

	expr.Kind = ast.ExprCtor
	expr.Payload = ast.PayloadID(a.b.Exprs.Ctors.Allocate(ast.ExprCtorData{Args: args}))
	expr.Type = t
	return true
}

func (a *Analyzer) intrinsicCall(id ast.ExprID, in ast.Intrinsic) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Call(id)

	if len(d.Args) != in.ArgCount() {
		a.err(diag.SemaBadIntrinsicCall, expr.Span,
			"'"+in.String()+"' takes "+itoa(uint32(in.ArgCount()))+
				" arguments, got "+itoa(uint32(len(d.Args))))
		return false
	}

	u := types.Invalid
	for _, arg := range d.Args {
		if !a.expr(arg) {
			return false
		}
		at := a.b.Exprs.Get(arg).Type.Unqualified()
		if at.IsMatrix() || !at.IsNumeric() {
			a.err(diag.SemaBadIntrinsicCall, a.b.Exprs.Get(arg).Span,
				"'"+in.String()+"' does not accept '"+at.String()+"'")
			return false
		}
		if u == types.Invalid {
			u = at
			continue
		}
		next, ok := types.Promote(u, at)
		if !ok {
			a.err(diag.SemaTypeMismatch, expr.Span,
				"'"+in.String()+"' arguments have incompatible shapes")
			return false
		}
		u = next
	}

	if in.FloatOnly() && !u.Kind().IsFP() {
		// integer operands widen to float rather than erroring out
		u = types.Make(types.KindFloat, u.Lanes())
	}
	for i, arg := range d.Args {
		coerced, ok := a.coerce(arg, u, diag.SemaTypeMismatch)
		if !ok {
			return false
		}
		d.Args[i] = coerced
	}

	switch in {
	case ast.IntrDot:
		expr.Type = u.Elem()
	case ast.IntrIsNan, ast.IntrIsInf, ast.IntrIsFinite:
		expr.Type = types.Make(types.KindBool, u.Lanes())
	default:
		expr.Type = u
	}
	d.Intrinsic = in
	return true
}

func (a *Analyzer) functionCall(id ast.ExprID, fnID ast.FuncID) bool {
	expr := a.b.Exprs.Get(id)
	d, _ := a.b.Exprs.Call(id)
	fn := a.b.Funcs.Get(fnID)

	if fnID == a.fn {
		a.err(diag.SemaRecursionForbidden, expr.Span,
			"function '"+a.b.Name(fn.Name)+"' cannot call itself")
		return false
	}
	if len(d.Args) != len(fn.Params) {
		a.err(diag.SemaTypeMismatch, expr.Span,
			"'"+a.b.Name(fn.Name)+"' takes "+itoa(uint32(len(fn.Params)))+
				" arguments, got "+itoa(uint32(len(d.Args))))
		return false
	}
	for i, arg := range d.Args {
		if !a.expr(arg) {
			return false
		}
		coerced, ok := a.coerce(arg, fn.Params[i].Type, diag.SemaTypeMismatch)
		if !ok {
			return false
		}
		d.Args[i] = coerced
	}
	d.Func = fnID
	expr.Type = fn.Ret.Unqualified()
	return true
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
