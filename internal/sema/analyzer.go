package sema

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/source"
	"mpsl/internal/types"
)

// Info carries the analysis results the lowerer needs beyond the
// annotated tree.
type Info struct {
	// Locals holds the local slot count per function, indexed by
	// FuncID-1. Parameters occupy the first slots.
	Locals []uint32
}

// Analyzer — состояние семантического прохода. Первая ошибка завершает
// анализ, как и в парсере.
type Analyzer struct {
	b        *ast.Builder
	reporter diag.Reporter
	failed   bool

	scopes  *scopeStack
	objects []Object

	typeNames map[string]types.TypeInfo

	fn        ast.FuncID // function being analyzed
	nextSlot  uint32
	loopDepth int

	info Info
}

// Analyze resolves names, infers and checks types, and inserts implicit
// cast nodes across the whole tree. It returns the per-function results
// and false if any semantic error was reported.
func Analyze(b *ast.Builder, objects []Object, reporter diag.Reporter) (*Info, bool) {
	a := Analyzer{
		b:         b,
		reporter:  reporter,
		scopes:    newScopeStack(),
		typeNames: make(map[string]types.TypeInfo),
	}
	for _, n := range types.BuiltinNames() {
		a.typeNames[n.Name] = n.Type
	}
	if !a.installBuiltins(objects) {
		return nil, false
	}
	a.analyzeProgram()
	if a.failed {
		return nil, false
	}
	return &a.info, true
}

func (a *Analyzer) err(code diag.Code, sp source.Span, msg string) {
	if !a.failed {
		diag.ReportError(a.reporter, code, sp, msg)
		a.failed = true
	}
}

func (a *Analyzer) analyzeProgram() {
	count := a.b.Funcs.Arena.Len()
	a.info.Locals = make([]uint32, count)

	for _, g := range a.b.Globals {
		if !a.globalDecl(g) {
			return
		}
	}

	mainName := a.b.Strings.Intern("main")
	seenMain := false
	for i := uint32(1); i <= count; i++ {
		id := ast.FuncID(i)
		fn := a.b.Funcs.Get(id)
		if !a.declareFunc(id, fn) {
			return
		}
		if fn.Name == mainName {
			seenMain = true
		}
		if !a.analyzeFunc(id, fn) {
			return
		}
	}
	if !seenMain {
		a.err(diag.SemaNoMainFunction, source.Span{}, "program has no 'main' function")
	}
}

// declareFunc makes the function callable by the bodies that follow it.
// Definition order doubles as the call order, which is what rules out
// mutual recursion.
func (a *Analyzer) declareFunc(id ast.FuncID, fn *ast.Func) bool {
	ok := a.scopes.declare(Symbol{
		Name: fn.Name,
		Kind: SymFunction,
		Type: fn.Ret,
		Func: id,
	})
	if !ok {
		a.err(diag.SemaSymbolRedefined, fn.Span, "symbol '"+a.b.Name(fn.Name)+"' redefined")
		return false
	}
	return true
}

func (a *Analyzer) analyzeFunc(id ast.FuncID, fn *ast.Func) bool {
	a.fn = id
	a.nextSlot = 0
	a.loopDepth = 0

	a.scopes.push()
	defer a.scopes.pop()

	for _, p := range fn.Params {
		slot := a.nextSlot
		a.nextSlot++
		ok := a.scopes.declare(Symbol{
			Name:    p.Name,
			Kind:    SymVariable,
			Type:    p.Type,
			Binding: slot + 1,
		})
		if !ok {
			a.err(diag.SemaSymbolRedefined, p.Span, "parameter '"+a.b.Name(p.Name)+"' redefined")
			return false
		}
	}

	if !a.stmt(fn.Body) {
		return false
	}
	a.info.Locals[uint32(id)-1] = a.nextSlot
	return true
}

// globalDecl folds a top-level declaration into a named constant. The
// initializer must reduce to a literal once implicit conversions fold.
func (a *Analyzer) globalDecl(id ast.StmtID) bool {
	d, _ := a.b.Stmts.VarDecl(id)
	st := a.b.Stmts.Get(id)

	if !a.expr(d.Init) {
		return false
	}
	init, ok := a.coerce(d.Init, d.Type, diag.SemaTypeMismatch)
	if !ok {
		return false
	}
	d.Init = init

	val, ok := a.constValue(init)
	if !ok {
		a.err(diag.SemaNonConstGlobal, a.b.Exprs.Get(init).Span,
			"global initializer must be a constant expression")
		return false
	}
	if !a.scopes.declare(Symbol{
		Name:  d.Name,
		Kind:  SymConstant,
		Type:  d.Type.WithConst(),
		Const: val,
	}) {
		a.err(diag.SemaSymbolRedefined, st.Span, "symbol '"+a.b.Name(d.Name)+"' redefined")
		return false
	}
	return true
}

// constValue extracts the value of a literal, looking through one
// conversion inserted by coerce.
func (a *Analyzer) constValue(id ast.ExprID) (ast.Value, bool) {
	e := a.b.Exprs.Get(id)
	if e.Kind == ast.ExprCast {
		c, _ := a.b.Exprs.Cast(id)
		inner := a.b.Exprs.Get(c.Value)
		lit, ok := a.b.Exprs.Literal(c.Value)
		if !ok || e.Type.IsMatrix() {
			return ast.Value{}, false
		}
		return ast.FoldCast(inner.Type.Unqualified(), e.Type.Unqualified(), lit.Val), true
	}
	lit, ok := a.b.Exprs.Literal(id)
	if !ok {
		return ast.Value{}, false
	}
	return lit.Val, true
}

// coerce converts an expression to the wanted value type, inserting a
// cast node when an implicit conversion exists. Literal doubles narrow
// in-place when the value survives the round trip.
func (a *Analyzer) coerce(id ast.ExprID, want types.TypeInfo, code diag.Code) (ast.ExprID, bool) {
	want = want.Unqualified()
	have := a.b.Exprs.Get(id).Type.Unqualified()
	if have == want {
		return id, true
	}
	if a.narrowLiteral(id, want) {
		return id, true
	}
	if _, ok := types.ImplicitCastCost(have, want); !ok {
		a.err(code, a.b.Exprs.Get(id).Span,
			"cannot convert '"+have.String()+"' to '"+want.String()+"'")
		return ast.NoExprID, false
	}
	return a.insertCast(id, want), true
}

// insertCast wraps an expression in a conversion to the given value type.
func (a *Analyzer) insertCast(id ast.ExprID, to types.TypeInfo) ast.ExprID {
	span := a.b.Exprs.Get(id).Span
	cast := a.b.Exprs.NewCast(span, id)
	a.b.Exprs.Get(cast).Type = to.Unqualified()
	return cast
}

// narrowLiteral retypes a floating literal to a narrower float context
// when the value is exactly representable. Constant arithmetic over such
// literals narrows as a whole tree, so 1.0 + 2.0 * 3.0 fits a float
// context without an explicit cast.
func (a *Analyzer) narrowLiteral(id ast.ExprID, want types.TypeInfo) bool {
	if !want.IsScalar() || want.Kind() != types.KindFloat {
		return false
	}
	if !a.narrowable(id) {
		return false
	}
	a.narrow(id, want)
	return true
}

// narrowable — можно ли переписать дерево в float без потери значения.
// Только литералы и чистая арифметика над ними.
func (a *Analyzer) narrowable(id ast.ExprID) bool {
	e := a.b.Exprs.Get(id)
	if !e.Type.IsScalar() || e.Type.Kind() != types.KindDouble {
		return false
	}
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := a.b.Exprs.Literal(id)
		d := lit.Val.Double(0)
		f := float32(d)
		return float64(f) == d || d != d
	case ast.ExprUnary:
		u, _ := a.b.Exprs.Unary(id)
		if u.Op != ast.UnaryPlus && u.Op != ast.UnaryNeg {
			return false
		}
		return a.narrowable(u.Operand)
	case ast.ExprBinary:
		bin, _ := a.b.Exprs.Binary(id)
		switch bin.Op {
		case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinDiv:
		default:
			return false
		}
		return a.narrowable(bin.Left) && a.narrowable(bin.Right)
	}
	return false
}

func (a *Analyzer) narrow(id ast.ExprID, want types.TypeInfo) {
	e := a.b.Exprs.Get(id)
	e.Type = want
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := a.b.Exprs.Literal(id)
		lit.Val = ast.ScalarFloat(float32(lit.Val.Double(0)))
	case ast.ExprUnary:
		u, _ := a.b.Exprs.Unary(id)
		a.narrow(u.Operand, want)
	case ast.ExprBinary:
		bin, _ := a.b.Exprs.Binary(id)
		a.narrow(bin.Left, want)
		a.narrow(bin.Right, want)
	}
}

// boolCond checks a condition expression: the language has no
// int-as-bool, conditions are scalar bool, full stop.
func (a *Analyzer) boolCond(id ast.ExprID) bool {
	t := a.b.Exprs.Get(id).Type.Unqualified()
	if t.Kind() != types.KindBool || !t.IsScalar() {
		a.err(diag.SemaInvalidBoolContext, a.b.Exprs.Get(id).Span,
			"condition must be 'bool', got '"+t.String()+"'")
		return false
	}
	return true
}
