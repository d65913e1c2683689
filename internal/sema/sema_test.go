package sema

import (
	"testing"

	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/parser"
	"mpsl/internal/source"
	"mpsl/internal/types"
)

func testObjects() []Object {
	f1 := types.Make(types.KindFloat, 1)
	f4 := types.Make(types.KindFloat, 4)
	i1 := types.Make(types.KindInt, 1)
	return []Object{
		{
			Name: "in",
			Slot: 0,
			Members: []ObjectMember{
				{Name: "pos", Type: f4, Offset: 0},
				{Name: "t", Type: f1, Offset: 16},
				{Name: "count", Type: i1, Offset: 20},
			},
		},
		{
			Name: "out",
			Slot: 1,
			Members: []ObjectMember{
				{Name: "color", Type: f4, Offset: 0},
			},
		},
	}
}

func analyzeSrc(t *testing.T, src string, objects []Object) (*ast.Builder, *Info, *diag.Bag, bool) {
	t.Helper()
	b := ast.NewBuilder()
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	if !parser.Parse(source.NewBuffer([]byte(src)), b, rep) {
		d, _ := bag.FirstError()
		t.Fatalf("parse failed: %s", d.Message)
	}
	info, ok := Analyze(b, objects, rep)
	return b, info, bag, ok
}

func TestAnalyzeAccepts(t *testing.T) {
	sources := []string{
		"void main() {}",
		"int main() { int x = 1; return x; }",
		"float main() { float x = 1.5; return x + 1.0f; }",
		"double main() { return PI * 2.0; }",
		"int main() { return INT_MAX; }",
		"float main() { float4 v = float4(1, 2, 3, 4); return v.x + v.w; }",
		"float main() { float4 v = float4(0.5); return dot(v, v); }",
		"float main() { float2 a = float2(1, 2); float2 b = a.yx; return b.x; }",
		"float main() { float3x3 m = float3x3(1,0,0, 0,1,0, 0,0,1); return (m * float3(1,2,3)).x; }",
		"int main() { int n = 0; for (int i = 0; i < 4; ++i) n += i; return n; }",
		"bool main() { return isnan(0.0f / 0.0f); }",
		"float helper(float x) { return x * 2.0f; } float main() { return helper(21.0f); }",
		"float main() { float x = abs(-1); return clamp(x, 0.0f, 1.0f); }",
		"int main() { int a = 6; a <<= 1; a |= 1; return a % 5; }",
		"float main() { bool c = true; return c ? 1.0f : 0.0f; }",
		"float main() { float4 v = float4(1,2,3,4); v.xy = float2(0, 0); return v.x; }",
		"float main() { return 1.0 + 2.0 * 3.0; }",
		"float main() { return -(1.0 + 0.5); }",
		"float K = 2.0f; float main() { return K; }",
		"const float K = 2.0f; float main() { return K * K; }",
		"float K = 1; float main() { return K; }",
		"int N = 4; int main() { int s = 0; for (int i = 0; i < N; ++i) s += i; return s; }",
	}
	for _, src := range sources {
		if _, _, bag, ok := analyzeSrc(t, src, nil); !ok {
			d, _ := bag.FirstError()
			t.Errorf("analyze %q failed: %s", src, d.Message)
		}
	}
}

func TestAnalyzeObjects(t *testing.T) {
	src := "void main() { out.color = in.pos * in.t; }"
	b, _, bag, ok := analyzeSrc(t, src, testObjects())
	if !ok {
		d, _ := bag.FirstError()
		t.Fatalf("analyze failed: %s", d.Message)
	}

	fn := b.Funcs.Get(1)
	blk, _ := b.Stmts.Block(fn.Body)
	es, _ := b.Stmts.Expr(blk.Stmts[0])
	bin, _ := b.Exprs.Binary(es.Expr)
	left, okm := b.Exprs.Member(bin.Left)
	if !okm {
		t.Fatal("assignment target is not a member access")
	}
	if left.Slot != 1 || left.Offset != 0 {
		t.Errorf("out.color resolved to slot %d offset %d", left.Slot, left.Offset)
	}
	lt := b.Exprs.Get(bin.Left).Type
	if !lt.IsRef() {
		t.Error("member access lost its reference qualifier")
	}
	if lt.Unqualified() != types.Make(types.KindFloat, 4) {
		t.Errorf("out.color typed as %s", lt.Unqualified())
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{"void main() { x = 1; }", diag.SemaSymbolNotFound},
		{"void main() { nope(1); }", diag.SemaSymbolNotFound},
		{"void f() {}", diag.SemaNoMainFunction},
		{"void main() { int x; int x; }", diag.SemaSymbolRedefined},
		{"void main() {} void main() {}", diag.SemaSymbolRedefined},
		{"void main() { int x = 1.5; }", diag.SemaTypeMismatch},
		{"void main() { float x = 1.0; double y = x; float z = y; }", diag.SemaTypeMismatch},
		{"void main() { if (1) return; }", diag.SemaInvalidBoolContext},
		{"void main() { while (0.0f) return; }", diag.SemaInvalidBoolContext},
		{"void main() { const int k = 1; k = 2; }", diag.SemaAssignToConst},
		{"void main() { 1 = 2; }", diag.SemaNotLValue},
		{"void main() { int x; (x + 1)++; }", diag.SemaNotLValue},
		{"void main() { break; }", diag.SemaBreakOutsideLoop},
		{"void main() { continue; }", diag.SemaContinueOutsideLoop},
		{"int main() { return; }", diag.SemaReturnTypeMismatch},
		{"void main() { return 1; }", diag.SemaReturnTypeMismatch},
		{"int main() { return 1.0f; }", diag.SemaReturnTypeMismatch},
		{"void main() { float4 v = float4(1,2,3,4); float x = v.e + 1.0f; }", diag.SemaMemberNotFound},
		{"void main() { float2 v = float2(1,2); float x = v.z; }", diag.SemaSwizzleTooLong},
		{"void main() { float4 v = float4(1,2,3,4); v.xx = float2(0,0); }", diag.SemaSwizzleDuplicate},
		{"void main() { float x = abs(1.0f, 2.0f); }", diag.SemaBadIntrinsicCall},
		{"void main() { float x = dot(true, false); }", diag.SemaBadIntrinsicCall},
		{"void main() { float3 v = float3(1, 2); }", diag.SemaBadConstructorCall},
		{"void main() { float x = float(float2(1, 2)); }", diag.SemaInvalidCast},
		{"int main() { return main(); }", diag.SemaRecursionForbidden},
		{"int later() { return helper(); } int helper() { return 1; } int main() { return 0; }", diag.SemaSymbolNotFound},
		{"void main() { bool b = true && 1; }", diag.SemaInvalidOperator},
		{"void main() { float x = 1.0f % 2.0f; }", diag.SemaInvalidOperator},
		{"void main() { float2x2 m = float2x2(1,2,3,4); float2 v = m + float2(1,2); }", diag.SemaInvalidOperator},
		{"void main() { bool b = float2(1,2) < 1.0; if (b) return; }", diag.SemaTypeMismatch},
		{"void main() { int i = PI; }", diag.SemaTypeMismatch},
		{`float x = "oops";`, diag.SemaInvalidCast},
		{`void main() { float x = "oops"; }`, diag.SemaInvalidCast},
		{"float K = 1.0f; float K = 2.0f; void main() {}", diag.SemaSymbolRedefined},
		{"float K = 1.0f; void main() { float K = 2.0f; }", diag.SemaSymbolRedefined},
		{"float K = 1.0f + 2.0f; void main() {}", diag.SemaNonConstGlobal},
		{"float K = abs(-1.0f); void main() {}", diag.SemaNonConstGlobal},
		{"int K = 1.5; void main() {}", diag.SemaTypeMismatch},
		{"float K = 1.0f; void main() { K = 2.0f; }", diag.SemaAssignToConst},
	}
	for _, tt := range tests {
		_, _, bag, ok := analyzeSrc(t, tt.src, nil)
		if ok {
			t.Errorf("analyze %q unexpectedly succeeded", tt.src)
			continue
		}
		d, found := bag.FirstError()
		if !found {
			t.Errorf("analyze %q: no diagnostic", tt.src)
			continue
		}
		if d.Code != tt.code {
			t.Errorf("analyze %q: got %s, want %s", tt.src, d.Code, tt.code)
		}
	}
}

func TestImplicitCastInserted(t *testing.T) {
	b, _, _, ok := analyzeSrc(t, "void main() { float x = 1; }", nil)
	if !ok {
		t.Fatal("analyze failed")
	}
	fn := b.Funcs.Get(1)
	blk, _ := b.Stmts.Block(fn.Body)
	decl, _ := b.Stmts.VarDecl(blk.Stmts[0])
	if b.Exprs.Get(decl.Init).Kind != ast.ExprCast {
		t.Fatalf("int-to-float initializer did not get a cast node, kind %d",
			b.Exprs.Get(decl.Init).Kind)
	}
	if got := b.Exprs.Get(decl.Init).Type; got != types.Make(types.KindFloat, 1) {
		t.Errorf("cast typed as %s", got)
	}
}

func TestLiteralNarrowing(t *testing.T) {
	b, _, _, ok := analyzeSrc(t, "void main() { float x = 1.5; }", nil)
	if !ok {
		t.Fatal("analyze failed")
	}
	fn := b.Funcs.Get(1)
	blk, _ := b.Stmts.Block(fn.Body)
	decl, _ := b.Stmts.VarDecl(blk.Stmts[0])
	init := b.Exprs.Get(decl.Init)
	if init.Kind != ast.ExprLit {
		t.Fatal("exact double literal should narrow in place, not cast")
	}
	if init.Type != types.Make(types.KindFloat, 1) {
		t.Errorf("literal typed as %s", init.Type)
	}
	lit, _ := b.Exprs.Literal(decl.Init)
	if lit.Val.Float(0) != 1.5 {
		t.Errorf("narrowed value is %g", lit.Val.Float(0))
	}
}

func TestConstantIdentBecomesLiteral(t *testing.T) {
	b, _, _, ok := analyzeSrc(t, "double main() { return PI; }", nil)
	if !ok {
		t.Fatal("analyze failed")
	}
	fn := b.Funcs.Get(1)
	blk, _ := b.Stmts.Block(fn.Body)
	ret, _ := b.Stmts.Return(blk.Stmts[0])
	lit, okLit := b.Exprs.Literal(ret.Value)
	if !okLit {
		t.Fatal("PI did not fold to a literal")
	}
	if lit.Val.Double(0) < 3.14 || lit.Val.Double(0) > 3.15 {
		t.Errorf("PI folded to %g", lit.Val.Double(0))
	}
}

func TestConstantArithNarrows(t *testing.T) {
	b, _, _, ok := analyzeSrc(t, "float main() { return 1.0 + 2.0 * 3.0; }", nil)
	if !ok {
		t.Fatal("analyze failed")
	}
	fn := b.Funcs.Get(1)
	blk, _ := b.Stmts.Block(fn.Body)
	ret, _ := b.Stmts.Return(blk.Stmts[0])
	e := b.Exprs.Get(ret.Value)
	if e.Kind == ast.ExprCast {
		t.Fatal("constant double arithmetic should narrow in place, not cast")
	}
	if e.Type.Unqualified() != types.Make(types.KindFloat, 1) {
		t.Errorf("return expression typed as %s", e.Type)
	}
	bin, _ := b.Exprs.Binary(ret.Value)
	if got := b.Exprs.Get(bin.Left).Type.Unqualified(); got != types.Make(types.KindFloat, 1) {
		t.Errorf("left operand typed as %s", got)
	}
}

func TestGlobalConstantFolds(t *testing.T) {
	b, _, _, ok := analyzeSrc(t, "float K = 1; float main() { return K; }", nil)
	if !ok {
		t.Fatal("analyze failed")
	}
	fn := b.Funcs.Get(1)
	blk, _ := b.Stmts.Block(fn.Body)
	ret, _ := b.Stmts.Return(blk.Stmts[0])
	lit, okLit := b.Exprs.Literal(ret.Value)
	if !okLit {
		t.Fatal("global reference did not fold to a literal")
	}
	if lit.Val.Float(0) != 1.0 {
		t.Errorf("K folded to %g", lit.Val.Float(0))
	}
	if got := b.Exprs.Get(ret.Value).Type.Unqualified(); got != types.Make(types.KindFloat, 1) {
		t.Errorf("K typed as %s", got)
	}
}

func TestLocalSlots(t *testing.T) {
	src := "int main(int a, int b) { int x = a; { int y = b; return x + y; } }"
	_, info, _, ok := analyzeSrc(t, src, nil)
	if !ok {
		t.Fatal("analyze failed")
	}
	if got := info.Locals[0]; got != 4 {
		t.Errorf("expected 4 local slots (2 params + 2 vars), got %d", got)
	}
}

func TestReturnTarget(t *testing.T) {
	f1 := types.Make(types.KindFloat, 1)
	f4 := types.Make(types.KindFloat, 4)
	objects := []Object{
		{Name: "a", Slot: 0, Members: []ObjectMember{{Name: "x", Type: f1, Offset: 0}}},
		{Name: "b", Slot: 1, Members: []ObjectMember{
			{Name: "v", Type: f4, Offset: 0},
			{Name: "s", Type: f1, Offset: 16},
		}},
	}

	slot, off, ok := ReturnTarget(objects, f1)
	if !ok || slot != 1 || off != 16 {
		t.Errorf("float target = (%d, %d, %v), want (1, 16, true)", slot, off, ok)
	}
	slot, off, ok = ReturnTarget(objects, f4)
	if !ok || slot != 1 || off != 0 {
		t.Errorf("float4 target = (%d, %d, %v), want (1, 0, true)", slot, off, ok)
	}
	if _, _, ok := ReturnTarget(objects, types.Make(types.KindInt, 1)); ok {
		t.Error("int return found a target in float-only slots")
	}
	if _, _, ok := ReturnTarget(objects, types.Void); ok {
		t.Error("void return found a target")
	}
	if _, _, ok := ReturnTarget(nil, f1); ok {
		t.Error("empty layout found a target")
	}
}

func TestObjectCollision(t *testing.T) {
	objects := []Object{{Name: "PI", Slot: 0}}
	_, _, bag, ok := analyzeSrc(t, "void main() {}", objects)
	if ok {
		t.Fatal("colliding object name unexpectedly accepted")
	}
	d, _ := bag.FirstError()
	if d.Code != diag.SemaSymbolCollision {
		t.Errorf("got %s, want %s", d.Code, diag.SemaSymbolCollision)
	}
}
