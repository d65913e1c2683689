package ir

import (
	"strings"
	"testing"

	"mpsl/internal/ast"
	"mpsl/internal/astopt"
	"mpsl/internal/diag"
	"mpsl/internal/parser"
	"mpsl/internal/sema"
	"mpsl/internal/source"
	"mpsl/internal/types"
)

func lowerSrc(t *testing.T, src string, objects []sema.Object) *Fn {
	t.Helper()
	b := ast.NewBuilder()
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	if !parser.Parse(source.NewBuffer([]byte(src)), b, rep) {
		d, _ := bag.FirstError()
		t.Fatalf("parse failed: %s", d.Message)
	}
	if _, ok := sema.Analyze(b, objects, rep); !ok {
		d, _ := bag.FirstError()
		t.Fatalf("analyze failed: %s", d.Message)
	}
	if !astopt.Optimize(b, rep) {
		d, _ := bag.FirstError()
		t.Fatalf("optimize failed: %s", d.Message)
	}
	fn := Lower(b, len(objects), nil)
	if err := Validate(fn); err != nil {
		t.Fatalf("invalid IR:\n%v\n%s", err, DumpString(fn))
	}
	return fn
}

func countOp(fn *Fn, op Op) int {
	n := 0
	for i := range fn.Blocks {
		for j := range fn.Blocks[i].Instrs {
			if fn.Blocks[i].Instrs[j].Op == op {
				n++
			}
		}
	}
	return n
}

func countTerm(fn *Fn, kind TermKind) int {
	n := 0
	for i := range fn.Blocks {
		if fn.Blocks[i].Term.Kind == kind {
			n++
		}
	}
	return n
}

func TestLowerStraightLine(t *testing.T) {
	fn := lowerSrc(t, "float main() { float x = 1.5f; return x * x; }", nil)
	if countTerm(fn, TermReturn) != 1 {
		t.Fatalf("expected one return, got %d", countTerm(fn, TermReturn))
	}
	if countOp(fn, OpMul) != 1 {
		t.Fatalf("expected one mul, got %d", countOp(fn, OpMul))
	}
	if got := countOp(fn, OpStoreVar); got != 1 {
		t.Fatalf("expected one local store, got %d", got)
	}
	out := DumpString(fn)
	if !strings.Contains(out, "fn main") || !strings.Contains(out, "return") {
		t.Fatalf("dump missing header or terminator:\n%s", out)
	}
}

func TestLowerBranchJoin(t *testing.T) {
	fn := lowerSrc(t, `
		int main(int n) {
			int r = 0;
			if (n > 3) { r = 1; } else { r = 2; }
			return r;
		}`, nil)
	if countTerm(fn, TermIf) != 1 {
		t.Fatalf("expected one conditional branch, got %d", countTerm(fn, TermIf))
	}
	if len(fn.Blocks) < 4 {
		t.Fatalf("expected entry, both arms and a join, got %d blocks", len(fn.Blocks))
	}
}

func TestLowerWhileBackEdge(t *testing.T) {
	fn := lowerSrc(t, `
		int main(int n) {
			int s = 0;
			while (n > 0) { s = s + n; n = n - 1; }
			return s;
		}`, nil)
	back := 0
	for i := range fn.Blocks {
		term := &fn.Blocks[i].Term
		if term.Kind == TermGoto && term.Then <= fn.Blocks[i].ID {
			back++
		}
	}
	if back == 0 {
		t.Fatalf("expected a loop back edge:\n%s", DumpString(fn))
	}
}

func TestLowerInlinesUserCall(t *testing.T) {
	fn := lowerSrc(t, `
		float square(float x) { return x * x; }
		float main() { float a = 3.0f; return square(a) + square(2.0f); }`, nil)
	// both call sites splice the body, so the multiply appears twice
	if got := countOp(fn, OpMul); got != 2 {
		t.Fatalf("expected two inlined multiplies, got %d:\n%s", got, DumpString(fn))
	}
	if countTerm(fn, TermReturn) != 1 {
		t.Fatal("inlined returns must not leave the outer function")
	}
}

func TestLowerShortCircuit(t *testing.T) {
	fn := lowerSrc(t, `
		int main(int a) {
			bool ok = a > 0 && a < 10;
			return ok ? 1 : 0;
		}`, nil)
	// one branch for &&, one for the ternary
	if got := countTerm(fn, TermIf); got != 2 {
		t.Fatalf("expected two conditional branches, got %d:\n%s", got, DumpString(fn))
	}
}

func TestLowerMatrixVectorProduct(t *testing.T) {
	fn := lowerSrc(t, `
		float2 main() {
			float2x2 m = float2x2(1.0f, 2.0f, 3.0f, 4.0f);
			float2 v = float2(1.0f, 1.0f);
			return m * v;
		}`, nil)
	if got := countOp(fn, OpDot); got != 2 {
		t.Fatalf("expected one dot per result lane, got %d", got)
	}
}

func TestLowerSwizzleStore(t *testing.T) {
	fn := lowerSrc(t, `
		float4 main() {
			float4 v = float4(0.0f, 0.0f, 0.0f, 0.0f);
			v.xy = float2(1.0f, 2.0f);
			return v;
		}`, nil)
	if countOp(fn, OpBlend) != 1 {
		t.Fatalf("expected a blend for the partial store:\n%s", DumpString(fn))
	}
}

func TestLowerMemberAccess(t *testing.T) {
	objects := []sema.Object{{
		Name: "input",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "color", Type: types.Make(types.KindFloat, 4), Offset: 0},
			{Name: "alpha", Type: types.Make(types.KindFloat, 1), Offset: 16},
		},
	}, {
		Name: "output",
		Slot: 1,
		Members: []sema.ObjectMember{
			{Name: "color", Type: types.Make(types.KindFloat, 4), Offset: 0},
		},
	}}
	fn := lowerSrc(t, `
		void main() {
			output.color = input.color * input.alpha;
		}`, objects)
	if countOp(fn, OpArgPtr) < 2 {
		t.Fatal("expected pointers for both argument objects")
	}
	if countOp(fn, OpLoad) != 2 || countOp(fn, OpStore) != 1 {
		t.Fatalf("expected two loads and one store:\n%s", DumpString(fn))
	}
}

func TestPoolInterning(t *testing.T) {
	p := NewPool()
	var v ast.Value
	v.SetFloat(0, 1.5)
	v.SetFloat(1, 2.5)
	a := p.InternValue(v, types.KindFloat, 2)
	b := p.InternValue(v, types.KindFloat, 2)
	if a != b {
		t.Fatalf("identical constants interned to c%d and c%d", a, b)
	}
	if p.Len() != 1 {
		t.Fatalf("pool holds %d entries, want 1", p.Len())
	}
}

func TestPoolBoolMask(t *testing.T) {
	p := NewPool()
	var v ast.Value
	v.SetBool(0, true)
	v.SetBool(1, false)
	id := p.InternValue(v, types.KindBool, 2)
	e := p.Get(id)
	want := [8]byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}
	if e.Size != 8 || [8]byte(e.Data[:8]) != want {
		t.Fatalf("bool lanes = % x, want full masks", e.Data[:e.Size])
	}
}

func TestPoolCompact(t *testing.T) {
	fn := NewFn("main", types.Void, 0)
	bb := fn.NewBlock()
	fn.Entry = bb

	var a, b ast.Value
	a.SetInt(0, 7)
	b.SetInt(0, 9)
	fn.Pool.InternValue(a, types.KindInt, 1) // unused
	used := fn.Pool.InternValue(b, types.KindInt, 1)

	dst := fn.NewVReg(types.KindInt, 1)
	fn.Block(bb).Push(Instr{Op: OpConst, Dst: dst, Extra: uint32(used)})
	fn.Block(bb).Term = Return(dst)

	fn.Pool.Compact(fn)
	if fn.Pool.Len() != 1 {
		t.Fatalf("pool holds %d entries after compaction, want 1", fn.Pool.Len())
	}
	in := fn.Block(bb).Instrs[0]
	e := fn.Pool.Get(PoolID(in.Extra))
	if e.Data[0] != 9 {
		t.Fatalf("remapped constant reads % x, want 09", e.Data[:4])
	}
}

func TestLivenessLinearRanges(t *testing.T) {
	fn := NewFn("main", types.Make(types.KindInt, 1), 0)
	bb := fn.NewBlock()
	fn.Entry = bb

	var c ast.Value
	c.SetInt(0, 5)
	id := fn.Pool.InternValue(c, types.KindInt, 1)
	v1 := fn.NewVReg(types.KindInt, 1)
	v2 := fn.NewVReg(types.KindInt, 1)
	fn.Block(bb).Push(Instr{Op: OpConst, Dst: v1, Extra: uint32(id)})
	fn.Block(bb).Push(Instr{Op: OpNeg, Dst: v2, A: v1})
	fn.Block(bb).Term = Return(v2)

	iv := Liveness(fn)
	if len(iv) != 2 {
		t.Fatalf("got %d intervals, want 2", len(iv))
	}
	if iv[0].Reg != v1 || iv[0].Start != 0 || iv[0].End != 1 {
		t.Fatalf("v1 interval = %+v", iv[0])
	}
	if iv[1].Reg != v2 || iv[1].Start != 1 || iv[1].End != 2 {
		t.Fatalf("v2 interval = %+v", iv[1])
	}
}

func TestFinalizeWidensVectors(t *testing.T) {
	fn := NewFn("main", types.Void, 0)
	bb := fn.NewBlock()
	fn.Entry = bb
	fn.Block(bb).Term = Return(NoVReg)

	narrow := fn.NewVReg(types.KindFloat, 2)
	scalar := fn.NewVReg(types.KindFloat, 1)
	if fn.VReg(narrow).Width != W64 {
		t.Fatalf("float2 starts at %s", fn.VReg(narrow).Width)
	}
	Finalize(fn)
	if fn.VReg(narrow).Width != W128 {
		t.Fatalf("float2 widened to %s, want b128", fn.VReg(narrow).Width)
	}
	if fn.VReg(scalar).Width != W32 {
		t.Fatalf("scalar widened to %s", fn.VReg(scalar).Width)
	}
}

func TestValidateCatchesBadIR(t *testing.T) {
	fn := NewFn("main", types.Void, 0)
	bb := fn.NewBlock()
	fn.Entry = bb
	v := fn.NewVReg(types.KindInt, 1)
	fn.Block(bb).Push(Instr{Op: OpNeg, Dst: v, A: v}) // use before def
	if err := Validate(fn); err == nil {
		t.Fatal("expected validation errors")
	}
}
