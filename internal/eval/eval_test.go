package eval

import (
	"math"
	"testing"
	"unsafe"

	"mpsl/internal/ast"
	"mpsl/internal/astopt"
	"mpsl/internal/diag"
	"mpsl/internal/parser"
	"mpsl/internal/sema"
	"mpsl/internal/source"
	"mpsl/internal/types"
)

func buildSrc(t *testing.T, src string, objects []sema.Object) *ast.Builder {
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
	return b
}

func runSrc(t *testing.T, src string, objects []sema.Object, args ...unsafe.Pointer) {
	t.Helper()
	b := buildSrc(t, src, objects)
	if err := Run(b, args, nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func f1() types.TypeInfo { return types.Make(types.KindFloat, 1) }
func i1() types.TypeInfo { return types.Make(types.KindInt, 1) }

func TestGuardedIntDivision(t *testing.T) {
	type rec struct{ a, b, q, r int32 }
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "a", Type: i1(), Offset: 0},
			{Name: "b", Type: i1(), Offset: 4},
			{Name: "q", Type: i1(), Offset: 8},
			{Name: "r", Type: i1(), Offset: 12},
		},
	}}
	src := "void main() { io.q = io.a / io.b; io.r = io.a % io.b; }"

	tests := []struct {
		a, b, q, r int32
	}{
		{10, 3, 3, 1},
		{-10, 3, -3, -1},
		{10, 0, 0, 0},
		{math.MinInt32, -1, math.MinInt32, 0},
	}
	for _, tt := range tests {
		v := rec{a: tt.a, b: tt.b}
		runSrc(t, src, objects, unsafe.Pointer(&v))
		if v.q != tt.q || v.r != tt.r {
			t.Errorf("%d div %d: got q=%d r=%d, want q=%d r=%d", tt.a, tt.b, v.q, v.r, tt.q, tt.r)
		}
	}
}

func TestVectorSwizzle(t *testing.T) {
	type rec struct {
		pos [4]float32
		col [4]float32
	}
	f4 := types.Make(types.KindFloat, 4)
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "pos", Type: f4, Offset: 0},
			{Name: "col", Type: f4, Offset: 16},
		},
	}}
	src := `void main() {
		float4 p = io.pos;
		p.xy = p.yx;
		io.col = p * 2.0f;
	}`

	v := rec{pos: [4]float32{1, 2, 3, 4}}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	want := [4]float32{4, 2, 6, 8}
	if v.col != want {
		t.Errorf("col = %v, want %v", v.col, want)
	}
}

func TestLoops(t *testing.T) {
	type rec struct{ n, sum, fact int32 }
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "n", Type: i1(), Offset: 0},
			{Name: "sum", Type: i1(), Offset: 4},
			{Name: "fact", Type: i1(), Offset: 8},
		},
	}}
	src := `void main() {
		int s = 0;
		for (int i = 1; i <= io.n; i++) {
			if (i == 3) continue;
			if (i > 100) break;
			s += i;
		}
		int f = 1;
		int j = io.n;
		while (j > 1) {
			f *= j;
			j--;
		}
		io.sum = s;
		io.fact = f;
	}`

	v := rec{n: 5}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.sum != 12 {
		t.Errorf("sum = %d, want 12", v.sum)
	}
	if v.fact != 120 {
		t.Errorf("fact = %d, want 120", v.fact)
	}
}

func TestDoWhileRunsOnce(t *testing.T) {
	type rec struct{ n, count int32 }
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "n", Type: i1(), Offset: 0},
			{Name: "count", Type: i1(), Offset: 4},
		},
	}}
	src := `void main() {
		int c = 0;
		do {
			c++;
		} while (c < io.n);
		io.count = c;
	}`

	v := rec{n: 0}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.count != 1 {
		t.Errorf("count = %d, want 1", v.count)
	}
}

func TestUserFunctionCall(t *testing.T) {
	type rec struct{ a, b, g int32 }
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "a", Type: i1(), Offset: 0},
			{Name: "b", Type: i1(), Offset: 4},
			{Name: "g", Type: i1(), Offset: 8},
		},
	}}
	src := `int gcd(int a, int b) {
		while (b != 0) {
			int t = a % b;
			a = b;
			b = t;
		}
		return a;
	}
	void main() { io.g = gcd(io.a, io.b); }`

	v := rec{a: 48, b: 18}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.g != 6 {
		t.Errorf("gcd(48, 18) = %d, want 6", v.g)
	}
}

func TestShortCircuitSideEffects(t *testing.T) {
	type rec struct{ flag, hits, and, or int32 }
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "flag", Type: i1(), Offset: 0},
			{Name: "hits", Type: i1(), Offset: 4},
			{Name: "and", Type: i1(), Offset: 8},
			{Name: "or", Type: i1(), Offset: 12},
		},
	}}
	src := `int bump() {
		io.hits = io.hits + 1;
		return 1;
	}
	void main() {
		io.and = io.flag != 0 && bump() > 0 ? 1 : 0;
		io.or = io.flag == 0 || bump() > 0 ? 1 : 0;
	}`

	v := rec{flag: 0}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.hits != 0 || v.and != 0 || v.or != 1 {
		t.Errorf("flag=0: hits=%d and=%d or=%d, want 0 0 1", v.hits, v.and, v.or)
	}

	v = rec{flag: 1}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.hits != 2 || v.and != 1 || v.or != 1 {
		t.Errorf("flag=1: hits=%d and=%d or=%d, want 2 1 1", v.hits, v.and, v.or)
	}
}

func TestMatrixVectorProduct(t *testing.T) {
	type rec struct {
		m   [2][2]float32
		v   [2]float32
		i   int32
		mv  [2]float32
		row [2]float32
	}
	m22 := types.MakeMatrix(types.KindFloat, 2, 2)
	f2 := types.Make(types.KindFloat, 2)
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "m", Type: m22, Offset: 0},
			{Name: "v", Type: f2, Offset: 16},
			{Name: "i", Type: i1(), Offset: 24},
			{Name: "mv", Type: f2, Offset: 28},
			{Name: "row", Type: f2, Offset: 36},
		},
	}}
	src := `void main() {
		io.mv = io.m * io.v;
		io.row = io.m[io.i];
	}`

	v := rec{m: [2][2]float32{{1, 2}, {3, 4}}, v: [2]float32{5, 6}, i: 1}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.mv != [2]float32{17, 39} {
		t.Errorf("m*v = %v, want [17 39]", v.mv)
	}
	if v.row != [2]float32{3, 4} {
		t.Errorf("m[1] = %v, want [3 4]", v.row)
	}

	// an index that matches no row reads row zero
	v = rec{m: [2][2]float32{{1, 2}, {3, 4}}, v: [2]float32{5, 6}, i: 7}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.row != [2]float32{1, 2} {
		t.Errorf("m[7] = %v, want [1 2]", v.row)
	}
}

func TestIntrinsics(t *testing.T) {
	type rec struct{ x, lo, hi, c, s, a float32 }
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "x", Type: f1(), Offset: 0},
			{Name: "lo", Type: f1(), Offset: 4},
			{Name: "hi", Type: f1(), Offset: 8},
			{Name: "c", Type: f1(), Offset: 12},
			{Name: "s", Type: f1(), Offset: 16},
			{Name: "a", Type: f1(), Offset: 20},
		},
	}}
	src := `void main() {
		io.c = clamp(io.x, io.lo, io.hi);
		io.s = sqrt(io.x);
		io.a = abs(io.x - io.hi);
	}`

	v := rec{x: 9, lo: 0, hi: 4}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.c != 4 || v.s != 3 || v.a != 5 {
		t.Errorf("got c=%g s=%g a=%g, want 4 3 5", v.c, v.s, v.a)
	}
}

func TestCastSaturation(t *testing.T) {
	type rec struct {
		d       float64
		f       float32
		_       float32
		i, j, k int32
		_       int32
	}
	d1 := types.Make(types.KindDouble, 1)
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "d", Type: d1, Offset: 0},
			{Name: "f", Type: f1(), Offset: 8},
			{Name: "i", Type: i1(), Offset: 16},
			{Name: "j", Type: i1(), Offset: 20},
			{Name: "k", Type: i1(), Offset: 24},
		},
	}}
	src := `void main() {
		io.i = int(io.f);
		io.j = int(io.d);
		io.k = int(io.f / io.f * io.f - io.f);
	}`

	v := rec{d: 1e300, f: -2.75}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.i != -2 {
		t.Errorf("int(-2.75) = %d, want -2", v.i)
	}
	if v.j != math.MinInt32 {
		t.Errorf("int(1e300) = %d, want INT_MIN", v.j)
	}

	// NaN from 0/0*0-0 when f is zero converts to INT_MIN as well
	v = rec{f: 0}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.k != math.MinInt32 {
		t.Errorf("int(nan) = %d, want INT_MIN", v.k)
	}
}

func TestDynamicLaneAccess(t *testing.T) {
	type rec struct {
		v    [4]float32
		i    int32
		out  float32
		back [4]float32
	}
	f4 := types.Make(types.KindFloat, 4)
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "v", Type: f4, Offset: 0},
			{Name: "i", Type: i1(), Offset: 16},
			{Name: "out", Type: f1(), Offset: 20},
			{Name: "back", Type: f4, Offset: 24},
		},
	}}
	src := `void main() {
		float4 p = io.v;
		io.out = p[io.i];
		p[io.i] = 99.0f;
		io.back = p;
	}`

	v := rec{v: [4]float32{10, 20, 30, 40}, i: 2}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.out != 30 {
		t.Errorf("v[2] = %g, want 30", v.out)
	}
	if v.back != [4]float32{10, 20, 99, 40} {
		t.Errorf("writeback = %v, want lane 2 replaced", v.back)
	}
}

func TestIncDec(t *testing.T) {
	type rec struct{ a, pre, post, after int32 }
	objects := []sema.Object{{
		Name: "io",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "a", Type: i1(), Offset: 0},
			{Name: "pre", Type: i1(), Offset: 4},
			{Name: "post", Type: i1(), Offset: 8},
			{Name: "after", Type: i1(), Offset: 12},
		},
	}}
	src := `void main() {
		int x = io.a;
		io.pre = ++x;
		io.post = x--;
		io.after = x;
	}`

	v := rec{a: 5}
	runSrc(t, src, objects, unsafe.Pointer(&v))
	if v.pre != 6 || v.post != 6 || v.after != 5 {
		t.Errorf("got pre=%d post=%d after=%d, want 6 6 5", v.pre, v.post, v.after)
	}
}

func TestTwoObjects(t *testing.T) {
	type inRec struct{ x float32 }
	type outRec struct{ y float32 }
	objects := []sema.Object{
		{
			Name: "in",
			Slot: 0,
			Members: []sema.ObjectMember{
				{Name: "x", Type: f1(), Offset: 0},
			},
		},
		{
			Name: "out",
			Slot: 1,
			Members: []sema.ObjectMember{
				{Name: "y", Type: f1(), Offset: 0},
			},
		},
	}
	src := "void main() { out.y = in.x * in.x; }"

	src1 := inRec{x: 3}
	dst := outRec{}
	runSrc(t, src, objects, unsafe.Pointer(&src1), unsafe.Pointer(&dst))
	if dst.y != 9 {
		t.Errorf("y = %g, want 9", dst.y)
	}
}

func TestReturnValueStored(t *testing.T) {
	type rec struct {
		result float32
		other  float32
	}
	objects := []sema.Object{{
		Name: "out",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "result", Type: f1(), Offset: 0},
			{Name: "other", Type: f1(), Offset: 4},
		},
	}}
	src := "float main() { return 1.0 + 2.0 * 3.0; }"

	b := buildSrc(t, src, objects)
	slot, off, ok := sema.ReturnTarget(objects, b.Funcs.Get(1).Ret)
	if !ok {
		t.Fatal("no return target")
	}

	v := rec{other: -1}
	err := Run(b, []unsafe.Pointer{unsafe.Pointer(&v)}, &RetDest{Slot: slot, Offset: off})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if v.result != 7 {
		t.Errorf("result = %g, want 7", v.result)
	}
	if v.other != -1 {
		t.Errorf("other clobbered to %g", v.other)
	}

	// без адресата значение просто пропадает
	v = rec{}
	if err := Run(b, []unsafe.Pointer{unsafe.Pointer(&v)}, nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if v.result != 0 {
		t.Errorf("discarded return wrote %g", v.result)
	}
}

func TestReturnValueVector(t *testing.T) {
	type rec struct{ v [4]float32 }
	f4 := types.Make(types.KindFloat, 4)
	objects := []sema.Object{{
		Name: "out",
		Slot: 0,
		Members: []sema.ObjectMember{
			{Name: "v", Type: f4, Offset: 0},
		},
	}}
	src := "float4 main() { return float4(1, 2, 3, 4).wzyx; }"

	b := buildSrc(t, src, objects)
	slot, off, ok := sema.ReturnTarget(objects, b.Funcs.Get(1).Ret)
	if !ok {
		t.Fatal("no return target")
	}
	v := rec{}
	err := Run(b, []unsafe.Pointer{unsafe.Pointer(&v)}, &RetDest{Slot: slot, Offset: off})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if v.v != [4]float32{4, 3, 2, 1} {
		t.Errorf("v = %v, want [4 3 2 1]", v.v)
	}
}

func TestNoMain(t *testing.T) {
	b := ast.NewBuilder()
	if err := Run(b, nil, nil); err == nil {
		t.Fatal("expected an error for a program without main")
	}
}
