package x86

import (
	"strings"
	"testing"

	"mpsl/internal/ir"
	"mpsl/internal/types"
)

func hasMnemonic(trace []string, name string) bool {
	for _, t := range trace {
		if strings.HasPrefix(t, name+" ") || t == name {
			return true
		}
	}
	return false
}

// addFn builds: load a float4 from the first bound pointer, add an
// interned constant, store it back.
func addFn(t *testing.T) *ir.Fn {
	t.Helper()
	fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
	b := fn.NewBlock()
	ptr := fn.NewPtrReg()
	x := fn.NewVReg(types.KindFloat, 4)
	c := fn.NewVReg(types.KindFloat, 4)
	sum := fn.NewVReg(types.KindFloat, 4)
	pool := fn.Pool.Intern([]byte{0, 0, 0x80, 0x3F, 0, 0, 0x80, 0x3F, 0, 0, 0x80, 0x3F, 0, 0, 0x80, 0x3F})

	blk := fn.Block(b)
	blk.Push(ir.Instr{Op: ir.OpArgPtr, Dst: ptr, Extra: 0})
	blk.Push(ir.Instr{Op: ir.OpLoad, Dst: x, A: ptr})
	blk.Push(ir.Instr{Op: ir.OpConst, Dst: c, Extra: uint32(pool)})
	blk.Push(ir.Instr{Op: ir.OpAdd, Dst: sum, A: x, B: c})
	blk.Push(ir.Instr{Op: ir.OpStore, A: ptr, B: sum})
	blk.Term = ir.Return(ir.NoVReg)
	return fn
}

func TestCompileStraightLine(t *testing.T) {
	fn := addFn(t)
	image, trace, err := Compile(fn, Features{SSE41: true}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(image) == 0 || image[0] != 0x55 {
		t.Fatalf("image does not open with push rbp: % X", image[:4])
	}
	if !hasMnemonic(trace, "addps") {
		t.Fatalf("no addps in trace: %q", trace)
	}
	if !hasMnemonic(trace, "ret") {
		t.Fatalf("no ret in trace: %q", trace)
	}
}

func intMulFn(t *testing.T) *ir.Fn {
	t.Helper()
	fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
	b := fn.NewBlock()
	ptr := fn.NewPtrReg()
	x := fn.NewVReg(types.KindInt, 4)
	prod := fn.NewVReg(types.KindInt, 4)

	blk := fn.Block(b)
	blk.Push(ir.Instr{Op: ir.OpArgPtr, Dst: ptr, Extra: 0})
	blk.Push(ir.Instr{Op: ir.OpLoad, Dst: x, A: ptr})
	blk.Push(ir.Instr{Op: ir.OpMul, Dst: prod, A: x, B: x})
	blk.Push(ir.Instr{Op: ir.OpStore, A: ptr, B: prod})
	blk.Term = ir.Return(ir.NoVReg)
	return fn
}

func TestIntMulFeatureGate(t *testing.T) {
	_, modern, err := Compile(intMulFn(t), Features{SSE41: true}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !hasMnemonic(modern, "pmulld") || hasMnemonic(modern, "pmuludq") {
		t.Fatalf("sse4.1 trace should use pmulld only: %q", modern)
	}

	_, base, err := Compile(intMulFn(t), Features{}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if hasMnemonic(base, "pmulld") || !hasMnemonic(base, "pmuludq") {
		t.Fatalf("baseline trace should emulate with pmuludq: %q", base)
	}
}

func TestRoundFeatureGate(t *testing.T) {
	build := func() *ir.Fn {
		fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
		b := fn.NewBlock()
		ptr := fn.NewPtrReg()
		x := fn.NewVReg(types.KindFloat, 4)
		fl := fn.NewVReg(types.KindFloat, 4)
		blk := fn.Block(b)
		blk.Push(ir.Instr{Op: ir.OpArgPtr, Dst: ptr, Extra: 0})
		blk.Push(ir.Instr{Op: ir.OpLoad, Dst: x, A: ptr})
		blk.Push(ir.Instr{Op: ir.OpFloor, Dst: fl, A: x})
		blk.Push(ir.Instr{Op: ir.OpStore, A: ptr, B: fl})
		blk.Term = ir.Return(ir.NoVReg)
		return fn
	}

	_, modern, err := Compile(build(), Features{SSE41: true}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !hasMnemonic(modern, "roundps") {
		t.Fatalf("sse4.1 floor should use roundps: %q", modern)
	}

	_, base, err := Compile(build(), Features{}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if hasMnemonic(base, "roundps") || !hasMnemonic(base, "cvttps2dq") {
		t.Fatalf("baseline floor should go through cvttps2dq: %q", base)
	}
}

func TestBranches(t *testing.T) {
	fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b2 := fn.NewBlock()

	cond := fn.NewVReg(types.KindBool, 1)
	pool := fn.Pool.Intern([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	fn.Block(b0).Push(ir.Instr{Op: ir.OpConst, Dst: cond, Extra: uint32(pool)})
	fn.Block(b0).Term = ir.If(cond, b1, b2)
	fn.Block(b1).Term = ir.Goto(b2)
	fn.Block(b2).Term = ir.Return(ir.NoVReg)

	image, trace, err := Compile(fn, Features{}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(image) == 0 {
		t.Fatal("empty image")
	}
	// then-branch falls through, so the taken form is a je to the else
	// block; the goto to the next block is elided.
	if !hasMnemonic(trace, "je") && !hasMnemonic(trace, "jne") {
		t.Fatalf("no conditional jump in trace: %q", trace)
	}
	if hasMnemonic(trace, "jmp") {
		t.Fatalf("fallthrough goto was not elided: %q", trace)
	}
}

func TestLoopBackedge(t *testing.T) {
	fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
	head := fn.NewBlock()
	body := fn.NewBlock()
	exit := fn.NewBlock()
	slot := fn.NewSlot(types.Make(types.KindInt, 1))

	i0 := fn.NewVReg(types.KindInt, 1)
	limit := fn.NewVReg(types.KindInt, 1)
	cond := fn.NewVReg(types.KindInt, 1)
	zero := fn.Pool.Intern([]byte{0, 0, 0, 0})
	ten := fn.Pool.Intern([]byte{10, 0, 0, 0})

	hb := fn.Block(head)
	hb.Push(ir.Instr{Op: ir.OpConst, Dst: i0, Extra: uint32(zero)})
	hb.Push(ir.Instr{Op: ir.OpStoreVar, A: i0, Extra: slot})
	hb.Term = ir.Goto(body)

	cur := fn.NewVReg(types.KindInt, 1)
	one := fn.NewVReg(types.KindInt, 1)
	next := fn.NewVReg(types.KindInt, 1)
	onePool := fn.Pool.Intern([]byte{1, 0, 0, 0})
	bb := fn.Block(body)
	bb.Push(ir.Instr{Op: ir.OpLoadVar, Dst: cur, Extra: slot})
	bb.Push(ir.Instr{Op: ir.OpConst, Dst: one, Extra: uint32(onePool)})
	bb.Push(ir.Instr{Op: ir.OpAdd, Dst: next, A: cur, B: one})
	bb.Push(ir.Instr{Op: ir.OpStoreVar, A: next, Extra: slot})
	bb.Push(ir.Instr{Op: ir.OpConst, Dst: limit, Extra: uint32(ten)})
	bb.Push(ir.Instr{Op: ir.OpCmpLt, Dst: cond, A: next, B: limit})
	bb.Term = ir.If(cond, body, exit)

	fn.Block(exit).Term = ir.Return(ir.NoVReg)

	_, trace, err := Compile(fn, Features{}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !hasMnemonic(trace, "jne") {
		t.Fatalf("backedge should be a jne: %q", trace)
	}
}

// TestSpill keeps more values live than the pool holds so the allocator
// must push intervals to frame cells.
func TestSpill(t *testing.T) {
	fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
	b := fn.NewBlock()
	blk := fn.Block(b)

	ptr := fn.NewPtrReg()
	blk.Push(ir.Instr{Op: ir.OpArgPtr, Dst: ptr, Extra: 0})

	const n = 20
	vals := make([]ir.VRegID, n)
	for i := 0; i < n; i++ {
		var buf [16]byte
		buf[0] = byte(i + 1)
		pool := fn.Pool.Intern(buf[:])
		vals[i] = fn.NewVReg(types.KindFloat, 4)
		blk.Push(ir.Instr{Op: ir.OpConst, Dst: vals[i], Extra: uint32(pool)})
	}
	acc := vals[0]
	for i := 1; i < n; i++ {
		next := fn.NewVReg(types.KindFloat, 4)
		blk.Push(ir.Instr{Op: ir.OpAdd, Dst: next, A: acc, B: vals[n-i]})
		acc = next
	}
	blk.Push(ir.Instr{Op: ir.OpStore, A: ptr, B: acc})
	blk.Term = ir.Return(ir.NoVReg)

	image, _, err := Compile(fn, Features{}, false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(image) == 0 || image[0] != 0x55 {
		t.Fatal("bad image")
	}
}

func TestWideDouble(t *testing.T) {
	fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
	b := fn.NewBlock()
	blk := fn.Block(b)

	ptr := fn.NewPtrReg()
	x := fn.NewVReg(types.KindDouble, 3)
	y := fn.NewVReg(types.KindDouble, 3)
	blk.Push(ir.Instr{Op: ir.OpArgPtr, Dst: ptr, Extra: 0})
	blk.Push(ir.Instr{Op: ir.OpLoad, Dst: x, A: ptr})
	blk.Push(ir.Instr{Op: ir.OpMul, Dst: y, A: x, B: x})
	blk.Push(ir.Instr{Op: ir.OpStore, A: ptr, B: y})
	blk.Term = ir.Return(ir.NoVReg)

	_, trace, err := Compile(fn, Features{}, true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	count := 0
	for _, m := range trace {
		if strings.HasPrefix(m, "mulpd") {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("double3 multiply should touch both halves, got %d mulpd: %q", count, trace)
	}
}

func TestCompileRejectsUnknownOp(t *testing.T) {
	fn := ir.NewFn("main", types.Make(types.KindVoid, 1), 1)
	b := fn.NewBlock()
	v := fn.NewVReg(types.KindFloat, 1)
	fn.Block(b).Push(ir.Instr{Op: ir.Op(200), Dst: v})
	fn.Block(b).Term = ir.Return(ir.NoVReg)

	if _, _, err := Compile(fn, Features{}, false); err == nil {
		t.Fatal("Compile accepted an unknown opcode")
	}
}

func TestDetect(t *testing.T) {
	if Detect(true).SSE41 {
		t.Fatal("disable flag did not clear the feature")
	}
}
