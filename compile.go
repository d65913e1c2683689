package mpsl

import (
	"fmt"
	"strings"

	"mpsl/internal/ast"
	"mpsl/internal/astopt"
	"mpsl/internal/diag"
	"mpsl/internal/exec"
	"mpsl/internal/ir"
	"mpsl/internal/parser"
	"mpsl/internal/sema"
	"mpsl/internal/source"
	"mpsl/internal/x86"
)

// Compile builds body into a new program bound to this isolate. One
// configured layout per argument slot, at most MaxArgumentsCount; the
// returned program's Run takes record pointers in the same order.
//
// Debug option bits are silently cleared when log is nil. Failures are
// reported both as the result code and, when a log is attached, as a
// MessageError with the source position.
func (iso *Isolate) Compile(body string, options Options, log OutputLog, layouts ...*Layout) (*Program, Error) {
	if iso == nil || iso.impl == nil {
		return nil, ErrorInvalidState
	}
	if len(layouts) < 1 || len(layouts) > MaxArgumentsCount {
		return nil, ErrorInvalidArgument
	}
	options &= optionsMask
	if log == nil {
		options &^= debugOptions
	}

	objects := make([]sema.Object, len(layouts))
	for i, l := range layouts {
		if l == nil || !l.Configured() {
			return nil, ErrorInvalidArgument
		}
		o := sema.Object{Name: l.Name(), Slot: uint32(i)}
		for j := uint32(0); j < l.MembersCount(); j++ {
			m := l.MemberAt(j)
			o.Members = append(o.Members, sema.ObjectMember{
				Name:   m.Name,
				Type:   m.TypeInfo,
				Offset: m.Offset,
			})
		}
		objects[i] = o
	}

	buf := source.NewBuffer([]byte(body))
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder()

	fail := func() (*Program, Error) {
		d, ok := bag.FirstError()
		if !ok {
			return nil, ErrorInvalidState
		}
		if log != nil {
			line, col := buf.LineColumn(d.Primary.Start)
			log.Log(Message{Kind: MessageError, Line: line, Column: col, Text: d.Message})
		}
		return nil, errorForCode(d.Code)
	}
	jitFail := func(err error) (*Program, Error) {
		if log != nil {
			log.Log(Message{Kind: MessageError, Text: err.Error()})
		}
		return nil, ErrorJITFailed
	}

	if !parser.Parse(buf, b, rep) {
		return fail()
	}
	if _, ok := sema.Analyze(b, objects, rep); !ok {
		return fail()
	}
	if options&OptionDebugAST != 0 {
		log.Log(Message{Kind: MessageAstInitial, Text: b.Dump()})
	}
	if !astopt.Optimize(b, rep) {
		return fail()
	}
	if options&OptionDebugAST != 0 {
		log.Log(Message{Kind: MessageAstFinal, Text: b.Dump()})
	}

	var retDest *ir.RetDest
	mainRet := b.Funcs.Get(b.Funcs.Find(b.Strings.Intern("main"))).Ret
	if slot, off, ok := sema.ReturnTarget(objects, mainRet); ok {
		retDest = &ir.RetDest{Slot: slot, Offset: off}
	}
	fn := ir.Lower(b, len(layouts), retDest)
	if options&OptionDebugIR != 0 {
		log.Log(Message{Kind: MessageIRInitial, Text: ir.DumpString(fn)})
	}
	ir.Finalize(fn)
	if err := ir.Validate(fn); err != nil {
		return jitFail(err)
	}
	if options&OptionDebugIR != 0 {
		log.Log(Message{Kind: MessageIRFinal, Text: ir.DumpString(fn)})
	}

	feat := x86.Detect(options&OptionDisableSSE4_1 != 0)
	image, trace, err := x86.Compile(fn, feat, options&OptionDebugASM != 0)
	if err != nil {
		return jitFail(err)
	}
	if options&OptionDebugASM != 0 {
		log.Log(Message{Kind: MessageAsm, Text: strings.Join(trace, "\n") + "\n"})
	}

	block, err := exec.Alloc(image)
	if err != nil {
		return jitFail(err)
	}
	if options&OptionVerbose != 0 {
		log.Log(Message{Kind: MessageInfo, Text: fmt.Sprintf("compiled %d bytes of machine code", block.Size())})
	}

	impl := &programImpl{
		block:   block,
		entry:   block.Entry(),
		numArgs: len(layouts),
		iso:     iso.impl,
	}
	impl.refs.Store(1)
	iso.impl.attach(block.Size())
	return newProgramHandle(impl), ErrorOk
}

// errorForCode folds a diagnostic code into the public result surface by
// code family, with the handful of sema codes that carry their own
// public category picked out first.
func errorForCode(c diag.Code) Error {
	switch c {
	case diag.SemaSymbolNotFound, diag.SemaMemberNotFound:
		return ErrorSymbolNotFound
	case diag.SemaSymbolCollision, diag.SemaSymbolRedefined:
		return ErrorSymbolCollision
	case diag.SemaInvalidCast:
		return ErrorInvalidCast
	case diag.SemaInvalidOperator, diag.SemaDivisionByZero:
		return ErrorInvalidOperator
	}
	switch {
	case c >= diag.IRInfo:
		return ErrorJITFailed
	case c >= diag.SemaInfo:
		return ErrorTypeMismatch
	case c >= diag.LexInfo:
		return ErrorInvalidSyntax
	}
	return ErrorInvalidState
}
