package main

import (
	"mpsl/internal/ast"
	"mpsl/internal/astopt"
	"mpsl/internal/diag"
	"mpsl/internal/parser"
	"mpsl/internal/sema"
	"mpsl/internal/source"
)

// compilation carries one source file through the frontend. The bag keeps
// everything reported so the commands can render complete diagnostics
// instead of the first-error view the embedding API exposes.
type compilation struct {
	buf *source.Buffer
	bag *diag.Bag
	b   *ast.Builder
}

// frontend parses, analyzes and optimizes src. The returned flag is false
// when any stage reported an error; the bag holds the details either way.
func frontend(src []byte, objects []sema.Object, maxDiag int) (*compilation, bool) {
	c := &compilation{
		buf: source.NewBuffer(src),
		bag: diag.NewBag(maxDiag),
		b:   ast.NewBuilder(),
	}
	rep := diag.BagReporter{Bag: c.bag}
	if !parser.Parse(c.buf, c.b, rep) {
		return c, false
	}
	if _, ok := sema.Analyze(c.b, objects, rep); !ok {
		return c, false
	}
	if !astopt.Optimize(c.b, rep) {
		return c, false
	}
	return c, true
}
