package ast

import (
	"mpsl/internal/source"
)

// Builder owns every arena of one compilation's tree. Dropping the
// builder releases the whole tree at once.
type Builder struct {
	Exprs   *Exprs
	Stmts   *Stmts
	Funcs   *Funcs
	Strings *source.Interner

	// Globals lists top-level declarations in source order. The analyzer
	// folds each into a named constant before any function body runs.
	Globals []StmtID
}

func NewBuilder() *Builder {
	return &Builder{
		Exprs:   NewExprs(0),
		Stmts:   NewStmts(0),
		Funcs:   NewFuncs(0),
		Strings: source.NewInterner(),
	}
}

// Name resolves a StringID through the builder's interner.
func (b *Builder) Name(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}
