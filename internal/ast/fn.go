package ast

import (
	"mpsl/internal/source"
	"mpsl/internal/types"
)

// Param is one typed function parameter.
type Param struct {
	Name source.StringID
	Type types.TypeInfo
	Span source.Span
}

// Func is one parsed function definition.
type Func struct {
	Name   source.StringID
	Ret    types.TypeInfo
	Params []Param
	Body   StmtID
	Span   source.Span

	// RetSpan points at the return type for analyzer messages.
	RetSpan source.Span
}

// Funcs manages allocation of function definitions.
type Funcs struct {
	Arena *Arena[Func]
}

func NewFuncs(capHint uint) *Funcs {
	if capHint == 0 {
		capHint = 8
	}
	return &Funcs{Arena: NewArena[Func](capHint)}
}

func (f *Funcs) New(fn Func) FuncID {
	return FuncID(f.Arena.Allocate(fn))
}

func (f *Funcs) Get(id FuncID) *Func {
	return f.Arena.Get(uint32(id))
}

// Find returns the function with the given name, or NoFuncID.
func (f *Funcs) Find(name source.StringID) FuncID {
	for i, fn := range f.Arena.Slice() {
		if fn.Name == name {
			return FuncID(i + 1)
		}
	}
	return NoFuncID
}
