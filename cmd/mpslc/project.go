package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"mpsl"
	"mpsl/internal/sema"
)

// projectFile mirrors the mpsl.toml schema: an [options] table with the
// compile option bits and one [[layout]] block per argument slot, members
// in slot order.
type projectFile struct {
	Options optionsSection  `toml:"options"`
	Layouts []layoutSection `toml:"layout"`
}

type optionsSection struct {
	Verbose      bool `toml:"verbose"`
	DumpAST      bool `toml:"dump-ast"`
	DumpIR       bool `toml:"dump-ir"`
	DumpASM      bool `toml:"dump-asm"`
	DisableSSE41 bool `toml:"disable-sse41"`
}

type layoutSection struct {
	Name    string          `toml:"name"`
	Members []memberSection `toml:"member"`
}

type memberSection struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Offset int32  `toml:"offset"`
}

func loadProject(path string) (*projectFile, error) {
	var p projectFile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}
	if len(p.Layouts) > mpsl.MaxArgumentsCount {
		return nil, fmt.Errorf("project %s: %d layouts, at most %d argument slots",
			path, len(p.Layouts), mpsl.MaxArgumentsCount)
	}
	return &p, nil
}

// objects resolves the layout blocks into analyzer argument objects,
// checking the type names against the language's builtin set.
func (p *projectFile) objects() ([]sema.Object, error) {
	objs := make([]sema.Object, len(p.Layouts))
	for i, l := range p.Layouts {
		if l.Name == "" {
			return nil, fmt.Errorf("layout %d has no name", i)
		}
		o := sema.Object{Name: l.Name, Slot: uint32(i)}
		for _, m := range l.Members {
			t, ok := mpsl.Type(m.Type)
			if !ok {
				return nil, fmt.Errorf("layout %s: member %s has unknown type %q", l.Name, m.Name, m.Type)
			}
			if m.Offset < 0 {
				return nil, fmt.Errorf("layout %s: member %s has negative offset", l.Name, m.Name)
			}
			o.Members = append(o.Members, sema.ObjectMember{Name: m.Name, Type: t, Offset: m.Offset})
		}
		objs[i] = o
	}
	return objs, nil
}

func (o optionsSection) bits() mpsl.Options {
	var opts mpsl.Options
	if o.Verbose {
		opts |= mpsl.OptionVerbose
	}
	if o.DumpAST {
		opts |= mpsl.OptionDebugAST
	}
	if o.DumpIR {
		opts |= mpsl.OptionDebugIR
	}
	if o.DumpASM {
		opts |= mpsl.OptionDebugASM
	}
	if o.DisableSSE41 {
		opts |= mpsl.OptionDisableSSE4_1
	}
	return opts
}
