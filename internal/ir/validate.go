package ir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a lowered function:
// every block is terminated, branch targets exist, each register has
// exactly one definition and is defined before any use in block order,
// and immediates reference real slots, pool entries and arguments.
func Validate(f *Fn) error {
	if f == nil {
		return nil
	}
	var errs []error
	if int(f.Entry) >= len(f.Blocks) {
		errs = append(errs, fmt.Errorf("entry bb%d does not exist", f.Entry))
	}
	if err := validateTerminators(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateDefs(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateExtras(f); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateTerminators(f *Fn) error {
	var errs []error

	blockExists := func(id BlockID) bool {
		return int(id) < len(f.Blocks)
	}

	for i := range f.Blocks {
		term := &f.Blocks[i].Term
		switch term.Kind {
		case TermNone:
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		case TermGoto:
			if !blockExists(term.Then) {
				errs = append(errs, fmt.Errorf("bb%d: goto target bb%d does not exist", i, term.Then))
			}
		case TermIf:
			if !blockExists(term.Then) {
				errs = append(errs, fmt.Errorf("bb%d: then target bb%d does not exist", i, term.Then))
			}
			if !blockExists(term.Else) {
				errs = append(errs, fmt.Errorf("bb%d: else target bb%d does not exist", i, term.Else))
			}
			if !term.Cond.IsValid() {
				errs = append(errs, fmt.Errorf("bb%d: if without condition register", i))
			}
		}
	}
	return errors.Join(errs...)
}

// validateDefs enforces the single-assignment discipline: one def per
// register, and in block order every use follows its def. Values that
// cross branches or loop edges travel through slots, so block order is
// enough.
func validateDefs(f *Fn) error {
	var errs []error

	regExists := func(id VRegID) bool {
		return int(id) <= f.NumVRegs()
	}
	defined := make([]bool, f.NumVRegs()+1)

	checkUse := func(id VRegID, ctx string) {
		if !id.IsValid() {
			return
		}
		if !regExists(id) {
			errs = append(errs, fmt.Errorf("%s: register v%d does not exist", ctx, id))
			return
		}
		if !defined[id] {
			errs = append(errs, fmt.Errorf("%s: v%d used before definition", ctx, id))
		}
	}

	var buf [3]VRegID
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			in := &bb.Instrs[j]
			ctx := fmt.Sprintf("bb%d instr %d (%s)", i, j, in.Op)
			for _, s := range in.Srcs(buf[:0]) {
				checkUse(s, ctx)
			}
			if in.Dst.IsValid() {
				if !regExists(in.Dst) {
					errs = append(errs, fmt.Errorf("%s: register v%d does not exist", ctx, in.Dst))
					continue
				}
				if defined[in.Dst] {
					errs = append(errs, fmt.Errorf("%s: v%d defined twice", ctx, in.Dst))
				}
				defined[in.Dst] = true
			}
			if (in.Op == OpStore || in.Op == OpStoreVar) && in.Dst.IsValid() {
				errs = append(errs, fmt.Errorf("%s: store has a destination", ctx))
			}
		}

		ctx := fmt.Sprintf("bb%d terminator", i)
		switch bb.Term.Kind {
		case TermIf:
			checkUse(bb.Term.Cond, ctx)
		case TermReturn:
			checkUse(bb.Term.Value, ctx)
		}
	}
	return errors.Join(errs...)
}

func validateExtras(f *Fn) error {
	var errs []error
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Instrs {
			in := &bb.Instrs[j]
			ctx := fmt.Sprintf("bb%d instr %d (%s)", i, j, in.Op)
			switch in.Op {
			case OpConst:
				if in.Extra == 0 || int(in.Extra) > f.Pool.Len() {
					errs = append(errs, fmt.Errorf("%s: pool entry c%d does not exist", ctx, in.Extra))
				}
			case OpLoadVar, OpStoreVar:
				if int(in.Extra) >= len(f.Slots) {
					errs = append(errs, fmt.Errorf("%s: slot s%d does not exist", ctx, in.Extra))
				}
			case OpArgPtr:
				if int(in.Extra) >= f.NumArgs {
					errs = append(errs, fmt.Errorf("%s: argument %d out of range", ctx, in.Extra))
				}
			}
		}
	}
	return errors.Join(errs...)
}
