package ir

import (
	"fmt"
	"io"
	"strings"
)

// DumpFn writes a human-readable listing of one IR function.
func DumpFn(w io.Writer, f *Fn) error {
	if w == nil || f == nil {
		return nil
	}
	fmt.Fprintf(w, "fn %s(args=%d) -> %s\n", f.Name, f.NumArgs, f.Ret.String())

	if len(f.Slots) > 0 {
		fmt.Fprintf(w, "  slots:\n")
		for i := range f.Slots {
			fmt.Fprintf(w, "    s%d: %s\n", i, f.Slots[i].Type.String())
		}
	}
	if f.Pool.Len() > 0 {
		fmt.Fprintf(w, "  pool:\n")
		for i := 1; i <= f.Pool.Len(); i++ {
			e := f.Pool.Get(PoolID(i))
			fmt.Fprintf(w, "    c%d: % x\n", i, e.Data[:e.Size])
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(w, "bb%d:\n", bb.ID)
		for j := range bb.Instrs {
			fmt.Fprintf(w, "  %s\n", formatInstr(f, &bb.Instrs[j]))
		}
		fmt.Fprintf(w, "  %s\n", formatTerm(&bb.Term))
	}
	return nil
}

// DumpString renders the function as a string for log sinks.
func DumpString(f *Fn) string {
	var sb strings.Builder
	DumpFn(&sb, f)
	return sb.String()
}

func formatInstr(f *Fn, in *Instr) string {
	dst := ""
	if in.Dst.IsValid() {
		dst = fmt.Sprintf("%s = ", regDef(f, in.Dst))
	}
	switch in.Op {
	case OpConst:
		return fmt.Sprintf("%sconst c%d", dst, in.Extra)
	case OpShuffle:
		return fmt.Sprintf("%sshuf v%d, sel=%#x", dst, in.A, in.Extra)
	case OpBlend:
		return fmt.Sprintf("%sblend v%d, v%d, mask=%#x", dst, in.A, in.B, in.Extra)
	case OpArgPtr:
		return fmt.Sprintf("%sargptr a%d", dst, in.Extra)
	case OpLoad:
		return fmt.Sprintf("%sload [v%d+%d]", dst, in.A, in.Extra)
	case OpStore:
		return fmt.Sprintf("store [v%d+%d], v%d", in.A, in.Extra, in.B)
	case OpLoadVar:
		return fmt.Sprintf("%sloadvar s%d", dst, in.Extra)
	case OpStoreVar:
		return fmt.Sprintf("storevar s%d, v%d", in.Extra, in.A)
	}

	var buf [3]VRegID
	srcs := in.Srcs(buf[:0])
	out := dst + in.Op.String()
	for i, s := range srcs {
		if i == 0 {
			out += " "
		} else {
			out += ", "
		}
		out += fmt.Sprintf("v%d", s)
	}
	return out
}

func formatTerm(t *Terminator) string {
	switch t.Kind {
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Then)
	case TermIf:
		return fmt.Sprintf("if v%d then bb%d else bb%d", t.Cond, t.Then, t.Else)
	case TermReturn:
		if t.Value.IsValid() {
			return fmt.Sprintf("return v%d", t.Value)
		}
		return "return"
	}
	return "unreachable"
}

// regDef renders a register with its shape, used at definition sites.
func regDef(f *Fn, id VRegID) string {
	r := f.VReg(id)
	return fmt.Sprintf("v%d:%s", id, ShapeString(r.Kind, r.Lanes))
}
