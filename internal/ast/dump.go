package ast

import (
	"fmt"
	"strconv"
	"strings"

	"mpsl/internal/types"
)

// Dump renders the whole tree in a stable, diffable text form. The
// driver feeds this to the output log before and after optimization.
func (b *Builder) Dump() string {
	var sb strings.Builder
	for i := uint32(1); i <= b.Funcs.Arena.Len(); i++ {
		b.dumpFunc(&sb, FuncID(i))
	}
	return sb.String()
}

func (b *Builder) dumpFunc(sb *strings.Builder, id FuncID) {
	fn := b.Funcs.Get(id)
	fmt.Fprintf(sb, "func %s(", b.Name(fn.Name))
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s %s", p.Type, b.Name(p.Name))
	}
	fmt.Fprintf(sb, ") -> %s\n", fn.Ret)
	b.dumpStmt(sb, fn.Body, 1)
}

func indent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}

func (b *Builder) dumpStmt(sb *strings.Builder, id StmtID, depth int) {
	if !id.IsValid() {
		return
	}
	st := b.Stmts.Get(id)
	indent(sb, depth)
	switch st.Kind {
	case StmtBlock:
		d, _ := b.Stmts.Block(id)
		sb.WriteString("block\n")
		for _, s := range d.Stmts {
			b.dumpStmt(sb, s, depth+1)
		}
	case StmtVarDecl:
		d, _ := b.Stmts.VarDecl(id)
		if d.Const {
			sb.WriteString("const ")
		} else {
			sb.WriteString("var ")
		}
		fmt.Fprintf(sb, "%s %s", d.Type.Unqualified(), b.Name(d.Name))
		if d.Init.IsValid() {
			sb.WriteString(" = ")
			b.dumpExpr(sb, d.Init)
		}
		sb.WriteByte('\n')
	case StmtIf:
		d, _ := b.Stmts.If(id)
		sb.WriteString("if ")
		b.dumpExpr(sb, d.Cond)
		sb.WriteByte('\n')
		b.dumpStmt(sb, d.Then, depth+1)
		if d.Else.IsValid() {
			indent(sb, depth)
			sb.WriteString("else\n")
			b.dumpStmt(sb, d.Else, depth+1)
		}
	case StmtFor:
		d, _ := b.Stmts.For(id)
		sb.WriteString("for")
		if d.Cond.IsValid() {
			sb.WriteByte(' ')
			b.dumpExpr(sb, d.Cond)
		}
		sb.WriteByte('\n')
		if d.Init.IsValid() {
			b.dumpStmt(sb, d.Init, depth+1)
		}
		b.dumpStmt(sb, d.Body, depth+1)
		if d.Post.IsValid() {
			indent(sb, depth+1)
			sb.WriteString("post ")
			b.dumpExpr(sb, d.Post)
			sb.WriteByte('\n')
		}
	case StmtWhile:
		d, _ := b.Stmts.While(id)
		sb.WriteString("while ")
		b.dumpExpr(sb, d.Cond)
		sb.WriteByte('\n')
		b.dumpStmt(sb, d.Body, depth+1)
	case StmtDoWhile:
		d, _ := b.Stmts.DoWhile(id)
		sb.WriteString("do\n")
		b.dumpStmt(sb, d.Body, depth+1)
		indent(sb, depth)
		sb.WriteString("while ")
		b.dumpExpr(sb, d.Cond)
		sb.WriteByte('\n')
	case StmtBreak:
		sb.WriteString("break\n")
	case StmtContinue:
		sb.WriteString("continue\n")
	case StmtReturn:
		d, _ := b.Stmts.Return(id)
		sb.WriteString("return")
		if d.Value.IsValid() {
			sb.WriteByte(' ')
			b.dumpExpr(sb, d.Value)
		}
		sb.WriteByte('\n')
	case StmtExpr:
		d, _ := b.Stmts.Expr(id)
		b.dumpExpr(sb, d.Expr)
		sb.WriteByte('\n')
	}
}

func (b *Builder) dumpExpr(sb *strings.Builder, id ExprID) {
	ex := b.Exprs.Get(id)
	if ex == nil {
		sb.WriteString("<nil>")
		return
	}
	switch ex.Kind {
	case ExprIdent:
		d, _ := b.Exprs.Ident(id)
		sb.WriteString(b.Name(d.Name))
	case ExprLit:
		d, _ := b.Exprs.Literal(id)
		b.dumpValue(sb, ex.Type, d.Val)
	case ExprUnary:
		d, _ := b.Exprs.Unary(id)
		if d.Op.IsPostfix() {
			sb.WriteByte('(')
			b.dumpExpr(sb, d.Operand)
			sb.WriteString(strings.TrimPrefix(d.Op.String(), "post"))
			sb.WriteByte(')')
		} else {
			fmt.Fprintf(sb, "(%s", d.Op)
			b.dumpExpr(sb, d.Operand)
			sb.WriteByte(')')
		}
	case ExprBinary:
		d, _ := b.Exprs.Binary(id)
		sb.WriteByte('(')
		b.dumpExpr(sb, d.Left)
		fmt.Fprintf(sb, " %s ", d.Op)
		b.dumpExpr(sb, d.Right)
		sb.WriteByte(')')
	case ExprTernary:
		d, _ := b.Exprs.Ternary(id)
		sb.WriteByte('(')
		b.dumpExpr(sb, d.Cond)
		sb.WriteString(" ? ")
		b.dumpExpr(sb, d.Then)
		sb.WriteString(" : ")
		b.dumpExpr(sb, d.Else)
		sb.WriteByte(')')
	case ExprCall:
		d, _ := b.Exprs.Call(id)
		sb.WriteString(b.Name(d.Name))
		sb.WriteByte('(')
		for i, a := range d.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			b.dumpExpr(sb, a)
		}
		sb.WriteByte(')')
	case ExprCast:
		d, _ := b.Exprs.Cast(id)
		fmt.Fprintf(sb, "%s(", ex.Type.Unqualified())
		b.dumpExpr(sb, d.Value)
		sb.WriteByte(')')
	case ExprCtor:
		d, _ := b.Exprs.Ctor(id)
		fmt.Fprintf(sb, "%s{", ex.Type.Unqualified())
		for i, a := range d.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			b.dumpExpr(sb, a)
		}
		sb.WriteByte('}')
	case ExprSwizzle:
		d, _ := b.Exprs.Swizzle(id)
		b.dumpExpr(sb, d.Value)
		sb.WriteByte('.')
		for i := uint8(0); i < d.Count; i++ {
			sb.WriteByte("xyzwabcd"[d.Sel[i]])
		}
	case ExprMember:
		d, _ := b.Exprs.Member(id)
		b.dumpExpr(sb, d.Value)
		sb.WriteByte('.')
		sb.WriteString(b.Name(d.Name))
	case ExprIndex:
		d, _ := b.Exprs.Index(id)
		b.dumpExpr(sb, d.Value)
		sb.WriteByte('[')
		b.dumpExpr(sb, d.Index)
		sb.WriteByte(']')
	}
}

func (b *Builder) dumpValue(sb *strings.Builder, t types.TypeInfo, v Value) {
	t = t.Unqualified()
	lanes := t.Lanes()
	if t.IsMatrix() {
		lanes = t.Rows() * t.Cols()
	}
	if lanes > 1 {
		fmt.Fprintf(sb, "%s{", t)
	}
	for i := uint32(0); i < lanes; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch t.Kind() {
		case types.KindBool:
			sb.WriteString(strconv.FormatBool(v.Bool(i)))
		case types.KindInt:
			sb.WriteString(strconv.FormatInt(int64(v.Int(i)), 10))
		case types.KindFloat:
			sb.WriteString(strconv.FormatFloat(float64(v.Float(i)), 'g', -1, 32))
			sb.WriteByte('f')
		case types.KindDouble:
			sb.WriteString(strconv.FormatFloat(v.Double(i), 'g', -1, 64))
		}
	}
	if lanes > 1 {
		sb.WriteByte('}')
	}
}
