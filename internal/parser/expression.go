package parser

import (
	"strconv"
	"strings"

	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/token"
	"mpsl/internal/types"
)

// assignOps maps assignment tokens to their tree operators.
var assignOps = map[token.Kind]ast.BinaryOp{
	token.Assign:        ast.BinAssign,
	token.PlusAssign:    ast.BinAddAssign,
	token.MinusAssign:   ast.BinSubAssign,
	token.StarAssign:    ast.BinMulAssign,
	token.SlashAssign:   ast.BinDivAssign,
	token.PercentAssign: ast.BinModAssign,
	token.AmpAssign:     ast.BinAndAssign,
	token.PipeAssign:    ast.BinOrAssign,
	token.CaretAssign:   ast.BinXorAssign,
	token.ShlAssign:     ast.BinShlAssign,
	token.ShrAssign:     ast.BinShrAssign,
}

// binaryPrec returns the operator and binding power of a binary token, or
// prec 0 for tokens that do not continue a binary expression. Levels follow
// C: multiplicative bind tightest, logical-or loosest.
func binaryPrec(k token.Kind) (ast.BinaryOp, int) {
	switch k {
	case token.Star:
		return ast.BinMul, 10
	case token.Slash:
		return ast.BinDiv, 10
	case token.Percent:
		return ast.BinMod, 10
	case token.Plus:
		return ast.BinAdd, 9
	case token.Minus:
		return ast.BinSub, 9
	case token.Shl:
		return ast.BinShl, 8
	case token.Shr:
		return ast.BinShr, 8
	case token.Lt:
		return ast.BinLt, 7
	case token.LtEq:
		return ast.BinLe, 7
	case token.Gt:
		return ast.BinGt, 7
	case token.GtEq:
		return ast.BinGe, 7
	case token.EqEq:
		return ast.BinEq, 6
	case token.BangEq:
		return ast.BinNe, 6
	case token.Amp:
		return ast.BinAnd, 5
	case token.Caret:
		return ast.BinXor, 4
	case token.Pipe:
		return ast.BinOr, 3
	case token.AndAnd:
		return ast.BinLogAnd, 2
	case token.OrOr:
		return ast.BinLogOr, 1
	}
	return 0, 0
}

// parseExpr parses a full expression. There is no comma operator, so this
// is the same as an assignment expression.
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseAssign()
}

// parseAssign: `ternary (assign-op assign)?`. Assignment is
// right-associative; whether the left side is assignable is checked by the
// analyzer.
func (p *Parser) parseAssign() (ast.ExprID, bool) {
	left, ok := p.parseTernary()
	if !ok {
		return ast.NoExprID, false
	}
	op, isAssign := assignOps[p.lx.Peek().Kind]
	if !isAssign {
		return left, true
	}
	p.advance()
	right, ok := p.parseAssign()
	if !ok {
		return ast.NoExprID, false
	}
	span := p.b.Exprs.Get(left).Span.Cover(p.b.Exprs.Get(right).Span)
	return p.b.Exprs.NewBinary(span, op, left, right), true
}

// parseTernary: `binary ('?' expr ':' assign)?`.
func (p *Parser) parseTernary() (ast.ExprID, bool) {
	cond, ok := p.parseBinary(1)
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.Question) {
		return cond, true
	}
	p.advance()
	then, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':'"); !ok {
		return ast.NoExprID, false
	}
	els, ok := p.parseAssign()
	if !ok {
		return ast.NoExprID, false
	}
	span := p.b.Exprs.Get(cond).Span.Cover(p.b.Exprs.Get(els).Span)
	return p.b.Exprs.NewTernary(span, cond, then, els), true
}

// parseBinary — классический precedence climbing, все операторы
// левоассоциативны.
func (p *Parser) parseBinary(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		op, prec := binaryPrec(p.lx.Peek().Kind)
		if prec < minPrec || prec == 0 {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinary(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		span := p.b.Exprs.Get(left).Span.Cover(p.b.Exprs.Get(right).Span)
		left = p.b.Exprs.NewBinary(span, op, left, right)
	}
}

func (p *Parser) parseUnary() (ast.ExprID, bool) {
	var op ast.UnaryOp
	switch p.lx.Peek().Kind {
	case token.Plus:
		op = ast.UnaryPlus
	case token.Minus:
		op = ast.UnaryNeg
	case token.Bang:
		op = ast.UnaryNot
	case token.Tilde:
		op = ast.UnaryBitNot
	case token.PlusPlus:
		op = ast.UnaryPreInc
	case token.MinusMinus:
		op = ast.UnaryPreDec
	default:
		return p.parsePostfix()
	}
	tok := p.advance()
	operand, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	span := tok.Span.Cover(p.b.Exprs.Get(operand).Span)
	return p.b.Exprs.NewUnary(span, op, operand), true
}

// parsePostfix: `primary ('.' ident | '[' expr ']' | '++' | '--')*`.
// Member access covers both struct members and swizzles; the analyzer
// rewrites vector component selections into swizzle nodes.
func (p *Parser) parsePostfix() (ast.ExprID, bool) {
	e, ok := p.parsePrimary()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		switch p.lx.Peek().Kind {
		case token.Dot:
			p.advance()
			nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected member name")
			if !ok {
				return ast.NoExprID, false
			}
			span := p.b.Exprs.Get(e).Span.Cover(nameTok.Span)
			e = p.b.Exprs.NewMember(span, e, p.b.Strings.Intern(nameTok.Text))

		case token.LBracket:
			p.advance()
			index, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			close, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'")
			if !ok {
				return ast.NoExprID, false
			}
			span := p.b.Exprs.Get(e).Span.Cover(close.Span)
			e = p.b.Exprs.NewIndex(span, e, index)

		case token.PlusPlus:
			tok := p.advance()
			span := p.b.Exprs.Get(e).Span.Cover(tok.Span)
			e = p.b.Exprs.NewUnary(span, ast.UnaryPostInc, e)

		case token.MinusMinus:
			tok := p.advance()
			span := p.b.Exprs.Get(e).Span.Cover(tok.Span)
			e = p.b.Exprs.NewUnary(span, ast.UnaryPostDec, e)

		default:
			return e, true
		}
	}
}

// parsePrimary: parenthesized expression, literal, identifier, or call.
// Constructor casts like `float4(...)` parse as ordinary calls; the
// analyzer rewrites them once types are known.
func (p *Parser) parsePrimary() (ast.ExprID, bool) {
	peek := p.lx.Peek()
	switch peek.Kind {
	case token.LParen:
		p.advance()
		e, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return ast.NoExprID, false
		}
		return e, true

	case token.Ident:
		tok := p.advance()
		name := p.b.Strings.Intern(tok.Text)
		if !p.at(token.LParen) {
			return p.b.Exprs.NewIdent(tok.Span, name), true
		}
		p.advance()
		var args []ast.ExprID
		if !p.at(token.RParen) {
			for {
				a, ok := p.parseAssign()
				if !ok {
					return ast.NoExprID, false
				}
				args = append(args, a)
				if !p.at(token.Comma) {
					break
				}
				p.advance()
			}
		}
		close, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'")
		if !ok {
			return ast.NoExprID, false
		}
		return p.b.Exprs.NewCall(tok.Span.Cover(close.Span), name, args), true

	case token.IntLit:
		tok := p.advance()
		return p.intLiteral(tok)

	case token.FloatLit:
		tok := p.advance()
		text := strings.TrimRight(tok.Text, "fF")
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			p.errAt(diag.LexBadNumber, tok.Span, "malformed float literal")
			return ast.NoExprID, false
		}
		return p.literal(tok, ast.ScalarFloat(float32(v)), types.KindFloat), true

	case token.DoubleLit:
		tok := p.advance()
		text := strings.TrimRight(tok.Text, "dD")
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.errAt(diag.LexBadNumber, tok.Span, "malformed double literal")
			return ast.NoExprID, false
		}
		return p.literal(tok, ast.ScalarDouble(v), types.KindDouble), true

	case token.StrLit:
		// no string type: the node keeps the invalid zero type and the
		// analyzer rejects the first use
		tok := p.advance()
		return p.b.Exprs.NewLiteral(tok.Span, ast.Value{}), true

	case token.KwTrue:
		tok := p.advance()
		return p.literal(tok, ast.ScalarBool(true), types.KindBool), true

	case token.KwFalse:
		tok := p.advance()
		return p.literal(tok, ast.ScalarBool(false), types.KindBool), true

	default:
		p.err(diag.SynExpectExpression, "expected expression")
		return ast.NoExprID, false
	}
}

// intLiteral converts an integer token. Hex literals admit the full
// unsigned 32-bit range so masks like 0xFFFFFFFF stay writable; decimal
// literals stop at INT_MAX.
func (p *Parser) intLiteral(tok token.Token) (ast.ExprID, bool) {
	var u uint64
	var err error
	if strings.HasPrefix(tok.Text, "0x") || strings.HasPrefix(tok.Text, "0X") {
		u, err = strconv.ParseUint(tok.Text[2:], 16, 32)
	} else {
		u, err = strconv.ParseUint(tok.Text, 10, 32)
		if err == nil && u > 1<<31-1 {
			err = strconv.ErrRange
		}
	}
	if err != nil {
		p.errAt(diag.LexBadNumber, tok.Span, "integer literal out of range")
		return ast.NoExprID, false
	}
	return p.literal(tok, ast.ScalarInt(int32(uint32(u))), types.KindInt), true
}

// literal allocates a scalar literal node with its type already set; the
// analyzer only has to narrow double literals in float context.
func (p *Parser) literal(tok token.Token, v ast.Value, kind types.Kind) ast.ExprID {
	id := p.b.Exprs.NewLiteral(tok.Span, v)
	p.b.Exprs.Get(id).Type = types.Make(kind, 1)
	return id
}
