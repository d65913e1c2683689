package parser

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/token"
	"mpsl/internal/types"
)

// parseBlock: `'{' stmt* '}'`.
func (p *Parser) parseBlock() (ast.StmtID, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'")
	if !ok {
		return ast.NoStmtID, false
	}
	var stmts []ast.StmtID
	for !p.at(token.RBrace) {
		if p.at(token.EOF) {
			p.errAt(diag.SynUnclosedBrace, open.Span, "unclosed brace")
			return ast.NoStmtID, false
		}
		if !p.parseStmt(&stmts) {
			return ast.NoStmtID, false
		}
	}
	close := p.advance()
	return p.b.Stmts.NewBlock(open.Span.Cover(close.Span), stmts), true
}

// parseStmt appends zero or more statements (a declaration list yields
// one per declarator, an empty statement yields none).
func (p *Parser) parseStmt(out *[]ast.StmtID) bool {
	switch p.lx.Peek().Kind {
	case token.LBrace:
		id, ok := p.parseBlock()
		if ok {
			*out = append(*out, id)
		}
		return ok

	case token.KwConst:
		p.advance()
		return p.parseVarDecl(out, true)

	case token.KwIf:
		return p.parseIf(out)

	case token.KwFor:
		return p.parseFor(out)

	case token.KwWhile:
		return p.parseWhile(out)

	case token.KwDo:
		return p.parseDoWhile(out)

	case token.KwBreak:
		tok := p.advance()
		if !p.expectSemicolon() {
			return false
		}
		*out = append(*out, p.b.Stmts.NewBreak(tok.Span))
		return true

	case token.KwContinue:
		tok := p.advance()
		if !p.expectSemicolon() {
			return false
		}
		*out = append(*out, p.b.Stmts.NewContinue(tok.Span))
		return true

	case token.KwReturn:
		tok := p.advance()
		value := ast.NoExprID
		if !p.at(token.Semicolon) {
			v, ok := p.parseExpr()
			if !ok {
				return false
			}
			value = v
		}
		if !p.expectSemicolon() {
			return false
		}
		*out = append(*out, p.b.Stmts.NewReturn(tok.Span.Cover(p.lastSpan), value))
		return true

	case token.Semicolon:
		p.advance()
		return true

	case token.Ident:
		if p.atTypeName() {
			return p.parseVarDecl(out, false)
		}
		return p.parseExprStmt(out)

	default:
		return p.parseExprStmt(out)
	}
}

func (p *Parser) parseExprStmt(out *[]ast.StmtID) bool {
	e, ok := p.parseExpr()
	if !ok {
		return false
	}
	if !p.expectSemicolon() {
		return false
	}
	*out = append(*out, p.b.Stmts.NewExpr(p.b.Exprs.Get(e).Span, e))
	return true
}

// parseVarDecl: `type declarator (',' declarator)* ';'` where declarator
// is `name ('=' expr)?`. A leading 'const' was already consumed.
func (p *Parser) parseVarDecl(out *[]ast.StmtID, isConst bool) bool {
	typeTok, ok := p.expect(token.Ident, diag.SynExpectType, "expected type")
	if !ok {
		return false
	}
	typ, ok := p.typeOf(typeTok)
	if !ok {
		p.errAt(diag.SynExpectType, typeTok.Span, "expected type")
		return false
	}
	if typ.SameShape(types.Void) {
		p.errAt(diag.SynExpectType, typeTok.Span, "variables cannot have type 'void'")
		return false
	}

	for {
		nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected variable name")
		if !ok {
			return false
		}
		init := ast.NoExprID
		if p.at(token.Assign) {
			p.advance()
			e, ok := p.parseAssign()
			if !ok {
				return false
			}
			init = e
		} else if isConst {
			p.errAt(diag.SynUnexpectedToken, nameTok.Span, "const variable requires an initializer")
			return false
		}
		*out = append(*out, p.b.Stmts.NewVarDecl(
			typeTok.Span.Cover(p.lastSpan),
			p.b.Strings.Intern(nameTok.Text), typ, init, isConst,
		))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	return p.expectSemicolon()
}

func (p *Parser) parseCondParen() (ast.ExprID, bool) {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('"); !ok {
		return ast.NoExprID, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
		return ast.NoExprID, false
	}
	return cond, true
}

// parseBody parses one statement as a loop or branch body, wrapping a
// declaration list into an implicit block.
func (p *Parser) parseBody() (ast.StmtID, bool) {
	var stmts []ast.StmtID
	if !p.parseStmt(&stmts) {
		return ast.NoStmtID, false
	}
	switch len(stmts) {
	case 1:
		return stmts[0], true
	default:
		return p.b.Stmts.NewBlock(p.lastSpan, stmts), true
	}
}

func (p *Parser) parseIf(out *[]ast.StmtID) bool {
	tok := p.advance()
	cond, ok := p.parseCondParen()
	if !ok {
		return false
	}
	then, ok := p.parseBody()
	if !ok {
		return false
	}
	els := ast.NoStmtID
	if p.at(token.KwElse) {
		p.advance()
		e, ok := p.parseBody()
		if !ok {
			return false
		}
		els = e
	}
	*out = append(*out, p.b.Stmts.NewIf(tok.Span.Cover(p.lastSpan), cond, then, els))
	return true
}

func (p *Parser) parseWhile(out *[]ast.StmtID) bool {
	tok := p.advance()
	cond, ok := p.parseCondParen()
	if !ok {
		return false
	}
	body, ok := p.parseBody()
	if !ok {
		return false
	}
	*out = append(*out, p.b.Stmts.NewWhile(tok.Span.Cover(p.lastSpan), cond, body))
	return true
}

func (p *Parser) parseDoWhile(out *[]ast.StmtID) bool {
	tok := p.advance()
	body, ok := p.parseBody()
	if !ok {
		return false
	}
	if _, ok := p.expect(token.KwWhile, diag.SynUnexpectedToken, "expected 'while'"); !ok {
		return false
	}
	cond, ok := p.parseCondParen()
	if !ok {
		return false
	}
	if !p.expectSemicolon() {
		return false
	}
	*out = append(*out, p.b.Stmts.NewDoWhile(tok.Span.Cover(p.lastSpan), body, cond))
	return true
}

// parseFor: `for '(' init? ';' cond? ';' post? ')' body`. The init
// clause may be a declaration; its scope is handled by the analyzer.
func (p *Parser) parseFor(out *[]ast.StmtID) bool {
	tok := p.advance()
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('"); !ok {
		return false
	}

	init := ast.NoStmtID
	switch {
	case p.at(token.Semicolon):
		p.advance()
	case p.at(token.KwConst) || p.atTypeName():
		isConst := p.at(token.KwConst)
		if isConst {
			p.advance()
		}
		var decls []ast.StmtID
		if !p.parseVarDecl(&decls, isConst) {
			return false
		}
		if len(decls) == 1 {
			init = decls[0]
		} else {
			init = p.b.Stmts.NewBlock(p.lastSpan, decls)
		}
	default:
		var stmts []ast.StmtID
		if !p.parseExprStmt(&stmts) {
			return false
		}
		init = stmts[0]
	}

	cond := ast.NoExprID
	if !p.at(token.Semicolon) {
		c, ok := p.parseExpr()
		if !ok {
			return false
		}
		cond = c
	}
	if !p.expectSemicolon() {
		return false
	}

	post := ast.NoExprID
	if !p.at(token.RParen) {
		e, ok := p.parseExpr()
		if !ok {
			return false
		}
		post = e
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
		return false
	}

	body, ok := p.parseBody()
	if !ok {
		return false
	}
	*out = append(*out, p.b.Stmts.NewFor(tok.Span.Cover(p.lastSpan), init, cond, post, body))
	return true
}
