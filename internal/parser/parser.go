package parser

import (
	"mpsl/internal/ast"
	"mpsl/internal/diag"
	"mpsl/internal/lexer"
	"mpsl/internal/source"
	"mpsl/internal/token"
	"mpsl/internal/types"
)

// Parser — состояние парсера на одну компиляцию. The first syntax error
// stops the parse; there is no recovery.
type Parser struct {
	lx       *lexer.Lexer
	b        *ast.Builder
	reporter diag.Reporter
	lastSpan source.Span
	failed   bool

	typeNames map[string]types.TypeInfo
}

// Parse consumes the whole buffer into the builder. It reports the first
// syntax error through the reporter and returns false.
func Parse(buf *source.Buffer, b *ast.Builder, reporter diag.Reporter) bool {
	p := Parser{
		lx:        lexer.New(buf, reporter),
		b:         b,
		reporter:  reporter,
		typeNames: typeNameTable(),
	}
	p.parseProgram()
	return !p.failed
}

func typeNameTable() map[string]types.TypeInfo {
	names := types.BuiltinNames()
	out := make(map[string]types.TypeInfo, len(names))
	for _, n := range names {
		out[n.Name] = n.Type
	}
	return out
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

// advance — съедает следующий токен и обновляет lastSpan.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// diagSpan — возвращает лучший span для диагностики: на EOF указываем
// сразу за последним съеденным токеном.
func (p *Parser) diagSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

func (p *Parser) err(code diag.Code, msg string) {
	p.errAt(code, p.diagSpan(), msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	// только первая ошибка: дальше парс уже мёртв
	if !p.failed {
		diag.ReportError(p.reporter, code, sp, msg)
		p.failed = true
	}
}

// expect — ожидаем конкретный токен. Если нет — репортим и (invalid, false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, msg)
	return token.Token{Kind: token.Invalid, Span: p.diagSpan()}, false
}

func (p *Parser) expectSemicolon() bool {
	_, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';'")
	return ok
}

// typeOf resolves a type-name token; the parser knows the closed set of
// builtin type names, everything else is checked by the analyzer.
func (p *Parser) typeOf(tok token.Token) (types.TypeInfo, bool) {
	t, ok := p.typeNames[tok.Text]
	return t, ok
}

// atTypeName reports whether the next token starts a type.
func (p *Parser) atTypeName() bool {
	peek := p.lx.Peek()
	if peek.Kind != token.Ident {
		return false
	}
	_, ok := p.typeNames[peek.Text]
	return ok
}

func (p *Parser) parseProgram() {
	for !p.at(token.EOF) && !p.failed {
		p.parseTopLevel()
	}
}

// parseTopLevel: a function definition or a constant declaration,
// disambiguated by the token after the name.
func (p *Parser) parseTopLevel() {
	isConst := p.at(token.KwConst)
	if isConst {
		p.advance()
	}
	typeTok, ok := p.expect(token.Ident, diag.SynUnexpectedTopLevel, "expected function or constant definition")
	if !ok {
		return
	}
	typ, ok := p.typeOf(typeTok)
	if !ok {
		p.errAt(diag.SynExpectType, typeTok.Span, "expected type")
		return
	}
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected name")
	if !ok {
		return
	}
	if p.at(token.LParen) {
		if isConst {
			p.errAt(diag.SynUnexpectedToken, typeTok.Span, "functions cannot be 'const'")
			return
		}
		p.parseFunc(typ, typeTok, nameTok)
		return
	}
	p.parseGlobal(typ, typeTok, nameTok)
}

// parseGlobal: the declarator list of a top-level constant, type and
// first name already consumed. Every global needs an initializer.
func (p *Parser) parseGlobal(typ types.TypeInfo, typeTok, nameTok token.Token) {
	if typ.SameShape(types.Void) {
		p.errAt(diag.SynExpectType, typeTok.Span, "constants cannot have type 'void'")
		return
	}
	for {
		if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "global constant requires an initializer"); !ok {
			return
		}
		init, ok := p.parseAssign()
		if !ok {
			return
		}
		p.b.Globals = append(p.b.Globals, p.b.Stmts.NewVarDecl(
			typeTok.Span.Cover(p.lastSpan),
			p.b.Strings.Intern(nameTok.Text), typ, init, true,
		))
		if !p.at(token.Comma) {
			break
		}
		p.advance()
		nameTok, ok = p.expect(token.Ident, diag.SynExpectIdentifier, "expected constant name")
		if !ok {
			return
		}
	}
	p.expectSemicolon()
}

// parseFunc: `'(' params ')' block`, return type and name already
// consumed.
func (p *Parser) parseFunc(ret types.TypeInfo, retTok, nameTok token.Token) {
	p.advance()

	var params []ast.Param
	if !p.at(token.RParen) {
		for {
			typeTok, ok := p.expect(token.Ident, diag.SynExpectType, "expected parameter type")
			if !ok {
				return
			}
			pt, ok := p.typeOf(typeTok)
			if !ok {
				p.errAt(diag.SynExpectType, typeTok.Span, "expected parameter type")
				return
			}
			pname, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected parameter name")
			if !ok {
				return
			}
			params = append(params, ast.Param{
				Name: p.b.Strings.Intern(pname.Text),
				Type: pt,
				Span: typeTok.Span.Cover(pname.Span),
			})
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
		return
	}

	body, ok := p.parseBlock()
	if !ok {
		return
	}

	p.b.Funcs.New(ast.Func{
		Name:    p.b.Strings.Intern(nameTok.Text),
		Ret:     ret,
		Params:  params,
		Body:    body,
		Span:    retTok.Span.Cover(p.lastSpan),
		RetSpan: retTok.Span,
	})
}
