package lexer

import (
	"mpsl/internal/diag"
	"mpsl/internal/token"
)

// scanString consumes a double-quoted literal. The language has no
// string type, so no escape sequences: the token exists only to let the
// analyzer reject its use with a precise position.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()

	for !lx.cursor.EOF() && lx.cursor.Peek() != '"' && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	if !lx.cursor.Eat('"') {
		sp := lx.cursor.SpanFrom(start)
		diag.ReportError(lx.reporter, diag.LexUnterminatedString, sp,
			"unterminated string literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.StrLit, Span: sp, Text: lx.text(sp)}
}
