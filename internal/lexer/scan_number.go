package lexer

import (
	"mpsl/internal/diag"
	"mpsl/internal/token"
)

// Поддержка: 0, 123, 0x..., 1.0, .5, 1e-3, 1.0e+10, суффиксы f/F и d/D.
// Без суффикса дробный литерал — double; суффикс f даёт float, d — double.
// Неверные формы — репорт в reporter, токен завершаем как Invalid.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	bad := func(msg string) token.Token {
		// доедаем хвост числа, чтобы не зациклиться на нём
		for isIdentContinue(lx.cursor.Peek()) || lx.cursor.Peek() == '.' {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		diag.ReportError(lx.reporter, diag.LexBadNumber, sp, msg)
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}

	// ведущая точка — формат ".digits"
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		kind = token.DoubleLit
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	} else if lx.cursor.Peek() == '0' && (lx.cursor.PeekAt(1) == 'x' || lx.cursor.PeekAt(1) == 'X') {
		lx.cursor.Bump()
		lx.cursor.Bump()
		if !isHex(lx.cursor.Peek()) {
			return bad("expected hex digit after '0x'")
		}
		for isHex(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		if isIdentContinue(lx.cursor.Peek()) {
			return bad("malformed hex literal")
		}
		return token.Token{Kind: token.IntLit, Span: sp, Text: lx.text(sp)}
	} else {
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		if lx.cursor.Peek() == '.' && !isIdentStart(lx.cursor.PeekAt(1)) {
			lx.cursor.Bump()
			kind = token.DoubleLit
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}

	// экспонента
	if lx.cursor.Peek() == 'e' || lx.cursor.Peek() == 'E' {
		next := lx.cursor.PeekAt(1)
		afterSign := lx.cursor.PeekAt(2)
		if isDec(next) || ((next == '+' || next == '-') && isDec(afterSign)) {
			kind = token.DoubleLit
			lx.cursor.Bump()
			if lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-' {
				lx.cursor.Bump()
			}
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}

	// суффикс
	switch lx.cursor.Peek() {
	case 'f', 'F':
		lx.cursor.Bump()
		kind = token.FloatLit
	case 'd', 'D':
		lx.cursor.Bump()
		kind = token.DoubleLit
	}

	if isIdentContinue(lx.cursor.Peek()) || lx.cursor.Peek() == '.' {
		return bad("malformed numeric literal")
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
