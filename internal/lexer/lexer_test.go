package lexer

import (
	"testing"

	"mpsl/internal/diag"
	"mpsl/internal/source"
	"mpsl/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(16)
	lx := New(source.NewBuffer([]byte(src)), diag.BagReporter{Bag: bag})
	var out []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return out, bag
		}
		out = append(out, tok)
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func equalKinds(a, b []token.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLexBasic(t *testing.T) {
	toks, bag := lexAll(t, "float4 v = a.xyz * 2.0f + 1;")
	want := []token.Kind{
		token.Ident, token.Ident, token.Assign, token.Ident, token.Dot,
		token.Ident, token.Star, token.FloatLit, token.Plus, token.IntLit,
		token.Semicolon,
	}
	if !equalKinds(kinds(toks), want) {
		t.Fatalf("kinds = %v, want %v", kinds(toks), want)
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if toks[0].Text != "float4" || toks[7].Text != "2.0f" {
		t.Fatalf("texts = %q, %q", toks[0].Text, toks[7].Text)
	}
}

func TestLexKeywords(t *testing.T) {
	toks, _ := lexAll(t, "const if else for while do break continue return true false")
	want := []token.Kind{
		token.KwConst, token.KwIf, token.KwElse, token.KwFor, token.KwWhile,
		token.KwDo, token.KwBreak, token.KwContinue, token.KwReturn,
		token.KwTrue, token.KwFalse,
	}
	if !equalKinds(kinds(toks), want) {
		t.Fatalf("kinds = %v, want %v", kinds(toks), want)
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
	}{
		{"0", token.IntLit},
		{"123", token.IntLit},
		{"0x1F", token.IntLit},
		{"0xdeadBEEF", token.IntLit},
		{"1.0", token.DoubleLit},
		{".5", token.DoubleLit},
		{"1.", token.DoubleLit},
		{"1e3", token.DoubleLit},
		{"1.5e-10", token.DoubleLit},
		{"2.0f", token.FloatLit},
		{"3F", token.FloatLit},
		{"2.5d", token.DoubleLit},
	}
	for _, tt := range tests {
		toks, bag := lexAll(t, tt.src)
		if len(toks) != 1 || toks[0].Kind != tt.kind {
			t.Errorf("lex(%q) = %v, want one %v", tt.src, kinds(toks), tt.kind)
		}
		if bag.HasErrors() {
			t.Errorf("lex(%q) reported %v", tt.src, bag.Items())
		}
	}
}

func TestLexBadNumbers(t *testing.T) {
	for _, src := range []string{"0x", "1.2.3", "123abc"} {
		toks, bag := lexAll(t, src)
		if len(toks) != 1 || toks[0].Kind != token.Invalid {
			t.Errorf("lex(%q) = %v, want one Invalid", src, kinds(toks))
			continue
		}
		d, ok := bag.FirstError()
		if !ok || d.Code != diag.LexBadNumber {
			t.Errorf("lex(%q): diagnostics %v, want LexBadNumber", src, bag.Items())
		}
	}
}

func TestLexOperators(t *testing.T) {
	toks, _ := lexAll(t, "<<= >>= ++ -- && || == != <= >= ?:")
	want := []token.Kind{
		token.ShlAssign, token.ShrAssign, token.PlusPlus, token.MinusMinus,
		token.AndAnd, token.OrOr, token.EqEq, token.BangEq,
		token.LtEq, token.GtEq, token.Question, token.Colon,
	}
	if !equalKinds(kinds(toks), want) {
		t.Fatalf("kinds = %v, want %v", kinds(toks), want)
	}
}

func TestLexComments(t *testing.T) {
	toks, bag := lexAll(t, "a // line\n/* block\nstill */ b")
	want := []token.Kind{token.Ident, token.Ident}
	if !equalKinds(kinds(toks), want) {
		t.Fatalf("kinds = %v, want %v", kinds(toks), want)
	}
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
}

func TestLexUnterminatedComment(t *testing.T) {
	_, bag := lexAll(t, "a /* never closed")
	d, ok := bag.FirstError()
	if !ok || d.Code != diag.LexUnterminatedComment {
		t.Fatalf("diagnostics %v, want LexUnterminatedComment", bag.Items())
	}
}

func TestLexString(t *testing.T) {
	toks, bag := lexAll(t, `float x = "oops";`)
	want := []token.Kind{
		token.Ident, token.Ident, token.Assign, token.StrLit, token.Semicolon,
	}
	if !equalKinds(kinds(toks), want) {
		t.Fatalf("kinds = %v, want %v", kinds(toks), want)
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if toks[3].Text != `"oops"` {
		t.Fatalf("text = %q", toks[3].Text)
	}
	if toks[3].Span != (source.Span{Start: 10, End: 16}) {
		t.Fatalf("span = %v", toks[3].Span)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	for _, src := range []string{`"never closed`, "\"line break\nx"} {
		toks, bag := lexAll(t, src)
		if len(toks) == 0 || toks[0].Kind != token.Invalid {
			t.Errorf("lex(%q) = %v, want leading Invalid", src, kinds(toks))
			continue
		}
		d, ok := bag.FirstError()
		if !ok || d.Code != diag.LexUnterminatedString {
			t.Errorf("lex(%q): diagnostics %v, want LexUnterminatedString", src, bag.Items())
		}
	}
}

func TestLexUnknownChar(t *testing.T) {
	toks, bag := lexAll(t, "a $ b")
	if len(toks) != 3 || toks[1].Kind != token.Invalid {
		t.Fatalf("kinds = %v", kinds(toks))
	}
	d, ok := bag.FirstError()
	if !ok || d.Code != diag.LexUnknownChar {
		t.Fatalf("diagnostics %v, want LexUnknownChar", bag.Items())
	}
}

func TestLexSpans(t *testing.T) {
	toks, _ := lexAll(t, "ab + cd")
	if toks[0].Span != (source.Span{Start: 0, End: 2}) {
		t.Fatalf("span[0] = %v", toks[0].Span)
	}
	if toks[1].Span != (source.Span{Start: 3, End: 4}) {
		t.Fatalf("span[1] = %v", toks[1].Span)
	}
	if toks[2].Span != (source.Span{Start: 5, End: 7}) {
		t.Fatalf("span[2] = %v", toks[2].Span)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx := New(source.NewBuffer([]byte("x y")), diag.NopReporter{})
	p := lx.Peek()
	n := lx.Next()
	if p != n {
		t.Fatalf("Peek %v != Next %v", p, n)
	}
	if lx.Next().Text != "y" {
		t.Fatal("second Next is not y")
	}
}
