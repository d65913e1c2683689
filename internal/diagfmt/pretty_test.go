package diagfmt

import (
	"strings"
	"testing"

	"mpsl/internal/diag"
	"mpsl/internal/source"
)

func testBag(d ...diag.Diagnostic) *diag.Bag {
	b := diag.NewBag(8)
	for _, dd := range d {
		b.Add(dd)
	}
	return b
}

func TestPrettyFormat(t *testing.T) {
	buf := source.NewBuffer([]byte("void main() {\n  x = 1;\n}\n"))
	bag := testBag(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaSymbolNotFound,
		Message:  "unknown symbol 'x'",
		Primary:  source.Span{Start: 16, End: 17},
	})
	var sb strings.Builder
	Pretty(&sb, bag, buf, PrettyOpts{ShowPreview: true})
	got := sb.String()
	want := "2:3: error SEM3001: unknown symbol 'x'\n" +
		"    x = 1;\n" +
		"    ^\n"
	if got != want {
		t.Errorf("Pretty output:\n%q\nwant:\n%q", got, want)
	}
}

func TestPrettyUnderlineWidth(t *testing.T) {
	buf := source.NewBuffer([]byte("float bad = 1.2.3;\n"))
	bag := testBag(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.LexBadNumber,
		Message:  "malformed number",
		Primary:  source.Span{Start: 12, End: 17},
	})
	var sb strings.Builder
	Pretty(&sb, bag, buf, PrettyOpts{ShowPreview: true})
	if !strings.Contains(sb.String(), "^~~~~") {
		t.Errorf("expected five-cell underline, got:\n%s", sb.String())
	}
}

func TestPrettyNotes(t *testing.T) {
	buf := source.NewBuffer([]byte("int a;\nint a;\n"))
	bag := testBag(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaSymbolRedefined,
		Message:  "symbol 'a' redefined",
		Primary:  source.Span{Start: 11, End: 12},
		Notes:    []diag.Note{{Span: source.Span{Start: 4, End: 5}, Msg: "previous definition here"}},
	})
	var sb strings.Builder
	Pretty(&sb, bag, buf, PrettyOpts{ShowNotes: true})
	got := sb.String()
	if !strings.Contains(got, "2:5: error SEM3003: symbol 'a' redefined") {
		t.Errorf("missing primary line:\n%s", got)
	}
	if !strings.Contains(got, "1:5: note: previous definition here") {
		t.Errorf("missing note line:\n%s", got)
	}
}

func TestPrettyNoPosition(t *testing.T) {
	buf := source.NewBuffer(nil)
	bag := testBag(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaNoMainFunction,
		Message:  "program has no 'main' function",
	})
	var sb strings.Builder
	Pretty(&sb, bag, buf, PrettyOpts{ShowPreview: true})
	if got, want := sb.String(), "error SEM3015: program has no 'main' function\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJSON(t *testing.T) {
	buf := source.NewBuffer([]byte("a\nbb\n"))
	bag := testBag(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.SemaTypeMismatch,
		Message:  "implicit narrowing",
		Primary:  source.Span{Start: 3, End: 4},
	})
	var sb strings.Builder
	if err := JSON(&sb, bag, buf, JSONOpts{IncludePositions: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	got := sb.String()
	for _, frag := range []string{`"severity": "warning"`, `"code": "SEM3006"`, `"line": 2`, `"column": 2`} {
		if !strings.Contains(got, frag) {
			t.Errorf("missing %s in:\n%s", frag, got)
		}
	}
}

func TestLineBounds(t *testing.T) {
	buf := source.NewBuffer([]byte("ab\ncd\n"))
	if s, e := lineBounds(buf, 4); s != 3 || e != 5 {
		t.Errorf("lineBounds(4) = (%d, %d), want (3, 5)", s, e)
	}
	if s, e := lineBounds(buf, 0); s != 0 || e != 2 {
		t.Errorf("lineBounds(0) = (%d, %d), want (0, 2)", s, e)
	}
	if s, e := lineBounds(buf, 99); s != 6 || e != 6 {
		t.Errorf("lineBounds(99) = (%d, %d), want (6, 6)", s, e)
	}
}
