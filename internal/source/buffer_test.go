package source

import "testing"

func TestLineColumn(t *testing.T) {
	b := NewBuffer([]byte("ab\ncd\n\nxyz"))
	tests := []struct {
		pos          uint32
		line, column uint32
	}{
		{0, 1, 0},
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 0},
		{4, 2, 1},
		{6, 3, 0},
		{7, 4, 0},
		{9, 4, 2},
	}
	for _, tt := range tests {
		line, column := b.LineColumn(tt.pos)
		if line != tt.line || column != tt.column {
			t.Errorf("LineColumn(%d) = (%d, %d), want (%d, %d)",
				tt.pos, line, column, tt.line, tt.column)
		}
	}
}

func TestLineColumnOutOfRange(t *testing.T) {
	b := NewBuffer([]byte("ab"))
	if line, column := b.LineColumn(2); line != 0 || column != 0 {
		t.Errorf("LineColumn(len) = (%d, %d), want (0, 0)", line, column)
	}
	empty := NewBuffer(nil)
	if line, column := empty.LineColumn(0); line != 0 || column != 0 {
		t.Errorf("empty LineColumn(0) = (%d, %d), want (0, 0)", line, column)
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("main")
	b := in.Intern("main")
	c := in.Intern("x")
	if a != b {
		t.Fatalf("Intern(main) twice: %d != %d", a, b)
	}
	if a == c {
		t.Fatalf("distinct strings share id %d", a)
	}
	if got := in.MustLookup(a); got != "main" {
		t.Fatalf("MustLookup = %q", got)
	}
	if in.Intern("") != NoStringID {
		t.Fatal("empty string must intern to NoStringID")
	}
}
