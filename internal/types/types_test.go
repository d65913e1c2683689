package types

import "testing"

func TestTypeInfoString(t *testing.T) {
	tests := []struct {
		ti   TypeInfo
		want string
	}{
		{Make(KindFloat, 1), "float"},
		{Make(KindFloat, 4), "float4"},
		{Make(KindInt, 8), "int8"},
		{Make(KindBool, 2), "bool2"},
		{Make(KindDouble, 3), "double3"},
		{MakeMatrix(KindFloat, 3, 4), "float3x4"},
		{Void, "void"},
	}
	for _, tt := range tests {
		if got := tt.ti.String(); got != tt.want {
			t.Errorf("String(%#x) = %q, want %q", uint32(tt.ti), got, tt.want)
		}
	}
}

func TestTypeInfoValid(t *testing.T) {
	valid := []TypeInfo{
		Make(KindFloat, 1),
		Make(KindFloat, 8),
		Make(KindInt, 8),
		Make(KindBool, 8),
		Make(KindDouble, 4),
		MakeMatrix(KindFloat, 2, 2),
		MakeMatrix(KindFloat, 4, 4),
	}
	for _, ti := range valid {
		if !ti.Valid() {
			t.Errorf("Valid(%s) = false", ti)
		}
	}
	invalid := []TypeInfo{
		Make(KindDouble, 8),
		Make(KindFloat, 5),
		Make(KindFloat, 0),
		MakeMatrix(KindInt, 2, 2),
		MakeMatrix(KindDouble, 3, 3),
		MakeMatrix(KindFloat, 5, 2),
	}
	for _, ti := range invalid {
		if ti.Valid() {
			t.Errorf("Valid(%#x) = true", uint32(ti))
		}
	}
}

func TestTypeInfoSize(t *testing.T) {
	tests := []struct {
		ti   TypeInfo
		want uint32
	}{
		{Make(KindFloat, 4), 16},
		{Make(KindDouble, 4), 32},
		{Make(KindBool, 4), 16},
		{Make(KindInt, 1), 4},
		{MakeMatrix(KindFloat, 4, 4), 64},
		{MakeMatrix(KindFloat, 2, 3), 24},
	}
	for _, tt := range tests {
		if got := tt.ti.Size(); got != tt.want {
			t.Errorf("Size(%s) = %d, want %d", tt.ti, got, tt.want)
		}
	}
}

func TestQualifiers(t *testing.T) {
	ti := Make(KindFloat, 4).WithRef().WithConst()
	if !ti.IsRef() || !ti.IsConst() {
		t.Fatal("qualifiers not set")
	}
	if ti.Unqualified() != Make(KindFloat, 4) {
		t.Fatal("Unqualified keeps qualifier bits")
	}
	if ti.Deref().IsRef() {
		t.Fatal("Deref keeps ref bit")
	}
	if !ti.Deref().IsConst() {
		t.Fatal("Deref drops const bit")
	}
	if !ti.SameShape(Make(KindFloat, 4)) {
		t.Fatal("SameShape sees qualifier bits")
	}
}

func TestImplicitCastCost(t *testing.T) {
	f1 := Make(KindFloat, 1)
	f4 := Make(KindFloat, 4)
	i1 := Make(KindInt, 1)
	i4 := Make(KindInt, 4)
	d1 := Make(KindDouble, 1)
	b1 := Make(KindBool, 1)

	tests := []struct {
		from, to TypeInfo
		cost     uint32
		ok       bool
	}{
		{f4, f4, 0, true},
		{i1, f1, 1, true},
		{i1, d1, 2, true},
		{f1, d1, 1, true},
		{f1, f4, 1, true},
		{i1, f4, 2, true},
		{f1, i1, 0, false},
		{d1, f1, 0, false},
		{b1, i1, 0, false},
		{i1, b1, 0, false},
		{i4, f1, 0, false},
		{f4, Make(KindFloat, 8), 0, false},
		{MakeMatrix(KindFloat, 2, 2), MakeMatrix(KindFloat, 2, 2), 0, true},
		{f1, MakeMatrix(KindFloat, 2, 2), 0, false},
	}
	for _, tt := range tests {
		cost, ok := ImplicitCastCost(tt.from, tt.to)
		if ok != tt.ok || cost != tt.cost {
			t.Errorf("ImplicitCastCost(%s, %s) = (%d, %v), want (%d, %v)",
				tt.from, tt.to, cost, ok, tt.cost, tt.ok)
		}
	}
}

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b, want TypeInfo
		ok         bool
	}{
		{Make(KindFloat, 4), Make(KindFloat, 4), Make(KindFloat, 4), true},
		{Make(KindInt, 1), Make(KindFloat, 1), Make(KindFloat, 1), true},
		{Make(KindFloat, 1), Make(KindFloat, 4), Make(KindFloat, 4), true},
		{Make(KindInt, 1), Make(KindDouble, 4), Make(KindDouble, 4), true},
		{Make(KindFloat, 2), Make(KindFloat, 4), Invalid, false},
		{Make(KindBool, 1), Make(KindInt, 1), Invalid, false},
		{Make(KindDouble, 1), Make(KindDouble, 8), Invalid, false},
		{MakeMatrix(KindFloat, 2, 2), MakeMatrix(KindFloat, 2, 2), MakeMatrix(KindFloat, 2, 2), true},
		{MakeMatrix(KindFloat, 2, 2), MakeMatrix(KindFloat, 3, 3), Invalid, false},
	}
	for _, tt := range tests {
		got, ok := Promote(tt.a, tt.b)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Promote(%s, %s) = (%s, %v), want (%s, %v)",
				tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatMulResult(t *testing.T) {
	m23 := MakeMatrix(KindFloat, 2, 3)
	m34 := MakeMatrix(KindFloat, 3, 4)
	v3 := Make(KindFloat, 3)
	v2 := Make(KindFloat, 2)

	if got, ok := MatMulResult(m23, m34); !ok || got != MakeMatrix(KindFloat, 2, 4) {
		t.Errorf("m23 x m34 = (%s, %v)", got, ok)
	}
	if got, ok := MatMulResult(m23, v3); !ok || got != v2 {
		t.Errorf("m23 x v3 = (%s, %v)", got, ok)
	}
	if got, ok := MatMulResult(v2, m23); !ok || got != v3 {
		t.Errorf("v2 x m23 = (%s, %v)", got, ok)
	}
	if _, ok := MatMulResult(m34, m23); ok {
		t.Error("m34 x m23 accepted")
	}
	if _, ok := MatMulResult(v3, v3); ok {
		t.Error("v3 x v3 accepted")
	}
}
