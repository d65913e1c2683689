package mpsl

import (
	"fmt"
	"strings"
	"testing"
)

func TestLayoutConfigure(t *testing.T) {
	l := NewLayout()
	if err := l.Configure("Pixel"); err != ErrorOk {
		t.Fatalf("Configure: %v", err)
	}
	if got := l.Name(); got != "Pixel" {
		t.Fatalf("Name = %q, want %q", got, "Pixel")
	}
	if err := l.Configure("Other"); err != ErrorAlreadyConfigured {
		t.Fatalf("second Configure = %v, want %v", err, ErrorAlreadyConfigured)
	}
	if got := l.Name(); got != "Pixel" {
		t.Fatalf("Name after failed Configure = %q", got)
	}
}

func TestLayoutConfigureTooLong(t *testing.T) {
	l := NewLayout()
	long := strings.Repeat("a", MaxIdentifierLength+1)
	if err := l.Configure(long); err != ErrorInvalidArgument {
		t.Fatalf("Configure(long) = %v, want %v", err, ErrorInvalidArgument)
	}
	if l.Configured() {
		t.Fatal("layout marked configured after failed Configure")
	}
}

func TestLayoutAddGet(t *testing.T) {
	l := NewLayout()
	members := []Member{
		{"a", MustType("float4"), 0},
		{"b", MustType("float"), 16},
		{"flags", MustType("int").WithConst(), 20},
		{"m", MustType("float3x3"), 32},
	}
	for _, m := range members {
		if err := l.Add(m.Name, m.TypeInfo, m.Offset); err != ErrorOk {
			t.Fatalf("Add(%q): %v", m.Name, err)
		}
	}
	if got := l.MembersCount(); got != uint32(len(members)) {
		t.Fatalf("MembersCount = %d, want %d", got, len(members))
	}
	for _, want := range members {
		got, ok := l.Get(want.Name)
		if !ok {
			t.Fatalf("Get(%q) not found", want.Name)
		}
		if got != want {
			t.Fatalf("Get(%q) = %+v, want %+v", want.Name, got, want)
		}
	}
	if _, ok := l.Get("missing"); ok {
		t.Fatal("Get(missing) found a member")
	}
}

func TestLayoutAddErrors(t *testing.T) {
	l := NewLayout()
	if err := l.Add("x", MustType("float"), 0); err != ErrorOk {
		t.Fatalf("Add: %v", err)
	}
	tests := []struct {
		name     string
		typeInfo TypeInfo
		want     Error
	}{
		{"x", MustType("float"), ErrorAlreadyExists},
		{"", MustType("float"), ErrorInvalidArgument},
		{strings.Repeat("n", MaxIdentifierLength+1), MustType("float"), ErrorInvalidArgument},
		{"v", MustType("void"), ErrorInvalidArgument},
	}
	for _, tt := range tests {
		if err := l.Add(tt.name, tt.typeInfo, 0); err != tt.want {
			t.Errorf("Add(%.8q...) = %v, want %v", tt.name, err, tt.want)
		}
	}
	if got := l.MembersCount(); got != 1 {
		t.Fatalf("MembersCount = %d after failed adds", got)
	}
}

func TestLayoutTooManyMembers(t *testing.T) {
	l := NewLayout()
	for i := 0; i < MaxMembersCount; i++ {
		if err := l.Add(fmt.Sprintf("m%d", i), MustType("float"), int32(i*4)); err != ErrorOk {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}
	if err := l.Add("overflow", MustType("float"), 0); err != ErrorTooManyMembers {
		t.Fatalf("Add #%d = %v, want %v", MaxMembersCount, err, ErrorTooManyMembers)
	}
}

func TestLayoutEmbeddedGrowth(t *testing.T) {
	buf := make([]byte, 64)
	l := NewLayoutWithBuffer(buf)
	if err := l.Configure("Rec"); err != ErrorOk {
		t.Fatalf("Configure: %v", err)
	}
	for i := 0; i < MaxMembersCount; i++ {
		name := fmt.Sprintf("member_with_a_long_name_%02d", i)
		if err := l.Add(name, MustType("float4"), int32(i*16)); err != ErrorOk {
			t.Fatalf("Add(%q): %v", name, err)
		}
	}
	// Everything must survive the migration off the embedded buffer.
	if got := l.Name(); got != "Rec" {
		t.Fatalf("Name = %q after growth", got)
	}
	for i := 0; i < MaxMembersCount; i++ {
		name := fmt.Sprintf("member_with_a_long_name_%02d", i)
		m, ok := l.Get(name)
		if !ok {
			t.Fatalf("Get(%q) not found after growth", name)
		}
		if m.Offset != int32(i*16) || m.TypeInfo != MustType("float4") {
			t.Fatalf("Get(%q) = %+v", name, m)
		}
	}
}

func TestLayoutMemberAtOrder(t *testing.T) {
	l := NewLayout()
	names := []string{"first", "second", "third"}
	for i, n := range names {
		if err := l.Add(n, MustType("int"), int32(i)); err != ErrorOk {
			t.Fatalf("Add(%q): %v", n, err)
		}
	}
	for i, n := range names {
		if got := l.MemberAt(uint32(i)); got.Name != n {
			t.Fatalf("MemberAt(%d).Name = %q, want %q", i, got.Name, n)
		}
	}
}
