package mpsl

import "mpsl/internal/types"

// TypeInfo is the packed descriptor of a language type. Hosts build these
// through Type and the qualifier methods when populating a Layout.
type TypeInfo = types.TypeInfo

// Type resolves a language type name ("float4", "int", "float3x3") to its
// descriptor. The second result is false for unknown names.
func Type(name string) (TypeInfo, bool) {
	for _, b := range types.BuiltinNames() {
		if b.Name == name {
			return b.Type, true
		}
	}
	return types.Invalid, false
}

// MustType is Type for literal names; it panics on unknown names.
func MustType(name string) TypeInfo {
	t, ok := Type(name)
	if !ok {
		panic("mpsl: unknown type name " + name)
	}
	return t
}
