package types

import "fmt"

// BuiltinName pairs a type name with its descriptor; the parser and the
// analyzer copy the whole table into their type-name maps.
type BuiltinName struct {
	Name string
	Type TypeInfo
}

// BuiltinNames lists every nameable type of the language.
func BuiltinNames() []BuiltinName {
	out := []BuiltinName{
		{"void", Void},
		{"bool", Make(KindBool, 1)},
		{"int", Make(KindInt, 1)},
		{"float", Make(KindFloat, 1)},
		{"double", Make(KindDouble, 1)},
	}

	vec := func(k Kind, name string, lanes ...uint32) {
		for _, n := range lanes {
			out = append(out, BuiltinName{fmt.Sprintf("%s%d", name, n), Make(k, n)})
		}
	}
	vec(KindBool, "bool", 2, 3, 4, 8)
	vec(KindInt, "int", 2, 3, 4, 8)
	vec(KindFloat, "float", 2, 3, 4, 8)
	vec(KindDouble, "double", 2, 3, 4)

	for r := uint32(2); r <= 4; r++ {
		for c := uint32(2); c <= 4; c++ {
			out = append(out, BuiltinName{
				fmt.Sprintf("float%dx%d", r, c),
				MakeMatrix(KindFloat, r, c),
			})
		}
	}
	return out
}
