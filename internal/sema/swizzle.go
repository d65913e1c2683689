package sema

import "strings"

// Swizzle alphabets. The positional one covers 8-lane vectors; the color
// and texture sets only reach four components. A selector string must
// come entirely from one alphabet, tried in this order, so ".a" is the
// color alpha while ".abcd" selects the upper half of an 8-lane vector.
var swizzleSets = []string{"xyzw", "rgba", "stpq", "xyzwabcd"}

// swizzleSelector decodes a member name as a lane selector. It returns
// false when the name is not a swizzle at all.
func swizzleSelector(name string) (sel [8]uint8, count uint8, ok bool) {
	if len(name) == 0 || len(name) > 8 {
		return sel, 0, false
	}
next:
	for _, set := range swizzleSets {
		for i := 0; i < len(name); i++ {
			idx := strings.IndexByte(set, name[i])
			if idx < 0 {
				continue next
			}
			sel[i] = uint8(idx)
		}
		return sel, uint8(len(name)), true
	}
	return sel, 0, false
}

// distinctSel reports whether the first count selected lanes are unique,
// the requirement for writing through a swizzle.
func distinctSel(sel [8]uint8, count uint8) bool {
	var seen [8]bool
	for i := uint8(0); i < count; i++ {
		if seen[sel[i]] {
			return false
		}
		seen[sel[i]] = true
	}
	return true
}
