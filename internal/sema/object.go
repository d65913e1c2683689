package sema

import (
	"mpsl/internal/types"
)

// ObjectMember is one field of an argument object.
type ObjectMember struct {
	Name   string
	Type   types.TypeInfo
	Offset int32
}

// Object describes one argument slot of the compiled program. The driver
// derives these from the caller's layouts before analysis starts.
type Object struct {
	Name    string
	Slot    uint32
	Members []ObjectMember
}

// Member finds a field by name.
func (o *Object) Member(name string) (ObjectMember, bool) {
	for _, m := range o.Members {
		if m.Name == name {
			return m, true
		}
	}
	return ObjectMember{}, false
}

// ReturnTarget picks the member that receives the value of a non-void
// main: the first member of the last slot whose shape matches the
// return type. No match means the value is discarded.
func ReturnTarget(objects []Object, ret types.TypeInfo) (slot, offset uint32, ok bool) {
	if ret.Unqualified().IsVoid() || len(objects) == 0 {
		return 0, 0, false
	}
	last := &objects[len(objects)-1]
	for _, m := range last.Members {
		if m.Type.SameShape(ret) {
			return last.Slot, uint32(m.Offset), true
		}
	}
	return 0, 0, false
}
