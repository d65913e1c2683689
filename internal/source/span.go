package source

import (
	"fmt"
)

// Span is a half-open byte range into the compilation's source buffer.
// MPSL compiles exactly one buffer per compilation, so spans carry no file
// component.
type Span struct {
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Cover widens s to include other.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// At makes a span covering the single byte at off.
func At(off uint32) Span {
	return Span{Start: off, End: off + 1}
}
