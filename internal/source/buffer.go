package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Buffer wraps the single source buffer of one compilation.
type Buffer struct {
	Data []byte
}

func NewBuffer(data []byte) *Buffer {
	return &Buffer{Data: data}
}

func (b *Buffer) Len() uint32 {
	n, err := safecast.Conv[uint32](len(b.Data))
	if err != nil {
		panic(fmt.Errorf("source buffer overflow: %w", err))
	}
	return n
}

// LineColumn maps a byte position to a 1-based line and 0-based column by
// scanning backward to the preceding newline. Positions past the end of the
// buffer yield (0, 0).
func (b *Buffer) LineColumn(position uint32) (line, column uint32) {
	if int(position) >= len(b.Data) {
		return 0, 0
	}

	data := b.Data
	p := int(position)

	x := uint32(0)
	for p > 0 && data[p-1] != '\n' {
		x++
		p--
	}

	y := uint32(1)
	for p > 0 {
		p--
		if data[p] == '\n' {
			y++
		}
	}

	return y, x
}
