package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"mpsl/internal/source"
)

// Cursor представляет собой позицию в буфере исходника.
type Cursor struct {
	Buf *source.Buffer
	Off uint32
}

// NewCursor creates a new cursor for the provided buffer.
func NewCursor(b *source.Buffer) Cursor {
	if _, err := safecast.Conv[uint32](len(b.Data)); err != nil {
		panic(fmt.Errorf("source buffer overflow: %w", err))
	}
	return Cursor{Buf: b, Off: 0}
}

// EOF проверяет, достигнут ли конец буфера.
func (c *Cursor) EOF() bool {
	return c.Off >= uint32(len(c.Buf.Data))
}

// Peek читает текущий байт, если есть, иначе возвращает 0.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.Buf.Data[c.Off]
}

// PeekAt читает байт на расстоянии n от текущего, иначе 0.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= uint32(len(c.Buf.Data)) {
		return 0
	}
	return c.Buf.Data[c.Off+n]
}

// Bump перемещает курсор на один байт вперед и возвращает прочитанный байт.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.Buf.Data[c.Off]
	c.Off++
	return b
}

// Eat consumes the next byte if it matches the provided byte.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.Buf.Data[c.Off] == b {
		c.Off++
		return true
	}
	return false
}

// Mark это метка, что бы быстро получать Span читаемого фрагмента.
type Mark uint32

// Mark сохраняет текущую позицию курсора.
func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

// SpanFrom получает Span для фрагмента, начиная с метки.
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{Start: uint32(m), End: c.Off}
}
