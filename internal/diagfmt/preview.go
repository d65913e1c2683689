package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"

	"mpsl/internal/source"
)

// lineBounds returns the byte range of the line containing pos, without the
// trailing newline. pos past the end of the buffer yields the empty range at
// the end.
func lineBounds(buf *source.Buffer, pos uint32) (start, end uint32) {
	n, err := safecast.Conv[uint32](len(buf.Data))
	if err != nil {
		panic(fmt.Errorf("source buffer overflow: %w", err))
	}
	if pos > n {
		pos = n
	}
	start = pos
	for start > 0 && buf.Data[start-1] != '\n' {
		start--
	}
	end = pos
	for end < n && buf.Data[end] != '\n' {
		end++
	}
	return start, end
}

// underlinePad rebuilds the whitespace prefix that aligns a caret under
// column col of line. Tabs are carried through so the terminal expands them
// the same way it expanded the source line.
func underlinePad(line string, col uint32) string {
	var b strings.Builder
	for i, r := range line {
		if uint32(i) >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

// underlineMarks returns the ^~~~ marker covering width display cells, at
// least one.
func underlineMarks(covered string) string {
	w := runewidth.StringWidth(covered)
	if w < 1 {
		w = 1
	}
	return "^" + strings.Repeat("~", w-1)
}
