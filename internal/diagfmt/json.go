package diagfmt

import (
	"encoding/json"
	"io"

	"mpsl/internal/diag"
	"mpsl/internal/source"
)

type jsonNote struct {
	Message string `json:"message"`
	Line    uint32 `json:"line,omitempty"`
	Column  uint32 `json:"column,omitempty"`
}

type jsonDiag struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Line     uint32     `json:"line,omitempty"`
	Column   uint32     `json:"column,omitempty"`
	Notes    []jsonNote `json:"notes,omitempty"`
}

// JSON пишет диагностики одним JSON-массивом. Позиции 1-базные по строке
// и колонке, нулевые поля опускаются.
func JSON(w io.Writer, bag *diag.Bag, buf *source.Buffer, opts JSONOpts) error {
	items := bag.Items()
	if opts.Max > 0 && len(items) > opts.Max {
		items = items[:opts.Max]
	}
	out := make([]jsonDiag, 0, len(items))
	for _, d := range items {
		jd := jsonDiag{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
		}
		if opts.IncludePositions {
			jd.Line, jd.Column = position(buf, d.Primary)
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				jn := jsonNote{Message: n.Msg}
				if opts.IncludePositions {
					jn.Line, jn.Column = position(buf, n.Span)
				}
				jd.Notes = append(jd.Notes, jn)
			}
		}
		out = append(out, jd)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func position(buf *source.Buffer, span source.Span) (line, column uint32) {
	line, col := buf.LineColumn(span.Start)
	if line == 0 {
		return 0, 0
	}
	return line, col + 1
}
