package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"mpsl/internal/diag"
	"mpsl/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с
// аналогичным форматом. Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, buf *source.Buffer, opts PrettyOpts) {
	for _, d := range bag.Items() {
		head := fmt.Sprintf("%s %s", sevLabel(d.Severity, opts.Color), d.Code.ID())
		printEntry(w, buf, d.Primary, head, d.Message, opts)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			printEntry(w, buf, n.Span, noteLabel(opts.Color), n.Msg, opts)
		}
	}
}

// printEntry emits one positioned line plus its source context. Spans that
// map to no line (empty buffer, end of input) print the message alone.
func printEntry(w io.Writer, buf *source.Buffer, span source.Span, head, msg string, opts PrettyOpts) {
	line, col := buf.LineColumn(span.Start)
	if line == 0 {
		fmt.Fprintf(w, "%s: %s\n", head, msg)
		return
	}
	fmt.Fprintf(w, "%d:%d: %s: %s\n", line, col+1, head, msg)
	if !opts.ShowPreview {
		return
	}
	start, end := lineBounds(buf, span.Start)
	text := string(buf.Data[start:end])
	fmt.Fprintf(w, "  %s\n", text)
	covEnd := span.End
	if covEnd > end {
		covEnd = end
	}
	if covEnd < span.Start {
		covEnd = span.Start
	}
	marks := underlineMarks(string(buf.Data[span.Start:covEnd]))
	if opts.Color {
		marks = color.New(color.FgGreen, color.Bold).Sprint(marks)
	}
	fmt.Fprintf(w, "  %s%s\n", underlinePad(text, span.Start-start), marks)
}

func sevLabel(s diag.Severity, colored bool) string {
	if !colored {
		return s.String()
	}
	c := color.New(color.FgCyan)
	switch s {
	case diag.SevError:
		c = color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		c = color.New(color.FgYellow, color.Bold)
	}
	c.EnableColor()
	return c.Sprint(s.String())
}

func noteLabel(colored bool) string {
	if !colored {
		return "note"
	}
	c := color.New(color.FgCyan, color.Bold)
	c.EnableColor()
	return c.Sprint("note")
}
