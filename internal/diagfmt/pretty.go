package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"quill/internal/diag"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	codeColor = color.New(color.Bold)
	noteColor = color.New(color.FgBlue)
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<start>-<end>: <SEV> <CODE>: <Message>
// затем Notes с отступом. Цвет включается опцией.
func Pretty(w io.Writer, path string, bag *diag.Bag, opts PrettyOpts) {
	shown := formatPath(path, opts.PathMode)
	for _, d := range bag.Items() {
		loc := shown
		if !d.Primary.Empty() {
			loc = fmt.Sprintf("%s:%s", shown, d.Primary)
		}
		sev := d.Severity.String()
		code := d.Code.ID()
		if opts.Color {
			sev = severityColor(d.Severity).Sprint(sev)
			code = codeColor.Sprint(code)
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n", loc, sev, code, d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			if note.Span.Empty() {
				fmt.Fprintf(w, "  %s: %s\n", label, note.Msg)
			} else {
				fmt.Fprintf(w, "  %s: %s:%s: %s\n", label, shown, note.Span, note.Msg)
			}
		}
	}
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}
