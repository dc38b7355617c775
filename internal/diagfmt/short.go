package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"quill/internal/diag"
)

// Short печатает по одной строке на диагностику, без нот и цвета.
// Формат дружит с grep: <path>:<start>-<end>: <sev>: <CODE>: <msg>
func Short(w io.Writer, path string, bag *diag.Bag, mode PathMode) {
	shown := formatPath(path, mode)
	for _, d := range bag.Items() {
		loc := shown
		if !d.Primary.Empty() {
			loc = fmt.Sprintf("%s:%s", shown, d.Primary)
		}
		fmt.Fprintf(w, "%s: %s: %s: %s\n", loc, strings.ToLower(d.Severity.String()), d.Code.ID(), d.Message)
	}
}
