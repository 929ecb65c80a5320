package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/surge-devops/surge/internal/network"
	"github.com/surge-devops/surge/internal/ui"
)

// WriteReport prints each section as a header, an underline and its body.
// Sections that produced nothing are printed as warnings.
func WriteReport(w io.Writer, report *network.Report) error {
	var b strings.Builder
	for _, sec := range report.Sections {
		b.WriteString("\n")
		b.WriteString(ui.Header(sec.Title))
		b.WriteString("\n")
		if sec.Warn {
			b.WriteString(Warning(sec.Body))
		} else {
			b.WriteString(sec.Body)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Warning formats a one-line warning in the style used across commands.
func Warning(msg string) string {
	return ui.WarnStyle.Render("[warn]") + " " + msg
}

// WriteWarning prints Warning(msg) followed by a newline.
func WriteWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, Warning(msg))
}
