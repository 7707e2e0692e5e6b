package output

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// PrintBanner writes the ASCII-art banner to w.
func PrintBanner(w io.Writer, colorize bool) {
	myFigure := figure.NewColorFigure("PhishSentry", "small", "cyan", true)
	if colorize {
		_, _ = fmt.Fprint(w, myFigure.ColorString())
	} else {
		_, _ = fmt.Fprint(w, myFigure.String())
	}

	line := color.New(color.FgCyan)
	note := color.New(color.FgGreen)
	if !colorize {
		line.DisableColor()
		note.DisableColor()
	}
	_, _ = line.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = note.Fprintln(w, "    Phishing URL scanner and reputation engine")
	_, _ = line.Fprintln(w, "════════════════════════════════════════════════")
}
