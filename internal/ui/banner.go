// Package ui provides styled console output for the HPN Text Optimizer.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Version is printed in the banner.
const Version = "v1.0.0"

// ══════════════════════════════════════════════════════════════════════════════
// ASCII ART BANNER
// ══════════════════════════════════════════════════════════════════════════════

// PrintBanner displays the startup banner on color.Output, or the mini banner
// when color output is disabled.
func PrintBanner() {
	if color.NoColor {
		FprintMiniBanner(color.Output)
		return
	}
	FprintBanner(color.Output)
}

// FprintBanner writes the startup banner to w.
func FprintBanner(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold)
	hiCyan := color.New(color.FgHiCyan)
	hiMagenta := color.New(color.FgHiMagenta)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	art := [][3]string{
		{"██╗  ██╗", "██████╗ ", "███╗   ██╗"},
		{"██║  ██║", "██╔══██╗", "████╗  ██║"},
		{"███████║", "██████╔╝", "██╔██╗ ██║"},
		{"██╔══██║", "██╔═══╝ ", "██║╚██╗██║"},
		{"██║  ██║", "██║     ", "██║ ╚████║"},
		{"╚═╝  ╚═╝", "╚═╝     ", "╚═╝  ╚═══╝"},
	}
	side := []string{
		"",
		"TEXT OPTIMIZER",
		"grok · claude · gemini · custom",
		"",
		"one prompt in, one result out",
		"",
	}

	fmt.Fprintln(w)
	cyan.Fprintln(w, "╔════════════════════════════════════════════════════════════╗")
	for i, row := range art {
		cyan.Fprint(w, "║  ")
		hiCyan.Fprint(w, row[0])
		white.Fprint(w, row[1])
		hiMagenta.Fprint(w, row[2])
		dim.Fprint(w, "   ")
		if i == 1 {
			yellow.Fprintf(w, "%-33s", side[i])
		} else {
			dim.Fprintf(w, "%-33s", side[i])
		}
		cyan.Fprintln(w, "║")
	}
	cyan.Fprintln(w, "╠════════════════════════════════════════════════════════════╣")
	cyan.Fprint(w, "║  ")
	yellow.Fprint(w, "✍  PROMPT DISPATCH")
	dim.Fprint(w, "  │  ")
	hiMagenta.Fprint(w, "CACHED")
	dim.Fprint(w, "  │  ")
	white.Fprintf(w, "%-23s", Version)
	cyan.Fprintln(w, "║")
	cyan.Fprintln(w, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
}

// FprintMiniBanner writes a one-box banner for constrained terminals to w.
func FprintMiniBanner(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "╔══════════════════════════════════════╗")
	cyan.Fprint(w, "║  ")
	magenta.Fprint(w, "HPN TEXT OPTIMIZER")
	cyan.Fprintf(w, " %-17s║\n", Version)
	cyan.Fprintln(w, "╚══════════════════════════════════════╝")
	fmt.Fprintln(w)
}
