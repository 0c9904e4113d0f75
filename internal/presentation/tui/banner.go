package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Canopy ASCII art banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Green/Teal)
	lines := []termenv.Style{
		termenv.String("   ___                             ").Foreground(p.Color("#4ade80")),
		termenv.String("  / __|__ _ _ _  ___ _ __ _  _    ").Foreground(p.Color("#34d399")),
		termenv.String(" | (__/ _` | ' \\/ _ \\ '_ \\ || |").Foreground(p.Color("#2dd4bf")),
		termenv.String("  \\___\\__,_|_||_\\___/ .__/\\_, |").Foreground(p.Color("#22d3ee")),
		termenv.String("                    |_|   |__/    ").Foreground(p.Color("#38bdf8")),
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}

// FormatEV colours an expected value: green when positive, red when negative.
func FormatEV(v float64) string {
	p := termenv.ColorProfile()
	s := termenv.String(fmt.Sprintf("%.2f", v)).Bold()
	switch {
	case v > 0:
		s = s.Foreground(p.Color("#22c55e"))
	case v < 0:
		s = s.Foreground(p.Color("#ef4444"))
	}
	return s.String()
}
