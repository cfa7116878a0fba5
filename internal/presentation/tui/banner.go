package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the datagen banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _       _", "#34d399"},
		{"   __| | __ _| |_ __ _  __ _  ___ _ __", "#2dd4bf"},
		{"  / _` |/ _` | __/ _` |/ _` |/ _ \\ '_ \\", "#22d3ee"},
		{" | (_| | (_| | || (_| | (_| |  __/ | | |", "#38bdf8"},
		{"  \\__,_|\\__,_|\\__\\__,_|\\__, |\\___|_| |_|", "#60a5fa"},
		{"                       |___/", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status formats a one-line verdict, green when valid and red otherwise.
func Status(w io.Writer, valid bool, text string) string {
	p := termenv.NewOutput(w).ColorProfile()
	color := "#ef4444"
	if valid {
		color = "#22c55e"
	}
	return p.String(text).Foreground(p.Color(color)).Bold().String()
}
