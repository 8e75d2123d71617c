package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the lookout ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _             _               _   ", "#22d3ee"},
		{"| | ___   ___ | | _____  _   _| |_ ", "#38bdf8"},
		{"| |/ _ \\ / _ \\| |/ / _ \\| | | | __|", "#60a5fa"},
		{"| | (_) | (_) |   < (_) | |_| | |_ ", "#818cf8"},
		{"|_|\\___/ \\___/|_|\\_\\___/ \\__,_|\\__|", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version+"  type /bye to exit").Faint())
	fmt.Fprintln(w)
}
