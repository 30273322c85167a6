package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{` _____         _   ____                _           _ `, "#34d399"},
	{`|_   _|____  _| |_|  _ \ ___ _ __ ___ (_)_ __   __| |`, "#2dd4bf"},
	{`  | |/ _ \ \/ / __| |_) / _ \ '_ ' _ \| | '_ \ / _' |`, "#22d3ee"},
	{`  | |  __/>  <| |_|  _ <  __/ | | | | | | | | | (_| |`, "#38bdf8"},
	{`  |_|\___/_/\_\\__|_| \_\___|_| |_| |_|_|_| |_|\__,_|`, "#60a5fa"},
}

// PrintBanner writes the TextRemind banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
