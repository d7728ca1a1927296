// Command replay is the time-travel debugger's replay TUI (§6 "CLI surface
// of the replay binary"): `replay [trace-path]`, defaulting to .debug.trace
// in the working directory, or the path named by DEBUG_TRACE_PATH.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/thing-king/timetrace/internal/replay"
	"github.com/thing-king/timetrace/internal/trace"
	"github.com/thing-king/timetrace/internal/tracewriter"
)

func main() {
	os.Exit(run())
}

func run() int {
	var explicitPath string
	if len(os.Args) > 1 {
		explicitPath = os.Args[1]
	}
	path := resolvePath(explicitPath)

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		// Not a terminal (e.g. piped output in a test harness): proceed and
		// let bubbletea itself fail loudly if it truly can't run.
		width, height = replay.MinWidth, replay.MinHeight
	}
	if width < replay.MinWidth || height < replay.MinHeight {
		fmt.Fprintf(os.Stderr, "replay: terminal too small (%dx%d), need at least %dx%d\n",
			width, height, replay.MinWidth, replay.MinHeight)
		return 1
	}

	events, err := trace.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: reading %s: %v\n", path, err)
		return 1
	}
	if len(events) == 0 {
		fmt.Fprintf(os.Stderr, "replay: %s is missing or has no events\n", path)
		return 1
	}

	m := replay.NewModel(events)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 1
	}
	return 0
}

// resolvePath applies §9(c): an explicit path argument wins over the
// environment variable, which wins over tracewriter.DefaultPath.
func resolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(tracewriter.PathEnvVar); env != "" {
		return env
	}
	return tracewriter.DefaultPath
}
