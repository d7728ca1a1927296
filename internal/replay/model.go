// Package replay — this file is the bubbletea Model: it owns terminal-facing
// state (viewport, source cache, dimensions) and wraps a *State with the
// single-threaded render → block-for-key → dispatch loop described in §4.E.
package replay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thing-king/timetrace/internal/trace"
)

// VarsPaneWidth is the fixed width of the right-hand variables pane.
const VarsPaneWidth = 35

// sourceMargin is the number of lines the current line must stay within of
// the visible source-pane window before the view auto-scrolls (§4.E).
const sourceMargin = 3

// MinWidth and MinHeight are the smallest terminal dimensions the layout is
// usable at; cmd/replay checks these before ever entering the alt screen.
const (
	MinWidth  = 60
	MinHeight = 16
)

// Model is the top-level tea.Model for the replay TUI.
type Model struct {
	state  *State
	source *sourceCache
	styles Styles

	viewport viewport.Model

	width  int
	height int

	mode      Mode
	promptBuf string
	status    string

	selectedVar int // index into State.SortedVarNames(), for the inspect overlay

	quitting bool
}

var _ tea.Model = (*Model)(nil)

// NewModel constructs a replay Model over a loaded, non-empty event slice.
func NewModel(events []trace.Event) *Model {
	return &Model{
		state:    NewState(events),
		source:   newSourceCache(),
		styles:   DefaultStyles(),
		viewport: viewport.New(MinWidth-VarsPaneWidth-1, MinHeight-headerHeight-footerHeight),
		mode:     ModeNormal,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = m.leftPaneWidth()
		m.viewport.Height = m.bodyHeight()
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleKey dispatches a key according to the current mode.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode.isOverlay() {
		m.mode = ModeNormal
		return m, nil
	}
	if m.mode.isPrompt() {
		return m.handlePromptKey(msg)
	}
	return m.handleNormalKey(msg)
}

func (m *Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "right", "l":
		m.state.StepForward()
		m.clampSelectedVar()
		m.status = ""
	case "left":
		m.state.StepBackward()
		m.clampSelectedVar()
		m.status = ""
	case "pgdown":
		m.state.PageForward()
		m.clampSelectedVar()
		m.status = ""
	case "pgup":
		m.state.PageBackward()
		m.clampSelectedVar()
		m.status = ""
	case "home":
		m.state.Home()
		m.clampSelectedVar()
		m.status = ""
	case "end":
		m.state.End()
		m.clampSelectedVar()
		m.status = ""

	case "up":
		if m.selectedVar > 0 {
			m.selectedVar--
		}
	case "down":
		names := m.state.SortedVarNames()
		if m.selectedVar < len(names)-1 {
			m.selectedVar++
		}

	case "c":
		if step, ok := m.state.ContinueToBreakpoint(); ok {
			m.state.Pos = step
			m.status = ""
		} else {
			m.status = "No breakpoint hit"
		}
		m.clampSelectedVar()
	case "C":
		if step, ok := m.state.ReverseToBreakpoint(); ok {
			m.state.Pos = step
			m.status = ""
		} else {
			m.status = "No breakpoint hit"
		}
		m.clampSelectedVar()

	case "d":
		m.status = m.state.Diff()

	case "n":
		if step, ok := m.state.SearchNext(); ok {
			m.state.Pos = step
			m.clampSelectedVar()
		} else {
			m.status = "No search results"
		}
	case "N":
		if step, ok := m.state.SearchPrev(); ok {
			m.state.Pos = step
			m.clampSelectedVar()
		} else {
			m.status = "No search results"
		}

	case "/", "f":
		m.mode = ModeSearchPrompt
		m.promptBuf = ""
	case "g":
		m.mode = ModeJumpPrompt
		m.promptBuf = ""
	case "b":
		m.mode = ModeBreakPrompt
		m.promptBuf = ""
	case "w":
		m.mode = ModeWatchPrompt
		m.promptBuf = ""
	case "h":
		m.mode = ModeHelp
	case "t":
		m.mode = ModeTimeline
	case "v":
		names := m.state.SortedVarNames()
		if len(names) == 0 {
			m.status = "No variables at this step"
		} else {
			m.mode = ModeInspect
		}
	}

	m.syncViewport()
	return m, nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.promptBuf = ""
		return m, nil
	case tea.KeyEnter:
		m.submitPrompt()
		return m, nil
	case tea.KeyBackspace:
		if len(m.promptBuf) > 0 {
			m.promptBuf = m.promptBuf[:len(m.promptBuf)-1]
		}
		return m, nil
	}

	for _, r := range msg.Runes {
		if r < 0x20 || r > 0x7e {
			continue
		}
		if m.mode == ModeJumpPrompt && (r < '0' || r > '9') {
			continue
		}
		m.promptBuf += string(r)
	}
	return m, nil
}

func (m *Model) submitPrompt() {
	mode := m.mode
	buf := m.promptBuf
	m.mode = ModeNormal
	m.promptBuf = ""

	switch mode {
	case ModeSearchPrompt:
		if buf == "" {
			return
		}
		results := m.state.Search(buf)
		if len(results) == 0 {
			m.status = fmt.Sprintf("No matches for %q", buf)
		} else {
			m.status = fmt.Sprintf("%d match(es) for %q", len(results), buf)
		}
		m.clampSelectedVar()

	case ModeJumpPrompt:
		step, err := strconv.Atoi(buf)
		if err != nil {
			m.status = "Invalid step"
			return
		}
		if err := m.state.Jump(step); err != nil {
			m.status = err.Error()
			return
		}
		m.status = ""
		m.clampSelectedVar()

	case ModeBreakPrompt:
		bp, set, err := m.state.ToggleBreakpoint(buf)
		if err != nil {
			m.status = err.Error()
			return
		}
		if set {
			m.status = fmt.Sprintf("Breakpoint set at %s:%d", bp.FileSuffix, bp.Line)
		} else {
			m.status = fmt.Sprintf("Breakpoint cleared at %s:%d", bp.FileSuffix, bp.Line)
		}

	case ModeWatchPrompt:
		if buf == "" {
			if len(m.state.Watches) == 0 {
				m.status = "No watches"
			} else {
				m.status = "Watching: " + strings.Join(m.state.Watches, ", ")
			}
			return
		}
		if m.state.ToggleWatch(buf) {
			m.status = fmt.Sprintf("Watching %q", buf)
		} else {
			m.status = fmt.Sprintf("Stopped watching %q", buf)
		}
	}

	m.syncViewport()
}

func (m *Model) clampSelectedVar() {
	names := m.state.SortedVarNames()
	if m.selectedVar >= len(names) {
		m.selectedVar = len(names) - 1
	}
	if m.selectedVar < 0 {
		m.selectedVar = 0
	}
}

// syncViewport reloads the current event's source file and scrolls so the
// current line stays within sourceMargin lines of the visible window.
func (m *Model) syncViewport() {
	if m.state.Len() == 0 {
		return
	}
	cur := m.state.Current()
	lines := m.source.lines(cur.File)

	m.viewport.SetContent(m.renderSource(lines, cur))

	height := m.viewport.Height
	if height <= 0 {
		return
	}
	lineIdx := cur.Line - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	top := m.viewport.YOffset
	bottom := top + height - 1
	switch {
	case lineIdx < top+sourceMargin:
		top = lineIdx - sourceMargin
	case lineIdx > bottom-sourceMargin:
		top = lineIdx - height + 1 + sourceMargin
	}
	top = clamp(top, 0, maxInt(0, len(lines)-height))
	m.viewport.YOffset = top
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
