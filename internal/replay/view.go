package replay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/thing-king/timetrace/internal/trace"
	"github.com/thing-king/timetrace/internal/ui/textutil"
)

const headerHeight = 2
const footerHeight = 3

// leftPaneWidth is the source pane's width: everything left over from the
// fixed-width variables pane and a one-column gap.
func (m *Model) leftPaneWidth() int {
	w := m.width - VarsPaneWidth - 1
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) bodyHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state.Len() == 0 {
		return "no trace loaded\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	switch m.mode {
	case ModeHelp:
		return overlay(b.String(), m.renderHelp(), m.width, m.height)
	case ModeTimeline:
		return overlay(b.String(), m.renderTimeline(), m.width, m.height)
	case ModeInspect:
		return overlay(b.String(), m.renderInspect(), m.width, m.height)
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	cur := m.state.Current()

	row1 := fmt.Sprintf("timetrace replay  Step %d / %d", m.state.Pos, m.state.Len()-1)
	row1 = m.styles.Title.Render(row1)

	loc := fmt.Sprintf("%s:%d", cur.File, cur.Line)
	var extra []string
	if cur.Scope != trace.ModuleScope {
		extra = append(extra, "scope="+cur.Scope)
	}
	if cur.Depth != 0 {
		extra = append(extra, fmt.Sprintf("depth=%d", cur.Depth))
	}
	row2 := loc
	if len(extra) > 0 {
		row2 += "  " + strings.Join(extra, " ")
	}
	row2 = m.styles.Header.Render(row2)

	return row1 + "\n" + row2
}

func (m *Model) renderBody() string {
	left := m.renderSourcePane()
	right := m.renderVarsPane()
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m *Model) renderSourcePane() string {
	return m.viewport.View()
}

// renderSource builds the source pane's full content string: one line per
// source line, with a breakpoint gutter marker and full-width current-line
// highlight.
func (m *Model) renderSource(lines []string, cur trace.Event) string {
	width := m.leftPaneWidth()
	var b strings.Builder
	for i, line := range lines {
		lineNo := i + 1
		marker := " "
		for _, bp := range m.state.Breakpoints {
			if strings.HasSuffix(cur.File, bp.FileSuffix) && bp.Line == lineNo {
				marker = "●"
				break
			}
		}
		gutter := fmt.Sprintf("%s%4d ", marker, lineNo)
		text := gutter + line

		if lineNo == cur.Line {
			text = textutil.PadRightVisual(text, width)
			text = m.styles.CurrentLine.Render(text)
		} else if marker == "●" {
			text = m.styles.Gutter.Render(gutter) + line
		}
		b.WriteString(text)
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) renderVarsPane() string {
	cur := m.state.Current()
	names := m.state.SortedVarNames()
	changed := trace.ChangedSet(m.state.Events, m.state.Pos)

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Variables") + "\n")

	if len(names) == 0 {
		b.WriteString(m.styles.Muted.Render("(none)") + "\n")
	}
	for i, name := range names {
		prefix := " "
		style := lipgloss.NewStyle()
		if kind, ok := changed[name]; ok {
			prefix = ">"
			switch kind {
			case trace.Added:
				style = m.styles.Added
			case trace.Removed:
				style = m.styles.Removed
			case trace.Changed:
				style = m.styles.Changed
			}
		} else if m.state.IsWatched(name) {
			prefix = "@"
			style = m.styles.Watched
		}
		if i == m.selectedVar {
			style = style.Bold(true)
		}

		nv := textutil.Truncate(name, VarsPaneWidth/2)
		val := textutil.Truncate(cur.Vars[name], VarsPaneWidth-runewidth.StringWidth(nv)-4)
		line := fmt.Sprintf("%s%s=%s", prefix, nv, val)
		b.WriteString(style.Render(line) + "\n")
	}

	if len(m.state.Watches) > 0 {
		b.WriteString("\n" + m.styles.Header.Render("Watched") + "\n")
		for _, name := range m.state.Watches {
			val := cur.Vars[name]
			hist := trace.WatchHistory(m.state.Events, name)
			line := fmt.Sprintf("@%s=%s (%d changes)", textutil.Truncate(name, 12), textutil.Truncate(val, 10), len(hist))
			b.WriteString(m.styles.Watched.Render(line) + "\n")
		}
	}

	return b.String()
}

func (m *Model) renderFooter() string {
	row1 := m.styles.Muted.Render(m.mode.hints())

	var row2 string
	if m.mode.isPrompt() {
		label := map[Mode]string{
			ModeSearchPrompt: "Search",
			ModeJumpPrompt:   "Jump to step",
			ModeBreakPrompt:  "Breakpoint",
			ModeWatchPrompt:  "Watch",
		}[m.mode]
		row2 = fmt.Sprintf("%s: %s_", label, m.promptBuf)
	} else if m.status != "" {
		row2 = m.styles.Error.Render(m.status)
	}

	row3 := textutil.Truncate(m.state.Current().Desc, m.width)

	return row1 + "\n" + row2 + "\n" + row3
}

// overlay draws content centered over base, matching the any-key-dismisses
// overlay modes (§4.E).
func overlay(base, content string, width, height int) string {
	box := DefaultStyles().Overlay.Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box, lipgloss.WithWhitespaceChars(" "))
}

func (m *Model) renderHelp() string {
	lines := []string{
		"Keys",
		"",
		"←/→, l      step backward/forward",
		"pgup/pgdn   page by 10",
		"home/end    jump to first/last step",
		"↑/↓         move variable selection",
		"c / C       continue / reverse to breakpoint",
		"d           diff against previous step",
		"n / N       next / previous search result",
		"/, f        search",
		"g           jump to step",
		"b           set/clear breakpoint (file:line)",
		"w           toggle watch (empty: list watches)",
		"t           timeline overlay",
		"v           inspect selected variable",
		"q           quit",
		"",
		"press any key to close",
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTimeline() string {
	total := m.state.Len()
	pos := m.state.Pos
	barWidth := 40
	filled := 0
	if total > 1 {
		filled = pos * barWidth / (total - 1)
	}
	bar := strings.Repeat("─", filled) + "●" + strings.Repeat("─", maxInt(0, barWidth-filled-1))

	var b strings.Builder
	fmt.Fprintf(&b, "Timeline\n\n[%s]\nStep %d / %d\n\n", bar, pos, total-1)
	fmt.Fprintf(&b, "Files (%d):\n", len(m.state.Idx.Files))
	for _, f := range m.state.Idx.Files {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	fmt.Fprintf(&b, "\nScopes entered (%d):\n", len(m.state.Idx.Scopes))
	for _, s := range m.state.Idx.Scopes {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	b.WriteString("\npress any key to close")
	return b.String()
}

func (m *Model) renderInspect() string {
	names := m.state.SortedVarNames()
	if len(names) == 0 {
		return "No variable selected\n\npress any key to close"
	}
	name := names[clamp(m.selectedVar, 0, len(names)-1)]
	cur := m.state.Current()

	var b strings.Builder
	fmt.Fprintf(&b, "Inspect: %s\n\n", name)
	fmt.Fprintf(&b, "Value at step %d:\n%s\n\n", cur.Step, wrap(cur.Vars[name], 50))

	hist := trace.WatchHistory(m.state.Events, name)
	b.WriteString("History:\n")
	for _, p := range hist {
		marker := " "
		if p.Step == cur.Step {
			marker = "▶"
		}
		fmt.Fprintf(&b, "%s step %d: %s\n", marker, p.Step, textutil.Truncate(p.Value, 40))
	}
	b.WriteString("\npress any key to close")
	return b.String()
}

func wrap(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	var lines []string
	for _, word := range strings.Fields(s) {
		if len(lines) == 0 {
			lines = append(lines, word)
			continue
		}
		last := lines[len(lines)-1]
		if runewidth.StringWidth(last)+1+runewidth.StringWidth(word) <= width {
			lines[len(lines)-1] = last + " " + word
		} else {
			lines = append(lines, word)
		}
	}
	return strings.Join(lines, "\n")
}
