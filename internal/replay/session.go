// Package replay implements the replay TUI (§4.E): a full-screen terminal
// application that loads a trace and lets the user navigate it forward and
// backward with breakpoints, watches, search, and diff/inspect/timeline
// overlays.
//
// This file holds State, the pure navigation/search/breakpoint/watch logic
// with no bubbletea or terminal dependency, so §8's invariants and scenarios
// can be asserted directly without driving a tea.Program.
package replay

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/thing-king/timetrace/internal/trace"
)

// Breakpoint is a (file-suffix, line) pair. It matches an event whose File
// ends with FileSuffix and whose Line equals Line (§9 open question b keeps
// this suffix-based, not canonicalized).
type Breakpoint struct {
	FileSuffix string
	Line       int
}

// ParseBreakpoint parses a "file:line" spec as entered in break-prompt. The
// file portion is everything before the last colon, so paths need not be
// escaped.
func ParseBreakpoint(spec string) (Breakpoint, error) {
	i := strings.LastIndex(spec, ":")
	if i <= 0 || i == len(spec)-1 {
		return Breakpoint{}, fmt.Errorf("invalid breakpoint %q: want file:line", spec)
	}
	file := spec[:i]
	line, err := strconv.Atoi(spec[i+1:])
	if err != nil || line <= 0 {
		return Breakpoint{}, fmt.Errorf("invalid breakpoint %q: line must be a positive integer", spec)
	}
	return Breakpoint{FileSuffix: file, Line: line}, nil
}

func (b Breakpoint) matches(e trace.Event) bool {
	return strings.HasSuffix(e.File, b.FileSuffix) && e.Line == b.Line
}

// State is the replayer's navigable model of a loaded trace: the current
// position, breakpoint set, watch list, and last search results. It never
// mutates Events or Idx.
type State struct {
	Events []trace.Event
	Idx    *trace.Index
	Pos    int

	Breakpoints []Breakpoint
	Watches     []string // insertion order

	SearchPattern string
	SearchResults []int
	SearchPos     int
}

// NewState builds a State over a loaded event slice, positioned at step 0.
func NewState(events []trace.Event) *State {
	return &State{Events: events, Idx: trace.BuildIndex(events)}
}

// Len is the number of loaded steps.
func (s *State) Len() int { return len(s.Events) }

// Current returns the event at Pos. Callers must not call it on an empty
// trace; the TUI layer guards against that before constructing a Model.
func (s *State) Current() trace.Event { return s.Events[s.Pos] }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *State) move(delta int) {
	if len(s.Events) == 0 {
		return
	}
	s.Pos = clamp(s.Pos+delta, 0, len(s.Events)-1)
}

// StepForward/StepBackward move by one step, clamped (§4.E navigation).
func (s *State) StepForward()  { s.move(1) }
func (s *State) StepBackward() { s.move(-1) }

// PageForward/PageBackward move by ten steps, clamped.
func (s *State) PageForward()  { s.move(10) }
func (s *State) PageBackward() { s.move(-10) }

// Home/End jump to the first/last step.
func (s *State) Home() {
	s.Pos = 0
}

func (s *State) End() {
	if len(s.Events) > 0 {
		s.Pos = len(s.Events) - 1
	}
}

// Jump sets Pos to step if in range, otherwise returns an error and leaves
// Pos unchanged (§7: "Out-of-range jump").
func (s *State) Jump(step int) error {
	if step < 0 || step >= len(s.Events) {
		return fmt.Errorf("step %d out of range [0,%d]", step, len(s.Events)-1)
	}
	s.Pos = step
	return nil
}

// ToggleBreakpoint parses spec and adds it, or removes an existing identical
// breakpoint if one is already set (so break-prompt also clears a
// breakpoint by re-entering it). Returns the parsed breakpoint and whether
// it is now set (true) or was just removed (false).
func (s *State) ToggleBreakpoint(spec string) (Breakpoint, bool, error) {
	bp, err := ParseBreakpoint(spec)
	if err != nil {
		return Breakpoint{}, false, err
	}
	for i, existing := range s.Breakpoints {
		if existing == bp {
			s.Breakpoints = append(s.Breakpoints[:i], s.Breakpoints[i+1:]...)
			return bp, false, nil
		}
	}
	s.Breakpoints = append(s.Breakpoints, bp)
	return bp, true, nil
}

// ContinueToBreakpoint scans forward from Pos+1 for the first step matching
// any breakpoint, per §4.E. It does not move Pos; callers apply the result.
func (s *State) ContinueToBreakpoint() (int, bool) {
	for i := s.Pos + 1; i < len(s.Events); i++ {
		for _, bp := range s.Breakpoints {
			if bp.matches(s.Events[i]) {
				return i, true
			}
		}
	}
	return 0, false
}

// ReverseToBreakpoint scans backward from Pos-1 down to 0.
func (s *State) ReverseToBreakpoint() (int, bool) {
	for i := s.Pos - 1; i >= 0; i-- {
		for _, bp := range s.Breakpoints {
			if bp.matches(s.Events[i]) {
				return i, true
			}
		}
	}
	return 0, false
}

// IsWatched reports whether name is on the watch list.
func (s *State) IsWatched(name string) bool {
	for _, w := range s.Watches {
		if w == name {
			return true
		}
	}
	return false
}

// ToggleWatch adds name to the watch list, or removes it if already
// present. Returns true if name is now watched.
func (s *State) ToggleWatch(name string) bool {
	for i, w := range s.Watches {
		if w == name {
			s.Watches = append(s.Watches[:i], s.Watches[i+1:]...)
			return false
		}
	}
	s.Watches = append(s.Watches, name)
	return true
}

// Search runs a case-insensitive substring search per §4.E: desc, file,
// scope first; if nothing matched, vars keys/values as a fallback. Results
// replace any previous search, are sorted by step, and Pos moves to the
// first result when there is one.
func (s *State) Search(pattern string) []int {
	needle := strings.ToLower(pattern)

	var results []int
	for _, e := range s.Events {
		if strings.Contains(strings.ToLower(e.Desc), needle) ||
			strings.Contains(strings.ToLower(e.File), needle) ||
			strings.Contains(strings.ToLower(e.Scope), needle) {
			results = append(results, e.Step)
		}
	}
	if len(results) == 0 {
		for _, e := range s.Events {
			for k, v := range e.Vars {
				if strings.Contains(strings.ToLower(k), needle) || strings.Contains(strings.ToLower(v), needle) {
					results = append(results, e.Step)
					break
				}
			}
		}
	}
	sort.Ints(results)

	s.SearchPattern = pattern
	s.SearchResults = results
	s.SearchPos = 0
	if len(results) > 0 {
		s.Pos = results[0]
	}
	return results
}

// SearchNext/SearchPrev cycle through the current result list, wrapping
// modulo its length (S5).
func (s *State) SearchNext() (int, bool) {
	if len(s.SearchResults) == 0 {
		return 0, false
	}
	s.SearchPos = (s.SearchPos + 1) % len(s.SearchResults)
	s.Pos = s.SearchResults[s.SearchPos]
	return s.Pos, true
}

func (s *State) SearchPrev() (int, bool) {
	if len(s.SearchResults) == 0 {
		return 0, false
	}
	s.SearchPos = (s.SearchPos - 1 + len(s.SearchResults)) % len(s.SearchResults)
	s.Pos = s.SearchResults[s.SearchPos]
	return s.Pos, true
}

// Diff renders the changed set for Pos relative to Pos-1 as space-joined
// +/~/- prefixed names, per the "Diff action" in §4.E.
func (s *State) Diff() string {
	changes := trace.ChangedNames(s.Events, s.Pos)
	if len(changes) == 0 {
		return "(no changes)"
	}
	parts := make([]string, len(changes))
	for i, c := range changes {
		var prefix string
		switch c.Kind {
		case trace.Added:
			prefix = "+"
		case trace.Removed:
			prefix = "-"
		case trace.Changed:
			prefix = "~"
		}
		parts[i] = prefix + c.Name
	}
	return strings.Join(parts, " ")
}

// SortedVarNames returns the current step's variable names sorted, the
// order the variables pane renders them in.
func (s *State) SortedVarNames() []string {
	cur := s.Current()
	names := make([]string, 0, len(cur.Vars))
	for n := range cur.Vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
