// Package trace defines the on-disk trace event schema and its line-oriented
// codec, and provides the loader/indexer the replay TUI runs against.
package trace

import (
	"encoding/json"
	"fmt"

	"github.com/thing-king/timetrace/internal/jsonutil"
)

// ModuleScope is the sentinel scope name for the outermost instrumented
// region, outside of any procedure.
const ModuleScope = "<module>"

// Event is one recorded trace line: the state of the program immediately
// before the statement at (File, Line, Col) executes.
type Event struct {
	Step  int               `json:"step"`
	TS    float64           `json:"ts"`
	File  string            `json:"file"`
	Line  int               `json:"line"`
	Col   int               `json:"col"`
	Desc  string            `json:"desc"`
	Depth int               `json:"depth"`
	Scope string            `json:"scope"`
	Vars  map[string]string `json:"vars"`
}

// DescTruncate is the maximum length of a statement description before an
// ellipsis is substituted, matching the instrumenter's emission rule.
const DescTruncate = 80

// Encode serialises an event as one line of JSON with a trailing newline.
// Field order is whatever encoding/json's struct-tag order produces; it is
// stable across calls because it derives from the Event struct definition.
func (e Event) Encode() ([]byte, error) {
	line, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding trace event: %w", err)
	}
	return append(line, '\n'), nil
}

// Decode parses one JSON line into an Event. It rejects lines that are not
// valid JSON or that are missing required scalar fields; vars defaults to an
// empty map when absent. Unknown fields are ignored.
func Decode(line []byte) (Event, error) {
	var raw struct {
		Step  *int                   `json:"step"`
		TS    *float64               `json:"ts"`
		File  *string                `json:"file"`
		Line  *int                   `json:"line"`
		Col   *int                   `json:"col"`
		Desc  *string                `json:"desc"`
		Depth *int                   `json:"depth"`
		Scope *string                `json:"scope"`
		Vars  map[string]interface{} `json:"vars"`
	}
	if err := jsonutil.UnmarshalWithContext(line, &raw, "decoding trace event"); err != nil {
		return Event{}, err
	}
	if raw.Step == nil || raw.TS == nil || raw.Line == nil || raw.Col == nil || raw.Depth == nil {
		return Event{}, fmt.Errorf("decoding trace event: missing required scalar field")
	}
	e := Event{
		Step:  *raw.Step,
		TS:    *raw.TS,
		Line:  *raw.Line,
		Col:   *raw.Col,
		Depth: *raw.Depth,
	}
	// vars values are written as strings by the runtime writer; coerce
	// defensively in case an upstream writer (or hand-built trace file in
	// tests) supplied a JSON number or bool instead of re-encoding it.
	if raw.Vars != nil {
		e.Vars = make(map[string]string, len(raw.Vars))
		for k, v := range raw.Vars {
			e.Vars[k] = jsonutil.ToString(v)
		}
	}
	if raw.File != nil {
		e.File = *raw.File
	}
	if raw.Desc != nil {
		e.Desc = *raw.Desc
	}
	if raw.Scope != nil {
		e.Scope = *raw.Scope
	} else {
		e.Scope = ModuleScope
	}
	if e.Vars == nil {
		e.Vars = map[string]string{}
	}
	return e, nil
}

// TruncateDesc truncates s to DescTruncate columns, appending an ellipsis
// when truncation occurred.
func TruncateDesc(s string) string {
	return truncateASCII(s, DescTruncate)
}

// truncateASCII truncates by rune count, not terminal columns (§4.A
// specifies a character-count budget on the writer side before the event
// ever reaches the TUI's own column-aware textutil.Truncate).
func truncateASCII(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(runes[:n-1]) + "…"
}
