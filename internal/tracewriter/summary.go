package tracewriter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/thing-king/timetrace/internal/trace"
)

// summaryValueTruncate is the value-truncation width used in the summary
// file, deliberately distinct from trace.DescTruncate (§9 open question a).
const summaryValueTruncate = 30

// writeSummary writes the plain-text summary described in §6: four header
// lines, a blank line, then "# Last K steps:" followed by one compact line
// per ring-buffer event (plus a vars continuation line when non-empty).
func writeSummary(path string, totalSteps, maxDepth int, scopes []string, ring []trace.Event) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Debug Summary\n")
	fmt.Fprintf(&b, "# Total steps: %d\n", totalSteps)
	fmt.Fprintf(&b, "# Max depth: %d\n", maxDepth)
	fmt.Fprintf(&b, "# Scopes: %s\n", strings.Join(append([]string{trace.ModuleScope}, scopes...), " -> "))
	b.WriteString("\n")
	fmt.Fprintf(&b, "# Last %d steps:\n", len(ring))

	for _, e := range ring {
		scope := e.Scope
		fmt.Fprintf(&b, "[%d] %s:%d (%s) | %s\n", e.Step, e.File, e.Line, scope, e.Desc)
		if len(e.Vars) == 0 {
			continue
		}
		names := make([]string, 0, len(e.Vars))
		for n := range e.Vars {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, n := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", n, truncate(e.Vars[n], summaryValueTruncate)))
		}
		fmt.Fprintf(&b, "    vars: %s\n", strings.Join(parts, ", "))
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(runes[:n-1]) + "…"
}
