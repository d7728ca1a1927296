// Package textutil holds the unicode-aware width/truncation/padding helpers
// the replay TUI's rendering needs: gutters, the variables pane, and footer
// descriptions all measure and clip text in terminal columns, not bytes.
package textutil

import "github.com/mattn/go-runewidth"

const ellipsis = "…"

// VisualWidth is the number of terminal columns s occupies.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate clips s to at most maxWidth visual columns, appending ellipsis
// when clipping occurred.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if VisualWidth(s) <= maxWidth {
		return s
	}

	available := maxWidth - VisualWidth(ellipsis)
	if available < 0 {
		return ellipsis
	}

	var result []rune
	width := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > available {
			break
		}
		result = append(result, r)
		width += w
	}
	return string(result) + ellipsis
}

// PadRightVisual right-pads s with spaces to targetWidth visual columns,
// truncating instead when s is already at or beyond that width.
func PadRightVisual(s string, targetWidth int) string {
	width := VisualWidth(s)
	if width >= targetWidth {
		return Truncate(s, targetWidth)
	}
	return s + runewidth.FillRight("", targetWidth-width)
}
