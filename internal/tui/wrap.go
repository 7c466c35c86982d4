package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText greedily wraps plain text at word boundaries. A word wider than
// the line keeps its own line rather than being split.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	var out strings.Builder
	lineWidth := 0
	for i, word := range words {
		w := runewidth.StringWidth(word)
		switch {
		case i == 0:
			out.WriteString(word)
			lineWidth = w
		case lineWidth+1+w <= width:
			out.WriteRune(' ')
			out.WriteString(word)
			lineWidth += 1 + w
		default:
			out.WriteRune('\n')
			out.WriteString(word)
			lineWidth = w
		}
	}
	return out.String()
}
