package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMemo renders a markdown memo for the terminal, wrapped at width.
// If rendering fails the memo is returned indented as plain text.
func RenderMemo(memo string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if out, err := r.Render(memo); err == nil {
			return out
		}
	}
	return "    " + strings.ReplaceAll(memo, "\n", "\n    ") + "\n"
}
