// Package util provides shared string helpers for terminal output.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated text. It occupies a single column.
const Ellipsis = "…"

// TruncateString shortens plain text to at most maxWidth terminal columns,
// ending it with an ellipsis when something was cut. Wide characters count
// as two columns. A non-positive maxWidth disables truncation.
func TruncateString(s string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// PadRight pads plain text with spaces to width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Width returns the number of columns s occupies, ignoring ANSI escape
// sequences.
func Width(s string) int {
	return lipgloss.Width(s)
}

// TruncateANSI shortens styled text to at most maxWidth columns while
// keeping its escape sequences intact. A non-positive maxWidth disables
// truncation.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 0 || lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, Ellipsis)
}
