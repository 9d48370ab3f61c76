package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderModal draws the pending notification centered over the screen.
// Only the acknowledge hint is interactive.
func renderModal(message string, w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}

	boxW := minInt(70, maxInt(30, w-6))
	innerW := boxW - 4

	title := lipgloss.NewStyle().Bold(true).Foreground(textColor).Render("Notification")
	body := lipgloss.NewStyle().Width(innerW).Foreground(textColor).Render(strings.TrimSpace(message))
	ok := buttonStyle(true, false).Render("OK")
	hint := mutedStyle().Render("enter/esc to dismiss")

	content := strings.Join([]string{title, "", body, "", lipgloss.JoinHorizontal(lipgloss.Center, ok, "  ", hint)}, "\n")

	panel := lipgloss.NewStyle().
		Width(boxW).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 1).
		Render(content)

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
}
