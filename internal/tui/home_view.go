package tui

import (
	"fmt"
	"strings"

	"github.com/aihelper/aihelper-cli/internal/session"

	"github.com/charmbracelet/lipgloss"
)

func renderHome(u *session.User, width int) string {
	w := maxInt(40, width)

	greeting := lipgloss.NewStyle().Bold(true).Foreground(textColor).Render(fmt.Sprintf("Hello, %s!", u.Label()))
	welcome := mutedStyle().Render("Welcome to your AI study companion. Pick a tool to get started.")

	card := cardStyle(true).Width(minInt(60, w-4)).Render(strings.Join([]string{
		brandStyle().Render("AI Helper"),
		"Paste your study material, ask a question and get an answer from Gemini or Llama.",
		"",
		mutedStyle().Render("Press enter to open"),
	}, "\n"))

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join([]string{greeting, welcome, "", card}, "\n"))
}
