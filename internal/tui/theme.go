package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

// Adaptive so the UI stays readable on light and dark terminal backgrounds.
var (
	textColor = lipgloss.AdaptiveColor{Light: "#1f2937", Dark: "#f3f4f6"}
	muted     = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	// Borders must remain visible on light terminals; keep light-theme borders darker.
	border = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#d1d5db"}
	accent = lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#60a5fa"}
	danger = lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}
)

func faintIfDark(s lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return s.Faint(true)
	}
	return s
}

func brandStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(accent)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(muted)
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(danger).Bold(true)
}

func cardStyle(active bool) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	if active {
		s = s.BorderForeground(accent)
	}
	return s
}

func buttonStyle(focused, disabled bool) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.NormalBorder()).BorderForeground(border).Foreground(textColor)
	switch {
	case disabled:
		return faintIfDark(s.Foreground(muted))
	case focused:
		return s.BorderForeground(accent).Foreground(accent).Bold(true)
	}
	return s
}

func avatarStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#2563eb")).Padding(0, 1)
}

func pickerListStyles() list.Styles {
	s := list.DefaultStyles()

	s.TitleBar = lipgloss.NewStyle().Padding(0, 0, 1, 0)
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(textColor).UnsetBackground()
	s.NoItems = lipgloss.NewStyle().Foreground(muted)
	s.PaginationStyle = lipgloss.NewStyle().PaddingLeft(0)
	s.HelpStyle = lipgloss.NewStyle().Padding(1, 0, 0, 0).Foreground(muted)

	return s
}

func pickerItemStyles() list.DefaultItemStyles {
	s := list.NewDefaultItemStyles()

	s.NormalTitle = lipgloss.NewStyle().
		Foreground(textColor).
		Padding(0, 0, 0, 2)

	s.NormalDesc = lipgloss.NewStyle().
		Foreground(muted).
		Padding(0, 0, 0, 2)

	s.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(accent).
		Foreground(textColor).
		Bold(true).
		Padding(0, 0, 0, 1)

	s.SelectedDesc = s.SelectedTitle.
		Bold(false).
		Foreground(textColor)

	return s
}
