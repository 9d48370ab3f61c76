package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPickerListStyles_AreTextFirst(t *testing.T) {
	s := pickerListStyles()

	var wantNoColor lipgloss.TerminalColor = lipgloss.NoColor{}
	if got := s.Title.GetBackground(); got != wantNoColor {
		t.Fatalf("expected list title background to be unset (%T), got %T", wantNoColor, got)
	}
}

func TestPickerItemStyles_SelectedHasAccentBorder(t *testing.T) {
	s := pickerItemStyles()

	if !s.SelectedTitle.GetBorderLeft() {
		t.Fatalf("expected SelectedTitle to have left border enabled")
	}
	if !s.SelectedDesc.GetBorderLeft() {
		t.Fatalf("expected SelectedDesc to have left border enabled")
	}

	var wantAccent lipgloss.TerminalColor = accent
	if got := s.SelectedTitle.GetBorderLeftForeground(); got != wantAccent {
		t.Fatalf("expected SelectedTitle left border foreground %v, got %v", wantAccent, got)
	}
	if !s.SelectedTitle.GetBold() {
		t.Fatalf("expected SelectedTitle to be bold")
	}
}

func TestButtonStyle_FocusUsesAccent(t *testing.T) {
	var wantAccent lipgloss.TerminalColor = accent
	if got := buttonStyle(true, false).GetForeground(); got != wantAccent {
		t.Fatalf("expected focused button foreground %v, got %v", wantAccent, got)
	}
	var wantMuted lipgloss.TerminalColor = muted
	if got := buttonStyle(true, true).GetForeground(); got != wantMuted {
		t.Fatalf("expected disabled button to be muted even when focused, got %v", got)
	}
}
