package tui

import (
	"strings"

	"github.com/aihelper/aihelper-cli/internal/login"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	loginFocusUsername = iota
	loginFocusPassword
	loginFocusButton
	loginFocusCount
)

type loginView struct {
	username textinput.Model
	password textinput.Model
	focus    int
}

func newLoginView() loginView {
	u := textinput.New()
	u.Prompt = ""
	u.Placeholder = "Username"
	u.CharLimit = 256
	u.Width = 32

	p := textinput.New()
	p.Prompt = ""
	p.Placeholder = "Password"
	p.CharLimit = 256
	p.Width = 32
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	v := loginView{username: u, password: p}
	v.applyFocus()
	return v
}

func (v loginView) credentials() login.Credentials {
	return login.Credentials{
		Username: v.username.Value(),
		Password: v.password.Value(),
	}
}

func (v *loginView) applyFocus() tea.Cmd {
	v.username.Blur()
	v.password.Blur()
	switch v.focus {
	case loginFocusUsername:
		return v.username.Focus()
	case loginFocusPassword:
		return v.password.Focus()
	}
	return nil
}

func (v *loginView) move(delta int) tea.Cmd {
	v.focus = (v.focus + delta + loginFocusCount) % loginFocusCount
	return v.applyFocus()
}

// update handles a key while the login view is active. submit is true when
// the user asked to log in.
func (v loginView) update(msg tea.KeyMsg, keys keyMap) (loginView, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Next), msg.String() == "down":
		cmd := v.move(1)
		return v, cmd, false
	case key.Matches(msg, keys.Prev), msg.String() == "up":
		cmd := v.move(-1)
		return v, cmd, false
	case key.Matches(msg, keys.Enter):
		if v.focus == loginFocusUsername {
			cmd := v.move(1)
			return v, cmd, false
		}
		return v, nil, true
	}

	var cmd tea.Cmd
	switch v.focus {
	case loginFocusUsername:
		v.username, cmd = v.username.Update(msg)
	case loginFocusPassword:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd, false
}

func (v loginView) view(width int, submitting bool) string {
	label := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render
	field := func(s string, focused bool) string {
		return cardStyle(focused).Width(36).Render(s)
	}

	buttonLabel := "Login"
	if submitting {
		buttonLabel = "Logging in..."
	}
	button := buttonStyle(v.focus == loginFocusButton, submitting).Render(buttonLabel)

	form := strings.Join([]string{
		brandStyle().Render("Login"),
		"",
		label("Username"),
		field(v.username.View(), v.focus == loginFocusUsername),
		label("Password"),
		field(v.password.View(), v.focus == loginFocusPassword),
		"",
		button,
	}, "\n")

	return lipgloss.PlaceHorizontal(maxInt(width, 40), lipgloss.Center, cardStyle(false).Padding(1, 3).Render(form))
}
