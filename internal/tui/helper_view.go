package tui

import (
	"strings"

	"github.com/aihelper/aihelper-cli/internal/homework"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const outputPlaceholder = "Your AI-generated output will appear here."

type helperFocus int

const (
	helperFocusContent helperFocus = iota
	helperFocusPrompt
	helperFocusVariant
	helperFocusSubmit
	helperFocusCount
)

type variantItem struct {
	variant homework.Variant
	desc    string
}

func (i variantItem) Title() string       { return i.variant.Label() }
func (i variantItem) Description() string { return i.desc }
func (i variantItem) FilterValue() string { return string(i.variant) }

// helperView lives as long as the AI-helper route is displayed; leaving the
// route discards its inputs, variant and request state.
type helperView struct {
	orch *homework.Orchestrator
	gen  int

	content textarea.Model
	prompt  textarea.Model
	focus   helperFocus

	variant    homework.Variant
	picker     list.Model
	pickerOpen bool

	output viewport.Model
	state  homework.State

	width int
}

func newHelperView(orch *homework.Orchestrator, gen int) helperView {
	content := textarea.New()
	content.Placeholder = "Paste your study content here..."
	content.ShowLineNumbers = false
	content.CharLimit = 0
	content.MaxHeight = 0

	prompt := textarea.New()
	prompt.Placeholder = "e.g. Summarize this, make flashcards, explain photosynthesis..."
	prompt.ShowLineNumbers = false
	prompt.CharLimit = 0
	prompt.SetHeight(3)

	v := helperView{
		orch:    orch,
		gen:     gen,
		content: content,
		prompt:  prompt,
		variant: homework.VariantGemini,
		picker:  newVariantPicker(),
		output:  viewport.New(0, 0),
	}
	v.applyFocus()
	v.layout(80, 24)
	return v
}

func newVariantPicker() list.Model {
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	d.Styles = pickerItemStyles()
	items := []list.Item{
		variantItem{variant: homework.VariantGemini, desc: "Google Gemini (default)"},
		variantItem{variant: homework.VariantLlama, desc: "Meta Llama"},
	}
	l := list.New(items, d, 30, 8)
	l.Title = "Choose API"
	l.Styles = pickerListStyles()
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func (v *helperView) layout(width, bodyH int) {
	v.width = width
	w := maxInt(30, width-6)
	contentH := maxInt(3, bodyH/3)
	v.content.SetWidth(w)
	v.content.SetHeight(contentH)
	v.prompt.SetWidth(w)
	v.output.Width = w
	v.output.Height = maxInt(3, bodyH-contentH-v.prompt.Height()-12)
	v.refreshOutput()
}

func (v *helperView) applyFocus() tea.Cmd {
	v.content.Blur()
	v.prompt.Blur()
	switch v.focus {
	case helperFocusContent:
		return v.content.Focus()
	case helperFocusPrompt:
		return v.prompt.Focus()
	}
	return nil
}

func (v *helperView) move(delta int) tea.Cmd {
	v.focus = helperFocus((int(v.focus) + delta + int(helperFocusCount)) % int(helperFocusCount))
	return v.applyFocus()
}

func (v helperView) input() homework.Input {
	return homework.Input{
		StudyContent: v.content.Value(),
		Prompt:       v.prompt.Value(),
		Variant:      v.variant,
	}
}

func (v helperView) submitting() bool {
	return v.state.Kind == homework.Submitting
}

func (v *helperView) setState(st homework.State) {
	v.state = st
	v.refreshOutput()
}

func (v *helperView) refreshOutput() {
	w := maxInt(10, v.output.Width)
	switch v.state.Kind {
	case homework.Succeeded:
		v.output.SetContent(lipgloss.NewStyle().Width(w).Render(v.state.Output))
		v.output.GotoTop()
	default:
		v.output.SetContent("")
	}
}

func (v *helperView) openPicker() {
	v.pickerOpen = true
	for i, it := range v.picker.Items() {
		if vi, ok := it.(variantItem); ok && vi.variant == v.variant {
			v.picker.Select(i)
		}
	}
}

// update handles a key. submit is true when a submission was requested and
// the trigger is enabled.
func (v helperView) update(msg tea.KeyMsg, keys keyMap) (helperView, tea.Cmd, bool) {
	if v.pickerOpen {
		switch msg.String() {
		case "esc":
			v.pickerOpen = false
			return v, nil, false
		case "enter":
			if it, ok := v.picker.SelectedItem().(variantItem); ok {
				v.variant = it.variant
			}
			v.pickerOpen = false
			return v, nil, false
		}
		var cmd tea.Cmd
		v.picker, cmd = v.picker.Update(translateNavKeys(msg))
		return v, cmd, false
	}

	switch {
	case key.Matches(msg, keys.Next):
		cmd := v.move(1)
		return v, cmd, false
	case key.Matches(msg, keys.Prev):
		cmd := v.move(-1)
		return v, cmd, false
	case key.Matches(msg, keys.Submit):
		return v, nil, !v.submitting()
	case key.Matches(msg, keys.Variant):
		v.openPicker()
		return v, nil, false
	case key.Matches(msg, keys.Scroll):
		var cmd tea.Cmd
		v.output, cmd = v.output.Update(msg)
		return v, cmd, false
	}

	if msg.String() == "enter" {
		switch v.focus {
		case helperFocusVariant:
			v.openPicker()
			return v, nil, false
		case helperFocusSubmit:
			return v, nil, !v.submitting()
		}
	}

	var cmd tea.Cmd
	switch v.focus {
	case helperFocusContent:
		v.content, cmd = v.content.Update(msg)
	case helperFocusPrompt:
		v.prompt, cmd = v.prompt.Update(msg)
	}
	return v, cmd, false
}

func (v helperView) view(spin string) string {
	label := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render

	variantBtn := buttonStyle(v.focus == helperFocusVariant, false).Render("API: " + v.variant.Label() + " ▾")
	submitLabel := "Get AI Help"
	if v.submitting() {
		submitLabel = "Processing..."
	}
	submitBtn := buttonStyle(v.focus == helperFocusSubmit, v.submitting()).Render(submitLabel)

	var output string
	switch v.state.Kind {
	case homework.Submitting:
		output = spin + " " + mutedStyle().Render("Processing your request...")
	case homework.Failed:
		output = errorStyle().Render(v.state.Message)
	case homework.Succeeded:
		output = v.output.View()
	default:
		output = mutedStyle().Render(outputPlaceholder)
	}

	parts := []string{
		brandStyle().Render("AI Homework Helper"),
		"",
		label("Study content"),
		cardStyle(v.focus == helperFocusContent).Render(v.content.View()),
		label("Prompt"),
		cardStyle(v.focus == helperFocusPrompt).Render(v.prompt.View()),
		lipgloss.JoinHorizontal(lipgloss.Center, variantBtn, " ", submitBtn),
		label("Output"),
		cardStyle(false).Width(maxInt(30, v.width-4)).Render(output),
	}
	body := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, "\n"))
	if !v.pickerOpen {
		return body
	}
	picker := cardStyle(true).Padding(1, 2).Render(v.picker.View())
	return lipgloss.JoinVertical(lipgloss.Left, body, picker)
}
