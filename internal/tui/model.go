// Package tui is the interactive client: a navbar, the login, home and AI
// helper views, and the modal notification surface.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aihelper/aihelper-cli/internal/buildinfo"
	"github.com/aihelper/aihelper-cli/internal/homework"
	"github.com/aihelper/aihelper-cli/internal/login"
	"github.com/aihelper/aihelper-cli/internal/notify"
	"github.com/aihelper/aihelper-cli/internal/router"
	"github.com/aihelper/aihelper-cli/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Backend is the HTTP surface both flows use.
type Backend interface {
	login.Authenticator
	homework.Processor
}

type Config struct {
	Store     *session.Store
	Notes     *notify.Surface
	Router    *router.Router
	Bootstrap *session.Bootstrap
	Backend   Backend
	Log       *zap.Logger
}

// wakeMsg means shared state changed off the UI goroutine.
type wakeMsg struct{}

type loginDoneMsg struct {
	res login.Result
}

type processDoneMsg struct {
	gen   int
	state homework.State
}

type logoutDoneMsg struct{}

// bridge forwards store, router and notification changes into the program.
// Sends coalesce: the UI re-reads shared state on every wake.
type bridge struct {
	wake chan struct{}

	mu      sync.Mutex
	cancels []func()
}

func (b *bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *bridge) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.cancels {
		c()
	}
	b.cancels = nil
}

type Model struct {
	cfg    Config
	ctx    context.Context
	log    *zap.Logger
	bridge *bridge

	width  int
	height int

	route      router.Route
	loginView  loginView
	loggingIn  bool
	loginFlow  *login.Flow
	helper     *helperView
	helperGen  int
	loggingOut bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, cfg)
	defer m.bridge.close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func NewModel(ctx context.Context, cfg Config) Model {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	b := &bridge{wake: make(chan struct{}, 1)}
	b.cancels = append(b.cancels,
		cfg.Store.Subscribe(func(session.Snapshot) { b.signal() }),
		cfg.Router.Subscribe(func(router.Route) { b.signal() }),
		cfg.Notes.Subscribe(func(string, bool) { b.signal() }),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	m := Model{
		cfg:       cfg,
		ctx:       ctx,
		log:       log,
		bridge:    b,
		width:     80,
		height:    24,
		route:     cfg.Router.Current(),
		loginView: newLoginView(),
		loginFlow: login.New(cfg.Backend, cfg.Store, cfg.Notes, cfg.Router, log),
		spinner:   sp,
		help:      help.New(),
		keys:      defaultKeyMap(),
	}
	if m.route == router.RouteHelper {
		m.enterHelper()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.cfg.Bootstrap != nil {
		m.cfg.Bootstrap.Start(m.ctx)
	}
	return tea.Batch(m.waitForWake(), m.spinner.Tick, refreshTickCmd())
}

func (m Model) waitForWake() tea.Cmd {
	ctx, ch := m.ctx, m.bridge.wake
	return func() tea.Msg {
		select {
		case <-ch:
			return wakeMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	routeCmd := m.syncRoute()
	return m, tea.Batch(cmd, routeCmd)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case wakeMsg:
		return m, m.waitForWake()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshTickMsg:
		var provider session.Provider
		if m.cfg.Bootstrap != nil {
			provider = m.cfg.Bootstrap.Provider()
		}
		return m, tea.Batch(refreshTickCmd(), refreshSessionCmd(m.ctx, provider, time.Now()))

	case sessionRefreshedMsg:
		logRefresh(m.log, msg.err)
		return m, nil

	case loginDoneMsg:
		m.loggingIn = false
		if !msg.res.OK {
			m.loginView.password.SetValue("")
		}
		return m, nil

	case processDoneMsg:
		// A result for a helper view that was left in the meantime is dropped.
		if m.helper != nil && m.helper.gen == msg.gen {
			m.helper.setState(msg.state)
		}
		return m, nil

	case logoutDoneMsg:
		m.loggingOut = false
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The modal swallows everything except acknowledge.
	if _, pending := m.cfg.Notes.Current(); pending {
		if key.Matches(msg, m.keys.Dismiss) {
			m.cfg.Notes.Close()
		}
		return m, nil
	}

	if !m.cfg.Store.Ready() {
		return m, nil
	}

	if key.Matches(msg, m.keys.Logout) && m.cfg.Store.Current() != nil {
		cmd := m.logoutCmd()
		return m, cmd
	}

	switch m.route {
	case router.RouteLogin:
		var cmd tea.Cmd
		var submit bool
		m.loginView, cmd, submit = m.loginView.update(msg, m.keys)
		if submit {
			loginCmd := m.loginCmd()
			return m, tea.Batch(cmd, loginCmd)
		}
		return m, cmd

	case router.RouteHome:
		if session.Evaluate(m.cfg.Store) != session.GuardRender {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Open):
			m.cfg.Router.Push(router.RouteHelper)
		case key.Matches(msg, m.keys.QuitHome):
			return m, tea.Quit
		}
		return m, nil

	case router.RouteHelper:
		if m.helper == nil || session.Evaluate(m.cfg.Store) != session.GuardRender {
			return m, nil
		}
		if key.Matches(msg, m.keys.Back) && !m.helper.pickerOpen {
			m.cfg.Router.Push(router.RouteHome)
			return m, nil
		}
		if key.Matches(msg, m.keys.Copy) {
			m.copyOutput()
			return m, nil
		}
		h, cmd, submit := m.helper.update(msg, m.keys)
		m.helper = &h
		if submit {
			processCmd := m.processCmd()
			return m, tea.Batch(cmd, processCmd)
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) loginCmd() tea.Cmd {
	if m.loggingIn {
		return nil
	}
	creds := m.loginView.credentials()
	if err := m.loginFlow.Start(creds); err != nil {
		return nil
	}
	m.loggingIn = true
	ctx, flow := m.ctx, m.loginFlow
	return func() tea.Msg {
		return loginDoneMsg{res: flow.Finish(ctx, creds)}
	}
}

func (m *Model) processCmd() tea.Cmd {
	h := m.helper
	// Rejected input only raises a notification; the output pane keeps
	// whatever it showed before.
	req, err := h.orch.Start(h.input())
	if err != nil {
		return nil
	}
	h.setState(h.orch.State())
	ctx, orch, gen := m.ctx, h.orch, h.gen
	return func() tea.Msg {
		return processDoneMsg{gen: gen, state: orch.Finish(ctx, req)}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	if m.loggingOut || m.cfg.Bootstrap == nil {
		if m.cfg.Bootstrap == nil {
			m.cfg.Store.Clear()
			m.cfg.Notes.Show("Logged out successfully!")
			m.cfg.Router.Push(router.RouteLogin)
		}
		return nil
	}
	m.loggingOut = true
	ctx, b := m.ctx, m.cfg.Bootstrap
	return func() tea.Msg {
		b.Logout(ctx)
		return logoutDoneMsg{}
	}
}

func (m *Model) copyOutput() {
	if m.helper == nil || m.helper.state.Kind != homework.Succeeded {
		return
	}
	if err := copyToClipboard(m.helper.state.Output); err != nil {
		m.log.Warn("copy to clipboard failed", zap.String("module", "tui"), zap.Error(err))
		m.cfg.Notes.Show("Copy failed: " + err.Error())
		return
	}
	m.cfg.Notes.Show("Output copied to clipboard.")
}

// syncRoute runs the page guard and rebuilds view-scoped state when the
// displayed route changes.
func (m *Model) syncRoute() tea.Cmd {
	var cmds []tea.Cmd
	for i := 0; i < 3; i++ {
		r := m.cfg.Router.Current()
		if r.Protected() {
			if session.Guard(m.cfg.Store, m.cfg.Router) == session.GuardRedirect {
				continue
			}
		}
		if r == m.route {
			break
		}
		m.log.Debug("route changed", zap.String("module", "tui"), zap.String("from", string(m.route)), zap.String("to", string(r)))
		if m.route == router.RouteHelper {
			m.helper = nil
		}
		m.route = r
		switch r {
		case router.RouteLogin:
			m.loginView = newLoginView()
			cmds = append(cmds, m.loginView.applyFocus())
		case router.RouteHelper:
			cmds = append(cmds, m.enterHelper())
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) enterHelper() tea.Cmd {
	m.helperGen++
	h := newHelperView(homework.New(m.cfg.Backend, m.cfg.Notes, m.log), m.helperGen)
	m.helper = &h
	m.layout()
	return h.applyFocus()
}

func (m *Model) layout() {
	if m.helper != nil {
		m.helper.layout(m.width, m.bodyHeight())
	}
}

func (m Model) bodyHeight() int {
	return maxInt(10, m.height-4)
}

func (m Model) View() string {
	if msg, pending := m.cfg.Notes.Current(); pending {
		return renderModal(msg, m.width, m.height)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderNavbar(), m.renderBody(), m.renderFooter())
}

func (m Model) renderBody() string {
	loading := m.spinner.View() + " " + mutedStyle().Render("Loading...")
	if !m.cfg.Store.Ready() {
		return lipgloss.NewStyle().Padding(1, 2).Render(loading)
	}
	if m.route.Protected() {
		switch session.Evaluate(m.cfg.Store) {
		case session.GuardLoading:
			return lipgloss.NewStyle().Padding(1, 2).Render(loading)
		case session.GuardRedirect:
			return lipgloss.NewStyle().Padding(1, 2).Render(mutedStyle().Render("Redirecting to login…"))
		}
	}
	switch m.route {
	case router.RouteHome:
		return renderHome(m.cfg.Store.Current(), m.width)
	case router.RouteHelper:
		if m.helper != nil {
			return m.helper.view(m.spinner.View())
		}
	}
	return m.loginView.view(m.width, m.loggingIn)
}

func (m Model) renderNavbar() string {
	w := maxInt(40, m.width)
	left := brandStyle().Render("AI Helper") + " " + mutedStyle().Render(buildinfo.Summary())

	var right string
	if u := m.cfg.Store.Current(); u != nil {
		name := truncateRunes(u.Label(), 32)
		right = avatarStyle().Render(u.Initial()) + " " + lipgloss.NewStyle().Foreground(textColor).Render(name) +
			"  " + mutedStyle().Render("ctrl+l Logout")
	} else {
		right = mutedStyle().Render("Login")
	}

	gap := maxInt(1, w-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	sep := lipgloss.NewStyle().Foreground(border).Render(strings.Repeat("─", w))
	return bar + "\n" + sep
}

func (m Model) renderFooter() string {
	return m.help.View(m.keysForRoute())
}

func (m Model) keysForRoute() bindings {
	k := m.keys
	switch m.route {
	case router.RouteHome:
		return bindings{k.Open, k.Logout, k.QuitHome, k.Quit}
	case router.RouteHelper:
		if m.helper != nil && m.helper.pickerOpen {
			return bindings{k.PickerNav, k.Enter, k.Back}
		}
		return bindings{k.Next, k.Submit, k.Variant, k.Copy, k.Scroll, k.Back, k.Logout, k.Quit}
	}
	return bindings{k.Next, k.Enter, k.Quit}
}
