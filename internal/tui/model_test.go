package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aihelper/aihelper-cli/internal/api"
	"github.com/aihelper/aihelper-cli/internal/homework"
	"github.com/aihelper/aihelper-cli/internal/notify"
	"github.com/aihelper/aihelper-cli/internal/router"
	"github.com/aihelper/aihelper-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

type harness struct {
	store *session.Store
	notes *notify.Surface
	nav   *router.Router
	calls *int32
	got   chan map[string]any
}

func newHarness(t *testing.T, handler http.HandlerFunc) (Model, *harness) {
	t.Helper()
	h := &harness{
		store: session.NewStore(),
		notes: notify.New(),
		nav:   router.New(router.RouteLogin),
		calls: new(int32),
		got:   make(chan map[string]any, 8),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(h.calls, 1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		h.got <- body
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	boot := session.NewBootstrap(h.store, session.LocalProvider{}, h.notes, h.nav, nil)
	t.Cleanup(boot.Close)

	m := NewModel(ctx, Config{
		Store:     h.store,
		Notes:     h.notes,
		Router:    h.nav,
		Bootstrap: boot,
		Backend:   api.Client{BaseURL: srv.URL},
	})
	t.Cleanup(m.bridge.close)
	// The returned command only waits for wakes and ticks.
	_ = m.Init()
	m = feed(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, h
}

func feed(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// press feeds msg and returns the messages its command produced within a
// short window. Commands that block (tick, blink, wake) are abandoned.
func press(t *testing.T, m Model, msg tea.Msg) (Model, []tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), collect(cmd)
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(300 * time.Millisecond):
		return nil
	}
}

func only[T any](msgs []tea.Msg) []tea.Msg {
	var out []tea.Msg
	for _, msg := range msgs {
		if _, ok := msg.(T); ok {
			out = append(out, msg)
		}
	}
	return out
}

func typeText(m Model, s string) Model {
	return feed(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func keyPress(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func signIn(m Model, h *harness) Model {
	h.store.Set(&session.User{ID: "user", DisplayName: "user", Email: "user@example.com"})
	return feed(m, wakeMsg{})
}

func TestModel_StartsOnLoginView(t *testing.T) {
	m, h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	if !h.store.Ready() {
		t.Fatalf("expected local bootstrap to be ready after Init")
	}
	view := m.View()
	if !strings.Contains(view, "Username") || !strings.Contains(view, "Password") {
		t.Fatalf("expected login form, got:\n%s", view)
	}
	if !strings.Contains(view, "AI Helper") {
		t.Fatalf("expected navbar brand, got:\n%s", view)
	}
}

func TestModel_LoginSuccessNavigatesHome(t *testing.T) {
	m, h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Welcome back!"}`))
	})

	m = typeText(m, "user")
	m = feed(m, keyPress(tea.KeyEnter))
	m = typeText(m, "pw")
	m, msgs := press(t, m, keyPress(tea.KeyEnter))
	if !m.loggingIn {
		t.Fatalf("expected the login button to be disabled while submitting")
	}
	done := only[loginDoneMsg](msgs)
	if len(done) != 1 {
		t.Fatalf("expected one login result, got %#v", msgs)
	}
	body := <-h.got
	if body["username"] != "user" || body["password"] != "pw" {
		t.Fatalf("unexpected login payload: %#v", body)
	}

	m = feed(m, done[0])
	if m.route != router.RouteHome {
		t.Fatalf("expected home route, got %q", m.route)
	}
	if !strings.Contains(m.View(), "Welcome back!") {
		t.Fatalf("expected success notification modal, got:\n%s", m.View())
	}

	m = feed(m, keyPress(tea.KeyEnter))
	view := m.View()
	if !strings.Contains(view, "Hello, user!") {
		t.Fatalf("expected greeting after dismissing modal, got:\n%s", view)
	}
	if !strings.Contains(view, "U") {
		t.Fatalf("expected avatar initial, got:\n%s", view)
	}
}

func TestModel_LoginWithoutPasswordNotifies(t *testing.T) {
	m, h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	m = typeText(m, "user")
	m = feed(m, keyPress(tea.KeyEnter))
	m, msgs := press(t, m, keyPress(tea.KeyEnter))

	if len(only[loginDoneMsg](msgs)) != 0 || atomic.LoadInt32(h.calls) != 0 {
		t.Fatalf("expected no request without a password")
	}
	if msg, _ := h.notes.Current(); msg != "Please enter both username and password." {
		t.Fatalf("unexpected notification %q", msg)
	}
	if m.loggingIn {
		t.Fatalf("expected the login button to stay enabled")
	}
}

func TestModel_ProtectedRouteRedirectsWithoutSession(t *testing.T) {
	m, h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	h.nav.Push(router.RouteHome)
	m = feed(m, wakeMsg{})
	if got := h.nav.Current(); got != router.RouteLogin {
		t.Fatalf("expected redirect to login, got %q", got)
	}
	if m.route != router.RouteLogin {
		t.Fatalf("expected model on login route, got %q", m.route)
	}
}

func TestModel_ModalSwallowsKeys(t *testing.T) {
	m, h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	m = signIn(m, h)
	h.nav.Push(router.RouteHome)
	m = feed(m, wakeMsg{})

	h.notes.Show("Heads up")
	m = feed(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if h.nav.Current() != router.RouteHome {
		t.Fatalf("expected keys to be swallowed while the modal is open")
	}
	if !strings.Contains(m.View(), "Heads up") {
		t.Fatalf("expected modal, got:\n%s", m.View())
	}

	m = feed(m, keyPress(tea.KeyEsc))
	if _, pending := h.notes.Current(); pending {
		t.Fatalf("expected esc to dismiss the modal")
	}
	m = feed(m, keyPress(tea.KeyEnter))
	if h.nav.Current() != router.RouteHelper {
		t.Fatalf("expected enter to open the helper, got %q", h.nav.Current())
	}
	if m.helper == nil {
		t.Fatalf("expected helper view state")
	}
}

func openHelper(t *testing.T, handler http.HandlerFunc) (Model, *harness) {
	t.Helper()
	m, h := newHarness(t, handler)
	m = signIn(m, h)
	h.nav.Push(router.RouteHelper)
	m = feed(m, wakeMsg{})
	if m.helper == nil {
		t.Fatalf("expected helper view")
	}
	return m, h
}

func TestModel_HelperSubmitShowsOutput(t *testing.T) {
	m, h := openHelper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"Mitochondria make ATP."}`))
	})

	m = typeText(m, "cell biology notes")
	m = feed(m, keyPress(tea.KeyTab))
	m = typeText(m, "summarize")
	m, msgs := press(t, m, keyPress(tea.KeyCtrlS))

	done := only[processDoneMsg](msgs)
	if len(done) != 1 {
		t.Fatalf("expected one process result, got %#v", msgs)
	}
	if !strings.Contains(m.View(), "Processing...") {
		t.Fatalf("expected disabled trigger while submitting, got:\n%s", m.View())
	}
	body := <-h.got
	if body["study_content"] != "cell biology notes" || body["prompt"] != "summarize" || body["api_choice"] != "gemini" {
		t.Fatalf("unexpected payload: %#v", body)
	}

	m = feed(m, done[0])
	if m.helper.state.Kind != homework.Succeeded {
		t.Fatalf("expected succeeded state, got %+v", m.helper.state)
	}
	if !strings.Contains(m.View(), "Mitochondria make ATP.") {
		t.Fatalf("expected output in view, got:\n%s", m.View())
	}
	if _, pending := h.notes.Current(); pending {
		t.Fatalf("expected no notification on success")
	}
}

func TestModel_HelperBlankInputMakesNoCall(t *testing.T) {
	m, h := openHelper(t, func(w http.ResponseWriter, r *http.Request) {})

	m, msgs := press(t, m, keyPress(tea.KeyCtrlS))
	if len(only[processDoneMsg](msgs)) != 0 || atomic.LoadInt32(h.calls) != 0 {
		t.Fatalf("expected no request for blank input")
	}
	if m.helper.state.Kind != homework.Idle {
		t.Fatalf("expected output pane untouched, got %+v", m.helper.state)
	}
	if msg, _ := h.notes.Current(); msg != homework.MsgMissingInput {
		t.Fatalf("unexpected notification %q", msg)
	}
}

func TestModel_HelperFailureText(t *testing.T) {
	m, _ := openHelper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"bad input"}`))
	})

	m = typeText(m, "notes")
	m = feed(m, keyPress(tea.KeyTab))
	m = typeText(m, "quiz me")
	m, msgs := press(t, m, keyPress(tea.KeyCtrlS))
	done := only[processDoneMsg](msgs)
	if len(done) != 1 {
		t.Fatalf("expected one process result, got %#v", msgs)
	}
	m = feed(m, done[0], keyPress(tea.KeyEsc))
	if view := m.View(); !strings.Contains(view, "Error: bad input") {
		t.Fatalf("expected backend detail in output, got:\n%s", view)
	}

	m.helper.setState(homework.State{Kind: homework.Failed, Message: "Network error: connection refused"})
	view := m.View()
	if !strings.Contains(view, "Network error: connection refused") || strings.Contains(view, "Error: Network error") {
		t.Fatalf("expected network message as is, got:\n%s", view)
	}

	// Blank input leaves the pane alone.
	m.helper.content.Reset()
	m = feed(m, keyPress(tea.KeyCtrlS), keyPress(tea.KeyEsc))
	if m.helper.state.Message != "Network error: connection refused" {
		t.Fatalf("expected previous output kept, got %+v", m.helper.state)
	}
}

func TestModel_HelperVariantPicker(t *testing.T) {
	m, h := openHelper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"ok"}`))
	})

	m = feed(m, keyPress(tea.KeyCtrlO))
	if !m.helper.pickerOpen {
		t.Fatalf("expected picker to open")
	}
	m = feed(m, keyPress(tea.KeyDown), keyPress(tea.KeyEnter))
	if m.helper.pickerOpen || m.helper.variant != homework.VariantLlama {
		t.Fatalf("expected llama selected, got %q (open=%v)", m.helper.variant, m.helper.pickerOpen)
	}

	m = typeText(m, "notes")
	m = feed(m, keyPress(tea.KeyTab))
	m = typeText(m, "quiz me")
	_, msgs := press(t, m, keyPress(tea.KeyCtrlS))
	if len(only[processDoneMsg](msgs)) != 1 {
		t.Fatalf("expected a submission, got %#v", msgs)
	}
	if body := <-h.got; body["api_choice"] != "llama" {
		t.Fatalf("expected llama, got %#v", body)
	}
}

func TestModel_LeavingHelperDropsStaleResult(t *testing.T) {
	m, _ := openHelper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"late"}`))
	})

	m = typeText(m, "notes")
	m = feed(m, keyPress(tea.KeyTab))
	m = typeText(m, "quiz me")
	m, msgs := press(t, m, keyPress(tea.KeyCtrlS))
	done := only[processDoneMsg](msgs)
	if len(done) != 1 {
		t.Fatalf("expected a submission, got %#v", msgs)
	}

	m = feed(m, keyPress(tea.KeyEsc))
	if m.route != router.RouteHome || m.helper != nil {
		t.Fatalf("expected helper state discarded on leave")
	}
	m = feed(m, done[0], keyPress(tea.KeyEnter))
	if m.helper == nil || m.helper.state.Kind != homework.Idle {
		t.Fatalf("expected a fresh idle helper, got %+v", m.helper)
	}
	if m.helper.variant != homework.VariantGemini {
		t.Fatalf("expected variant reset to gemini, got %q", m.helper.variant)
	}
}

func TestModel_LogoutReturnsToLogin(t *testing.T) {
	m, h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	m = signIn(m, h)
	h.nav.Push(router.RouteHome)
	m = feed(m, wakeMsg{})

	m, msgs := press(t, m, keyPress(tea.KeyCtrlL))
	m = feed(m, msgs...)

	if h.store.Current() != nil {
		t.Fatalf("expected session cleared")
	}
	if m.route != router.RouteLogin {
		t.Fatalf("expected login route, got %q", m.route)
	}
	if msg, _ := h.notes.Current(); msg != "Logged out successfully!" {
		t.Fatalf("unexpected notification %q", msg)
	}
}

func TestModel_CopyOutput(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	m, h := openHelper(t, func(w http.ResponseWriter, r *http.Request) {})
	m.helper.setState(homework.State{Kind: homework.Succeeded, Output: "answer"})

	m = feed(m, keyPress(tea.KeyCtrlY))
	msg, _ := h.notes.Current()
	switch {
	case copied == "answer" && msg == "Output copied to clipboard.":
	case copied == "" && strings.HasPrefix(msg, "Copy failed: "):
		// no clipboard backend on this machine
	default:
		t.Fatalf("unexpected copy outcome: copied=%q note=%q", copied, msg)
	}
}
