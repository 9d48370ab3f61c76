package tui

import (
	"context"
	"time"

	"github.com/aihelper/aihelper-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const refreshCheckInterval = 30 * time.Second

type refreshTickMsg struct{}

type sessionRefreshedMsg struct {
	err error
}

// refresher is implemented by providers whose tokens expire.
type refresher interface {
	NeedsRefresh(now time.Time) bool
	Refresh(ctx context.Context) error
}

var _ refresher = (*session.ExternalProvider)(nil)

func refreshTickCmd() tea.Cmd {
	return tea.Tick(refreshCheckInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// refreshSessionCmd renews the id token when it is about to expire. A
// rejected refresh ends the session through the provider's listeners.
func refreshSessionCmd(ctx context.Context, p session.Provider, now time.Time) tea.Cmd {
	r, ok := p.(refresher)
	if !ok || !r.NeedsRefresh(now) {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		return sessionRefreshedMsg{err: r.Refresh(ctx)}
	}
}

func logRefresh(log *zap.Logger, err error) {
	if err != nil {
		log.Warn("session refresh failed", zap.String("module", "tui"), zap.Error(err))
		return
	}
	log.Debug("session refreshed", zap.String("module", "tui"))
}
