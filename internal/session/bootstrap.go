package session

import (
	"context"
	"sync"

	"github.com/aihelper/aihelper-cli/internal/notify"
	"github.com/aihelper/aihelper-cli/internal/router"

	"go.uber.org/zap"
)

type Phase int

const (
	PhaseBootstrapping Phase = iota
	PhaseAuthenticated
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "bootstrapping"
	}
}

// Bootstrap establishes the startup session and keeps the store in sync with
// the provider until Close.
type Bootstrap struct {
	store    *Store
	provider Provider
	notes    notify.Notifier
	nav      router.Navigator
	log      *zap.Logger

	mu          sync.Mutex
	started     bool
	closed      bool
	cancel      context.CancelFunc
	unsubscribe func()
	ready       chan struct{}
	done        chan struct{}
}

func NewBootstrap(store *Store, provider Provider, notes notify.Notifier, nav router.Navigator, log *zap.Logger) *Bootstrap {
	if provider == nil {
		provider = LocalProvider{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrap{
		store:    store,
		provider: provider,
		notes:    notes,
		nav:      nav,
		log:      log,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the initial session attempt and returns a channel closed once
// readiness is set. With the local provider readiness is set before Start
// returns. Calling Start again returns the same channel; after Close it is
// already closed.
func (b *Bootstrap) Start(ctx context.Context) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return b.ready
	}
	b.started = true

	if !b.provider.Remote() {
		b.store.MarkReady()
		close(b.ready)
		close(b.done)
		b.log.Info("no identity provider configured; using local session", zap.String("module", "bootstrap"))
		return b.ready
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	go b.run(ctx)
	return b.ready
}

func (b *Bootstrap) run(ctx context.Context) {
	defer close(b.done)

	if err := b.provider.Establish(ctx); err != nil {
		if ctx.Err() == nil {
			b.log.Warn("identity sign-in failed", zap.String("module", "bootstrap"), zap.Error(err))
			b.notes.Show("Authentication failed: " + err.Error())
		}
	} else {
		b.log.Info("identity session established", zap.String("module", "bootstrap"))
	}
	b.store.MarkReady()
	close(b.ready)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.unsubscribe = b.provider.Subscribe(b.onSessionChange)
}

func (b *Bootstrap) onSessionChange(u *User) {
	b.store.Set(u)
	if u != nil {
		return
	}
	if b.nav.Current() != router.RouteLogin {
		b.log.Info("session ended; redirecting to login", zap.String("module", "bootstrap"))
		b.nav.Push(router.RouteLogin)
	}
}

// Phase is derived from the store so login-flow updates are reflected too.
func (b *Bootstrap) Phase() Phase {
	snap := b.store.Snapshot()
	switch {
	case !snap.Ready:
		return PhaseBootstrapping
	case snap.User != nil:
		return PhaseAuthenticated
	default:
		return PhaseUnauthenticated
	}
}

func (b *Bootstrap) Provider() Provider {
	return b.provider
}

// Logout signs out of the provider, clears the session and returns to login.
func (b *Bootstrap) Logout(ctx context.Context) {
	if b.provider.Remote() {
		if err := b.provider.SignOut(ctx); err != nil {
			b.log.Warn("sign-out failed", zap.String("module", "bootstrap"), zap.Error(err))
			b.notes.Show("Logout failed: " + err.Error())
			b.nav.Push(router.RouteLogin)
			return
		}
	}
	b.store.Clear()
	b.notes.Show("Logged out successfully!")
	b.nav.Push(router.RouteLogin)
}

// Close cancels an in-flight attempt and releases the subscription. No
// provider callback reaches the store after Close returns.
func (b *Bootstrap) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	started := b.started
	if !started {
		// Nothing will ever become ready; release anyone waiting on Start.
		close(b.ready)
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Unlock()

	if started {
		<-b.done
	}

	b.mu.Lock()
	unsub := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
