package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aihelper/aihelper-cli/internal/identity"

	"go.uber.org/zap"
)

// refreshWindow is how close to expiry an id token gets refreshed.
const refreshWindow = 2 * time.Minute

// Provider establishes sessions and reports session changes. One
// implementation is selected at startup and kept for the process lifetime.
type Provider interface {
	// Remote is false for the local simulated provider, which never
	// establishes or reports sessions on its own.
	Remote() bool
	Establish(ctx context.Context) error
	// Subscribe delivers the current session immediately and every change
	// after that until the returned func is called.
	Subscribe(fn func(*User)) (cancel func())
	SignOut(ctx context.Context) error
}

// IdentityClient is the part of identity.Client the external provider uses.
type IdentityClient interface {
	SignInWithCustomToken(ctx context.Context, token string) (identity.Account, error)
	SignUpAnonymous(ctx context.Context) (identity.Account, error)
	Refresh(ctx context.Context, refreshToken string) (identity.Account, error)
}

// NewProvider picks the external provider when an identity configuration is
// present and the local one otherwise.
func NewProvider(cfg identity.Config, client IdentityClient, initialToken string, log *zap.Logger) Provider {
	if cfg.Empty() || client == nil {
		return LocalProvider{}
	}
	return NewExternalProvider(client, initialToken, log)
}

// LocalProvider leaves the session entirely to the login flow.
type LocalProvider struct{}

func (LocalProvider) Remote() bool                    { return false }
func (LocalProvider) Establish(context.Context) error { return nil }
func (LocalProvider) Subscribe(func(*User)) func()    { return func() {} }
func (LocalProvider) SignOut(context.Context) error   { return nil }

type ExternalProvider struct {
	client       IdentityClient
	initialToken string
	log          *zap.Logger

	mu        sync.Mutex
	account   *identity.Account
	user      *User
	nextID    int
	listeners map[int]func(*User)

	// deliverMu serializes callbacks so a cancelled subscription is never
	// invoked after cancel returns.
	deliverMu sync.Mutex
}

func NewExternalProvider(client IdentityClient, initialToken string, log *zap.Logger) *ExternalProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExternalProvider{
		client:       client,
		initialToken: strings.TrimSpace(initialToken),
		log:          log,
	}
}

func (p *ExternalProvider) Remote() bool { return true }

// Establish exchanges the initial auth token when one was provided and
// signs in anonymously otherwise.
func (p *ExternalProvider) Establish(ctx context.Context) error {
	var (
		acct identity.Account
		err  error
	)
	if p.initialToken != "" {
		acct, err = p.client.SignInWithCustomToken(ctx, p.initialToken)
	} else {
		acct, err = p.client.SignUpAnonymous(ctx)
	}
	if err != nil {
		return err
	}
	p.setAccount(&acct)
	return nil
}

func (p *ExternalProvider) Subscribe(fn func(*User)) func() {
	p.deliverMu.Lock()
	p.mu.Lock()
	if p.listeners == nil {
		p.listeners = map[int]func(*User){}
	}
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.user.clone()
	p.mu.Unlock()
	fn(current)
	p.deliverMu.Unlock()

	return func() {
		p.deliverMu.Lock()
		defer p.deliverMu.Unlock()
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *ExternalProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.setAccount(nil)
	return nil
}

// NeedsRefresh reports whether the id token expires within the refresh window.
func (p *ExternalProvider) NeedsRefresh(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.account == nil || strings.TrimSpace(p.account.RefreshToken) == "" || p.account.ExpiresAt.IsZero() {
		return false
	}
	return p.account.ExpiresAt.Sub(now) < refreshWindow
}

// ExpiresAt is the current id token expiry, zero when signed out or unknown.
func (p *ExternalProvider) ExpiresAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.account == nil {
		return time.Time{}
	}
	return p.account.ExpiresAt
}

// Refresh renews the id token. A rejected refresh token ends the session.
func (p *ExternalProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.account == nil {
		p.mu.Unlock()
		return nil
	}
	refreshToken := p.account.RefreshToken
	p.mu.Unlock()

	acct, err := p.client.Refresh(ctx, refreshToken)
	if err != nil {
		var ie *identity.Error
		if errors.As(err, &ie) && ie.Rejected() {
			p.log.Warn("refresh rejected; ending session", zap.String("module", "identity"), zap.Error(err))
			p.setAccount(nil)
		}
		return err
	}
	p.setAccount(&acct)
	return nil
}

func (p *ExternalProvider) setAccount(acct *identity.Account) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	p.account = acct
	p.user = userFromAccount(acct)
	u := p.user.clone()
	fns := make([]func(*User), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(u.clone())
	}
}

func userFromAccount(acct *identity.Account) *User {
	if acct == nil {
		return nil
	}
	u := &User{ID: acct.UserID}
	if c, err := identity.ParseClaims(acct.IDToken); err == nil {
		if c.Subject != "" {
			u.ID = c.Subject
		}
		u.Email = c.Email
		u.DisplayName = c.Name
		u.AvatarURL = c.Picture
		u.Anonymous = c.Anonymous()
	}
	return u
}
