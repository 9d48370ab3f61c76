package cli

import (
	"net/http"
	"time"

	"github.com/aihelper/aihelper-cli/internal/api"
	"github.com/aihelper/aihelper-cli/internal/identity"
	"github.com/aihelper/aihelper-cli/internal/notify"
	"github.com/aihelper/aihelper-cli/internal/router"
	"github.com/aihelper/aihelper-cli/internal/session"

	"go.uber.org/zap"
)

const backendTimeout = 2 * time.Minute

func (app *App) backend() api.Client {
	return api.Client{
		BaseURL: app.Settings.BackendURL,
		HTTP:    &http.Client{Timeout: backendTimeout},
		Logger:  app.logger(),
	}
}

// sessionProvider picks the provider from IDENTITY_CONFIG. An unparsable
// configuration is logged and treated as absent.
func (app *App) sessionProvider() session.Provider {
	log := app.logger()
	cfg, err := identity.ParseConfig(app.Settings.IdentityConfig)
	if err != nil {
		log.Warn("ignoring identity config", zap.String("module", "cli"), zap.Error(err))
		return session.LocalProvider{}
	}
	if cfg.Empty() {
		return session.LocalProvider{}
	}
	client := identity.Client{
		IdentityURL: app.Settings.IdentityURL,
		TokenURL:    app.Settings.IdentityTokenURL,
		APIKey:      cfg.APIKey,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
		Logger:      log,
	}
	return session.NewProvider(cfg, client, app.Settings.InitialAuthToken, log)
}

// wiring is the process-wide state every view and flow shares.
type wiring struct {
	store     *session.Store
	notes     *notify.Surface
	nav       *router.Router
	bootstrap *session.Bootstrap
}

func (app *App) wire() wiring {
	w := wiring{
		store: session.NewStore(),
		notes: notify.New(),
		nav:   router.New(router.RouteLogin),
	}
	w.bootstrap = session.NewBootstrap(w.store, app.sessionProvider(), w.notes, w.nav, app.logger())
	return w
}
