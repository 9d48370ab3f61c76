package cli

import (
	"github.com/aihelper/aihelper-cli/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runTUI(cmd *cobra.Command, app *App) error {
	w := app.wire()
	defer w.bootstrap.Close()

	log := app.logger()
	if !app.backend().Configured() {
		log.Warn("BACKEND_URL is not configured", zap.String("module", "cli"))
	}
	log.Info("starting interactive ui", zap.String("module", "cli"), zap.Bool("remote_identity", w.bootstrap.Provider().Remote()))

	return tui.Run(cmd.Context(), tui.Config{
		Store:     w.store,
		Notes:     w.notes,
		Router:    w.nav,
		Bootstrap: w.bootstrap,
		Backend:   app.backend(),
		Log:       log,
	})
}
