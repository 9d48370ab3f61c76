package cli

import (
	"runtime"

	"github.com/aihelper/aihelper-cli/internal/buildinfo"
	"github.com/aihelper/aihelper-cli/internal/config"

	"github.com/spf13/cobra"
)

// newVersionCmd reports the build and the backend this binary would talk to.
func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information and the resolved backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			build := map[string]any{
				"summary":   buildinfo.Summary(),
				"version":   buildinfo.DisplayVersion(),
				"commit":    buildinfo.Commit,
				"day":       buildinfo.BuildDay(),
				"go":        runtime.Version(),
				"userAgent": buildinfo.UserAgent(),
			}
			backend := app.backend()
			meta := map[string]any{
				"backendUrl":       backend.Address(),
				"backendSource":    string(app.Settings.Sources[config.EnvBackendURL]),
				"identityProvider": app.sessionProvider().Remote(),
			}
			if !backend.Configured() {
				meta["hint"] = "BACKEND_URL is not set. Run `aihelper config use local` or export BACKEND_URL."
			}
			return writeData(cmd, app, meta, build)
		},
	}
}
