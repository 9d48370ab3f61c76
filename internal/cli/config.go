package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aihelper/aihelper-cli/internal/config"
	"github.com/aihelper/aihelper-cli/internal/configstore"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the stored backend address",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigUseCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show resolved settings and where each came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.Settings
			_, statErr := os.Stat(s.ConfigPath)
			meta := map[string]any{
				"storePath": s.ConfigPath,
				"stored":    s.ConfigPath != "" && statErr == nil,
				"sources":   s.Sources,
			}
			data := map[string]any{
				"backendUrl":          s.BackendURL,
				"identityConfigured":  strings.TrimSpace(s.IdentityConfig) != "",
				"identityUrl":         s.IdentityURL,
				"identityTokenUrl":    s.IdentityTokenURL,
				"initialTokenPresent": s.InitialAuthToken != "",
				"logFile":             s.LogFile,
				"debug":               s.Debug,
			}
			if s.BackendURL == "" {
				meta["hint"] = "BACKEND_URL is not set. Run `aihelper config use local` or export BACKEND_URL."
			}
			return writeData(cmd, app, meta, data)
		},
	}
}

func newConfigUseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <local|url>",
		Short: "Store the backend base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(args[0])
			if target == "" {
				return writeErr(cmd, errors.New("missing target"))
			}

			backendURL := target
			if strings.EqualFold(target, "local") {
				backendURL = configstore.DefaultLocalBackendURL
			}
			backendURL = strings.TrimRight(strings.TrimSpace(backendURL), "/")
			if backendURL == "" {
				return writeErr(cmd, errors.New("invalid backend url"))
			}
			if !strings.HasPrefix(backendURL, "http://") && !strings.HasPrefix(backendURL, "https://") {
				return writeErr(cmd, fmt.Errorf("invalid backend url (expected http/https): %s", backendURL))
			}

			path := app.Settings.ConfigPath
			if path == "" {
				p, err := configstore.DefaultPath()
				if err != nil {
					return writeErr(cmd, err)
				}
				path = p
			}
			st, err := configstore.LoadOptional(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			st.BackendURL = backendURL
			if err := configstore.SaveAtomic(path, st); err != nil {
				return writeErr(cmd, err)
			}

			meta := map[string]any{
				"storePath": path,
				"stored":    true,
				"hint":      "You can still override per-run via --backend or BACKEND_URL.",
			}
			if src := app.Settings.Sources[config.EnvBackendURL]; src == config.SourceEnv || src == config.SourceDotenv {
				if strings.TrimRight(app.Settings.BackendURL, "/") != backendURL {
					meta["warning"] = fmt.Sprintf("BACKEND_URL is set (%s) and will override this config.", src)
					meta["unsetEnv"] = "unset BACKEND_URL"
				}
			}
			app.Settings.BackendURL = backendURL
			return writeData(cmd, app, meta, map[string]any{"backendUrl": backendURL})
		},
	}
	return cmd
}
