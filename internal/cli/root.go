package cli

import (
	"fmt"
	"os"

	"github.com/aihelper/aihelper-cli/internal/config"
	"github.com/aihelper/aihelper-cli/internal/format"
	"github.com/aihelper/aihelper-cli/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	PrettyJSON bool
	Format     string
	BackendURL string
	LogFile    string
	ConfigPath string
	Debug      bool

	Settings config.Settings
	Log      *zap.Logger
	closeLog func()
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "aihelper",
		Short:        "AI study helper",
		Long:         "Log in to the AI helper backend and send study content plus a prompt to it.\nRun without a subcommand for the interactive UI.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("AIHELPER_FORMAT", format.JSON), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.BackendURL, "backend", "", "Backend base URL (or set BACKEND_URL)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Log file path (or set AIHELPER_LOG_FILE)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file path (or set AIHELPER_CONFIG)")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Log at debug level")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newProcessCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	return cmd
}

// load resolves settings and opens the log file. A log file that cannot be
// opened leaves a no-op logger; it never blocks the command.
func (app *App) load() error {
	s, err := config.Loader{ConfigPath: app.ConfigPath}.Resolve(config.Overrides{
		BackendURL: app.BackendURL,
		LogFile:    app.LogFile,
		Debug:      app.Debug,
	})
	if err != nil {
		return err
	}
	app.Settings = s

	l, closeFn, err := logging.New(logging.Options{File: s.LogFile, Debug: s.Debug})
	if err != nil && s.Debug {
		fmt.Fprintf(os.Stderr, "aihelper: logging disabled: %v\n", err)
	}
	app.Log = l
	app.closeLog = closeFn
	app.Log.Debug("settings resolved",
		zap.String("module", "cli"),
		zap.String("config_path", s.ConfigPath),
		zap.Bool("backend_configured", s.BackendURL != ""),
		zap.Bool("identity_configured", s.IdentityConfig != ""),
		zap.Any("sources", s.Sources))
	return nil
}

func (app *App) close() {
	if app.closeLog != nil {
		app.closeLog()
		app.closeLog = nil
	}
}

func (app *App) logger() *zap.Logger {
	if app.Log == nil {
		return zap.NewNop()
	}
	return app.Log
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
