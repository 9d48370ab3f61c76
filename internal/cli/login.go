package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/aihelper/aihelper-cli/internal/api"
	"github.com/aihelper/aihelper-cli/internal/login"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials against the backend",
		Long:  "Submit a username and password to the backend login endpoint.\nThe session lives only for this process; nothing is stored.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				if password != "" {
					return writeFailure(cmd, app, "usage_error", errors.New("--password and --password-stdin are mutually exclusive"), "")
				}
				pw, err := readSecretLine(cmd.InOrStdin())
				if err != nil {
					return writeFailure(cmd, app, "usage_error", err, "Pipe the password on stdin.")
				}
				password = pw
			}

			w := app.wire()
			flow := login.New(app.backend(), w.store, w.notes, w.nav, app.logger())
			res := flow.Submit(cmd.Context(), login.Credentials{Username: username, Password: password})
			if !res.OK {
				code, hint := loginFailureCode(res.Err)
				return writeFailure(cmd, app, code, errors.New(res.Message), hint)
			}
			return writeData(cmd, app, map[string]any{"route": string(w.nav.Current())}, map[string]any{
				"message": res.Message,
				"user": map[string]any{
					"id":          res.User.ID,
					"displayName": res.User.DisplayName,
					"email":       res.User.Email,
				},
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func loginFailureCode(err error) (string, string) {
	var se *api.StatusError
	switch {
	case errors.Is(err, login.ErrMissingCredentials):
		return "validation_error", "Pass --username and --password (or --password-stdin)."
	case errors.Is(err, api.ErrNotConfigured):
		return "not_configured", "Set BACKEND_URL or run `aihelper config use local`."
	case errors.As(err, &se):
		return "login_failed", ""
	default:
		return "network_error", "Check that the backend is running."
	}
}

func readSecretLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
