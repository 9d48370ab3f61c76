package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aihelper/aihelper-cli/internal/api"
	"github.com/aihelper/aihelper-cli/internal/homework"

	"github.com/spf13/cobra"
)

func newProcessCmd(app *App) *cobra.Command {
	var content, contentFile, prompt, variant string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Send study content and a prompt to the AI backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if content != "" && contentFile != "" {
				return writeFailure(cmd, app, "usage_error", errors.New("--content and --content-file are mutually exclusive"), "")
			}
			if contentFile != "" {
				b, err := readContentFile(cmd, contentFile)
				if err != nil {
					return writeFailure(cmd, app, "usage_error", err, "")
				}
				content = string(b)
			}
			v, err := homework.ParseVariant(variant)
			if err != nil {
				return writeFailure(cmd, app, "usage_error", err, "")
			}

			w := app.wire()
			o := homework.New(app.backend(), w.notes, app.logger())
			st := o.Submit(cmd.Context(), homework.Input{StudyContent: content, Prompt: prompt, Variant: v})
			if st.Kind != homework.Succeeded {
				code, hint := processFailureCode(o.Err())
				return writeFailure(cmd, app, code, errors.New(st.Message), hint)
			}
			return writeData(cmd, app, map[string]any{"api": string(v)}, map[string]any{
				"output": st.Output,
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Study content")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read study content from a file (- for stdin)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "What to do with the content")
	cmd.Flags().StringVar(&variant, "api", string(homework.VariantGemini), "AI backend variant (gemini|llama)")
	return cmd
}

func readContentFile(cmd *cobra.Command, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	return b, nil
}

func processFailureCode(err error) (string, string) {
	var se *api.StatusError
	switch {
	case errors.Is(err, homework.ErrMissingInput):
		return "validation_error", "Pass both --content (or --content-file) and --prompt."
	case errors.Is(err, api.ErrNotConfigured):
		return "not_configured", "Set BACKEND_URL or run `aihelper config use local`."
	case errors.As(err, &se):
		return "backend_error", ""
	case errors.Is(err, api.ErrMalformedResponse):
		return "malformed_response", ""
	default:
		return "network_error", "Check your connection and that the backend is running."
	}
}
