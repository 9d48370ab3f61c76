package tui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

func copyToClipboard(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("nothing to copy")
	}
	if clipboard.Unsupported {
		return errors.New("no clipboard available (install xclip, xsel or wl-clipboard)")
	}
	return writeClipboard(text)
}
