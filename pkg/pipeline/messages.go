package pipeline

import "errors"

// HelpURL is linked from every error notification.
const HelpURL = "https://otsobear.pyscriptapps.com/latex-to-calc/"

// User-facing messages.
const (
	MsgNoInput        = "No LaTeX found in selection or clipboard."
	MsgNoInternet     = "No internet connection. Check your network and try again."
	MsgServerDown     = "Translation server is unreachable. Please try again later."
	MsgClipboardError = "Translated, but could not copy the result to the clipboard."
)

// ErrNoInput is returned when there is no expression to translate.
var ErrNoInput = errors.New("no input expression")
